// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"

	"github.com/yipai/yipai/pkg/optimizer/constraint"
)

// MaxWeeklyHoursConstraint 最大周工时约束
// 人员在方案内的总工时不得超过其合同上限；上限为 0 表示不限
type MaxWeeklyHoursConstraint struct {
	*BaseConstraint
}

// NewMaxWeeklyHoursConstraint 创建最大周工时约束
func NewMaxWeeklyHoursConstraint() *MaxWeeklyHoursConstraint {
	return &MaxWeeklyHoursConstraint{
		BaseConstraint: NewBaseConstraint(
			"最大周工时",
			constraint.TypeMaxWeeklyHours,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估整个排班方案
func (c *MaxWeeklyHoursConstraint) Evaluate(ctx *constraint.Context) (bool, float64, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail

	for _, s := range ctx.Staff {
		if s.MaxWeeklyHours <= 0 {
			continue
		}
		hours := ctx.StaffHours(s.ID)
		if hours > s.MaxWeeklyHours {
			staffID := s.ID
			violations = append(violations, constraint.ViolationDetail{
				ConstraintType: c.Type(),
				ConstraintName: c.Name(),
				StaffID:        &staffID,
				Message: fmt.Sprintf("人员 %s 总工时 %.1f 小时，超过上限 %.1f 小时",
					s.Name, hours, s.MaxWeeklyHours),
				Severity: "error",
				Penalty:  c.Weight() * (hours - s.MaxWeeklyHours),
			})
		}
	}

	return len(violations) == 0, float64(len(violations)) * c.Weight(), violations
}
