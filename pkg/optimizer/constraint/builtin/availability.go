// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"

	"github.com/yipai/yipai/pkg/optimizer/constraint"
)

// AvailabilityConstraint 可用时间约束
// 被分配人员的可用时间窗口必须覆盖单元的时间窗口
type AvailabilityConstraint struct {
	*BaseConstraint
}

// NewAvailabilityConstraint 创建可用时间约束
func NewAvailabilityConstraint() *AvailabilityConstraint {
	return &AvailabilityConstraint{
		BaseConstraint: NewBaseConstraint(
			"可用时间",
			constraint.TypeAvailability,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估整个排班方案
func (c *AvailabilityConstraint) Evaluate(ctx *constraint.Context) (bool, float64, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail

	for _, u := range ctx.Units {
		for _, a := range ctx.GetUnitAssignments(u.ID) {
			if !a.IsFilled() {
				continue
			}
			s := ctx.GetStaff(*a.StaffID)
			if s == nil {
				continue
			}

			if !s.IsAvailable(u.Window) {
				staffID := s.ID
				unitID := u.ID
				violations = append(violations, constraint.ViolationDetail{
					ConstraintType: c.Type(),
					ConstraintName: c.Name(),
					StaffID:        &staffID,
					UnitID:         &unitID,
					Message: fmt.Sprintf("人员 %s 在 %s ~ %s 不可用，无法承担单元 %s",
						s.Name,
						u.Window.Start.Format("2006-01-02 15:04"),
						u.Window.End.Format("15:04"),
						u.Name),
					Severity: "error",
					Penalty:  c.Weight(),
				})
			}
		}
	}

	return len(violations) == 0, float64(len(violations)) * c.Weight(), violations
}
