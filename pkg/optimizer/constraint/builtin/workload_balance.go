// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"
	"math"

	"github.com/yipai/yipai/pkg/optimizer/constraint"
)

// WorkloadBalanceConstraint 工作量均衡约束
// 惩罚值由两部分组成：完全未排班的人数，以及各人工时的方差
type WorkloadBalanceConstraint struct {
	*BaseConstraint
}

// NewWorkloadBalanceConstraint 创建工作量均衡约束
func NewWorkloadBalanceConstraint(weight float64) *WorkloadBalanceConstraint {
	return &WorkloadBalanceConstraint{
		BaseConstraint: NewBaseConstraint(
			"工作量均衡",
			constraint.TypeWorkloadBalance,
			constraint.CategorySoft,
			weight,
		),
	}
}

// Evaluate 评估整个排班方案
func (c *WorkloadBalanceConstraint) Evaluate(ctx *constraint.Context) (bool, float64, []constraint.ViolationDetail) {
	if len(ctx.Staff) < 2 {
		return true, 0, nil
	}

	var violations []constraint.ViolationDetail

	hours := make([]float64, len(ctx.Staff))
	total := 0.0
	idleCount := 0

	for i, s := range ctx.Staff {
		hours[i] = ctx.StaffHours(s.ID)
		total += hours[i]
		if hours[i] == 0 {
			idleCount++
			staffID := s.ID
			violations = append(violations, constraint.ViolationDetail{
				ConstraintType: c.Type(),
				ConstraintName: c.Name(),
				StaffID:        &staffID,
				Message:        fmt.Sprintf("人员 %s 在本方案中没有任何排班", s.Name),
				Severity:       "warning",
				Penalty:        1,
			})
		}
	}

	avg := total / float64(len(hours))
	variance := 0.0
	for _, h := range hours {
		variance += math.Pow(h-avg, 2)
	}
	variance /= float64(len(hours))

	penalty := float64(idleCount) + variance
	if variance > avg {
		violations = append(violations, constraint.ViolationDetail{
			ConstraintType: c.Type(),
			ConstraintName: c.Name(),
			Message:        fmt.Sprintf("工时分布不均: 平均 %.1f 小时，方差 %.1f", avg, variance),
			Severity:       "warning",
			Penalty:        variance,
		})
	}

	return penalty == 0, penalty, violations
}
