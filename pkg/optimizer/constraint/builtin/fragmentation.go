// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"
	"sort"
	"time"

	"github.com/yipai/yipai/pkg/model"
	"github.com/yipai/yipai/pkg/optimizer/constraint"
)

// ShiftFragmentationConstraint 班次碎片化约束
// 同一人员在同一天内的班次之间出现空档时记一次惩罚，
// 鼓励把一个人的班次排成连续块而不是零散拼接
type ShiftFragmentationConstraint struct {
	*BaseConstraint
	maxGap time.Duration // 超过该空档视为两段独立工作，不再惩罚
}

// NewShiftFragmentationConstraint 创建班次碎片化约束
func NewShiftFragmentationConstraint(weight float64) *ShiftFragmentationConstraint {
	return &ShiftFragmentationConstraint{
		BaseConstraint: NewBaseConstraint(
			"班次碎片化",
			constraint.TypeShiftFragmentation,
			constraint.CategorySoft,
			weight,
		),
		maxGap: 8 * time.Hour,
	}
}

// Evaluate 评估整个排班方案
func (c *ShiftFragmentationConstraint) Evaluate(ctx *constraint.Context) (bool, float64, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0.0

	for _, s := range ctx.Staff {
		assignments := ctx.GetStaffAssignments(s.ID)
		if len(assignments) < 2 {
			continue
		}

		units := make([]*model.Unit, 0, len(assignments))
		for _, a := range assignments {
			if u := ctx.GetUnit(a.UnitID); u != nil {
				units = append(units, u)
			}
		}
		sort.Slice(units, func(i, j int) bool {
			return units[i].Window.Start.Before(units[j].Window.Start)
		})

		for i := 1; i < len(units); i++ {
			prev, next := units[i-1], units[i]
			gap := next.Window.Start.Sub(prev.Window.End)
			if gap <= 0 || gap >= c.maxGap {
				continue
			}

			totalPenalty++
			staffID := s.ID
			unitID := next.ID
			violations = append(violations, constraint.ViolationDetail{
				ConstraintType: c.Type(),
				ConstraintName: c.Name(),
				StaffID:        &staffID,
				UnitID:         &unitID,
				Message: fmt.Sprintf("人员 %s 在 %s 与 %s 之间有 %.1f 小时空档",
					s.Name, prev.Name, next.Name, gap.Hours()),
				Severity: "warning",
				Penalty:  1,
			})
		}
	}

	return totalPenalty == 0, totalPenalty, violations
}
