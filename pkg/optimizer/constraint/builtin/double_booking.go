// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"
	"sort"

	"github.com/yipai/yipai/pkg/model"
	"github.com/yipai/yipai/pkg/optimizer/constraint"
)

// DoubleBookingConstraint 重复排班约束
// 同一人员不得被分配到时间窗口重叠的多个单元，也不得在同一单元占用多个席位
type DoubleBookingConstraint struct {
	*BaseConstraint
}

// NewDoubleBookingConstraint 创建重复排班约束
func NewDoubleBookingConstraint() *DoubleBookingConstraint {
	return &DoubleBookingConstraint{
		BaseConstraint: NewBaseConstraint(
			"重复排班",
			constraint.TypeDoubleBooking,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估整个排班方案
func (c *DoubleBookingConstraint) Evaluate(ctx *constraint.Context) (bool, float64, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail

	// 按人员切片顺序遍历，保证违反列表顺序稳定
	for _, s := range ctx.Staff {
		assignments := ctx.GetStaffAssignments(s.ID)
		if len(assignments) < 2 {
			continue
		}

		// 指向上下文外单元的分配无从比较窗口, 先剔除再排序
		sorted := make([]*model.Assignment, 0, len(assignments))
		for _, a := range assignments {
			if ctx.GetUnit(a.UnitID) != nil {
				sorted = append(sorted, a)
			}
		}
		if len(sorted) < 2 {
			continue
		}

		// 按单元开始时间排序后两两比较相邻窗口
		sort.Slice(sorted, func(i, j int) bool {
			ui, uj := ctx.GetUnit(sorted[i].UnitID), ctx.GetUnit(sorted[j].UnitID)
			if ui.Window.Start.Equal(uj.Window.Start) {
				return sorted[i].Seat < sorted[j].Seat
			}
			return ui.Window.Start.Before(uj.Window.Start)
		})

		for i := 0; i < len(sorted); i++ {
			for j := i + 1; j < len(sorted); j++ {
				ui := ctx.GetUnit(sorted[i].UnitID)
				uj := ctx.GetUnit(sorted[j].UnitID)
				if sorted[i].UnitID == sorted[j].UnitID {
					staffID := s.ID
					unitID := ui.ID
					violations = append(violations, constraint.ViolationDetail{
						ConstraintType: c.Type(),
						ConstraintName: c.Name(),
						StaffID:        &staffID,
						UnitID:         &unitID,
						Message:        fmt.Sprintf("人员 %s 在单元 %s 中占用了多个席位", s.Name, ui.Name),
						Severity:       "error",
						Penalty:        c.Weight(),
					})
					continue
				}
				if !ui.Overlaps(uj) {
					// 已按开始时间排序，后续单元不会再与 i 重叠
					break
				}
				staffID := s.ID
				unitID := uj.ID
				violations = append(violations, constraint.ViolationDetail{
					ConstraintType: c.Type(),
					ConstraintName: c.Name(),
					StaffID:        &staffID,
					UnitID:         &unitID,
					Message: fmt.Sprintf("人员 %s 在 %s 与 %s 时间冲突",
						s.Name, ui.Name, uj.Name),
					Severity: "error",
					Penalty:  c.Weight(),
				})
			}
		}
	}

	return len(violations) == 0, float64(len(violations)) * c.Weight(), violations
}
