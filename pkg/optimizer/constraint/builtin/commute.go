// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"

	"github.com/yipai/yipai/pkg/optimizer/constraint"
)

// 通勤评分基准：120 分钟以上视为完全不可接受
const commuteCeilingMinutes = 120.0

// CommuteBurdenConstraint 通勤负担约束
// 根据人员到单元所在地点的通勤时间缓存打分，通勤越长惩罚越高
// 缺少缓存数据的组合按中间值 0.5 计
type CommuteBurdenConstraint struct {
	*BaseConstraint
}

// NewCommuteBurdenConstraint 创建通勤负担约束
func NewCommuteBurdenConstraint(weight float64) *CommuteBurdenConstraint {
	return &CommuteBurdenConstraint{
		BaseConstraint: NewBaseConstraint(
			"通勤负担",
			constraint.TypeCommuteBurden,
			constraint.CategorySoft,
			weight,
		),
	}
}

// Evaluate 评估整个排班方案
func (c *CommuteBurdenConstraint) Evaluate(ctx *constraint.Context) (bool, float64, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0.0

	for _, s := range ctx.Staff {
		for _, a := range ctx.GetStaffAssignments(s.ID) {
			u := ctx.GetUnit(a.UnitID)
			if u == nil || u.LocationID == nil {
				continue
			}

			minutes, ok := s.CommuteMinutes[*u.LocationID]
			if !ok {
				totalPenalty += 0.5
				continue
			}

			penalty := minutes / commuteCeilingMinutes
			if penalty > 1 {
				penalty = 1
			}
			totalPenalty += penalty

			if minutes >= commuteCeilingMinutes {
				staffID := s.ID
				unitID := u.ID
				violations = append(violations, constraint.ViolationDetail{
					ConstraintType: c.Type(),
					ConstraintName: c.Name(),
					StaffID:        &staffID,
					UnitID:         &unitID,
					Message:        fmt.Sprintf("人员 %s 前往单元 %s 的通勤时间达 %.0f 分钟", s.Name, u.Name, minutes),
					Severity:       "warning",
					Penalty:        1,
				})
			}
		}
	}

	return totalPenalty == 0, totalPenalty, violations
}
