// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/yipai/yipai/pkg/optimizer/constraint"
)

// PreferenceRankConstraint 希望顺位约束
// 按志愿调查的希望顺位打分：第一志愿 1.0，第二志愿 0.66，第三志愿 0.33，希望外 0
// 惩罚值为 1 - 希望得分，希望外分配额外报告为 warning
type PreferenceRankConstraint struct {
	*BaseConstraint
}

// NewPreferenceRankConstraint 创建希望顺位约束
func NewPreferenceRankConstraint(weight float64) *PreferenceRankConstraint {
	return &PreferenceRankConstraint{
		BaseConstraint: NewBaseConstraint(
			"希望顺位",
			constraint.TypePreferenceRank,
			constraint.CategorySoft,
			weight,
		),
	}
}

// HopeScore 返回希望顺位得分
// 顺位从 1 开始；0 或负数视为希望外
func HopeScore(rank int) float64 {
	if rank <= 0 {
		return 0
	}
	score := 1.0 - float64(rank-1)*0.33
	if score < 0 {
		return 0
	}
	return score
}

// Evaluate 评估整个排班方案
func (c *PreferenceRankConstraint) Evaluate(ctx *constraint.Context) (bool, float64, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0.0

	for _, s := range ctx.Staff {
		// 未填报志愿的人员不参与打分
		if len(s.PreferenceRanks) == 0 {
			continue
		}

		for _, a := range ctx.GetStaffAssignments(s.ID) {
			rank := s.PreferenceRank(a.UnitID)
			score := HopeScore(rank)
			totalPenalty += 1.0 - score

			if rank == 0 {
				u := ctx.GetUnit(a.UnitID)
				name := a.UnitID.String()
				var unitID *uuid.UUID
				if u != nil {
					name = u.Name
					id := u.ID
					unitID = &id
				}
				staffID := s.ID
				violations = append(violations, constraint.ViolationDetail{
					ConstraintType: c.Type(),
					ConstraintName: c.Name(),
					StaffID:        &staffID,
					UnitID:         unitID,
					Message:        fmt.Sprintf("人员 %s 被分配到希望外的单元 %s", s.Name, name),
					Severity:       "warning",
					Penalty:        1,
				})
			}
		}
	}

	return totalPenalty == 0, totalPenalty, violations
}
