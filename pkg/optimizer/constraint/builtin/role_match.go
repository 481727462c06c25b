// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"

	"github.com/yipai/yipai/pkg/optimizer/constraint"
)

// RoleMatchConstraint 角色/技能匹配约束
// 被分配人员必须具备单元要求的角色与技能
type RoleMatchConstraint struct {
	*BaseConstraint
}

// NewRoleMatchConstraint 创建角色匹配约束
func NewRoleMatchConstraint() *RoleMatchConstraint {
	return &RoleMatchConstraint{
		BaseConstraint: NewBaseConstraint(
			"角色匹配",
			constraint.TypeRoleMatch,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估整个排班方案
func (c *RoleMatchConstraint) Evaluate(ctx *constraint.Context) (bool, float64, []constraint.ViolationDetail) {
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

			if u.RequiredRole != "" && !s.HasRole(u.RequiredRole) {
				staffID := s.ID
				unitID := u.ID
				violations = append(violations, constraint.ViolationDetail{
					ConstraintType: c.Type(),
					ConstraintName: c.Name(),
					StaffID:        &staffID,
					UnitID:         &unitID,
					Message:        fmt.Sprintf("人员 %s 不具备单元 %s 要求的角色 %s", s.Name, u.Name, u.RequiredRole),
					Severity:       "error",
					Penalty:        c.Weight(),
				})
				continue
			}

			if u.RequiredSkill != "" && !s.HasSkill(u.RequiredSkill) {
				staffID := s.ID
				unitID := u.ID
				violations = append(violations, constraint.ViolationDetail{
					ConstraintType: c.Type(),
					ConstraintName: c.Name(),
					StaffID:        &staffID,
					UnitID:         &unitID,
					Message:        fmt.Sprintf("人员 %s 缺少单元 %s 要求的技能 %s", s.Name, u.Name, u.RequiredSkill),
					Severity:       "error",
					Penalty:        c.Weight(),
				})
			}
		}
	}

	return len(violations) == 0, float64(len(violations)) * c.Weight(), violations
}
