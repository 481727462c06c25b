// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"

	"github.com/yipai/yipai/pkg/optimizer/constraint"
)

// UnitCapacityConstraint 单元容量约束
// 单元的已填席位数不得超过需求人数
// 席位编码下优化器自身不会超员，该约束兜底既定分配与外部方案
type UnitCapacityConstraint struct {
	*BaseConstraint
}

// NewUnitCapacityConstraint 创建单元容量约束
func NewUnitCapacityConstraint() *UnitCapacityConstraint {
	return &UnitCapacityConstraint{
		BaseConstraint: NewBaseConstraint(
			"单元容量",
			constraint.TypeUnitCapacity,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估整个排班方案
func (c *UnitCapacityConstraint) Evaluate(ctx *constraint.Context) (bool, float64, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail

	for _, u := range ctx.Units {
		filled := ctx.FilledSeats(u.ID)
		if filled > u.Headcount {
			unitID := u.ID
			violations = append(violations, constraint.ViolationDetail{
				ConstraintType: c.Type(),
				ConstraintName: c.Name(),
				UnitID:         &unitID,
				Message:        fmt.Sprintf("单元 %s 超员: 已分配 %d 人，需求 %d 人", u.Name, filled, u.Headcount),
				Severity:       "error",
				Penalty:        c.Weight() * float64(filled-u.Headcount),
			})
		}
	}

	return len(violations) == 0, float64(len(violations)) * c.Weight(), violations
}

// UnderstaffingConstraint 单元缺员约束
// 单元的每个席位都必须分配人员；未填席位逐一报告
type UnderstaffingConstraint struct {
	*BaseConstraint
}

// NewUnderstaffingConstraint 创建单元缺员约束
func NewUnderstaffingConstraint() *UnderstaffingConstraint {
	return &UnderstaffingConstraint{
		BaseConstraint: NewBaseConstraint(
			"单元缺员",
			constraint.TypeUnderstaffing,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估整个排班方案
func (c *UnderstaffingConstraint) Evaluate(ctx *constraint.Context) (bool, float64, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail

	for _, u := range ctx.Units {
		filled := ctx.FilledSeats(u.ID)
		for missing := u.Headcount - filled; missing > 0; missing-- {
			unitID := u.ID
			violations = append(violations, constraint.ViolationDetail{
				ConstraintType: c.Type(),
				ConstraintName: c.Name(),
				UnitID:         &unitID,
				Message:        fmt.Sprintf("单元 %s 缺员: 已分配 %d 人，需求 %d 人", u.Name, filled, u.Headcount),
				Severity:       "error",
				Penalty:        c.Weight(),
			})
		}
	}

	return len(violations) == 0, float64(len(violations)) * c.Weight(), violations
}
