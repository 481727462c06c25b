// Package builtin 提供内置约束实现
package builtin

import (
	"github.com/yipai/yipai/pkg/optimizer/constraint"
)

// 软约束默认权重
const (
	DefaultWorkloadBalanceWeight = 1.0
	DefaultPreferenceWeight      = 2.0
	DefaultFragmentationWeight   = 0.5
	DefaultCommuteWeight         = 0.5
)

// DefaultHardConstraints 返回默认硬约束集合
func DefaultHardConstraints() []constraint.Constraint {
	return []constraint.Constraint{
		NewDoubleBookingConstraint(),
		NewRoleMatchConstraint(),
		NewAvailabilityConstraint(),
		NewUnitCapacityConstraint(),
		NewUnderstaffingConstraint(),
		NewMaxWeeklyHoursConstraint(),
	}
}

// DefaultSoftConstraints 返回默认软约束集合
func DefaultSoftConstraints() []constraint.Constraint {
	return []constraint.Constraint{
		NewWorkloadBalanceConstraint(DefaultWorkloadBalanceWeight),
		NewPreferenceRankConstraint(DefaultPreferenceWeight),
		NewShiftFragmentationConstraint(DefaultFragmentationWeight),
		NewCommuteBurdenConstraint(DefaultCommuteWeight),
	}
}

// NewDefaultManager 创建装配了默认约束集合的管理器
func NewDefaultManager() *constraint.Manager {
	m := constraint.NewManager()
	for _, c := range DefaultHardConstraints() {
		m.Register(c)
	}
	for _, c := range DefaultSoftConstraints() {
		m.Register(c)
	}
	return m
}

// BuildFromConfig 根据配置构造约束集合
// weights 中缺省的类型使用默认权重；值为 0 表示禁用该软约束
func BuildFromConfig(weights map[constraint.Type]float64) *constraint.Manager {
	m := constraint.NewManager()
	for _, c := range DefaultHardConstraints() {
		m.Register(c)
	}

	register := func(t constraint.Type, defaultWeight float64, build func(weight float64) constraint.Constraint) {
		w := defaultWeight
		if v, ok := weights[t]; ok {
			w = v
		}
		if w > 0 {
			m.Register(build(w))
		}
	}

	register(constraint.TypeWorkloadBalance, DefaultWorkloadBalanceWeight, func(w float64) constraint.Constraint {
		return NewWorkloadBalanceConstraint(w)
	})
	register(constraint.TypePreferenceRank, DefaultPreferenceWeight, func(w float64) constraint.Constraint {
		return NewPreferenceRankConstraint(w)
	})
	register(constraint.TypeShiftFragmentation, DefaultFragmentationWeight, func(w float64) constraint.Constraint {
		return NewShiftFragmentationConstraint(w)
	})
	register(constraint.TypeCommuteBurden, DefaultCommuteWeight, func(w float64) constraint.Constraint {
		return NewCommuteBurdenConstraint(w)
	})

	return m
}
