// Package model 定义医院排班优化引擎的核心数据模型
package model

import (
	"github.com/google/uuid"
)

// Unit 排班单元（值班班次或门诊时段）
// 优化器决策的对象：为每个单元的每个席位挑选一名人员
type Unit struct {
	BaseModel
	DepartmentID  uuid.UUID  `json:"department_id" db:"department_id"`
	Kind          UnitKind   `json:"kind" db:"kind"`
	Name          string     `json:"name" db:"name"`
	Code          string     `json:"code" db:"code"`
	Window        TimeRange  `json:"window" db:"-"`
	RequiredRole  Role       `json:"required_role" db:"required_role"`
	RequiredSkill string     `json:"required_skill,omitempty" db:"required_skill"`
	Headcount     int        `json:"headcount" db:"headcount"` // 需求人数/席位数
	LocationID    *uuid.UUID `json:"location_id,omitempty" db:"location_id"`
	PatientID     *uuid.UUID `json:"patient_id,omitempty" db:"patient_id"` // 门诊时段对应的患者
	Priority      int        `json:"priority" db:"priority"`               // 1-10，高优先
}

// Overlaps 检查两个单元的时间窗口是否重叠
func (u *Unit) Overlaps(other *Unit) bool {
	return u.Window.Overlaps(other.Window)
}

// Hours 返回单元时长（小时）
func (u *Unit) Hours() float64 {
	return u.Window.Hours()
}

// Eligible 检查人员是否满足单元的硬性角色/技能/可用性前提
// 这是编码和变异共用的可行性谓词，不包含跨单元约束
func (u *Unit) Eligible(s *Staff) bool {
	if !s.IsActive() {
		return false
	}
	if u.RequiredRole != "" && !s.HasRole(u.RequiredRole) {
		return false
	}
	if u.RequiredSkill != "" && !s.HasSkill(u.RequiredSkill) {
		return false
	}
	return s.IsAvailable(u.Window)
}
