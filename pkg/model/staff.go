// Package model 定义医院排班优化引擎的核心数据模型
package model

import (
	"github.com/google/uuid"
)

// Staff 医院人员
type Staff struct {
	BaseModel
	DepartmentID uuid.UUID `json:"department_id" db:"department_id"`
	Name         string    `json:"name" db:"name"`
	Code         string    `json:"code" db:"code"`
	Email        string    `json:"email,omitempty" db:"email"`
	Status       string    `json:"status" db:"status"` // active/inactive/leave
	Roles        []Role    `json:"roles" db:"roles"`
	Skills       []string  `json:"skills,omitempty" db:"skills"`

	// 排班相关
	MaxWeeklyHours float64     `json:"max_weekly_hours" db:"max_weekly_hours"` // 最大周工时，0 表示不限
	Availability   []TimeRange `json:"availability,omitempty" db:"-"`          // 可用时间窗口，空表示全程可用

	// 偏好（来自志愿调查）
	// key: 单元ID, value: 希望顺位（1 为第一志愿）
	PreferenceRanks map[uuid.UUID]int `json:"preference_ranks,omitempty" db:"-"`

	// 通勤时间缓存（分钟）
	// key: 单元所在地点（医院/院区）ID
	CommuteMinutes map[uuid.UUID]float64 `json:"commute_minutes,omitempty" db:"-"`
}

// IsActive 检查人员是否在职
func (s *Staff) IsActive() bool {
	return s.Status == "active"
}

// HasRole 检查人员是否具备某角色
func (s *Staff) HasRole(role Role) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasSkill 检查人员是否具备某技能
func (s *Staff) HasSkill(skill string) bool {
	for _, sk := range s.Skills {
		if sk == skill {
			return true
		}
	}
	return false
}

// IsAvailable 检查人员在某时间范围内是否可用
// 未登记任何可用窗口时视为全程可用
func (s *Staff) IsAvailable(tr TimeRange) bool {
	if len(s.Availability) == 0 {
		return true
	}
	for _, w := range s.Availability {
		if w.Contains(tr) {
			return true
		}
	}
	return false
}

// PreferenceRank 返回人员对某单元的希望顺位，0 表示未填报
func (s *Staff) PreferenceRank(unitID uuid.UUID) int {
	if s.PreferenceRanks == nil {
		return 0
	}
	return s.PreferenceRanks[unitID]
}
