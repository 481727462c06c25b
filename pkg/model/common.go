// Package model 定义医院排班优化引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// UnitKind 排班单元类型
type UnitKind string

const (
	UnitShift          UnitKind = "shift"           // 值班班次
	UnitOutpatientSlot UnitKind = "outpatient_slot" // 门诊时段
)

// Role 人员角色
type Role string

const (
	RoleDoctor     Role = "doctor"     // 医师
	RoleResident   Role = "resident"   // 专攻医/住院医
	RoleNurse      Role = "nurse"      // 护士
	RoleTechnician Role = "technician" // 技师
	RoleClerk      Role = "clerk"      // 事务员
)

// BaseModel 基础模型（包含通用字段）
type BaseModel struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// NewBaseModel 创建新的基础模型
func NewBaseModel() BaseModel {
	now := time.Now()
	return BaseModel{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JSONMap 用于存储 JSONB 数据
type JSONMap map[string]interface{}

// TimeRange 时间范围
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration 返回时间范围的持续时间
func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// Hours 返回时间范围的小时数
func (tr TimeRange) Hours() float64 {
	return tr.End.Sub(tr.Start).Hours()
}

// Overlaps 检查两个时间范围是否重叠
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return tr.Start.Before(other.End) && other.Start.Before(tr.End)
}

// Contains 检查时间范围是否完全包含另一个时间范围
func (tr TimeRange) Contains(other TimeRange) bool {
	return !other.Start.Before(tr.Start) && !other.End.After(tr.End)
}

// Department 科室
type Department struct {
	BaseModel
	Name     string  `json:"name" db:"name"`
	Code     string  `json:"code" db:"code"`
	Settings JSONMap `json:"settings" db:"settings"`
}
