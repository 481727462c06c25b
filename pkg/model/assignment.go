// Package model 定义医院排班优化引擎的核心数据模型
package model

import (
	"github.com/google/uuid"
)

// Assignment 排班分配：人员与单元（及可选患者）的关系
// StaffID 为 nil 表示该席位未能分配
type Assignment struct {
	BaseModel
	DepartmentID uuid.UUID  `json:"department_id" db:"department_id"`
	UnitID       uuid.UUID  `json:"unit_id" db:"unit_id"`
	Seat         int        `json:"seat" db:"seat"` // 单元内席位序号，从 0 开始
	StaffID      *uuid.UUID `json:"staff_id,omitempty" db:"staff_id"`
	PatientID    *uuid.UUID `json:"patient_id,omitempty" db:"patient_id"`
	Fixed        bool       `json:"fixed" db:"fixed"`         // 既定分配，优化器不得改动
	HopeRank     int        `json:"hope_rank" db:"hope_rank"` // 命中的希望顺位，0 表示希望外
	Mismatch     bool       `json:"mismatch" db:"mismatch"`   // 是否为希望外分配
	Status       string     `json:"status" db:"status"`       // proposed/confirmed/cancelled
}

// IsFilled 检查席位是否已分配人员
func (a *Assignment) IsFilled() bool {
	return a.StaffID != nil
}

// SameSeat 检查两个分配是否指向同一单元席位
func (a *Assignment) SameSeat(other *Assignment) bool {
	return a.UnitID == other.UnitID && a.Seat == other.Seat
}
