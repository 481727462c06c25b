// Package constraint 定义约束接口和管理器
package constraint

import (
	"github.com/google/uuid"

	"github.com/yipai/yipai/pkg/model"
)

// Type 约束类型标识
type Type string

const (
	// 硬约束类型
	TypeDoubleBooking  Type = "double_booking"   // 重复排班（时间冲突）
	TypeRoleMatch      Type = "role_match"       // 角色/技能匹配
	TypeAvailability   Type = "availability"     // 可用时间
	TypeUnitCapacity   Type = "unit_capacity"    // 单元容量（不得超员）
	TypeUnderstaffing  Type = "understaffing"    // 单元缺员（席位必须填满）
	TypeMaxWeeklyHours Type = "max_weekly_hours" // 最大周工时

	// 软约束类型
	TypeWorkloadBalance    Type = "workload_balance"    // 工作量均衡
	TypePreferenceRank     Type = "preference_rank"     // 希望顺位满足
	TypeShiftFragmentation Type = "shift_fragmentation" // 班次碎片化
	TypeCommuteBurden      Type = "commute_burden"      // 通勤负担
)

// Category 约束类别
type Category string

const (
	CategoryHard Category = "hard" // 硬约束（必须满足）
	CategorySoft Category = "soft" // 软约束（尽量满足）
)

// Constraint 约束接口
// Evaluate 必须是 (方案, 请求数据) 的纯函数：不得使用随机数或可变内部状态，
// 以保证同一方案的评估结果可复现，并允许按染色体并行评估
type Constraint interface {
	// Name 返回约束名称
	Name() string

	// Type 返回约束类型
	Type() Type

	// Category 返回约束类别
	Category() Category

	// Weight 返回约束权重（软约束参与适应度加权，硬约束仅作展示）
	Weight() float64

	// Evaluate 评估整个排班方案
	// 返回：是否满足、惩罚值、违反详情
	Evaluate(ctx *Context) (valid bool, penalty float64, details []ViolationDetail)
}

// ViolationDetail 约束违反详情
type ViolationDetail struct {
	ConstraintType Type       `json:"constraint_type"`
	ConstraintName string     `json:"constraint_name"`
	StaffID        *uuid.UUID `json:"staff_id,omitempty"`
	UnitID         *uuid.UUID `json:"unit_id,omitempty"`
	Message        string     `json:"message"`
	Severity       string     `json:"severity"` // error/warning
	Penalty        float64    `json:"penalty"`
}

// Context 评估上下文
// 人员/单元部分在一次优化中只读共享；分配部分按待评估方案构建
type Context struct {
	DepartmentID uuid.UUID           `json:"department_id"`
	Staff        []*model.Staff      `json:"staff"`
	Units        []*model.Unit       `json:"units"`
	Assignments  []*model.Assignment `json:"assignments"`

	// 索引缓存
	staffMap         map[uuid.UUID]*model.Staff
	unitMap          map[uuid.UUID]*model.Unit
	assignmentsByStf map[uuid.UUID][]*model.Assignment
	assignmentsByUnt map[uuid.UUID][]*model.Assignment
}

// NewContext 创建评估上下文（不含分配）
func NewContext(departmentID uuid.UUID, staff []*model.Staff, units []*model.Unit) *Context {
	ctx := &Context{
		DepartmentID: departmentID,
		Staff:        staff,
		Units:        units,
		staffMap:     make(map[uuid.UUID]*model.Staff, len(staff)),
		unitMap:      make(map[uuid.UUID]*model.Unit, len(units)),
	}
	for _, s := range staff {
		ctx.staffMap[s.ID] = s
	}
	for _, u := range units {
		ctx.unitMap[u.ID] = u
	}
	return ctx
}

// ForPlan 基于同一人员/单元快照，为某个候选方案派生新的上下文
// 返回的上下文与接收者共享只读索引，各自持有独立的分配索引，
// 因此多个方案可以在不同 goroutine 中同时评估
func (c *Context) ForPlan(assignments []*model.Assignment) *Context {
	derived := &Context{
		DepartmentID:     c.DepartmentID,
		Staff:            c.Staff,
		Units:            c.Units,
		Assignments:      assignments,
		staffMap:         c.staffMap,
		unitMap:          c.unitMap,
		assignmentsByStf: make(map[uuid.UUID][]*model.Assignment),
		assignmentsByUnt: make(map[uuid.UUID][]*model.Assignment),
	}
	for _, a := range assignments {
		if a.StaffID != nil {
			derived.assignmentsByStf[*a.StaffID] = append(derived.assignmentsByStf[*a.StaffID], a)
		}
		derived.assignmentsByUnt[a.UnitID] = append(derived.assignmentsByUnt[a.UnitID], a)
	}
	return derived
}

// GetStaff 获取人员
func (c *Context) GetStaff(id uuid.UUID) *model.Staff {
	return c.staffMap[id]
}

// GetUnit 获取单元
func (c *Context) GetUnit(id uuid.UUID) *model.Unit {
	return c.unitMap[id]
}

// GetStaffAssignments 获取人员的所有已填席位
func (c *Context) GetStaffAssignments(staffID uuid.UUID) []*model.Assignment {
	return c.assignmentsByStf[staffID]
}

// GetUnitAssignments 获取单元的所有分配
func (c *Context) GetUnitAssignments(unitID uuid.UUID) []*model.Assignment {
	return c.assignmentsByUnt[unitID]
}

// StaffHours 计算人员在方案中的总工时
func (c *Context) StaffHours(staffID uuid.UUID) float64 {
	var hours float64
	for _, a := range c.assignmentsByStf[staffID] {
		if u := c.unitMap[a.UnitID]; u != nil {
			hours += u.Hours()
		}
	}
	return hours
}

// FilledSeats 计算单元已填席位数
func (c *Context) FilledSeats(unitID uuid.UUID) int {
	filled := 0
	for _, a := range c.assignmentsByUnt[unitID] {
		if a.IsFilled() {
			filled++
		}
	}
	return filled
}

// Result 约束评估结果
type Result struct {
	IsValid        bool              `json:"is_valid"`
	HardViolations []ViolationDetail `json:"hard_violations"`
	SoftViolations []ViolationDetail `json:"soft_violations"`
	HardCount      int               `json:"hard_count"`
	SoftPenalty    float64           `json:"soft_penalty"` // 已按权重加权
}
