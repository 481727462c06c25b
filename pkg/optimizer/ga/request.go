// Package ga 提供基于遗传算法的排班优化核心
package ga

import (
	"time"

	"github.com/google/uuid"

	"github.com/yipai/yipai/pkg/model"
	"github.com/yipai/yipai/pkg/optimizer/constraint"
)

// Request 一次优化请求的只读快照
// 核心不访问存储：人员、单元、既定分配全部由适配层装配好传入
type Request struct {
	ID               uuid.UUID           `json:"id"`
	DepartmentID     uuid.UUID           `json:"department_id"`
	Staff            []*model.Staff      `json:"staff"`
	Units            []*model.Unit       `json:"units"`
	FixedAssignments []*model.Assignment `json:"fixed_assignments,omitempty"`
	Constraints      *constraint.Manager `json:"-"`
	Config           Config              `json:"config"`
}

// Status 优化终态
type Status string

const (
	StatusConverged       Status = "converged"        // 收敛终止
	StatusBudgetExhausted Status = "budget_exhausted" // 代数/时间预算耗尽或被取消
	StatusInfeasible      Status = "infeasible"       // 最优个体仍违反硬约束
)

// Result 优化结果
// Infeasible 不是错误：Assignments 仍为尽力而为的最优方案，
// Violations 列出未解决的硬约束违反，由调用方决定如何处置
type Result struct {
	RequestID        uuid.UUID                    `json:"request_id"`
	Assignments      []*model.Assignment          `json:"assignments"`
	Fitness          float64                      `json:"fitness"`
	Feasible         bool                         `json:"feasible"`
	Status           Status                       `json:"status"`
	StopReason       Status                       `json:"stop_reason"` // converged / budget_exhausted
	Violations       []constraint.ViolationDetail `json:"violations"`
	ConstraintResult *constraint.Result           `json:"constraint_result,omitempty"`
	Generations      int                          `json:"generations"`
	Duration         time.Duration                `json:"duration"`
}
