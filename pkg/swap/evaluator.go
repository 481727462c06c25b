// Package swap 提供席位调整评估与推荐
// 当某个席位的人员请假或方案存在违反时，评估把该席位转交给
// 其他人员（接替）或与另一席位互换（对调）的可行性和影响。
package swap

import (
	"math"

	"github.com/yipai/yipai/pkg/model"
	"github.com/yipai/yipai/pkg/optimizer/constraint"
)

// Evaluator 席位调整评估器
type Evaluator struct {
	manager *constraint.Manager
}

// NewEvaluator 创建席位调整评估器
func NewEvaluator(manager *constraint.Manager) *Evaluator {
	return &Evaluator{manager: manager}
}

// Request 席位调整请求
type Request struct {
	Source      *model.Assignment `json:"source"`           // 待调整的席位
	TargetStaff *model.Staff      `json:"target_staff"`     // 接替人员
	Target      *model.Assignment `json:"target,omitempty"` // 互换时对方的席位
}

// Evaluation 调整评估结果
type Evaluation struct {
	Feasible       bool    `json:"feasible"`
	Score          float64 `json:"score"` // 0-100
	HardCount      int     `json:"hard_count"`
	PenaltyChange  float64 `json:"penalty_change"` // 调整前后软罚分差，负值表示改善
	Issues         []Issue `json:"issues"`
	Impact         *Impact `json:"impact"`
	Recommendation string  `json:"recommendation"`
}

// Issue 调整问题
type Issue struct {
	Type     string `json:"type"`
	Severity string `json:"severity"` // error/warning
	Message  string `json:"message"`
}

// Impact 调整影响
type Impact struct {
	SourceStaff *StaffImpact `json:"source_staff"`
	TargetStaff *StaffImpact `json:"target_staff"`
}

// StaffImpact 对单个人员的影响
type StaffImpact struct {
	HoursChange         float64 `json:"hours_change"`
	PreferenceSatisfied bool    `json:"preference_satisfied"`
}

// Evaluate 评估一次席位调整
// ctx 必须携带当前方案（经 ForPlan 派生）
func (e *Evaluator) Evaluate(ctx *constraint.Context, req *Request) *Evaluation {
	result := &Evaluation{
		Feasible: true,
		Score:    100,
		Issues:   make([]Issue, 0),
		Impact: &Impact{
			SourceStaff: &StaffImpact{},
			TargetStaff: &StaffImpact{},
		},
	}

	if req.Source == nil || req.TargetStaff == nil {
		result.Feasible = false
		result.Issues = append(result.Issues, Issue{
			Type:     "invalid_request",
			Severity: "error",
			Message:  "无效的调整请求",
		})
		return result
	}

	target := req.TargetStaff

	if !target.IsActive() {
		result.Feasible = false
		result.Issues = append(result.Issues, Issue{
			Type:     "staff_inactive",
			Severity: "error",
			Message:  "接替人员不在编",
		})
		return result
	}

	// 单元要求预检，尽早给出明确原因
	if unit := ctx.GetUnit(req.Source.UnitID); unit != nil {
		if !unit.Eligible(target) {
			result.Feasible = false
			result.Issues = append(result.Issues, Issue{
				Type:     "requirement_mismatch",
				Severity: "error",
				Message:  "接替人员不符合单元要求: " + unit.Name,
			})
		}
	}

	// 模拟调整后的方案并做全量约束评估
	baseline := e.manager.Evaluate(ctx)
	simCtx := ctx.ForPlan(e.simulate(ctx, req))
	simulated := e.manager.Evaluate(simCtx)

	result.HardCount = simulated.HardCount
	result.PenaltyChange = simulated.SoftPenalty - baseline.SoftPenalty

	for _, v := range simulated.HardViolations {
		if v.StaffID != nil && *v.StaffID == target.ID {
			result.Feasible = false
			result.Issues = append(result.Issues, Issue{
				Type:     string(v.ConstraintType),
				Severity: "error",
				Message:  v.Message,
			})
		}
	}
	// 调整不得让整体硬违反变多
	if simulated.HardCount > baseline.HardCount {
		result.Feasible = false
	}

	for _, v := range simulated.SoftViolations {
		if v.StaffID != nil && *v.StaffID == target.ID {
			result.Issues = append(result.Issues, Issue{
				Type:     string(v.ConstraintType),
				Severity: "warning",
				Message:  v.Message,
			})
		}
	}

	result.Score = e.score(result)
	e.calculateImpact(ctx, req, result)
	result.Recommendation = e.recommendation(result)

	return result
}

// simulate 构造调整后的分配方案
func (e *Evaluator) simulate(ctx *constraint.Context, req *Request) []*model.Assignment {
	targetID := req.TargetStaff.ID
	simulated := make([]*model.Assignment, 0, len(ctx.Assignments))

	for _, a := range ctx.Assignments {
		switch {
		case a.ID == req.Source.ID:
			clone := *a
			clone.StaffID = &targetID
			simulated = append(simulated, &clone)
		case req.Target != nil && a.ID == req.Target.ID:
			// 互换：对方席位交给原人员
			clone := *a
			clone.StaffID = req.Source.StaffID
			simulated = append(simulated, &clone)
		default:
			simulated = append(simulated, a)
		}
	}

	return simulated
}

func (e *Evaluator) score(result *Evaluation) float64 {
	score := 100.0
	score -= float64(result.HardCount) * 50
	if result.PenaltyChange > 0 {
		score -= result.PenaltyChange * 2
	}
	return math.Max(0, math.Min(100, score))
}

// calculateImpact 计算调整对双方工时的影响
func (e *Evaluator) calculateImpact(ctx *constraint.Context, req *Request, result *Evaluation) {
	unit := ctx.GetUnit(req.Source.UnitID)
	if unit == nil {
		return
	}
	hours := unit.Hours()

	if req.Source.StaffID != nil {
		result.Impact.SourceStaff.HoursChange = -hours
	}
	result.Impact.TargetStaff.HoursChange = hours

	if req.Target != nil {
		if other := ctx.GetUnit(req.Target.UnitID); other != nil {
			result.Impact.SourceStaff.HoursChange += other.Hours()
			result.Impact.TargetStaff.HoursChange -= other.Hours()
		}
	}

	result.Impact.TargetStaff.PreferenceSatisfied = req.TargetStaff.PreferenceRank(unit.ID) > 0
}

func (e *Evaluator) recommendation(result *Evaluation) string {
	if !result.Feasible {
		return "不建议进行此调整，存在硬约束冲突"
	}
	switch {
	case result.Score >= 90:
		return "强烈推荐，调整后整体效果良好"
	case result.Score >= 70:
		return "可以进行，但存在一些软约束问题"
	case result.Score >= 50:
		return "谨慎进行，可能影响整体方案质量"
	default:
		return "不推荐，虽然可行但会显著降低方案质量"
	}
}

// CanSwap 快速检查是否可以调整
func (e *Evaluator) CanSwap(ctx *constraint.Context, req *Request) (bool, string) {
	result := e.Evaluate(ctx, req)
	if !result.Feasible {
		if len(result.Issues) > 0 {
			return false, result.Issues[0].Message
		}
		return false, "无法进行调整"
	}
	return true, ""
}
