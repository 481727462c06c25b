package swap

import (
	"sort"

	"github.com/google/uuid"

	"github.com/yipai/yipai/pkg/model"
	"github.com/yipai/yipai/pkg/optimizer/constraint"
)

// Recommender 席位调整推荐器
type Recommender struct {
	evaluator *Evaluator
}

// NewRecommender 创建席位调整推荐器
func NewRecommender(manager *constraint.Manager) *Recommender {
	return &Recommender{evaluator: NewEvaluator(manager)}
}

// Recommendation 调整推荐
type Recommendation struct {
	TargetStaff   *model.Staff      `json:"target_staff"`
	Assignment    *model.Assignment `json:"assignment,omitempty"` // 互换时对方的席位
	Score         float64           `json:"score"`
	Reason        string            `json:"reason"`
	SwapType      string            `json:"swap_type"` // take_over/exchange
	ImpactSummary string            `json:"impact_summary"`
	Rank          int               `json:"rank"`
}

// Options 推荐选项
type Options struct {
	MaxRecommendations int
	PreferredStaff     []uuid.UUID // 优先考虑的人员
	ExcludeStaff       []uuid.UUID // 排除的人员
	AllowExchange      bool        // 是否允许互换
	MinScore           float64
}

// DefaultOptions 返回默认选项
func DefaultOptions() *Options {
	return &Options{
		MaxRecommendations: 5,
		AllowExchange:      true,
		MinScore:           60,
	}
}

// RecommendTargets 为一个席位推荐接替/互换人选
// ctx 必须携带当前方案（经 ForPlan 派生）
func (r *Recommender) RecommendTargets(ctx *constraint.Context, source *model.Assignment, options *Options) []Recommendation {
	if options == nil {
		options = DefaultOptions()
	}

	excludeSet := make(map[uuid.UUID]bool)
	if source.StaffID != nil {
		excludeSet[*source.StaffID] = true
	}
	for _, id := range options.ExcludeStaff {
		excludeSet[id] = true
	}

	preferredSet := make(map[uuid.UUID]bool)
	for _, id := range options.PreferredStaff {
		preferredSet[id] = true
	}

	var candidates []Recommendation

	for _, staff := range ctx.Staff {
		if excludeSet[staff.ID] || !staff.IsActive() {
			continue
		}

		evaluation := r.evaluator.Evaluate(ctx, &Request{
			Source:      source,
			TargetStaff: staff,
		})

		if evaluation.Feasible && evaluation.Score >= options.MinScore {
			candidate := Recommendation{
				TargetStaff:   staff,
				Score:         evaluation.Score,
				SwapType:      "take_over",
				Reason:        r.reason(evaluation),
				ImpactSummary: r.impactSummary(evaluation),
			}
			if preferredSet[staff.ID] {
				candidate.Score += 10
			}
			candidates = append(candidates, candidate)
		}

		if options.AllowExchange {
			candidates = append(candidates, r.findExchanges(ctx, source, staff, options)...)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > options.MaxRecommendations {
		candidates = candidates[:options.MaxRecommendations]
	}
	for i := range candidates {
		candidates[i].Rank = i + 1
	}

	return candidates
}

// findExchanges 查找与某人员的互换候选
func (r *Recommender) findExchanges(ctx *constraint.Context, source *model.Assignment, target *model.Staff, options *Options) []Recommendation {
	sourceUnit := ctx.GetUnit(source.UnitID)
	if sourceUnit == nil {
		return nil
	}

	var candidates []Recommendation

	for _, theirs := range ctx.GetStaffAssignments(target.ID) {
		otherUnit := ctx.GetUnit(theirs.UnitID)
		if otherUnit == nil {
			continue
		}
		// 时间重叠的两个席位互换没有意义
		if sourceUnit.Overlaps(otherUnit) {
			continue
		}

		evaluation := r.evaluator.Evaluate(ctx, &Request{
			Source:      source,
			TargetStaff: target,
			Target:      theirs,
		})

		if !evaluation.Feasible || evaluation.Score < options.MinScore {
			continue
		}

		candidates = append(candidates, Recommendation{
			TargetStaff:   target,
			Assignment:    theirs,
			Score:         evaluation.Score,
			SwapType:      "exchange",
			Reason:        "互换席位，双方工时更平衡",
			ImpactSummary: r.impactSummary(evaluation),
		})
	}

	return candidates
}

func (r *Recommender) reason(evaluation *Evaluation) string {
	if len(evaluation.Issues) == 0 {
		if evaluation.PenaltyChange < 0 {
			return "无约束冲突，且改善整体方案"
		}
		return "无约束冲突"
	}

	warnings := 0
	for _, issue := range evaluation.Issues {
		if issue.Severity == "warning" {
			warnings++
		}
	}
	if warnings > 0 && warnings <= 2 {
		return "仅有少量软约束提醒"
	}
	return "可以接替此席位"
}

func (r *Recommender) impactSummary(evaluation *Evaluation) string {
	if evaluation.Impact == nil || evaluation.Impact.TargetStaff == nil {
		return "影响较小"
	}

	impact := evaluation.Impact.TargetStaff
	switch {
	case impact.HoursChange > 0:
		return "接替人员增加工时"
	case impact.HoursChange < 0:
		return "接替人员减少工时"
	default:
		return "对双方工时影响均衡"
	}
}

// FindBestReplacement 为请假人员的某个席位找最佳替换
func (r *Recommender) FindBestReplacement(ctx *constraint.Context, staffID uuid.UUID, unitID uuid.UUID) *Recommendation {
	var source *model.Assignment
	for _, a := range ctx.GetStaffAssignments(staffID) {
		if a.UnitID == unitID {
			source = a
			break
		}
	}
	if source == nil {
		return nil
	}

	recommendations := r.RecommendTargets(ctx, source, &Options{
		MaxRecommendations: 1,
		MinScore:           50,
	})
	if len(recommendations) == 0 {
		return nil
	}
	return &recommendations[0]
}

// AutoReassign 自动把席位转交给最佳人选
// 找不到足够好的人选时返回 nil
func (r *Recommender) AutoReassign(ctx *constraint.Context, source *model.Assignment) *model.Assignment {
	recommendations := r.RecommendTargets(ctx, source, &Options{
		MaxRecommendations: 1,
		MinScore:           70, // 自动转交要求更高得分
	})
	if len(recommendations) == 0 {
		return nil
	}

	best := recommendations[0]
	reassigned := *source
	reassigned.ID = uuid.New()
	staffID := best.TargetStaff.ID
	reassigned.StaffID = &staffID
	reassigned.Status = "proposed"
	return &reassigned
}
