package outpatient

import (
	"sort"

	"github.com/google/uuid"

	"github.com/yipai/yipai/pkg/logger"
	"github.com/yipai/yipai/pkg/model"
)

// Planner 门诊时段规划器
type Planner struct {
	rules []Rule
}

// NewPlanner 创建使用默认规则的规划器
func NewPlanner(maxCommuteMinutes float64) *Planner {
	return &Planner{rules: DefaultRules(maxCommuteMinutes)}
}

// NewPlannerWithRules 创建带自定义规则的规划器
func NewPlannerWithRules(rules []Rule) *Planner {
	return &Planner{rules: rules}
}

// PlanRequest 指派请求
type PlanRequest struct {
	Slot       *model.Unit         // 待指派的门诊时段
	Candidates []*model.Staff      // 候选人员
	Units      []*model.Unit       // 当日所有相关单元（用于冲突判断）
	Assigned   []*model.Assignment // 当日已有的分配
	History    []VisitRecord       // 患者接诊历史
	MaxResults int
}

// PlanResponse 指派响应
type PlanResponse struct {
	SlotID       uuid.UUID        `json:"slot_id"`
	Success      bool             `json:"success"`
	BestMatch    *CandidateScore  `json:"best_match,omitempty"`
	Alternatives []CandidateScore `json:"alternatives,omitempty"`
	Reason       string           `json:"reason,omitempty"`
}

// CandidateScore 候选人评分
type CandidateScore struct {
	Staff        *model.Staff `json:"staff"`
	Score        float64      `json:"score"` // 分数越低越好
	Feasible     bool         `json:"feasible"`
	Violations   []string     `json:"violations,omitempty"`
	MatchReasons []string     `json:"match_reasons,omitempty"`
}

// Plan 为单个门诊时段选择人员
func (p *Planner) Plan(req *PlanRequest) *PlanResponse {
	if req.Slot == nil || len(req.Candidates) == 0 {
		return &PlanResponse{Success: false, Reason: "缺少时段或候选人"}
	}

	logger.Debug().
		Str("slot", req.Slot.Name).
		Int("candidates", len(req.Candidates)).
		Msg("开始门诊时段指派")

	scores := p.evaluateCandidates(req)

	// 可行解优先，分数越低越好
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Feasible != scores[j].Feasible {
			return scores[i].Feasible
		}
		return scores[i].Score < scores[j].Score
	})

	var feasible []CandidateScore
	for _, s := range scores {
		if s.Feasible {
			feasible = append(feasible, s)
		}
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}

	if len(feasible) == 0 {
		return &PlanResponse{
			SlotID:       req.Slot.ID,
			Success:      false,
			Reason:       "没有符合条件的人员",
			Alternatives: limitScores(scores, maxResults),
		}
	}

	resp := &PlanResponse{
		SlotID:    req.Slot.ID,
		Success:   true,
		BestMatch: &feasible[0],
	}
	if len(feasible) > 1 {
		resp.Alternatives = limitScores(feasible[1:], maxResults-1)
	}

	logger.Debug().
		Str("slot", req.Slot.Name).
		Str("staff", feasible[0].Staff.Name).
		Float64("score", feasible[0].Score).
		Msg("门诊时段指派完成")

	return resp
}

func (p *Planner) evaluateCandidates(req *PlanRequest) []CandidateScore {
	unitMap := make(map[uuid.UUID]*model.Unit, len(req.Units))
	for _, u := range req.Units {
		unitMap[u.ID] = u
	}

	scores := make([]CandidateScore, 0, len(req.Candidates))
	for _, staff := range req.Candidates {
		scores = append(scores, p.evaluateCandidate(staff, req, unitMap))
	}
	return scores
}

func (p *Planner) evaluateCandidate(staff *model.Staff, req *PlanRequest, unitMap map[uuid.UUID]*model.Unit) CandidateScore {
	score := CandidateScore{Staff: staff, Feasible: true}

	var staffSlots []*model.Assignment
	for _, a := range req.Assigned {
		if a.StaffID != nil && *a.StaffID == staff.ID {
			staffSlots = append(staffSlots, a)
		}
	}

	commute := -1.0
	if req.Slot.LocationID != nil {
		if minutes, ok := staff.CommuteMinutes[*req.Slot.LocationID]; ok {
			commute = minutes
		}
	}

	ctx := &PlanContext{
		Units:          unitMap,
		StaffSlots:     staffSlots,
		History:        req.History,
		CommuteMinutes: commute,
	}

	for _, rule := range p.rules {
		valid, penalty, violation := rule.Evaluate(req.Slot, staff, ctx)
		if !valid {
			score.Feasible = false
			score.Violations = append(score.Violations, violation)
			score.Score += penalty
		} else if penalty != 0 {
			score.Score += penalty
			if penalty < 0 {
				score.MatchReasons = append(score.MatchReasons, rule.Name()+": 匹配")
			}
		}
	}

	return score
}

// BatchPlan 批量指派：按优先级和时间顺序逐个处理，已确定的指派计入后续冲突判断
func (p *Planner) BatchPlan(slots []*model.Unit, candidates []*model.Staff, history []VisitRecord) []*PlanResponse {
	ordered := make([]*model.Unit, len(slots))
	copy(ordered, slots)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority > ordered[j].Priority
		}
		return ordered[i].Window.Start.Before(ordered[j].Window.Start)
	})

	responses := make([]*PlanResponse, len(ordered))
	assigned := make([]*model.Assignment, 0, len(ordered))

	for i, slot := range ordered {
		req := &PlanRequest{
			Slot:       slot,
			Candidates: candidates,
			Units:      slots,
			Assigned:   assigned,
			History:    history,
			MaxResults: 3,
		}

		resp := p.Plan(req)
		responses[i] = resp

		if resp.Success && resp.BestMatch != nil {
			staffID := resp.BestMatch.Staff.ID
			assigned = append(assigned, &model.Assignment{
				BaseModel:    model.BaseModel{ID: uuid.New()},
				DepartmentID: slot.DepartmentID,
				UnitID:       slot.ID,
				Seat:         0,
				StaffID:      &staffID,
				Status:       "proposed",
			})
		}
	}

	return responses
}

func limitScores(scores []CandidateScore, max int) []CandidateScore {
	if max < 0 {
		max = 0
	}
	if len(scores) <= max {
		return scores
	}
	return scores[:max]
}
