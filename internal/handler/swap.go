package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/yipai/yipai/pkg/errors"
	"github.com/yipai/yipai/pkg/model"
	"github.com/yipai/yipai/pkg/optimizer/constraint"
	"github.com/yipai/yipai/pkg/optimizer/constraint/builtin"
	"github.com/yipai/yipai/pkg/swap"
)

// SwapHandler 席位调整接口
// 人员请假或方案需要微调时，在不重跑优化的前提下评估接替/互换。
type SwapHandler struct{}

// NewSwapHandler 创建席位调整处理器
func NewSwapHandler() *SwapHandler {
	return &SwapHandler{}
}

// SwapRequest 席位调整请求
// 指定 target_staff_id 时评估该调整；不指定时返回推荐人选。
type SwapRequest struct {
	DepartmentID  string          `json:"department_id"`
	Staff         []StaffInput    `json:"staff"`
	Units         []UnitInput     `json:"units"`
	Assignments   []PlanSeatInput `json:"assignments"`
	SourceUnitID  string          `json:"source_unit_id"`
	SourceSeat    int             `json:"source_seat"`
	TargetStaffID string          `json:"target_staff_id,omitempty"`
	AllowExchange *bool           `json:"allow_exchange,omitempty"`
	MaxResults    int             `json:"max_results,omitempty"`
}

// SwapResponse 席位调整响应
type SwapResponse struct {
	Success         bool                  `json:"success"`
	Evaluation      *swap.Evaluation      `json:"evaluation,omitempty"`
	Recommendations []swap.Recommendation `json:"recommendations,omitempty"`
}

// Swap 评估或推荐一次席位调整
func (h *SwapHandler) Swap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req SwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	if req.DepartmentID == "" {
		respondError(w, errors.New(errors.CodeInvalidInput, "科室ID不能为空"))
		return
	}
	departmentID, err := uuid.Parse(req.DepartmentID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的科室ID格式"))
		return
	}

	sourceUnitID, appErr := parseUUID(req.SourceUnitID, "源单元ID")
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	staff := make([]*model.Staff, 0, len(req.Staff))
	for _, in := range req.Staff {
		s, appErr := buildStaff(departmentID, in)
		if appErr != nil {
			respondError(w, appErr)
			return
		}
		staff = append(staff, s)
	}

	units := make([]*model.Unit, 0, len(req.Units))
	unitIDs := make(map[uuid.UUID]bool, len(req.Units))
	for _, in := range req.Units {
		u, appErr := buildUnit(departmentID, in)
		if appErr != nil {
			respondError(w, appErr)
			return
		}
		units = append(units, u)
		unitIDs[u.ID] = true
	}

	plan := make([]*model.Assignment, 0, len(req.Assignments))
	var source *model.Assignment
	for _, in := range req.Assignments {
		a, appErr := buildPlanSeat(departmentID, in)
		if appErr != nil {
			respondError(w, appErr)
			return
		}
		if !unitIDs[a.UnitID] {
			respondError(w, errors.New(errors.CodeInvalidInput, "分配指向未知单元: "+in.UnitID))
			return
		}
		plan = append(plan, a)
		if a.UnitID == sourceUnitID && a.Seat == req.SourceSeat {
			source = a
		}
	}
	if source == nil {
		respondError(w, errors.New(errors.CodeInvalidInput, "方案中不存在指定的源席位"))
		return
	}

	evalCtx := constraint.NewContext(departmentID, staff, units).ForPlan(plan)
	manager := builtin.NewDefaultManager()

	if req.TargetStaffID != "" {
		targetID, appErr := parseUUID(req.TargetStaffID, "接替人员ID")
		if appErr != nil {
			respondError(w, appErr)
			return
		}
		target := evalCtx.GetStaff(targetID)
		if target == nil {
			respondError(w, errors.New(errors.CodeInvalidInput, "接替人员不在人员列表中"))
			return
		}

		evaluation := swap.NewEvaluator(manager).Evaluate(evalCtx, &swap.Request{
			Source:      source,
			TargetStaff: target,
		})
		respondJSON(w, http.StatusOK, SwapResponse{Success: true, Evaluation: evaluation})
		return
	}

	options := swap.DefaultOptions()
	if req.MaxResults > 0 {
		options.MaxRecommendations = req.MaxResults
	}
	if req.AllowExchange != nil {
		options.AllowExchange = *req.AllowExchange
	}

	recommendations := swap.NewRecommender(manager).RecommendTargets(evalCtx, source, options)
	if recommendations == nil {
		recommendations = []swap.Recommendation{}
	}
	respondJSON(w, http.StatusOK, SwapResponse{Success: true, Recommendations: recommendations})
}
