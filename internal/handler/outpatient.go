package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/yipai/yipai/internal/config"
	"github.com/yipai/yipai/pkg/errors"
	"github.com/yipai/yipai/pkg/logger"
	"github.com/yipai/yipai/pkg/model"
	"github.com/yipai/yipai/pkg/outpatient"
)

// OutpatientHandler 门诊时段指派处理器
// 针对单个门诊时段在线选人，区别于批量优化
type OutpatientHandler struct {
	planner *outpatient.Planner
}

// NewOutpatientHandler 创建门诊指派处理器
func NewOutpatientHandler(cfg *config.OutpatientConfig) *OutpatientHandler {
	return &OutpatientHandler{
		planner: outpatient.NewPlanner(cfg.MaxCommuteMinutes),
	}
}

// VisitRecordInput 接诊历史输入
type VisitRecordInput struct {
	PatientID  string  `json:"patient_id"`
	StaffID    string  `json:"staff_id"`
	VisitCount int     `json:"visit_count"`
	AvgRating  float64 `json:"avg_rating"`
	IsPrimary  bool    `json:"is_primary"`
}

// PlanSlotRequest 单时段指派请求
type PlanSlotRequest struct {
	DepartmentID string             `json:"department_id"`
	Slot         UnitInput          `json:"slot"`
	Candidates   []StaffInput       `json:"candidates"`
	Units        []UnitInput        `json:"units,omitempty"`    // 当日其他单元
	Assigned     []PlanSeatInput    `json:"assigned,omitempty"` // 当日已有分配
	History      []VisitRecordInput `json:"history,omitempty"`
	MaxResults   int                `json:"max_results,omitempty"`
}

// PlanSlotResponse 单时段指派响应
type PlanSlotResponse struct {
	Success bool                     `json:"success"`
	Data    *outpatient.PlanResponse `json:"data,omitempty"`
}

// BatchPlanRequest 批量指派请求
type BatchPlanRequest struct {
	DepartmentID string             `json:"department_id"`
	Slots        []UnitInput        `json:"slots"`
	Candidates   []StaffInput       `json:"candidates"`
	History      []VisitRecordInput `json:"history,omitempty"`
}

// BatchPlanResponse 批量指派响应
type BatchPlanResponse struct {
	Success bool                       `json:"success"`
	Data    []*outpatient.PlanResponse `json:"data,omitempty"`
	Summary *BatchSummary              `json:"summary,omitempty"`
}

// BatchSummary 批量指派汇总
type BatchSummary struct {
	TotalSlots    int `json:"total_slots"`
	SuccessCount  int `json:"success_count"`
	FailCount     int `json:"fail_count"`
	AssignedStaff int `json:"assigned_staff"`
}

// PlanSlot 单个门诊时段指派
func (h *OutpatientHandler) PlanSlot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req PlanSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if req.DepartmentID == "" {
		respondError(w, errors.New(errors.CodeInvalidInput, "科室ID不能为空"))
		return
	}
	departmentID, appErr := parseUUID(req.DepartmentID, "科室ID")
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	if len(req.Candidates) == 0 {
		respondError(w, errors.New(errors.CodeInvalidInput, "候选人不能为空"))
		return
	}

	slot, appErr := buildUnit(departmentID, req.Slot)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	candidates, units, assigned, history, appErr := h.buildPlanInputs(departmentID, req.Candidates, req.Units, req.Assigned, req.History)
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	units = append(units, slot)

	logger.Info().
		Str("department", req.DepartmentID).
		Str("slot", slot.Name).
		Int("candidates", len(candidates)).
		Msg("接收门诊时段指派请求")

	resp := h.planner.Plan(&outpatient.PlanRequest{
		Slot:       slot,
		Candidates: candidates,
		Units:      units,
		Assigned:   assigned,
		History:    history,
		MaxResults: req.MaxResults,
	})

	respondJSON(w, http.StatusOK, PlanSlotResponse{Success: resp.Success, Data: resp})
}

// BatchPlan 批量门诊时段指派
func (h *OutpatientHandler) BatchPlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req BatchPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if req.DepartmentID == "" {
		respondError(w, errors.New(errors.CodeInvalidInput, "科室ID不能为空"))
		return
	}
	departmentID, appErr := parseUUID(req.DepartmentID, "科室ID")
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	if len(req.Slots) == 0 {
		respondError(w, errors.New(errors.CodeInvalidInput, "时段不能为空"))
		return
	}
	if len(req.Candidates) == 0 {
		respondError(w, errors.New(errors.CodeInvalidInput, "候选人不能为空"))
		return
	}

	candidates, slots, _, history, appErr := h.buildPlanInputs(departmentID, req.Candidates, req.Slots, nil, req.History)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	logger.Info().
		Str("department", req.DepartmentID).
		Int("slots", len(slots)).
		Int("candidates", len(candidates)).
		Msg("接收批量门诊指派请求")

	responses := h.planner.BatchPlan(slots, candidates, history)

	summary := &BatchSummary{TotalSlots: len(slots)}
	assignedStaff := make(map[uuid.UUID]bool)
	for _, resp := range responses {
		if resp.Success {
			summary.SuccessCount++
			if resp.BestMatch != nil {
				assignedStaff[resp.BestMatch.Staff.ID] = true
			}
		} else {
			summary.FailCount++
		}
	}
	summary.AssignedStaff = len(assignedStaff)

	respondJSON(w, http.StatusOK, BatchPlanResponse{Success: true, Data: responses, Summary: summary})
}

// buildPlanInputs 装配指派请求的公共部分
func (h *OutpatientHandler) buildPlanInputs(
	departmentID uuid.UUID,
	staffIn []StaffInput,
	unitsIn []UnitInput,
	assignedIn []PlanSeatInput,
	historyIn []VisitRecordInput,
) ([]*model.Staff, []*model.Unit, []*model.Assignment, []outpatient.VisitRecord, *errors.AppError) {
	candidates := make([]*model.Staff, 0, len(staffIn))
	for _, in := range staffIn {
		s, appErr := buildStaff(departmentID, in)
		if appErr != nil {
			return nil, nil, nil, nil, appErr
		}
		candidates = append(candidates, s)
	}

	units := make([]*model.Unit, 0, len(unitsIn))
	for _, in := range unitsIn {
		u, appErr := buildUnit(departmentID, in)
		if appErr != nil {
			return nil, nil, nil, nil, appErr
		}
		units = append(units, u)
	}

	assigned := make([]*model.Assignment, 0, len(assignedIn))
	for _, in := range assignedIn {
		a, appErr := buildPlanSeat(departmentID, in)
		if appErr != nil {
			return nil, nil, nil, nil, appErr
		}
		assigned = append(assigned, a)
	}

	history := make([]outpatient.VisitRecord, 0, len(historyIn))
	for _, in := range historyIn {
		patientID, appErr := parseUUID(in.PatientID, "患者ID")
		if appErr != nil {
			return nil, nil, nil, nil, appErr
		}
		staffID, appErr := parseUUID(in.StaffID, "人员ID")
		if appErr != nil {
			return nil, nil, nil, nil, appErr
		}
		history = append(history, outpatient.VisitRecord{
			PatientID:  patientID,
			StaffID:    staffID,
			VisitCount: in.VisitCount,
			AvgRating:  in.AvgRating,
			IsPrimary:  in.IsPrimary,
		})
	}

	return candidates, units, assigned, history, nil
}
