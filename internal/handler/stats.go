package handler

import (
	"encoding/json"
	"net/http"

	"github.com/yipai/yipai/internal/metrics"
	"github.com/yipai/yipai/pkg/errors"
	"github.com/yipai/yipai/pkg/model"
	"github.com/yipai/yipai/pkg/stats"
)

// StatsHandler 统计分析处理器
// 对一份既有分配方案做公平性和覆盖率分析
type StatsHandler struct {
	fairness *stats.FairnessAnalyzer
	coverage *stats.CoverageAnalyzer
}

// NewStatsHandler 创建统计分析处理器
func NewStatsHandler() *StatsHandler {
	return &StatsHandler{
		fairness: stats.NewFairnessAnalyzer(),
		coverage: stats.NewCoverageAnalyzer(),
	}
}

// StatsRequest 统计请求
type StatsRequest struct {
	DepartmentID string          `json:"department_id"`
	Staff        []StaffInput    `json:"staff"`
	Units        []UnitInput     `json:"units"`
	Assignments  []PlanSeatInput `json:"assignments"`
}

// FairnessResponse 公平性响应
type FairnessResponse struct {
	Success bool                   `json:"success"`
	Data    *stats.FairnessMetrics `json:"data,omitempty"`
}

// CoverageResponse 覆盖率响应
type CoverageResponse struct {
	Success bool                   `json:"success"`
	Data    *stats.CoverageMetrics `json:"data,omitempty"`
}

// Fairness 公平性分析API
func (h *StatsHandler) Fairness(w http.ResponseWriter, r *http.Request) {
	staff, units, assignments, appErr := h.decodeStats(r)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	m := h.fairness.Analyze(staff, units, assignments)
	metrics.SetFairnessGini(departmentOf(staff, units), "workload", m.WorkloadGini)

	respondJSON(w, http.StatusOK, FairnessResponse{Success: true, Data: m})
}

// Coverage 覆盖率分析API
func (h *StatsHandler) Coverage(w http.ResponseWriter, r *http.Request) {
	_, units, assignments, appErr := h.decodeStats(r)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	m := h.coverage.Analyze(units, assignments)
	metrics.SetCoverageRate(departmentOf(nil, units), m.OverallCoverage)

	respondJSON(w, http.StatusOK, CoverageResponse{Success: true, Data: m})
}

// decodeStats 解析统计请求并装配领域对象
func (h *StatsHandler) decodeStats(r *http.Request) ([]*model.Staff, []*model.Unit, []*model.Assignment, *errors.AppError) {
	if r.Method != http.MethodPost {
		return nil, nil, nil, errors.New(errors.CodeInvalidInput, "仅支持POST方法")
	}

	var req StatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, nil, nil, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败")
	}
	if req.DepartmentID == "" {
		return nil, nil, nil, errors.New(errors.CodeInvalidInput, "科室ID不能为空")
	}
	departmentID, err := parseUUID(req.DepartmentID, "科室ID")
	if err != nil {
		return nil, nil, nil, err
	}

	staff := make([]*model.Staff, 0, len(req.Staff))
	for _, in := range req.Staff {
		s, appErr := buildStaff(departmentID, in)
		if appErr != nil {
			return nil, nil, nil, appErr
		}
		staff = append(staff, s)
	}

	units := make([]*model.Unit, 0, len(req.Units))
	for _, in := range req.Units {
		u, appErr := buildUnit(departmentID, in)
		if appErr != nil {
			return nil, nil, nil, appErr
		}
		units = append(units, u)
	}

	assignments := make([]*model.Assignment, 0, len(req.Assignments))
	for _, in := range req.Assignments {
		a, appErr := buildPlanSeat(departmentID, in)
		if appErr != nil {
			return nil, nil, nil, appErr
		}
		assignments = append(assignments, a)
	}

	return staff, units, assignments, nil
}

// departmentOf 从已装配的对象中取科室标签
func departmentOf(staff []*model.Staff, units []*model.Unit) string {
	if len(staff) > 0 {
		return staff[0].DepartmentID.String()
	}
	if len(units) > 0 {
		return units[0].DepartmentID.String()
	}
	return "unknown"
}
