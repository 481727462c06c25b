// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/yipai/yipai/internal/config"
	"github.com/yipai/yipai/internal/metrics"
	"github.com/yipai/yipai/internal/repository"
	"github.com/yipai/yipai/pkg/errors"
	"github.com/yipai/yipai/pkg/logger"
	"github.com/yipai/yipai/pkg/model"
	"github.com/yipai/yipai/pkg/optimizer/constraint"
	"github.com/yipai/yipai/pkg/optimizer/constraint/builtin"
	"github.com/yipai/yipai/pkg/optimizer/ga"
	"github.com/yipai/yipai/pkg/validator"
)

// OptimizeHandler 排班优化处理器
// 适配层：把传输格式装配成优化请求，运行控制器，再把结果翻译回传输格式
type OptimizeHandler struct {
	cfg  *config.OptimizerConfig
	runs *repository.RunRepository // 可为 nil（无持久化模式）
}

// NewOptimizeHandler 创建排班优化处理器
func NewOptimizeHandler(cfg *config.OptimizerConfig, runs *repository.RunRepository) *OptimizeHandler {
	return &OptimizeHandler{cfg: cfg, runs: runs}
}

// OptimizeRequest 优化请求
type OptimizeRequest struct {
	DepartmentID      string             `json:"department_id"`
	Staff             []StaffInput       `json:"staff"`
	Units             []UnitInput        `json:"units"`
	FixedAssignments  []FixedInput       `json:"fixed_assignments,omitempty"`
	ConstraintWeights map[string]float64 `json:"constraint_weights,omitempty"`
	Options           *OptimizeOptions   `json:"options,omitempty"`
}

// StaffInput 人员输入
type StaffInput struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Code            string             `json:"code,omitempty"`
	Status          string             `json:"status,omitempty"`
	Roles           []string           `json:"roles"`
	Skills          []string           `json:"skills,omitempty"`
	MaxWeeklyHours  float64            `json:"max_weekly_hours,omitempty"`
	Availability    []WindowInput      `json:"availability,omitempty"`
	PreferenceRanks map[string]int     `json:"preference_ranks,omitempty"`
	CommuteMinutes  map[string]float64 `json:"commute_minutes,omitempty"`
}

// UnitInput 排班单元输入
type UnitInput struct {
	ID            string `json:"id"`
	Kind          string `json:"kind,omitempty"` // shift/outpatient_slot
	Name          string `json:"name"`
	Code          string `json:"code,omitempty"`
	Start         string `json:"start"` // RFC3339 或 YYYY-MM-DD HH:MM
	End           string `json:"end"`
	RequiredRole  string `json:"required_role,omitempty"`
	RequiredSkill string `json:"required_skill,omitempty"`
	Headcount     int    `json:"headcount"`
	LocationID    string `json:"location_id,omitempty"`
	PatientID     string `json:"patient_id,omitempty"`
	Priority      int    `json:"priority,omitempty"`
}

// WindowInput 时间窗口输入
type WindowInput struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// FixedInput 既定分配输入
type FixedInput struct {
	UnitID  string `json:"unit_id"`
	Seat    int    `json:"seat"`
	StaffID string `json:"staff_id"`
}

// OptimizeOptions 优化选项
type OptimizeOptions struct {
	PopulationSize int    `json:"population_size,omitempty"`
	GenerationsMax int    `json:"generations_max,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
	Workers        int    `json:"workers,omitempty"`
	Seed           *int64 `json:"seed,omitempty"`
}

// OptimizeResponse 优化响应
type OptimizeResponse struct {
	Success     bool               `json:"success"`
	RunID       string             `json:"run_id"`
	Status      string             `json:"status"`
	StopReason  string             `json:"stop_reason"`
	Feasible    bool               `json:"feasible"`
	Fitness     float64            `json:"fitness"`
	Generations int                `json:"generations"`
	Duration    string             `json:"duration"`
	Assignments []AssignmentOutput `json:"assignments"`
	Violations  []ViolationOutput  `json:"violations,omitempty"`
}

// AssignmentOutput 分配输出
type AssignmentOutput struct {
	UnitID    string `json:"unit_id"`
	UnitName  string `json:"unit_name,omitempty"`
	Seat      int    `json:"seat"`
	StaffID   string `json:"staff_id,omitempty"` // 空表示席位未分配
	StaffName string `json:"staff_name,omitempty"`
	Fixed     bool   `json:"fixed,omitempty"`
	HopeRank  int    `json:"hope_rank,omitempty"`
	Mismatch  bool   `json:"mismatch,omitempty"`
}

// ViolationOutput 违反输出
type ViolationOutput struct {
	ConstraintType string `json:"constraint_type"`
	StaffID        string `json:"staff_id,omitempty"`
	UnitID         string `json:"unit_id,omitempty"`
	Message        string `json:"message"`
	Severity       string `json:"severity"`
}

// Optimize 执行排班优化
func (h *OptimizeHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	gaReq, err := h.buildRequest(&req)
	if err != nil {
		respondError(w, err)
		return
	}

	ctrl, ctrlErr := ga.NewController(gaReq)
	if ctrlErr != nil {
		respondError(w, toAppError(ctrlErr))
		return
	}

	res, runErr := ctrl.Run(r.Context())
	if runErr != nil {
		respondError(w, errors.Wrap(runErr, errors.CodeInternal, "优化失败"))
		return
	}

	metrics.RecordOptimizeRun(req.DepartmentID, string(res.Status), res.Generations, res.Duration)
	metrics.SetSolutionFitness(req.DepartmentID, res.Fitness)
	if res.ConstraintResult != nil {
		metrics.SetHardViolations(req.DepartmentID, res.ConstraintResult.HardCount)
	}

	if h.runs != nil {
		if err := h.runs.SaveResult(r.Context(), gaReq.DepartmentID, res); err != nil {
			logger.Error().Err(err).Str("run_id", res.RequestID.String()).Msg("保存优化结果失败")
		}
	}

	respondJSON(w, http.StatusOK, h.buildResponse(gaReq, res))
}

// buildRequest 把传输格式装配成优化请求快照
func (h *OptimizeHandler) buildRequest(req *OptimizeRequest) (*ga.Request, *errors.AppError) {
	if req.DepartmentID == "" {
		return nil, errors.New(errors.CodeInvalidInput, "科室ID不能为空")
	}
	departmentID, err := uuid.Parse(req.DepartmentID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput, "无效的科室ID格式")
	}

	staff := make([]*model.Staff, 0, len(req.Staff))
	for _, in := range req.Staff {
		s, appErr := buildStaff(departmentID, in)
		if appErr != nil {
			return nil, appErr
		}
		staff = append(staff, s)
	}

	units := make([]*model.Unit, 0, len(req.Units))
	for _, in := range req.Units {
		u, appErr := buildUnit(departmentID, in)
		if appErr != nil {
			return nil, appErr
		}
		units = append(units, u)
	}

	fixed := make([]*model.Assignment, 0, len(req.FixedAssignments))
	for _, in := range req.FixedAssignments {
		unitID, err := uuid.Parse(in.UnitID)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidInput, "既定分配的单元ID格式无效: "+in.UnitID)
		}
		staffID, err := uuid.Parse(in.StaffID)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidInput, "既定分配的人员ID格式无效: "+in.StaffID)
		}
		fixed = append(fixed, &model.Assignment{
			BaseModel:    model.BaseModel{ID: uuid.New()},
			DepartmentID: departmentID,
			UnitID:       unitID,
			Seat:         in.Seat,
			StaffID:      &staffID,
			Fixed:        true,
			Status:       "confirmed",
		})
	}

	weights := make(map[constraint.Type]float64, len(req.ConstraintWeights))
	for name, w := range req.ConstraintWeights {
		weights[constraint.Type(name)] = w
	}

	cfg := ga.DefaultConfig()
	cfg.PopulationSize = h.cfg.PopulationSize
	cfg.GenerationsMax = h.cfg.GenerationsMax
	cfg.TimeBudget = h.cfg.TimeBudget
	cfg.ParallelWorkers = h.cfg.ParallelWorkers
	cfg.ConvergencePatience = h.cfg.ConvergencePatience
	if opts := req.Options; opts != nil {
		if opts.PopulationSize > 0 {
			cfg.PopulationSize = opts.PopulationSize
		}
		if opts.GenerationsMax > 0 {
			cfg.GenerationsMax = opts.GenerationsMax
		}
		if opts.TimeoutSeconds > 0 {
			cfg.TimeBudget = time.Duration(opts.TimeoutSeconds) * time.Second
		}
		if opts.Workers > 0 {
			cfg.ParallelWorkers = opts.Workers
		}
		if opts.Seed != nil {
			cfg.RandomSeed = opts.Seed
		}
	}

	return &ga.Request{
		ID:               uuid.New(),
		DepartmentID:     departmentID,
		Staff:            staff,
		Units:            units,
		FixedAssignments: fixed,
		Constraints:      builtin.BuildFromConfig(weights),
		Config:           cfg,
	}, nil
}

func buildStaff(departmentID uuid.UUID, in StaffInput) (*model.Staff, *errors.AppError) {
	id, err := uuid.Parse(in.ID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput, "无效的人员ID格式: "+in.ID)
	}

	roles := make([]model.Role, 0, len(in.Roles))
	for _, r := range in.Roles {
		roles = append(roles, model.Role(r))
	}

	var availability []model.TimeRange
	for _, w := range in.Availability {
		tr, appErr := parseWindow(w.Start, w.End)
		if appErr != nil {
			return nil, appErr
		}
		availability = append(availability, tr)
	}

	var prefs map[uuid.UUID]int
	if len(in.PreferenceRanks) > 0 {
		prefs = make(map[uuid.UUID]int, len(in.PreferenceRanks))
		for unitID, rank := range in.PreferenceRanks {
			id, err := uuid.Parse(unitID)
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeInvalidInput, "希望顺位的单元ID格式无效: "+unitID)
			}
			prefs[id] = rank
		}
	}

	var commute map[uuid.UUID]float64
	if len(in.CommuteMinutes) > 0 {
		commute = make(map[uuid.UUID]float64, len(in.CommuteMinutes))
		for locID, minutes := range in.CommuteMinutes {
			id, err := uuid.Parse(locID)
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeInvalidInput, "通勤缓存的地点ID格式无效: "+locID)
			}
			commute[id] = minutes
		}
	}

	status := in.Status
	if status == "" {
		status = "active"
	}

	return &model.Staff{
		BaseModel:       model.BaseModel{ID: id},
		DepartmentID:    departmentID,
		Name:            in.Name,
		Code:            in.Code,
		Status:          status,
		Roles:           roles,
		Skills:          in.Skills,
		MaxWeeklyHours:  in.MaxWeeklyHours,
		Availability:    availability,
		PreferenceRanks: prefs,
		CommuteMinutes:  commute,
	}, nil
}

func buildUnit(departmentID uuid.UUID, in UnitInput) (*model.Unit, *errors.AppError) {
	id, err := uuid.Parse(in.ID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput, "无效的单元ID格式: "+in.ID)
	}

	window, appErr := parseWindow(in.Start, in.End)
	if appErr != nil {
		return nil, appErr
	}

	kind := model.UnitKind(in.Kind)
	if kind == "" {
		kind = model.UnitShift
	}

	headcount := in.Headcount
	if headcount == 0 {
		headcount = 1
	}

	u := &model.Unit{
		BaseModel:     model.BaseModel{ID: id},
		DepartmentID:  departmentID,
		Kind:          kind,
		Name:          in.Name,
		Code:          in.Code,
		Window:        window,
		RequiredRole:  model.Role(in.RequiredRole),
		RequiredSkill: in.RequiredSkill,
		Headcount:     headcount,
		Priority:      in.Priority,
	}

	if in.LocationID != "" {
		locID, err := uuid.Parse(in.LocationID)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidInput, "无效的地点ID格式: "+in.LocationID)
		}
		u.LocationID = &locID
	}
	if in.PatientID != "" {
		patientID, err := uuid.Parse(in.PatientID)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidInput, "无效的患者ID格式: "+in.PatientID)
		}
		u.PatientID = &patientID
	}

	return u, nil
}

// parseUUID 解析UUID并给出带字段名的错误
func parseUUID(s, field string) (uuid.UUID, *errors.AppError) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, errors.CodeInvalidInput, "无效的"+field+"格式: "+s)
	}
	return id, nil
}

// buildPlanSeat 装配一个方案席位
func buildPlanSeat(departmentID uuid.UUID, in PlanSeatInput) (*model.Assignment, *errors.AppError) {
	unitID, appErr := parseUUID(in.UnitID, "单元ID")
	if appErr != nil {
		return nil, appErr
	}
	a := &model.Assignment{
		BaseModel:    model.BaseModel{ID: uuid.New()},
		DepartmentID: departmentID,
		UnitID:       unitID,
		Seat:         in.Seat,
	}
	if in.StaffID != "" {
		staffID, appErr := parseUUID(in.StaffID, "人员ID")
		if appErr != nil {
			return nil, appErr
		}
		a.StaffID = &staffID
	}
	return a, nil
}

// parseWindow 解析时间窗口，兼容 RFC3339 和本地简写格式
func parseWindow(start, end string) (model.TimeRange, *errors.AppError) {
	parse := func(s string) (time.Time, error) {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t, nil
		}
		return time.Parse("2006-01-02 15:04", s)
	}

	startTime, err := parse(start)
	if err != nil {
		return model.TimeRange{}, errors.Wrap(err, errors.CodeInvalidInput, "无效的开始时间: "+start)
	}
	endTime, err := parse(end)
	if err != nil {
		return model.TimeRange{}, errors.Wrap(err, errors.CodeInvalidInput, "无效的结束时间: "+end)
	}
	if !endTime.After(startTime) {
		return model.TimeRange{}, errors.New(errors.CodeInvalidInput, "结束时间必须晚于开始时间")
	}

	return model.TimeRange{Start: startTime, End: endTime}, nil
}

// buildResponse 把优化结果翻译为传输格式
func (h *OptimizeHandler) buildResponse(req *ga.Request, res *ga.Result) OptimizeResponse {
	staffNames := make(map[uuid.UUID]string, len(req.Staff))
	for _, s := range req.Staff {
		staffNames[s.ID] = s.Name
	}
	unitNames := make(map[uuid.UUID]string, len(req.Units))
	for _, u := range req.Units {
		unitNames[u.ID] = u.Name
	}

	assignments := make([]AssignmentOutput, len(res.Assignments))
	for i, a := range res.Assignments {
		out := AssignmentOutput{
			UnitID:   a.UnitID.String(),
			UnitName: unitNames[a.UnitID],
			Seat:     a.Seat,
			Fixed:    a.Fixed,
			HopeRank: a.HopeRank,
			Mismatch: a.Mismatch,
		}
		if a.StaffID != nil {
			out.StaffID = a.StaffID.String()
			out.StaffName = staffNames[*a.StaffID]
		}
		assignments[i] = out
	}

	violations := make([]ViolationOutput, len(res.Violations))
	for i, v := range res.Violations {
		violations[i] = toViolationOutput(v)
	}

	return OptimizeResponse{
		Success:     true,
		RunID:       res.RequestID.String(),
		Status:      string(res.Status),
		StopReason:  string(res.StopReason),
		Feasible:    res.Feasible,
		Fitness:     res.Fitness,
		Generations: res.Generations,
		Duration:    res.Duration.String(),
		Assignments: assignments,
		Violations:  violations,
	}
}

func toViolationOutput(v constraint.ViolationDetail) ViolationOutput {
	out := ViolationOutput{
		ConstraintType: string(v.ConstraintType),
		Message:        v.Message,
		Severity:       v.Severity,
	}
	if v.StaffID != nil {
		out.StaffID = v.StaffID.String()
	}
	if v.UnitID != nil {
		out.UnitID = v.UnitID.String()
	}
	return out
}

// toAppError 把任意错误规整为 AppError
func toAppError(err error) *errors.AppError {
	if appErr, ok := err.(*errors.AppError); ok {
		return appErr
	}
	return errors.Wrap(err, errors.CodeInternal, "内部错误")
}

// ValidatePlanRequest 方案验证请求
type ValidatePlanRequest struct {
	DepartmentID string          `json:"department_id"`
	Staff        []StaffInput    `json:"staff"`
	Units        []UnitInput     `json:"units"`
	Assignments  []PlanSeatInput `json:"assignments"`
}

// PlanSeatInput 方案席位输入
type PlanSeatInput struct {
	UnitID  string `json:"unit_id"`
	Seat    int    `json:"seat"`
	StaffID string `json:"staff_id,omitempty"` // 空表示席位未分配
}

// ValidatePlanResponse 方案验证响应
type ValidatePlanResponse struct {
	IsValid     bool                 `json:"is_valid"`
	HardCount   int                  `json:"hard_count"`
	SoftPenalty float64              `json:"soft_penalty"`
	Violations  []ViolationOutput    `json:"violations"`
	Advisories  []validator.Conflict `json:"advisories"` // 劳动规则提示, 不影响 is_valid
}

// Validate 验证既有方案是否满足约束
func (h *OptimizeHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req ValidatePlanRequest
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
	for _, in := range req.Units {
		u, appErr := buildUnit(departmentID, in)
		if appErr != nil {
			respondError(w, appErr)
			return
		}
		units = append(units, u)
	}

	unitMap := make(map[uuid.UUID]*model.Unit, len(units))
	for _, u := range units {
		unitMap[u.ID] = u
	}

	plan := make([]*model.Assignment, 0, len(req.Assignments))
	for _, in := range req.Assignments {
		a, appErr := buildPlanSeat(departmentID, in)
		if appErr != nil {
			respondError(w, appErr)
			return
		}
		if unitMap[a.UnitID] == nil {
			respondError(w, errors.New(errors.CodeInvalidInput, "分配指向未知单元: "+in.UnitID))
			return
		}
		plan = append(plan, a)
	}

	evalCtx := constraint.NewContext(departmentID, staff, units).ForPlan(plan)
	result := builtin.NewDefaultManager().Evaluate(evalCtx)

	violations := make([]ViolationOutput, 0, len(result.HardViolations)+len(result.SoftViolations))
	for _, v := range result.HardViolations {
		violations = append(violations, toViolationOutput(v))
	}
	for _, v := range result.SoftViolations {
		violations = append(violations, toViolationOutput(v))
	}

	staffMap := make(map[uuid.UUID]*model.Staff, len(staff))
	for _, s := range staff {
		staffMap[s.ID] = s
	}
	advisories := validator.NewConflictDetector(nil).DetectAll(plan, staffMap, unitMap)
	if advisories == nil {
		advisories = []validator.Conflict{}
	}

	resp := ValidatePlanResponse{
		IsValid:     result.IsValid,
		HardCount:   result.HardCount,
		SoftPenalty: result.SoftPenalty,
		Violations:  violations,
		Advisories:  advisories,
	}

	respondJSON(w, http.StatusOK, resp)
}

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应
func respondError(w http.ResponseWriter, err *errors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"code":    err.Code,
		"message": err.Message,
		"details": err.Details,
		"fields":  err.Fields,
	})
}
