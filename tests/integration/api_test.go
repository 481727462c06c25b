// Package integration 提供HTTP接口层的集成测试
// 不经过网络和数据库，直接驱动处理器验证请求装配和响应格式。
package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/yipai/yipai/internal/config"
	"github.com/yipai/yipai/internal/handler"
)

func testOptimizerConfig() *config.OptimizerConfig {
	return &config.OptimizerConfig{
		PopulationSize:      40,
		GenerationsMax:      60,
		ParallelWorkers:     2,
		ConvergencePatience: 20,
	}
}

func postJSON(t *testing.T, h http.HandlerFunc, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("序列化请求失败: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("解析响应失败: %v, body: %s", err, rec.Body.String())
	}
}

func TestOptimizeAPI(t *testing.T) {
	h := handler.NewOptimizeHandler(testOptimizerConfig(), nil)
	departmentID := uuid.New().String()
	seed := int64(42)

	request := handler.OptimizeRequest{
		DepartmentID: departmentID,
		Staff: []handler.StaffInput{
			{ID: uuid.New().String(), Name: "陈静", Roles: []string{"nurse"}},
			{ID: uuid.New().String(), Name: "李芳", Roles: []string{"nurse"}},
		},
		Units: []handler.UnitInput{
			{
				ID:           uuid.New().String(),
				Kind:         "shift",
				Name:         "早班",
				Start:        "2026-06-01 08:00",
				End:          "2026-06-01 16:00",
				RequiredRole: "nurse",
				Headcount:    1,
			},
			{
				ID:           uuid.New().String(),
				Kind:         "shift",
				Name:         "晚班",
				Start:        "2026-06-01 16:00",
				End:          "2026-06-02 00:00",
				RequiredRole: "nurse",
				Headcount:    1,
			},
		},
		Options: &handler.OptimizeOptions{
			PopulationSize: 30,
			GenerationsMax: 40,
			Seed:           &seed,
		},
	}

	rec := postJSON(t, h.Optimize, "/api/v1/assignment/optimize", request)
	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}

	var resp handler.OptimizeResponse
	decodeBody(t, rec, &resp)

	if !resp.Success {
		t.Error("响应应标记成功")
	}
	if !resp.Feasible {
		t.Errorf("两人两班应找到可行方案, violations: %+v", resp.Violations)
	}
	if len(resp.Assignments) != 2 {
		t.Fatalf("应返回2个席位分配, 实际 %d", len(resp.Assignments))
	}
	staffSeen := make(map[string]bool)
	for _, a := range resp.Assignments {
		if a.StaffID == "" {
			t.Errorf("席位 %s/%d 未分配", a.UnitID, a.Seat)
		}
		staffSeen[a.StaffID] = true
	}
	if len(staffSeen) != 2 {
		t.Errorf("两个班次应分配给不同人员, 实际 %d 人", len(staffSeen))
	}
}

func TestOptimizeAPI_MissingDepartment(t *testing.T) {
	h := handler.NewOptimizeHandler(testOptimizerConfig(), nil)

	rec := postJSON(t, h.Optimize, "/api/v1/assignment/optimize", handler.OptimizeRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("缺少科室ID应返回400, 实际 %d", rec.Code)
	}

	var errResp map[string]interface{}
	decodeBody(t, rec, &errResp)
	if errResp["error"] != true {
		t.Error("错误响应应带 error 标记")
	}
	if errResp["code"] == "" || errResp["code"] == nil {
		t.Error("错误响应应带错误码")
	}
}

func TestOptimizeAPI_MethodNotAllowed(t *testing.T) {
	h := handler.NewOptimizeHandler(testOptimizerConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/assignment/optimize", nil)
	rec := httptest.NewRecorder()
	h.Optimize(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("GET 请求应被拒绝, 实际状态码 %d", rec.Code)
	}
}

func TestValidateAPI_DetectsDoubleBooking(t *testing.T) {
	h := handler.NewOptimizeHandler(testOptimizerConfig(), nil)
	departmentID := uuid.New().String()
	nurseID := uuid.New().String()
	unit1 := uuid.New().String()
	unit2 := uuid.New().String()

	request := handler.ValidatePlanRequest{
		DepartmentID: departmentID,
		Staff: []handler.StaffInput{
			{ID: nurseID, Name: "王敏", Roles: []string{"nurse"}},
		},
		Units: []handler.UnitInput{
			{ID: unit1, Kind: "shift", Name: "早班", Start: "2026-06-01 08:00", End: "2026-06-01 16:00", RequiredRole: "nurse", Headcount: 1},
			{ID: unit2, Kind: "shift", Name: "支援", Start: "2026-06-01 12:00", End: "2026-06-01 18:00", RequiredRole: "nurse", Headcount: 1},
		},
		Assignments: []handler.PlanSeatInput{
			{UnitID: unit1, Seat: 0, StaffID: nurseID},
			{UnitID: unit2, Seat: 0, StaffID: nurseID},
		},
	}

	rec := postJSON(t, h.Validate, "/api/v1/assignment/validate", request)
	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, body: %s", rec.Code, rec.Body.String())
	}

	var resp handler.ValidatePlanResponse
	decodeBody(t, rec, &resp)

	if resp.IsValid {
		t.Error("重叠排班的方案不应通过验证")
	}
	if resp.HardCount == 0 {
		t.Error("应报告硬违反")
	}
	hasOverlapAdvisory := false
	for _, adv := range resp.Advisories {
		if adv.Type == "overlap" {
			hasOverlapAdvisory = true
		}
	}
	if !hasOverlapAdvisory {
		t.Error("劳动规则提示应包含时间重叠")
	}
}

func TestValidateAPI_UnknownUnitRejected(t *testing.T) {
	h := handler.NewOptimizeHandler(testOptimizerConfig(), nil)
	departmentID := uuid.New().String()
	nurseID := uuid.New().String()
	unit1 := uuid.New().String()

	// 分配指向单元列表之外的 unit_id, 应报 400 而不是 500
	request := handler.ValidatePlanRequest{
		DepartmentID: departmentID,
		Staff: []handler.StaffInput{
			{ID: nurseID, Name: "王敏", Roles: []string{"nurse"}},
		},
		Units: []handler.UnitInput{
			{ID: unit1, Kind: "shift", Name: "早班", Start: "2026-06-01 08:00", End: "2026-06-01 16:00", RequiredRole: "nurse", Headcount: 1},
		},
		Assignments: []handler.PlanSeatInput{
			{UnitID: unit1, Seat: 0, StaffID: nurseID},
			{UnitID: uuid.New().String(), Seat: 0, StaffID: nurseID},
		},
	}

	rec := postJSON(t, h.Validate, "/api/v1/assignment/validate", request)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("未知单元引用应返回400, 实际 %d, body: %s", rec.Code, rec.Body.String())
	}

	var errResp map[string]interface{}
	decodeBody(t, rec, &errResp)
	if errResp["code"] != "INVALID_INPUT" {
		t.Errorf("错误码 = %v, want INVALID_INPUT", errResp["code"])
	}
}

func TestOutpatientPlanAPI(t *testing.T) {
	cfg := &config.OutpatientConfig{MaxCommuteMinutes: 120, PreferContinuity: true}
	h := handler.NewOutpatientHandler(cfg)

	departmentID := uuid.New().String()
	request := handler.PlanSlotRequest{
		DepartmentID: departmentID,
		Slot: handler.UnitInput{
			ID:           uuid.New().String(),
			Kind:         "outpatient_slot",
			Name:         "内分泌复诊",
			Start:        "2026-06-01 09:00",
			End:          "2026-06-01 09:30",
			RequiredRole: "doctor",
			Headcount:    1,
		},
		Candidates: []handler.StaffInput{
			{ID: uuid.New().String(), Name: "周明", Roles: []string{"doctor"}},
		},
	}

	rec := postJSON(t, h.PlanSlot, "/api/v1/outpatient/plan", request)
	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, body: %s", rec.Code, rec.Body.String())
	}

	var resp handler.PlanSlotResponse
	decodeBody(t, rec, &resp)

	if !resp.Success {
		t.Fatal("唯一合格医生应被成功指派")
	}
	if resp.Data == nil || resp.Data.BestMatch == nil {
		t.Fatal("响应应包含最优人选")
	}
	if resp.Data.BestMatch.Staff.Name != "周明" {
		t.Errorf("最优人选 = %s, want 周明", resp.Data.BestMatch.Staff.Name)
	}
}

func TestStatsAPI(t *testing.T) {
	h := handler.NewStatsHandler()

	departmentID := uuid.New().String()
	nurse1 := uuid.New().String()
	nurse2 := uuid.New().String()
	unit1 := uuid.New().String()
	unit2 := uuid.New().String()

	request := handler.StatsRequest{
		DepartmentID: departmentID,
		Staff: []handler.StaffInput{
			{ID: nurse1, Name: "刘洋", Roles: []string{"nurse"}},
			{ID: nurse2, Name: "张伟", Roles: []string{"nurse"}},
		},
		Units: []handler.UnitInput{
			{ID: unit1, Kind: "shift", Name: "早班", Start: "2026-06-01 08:00", End: "2026-06-01 16:00", RequiredRole: "nurse", Headcount: 1},
			{ID: unit2, Kind: "shift", Name: "晚班", Start: "2026-06-01 16:00", End: "2026-06-02 00:00", RequiredRole: "nurse", Headcount: 1},
		},
		Assignments: []handler.PlanSeatInput{
			{UnitID: unit1, Seat: 0, StaffID: nurse1},
			{UnitID: unit2, Seat: 0, StaffID: nurse2},
		},
	}

	rec := postJSON(t, h.Fairness, "/api/v1/stats/fairness", request)
	if rec.Code != http.StatusOK {
		t.Fatalf("公平性接口状态码 = %d, body: %s", rec.Code, rec.Body.String())
	}
	var fairResp handler.FairnessResponse
	decodeBody(t, rec, &fairResp)
	if !fairResp.Success || fairResp.Data == nil {
		t.Fatal("公平性响应应携带数据")
	}
	if fairResp.Data.WorkloadGini > 0.01 {
		t.Errorf("两人各一班, 基尼系数应接近0, 实际 %.4f", fairResp.Data.WorkloadGini)
	}

	rec = postJSON(t, h.Coverage, "/api/v1/stats/coverage", request)
	if rec.Code != http.StatusOK {
		t.Fatalf("覆盖率接口状态码 = %d, body: %s", rec.Code, rec.Body.String())
	}
	var covResp handler.CoverageResponse
	decodeBody(t, rec, &covResp)
	if !covResp.Success || covResp.Data == nil {
		t.Fatal("覆盖率响应应携带数据")
	}
	if covResp.Data.OverallCoverage != 100 {
		t.Errorf("全部席位已填, 覆盖率应为100, 实际 %.1f", covResp.Data.OverallCoverage)
	}
}

func TestSwapAPI_EvaluateTakeover(t *testing.T) {
	h := handler.NewSwapHandler()

	departmentID := uuid.New().String()
	busyNurse := uuid.New().String()
	freeNurse := uuid.New().String()
	unit1 := uuid.New().String()
	unit2 := uuid.New().String()

	// 王敏同时占了两个重叠班次, 把支援班转给空闲的李楠
	request := handler.SwapRequest{
		DepartmentID: departmentID,
		Staff: []handler.StaffInput{
			{ID: busyNurse, Name: "王敏", Roles: []string{"nurse"}},
			{ID: freeNurse, Name: "李楠", Roles: []string{"nurse"}},
		},
		Units: []handler.UnitInput{
			{ID: unit1, Kind: "shift", Name: "早班", Start: "2026-06-01 08:00", End: "2026-06-01 16:00", RequiredRole: "nurse", Headcount: 1},
			{ID: unit2, Kind: "shift", Name: "支援", Start: "2026-06-01 12:00", End: "2026-06-01 18:00", RequiredRole: "nurse", Headcount: 1},
		},
		Assignments: []handler.PlanSeatInput{
			{UnitID: unit1, Seat: 0, StaffID: busyNurse},
			{UnitID: unit2, Seat: 0, StaffID: busyNurse},
		},
		SourceUnitID:  unit2,
		SourceSeat:    0,
		TargetStaffID: freeNurse,
	}

	rec := postJSON(t, h.Swap, "/api/v1/assignment/swap", request)
	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, body: %s", rec.Code, rec.Body.String())
	}

	var resp handler.SwapResponse
	decodeBody(t, rec, &resp)

	if resp.Evaluation == nil {
		t.Fatal("指定接替人员时应返回评估结果")
	}
	if !resp.Evaluation.Feasible {
		t.Errorf("转给空闲人员应可行, issues: %+v", resp.Evaluation.Issues)
	}
	if resp.Evaluation.HardCount != 0 {
		t.Errorf("调整后硬违反应清零, 实际 %d", resp.Evaluation.HardCount)
	}
}

func TestSwapAPI_Recommend(t *testing.T) {
	h := handler.NewSwapHandler()

	departmentID := uuid.New().String()
	busyNurse := uuid.New().String()
	freeNurse := uuid.New().String()
	unit1 := uuid.New().String()
	unit2 := uuid.New().String()

	request := handler.SwapRequest{
		DepartmentID: departmentID,
		Staff: []handler.StaffInput{
			{ID: busyNurse, Name: "王敏", Roles: []string{"nurse"}},
			{ID: freeNurse, Name: "李楠", Roles: []string{"nurse"}},
		},
		Units: []handler.UnitInput{
			{ID: unit1, Kind: "shift", Name: "早班", Start: "2026-06-01 08:00", End: "2026-06-01 16:00", RequiredRole: "nurse", Headcount: 1},
			{ID: unit2, Kind: "shift", Name: "支援", Start: "2026-06-01 12:00", End: "2026-06-01 18:00", RequiredRole: "nurse", Headcount: 1},
		},
		Assignments: []handler.PlanSeatInput{
			{UnitID: unit1, Seat: 0, StaffID: busyNurse},
			{UnitID: unit2, Seat: 0, StaffID: busyNurse},
		},
		SourceUnitID: unit2,
		SourceSeat:   0,
	}

	rec := postJSON(t, h.Swap, "/api/v1/assignment/swap", request)
	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, body: %s", rec.Code, rec.Body.String())
	}

	var resp handler.SwapResponse
	decodeBody(t, rec, &resp)

	if len(resp.Recommendations) == 0 {
		t.Fatal("应推荐空闲的合格人员")
	}
	if resp.Recommendations[0].TargetStaff.Name != "李楠" {
		t.Errorf("首选推荐 = %s, want 李楠", resp.Recommendations[0].TargetStaff.Name)
	}
}

func TestSwapAPI_SeatNotFound(t *testing.T) {
	h := handler.NewSwapHandler()

	request := handler.SwapRequest{
		DepartmentID: uuid.New().String(),
		SourceUnitID: uuid.New().String(),
		SourceSeat:   0,
	}

	rec := postJSON(t, h.Swap, "/api/v1/assignment/swap", request)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("源席位不存在应返回400, 实际 %d", rec.Code)
	}
}

func TestConstraintLibraryAPI(t *testing.T) {
	h := handler.NewLibraryHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/constraints", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d", rec.Code)
	}

	var resp struct {
		Library []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"library"`
	}
	decodeBody(t, rec, &resp)

	if len(resp.Library) < 10 {
		t.Fatalf("约束库应包含全部内置约束, 实际 %d", len(resp.Library))
	}
	hard := 0
	for _, c := range resp.Library {
		if c.Type == "hard" {
			hard++
		}
	}
	if hard != 6 {
		t.Errorf("硬约束应有6条, 实际 %d", hard)
	}
}
