// Package e2e 提供端到端测试
// 通过真实的HTTP服务把优化、验证、统计、门诊指派串成完整流程。
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yipai/yipai/internal/config"
	"github.com/yipai/yipai/internal/handler"
	"github.com/yipai/yipai/pkg/followup"
	"github.com/yipai/yipai/pkg/model"
)

// newTestServer 搭一个和生产路由一致的测试服务
func newTestServer() *httptest.Server {
	optimizerCfg := &config.OptimizerConfig{
		PopulationSize:      40,
		GenerationsMax:      80,
		ParallelWorkers:     2,
		ConvergencePatience: 25,
	}
	outpatientCfg := &config.OutpatientConfig{
		MaxCommuteMinutes: 120,
		PreferContinuity:  true,
	}

	optimize := handler.NewOptimizeHandler(optimizerCfg, nil)
	outpatient := handler.NewOutpatientHandler(outpatientCfg)
	statsHandler := handler.NewStatsHandler()
	library := handler.NewLibraryHandler()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/assignment/optimize", optimize.Optimize)
	mux.HandleFunc("/api/v1/assignment/validate", optimize.Validate)
	mux.HandleFunc("/api/v1/outpatient/plan", outpatient.PlanSlot)
	mux.HandleFunc("/api/v1/outpatient/batch", outpatient.BatchPlan)
	mux.HandleFunc("/api/v1/stats/fairness", statsHandler.Fairness)
	mux.HandleFunc("/api/v1/stats/coverage", statsHandler.Coverage)
	mux.HandleFunc("/api/v1/constraints", library.List)

	return httptest.NewServer(mux)
}

func post(t *testing.T, server *httptest.Server, path string, payload, out interface{}) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("序列化请求失败: %v", err)
	}
	resp, err := http.Post(server.URL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("请求 %s 失败: %v", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("%s 状态码 = %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("解析 %s 响应失败: %v", path, err)
	}
}

// TestFullOptimizationWorkflow 完整的排班工作流：
// 优化 -> 方案验证 -> 公平性/覆盖率统计
func TestFullOptimizationWorkflow(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	departmentID := uuid.New().String()
	seed := int64(7)

	names := []string{"陈静", "李芳", "王敏", "刘洋", "张伟", "赵琳"}
	staff := make([]handler.StaffInput, 0, len(names))
	for i, name := range names {
		staff = append(staff, handler.StaffInput{
			ID:    uuid.New().String(),
			Name:  name,
			Code:  fmt.Sprintf("N%03d", i+1),
			Roles: []string{"nurse"},
		})
	}

	var units []handler.UnitInput
	for d := 1; d <= 3; d++ {
		date := fmt.Sprintf("2026-06-%02d", d)
		units = append(units,
			handler.UnitInput{
				ID: uuid.New().String(), Kind: "shift", Name: "早班",
				Start: date + " 08:00", End: date + " 16:00",
				RequiredRole: "nurse", Headcount: 1,
			},
			handler.UnitInput{
				ID: uuid.New().String(), Kind: "shift", Name: "晚班",
				Start: date + " 16:00", End: date + " 23:00",
				RequiredRole: "nurse", Headcount: 1,
			},
		)
	}

	// 第一步：优化
	var optResp handler.OptimizeResponse
	post(t, server, "/api/v1/assignment/optimize", handler.OptimizeRequest{
		DepartmentID: departmentID,
		Staff:        staff,
		Units:        units,
		Options: &handler.OptimizeOptions{
			PopulationSize: 30,
			GenerationsMax: 60,
			Seed:           &seed,
		},
	}, &optResp)

	if !optResp.Feasible {
		t.Fatalf("一周排班应可行, violations: %+v", optResp.Violations)
	}
	if len(optResp.Assignments) != len(units) {
		t.Fatalf("应返回 %d 个席位, 实际 %d", len(units), len(optResp.Assignments))
	}

	// 第二步：把优化结果回流验证
	plan := make([]handler.PlanSeatInput, 0, len(optResp.Assignments))
	for _, a := range optResp.Assignments {
		plan = append(plan, handler.PlanSeatInput{
			UnitID:  a.UnitID,
			Seat:    a.Seat,
			StaffID: a.StaffID,
		})
	}

	var valResp handler.ValidatePlanResponse
	post(t, server, "/api/v1/assignment/validate", handler.ValidatePlanRequest{
		DepartmentID: departmentID,
		Staff:        staff,
		Units:        units,
		Assignments:  plan,
	}, &valResp)

	if !valResp.IsValid {
		t.Fatalf("可行方案回流验证应通过, 硬违反 %d 个: %+v", valResp.HardCount, valResp.Violations)
	}

	// 第三步：统计分析
	statsReq := handler.StatsRequest{
		DepartmentID: departmentID,
		Staff:        staff,
		Units:        units,
		Assignments:  plan,
	}

	var fairResp handler.FairnessResponse
	post(t, server, "/api/v1/stats/fairness", statsReq, &fairResp)
	if fairResp.Data == nil {
		t.Fatal("公平性响应缺少数据")
	}
	if fairResp.Data.WorkloadGini < 0 || fairResp.Data.WorkloadGini > 1 {
		t.Errorf("基尼系数越界: %.4f", fairResp.Data.WorkloadGini)
	}

	var covResp handler.CoverageResponse
	post(t, server, "/api/v1/stats/coverage", statsReq, &covResp)
	if covResp.Data == nil {
		t.Fatal("覆盖率响应缺少数据")
	}
	if covResp.Data.OverallCoverage != 100 {
		t.Errorf("可行方案覆盖率应为100, 实际 %.1f", covResp.Data.OverallCoverage)
	}

	t.Logf("工作流完成: 适应度=%.2f 代数=%d 基尼=%.4f 覆盖=%.1f%%",
		optResp.Fitness, optResp.Generations,
		fairResp.Data.WorkloadGini, covResp.Data.OverallCoverage)
}

// TestFullFollowupWorkflow 完整的随访门诊工作流：
// 随访计划生成时段 -> 批量指派医生
func TestFullFollowupWorkflow(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	departmentID := uuid.New()
	patientID := uuid.New()

	manager := followup.NewManager()
	plan, err := manager.CreatePlan(patientID, departmentID, 2, "2026-06-01")
	if err != nil {
		t.Fatalf("创建随访计划失败: %v", err)
	}
	slots, err := manager.GenerateSlots(plan, "2026-06-01", "2026-06-07", nil)
	if err != nil {
		t.Fatalf("生成随访时段失败: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("级别2一周应生成2个时段, 实际 %d", len(slots))
	}

	slotInputs := make([]handler.UnitInput, 0, len(slots))
	for _, s := range slots {
		slotInputs = append(slotInputs, unitToInput(s))
	}

	doctorID := uuid.New().String()
	var resp handler.BatchPlanResponse
	post(t, server, "/api/v1/outpatient/batch", handler.BatchPlanRequest{
		DepartmentID: departmentID.String(),
		Slots:        slotInputs,
		Candidates: []handler.StaffInput{
			{ID: doctorID, Name: "周明", Roles: []string{"doctor"}},
		},
		History: []handler.VisitRecordInput{
			{PatientID: patientID.String(), StaffID: doctorID, VisitCount: 5, AvgRating: 4.7, IsPrimary: true},
		},
	}, &resp)

	if !resp.Success {
		t.Fatal("批量指派应成功")
	}
	if resp.Summary == nil {
		t.Fatal("响应缺少汇总")
	}
	if resp.Summary.SuccessCount != len(slots) {
		t.Errorf("全部时段都应指派成功, 实际 %d/%d", resp.Summary.SuccessCount, len(slots))
	}
	if resp.Summary.AssignedStaff != 1 {
		t.Errorf("应只用到1名医生, 实际 %d", resp.Summary.AssignedStaff)
	}
}

// TestConstraintLibraryAvailable 约束库应与优化端使用的约束词汇一致
func TestConstraintLibraryAvailable(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/constraints")
	if err != nil {
		t.Fatalf("请求约束库失败: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("状态码 = %d", resp.StatusCode)
	}

	var library struct {
		Library []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"library"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&library); err != nil {
		t.Fatalf("解析约束库失败: %v", err)
	}

	want := map[string]bool{
		"double_booking": false, "role_match": false, "availability": false,
		"unit_capacity": false, "understaffing": false, "max_weekly_hours": false,
		"workload_balance": false, "preference_rank": false,
	}
	for _, c := range library.Library {
		if _, ok := want[c.Name]; ok {
			want[c.Name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("约束库缺少 %s", name)
		}
	}
}

// unitToInput 把领域单元转回传输格式
func unitToInput(u *model.Unit) handler.UnitInput {
	in := handler.UnitInput{
		ID:            u.ID.String(),
		Kind:          string(u.Kind),
		Name:          u.Name,
		Code:          u.Code,
		Start:         u.Window.Start.Format(time.RFC3339),
		End:           u.Window.End.Format(time.RFC3339),
		RequiredRole:  string(u.RequiredRole),
		RequiredSkill: u.RequiredSkill,
		Headcount:     u.Headcount,
		Priority:      u.Priority,
	}
	if u.LocationID != nil {
		in.LocationID = u.LocationID.String()
	}
	if u.PatientID != nil {
		in.PatientID = u.PatientID.String()
	}
	return in
}
