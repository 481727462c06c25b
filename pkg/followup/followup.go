// Package followup 提供慢病随访计划管理
// 按随访级别生成周期性的门诊时段，供门诊规划器批量指派医生。
package followup

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yipai/yipai/pkg/model"
	"github.com/yipai/yipai/pkg/outpatient"
)

// Plan 随访计划
type Plan struct {
	ID            uuid.UUID  `json:"id"`
	PatientID     uuid.UUID  `json:"patient_id"`
	DepartmentID  uuid.UUID  `json:"department_id"`
	PlanNo        string     `json:"plan_no"`
	Tier          int        `json:"tier"` // 随访级别 1-4, 级别越高随访越密
	RequiredRole  model.Role `json:"required_role"`
	RequiredSkill string     `json:"required_skill,omitempty"`
	StartDate     string     `json:"start_date"`
	Status        string     `json:"status"`
}

// Manager 随访计划管理器
type Manager struct {
	// 随访级别对应的单次就诊时长（分钟）
	tierMinutes map[int]int
	// 随访级别对应的专科技能要求
	tierSkills map[int]string
}

// NewManager 创建随访计划管理器
func NewManager() *Manager {
	return &Manager{
		tierMinutes: map[int]int{
			1: 20, // 一级：病情稳定, 常规复查
			2: 30, // 二级：需定期调药
			3: 40, // 三级：病情波动, 密切随访
			4: 60, // 四级：重点管理
		},
		tierSkills: map[int]string{
			3: "慢病管理",
			4: "慢病管理",
		},
	}
}

// CreatePlan 创建随访计划
func (m *Manager) CreatePlan(patientID, departmentID uuid.UUID, tier int, startDate string) (*Plan, error) {
	if tier < 1 || tier > 4 {
		return nil, fmt.Errorf("随访级别必须在1-4之间")
	}
	if _, err := time.Parse("2006-01-02", startDate); err != nil {
		return nil, fmt.Errorf("开始日期格式错误: %v", err)
	}

	return &Plan{
		ID:            uuid.New(),
		PatientID:     patientID,
		DepartmentID:  departmentID,
		PlanNo:        generatePlanNo(),
		Tier:          tier,
		RequiredRole:  model.RoleDoctor,
		RequiredSkill: m.tierSkills[tier],
		StartDate:     startDate,
		Status:        "active",
	}, nil
}

// GenerateSlots 在给定日期范围内生成随访门诊时段
// 时段在一周内均匀分布，默认 09:00 开始。
func (m *Manager) GenerateSlots(plan *Plan, startDate, endDate string, locationID *uuid.UUID) ([]*model.Unit, error) {
	if plan == nil || plan.Status != "active" {
		return nil, fmt.Errorf("随访计划无效或已停用")
	}

	start, err := time.ParseInLocation("2006-01-02", startDate, time.Local)
	if err != nil {
		return nil, fmt.Errorf("开始日期格式错误: %v", err)
	}
	end, err := time.ParseInLocation("2006-01-02", endDate, time.Local)
	if err != nil {
		return nil, fmt.Errorf("结束日期格式错误: %v", err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("结束日期不能早于开始日期")
	}

	visitDays := visitWeekdays(plan.Tier)
	duration := time.Duration(m.tierMinutes[plan.Tier]) * time.Minute
	patientID := plan.PatientID

	var slots []*model.Unit
	seq := 1
	for current := start; !current.After(end); current = current.AddDate(0, 0, 1) {
		weekday := int(current.Weekday())

		isVisitDay := false
		for _, day := range visitDays {
			if day == weekday {
				isVisitDay = true
				break
			}
		}
		if !isVisitDay {
			continue
		}

		slotStart := time.Date(current.Year(), current.Month(), current.Day(), 9, 0, 0, 0, time.Local)
		slots = append(slots, &model.Unit{
			BaseModel:     model.BaseModel{ID: uuid.New()},
			DepartmentID:  plan.DepartmentID,
			Kind:          model.UnitOutpatientSlot,
			Name:          fmt.Sprintf("随访-%s-%d", plan.PlanNo, seq),
			Code:          fmt.Sprintf("FU%s%03d", current.Format("20060102"), seq),
			Window:        model.TimeRange{Start: slotStart, End: slotStart.Add(duration)},
			RequiredRole:  plan.RequiredRole,
			RequiredSkill: plan.RequiredSkill,
			Headcount:     1,
			LocationID:    locationID,
			PatientID:     &patientID,
			Priority:      plan.Tier,
		})
		seq++
	}

	return slots, nil
}

// ValidatePlan 验证随访计划
func (m *Manager) ValidatePlan(plan *Plan) []string {
	var problems []string

	if plan.Tier < 1 || plan.Tier > 4 {
		problems = append(problems, "随访级别无效")
	}
	if plan.PatientID == uuid.Nil {
		problems = append(problems, "患者ID不能为空")
	}
	if plan.StartDate == "" {
		problems = append(problems, "开始日期不能为空")
	} else if _, err := time.Parse("2006-01-02", plan.StartDate); err != nil {
		problems = append(problems, "开始日期格式错误")
	}
	if plan.RequiredRole == "" {
		problems = append(problems, "职能要求不能为空")
	}

	return problems
}

// DoctorRecommendation 医生推荐
type DoctorRecommendation struct {
	Doctor        *model.Staff `json:"doctor"`
	Score         float64      `json:"score"`
	MatchedSkills []string     `json:"matched_skills"`
	Suitable      bool         `json:"suitable"`
}

// RecommendDoctors 为随访计划推荐接诊医生
// 连续性优先：接诊过该患者的医生加分，主诊医生加分最高。
func (m *Manager) RecommendDoctors(plan *Plan, doctors []*model.Staff, history []outpatient.VisitRecord) []*DoctorRecommendation {
	if plan == nil || len(doctors) == 0 {
		return nil
	}

	visits := make(map[uuid.UUID]outpatient.VisitRecord)
	for _, rec := range history {
		if rec.PatientID == plan.PatientID {
			visits[rec.StaffID] = rec
		}
	}

	recommendations := make([]*DoctorRecommendation, 0)
	for _, doctor := range doctors {
		if !doctor.IsActive() || !doctor.HasRole(plan.RequiredRole) {
			continue
		}

		score := 0.0
		var matched []string

		if plan.RequiredSkill != "" {
			if !doctor.HasSkill(plan.RequiredSkill) {
				continue
			}
			matched = append(matched, plan.RequiredSkill)
			score += 20
		}

		if rec, ok := visits[doctor.ID]; ok {
			score += float64(rec.VisitCount) * 5
			if rec.IsPrimary {
				score += 30
			}
			if rec.AvgRating >= 4.5 {
				score += 10
			}
		}

		recommendations = append(recommendations, &DoctorRecommendation{
			Doctor:        doctor,
			Score:         score,
			MatchedSkills: matched,
			Suitable:      score >= 20,
		})
	}

	return recommendations
}

// visitWeekdays 按随访级别返回一周内的就诊日（均匀分布）
func visitWeekdays(tier int) []int {
	switch tier {
	case 1:
		return []int{3} // 周三
	case 2:
		return []int{2, 5} // 周二、周五
	case 3:
		return []int{1, 3, 5} // 周一、周三、周五
	default:
		return []int{1, 2, 3, 4, 5} // 工作日
	}
}

func generatePlanNo() string {
	return fmt.Sprintf("FP%s%04d", time.Now().Format("20060102"), time.Now().UnixNano()%10000)
}
