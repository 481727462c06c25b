package outpatient

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yipai/yipai/pkg/model"
)

func TestSlotConflictRule(t *testing.T) {
	rule := NewSlotConflictRule(30 * time.Minute)

	doctor := testDoctor("张医生", fullDay(t))
	day := time.Date(2026, 3, 2, 8, 0, 0, 0, time.Local)

	existing := testSlot("上午门诊", day, 4)
	staffID := doctor.ID
	occupied := &model.Assignment{
		BaseModel: model.BaseModel{ID: uuid.New()},
		UnitID:    existing.ID,
		StaffID:   &staffID,
	}

	units := map[uuid.UUID]*model.Unit{existing.ID: existing}

	tests := []struct {
		name     string
		slot     *model.Unit
		wantPass bool
	}{
		{"完全重叠", testSlot("冲突时段", day.Add(time.Hour), 2), false},
		{"间隔不足", testSlot("紧邻时段", day.Add(4*time.Hour+10*time.Minute), 2), false},
		{"间隔充足", testSlot("下午时段", day.Add(5*time.Hour), 2), true},
		{"紧贴无间隔", testSlot("连续时段", day.Add(4*time.Hour), 2), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := &PlanContext{
				Units:          units,
				StaffSlots:     []*model.Assignment{occupied},
				CommuteMinutes: -1,
			}
			pass, _, _ := rule.Evaluate(tt.slot, doctor, ctx)
			if pass != tt.wantPass {
				t.Errorf("Evaluate() = %v, want %v", pass, tt.wantPass)
			}
		})
	}
}

func TestMaxSlotsPerDayRule(t *testing.T) {
	rule := NewMaxSlotsPerDayRule(2)

	doctor := testDoctor("李医生", fullDay(t))
	slot := testSlot("加号时段", time.Date(2026, 3, 2, 14, 0, 0, 0, time.Local), 2)

	full := make([]*model.Assignment, 2)
	for i := range full {
		full[i] = &model.Assignment{BaseModel: model.BaseModel{ID: uuid.New()}}
	}

	pass, _, reason := rule.Evaluate(slot, doctor, &PlanContext{StaffSlots: full})
	if pass {
		t.Error("Should reject when daily slot cap reached")
	}
	if reason == "" {
		t.Error("Expected a violation reason")
	}

	pass, penalty, _ := rule.Evaluate(slot, doctor, &PlanContext{StaffSlots: full[:1]})
	if !pass {
		t.Error("Should accept below the cap")
	}
	if penalty <= 0 {
		t.Error("Expected a soft penalty for partially loaded staff")
	}
}

func TestCommuteBurdenRule(t *testing.T) {
	rule := NewCommuteBurdenRule(60)

	doctor := testDoctor("王医生", fullDay(t))
	slot := testSlot("分院门诊", time.Date(2026, 3, 2, 8, 0, 0, 0, time.Local), 4)

	if pass, _, _ := rule.Evaluate(slot, doctor, &PlanContext{CommuteMinutes: 90}); pass {
		t.Error("Should reject commute above the limit")
	}
	if pass, penalty, _ := rule.Evaluate(slot, doctor, &PlanContext{CommuteMinutes: 30}); !pass || penalty <= 0 {
		t.Error("Should accept with a distance penalty")
	}
	// 无通勤信息时跳过检查
	if pass, penalty, _ := rule.Evaluate(slot, doctor, &PlanContext{CommuteMinutes: -1}); !pass || penalty != 0 {
		t.Error("Should skip when commute is unknown")
	}
}

func TestContinuityRule(t *testing.T) {
	rule := NewContinuityRule()

	patientID := uuid.New()
	regular := testDoctor("赵医生", fullDay(t))
	stranger := testDoctor("钱医生", fullDay(t))

	slot := testSlot("复诊", time.Date(2026, 3, 2, 8, 0, 0, 0, time.Local), 2)
	slot.PatientID = &patientID

	history := []VisitRecord{
		{PatientID: patientID, StaffID: regular.ID, VisitCount: 6, AvgRating: 4.8, IsPrimary: true},
	}

	_, bonus, _ := rule.Evaluate(slot, regular, &PlanContext{History: history})
	if bonus >= 0 {
		t.Errorf("Expected a bonus for the regular doctor, got %f", bonus)
	}

	_, penalty, _ := rule.Evaluate(slot, stranger, &PlanContext{History: history})
	if penalty <= 0 {
		t.Errorf("Expected a penalty for the unfamiliar doctor, got %f", penalty)
	}

	// 无历史时不加不减
	if _, p, _ := rule.Evaluate(slot, stranger, &PlanContext{}); p != 0 {
		t.Errorf("Expected neutral score without history, got %f", p)
	}
}

func TestPreferenceRankRule(t *testing.T) {
	rule := NewPreferenceRankRule()

	slot := testSlot("门诊", time.Date(2026, 3, 2, 8, 0, 0, 0, time.Local), 4)
	other := testSlot("另一门诊", time.Date(2026, 3, 3, 8, 0, 0, 0, time.Local), 4)

	doctor := testDoctor("孙医生", fullDay(t))
	doctor.PreferenceRanks = map[uuid.UUID]int{
		slot.ID:  1,
		other.ID: 3,
	}

	_, first, _ := rule.Evaluate(slot, doctor, &PlanContext{})
	_, third, _ := rule.Evaluate(other, doctor, &PlanContext{})
	if first >= third {
		t.Errorf("Rank 1 should score better than rank 3: %f vs %f", first, third)
	}

	undeclared := testSlot("未申报门诊", time.Date(2026, 3, 4, 8, 0, 0, 0, time.Local), 4)
	_, penalty, _ := rule.Evaluate(undeclared, doctor, &PlanContext{})
	if penalty <= third {
		t.Errorf("Undeclared slot should score worst, got %f vs %f", penalty, third)
	}

	// 未提交任何希望时不参与评分
	blank := testDoctor("周医生", fullDay(t))
	if _, p, _ := rule.Evaluate(slot, blank, &PlanContext{}); p != 0 {
		t.Errorf("Expected neutral score without preferences, got %f", p)
	}
}
