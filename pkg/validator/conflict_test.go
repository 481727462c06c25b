package validator

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yipai/yipai/pkg/model"
)

func lintStaff(name string) *model.Staff {
	return &model.Staff{
		BaseModel: model.BaseModel{ID: uuid.New()},
		Name:      name,
		Status:    "active",
		Roles:     []model.Role{model.RoleNurse},
	}
}

func lintUnit(name string, start time.Time, hours int) *model.Unit {
	return &model.Unit{
		BaseModel: model.BaseModel{ID: uuid.New()},
		Kind:      model.UnitShift,
		Name:      name,
		Window: model.TimeRange{
			Start: start,
			End:   start.Add(time.Duration(hours) * time.Hour),
		},
		RequiredRole: model.RoleNurse,
		Headcount:    1,
	}
}

func lintSeat(unit *model.Unit, s *model.Staff) *model.Assignment {
	return &model.Assignment{
		BaseModel: model.BaseModel{ID: uuid.New()},
		UnitID:    unit.ID,
		Seat:      0,
		StaffID:   &s.ID,
		Status:    "confirmed",
	}
}

func lintMaps(staff []*model.Staff, units []*model.Unit) (map[uuid.UUID]*model.Staff, map[uuid.UUID]*model.Unit) {
	sm := make(map[uuid.UUID]*model.Staff)
	for _, s := range staff {
		sm[s.ID] = s
	}
	um := make(map[uuid.UUID]*model.Unit)
	for _, u := range units {
		um[u.ID] = u
	}
	return sm, um
}

func hasConflict(conflicts []Conflict, typ ConflictType) bool {
	for _, c := range conflicts {
		if c.Type == typ {
			return true
		}
	}
	return false
}

func TestConflictDetector_Overlap(t *testing.T) {
	s := lintStaff("王护士")
	day := time.Date(2026, 5, 4, 8, 0, 0, 0, time.Local)
	u1 := lintUnit("早班", day, 8)
	u2 := lintUnit("门诊支援", day.Add(4*time.Hour), 4)

	sm, um := lintMaps([]*model.Staff{s}, []*model.Unit{u1, u2})
	detector := NewConflictDetector(nil)

	conflicts := detector.DetectAll([]*model.Assignment{lintSeat(u1, s), lintSeat(u2, s)}, sm, um)

	if !hasConflict(conflicts, ConflictOverlap) {
		t.Error("应检测出时间重叠冲突")
	}
	for _, c := range conflicts {
		if c.Type == ConflictOverlap {
			if c.Severity != "error" {
				t.Errorf("重叠冲突级别应为 error, 实际 %s", c.Severity)
			}
			if len(c.Assignments) != 2 {
				t.Errorf("重叠冲突应关联 2 个席位, 实际 %d", len(c.Assignments))
			}
		}
	}
}

func TestConflictDetector_RestTime(t *testing.T) {
	s := lintStaff("李护士")
	day := time.Date(2026, 5, 4, 14, 0, 0, 0, time.Local)
	evening := lintUnit("晚班", day, 8)                     // 14:00-22:00
	morning := lintUnit("次日早班", day.Add(16*time.Hour), 8) // 次日 06:00, 仅休息 8 小时

	sm, um := lintMaps([]*model.Staff{s}, []*model.Unit{evening, morning})
	detector := NewConflictDetector(nil)

	conflicts := detector.DetectAll([]*model.Assignment{lintSeat(evening, s), lintSeat(morning, s)}, sm, um)

	if !hasConflict(conflicts, ConflictRestTime) {
		t.Error("休息 8 小时应触发休息不足告警")
	}
	if hasConflict(conflicts, ConflictOverlap) {
		t.Error("不重叠的班次不应报重叠")
	}
}

func TestConflictDetector_DailyHours(t *testing.T) {
	s := lintStaff("张护士")
	day := time.Date(2026, 5, 4, 6, 0, 0, 0, time.Local)
	first := lintUnit("早班", day, 8)
	second := lintUnit("加班段", day.Add(14*time.Hour), 3) // 当日 20:00 起, 合计 11 小时

	sm, um := lintMaps([]*model.Staff{s}, []*model.Unit{first, second})
	detector := NewConflictDetector(&DetectorConfig{
		MinRestHours:       1,
		MaxHoursPerDay:     10,
		MaxConsecutiveDays: 6,
	})

	conflicts := detector.DetectAll([]*model.Assignment{lintSeat(first, s), lintSeat(second, s)}, sm, um)

	if !hasConflict(conflicts, ConflictMaxHours) {
		t.Error("单日 11 小时应触发工时超限告警")
	}
}

func TestConflictDetector_ConsecutiveDays(t *testing.T) {
	s := lintStaff("赵护士")
	start := time.Date(2026, 5, 4, 8, 0, 0, 0, time.Local)

	var units []*model.Unit
	var assignments []*model.Assignment
	for i := 0; i < 7; i++ {
		u := lintUnit("白班", start.AddDate(0, 0, i), 8)
		units = append(units, u)
		assignments = append(assignments, lintSeat(u, s))
	}

	sm, um := lintMaps([]*model.Staff{s}, units)
	detector := NewConflictDetector(nil)

	conflicts := detector.DetectAll(assignments, sm, um)

	if !hasConflict(conflicts, ConflictConsecutive) {
		t.Error("连续工作 7 天应触发连续天数告警")
	}
}

func TestConflictDetector_CleanPlan(t *testing.T) {
	s1 := lintStaff("孙护士")
	s2 := lintStaff("周护士")
	start := time.Date(2026, 5, 4, 8, 0, 0, 0, time.Local)
	u1 := lintUnit("周一白班", start, 8)
	u2 := lintUnit("周三白班", start.AddDate(0, 0, 2), 8)

	sm, um := lintMaps([]*model.Staff{s1, s2}, []*model.Unit{u1, u2})
	detector := NewConflictDetector(nil)

	conflicts := detector.DetectAll([]*model.Assignment{lintSeat(u1, s1), lintSeat(u2, s2)}, sm, um)

	if len(conflicts) != 0 {
		t.Errorf("合规方案不应有冲突, 实际 %d 个: %+v", len(conflicts), conflicts)
	}
}

func TestConflictDetector_IgnoresEmptySeats(t *testing.T) {
	s := lintStaff("钱护士")
	start := time.Date(2026, 5, 4, 8, 0, 0, 0, time.Local)
	u := lintUnit("白班", start, 8)

	empty := &model.Assignment{
		BaseModel: model.BaseModel{ID: uuid.New()},
		UnitID:    u.ID,
		Seat:      1,
	}

	sm, um := lintMaps([]*model.Staff{s}, []*model.Unit{u})
	detector := NewConflictDetector(nil)

	conflicts := detector.DetectAll([]*model.Assignment{lintSeat(u, s), empty}, sm, um)
	if len(conflicts) != 0 {
		t.Errorf("空席位不应参与检测, 实际冲突 %d", len(conflicts))
	}
}
