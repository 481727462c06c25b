package model

import (
	"testing"

	"github.com/google/uuid"
)

func TestStaff_HasRole(t *testing.T) {
	s := &Staff{Roles: []Role{RoleDoctor, RoleResident}}

	if !s.HasRole(RoleDoctor) {
		t.Error("应具备医师角色")
	}
	if s.HasRole(RoleNurse) {
		t.Error("不应具备护士角色")
	}
}

func TestStaff_IsAvailable(t *testing.T) {
	tests := []struct {
		name         string
		availability []TimeRange
		window       TimeRange
		want         bool
	}{
		{
			name:         "未登记窗口视为全程可用",
			availability: nil,
			window:       tr(t, "2025-04-01 08:00", "2025-04-01 16:00"),
			want:         true,
		},
		{
			name: "窗口完全覆盖班次",
			availability: []TimeRange{
				tr(t, "2025-04-01 00:00", "2025-04-02 00:00"),
			},
			window: tr(t, "2025-04-01 08:00", "2025-04-01 16:00"),
			want:   true,
		},
		{
			name: "窗口只覆盖一半",
			availability: []TimeRange{
				tr(t, "2025-04-01 08:00", "2025-04-01 12:00"),
			},
			window: tr(t, "2025-04-01 08:00", "2025-04-01 16:00"),
			want:   false,
		},
		{
			name: "多个窗口中有一个覆盖",
			availability: []TimeRange{
				tr(t, "2025-04-01 00:00", "2025-04-01 06:00"),
				tr(t, "2025-04-01 07:00", "2025-04-01 18:00"),
			},
			window: tr(t, "2025-04-01 08:00", "2025-04-01 16:00"),
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Staff{Availability: tt.availability}
			if got := s.IsAvailable(tt.window); got != tt.want {
				t.Errorf("IsAvailable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStaff_PreferenceRank(t *testing.T) {
	unitID := uuid.New()
	s := &Staff{PreferenceRanks: map[uuid.UUID]int{unitID: 2}}

	if got := s.PreferenceRank(unitID); got != 2 {
		t.Errorf("PreferenceRank() = %d, want 2", got)
	}
	if got := s.PreferenceRank(uuid.New()); got != 0 {
		t.Errorf("未填报单元应返回 0, got %d", got)
	}

	empty := &Staff{}
	if got := empty.PreferenceRank(unitID); got != 0 {
		t.Errorf("空偏好应返回 0, got %d", got)
	}
}

func TestUnit_Eligible(t *testing.T) {
	window := tr(t, "2025-04-01 08:00", "2025-04-01 16:00")
	unit := &Unit{
		Kind:         UnitShift,
		Window:       window,
		RequiredRole: RoleNurse,
		Headcount:    1,
	}

	tests := []struct {
		name  string
		staff *Staff
		want  bool
	}{
		{
			name:  "角色匹配且可用",
			staff: &Staff{Status: "active", Roles: []Role{RoleNurse}},
			want:  true,
		},
		{
			name:  "角色不匹配",
			staff: &Staff{Status: "active", Roles: []Role{RoleDoctor}},
			want:  false,
		},
		{
			name:  "离职人员不可用",
			staff: &Staff{Status: "leave", Roles: []Role{RoleNurse}},
			want:  false,
		},
		{
			name: "可用窗口不覆盖",
			staff: &Staff{
				Status: "active",
				Roles:  []Role{RoleNurse},
				Availability: []TimeRange{
					tr(t, "2025-04-02 08:00", "2025-04-02 16:00"),
				},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := unit.Eligible(tt.staff); got != tt.want {
				t.Errorf("Eligible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnit_Eligible_SkillRequired(t *testing.T) {
	unit := &Unit{
		Kind:          UnitOutpatientSlot,
		Window:        tr(t, "2025-04-01 09:00", "2025-04-01 09:30"),
		RequiredRole:  RoleDoctor,
		RequiredSkill: "endoscopy",
		Headcount:     1,
	}

	withSkill := &Staff{Status: "active", Roles: []Role{RoleDoctor}, Skills: []string{"endoscopy"}}
	withoutSkill := &Staff{Status: "active", Roles: []Role{RoleDoctor}}

	if !unit.Eligible(withSkill) {
		t.Error("具备技能的医师应当合格")
	}
	if unit.Eligible(withoutSkill) {
		t.Error("缺少技能的医师不应合格")
	}
}
