// Package scenario 提供场景测试
package scenario

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yipai/yipai/pkg/model"
	"github.com/yipai/yipai/pkg/optimizer/constraint/builtin"
	"github.com/yipai/yipai/pkg/optimizer/ga"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		t.Fatalf("解析时间失败: %v", err)
	}
	return tm
}

// TestWardScheduleAtScale 测试病房排班规模场景
// 10 名护士对 10 个单人班次，每天早晚两班连排五天，
// 优化应在 50 代内找到零违反方案
func TestWardScheduleAtScale(t *testing.T) {
	staff := make([]*model.Staff, 0, 10)
	names := []string{"陈静", "李芳", "王敏", "刘洋", "张伟",
		"赵琳", "孙丽", "周强", "吴霞", "郑磊"}
	for _, name := range names {
		staff = append(staff, &model.Staff{
			BaseModel: model.NewBaseModel(),
			Name:      name,
			Code:      "N-" + name,
			Status:    "active",
			Roles:     []model.Role{model.RoleNurse},
		})
	}

	units := make([]*model.Unit, 0, 10)
	for d := 1; d <= 5; d++ {
		date := time.Date(2025, 4, d, 0, 0, 0, 0, time.UTC)
		units = append(units,
			&model.Unit{
				BaseModel:    model.NewBaseModel(),
				Kind:         model.UnitShift,
				Name:         "早班",
				Window:       model.TimeRange{Start: date.Add(8 * time.Hour), End: date.Add(16 * time.Hour)},
				RequiredRole: model.RoleNurse,
				Headcount:    1,
			},
			&model.Unit{
				BaseModel:    model.NewBaseModel(),
				Kind:         model.UnitShift,
				Name:         "晚班",
				Window:       model.TimeRange{Start: date.Add(16 * time.Hour), End: date.Add(24 * time.Hour)},
				RequiredRole: model.RoleNurse,
				Headcount:    1,
			},
		)
	}

	cfg := ga.DefaultConfig().WithSeed(2025)
	cfg.GenerationsMax = 50

	req := &ga.Request{
		ID:          uuid.New(),
		Staff:       staff,
		Units:       units,
		Constraints: builtin.NewDefaultManager(),
		Config:      cfg,
	}

	ctrl, err := ga.NewController(req)
	if err != nil {
		t.Fatalf("创建控制器失败: %v", err)
	}

	res, err := ctrl.Run(context.Background())
	if err != nil {
		t.Fatalf("优化失败: %v", err)
	}

	t.Logf("状态=%s 代数=%d 适应度=%.4f 耗时=%s",
		res.Status, res.Generations, res.Fitness, res.Duration)

	if !res.Feasible {
		for _, v := range res.Violations {
			t.Logf("硬违反: [%s] %s", v.ConstraintType, v.Message)
		}
		t.Fatalf("规模场景应在 %d 代内找到零违反方案, 剩余违反 %d 个",
			cfg.GenerationsMax, len(res.Violations))
	}
	if res.Generations > 50 {
		t.Errorf("代数超出预算: %d", res.Generations)
	}

	// 每个班次恰好一人
	filled := make(map[uuid.UUID]int)
	for _, a := range res.Assignments {
		if !a.IsFilled() {
			t.Errorf("单元 %s 席位 %d 未填满", a.UnitID, a.Seat)
			continue
		}
		filled[a.UnitID]++
	}
	for _, u := range units {
		if filled[u.ID] != 1 {
			t.Errorf("班次 %s(%s) 应恰好一人, 实际 %d", u.Name, u.ID, filled[u.ID])
		}
	}
}

// TestWardScheduleHonorsPreferences 测试希望顺位在可行域内被尊重
// 两名护士各自只希望一个互不冲突的班次，优化应按希望分配
func TestWardScheduleHonorsPreferences(t *testing.T) {
	morning := &model.Unit{
		BaseModel:    model.NewBaseModel(),
		Kind:         model.UnitShift,
		Name:         "早班",
		Window:       model.TimeRange{Start: day(t, "2025-04-01 08:00"), End: day(t, "2025-04-01 16:00")},
		RequiredRole: model.RoleNurse,
		Headcount:    1,
	}
	evening := &model.Unit{
		BaseModel:    model.NewBaseModel(),
		Kind:         model.UnitShift,
		Name:         "晚班",
		Window:       model.TimeRange{Start: day(t, "2025-04-01 16:00"), End: day(t, "2025-04-02 00:00")},
		RequiredRole: model.RoleNurse,
		Headcount:    1,
	}

	likesMorning := &model.Staff{
		BaseModel:       model.NewBaseModel(),
		Name:            "陈静",
		Status:          "active",
		Roles:           []model.Role{model.RoleNurse},
		PreferenceRanks: map[uuid.UUID]int{morning.ID: 1},
	}
	likesEvening := &model.Staff{
		BaseModel:       model.NewBaseModel(),
		Name:            "李芳",
		Status:          "active",
		Roles:           []model.Role{model.RoleNurse},
		PreferenceRanks: map[uuid.UUID]int{evening.ID: 1},
	}

	req := &ga.Request{
		ID:          uuid.New(),
		Staff:       []*model.Staff{likesMorning, likesEvening},
		Units:       []*model.Unit{morning, evening},
		Constraints: builtin.NewDefaultManager(),
		Config:      ga.DefaultConfig().WithSeed(8),
	}

	ctrl, err := ga.NewController(req)
	if err != nil {
		t.Fatalf("创建控制器失败: %v", err)
	}
	res, err := ctrl.Run(context.Background())
	if err != nil {
		t.Fatalf("优化失败: %v", err)
	}

	if !res.Feasible {
		t.Fatalf("场景可行, 不应有硬违反: %+v", res.Violations)
	}

	for _, a := range res.Assignments {
		if a.StaffID == nil {
			t.Fatalf("单元 %s 未填满", a.UnitID)
		}
		switch a.UnitID {
		case morning.ID:
			if *a.StaffID != likesMorning.ID {
				t.Error("早班应分配给希望早班的陈静")
			}
			if a.HopeRank != 1 {
				t.Errorf("早班希望顺位 = %d, want 1", a.HopeRank)
			}
		case evening.ID:
			if *a.StaffID != likesEvening.ID {
				t.Error("晚班应分配给希望晚班的李芳")
			}
		}
		if a.Mismatch {
			t.Errorf("单元 %s 不应出现希望外分配", a.UnitID)
		}
	}
}
