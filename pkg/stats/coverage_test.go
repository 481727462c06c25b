package stats

import (
	"testing"
	"time"

	"github.com/yipai/yipai/pkg/model"
)

func TestCoverageAnalyzer_Analyze(t *testing.T) {
	analyzer := NewCoverageAnalyzer()

	s1 := statsStaff("陈静")
	day := time.Date(2026, 1, 12, 8, 0, 0, 0, time.Local)
	u1 := statsUnit("早班", day, 8, 2)
	u2 := statsUnit("晚班", day.Add(8*time.Hour), 8, 1)
	units := []*model.Unit{u1, u2}

	// 早班只填了1个席位，晚班空着
	assignments := []*model.Assignment{
		seatFor(u1, 0, s1),
		seatFor(u1, 1, nil),
		seatFor(u2, 0, nil),
	}

	metrics := analyzer.Analyze(units, assignments)

	if metrics.TotalSeats != 3 {
		t.Errorf("Expected 3 seats, got %d", metrics.TotalSeats)
	}
	if metrics.FilledSeats != 1 {
		t.Errorf("Expected 1 filled seat, got %d", metrics.FilledSeats)
	}
	if metrics.OverallCoverage < 33 || metrics.OverallCoverage > 34 {
		t.Errorf("Expected coverage ~33.3%%, got %f", metrics.OverallCoverage)
	}
	if len(metrics.UnfilledSeats) != 2 {
		t.Errorf("Expected 2 unfilled seats, got %d", len(metrics.UnfilledSeats))
	}
}

func TestCoverageAnalyzer_EmptyUnits(t *testing.T) {
	analyzer := NewCoverageAnalyzer()

	metrics := analyzer.Analyze(nil, nil)

	if metrics.OverallCoverage != 100 {
		t.Errorf("Empty units should report 100%% coverage, got %f", metrics.OverallCoverage)
	}
}

func TestCoverageAnalyzer_FullCoverage(t *testing.T) {
	analyzer := NewCoverageAnalyzer()

	s1 := statsStaff("李芳")
	s2 := statsStaff("王敏")
	day := time.Date(2026, 1, 12, 8, 0, 0, 0, time.Local)
	u1 := statsUnit("早班", day, 8, 2)

	metrics := analyzer.Analyze([]*model.Unit{u1}, []*model.Assignment{
		seatFor(u1, 0, s1),
		seatFor(u1, 1, s2),
	})

	if metrics.OverallCoverage != 100 {
		t.Errorf("Expected 100%% coverage, got %f", metrics.OverallCoverage)
	}
	if len(metrics.UnfilledSeats) != 0 {
		t.Errorf("Expected no unfilled seats, got %d", len(metrics.UnfilledSeats))
	}
	if metrics.KindCoverage[string(model.UnitShift)] != 100 {
		t.Errorf("Expected shift kind coverage 100%%, got %f", metrics.KindCoverage[string(model.UnitShift)])
	}
}

func TestCoverageAnalyzer_DailyBreakdown(t *testing.T) {
	analyzer := NewCoverageAnalyzer()

	s1 := statsStaff("刘洋")
	day1 := time.Date(2026, 1, 12, 8, 0, 0, 0, time.Local)
	day2 := time.Date(2026, 1, 13, 8, 0, 0, 0, time.Local)
	u1 := statsUnit("周一早班", day1, 8, 1)
	u2 := statsUnit("周二早班", day2, 8, 1)

	metrics := analyzer.Analyze([]*model.Unit{u1, u2}, []*model.Assignment{
		seatFor(u1, 0, s1),
		seatFor(u2, 0, nil),
	})

	mon := metrics.DailyCoverage["2026-01-12"]
	tue := metrics.DailyCoverage["2026-01-13"]
	if mon.CoverageRate != 100 {
		t.Errorf("Expected Monday fully covered, got %f", mon.CoverageRate)
	}
	if tue.CoverageRate != 0 {
		t.Errorf("Expected Tuesday uncovered, got %f", tue.CoverageRate)
	}
	if mon.TotalHours != 8 {
		t.Errorf("Expected 8 covered hours on Monday, got %f", mon.TotalHours)
	}
}

func TestCoverageAnalyzer_AnalyzeWindow(t *testing.T) {
	analyzer := NewCoverageAnalyzer()

	s1 := statsStaff("张伟")
	day1 := time.Date(2026, 1, 12, 8, 0, 0, 0, time.Local)
	day2 := time.Date(2026, 1, 19, 8, 0, 0, 0, time.Local)
	u1 := statsUnit("本周班", day1, 8, 1)
	u2 := statsUnit("下周班", day2, 8, 1)

	window := model.TimeRange{
		Start: time.Date(2026, 1, 12, 0, 0, 0, 0, time.Local),
		End:   time.Date(2026, 1, 16, 0, 0, 0, 0, time.Local),
	}

	metrics := analyzer.AnalyzeWindow(
		[]*model.Unit{u1, u2},
		[]*model.Assignment{seatFor(u1, 0, s1), seatFor(u2, 0, nil)},
		window,
	)

	// 下周的单元不在窗口内，不计入
	if metrics.TotalSeats != 1 {
		t.Errorf("Expected 1 seat in window, got %d", metrics.TotalSeats)
	}
	if metrics.OverallCoverage != 100 {
		t.Errorf("Expected 100%% coverage in window, got %f", metrics.OverallCoverage)
	}
}

func TestCoverageAnalyzer_CoverageAt(t *testing.T) {
	analyzer := NewCoverageAnalyzer()

	s1 := statsStaff("赵磊")
	s2 := statsStaff("孙娜")
	day := time.Date(2026, 1, 12, 8, 0, 0, 0, time.Local)
	u1 := statsUnit("早班", day, 8, 2)
	u2 := statsUnit("晚班", day.Add(8*time.Hour), 8, 1)

	assignments := []*model.Assignment{
		seatFor(u1, 0, s1),
		seatFor(u1, 1, s2),
		seatFor(u2, 0, s1),
	}

	units := []*model.Unit{u1, u2}

	if n := analyzer.CoverageAt(units, assignments, day.Add(2*time.Hour)); n != 2 {
		t.Errorf("Expected 2 on duty during morning, got %d", n)
	}
	if n := analyzer.CoverageAt(units, assignments, day.Add(10*time.Hour)); n != 1 {
		t.Errorf("Expected 1 on duty during evening, got %d", n)
	}
	if n := analyzer.CoverageAt(units, assignments, day.Add(20*time.Hour)); n != 0 {
		t.Errorf("Expected nobody on duty at night, got %d", n)
	}
}
