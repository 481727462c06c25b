package stats

import (
	"time"

	"github.com/google/uuid"

	"github.com/yipai/yipai/pkg/model"
)

// CoverageMetrics 覆盖率指标
type CoverageMetrics struct {
	TotalSeats      int     `json:"total_seats"`      // 总席位数
	FilledSeats     int     `json:"filled_seats"`     // 已填充席位数
	OverallCoverage float64 `json:"overall_coverage"` // 整体覆盖率 (%)

	DailyCoverage  map[string]DayCoverage `json:"daily_coverage"`  // 每日覆盖情况
	KindCoverage   map[string]float64     `json:"kind_coverage"`   // 按单元类型覆盖率
	RoleCoverage   map[string]float64     `json:"role_coverage"`   // 按要求角色覆盖率
	HourlyCoverage map[int]float64        `json:"hourly_coverage"` // 按小时覆盖率 (0-23)

	UnfilledSeats []UnfilledSeat `json:"unfilled_seats"` // 未填充席位
}

// DayCoverage 每日覆盖情况
type DayCoverage struct {
	Date         string  `json:"date"`
	TotalSeats   int     `json:"total_seats"`
	Filled       int     `json:"filled"`
	CoverageRate float64 `json:"coverage_rate"`
	TotalHours   float64 `json:"total_hours"`
}

// UnfilledSeat 未填充席位
type UnfilledSeat struct {
	UnitID       uuid.UUID `json:"unit_id"`
	UnitName     string    `json:"unit_name"`
	Seat         int       `json:"seat"`
	Date         string    `json:"date"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	RequiredRole string    `json:"required_role,omitempty"`
}

// CoverageAnalyzer 覆盖率分析器
type CoverageAnalyzer struct{}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

// Analyze 分析一份分配方案的席位覆盖率
func (c *CoverageAnalyzer) Analyze(units []*model.Unit, assignments []*model.Assignment) *CoverageMetrics {
	metrics := &CoverageMetrics{
		DailyCoverage:  make(map[string]DayCoverage),
		KindCoverage:   make(map[string]float64),
		RoleCoverage:   make(map[string]float64),
		HourlyCoverage: make(map[int]float64),
	}
	if len(units) == 0 {
		metrics.OverallCoverage = 100
		return metrics
	}

	// 按单元×席位索引已填充情况
	type seatKey struct {
		unitID uuid.UUID
		seat   int
	}
	filled := make(map[seatKey]bool, len(assignments))
	for _, a := range assignments {
		if a.StaffID != nil {
			filled[seatKey{a.UnitID, a.Seat}] = true
		}
	}

	dailyStats := make(map[string]*DayCoverage)
	kindTotals := make(map[string]int)
	kindFilled := make(map[string]int)
	roleTotals := make(map[string]int)
	roleFilled := make(map[string]int)
	hourlyTotals := make(map[int]int)
	hourlyFilled := make(map[int]int)

	for _, unit := range units {
		date := unit.Window.Start.Format("2006-01-02")
		day, ok := dailyStats[date]
		if !ok {
			day = &DayCoverage{Date: date}
			dailyStats[date] = day
		}

		seatHours := unit.Window.End.Sub(unit.Window.Start).Hours()

		for seat := 0; seat < unit.Headcount; seat++ {
			metrics.TotalSeats++
			day.TotalSeats++
			kindTotals[string(unit.Kind)]++
			if unit.RequiredRole != "" {
				roleTotals[string(unit.RequiredRole)]++
			}

			isFilled := filled[seatKey{unit.ID, seat}]
			if isFilled {
				metrics.FilledSeats++
				day.Filled++
				day.TotalHours += seatHours
				kindFilled[string(unit.Kind)]++
				if unit.RequiredRole != "" {
					roleFilled[string(unit.RequiredRole)]++
				}
			} else {
				metrics.UnfilledSeats = append(metrics.UnfilledSeats, UnfilledSeat{
					UnitID:       unit.ID,
					UnitName:     unit.Name,
					Seat:         seat,
					Date:         date,
					StartTime:    unit.Window.Start.Format("15:04"),
					EndTime:      unit.Window.End.Format("15:04"),
					RequiredRole: string(unit.RequiredRole),
				})
			}

			for h := range hoursCovered(unit.Window) {
				hourlyTotals[h]++
				if isFilled {
					hourlyFilled[h]++
				}
			}
		}
	}

	if metrics.TotalSeats > 0 {
		metrics.OverallCoverage = float64(metrics.FilledSeats) / float64(metrics.TotalSeats) * 100
	}

	for date, stats := range dailyStats {
		if stats.TotalSeats > 0 {
			stats.CoverageRate = float64(stats.Filled) / float64(stats.TotalSeats) * 100
		}
		metrics.DailyCoverage[date] = *stats
	}
	for kind, total := range kindTotals {
		metrics.KindCoverage[kind] = float64(kindFilled[kind]) / float64(total) * 100
	}
	for role, total := range roleTotals {
		metrics.RoleCoverage[role] = float64(roleFilled[role]) / float64(total) * 100
	}
	for hour, total := range hourlyTotals {
		metrics.HourlyCoverage[hour] = float64(hourlyFilled[hour]) / float64(total) * 100
	}

	return metrics
}

// hoursCovered 返回窗口覆盖到的整点小时集合（跨夜窗口按模24展开）
func hoursCovered(w model.TimeRange) map[int]struct{} {
	start := w.Start.Hour()
	end := w.End.Hour()
	if end <= start {
		end += 24
	}
	hours := make(map[int]struct{}, end-start)
	for h := start; h < end; h++ {
		hours[h%24] = struct{}{}
	}
	return hours
}

// AnalyzeWindow 分析指定时间范围内的覆盖率
func (c *CoverageAnalyzer) AnalyzeWindow(units []*model.Unit, assignments []*model.Assignment, window model.TimeRange) *CoverageMetrics {
	keep := make(map[uuid.UUID]bool, len(units))
	var filteredUnits []*model.Unit
	for _, u := range units {
		if u.Window.Start.Before(window.End) && u.Window.End.After(window.Start) {
			filteredUnits = append(filteredUnits, u)
			keep[u.ID] = true
		}
	}

	var filteredAssignments []*model.Assignment
	for _, a := range assignments {
		if keep[a.UnitID] {
			filteredAssignments = append(filteredAssignments, a)
		}
	}

	return c.Analyze(filteredUnits, filteredAssignments)
}

// CoverageAt 统计某一时刻在岗人数
func (c *CoverageAnalyzer) CoverageAt(units []*model.Unit, assignments []*model.Assignment, at time.Time) int {
	active := make(map[uuid.UUID]bool, len(units))
	for _, u := range units {
		if !at.Before(u.Window.Start) && at.Before(u.Window.End) {
			active[u.ID] = true
		}
	}

	count := 0
	for _, a := range assignments {
		if a.StaffID != nil && active[a.UnitID] {
			count++
		}
	}
	return count
}
