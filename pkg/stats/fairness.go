// Package stats 提供优化结果的统计分析功能
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yipai/yipai/pkg/model"
)

// FairnessMetrics 公平性指标
type FairnessMetrics struct {
	// 工时公平性
	WorkloadGini     float64 `json:"workload_gini"`       // 工时基尼系数 (0=完全公平, 1=完全不公平)
	WorkloadVariance float64 `json:"workload_variance"`   // 工时方差
	WorkloadStdDev   float64 `json:"workload_std_dev"`    // 工时标准差
	AvgHoursPerStaff float64 `json:"avg_hours_per_staff"` // 人均工时
	MaxHours         float64 `json:"max_hours"`           // 最大工时
	MinHours         float64 `json:"min_hours"`           // 最小工时
	HoursRange       float64 `json:"hours_range"`         // 工时极差

	// 班型公平性
	NightUnitGini   float64 `json:"night_unit_gini"`   // 夜班分配基尼系数
	WeekendUnitGini float64 `json:"weekend_unit_gini"` // 周末班分配基尼系数

	// 人员级别统计
	StaffStats []StaffStat `json:"staff_stats"`

	// 综合评分
	OverallFairnessScore float64 `json:"overall_fairness_score"` // 综合公平性评分 (0-100)
}

// StaffStat 人员统计
type StaffStat struct {
	StaffID      uuid.UUID `json:"staff_id"`
	StaffName    string    `json:"staff_name"`
	TotalHours   float64   `json:"total_hours"`
	SeatCount    int       `json:"seat_count"`
	NightUnits   int       `json:"night_units"`
	WeekendUnits int       `json:"weekend_units"`
	Deviation    float64   `json:"deviation"` // 与平均值的偏差百分比
}

// FairnessAnalyzer 公平性分析器
type FairnessAnalyzer struct {
	nightStart int // 夜班开始时间（小时）
	nightEnd   int // 夜班结束时间（小时）
}

// NewFairnessAnalyzer 创建公平性分析器
func NewFairnessAnalyzer() *FairnessAnalyzer {
	return &FairnessAnalyzer{
		nightStart: 22,
		nightEnd:   6,
	}
}

// Analyze 分析一份分配方案的公平性
// 未被分到任何席位的人员按零工时计入，避免基尼系数虚低
func (f *FairnessAnalyzer) Analyze(staff []*model.Staff, units []*model.Unit, assignments []*model.Assignment) *FairnessMetrics {
	if len(staff) == 0 {
		return &FairnessMetrics{OverallFairnessScore: 100}
	}

	unitMap := make(map[uuid.UUID]*model.Unit, len(units))
	for _, u := range units {
		unitMap[u.ID] = u
	}

	stats := f.calculateStaffStats(staff, unitMap, assignments)

	hours := make([]float64, len(stats))
	nightUnits := make([]float64, len(stats))
	weekendUnits := make([]float64, len(stats))
	for i, s := range stats {
		hours[i] = s.TotalHours
		nightUnits[i] = float64(s.NightUnits)
		weekendUnits[i] = float64(s.WeekendUnits)
	}

	avgHours := mean(hours)
	varHours := variance(hours, avgHours)
	stdDev := math.Sqrt(varHours)
	maxHours, minHours := valueRange(hours)

	for i := range stats {
		if avgHours > 0 {
			stats[i].Deviation = (stats[i].TotalHours - avgHours) / avgHours * 100
		}
	}

	workloadGini := gini(hours)
	nightGini := gini(nightUnits)
	weekendGini := gini(weekendUnits)

	return &FairnessMetrics{
		WorkloadGini:         workloadGini,
		WorkloadVariance:     varHours,
		WorkloadStdDev:       stdDev,
		AvgHoursPerStaff:     avgHours,
		MaxHours:             maxHours,
		MinHours:             minHours,
		HoursRange:           maxHours - minHours,
		NightUnitGini:        nightGini,
		WeekendUnitGini:      weekendGini,
		StaffStats:           stats,
		OverallFairnessScore: f.overallScore(workloadGini, nightGini, weekendGini, stdDev, avgHours),
	}
}

func (f *FairnessAnalyzer) calculateStaffStats(staff []*model.Staff, unitMap map[uuid.UUID]*model.Unit, assignments []*model.Assignment) []StaffStat {
	statMap := make(map[uuid.UUID]*StaffStat, len(staff))
	for _, s := range staff {
		statMap[s.ID] = &StaffStat{StaffID: s.ID, StaffName: s.Name}
	}

	for _, a := range assignments {
		if a.StaffID == nil {
			continue
		}
		stat, ok := statMap[*a.StaffID]
		if !ok {
			// 方案中出现了不在名单里的人员，照常计入
			stat = &StaffStat{StaffID: *a.StaffID}
			statMap[*a.StaffID] = stat
		}
		unit, ok := unitMap[a.UnitID]
		if !ok {
			continue
		}

		stat.TotalHours += unit.Window.End.Sub(unit.Window.Start).Hours()
		stat.SeatCount++
		if f.isNight(unit.Window) {
			stat.NightUnits++
		}
		if isWeekend(unit.Window.Start) {
			stat.WeekendUnits++
		}
	}

	result := make([]StaffStat, 0, len(statMap))
	for _, stat := range statMap {
		result = append(result, *stat)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].TotalHours != result[j].TotalHours {
			return result[i].TotalHours > result[j].TotalHours
		}
		return result[i].StaffID.String() < result[j].StaffID.String()
	})
	return result
}

// isNight 夜班定义：开始时间在22点后或结束时间在6点前
func (f *FairnessAnalyzer) isNight(w model.TimeRange) bool {
	return w.Start.Hour() >= f.nightStart || w.End.Hour() <= f.nightEnd
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func variance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

func valueRange(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}

// gini 计算基尼系数
func gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	g := 0.0
	for i, v := range sorted {
		g += (2*float64(i+1) - float64(n) - 1) * v
	}
	g = g / (float64(n) * sum)
	return math.Max(0, math.Min(1, g))
}

// overallScore 计算综合公平性评分
func (f *FairnessAnalyzer) overallScore(workloadGini, nightGini, weekendGini, stdDev, avgHours float64) float64 {
	const (
		workloadWeight = 0.4
		nightWeight    = 0.25
		weekendWeight  = 0.25
		stdDevWeight   = 0.1
	)

	workloadScore := (1 - workloadGini) * 100
	nightScore := (1 - nightGini) * 100
	weekendScore := (1 - weekendGini) * 100

	// 变异系数越低分数越高
	cvScore := 100.0
	if avgHours > 0 {
		cv := stdDev / avgHours
		cvScore = math.Max(0, 100-cv*200)
	}

	score := workloadWeight*workloadScore +
		nightWeight*nightScore +
		weekendWeight*weekendScore +
		stdDevWeight*cvScore

	return math.Max(0, math.Min(100, score))
}

// ComparePlans 比较两份分配方案的公平性
func (f *FairnessAnalyzer) ComparePlans(staff []*model.Staff, units []*model.Unit, plan1, plan2 []*model.Assignment) map[string]float64 {
	m1 := f.Analyze(staff, units, plan1)
	m2 := f.Analyze(staff, units, plan2)

	return map[string]float64{
		"workload_gini_diff":  m2.WorkloadGini - m1.WorkloadGini,
		"night_gini_diff":     m2.NightUnitGini - m1.NightUnitGini,
		"weekend_gini_diff":   m2.WeekendUnitGini - m1.WeekendUnitGini,
		"overall_score_diff":  m2.OverallFairnessScore - m1.OverallFairnessScore,
		"plan1_overall_score": m1.OverallFairnessScore,
		"plan2_overall_score": m2.OverallFairnessScore,
	}
}
