// Package validator 提供方案发布前的劳动规则检查
// 遗传优化的硬约束保证方案基本可行，这里补充发布前的
// 劳动保护类检查：休息间隔、单日工时、连续工作天数。
package validator

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yipai/yipai/pkg/model"
)

// ConflictType 冲突类型
type ConflictType string

const (
	ConflictOverlap     ConflictType = "overlap"     // 时间重叠
	ConflictRestTime    ConflictType = "rest_time"   // 休息时间不足
	ConflictMaxHours    ConflictType = "max_hours"   // 超过最大工时
	ConflictConsecutive ConflictType = "consecutive" // 连续天数过多
)

// Conflict 冲突信息
type Conflict struct {
	Type        ConflictType `json:"type"`
	Severity    string       `json:"severity"` // error/warning
	StaffID     uuid.UUID    `json:"staff_id"`
	Date        string       `json:"date,omitempty"`
	Message     string       `json:"message"`
	Assignments []uuid.UUID  `json:"assignments,omitempty"` // 相关的席位ID
}

// ConflictDetector 冲突检测器
type ConflictDetector struct {
	config *DetectorConfig
}

// DetectorConfig 检测器配置
type DetectorConfig struct {
	MinRestHours       int // 班次间最小休息时间（小时）
	MaxHoursPerDay     int // 每日最大工时
	MaxConsecutiveDays int // 最大连续工作天数
}

// DefaultDetectorConfig 返回默认配置
func DefaultDetectorConfig() *DetectorConfig {
	return &DetectorConfig{
		MinRestHours:       10,
		MaxHoursPerDay:     12,
		MaxConsecutiveDays: 6,
	}
}

// NewConflictDetector 创建冲突检测器
func NewConflictDetector(config *DetectorConfig) *ConflictDetector {
	if config == nil {
		config = DefaultDetectorConfig()
	}
	return &ConflictDetector{config: config}
}

// seatUnit 已填席位与其单元的配对
type seatUnit struct {
	assignment *model.Assignment
	unit       *model.Unit
}

// DetectAll 检测方案中的所有劳动规则冲突
func (d *ConflictDetector) DetectAll(assignments []*model.Assignment, staff map[uuid.UUID]*model.Staff, units map[uuid.UUID]*model.Unit) []Conflict {
	var conflicts []Conflict

	byStaff := make(map[uuid.UUID][]seatUnit)
	for _, a := range assignments {
		if a.StaffID == nil {
			continue
		}
		u := units[a.UnitID]
		if u == nil {
			continue
		}
		byStaff[*a.StaffID] = append(byStaff[*a.StaffID], seatUnit{assignment: a, unit: u})
	}

	for staffID, seats := range byStaff {
		s := staff[staffID]
		if s == nil {
			continue
		}

		sort.Slice(seats, func(i, j int) bool {
			return seats[i].unit.Window.Start.Before(seats[j].unit.Window.Start)
		})

		conflicts = append(conflicts, d.detectOverlaps(s, seats)...)
		conflicts = append(conflicts, d.detectRestTime(s, seats)...)
		conflicts = append(conflicts, d.detectDailyHours(s, seats)...)
		conflicts = append(conflicts, d.detectConsecutiveDays(s, seats)...)
	}

	return conflicts
}

// detectOverlaps 检测时间重叠
func (d *ConflictDetector) detectOverlaps(s *model.Staff, seats []seatUnit) []Conflict {
	var conflicts []Conflict

	for i := 0; i < len(seats); i++ {
		for j := i + 1; j < len(seats); j++ {
			if !seats[i].unit.Window.Overlaps(seats[j].unit.Window) {
				break
			}
			conflicts = append(conflicts, Conflict{
				Type:     ConflictOverlap,
				Severity: "error",
				StaffID:  s.ID,
				Date:     seats[i].unit.Window.Start.Format("2006-01-02"),
				Message:  fmt.Sprintf("%s 存在时间重叠的席位: %s 与 %s", s.Name, seats[i].unit.Name, seats[j].unit.Name),
				Assignments: []uuid.UUID{
					seats[i].assignment.ID,
					seats[j].assignment.ID,
				},
			})
		}
	}

	return conflicts
}

// detectRestTime 检测班次间休息不足
func (d *ConflictDetector) detectRestTime(s *model.Staff, seats []seatUnit) []Conflict {
	var conflicts []Conflict

	for i := 0; i < len(seats)-1; i++ {
		current := seats[i]
		next := seats[i+1]

		rest := next.unit.Window.Start.Sub(current.unit.Window.End).Hours()
		if rest >= 0 && rest < float64(d.config.MinRestHours) {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictRestTime,
				Severity: "warning",
				StaffID:  s.ID,
				Date:     next.unit.Window.Start.Format("2006-01-02"),
				Message:  fmt.Sprintf("%s 班次间休息仅 %.1f 小时，少于建议的 %d 小时", s.Name, rest, d.config.MinRestHours),
				Assignments: []uuid.UUID{
					current.assignment.ID,
					next.assignment.ID,
				},
			})
		}
	}

	return conflicts
}

// detectDailyHours 检测单日工时超限
func (d *ConflictDetector) detectDailyHours(s *model.Staff, seats []seatUnit) []Conflict {
	var conflicts []Conflict

	dailyHours := make(map[string]float64)
	for _, su := range seats {
		date := su.unit.Window.Start.Format("2006-01-02")
		dailyHours[date] += su.unit.Hours()
	}

	dates := make([]string, 0, len(dailyHours))
	for date := range dailyHours {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	for _, date := range dates {
		if hours := dailyHours[date]; hours > float64(d.config.MaxHoursPerDay) {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictMaxHours,
				Severity: "warning",
				StaffID:  s.ID,
				Date:     date,
				Message:  fmt.Sprintf("%s 在 %s 工作 %.1f 小时，超过建议的 %d 小时", s.Name, date, hours, d.config.MaxHoursPerDay),
			})
		}
	}

	return conflicts
}

// detectConsecutiveDays 检测连续工作天数
func (d *ConflictDetector) detectConsecutiveDays(s *model.Staff, seats []seatUnit) []Conflict {
	if len(seats) == 0 {
		return nil
	}

	workDays := make(map[string]bool)
	for _, su := range seats {
		workDays[su.unit.Window.Start.Format("2006-01-02")] = true
	}

	dates := make([]string, 0, len(workDays))
	for date := range workDays {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	consecutive := 1
	maxConsecutive := 1
	runStart := dates[0]
	maxRunStart := dates[0]

	for i := 1; i < len(dates); i++ {
		if isNextDay(dates[i-1], dates[i]) {
			consecutive++
			if consecutive > maxConsecutive {
				maxConsecutive = consecutive
				maxRunStart = runStart
			}
		} else {
			consecutive = 1
			runStart = dates[i]
		}
	}

	if maxConsecutive > d.config.MaxConsecutiveDays {
		return []Conflict{{
			Type:     ConflictConsecutive,
			Severity: "warning",
			StaffID:  s.ID,
			Date:     maxRunStart,
			Message:  fmt.Sprintf("%s 连续工作 %d 天，超过建议的 %d 天", s.Name, maxConsecutive, d.config.MaxConsecutiveDays),
		}}
	}

	return nil
}

// isNextDay 检查两个日期字符串是否相邻
func isNextDay(date1, date2 string) bool {
	t1, err1 := time.Parse("2006-01-02", date1)
	t2, err2 := time.Parse("2006-01-02", date2)
	if err1 != nil || err2 != nil {
		return false
	}
	return t2.Sub(t1).Hours() == 24
}
