// Package outpatient 提供门诊时段的逐一指派规划
// 与批量遗传优化不同，这里针对单个门诊时段在候选人中打分选优，
// 适合临时加号、退号补位等在线场景。
package outpatient

import (
	"time"

	"github.com/google/uuid"

	"github.com/yipai/yipai/pkg/model"
)

// Rule 指派规则接口
type Rule interface {
	Name() string
	Kind() string // hard/soft
	Weight() float64
	Evaluate(slot *model.Unit, staff *model.Staff, ctx *PlanContext) (bool, float64, string)
}

// VisitRecord 患者与人员的历史接诊记录
type VisitRecord struct {
	PatientID  uuid.UUID `json:"patient_id"`
	StaffID    uuid.UUID `json:"staff_id"`
	VisitCount int       `json:"visit_count"`
	AvgRating  float64   `json:"avg_rating"`
	IsPrimary  bool      `json:"is_primary"` // 是否主诊
}

// PlanContext 指派上下文
type PlanContext struct {
	Units          map[uuid.UUID]*model.Unit // 所有相关单元
	StaffSlots     []*model.Assignment       // 该人员当日已占用的时段
	History        []VisitRecord             // 患者接诊历史
	CommuteMinutes float64                   // 该人员到时段地点的通勤分钟数，<0 表示未知
}

type baseRule struct {
	name   string
	kind   string
	weight float64
}

func (b *baseRule) Name() string    { return b.name }
func (b *baseRule) Kind() string    { return b.kind }
func (b *baseRule) Weight() float64 { return b.weight }

// =========================================
// RoleMatchRule 角色匹配
// =========================================
type RoleMatchRule struct {
	baseRule
}

func NewRoleMatchRule() *RoleMatchRule {
	return &RoleMatchRule{baseRule{name: "RoleMatch", kind: "hard", weight: 800}}
}

func (r *RoleMatchRule) Evaluate(slot *model.Unit, staff *model.Staff, ctx *PlanContext) (bool, float64, string) {
	if slot.RequiredRole == "" {
		return true, 0, ""
	}
	if !staff.HasRole(slot.RequiredRole) {
		return false, r.weight, "缺少要求角色: " + string(slot.RequiredRole)
	}
	return true, 0, ""
}

// =========================================
// SkillMatchRule 技能匹配
// =========================================
type SkillMatchRule struct {
	baseRule
}

func NewSkillMatchRule() *SkillMatchRule {
	return &SkillMatchRule{baseRule{name: "SkillMatch", kind: "hard", weight: 600}}
}

func (r *SkillMatchRule) Evaluate(slot *model.Unit, staff *model.Staff, ctx *PlanContext) (bool, float64, string) {
	if slot.RequiredSkill == "" {
		return true, 0, ""
	}
	if !staff.HasSkill(slot.RequiredSkill) {
		return false, r.weight, "缺少必需技能: " + slot.RequiredSkill
	}
	return true, 0, ""
}

// =========================================
// AvailabilityRule 可用时间
// =========================================
type AvailabilityRule struct {
	baseRule
}

func NewAvailabilityRule() *AvailabilityRule {
	return &AvailabilityRule{baseRule{name: "Availability", kind: "hard", weight: 700}}
}

func (r *AvailabilityRule) Evaluate(slot *model.Unit, staff *model.Staff, ctx *PlanContext) (bool, float64, string) {
	if !staff.IsAvailable(slot.Window) {
		return false, r.weight, "不在可用时间内"
	}
	return true, 0, ""
}

// =========================================
// SlotConflictRule 时段冲突与间隔缓冲
// =========================================
type SlotConflictRule struct {
	baseRule
	MinBuffer time.Duration // 相邻时段之间的最小间隔
}

func NewSlotConflictRule(minBuffer time.Duration) *SlotConflictRule {
	return &SlotConflictRule{
		baseRule:  baseRule{name: "SlotConflict", kind: "hard", weight: 500},
		MinBuffer: minBuffer,
	}
}

func (r *SlotConflictRule) Evaluate(slot *model.Unit, staff *model.Staff, ctx *PlanContext) (bool, float64, string) {
	for _, a := range ctx.StaffSlots {
		other, ok := ctx.Units[a.UnitID]
		if !ok {
			continue
		}
		if slot.Window.Overlaps(other.Window) {
			return false, r.weight, "与已占用时段冲突"
		}

		var gap time.Duration
		if slot.Window.Start.After(other.Window.End) {
			gap = slot.Window.Start.Sub(other.Window.End)
		} else if other.Window.Start.After(slot.Window.End) {
			gap = other.Window.Start.Sub(slot.Window.End)
		}
		if gap > 0 && gap < r.MinBuffer {
			return false, r.weight * 0.5, "与相邻时段间隔不足"
		}
	}
	return true, 0, ""
}

// =========================================
// MaxSlotsPerDayRule 每日最大接诊时段数
// =========================================
type MaxSlotsPerDayRule struct {
	baseRule
	MaxSlots int
}

func NewMaxSlotsPerDayRule(maxSlots int) *MaxSlotsPerDayRule {
	return &MaxSlotsPerDayRule{
		baseRule: baseRule{name: "MaxSlotsPerDay", kind: "hard", weight: 300},
		MaxSlots: maxSlots,
	}
}

func (r *MaxSlotsPerDayRule) Evaluate(slot *model.Unit, staff *model.Staff, ctx *PlanContext) (bool, float64, string) {
	current := len(ctx.StaffSlots)
	if current >= r.MaxSlots {
		return false, r.weight, "当日接诊时段已满"
	}
	// 时段越多惩罚越高
	return true, float64(current) / float64(r.MaxSlots) * 5, ""
}

// =========================================
// CommuteBurdenRule 通勤负担
// =========================================
type CommuteBurdenRule struct {
	baseRule
	MaxMinutes float64
}

func NewCommuteBurdenRule(maxMinutes float64) *CommuteBurdenRule {
	return &CommuteBurdenRule{
		baseRule:   baseRule{name: "CommuteBurden", kind: "hard", weight: 400},
		MaxMinutes: maxMinutes,
	}
}

func (r *CommuteBurdenRule) Evaluate(slot *model.Unit, staff *model.Staff, ctx *PlanContext) (bool, float64, string) {
	if ctx.CommuteMinutes < 0 || r.MaxMinutes <= 0 {
		// 无通勤信息，跳过检查
		return true, 0, ""
	}
	if ctx.CommuteMinutes > r.MaxMinutes {
		return false, r.weight, "通勤时间超出上限"
	}
	// 距离越远惩罚越高
	return true, ctx.CommuteMinutes / r.MaxMinutes * 10, ""
}

// =========================================
// ContinuityRule 患者连续性偏好
// =========================================
type ContinuityRule struct {
	baseRule
}

func NewContinuityRule() *ContinuityRule {
	return &ContinuityRule{baseRule{name: "Continuity", kind: "soft", weight: 40}}
}

func (r *ContinuityRule) Evaluate(slot *model.Unit, staff *model.Staff, ctx *PlanContext) (bool, float64, string) {
	if slot.PatientID == nil || len(ctx.History) == 0 {
		return true, 0, ""
	}

	for _, h := range ctx.History {
		if h.PatientID != *slot.PatientID || h.StaffID != staff.ID {
			continue
		}

		bonus := 0.0
		if h.VisitCount > 5 {
			bonus -= 15
		} else if h.VisitCount > 2 {
			bonus -= 8
		}
		if h.AvgRating >= 4.5 {
			bonus -= 10
		} else if h.AvgRating >= 4.0 {
			bonus -= 5
		}
		if h.IsPrimary {
			bonus -= 20
		}
		return true, bonus, ""
	}

	// 该患者有接诊历史但不含此人员，轻微惩罚
	return true, 5, ""
}

// =========================================
// PreferenceRankRule 希望顺位
// =========================================
type PreferenceRankRule struct {
	baseRule
}

func NewPreferenceRankRule() *PreferenceRankRule {
	return &PreferenceRankRule{baseRule{name: "PreferenceRank", kind: "soft", weight: 30}}
}

func (r *PreferenceRankRule) Evaluate(slot *model.Unit, staff *model.Staff, ctx *PlanContext) (bool, float64, string) {
	if len(staff.PreferenceRanks) == 0 {
		return true, 0, ""
	}
	rank, ok := staff.PreferenceRanks[slot.ID]
	if !ok {
		// 未申报的时段，轻微惩罚
		return true, 10, ""
	}
	// 顺位越靠前奖励越高
	return true, float64(rank-1) * 3, ""
}

// DefaultRules 返回默认指派规则集合
func DefaultRules(maxCommuteMinutes float64) []Rule {
	return []Rule{
		NewRoleMatchRule(),
		NewSkillMatchRule(),
		NewAvailabilityRule(),
		NewSlotConflictRule(30 * time.Minute),
		NewMaxSlotsPerDayRule(8),
		NewCommuteBurdenRule(maxCommuteMinutes),
		NewContinuityRule(),
		NewPreferenceRankRule(),
	}
}
