// Package department 提供科室作用域管理
// 优化、查询和持久化都以科室为边界，不同科室的数据互不可见
package department

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDepartmentNotFound = errors.New("科室不存在")
	ErrInvalidDepartment  = errors.New("无效的科室")
	ErrDepartmentDisabled = errors.New("科室已停用")
)

// Profile 科室档案
type Profile struct {
	ID        uuid.UUID  `json:"id"`
	Code      string     `json:"code"`   // 科室编码
	Name      string     `json:"name"`   // 科室名称
	Status    string     `json:"status"` // active/suspended
	Settings  Settings   `json:"settings"`
	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// Settings 科室配置
type Settings struct {
	MaxStaff         int      `json:"max_staff"`          // 最大人员数
	MaxUnitsPerRun   int      `json:"max_units_per_run"`  // 单次优化最大单元数
	AllowedUnitKinds []string `json:"allowed_unit_kinds"` // 允许的单元类型
	Features         []string `json:"features"`           // 启用的功能
	APIRateLimit     int      `json:"api_rate_limit"`     // API速率限制
}

// IsActive 检查科室是否在编
func (p *Profile) IsActive() bool {
	if p.Status != "active" {
		return false
	}
	if p.ClosedAt != nil && p.ClosedAt.Before(time.Now()) {
		return false
	}
	return true
}

// HasFeature 检查科室是否启用某功能
func (p *Profile) HasFeature(feature string) bool {
	for _, f := range p.Settings.Features {
		if f == feature || f == "*" {
			return true
		}
	}
	return false
}

// AllowsUnitKind 检查科室是否允许某单元类型
func (p *Profile) AllowsUnitKind(kind string) bool {
	for _, k := range p.Settings.AllowedUnitKinds {
		if k == kind || k == "*" {
			return true
		}
	}
	return false
}

// Registry 科室注册表
type Registry struct {
	departments map[string]*Profile // code -> profile
	mu          sync.RWMutex
}

// NewRegistry 创建科室注册表
func NewRegistry() *Registry {
	return &Registry{
		departments: make(map[string]*Profile),
	}
}

// Register 注册科室
func (r *Registry) Register(profile *Profile) error {
	if profile == nil || profile.Code == "" {
		return ErrInvalidDepartment
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.departments[profile.Code] = profile
	return nil
}

// Get 获取科室
func (r *Registry) Get(code string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, exists := r.departments[code]
	if !exists {
		return nil, ErrDepartmentNotFound
	}

	if !profile.IsActive() {
		return nil, ErrDepartmentDisabled
	}

	return profile, nil
}

// GetByID 通过ID获取科室
func (r *Registry) GetByID(id uuid.UUID) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, profile := range r.departments {
		if profile.ID == id {
			if !profile.IsActive() {
				return nil, ErrDepartmentDisabled
			}
			return profile, nil
		}
	}

	return nil, ErrDepartmentNotFound
}

// List 列出所有科室
func (r *Registry) List() []*Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Profile, 0, len(r.departments))
	for _, p := range r.departments {
		result = append(result, p)
	}
	return result
}

// Remove 移除科室
func (r *Registry) Remove(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.departments, code)
}

// 科室上下文键
type departmentContextKey struct{}

// WithDepartment 将科室添加到上下文
func WithDepartment(ctx context.Context, profile *Profile) context.Context {
	return context.WithValue(ctx, departmentContextKey{}, profile)
}

// FromContext 从上下文获取科室
func FromContext(ctx context.Context) (*Profile, bool) {
	profile, ok := ctx.Value(departmentContextKey{}).(*Profile)
	return profile, ok
}

// DefaultSettings 默认科室配置
func DefaultSettings() Settings {
	return Settings{
		MaxStaff:         200,
		MaxUnitsPerRun:   500,
		AllowedUnitKinds: []string{"shift", "outpatient_slot"},
		Features:         []string{"optimize", "outpatient", "swap", "stats"},
		APIRateLimit:     100,
	}
}

// CreateDefaultDepartment 创建默认科室（开发测试用）
func CreateDefaultDepartment() *Profile {
	return &Profile{
		ID:        uuid.New(),
		Code:      "default",
		Name:      "默认科室",
		Status:    "active",
		Settings:  DefaultSettings(),
		CreatedAt: time.Now(),
	}
}
