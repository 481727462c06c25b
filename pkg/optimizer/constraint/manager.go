// Package constraint 定义约束接口和管理器
package constraint

import (
	"sort"
	"sync"
)

// Manager 约束管理器
// 注册阶段有锁保护；Evaluate 只读约束列表，可被多个 goroutine 并发调用
type Manager struct {
	constraints []Constraint
	mu          sync.RWMutex
}

// NewManager 创建约束管理器
func NewManager() *Manager {
	return &Manager{
		constraints: make([]Constraint, 0),
	}
}

// Register 注册约束
// 同类型约束只保留最后一次注册的实例
func (m *Manager) Register(c Constraint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.constraints {
		if existing.Type() == c.Type() {
			m.constraints[i] = c
			return
		}
	}

	m.constraints = append(m.constraints, c)

	// 硬约束在前，权重高的在前，保证违反列表的输出顺序稳定
	sort.SliceStable(m.constraints, func(i, j int) bool {
		ci, cj := m.constraints[i], m.constraints[j]
		if ci.Category() != cj.Category() {
			return ci.Category() == CategoryHard
		}
		return ci.Weight() > cj.Weight()
	})
}

// Unregister 注销约束
func (m *Manager) Unregister(t Type) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, c := range m.constraints {
		if c.Type() == t {
			m.constraints = append(m.constraints[:i], m.constraints[i+1:]...)
			return
		}
	}
}

// GetConstraint 获取约束
func (m *Manager) GetConstraint(t Type) Constraint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.constraints {
		if c.Type() == t {
			return c
		}
	}
	return nil
}

// GetAll 获取所有约束
func (m *Manager) GetAll() []Constraint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Constraint, len(m.constraints))
	copy(result, m.constraints)
	return result
}

// GetByCategory 按类别获取约束
func (m *Manager) GetByCategory(cat Category) []Constraint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Constraint
	for _, c := range m.constraints {
		if c.Category() == cat {
			result = append(result, c)
		}
	}
	return result
}

// Evaluate 评估方案上的所有约束
func (m *Manager) Evaluate(ctx *Context) *Result {
	m.mu.RLock()
	constraints := make([]Constraint, len(m.constraints))
	copy(constraints, m.constraints)
	m.mu.RUnlock()

	result := &Result{
		IsValid:        true,
		HardViolations: make([]ViolationDetail, 0),
		SoftViolations: make([]ViolationDetail, 0),
	}

	for _, c := range constraints {
		valid, penalty, details := c.Evaluate(ctx)

		if c.Category() == CategoryHard {
			if !valid {
				result.IsValid = false
				result.HardViolations = append(result.HardViolations, details...)
				result.HardCount += len(details)
			}
			continue
		}

		if penalty > 0 {
			result.SoftPenalty += c.Weight() * penalty
			result.SoftViolations = append(result.SoftViolations, details...)
		}
	}

	return result
}
