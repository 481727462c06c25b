// Package builtin 提供内置约束实现
package builtin

import (
	"github.com/yipai/yipai/pkg/optimizer/constraint"
)

// BaseConstraint 约束基类
type BaseConstraint struct {
	name     string
	typ      constraint.Type
	category constraint.Category
	weight   float64
	config   map[string]interface{}
}

// NewBaseConstraint 创建基础约束
func NewBaseConstraint(name string, typ constraint.Type, cat constraint.Category, weight float64) *BaseConstraint {
	return &BaseConstraint{
		name:     name,
		typ:      typ,
		category: cat,
		weight:   weight,
		config:   make(map[string]interface{}),
	}
}

// Name 返回约束名称
func (c *BaseConstraint) Name() string { return c.name }

// Type 返回约束类型
func (c *BaseConstraint) Type() constraint.Type { return c.typ }

// Category 返回约束类别
func (c *BaseConstraint) Category() constraint.Category { return c.category }

// Weight 返回约束权重
func (c *BaseConstraint) Weight() float64 { return c.weight }

// SetConfig 设置配置
func (c *BaseConstraint) SetConfig(config map[string]interface{}) {
	c.config = config
}

// GetConfig 获取配置
func (c *BaseConstraint) GetConfig() map[string]interface{} {
	return c.config
}

// GetConfigInt 获取整数配置
func (c *BaseConstraint) GetConfigInt(key string, defaultVal int) int {
	if val, ok := c.config[key]; ok {
		switch v := val.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return defaultVal
}

// GetConfigFloat 获取浮点配置
func (c *BaseConstraint) GetConfigFloat(key string, defaultVal float64) float64 {
	if val, ok := c.config[key]; ok {
		switch v := val.(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case int64:
			return float64(v)
		}
	}
	return defaultVal
}

// GetConfigBool 获取布尔配置
func (c *BaseConstraint) GetConfigBool(key string, defaultVal bool) bool {
	if val, ok := c.config[key]; ok {
		if b, isBool := val.(bool); isBool {
			return b
		}
	}
	return defaultVal
}
