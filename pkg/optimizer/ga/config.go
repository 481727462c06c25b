// Package ga 提供基于遗传算法的排班优化核心
package ga

import (
	"time"

	"github.com/yipai/yipai/pkg/errors"
)

// Config 遗传算法配置
type Config struct {
	PopulationSize      int           `json:"population_size"`      // 种群大小
	GenerationsMax      int           `json:"generations_max"`      // 最大迭代代数
	TimeBudget          time.Duration `json:"time_budget"`          // 最大运行时间，0 表示不限
	CrossoverRate       float64       `json:"crossover_rate"`       // 交叉概率 0-1
	MutationRate        float64       `json:"mutation_rate"`        // 每基因变异概率 0-1
	EliteFraction       float64       `json:"elite_fraction"`       // 精英比例 0-1
	TournamentSize      int           `json:"tournament_size"`      // 锦标赛规模 ≥1
	ConvergenceEpsilon  float64       `json:"convergence_epsilon"`  // 收敛判定的最小改进量
	ConvergencePatience int           `json:"convergence_patience"` // 连续无改进代数阈值
	ParallelWorkers     int           `json:"parallel_workers"`     // 代内评估并行度
	RandomSeed          *int64        `json:"random_seed,omitempty"` // 随机种子，nil 表示按时间取种
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		PopulationSize:      100,
		GenerationsMax:      200,
		CrossoverRate:       0.7,
		MutationRate:        0.2,
		EliteFraction:       0.05,
		TournamentSize:      3,
		ConvergenceEpsilon:  1e-6,
		ConvergencePatience: 30,
		ParallelWorkers:     4,
	}
}

// WithSeed 设置随机种子，返回副本
func (c Config) WithSeed(seed int64) Config {
	c.RandomSeed = &seed
	return c
}

// Validate 检查配置取值范围
func (c *Config) Validate() error {
	ve := &errors.ValidationErrors{}

	if c.PopulationSize < 2 {
		ve.Add("population_size", "种群大小必须至少为 2")
	}
	if c.GenerationsMax < 1 {
		ve.Add("generations_max", "最大代数必须至少为 1")
	}
	if c.CrossoverRate < 0 || c.CrossoverRate > 1 {
		ve.Add("crossover_rate", "交叉概率必须在 0-1 之间")
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		ve.Add("mutation_rate", "变异概率必须在 0-1 之间")
	}
	if c.EliteFraction < 0 || c.EliteFraction > 1 {
		ve.Add("elite_fraction", "精英比例必须在 0-1 之间")
	}
	if c.TournamentSize < 1 {
		ve.Add("tournament_size", "锦标赛规模必须至少为 1")
	}
	if c.ConvergencePatience < 1 {
		ve.Add("convergence_patience", "收敛耐心值必须至少为 1")
	}

	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}

// eliteCount 计算精英个体数量
func (c *Config) eliteCount() int {
	n := int(float64(c.PopulationSize) * c.EliteFraction)
	if n < 1 && c.EliteFraction > 0 {
		n = 1
	}
	if n > c.PopulationSize {
		n = c.PopulationSize
	}
	return n
}

// workers 返回有效并行度
func (c *Config) workers() int {
	if c.ParallelWorkers < 1 {
		return 1
	}
	return c.ParallelWorkers
}
