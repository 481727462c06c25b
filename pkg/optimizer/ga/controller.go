// Package ga 提供基于遗传算法的排班优化核心
package ga

import (
	"context"
	"math/rand"
	"time"

	"github.com/yipai/yipai/pkg/logger"
	"github.com/yipai/yipai/pkg/model"
	"github.com/yipai/yipai/pkg/optimizer/constraint"
)

// State 控制器状态
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateTerminal State = "terminal"
)

// 进度日志间隔（代）
const progressLogInterval = 10

// Controller 进化控制器
// 每个实例只服务一次优化：最优个体等可变状态由实例自持，
// 并发的独立优化互不干扰
type Controller struct {
	req       *Request
	cfg       Config
	codec     *Codec
	rng       *rand.Rand
	evaluator *evaluator
	log       *logger.OptimizerLogger

	state State
	best  *Chromosome // 跨代增量跟踪的历史最优，始终为深拷贝

	// OnGeneration 进度回调，每代结束时以 (代数, 历史最优适应度) 调用
	// 为 nil 时不回调；回调在控制器自身的 goroutine 中执行
	OnGeneration func(generation int, bestFitness float64)
}

// NewController 创建进化控制器
// 请求在此验证；验证失败返回 ValidationError，控制器保持 Idle
func NewController(req *Request) (*Controller, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var seed int64
	if req.Config.RandomSeed != nil {
		seed = *req.Config.RandomSeed
	} else {
		seed = time.Now().UnixNano()
	}

	codec := NewCodec(req.Staff, req.Units, req.FixedAssignments)
	base := constraint.NewContext(req.DepartmentID, req.Staff, req.Units)

	return &Controller{
		req:       req,
		cfg:       req.Config,
		codec:     codec,
		rng:       rand.New(rand.NewSource(seed)),
		evaluator: newEvaluator(base, req.Constraints, codec, req.Config.workers()),
		log:       logger.NewOptimizerLogger(),
		state:     StateIdle,
	}, nil
}

// State 返回当前状态
func (c *Controller) State() State {
	return c.state
}

// Codec 返回请求的编解码器
func (c *Controller) Codec() *Codec {
	return c.codec
}

// Run 执行优化直到收敛、预算耗尽或被取消
// 取消信号只在代边界检查；无论以何种方式终止，
// 都返回基于历史最优个体的完整结果，绝不返回半成品方案
func (c *Controller) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	c.state = StateRunning
	c.log.StartRun(c.req.ID.String(), len(c.req.Staff), len(c.req.Units), c.cfg.PopulationSize)

	pop := NewPopulation(c.codec, c.cfg.PopulationSize, c.rng)
	c.evaluator.evaluateAll(pop)
	c.best = pop[pop.best()].Clone()

	stopReason := StatusBudgetExhausted
	noImprovement := 0
	completed := 0

	for gen := 1; gen <= c.cfg.GenerationsMax; gen++ {
		// 取消与时间预算都只在代边界检查
		if ctx.Err() != nil {
			break
		}
		if c.cfg.TimeBudget > 0 && time.Since(start) > c.cfg.TimeBudget {
			break
		}

		pop = c.nextGeneration(pop)
		c.evaluator.evaluateAll(pop)
		completed = gen

		// 增量更新历史最优；精英保留保证该值单调不降
		genBest := pop[pop.best()]
		if genBest.fitness > c.best.fitness+c.cfg.ConvergenceEpsilon {
			c.best = genBest.Clone()
			noImprovement = 0
		} else {
			if betterThan(genBest, c.best) {
				c.best = genBest.Clone()
			}
			noImprovement++
		}

		if gen%progressLogInterval == 0 {
			c.log.GenerationProgress(c.req.ID.String(), gen, c.best.fitness)
		}
		if c.OnGeneration != nil {
			c.OnGeneration(gen, c.best.fitness)
		}

		if noImprovement >= c.cfg.ConvergencePatience {
			stopReason = StatusConverged
			break
		}
	}

	c.state = StateTerminal
	result := c.buildResult(stopReason, completed, time.Since(start))
	c.log.RunComplete(c.req.ID.String(), string(result.Status), result.Generations, result.Duration, result.Fitness)
	return result, nil
}

// nextGeneration 由当前代构造下一代
// 前 eliteCount 个精英原样深拷贝，其余席位由选择+交叉+变异填满
// 下一代是全新分配的缓冲区，绝不原地修改正在被评估的当前代
func (c *Controller) nextGeneration(pop Population) Population {
	next := make(Population, 0, len(pop))

	order := pop.eliteOrder()
	for i := 0; i < c.cfg.eliteCount(); i++ {
		elite := pop[order[i]].Clone()
		next = append(next, elite)
	}

	for len(next) < len(pop) {
		parentA := pop[tournamentSelect(pop, c.cfg.TournamentSize, c.rng)]
		parentB := pop[tournamentSelect(pop, c.cfg.TournamentSize, c.rng)]

		childA, childB := uniformCrossover(parentA, parentB, c.cfg.CrossoverRate, c.rng)
		mutate(childA, c.codec, c.cfg.MutationRate, c.rng)
		mutate(childB, c.codec, c.cfg.MutationRate, c.rng)

		next = append(next, childA)
		if len(next) < len(pop) {
			next = append(next, childB)
		}
	}

	return next
}

// buildResult 把历史最优染色体转换为最终结果
func (c *Controller) buildResult(stopReason Status, generations int, duration time.Duration) *Result {
	plan := c.codec.Decode(c.best.genes)

	// 回填希望顺位与希望外标记
	staffByID := make(map[string]*model.Staff, len(c.req.Staff))
	for _, s := range c.req.Staff {
		staffByID[s.ID.String()] = s
	}
	for _, a := range plan {
		if a.StaffID == nil {
			continue
		}
		s := staffByID[a.StaffID.String()]
		if s == nil || len(s.PreferenceRanks) == 0 {
			continue
		}
		a.HopeRank = s.PreferenceRank(a.UnitID)
		a.Mismatch = a.HopeRank == 0
	}

	res := c.best.result
	status := stopReason
	if res.HardCount > 0 {
		// 不可行不是错误：照常返回尽力而为的方案和违反清单
		status = StatusInfeasible
		for _, v := range res.HardViolations {
			c.log.HardViolation(string(v.ConstraintType), v.Message)
		}
	}

	return &Result{
		RequestID:        c.req.ID,
		Assignments:      plan,
		Fitness:          c.best.fitness,
		Feasible:         res.HardCount == 0,
		Status:           status,
		StopReason:       stopReason,
		Violations:       res.HardViolations,
		ConstraintResult: res,
		Generations:      generations,
		Duration:         duration,
	}
}
