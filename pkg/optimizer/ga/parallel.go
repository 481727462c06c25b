// Package ga 提供基于遗传算法的排班优化核心
package ga

import (
	"sync"

	"github.com/yipai/yipai/pkg/optimizer/constraint"
)

// 任一硬约束违反都应压倒全部软约束收益
const hardViolationPenalty = 1e6

// fitnessOf 由约束评估结果计算适应度（越大越好）
// 存在硬违反时按违反数施加大额惩罚并保留软惩罚梯度，
// 可行方案的适应度为 0 减去加权软惩罚
func fitnessOf(res *constraint.Result) float64 {
	if res.HardCount > 0 {
		return -hardViolationPenalty*float64(res.HardCount) - res.SoftPenalty
	}
	return -res.SoftPenalty
}

// evaluator 代内并行评估器
// 约束评估是 (方案, 请求) 的纯函数，各染色体的评估互不共享可变状态，
// 因此同一代内可以安全并行，并行度不影响评估结果
type evaluator struct {
	base    *constraint.Context
	manager *constraint.Manager
	codec   *Codec
	workers int
}

func newEvaluator(base *constraint.Context, manager *constraint.Manager, codec *Codec, workers int) *evaluator {
	if workers < 1 {
		workers = 1
	}
	return &evaluator{
		base:    base,
		manager: manager,
		codec:   codec,
		workers: workers,
	}
}

// evaluateOne 评估单个染色体并缓存结果
func (e *evaluator) evaluateOne(ch *Chromosome) {
	plan := e.codec.Decode(ch.genes)
	res := e.manager.Evaluate(e.base.ForPlan(plan))

	ch.result = res
	ch.hardCount = res.HardCount
	ch.fitness = fitnessOf(res)
	ch.evaluated = true
}

// evaluateAll 并行评估一代种群中所有未评估的染色体
// 每个工作协程只写入属于自己的染色体，无需额外同步
func (e *evaluator) evaluateAll(pop Population) {
	pending := make([]*Chromosome, 0, len(pop))
	for _, ch := range pop {
		if !ch.evaluated {
			pending = append(pending, ch)
		}
	}
	if len(pending) == 0 {
		return
	}

	if e.workers == 1 || len(pending) == 1 {
		for _, ch := range pending {
			e.evaluateOne(ch)
		}
		return
	}

	jobs := make(chan *Chromosome, len(pending))

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// 取消信号只在代边界处理：本代染色体全部评估完，
			// 保证控制器收尾时不存在半成品数据
			for ch := range jobs {
				e.evaluateOne(ch)
			}
		}()
	}

	for _, ch := range pending {
		jobs <- ch
	}
	close(jobs)
	wg.Wait()
}
