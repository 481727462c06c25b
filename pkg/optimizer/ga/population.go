// Package ga 提供基于遗传算法的排班优化核心
package ga

import (
	"math/rand"

	"github.com/yipai/yipai/pkg/optimizer/constraint"
)

// Chromosome 染色体：一个候选方案的基因序列及其评估缓存
type Chromosome struct {
	genes     []int
	fitness   float64
	hardCount int
	evaluated bool
	result    *constraint.Result
}

// Genes 返回基因序列（只读视图，调用方不得修改）
func (ch *Chromosome) Genes() []int {
	return ch.genes
}

// Fitness 返回适应度，未评估时无意义
func (ch *Chromosome) Fitness() float64 {
	return ch.fitness
}

// HardCount 返回硬约束违反数
func (ch *Chromosome) HardCount() int {
	return ch.hardCount
}

// Clone 深拷贝染色体
// 精英保留和最优个体跟踪必须使用深拷贝，防止后续繁殖修改共享基因
func (ch *Chromosome) Clone() *Chromosome {
	genes := make([]int, len(ch.genes))
	copy(genes, ch.genes)
	return &Chromosome{
		genes:     genes,
		fitness:   ch.fitness,
		hardCount: ch.hardCount,
		evaluated: ch.evaluated,
		result:    ch.result,
	}
}

// Population 一代种群
type Population []*Chromosome

// NewPopulation 约束随机初始化种群
// 每个席位在可行候选人中均匀抽取；没有候选人时留空
// 相同的 (编解码器, 大小, 随机源状态) 产生逐位相同的初始种群
func NewPopulation(codec *Codec, size int, rng *rand.Rand) Population {
	pop := make(Population, size)
	for i := 0; i < size; i++ {
		genes := make([]int, codec.Length())
		for g := 0; g < codec.Length(); g++ {
			candidates := codec.Candidates(g)
			if len(candidates) == 0 {
				genes[g] = Unassigned
				continue
			}
			genes[g] = candidates[rng.Intn(len(candidates))]
		}
		pop[i] = &Chromosome{genes: genes}
	}
	return pop
}

// best 返回种群中按精英序最优的个体下标
// 精英序：适应度高者优先，随后硬违反少者优先，最后按插入顺序
func (p Population) best() int {
	bestIdx := 0
	for i := 1; i < len(p); i++ {
		if betterThan(p[i], p[bestIdx]) {
			bestIdx = i
		}
	}
	return bestIdx
}

// betterThan 判断 a 是否严格优于 b（精英序）
func betterThan(a, b *Chromosome) bool {
	if a.fitness != b.fitness {
		return a.fitness > b.fitness
	}
	return a.hardCount < b.hardCount
}

// eliteOrder 返回按精英序排列的下标序列
// 排序稳定：同分个体保持插入顺序，满足确定性要求
func (p Population) eliteOrder() []int {
	order := make([]int, len(p))
	for i := range order {
		order[i] = i
	}
	// 插入排序保证稳定且无隐藏随机性
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && betterThan(p[order[j]], p[order[j-1]]); j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	return order
}
