// Package ga 提供基于遗传算法的排班优化核心
package ga

import (
	"math/rand"
)

// tournamentSelect 锦标赛选择
// 从种群中无放回地均匀抽取 k 个个体，返回其中最优者的下标
// 平手时先比硬违反数，再按插入顺序取先者，保证无隐藏随机性
func tournamentSelect(pop Population, k int, rng *rand.Rand) int {
	if k > len(pop) {
		k = len(pop)
	}

	perm := rng.Perm(len(pop))[:k]

	winner := perm[0]
	for _, idx := range perm[1:] {
		if betterThan(pop[idx], pop[winner]) {
			winner = idx
			continue
		}
		// 完全同分时按插入顺序决胜
		if !betterThan(pop[winner], pop[idx]) && idx < winner {
			winner = idx
		}
	}
	return winner
}

// uniformCrossover 均匀交叉
// 以 rate 的概率执行交叉；执行时每个基因位置等概率取自父本 A 或 B，
// 与位置无关，保持固定的"位置 → 席位"映射
func uniformCrossover(a, b *Chromosome, rate float64, rng *rand.Rand) (*Chromosome, *Chromosome) {
	childA := &Chromosome{genes: make([]int, len(a.genes))}
	childB := &Chromosome{genes: make([]int, len(b.genes))}
	copy(childA.genes, a.genes)
	copy(childB.genes, b.genes)

	if rng.Float64() >= rate {
		return childA, childB
	}

	for i := range childA.genes {
		if rng.Intn(2) == 1 {
			childA.genes[i], childB.genes[i] = childB.genes[i], childA.genes[i]
		}
	}
	return childA, childB
}

// mutate 变异
// 每个基因以 rate 的概率被替换为另一个可行候选人（或留空），
// 在该席位的可行候选集内均匀抽取，且不会抽回当前取值
func mutate(ch *Chromosome, codec *Codec, rate float64, rng *rand.Rand) {
	for g := range ch.genes {
		if rng.Float64() >= rate {
			continue
		}

		candidates := codec.Candidates(g)

		// 备选集 = 可行候选人 ∪ {未分配} \ {当前取值}
		options := make([]int, 0, len(candidates)+1)
		for _, idx := range candidates {
			if idx != ch.genes[g] {
				options = append(options, idx)
			}
		}
		if ch.genes[g] != Unassigned {
			options = append(options, Unassigned)
		}

		if len(options) == 0 {
			continue
		}
		ch.genes[g] = options[rng.Intn(len(options))]
		ch.evaluated = false
	}
}
