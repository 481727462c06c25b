package ga

import (
	"math/rand"
	"testing"

	"github.com/yipai/yipai/pkg/model"
	"github.com/yipai/yipai/pkg/optimizer/constraint"
	"github.com/yipai/yipai/pkg/optimizer/constraint/builtin"
)

func TestEvaluator_ParallelismDoesNotAffectResults(t *testing.T) {
	staff := []*model.Staff{
		newStaff("甲", model.RoleNurse),
		newStaff("乙", model.RoleNurse),
		newStaff("丙", model.RoleNurse),
	}
	units := []*model.Unit{
		newUnit(t, "早班", "2025-04-01 08:00", "2025-04-01 16:00", model.RoleNurse, 2),
		newUnit(t, "晚班", "2025-04-01 12:00", "2025-04-01 20:00", model.RoleNurse, 2),
	}
	codec := NewCodec(staff, units, nil)
	base := constraint.NewContext(staff[0].DepartmentID, staff, units)
	manager := builtin.NewDefaultManager()

	popSerial := NewPopulation(codec, 40, rand.New(rand.NewSource(13)))
	popParallel := NewPopulation(codec, 40, rand.New(rand.NewSource(13)))

	newEvaluator(base, manager, codec, 1).evaluateAll(popSerial)
	newEvaluator(base, manager, codec, 8).evaluateAll(popParallel)

	for i := range popSerial {
		if popSerial[i].fitness != popParallel[i].fitness {
			t.Errorf("个体 %d 适应度不一致: 串行 %v, 并行 %v",
				i, popSerial[i].fitness, popParallel[i].fitness)
		}
		if popSerial[i].hardCount != popParallel[i].hardCount {
			t.Errorf("个体 %d 硬违反数不一致: 串行 %d, 并行 %d",
				i, popSerial[i].hardCount, popParallel[i].hardCount)
		}
	}
}

func TestFitnessOf_HardViolationsDominate(t *testing.T) {
	// 任何含硬违反的方案都必须劣于零硬违反方案，无论软惩罚大小
	infeasible := fitnessOf(&constraint.Result{HardCount: 1, SoftPenalty: 0})
	feasibleWorst := fitnessOf(&constraint.Result{HardCount: 0, SoftPenalty: 999999})

	if infeasible >= feasibleWorst {
		t.Errorf("硬违反方案 (%v) 不应优于可行方案 (%v)", infeasible, feasibleWorst)
	}

	// 同为不可行时软惩罚提供梯度
	a := fitnessOf(&constraint.Result{HardCount: 1, SoftPenalty: 10})
	b := fitnessOf(&constraint.Result{HardCount: 1, SoftPenalty: 5})
	if a >= b {
		t.Errorf("相同硬违反数时软惩罚更小者应更优: %v vs %v", a, b)
	}
}

func TestEvaluator_SkipsCachedChromosomes(t *testing.T) {
	staff := []*model.Staff{newStaff("甲", model.RoleNurse)}
	units := []*model.Unit{
		newUnit(t, "早班", "2025-04-01 08:00", "2025-04-01 16:00", model.RoleNurse, 1),
	}
	codec := NewCodec(staff, units, nil)
	base := constraint.NewContext(staff[0].DepartmentID, staff, units)
	ev := newEvaluator(base, builtin.NewDefaultManager(), codec, 1)

	ch := &Chromosome{genes: []int{0}, fitness: -42, evaluated: true}
	ev.evaluateAll(Population{ch})

	// 已评估个体（精英）不重复评估，缓存原样保留
	if ch.fitness != -42 {
		t.Errorf("缓存适应度被覆盖: %v", ch.fitness)
	}
}
