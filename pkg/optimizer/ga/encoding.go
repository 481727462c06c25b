// Package ga 提供基于遗传算法的排班优化核心
package ga

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/yipai/yipai/pkg/errors"
	"github.com/yipai/yipai/pkg/model"
)

// Unassigned 基因取值：席位未分配
const Unassigned = -1

// seatKey 单元席位的唯一标识
type seatKey struct {
	unitID uuid.UUID
	seat   int
}

// seatRef 基因位置对应的单元席位
type seatRef struct {
	unitIdx int
	seat    int
}

// Codec 染色体编解码器
// 在请求生命周期内保持固定的"基因位置 → 单元席位"映射，
// 使交叉和变异作用在语义对齐的位置上
// 既定分配不进入基因序列，解码时原样合并回方案
type Codec struct {
	staff      []*model.Staff
	units      []*model.Unit
	seats      []seatRef
	seatIndex  map[seatKey]int
	staffIndex map[uuid.UUID]int
	fixedSeats map[seatKey]*model.Assignment
	candidates [][]int // 每个基因位置的可行人员下标，顺序稳定
}

// NewCodec 创建编解码器
// 人员与单元切片的顺序决定下标映射，请求期间不得变动
func NewCodec(staff []*model.Staff, units []*model.Unit, fixed []*model.Assignment) *Codec {
	c := &Codec{
		staff:      staff,
		units:      units,
		seatIndex:  make(map[seatKey]int),
		staffIndex: make(map[uuid.UUID]int, len(staff)),
		fixedSeats: make(map[seatKey]*model.Assignment, len(fixed)),
	}

	for i, s := range staff {
		c.staffIndex[s.ID] = i
	}
	for _, a := range fixed {
		c.fixedSeats[seatKey{unitID: a.UnitID, seat: a.Seat}] = a
	}

	for unitIdx, u := range units {
		for seat := 0; seat < u.Headcount; seat++ {
			key := seatKey{unitID: u.ID, seat: seat}
			if _, isFixed := c.fixedSeats[key]; isFixed {
				continue
			}

			c.seatIndex[key] = len(c.seats)
			c.seats = append(c.seats, seatRef{unitIdx: unitIdx, seat: seat})

			// 预计算满足角色/技能/可用性前提的候选人
			var eligible []int
			for staffIdx, s := range staff {
				if u.Eligible(s) {
					eligible = append(eligible, staffIdx)
				}
			}
			c.candidates = append(c.candidates, eligible)
		}
	}

	return c
}

// Length 返回染色体长度（可决策席位数）
func (c *Codec) Length() int {
	return len(c.seats)
}

// Candidates 返回某基因位置的可行人员下标
func (c *Codec) Candidates(gene int) []int {
	return c.candidates[gene]
}

// StaffAt 返回人员下标对应的人员
func (c *Codec) StaffAt(idx int) *model.Staff {
	return c.staff[idx]
}

// UnitFor 返回基因位置对应的单元
func (c *Codec) UnitFor(gene int) *model.Unit {
	return c.units[c.seats[gene].unitIdx]
}

// Decode 把基因序列解码为完整方案
// 输出顺序固定：按单元顺序、席位顺序展开，既定分配在对应位置合并，
// 未分配基因产生 StaffID 为 nil 的显式空席位
func (c *Codec) Decode(genes []int) []*model.Assignment {
	plan := make([]*model.Assignment, 0, len(genes)+len(c.fixedSeats))

	for _, u := range c.units {
		for seat := 0; seat < u.Headcount; seat++ {
			key := seatKey{unitID: u.ID, seat: seat}

			if fixed, ok := c.fixedSeats[key]; ok {
				merged := *fixed
				merged.Fixed = true
				plan = append(plan, &merged)
				continue
			}

			a := &model.Assignment{
				DepartmentID: u.DepartmentID,
				UnitID:       u.ID,
				Seat:         seat,
				PatientID:    u.PatientID,
				Status:       "proposed",
			}
			if gene := genes[c.seatIndex[key]]; gene != Unassigned {
				id := c.staff[gene].ID
				a.StaffID = &id
			}
			plan = append(plan, a)
		}
	}

	return plan
}

// Encode 把方案编码为基因序列
// 方案只能由请求内的单元席位和人员组成；既定席位不占用基因位置
func (c *Codec) Encode(plan []*model.Assignment) ([]int, error) {
	genes := make([]int, len(c.seats))
	for i := range genes {
		genes[i] = Unassigned
	}

	for _, a := range plan {
		key := seatKey{unitID: a.UnitID, seat: a.Seat}

		if _, isFixed := c.fixedSeats[key]; isFixed {
			continue
		}

		geneIdx, ok := c.seatIndex[key]
		if !ok {
			return nil, errors.New(errors.CodeEncodingMismatch,
				fmt.Sprintf("方案包含请求之外的席位: 单元 %s 席位 %d", a.UnitID, a.Seat))
		}

		if a.StaffID == nil {
			continue
		}
		staffIdx, ok := c.staffIndex[*a.StaffID]
		if !ok {
			return nil, errors.New(errors.CodeEncodingMismatch,
				fmt.Sprintf("方案包含请求之外的人员: %s", a.StaffID))
		}
		genes[geneIdx] = staffIdx
	}

	return genes, nil
}
