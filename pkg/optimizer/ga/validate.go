// Package ga 提供基于遗传算法的排班优化核心
package ga

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/yipai/yipai/pkg/errors"
)

// validateRequest 在创建种群之前验证请求
// 验证失败的请求永远不会进入 Running 状态，错误直接返回给调用方且不重试
func validateRequest(req *Request) error {
	ve := &errors.ValidationErrors{}

	if len(req.Staff) == 0 {
		ve.Add("staff", "人员列表为空")
	}
	if len(req.Units) == 0 {
		ve.Add("units", "单元列表为空")
	}
	if req.Constraints == nil {
		ve.Add("constraints", "缺少约束集合")
	}

	// 标识符不得重复
	staffIDs := make(map[uuid.UUID]bool, len(req.Staff))
	for _, s := range req.Staff {
		if staffIDs[s.ID] {
			ve.Add("staff", fmt.Sprintf("人员标识符重复: %s", s.ID))
		}
		staffIDs[s.ID] = true
	}
	unitIDs := make(map[uuid.UUID]bool, len(req.Units))
	for _, u := range req.Units {
		if unitIDs[u.ID] {
			ve.Add("units", fmt.Sprintf("单元标识符重复: %s", u.ID))
		}
		unitIDs[u.ID] = true
	}

	for _, u := range req.Units {
		// 需求人数不得为负
		if u.Headcount < 0 {
			ve.Add("units", fmt.Sprintf("单元 %s 的需求人数为负数: %d", u.Name, u.Headcount))
		}

		// 角色要求必须存在至少一名具备该角色的人员
		// 可用性冲突不在此检查：那是可行性问题而不是请求畸形
		if u.RequiredRole == "" {
			continue
		}
		matched := false
		for _, s := range req.Staff {
			if s.HasRole(u.RequiredRole) {
				matched = true
				break
			}
		}
		if !matched {
			ve.Add("units", fmt.Sprintf("单元 %s 要求角色 %s，但没有任何人员具备该角色", u.Name, u.RequiredRole))
		}
	}

	// 既定分配必须指向请求内的单元席位和人员
	for _, a := range req.FixedAssignments {
		if !unitIDs[a.UnitID] {
			ve.Add("fixed_assignments", fmt.Sprintf("既定分配指向未知单元: %s", a.UnitID))
			continue
		}
		for _, u := range req.Units {
			if u.ID == a.UnitID && (a.Seat < 0 || a.Seat >= u.Headcount) {
				ve.Add("fixed_assignments", fmt.Sprintf("既定分配的席位越界: 单元 %s 席位 %d", u.Name, a.Seat))
			}
		}
		if a.StaffID != nil && !staffIDs[*a.StaffID] {
			ve.Add("fixed_assignments", fmt.Sprintf("既定分配指向未知人员: %s", a.StaffID))
		}
	}

	if err := req.Config.Validate(); err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			for field, msg := range appErr.Fields {
				ve.Add("config."+field, fmt.Sprintf("%v", msg))
			}
		} else {
			ve.Add("config", err.Error())
		}
	}

	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}
