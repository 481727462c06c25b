// Package constraints 约束目录
// 为前端/调用方提供内置约束的元信息：名称、类型、可调参数与适用单元类型。
// 实际的约束实现见 pkg/optimizer/constraint/builtin。
package constraints

// ConstraintParam 约束参数定义
type ConstraintParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // int, float, string, bool
	Description string `json:"description"`
	Default     string `json:"default,omitempty"`
	Min         string `json:"min,omitempty"`
	Max         string `json:"max,omitempty"`
}

// ConstraintDefinition 约束定义
type ConstraintDefinition struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Type        string            `json:"type"`     // hard 硬约束, soft 软约束
	Category    string            `json:"category"` // 分类
	Description string            `json:"description"`
	UnitKinds   []string          `json:"unit_kinds"` // 适用单元类型
	Params      []ConstraintParam `json:"params"`
}

// LibraryResponse 约束库响应
type LibraryResponse struct {
	Library []ConstraintDefinition `json:"library"`
}

// GetLibrary 获取完整的约束库
func GetLibrary() []ConstraintDefinition {
	return []ConstraintDefinition{
		// =====================================================
		// 硬约束：违反任意一条的方案不可行
		// =====================================================
		{
			Name:        "double_booking",
			DisplayName: "重复排班检测",
			Type:        "hard",
			Category:    "时间冲突",
			Description: "同一人员不得被分配到时间窗口重叠的两个单元，防止双重占用。",
			UnitKinds:   []string{"shift", "outpatient_slot"},
			Params:      []ConstraintParam{},
		},
		{
			Name:        "role_match",
			DisplayName: "角色与技能匹配",
			Type:        "hard",
			Category:    "资质要求",
			Description: "分配到席位的人员必须持有该单元要求的角色（医生/护士/技师）和专项技能。",
			UnitKinds:   []string{"shift", "outpatient_slot"},
			Params:      []ConstraintParam{},
		},
		{
			Name:        "availability",
			DisplayName: "可用时间检查",
			Type:        "hard",
			Category:    "时间限制",
			Description: "人员只能被排入其登记的可用时间窗口之内（请假、进修等时段自动排除）。",
			UnitKinds:   []string{"shift", "outpatient_slot"},
			Params:      []ConstraintParam{},
		},
		{
			Name:        "unit_capacity",
			DisplayName: "单元容量上限",
			Type:        "hard",
			Category:    "编制保障",
			Description: "单元的实际分配人数不得超过其编制人数。",
			UnitKinds:   []string{"shift", "outpatient_slot"},
			Params:      []ConstraintParam{},
		},
		{
			Name:        "understaffing",
			DisplayName: "单元缺员检测",
			Type:        "hard",
			Category:    "编制保障",
			Description: "单元的每个席位都必须有人值守，空席位按缺员违反上报。",
			UnitKinds:   []string{"shift", "outpatient_slot"},
			Params:      []ConstraintParam{},
		},
		{
			Name:        "max_weekly_hours",
			DisplayName: "最大周工时",
			Type:        "hard",
			Category:    "工时限制",
			Description: "人员在任意自然周内的累计排班时长不得超过其个人上限。",
			UnitKinds:   []string{"shift"},
			Params: []ConstraintParam{
				{Name: "max_hours", Type: "float", Description: "周工时上限(小时)，0表示使用人员档案中的值", Default: "0"},
			},
		},

		// =====================================================
		// 软约束：按权重计入罚分，权重设为0可禁用
		// =====================================================
		{
			Name:        "workload_balance",
			DisplayName: "工作量均衡",
			Type:        "soft",
			Category:    "公平性",
			Description: "按人员排班总时长的标准差计罚，使各人员的工作量分布尽量均匀。",
			UnitKinds:   []string{"shift", "outpatient_slot"},
			Params: []ConstraintParam{
				{Name: "weight", Type: "float", Description: "罚分权重", Default: "1.0", Min: "0", Max: "10"},
			},
		},
		{
			Name:        "preference_rank",
			DisplayName: "希望顺位满足",
			Type:        "soft",
			Category:    "偏好",
			Description: "人员对单元提交希望顺位，顺位越靠后罚分越高；被排到未申报的单元记为错配。",
			UnitKinds:   []string{"shift", "outpatient_slot"},
			Params: []ConstraintParam{
				{Name: "weight", Type: "float", Description: "罚分权重", Default: "2.0", Min: "0", Max: "10"},
			},
		},
		{
			Name:        "shift_fragmentation",
			DisplayName: "班次碎片化",
			Type:        "soft",
			Category:    "效率优化",
			Description: "同一人员在同一天内的间断班段越多罚分越高，倾向于连续排班。",
			UnitKinds:   []string{"shift"},
			Params: []ConstraintParam{
				{Name: "weight", Type: "float", Description: "罚分权重", Default: "0.5", Min: "0", Max: "10"},
			},
		},
		{
			Name:        "commute_burden",
			DisplayName: "通勤负担",
			Type:        "soft",
			Category:    "效率优化",
			Description: "按人员到单元所在地点的通勤分钟数计罚，优先就近分配。",
			UnitKinds:   []string{"outpatient_slot"},
			Params: []ConstraintParam{
				{Name: "weight", Type: "float", Description: "罚分权重", Default: "0.5", Min: "0", Max: "10"},
				{Name: "max_minutes", Type: "int", Description: "单程通勤上限(分钟)", Default: "120"},
			},
		},
	}
}
