package service

import (
	"errors"
	"fmt"
)

// 闸门整体状态：任一条件未满足即 blocked，全部满足为 ready
const (
	GateStatusReady   = "ready"
	GateStatusBlocked = "blocked"
)

// ErrGateConditionNotFound 在切换未知条件时返回，绝不静默新建条件
var ErrGateConditionNotFound = errors.New("gate condition not found")

// GateCondition 是出门前需要确认的单个布尔条件
type GateCondition struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Satisfied bool   `json:"satisfied"`
}

// DefaultGateConditions 是规范默认条件集，按固定顺序注入
// 模板服务与按标签过滤的工厂都以它为基准
var DefaultGateConditions = []GateCondition{
	{ID: "keys", Name: "Keys present"},
	{ID: "phone", Name: "Phone packed"},
	{ID: "water", Name: "Water bottle filled"},
	{ID: "meds", Name: "Medication taken"},
	{ID: "pet_fed", Name: "Pet fed"},
	{ID: "bag_packed", Name: "Bag packed"},
	{ID: "eyeglasses", Name: "Eyeglasses on hand"},
}

// ExitGate 以条件 ID 为键维护一组出门条件
// 顺序与插入顺序一致，评估结果的 blockedReasons 依赖该顺序稳定
type ExitGate struct {
	order      []string
	conditions map[string]*GateCondition
}

// GateEvaluation 是一次闸门评估的结果快照
type GateEvaluation struct {
	Status         string          `json:"status"`
	Conditions     []GateCondition `json:"conditions"`
	BlockedReasons []string        `json:"blocked_reasons"`
}

// NewExitGate 从给定条件集构造闸门，重复 ID 只保留首个
func NewExitGate(conditions []GateCondition) *ExitGate {
	gate := &ExitGate{conditions: make(map[string]*GateCondition, len(conditions))}
	for _, cond := range conditions {
		if _, exists := gate.conditions[cond.ID]; exists {
			continue
		}
		copied := cond
		gate.order = append(gate.order, cond.ID)
		gate.conditions[cond.ID] = &copied
	}
	return gate
}

// NewDefaultExitGate 以规范默认条件集构造闸门，初始全部未满足
func NewDefaultExitGate() *ExitGate {
	return NewExitGate(DefaultGateConditions)
}

// GateFromTags 仅保留 ID 命中 tags 的规范条件，名称沿用默认集
// 用于只关心部分条件的单次出行（如去健身房只查水壶）
func GateFromTags(tags []string) *ExitGate {
	wanted := make(map[string]bool, len(tags))
	for _, tag := range tags {
		wanted[tag] = true
	}

	subset := make([]GateCondition, 0, len(tags))
	for _, cond := range DefaultGateConditions {
		if wanted[cond.ID] {
			subset = append(subset, cond)
		}
	}
	return NewExitGate(subset)
}

// Evaluate 汇总当前条件，未满足集合非空即视为 blocked
func (g *ExitGate) Evaluate() GateEvaluation {
	result := GateEvaluation{
		Status:     GateStatusReady,
		Conditions: make([]GateCondition, 0, len(g.order)),
	}

	for _, id := range g.order {
		cond := g.conditions[id]
		result.Conditions = append(result.Conditions, *cond)
		if !cond.Satisfied {
			result.BlockedReasons = append(result.BlockedReasons, cond.Name)
		}
	}

	if len(result.BlockedReasons) > 0 {
		result.Status = GateStatusBlocked
	}
	return result
}

// Toggle 设置指定条件的满足状态，未知 ID 返回错误
func (g *ExitGate) Toggle(conditionID string, satisfied bool) error {
	cond, ok := g.conditions[conditionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrGateConditionNotFound, conditionID)
	}
	cond.Satisfied = satisfied
	return nil
}

// Reset 将所有条件重置为未满足
func (g *ExitGate) Reset() {
	for _, cond := range g.conditions {
		cond.Satisfied = false
	}
}

// SatisfyAll 将所有条件标记为已满足
func (g *ExitGate) SatisfyAll() {
	for _, cond := range g.conditions {
		cond.Satisfied = true
	}
}

// Len 返回条件数量
func (g *ExitGate) Len() int {
	return len(g.order)
}
