package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// 购物优化策略
const (
	StrategyCheapest = "cheapest"
	StrategyFastest  = "fastest"
	StrategyBalanced = "balanced"
)

// 商品优先级
const (
	PriorityEssential = "essential"
	PriorityPreferred = "preferred"
	PriorityOptional  = "optional"
)

// 每家商店的停留时间按策略取固定值
const (
	dwellMinutesCheapest = 20
	dwellMinutesFastest  = 15
)

// ErrUnknownStrategy 在策略不受支持时返回
var ErrUnknownStrategy = errors.New("unknown shopping strategy")

// ShoppingItem 是购物清单中的一项
type ShoppingItem struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Priority string  `json:"priority"`
}

// StoreOption 是优化器眼中的一家候选商店
// Prices 以商品名为键，缺键即视为无货
// OpeningHours 为空表示不限营业时间
type StoreOption struct {
	ID           uint              `json:"id"`
	Name         string            `json:"name"`
	Location     GeoPoint          `json:"location"`
	PriceLevel   string            `json:"price_level"`
	Rating       *float64          `json:"rating,omitempty"`
	OpeningHours map[string]string  `json:"opening_hours,omitempty"`
	Prices       map[string]float64 `json:"prices"`
}

// ShoppingConstraints 约束 balanced 策略的搜索方向与可行域
type ShoppingConstraints struct {
	MaxBudget        float64 `json:"max_budget"`
	MaxTravelMinutes int     `json:"max_travel_minutes"`
	PrioritizePrice  bool    `json:"prioritize_price"`
	PrioritizeTime   bool    `json:"prioritize_time"`
}

// AssignedItem 是分派到某商店的单项商品及其成本
type AssignedItem struct {
	Item      ShoppingItem `json:"item"`
	UnitPrice float64      `json:"unit_price"`
	Cost      float64      `json:"cost"`
}

// StoreRecommendation 是分派到一家商店的购物子清单
type StoreRecommendation struct {
	StoreID               uint           `json:"store_id"`
	StoreName             string         `json:"store_name"`
	Items                 []AssignedItem `json:"items"`
	Subtotal              float64        `json:"subtotal"`
	TravelMinutesFromPrev int            `json:"travel_minutes_from_prev"`
}

// OptimizedShoppingList 是一次优化请求的完整结果，纯计算不落库
type OptimizedShoppingList struct {
	Strategy        string                `json:"strategy"`
	Items           []ShoppingItem        `json:"items"`
	Recommendations []StoreRecommendation `json:"recommendations"`
	Unfulfilled     []ShoppingItem        `json:"unfulfilled,omitempty"`
	TotalCost       float64               `json:"total_cost"`
	TotalMinutes    int                   `json:"total_minutes"`
	Warnings        []string              `json:"warnings,omitempty"`
}

// ShoppingOptimizer 在候选商店间分派购物清单
// 无内部状态，可安全并发调用
type ShoppingOptimizer struct {
	travel TravelLookup
	method string
}

// NewShoppingOptimizer 构造优化器，商店间路程按 method 估算
func NewShoppingOptimizer(travel TravelLookup, method string) *ShoppingOptimizer {
	if strings.TrimSpace(method) == "" {
		method = TravelDrive
	}
	return &ShoppingOptimizer{travel: travel, method: method}
}

// Optimize 按策略生成商店分派方案。
// when 非零时会先剔除当时歇业的商店。
// 三种策略均保证：商品不重复分派、绝不分派给无货商店。
func (o *ShoppingOptimizer) Optimize(items []ShoppingItem, stores []StoreOption, strategy string, constraints ShoppingConstraints, home GeoPoint, when time.Time) (*OptimizedShoppingList, error) {
	strategy = strings.TrimSpace(strings.ToLower(strategy))

	open := stores
	if !when.IsZero() {
		open = make([]StoreOption, 0, len(stores))
		for _, store := range stores {
			if storeOpenAt(store, when) {
				open = append(open, store)
			}
		}
	}

	switch strategy {
	case StrategyCheapest:
		return o.cheapest(items, open, home), nil
	case StrategyFastest:
		return o.fastest(items, open, home), nil
	case StrategyBalanced:
		return o.balanced(items, open, constraints, home), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, strategy)
	}
}

// cheapest 为每件商品选择单价最低的有货商店，并列时取商店 ID 较小者
func (o *ShoppingOptimizer) cheapest(items []ShoppingItem, stores []StoreOption, home GeoPoint) *OptimizedShoppingList {
	result := &OptimizedShoppingList{Strategy: StrategyCheapest, Items: items}

	byID := make(map[uint]StoreOption, len(stores))
	for _, store := range stores {
		byID[store.ID] = store
	}

	assignments := make(map[uint][]AssignedItem)
	for _, item := range items {
		var (
			bestStore uint
			bestPrice float64
			found     bool
		)
		for _, store := range stores {
			price, stocked := store.Prices[item.Name]
			if !stocked {
				continue
			}
			if !found || price < bestPrice || (price == bestPrice && store.ID < bestStore) {
				bestStore = store.ID
				bestPrice = price
				found = true
			}
		}
		if !found {
			result.Unfulfilled = append(result.Unfulfilled, item)
			continue
		}
		cost := bestPrice * quantityOf(item)
		assignments[bestStore] = append(assignments[bestStore], AssignedItem{Item: item, UnitPrice: bestPrice, Cost: cost})
	}

	chosen := make([]StoreOption, 0, len(assignments))
	for id := range assignments {
		chosen = append(chosen, byID[id])
	}

	o.routeStores(result, chosen, assignments, home, dwellMinutesCheapest)
	return result
}

// fastest 自家出发贪心取最近且仍有可覆盖商品的商店，一次买齐该店所有可买项
func (o *ShoppingOptimizer) fastest(items []ShoppingItem, stores []StoreOption, home GeoPoint) *OptimizedShoppingList {
	result := &OptimizedShoppingList{Strategy: StrategyFastest, Items: items}

	remaining := make(map[int]ShoppingItem, len(items))
	for i, item := range items {
		remaining[i] = item
	}

	visited := make(map[uint]bool, len(stores))
	current := home

	for len(remaining) > 0 {
		bestIdx := -1
		bestDist := 0.0
		for i, store := range stores {
			if visited[store.ID] {
				continue
			}
			if !storeCoversAny(store, remaining) {
				continue
			}
			dist := haversineKm(current, store.Location)
			if bestIdx < 0 || dist < bestDist || (dist == bestDist && store.ID < stores[bestIdx].ID) {
				bestIdx = i
				bestDist = dist
			}
		}
		if bestIdx < 0 {
			break
		}

		store := stores[bestIdx]
		visited[store.ID] = true

		recommendation := StoreRecommendation{StoreID: store.ID, StoreName: store.Name}
		if minutes, err := o.travel.Estimate(current, store.Location, o.method); err == nil {
			recommendation.TravelMinutesFromPrev = minutes
		}

		for _, entry := range sortedRemaining(remaining) {
			price, stocked := store.Prices[entry.item.Name]
			if !stocked {
				continue
			}
			cost := price * quantityOf(entry.item)
			recommendation.Items = append(recommendation.Items, AssignedItem{Item: entry.item, UnitPrice: price, Cost: cost})
			recommendation.Subtotal += cost
			delete(remaining, entry.index)
		}

		result.TotalCost += recommendation.Subtotal
		result.TotalMinutes += recommendation.TravelMinutesFromPrev + dwellMinutesFastest
		result.Recommendations = append(result.Recommendations, recommendation)
		current = store.Location
	}

	for _, item := range sortedRemaining(remaining) {
		result.Unfulfilled = append(result.Unfulfilled, item.item)
	}
	return result
}

// balanced 同时构造最省钱与最省时两个候选，按约束与偏好择优；
// 无可行解时返回偏好候选并附带结构化警告，而非直接失败
func (o *ShoppingOptimizer) balanced(items []ShoppingItem, stores []StoreOption, constraints ShoppingConstraints, home GeoPoint) *OptimizedShoppingList {
	cheapest := o.cheapest(items, stores, home)
	fastest := o.fastest(items, stores, home)

	ordered := []*OptimizedShoppingList{cheapest, fastest}
	if constraints.PrioritizeTime && !constraints.PrioritizePrice {
		ordered = []*OptimizedShoppingList{fastest, cheapest}
	}

	feasible := func(candidate *OptimizedShoppingList) []string {
		var violations []string
		if constraints.MaxBudget > 0 && candidate.TotalCost > constraints.MaxBudget {
			violations = append(violations, fmt.Sprintf("total cost %.2f exceeds budget %.2f", candidate.TotalCost, constraints.MaxBudget))
		}
		if constraints.MaxTravelMinutes > 0 && candidate.TotalMinutes > constraints.MaxTravelMinutes {
			violations = append(violations, fmt.Sprintf("total time %d min exceeds limit %d min", candidate.TotalMinutes, constraints.MaxTravelMinutes))
		}
		return violations
	}

	var chosen *OptimizedShoppingList
	for _, candidate := range ordered {
		if len(feasible(candidate)) == 0 {
			chosen = candidate
			break
		}
	}
	if chosen == nil {
		chosen = ordered[0]
		chosen.Warnings = append(chosen.Warnings, feasible(chosen)...)
	}

	chosen.Strategy = StrategyBalanced
	return chosen
}

// routeStores 以贪心最近邻决定到店顺序并累计成本与耗时
func (o *ShoppingOptimizer) routeStores(result *OptimizedShoppingList, stores []StoreOption, assignments map[uint][]AssignedItem, home GeoPoint, dwellMinutes int) {
	pending := make([]StoreOption, len(stores))
	copy(pending, stores)
	current := home

	for len(pending) > 0 {
		bestIdx := 0
		bestDist := haversineKm(current, pending[0].Location)
		for i := 1; i < len(pending); i++ {
			dist := haversineKm(current, pending[i].Location)
			if dist < bestDist || (dist == bestDist && pending[i].ID < pending[bestIdx].ID) {
				bestIdx = i
				bestDist = dist
			}
		}

		store := pending[bestIdx]
		pending = append(pending[:bestIdx], pending[bestIdx+1:]...)

		recommendation := StoreRecommendation{StoreID: store.ID, StoreName: store.Name, Items: assignments[store.ID]}
		for _, assigned := range recommendation.Items {
			recommendation.Subtotal += assigned.Cost
		}
		if minutes, err := o.travel.Estimate(current, store.Location, o.method); err == nil {
			recommendation.TravelMinutesFromPrev = minutes
		}

		result.TotalCost += recommendation.Subtotal
		result.TotalMinutes += recommendation.TravelMinutesFromPrev + dwellMinutes
		result.Recommendations = append(result.Recommendations, recommendation)
		current = store.Location
	}
}

type indexedItem struct {
	index int
	item  ShoppingItem
}

// sortedRemaining 按清单原始顺序返回剩余商品，保证结果确定
func sortedRemaining(remaining map[int]ShoppingItem) []indexedItem {
	out := make([]indexedItem, 0, len(remaining))
	for i, item := range remaining {
		out = append(out, indexedItem{index: i, item: item})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].index < out[b].index })
	return out
}

func storeCoversAny(store StoreOption, remaining map[int]ShoppingItem) bool {
	for _, item := range remaining {
		if _, stocked := store.Prices[item.Name]; stocked {
			return true
		}
	}
	return false
}

func quantityOf(item ShoppingItem) float64 {
	if item.Quantity <= 0 {
		return 1
	}
	return item.Quantity
}

var weekdayKeys = [...]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// storeOpenAt 按营业时间表判断商店在 when 时刻是否营业
// 没有时间表的商店视为全天营业，缺失当天条目的视为歇业
func storeOpenAt(store StoreOption, when time.Time) bool {
	if len(store.OpeningHours) == 0 {
		return true
	}

	hours, ok := store.OpeningHours[weekdayKeys[when.Weekday()]]
	if !ok || strings.TrimSpace(hours) == "" {
		return false
	}

	parts := strings.SplitN(hours, "-", 2)
	if len(parts) != 2 {
		return false
	}
	openMin, errOpen := parseClock(parts[0])
	closeMin, errClose := parseClock(parts[1])
	if errOpen != nil || errClose != nil {
		return false
	}

	minute := minutesOfDay(when)
	return minute >= openMin && minute < closeMin
}

func parseClock(value string) (int, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}
