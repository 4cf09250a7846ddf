package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/daypilot/internal/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExitTimeService 从日程开始时间倒推最晚安全出门时刻
type ExitTimeService struct {
	db     *gorm.DB
	travel TravelLookup
	plans  *PlanService
}

// NewExitTimeService 构造 ExitTimeService
func NewExitTimeService(gdb *gorm.DB, travel TravelLookup, plans *PlanService) *ExitTimeService {
	return &ExitTimeService{db: gdb, travel: travel, plans: plans}
}

// ComputeExitTimeInput 汇总一次出门时刻计算所需输入
// CommitmentID 缺省时会为该日程铸造一个新的 UUID
type ComputeExitTimeInput struct {
	UserID          uint
	PlanID          uint
	CommitmentID    string
	CommitmentName  string
	CommitmentStart time.Time
	Origin          GeoPoint
	Destination     GeoPoint
	TravelMethod    string
	PrepMinutes     int
}

// ExitTimeResult 携带落库后的出门时刻与可能的约束警告
type ExitTimeResult struct {
	ExitTime db.ExitTime `json:"exit_time"`
	Warning  string      `json:"warning,omitempty"`
}

// ExitTimeCandidate 是不落库的单方式试算结果，用于多方式对比
type ExitTimeCandidate struct {
	TravelMethod  string    `json:"travel_method"`
	TravelMinutes int       `json:"travel_minutes"`
	ExitAt        time.Time `json:"exit_at"`
	Warning       string    `json:"warning,omitempty"`
}

// Compute 计算并持久化出门时刻：
// exitAt = 日程开始 - 路程 - 准备；关联"结束不晚于 exitAt 的最后一个时间块"。
// exitAt 早于计划起点时按结构化警告返回，不做静默截断。
func (s *ExitTimeService) Compute(input ComputeExitTimeInput) (*ExitTimeResult, error) {
	plan, err := s.plans.Get(input.UserID, input.PlanID)
	if err != nil {
		return nil, err
	}

	if input.PrepMinutes < 0 {
		return nil, fmt.Errorf("preparation minutes must not be negative")
	}

	travelMinutes, err := s.travel.Estimate(input.Origin, input.Destination, input.TravelMethod)
	if err != nil {
		return nil, err
	}

	exitAt := input.CommitmentStart.
		Add(-time.Duration(travelMinutes) * time.Minute).
		Add(-time.Duration(input.PrepMinutes) * time.Minute)

	commitmentID := strings.TrimSpace(input.CommitmentID)
	if commitmentID == "" {
		commitmentID = uuid.NewString()
	}

	record := db.ExitTime{
		PlanID:         plan.ID,
		CommitmentID:   commitmentID,
		CommitmentName: strings.TrimSpace(input.CommitmentName),
		ExitAt:         exitAt,
		TravelMinutes:  travelMinutes,
		PrepMinutes:    input.PrepMinutes,
		TravelMethod:   strings.TrimSpace(strings.ToLower(input.TravelMethod)),
	}

	result := ExitTimeResult{}
	if exitAt.Before(plan.PlanStart) {
		result.Warning = "exit time falls before plan start; the plan cannot accommodate this commitment as scheduled"
	}

	// 出门前应当结束的最后一个块：结束时间不晚于 exitAt 且序号最大
	if blockID := lastBlockEndingBy(plan.Blocks, exitAt); blockID != 0 {
		record.TimeBlockID = blockID
	}

	if err := s.db.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("persist exit time: %w", err)
	}

	result.ExitTime = record
	return &result, nil
}

// CompareMethods 对多种出行方式做独立试算，不落库，便于权衡取舍
func (s *ExitTimeService) CompareMethods(input ComputeExitTimeInput, methods []string) ([]ExitTimeCandidate, error) {
	plan, err := s.plans.Get(input.UserID, input.PlanID)
	if err != nil {
		return nil, err
	}

	candidates := make([]ExitTimeCandidate, 0, len(methods))
	for _, method := range methods {
		travelMinutes, err := s.travel.Estimate(input.Origin, input.Destination, method)
		if err != nil {
			return nil, err
		}

		exitAt := input.CommitmentStart.
			Add(-time.Duration(travelMinutes) * time.Minute).
			Add(-time.Duration(input.PrepMinutes) * time.Minute)

		candidate := ExitTimeCandidate{
			TravelMethod:  strings.TrimSpace(strings.ToLower(method)),
			TravelMinutes: travelMinutes,
			ExitAt:        exitAt,
		}
		if exitAt.Before(plan.PlanStart) {
			candidate.Warning = "exit time falls before plan start"
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

func lastBlockEndingBy(blocks []db.TimeBlock, exitAt time.Time) uint {
	var (
		bestID  uint
		bestSeq int
	)
	for _, block := range blocks {
		if block.EndTime.After(exitAt) {
			continue
		}
		if block.SequenceOrder > bestSeq {
			bestSeq = block.SequenceOrder
			bestID = block.ID
		}
	}
	return bestID
}
