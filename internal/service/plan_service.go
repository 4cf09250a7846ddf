package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/daypilot/internal/db"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrPlanInvalidRange 在睡觉时间不晚于起床时间时返回
	ErrPlanInvalidRange = errors.New("sleep time must be after wake time")
	// ErrUnknownEnergyState 在能量状态不在 low/medium/high 内时返回
	ErrUnknownEnergyState = errors.New("unknown energy state")
	// ErrPlanExists 在当日已有激活计划时返回，调用方可提示"删除后重新生成"
	ErrPlanExists = errors.New("an active plan already exists for this date")
	// ErrPlanNotFound 在指定计划不存在时返回
	ErrPlanNotFound = errors.New("plan not found")
	// ErrPlanForbidden 在计划不属于当前用户时返回
	ErrPlanForbidden = errors.New("plan belongs to another user")
	// ErrBlockNotFound 在指定时间块不存在时返回
	ErrBlockNotFound = errors.New("time block not found")
	// ErrBlockForbidden 在时间块所属计划不属于当前用户时返回
	ErrBlockForbidden = errors.New("time block belongs to another user")
	// ErrCommitmentOutOfRange 在固定日程落在计划窗口之外时返回
	ErrCommitmentOutOfRange = errors.New("fixed commitment outside plan window")
)

// 完成打卡写入的元数据键，取消完成时只摘除这两个键
const (
	MetaCompletedAt = "completed_at"
	MetaCompletedBy = "completed_by"
)

// 块长下限，低于该值的空隙并入相邻块或记为衔接缓冲
const minBlockMinutes = 10

// PlanService 负责单日计划的生成与生命周期管理
type PlanService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewPlanService 构造 PlanService
func NewPlanService(gdb *gorm.DB) *PlanService {
	return &PlanService{db: gdb, now: time.Now}
}

// FixedCommitment 描述生成时需要原位插入的外部日程
type FixedCommitment struct {
	Name         string
	ActivityType string
	Start        time.Time
	End          time.Time
}

// GeneratePlanInput 汇总一次计划生成所需的全部输入
type GeneratePlanInput struct {
	UserID      uint
	Date        time.Time
	WakeTime    time.Time
	SleepTime   time.Time
	EnergyState string
	Commitments []FixedCommitment
}

type blockTemplate struct {
	activityType string
	name         string
	minutes      int
}

// 不同能量状态下的填充循环：低能量多休息缓冲，高能量多专注块
var energyCycles = map[string][]blockTemplate{
	db.EnergyHigh: {
		{db.ActivityStudy, "", 50},
		{db.ActivityBuffer, "短暂休整", 10},
		{db.ActivityStudy, "", 50},
		{db.ActivityBuffer, "短暂休整", 10},
		{db.ActivityFree, "自由时间", 30},
	},
	db.EnergyMedium: {
		{db.ActivityStudy, "", 40},
		{db.ActivityBuffer, "短暂休整", 15},
		{db.ActivityFree, "自由时间", 30},
	},
	db.EnergyLow: {
		{db.ActivityRest, "恢复休息", 30},
		{db.ActivityStudy, "", 25},
		{db.ActivityBuffer, "短暂休整", 20},
		{db.ActivityFree, "自由时间", 35},
	},
}

var energyRank = map[string]int{
	db.EnergyLow:    1,
	db.EnergyMedium: 2,
	db.EnergyHigh:   3,
}

// GeneratePlan 生成当日计划并连同全部时间块一次性落库。
// 计划起点取 max(起床时间, 当前时间向上取整到 5 分钟)，
// 固定日程原位插入，弹性块顺延，全程保证不重叠且不越出窗口。
func (s *PlanService) GeneratePlan(input GeneratePlanInput) (*db.Plan, error) {
	if !input.SleepTime.After(input.WakeTime) {
		return nil, ErrPlanInvalidRange
	}
	energy := strings.TrimSpace(strings.ToLower(input.EnergyState))
	if _, ok := energyRank[energy]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEnergyState, input.EnergyState)
	}

	planDate := db.NormalizeDate(input.Date)

	var existing int64
	err := s.db.Model(&db.Plan{}).
		Where("user_id = ? AND plan_date = ? AND status = ?", input.UserID, planDate, db.PlanStatusActive).
		Count(&existing).Error
	if err != nil {
		return nil, fmt.Errorf("check existing plan: %w", err)
	}
	if existing > 0 {
		return nil, ErrPlanExists
	}

	roundedNow := roundUpToFiveMinutes(s.now())
	planStart := input.WakeTime
	if roundedNow.After(planStart) {
		planStart = roundedNow
	}
	if !planStart.Before(input.SleepTime) {
		return nil, ErrPlanInvalidRange
	}

	commitments, err := normalizeCommitments(input.Commitments, planStart, input.SleepTime)
	if err != nil {
		return nil, err
	}

	studyNames, err := s.studyNames(energy)
	if err != nil {
		return nil, err
	}

	blocks := layoutBlocks(planStart, input.SleepTime, energy, commitments, studyNames)

	plan := db.Plan{
		UserID:            input.UserID,
		PlanDate:          planDate,
		WakeTime:          input.WakeTime,
		SleepTime:         input.SleepTime,
		PlanStart:         planStart,
		EnergyState:       energy,
		Status:            db.PlanStatusActive,
		GeneratedAfterNow: planStart.After(input.WakeTime),
	}

	// 计划与时间块作为一个逻辑单元写入，任一失败整体回滚
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&plan).Error; err != nil {
			return err
		}
		for i := range blocks {
			blocks[i].PlanID = plan.ID
		}
		return tx.Create(&blocks).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrPlanExists
		}
		return nil, fmt.Errorf("persist plan: %w", err)
	}

	plan.Blocks = blocks
	return &plan, nil
}

// PlanForDate 返回用户某日的激活计划，含按序时间块与出门时刻
func (s *PlanService) PlanForDate(userID uint, date time.Time) (*db.Plan, error) {
	var plan db.Plan
	err := s.db.
		Preload("Blocks", func(tx *gorm.DB) *gorm.DB { return tx.Order("sequence_order ASC") }).
		Preload("ExitTimes").
		Where("user_id = ? AND plan_date = ? AND status = ?", userID, db.NormalizeDate(date), db.PlanStatusActive).
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("load plan: %w", err)
	}
	return &plan, nil
}

// Get 按 ID 获取计划并校验归属
func (s *PlanService) Get(userID, planID uint) (*db.Plan, error) {
	var plan db.Plan
	err := s.db.
		Preload("Blocks", func(tx *gorm.DB) *gorm.DB { return tx.Order("sequence_order ASC") }).
		Preload("ExitTimes").
		First(&plan, planID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("load plan: %w", err)
	}
	if plan.UserID != userID {
		return nil, ErrPlanForbidden
	}
	return &plan, nil
}

// DeletePlan 在单一事务中依次删除出门时刻、时间块与计划本身，
// 硬删除以立即释放 (user, date) 唯一索引，支持删除后重新生成
func (s *PlanService) DeletePlan(userID, planID uint) error {
	plan, err := s.Get(userID, planID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("plan_id = ?", plan.ID).Delete(&db.ExitTime{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("plan_id = ?", plan.ID).Delete(&db.TimeBlock{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&db.Plan{}, plan.ID).Error
	})
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	return nil
}

// CompleteBlock 标记时间块完成并在元数据中记录时间与操作者，重复调用幂等
func (s *PlanService) CompleteBlock(userID, blockID uint, actor string) (*db.TimeBlock, error) {
	block, err := s.loadOwnedBlock(userID, blockID)
	if err != nil {
		return nil, err
	}

	block.Status = db.BlockStatusCompleted
	if block.Metadata == nil {
		block.Metadata = datatypes.JSONMap{}
	}
	block.Metadata[MetaCompletedAt] = s.now().UTC().Format(time.RFC3339)
	block.Metadata[MetaCompletedBy] = actor

	if err := s.db.Save(block).Error; err != nil {
		return nil, fmt.Errorf("complete block: %w", err)
	}
	return block, nil
}

// UncompleteBlock 将时间块恢复为待办，只摘除完成相关的元数据键
func (s *PlanService) UncompleteBlock(userID, blockID uint) (*db.TimeBlock, error) {
	block, err := s.loadOwnedBlock(userID, blockID)
	if err != nil {
		return nil, err
	}

	block.Status = db.BlockStatusPending
	if block.Metadata != nil {
		delete(block.Metadata, MetaCompletedAt)
		delete(block.Metadata, MetaCompletedBy)
	}

	if err := s.db.Save(block).Error; err != nil {
		return nil, fmt.Errorf("uncomplete block: %w", err)
	}
	return block, nil
}

// SkipBlock 标记时间块跳过并记录原因
func (s *PlanService) SkipBlock(userID, blockID uint, reason string) (*db.TimeBlock, error) {
	block, err := s.loadOwnedBlock(userID, blockID)
	if err != nil {
		return nil, err
	}

	block.Status = db.BlockStatusSkipped
	block.SkipReason = strings.TrimSpace(reason)

	if err := s.db.Save(block).Error; err != nil {
		return nil, fmt.Errorf("skip block: %w", err)
	}
	return block, nil
}

// UpdateNote 保存计划的 Markdown 反思笔记
func (s *PlanService) UpdateNote(userID, planID uint, note string) error {
	plan, err := s.Get(userID, planID)
	if err != nil {
		return err
	}
	if err := s.db.Model(&db.Plan{}).Where("id = ?", plan.ID).Update("note", note).Error; err != nil {
		return fmt.Errorf("update plan note: %w", err)
	}
	return nil
}

// PlanStats 汇总计划的执行情况
type PlanStats struct {
	TotalBlocks      int `json:"total_blocks"`
	Completed        int `json:"completed"`
	Skipped          int `json:"skipped"`
	Pending          int `json:"pending"`
	ScheduledMinutes int `json:"scheduled_minutes"`
	CompletedMinutes int `json:"completed_minutes"`
}

// Stats 统计计划内各状态时间块的数量与时长
func (s *PlanService) Stats(userID, planID uint) (*PlanStats, error) {
	plan, err := s.Get(userID, planID)
	if err != nil {
		return nil, err
	}

	stats := PlanStats{TotalBlocks: len(plan.Blocks)}
	for _, block := range plan.Blocks {
		minutes := int(block.EndTime.Sub(block.StartTime) / time.Minute)
		stats.ScheduledMinutes += minutes
		switch block.Status {
		case db.BlockStatusCompleted:
			stats.Completed++
			stats.CompletedMinutes += minutes
		case db.BlockStatusSkipped:
			stats.Skipped++
		default:
			stats.Pending++
		}
	}
	return &stats, nil
}

func (s *PlanService) loadOwnedBlock(userID, blockID uint) (*db.TimeBlock, error) {
	var block db.TimeBlock
	if err := s.db.First(&block, blockID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBlockNotFound
		}
		return nil, fmt.Errorf("load block: %w", err)
	}

	var plan db.Plan
	if err := s.db.Select("id", "user_id").First(&plan, block.PlanID).Error; err != nil {
		return nil, fmt.Errorf("load block plan: %w", err)
	}
	if plan.UserID != userID {
		return nil, ErrBlockForbidden
	}
	return &block, nil
}

// studyNames 取出当前能量可执行的活动名，供专注块轮流命名
func (s *PlanService) studyNames(energy string) ([]string, error) {
	var routines []db.RoutineActivity
	err := s.db.
		Where("status = ?", "active").
		Order("created_at ASC").
		Find(&routines).Error
	if err != nil {
		return nil, fmt.Errorf("load routine activities: %w", err)
	}

	names := make([]string, 0, len(routines))
	for _, routine := range routines {
		if rank, ok := energyRank[routine.MinEnergy]; ok && rank > energyRank[energy] {
			continue
		}
		names = append(names, routine.Name)
	}
	return names, nil
}

func normalizeCommitments(commitments []FixedCommitment, planStart, sleep time.Time) ([]FixedCommitment, error) {
	if len(commitments) == 0 {
		return nil, nil
	}

	sorted := make([]FixedCommitment, len(commitments))
	copy(sorted, commitments)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	for i := range sorted {
		c := &sorted[i]
		if !c.End.After(c.Start) {
			return nil, fmt.Errorf("%w: %s ends before it starts", ErrCommitmentOutOfRange, c.Name)
		}
		if c.Start.Before(planStart) || !c.Start.Before(sleep) {
			return nil, fmt.Errorf("%w: %s", ErrCommitmentOutOfRange, c.Name)
		}
		if c.End.After(sleep) {
			c.End = sleep
		}
		if c.ActivityType == "" {
			c.ActivityType = db.ActivityCommute
		}
		if i > 0 && c.Start.Before(sorted[i-1].End) {
			return nil, fmt.Errorf("%w: %s overlaps previous commitment", ErrCommitmentOutOfRange, c.Name)
		}
	}
	return sorted, nil
}

// layoutBlocks 自 planStart 起顺序铺块：
// 开场例程/缓冲/早餐，此后按能量循环填充，到点插入午晚餐，
// 固定日程原位落位，弹性块在其边界处截断
func layoutBlocks(planStart, sleep time.Time, energy string, commitments []FixedCommitment, studyNames []string) []db.TimeBlock {
	var blocks []db.TimeBlock
	seq := 1
	cursor := planStart
	ci := 0

	push := func(activityType, name string, start, end time.Time, fixed bool) {
		blocks = append(blocks, db.TimeBlock{
			StartTime:     start,
			EndTime:       end,
			ActivityType:  activityType,
			ActivityName:  name,
			IsFixed:       fixed,
			SequenceOrder: seq,
			Status:        db.BlockStatusPending,
			Metadata:      datatypes.JSONMap{},
		})
		seq++
	}

	seed := []blockTemplate{
		{db.ActivityRoutine, "晨间例程", 25},
		{db.ActivityBuffer, "整理与过渡", 10},
		{db.ActivityMeal, "早餐", 30},
	}
	cycle := energyCycles[energy]
	cycleIdx := 0
	studyIdx := 0
	lunchDone := false
	dinnerDone := false

	nextTemplate := func() blockTemplate {
		if len(seed) > 0 {
			tmpl := seed[0]
			seed = seed[1:]
			return tmpl
		}
		if !lunchDone && minutesOfDay(cursor) >= 12*60 {
			lunchDone = true
			return blockTemplate{db.ActivityMeal, "午餐", 40}
		}
		if !dinnerDone && minutesOfDay(cursor) >= 18*60 {
			dinnerDone = true
			return blockTemplate{db.ActivityMeal, "晚餐", 40}
		}
		tmpl := cycle[cycleIdx%len(cycle)]
		cycleIdx++
		if tmpl.activityType == db.ActivityStudy {
			if len(studyNames) > 0 {
				tmpl.name = studyNames[studyIdx%len(studyNames)]
				studyIdx++
			} else {
				tmpl.name = "专注时段"
			}
		}
		return tmpl
	}

	minBlock := minBlockMinutes * time.Minute

	for cursor.Before(sleep) {
		// 固定日程到点优先落位，过短的间隙并作衔接缓冲
		if ci < len(commitments) {
			c := commitments[ci]
			if c.Start.Sub(cursor) < minBlock {
				if c.Start.After(cursor) {
					push(db.ActivityBuffer, "衔接缓冲", cursor, c.Start, false)
				}
				push(c.ActivityType, c.Name, c.Start, c.End, true)
				cursor = c.End
				ci++
				continue
			}
		}

		// 睡前残余不足成块时并入前一弹性块
		if sleep.Sub(cursor) < minBlock {
			if n := len(blocks); n > 0 && !blocks[n-1].IsFixed {
				blocks[n-1].EndTime = sleep
			} else {
				push(db.ActivityFree, "睡前放松", cursor, sleep, false)
			}
			break
		}

		tmpl := nextTemplate()
		boundary := sleep
		if ci < len(commitments) && commitments[ci].Start.Before(boundary) {
			boundary = commitments[ci].Start
		}

		end := cursor.Add(time.Duration(tmpl.minutes) * time.Minute)
		if end.After(boundary) {
			end = boundary
		}
		push(tmpl.activityType, tmpl.name, cursor, end, false)
		cursor = end
	}

	return blocks
}

// roundUpToFiveMinutes 将时间向上取整到下一个 5 分钟刻度
func roundUpToFiveMinutes(t time.Time) time.Time {
	truncated := t.Truncate(5 * time.Minute)
	if truncated.Equal(t) {
		return t
	}
	return truncated.Add(5 * time.Minute)
}

func minutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
