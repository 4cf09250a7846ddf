package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/daypilot/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrRoutineNotFound 在指定活动不存在时返回
	ErrRoutineNotFound = errors.New("routine activity not found")
	// ErrRoutineInvalid 当活动配置异常时返回
	ErrRoutineInvalid = errors.New("invalid routine activity configuration")
)

// RoutineService 负责日常活动目录的增删改查
// 计划生成器按能量状态从该目录取活动命名专注块
type RoutineService struct {
	db *gorm.DB
}

// RoutineFilter 描述列表过滤条件
type RoutineFilter struct {
	Status  string
	TypeTag string
	Search  string
}

// RoutineInput 定义创建/更新活动时可配置字段
type RoutineInput struct {
	Name            string
	Description     string
	ActivityType    string
	DurationMinutes int
	MinEnergy       string
	TypeTag         string
	Status          string
}

// NewRoutineService 构造 RoutineService
func NewRoutineService(gdb *gorm.DB) *RoutineService {
	return &RoutineService{db: gdb}
}

// List 返回活动集合，支持基本筛选
func (s *RoutineService) List(filter RoutineFilter) ([]db.RoutineActivity, error) {
	var routines []db.RoutineActivity

	query := s.db.Model(&db.RoutineActivity{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.TypeTag != "" {
		query = query.Where("type_tag = ?", filter.TypeTag)
	}
	if filter.Search != "" {
		like := fmt.Sprintf("%%%s%%", strings.TrimSpace(filter.Search))
		query = query.Where("name LIKE ? OR description LIKE ?", like, like)
	}

	if err := query.Order("created_at ASC").Find(&routines).Error; err != nil {
		return nil, fmt.Errorf("list routine activities: %w", err)
	}

	return routines, nil
}

// Get 根据 ID 获取活动
func (s *RoutineService) Get(id uint) (*db.RoutineActivity, error) {
	var routine db.RoutineActivity
	if err := s.db.First(&routine, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoutineNotFound
		}
		return nil, fmt.Errorf("get routine activity: %w", err)
	}
	return &routine, nil
}

// Create 新建活动
func (s *RoutineService) Create(input RoutineInput) (*db.RoutineActivity, error) {
	if err := validateRoutineInput(input); err != nil {
		return nil, err
	}

	routine := db.RoutineActivity{
		Name:            strings.TrimSpace(input.Name),
		Description:     strings.TrimSpace(input.Description),
		ActivityType:    normalizeActivityType(input.ActivityType),
		DurationMinutes: input.DurationMinutes,
		MinEnergy:       strings.TrimSpace(strings.ToLower(input.MinEnergy)),
		TypeTag:         strings.TrimSpace(input.TypeTag),
		Status:          normalizeRoutineStatus(input.Status),
	}

	if err := s.db.Create(&routine).Error; err != nil {
		return nil, fmt.Errorf("create routine activity: %w", err)
	}
	return &routine, nil
}

// Update 更新活动
func (s *RoutineService) Update(id uint, input RoutineInput) (*db.RoutineActivity, error) {
	if err := validateRoutineInput(input); err != nil {
		return nil, err
	}

	var existing db.RoutineActivity
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoutineNotFound
		}
		return nil, fmt.Errorf("find routine activity: %w", err)
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Description = strings.TrimSpace(input.Description)
	existing.ActivityType = normalizeActivityType(input.ActivityType)
	existing.DurationMinutes = input.DurationMinutes
	existing.MinEnergy = strings.TrimSpace(strings.ToLower(input.MinEnergy))
	existing.TypeTag = strings.TrimSpace(input.TypeTag)
	existing.Status = normalizeRoutineStatus(input.Status)

	if err := s.db.Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("update routine activity: %w", err)
	}
	return &existing, nil
}

// Delete 删除活动
func (s *RoutineService) Delete(id uint) error {
	if err := s.db.Delete(&db.RoutineActivity{}, id).Error; err != nil {
		return fmt.Errorf("delete routine activity: %w", err)
	}
	return nil
}

func validateRoutineInput(input RoutineInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrRoutineInvalid)
	}
	if input.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrRoutineInvalid)
	}

	energy := strings.TrimSpace(strings.ToLower(input.MinEnergy))
	if _, ok := energyRank[energy]; !ok {
		return fmt.Errorf("%w: unsupported energy %s", ErrRoutineInvalid, input.MinEnergy)
	}
	return nil
}

func normalizeActivityType(activityType string) string {
	activityType = strings.TrimSpace(strings.ToLower(activityType))
	if activityType == "" {
		return db.ActivityStudy
	}
	return activityType
}

func normalizeRoutineStatus(status string) string {
	status = strings.TrimSpace(strings.ToLower(status))
	if status != "inactive" {
		return "active"
	}
	return "inactive"
}
