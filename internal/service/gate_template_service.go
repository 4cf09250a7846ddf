package service

import (
	"fmt"
	"strings"

	"github.com/daypilot/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GateTemplateService 维护每个用户持久化的闸门条件模板
// 模板只描述追踪哪些条件；当日勾选状态由调用方临时持有，不落库
type GateTemplateService struct {
	db *gorm.DB
}

// GateTemplateEntry 是模板中一条条件的读写形态
type GateTemplateEntry struct {
	ConditionID string `json:"id"`
	Name        string `json:"name"`
	Enabled     bool   `json:"enabled"`
}

// NewGateTemplateService 构造 GateTemplateService
func NewGateTemplateService(gdb *gorm.DB) *GateTemplateService {
	return &GateTemplateService{db: gdb}
}

// Template 读取用户模板，并与规范默认集合并：
// 未被用户覆盖的规范条件按默认名称、默认启用出现
func (s *GateTemplateService) Template(userID uint) ([]GateTemplateEntry, error) {
	var rows []db.GateSetting
	if err := s.db.Where("user_id = ?", userID).Order("position ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load gate template: %w", err)
	}

	overrides := make(map[string]db.GateSetting, len(rows))
	for _, row := range rows {
		overrides[row.ConditionID] = row
	}

	entries := make([]GateTemplateEntry, 0, len(DefaultGateConditions)+len(rows))
	seen := make(map[string]bool, len(DefaultGateConditions))

	for _, cond := range DefaultGateConditions {
		entry := GateTemplateEntry{ConditionID: cond.ID, Name: cond.Name, Enabled: true}
		if row, ok := overrides[cond.ID]; ok {
			entry.Enabled = row.Enabled
			if strings.TrimSpace(row.Name) != "" {
				entry.Name = row.Name
			}
		}
		entries = append(entries, entry)
		seen[cond.ID] = true
	}

	// 用户自定义的非规范条件排在默认集之后
	for _, row := range rows {
		if seen[row.ConditionID] {
			continue
		}
		entries = append(entries, GateTemplateEntry{
			ConditionID: row.ConditionID,
			Name:        row.Name,
			Enabled:     row.Enabled,
		})
	}

	return entries, nil
}

// Update 以 upsert 方式整体写入模板条目
func (s *GateTemplateService) Update(userID uint, entries []GateTemplateEntry) error {
	for position, entry := range entries {
		id := strings.TrimSpace(entry.ConditionID)
		if id == "" {
			return fmt.Errorf("gate template entry %d: condition id is required", position)
		}

		row := db.GateSetting{
			UserID:      userID,
			ConditionID: id,
			Name:        strings.TrimSpace(entry.Name),
			Enabled:     entry.Enabled,
			Position:    position,
		}

		err := s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "condition_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "enabled", "position"}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("upsert gate template entry %s: %w", id, err)
		}
	}
	return nil
}

// BuildGate 依据模板中启用的条件构造一个全新闸门
func (s *GateTemplateService) BuildGate(userID uint) (*ExitGate, error) {
	entries, err := s.Template(userID)
	if err != nil {
		return nil, err
	}

	conditions := make([]GateCondition, 0, len(entries))
	for _, entry := range entries {
		if !entry.Enabled {
			continue
		}
		conditions = append(conditions, GateCondition{ID: entry.ConditionID, Name: entry.Name})
	}
	return NewExitGate(conditions), nil
}
