package db

import "gorm.io/gorm"

// GateSetting 持久化用户的出门闸门条件模板
// 只记录"追踪哪些条件"，当日的勾选状态不落库
// UserID + ConditionID 唯一，Position 保持展示顺序稳定
type GateSetting struct {
	gorm.Model
	UserID      uint   `gorm:"index;index:idx_gate_user_condition,unique"`
	ConditionID string `gorm:"size:50;index:idx_gate_user_condition,unique"`
	Name        string `gorm:"size:100"`
	Enabled     bool
	Position    int
}

// TableName 自定义表名以保持命名一致
func (GateSetting) TableName() string {
	return "gate_settings"
}
