package db

import "gorm.io/gorm"

// RoutineActivity 定义了可复用的日常活动条目
// 生成器在填充学习/任务块时按能量状态从目录中取活动命名
// MinEnergy 表示执行该活动所需的最低能量档位
// Status 仅使用 active/inactive，默认 active
type RoutineActivity struct {
	gorm.Model
	Name            string `gorm:"size:100;not null"`
	Description     string
	ActivityType    string
	DurationMinutes int
	MinEnergy       string
	TypeTag         string
	Status          string
}

// TableName 自定义表名以保持命名一致
func (RoutineActivity) TableName() string {
	return "routine_activities"
}
