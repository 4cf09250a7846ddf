package db

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 计划能量状态取值
const (
	EnergyLow    = "low"
	EnergyMedium = "medium"
	EnergyHigh   = "high"
)

// 计划状态取值，删除走硬删除事务，deleted 仅用于导入兼容
const (
	PlanStatusActive  = "active"
	PlanStatusDeleted = "deleted"
)

// 时间块状态取值
const (
	BlockStatusPending   = "pending"
	BlockStatusCompleted = "completed"
	BlockStatusSkipped   = "skipped"
)

// 时间块活动类型
const (
	ActivityRoutine = "routine"
	ActivityBuffer  = "buffer"
	ActivityMeal    = "meal"
	ActivityStudy   = "study"
	ActivityCommute = "commute"
	ActivityFree    = "free"
	ActivityRest    = "rest"
)

// Plan 定义了单日计划模型
// UserID + PlanDate 采用唯一索引，保证同一天至多一份计划
// PlanStart = max(起床时间, 当前时间向上取整到 5 分钟)
// GeneratedAfterNow 标记计划是否在起床之后才生成
// Note 存储 Markdown 格式的当日反思笔记，渲染时再做消毒
type Plan struct {
	gorm.Model
	UserID            uint      `gorm:"index;index:idx_plan_user_date,unique"`
	PlanDate          time.Time `gorm:"index:idx_plan_user_date,unique"`
	WakeTime          time.Time
	SleepTime         time.Time
	PlanStart         time.Time
	EnergyState       string
	Status            string
	GeneratedAfterNow bool
	Note              string      `gorm:"type:text"`
	Blocks            []TimeBlock `gorm:"foreignKey:PlanID"`
	ExitTimes         []ExitTime  `gorm:"foreignKey:PlanID"`
}

// TimeBlock 是计划内一段连续且互不重叠的时间区间
// SequenceOrder 自 1 起严格递增，用于排序与"出门前最后一块"的定位
// IsFixed 表示锚定外部日程的块，生成器不得移动
// Metadata 为开放的键值标注，完成打卡写入 completed_at/completed_by，
// 取消完成只摘除这两个键，其余标注保持原样
type TimeBlock struct {
	gorm.Model
	PlanID        uint `gorm:"index"`
	Plan          Plan `gorm:"constraint:OnDelete:CASCADE"`
	StartTime     time.Time
	EndTime       time.Time
	ActivityType  string
	ActivityName  string
	IsFixed       bool
	SequenceOrder int `gorm:"index"`
	Status        string
	SkipReason    string
	Metadata      datatypes.JSONMap
}

// ExitTime 记录某一外部日程的最晚安全出门时刻
// 不变式：ExitAt = 日程开始时间 - 路程分钟 - 准备分钟
// TimeBlockID 指向出门前应当结束的最后一个时间块
type ExitTime struct {
	gorm.Model
	PlanID         uint `gorm:"index"`
	Plan           Plan `gorm:"constraint:OnDelete:CASCADE"`
	TimeBlockID    uint
	CommitmentID   string `gorm:"size:64;index"`
	CommitmentName string
	ExitAt         time.Time
	TravelMinutes  int
	PrepMinutes    int
	TravelMethod   string
}

// NormalizeDate 将时间截断到 UTC 零点，保证日期唯一索引可比较
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
