package models

import "time"

// ShiftStatus 排班状态
type ShiftStatus string

const (
	ShiftStatusScheduled  ShiftStatus = "scheduled"
	ShiftStatusInProgress ShiftStatus = "in_progress"
	ShiftStatusCompleted  ShiftStatus = "completed"
	ShiftStatusCancelled  ShiftStatus = "cancelled"
)

// Shift 排班，把保安和站点在某个时段绑定起来
type Shift struct {
	BaseModel
	GuardID   uint        `gorm:"index;not null" json:"guard_id"`
	SiteID    uint        `gorm:"index;not null" json:"site_id"`
	StartTime time.Time   `gorm:"not null" json:"start_time"`
	EndTime   time.Time   `gorm:"not null" json:"end_time"`
	Status    ShiftStatus `gorm:"type:varchar(20);default:'scheduled'" json:"status"`
	Remark    string      `gorm:"type:varchar(200)" json:"remark"`

	// Relations - 关联关系
	Guard *Guard `gorm:"foreignKey:GuardID" json:"guard,omitempty"`
	Site  *Site  `gorm:"foreignKey:SiteID" json:"site,omitempty"`
}
