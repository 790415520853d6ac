package models

import "time"

// SystemLog 系统操作日志
type SystemLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `json:"user_id"` // 0表示系统自动操作
	Action    string    `gorm:"type:varchar(50);not null" json:"action"`
	Detail    string    `gorm:"type:text" json:"detail"`
	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}
