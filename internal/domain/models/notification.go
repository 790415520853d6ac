package models

import "gorm.io/datatypes"

// NotificationType 通知类型
type NotificationType string

const (
	NotificationTypeEmergency NotificationType = "emergency"
	NotificationTypeShift     NotificationType = "shift"
	NotificationTypeSystem    NotificationType = "system"
)

// Notification 发给单个用户的站内通知，紧急警报经fan-out后每个管理员一条
type Notification struct {
	BaseModel
	UserID  uint             `gorm:"index;not null" json:"user_id"`
	Type    NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	Title   string           `gorm:"type:varchar(100);not null" json:"title"`
	Content string           `gorm:"type:text" json:"content"`
	Payload datatypes.JSON   `json:"payload,omitempty"` // 结构化负载，客户端用于深链跳转
	IsRead  bool             `gorm:"default:false" json:"is_read"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
