package models

import "time"

// GeofenceEventType 围栏事件类型
type GeofenceEventType string

const (
	GeofenceEventEnter GeofenceEventType = "enter"
	GeofenceEventExit  GeofenceEventType = "exit"
)

// GeofenceEvent 保安越过围栏边界产生的事件，只追加不更新
type GeofenceEvent struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	GuardID    uint              `gorm:"index;not null" json:"guard_id"`
	GeofenceID uint              `gorm:"index;not null" json:"geofence_id"` // 逻辑上对应站点ID
	EventType  GeofenceEventType `gorm:"type:varchar(10);not null" json:"event_type"`
	Latitude   float64           `gorm:"not null" json:"latitude"`
	Longitude  float64           `gorm:"not null" json:"longitude"`
	Accuracy   *float64          `json:"accuracy,omitempty"`
	Timestamp  time.Time         `gorm:"index;not null" json:"timestamp"`
	CreatedAt  time.Time         `json:"created_at"`

	// Relations
	Guard *Guard `gorm:"foreignKey:GuardID" json:"guard,omitempty"`
}
