package models

import "time"

// LocationRecord 保安设备上报的一次GPS定位，只追加不更新
type LocationRecord struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	GuardID      uint      `gorm:"index:idx_location_guard_time;not null" json:"guard_id"`
	Latitude     float64   `gorm:"not null" json:"latitude"`
	Longitude    float64   `gorm:"not null" json:"longitude"`
	Accuracy     *float64  `json:"accuracy,omitempty"`      // 米，可空
	BatteryLevel *int      `json:"battery_level,omitempty"` // 0-100，可空
	Timestamp    time.Time `gorm:"index:idx_location_guard_time;not null" json:"timestamp"`
	CreatedAt    time.Time `json:"created_at"`

	// Relations
	Guard *Guard `gorm:"foreignKey:GuardID" json:"guard,omitempty"`
}
