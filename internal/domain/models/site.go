package models

// DefaultGeofenceRadius 站点默认围栏半径（米）
const DefaultGeofenceRadius = 100.0

// Site 驻勤站点，圆形围栏以站点坐标为圆心
type Site struct {
	BaseModel
	Name           string  `gorm:"type:varchar(100);not null" json:"name"`
	Address        string  `gorm:"type:varchar(200)" json:"address"`
	Latitude       float64 `gorm:"not null" json:"latitude"`
	Longitude      float64 `gorm:"not null" json:"longitude"`
	GeofenceRadius float64 `gorm:"default:100" json:"geofence_radius"` // 米
	CompanyID      uint    `gorm:"index" json:"company_id"`
	ClientID       uint    `gorm:"index" json:"client_id"`

	// Relations - 关联关系
	Company *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Client  *Client  `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Shifts  []Shift  `gorm:"foreignKey:SiteID" json:"shifts,omitempty"`
}
