package models

// GuardEmploymentStatus 保安在职状态
type GuardEmploymentStatus string

const (
	GuardEmploymentActive     GuardEmploymentStatus = "active"
	GuardEmploymentOnLeave    GuardEmploymentStatus = "on_leave"
	GuardEmploymentTerminated GuardEmploymentStatus = "terminated"
)

// Guard 保安档案，user_id指向其登录账号
type Guard struct {
	BaseModel
	UserID           uint                  `gorm:"uniqueIndex;not null" json:"user_id"`
	Name             string                `gorm:"type:varchar(50);not null" json:"name"`
	BadgeNumber      string                `gorm:"type:varchar(50);unique;not null" json:"badge_number"`
	OnDuty           bool                  `gorm:"default:false" json:"on_duty"`
	EmploymentStatus GuardEmploymentStatus `gorm:"type:varchar(20);default:'active'" json:"employment_status"`

	// Relations - 关联关系
	User            *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Shifts          []Shift          `gorm:"foreignKey:GuardID" json:"shifts,omitempty"`
	LocationRecords []LocationRecord `gorm:"foreignKey:GuardID" json:"location_records,omitempty"`
	EmergencyAlerts []EmergencyAlert `gorm:"foreignKey:GuardID" json:"emergency_alerts,omitempty"`
}
