package models

// CompanyStatus 保安公司状态
type CompanyStatus string

const (
	CompanyStatusActive    CompanyStatus = "active"
	CompanyStatusSuspended CompanyStatus = "suspended"
)

// Company 保安公司，多租户的隔离边界
type Company struct {
	BaseModel
	Name          string        `gorm:"type:varchar(100);unique;not null" json:"name"`
	ContactPhone  string        `gorm:"type:varchar(20)" json:"contact_phone"`
	ContactPerson string        `gorm:"type:varchar(50)" json:"contact_person"`
	Status        CompanyStatus `gorm:"type:varchar(20);default:'active'" json:"status"`

	// Relations - 关联关系
	Users []User `gorm:"foreignKey:CompanyID" json:"users,omitempty"`
	Sites []Site `gorm:"foreignKey:CompanyID" json:"sites,omitempty"`
}
