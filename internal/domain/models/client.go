package models

// Client 客户档案，代表购买保安服务的客户
type Client struct {
	BaseModel
	UserID      uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	Name        string `gorm:"type:varchar(50);not null" json:"name"`
	CompanyName string `gorm:"type:varchar(100)" json:"company_name"` // 客户自己的单位名称
	Address     string `gorm:"type:varchar(200)" json:"address"`

	// Relations - 关联关系
	User  *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Sites []Site `gorm:"foreignKey:ClientID" json:"sites,omitempty"`
}
