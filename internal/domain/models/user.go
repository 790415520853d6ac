package models

// UserRole 用户角色
type UserRole string

const (
	RoleGuard      UserRole = "guard"
	RoleClient     UserRole = "client"
	RoleAdmin      UserRole = "admin"
	RoleSuperAdmin UserRole = "super_admin"
)

// UserStatus 用户状态
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// User 统一的登录主体，保安/客户通过profile表挂接到用户
type User struct {
	BaseModel
	Phone     string     `gorm:"type:varchar(20);unique;not null" json:"phone"`
	Username  string     `gorm:"type:varchar(50)" json:"username"`
	Password  string     `gorm:"type:varchar(100);not null" json:"-"` // bcrypt哈希，不参与序列化
	Role      UserRole   `gorm:"type:varchar(20);not null" json:"role"`
	CompanyID uint       `gorm:"index" json:"company_id"`
	Status    UserStatus `gorm:"type:varchar(20);default:'active'" json:"status"`

	// Relations - 关联关系
	Company *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}
