package services

import (
	"errors"
	"ipatrol-http-service/internal/domain/models"
	"ipatrol-http-service/internal/infrastructure/config"
	"ipatrol-http-service/pkg/utils"

	"gorm.io/gorm"
)

// InterfaceGuardService defines the guard service interface
type InterfaceGuardService interface {
	GetAllGuards(page, pageSize int, search string, companyID uint) ([]models.Guard, int64, error)
	GetGuardByID(id uint) (*models.Guard, error)
	GetGuardByUserID(userID uint) (*models.Guard, error)
	CreateGuard(guard *models.Guard, phone, password string, companyID uint) error
	UpdateGuard(id uint, updates map[string]interface{}) (*models.Guard, error)
	DeleteGuard(id uint) error
	SetOnDuty(id uint, onDuty bool) (*models.Guard, error)
	GetGuardShifts(guardID uint, page, pageSize int) ([]models.Shift, int64, error)
}

// GuardService 提供保安相关的服务
type GuardService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewGuardService 创建一个新的保安服务
func NewGuardService(db *gorm.DB, cfg *config.Config) InterfaceGuardService {
	return &GuardService{
		DB:     db,
		Config: cfg,
	}
}

// 1 GetAllGuards 获取所有保安，支持分页、搜索和公司过滤
func (s *GuardService) GetAllGuards(page, pageSize int, search string, companyID uint) ([]models.Guard, int64, error) {
	var guards []models.Guard
	var total int64

	query := s.DB.Model(&models.Guard{}).
		Joins("JOIN users ON users.id = guards.user_id")

	if companyID > 0 {
		query = query.Where("users.company_id = ?", companyID)
	}

	// 如果有搜索关键词，添加搜索条件
	if search != "" {
		query = query.Where("guards.name LIKE ? OR guards.badge_number LIKE ? OR users.phone LIKE ?",
			"%"+search+"%", "%"+search+"%", "%"+search+"%")
	}

	// 获取总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 分页查询
	offset := (page - 1) * pageSize
	if err := query.Preload("User").Limit(pageSize).Offset(offset).Find(&guards).Error; err != nil {
		return nil, 0, err
	}

	return guards, total, nil
}

// 2 GetGuardByID 根据ID获取保安
func (s *GuardService) GetGuardByID(id uint) (*models.Guard, error) {
	var guard models.Guard
	if err := s.DB.Preload("User").First(&guard, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("保安不存在")
		}
		return nil, err
	}
	return &guard, nil
}

// 3 GetGuardByUserID 根据用户ID获取保安
func (s *GuardService) GetGuardByUserID(userID uint) (*models.Guard, error) {
	var guard models.Guard
	if err := s.DB.Where("user_id = ?", userID).First(&guard).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("保安不存在")
		}
		return nil, err
	}
	return &guard, nil
}

// 4 CreateGuard 创建保安账号和档案，同一事务内完成
func (s *GuardService) CreateGuard(guard *models.Guard, phone, password string, companyID uint) error {
	// 验证手机号唯一性
	var count int64
	if err := s.DB.Model(&models.User{}).Where("phone = ?", phone).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.New("手机号已被使用")
	}

	// 验证工号唯一性
	if err := s.DB.Model(&models.Guard{}).Where("badge_number = ?", guard.BadgeNumber).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.New("工号已存在")
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return errors.New("密码加密失败")
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		user := models.User{
			Phone:     phone,
			Username:  guard.Name,
			Password:  hashedPassword,
			Role:      models.RoleGuard,
			CompanyID: companyID,
			Status:    models.UserStatusActive,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		guard.UserID = user.ID
		if guard.EmploymentStatus == "" {
			guard.EmploymentStatus = models.GuardEmploymentActive
		}
		return tx.Create(guard).Error
	})
}

// 5 UpdateGuard 更新保安信息
func (s *GuardService) UpdateGuard(id uint, updates map[string]interface{}) (*models.Guard, error) {
	guard, err := s.GetGuardByID(id)
	if err != nil {
		return nil, err
	}

	// 如果更新工号，需要检查唯一性
	if badge, ok := updates["badge_number"].(string); ok && badge != guard.BadgeNumber {
		var count int64
		if err := s.DB.Model(&models.Guard{}).Where("badge_number = ? AND id != ?", badge, id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, errors.New("工号已被其他保安使用")
		}
	}

	if err := s.DB.Model(guard).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetGuardByID(id)
}

// 6 DeleteGuard 删除保安及其账号
func (s *GuardService) DeleteGuard(id uint) error {
	guard, err := s.GetGuardByID(id)
	if err != nil {
		return err
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Guard{}, id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, guard.UserID).Error
	})
}

// 7 SetOnDuty 设置保安在岗状态
func (s *GuardService) SetOnDuty(id uint, onDuty bool) (*models.Guard, error) {
	guard, err := s.GetGuardByID(id)
	if err != nil {
		return nil, err
	}

	if err := s.DB.Model(guard).Update("on_duty", onDuty).Error; err != nil {
		return nil, err
	}
	guard.OnDuty = onDuty
	return guard, nil
}

// 8 GetGuardShifts 获取保安的排班列表
func (s *GuardService) GetGuardShifts(guardID uint, page, pageSize int) ([]models.Shift, int64, error) {
	var shifts []models.Shift
	var total int64

	query := s.DB.Model(&models.Shift{}).Where("guard_id = ?", guardID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Preload("Site").Order("start_time DESC").
		Limit(pageSize).Offset(offset).Find(&shifts).Error; err != nil {
		return nil, 0, err
	}

	return shifts, total, nil
}
