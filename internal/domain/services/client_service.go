package services

import (
	"errors"
	"ipatrol-http-service/internal/domain/models"
	"ipatrol-http-service/internal/infrastructure/config"
	"ipatrol-http-service/pkg/utils"

	"gorm.io/gorm"
)

// InterfaceClientService defines the client service interface
type InterfaceClientService interface {
	GetAllClients(page, pageSize int, search string, companyID uint) ([]models.Client, int64, error)
	GetClientByID(id uint) (*models.Client, error)
	CreateClient(client *models.Client, phone, password string, companyID uint) error
	UpdateClient(id uint, updates map[string]interface{}) (*models.Client, error)
	DeleteClient(id uint) error
	GetClientSites(clientID uint) ([]models.Site, error)
}

// ClientService 提供客户相关的服务
type ClientService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewClientService 创建一个新的客户服务
func NewClientService(db *gorm.DB, cfg *config.Config) InterfaceClientService {
	return &ClientService{
		DB:     db,
		Config: cfg,
	}
}

// 1 GetAllClients 获取所有客户，支持分页、搜索和公司过滤
func (s *ClientService) GetAllClients(page, pageSize int, search string, companyID uint) ([]models.Client, int64, error) {
	var clients []models.Client
	var total int64

	query := s.DB.Model(&models.Client{}).
		Joins("JOIN users ON users.id = clients.user_id")

	if companyID > 0 {
		query = query.Where("users.company_id = ?", companyID)
	}

	if search != "" {
		query = query.Where("clients.name LIKE ? OR clients.company_name LIKE ? OR users.phone LIKE ?",
			"%"+search+"%", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Preload("User").Limit(pageSize).Offset(offset).Find(&clients).Error; err != nil {
		return nil, 0, err
	}

	return clients, total, nil
}

// 2 GetClientByID 根据ID获取客户
func (s *ClientService) GetClientByID(id uint) (*models.Client, error) {
	var client models.Client
	if err := s.DB.Preload("User").First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("客户不存在")
		}
		return nil, err
	}
	return &client, nil
}

// 3 CreateClient 创建客户账号和档案，同一事务内完成
func (s *ClientService) CreateClient(client *models.Client, phone, password string, companyID uint) error {
	var count int64
	if err := s.DB.Model(&models.User{}).Where("phone = ?", phone).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.New("手机号已被使用")
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return errors.New("密码加密失败")
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		user := models.User{
			Phone:     phone,
			Username:  client.Name,
			Password:  hashedPassword,
			Role:      models.RoleClient,
			CompanyID: companyID,
			Status:    models.UserStatusActive,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		client.UserID = user.ID
		return tx.Create(client).Error
	})
}

// 4 UpdateClient 更新客户信息
func (s *ClientService) UpdateClient(id uint, updates map[string]interface{}) (*models.Client, error) {
	client, err := s.GetClientByID(id)
	if err != nil {
		return nil, err
	}

	if err := s.DB.Model(client).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetClientByID(id)
}

// 5 DeleteClient 删除客户及其账号
func (s *ClientService) DeleteClient(id uint) error {
	client, err := s.GetClientByID(id)
	if err != nil {
		return err
	}

	// 名下还有站点时不允许删除
	var count int64
	if err := s.DB.Model(&models.Site{}).Where("client_id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.New("客户名下还有站点，不能删除")
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Client{}, id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, client.UserID).Error
	})
}

// 6 GetClientSites 获取客户名下的站点
func (s *ClientService) GetClientSites(clientID uint) ([]models.Site, error) {
	var sites []models.Site
	if err := s.DB.Where("client_id = ?", clientID).Find(&sites).Error; err != nil {
		return nil, err
	}
	return sites, nil
}
