package services

import (
	"errors"
	"ipatrol-http-service/internal/domain/models"
	"ipatrol-http-service/internal/infrastructure/config"

	"gorm.io/gorm"
)

// InterfaceCompanyService defines the company service interface
type InterfaceCompanyService interface {
	GetAllCompanies(page, pageSize int, search string) ([]models.Company, int64, error)
	GetCompanyByID(id uint) (*models.Company, error)
	CreateCompany(company *models.Company) error
	UpdateCompany(id uint, updates map[string]interface{}) (*models.Company, error)
	DeleteCompany(id uint) error
}

// CompanyService 提供保安公司相关的服务
type CompanyService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewCompanyService 创建一个新的公司服务
func NewCompanyService(db *gorm.DB, cfg *config.Config) InterfaceCompanyService {
	return &CompanyService{
		DB:     db,
		Config: cfg,
	}
}

// 1 GetAllCompanies 获取所有公司，支持分页和搜索
func (s *CompanyService) GetAllCompanies(page, pageSize int, search string) ([]models.Company, int64, error) {
	var companies []models.Company
	var total int64

	query := s.DB.Model(&models.Company{})

	if search != "" {
		query = query.Where("name LIKE ? OR contact_person LIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Limit(pageSize).Offset(offset).Find(&companies).Error; err != nil {
		return nil, 0, err
	}

	return companies, total, nil
}

// 2 GetCompanyByID 根据ID获取公司
func (s *CompanyService) GetCompanyByID(id uint) (*models.Company, error) {
	var company models.Company
	if err := s.DB.First(&company, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("公司不存在")
		}
		return nil, err
	}
	return &company, nil
}

// 3 CreateCompany 创建新公司
func (s *CompanyService) CreateCompany(company *models.Company) error {
	var count int64
	if err := s.DB.Model(&models.Company{}).Where("name = ?", company.Name).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.New("公司名称已存在")
	}

	if company.Status == "" {
		company.Status = models.CompanyStatusActive
	}
	return s.DB.Create(company).Error
}

// 4 UpdateCompany 更新公司信息
func (s *CompanyService) UpdateCompany(id uint, updates map[string]interface{}) (*models.Company, error) {
	company, err := s.GetCompanyByID(id)
	if err != nil {
		return nil, err
	}

	if name, ok := updates["name"].(string); ok && name != company.Name {
		var count int64
		if err := s.DB.Model(&models.Company{}).Where("name = ? AND id != ?", name, id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, errors.New("公司名称已被使用")
		}
	}

	if err := s.DB.Model(company).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetCompanyByID(id)
}

// 5 DeleteCompany 删除公司，名下还有用户时不允许删除
func (s *CompanyService) DeleteCompany(id uint) error {
	var count int64
	if err := s.DB.Model(&models.User{}).Where("company_id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.New("公司名下还有用户，不能删除")
	}
	return s.DB.Delete(&models.Company{}, id).Error
}
