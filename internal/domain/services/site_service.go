package services

import (
	"errors"
	"ipatrol-http-service/internal/domain/models"
	"ipatrol-http-service/internal/infrastructure/config"

	"gorm.io/gorm"
)

// InterfaceSiteService defines the site service interface
type InterfaceSiteService interface {
	GetAllSites(page, pageSize int, search string, companyID uint) ([]models.Site, int64, error)
	GetSiteByID(id uint) (*models.Site, error)
	CreateSite(site *models.Site) error
	UpdateSite(id uint, updates map[string]interface{}) (*models.Site, error)
	DeleteSite(id uint) error
}

// SiteService 提供站点相关的服务
type SiteService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewSiteService 创建一个新的站点服务
func NewSiteService(db *gorm.DB, cfg *config.Config) InterfaceSiteService {
	return &SiteService{
		DB:     db,
		Config: cfg,
	}
}

// 1 GetAllSites 获取所有站点，支持分页、搜索和公司过滤
func (s *SiteService) GetAllSites(page, pageSize int, search string, companyID uint) ([]models.Site, int64, error) {
	var sites []models.Site
	var total int64

	query := s.DB.Model(&models.Site{})

	if companyID > 0 {
		query = query.Where("company_id = ?", companyID)
	}

	if search != "" {
		query = query.Where("name LIKE ? OR address LIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Limit(pageSize).Offset(offset).Find(&sites).Error; err != nil {
		return nil, 0, err
	}

	return sites, total, nil
}

// 2 GetSiteByID 根据ID获取站点
func (s *SiteService) GetSiteByID(id uint) (*models.Site, error) {
	var site models.Site
	if err := s.DB.First(&site, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("站点不存在")
		}
		return nil, err
	}
	return &site, nil
}

// 3 CreateSite 创建新站点
func (s *SiteService) CreateSite(site *models.Site) error {
	if site.Latitude < -90 || site.Latitude > 90 || site.Longitude < -180 || site.Longitude > 180 {
		return errors.New("站点坐标无效")
	}
	if site.GeofenceRadius <= 0 {
		site.GeofenceRadius = models.DefaultGeofenceRadius
	}
	return s.DB.Create(site).Error
}

// 4 UpdateSite 更新站点信息
func (s *SiteService) UpdateSite(id uint, updates map[string]interface{}) (*models.Site, error) {
	site, err := s.GetSiteByID(id)
	if err != nil {
		return nil, err
	}

	if radius, ok := updates["geofence_radius"].(float64); ok && radius <= 0 {
		return nil, errors.New("围栏半径必须大于0")
	}

	if err := s.DB.Model(site).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetSiteByID(id)
}

// 5 DeleteSite 删除站点
func (s *SiteService) DeleteSite(id uint) error {
	// 有未完成排班的站点不允许删除
	var count int64
	if err := s.DB.Model(&models.Shift{}).
		Where("site_id = ? AND status IN ?", id,
			[]models.ShiftStatus{models.ShiftStatusScheduled, models.ShiftStatusInProgress}).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.New("站点还有未完成的排班，不能删除")
	}

	return s.DB.Delete(&models.Site{}, id).Error
}
