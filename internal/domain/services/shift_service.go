package services

import (
	"errors"
	"ipatrol-http-service/internal/domain/models"
	"ipatrol-http-service/internal/infrastructure/config"
	"time"

	"gorm.io/gorm"
)

// shiftTransitions 排班状态允许的流转
var shiftTransitions = map[models.ShiftStatus][]models.ShiftStatus{
	models.ShiftStatusScheduled:  {models.ShiftStatusInProgress, models.ShiftStatusCancelled},
	models.ShiftStatusInProgress: {models.ShiftStatusCompleted, models.ShiftStatusCancelled},
}

// InterfaceShiftService defines the shift service interface
type InterfaceShiftService interface {
	GetAllShifts(page, pageSize int, companyID uint, status string) ([]models.Shift, int64, error)
	GetShiftByID(id uint) (*models.Shift, error)
	CreateShift(shift *models.Shift) error
	UpdateShiftStatus(id uint, status models.ShiftStatus) (*models.Shift, error)
	DeleteShift(id uint) error
}

// ShiftService 提供排班相关的服务
type ShiftService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewShiftService 创建一个新的排班服务
func NewShiftService(db *gorm.DB, cfg *config.Config) InterfaceShiftService {
	return &ShiftService{
		DB:     db,
		Config: cfg,
	}
}

// 1 GetAllShifts 获取排班列表，支持分页、公司和状态过滤
func (s *ShiftService) GetAllShifts(page, pageSize int, companyID uint, status string) ([]models.Shift, int64, error) {
	var shifts []models.Shift
	var total int64

	query := s.DB.Model(&models.Shift{}).
		Joins("JOIN guards ON guards.id = shifts.guard_id").
		Joins("JOIN users ON users.id = guards.user_id")

	if companyID > 0 {
		query = query.Where("users.company_id = ?", companyID)
	}
	if status != "" {
		query = query.Where("shifts.status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Preload("Guard").Preload("Site").
		Order("shifts.start_time DESC").
		Limit(pageSize).Offset(offset).Find(&shifts).Error; err != nil {
		return nil, 0, err
	}

	return shifts, total, nil
}

// 2 GetShiftByID 根据ID获取排班
func (s *ShiftService) GetShiftByID(id uint) (*models.Shift, error) {
	var shift models.Shift
	if err := s.DB.Preload("Guard").Preload("Site").First(&shift, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("排班不存在")
		}
		return nil, err
	}
	return &shift, nil
}

// 3 CreateShift 创建排班
func (s *ShiftService) CreateShift(shift *models.Shift) error {
	if shift.EndTime.Before(shift.StartTime) {
		return errors.New("排班结束时间不能早于开始时间")
	}

	// 校验保安和站点存在
	var guard models.Guard
	if err := s.DB.First(&guard, shift.GuardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("保安不存在")
		}
		return err
	}
	var site models.Site
	if err := s.DB.First(&site, shift.SiteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("站点不存在")
		}
		return err
	}

	if shift.Status == "" {
		shift.Status = models.ShiftStatusScheduled
	}
	return s.DB.Create(shift).Error
}

// 4 UpdateShiftStatus 流转排班状态，开始排班时保安自动置为在岗
func (s *ShiftService) UpdateShiftStatus(id uint, status models.ShiftStatus) (*models.Shift, error) {
	shift, err := s.GetShiftByID(id)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, next := range shiftTransitions[shift.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, errors.New("排班状态流转无效")
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(shift).Update("status", status).Error; err != nil {
			return err
		}

		switch status {
		case models.ShiftStatusInProgress:
			return tx.Model(&models.Guard{}).Where("id = ?", shift.GuardID).
				Update("on_duty", true).Error
		case models.ShiftStatusCompleted, models.ShiftStatusCancelled:
			// 没有其他进行中排班时才离岗
			var count int64
			if err := tx.Model(&models.Shift{}).
				Where("guard_id = ? AND status = ? AND id != ?",
					shift.GuardID, models.ShiftStatusInProgress, shift.ID).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return tx.Model(&models.Guard{}).Where("id = ?", shift.GuardID).
					Update("on_duty", false).Error
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	shift.Status = status
	shift.UpdatedAt = time.Now()
	return shift, nil
}

// 5 DeleteShift 删除排班，进行中的排班不允许删除
func (s *ShiftService) DeleteShift(id uint) error {
	shift, err := s.GetShiftByID(id)
	if err != nil {
		return err
	}
	if shift.Status == models.ShiftStatusInProgress {
		return errors.New("进行中的排班不能删除")
	}
	return s.DB.Delete(&models.Shift{}, id).Error
}
