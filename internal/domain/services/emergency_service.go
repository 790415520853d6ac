package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"ipatrol-http-service/internal/domain/models"
	"ipatrol-http-service/internal/infrastructure/config"
	"ipatrol-http-service/pkg/logger"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MaxAlertHistoryLimit 单次查询告警记录的最大条数
const MaxAlertHistoryLimit = 50

var (
	// ErrAlertTerminal 告警已进入终态，不允许再变更
	ErrAlertTerminal = errors.New("告警已处理完结")
	// ErrResolutionEmpty 处理说明不能为空
	ErrResolutionEmpty = errors.New("处理说明不能为空")
)

// InterfaceEmergencyService defines the emergency alert service interface
type InterfaceEmergencyService interface {
	Trigger(guardRef uint, input *EmergencyInput) (*models.EmergencyAlert, error)
	Acknowledge(alertID, byUserID uint) (*models.EmergencyAlert, error)
	Resolve(alertID, byUserID uint, resolution string, falseAlarm bool) (*models.EmergencyAlert, error)
	GetAlertByID(alertID uint) (*models.EmergencyAlert, error)
	GetActiveAlerts(companyID uint) ([]models.EmergencyAlert, error)
	GetGuardAlertHistory(guardRef uint, limit int) ([]models.EmergencyAlert, error)
	GetStatistics(companyID uint, since time.Time) (*EmergencyStatistics, error)
}

// EmergencyInput 触发紧急告警的参数
type EmergencyInput struct {
	Type      string   `json:"type"`
	Severity  string   `json:"severity"`
	Message   string   `json:"message"`
	ShiftID   *uint    `json:"shift_id"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy"`
}

// EmergencyStatistics 紧急告警统计数据
type EmergencyStatistics struct {
	Total              int64            `json:"total"`
	ByStatus           map[string]int64 `json:"by_status"`
	ByType             map[string]int64 `json:"by_type"`
	BySeverity         map[string]int64 `json:"by_severity"`
	AvgResponseSeconds float64          `json:"avg_response_seconds"`
	Since              time.Time        `json:"since"`
}

// EmergencyService 提供紧急告警相关的服务
type EmergencyService struct {
	DB       *gorm.DB
	Config   *config.Config
	Tracking InterfaceTrackingService
	Geocode  InterfaceGeocodeService
}

// NewEmergencyService 创建一个新的紧急告警服务
func NewEmergencyService(db *gorm.DB, cfg *config.Config, tracking InterfaceTrackingService, geocode InterfaceGeocodeService) InterfaceEmergencyService {
	return &EmergencyService{
		DB:       db,
		Config:   cfg,
		Tracking: tracking,
		Geocode:  geocode,
	}
}

// 1 Trigger 触发紧急告警并向公司管理员群发通知
func (s *EmergencyService) Trigger(guardRef uint, input *EmergencyInput) (*models.EmergencyAlert, error) {
	alertType := models.EmergencyAlertType(input.Type)
	switch alertType {
	case models.AlertTypePanic, models.AlertTypeMedical,
		models.AlertTypeSecurity, models.AlertTypeFire, models.AlertTypeCustom:
	default:
		return nil, errors.New("告警类型无效")
	}

	severity := models.EmergencyAlertSeverity(input.Severity)
	switch severity {
	case models.AlertSeverityLow, models.AlertSeverityMedium,
		models.AlertSeverityHigh, models.AlertSeverityCritical:
	case "":
		severity = models.AlertSeverityHigh
	default:
		return nil, errors.New("告警级别无效")
	}

	// 先校验保安，避免写入无主告警
	guard, err := s.Tracking.ResolveGuard(guardRef)
	if err != nil {
		return nil, err
	}

	if input.ShiftID != nil {
		var shift models.Shift
		if err := s.DB.First(&shift, *input.ShiftID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.New("排班不存在")
			}
			return nil, err
		}
		if shift.GuardID != guard.ID {
			return nil, errors.New("排班不属于该保安")
		}
	}

	alert := &models.EmergencyAlert{
		GuardID:   guard.ID,
		ShiftID:   input.ShiftID,
		Type:      alertType,
		Severity:  severity,
		Status:    models.AlertStatusActive,
		Message:   input.Message,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		Accuracy:  input.Accuracy,
	}

	// 逆地理编码快照，失败不影响主流程
	if s.Geocode != nil {
		if address, err := s.Geocode.ReverseGeocode(input.Latitude, input.Longitude); err == nil {
			alert.Address = address
		} else {
			logger.Warning("告警地址解析失败: %v", err)
		}
	}

	if err := s.DB.Create(alert).Error; err != nil {
		return nil, err
	}

	// 通知群发失败只记日志，告警本身已生效
	if err := s.fanOutNotifications(guard, alert); err != nil {
		logger.Error("告警 %d 通知群发失败: %v", alert.ID, err)
	}

	return alert, nil
}

// fanOutNotifications 给保安所属公司的所有管理员批量写入通知
func (s *EmergencyService) fanOutNotifications(guard *models.Guard, alert *models.EmergencyAlert) error {
	var guardUser models.User
	if err := s.DB.First(&guardUser, guard.UserID).Error; err != nil {
		return err
	}

	var admins []models.User
	query := s.DB.Where("role IN ?", []models.UserRole{models.RoleAdmin, models.RoleSuperAdmin})
	if guardUser.CompanyID > 0 {
		query = query.Where("company_id = ?", guardUser.CompanyID)
	}
	if err := query.Find(&admins).Error; err != nil {
		return err
	}
	if len(admins) == 0 {
		return nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"alert_id":   alert.ID,
		"guard_id":   guard.ID,
		"guard_name": guard.Name,
		"type":       alert.Type,
		"severity":   alert.Severity,
		"latitude":   alert.Latitude,
		"longitude":  alert.Longitude,
	})
	if err != nil {
		return err
	}

	notifications := make([]models.Notification, 0, len(admins))
	for _, admin := range admins {
		notifications = append(notifications, models.Notification{
			UserID:  admin.ID,
			Type:    models.NotificationTypeEmergency,
			Title:   fmt.Sprintf("紧急告警: %s", alert.Type),
			Content: fmt.Sprintf("保安 %s 触发了%s告警", guard.Name, alert.Severity),
			Payload: datatypes.JSON(payload),
		})
	}

	return s.DB.Create(&notifications).Error
}

// 2 Acknowledge 确认告警，重复确认不覆盖首次确认信息
func (s *EmergencyService) Acknowledge(alertID, byUserID uint) (*models.EmergencyAlert, error) {
	alert, err := s.GetAlertByID(alertID)
	if err != nil {
		return nil, err
	}

	if alert.Status.IsTerminal() {
		return nil, ErrAlertTerminal
	}

	// 首次确认生效，后续调用直接返回当前状态
	if alert.Status == models.AlertStatusAcknowledged {
		return alert, nil
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":          models.AlertStatusAcknowledged,
		"acknowledged_at": &now,
		"acknowledged_by": &byUserID,
	}
	if err := s.DB.Model(alert).Updates(updates).Error; err != nil {
		return nil, err
	}

	alert.Status = models.AlertStatusAcknowledged
	alert.AcknowledgedAt = &now
	alert.AcknowledgedBy = &byUserID
	return alert, nil
}

// 3 Resolve 处理告警，处理说明必填，已完结的告警不允许再处理
func (s *EmergencyService) Resolve(alertID, byUserID uint, resolution string, falseAlarm bool) (*models.EmergencyAlert, error) {
	if resolution == "" {
		return nil, ErrResolutionEmpty
	}

	alert, err := s.GetAlertByID(alertID)
	if err != nil {
		return nil, err
	}

	if alert.Status.IsTerminal() {
		return nil, ErrAlertTerminal
	}

	status := models.AlertStatusResolved
	if falseAlarm {
		status = models.AlertStatusFalseAlarm
	}

	now := time.Now()
	finalResolution := resolution
	if alert.Resolution != "" {
		finalResolution = alert.Resolution + "\n" + resolution
	}

	updates := map[string]interface{}{
		"status":      status,
		"resolved_at": &now,
		"resolved_by": &byUserID,
		"resolution":  finalResolution,
	}
	if err := s.DB.Model(alert).Updates(updates).Error; err != nil {
		return nil, err
	}

	alert.Status = status
	alert.ResolvedAt = &now
	alert.ResolvedBy = &byUserID
	alert.Resolution = finalResolution
	return alert, nil
}

// 4 GetAlertByID 根据ID获取告警
func (s *EmergencyService) GetAlertByID(alertID uint) (*models.EmergencyAlert, error) {
	var alert models.EmergencyAlert
	if err := s.DB.Preload("Guard").First(&alert, alertID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("告警不存在")
		}
		return nil, err
	}
	return &alert, nil
}

// 5 GetActiveAlerts 获取公司内未完结的告警，按创建时间倒序
func (s *EmergencyService) GetActiveAlerts(companyID uint) ([]models.EmergencyAlert, error) {
	var alerts []models.EmergencyAlert
	query := s.DB.Preload("Guard").
		Joins("JOIN guards ON guards.id = emergency_alerts.guard_id").
		Joins("JOIN users ON users.id = guards.user_id").
		Where("emergency_alerts.status IN ?",
			[]models.EmergencyAlertStatus{models.AlertStatusActive, models.AlertStatusAcknowledged})
	if companyID > 0 {
		query = query.Where("users.company_id = ?", companyID)
	}
	if err := query.Order("emergency_alerts.created_at DESC").Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// 6 GetGuardAlertHistory 获取保安的历史告警，最多返回50条
func (s *EmergencyService) GetGuardAlertHistory(guardRef uint, limit int) ([]models.EmergencyAlert, error) {
	guard, err := s.Tracking.ResolveGuard(guardRef)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > MaxAlertHistoryLimit {
		limit = MaxAlertHistoryLimit
	}

	var alerts []models.EmergencyAlert
	if err := s.DB.Where("guard_id = ?", guard.ID).
		Order("created_at DESC").
		Limit(limit).
		Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// 7 GetStatistics 获取紧急告警统计数据
func (s *EmergencyService) GetStatistics(companyID uint, since time.Time) (*EmergencyStatistics, error) {
	stats := &EmergencyStatistics{
		ByStatus:   make(map[string]int64),
		ByType:     make(map[string]int64),
		BySeverity: make(map[string]int64),
		Since:      since,
	}

	baseQuery := func() *gorm.DB {
		query := s.DB.Model(&models.EmergencyAlert{}).
			Joins("JOIN guards ON guards.id = emergency_alerts.guard_id").
			Joins("JOIN users ON users.id = guards.user_id").
			Where("emergency_alerts.created_at >= ?", since)
		if companyID > 0 {
			query = query.Where("users.company_id = ?", companyID)
		}
		return query
	}

	if err := baseQuery().Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	type groupCount struct {
		Key   string
		Count int64
	}

	var statusCounts []groupCount
	if err := baseQuery().
		Select("emergency_alerts.status as key, COUNT(*) as count").
		Group("emergency_alerts.status").
		Scan(&statusCounts).Error; err != nil {
		return nil, err
	}
	for _, c := range statusCounts {
		stats.ByStatus[c.Key] = c.Count
	}

	var typeCounts []groupCount
	if err := baseQuery().
		Select("emergency_alerts.type as key, COUNT(*) as count").
		Group("emergency_alerts.type").
		Scan(&typeCounts).Error; err != nil {
		return nil, err
	}
	for _, c := range typeCounts {
		stats.ByType[c.Key] = c.Count
	}

	var severityCounts []groupCount
	if err := baseQuery().
		Select("emergency_alerts.severity as key, COUNT(*) as count").
		Group("emergency_alerts.severity").
		Scan(&severityCounts).Error; err != nil {
		return nil, err
	}
	for _, c := range severityCounts {
		stats.BySeverity[c.Key] = c.Count
	}

	// 平均响应时长，从触发到确认
	var acknowledged []models.EmergencyAlert
	if err := baseQuery().
		Where("emergency_alerts.acknowledged_at IS NOT NULL").
		Find(&acknowledged).Error; err != nil {
		return nil, err
	}
	if len(acknowledged) > 0 {
		var total float64
		for _, alert := range acknowledged {
			total += alert.AcknowledgedAt.Sub(alert.CreatedAt).Seconds()
		}
		stats.AvgResponseSeconds = total / float64(len(acknowledged))
	}

	return stats, nil
}
