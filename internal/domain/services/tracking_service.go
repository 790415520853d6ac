package services

import (
	"errors"
	"fmt"
	"ipatrol-http-service/internal/domain/models"
	"ipatrol-http-service/internal/infrastructure/config"
	"ipatrol-http-service/pkg/logger"
	"time"

	"gorm.io/gorm"
)

// MaxHistoryLimit 单次查询轨迹记录的最大条数
const MaxHistoryLimit = 100

// InterfaceTrackingService defines the tracking service interface
type InterfaceTrackingService interface {
	RecordLocation(guardRef uint, input *LocationInput) (*models.LocationRecord, error)
	GetLocationHistory(guardRef uint, from, to *time.Time, limit int) ([]models.LocationRecord, error)
	GetLatestLocation(guardRef uint) (*models.LocationRecord, error)
	GetActiveGuardsLocations(companyID uint) ([]ActiveGuardLocation, error)
	RecordGeofenceEvent(guardRef uint, input *GeofenceEventInput) (*models.GeofenceEvent, error)
	GetGeofenceEvents(guardRef uint, from, to *time.Time, limit int) ([]models.GeofenceEvent, error)
	CheckLocationInGeofences(guardRef uint, lat, lon float64) ([]GeofenceResult, error)
	GetTrackingAnalytics(companyID uint, since time.Time) (*TrackingAnalytics, error)
	PurgeOldRecords() (int64, error)
	ResolveGuard(guardRef uint) (*models.Guard, error)
}

// LocationInput 上报定位的参数
type LocationInput struct {
	Latitude     float64    `json:"latitude"`
	Longitude    float64    `json:"longitude"`
	Accuracy     *float64   `json:"accuracy"`
	BatteryLevel *int       `json:"battery_level"`
	Timestamp    *time.Time `json:"timestamp"`
}

// GeofenceEventInput 上报围栏事件的参数
type GeofenceEventInput struct {
	GeofenceID uint       `json:"geofence_id"`
	EventType  string     `json:"event_type"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Accuracy   *float64   `json:"accuracy"`
	Timestamp  *time.Time `json:"timestamp"`
}

// ActiveGuardLocation 在岗保安及其最新位置
type ActiveGuardLocation struct {
	GuardID     uint                   `json:"guard_id"`
	Name        string                 `json:"name"`
	BadgeNumber string                 `json:"badge_number"`
	Location    *models.LocationRecord `json:"location"`
}

// AccuracyStats 定位精度统计，只统计带精度的记录
type AccuracyStats struct {
	Avg float64 `json:"avg"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// TrackingAnalytics 轨迹统计数据
type TrackingAnalytics struct {
	TotalRecords    int64            `json:"total_records"`
	ActiveGuards    int64            `json:"active_guards"`
	ReportingGuards int64            `json:"reporting_guards"`
	GeofenceEvents  int64            `json:"geofence_events"`
	EventsByType    map[string]int64 `json:"events_by_type"`
	RecordsPerGuard float64          `json:"records_per_guard"`
	RecordsPerDay   map[string]int64 `json:"records_per_day"`
	Accuracy        *AccuracyStats   `json:"accuracy"`
	Since           time.Time        `json:"since"`
}

// TrackingService 提供保安定位轨迹相关的服务
type TrackingService struct {
	DB     *gorm.DB
	Config *config.Config
	Redis  InterfaceRedisService
}

// NewTrackingService 创建一个新的轨迹服务
func NewTrackingService(db *gorm.DB, cfg *config.Config, redis InterfaceRedisService) InterfaceTrackingService {
	return &TrackingService{
		DB:     db,
		Config: cfg,
		Redis:  redis,
	}
}

// 1 ResolveGuard 解析保安引用，入参可以是保安ID，也可以是保安账号的用户ID
func (s *TrackingService) ResolveGuard(guardRef uint) (*models.Guard, error) {
	var guard models.Guard
	if err := s.DB.First(&guard, guardRef).Error; err == nil {
		return &guard, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 按用户ID再查一次
	if err := s.DB.Where("user_id = ?", guardRef).First(&guard).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("保安不存在")
		}
		return nil, err
	}
	return &guard, nil
}

// 2 RecordLocation 记录保安上报的定位
func (s *TrackingService) RecordLocation(guardRef uint, input *LocationInput) (*models.LocationRecord, error) {
	if input.Latitude < -90 || input.Latitude > 90 || input.Longitude < -180 || input.Longitude > 180 {
		return nil, errors.New("定位坐标无效")
	}

	guard, err := s.ResolveGuard(guardRef)
	if err != nil {
		return nil, err
	}

	timestamp := time.Now()
	if input.Timestamp != nil {
		timestamp = *input.Timestamp
	}

	record := &models.LocationRecord{
		GuardID:      guard.ID,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		Accuracy:     input.Accuracy,
		BatteryLevel: input.BatteryLevel,
		Timestamp:    timestamp,
	}

	if err := s.DB.Create(record).Error; err != nil {
		return nil, err
	}

	// 缓存最新位置，失败不影响主流程
	if s.Redis != nil {
		if err := s.Redis.CacheLatestLocation(record, 10*time.Minute); err != nil {
			logger.Warning("缓存保安 %d 最新位置失败: %v", guard.ID, err)
		}
	}

	return record, nil
}

// 3 GetLocationHistory 获取保安的历史轨迹，按时间倒序，最多返回100条
func (s *TrackingService) GetLocationHistory(guardRef uint, from, to *time.Time, limit int) ([]models.LocationRecord, error) {
	guard, err := s.ResolveGuard(guardRef)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	query := s.DB.Where("guard_id = ?", guard.ID)
	if from != nil {
		query = query.Where("timestamp >= ?", *from)
	}
	if to != nil {
		query = query.Where("timestamp <= ?", *to)
	}

	var records []models.LocationRecord
	if err := query.Order("timestamp DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// 4 GetLatestLocation 获取保安的最新位置，优先读缓存
func (s *TrackingService) GetLatestLocation(guardRef uint) (*models.LocationRecord, error) {
	guard, err := s.ResolveGuard(guardRef)
	if err != nil {
		return nil, err
	}

	if s.Redis != nil {
		if record, err := s.Redis.GetLatestLocation(guard.ID); err == nil {
			return record, nil
		}
	}

	var record models.LocationRecord
	if err := s.DB.Where("guard_id = ?", guard.ID).
		Order("timestamp DESC").
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("定位记录不存在")
		}
		return nil, err
	}
	return &record, nil
}

// 5 GetActiveGuardsLocations 获取公司内所有在岗保安的最新位置
func (s *TrackingService) GetActiveGuardsLocations(companyID uint) ([]ActiveGuardLocation, error) {
	var guards []models.Guard
	query := s.DB.Joins("JOIN users ON users.id = guards.user_id").
		Where("guards.on_duty = ?", true)
	if companyID > 0 {
		query = query.Where("users.company_id = ?", companyID)
	}
	if err := query.Find(&guards).Error; err != nil {
		return nil, err
	}

	result := make([]ActiveGuardLocation, 0, len(guards))
	for _, guard := range guards {
		entry := ActiveGuardLocation{
			GuardID:     guard.ID,
			Name:        guard.Name,
			BadgeNumber: guard.BadgeNumber,
		}

		var record models.LocationRecord
		err := s.DB.Where("guard_id = ?", guard.ID).
			Order("timestamp DESC").
			First(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 没有上报过位置的保安不进入列表
			continue
		}
		if err != nil {
			return nil, err
		}
		entry.Location = &record

		result = append(result, entry)
	}
	return result, nil
}

// 6 RecordGeofenceEvent 记录保安的围栏进出事件
func (s *TrackingService) RecordGeofenceEvent(guardRef uint, input *GeofenceEventInput) (*models.GeofenceEvent, error) {
	eventType := models.GeofenceEventType(input.EventType)
	if eventType != models.GeofenceEventEnter && eventType != models.GeofenceEventExit {
		return nil, errors.New("围栏事件类型无效")
	}

	guard, err := s.ResolveGuard(guardRef)
	if err != nil {
		return nil, err
	}

	// 校验围栏对应的站点存在
	var site models.Site
	if err := s.DB.First(&site, input.GeofenceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("站点不存在")
		}
		return nil, err
	}

	timestamp := time.Now()
	if input.Timestamp != nil {
		timestamp = *input.Timestamp
	}

	event := &models.GeofenceEvent{
		GuardID:    guard.ID,
		GeofenceID: site.ID,
		EventType:  eventType,
		Latitude:   input.Latitude,
		Longitude:  input.Longitude,
		Accuracy:   input.Accuracy,
		Timestamp:  timestamp,
	}

	if err := s.DB.Create(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

// 7 GetGeofenceEvents 获取保安的围栏事件记录，按时间倒序
func (s *TrackingService) GetGeofenceEvents(guardRef uint, from, to *time.Time, limit int) ([]models.GeofenceEvent, error) {
	guard, err := s.ResolveGuard(guardRef)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	query := s.DB.Where("guard_id = ?", guard.ID)
	if from != nil {
		query = query.Where("timestamp >= ?", *from)
	}
	if to != nil {
		query = query.Where("timestamp <= ?", *to)
	}

	var events []models.GeofenceEvent
	if err := query.Order("timestamp DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// 8 CheckLocationInGeofences 检查坐标相对保安当前排班站点围栏的位置
func (s *TrackingService) CheckLocationInGeofences(guardRef uint, lat, lon float64) ([]GeofenceResult, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, errors.New("定位坐标无效")
	}

	guard, err := s.ResolveGuard(guardRef)
	if err != nil {
		return nil, err
	}

	// 取保安当前有效排班及其站点
	var shifts []models.Shift
	if err := s.DB.Preload("Site").
		Where("guard_id = ? AND status IN ?", guard.ID,
			[]models.ShiftStatus{models.ShiftStatusScheduled, models.ShiftStatusInProgress}).
		Find(&shifts).Error; err != nil {
		return nil, err
	}

	results := make([]GeofenceResult, 0, len(shifts))
	for _, shift := range shifts {
		if shift.Site == nil {
			continue
		}
		radius := shift.Site.GeofenceRadius
		if radius <= 0 {
			radius = models.DefaultGeofenceRadius
		}
		distance, inside := EvaluateGeofence(lat, lon, shift.Site.Latitude, shift.Site.Longitude, radius)
		results = append(results, GeofenceResult{
			ShiftID:  shift.ID,
			SiteID:   shift.Site.ID,
			SiteName: shift.Site.Name,
			Distance: distance,
			Radius:   radius,
			Inside:   inside,
		})
	}
	return results, nil
}

// 9 GetTrackingAnalytics 获取轨迹统计数据
func (s *TrackingService) GetTrackingAnalytics(companyID uint, since time.Time) (*TrackingAnalytics, error) {
	analytics := &TrackingAnalytics{
		EventsByType:  make(map[string]int64),
		RecordsPerDay: make(map[string]int64),
		Since:         since,
	}

	guardScope := func(db *gorm.DB, column string) *gorm.DB {
		scoped := db.Joins(fmt.Sprintf("JOIN guards ON guards.id = %s", column)).
			Joins("JOIN users ON users.id = guards.user_id")
		if companyID > 0 {
			scoped = scoped.Where("users.company_id = ?", companyID)
		}
		return scoped
	}

	// 定位记录总数
	query := guardScope(s.DB.Model(&models.LocationRecord{}), "location_records.guard_id").
		Where("location_records.timestamp >= ?", since)
	if err := query.Count(&analytics.TotalRecords).Error; err != nil {
		return nil, err
	}

	// 在岗保安数
	activeQuery := s.DB.Model(&models.Guard{}).
		Joins("JOIN users ON users.id = guards.user_id").
		Where("guards.on_duty = ?", true)
	if companyID > 0 {
		activeQuery = activeQuery.Where("users.company_id = ?", companyID)
	}
	if err := activeQuery.Count(&analytics.ActiveGuards).Error; err != nil {
		return nil, err
	}

	// 有上报记录的保安数
	reportingQuery := guardScope(s.DB.Model(&models.LocationRecord{}), "location_records.guard_id").
		Where("location_records.timestamp >= ?", since).
		Distinct("location_records.guard_id")
	if err := reportingQuery.Count(&analytics.ReportingGuards).Error; err != nil {
		return nil, err
	}

	// 围栏事件按类型统计
	type eventCount struct {
		EventType string
		Count     int64
	}
	var counts []eventCount
	eventQuery := guardScope(s.DB.Model(&models.GeofenceEvent{}), "geofence_events.guard_id").
		Where("geofence_events.timestamp >= ?", since).
		Select("geofence_events.event_type as event_type, COUNT(*) as count").
		Group("geofence_events.event_type")
	if err := eventQuery.Scan(&counts).Error; err != nil {
		return nil, err
	}
	for _, c := range counts {
		analytics.EventsByType[c.EventType] = c.Count
		analytics.GeofenceEvents += c.Count
	}

	// 按天统计上报数量
	type dayCount struct {
		Day   string
		Count int64
	}
	var days []dayCount
	dayQuery := guardScope(s.DB.Model(&models.LocationRecord{}), "location_records.guard_id").
		Where("location_records.timestamp >= ?", since).
		Select("date(location_records.timestamp) as day, COUNT(*) as count").
		Group("date(location_records.timestamp)")
	if err := dayQuery.Scan(&days).Error; err != nil {
		return nil, err
	}
	for _, d := range days {
		analytics.RecordsPerDay[d.Day] = d.Count
	}

	// 定位精度统计，没有填精度的记录不参与
	type accuracyRow struct {
		Avg *float64
		Min *float64
		Max *float64
	}
	var acc accuracyRow
	accuracyQuery := guardScope(s.DB.Model(&models.LocationRecord{}), "location_records.guard_id").
		Where("location_records.timestamp >= ? AND location_records.accuracy IS NOT NULL", since).
		Select("AVG(location_records.accuracy) as avg, MIN(location_records.accuracy) as min, MAX(location_records.accuracy) as max")
	if err := accuracyQuery.Scan(&acc).Error; err != nil {
		return nil, err
	}
	if acc.Avg != nil {
		analytics.Accuracy = &AccuracyStats{Avg: *acc.Avg, Min: *acc.Min, Max: *acc.Max}
	}

	if analytics.ReportingGuards > 0 {
		analytics.RecordsPerGuard = float64(analytics.TotalRecords) / float64(analytics.ReportingGuards)
	}

	return analytics, nil
}

// 10 PurgeOldRecords 清理超过保留期限的定位记录
func (s *TrackingService) PurgeOldRecords() (int64, error) {
	retentionDays := s.Config.LocationRetentionDays
	if retentionDays <= 0 {
		retentionDays = 30
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	result := s.DB.Where("timestamp < ?", cutoff).Delete(&models.LocationRecord{})
	if result.Error != nil {
		return 0, result.Error
	}

	if result.RowsAffected > 0 {
		logger.Info("已清理 %d 条过期定位记录", result.RowsAffected)
	}
	return result.RowsAffected, nil
}
