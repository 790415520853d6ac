package services

import (
	"ipatrol-http-service/internal/domain/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveGuard(t *testing.T) {
	db := setupTestDB(t)
	service := NewTrackingService(db, testConfig(), nil)

	company := seedCompany(t, db, "解析测试公司")
	// 先创建一个管理员，让保安的用户ID和保安ID错开
	seedAdmin(t, db, company.ID, "13800000001")
	guard := seedGuard(t, db, company.ID, "G-001")
	require.NotEqual(t, guard.ID, guard.UserID)

	t.Run("按保安ID解析", func(t *testing.T) {
		resolved, err := service.ResolveGuard(guard.ID)
		require.NoError(t, err)
		assert.Equal(t, guard.ID, resolved.ID)
	})

	t.Run("按用户ID兜底解析", func(t *testing.T) {
		resolved, err := service.ResolveGuard(guard.UserID)
		require.NoError(t, err)
		assert.Equal(t, guard.ID, resolved.ID)
	})

	t.Run("两种引用都查不到时报错", func(t *testing.T) {
		_, err := service.ResolveGuard(9999)
		require.Error(t, err)
		assert.Equal(t, "保安不存在", err.Error())
	})
}

func TestRecordLocation(t *testing.T) {
	db := setupTestDB(t)
	service := NewTrackingService(db, testConfig(), nil)

	company := seedCompany(t, db, "定位测试公司")
	guard := seedGuard(t, db, company.ID, "G-100")

	t.Run("正常上报入库", func(t *testing.T) {
		accuracy := 8.5
		battery := 76
		record, err := service.RecordLocation(guard.ID, &LocationInput{
			Latitude:     31.2304,
			Longitude:    121.4737,
			Accuracy:     &accuracy,
			BatteryLevel: &battery,
		})
		require.NoError(t, err)
		assert.Equal(t, guard.ID, record.GuardID)
		assert.NotZero(t, record.ID)
		assert.False(t, record.Timestamp.IsZero())

		var count int64
		db.Model(&models.LocationRecord{}).Where("guard_id = ?", guard.ID).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("非法坐标被拒绝", func(t *testing.T) {
		_, err := service.RecordLocation(guard.ID, &LocationInput{Latitude: 91, Longitude: 121})
		require.Error(t, err)
		assert.Equal(t, "定位坐标无效", err.Error())

		_, err = service.RecordLocation(guard.ID, &LocationInput{Latitude: 31, Longitude: -181})
		require.Error(t, err)
	})

	t.Run("携带设备时间戳时以设备时间为准", func(t *testing.T) {
		deviceTime := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
		record, err := service.RecordLocation(guard.ID, &LocationInput{
			Latitude:  31.0,
			Longitude: 121.0,
			Timestamp: &deviceTime,
		})
		require.NoError(t, err)
		assert.True(t, record.Timestamp.Equal(deviceTime))
	})
}

func TestGetLocationHistory(t *testing.T) {
	db := setupTestDB(t)
	service := NewTrackingService(db, testConfig(), nil)

	company := seedCompany(t, db, "轨迹测试公司")
	guard := seedGuard(t, db, company.ID, "G-200")

	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		_, err := service.RecordLocation(guard.ID, &LocationInput{
			Latitude:  31.0 + float64(i)*0.001,
			Longitude: 121.0,
			Timestamp: &ts,
		})
		require.NoError(t, err)
	}

	t.Run("按时间倒序返回", func(t *testing.T) {
		records, err := service.GetLocationHistory(guard.ID, nil, nil, 10)
		require.NoError(t, err)
		require.Len(t, records, 5)
		for i := 1; i < len(records); i++ {
			assert.True(t, !records[i].Timestamp.After(records[i-1].Timestamp))
		}
	})

	t.Run("limit限制返回条数", func(t *testing.T) {
		records, err := service.GetLocationHistory(guard.ID, nil, nil, 3)
		require.NoError(t, err)
		require.Len(t, records, 3)
		// 最新的记录排在最前
		assert.True(t, records[0].Timestamp.Equal(base.Add(4*time.Minute)))
	})

	t.Run("时间范围过滤", func(t *testing.T) {
		from := base.Add(1 * time.Minute)
		to := base.Add(3 * time.Minute)
		records, err := service.GetLocationHistory(guard.ID, &from, &to, 10)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.True(t, records[0].Timestamp.Equal(to))
		assert.True(t, records[2].Timestamp.Equal(from))
	})

	t.Run("limit非法时回落到上限", func(t *testing.T) {
		records, err := service.GetLocationHistory(guard.ID, nil, nil, -1)
		require.NoError(t, err)
		assert.Len(t, records, 5)

		records, err = service.GetLocationHistory(guard.ID, nil, nil, MaxHistoryLimit+1)
		require.NoError(t, err)
		assert.Len(t, records, 5)
	})
}

func TestGetLatestLocation(t *testing.T) {
	db := setupTestDB(t)
	service := NewTrackingService(db, testConfig(), nil)

	company := seedCompany(t, db, "最新位置测试公司")
	guard := seedGuard(t, db, company.ID, "G-300")

	t.Run("无记录时报错", func(t *testing.T) {
		_, err := service.GetLatestLocation(guard.ID)
		require.Error(t, err)
		assert.Equal(t, "定位记录不存在", err.Error())
	})

	t.Run("返回时间最新的记录", func(t *testing.T) {
		earlier := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
		later := time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC)

		_, err := service.RecordLocation(guard.ID, &LocationInput{Latitude: 31.0, Longitude: 121.0, Timestamp: &earlier})
		require.NoError(t, err)
		_, err = service.RecordLocation(guard.ID, &LocationInput{Latitude: 31.5, Longitude: 121.5, Timestamp: &later})
		require.NoError(t, err)

		record, err := service.GetLatestLocation(guard.ID)
		require.NoError(t, err)
		assert.Equal(t, 31.5, record.Latitude)
		assert.True(t, record.Timestamp.Equal(later))
	})
}

func TestRecordGeofenceEvent(t *testing.T) {
	db := setupTestDB(t)
	service := NewTrackingService(db, testConfig(), nil)

	company := seedCompany(t, db, "围栏测试公司")
	guard := seedGuard(t, db, company.ID, "G-400")
	site := seedSite(t, db, company.ID, 31.0, 121.0, 150)

	t.Run("进入事件入库", func(t *testing.T) {
		event, err := service.RecordGeofenceEvent(guard.ID, &GeofenceEventInput{
			GeofenceID: site.ID,
			EventType:  "enter",
			Latitude:   31.0001,
			Longitude:  121.0001,
		})
		require.NoError(t, err)
		assert.Equal(t, models.GeofenceEventEnter, event.EventType)
		assert.Equal(t, site.ID, event.GeofenceID)
	})

	t.Run("非法事件类型被拒绝", func(t *testing.T) {
		_, err := service.RecordGeofenceEvent(guard.ID, &GeofenceEventInput{
			GeofenceID: site.ID,
			EventType:  "hover",
		})
		require.Error(t, err)
		assert.Equal(t, "围栏事件类型无效", err.Error())
	})

	t.Run("站点不存在时被拒绝", func(t *testing.T) {
		_, err := service.RecordGeofenceEvent(guard.ID, &GeofenceEventInput{
			GeofenceID: 9999,
			EventType:  "exit",
		})
		require.Error(t, err)
		assert.Equal(t, "站点不存在", err.Error())
	})
}

func TestCheckLocationInGeofences(t *testing.T) {
	db := setupTestDB(t)
	service := NewTrackingService(db, testConfig(), nil)

	company := seedCompany(t, db, "围栏检查测试公司")
	guard := seedGuard(t, db, company.ID, "G-500")
	site := seedSite(t, db, company.ID, 31.0, 121.0, 200)

	// 保安有一条进行中的排班才会参与检查
	shift := &models.Shift{
		GuardID:   guard.ID,
		SiteID:    site.ID,
		StartTime: time.Now().Add(-time.Hour),
		EndTime:   time.Now().Add(time.Hour),
		Status:    models.ShiftStatusInProgress,
	}
	require.NoError(t, db.Create(shift).Error)

	t.Run("站点圆心处在围栏内", func(t *testing.T) {
		results, err := service.CheckLocationInGeofences(guard.ID, 31.0, 121.0)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.True(t, results[0].Inside)
		assert.Equal(t, shift.ID, results[0].ShiftID)
		assert.Equal(t, site.ID, results[0].SiteID)
		assert.Equal(t, 200.0, results[0].Radius)
	})

	t.Run("远处坐标在围栏外", func(t *testing.T) {
		results, err := service.CheckLocationInGeofences(guard.ID, 31.1, 121.1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.False(t, results[0].Inside)
		assert.Greater(t, results[0].Distance, 200.0)
	})

	t.Run("无有效排班时返回空结果", func(t *testing.T) {
		other := seedGuard(t, db, company.ID, "G-501")
		results, err := service.CheckLocationInGeofences(other.ID, 31.0, 121.0)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("零值坐标是合法输入", func(t *testing.T) {
		results, err := service.CheckLocationInGeofences(guard.ID, 0, 0)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.False(t, results[0].Inside)
	})
}

func TestGetActiveGuardsLocations(t *testing.T) {
	db := setupTestDB(t)
	service := NewTrackingService(db, testConfig(), nil)

	companyA := seedCompany(t, db, "公司A")
	companyB := seedCompany(t, db, "公司B")
	guardA := seedGuard(t, db, companyA.ID, "A-001")
	guardB := seedGuard(t, db, companyB.ID, "B-001")

	// guardA 下班
	offDuty := seedGuard(t, db, companyA.ID, "A-002")
	require.NoError(t, db.Model(&models.Guard{}).Where("id = ?", offDuty.ID).Update("on_duty", false).Error)

	_, err := service.RecordLocation(guardA.ID, &LocationInput{Latitude: 31.0, Longitude: 121.0})
	require.NoError(t, err)

	t.Run("按公司过滤在岗保安", func(t *testing.T) {
		locations, err := service.GetActiveGuardsLocations(companyA.ID)
		require.NoError(t, err)
		require.Len(t, locations, 1)
		assert.Equal(t, guardA.ID, locations[0].GuardID)
		require.NotNil(t, locations[0].Location)
		assert.Equal(t, 31.0, locations[0].Location.Latitude)
	})

	t.Run("无定位记录的保安不进入列表", func(t *testing.T) {
		locations, err := service.GetActiveGuardsLocations(companyB.ID)
		require.NoError(t, err)
		assert.Empty(t, locations)
	})

	t.Run("companyID为0时返回全部有记录的在岗保安", func(t *testing.T) {
		_, err := service.RecordLocation(guardB.ID, &LocationInput{Latitude: 30.0, Longitude: 120.0})
		require.NoError(t, err)

		locations, err := service.GetActiveGuardsLocations(0)
		require.NoError(t, err)
		assert.Len(t, locations, 2)
	})
}

func TestPurgeOldRecords(t *testing.T) {
	db := setupTestDB(t)
	service := NewTrackingService(db, testConfig(), nil)

	company := seedCompany(t, db, "清理测试公司")
	guard := seedGuard(t, db, company.ID, "G-501")

	stale := models.LocationRecord{
		GuardID:   guard.ID,
		Latitude:  31.23,
		Longitude: 121.47,
		Timestamp: time.Now().AddDate(0, 0, -100),
	}
	require.NoError(t, db.Create(&stale).Error)
	fresh := models.LocationRecord{
		GuardID:   guard.ID,
		Latitude:  31.24,
		Longitude: 121.48,
		Timestamp: time.Now().Add(-time.Hour),
	}
	require.NoError(t, db.Create(&fresh).Error)

	deleted, err := service.PurgeOldRecords()
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining []models.LocationRecord
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, fresh.ID, remaining[0].ID)
}

func TestGetTrackingAnalytics(t *testing.T) {
	db := setupTestDB(t)
	service := NewTrackingService(db, testConfig(), nil)

	company := seedCompany(t, db, "统计测试公司")
	guard := seedGuard(t, db, company.ID, "G-600")

	day1 := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC)
	acc1, acc2 := 5.0, 15.0

	samples := []LocationInput{
		{Latitude: 31.0, Longitude: 121.0, Accuracy: &acc1, Timestamp: &day1},
		{Latitude: 31.1, Longitude: 121.1, Accuracy: &acc2, Timestamp: &day2},
		{Latitude: 31.2, Longitude: 121.2, Timestamp: &day2}, // 无精度，不参与精度统计
	}
	for i := range samples {
		_, err := service.RecordLocation(guard.ID, &samples[i])
		require.NoError(t, err)
	}

	since := day1.AddDate(0, 0, -1)
	analytics, err := service.GetTrackingAnalytics(company.ID, since)
	require.NoError(t, err)

	assert.Equal(t, int64(3), analytics.TotalRecords)
	assert.Equal(t, int64(1), analytics.ReportingGuards)

	// 按天分组
	assert.Equal(t, int64(1), analytics.RecordsPerDay["2026-08-20"])
	assert.Equal(t, int64(2), analytics.RecordsPerDay["2026-08-21"])

	// 精度聚合只统计带精度的记录
	require.NotNil(t, analytics.Accuracy)
	assert.InDelta(t, 10.0, analytics.Accuracy.Avg, 1e-9)
	assert.Equal(t, 5.0, analytics.Accuracy.Min)
	assert.Equal(t, 15.0, analytics.Accuracy.Max)
}

func TestGetGeofenceEventsTimeRange(t *testing.T) {
	db := setupTestDB(t)
	service := NewTrackingService(db, testConfig(), nil)

	company := seedCompany(t, db, "围栏事件范围公司")
	guard := seedGuard(t, db, company.ID, "G-700")
	site := seedSite(t, db, company.ID, 31.0, 121.0, 100)

	base := time.Date(2026, 8, 10, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		ts := base.Add(time.Duration(i) * time.Hour)
		_, err := service.RecordGeofenceEvent(guard.ID, &GeofenceEventInput{
			GeofenceID: site.ID,
			EventType:  "enter",
			Latitude:   31.0,
			Longitude:  121.0,
			Timestamp:  &ts,
		})
		require.NoError(t, err)
	}

	from := base.Add(1 * time.Hour)
	to := base.Add(2 * time.Hour)
	events, err := service.GetGeofenceEvents(guard.ID, &from, &to, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].Timestamp.Equal(to))
	assert.True(t, events[1].Timestamp.Equal(from))
}
