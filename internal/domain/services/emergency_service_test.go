package services

import (
	"ipatrol-http-service/internal/domain/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newEmergencyTestService(t *testing.T) (InterfaceEmergencyService, *TestFixtures) {
	t.Helper()

	db := setupTestDB(t)
	cfg := testConfig()
	tracking := NewTrackingService(db, cfg, nil)
	service := NewEmergencyService(db, cfg, tracking, nil)

	company := seedCompany(t, db, "告警测试公司")
	return service, &TestFixtures{
		DB:      db,
		Company: company,
		Guard:   seedGuard(t, db, company.ID, "E-001"),
		Admin:   seedAdmin(t, db, company.ID, "13900000001"),
	}
}

// TestFixtures 告警测试用到的固定数据
type TestFixtures struct {
	DB      *gorm.DB
	Company *models.Company
	Guard   *models.Guard
	Admin   *models.User
}

func TestTriggerAlert(t *testing.T) {
	service, fx := newEmergencyTestService(t)

	t.Run("正常触发后状态为active", func(t *testing.T) {
		alert, err := service.Trigger(fx.Guard.ID, &EmergencyInput{
			Type:      "panic",
			Severity:  "critical",
			Message:   "遇到紧急情况",
			Latitude:  31.2304,
			Longitude: 121.4737,
		})
		require.NoError(t, err)
		assert.Equal(t, models.AlertStatusActive, alert.Status)
		assert.Equal(t, models.AlertTypePanic, alert.Type)
		assert.Equal(t, models.AlertSeverityCritical, alert.Severity)
		assert.Equal(t, fx.Guard.ID, alert.GuardID)
	})

	t.Run("缺省级别回落到high", func(t *testing.T) {
		alert, err := service.Trigger(fx.Guard.ID, &EmergencyInput{Type: "medical"})
		require.NoError(t, err)
		assert.Equal(t, models.AlertSeverityHigh, alert.Severity)
	})

	t.Run("非法类型被拒绝", func(t *testing.T) {
		_, err := service.Trigger(fx.Guard.ID, &EmergencyInput{Type: "tornado"})
		require.Error(t, err)
		assert.Equal(t, "告警类型无效", err.Error())
	})

	t.Run("非法级别被拒绝", func(t *testing.T) {
		_, err := service.Trigger(fx.Guard.ID, &EmergencyInput{Type: "panic", Severity: "extreme"})
		require.Error(t, err)
		assert.Equal(t, "告警级别无效", err.Error())
	})

	t.Run("保安不存在时被拒绝", func(t *testing.T) {
		_, err := service.Trigger(9999, &EmergencyInput{Type: "panic"})
		require.Error(t, err)
		assert.Equal(t, "保安不存在", err.Error())
	})

	t.Run("排班归属校验", func(t *testing.T) {
		other := seedGuard(t, fx.DB, fx.Company.ID, "E-002")
		shift := &models.Shift{
			GuardID:   other.ID,
			SiteID:    1,
			StartTime: time.Now(),
			EndTime:   time.Now().Add(time.Hour),
			Status:    models.ShiftStatusInProgress,
		}
		require.NoError(t, fx.DB.Create(shift).Error)

		_, err := service.Trigger(fx.Guard.ID, &EmergencyInput{Type: "panic", ShiftID: &shift.ID})
		require.Error(t, err)
		assert.Equal(t, "排班不属于该保安", err.Error())
	})
}

func TestAlertNotificationFanOut(t *testing.T) {
	service, fx := newEmergencyTestService(t)

	// 再加一个同公司管理员和一个外公司管理员
	seedAdmin(t, fx.DB, fx.Company.ID, "13900000002")
	otherCompany := seedCompany(t, fx.DB, "外部公司")
	outsider := seedAdmin(t, fx.DB, otherCompany.ID, "13900000003")

	_, err := service.Trigger(fx.Guard.ID, &EmergencyInput{Type: "security", Severity: "high"})
	require.NoError(t, err)

	var notifications []models.Notification
	require.NoError(t, fx.DB.Find(&notifications).Error)

	// 本公司两个管理员各一条，外公司管理员没有
	assert.Len(t, notifications, 2)
	for _, n := range notifications {
		assert.NotEqual(t, outsider.ID, n.UserID)
		assert.Equal(t, models.NotificationTypeEmergency, n.Type)
		assert.False(t, n.IsRead)
		assert.Contains(t, string(n.Payload), `"alert_id"`)
	}
}

func TestAcknowledgeAlert(t *testing.T) {
	service, fx := newEmergencyTestService(t)

	alert, err := service.Trigger(fx.Guard.ID, &EmergencyInput{Type: "panic"})
	require.NoError(t, err)

	t.Run("首次确认生效", func(t *testing.T) {
		acked, err := service.Acknowledge(alert.ID, fx.Admin.ID)
		require.NoError(t, err)
		assert.Equal(t, models.AlertStatusAcknowledged, acked.Status)
		require.NotNil(t, acked.AcknowledgedBy)
		assert.Equal(t, fx.Admin.ID, *acked.AcknowledgedBy)
		require.NotNil(t, acked.AcknowledgedAt)
	})

	t.Run("重复确认不覆盖首次信息", func(t *testing.T) {
		second := seedAdmin(t, fx.DB, fx.Company.ID, "13900000009")
		acked, err := service.Acknowledge(alert.ID, second.ID)
		require.NoError(t, err)
		assert.Equal(t, models.AlertStatusAcknowledged, acked.Status)
		require.NotNil(t, acked.AcknowledgedBy)
		assert.Equal(t, fx.Admin.ID, *acked.AcknowledgedBy, "首次确认人不应被覆盖")
	})

	t.Run("完结后确认被拒绝", func(t *testing.T) {
		_, err := service.Resolve(alert.ID, fx.Admin.ID, "已到场处理", false)
		require.NoError(t, err)

		_, err = service.Acknowledge(alert.ID, fx.Admin.ID)
		require.ErrorIs(t, err, ErrAlertTerminal)
	})
}

func TestResolveAlert(t *testing.T) {
	service, fx := newEmergencyTestService(t)

	t.Run("处理说明必填", func(t *testing.T) {
		alert, err := service.Trigger(fx.Guard.ID, &EmergencyInput{Type: "panic"})
		require.NoError(t, err)

		_, err = service.Resolve(alert.ID, fx.Admin.ID, "", false)
		require.ErrorIs(t, err, ErrResolutionEmpty)
	})

	t.Run("正常处理流转到resolved", func(t *testing.T) {
		alert, err := service.Trigger(fx.Guard.ID, &EmergencyInput{Type: "medical"})
		require.NoError(t, err)

		resolved, err := service.Resolve(alert.ID, fx.Admin.ID, "已送医", false)
		require.NoError(t, err)
		assert.Equal(t, models.AlertStatusResolved, resolved.Status)
		assert.Equal(t, "已送医", resolved.Resolution)
		require.NotNil(t, resolved.ResolvedBy)
		assert.Equal(t, fx.Admin.ID, *resolved.ResolvedBy)
	})

	t.Run("误报流转到false_alarm", func(t *testing.T) {
		alert, err := service.Trigger(fx.Guard.ID, &EmergencyInput{Type: "fire"})
		require.NoError(t, err)

		resolved, err := service.Resolve(alert.ID, fx.Admin.ID, "误触按钮", true)
		require.NoError(t, err)
		assert.Equal(t, models.AlertStatusFalseAlarm, resolved.Status)
	})

	t.Run("已完结的告警不允许再处理", func(t *testing.T) {
		alert, err := service.Trigger(fx.Guard.ID, &EmergencyInput{Type: "panic"})
		require.NoError(t, err)

		_, err = service.Resolve(alert.ID, fx.Admin.ID, "处理完毕", false)
		require.NoError(t, err)

		_, err = service.Resolve(alert.ID, fx.Admin.ID, "再处理一次", false)
		require.ErrorIs(t, err, ErrAlertTerminal)
	})
}

func TestGetActiveAlerts(t *testing.T) {
	service, fx := newEmergencyTestService(t)

	otherCompany := seedCompany(t, fx.DB, "隔离测试公司")
	otherGuard := seedGuard(t, fx.DB, otherCompany.ID, "X-001")

	first, err := service.Trigger(fx.Guard.ID, &EmergencyInput{Type: "panic"})
	require.NoError(t, err)
	_, err = service.Trigger(otherGuard.ID, &EmergencyInput{Type: "security"})
	require.NoError(t, err)

	// 确认后的告警仍算未完结
	_, err = service.Acknowledge(first.ID, fx.Admin.ID)
	require.NoError(t, err)

	t.Run("只返回本公司的告警", func(t *testing.T) {
		alerts, err := service.GetActiveAlerts(fx.Company.ID)
		require.NoError(t, err)
		require.Len(t, alerts, 1)
		assert.Equal(t, fx.Guard.ID, alerts[0].GuardID)
		assert.Equal(t, models.AlertStatusAcknowledged, alerts[0].Status)
	})

	t.Run("完结后不再出现在活跃列表", func(t *testing.T) {
		_, err := service.Resolve(first.ID, fx.Admin.ID, "处理完成", false)
		require.NoError(t, err)

		alerts, err := service.GetActiveAlerts(fx.Company.ID)
		require.NoError(t, err)
		assert.Empty(t, alerts)
	})

	t.Run("companyID为0时跨公司返回", func(t *testing.T) {
		alerts, err := service.GetActiveAlerts(0)
		require.NoError(t, err)
		assert.Len(t, alerts, 1)
	})
}

func TestGetStatistics(t *testing.T) {
	service, fx := newEmergencyTestService(t)

	inputs := []EmergencyInput{
		{Type: "panic", Severity: "critical", Latitude: 31.0, Longitude: 121.0},
		{Type: "panic", Severity: "high", Latitude: 31.0, Longitude: 121.0},
		{Type: "medical", Severity: "high", Latitude: 31.0, Longitude: 121.0},
	}
	for i := range inputs {
		_, err := service.Trigger(fx.Guard.ID, &inputs[i])
		require.NoError(t, err)
	}

	stats, err := service.GetStatistics(fx.Company.ID, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(3), stats.ByStatus["active"])
	assert.Equal(t, int64(2), stats.ByType["panic"])
	assert.Equal(t, int64(1), stats.ByType["medical"])

	// 按严重程度分组
	assert.Equal(t, int64(1), stats.BySeverity["critical"])
	assert.Equal(t, int64(2), stats.BySeverity["high"])
}
