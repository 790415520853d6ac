package services

import (
	"ipatrol-http-service/internal/domain/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedShift(t *testing.T, db *gorm.DB, guardID, siteID uint, status models.ShiftStatus) *models.Shift {
	t.Helper()

	shift := &models.Shift{
		GuardID:   guardID,
		SiteID:    siteID,
		StartTime: time.Now(),
		EndTime:   time.Now().Add(8 * time.Hour),
		Status:    status,
	}
	require.NoError(t, db.Create(shift).Error)
	return shift
}

func TestCreateShift(t *testing.T) {
	db := setupTestDB(t)
	service := NewShiftService(db, testConfig())

	company := seedCompany(t, db, "排班测试公司")
	guard := seedGuard(t, db, company.ID, "S-001")
	site := seedSite(t, db, company.ID, 31.0, 121.0, 100)

	t.Run("正常创建默认状态为scheduled", func(t *testing.T) {
		shift := &models.Shift{
			GuardID:   guard.ID,
			SiteID:    site.ID,
			StartTime: time.Now(),
			EndTime:   time.Now().Add(8 * time.Hour),
		}
		require.NoError(t, service.CreateShift(shift))
		assert.Equal(t, models.ShiftStatusScheduled, shift.Status)
	})

	t.Run("结束时间早于开始时间被拒绝", func(t *testing.T) {
		shift := &models.Shift{
			GuardID:   guard.ID,
			SiteID:    site.ID,
			StartTime: time.Now(),
			EndTime:   time.Now().Add(-time.Hour),
		}
		err := service.CreateShift(shift)
		require.Error(t, err)
		assert.Equal(t, "排班结束时间不能早于开始时间", err.Error())
	})

	t.Run("保安或站点不存在被拒绝", func(t *testing.T) {
		err := service.CreateShift(&models.Shift{
			GuardID:   9999,
			SiteID:    site.ID,
			StartTime: time.Now(),
			EndTime:   time.Now().Add(time.Hour),
		})
		require.Error(t, err)
		assert.Equal(t, "保安不存在", err.Error())

		err = service.CreateShift(&models.Shift{
			GuardID:   guard.ID,
			SiteID:    9999,
			StartTime: time.Now(),
			EndTime:   time.Now().Add(time.Hour),
		})
		require.Error(t, err)
		assert.Equal(t, "站点不存在", err.Error())
	})
}

func TestUpdateShiftStatus(t *testing.T) {
	db := setupTestDB(t)
	service := NewShiftService(db, testConfig())

	company := seedCompany(t, db, "排班流转公司")
	guard := seedGuard(t, db, company.ID, "S-100")
	require.NoError(t, db.Model(&models.Guard{}).Where("id = ?", guard.ID).Update("on_duty", false).Error)
	site := seedSite(t, db, company.ID, 31.0, 121.0, 100)

	t.Run("开始排班后保安自动在岗", func(t *testing.T) {
		shift := seedShift(t, db, guard.ID, site.ID, models.ShiftStatusScheduled)

		updated, err := service.UpdateShiftStatus(shift.ID, models.ShiftStatusInProgress)
		require.NoError(t, err)
		assert.Equal(t, models.ShiftStatusInProgress, updated.Status)

		var g models.Guard
		require.NoError(t, db.First(&g, guard.ID).Error)
		assert.True(t, g.OnDuty)
	})

	t.Run("完成排班后保安自动离岗", func(t *testing.T) {
		var shift models.Shift
		require.NoError(t, db.Where("guard_id = ? AND status = ?", guard.ID, models.ShiftStatusInProgress).First(&shift).Error)

		_, err := service.UpdateShiftStatus(shift.ID, models.ShiftStatusCompleted)
		require.NoError(t, err)

		var g models.Guard
		require.NoError(t, db.First(&g, guard.ID).Error)
		assert.False(t, g.OnDuty)
	})

	t.Run("还有其他进行中排班时保持在岗", func(t *testing.T) {
		first := seedShift(t, db, guard.ID, site.ID, models.ShiftStatusScheduled)
		second := seedShift(t, db, guard.ID, site.ID, models.ShiftStatusScheduled)

		_, err := service.UpdateShiftStatus(first.ID, models.ShiftStatusInProgress)
		require.NoError(t, err)
		_, err = service.UpdateShiftStatus(second.ID, models.ShiftStatusInProgress)
		require.NoError(t, err)

		_, err = service.UpdateShiftStatus(first.ID, models.ShiftStatusCompleted)
		require.NoError(t, err)

		var g models.Guard
		require.NoError(t, db.First(&g, guard.ID).Error)
		assert.True(t, g.OnDuty, "还有进行中排班时不应离岗")

		_, err = service.UpdateShiftStatus(second.ID, models.ShiftStatusCompleted)
		require.NoError(t, err)
		require.NoError(t, db.First(&g, guard.ID).Error)
		assert.False(t, g.OnDuty)
	})

	t.Run("非法流转被拒绝", func(t *testing.T) {
		shift := seedShift(t, db, guard.ID, site.ID, models.ShiftStatusScheduled)

		// scheduled 不能直接 completed
		_, err := service.UpdateShiftStatus(shift.ID, models.ShiftStatusCompleted)
		require.Error(t, err)
		assert.Equal(t, "排班状态流转无效", err.Error())

		// 终态不能再流转
		_, err = service.UpdateShiftStatus(shift.ID, models.ShiftStatusCancelled)
		require.NoError(t, err)
		_, err = service.UpdateShiftStatus(shift.ID, models.ShiftStatusInProgress)
		require.Error(t, err)
	})
}

func TestDeleteShift(t *testing.T) {
	db := setupTestDB(t)
	service := NewShiftService(db, testConfig())

	company := seedCompany(t, db, "排班删除公司")
	guard := seedGuard(t, db, company.ID, "S-200")
	site := seedSite(t, db, company.ID, 31.0, 121.0, 100)

	t.Run("进行中的排班不能删除", func(t *testing.T) {
		shift := seedShift(t, db, guard.ID, site.ID, models.ShiftStatusInProgress)
		err := service.DeleteShift(shift.ID)
		require.Error(t, err)
		assert.Equal(t, "进行中的排班不能删除", err.Error())
	})

	t.Run("已排期的排班可以删除", func(t *testing.T) {
		shift := seedShift(t, db, guard.ID, site.ID, models.ShiftStatusScheduled)
		require.NoError(t, service.DeleteShift(shift.ID))

		_, err := service.GetShiftByID(shift.ID)
		require.Error(t, err)
	})
}
