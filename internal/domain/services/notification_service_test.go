package services

import (
	"ipatrol-http-service/internal/domain/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedNotification(t *testing.T, db *gorm.DB, userID uint, read bool) *models.Notification {
	t.Helper()

	n := &models.Notification{
		UserID:  userID,
		Type:    models.NotificationTypeSystem,
		Title:   "测试通知",
		Content: "内容",
		IsRead:  read,
	}
	require.NoError(t, db.Create(n).Error)
	return n
}

func TestNotificationService(t *testing.T) {
	db := setupTestDB(t)
	service := NewNotificationService(db, testConfig())

	company := seedCompany(t, db, "通知测试公司")
	owner := seedAdmin(t, db, company.ID, "13500000001")
	other := seedAdmin(t, db, company.ID, "13500000002")

	seedNotification(t, db, owner.ID, false)
	seedNotification(t, db, owner.ID, false)
	seedNotification(t, db, owner.ID, true)
	foreign := seedNotification(t, db, other.ID, false)

	t.Run("只返回自己的通知", func(t *testing.T) {
		notifications, total, err := service.GetUserNotifications(owner.ID, 1, 10, false)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		for _, n := range notifications {
			assert.Equal(t, owner.ID, n.UserID)
		}
	})

	t.Run("unreadOnly过滤已读", func(t *testing.T) {
		_, total, err := service.GetUserNotifications(owner.ID, 1, 10, true)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("未读计数", func(t *testing.T) {
		count, err := service.UnreadCount(owner.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("不能标记别人的通知", func(t *testing.T) {
		err := service.MarkAsRead(foreign.ID, owner.ID)
		require.Error(t, err)
		assert.Equal(t, "通知不存在", err.Error())
	})

	t.Run("标记已读", func(t *testing.T) {
		var target models.Notification
		require.NoError(t, db.Where("user_id = ? AND is_read = ?", owner.ID, false).First(&target).Error)

		require.NoError(t, service.MarkAsRead(target.ID, owner.ID))

		count, err := service.UnreadCount(owner.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("全部标记已读", func(t *testing.T) {
		updated, err := service.MarkAllAsRead(owner.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), updated)

		count, err := service.UnreadCount(owner.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})
}
