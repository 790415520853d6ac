package services

import (
	"errors"
	"ipatrol-http-service/internal/domain/models"
	"ipatrol-http-service/internal/infrastructure/config"

	"gorm.io/gorm"
)

// InterfaceNotificationService defines the notification service interface
type InterfaceNotificationService interface {
	GetUserNotifications(userID uint, page, pageSize int, unreadOnly bool) ([]models.Notification, int64, error)
	MarkAsRead(id, userID uint) error
	MarkAllAsRead(userID uint) (int64, error)
	UnreadCount(userID uint) (int64, error)
}

// NotificationService 提供站内通知相关的服务
type NotificationService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewNotificationService 创建一个新的通知服务
func NewNotificationService(db *gorm.DB, cfg *config.Config) InterfaceNotificationService {
	return &NotificationService{
		DB:     db,
		Config: cfg,
	}
}

// 1 GetUserNotifications 获取用户的通知列表，按创建时间倒序
func (s *NotificationService) GetUserNotifications(userID uint, page, pageSize int, unreadOnly bool) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	query := s.DB.Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").
		Limit(pageSize).Offset(offset).Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

// 2 MarkAsRead 标记单条通知已读，只能操作自己的通知
func (s *NotificationService) MarkAsRead(id, userID uint) error {
	result := s.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("通知不存在")
	}
	return nil
}

// 3 MarkAllAsRead 标记用户全部通知已读
func (s *NotificationService) MarkAllAsRead(userID uint) (int64, error) {
	result := s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

// 4 UnreadCount 未读通知数
func (s *NotificationService) UnreadCount(userID uint) (int64, error) {
	var count int64
	err := s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}
