package controllers

import (
	"ipatrol-http-service/internal/domain/services"
	"ipatrol-http-service/internal/domain/services/container"
	"ipatrol-http-service/internal/error/code"
	"ipatrol-http-service/internal/error/response"
	"strconv"

	"github.com/gin-gonic/gin"
)

// NotificationController 处理站内通知相关的请求
type NotificationController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewNotificationController 创建一个新的通知控制器
func NewNotificationController(ctx *gin.Context, container *container.ServiceContainer) *NotificationController {
	return &NotificationController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleNotificationFunc 返回一个处理通知请求的Gin处理函数
func HandleNotificationFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewNotificationController(ctx, container)

		switch method {
		case "getNotifications":
			controller.GetNotifications()
		case "markAsRead":
			controller.MarkAsRead()
		case "markAllAsRead":
			controller.MarkAllAsRead()
		case "unreadCount":
			controller.UnreadCount()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// GetNotifications 获取当前用户的通知列表
// @Summary      获取通知列表
// @Description  获取当前用户的通知，按时间倒序，支持只看未读
// @Tags         Notification
// @Produce      json
// @Param        page query int false "页码，默认为1"
// @Param        page_size query int false "每页条数，默认为20"
// @Param        unread_only query bool false "只返回未读通知"
// @Success      200  {object}  map[string]interface{}
// @Router       /notifications [get]
// @Security     BearerAuth
func (c *NotificationController) GetNotifications() {
	page, _ := strconv.Atoi(c.Ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Ctx.DefaultQuery("page_size", "20"))
	unreadOnly := c.Ctx.Query("unread_only") == "true"

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	notificationService := c.Container.GetService("notification").(services.InterfaceNotificationService)
	notifications, total, err := notificationService.GetUserNotifications(currentUserID(c.Ctx), page, pageSize, unreadOnly)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "查询通知失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"total":     total,
		"page":      page,
		"page_size": pageSize,
		"data":      notifications,
	})
}

// MarkAsRead 标记通知为已读
// @Summary      标记通知为已读
// @Description  将当前用户的某条通知标记为已读
// @Tags         Notification
// @Produce      json
// @Param        id path int true "通知ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /notifications/{id}/read [put]
// @Security     BearerAuth
func (c *NotificationController) MarkAsRead() {
	idStr := c.Ctx.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的ID参数")
		return
	}

	notificationService := c.Container.GetService("notification").(services.InterfaceNotificationService)
	if err := notificationService.MarkAsRead(uint(id), currentUserID(c.Ctx)); err != nil {
		response.NotFound(c.Ctx, "通知不存在")
		return
	}

	response.Success(c.Ctx, nil)
}

// MarkAllAsRead 标记全部通知为已读
// @Summary      标记全部通知为已读
// @Description  将当前用户的所有未读通知标记为已读
// @Tags         Notification
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /notifications/read-all [put]
// @Security     BearerAuth
func (c *NotificationController) MarkAllAsRead() {
	notificationService := c.Container.GetService("notification").(services.InterfaceNotificationService)
	updated, err := notificationService.MarkAllAsRead(currentUserID(c.Ctx))
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "标记通知失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{"updated": updated})
}

// UnreadCount 获取未读通知数
// @Summary      获取未读通知数
// @Description  返回当前用户的未读通知数量
// @Tags         Notification
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /notifications/unread-count [get]
// @Security     BearerAuth
func (c *NotificationController) UnreadCount() {
	notificationService := c.Container.GetService("notification").(services.InterfaceNotificationService)
	count, err := notificationService.UnreadCount(currentUserID(c.Ctx))
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "查询未读数失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{"unread": count})
}
