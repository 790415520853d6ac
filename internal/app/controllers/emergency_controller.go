package controllers

import (
	"errors"
	"ipatrol-http-service/internal/domain/services"
	"ipatrol-http-service/internal/domain/services/container"
	"ipatrol-http-service/internal/error/code"
	"ipatrol-http-service/internal/error/response"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// InterfaceEmergencyController 定义紧急告警控制器接口
type InterfaceEmergencyController interface {
	TriggerAlert()
	AcknowledgeAlert()
	ResolveAlert()
	GetActiveAlerts()
	GetAlertHistory()
	GetStatistics()
}

// EmergencyController 处理紧急告警相关的请求
type EmergencyController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewEmergencyController 创建一个新的紧急告警控制器
func NewEmergencyController(ctx *gin.Context, container *container.ServiceContainer) *EmergencyController {
	return &EmergencyController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleEmergencyFunc 返回一个处理紧急告警请求的Gin处理函数
func HandleEmergencyFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewEmergencyController(ctx, container)

		switch method {
		case "triggerAlert":
			controller.TriggerAlert()
		case "acknowledgeAlert":
			controller.AcknowledgeAlert()
		case "resolveAlert":
			controller.ResolveAlert()
		case "getActiveAlerts":
			controller.GetActiveAlerts()
		case "getAlertHistory":
			controller.GetAlertHistory()
		case "getStatistics":
			controller.GetStatistics()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// pathAlertID 解析路径参数中的告警ID
func (c *EmergencyController) pathAlertID() (uint, bool) {
	idStr := c.Ctx.Param("alertId")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的告警ID")
		return 0, false
	}
	return uint(id), true
}

// scopedAlert 校验告警归属，管理员只能操作本公司保安的告警
func (c *EmergencyController) scopedAlert(alertID uint) bool {
	if currentRole(c.Ctx) == "super_admin" {
		return true
	}

	emergencyService := c.Container.GetService("emergency").(services.InterfaceEmergencyService)
	alert, err := emergencyService.GetAlertByID(alertID)
	if err != nil {
		response.Fail(c.Ctx, code.ErrAlertNotFound, nil)
		return false
	}

	guardService := c.Container.GetService("guard").(services.InterfaceGuardService)
	guard, err := guardService.GetGuardByID(alert.GuardID)
	if err != nil || guard.User == nil || guard.User.CompanyID != currentCompanyID(c.Ctx) {
		response.Forbidden(c.Ctx, "不能操作其他公司的告警")
		return false
	}
	return true
}

// TriggerAlert 触发紧急告警
// @Summary      触发紧急告警
// @Description  保安触发紧急告警，服务端入库并向公司管理员群发通知和实时推送
// @Tags         Emergency
// @Accept       json
// @Produce      json
// @Param        request body services.EmergencyInput true "告警信息"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /emergency/alert [post]
// @Security     BearerAuth
func (c *EmergencyController) TriggerAlert() {
	var req struct {
		services.EmergencyInput
		GuardRef uint `json:"guard_ref"`
	}
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数: "+err.Error())
		return
	}

	// 保安只能为自己触发告警
	guardRef := req.GuardRef
	if currentRole(c.Ctx) == "guard" || guardRef == 0 {
		guardRef = currentUserID(c.Ctx)
	}

	emergencyService := c.Container.GetService("emergency").(services.InterfaceEmergencyService)
	alert, err := emergencyService.Trigger(guardRef, &req.EmergencyInput)
	if err != nil {
		switch err.Error() {
		case "告警类型无效", "告警级别无效":
			response.Fail(c.Ctx, code.ErrAlertTypeInvalid, nil)
		case "保安不存在":
			response.Fail(c.Ctx, code.ErrGuardNotFound, nil)
		default:
			response.FailWithMessage(c.Ctx, code.ErrDatabase, "触发告警失败: "+err.Error(), nil)
		}
		return
	}

	// 与WebSocket触发路径共用同一条广播
	c.Container.GetWebSocketService().BroadcastEmergencyAlert(alert)

	response.Created(c.Ctx, alert)
}

// AcknowledgeAlert 确认告警
// @Summary      确认告警
// @Description  管理员或客户确认告警，重复确认不覆盖首次确认信息
// @Tags         Emergency
// @Produce      json
// @Param        alertId path int true "告警ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /emergency/alert/{alertId}/acknowledge [post]
// @Security     BearerAuth
func (c *EmergencyController) AcknowledgeAlert() {
	id, ok := c.pathAlertID()
	if !ok {
		return
	}
	if !c.scopedAlert(id) {
		return
	}

	emergencyService := c.Container.GetService("emergency").(services.InterfaceEmergencyService)
	alert, err := emergencyService.Acknowledge(id, currentUserID(c.Ctx))
	if err != nil {
		if errors.Is(err, services.ErrAlertTerminal) {
			response.Fail(c.Ctx, code.ErrAlertAlreadyResolved, nil)
			return
		}
		if err.Error() == "告警不存在" {
			response.Fail(c.Ctx, code.ErrAlertNotFound, nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "确认告警失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, alert)
}

// ResolveAlertRequest 处理告警请求
type ResolveAlertRequest struct {
	Resolution string `json:"resolution" binding:"required" example:"已到场处理，确认安全"`
	FalseAlarm bool   `json:"false_alarm" example:"false"`
}

// ResolveAlert 处理告警
// @Summary      处理告警
// @Description  管理员处理告警，处理说明必填，已完结的告警不允许再处理
// @Tags         Emergency
// @Accept       json
// @Produce      json
// @Param        alertId path int true "告警ID"
// @Param        request body ResolveAlertRequest true "处理信息"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /emergency/alert/{alertId}/resolve [post]
// @Security     BearerAuth
func (c *EmergencyController) ResolveAlert() {
	id, ok := c.pathAlertID()
	if !ok {
		return
	}
	if !c.scopedAlert(id) {
		return
	}

	var req ResolveAlertRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.Fail(c.Ctx, code.ErrAlertResolutionEmpty, nil)
		return
	}

	emergencyService := c.Container.GetService("emergency").(services.InterfaceEmergencyService)
	alert, err := emergencyService.Resolve(id, currentUserID(c.Ctx), req.Resolution, req.FalseAlarm)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAlertTerminal):
			response.Fail(c.Ctx, code.ErrAlertAlreadyResolved, nil)
		case errors.Is(err, services.ErrResolutionEmpty):
			response.Fail(c.Ctx, code.ErrAlertResolutionEmpty, nil)
		case err.Error() == "告警不存在":
			response.Fail(c.Ctx, code.ErrAlertNotFound, nil)
		default:
			response.FailWithMessage(c.Ctx, code.ErrDatabase, "处理告警失败: "+err.Error(), nil)
		}
		return
	}

	response.Success(c.Ctx, alert)
}

// GetActiveAlerts 获取未完结告警
// @Summary      获取未完结告警
// @Description  返回公司内所有未完结的告警，按创建时间倒序
// @Tags         Emergency
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /emergency/alerts/active [get]
// @Security     BearerAuth
func (c *EmergencyController) GetActiveAlerts() {
	companyID := currentCompanyID(c.Ctx)
	if currentRole(c.Ctx) == "super_admin" {
		companyID = 0
		if idStr := c.Ctx.Query("company_id"); idStr != "" {
			if id, err := strconv.ParseUint(idStr, 10, 32); err == nil {
				companyID = uint(id)
			}
		}
	}

	emergencyService := c.Container.GetService("emergency").(services.InterfaceEmergencyService)
	alerts, err := emergencyService.GetActiveAlerts(companyID)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "查询告警失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"count":  len(alerts),
		"alerts": alerts,
	})
}

// GetAlertHistory 获取保安的历史告警
// @Summary      获取保安的历史告警
// @Description  按创建时间倒序返回保安的历史告警，最多50条，保安只能查自己
// @Tags         Emergency
// @Produce      json
// @Param        guardId path int true "保安ID或其用户ID"
// @Param        limit query int false "返回条数，默认50"
// @Success      200  {object}  map[string]interface{}
// @Router       /emergency/guard/{guardId}/history [get]
// @Security     BearerAuth
func (c *EmergencyController) GetAlertHistory() {
	refStr := c.Ctx.Param("guardId")
	ref, err := strconv.ParseUint(refStr, 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的保安引用")
		return
	}

	// 租户校验复用轨迹控制器的逻辑
	trackingController := NewTrackingController(c.Ctx, c.Container)
	guardID, ok := trackingController.scopedGuardRef(uint(ref))
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Ctx.DefaultQuery("limit", "50"))

	emergencyService := c.Container.GetService("emergency").(services.InterfaceEmergencyService)
	alerts, err := emergencyService.GetGuardAlertHistory(guardID, limit)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "查询告警历史失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"guard_id": guardID,
		"count":    len(alerts),
		"alerts":   alerts,
	})
}

// GetStatistics 获取告警统计
// @Summary      获取告警统计
// @Description  返回公司的告警数量、状态分布和平均响应时长
// @Tags         Emergency
// @Produce      json
// @Param        startDate query string false "统计起始时间，缺省时取最近days天"
// @Param        days query int false "统计最近天数，默认30"
// @Success      200  {object}  map[string]interface{}
// @Router       /emergency/statistics [get]
// @Security     BearerAuth
func (c *EmergencyController) GetStatistics() {
	days, _ := strconv.Atoi(c.Ctx.DefaultQuery("days", "30"))
	if days <= 0 || days > 365 {
		days = 30
	}

	companyID := currentCompanyID(c.Ctx)
	if currentRole(c.Ctx) == "super_admin" {
		companyID = 0
		if idStr := c.Ctx.Query("company_id"); idStr != "" {
			if id, err := strconv.ParseUint(idStr, 10, 32); err == nil {
				companyID = uint(id)
			}
		}
	}

	since := time.Now().AddDate(0, 0, -days)
	if from := parseTimeQuery(c.Ctx.Query("startDate")); from != nil {
		since = *from
	}

	emergencyService := c.Container.GetService("emergency").(services.InterfaceEmergencyService)
	stats, err := emergencyService.GetStatistics(companyID, since)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "查询告警统计失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, stats)
}
