package controllers

import (
	"ipatrol-http-service/internal/domain/services"
	"ipatrol-http-service/internal/domain/services/container"
	"ipatrol-http-service/internal/error/code"
	"ipatrol-http-service/internal/error/response"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// InterfaceTrackingController 定义轨迹控制器接口
type InterfaceTrackingController interface {
	RecordLocation()
	GetHistory()
	GetLatest()
	GetActiveGuards()
	RecordGeofenceEvent()
	GetGeofenceEvents()
	CheckGeofences()
	GetAnalytics()
}

// TrackingController 处理保安定位轨迹相关的请求
type TrackingController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewTrackingController 创建一个新的轨迹控制器
func NewTrackingController(ctx *gin.Context, container *container.ServiceContainer) *TrackingController {
	return &TrackingController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleTrackingFunc 返回一个处理轨迹请求的Gin处理函数
func HandleTrackingFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewTrackingController(ctx, container)

		switch method {
		case "recordLocation":
			controller.RecordLocation()
		case "getHistory":
			controller.GetHistory()
		case "getLatest":
			controller.GetLatest()
		case "getActiveGuards":
			controller.GetActiveGuards()
		case "recordGeofenceEvent":
			controller.RecordGeofenceEvent()
		case "getGeofenceEvents":
			controller.GetGeofenceEvents()
		case "checkGeofences":
			controller.CheckGeofences()
		case "getAnalytics":
			controller.GetAnalytics()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// scopedGuardRef 解析路径中的保安引用并做租户校验。
// 保安只能访问自己的数据，管理员只能访问本公司保安，超级管理员不受限。
func (c *TrackingController) scopedGuardRef(guardRef uint) (uint, bool) {
	trackingService := c.Container.GetService("tracking").(services.InterfaceTrackingService)
	guard, err := trackingService.ResolveGuard(guardRef)
	if err != nil {
		response.Fail(c.Ctx, code.ErrGuardNotFound, nil)
		return 0, false
	}

	role := currentRole(c.Ctx)
	switch role {
	case "guard":
		if guard.UserID != currentUserID(c.Ctx) {
			response.Forbidden(c.Ctx, "只能访问自己的数据")
			return 0, false
		}
	case "admin":
		guardService := c.Container.GetService("guard").(services.InterfaceGuardService)
		full, err := guardService.GetGuardByID(guard.ID)
		if err != nil || full.User == nil || full.User.CompanyID != currentCompanyID(c.Ctx) {
			response.Forbidden(c.Ctx, "不能访问其他公司的保安")
			return 0, false
		}
	case "super_admin":
	default:
		response.Forbidden(c.Ctx, "权限不足")
		return 0, false
	}

	return guard.ID, true
}

// pathGuardRef 解析路径参数中的保安引用
func (c *TrackingController) pathGuardRef() (uint, bool) {
	refStr := c.Ctx.Param("guardId")
	ref, err := strconv.ParseUint(refStr, 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的保安引用")
		return 0, false
	}
	return uint(ref), true
}

// parseTimeQuery 解析时间查询参数，支持RFC3339和日期两种格式
func parseTimeQuery(value string) *time.Time {
	if value == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return &t
	}
	return nil
}

// RecordLocation 上报定位
// @Summary      上报定位
// @Description  保安上报当前定位，管理员可以代指定保安补录
// @Tags         Tracking
// @Accept       json
// @Produce      json
// @Param        request body services.LocationInput true "定位信息"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /tracking/location [post]
// @Security     BearerAuth
func (c *TrackingController) RecordLocation() {
	var req struct {
		services.LocationInput
		GuardRef uint `json:"guard_ref"`
	}
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数: "+err.Error())
		return
	}

	// 保安上报自己的位置，guard_ref只对管理员生效
	guardRef := req.GuardRef
	if currentRole(c.Ctx) == "guard" || guardRef == 0 {
		guardRef = currentUserID(c.Ctx)
	}

	guardID, ok := c.scopedGuardRef(guardRef)
	if !ok {
		return
	}

	trackingService := c.Container.GetService("tracking").(services.InterfaceTrackingService)
	record, err := trackingService.RecordLocation(guardID, &req.LocationInput)
	if err != nil {
		switch err.Error() {
		case "定位坐标无效":
			response.Fail(c.Ctx, code.ErrLocationInvalid, nil)
		case "保安不存在":
			response.Fail(c.Ctx, code.ErrGuardNotFound, nil)
		default:
			response.FailWithMessage(c.Ctx, code.ErrDatabase, "记录定位失败: "+err.Error(), nil)
		}
		return
	}

	// 实时转发给在线管理员
	c.Container.GetWebSocketService().BroadcastGuardLocation(record)

	response.Created(c.Ctx, record)
}

// GetHistory 获取轨迹历史
// @Summary      获取轨迹历史
// @Description  按时间倒序返回保安的历史定位，最多100条
// @Tags         Tracking
// @Produce      json
// @Param        guardId path int true "保安ID或其用户ID"
// @Param        startDate query string false "起始时间，RFC3339或2006-01-02"
// @Param        endDate query string false "结束时间，RFC3339或2006-01-02"
// @Param        limit query int false "返回条数，默认100"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /tracking/guard/{guardId}/history [get]
// @Security     BearerAuth
func (c *TrackingController) GetHistory() {
	ref, ok := c.pathGuardRef()
	if !ok {
		return
	}
	guardID, ok := c.scopedGuardRef(ref)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Ctx.DefaultQuery("limit", "100"))
	from := parseTimeQuery(c.Ctx.Query("startDate"))
	to := parseTimeQuery(c.Ctx.Query("endDate"))

	trackingService := c.Container.GetService("tracking").(services.InterfaceTrackingService)
	records, err := trackingService.GetLocationHistory(guardID, from, to, limit)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "查询轨迹失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"guard_id": guardID,
		"count":    len(records),
		"records":  records,
	})
}

// GetLatest 获取最新位置
// @Summary      获取最新位置
// @Description  返回保安的最新一条定位记录
// @Tags         Tracking
// @Produce      json
// @Param        guardId path int true "保安ID或其用户ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /tracking/guard/{guardId}/latest [get]
// @Security     BearerAuth
func (c *TrackingController) GetLatest() {
	ref, ok := c.pathGuardRef()
	if !ok {
		return
	}
	guardID, ok := c.scopedGuardRef(ref)
	if !ok {
		return
	}

	trackingService := c.Container.GetService("tracking").(services.InterfaceTrackingService)
	record, err := trackingService.GetLatestLocation(guardID)
	if err != nil {
		if err.Error() == "定位记录不存在" {
			response.Fail(c.Ctx, code.ErrLocationNotFound, nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "查询最新位置失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, record)
}

// GetActiveGuards 获取在岗保安位置
// @Summary      获取在岗保安位置
// @Description  返回公司内所有在岗保安及其最新位置
// @Tags         Tracking
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /tracking/active-locations [get]
// @Security     BearerAuth
func (c *TrackingController) GetActiveGuards() {
	companyID := currentCompanyID(c.Ctx)
	if currentRole(c.Ctx) == "super_admin" {
		// 超级管理员可带company_id查询任意公司，缺省查询全部
		if idStr := c.Ctx.Query("company_id"); idStr != "" {
			if id, err := strconv.ParseUint(idStr, 10, 32); err == nil {
				companyID = uint(id)
			}
		} else {
			companyID = 0
		}
	}

	trackingService := c.Container.GetService("tracking").(services.InterfaceTrackingService)
	locations, err := trackingService.GetActiveGuardsLocations(companyID)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "查询在岗保安失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"count":  len(locations),
		"guards": locations,
	})
}

// RecordGeofenceEvent 上报围栏事件
// @Summary      上报围栏事件
// @Description  保安上报进入或离开站点围栏的事件
// @Tags         Tracking
// @Accept       json
// @Produce      json
// @Param        request body services.GeofenceEventInput true "围栏事件"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /tracking/geofence-event [post]
// @Security     BearerAuth
func (c *TrackingController) RecordGeofenceEvent() {
	var req struct {
		services.GeofenceEventInput
		GuardRef uint `json:"guard_ref"`
	}
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数: "+err.Error())
		return
	}

	guardRef := req.GuardRef
	if currentRole(c.Ctx) == "guard" || guardRef == 0 {
		guardRef = currentUserID(c.Ctx)
	}

	guardID, ok := c.scopedGuardRef(guardRef)
	if !ok {
		return
	}

	trackingService := c.Container.GetService("tracking").(services.InterfaceTrackingService)
	event, err := trackingService.RecordGeofenceEvent(guardID, &req.GeofenceEventInput)
	if err != nil {
		switch err.Error() {
		case "围栏事件类型无效":
			response.Fail(c.Ctx, code.ErrGeofenceEventInvalid, nil)
		case "站点不存在":
			response.Fail(c.Ctx, code.ErrSiteNotFound, nil)
		default:
			response.FailWithMessage(c.Ctx, code.ErrDatabase, "记录围栏事件失败: "+err.Error(), nil)
		}
		return
	}

	// 实时转发给在线管理员
	c.Container.GetWebSocketService().BroadcastToAdmins(currentCompanyID(c.Ctx), gin.H{
		"type": services.WSTypeGeofenceEvent,
		"data": event,
	})

	response.Created(c.Ctx, event)
}

// GetGeofenceEvents 获取围栏事件
// @Summary      获取围栏事件
// @Description  按时间倒序返回保安的围栏进出事件
// @Tags         Tracking
// @Produce      json
// @Param        guardId path int true "保安ID或其用户ID"
// @Param        startDate query string false "起始时间，RFC3339或2006-01-02"
// @Param        endDate query string false "结束时间，RFC3339或2006-01-02"
// @Param        limit query int false "返回条数，默认100"
// @Success      200  {object}  map[string]interface{}
// @Router       /tracking/guard/{guardId}/geofence-events [get]
// @Security     BearerAuth
func (c *TrackingController) GetGeofenceEvents() {
	ref, ok := c.pathGuardRef()
	if !ok {
		return
	}
	guardID, ok := c.scopedGuardRef(ref)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Ctx.DefaultQuery("limit", "100"))
	from := parseTimeQuery(c.Ctx.Query("startDate"))
	to := parseTimeQuery(c.Ctx.Query("endDate"))

	trackingService := c.Container.GetService("tracking").(services.InterfaceTrackingService)
	events, err := trackingService.GetGeofenceEvents(guardID, from, to, limit)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "查询围栏事件失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"guard_id": guardID,
		"count":    len(events),
		"events":   events,
	})
}

// GeofenceCheckRequest 围栏检查请求
type GeofenceCheckRequest struct {
	// 指针区分"未传"和合法的0值坐标，范围校验交给服务层
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// CheckGeofences 围栏位置检查
// @Summary      围栏位置检查
// @Description  检查坐标相对保安当前排班站点围栏的位置，边界上视为在围栏内
// @Tags         Tracking
// @Accept       json
// @Produce      json
// @Param        guardId path int true "保安ID或其用户ID"
// @Param        request body GeofenceCheckRequest true "待检查坐标"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /tracking/check-geofence/{guardId} [post]
// @Security     BearerAuth
func (c *TrackingController) CheckGeofences() {
	guardRef, ok := c.pathGuardRef()
	if !ok {
		return
	}
	// 保安只能检查自己，路径参数对管理员生效
	if currentRole(c.Ctx) == "guard" {
		guardRef = currentUserID(c.Ctx)
	}

	var req GeofenceCheckRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数: "+err.Error())
		return
	}

	guardID, ok := c.scopedGuardRef(guardRef)
	if !ok {
		return
	}

	trackingService := c.Container.GetService("tracking").(services.InterfaceTrackingService)
	results, err := trackingService.CheckLocationInGeofences(guardID, *req.Latitude, *req.Longitude)
	if err != nil {
		if err.Error() == "定位坐标无效" {
			response.Fail(c.Ctx, code.ErrLocationInvalid, nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "围栏检查失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"guard_id": guardID,
		"results":  results,
	})
}

// GetAnalytics 获取轨迹统计
// @Summary      获取轨迹统计
// @Description  返回公司的轨迹上报与围栏事件统计数据
// @Tags         Tracking
// @Produce      json
// @Param        startDate query string false "统计起始时间，缺省时取最近days天"
// @Param        days query int false "统计最近天数，默认7"
// @Success      200  {object}  map[string]interface{}
// @Router       /tracking/analytics [get]
// @Security     BearerAuth
func (c *TrackingController) GetAnalytics() {
	days, _ := strconv.Atoi(c.Ctx.DefaultQuery("days", "7"))
	if days <= 0 || days > 90 {
		days = 7
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

	trackingService := c.Container.GetService("tracking").(services.InterfaceTrackingService)
	analytics, err := trackingService.GetTrackingAnalytics(companyID, since)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "查询统计数据失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, analytics)
}
