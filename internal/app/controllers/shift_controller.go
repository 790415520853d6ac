package controllers

import (
	"ipatrol-http-service/internal/domain/models"
	"ipatrol-http-service/internal/domain/services"
	"ipatrol-http-service/internal/domain/services/container"
	"ipatrol-http-service/internal/error/code"
	"ipatrol-http-service/internal/error/response"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// InterfaceShiftController 定义排班控制器接口
type InterfaceShiftController interface {
	GetShifts()
	GetShift()
	CreateShift()
	UpdateShiftStatus()
	DeleteShift()
}

// ShiftController 处理排班相关的请求
type ShiftController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewShiftController 创建一个新的排班控制器
func NewShiftController(ctx *gin.Context, container *container.ServiceContainer) *ShiftController {
	return &ShiftController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleShiftFunc 返回一个处理排班请求的Gin处理函数
func HandleShiftFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewShiftController(ctx, container)

		switch method {
		case "getShifts":
			controller.GetShifts()
		case "getShift":
			controller.GetShift()
		case "createShift":
			controller.CreateShift()
		case "updateShiftStatus":
			controller.UpdateShiftStatus()
		case "deleteShift":
			controller.DeleteShift()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// GetShifts 获取排班列表
// @Summary      获取排班列表
// @Description  获取本公司排班列表，支持分页和状态过滤
// @Tags         Shift
// @Produce      json
// @Param        page query int false "页码，默认为1"
// @Param        page_size query int false "每页条数，默认为10"
// @Param        status query string false "排班状态过滤"
// @Success      200  {object}  map[string]interface{}
// @Router       /shifts [get]
// @Security     BearerAuth
func (c *ShiftController) GetShifts() {
	page, _ := strconv.Atoi(c.Ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Ctx.DefaultQuery("page_size", "10"))
	status := c.Ctx.Query("status")

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	companyID := currentCompanyID(c.Ctx)
	if currentRole(c.Ctx) == "super_admin" {
		companyID = 0
	}

	shiftService := c.Container.GetService("shift").(services.InterfaceShiftService)
	shifts, total, err := shiftService.GetAllShifts(page, pageSize, companyID, status)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "查询排班列表失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": (total + int64(pageSize) - 1) / int64(pageSize),
		"data":        shifts,
	})
}

// GetShift 获取排班详情
// @Summary      获取排班详情
// @Description  根据ID获取排班的详细信息
// @Tags         Shift
// @Produce      json
// @Param        id path int true "排班ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /shifts/{id} [get]
// @Security     BearerAuth
func (c *ShiftController) GetShift() {
	idStr := c.Ctx.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的ID参数")
		return
	}

	shiftService := c.Container.GetService("shift").(services.InterfaceShiftService)
	shift, err := shiftService.GetShiftByID(uint(id))
	if err != nil {
		response.Fail(c.Ctx, code.ErrShiftNotFound, nil)
		return
	}

	response.Success(c.Ctx, shift)
}

// CreateShiftRequest 表示创建排班的请求体
type CreateShiftRequest struct {
	GuardID   uint      `json:"guard_id" binding:"required"`
	SiteID    uint      `json:"site_id" binding:"required"`
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
	Remark    string    `json:"remark"`
}

// CreateShift 创建排班
// @Summary      创建排班
// @Description  给保安创建站点排班
// @Tags         Shift
// @Accept       json
// @Produce      json
// @Param        request body CreateShiftRequest true "排班信息"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /shifts [post]
// @Security     BearerAuth
func (c *ShiftController) CreateShift() {
	var req CreateShiftRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数: "+err.Error())
		return
	}

	shift := &models.Shift{
		GuardID:   req.GuardID,
		SiteID:    req.SiteID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Remark:    req.Remark,
	}

	shiftService := c.Container.GetService("shift").(services.InterfaceShiftService)
	if err := shiftService.CreateShift(shift); err != nil {
		switch err.Error() {
		case "保安不存在":
			response.Fail(c.Ctx, code.ErrGuardNotFound, nil)
		case "站点不存在":
			response.Fail(c.Ctx, code.ErrSiteNotFound, nil)
		case "排班结束时间不能早于开始时间":
			response.ParamError(c.Ctx, err.Error())
		default:
			response.FailWithMessage(c.Ctx, code.ErrDatabase, "创建排班失败: "+err.Error(), nil)
		}
		return
	}

	response.Created(c.Ctx, shift)
}

// UpdateShiftStatusRequest 表示排班状态流转的请求体
type UpdateShiftStatusRequest struct {
	Status string `json:"status" binding:"required" example:"in_progress"`
}

// UpdateShiftStatus 流转排班状态
// @Summary      流转排班状态
// @Description  按 scheduled→in_progress→completed/cancelled 流转排班状态，变更实时广播给管理员
// @Tags         Shift
// @Accept       json
// @Produce      json
// @Param        id path int true "排班ID"
// @Param        request body UpdateShiftStatusRequest true "目标状态"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /shifts/{id}/status [put]
// @Security     BearerAuth
func (c *ShiftController) UpdateShiftStatus() {
	idStr := c.Ctx.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的ID参数")
		return
	}

	var req UpdateShiftStatusRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数: "+err.Error())
		return
	}

	shiftService := c.Container.GetService("shift").(services.InterfaceShiftService)
	shift, err := shiftService.UpdateShiftStatus(uint(id), models.ShiftStatus(req.Status))
	if err != nil {
		switch err.Error() {
		case "排班不存在":
			response.Fail(c.Ctx, code.ErrShiftNotFound, nil)
		case "排班状态流转无效":
			response.Fail(c.Ctx, code.ErrShiftStatusInvalid, nil)
		default:
			response.FailWithMessage(c.Ctx, code.ErrDatabase, "更新排班状态失败: "+err.Error(), nil)
		}
		return
	}

	// 实时广播排班状态变更
	c.Container.GetWebSocketService().BroadcastToAdmins(currentCompanyID(c.Ctx), gin.H{
		"type": services.WSTypeShiftStatusUpdate,
		"data": gin.H{
			"shift_id": shift.ID,
			"guard_id": shift.GuardID,
			"site_id":  shift.SiteID,
			"status":   shift.Status,
		},
	})

	response.Success(c.Ctx, shift)
}

// DeleteShift 删除排班
// @Summary      删除排班
// @Description  删除排班，进行中的排班不允许删除
// @Tags         Shift
// @Produce      json
// @Param        id path int true "排班ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /shifts/{id} [delete]
// @Security     BearerAuth
func (c *ShiftController) DeleteShift() {
	idStr := c.Ctx.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的ID参数")
		return
	}

	shiftService := c.Container.GetService("shift").(services.InterfaceShiftService)
	if err := shiftService.DeleteShift(uint(id)); err != nil {
		if err.Error() == "排班不存在" {
			response.Fail(c.Ctx, code.ErrShiftNotFound, nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "删除排班失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, nil)
}
