package controllers

import (
	"ipatrol-http-service/internal/domain/models"
	"ipatrol-http-service/internal/domain/services"
	"ipatrol-http-service/internal/domain/services/container"
	"ipatrol-http-service/internal/error/code"
	"ipatrol-http-service/internal/error/response"
	"strconv"

	"github.com/gin-gonic/gin"
)

// InterfaceGuardController 定义保安控制器接口
type InterfaceGuardController interface {
	GetGuards()
	GetGuard()
	CreateGuard()
	UpdateGuard()
	DeleteGuard()
	SetOnDuty()
	GetGuardShifts()
}

// GuardController 处理保安相关的请求
type GuardController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewGuardController 创建一个新的保安控制器
func NewGuardController(ctx *gin.Context, container *container.ServiceContainer) *GuardController {
	return &GuardController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleGuardFunc 返回一个处理保安请求的Gin处理函数
func HandleGuardFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewGuardController(ctx, container)

		switch method {
		case "getGuards":
			controller.GetGuards()
		case "getGuard":
			controller.GetGuard()
		case "createGuard":
			controller.CreateGuard()
		case "updateGuard":
			controller.UpdateGuard()
		case "deleteGuard":
			controller.DeleteGuard()
		case "setOnDuty":
			controller.SetOnDuty()
		case "getGuardShifts":
			controller.GetGuardShifts()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// scopedGuard 校验保安归属公司，返回保安对象
func (c *GuardController) scopedGuard(id uint) (*models.Guard, bool) {
	guardService := c.Container.GetService("guard").(services.InterfaceGuardService)
	guard, err := guardService.GetGuardByID(id)
	if err != nil {
		response.Fail(c.Ctx, code.ErrGuardNotFound, nil)
		return nil, false
	}

	if currentRole(c.Ctx) != "super_admin" {
		if guard.User == nil || guard.User.CompanyID != currentCompanyID(c.Ctx) {
			response.Forbidden(c.Ctx, "不能操作其他公司的保安")
			return nil, false
		}
	}
	return guard, true
}

// GetGuards 获取保安列表
// @Summary      获取保安列表
// @Description  获取本公司保安列表，支持分页和搜索
// @Tags         Guard
// @Produce      json
// @Param        page query int false "页码，默认为1"
// @Param        page_size query int false "每页条数，默认为10"
// @Param        search query string false "搜索关键词(姓名、工号、电话)"
// @Success      200  {object}  map[string]interface{}
// @Router       /guards [get]
// @Security     BearerAuth
func (c *GuardController) GetGuards() {
	page, _ := strconv.Atoi(c.Ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Ctx.DefaultQuery("page_size", "10"))
	search := c.Ctx.Query("search")

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

	guardService := c.Container.GetService("guard").(services.InterfaceGuardService)
	guards, total, err := guardService.GetAllGuards(page, pageSize, search, companyID)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "查询保安列表失败: "+err.Error(), nil)
		return
	}

	var guardResponses []gin.H
	for _, guard := range guards {
		item := gin.H{
			"id":                guard.ID,
			"name":              guard.Name,
			"badge_number":      guard.BadgeNumber,
			"on_duty":           guard.OnDuty,
			"employment_status": guard.EmploymentStatus,
			"created_at":        guard.CreatedAt,
		}
		if guard.User != nil {
			item["phone"] = guard.User.Phone
			item["user_id"] = guard.User.ID
		}
		guardResponses = append(guardResponses, item)
	}

	response.Success(c.Ctx, gin.H{
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": (total + int64(pageSize) - 1) / int64(pageSize),
		"data":        guardResponses,
	})
}

// GetGuard 获取保安详情
// @Summary      获取保安详情
// @Description  根据ID获取保安的详细信息
// @Tags         Guard
// @Produce      json
// @Param        id path int true "保安ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /guards/{id} [get]
// @Security     BearerAuth
func (c *GuardController) GetGuard() {
	idStr := c.Ctx.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的ID参数")
		return
	}

	guard, ok := c.scopedGuard(uint(id))
	if !ok {
		return
	}

	response.Success(c.Ctx, guard)
}

// CreateGuardRequest 表示创建保安的请求体
type CreateGuardRequest struct {
	Name        string `json:"name" binding:"required" example:"张保安"`
	BadgeNumber string `json:"badge_number" binding:"required" example:"G-1024"`
	Phone       string `json:"phone" binding:"required" example:"13800001024"`
	Password    string `json:"password" binding:"required" example:"Guard@123"`
}

// CreateGuard 创建保安
// @Summary      创建保安
// @Description  创建保安账号和档案，归属到当前管理员的公司
// @Tags         Guard
// @Accept       json
// @Produce      json
// @Param        request body CreateGuardRequest true "保安信息"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /guards [post]
// @Security     BearerAuth
func (c *GuardController) CreateGuard() {
	var req CreateGuardRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数: "+err.Error())
		return
	}

	guard := &models.Guard{
		Name:        req.Name,
		BadgeNumber: req.BadgeNumber,
	}

	guardService := c.Container.GetService("guard").(services.InterfaceGuardService)
	if err := guardService.CreateGuard(guard, req.Phone, req.Password, currentCompanyID(c.Ctx)); err != nil {
		if err.Error() == "手机号已被使用" || err.Error() == "工号已存在" {
			response.FailWithMessage(c.Ctx, code.ErrGuardAlreadyExist, err.Error(), nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "创建保安失败: "+err.Error(), nil)
		return
	}

	response.Created(c.Ctx, gin.H{
		"id":           guard.ID,
		"name":         guard.Name,
		"badge_number": guard.BadgeNumber,
		"user_id":      guard.UserID,
	})
}

// UpdateGuardRequest 表示更新保安的请求体
type UpdateGuardRequest struct {
	Name             string `json:"name" example:"张保安"`
	BadgeNumber      string `json:"badge_number" example:"G-1024"`
	EmploymentStatus string `json:"employment_status" example:"active"`
}

// UpdateGuard 更新保安信息
// @Summary      更新保安信息
// @Description  更新保安的姓名、工号或在职状态
// @Tags         Guard
// @Accept       json
// @Produce      json
// @Param        id path int true "保安ID"
// @Param        request body UpdateGuardRequest true "更新内容"
// @Success      200  {object}  map[string]interface{}
// @Router       /guards/{id} [put]
// @Security     BearerAuth
func (c *GuardController) UpdateGuard() {
	idStr := c.Ctx.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的ID参数")
		return
	}

	if _, ok := c.scopedGuard(uint(id)); !ok {
		return
	}

	var req UpdateGuardRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数: "+err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.BadgeNumber != "" {
		updates["badge_number"] = req.BadgeNumber
	}
	if req.EmploymentStatus != "" {
		updates["employment_status"] = req.EmploymentStatus
	}

	guardService := c.Container.GetService("guard").(services.InterfaceGuardService)
	guard, err := guardService.UpdateGuard(uint(id), updates)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "更新保安失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, guard)
}

// DeleteGuard 删除保安
// @Summary      删除保安
// @Description  删除保安档案及其账号
// @Tags         Guard
// @Produce      json
// @Param        id path int true "保安ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /guards/{id} [delete]
// @Security     BearerAuth
func (c *GuardController) DeleteGuard() {
	idStr := c.Ctx.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的ID参数")
		return
	}

	if _, ok := c.scopedGuard(uint(id)); !ok {
		return
	}

	guardService := c.Container.GetService("guard").(services.InterfaceGuardService)
	if err := guardService.DeleteGuard(uint(id)); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "删除保安失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, nil)
}

// SetOnDutyRequest 表示设置在岗状态的请求体
type SetOnDutyRequest struct {
	OnDuty *bool `json:"on_duty" binding:"required"`
}

// SetOnDuty 设置在岗状态
// @Summary      设置在岗状态
// @Description  手动设置保安的在岗状态
// @Tags         Guard
// @Accept       json
// @Produce      json
// @Param        id path int true "保安ID"
// @Param        request body SetOnDutyRequest true "在岗状态"
// @Success      200  {object}  map[string]interface{}
// @Router       /guards/{id}/on-duty [put]
// @Security     BearerAuth
func (c *GuardController) SetOnDuty() {
	idStr := c.Ctx.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的ID参数")
		return
	}

	if _, ok := c.scopedGuard(uint(id)); !ok {
		return
	}

	var req SetOnDutyRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil || req.OnDuty == nil {
		response.ParamError(c.Ctx, "无效的请求参数")
		return
	}

	guardService := c.Container.GetService("guard").(services.InterfaceGuardService)
	guard, err := guardService.SetOnDuty(uint(id), *req.OnDuty)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "设置在岗状态失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"id":      guard.ID,
		"on_duty": guard.OnDuty,
	})
}

// GetGuardShifts 获取保安的排班
// @Summary      获取保安的排班
// @Description  分页获取保安的排班列表
// @Tags         Guard
// @Produce      json
// @Param        id path int true "保安ID"
// @Param        page query int false "页码，默认为1"
// @Param        page_size query int false "每页条数，默认为10"
// @Success      200  {object}  map[string]interface{}
// @Router       /guards/{id}/shifts [get]
// @Security     BearerAuth
func (c *GuardController) GetGuardShifts() {
	idStr := c.Ctx.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的ID参数")
		return
	}

	if _, ok := c.scopedGuard(uint(id)); !ok {
		return
	}

	page, _ := strconv.Atoi(c.Ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Ctx.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	guardService := c.Container.GetService("guard").(services.InterfaceGuardService)
	shifts, total, err := guardService.GetGuardShifts(uint(id), page, pageSize)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "查询排班失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"total":     total,
		"page":      page,
		"page_size": pageSize,
		"data":      shifts,
	})
}
