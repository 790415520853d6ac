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

// InterfaceSiteController 定义站点控制器接口
type InterfaceSiteController interface {
	GetSites()
	GetSite()
	CreateSite()
	UpdateSite()
	DeleteSite()
}

// SiteController 处理客户站点相关的请求
type SiteController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewSiteController 创建一个新的站点控制器
func NewSiteController(ctx *gin.Context, container *container.ServiceContainer) *SiteController {
	return &SiteController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleSiteFunc 返回一个处理站点请求的Gin处理函数
func HandleSiteFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewSiteController(ctx, container)

		switch method {
		case "getSites":
			controller.GetSites()
		case "getSite":
			controller.GetSite()
		case "createSite":
			controller.CreateSite()
		case "updateSite":
			controller.UpdateSite()
		case "deleteSite":
			controller.DeleteSite()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// scopedSite 校验站点归属公司
func (c *SiteController) scopedSite(id uint) (*models.Site, bool) {
	siteService := c.Container.GetService("site").(services.InterfaceSiteService)
	site, err := siteService.GetSiteByID(id)
	if err != nil {
		response.Fail(c.Ctx, code.ErrSiteNotFound, nil)
		return nil, false
	}

	if currentRole(c.Ctx) != "super_admin" && site.CompanyID != currentCompanyID(c.Ctx) {
		response.Forbidden(c.Ctx, "不能操作其他公司的站点")
		return nil, false
	}
	return site, true
}

// GetSites 获取站点列表
// @Summary      获取站点列表
// @Description  获取本公司站点列表，支持分页和搜索
// @Tags         Site
// @Produce      json
// @Param        page query int false "页码，默认为1"
// @Param        page_size query int false "每页条数，默认为10"
// @Param        search query string false "搜索关键词(名称、地址)"
// @Success      200  {object}  map[string]interface{}
// @Router       /sites [get]
// @Security     BearerAuth
func (c *SiteController) GetSites() {
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

	siteService := c.Container.GetService("site").(services.InterfaceSiteService)
	sites, total, err := siteService.GetAllSites(page, pageSize, search, companyID)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "查询站点列表失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": (total + int64(pageSize) - 1) / int64(pageSize),
		"data":        sites,
	})
}

// GetSite 获取站点详情
// @Summary      获取站点详情
// @Description  根据ID获取站点的详细信息
// @Tags         Site
// @Produce      json
// @Param        id path int true "站点ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /sites/{id} [get]
// @Security     BearerAuth
func (c *SiteController) GetSite() {
	idStr := c.Ctx.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的ID参数")
		return
	}

	site, ok := c.scopedSite(uint(id))
	if !ok {
		return
	}

	response.Success(c.Ctx, site)
}

// CreateSiteRequest 表示创建站点的请求体
type CreateSiteRequest struct {
	Name           string  `json:"name" binding:"required" example:"阳光广场"`
	Address        string  `json:"address" example:"建设路100号"`
	Latitude       float64 `json:"latitude" binding:"required" example:"39.9042"`
	Longitude      float64 `json:"longitude" binding:"required" example:"116.4074"`
	GeofenceRadius float64 `json:"geofence_radius" example:"100"`
	ClientID       uint    `json:"client_id"`
}

// CreateSite 创建站点
// @Summary      创建站点
// @Description  创建客户站点并设置围栏半径，缺省100米
// @Tags         Site
// @Accept       json
// @Produce      json
// @Param        request body CreateSiteRequest true "站点信息"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /sites [post]
// @Security     BearerAuth
func (c *SiteController) CreateSite() {
	var req CreateSiteRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数: "+err.Error())
		return
	}

	site := &models.Site{
		Name:           req.Name,
		Address:        req.Address,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		GeofenceRadius: req.GeofenceRadius,
		CompanyID:      currentCompanyID(c.Ctx),
		ClientID:       req.ClientID,
	}

	siteService := c.Container.GetService("site").(services.InterfaceSiteService)
	if err := siteService.CreateSite(site); err != nil {
		if err.Error() == "站点坐标无效" {
			response.Fail(c.Ctx, code.ErrLocationInvalid, nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "创建站点失败: "+err.Error(), nil)
		return
	}

	response.Created(c.Ctx, site)
}

// UpdateSite 更新站点
// @Summary      更新站点
// @Description  更新站点信息和围栏半径
// @Tags         Site
// @Accept       json
// @Produce      json
// @Param        id path int true "站点ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /sites/{id} [put]
// @Security     BearerAuth
func (c *SiteController) UpdateSite() {
	idStr := c.Ctx.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的ID参数")
		return
	}

	if _, ok := c.scopedSite(uint(id)); !ok {
		return
	}

	var updates map[string]interface{}
	if err := c.Ctx.ShouldBindJSON(&updates); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数: "+err.Error())
		return
	}

	// 公司归属不允许通过更新接口改动
	delete(updates, "company_id")
	delete(updates, "id")

	siteService := c.Container.GetService("site").(services.InterfaceSiteService)
	site, err := siteService.UpdateSite(uint(id), updates)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "更新站点失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, site)
}

// DeleteSite 删除站点
// @Summary      删除站点
// @Description  删除站点，还有未完成排班的站点不允许删除
// @Tags         Site
// @Produce      json
// @Param        id path int true "站点ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /sites/{id} [delete]
// @Security     BearerAuth
func (c *SiteController) DeleteSite() {
	idStr := c.Ctx.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的ID参数")
		return
	}

	if _, ok := c.scopedSite(uint(id)); !ok {
		return
	}

	siteService := c.Container.GetService("site").(services.InterfaceSiteService)
	if err := siteService.DeleteSite(uint(id)); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "删除站点失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, nil)
}
