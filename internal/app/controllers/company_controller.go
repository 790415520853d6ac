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

// CompanyController 处理保安公司相关的请求，仅超级管理员可用
type CompanyController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewCompanyController 创建一个新的公司控制器
func NewCompanyController(ctx *gin.Context, container *container.ServiceContainer) *CompanyController {
	return &CompanyController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleCompanyFunc 返回一个处理公司请求的Gin处理函数
func HandleCompanyFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewCompanyController(ctx, container)

		switch method {
		case "getCompanies":
			controller.GetCompanies()
		case "getCompany":
			controller.GetCompany()
		case "createCompany":
			controller.CreateCompany()
		case "updateCompany":
			controller.UpdateCompany()
		case "deleteCompany":
			controller.DeleteCompany()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// GetCompanies 获取公司列表
// @Summary      获取公司列表
// @Description  获取所有保安公司，支持分页和搜索
// @Tags         Company
// @Produce      json
// @Param        page query int false "页码，默认为1"
// @Param        page_size query int false "每页条数，默认为10"
// @Param        search query string false "搜索关键词"
// @Success      200  {object}  map[string]interface{}
// @Router       /companies [get]
// @Security     BearerAuth
func (c *CompanyController) GetCompanies() {
	page, _ := strconv.Atoi(c.Ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Ctx.DefaultQuery("page_size", "10"))
	search := c.Ctx.Query("search")

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	companyService := c.Container.GetService("company").(services.InterfaceCompanyService)
	companies, total, err := companyService.GetAllCompanies(page, pageSize, search)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "查询公司列表失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": (total + int64(pageSize) - 1) / int64(pageSize),
		"data":        companies,
	})
}

// GetCompany 获取公司详情
// @Summary      获取公司详情
// @Description  根据ID获取公司的详细信息
// @Tags         Company
// @Produce      json
// @Param        id path int true "公司ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /companies/{id} [get]
// @Security     BearerAuth
func (c *CompanyController) GetCompany() {
	idStr := c.Ctx.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的ID参数")
		return
	}

	companyService := c.Container.GetService("company").(services.InterfaceCompanyService)
	company, err := companyService.GetCompanyByID(uint(id))
	if err != nil {
		response.NotFound(c.Ctx, "公司不存在")
		return
	}

	response.Success(c.Ctx, company)
}

// CreateCompanyRequest 表示创建公司的请求体
type CreateCompanyRequest struct {
	Name          string `json:"name" binding:"required" example:"安保卫士有限公司"`
	ContactPhone  string `json:"contact_phone" example:"021-88886666"`
	ContactPerson string `json:"contact_person" example:"王总"`
}

// CreateCompany 创建公司
// @Summary      创建公司
// @Description  创建一个新的保安公司
// @Tags         Company
// @Accept       json
// @Produce      json
// @Param        request body CreateCompanyRequest true "公司信息"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /companies [post]
// @Security     BearerAuth
func (c *CompanyController) CreateCompany() {
	var req CreateCompanyRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数: "+err.Error())
		return
	}

	company := &models.Company{
		Name:          req.Name,
		ContactPhone:  req.ContactPhone,
		ContactPerson: req.ContactPerson,
		Status:        models.CompanyStatusActive,
	}

	companyService := c.Container.GetService("company").(services.InterfaceCompanyService)
	if err := companyService.CreateCompany(company); err != nil {
		if err.Error() == "公司名称已存在" {
			response.FailWithMessage(c.Ctx, code.ErrValidation, err.Error(), nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "创建公司失败: "+err.Error(), nil)
		return
	}

	response.Created(c.Ctx, gin.H{
		"id":   company.ID,
		"name": company.Name,
	})
}

// UpdateCompany 更新公司信息
// @Summary      更新公司信息
// @Description  更新公司名称、联系方式或状态
// @Tags         Company
// @Accept       json
// @Produce      json
// @Param        id path int true "公司ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /companies/{id} [put]
// @Security     BearerAuth
func (c *CompanyController) UpdateCompany() {
	idStr := c.Ctx.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的ID参数")
		return
	}

	var updates map[string]interface{}
	if err := c.Ctx.ShouldBindJSON(&updates); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数: "+err.Error())
		return
	}
	delete(updates, "id")

	companyService := c.Container.GetService("company").(services.InterfaceCompanyService)
	company, err := companyService.UpdateCompany(uint(id), updates)
	if err != nil {
		if err.Error() == "公司名称已被使用" {
			response.FailWithMessage(c.Ctx, code.ErrValidation, err.Error(), nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "更新公司失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, company)
}

// DeleteCompany 删除公司
// @Summary      删除公司
// @Description  删除保安公司，名下还有用户的公司不允许删除
// @Tags         Company
// @Produce      json
// @Param        id path int true "公司ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /companies/{id} [delete]
// @Security     BearerAuth
func (c *CompanyController) DeleteCompany() {
	idStr := c.Ctx.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的ID参数")
		return
	}

	companyService := c.Container.GetService("company").(services.InterfaceCompanyService)
	if err := companyService.DeleteCompany(uint(id)); err != nil {
		if err.Error() == "公司名下还有用户，不能删除" {
			response.FailWithMessage(c.Ctx, code.ErrValidation, err.Error(), nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "删除公司失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, nil)
}
