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

// InterfaceClientController 定义客户控制器接口
type InterfaceClientController interface {
	GetClients()
	GetClient()
	CreateClient()
	UpdateClient()
	DeleteClient()
	GetClientSites()
}

// ClientController 处理客户相关的请求
type ClientController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewClientController 创建一个新的客户控制器
func NewClientController(ctx *gin.Context, container *container.ServiceContainer) *ClientController {
	return &ClientController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleClientFunc 返回一个处理客户请求的Gin处理函数
func HandleClientFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewClientController(ctx, container)

		switch method {
		case "getClients":
			controller.GetClients()
		case "getClient":
			controller.GetClient()
		case "createClient":
			controller.CreateClient()
		case "updateClient":
			controller.UpdateClient()
		case "deleteClient":
			controller.DeleteClient()
		case "getClientSites":
			controller.GetClientSites()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// GetClients 获取客户列表
// @Summary      获取客户列表
// @Description  获取本公司客户列表，支持分页和搜索
// @Tags         Client
// @Produce      json
// @Param        page query int false "页码，默认为1"
// @Param        page_size query int false "每页条数，默认为10"
// @Param        search query string false "搜索关键词"
// @Success      200  {object}  map[string]interface{}
// @Router       /clients [get]
// @Security     BearerAuth
func (c *ClientController) GetClients() {
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

	clientService := c.Container.GetService("client").(services.InterfaceClientService)
	clients, total, err := clientService.GetAllClients(page, pageSize, search, companyID)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "查询客户列表失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": (total + int64(pageSize) - 1) / int64(pageSize),
		"data":        clients,
	})
}

// GetClient 获取客户详情
// @Summary      获取客户详情
// @Description  根据ID获取客户的详细信息
// @Tags         Client
// @Produce      json
// @Param        id path int true "客户ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /clients/{id} [get]
// @Security     BearerAuth
func (c *ClientController) GetClient() {
	idStr := c.Ctx.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的ID参数")
		return
	}

	clientService := c.Container.GetService("client").(services.InterfaceClientService)
	client, err := clientService.GetClientByID(uint(id))
	if err != nil {
		response.NotFound(c.Ctx, "客户不存在")
		return
	}

	if currentRole(c.Ctx) != "super_admin" {
		if client.User == nil || client.User.CompanyID != currentCompanyID(c.Ctx) {
			response.Forbidden(c.Ctx, "不能访问其他公司的客户")
			return
		}
	}

	response.Success(c.Ctx, client)
}

// CreateClientRequest 表示创建客户的请求体
type CreateClientRequest struct {
	Name        string `json:"name" binding:"required" example:"李经理"`
	CompanyName string `json:"company_name" example:"阳光物业有限公司"`
	Address     string `json:"address" example:"建设路100号"`
	Phone       string `json:"phone" binding:"required" example:"13900001234"`
	Password    string `json:"password" binding:"required" example:"Client@123"`
}

// CreateClient 创建客户
// @Summary      创建客户
// @Description  创建客户账号和档案，归属到当前管理员的公司
// @Tags         Client
// @Accept       json
// @Produce      json
// @Param        request body CreateClientRequest true "客户信息"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /clients [post]
// @Security     BearerAuth
func (c *ClientController) CreateClient() {
	var req CreateClientRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数: "+err.Error())
		return
	}

	client := &models.Client{
		Name:        req.Name,
		CompanyName: req.CompanyName,
		Address:     req.Address,
	}

	clientService := c.Container.GetService("client").(services.InterfaceClientService)
	if err := clientService.CreateClient(client, req.Phone, req.Password, currentCompanyID(c.Ctx)); err != nil {
		if err.Error() == "手机号已被使用" {
			response.FailWithMessage(c.Ctx, code.ErrUserAlreadyExist, err.Error(), nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "创建客户失败: "+err.Error(), nil)
		return
	}

	response.Created(c.Ctx, gin.H{
		"id":      client.ID,
		"name":    client.Name,
		"user_id": client.UserID,
	})
}

// UpdateClient 更新客户信息
// @Summary      更新客户信息
// @Description  更新客户的名称、公司名或地址
// @Tags         Client
// @Accept       json
// @Produce      json
// @Param        id path int true "客户ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /clients/{id} [put]
// @Security     BearerAuth
func (c *ClientController) UpdateClient() {
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
	delete(updates, "user_id")

	clientService := c.Container.GetService("client").(services.InterfaceClientService)
	client, err := clientService.UpdateClient(uint(id), updates)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "更新客户失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, client)
}

// DeleteClient 删除客户
// @Summary      删除客户
// @Description  删除客户及其账号，名下还有站点的客户不允许删除
// @Tags         Client
// @Produce      json
// @Param        id path int true "客户ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /clients/{id} [delete]
// @Security     BearerAuth
func (c *ClientController) DeleteClient() {
	idStr := c.Ctx.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的ID参数")
		return
	}

	clientService := c.Container.GetService("client").(services.InterfaceClientService)
	if err := clientService.DeleteClient(uint(id)); err != nil {
		if err.Error() == "客户名下还有站点，不能删除" {
			response.FailWithMessage(c.Ctx, code.ErrValidation, err.Error(), nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "删除客户失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, nil)
}

// GetClientSites 获取客户名下站点
// @Summary      获取客户名下站点
// @Description  返回客户名下的所有站点
// @Tags         Client
// @Produce      json
// @Param        id path int true "客户ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /clients/{id}/sites [get]
// @Security     BearerAuth
func (c *ClientController) GetClientSites() {
	idStr := c.Ctx.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的ID参数")
		return
	}

	clientService := c.Container.GetService("client").(services.InterfaceClientService)
	sites, err := clientService.GetClientSites(uint(id))
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "查询站点失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"count": len(sites),
		"sites": sites,
	})
}
