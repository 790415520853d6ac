package controllers

import (
	"github.com/gin-gonic/gin"
)

// ErrorResponse 表示错误响应
type ErrorResponse struct {
	Code    int         `json:"code" example:"401"`
	Message string      `json:"message" example:"Invalid phone or password"`
	Data    interface{} `json:"data"`
}

// claimUint 从上下文中取出认证中间件写入的数值声明
func claimUint(ctx *gin.Context, key string) uint {
	value, exists := ctx.Get(key)
	if !exists {
		return 0
	}
	switch v := value.(type) {
	case float64:
		return uint(v)
	case uint:
		return v
	case int:
		return uint(v)
	}
	return 0
}

// currentUserID 当前登录用户ID
func currentUserID(ctx *gin.Context) uint {
	return claimUint(ctx, "userID")
}

// currentCompanyID 当前登录用户所属公司ID
func currentCompanyID(ctx *gin.Context) uint {
	return claimUint(ctx, "companyID")
}

// currentRole 当前登录用户角色
func currentRole(ctx *gin.Context) string {
	value, exists := ctx.Get("role")
	if !exists {
		return ""
	}
	if role, ok := value.(string); ok {
		return role
	}
	return ""
}

// isAdminRole 管理员或超级管理员
func isAdminRole(role string) bool {
	return role == "admin" || role == "super_admin"
}
