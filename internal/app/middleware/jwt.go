package middleware

import (
	"ipatrol-http-service/internal/domain/services"
	"ipatrol-http-service/internal/infrastructure/config"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

var jwtService services.InterfaceJWTService

// InitAuthMiddleware 初始化认证中间件
func InitAuthMiddleware(cfg *config.Config, db *gorm.DB) {
	jwtService = services.NewJWTService(cfg, db)
}

// extractToken 从授权头中提取token
func extractToken(authHeader string) string {
	// 检查并移除 "Bearer " 前缀
	if len(authHeader) > 7 && strings.HasPrefix(authHeader, "Bearer ") {
		return authHeader[7:]
	}
	return authHeader
}

// setClaims 把令牌声明写入请求上下文
func setClaims(c *gin.Context, claims jwt.MapClaims) {
	c.Set("userID", claims["user_id"])
	c.Set("role", claims["role"])
	if companyID, exists := claims["company_id"]; exists && companyID != nil {
		c.Set("companyID", companyID)
	}
	c.Set("claims", claims)
}

// validateRequest 校验请求中的令牌，失败时写响应并返回nil
func validateRequest(c *gin.Context) jwt.MapClaims {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    401,
			"message": "Authorization header is required",
			"data":    nil,
		})
		c.Abort()
		return nil
	}

	tokenString := extractToken(authHeader)
	token, err := jwtService.ValidateToken(tokenString)
	if err != nil || !token.Valid {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    401,
			"message": "Invalid or expired token",
			"data":    nil,
		})
		c.Abort()
		return nil
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    401,
			"message": "Invalid token claims",
			"data":    nil,
		})
		c.Abort()
		return nil
	}

	return claims
}

// AuthenticateAdmin 验证管理员权限，超级管理员同样放行
func AuthenticateAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := validateRequest(c)
		if claims == nil {
			return
		}

		role, exists := claims["role"].(string)
		if !exists || (role != "admin" && role != "super_admin") {
			c.JSON(http.StatusForbidden, gin.H{
				"code":    403,
				"message": "Insufficient permissions: requires admin role",
				"data":    nil,
			})
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// AuthenticateSuperAdmin 验证超级管理员权限
func AuthenticateSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := validateRequest(c)
		if claims == nil {
			return
		}

		if role, exists := claims["role"].(string); !exists || role != "super_admin" {
			c.JSON(http.StatusForbidden, gin.H{
				"code":    403,
				"message": "Insufficient permissions: requires super admin role",
				"data":    nil,
			})
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// AuthenticateGuard 验证保安权限，管理员可以代为操作
func AuthenticateGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := validateRequest(c)
		if claims == nil {
			return
		}

		role, exists := claims["role"].(string)
		if !exists || (role != "guard" && role != "admin" && role != "super_admin") {
			c.JSON(http.StatusForbidden, gin.H{
				"code":    403,
				"message": "Insufficient permissions: requires guard role",
				"data":    nil,
			})
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// AuthenticateClientOrAdmin 验证客户或管理员权限，用于告警查看与确认
func AuthenticateClientOrAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := validateRequest(c)
		if claims == nil {
			return
		}

		role, exists := claims["role"].(string)
		if !exists || (role != "client" && role != "admin" && role != "super_admin") {
			c.JSON(http.StatusForbidden, gin.H{
				"code":    403,
				"message": "Insufficient permissions: requires client or admin role",
				"data":    nil,
			})
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// Authentication 通用的认证中间件，任意有效角色均放行
func Authentication() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := validateRequest(c)
		if claims == nil {
			return
		}

		role, exists := claims["role"].(string)
		if !exists || (role != "guard" && role != "client" && role != "admin" && role != "super_admin") {
			c.JSON(http.StatusForbidden, gin.H{
				"code":    403,
				"message": "Insufficient permissions: requires valid user role",
				"data":    nil,
			})
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}
