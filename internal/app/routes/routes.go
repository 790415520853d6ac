package routes

import (
	_ "ipatrol-http-service/docs"
	"ipatrol-http-service/internal/app/controllers"
	"ipatrol-http-service/internal/app/middleware"
	"ipatrol-http-service/internal/domain/services/container"
	"ipatrol-http-service/internal/infrastructure/config"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// SetupRouter 初始化并返回配置好的路由和服务容器
func SetupRouter(db *gorm.DB, cfg *config.Config, redisClient *redis.Client) (*gin.Engine, *container.ServiceContainer) {
	// 初始化 Gin
	r := gin.Default()

	// 添加 CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
	// 设置正确的Content-Type，确保UTF-8编码
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		c.Next()
	})
	// 创建服务容器
	serviceContainer := container.NewServiceContainer(db, cfg, redisClient)
	// 初始化中间件
	middleware.InitAuthMiddleware(cfg, db)
	// 添加 Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 注册路由
	registerRoutes(r, serviceContainer)
	return r, serviceContainer
}

// registerRoutes 配置所有API路由
func registerRoutes(
	r *gin.Engine,
	container *container.ServiceContainer,
) {
	// API 路由根路径
	api := r.Group("/api")
	// 注册公共路由
	registerPublicRoutes(api, container)
	// 注册需要认证的路由
	registerAuthenticatedRoutes(api, container)
}

// registerPublicRoutes 注册公共路由
func registerPublicRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// 添加IP限流中间件 - 每秒允许10个请求，最多突发20个请求
	api.Use(middleware.IPRateLimiter(10, 20))

	// 健康检查路由
	healthController := controllers.NewHealthCheckController()
	api.GET("/ping", healthController.Ping)
	api.GET("/health", healthController.Ping) // 兼容Docker健康检查

	// 认证路由 - 登录接口单独收紧限流
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.PathRateLimiter(5, 10))
	authGroup.POST("/login", controllers.HandleJWTFunc(container, "login"))
}

// registerAuthenticatedRoutes 注册需要认证的路由
func registerAuthenticatedRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// WebSocket连接在升级后自行完成JWT认证，不走HTTP认证中间件
	api.GET("/ws", controllers.HandleWebSocketFunc(container))

	// 添加认证中间件
	auth := api.Group("/")
	auth.Use(middleware.Authentication())

	// 添加通用限流中间件 - 每秒30个请求，最多突发50个请求
	auth.Use(middleware.IPRateLimiter(30, 50))

	// 定位追踪路由 - 保安上报，管理员查询，控制器内做租户校验
	trackingGroup := auth.Group("/tracking")
	trackingGroup.POST("/location", middleware.AuthenticateGuard(), controllers.HandleTrackingFunc(container, "recordLocation"))
	trackingGroup.GET("/guard/:guardId/history", controllers.HandleTrackingFunc(container, "getHistory"))
	trackingGroup.GET("/guard/:guardId/latest", controllers.HandleTrackingFunc(container, "getLatest"))
	trackingGroup.GET("/active-locations", middleware.AuthenticateAdmin(), middleware.Cache(middleware.CacheConfig{Expiration: 5 * time.Second}), controllers.HandleTrackingFunc(container, "getActiveGuards"))
	trackingGroup.POST("/geofence-event", middleware.AuthenticateGuard(), controllers.HandleTrackingFunc(container, "recordGeofenceEvent"))
	trackingGroup.GET("/guard/:guardId/geofence-events", controllers.HandleTrackingFunc(container, "getGeofenceEvents"))
	trackingGroup.POST("/check-geofence/:guardId", middleware.AuthenticateGuard(), controllers.HandleTrackingFunc(container, "checkGeofences"))
	trackingGroup.GET("/analytics", middleware.AuthenticateAdmin(), middleware.Cache(middleware.CacheConfig{Expiration: 1 * time.Minute}), controllers.HandleTrackingFunc(container, "getAnalytics"))

	// 紧急告警路由 - 客户可以查看和确认本公司的告警
	emergencyGroup := auth.Group("/emergency")
	emergencyGroup.POST("/alert", middleware.AuthenticateGuard(), controllers.HandleEmergencyFunc(container, "triggerAlert"))
	emergencyGroup.POST("/alert/:alertId/acknowledge", middleware.AuthenticateClientOrAdmin(), controllers.HandleEmergencyFunc(container, "acknowledgeAlert"))
	emergencyGroup.POST("/alert/:alertId/resolve", middleware.AuthenticateAdmin(), controllers.HandleEmergencyFunc(container, "resolveAlert"))
	emergencyGroup.GET("/alerts/active", middleware.AuthenticateClientOrAdmin(), controllers.HandleEmergencyFunc(container, "getActiveAlerts"))
	emergencyGroup.GET("/guard/:guardId/history", controllers.HandleEmergencyFunc(container, "getAlertHistory"))
	emergencyGroup.GET("/statistics", middleware.AuthenticateAdmin(), middleware.Cache(middleware.CacheConfig{Expiration: 1 * time.Minute}), controllers.HandleEmergencyFunc(container, "getStatistics"))

	// 保安路由
	guardGroup := auth.Group("/guards")
	guardGroup.Use(middleware.AuthenticateAdmin())
	guardGroup.GET("", middleware.Cache(middleware.CacheConfig{Expiration: 30 * time.Second}), controllers.HandleGuardFunc(container, "getGuards"))
	guardGroup.GET("/:id", controllers.HandleGuardFunc(container, "getGuard"))
	guardGroup.POST("", controllers.HandleGuardFunc(container, "createGuard"))
	guardGroup.PUT("/:id", controllers.HandleGuardFunc(container, "updateGuard"))
	guardGroup.DELETE("/:id", controllers.HandleGuardFunc(container, "deleteGuard"))
	guardGroup.PUT("/:id/on-duty", controllers.HandleGuardFunc(container, "setOnDuty"))
	guardGroup.GET("/:id/shifts", controllers.HandleGuardFunc(container, "getGuardShifts"))

	// 客户路由
	clientGroup := auth.Group("/clients")
	clientGroup.Use(middleware.AuthenticateAdmin())
	clientGroup.GET("", middleware.Cache(middleware.CacheConfig{Expiration: 1 * time.Minute}), controllers.HandleClientFunc(container, "getClients"))
	clientGroup.GET("/:id", controllers.HandleClientFunc(container, "getClient"))
	clientGroup.POST("", controllers.HandleClientFunc(container, "createClient"))
	clientGroup.PUT("/:id", controllers.HandleClientFunc(container, "updateClient"))
	clientGroup.DELETE("/:id", controllers.HandleClientFunc(container, "deleteClient"))
	clientGroup.GET("/:id/sites", controllers.HandleClientFunc(container, "getClientSites"))

	// 站点路由
	siteGroup := auth.Group("/sites")
	siteGroup.GET("", middleware.Cache(middleware.CacheConfig{Expiration: 1 * time.Minute}), controllers.HandleSiteFunc(container, "getSites"))
	siteGroup.GET("/:id", controllers.HandleSiteFunc(container, "getSite"))
	siteGroup.POST("", middleware.AuthenticateAdmin(), controllers.HandleSiteFunc(container, "createSite"))
	siteGroup.PUT("/:id", middleware.AuthenticateAdmin(), controllers.HandleSiteFunc(container, "updateSite"))
	siteGroup.DELETE("/:id", middleware.AuthenticateAdmin(), controllers.HandleSiteFunc(container, "deleteSite"))

	// 排班路由
	shiftGroup := auth.Group("/shifts")
	shiftGroup.GET("", controllers.HandleShiftFunc(container, "getShifts"))
	shiftGroup.GET("/:id", controllers.HandleShiftFunc(container, "getShift"))
	shiftGroup.POST("", middleware.AuthenticateAdmin(), controllers.HandleShiftFunc(container, "createShift"))
	shiftGroup.PUT("/:id/status", controllers.HandleShiftFunc(container, "updateShiftStatus"))
	shiftGroup.DELETE("/:id", middleware.AuthenticateAdmin(), controllers.HandleShiftFunc(container, "deleteShift"))

	// 公司路由 - 仅超级管理员
	companyGroup := auth.Group("/companies")
	companyGroup.Use(middleware.AuthenticateSuperAdmin())
	companyGroup.GET("", middleware.Cache(middleware.CacheConfig{Expiration: 1 * time.Minute}), controllers.HandleCompanyFunc(container, "getCompanies"))
	companyGroup.GET("/:id", controllers.HandleCompanyFunc(container, "getCompany"))
	companyGroup.POST("", controllers.HandleCompanyFunc(container, "createCompany"))
	companyGroup.PUT("/:id", controllers.HandleCompanyFunc(container, "updateCompany"))
	companyGroup.DELETE("/:id", controllers.HandleCompanyFunc(container, "deleteCompany"))

	// 通知路由
	notificationGroup := auth.Group("/notifications")
	notificationGroup.GET("", controllers.HandleNotificationFunc(container, "getNotifications"))
	notificationGroup.GET("/unread-count", controllers.HandleNotificationFunc(container, "unreadCount"))
	notificationGroup.PUT("/read-all", controllers.HandleNotificationFunc(container, "markAllAsRead"))
	notificationGroup.PUT("/:id/read", controllers.HandleNotificationFunc(container, "markAsRead"))
}
