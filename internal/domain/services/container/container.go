package container

import (
	"context"
	"log"
	"sync"
	"time"

	"ipatrol-http-service/internal/domain/services"
	"ipatrol-http-service/internal/infrastructure/config"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// ServiceContainer 管理所有服务的依赖注入
type ServiceContainer struct {
	db     *gorm.DB
	config *config.Config
	redis  *redis.Client

	// 基础服务
	jwtService services.InterfaceJWTService

	// 数据存储服务
	redisService services.InterfaceRedisService

	// 轨迹与告警服务
	trackingService  services.InterfaceTrackingService
	emergencyService services.InterfaceEmergencyService
	geocodeService   services.InterfaceGeocodeService

	// 实时通道服务
	webSocketService  services.InterfaceWebSocketService
	mqttBridgeService services.InterfaceMQTTBridgeService

	// 业务服务
	guardService        services.InterfaceGuardService
	clientService       services.InterfaceClientService
	siteService         services.InterfaceSiteService
	shiftService        services.InterfaceShiftService
	companyService      services.InterfaceCompanyService
	notificationService services.InterfaceNotificationService

	mu sync.RWMutex
}

// NewServiceContainer 创建新的服务容器
func NewServiceContainer(db *gorm.DB, cfg *config.Config, redisClient *redis.Client) *ServiceContainer {
	if db == nil {
		panic("数据库连接为空")
	}

	if cfg == nil {
		panic("配置为空")
	}

	// 测试Redis连接
	if redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Redis连接测试失败: %v，将不使用Redis缓存", err)
		}
	}

	container := &ServiceContainer{
		db:     db,
		config: cfg,
		redis:  redisClient,
	}
	container.initializeServices()
	return container
}

// initializeServices 初始化所有服务
func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 初始化基础服务
	c.jwtService = services.NewJWTService(c.config, c.db)
	c.redisService = services.NewRedisService(c.config)

	// 初始化轨迹与告警服务
	c.geocodeService = services.NewGeocodeService(c.config, c.redisService)
	c.trackingService = services.NewTrackingService(c.db, c.config, c.redisService)
	c.emergencyService = services.NewEmergencyService(c.db, c.config, c.trackingService, c.geocodeService)

	// 初始化实时通道服务
	c.webSocketService = services.NewWebSocketService(c.db, c.config, c.jwtService, c.trackingService, c.emergencyService)

	// 硬件定位器接入按配置开启
	if c.config.MQTTEnabled {
		c.mqttBridgeService = services.NewMQTTBridgeService(c.config, c.trackingService, c.emergencyService, c.webSocketService)
		if err := c.mqttBridgeService.Connect(); err != nil {
			log.Printf("MQTT服务连接失败: %v", err)
		}
	}

	// 初始化业务服务
	c.guardService = services.NewGuardService(c.db, c.config)
	c.clientService = services.NewClientService(c.db, c.config)
	c.siteService = services.NewSiteService(c.db, c.config)
	c.shiftService = services.NewShiftService(c.db, c.config)
	c.companyService = services.NewCompanyService(c.db, c.config)
	c.notificationService = services.NewNotificationService(c.db, c.config)
}

// GetService 获取指定名称的服务
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "db":
		return c.db
	case "jwt":
		return c.jwtService
	case "redis":
		return c.redisService
	case "tracking":
		return c.trackingService
	case "emergency":
		return c.emergencyService
	case "geocode":
		return c.geocodeService
	case "websocket":
		return c.webSocketService
	case "mqtt_bridge":
		return c.mqttBridgeService
	case "guard":
		return c.guardService
	case "client":
		return c.clientService
	case "site":
		return c.siteService
	case "shift":
		return c.shiftService
	case "company":
		return c.companyService
	case "notification":
		return c.notificationService
	default:
		return nil
	}
}

// GetDB 获取数据库连接
func (c *ServiceContainer) GetDB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// GetWebSocketService 获取WebSocket服务
func (c *ServiceContainer) GetWebSocketService() services.InterfaceWebSocketService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.webSocketService
}

// GetMQTTBridgeService 获取MQTT桥接服务，未启用时返回nil
func (c *ServiceContainer) GetMQTTBridgeService() services.InterfaceMQTTBridgeService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mqttBridgeService
}
