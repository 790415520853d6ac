package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"ipatrol-http-service/internal/domain/models"
	"ipatrol-http-service/internal/infrastructure/config"
	"ipatrol-http-service/pkg/logger"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WebSocket消息类型
const (
	WSTypeAuthenticate         = "authenticate"
	WSTypeAuthSuccess          = "authenticated"
	WSTypeAuthError            = "authentication_error"
	WSTypeLocationUpdate       = "location_update"
	WSTypeGuardLocationUpdate  = "guard_location_update"
	WSTypeGeofenceEvent        = "geofence_event"
	WSTypeEmergencyAlert       = "emergency_alert"
	WSTypeEmergencyBroadcast   = "emergency_broadcast"
	WSTypeShiftStatusUpdate    = "shift_status_update"
	WSTypeRequestLiveLocations = "request_live_locations"
	WSTypeLiveLocations        = "live_locations"
	WSTypeLiveLocationsSnap    = "live_locations_snapshot"
	WSTypeError                = "error"
)

// WSMessage WebSocket消息信封
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// WSConn 抽象底层连接，便于测试时替换
type WSConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// WSClient 一条已升级的WebSocket连接
type WSClient struct {
	ID            string
	Conn          WSConn
	UserID        uint
	GuardID       uint // 仅保安角色连接有值
	Role          string
	CompanyID     uint
	Authenticated bool

	writeMu sync.Mutex
}

// Send 并发安全地向连接写入一条JSON消息
func (c *WSClient) Send(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteJSON(v)
}

// InterfaceWebSocketService defines the realtime broadcast service interface
type InterfaceWebSocketService interface {
	NewClient(conn WSConn) *WSClient
	Authenticate(client *WSClient, token string) error
	Unregister(client *WSClient)
	HandleMessage(client *WSClient, raw []byte)
	BroadcastToAdmins(companyID uint, message interface{}) int
	BroadcastGuardLocation(record *models.LocationRecord)
	BroadcastEmergencyAlert(alert *models.EmergencyAlert)
	StartSnapshotTicker()
	Stop()
	ClientCount() int
}

// WebSocketService 维护连接注册表并负责实时消息分发
type WebSocketService struct {
	DB        *gorm.DB
	Config    *config.Config
	JWT       InterfaceJWTService
	Tracking  InterfaceTrackingService
	Emergency InterfaceEmergencyService

	mu         sync.RWMutex
	clients    map[string]*WSClient // 连接ID -> 连接
	guardConns map[uint]*WSClient   // 保安ID -> 连接，重连时后来者顶替
	adminConns map[string]*WSClient // 连接ID -> 管理员连接，同一管理员允许多端在线

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewWebSocketService 创建一个新的WebSocket服务
func NewWebSocketService(db *gorm.DB, cfg *config.Config, jwt InterfaceJWTService, tracking InterfaceTrackingService, emergency InterfaceEmergencyService) InterfaceWebSocketService {
	return &WebSocketService{
		DB:         db,
		Config:     cfg,
		JWT:        jwt,
		Tracking:   tracking,
		Emergency:  emergency,
		clients:    make(map[string]*WSClient),
		guardConns: make(map[uint]*WSClient),
		adminConns: make(map[string]*WSClient),
		stopCh:     make(chan struct{}),
	}
}

// 1 NewClient 为一条新连接生成未认证的客户端
func (s *WebSocketService) NewClient(conn WSConn) *WSClient {
	return &WSClient{
		ID:   uuid.New().String(),
		Conn: conn,
	}
}

// 2 Authenticate 用JWT令牌认证连接，角色以令牌声明为准，不信任客户端自报
func (s *WebSocketService) Authenticate(client *WSClient, token string) error {
	claims, err := s.JWT.ExtractClaims(token)
	if err != nil {
		return errors.New("令牌无效")
	}

	client.UserID = claims.UserID
	client.Role = claims.Role
	client.CompanyID = claims.CompanyID

	// 保安连接需要关联保安档案
	if claims.Role == string(models.RoleGuard) {
		var guard models.Guard
		if err := s.DB.Where("user_id = ?", claims.UserID).First(&guard).Error; err != nil {
			return errors.New("保安档案不存在")
		}
		client.GuardID = guard.ID
	}

	client.Authenticated = true

	s.mu.Lock()
	s.clients[client.ID] = client
	switch client.Role {
	case string(models.RoleGuard):
		// 同一保安重复连接时后来者顶替，旧连接不强制关闭，
		// 等它自己断开时自行清理
		s.guardConns[client.GuardID] = client
	case string(models.RoleAdmin), string(models.RoleSuperAdmin):
		s.adminConns[client.ID] = client
	}
	s.mu.Unlock()

	return nil
}

// 3 Unregister 注销连接
func (s *WebSocketService) Unregister(client *WSClient) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.clients, client.ID)
	if existing, ok := s.guardConns[client.GuardID]; ok && existing.ID == client.ID {
		delete(s.guardConns, client.GuardID)
	}
	delete(s.adminConns, client.ID)
}

// 4 HandleMessage 分发一条入站消息，单条消息的panic不拖垮整个连接
func (s *WebSocketService) HandleMessage(client *WSClient, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("WebSocket消息处理panic: %v", r)
		}
	}()

	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.sendError(client, "消息格式无效")
		return
	}

	if !client.Authenticated {
		s.sendError(client, "连接未认证")
		return
	}

	switch msg.Type {
	case WSTypeLocationUpdate:
		s.handleLocationUpdate(client, msg.Data)
	case WSTypeGeofenceEvent:
		s.handleGeofenceEvent(client, msg.Data)
	case WSTypeEmergencyAlert:
		s.handleEmergencyAlert(client, msg.Data)
	case WSTypeShiftStatusUpdate:
		s.handleShiftStatusUpdate(client, msg.Data)
	case WSTypeRequestLiveLocations:
		s.handleLiveLocationsRequest(client)
	default:
		s.sendError(client, fmt.Sprintf("未知消息类型: %s", msg.Type))
	}
}

// handleLocationUpdate 保安上报定位，入库后只转发给管理员，绝不回显给保安
func (s *WebSocketService) handleLocationUpdate(client *WSClient, data json.RawMessage) {
	if client.Role != string(models.RoleGuard) {
		s.sendError(client, "仅保安可上报定位")
		return
	}

	var input LocationInput
	if err := json.Unmarshal(data, &input); err != nil {
		s.sendError(client, "定位数据无效")
		return
	}

	record, err := s.Tracking.RecordLocation(client.GuardID, &input)
	if err != nil {
		s.sendError(client, err.Error())
		return
	}

	s.BroadcastToAdmins(client.CompanyID, map[string]interface{}{
		"type": WSTypeGuardLocationUpdate,
		"data": record,
	})
}

// handleGeofenceEvent 保安上报围栏事件，入库后转发给管理员
func (s *WebSocketService) handleGeofenceEvent(client *WSClient, data json.RawMessage) {
	if client.Role != string(models.RoleGuard) {
		s.sendError(client, "仅保安可上报围栏事件")
		return
	}

	var input GeofenceEventInput
	if err := json.Unmarshal(data, &input); err != nil {
		s.sendError(client, "围栏事件数据无效")
		return
	}

	event, err := s.Tracking.RecordGeofenceEvent(client.GuardID, &input)
	if err != nil {
		s.sendError(client, err.Error())
		return
	}

	s.BroadcastToAdmins(client.CompanyID, map[string]interface{}{
		"type": WSTypeGeofenceEvent,
		"data": event,
	})
}

// handleEmergencyAlert 保安通过WebSocket触发告警，与REST接口走同一条业务路径
func (s *WebSocketService) handleEmergencyAlert(client *WSClient, data json.RawMessage) {
	if client.Role != string(models.RoleGuard) {
		s.sendError(client, "仅保安可触发告警")
		return
	}

	var input EmergencyInput
	if err := json.Unmarshal(data, &input); err != nil {
		s.sendError(client, "告警数据无效")
		return
	}

	alert, err := s.Emergency.Trigger(client.GuardID, &input)
	if err != nil {
		s.sendError(client, err.Error())
		return
	}

	s.BroadcastEmergencyAlert(alert)

	// 给触发者一个受理回执
	if err := client.Send(map[string]interface{}{
		"type": WSTypeEmergencyAlert,
		"data": map[string]interface{}{"alert_id": alert.ID, "status": alert.Status},
	}); err != nil {
		logger.Warning("告警回执发送失败: %v", err)
	}
}

// handleShiftStatusUpdate 排班状态变更原样转发给管理员
func (s *WebSocketService) handleShiftStatusUpdate(client *WSClient, data json.RawMessage) {
	s.BroadcastToAdmins(client.CompanyID, map[string]interface{}{
		"type": WSTypeShiftStatusUpdate,
		"data": data,
	})
}

// handleLiveLocationsRequest 管理员请求实时位置，直接回复请求方
func (s *WebSocketService) handleLiveLocationsRequest(client *WSClient) {
	if client.Role != string(models.RoleAdmin) && client.Role != string(models.RoleSuperAdmin) {
		s.sendError(client, "仅管理员可查询实时位置")
		return
	}

	locations, err := s.Tracking.GetActiveGuardsLocations(client.CompanyID)
	if err != nil {
		s.sendError(client, err.Error())
		return
	}

	if err := client.Send(map[string]interface{}{
		"type": WSTypeLiveLocations,
		"data": locations,
	}); err != nil {
		logger.Warning("实时位置回复发送失败: %v", err)
	}
}

// 5 BroadcastToAdmins 向指定公司的所有在线管理员广播，返回送达连接数
func (s *WebSocketService) BroadcastToAdmins(companyID uint, message interface{}) int {
	s.mu.RLock()
	targets := make([]*WSClient, 0, len(s.adminConns))
	for _, admin := range s.adminConns {
		if companyID == 0 || admin.CompanyID == companyID || admin.Role == string(models.RoleSuperAdmin) {
			targets = append(targets, admin)
		}
	}
	s.mu.RUnlock()

	sent := 0
	for _, target := range targets {
		if err := target.Send(message); err != nil {
			logger.Warning("管理员 %d 广播发送失败: %v", target.UserID, err)
			continue
		}
		sent++
	}
	return sent
}

// 6 BroadcastGuardLocation 向保安所属公司的管理员广播一条定位记录
func (s *WebSocketService) BroadcastGuardLocation(record *models.LocationRecord) {
	s.BroadcastToAdmins(s.companyOfGuard(record.GuardID), map[string]interface{}{
		"type": WSTypeGuardLocationUpdate,
		"data": record,
	})
}

// companyOfGuard 查询保安所属公司，查不到时返回0
func (s *WebSocketService) companyOfGuard(guardID uint) uint {
	var user models.User
	if err := s.DB.Joins("JOIN guards ON guards.user_id = users.id").
		Where("guards.id = ?", guardID).
		First(&user).Error; err != nil {
		return 0
	}
	return user.CompanyID
}

// 7 BroadcastEmergencyAlert 向公司管理员广播紧急告警，
// 并向所有在线保安推送脱敏的告警通报
func (s *WebSocketService) BroadcastEmergencyAlert(alert *models.EmergencyAlert) {
	companyID := uint(0)
	if alert.Guard != nil && alert.Guard.User != nil {
		companyID = alert.Guard.User.CompanyID
	} else {
		companyID = s.companyOfGuard(alert.GuardID)
	}

	s.BroadcastToAdmins(companyID, map[string]interface{}{
		"type": WSTypeEmergencyAlert,
		"data": alert,
	})

	// 保安侧只收到位置和说明，不包含告警详情
	s.broadcastToGuards(companyID, map[string]interface{}{
		"type": WSTypeEmergencyBroadcast,
		"data": map[string]interface{}{
			"message": alert.Message,
			"location": map[string]float64{
				"latitude":  alert.Latitude,
				"longitude": alert.Longitude,
			},
			"timestamp": alert.CreatedAt,
		},
	})
}

// broadcastToGuards 向指定公司的所有在线保安广播
func (s *WebSocketService) broadcastToGuards(companyID uint, message interface{}) {
	s.mu.RLock()
	targets := make([]*WSClient, 0, len(s.guardConns))
	for _, guard := range s.guardConns {
		if companyID == 0 || guard.CompanyID == companyID {
			targets = append(targets, guard)
		}
	}
	s.mu.RUnlock()

	for _, target := range targets {
		if err := target.Send(message); err != nil {
			logger.Warning("保安 %d 广播发送失败: %v", target.GuardID, err)
		}
	}
}

// 8 StartSnapshotTicker 定时向各公司管理员推送实时位置快照
func (s *WebSocketService) StartSnapshotTicker() {
	interval := time.Duration(s.Config.SnapshotIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.pushSnapshots()
			case <-s.stopCh:
				return
			}
		}
	}()
}

// pushSnapshots 按公司分组推送一轮位置快照
func (s *WebSocketService) pushSnapshots() {
	s.mu.RLock()
	companies := make(map[uint]bool)
	for _, admin := range s.adminConns {
		companies[admin.CompanyID] = true
	}
	s.mu.RUnlock()

	for companyID := range companies {
		locations, err := s.Tracking.GetActiveGuardsLocations(companyID)
		if err != nil {
			logger.Warning("位置快照查询失败: %v", err)
			continue
		}
		s.BroadcastToAdmins(companyID, map[string]interface{}{
			"type": WSTypeLiveLocationsSnap,
			"data": locations,
		})
	}
}

// 9 Stop 停止快照推送
func (s *WebSocketService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

// 10 ClientCount 当前在线连接数
func (s *WebSocketService) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *WebSocketService) sendError(client *WSClient, message string) {
	if err := client.Send(map[string]interface{}{
		"type":    WSTypeError,
		"message": message,
	}); err != nil {
		logger.Warning("错误消息发送失败: %v", err)
	}
}
