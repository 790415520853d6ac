package services

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"ipatrol-http-service/internal/infrastructure/config"
	"ipatrol-http-service/pkg/logger"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// 主题常量
const (
	// 硬件定位器上报定位主题
	TopicTrackerLocation = "ipatrol/tracker/location"

	// 硬件定位器紧急按钮主题
	TopicTrackerEmergency = "ipatrol/tracker/emergency"
)

// 消息结构体定义
type (
	// TrackerLocationMessage 定位器上报的定位消息
	TrackerLocationMessage struct {
		MessageID    string   `json:"message_id"`
		GuardRef     uint     `json:"guard_ref"`
		Latitude     float64  `json:"latitude"`
		Longitude    float64  `json:"longitude"`
		Accuracy     *float64 `json:"accuracy,omitempty"`
		BatteryLevel *int     `json:"battery_level,omitempty"`
		Timestamp    int64    `json:"timestamp"` // Unix毫秒时间戳
	}

	// TrackerEmergencyMessage 定位器紧急按钮消息
	TrackerEmergencyMessage struct {
		MessageID string  `json:"message_id"`
		GuardRef  uint    `json:"guard_ref"`
		Type      string  `json:"type"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Timestamp int64   `json:"timestamp"`
	}
)

// InterfaceMQTTBridgeService 定义硬件定位器接入服务接口
type InterfaceMQTTBridgeService interface {
	Connect() error
	Disconnect()
	SubscribeToTopics() error
	IsClientConnected() bool
}

// MQTTBridgeService 把硬件定位器的MQTT上报桥接到轨迹和告警服务
type MQTTBridgeService struct {
	Config    *config.Config
	Tracking  InterfaceTrackingService
	Emergency InterfaceEmergencyService
	WS        InterfaceWebSocketService

	Client         mqtt.Client
	IsConnected    bool
	connectedMutex sync.RWMutex
	TopicHandlers  map[string]mqtt.MessageHandler
	ProcessedMsgs  *sync.Map // 已处理的消息ID，防止broker重投导致重复入库
}

// NewMQTTBridgeService 创建一个新的定位器接入服务
func NewMQTTBridgeService(cfg *config.Config, tracking InterfaceTrackingService, emergency InterfaceEmergencyService, ws InterfaceWebSocketService) InterfaceMQTTBridgeService {
	service := &MQTTBridgeService{
		Config:        cfg,
		Tracking:      tracking,
		Emergency:     emergency,
		WS:            ws,
		TopicHandlers: make(map[string]mqtt.MessageHandler),
		ProcessedMsgs: &sync.Map{},
	}

	service.setupMQTTClient()
	service.setupTopicHandlers()

	// 启动消息去重清理任务
	go service.startMsgCleanupTask()

	return service
}

// setupMQTTClient 设置MQTT客户端
func (s *MQTTBridgeService) setupMQTTClient() {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.Config.MQTTBrokerURL)
	// 使用唯一的客户端ID，避免同一服务多实例冲突
	opts.SetClientID(fmt.Sprintf("%s-%s", s.Config.MQTTClientID, uuid.New().String()[:8]))
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(time.Second * 30)
	opts.SetKeepAlive(time.Second * 60)
	opts.SetPingTimeout(time.Second * 10)
	opts.SetCleanSession(true)

	if s.Config.MQTTUsername != "" {
		opts.SetUsername(s.Config.MQTTUsername)
		opts.SetPassword(s.Config.MQTTPassword)
	}

	if strings.HasPrefix(s.Config.MQTTBrokerURL, "ssl://") || strings.HasPrefix(s.Config.MQTTBrokerURL, "tls://") {
		opts.SetTLSConfig(&tls.Config{InsecureSkipVerify: true})
	}

	// 连接丢失回调
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		logger.Warning("[MQTT] 连接丢失: %v", err)
		s.connectedMutex.Lock()
		s.IsConnected = false
		s.connectedMutex.Unlock()
	})

	// 连接建立回调，重连后需要重新订阅
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		logger.Info("[MQTT] 成功连接到 %s", s.Config.MQTTBrokerURL)
		s.connectedMutex.Lock()
		s.IsConnected = true
		s.connectedMutex.Unlock()

		if err := s.SubscribeToTopics(); err != nil {
			logger.Error("[MQTT] 订阅主题失败: %v", err)
		}
	})

	s.Client = mqtt.NewClient(opts)
}

// setupTopicHandlers 设置主题处理程序
func (s *MQTTBridgeService) setupTopicHandlers() {
	s.TopicHandlers[TopicTrackerLocation] = s.handleLocationMessage
	s.TopicHandlers[TopicTrackerEmergency] = s.handleEmergencyMessage
}

// 1 Connect 连接到MQTT broker
func (s *MQTTBridgeService) Connect() error {
	token := s.Client.Connect()
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("连接MQTT broker失败: %w", token.Error())
	}
	return nil
}

// 2 Disconnect 断开MQTT连接
func (s *MQTTBridgeService) Disconnect() {
	if s.Client != nil && s.Client.IsConnected() {
		s.Client.Disconnect(250)
	}
}

// 3 SubscribeToTopics 订阅定位器主题，QoS为1保证至少一次送达
func (s *MQTTBridgeService) SubscribeToTopics() error {
	for topic, handler := range s.TopicHandlers {
		token := s.Client.Subscribe(topic, 1, handler)
		if token.Wait() && token.Error() != nil {
			return fmt.Errorf("订阅主题 %s 失败: %w", topic, token.Error())
		}
		logger.Info("[MQTT] 已订阅主题: %s", topic)
	}
	return nil
}

// 4 IsClientConnected 返回当前连接状态
func (s *MQTTBridgeService) IsClientConnected() bool {
	s.connectedMutex.RLock()
	defer s.connectedMutex.RUnlock()
	return s.IsConnected
}

// handleLocationMessage 处理定位器定位上报
func (s *MQTTBridgeService) handleLocationMessage(client mqtt.Client, msg mqtt.Message) {
	var message TrackerLocationMessage
	if err := json.Unmarshal(msg.Payload(), &message); err != nil {
		logger.Warning("[MQTT] 定位消息解析失败: %v", err)
		return
	}

	if message.MessageID != "" {
		if _, loaded := s.ProcessedMsgs.LoadOrStore(message.MessageID, time.Now()); loaded {
			return
		}
	}

	input := &LocationInput{
		Latitude:     message.Latitude,
		Longitude:    message.Longitude,
		Accuracy:     message.Accuracy,
		BatteryLevel: message.BatteryLevel,
	}
	if message.Timestamp > 0 {
		t := time.UnixMilli(message.Timestamp)
		input.Timestamp = &t
	}

	record, err := s.Tracking.RecordLocation(message.GuardRef, input)
	if err != nil {
		logger.Warning("[MQTT] 定位入库失败 guard_ref=%d: %v", message.GuardRef, err)
		return
	}

	// 同步推给在线管理员，和WebSocket上报走同一种消息
	if s.WS != nil {
		s.WS.BroadcastGuardLocation(record)
	}
}

// handleEmergencyMessage 处理定位器紧急按钮
func (s *MQTTBridgeService) handleEmergencyMessage(client mqtt.Client, msg mqtt.Message) {
	var message TrackerEmergencyMessage
	if err := json.Unmarshal(msg.Payload(), &message); err != nil {
		logger.Warning("[MQTT] 紧急消息解析失败: %v", err)
		return
	}

	if message.MessageID != "" {
		if _, loaded := s.ProcessedMsgs.LoadOrStore(message.MessageID, time.Now()); loaded {
			return
		}
	}

	alertType := message.Type
	if alertType == "" {
		alertType = "panic"
	}

	alert, err := s.Emergency.Trigger(message.GuardRef, &EmergencyInput{
		Type:      alertType,
		Severity:  "critical",
		Message:   "硬件定位器紧急按钮触发",
		Latitude:  message.Latitude,
		Longitude: message.Longitude,
	})
	if err != nil {
		logger.Error("[MQTT] 紧急告警入库失败 guard_ref=%d: %v", message.GuardRef, err)
		return
	}

	if s.WS != nil {
		s.WS.BroadcastEmergencyAlert(alert)
	}
}

// startMsgCleanupTask 定期清理过期的消息去重记录
func (s *MQTTBridgeService) startMsgCleanupTask() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-30 * time.Minute)
		s.ProcessedMsgs.Range(func(key, value interface{}) bool {
			if t, ok := value.(time.Time); ok && t.Before(cutoff) {
				s.ProcessedMsgs.Delete(key)
			}
			return true
		})
	}
}
