package controllers

import (
	"encoding/json"
	"ipatrol-http-service/internal/domain/services"
	"ipatrol-http-service/internal/domain/services/container"
	"ipatrol-http-service/pkg/logger"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// authDeadline 连接建立后必须在该时间内完成认证
const authDeadline = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 跨域由网关层控制，这里放行所有来源
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsAuthPayload 认证消息的数据体
type wsAuthPayload struct {
	Token string `json:"token"`
}

// HandleWebSocketFunc 返回WebSocket升级处理函数
func HandleWebSocketFunc(container *container.ServiceContainer) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
		if err != nil {
			logger.Warning("WebSocket升级失败: %v", err)
			return
		}

		wsService := container.GetWebSocketService()
		client := wsService.NewClient(conn)

		go serveClient(wsService, client, conn)
	}
}

// serveClient 运行单条连接的读循环：先认证，再分发业务消息
func serveClient(wsService services.InterfaceWebSocketService, client *services.WSClient, conn *websocket.Conn) {
	defer func() {
		wsService.Unregister(client)
		conn.Close()
	}()

	// 第一条消息必须是authenticate，超时断开
	conn.SetReadDeadline(time.Now().Add(authDeadline))
	if !authenticate(wsService, client, conn) {
		return
	}
	conn.SetReadDeadline(time.Time{})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		wsService.HandleMessage(client, raw)
	}
}

// authenticate 读取并校验首条认证消息，返回是否认证成功
func authenticate(wsService services.InterfaceWebSocketService, client *services.WSClient, conn *websocket.Conn) bool {
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return false
	}

	var msg services.WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Type != services.WSTypeAuthenticate {
		client.Send(services.WSMessage{Type: services.WSTypeAuthError, Data: mustJSON(gin.H{"message": "首条消息必须是认证消息"})})
		return false
	}

	var payload wsAuthPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil || payload.Token == "" {
		client.Send(services.WSMessage{Type: services.WSTypeAuthError, Data: mustJSON(gin.H{"message": "缺少令牌"})})
		return false
	}

	if err := wsService.Authenticate(client, payload.Token); err != nil {
		client.Send(services.WSMessage{Type: services.WSTypeAuthError, Data: mustJSON(gin.H{"message": err.Error()})})
		return false
	}

	client.Send(services.WSMessage{Type: services.WSTypeAuthSuccess, Data: mustJSON(gin.H{
		"client_id": client.ID,
		"user_id":   client.UserID,
		"role":      client.Role,
	})})
	return true
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}
