package services

import (
	"encoding/json"
	"fmt"
	"ipatrol-http-service/internal/domain/models"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeConn 记录写入消息的假连接
type fakeConn struct {
	mu       sync.Mutex
	messages []interface{}
	closed   bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, v)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// receivedTypes 返回连接收到的所有消息类型
func (c *fakeConn) receivedTypes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	types := make([]string, 0, len(c.messages))
	for _, msg := range c.messages {
		if m, ok := msg.(map[string]interface{}); ok {
			if typ, ok := m["type"].(string); ok {
				types = append(types, typ)
			}
		}
	}
	return types
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type wsTestEnv struct {
	DB      *gorm.DB
	JWT     InterfaceJWTService
	Service InterfaceWebSocketService
}

func newWSTestEnv(t *testing.T) *wsTestEnv {
	t.Helper()

	db := setupTestDB(t)
	cfg := testConfig()
	jwt := NewJWTService(cfg, db)
	tracking := NewTrackingService(db, cfg, nil)
	emergency := NewEmergencyService(db, cfg, tracking, nil)
	service := NewWebSocketService(db, cfg, jwt, tracking, emergency)

	return &wsTestEnv{DB: db, JWT: jwt, Service: service}
}

// connectGuard 用合法令牌接入一个保安连接
func (env *wsTestEnv) connectGuard(t *testing.T, guard *models.Guard) (*WSClient, *fakeConn) {
	t.Helper()

	token, err := env.JWT.GenerateToken(guard.UserID, string(models.RoleGuard), guard.User.CompanyID)
	require.NoError(t, err)

	conn := &fakeConn{}
	client := env.Service.NewClient(conn)
	require.NoError(t, env.Service.Authenticate(client, token))
	return client, conn
}

// connectAdmin 用合法令牌接入一个管理员连接
func (env *wsTestEnv) connectAdmin(t *testing.T, admin *models.User) (*WSClient, *fakeConn) {
	t.Helper()

	token, err := env.JWT.GenerateToken(admin.ID, string(admin.Role), admin.CompanyID)
	require.NoError(t, err)

	conn := &fakeConn{}
	client := env.Service.NewClient(conn)
	require.NoError(t, env.Service.Authenticate(client, token))
	return client, conn
}

func TestWebSocketAuthenticate(t *testing.T) {
	env := newWSTestEnv(t)
	company := seedCompany(t, env.DB, "WS认证公司")

	t.Run("保安认证后绑定保安档案", func(t *testing.T) {
		guard := seedGuard(t, env.DB, company.ID, "WS-001")
		client, _ := env.connectGuard(t, guard)

		assert.True(t, client.Authenticated)
		assert.Equal(t, guard.ID, client.GuardID)
		assert.Equal(t, company.ID, client.CompanyID)
		assert.Equal(t, string(models.RoleGuard), client.Role)
	})

	t.Run("令牌无效时拒绝", func(t *testing.T) {
		client := env.Service.NewClient(&fakeConn{})
		err := env.Service.Authenticate(client, "not-a-token")
		require.Error(t, err)
		assert.False(t, client.Authenticated)
	})

	t.Run("保安角色但无档案时拒绝", func(t *testing.T) {
		orphan := &models.User{
			Phone:    "13700000001",
			Password: "hashed",
			Role:     models.RoleGuard,
			Status:   models.UserStatusActive,
		}
		require.NoError(t, env.DB.Create(orphan).Error)

		token, err := env.JWT.GenerateToken(orphan.ID, string(models.RoleGuard), 0)
		require.NoError(t, err)

		client := env.Service.NewClient(&fakeConn{})
		err = env.Service.Authenticate(client, token)
		require.Error(t, err)
		assert.Equal(t, "保安档案不存在", err.Error())
	})
}

func TestWebSocketReconnect(t *testing.T) {
	env := newWSTestEnv(t)
	company := seedCompany(t, env.DB, "WS重连公司")
	guard := seedGuard(t, env.DB, company.ID, "WS-100")

	_, firstConn := env.connectGuard(t, guard)
	assert.Equal(t, 1, env.Service.ClientCount())

	// 同一保安重连，后来者顶替，旧连接不被强制关闭，
	// 等它自己断开时再清理
	_, secondConn := env.connectGuard(t, guard)
	assert.Equal(t, 2, env.Service.ClientCount())
	assert.False(t, firstConn.isClosed())
	assert.False(t, secondConn.isClosed())

	// 面向保安的广播只送达最新连接
	env.Service.BroadcastEmergencyAlert(&models.EmergencyAlert{GuardID: guard.ID})
	assert.Empty(t, firstConn.receivedTypes())
	assert.Equal(t, []string{WSTypeEmergencyBroadcast}, secondConn.receivedTypes())
}

func TestWebSocketUnregister(t *testing.T) {
	env := newWSTestEnv(t)
	company := seedCompany(t, env.DB, "WS注销公司")
	guard := seedGuard(t, env.DB, company.ID, "WS-200")

	client, _ := env.connectGuard(t, guard)
	require.Equal(t, 1, env.Service.ClientCount())

	env.Service.Unregister(client)
	assert.Equal(t, 0, env.Service.ClientCount())

	// 注销后广播不再送达
	sent := env.Service.BroadcastToAdmins(company.ID, map[string]interface{}{"type": WSTypeError})
	assert.Equal(t, 0, sent)
}

func TestBroadcastToAdmins(t *testing.T) {
	env := newWSTestEnv(t)
	companyA := seedCompany(t, env.DB, "广播公司A")
	companyB := seedCompany(t, env.DB, "广播公司B")

	adminA1 := seedAdmin(t, env.DB, companyA.ID, "13600000001")
	adminA2 := seedAdmin(t, env.DB, companyA.ID, "13600000002")
	adminB := seedAdmin(t, env.DB, companyB.ID, "13600000003")
	guard := seedGuard(t, env.DB, companyA.ID, "WS-300")

	_, connA1 := env.connectAdmin(t, adminA1)
	_, connA1b := env.connectAdmin(t, adminA1) // 同一管理员的第二台设备
	_, connA2 := env.connectAdmin(t, adminA2)
	_, connB := env.connectAdmin(t, adminB)
	_, guardConn := env.connectGuard(t, guard)

	sent := env.Service.BroadcastToAdmins(companyA.ID, map[string]interface{}{
		"type": WSTypeGuardLocationUpdate,
	})

	// 同公司管理员的每条连接都收到，外公司管理员和保安收不到
	assert.Equal(t, 3, sent)
	assert.Equal(t, []string{WSTypeGuardLocationUpdate}, connA1.receivedTypes())
	assert.Equal(t, []string{WSTypeGuardLocationUpdate}, connA1b.receivedTypes())
	assert.Equal(t, []string{WSTypeGuardLocationUpdate}, connA2.receivedTypes())
	assert.Empty(t, connB.receivedTypes())
	assert.Empty(t, guardConn.receivedTypes())
}

func TestHandleLocationUpdate(t *testing.T) {
	env := newWSTestEnv(t)
	company := seedCompany(t, env.DB, "WS定位公司")
	admin := seedAdmin(t, env.DB, company.ID, "13600000010")
	guard := seedGuard(t, env.DB, company.ID, "WS-400")

	_, adminConn := env.connectAdmin(t, admin)
	guardClient, guardConn := env.connectGuard(t, guard)

	raw := fmt.Sprintf(`{"type":%q,"data":{"latitude":31.2304,"longitude":121.4737}}`, WSTypeLocationUpdate)
	env.Service.HandleMessage(guardClient, []byte(raw))

	// 入库
	var count int64
	env.DB.Model(&models.LocationRecord{}).Where("guard_id = ?", guard.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	// 管理员收到guard_location_update，保安自己绝不回显
	assert.Equal(t, []string{WSTypeGuardLocationUpdate}, adminConn.receivedTypes())
	assert.Empty(t, guardConn.receivedTypes())
}

func TestHandleMessageRejectsUnauthenticated(t *testing.T) {
	env := newWSTestEnv(t)

	conn := &fakeConn{}
	client := env.Service.NewClient(conn)

	raw, _ := json.Marshal(WSMessage{Type: WSTypeRequestLiveLocations})
	env.Service.HandleMessage(client, raw)

	types := conn.receivedTypes()
	require.Len(t, types, 1)
	assert.Equal(t, WSTypeError, types[0])
}

func TestHandleMessageRoleChecks(t *testing.T) {
	env := newWSTestEnv(t)
	company := seedCompany(t, env.DB, "WS角色公司")
	admin := seedAdmin(t, env.DB, company.ID, "13600000020")
	guard := seedGuard(t, env.DB, company.ID, "WS-500")

	adminClient, adminConn := env.connectAdmin(t, admin)
	guardClient, guardConn := env.connectGuard(t, guard)

	t.Run("管理员不能上报定位", func(t *testing.T) {
		raw := fmt.Sprintf(`{"type":%q,"data":{"latitude":31,"longitude":121}}`, WSTypeLocationUpdate)
		env.Service.HandleMessage(adminClient, []byte(raw))

		types := adminConn.receivedTypes()
		require.NotEmpty(t, types)
		assert.Equal(t, WSTypeError, types[len(types)-1])
	})

	t.Run("保安不能请求实时位置", func(t *testing.T) {
		raw, _ := json.Marshal(WSMessage{Type: WSTypeRequestLiveLocations})
		env.Service.HandleMessage(guardClient, raw)

		types := guardConn.receivedTypes()
		require.NotEmpty(t, types)
		assert.Equal(t, WSTypeError, types[len(types)-1])
	})

	t.Run("管理员请求实时位置直接回复", func(t *testing.T) {
		raw, _ := json.Marshal(WSMessage{Type: WSTypeRequestLiveLocations})
		env.Service.HandleMessage(adminClient, raw)

		types := adminConn.receivedTypes()
		assert.Equal(t, WSTypeLiveLocations, types[len(types)-1])
	})
}

func TestHandleEmergencyAlertOverWebSocket(t *testing.T) {
	env := newWSTestEnv(t)
	company := seedCompany(t, env.DB, "WS告警公司")
	admin := seedAdmin(t, env.DB, company.ID, "13600000030")
	guard := seedGuard(t, env.DB, company.ID, "WS-600")
	peer := seedGuard(t, env.DB, company.ID, "WS-601")

	_, adminConn := env.connectAdmin(t, admin)
	guardClient, guardConn := env.connectGuard(t, guard)
	_, peerConn := env.connectGuard(t, peer)

	raw := fmt.Sprintf(`{"type":%q,"data":{"type":"panic","severity":"critical","latitude":31.0,"longitude":121.0}}`, WSTypeEmergencyAlert)
	env.Service.HandleMessage(guardClient, []byte(raw))

	// 告警与REST路径共用同一套业务逻辑，入库且状态为active
	var alert models.EmergencyAlert
	require.NoError(t, env.DB.Where("guard_id = ?", guard.ID).First(&alert).Error)
	assert.Equal(t, models.AlertStatusActive, alert.Status)
	assert.Equal(t, models.AlertTypePanic, alert.Type)

	// 管理员收到完整告警广播，保安侧只收到脱敏通报
	assert.Contains(t, adminConn.receivedTypes(), WSTypeEmergencyAlert)
	assert.NotContains(t, adminConn.receivedTypes(), WSTypeEmergencyBroadcast)
	assert.Equal(t, []string{WSTypeEmergencyBroadcast}, peerConn.receivedTypes())

	// 触发者也在通报范围内，并额外收到受理回执
	assert.Contains(t, guardConn.receivedTypes(), WSTypeEmergencyBroadcast)
	assert.Contains(t, guardConn.receivedTypes(), WSTypeEmergencyAlert)
}
