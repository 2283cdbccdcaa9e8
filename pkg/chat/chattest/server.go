// Package chattest 提供测试用的聊天网关实现
// 覆盖发现、票据和 WebSocket 三个端点，并暴露计数器与脚本化行为供测试断言
package chattest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lk2023060901/xchat/pkg/chat"
)

// issuedTicket 已签发票据的状态
type issuedTicket struct {
	used      bool
	expiresAt time.Time
}

// gatewayConn 网关侧的一条活跃连接
type gatewayConn struct {
	id      string
	ws      *websocket.Conn
	writeMu sync.Mutex
}

// writeEnvelope 并发安全地写出一帧
func (gc *gatewayConn) writeEnvelope(env chat.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	gc.writeMu.Lock()
	defer gc.writeMu.Unlock()
	return gc.ws.WriteMessage(websocket.TextMessage, data)
}

// closeWith 发送关闭帧后断开
func (gc *gatewayConn) closeWith(code int, reason string) {
	gc.writeMu.Lock()
	msg := websocket.FormatCloseMessage(code, reason)
	_ = gc.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	gc.writeMu.Unlock()
	_ = gc.ws.Close()
}

// Server 测试网关
type Server struct {
	httpSrv  *httptest.Server
	upgrader websocket.Upgrader

	mu       sync.Mutex
	gateway  chat.GatewayConfig
	tickets  map[string]*issuedTicket
	received []chat.Envelope
	conns    map[string]*gatewayConn

	ticketsIssued atomic.Int64
	upgrades      atomic.Int64

	failDiscovery  atomic.Int32
	failTicket     atomic.Int32
	blockUpgrades  atomic.Int32
	closeNextWith  atomic.Int32
	discoveryDelay atomic.Int64 // 毫秒
}

// Option 测试网关选项
type Option func(*Server)

// WithGatewayConfig 设置发现端点返回的网关配置
func WithGatewayConfig(cfg chat.GatewayConfig) Option {
	return func(s *Server) {
		s.gateway = cfg
	}
}

// NewServer 启动测试网关
func NewServer(opts ...Option) *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		gateway: chat.GatewayConfig{
			Version:    "1.0",
			Endpoint:   "/ws/chat",
			TicketPath: "/ws/ticket",
			Features:   map[string]bool{"optimistic_messages": true},
			ConnectionLimits: chat.ConnectionLimits{
				MaxConnectionsPerUser: 4,
				MaxMessageRate:        0,
				MaxMessageSize:        10240,
				HeartbeatInterval:     30000,
			},
			Auth: chat.AuthPolicy{
				Methods:         []string{"ticket"},
				TokenValidation: "bearer",
				SessionHandling: "single",
			},
		},
		tickets: make(map[string]*issuedTicket),
		conns:   make(map[string]*gatewayConn),
	}

	for _, opt := range opts {
		opt(s)
	}

	engine := gin.New()
	engine.GET("/ws/config", s.handleDiscovery)
	engine.POST("/ws/ticket", s.handleTicket)
	engine.GET("/ws/chat", s.handleWS)

	s.httpSrv = httptest.NewServer(engine)
	return s
}

// URL 返回网关基础地址
func (s *Server) URL() string {
	return s.httpSrv.URL
}

// Close 关闭网关与全部连接
func (s *Server) Close() {
	s.DropAll(websocket.CloseGoingAway)
	s.httpSrv.Close()
}

// ================================
// 脚本化行为
// ================================

// FailNextDiscovery 让下一次发现请求返回 500
func (s *Server) FailNextDiscovery() {
	s.failDiscovery.Add(1)
}

// FailNextTicket 让下一次票据请求返回 500
func (s *Server) FailNextTicket() {
	s.failTicket.Add(1)
}

// BlockUpgrades 让接下来 n 次握手在升级前被 503 拒绝
func (s *Server) BlockUpgrades(n int) {
	s.blockUpgrades.Store(int32(n))
}

// CloseNextWith 让下一条连接在升级后立刻以指定关闭码断开
func (s *Server) CloseNextWith(code int) {
	s.closeNextWith.Store(int32(code))
}

// SetDiscoveryDelay 为发现请求注入固定延迟
func (s *Server) SetDiscoveryDelay(d time.Duration) {
	s.discoveryDelay.Store(d.Milliseconds())
}

// SetGatewayConfig 替换发现端点返回的配置
func (s *Server) SetGatewayConfig(cfg chat.GatewayConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gateway = cfg
}

// ================================
// 观测
// ================================

// TicketsIssued 返回已签发的票据数
func (s *Server) TicketsIssued() int64 {
	return s.ticketsIssued.Load()
}

// Upgrades 返回成功升级的连接数
func (s *Server) Upgrades() int64 {
	return s.upgrades.Load()
}

// ActiveConns 返回当前活跃连接数
func (s *Server) ActiveConns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Received 返回已收到的业务消息快照，心跳帧不计入
func (s *Server) Received() []chat.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]chat.Envelope, len(s.received))
	copy(out, s.received)
	return out
}

// SendToAll 向全部活跃连接推送一帧
func (s *Server) SendToAll(env chat.Envelope) {
	s.mu.Lock()
	conns := make([]*gatewayConn, 0, len(s.conns))
	for _, gc := range s.conns {
		conns = append(conns, gc)
	}
	s.mu.Unlock()

	for _, gc := range conns {
		_ = gc.writeEnvelope(env)
	}
}

// DropAll 断开全部活跃连接
// code > 0 时先发送对应关闭帧，否则直接断开模拟异常中断
func (s *Server) DropAll(code int) {
	s.mu.Lock()
	conns := make([]*gatewayConn, 0, len(s.conns))
	for id, gc := range s.conns {
		conns = append(conns, gc)
		delete(s.conns, id)
	}
	s.mu.Unlock()

	for _, gc := range conns {
		if code > 0 {
			gc.closeWith(code, "")
		} else {
			_ = gc.ws.Close()
		}
	}
}

// ================================
// 端点实现
// ================================

// handleDiscovery 发现端点
func (s *Server) handleDiscovery(c *gin.Context) {
	if delay := s.discoveryDelay.Load(); delay > 0 {
		time.Sleep(time.Duration(delay) * time.Millisecond)
	}
	if s.failDiscovery.Load() > 0 {
		s.failDiscovery.Add(-1)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "discovery unavailable"})
		return
	}

	s.mu.Lock()
	cfg := s.gateway
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"websocket_config": cfg})
}

// handleTicket 票据端点，要求 Bearer 令牌，票据一次有效
func (s *Server) handleTicket(c *gin.Context) {
	if s.failTicket.Load() > 0 {
		s.failTicket.Add(-1)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ticket service unavailable"})
		return
	}

	auth := c.GetHeader("Authorization")
	token := strings.TrimPrefix(auth, "Bearer ")
	if auth == "" || token == "" || token == auth {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "bearer token required"})
		return
	}

	var req struct {
		TTL int64 `json:"ttl"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.TTL <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ttl must be positive"})
		return
	}

	value := uuid.New().String()
	s.mu.Lock()
	s.tickets[value] = &issuedTicket{
		expiresAt: time.Now().Add(time.Duration(req.TTL) * time.Second),
	}
	s.mu.Unlock()
	s.ticketsIssued.Add(1)

	c.JSON(http.StatusOK, gin.H{"ticket": value, "ttl": req.TTL})
}

// handleWS WebSocket 端点
// 票据无效或复用时仍完成升级，随后以策略违规关闭码断开
func (s *Server) handleWS(c *gin.Context) {
	if s.blockUpgrades.Load() > 0 {
		s.blockUpgrades.Add(-1)
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}

	ticketValue := c.Query("ticket")

	s.mu.Lock()
	ticket, found := s.tickets[ticketValue]
	valid := found && !ticket.used && time.Now().Before(ticket.expiresAt)
	if valid {
		ticket.used = true
	}
	s.mu.Unlock()

	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	s.upgrades.Add(1)

	gc := &gatewayConn{
		id: uuid.New().String(),
		ws: ws,
	}

	if !valid {
		gc.closeWith(websocket.ClosePolicyViolation, "invalid ticket")
		return
	}
	if code := s.closeNextWith.Swap(0); code > 0 {
		gc.closeWith(int(code), "scripted close")
		return
	}

	s.mu.Lock()
	s.conns[gc.id] = gc
	s.mu.Unlock()

	established := chat.Envelope{
		Type:      chat.TypeConnectionEstablished,
		Timestamp: time.Now().UnixMilli(),
	}
	established.Payload, _ = json.Marshal(map[string]string{"connection_id": gc.id})
	_ = gc.writeEnvelope(established)

	go s.readLoop(gc)
}

// readLoop 网关侧读循环：回应心跳并记录业务消息
func (s *Server) readLoop(gc *gatewayConn) {
	defer func() {
		s.mu.Lock()
		delete(s.conns, gc.id)
		s.mu.Unlock()
		_ = gc.ws.Close()
	}()

	for {
		_, data, err := gc.ws.ReadMessage()
		if err != nil {
			return
		}

		var env chat.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}

		switch env.Type {
		case chat.TypePing:
			_ = gc.writeEnvelope(chat.Envelope{
				Type:      chat.TypePong,
				Timestamp: time.Now().UnixMilli(),
			})
		default:
			s.mu.Lock()
			s.received = append(s.received, env)
			s.mu.Unlock()
		}
	}
}
