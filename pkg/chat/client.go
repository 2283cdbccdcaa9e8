// pkg/chat/client.go
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lk2023060901/xchat/pkg/logger"
)

// Client 聊天网关客户端
// 封装完整的连接生命周期：网关发现、票据获取、握手、心跳保活、
// 离线队列补发和指数退避重连
type Client struct {
	config *ClientConfig
	logger logger.Logger

	dialer     *websocket.Dialer
	httpClient *http.Client

	discovery *DiscoveryClient
	tickets   *TicketClient
	tokens    TokenProvider

	conn   *Connection
	connMu sync.RWMutex

	gatewayCfg   *GatewayConfig
	gatewayCfgMu sync.RWMutex

	handler     MessageHandler
	middlewares []Middleware
	handlerFunc HandlerFunc

	queue   *OutboundQueue
	window  *SendWindow
	janitor *Janitor

	heartbeat   *HeartbeatManager
	heartbeatMu sync.Mutex

	reconnector *Reconnector

	stateBus *broadcaster[StateEvent]
	frameBus *broadcaster[*InboundFrame]

	stats statsTracker

	metrics           *ClientMetrics
	metricsRegisterer prometheus.Registerer

	maxMessageSize atomic.Int64

	sendMu sync.Mutex

	lastErrMu sync.RWMutex
	lastErr   error

	mu    sync.RWMutex
	state ConnectionState

	disconnecting atomic.Bool
	closed        atomic.Bool
	closeCh       chan struct{}
	closeOnce     sync.Once
}

// NewClient 创建聊天客户端，创建过程不触发任何网络请求
func NewClient(cfg *ClientConfig, opts ...ClientOption) (*Client, error) {
	if cfg == nil {
		cfg = DefaultClientConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config:   cfg,
		logger:   logger.Default().Named("chat"),
		state:    StateDisconnected,
		closeCh:  make(chan struct{}),
		stateBus: newBroadcaster[StateEvent](),
		frameBus: newBroadcaster[*InboundFrame](),
	}
	c.maxMessageSize.Store(cfg.MaxMessageSize)

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: cfg.ConnectTimeout}
	}
	if c.tokens == nil {
		c.tokens = StaticTokenProvider(cfg.Token)
	}
	if c.handler == nil {
		c.handler = &BaseHandler{}
	}

	if c.dialer == nil {
		dialer := &websocket.Dialer{
			HandshakeTimeout:  cfg.ConnectTimeout,
			ReadBufferSize:    cfg.ReadBufferSize,
			WriteBufferSize:   cfg.WriteBufferSize,
			EnableCompression: cfg.EnableCompression,
		}
		if cfg.TLS != nil {
			tlsConfig, err := cfg.TLS.BuildTLSConfig()
			if err != nil {
				return nil, errors.Wrap(err, "build tls config")
			}
			dialer.TLSClientConfig = tlsConfig
		}
		c.dialer = dialer
	}

	c.discovery = NewDiscoveryClient(cfg.BaseURL, c.httpClient, cfg.Headers, c.logger)
	c.tickets = NewTicketClient(c.httpClient, c.tokens, cfg.Headers, c.logger)
	c.queue = NewOutboundQueue(cfg.Queue)
	c.window = NewSendWindow(cfg.RateWindow, 0)
	c.janitor = NewJanitor(cfg.Queue.SweepInterval, c.queue, c.window, c.logger)

	if cfg.Reconnect.Enable {
		c.reconnector = NewReconnector(&cfg.Reconnect, c, c.logger)
	}
	if c.metricsRegisterer != nil {
		c.metrics = NewClientMetrics(c.metricsRegisterer)
	}

	c.buildHandlerChain()
	return c, nil
}

// buildHandlerChain 组装消息处理链，恢复中间件始终在最外层
func (c *Client) buildHandlerChain() {
	chain := NewMiddlewareChain(Recovery(c.logger))
	chain.Use(c.middlewares...)
	c.handlerFunc = chain.Then(func(conn *Connection, frame *InboundFrame) error {
		return c.handler.OnMessage(conn, frame)
	})
}

// ================================
// 连接生命周期
// ================================

// Connect 建立连接
// 处于正在连接、已连接或重连中时为幂等空操作；
// 失败时按错误类别决定是否转入自动重连
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	if !c.transition(StateConnecting, nil, StateDisconnected, StateError) {
		return nil
	}
	c.clearLastError()

	return c.connectWithPolicy(ctx)
}

// Disconnect 主动断开连接并停止自动重连
func (c *Client) Disconnect() error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	if c.reconnector != nil {
		c.reconnector.Stop()
		c.reconnector.Reset()
	}

	conn := c.currentConn()
	if conn == nil {
		// 没有活跃连接：可能正处于重连等待
		c.transition(StateDisconnected, nil, StateReconnecting)
		return nil
	}

	c.disconnecting.Store(true)
	c.setState(StateDisconnecting, nil)

	// 发送正常关闭帧，读循环随之退出并完成收尾
	_ = conn.Close()
	return nil
}

// ForceReconnect 立即重置重连计数并重新建立连接
func (c *Client) ForceReconnect(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	if c.reconnector != nil {
		c.reconnector.Stop()
		c.reconnector.Reset()
	}

	// 摘除当前连接，旧连接的断开收尾因引用不匹配而被跳过
	c.connMu.Lock()
	old := c.conn
	c.conn = nil
	c.connMu.Unlock()

	c.heartbeatMu.Lock()
	if c.heartbeat != nil {
		c.heartbeat.Stop()
		c.heartbeat = nil
	}
	c.heartbeatMu.Unlock()
	c.janitor.Stop()

	if old != nil {
		_ = old.Close()
		c.stats.onDisconnected()
		if c.metrics != nil {
			c.metrics.OnDisconnected()
		}
	}

	c.setState(StateConnecting, nil)
	c.clearLastError()

	return c.connectWithPolicy(ctx)
}

// Close 关闭客户端并释放全部资源，关闭后不可再使用
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.closeCh)

		if c.reconnector != nil {
			c.reconnector.Stop()
		}

		c.heartbeatMu.Lock()
		if c.heartbeat != nil {
			c.heartbeat.Stop()
			c.heartbeat = nil
		}
		c.heartbeatMu.Unlock()

		c.janitor.Stop()

		c.connMu.Lock()
		conn := c.conn
		c.conn = nil
		c.connMu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}

		_ = c.tickets.Close()

		c.setState(StateDisconnected, nil)
		c.stateBus.closeAll()
		c.frameBus.closeAll()

		c.logger.Info("聊天客户端已关闭")
	})
	return nil
}

// connectWithPolicy 执行一次连接流程，失败时按错误类别决定后续动作
func (c *Client) connectWithPolicy(ctx context.Context) error {
	err := c.connectOnce(ctx)
	if err == nil {
		return nil
	}

	c.setLastError(err)
	c.stats.onError()
	if c.metrics != nil {
		c.metrics.OnError("connect")
	}

	if c.reconnector != nil && retryableError(err) && !c.closed.Load() {
		c.setState(StateReconnecting, err)
		go func() {
			_ = c.reconnector.Start(context.Background())
		}()
	} else {
		c.setState(StateDisconnected, err)
	}
	return err
}

// connectOnce 执行一次完整连接流程：发现、取票、握手
// 整个流程受 ConnectTimeout 约束
func (c *Client) connectOnce(ctx context.Context) error {
	attemptCtx, cancel := context.WithTimeout(ctx, c.config.ConnectTimeout)
	defer cancel()

	gw, err := c.discovery.Fetch(attemptCtx)
	if err != nil {
		return err
	}
	c.applyGatewayConfig(gw)

	ticketURL := c.discovery.TicketURL(gw)
	ticket, err := c.tickets.AcquireTicket(attemptCtx, ticketURL, c.config.TicketTTL)
	if err != nil {
		return err
	}

	dialURL, err := BuildDialURL(c.config.BaseURL, gw, ticket.Value)
	if err != nil {
		return err
	}

	header := http.Header{}
	for k, v := range c.config.Headers {
		header.Set(k, v)
	}

	c.logger.Info("连接聊天网关",
		"endpoint", gw.Endpoint,
		"gateway_version", gw.Version)

	wsConn, resp, err := c.dialer.DialContext(attemptCtx, dialURL, header)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", ErrConnectionTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}

	c.finishConnect(wsConn, ticketURL)
	return nil
}

// finishConnect 握手成功后的装配：启动读写循环、心跳与清理器，并补发离线队列
func (c *Client) finishConnect(wsConn *websocket.Conn, ticketURL string) {
	conn := NewConnection(wsConn, c.config, c.logger)

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	// 票据一次有效，握手成功即视为已消费
	c.tickets.Consume(ticketURL)

	wasReconnect := false
	if c.reconnector != nil {
		wasReconnect = c.reconnector.Attempts() > 0
		c.reconnector.Reset()
	}

	c.disconnecting.Store(false)
	c.clearLastError()

	c.stats.onConnected(time.Now(), wasReconnect)
	if c.metrics != nil {
		c.metrics.OnConnected()
		if wasReconnect {
			c.metrics.OnReconnected()
		}
	}

	hb := NewHeartbeatManager(c.heartbeatInterval(), func() error {
		return c.sendHeartbeat(conn)
	}, c.logger)
	c.heartbeatMu.Lock()
	c.heartbeat = hb
	c.heartbeatMu.Unlock()

	c.setState(StateConnected, nil)

	if err := c.handler.OnConnect(conn); err != nil {
		c.logger.Warn("连接回调返回错误", "error", err)
	}

	go conn.WriteLoop()
	go func() {
		conn.ReadLoop(func(data []byte) {
			c.handleFrame(conn, data)
		})
		c.handleDisconnect(conn)
	}()

	if c.config.Heartbeat.Enable {
		hb.Start()
	}
	c.janitor.Start()

	c.drainQueue(conn)

	c.logger.Info("已连接聊天网关",
		"conn_id", conn.ID(),
		"remote", conn.RemoteAddr())
}

// redial 重连控制器驱动的单次连接尝试
func (c *Client) redial(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if !c.transition(StateConnecting, nil, StateReconnecting) {
		return ErrAlreadyConnected
	}

	err := c.connectOnce(ctx)
	if err == nil {
		return nil
	}

	c.setLastError(err)
	c.stats.onError()
	if c.metrics != nil {
		c.metrics.OnError("reconnect")
	}

	// 回到重连状态，由控制器决定是否继续
	c.transition(StateReconnecting, err, StateConnecting)
	return err
}

// onReconnectExhausted 重连次数耗尽，进入终止错误状态
func (c *Client) onReconnectExhausted() {
	c.setLastError(ErrMaxReconnectAttempts)
	c.stats.onError()
	if c.metrics != nil {
		c.metrics.OnError("reconnect_exhausted")
	}
	c.setState(StateError, ErrMaxReconnectAttempts)
}

// onReconnectAborted 重连遇到不可恢复错误，停在断开状态
func (c *Client) onReconnectAborted(err error) {
	c.setState(StateDisconnected, err)
}

// handleDisconnect 读循环退出后的收尾，仅对当前连接生效
func (c *Client) handleDisconnect(conn *Connection) {
	c.connMu.Lock()
	if c.conn != conn {
		c.connMu.Unlock()
		return
	}
	c.conn = nil
	c.connMu.Unlock()

	closeErr := conn.CloseError()

	c.heartbeatMu.Lock()
	if c.heartbeat != nil {
		c.heartbeat.Stop()
		c.heartbeat = nil
	}
	c.heartbeatMu.Unlock()

	c.janitor.Stop()

	c.stats.onDisconnected()
	if c.metrics != nil {
		c.metrics.OnDisconnected()
	}
	c.handler.OnDisconnect(conn, closeErr)

	if c.closed.Load() {
		c.setState(StateDisconnected, nil)
		return
	}

	// 主动断开：不进入重连
	if c.disconnecting.CompareAndSwap(true, false) {
		c.logger.Info("连接已断开", "conn_id", conn.ID())
		c.setState(StateDisconnected, nil)
		return
	}

	code, reason := closeCodeOf(closeErr)
	switch code {
	case websocket.CloseNormalClosure:
		// 服务端正常关闭，不重连
		c.logger.Info("服务端正常关闭连接", "conn_id", conn.ID())
		c.setState(StateDisconnected, closeErr)

	case websocket.ClosePolicyViolation:
		// 认证被拒：清空票据缓存，下次连接强制取新票
		authErr := fmt.Errorf("%w: close code %d: %s", ErrAuthentication, code, reason)
		c.tickets.ClearCache()
		c.setLastError(authErr)
		c.stats.onError()
		if c.metrics != nil {
			c.metrics.OnError("auth")
		}
		c.logger.Error("网关拒绝凭证",
			"close_code", code,
			"reason", reason)
		c.setState(StateDisconnected, authErr)

	default:
		transportErr := error(ErrTransport)
		if closeErr != nil {
			transportErr = fmt.Errorf("%w: %v", ErrTransport, closeErr)
		}
		c.setLastError(transportErr)
		c.stats.onError()
		if c.metrics != nil {
			c.metrics.OnError("transport")
		}

		if c.reconnector != nil {
			c.logger.Warn("连接异常断开，准备重连",
				"conn_id", conn.ID(),
				"close_code", code,
				"error", closeErr)
			c.setState(StateReconnecting, transportErr)
			go func() {
				_ = c.reconnector.Start(context.Background())
			}()
		} else {
			c.setState(StateDisconnected, transportErr)
		}
	}
}

// ================================
// 消息收发
// ================================

// SendMessage 发送业务消息
// 返回 true 表示已进入发送通道；返回 false 且无错误表示已排队等待补发；
// 校验失败时返回错误，消息不入队也不计入统计
func (c *Client) SendMessage(env *Envelope) (bool, error) {
	if c.closed.Load() {
		return false, ErrClientClosed
	}

	now := time.Now()
	canonical, data, err := ValidateOutbound(env, c.maxMessageSize.Load(), now)
	if err != nil {
		return false, err
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.State() == StateConnected {
		if !c.window.CanSend(now) {
			// 被限流：静默入队，等待窗口释放后补发
			if c.metrics != nil {
				c.metrics.OnRateLimited()
			}
		} else if conn := c.currentConn(); conn != nil {
			if err := conn.SendAsync(data); err == nil {
				c.window.Record(now)
				c.afterSend(len(data), now)
				return true, nil
			}
		}
	}

	c.enqueue(canonical, now)
	return false, nil
}

// SendOptimisticMessage 发送携带客户端消息号的乐观消息
// 消息号立即返回，服务端确认前调用方可以用它做乐观展示
func (c *Client) SendOptimisticMessage(msgType, content string) (string, error) {
	clientMsgID := uuid.New().String()

	payload, err := json.Marshal(map[string]string{
		"content":       content,
		"client_msg_id": clientMsgID,
	})
	if err != nil {
		return "", errors.Wrap(err, "marshal optimistic payload")
	}

	if _, err := c.SendMessage(&Envelope{Type: msgType, Payload: payload}); err != nil {
		return "", err
	}
	return clientMsgID, nil
}

// sendHeartbeat 发送一帧应用层 ping
func (c *Client) sendHeartbeat(conn *Connection) error {
	env := &Envelope{
		Type:      TypePing,
		Timestamp: time.Now().UnixMilli(),
	}
	data, err := env.Marshal()
	if err != nil {
		return err
	}
	if err := conn.SendAsync(data); err != nil {
		return err
	}
	if c.metrics != nil {
		c.metrics.OnHeartbeatSent()
	}
	return nil
}

// handleFrame 入站帧分发
func (c *Client) handleFrame(conn *Connection, data []byte) {
	frame, err := DecodeInbound(data)
	if err != nil {
		c.stats.onError()
		if c.metrics != nil {
			c.metrics.OnError("parse")
		}
		c.logger.Warn("丢弃无法解析的入站帧", "error", err)
		return
	}

	c.stats.onReceived(time.Now())
	if c.metrics != nil {
		c.metrics.OnMessageReceived(len(data))
	}

	switch frame.Kind {
	case InboundConnectionEstablished:
		c.stats.setConnectionID(frame.ConnectionID)
		c.logger.Info("网关确认连接", "connection_id", frame.ConnectionID)

	case InboundPong:
		c.heartbeatMu.Lock()
		hb := c.heartbeat
		c.heartbeatMu.Unlock()
		if hb != nil {
			hb.OnPong()
		}
		if c.metrics != nil {
			c.metrics.OnHeartbeatReceived()
		}

	case InboundServerError:
		c.stats.onError()
		if c.metrics != nil {
			c.metrics.OnError("server")
		}
		c.setLastError(frame.ServerError)
		c.logger.Warn("网关下发错误",
			"code", frame.ServerError.Code,
			"message", frame.ServerError.Message,
			"recoverable", frame.ServerError.Recoverable)
		c.handler.OnError(conn, frame.ServerError)

	case InboundOpaque:
		if err := c.handlerFunc(conn, frame); err != nil {
			c.stats.onError()
			if c.metrics != nil {
				c.metrics.OnError("handler")
			}
			c.handler.OnError(conn, err)
		}
	}

	c.frameBus.publish(frame)
}

// drainQueue 连接恢复后按入队顺序补发离线消息
// 为保持顺序使用阻塞发送，被限流的消息整体回队
func (c *Client) drainQueue(conn *Connection) {
	pending := c.queue.DrainAll()
	if len(pending) == 0 {
		return
	}

	c.logger.Info("补发离线消息", "count", len(pending))

	sent := 0
	requeued := 0
	for i, env := range pending {
		now := time.Now()
		if !c.window.CanSend(now) {
			for _, rest := range pending[i:] {
				c.queue.Enqueue(rest, now)
				requeued++
			}
			if c.metrics != nil {
				c.metrics.OnRateLimited()
			}
			break
		}

		data, err := env.Marshal()
		if err != nil {
			c.logger.Warn("丢弃无法序列化的排队消息",
				"type", env.Type,
				"error", err)
			continue
		}

		sendCtx, cancel := context.WithTimeout(context.Background(), c.config.WriteTimeout)
		err = conn.Send(sendCtx, data)
		cancel()
		if err != nil {
			c.queue.Enqueue(env, now)
			requeued++
			for _, rest := range pending[i+1:] {
				c.queue.Enqueue(rest, time.Now())
				requeued++
			}
			break
		}

		c.window.Record(now)
		c.afterSend(len(data), now)
		sent++
	}

	if c.metrics != nil {
		c.metrics.OnQueueDrained(c.queue.Len())
	}
	c.logger.Info("离线消息补发完成",
		"sent", sent,
		"requeued", requeued)
}

// afterSend 发送成功后的统计
func (c *Client) afterSend(bytes int, now time.Time) {
	c.stats.onSent(now)
	if c.metrics != nil {
		c.metrics.OnMessageSent(bytes)
	}
}

// enqueue 消息进入离线队列
func (c *Client) enqueue(env *Envelope, now time.Time) {
	before := c.queue.Dropped()
	c.queue.Enqueue(env, now)
	if c.metrics != nil {
		c.metrics.OnMessageQueued(c.queue.Len())
		if dropped := c.queue.Dropped() - before; dropped > 0 {
			c.metrics.OnMessagesDropped(int(dropped))
		}
	}
}

// ================================
// 状态与观察
// ================================

// State 返回当前连接状态
func (c *Client) State() ConnectionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsConnected 判断是否已连接
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// IsReconnecting 判断是否处于重连
func (c *Client) IsReconnecting() bool {
	return c.State() == StateReconnecting
}

// Stats 返回连接统计快照
func (c *Client) Stats() ConnectionStats {
	return c.stats.snapshot()
}

// QueueLen 返回离线队列中的消息数
func (c *Client) QueueLen() int {
	return c.queue.Len()
}

// ReconnectAttempts 返回当前累计重连次数
func (c *Client) ReconnectAttempts() int {
	if c.reconnector == nil {
		return 0
	}
	return c.reconnector.Attempts()
}

// GatewayConfig 返回最近一次发现获得的网关配置
func (c *Client) GatewayConfig() *GatewayConfig {
	c.gatewayCfgMu.RLock()
	defer c.gatewayCfgMu.RUnlock()
	return c.gatewayCfg
}

// LastError 返回最近一次记录的错误
func (c *Client) LastError() error {
	c.lastErrMu.RLock()
	defer c.lastErrMu.RUnlock()
	return c.lastErr
}

// ClearError 清除错误，处于终止错误状态时回到断开状态
func (c *Client) ClearError() {
	c.clearLastError()
	c.transition(StateDisconnected, nil, StateError)
}

// SubscribeState 订阅连接状态变更
func (c *Client) SubscribeState(buffer int) (<-chan StateEvent, string) {
	return c.stateBus.subscribe(buffer)
}

// UnsubscribeState 取消状态订阅
func (c *Client) UnsubscribeState(id string) {
	c.stateBus.unsubscribe(id)
}

// SubscribeFrames 订阅全部入站帧，含保留类型帧
func (c *Client) SubscribeFrames(buffer int) (<-chan *InboundFrame, string) {
	return c.frameBus.subscribe(buffer)
}

// UnsubscribeFrames 取消帧订阅
func (c *Client) UnsubscribeFrames(id string) {
	c.frameBus.unsubscribe(id)
}

// SetHandler 设置消息处理器
func (c *Client) SetHandler(handler MessageHandler) {
	c.handler = handler
	c.buildHandlerChain()
}

// Use 追加消息处理中间件，应在连接建立前调用
func (c *Client) Use(middlewares ...Middleware) {
	c.middlewares = append(c.middlewares, middlewares...)
	c.buildHandlerChain()
}

// ================================
// 内部辅助
// ================================

// currentConn 返回当前活跃连接
func (c *Client) currentConn() *Connection {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.conn
}

// applyGatewayConfig 应用网关下发的配置快照
func (c *Client) applyGatewayConfig(gw *GatewayConfig) {
	c.gatewayCfgMu.Lock()
	c.gatewayCfg = gw
	c.gatewayCfgMu.Unlock()

	c.window.SetLimit(gw.ConnectionLimits.MaxMessageRate)

	if gw.ConnectionLimits.MaxMessageSize > 0 {
		c.maxMessageSize.Store(gw.ConnectionLimits.MaxMessageSize)
	} else {
		c.maxMessageSize.Store(c.config.MaxMessageSize)
	}
}

// heartbeatInterval 心跳间隔：本地配置优先，其次网关下发
func (c *Client) heartbeatInterval() time.Duration {
	if c.config.Heartbeat.Interval > 0 {
		return c.config.Heartbeat.Interval
	}
	if gw := c.GatewayConfig(); gw != nil {
		return gw.ConnectionLimits.HeartbeatDuration()
	}
	return 30 * time.Second
}

// setState 无条件切换状态并广播
func (c *Client) setState(next ConnectionState, cause error) {
	c.mu.Lock()
	prev := c.state
	if prev == next {
		c.mu.Unlock()
		return
	}
	c.state = next
	c.mu.Unlock()

	c.publishTransition(prev, next, cause)
}

// transition 仅当处于 allowed 状态之一时切换，返回是否切换成功
func (c *Client) transition(next ConnectionState, cause error, allowed ...ConnectionState) bool {
	c.mu.Lock()
	prev := c.state
	permitted := false
	for _, s := range allowed {
		if prev == s {
			permitted = true
			break
		}
	}
	if !permitted || prev == next {
		c.mu.Unlock()
		return false
	}
	c.state = next
	c.mu.Unlock()

	c.publishTransition(prev, next, cause)
	return true
}

// publishTransition 广播状态变更
func (c *Client) publishTransition(prev, next ConnectionState, cause error) {
	if c.metrics != nil {
		c.metrics.OnStateChange(next)
	}
	c.logger.Debug("连接状态变更",
		"from", prev,
		"to", next)
	c.stateBus.publish(StateEvent{
		Old: prev,
		New: next,
		Err: cause,
		At:  time.Now(),
	})
}

// setLastError 记录最近一次错误
func (c *Client) setLastError(err error) {
	c.lastErrMu.Lock()
	c.lastErr = err
	c.lastErrMu.Unlock()
}

// clearLastError 清除最近一次错误
func (c *Client) clearLastError() {
	c.lastErrMu.Lock()
	c.lastErr = nil
	c.lastErrMu.Unlock()
}

// retryableError 判断连接错误是否适合自动重连
// 发现、票据和认证类失败需要调用方介入，自动重试没有意义
func retryableError(err error) bool {
	switch {
	case errors.Is(err, ErrDiscovery),
		errors.Is(err, ErrTicketAcquisition),
		errors.Is(err, ErrNoToken),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrAuthentication),
		errors.Is(err, ErrClientClosed):
		return false
	}
	return true
}

// closeCodeOf 从关闭错误中提取关闭码，无关闭帧时返回 -1
func closeCodeOf(err error) (int, string) {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return closeErr.Code, closeErr.Text
	}
	return -1, ""
}
