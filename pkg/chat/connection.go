// pkg/chat/connection.go
package chat

import (
	"context"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lk2023060901/xchat/pkg/logger"
)

// Connection 一条活跃的 WebSocket 连接
// 读写循环分离，出站帧经由发送通道串行写出
type Connection struct {
	id   string
	conn *websocket.Conn

	readTimeout  time.Duration
	writeTimeout time.Duration
	sendChan     chan []byte

	logger logger.Logger

	closed    atomic.Bool
	closeChan chan struct{}
	closeOnce sync.Once
	closeMu   sync.Mutex
	closeErr  error

	remoteAddr  net.Addr
	connectedAt time.Time
}

// NewConnection 包装一条握手成功的底层连接
func NewConnection(conn *websocket.Conn, cfg *ClientConfig, log logger.Logger) *Connection {
	return &Connection{
		id:           uuid.New().String(),
		conn:         conn,
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
		sendChan:     make(chan []byte, cfg.SendQueueSize),
		logger:       log,
		closeChan:    make(chan struct{}),
		remoteAddr:   conn.RemoteAddr(),
		connectedAt:  time.Now(),
	}
}

// ID 返回连接标识
func (c *Connection) ID() string {
	return c.id
}

// RemoteAddr 返回对端地址
func (c *Connection) RemoteAddr() net.Addr {
	return c.remoteAddr
}

// ConnectedAt 返回连接建立时间
func (c *Connection) ConnectedAt() time.Time {
	return c.connectedAt
}

// IsClosed 判断连接是否已关闭
func (c *Connection) IsClosed() bool {
	return c.closed.Load()
}

// Done 返回连接关闭信号
func (c *Connection) Done() <-chan struct{} {
	return c.closeChan
}

// CloseError 返回导致连接关闭的错误
func (c *Connection) CloseError() error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	return c.closeErr
}

// Send 阻塞发送，直到帧进入发送通道或连接关闭
func (c *Connection) Send(ctx context.Context, data []byte) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}

	select {
	case c.sendChan <- data:
		return nil
	case <-c.closeChan:
		return ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendAsync 非阻塞发送，发送通道已满时返回 ErrSendQueueFull
func (c *Connection) SendAsync(data []byte) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}

	select {
	case c.sendChan <- data:
		return nil
	case <-c.closeChan:
		return ErrConnectionClosed
	default:
		return ErrSendQueueFull
	}
}

// ReadLoop 读循环，每收到一帧调用 onFrame，退出时关闭连接
func (c *Connection) ReadLoop(onFrame func(data []byte)) {
	defer c.CloseWithError(nil)

	for {
		if c.readTimeout > 0 {
			_ = c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.recordCloseError(err)

			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("对端正常关闭连接", "conn_id", c.id)
				return
			}
			if err == io.EOF {
				return
			}
			if !c.closed.Load() {
				c.logger.Warn("读取消息失败",
					"conn_id", c.id,
					"error", err)
			}
			return
		}

		onFrame(data)
	}
}

// WriteLoop 写循环，串行写出发送通道中的帧
func (c *Connection) WriteLoop() {
	for {
		select {
		case data := <-c.sendChan:
			if c.writeTimeout > 0 {
				_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				if !c.closed.Load() {
					c.logger.Warn("写入消息失败",
						"conn_id", c.id,
						"error", err)
				}
				c.CloseWithError(err)
				return
			}

		case <-c.closeChan:
			return
		}
	}
}

// Close 主动关闭连接，向对端发送正常关闭帧
func (c *Connection) Close() error {
	return c.CloseWithCode(websocket.CloseNormalClosure, "")
}

// CloseWithCode 以指定关闭码关闭连接
func (c *Connection) CloseWithCode(code int, reason string) error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.closeChan)

		deadline := time.Now().Add(c.writeTimeout)
		msg := websocket.FormatCloseMessage(code, reason)
		if err := c.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
			c.logger.Debug("发送关闭帧失败", "conn_id", c.id, "error", err)
		}
		_ = c.conn.Close()
	})
	return nil
}

// CloseWithError 记录错误并直接关闭连接，不再发送关闭帧
func (c *Connection) CloseWithError(err error) {
	c.recordCloseError(err)
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.closeChan)
		_ = c.conn.Close()
	})
}

// recordCloseError 记录首个关闭错误
func (c *Connection) recordCloseError(err error) {
	if err == nil {
		return
	}
	c.closeMu.Lock()
	if c.closeErr == nil {
		c.closeErr = err
	}
	c.closeMu.Unlock()
}
