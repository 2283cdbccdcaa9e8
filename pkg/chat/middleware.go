// pkg/chat/middleware.go
package chat

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/lk2023060901/xchat/pkg/logger"
)

// Middleware 消息处理中间件
type Middleware func(next HandlerFunc) HandlerFunc

// MiddlewareChain 中间件链
type MiddlewareChain struct {
	middlewares []Middleware
}

// NewMiddlewareChain 创建中间件链
func NewMiddlewareChain(middlewares ...Middleware) *MiddlewareChain {
	return &MiddlewareChain{
		middlewares: middlewares,
	}
}

// Use 追加中间件
func (c *MiddlewareChain) Use(m ...Middleware) *MiddlewareChain {
	c.middlewares = append(c.middlewares, m...)
	return c
}

// Then 将中间件按注册顺序包裹到处理函数外层
func (c *MiddlewareChain) Then(h HandlerFunc) HandlerFunc {
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		h = c.middlewares[i](h)
	}
	return h
}

// Len 返回中间件数量
func (c *MiddlewareChain) Len() int {
	return len(c.middlewares)
}

// Recovery 捕获消息处理器 panic 的中间件
func Recovery(log logger.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(conn *Connection, frame *InboundFrame) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("消息处理器 panic",
						"conn_id", conn.ID(),
						"type", frame.Envelope.Type,
						"panic", r,
						"stack", string(debug.Stack()))
					err = fmt.Errorf("panic in message handler: %v", r)
				}
			}()
			return next(conn, frame)
		}
	}
}

// Logger 记录消息处理耗时的中间件
func Logger(log logger.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(conn *Connection, frame *InboundFrame) error {
			start := time.Now()
			err := next(conn, frame)

			log.Debug("处理业务消息",
				"conn_id", conn.ID(),
				"type", frame.Envelope.Type,
				"duration", time.Since(start),
				"error", err)
			return err
		}
	}
}
