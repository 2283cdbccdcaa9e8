// pkg/chat/options.go
package chat

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lk2023060901/xchat/pkg/logger"
)

// ClientOption 客户端选项
type ClientOption func(*Client)

// WithLogger 设置日志器
func WithLogger(log logger.Logger) ClientOption {
	return func(c *Client) {
		c.logger = log
	}
}

// WithHandler 设置业务消息处理器
func WithHandler(handler MessageHandler) ClientOption {
	return func(c *Client) {
		c.handler = handler
	}
}

// WithMiddleware 追加消息处理中间件
func WithMiddleware(middlewares ...Middleware) ClientOption {
	return func(c *Client) {
		c.middlewares = append(c.middlewares, middlewares...)
	}
}

// WithTokenProvider 设置访问令牌提供者，优先于配置中的静态令牌
func WithTokenProvider(provider TokenProvider) ClientOption {
	return func(c *Client) {
		c.tokens = provider
	}
}

// WithHTTPClient 设置发现与票据请求复用的 HTTP 客户端
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithDialer 设置自定义 WebSocket 拨号器，配置中的握手参数不再生效
func WithDialer(dialer *websocket.Dialer) ClientOption {
	return func(c *Client) {
		c.dialer = dialer
	}
}

// WithMetricsRegisterer 设置指标注册器并启用指标采集
func WithMetricsRegisterer(registerer prometheus.Registerer) ClientOption {
	return func(c *Client) {
		c.metricsRegisterer = registerer
	}
}
