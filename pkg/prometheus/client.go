package prometheus

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Client 指标客户端，持有独立的 Registry，
// 可选地在独立端口上暴露 /metrics。
type Client struct {
	config   *Config
	registry *prometheus.Registry

	// 已注册指标，按名称索引
	counters   sync.Map // map[string]*CounterVec
	gauges     sync.Map // map[string]*GaugeVec
	histograms sync.Map // map[string]*HistogramVec
	summaries  sync.Map // map[string]*SummaryVec

	httpServer *http.Server
	listenAddr string

	closed atomic.Bool
}

// New 创建指标客户端。启用指标端口时同步绑定监听地址，
// 端口被占用会直接返回错误。
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config:   cfg,
		registry: prometheus.NewRegistry(),
	}

	if cfg.EnableGoCollector {
		c.registry.MustRegister(collectors.NewGoCollector())
	}
	if cfg.EnableProcessCollector {
		c.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	if cfg.HTTPServer.Enabled {
		if err := c.startHTTPServer(); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Registry 返回底层 Registry，供需要直接注册采集器的调用方使用
func (c *Client) Registry() *prometheus.Registry {
	return c.registry
}

// Handler 返回指标 Handler，用于挂载到已有 HTTP 服务
func (c *Client) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Config 返回配置
func (c *Client) Config() *Config {
	return c.config
}

// MetricsAddr 返回指标端口实际监听的地址，未启用时为空串
func (c *Client) MetricsAddr() string {
	return c.listenAddr
}

func (c *Client) startHTTPServer() error {
	ln, err := net.Listen("tcp", c.config.HTTPServer.Addr)
	if err != nil {
		return fmt.Errorf("prometheus: listen %s: %w", c.config.HTTPServer.Addr, err)
	}
	c.listenAddr = ln.Addr().String()

	mux := http.NewServeMux()
	mux.Handle(c.config.HTTPServer.Path, c.Handler())

	c.httpServer = &http.Server{
		Handler:      mux,
		ReadTimeout:  c.config.HTTPServer.Timeout,
		WriteTimeout: c.config.HTTPServer.Timeout,
	}

	go func() {
		// 正常关闭返回 ErrServerClosed，其余错误只会在监听成功后出现
		_ = c.httpServer.Serve(ln)
	}()

	return nil
}

// Close 关闭客户端，停止指标端口
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	if c.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return c.httpServer.Shutdown(ctx)
	}

	return nil
}

// IsClosed 客户端是否已关闭
func (c *Client) IsClosed() bool {
	return c.closed.Load()
}
