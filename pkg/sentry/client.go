package sentry

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
)

// Client 错误上报客户端。持有独立的 Sentry Hub，
// 不触碰 SDK 的全局状态，同一进程可创建多个实例。
type Client struct {
	hub    *sentry.Hub
	cfg    *Config
	hooks  *hookSet
	closed atomic.Bool
	stats  clientStats
}

// clientStats 事件计数
type clientStats struct {
	total    atomic.Uint64
	captured atomic.Uint64
	dropped  atomic.Uint64
}

// New 创建客户端
func New(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sdk, err := sentry.NewClient(cfg.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("sentry: create client: %w", err)
	}

	hub := sentry.NewHub(sdk, sentry.NewScope())
	hub.ConfigureScope(func(scope *sentry.Scope) {
		for k, v := range cfg.Tags {
			scope.SetTag(k, v)
		}
	})

	return &Client{
		hub:   hub,
		cfg:   cfg,
		hooks: newHookSet(),
	}, nil
}

// CaptureException 上报错误
func (c *Client) CaptureException(err error) *sentry.EventID {
	if c.closed.Load() {
		return nil
	}

	id := c.hub.CaptureException(err)
	c.record(id, sentry.LevelError, "")
	return id
}

// CaptureMessage 上报文本消息
func (c *Client) CaptureMessage(message string, level Level) *sentry.EventID {
	if c.closed.Load() {
		return nil
	}

	id := c.hub.CaptureMessage(message)
	c.record(id, level.sentryLevel(), message)
	return id
}

// Recover 用于 defer，上报 panic 后重新抛出
func (c *Client) Recover() {
	if r := recover(); r != nil {
		c.RecoverWithContext(r)
		panic(r)
	}
}

// RecoverWithContext 上报 panic，不重新抛出
func (c *Client) RecoverWithContext(recovered interface{}) *sentry.EventID {
	if c.closed.Load() {
		return nil
	}

	id := c.hub.RecoverWithContext(nil, recovered)
	c.record(id, sentry.LevelFatal, "")
	return id
}

// WrapGoroutine 包装 goroutine 入口，panic 时先上报再继续抛出
func (c *Client) WrapGoroutine(f func()) func() {
	return func() {
		defer c.Recover()
		f()
	}
}

// record 更新计数，捕获成功时触发钩子
func (c *Client) record(id *sentry.EventID, level sentry.Level, message string) {
	c.stats.total.Add(1)

	if id == nil || *id == "" {
		c.stats.dropped.Add(1)
		return
	}

	c.stats.captured.Add(1)
	c.hooks.fire(&sentry.Event{
		EventID: *id,
		Level:   level,
		Message: message,
	})
}

// Hub 返回底层 Hub，供需要直接操作 scope 的调用方使用
func (c *Client) Hub() *sentry.Hub {
	return c.hub
}

// RegisterHook 注册事件钩子
func (c *Client) RegisterHook(hook EventHook) {
	c.hooks.add(hook)
}

// UnregisterHook 注销事件钩子。按接口相等匹配，
// 需要注销的钩子应使用可比较的实现（如指针类型）。
func (c *Client) UnregisterHook(hook EventHook) {
	c.hooks.remove(hook)
}

// Flush 等待未发完的事件，返回是否在超时前全部送达
func (c *Client) Flush(timeout time.Duration) bool {
	return c.hub.Flush(timeout)
}

// Close 关闭客户端并等待剩余事件上报
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return ErrClientClosed
	}

	c.hub.Flush(c.cfg.ShutdownTimeout)
	return nil
}

// Stats 返回累计事件计数
func (c *Client) Stats() Stats {
	return Stats{
		EventsTotal:    c.stats.total.Load(),
		EventsCaptured: c.stats.captured.Load(),
		EventsDropped:  c.stats.dropped.Load(),
	}
}

// IsClosed 客户端是否已关闭
func (c *Client) IsClosed() bool {
	return c.closed.Load()
}
