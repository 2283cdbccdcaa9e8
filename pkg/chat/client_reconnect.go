// pkg/chat/client_reconnect.go
package chat

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/xchat/pkg/logger"
)

// Reconnector 重连控制器
// 按指数退避加随机抖动调度重连，次数耗尽后客户端进入错误状态
type Reconnector struct {
	config *ReconnectConfig
	logger logger.Logger
	client *Client

	attempts atomic.Int32

	mu       sync.Mutex
	running  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewReconnector 创建重连控制器
func NewReconnector(cfg *ReconnectConfig, client *Client, log logger.Logger) *Reconnector {
	return &Reconnector{
		config: cfg,
		logger: log,
		client: client,
	}
}

// Start 运行重连循环直到成功、停止或次数耗尽
// 重复调用只会保留一个循环
func (r *Reconnector) Start(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return nil
	}
	defer r.running.Store(false)

	// 重置停止信号，支持重复启动
	r.mu.Lock()
	r.stopOnce = sync.Once{}
	r.stopCh = make(chan struct{})
	stopCh := r.stopCh
	r.mu.Unlock()

	for {
		attempt := int(r.attempts.Add(1))
		if attempt > r.config.MaxAttempts {
			r.logger.Error("重连次数耗尽",
				"max_attempts", r.config.MaxAttempts)
			r.client.onReconnectExhausted()
			return ErrMaxReconnectAttempts
		}

		delay := r.DelayFor(attempt)
		r.logger.Info("等待重连",
			"attempt", attempt,
			"max_attempts", r.config.MaxAttempts,
			"delay", delay)

		select {
		case <-time.After(delay):
		case <-stopCh:
			return nil
		case <-r.client.closeCh:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}

		err := r.client.redial(ctx)
		if err == nil {
			r.logger.Info("重连成功", "attempt", attempt)
			return nil
		}
		if errors.Is(err, ErrAlreadyConnected) {
			// 其他调用方已接管连接流程
			return nil
		}
		if !retryableError(err) {
			r.logger.Error("重连遇到不可恢复错误", "error", err)
			r.client.onReconnectAborted(err)
			return err
		}

		r.logger.Warn("重连失败",
			"attempt", attempt,
			"error", err)
	}
}

// Stop 停止重连循环
func (r *Reconnector) Stop() {
	if !r.running.Load() {
		return
	}

	r.mu.Lock()
	if r.stopCh != nil {
		r.stopOnce.Do(func() {
			close(r.stopCh)
		})
	}
	r.mu.Unlock()
}

// Reset 清零重连计数
func (r *Reconnector) Reset() {
	r.attempts.Store(0)
}

// Attempts 返回累计重连次数
func (r *Reconnector) Attempts() int {
	return int(r.attempts.Load())
}

// IsRunning 判断重连循环是否在运行
func (r *Reconnector) IsRunning() bool {
	return r.running.Load()
}

// DelayFor 计算第 attempt 次重连前的等待时间
// 退避部分按 base * 2^(attempt-1) 增长并受 MaxDelay 封顶，抖动独立叠加
func (r *Reconnector) DelayFor(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	backoff := float64(r.config.BaseDelay) * math.Pow(2, float64(attempt-1))
	if max := float64(r.config.MaxDelay); backoff > max {
		backoff = max
	}

	delay := time.Duration(backoff)
	if r.config.JitterMax > 0 {
		delay += time.Duration(rand.Int63n(int64(r.config.JitterMax) + 1))
	}
	return delay
}
