// pkg/chat/janitor.go
package chat

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lk2023060901/xchat/pkg/logger"
)

// Janitor 周期清理器
// 连接存续期间定期清理离线队列中的超龄消息和限流窗口中的过期时间戳
type Janitor struct {
	interval time.Duration
	queue    *OutboundQueue
	window   *SendWindow
	logger   logger.Logger

	mu       sync.Mutex
	running  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewJanitor 创建清理器
func NewJanitor(interval time.Duration, queue *OutboundQueue, window *SendWindow, log logger.Logger) *Janitor {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Janitor{
		interval: interval,
		queue:    queue,
		window:   window,
		logger:   log,
	}
}

// Start 启动周期清理
func (j *Janitor) Start() {
	if !j.running.CompareAndSwap(false, true) {
		return
	}

	// 重置停止信号，支持重复启动
	j.mu.Lock()
	j.stopOnce = sync.Once{}
	j.stopCh = make(chan struct{})
	stopCh := j.stopCh
	j.mu.Unlock()

	go j.loop(stopCh)
}

// Stop 停止周期清理
func (j *Janitor) Stop() {
	if !j.running.CompareAndSwap(true, false) {
		return
	}

	j.mu.Lock()
	j.stopOnce.Do(func() {
		close(j.stopCh)
	})
	j.mu.Unlock()
}

// IsRunning 判断清理器是否在运行
func (j *Janitor) IsRunning() bool {
	return j.running.Load()
}

// Sweep 立即执行一次清理
func (j *Janitor) Sweep(now time.Time) {
	removed := j.queue.Prune(now)
	j.window.Prune(now)

	if removed > 0 {
		j.logger.Debug("清理超龄消息",
			"removed", removed,
			"queued", j.queue.Len())
	}
}

// loop 清理循环
func (j *Janitor) loop(stopCh chan struct{}) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			j.Sweep(now)
		case <-stopCh:
			return
		}
	}
}
