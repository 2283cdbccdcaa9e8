// pkg/chat/client_heartbeat.go
package chat

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lk2023060901/xchat/pkg/logger"
)

// HeartbeatManager 心跳管理器
// 周期发送 ping 帧维持连接活性，收到 pong 帧时刷新记录。
// 心跳丢失只记录不判死，连接是否存活由传输层错误判定
type HeartbeatManager struct {
	interval time.Duration
	sendPing func() error
	logger   logger.Logger

	lastPong  atomic.Value // time.Time
	pingCount atomic.Int64
	pongCount atomic.Int64
	missCount atomic.Int32

	mu       sync.Mutex
	running  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewHeartbeatManager 创建心跳管理器
func NewHeartbeatManager(interval time.Duration, sendPing func() error, log logger.Logger) *HeartbeatManager {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &HeartbeatManager{
		interval: interval,
		sendPing: sendPing,
		logger:   log,
	}
}

// Start 启动心跳
func (h *HeartbeatManager) Start() {
	if !h.running.CompareAndSwap(false, true) {
		return
	}

	// 重置停止信号，支持重复启动
	h.mu.Lock()
	h.stopOnce = sync.Once{}
	h.stopCh = make(chan struct{})
	stopCh := h.stopCh
	h.mu.Unlock()

	h.missCount.Store(0)
	go h.loop(stopCh)
}

// Stop 停止心跳
func (h *HeartbeatManager) Stop() {
	if !h.running.CompareAndSwap(true, false) {
		return
	}

	h.mu.Lock()
	h.stopOnce.Do(func() {
		close(h.stopCh)
	})
	h.mu.Unlock()
}

// IsRunning 判断心跳是否在运行
func (h *HeartbeatManager) IsRunning() bool {
	return h.running.Load()
}

// OnPong 处理心跳响应
func (h *HeartbeatManager) OnPong() {
	h.lastPong.Store(time.Now())
	h.pongCount.Add(1)
	h.missCount.Store(0)
}

// LastPong 返回最近一次收到 pong 的时间
func (h *HeartbeatManager) LastPong() (time.Time, bool) {
	v := h.lastPong.Load()
	if v == nil {
		return time.Time{}, false
	}
	return v.(time.Time), true
}

// PingCount 返回已发送的 ping 数
func (h *HeartbeatManager) PingCount() int64 {
	return h.pingCount.Load()
}

// PongCount 返回已收到的 pong 数
func (h *HeartbeatManager) PongCount() int64 {
	return h.pongCount.Load()
}

// loop 心跳循环
func (h *HeartbeatManager) loop(stopCh chan struct{}) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := h.sendPing(); err != nil {
				miss := h.missCount.Add(1)
				h.logger.Warn("发送心跳失败",
					"error", err,
					"miss_count", miss)
				continue
			}
			h.pingCount.Add(1)

		case <-stopCh:
			return
		}
	}
}
