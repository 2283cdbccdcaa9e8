// pkg/chat/ratelimit.go
package chat

import (
	"sync"
	"time"
)

// SendWindow 出站消息的滑动窗口限流器
// 精确记录窗口内每次发送的时间戳，按严格的尾随窗口判断是否放行，
// 第 N 次发送过期后才会释放一个名额
type SendWindow struct {
	mu     sync.Mutex
	limit  int           // 窗口内允许的最大发送数，0 表示不限制
	window time.Duration // 窗口长度
	stamps []time.Time   // 窗口内的发送时间，按时间升序
}

// NewSendWindow 创建发送窗口
func NewSendWindow(window time.Duration, limit int) *SendWindow {
	if window <= 0 {
		window = 60 * time.Second
	}
	return &SendWindow{
		limit:  limit,
		window: window,
	}
}

// SetLimit 更新窗口容量，连接建立时应用网关下发的限制
func (w *SendWindow) SetLimit(limit int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.limit = limit
}

// Limit 返回当前窗口容量
func (w *SendWindow) Limit() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.limit
}

// CanSend 判断当前时刻是否允许发送
func (w *SendWindow) CanSend(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune(now)
	if w.limit <= 0 {
		return true
	}
	return len(w.stamps) < w.limit
}

// Record 记录一次成功发送，不限制时不记录
func (w *SendWindow) Record(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.limit <= 0 {
		return
	}
	w.stamps = append(w.stamps, now)
}

// Prune 清理已滑出窗口的时间戳
func (w *SendWindow) Prune(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune(now)
}

// Len 返回窗口内的发送数
func (w *SendWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.stamps)
}

// prune 丢弃 cutoff 之前（含）的时间戳，调用方需持有锁
func (w *SendWindow) prune(now time.Time) {
	cutoff := now.Add(-w.window)
	idx := 0
	for idx < len(w.stamps) && !w.stamps[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[idx:]...)
	}
}
