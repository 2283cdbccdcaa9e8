// pkg/chat/stats.go
package chat

import (
	"sync"
	"time"
)

// ConnectionStats 连接统计信息
type ConnectionStats struct {
	// ConnectedAt 最近一次连接建立时间
	ConnectedAt *time.Time `json:"connected_at,omitempty"`
	// LastActivity 最近一次消息活动时间
	LastActivity *time.Time `json:"last_activity,omitempty"`
	// MessagesSent 已发送消息数
	MessagesSent uint64 `json:"messages_sent"`
	// MessagesReceived 已接收消息数
	MessagesReceived uint64 `json:"messages_received"`
	// ErrorsEncountered 遇到的错误数
	ErrorsEncountered uint64 `json:"errors_encountered"`
	// Reconnections 成功重连次数
	Reconnections uint64 `json:"reconnections"`
	// ConnectionID 网关分配的连接标识
	ConnectionID string `json:"connection_id,omitempty"`
}

// statsTracker 统计信息采集器
type statsTracker struct {
	mu    sync.RWMutex
	stats ConnectionStats
}

// onConnected 记录连接建立
func (t *statsTracker) onConnected(now time.Time, reconnected bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ts := now
	t.stats.ConnectedAt = &ts
	if reconnected {
		t.stats.Reconnections++
	}
}

// onDisconnected 记录连接断开，连接标识随连接失效
func (t *statsTracker) onDisconnected() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.ConnectionID = ""
}

// onSent 记录一次发送
func (t *statsTracker) onSent(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.MessagesSent++
	ts := now
	t.stats.LastActivity = &ts
}

// onReceived 记录一次接收
func (t *statsTracker) onReceived(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.MessagesReceived++
	ts := now
	t.stats.LastActivity = &ts
}

// onError 记录一次错误
func (t *statsTracker) onError() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.ErrorsEncountered++
}

// setConnectionID 记录网关分配的连接标识
func (t *statsTracker) setConnectionID(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.ConnectionID = id
}

// snapshot 返回统计信息的深拷贝
func (t *statsTracker) snapshot() ConnectionStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := t.stats
	if t.stats.ConnectedAt != nil {
		ts := *t.stats.ConnectedAt
		out.ConnectedAt = &ts
	}
	if t.stats.LastActivity != nil {
		ts := *t.stats.LastActivity
		out.LastActivity = &ts
	}
	return out
}
