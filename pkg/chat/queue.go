// pkg/chat/queue.go
package chat

import (
	"sync"
	"time"
)

// queueHighWater 队列占用率高水位，超过后入队时顺带清理超龄消息
const queueHighWater = 0.8

// OutboundQueue 离线消息队列
// 连接不可用或被限流的消息先入队，连接恢复后按 FIFO 顺序补发
type OutboundQueue struct {
	mu      sync.Mutex
	items   []*Envelope
	maxSize int
	maxAge  time.Duration
	dropped uint64
}

// NewOutboundQueue 创建离线队列
func NewOutboundQueue(cfg QueueConfig) *OutboundQueue {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1000
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 5 * time.Minute
	}
	return &OutboundQueue{
		maxSize: cfg.MaxSize,
		maxAge:  cfg.MaxAge,
	}
}

// Enqueue 消息入队，容量满时丢弃最旧的消息
func (q *OutboundQueue) Enqueue(env *Envelope, now time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(q.items, env)
	if over := len(q.items) - q.maxSize; over > 0 {
		copy(q.items, q.items[over:])
		for i := len(q.items) - over; i < len(q.items); i++ {
			q.items[i] = nil
		}
		q.items = q.items[:len(q.items)-over]
		q.dropped += uint64(over)
	}

	if float64(len(q.items)) > float64(q.maxSize)*queueHighWater {
		q.pruneLocked(now)
	}
}

// DrainAll 取出全部排队消息并清空队列，保持入队顺序
func (q *OutboundQueue) DrainAll() []*Envelope {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = nil
	return items
}

// Prune 丢弃超龄消息，返回丢弃数量
// 消息年龄以信封时间戳为准
func (q *OutboundQueue) Prune(now time.Time) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pruneLocked(now)
}

// Len 返回当前排队消息数
func (q *OutboundQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Cap 返回队列容量
func (q *OutboundQueue) Cap() int {
	return q.maxSize
}

// Utilization 返回队列占用率
func (q *OutboundQueue) Utilization() float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return float64(len(q.items)) / float64(q.maxSize)
}

// Dropped 返回因容量或超龄被丢弃的消息总数
func (q *OutboundQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// pruneLocked 调用方需持有锁
func (q *OutboundQueue) pruneLocked(now time.Time) int {
	if len(q.items) == 0 {
		return 0
	}

	nowMS := now.UnixMilli()
	maxAgeMS := q.maxAge.Milliseconds()

	kept := q.items[:0]
	for _, env := range q.items {
		if nowMS-env.Timestamp >= maxAgeMS {
			continue
		}
		kept = append(kept, env)
	}

	removed := len(q.items) - len(kept)
	for i := len(kept); i < len(q.items); i++ {
		q.items[i] = nil
	}
	q.items = kept
	q.dropped += uint64(removed)
	return removed
}
