// pkg/chat/events.go
package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// StateEvent 连接状态变更事件
type StateEvent struct {
	// Old 变更前状态
	Old ConnectionState
	// New 变更后状态
	New ConnectionState
	// Err 触发变更的错误，正常变更为 nil
	Err error
	// At 变更时间
	At time.Time
}

// broadcaster 多订阅者广播器
// 向所有订阅者非阻塞投递，接收不及时的订阅者会丢失事件
type broadcaster[T any] struct {
	mu     sync.RWMutex
	subs   map[string]chan T
	closed bool
}

// newBroadcaster 创建广播器
func newBroadcaster[T any]() *broadcaster[T] {
	return &broadcaster[T]{
		subs: make(map[string]chan T),
	}
}

// subscribe 注册订阅者，返回事件通道和订阅标识
func (b *broadcaster[T]) subscribe(buffer int) (<-chan T, string) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan T, buffer)
	id := uuid.New().String()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch, id
	}
	b.subs[id] = ch
	return ch, id
}

// unsubscribe 注销订阅者并关闭其通道
func (b *broadcaster[T]) unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// publish 向所有订阅者非阻塞投递事件
func (b *broadcaster[T]) publish(v T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- v:
		default:
		}
	}
}

// closeAll 关闭所有订阅通道
func (b *broadcaster[T]) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
