package lru

import (
	"sync"
	"time"
)

// Cache 通用缓存接口
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V)
	SetWithTTL(key K, value V, ttl time.Duration)
	Delete(key K)
	Len() int
	Clear()
	Close() error
}

// Config LRU 配置
type Config struct {
	// MaxSize 最大容量，为 0 时不限容量
	MaxSize int
	// DefaultTTL 默认过期时间，为 0 时条目不过期
	DefaultTTL time.Duration
	// CleanupInterval 清理间隔，为 0 时不启动后台清理
	CleanupInterval time.Duration
}

// node 链表节点，head 端为最近使用
type node[K comparable, V any] struct {
	key      K
	value    V
	deadline time.Time
	prev     *node[K, V]
	next     *node[K, V]
}

// stale 判断节点是否已过期，零值截止时间表示不过期
func (n *node[K, V]) stale(now time.Time) bool {
	return !n.deadline.IsZero() && now.After(n.deadline)
}

// LRU 带逐条目 TTL 的缓存
// 票据由服务端指定有效期，各条目的 TTL 互不相同，
// 因此不能用整缓存统一 TTL 的实现
type LRU[K comparable, V any] struct {
	config *Config
	index  map[K]*node[K, V]
	head   *node[K, V]
	tail   *node[K, V]
	mu     sync.RWMutex

	stopCh    chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	onEvict func(key K, value V)
}

// Option LRU 配置选项
type Option[K comparable, V any] func(*LRU[K, V])

// WithOnEvict 设置淘汰回调
func WithOnEvict[K comparable, V any](fn func(key K, value V)) Option[K, V] {
	return func(c *LRU[K, V]) {
		c.onEvict = fn
	}
}

// New 创建 LRU 缓存
func New[K comparable, V any](cfg *Config, opts ...Option[K, V]) *LRU[K, V] {
	c := &LRU[K, V]{
		config: cfg,
		index:  make(map[K]*node[K, V]),
		stopCh: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	if cfg.CleanupInterval > 0 {
		c.done = make(chan struct{})
		go c.sweepLoop()
	}
	return c
}

// Get 获取值，过期条目在读取时丢弃
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	if n.stale(time.Now()) {
		c.evict(n)
		var zero V
		return zero, false
	}

	c.moveToFront(n)
	return n.value, true
}

// Set 设置值（使用默认 TTL）
func (c *LRU[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.config.DefaultTTL)
}

// SetWithTTL 设置值（自定义 TTL）
func (c *LRU[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(key, value, ttl)
}

// GetOrCreate 原子获取或创建
func (c *LRU[K, V]) GetOrCreate(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.index[key]; ok {
		if !n.stale(time.Now()) {
			c.moveToFront(n)
			return n.value
		}
		c.evict(n)
	}

	value := create()
	c.put(key, value, c.config.DefaultTTL)
	return value
}

// put 写入条目并按容量淘汰，调用方持锁
func (c *LRU[K, V]) put(key K, value V, ttl time.Duration) {
	var deadline time.Time
	if ttl > 0 {
		deadline = time.Now().Add(ttl)
	}

	if n, ok := c.index[key]; ok {
		n.value = value
		n.deadline = deadline
		c.moveToFront(n)
		return
	}

	n := &node[K, V]{key: key, value: value, deadline: deadline}
	c.index[key] = n
	c.pushFront(n)

	for c.config.MaxSize > 0 && len(c.index) > c.config.MaxSize {
		c.evict(c.tail)
	}
}

// Delete 删除
func (c *LRU[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.index[key]; ok {
		c.evict(n)
	}
}

// Len 返回当前缓存大小
func (c *LRU[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.index)
}

// Clear 清空缓存，不触发淘汰回调
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.index = make(map[K]*node[K, V])
	c.head, c.tail = nil, nil
}

// Close 关闭缓存并等待后台清理退出，可重复调用
func (c *LRU[K, V]) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopCh)
	})
	if c.done != nil {
		<-c.done
	}
	return nil
}

// sweepLoop 后台清理协程
func (c *LRU[K, V]) sweepLoop() {
	defer close(c.done)

	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stopCh:
			return
		}
	}
}

// sweep 从冷端扫描并移除过期条目
func (c *LRU[K, V]) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for n := c.tail; n != nil; {
		prev := n.prev
		if n.stale(now) {
			c.evict(n)
		}
		n = prev
	}
}

// evict 摘除节点并触发回调，调用方持锁
func (c *LRU[K, V]) evict(n *node[K, V]) {
	c.unlink(n)
	delete(c.index, n.key)
	if c.onEvict != nil {
		c.onEvict(n.key, n.value)
	}
}

func (c *LRU[K, V]) pushFront(n *node[K, V]) {
	n.prev = nil
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *LRU[K, V]) moveToFront(n *node[K, V]) {
	if c.head == n {
		return
	}
	c.unlink(n)
	c.pushFront(n)
}

func (c *LRU[K, V]) unlink(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev, n.next = nil, nil
}
