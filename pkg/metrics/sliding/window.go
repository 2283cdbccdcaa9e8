// Package sliding 提供按时间桶轮转的滑动窗口统计，用于观测回声延迟与成功率。
package sliding

import (
	"fmt"
	"sync"
	"time"

	"github.com/lk2023060901/xchat/pkg/config"
)

// WindowConfig 滑动窗口配置
type WindowConfig struct {
	// WindowSize 窗口时长，默认 60 秒
	WindowSize time.Duration `mapstructure:"window_size" json:"window_size" yaml:"window_size"`
	// BucketCount 窗口内的桶数量，默认 60
	BucketCount int `mapstructure:"bucket_count" json:"bucket_count" yaml:"bucket_count"`
}

// DefaultWindowConfig 默认配置
func DefaultWindowConfig() *WindowConfig {
	return &WindowConfig{
		WindowSize:  60 * time.Second,
		BucketCount: 60,
	}
}

// Stats 窗口内的聚合结果
type Stats struct {
	// QPS 每秒请求数，按整个窗口时长折算
	QPS float64 `json:"qps"`
	// AvgLatency 平均延迟（秒）
	AvgLatency float64 `json:"avg_latency"`
	// MinLatency 最小延迟（秒）
	MinLatency float64 `json:"min_latency"`
	// MaxLatency 最大延迟（秒）
	MaxLatency float64 `json:"max_latency"`
	// SuccessRate 成功率（0-100）
	SuccessRate float64 `json:"success_rate"`
	// TotalCount 窗口内总请求数
	TotalCount int64 `json:"total_count"`
	// SuccessCount 窗口内成功数
	SuccessCount int64 `json:"success_count"`
	// FailureCount 窗口内失败数
	FailureCount int64 `json:"failure_count"`
}

// bucket 单个时间桶的累积值
type bucket struct {
	n    int64
	sum  float64
	min  float64
	max  float64
	ok   int64
	fail int64
	at   time.Time
}

// Window 滑动窗口统计器，后台协程按固定间隔轮转时间桶
type Window struct {
	cfg *WindowConfig

	mu      sync.RWMutex
	buckets []bucket
	cur     int

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewWindow 创建滑动窗口并启动桶轮转，cfg 为 nil 时使用默认配置
func NewWindow(cfg *WindowConfig) (*Window, error) {
	merged, err := config.MergeConfig(DefaultWindowConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("merge window config: %w", err)
	}
	if merged.WindowSize <= 0 {
		return nil, fmt.Errorf("sliding: window size %v must be positive", merged.WindowSize)
	}
	if merged.BucketCount <= 0 {
		return nil, fmt.Errorf("sliding: bucket count %d must be positive", merged.BucketCount)
	}

	w := &Window{
		cfg:     merged,
		buckets: make([]bucket, merged.BucketCount),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	now := time.Now()
	for i := range w.buckets {
		w.buckets[i].at = now
	}

	go w.rotateLoop(merged.WindowSize / time.Duration(merged.BucketCount))
	return w, nil
}

func (w *Window) rotateLoop(interval time.Duration) {
	defer close(w.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.mu.Lock()
			w.cur = (w.cur + 1) % len(w.buckets)
			w.buckets[w.cur] = bucket{at: time.Now()}
			w.mu.Unlock()
		case <-w.stop:
			return
		}
	}
}

// Record 记录一次请求的延迟（秒）和结果
func (w *Window) Record(latency float64, success bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	b := &w.buckets[w.cur]
	if b.n == 0 || latency < b.min {
		b.min = latency
	}
	if latency > b.max {
		b.max = latency
	}
	b.n++
	b.sum += latency
	if success {
		b.ok++
	} else {
		b.fail++
	}
}

// GetStats 聚合窗口内所有有效桶
func (w *Window) GetStats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var (
		stats    Stats
		total    int64
		sum      float64
		min, max float64
	)

	cutoff := time.Now().Add(-w.cfg.WindowSize)
	for _, b := range w.buckets {
		if b.n == 0 || !b.at.After(cutoff) {
			continue
		}
		if total == 0 || b.min < min {
			min = b.min
		}
		if b.max > max {
			max = b.max
		}
		total += b.n
		sum += b.sum
		stats.SuccessCount += b.ok
		stats.FailureCount += b.fail
	}

	stats.TotalCount = total
	stats.QPS = float64(total) / w.cfg.WindowSize.Seconds()
	if total > 0 {
		stats.AvgLatency = sum / float64(total)
		stats.SuccessRate = float64(stats.SuccessCount) / float64(total) * 100
		stats.MinLatency = min
		stats.MaxLatency = max
	}
	return stats
}

// Stop 停止桶轮转并等待后台协程退出，可重复调用
func (w *Window) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
	})
	<-w.done
}
