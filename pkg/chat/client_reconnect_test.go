package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lk2023060901/xchat/pkg/logger"
)

// TestReconnector_DelayFor 测试指数退避延迟
func TestReconnector_DelayFor(t *testing.T) {
	cfg := &ReconnectConfig{
		Enable:      true,
		MaxAttempts: 5,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    time.Second,
		JitterMax:   50 * time.Millisecond,
	}
	r := NewReconnector(cfg, nil, logger.Default())

	tests := []struct {
		attempt int
		base    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second}, // 1600ms 被上限截断
		{8, time.Second},
	}

	for _, tt := range tests {
		// 抖动是随机的，多采样几次验证范围
		for i := 0; i < 20; i++ {
			delay := r.DelayFor(tt.attempt)
			assert.GreaterOrEqual(t, delay, tt.base, "attempt %d", tt.attempt)
			assert.LessOrEqual(t, delay, tt.base+cfg.JitterMax, "attempt %d", tt.attempt)
		}
	}
}

// TestReconnector_DelayFor_NoJitter 测试无抖动时延迟确定
func TestReconnector_DelayFor_NoJitter(t *testing.T) {
	cfg := &ReconnectConfig{
		Enable:      true,
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		JitterMax:   0,
	}
	r := NewReconnector(cfg, nil, logger.Default())

	assert.Equal(t, time.Second, r.DelayFor(1))
	assert.Equal(t, 2*time.Second, r.DelayFor(2))
	assert.Equal(t, 16*time.Second, r.DelayFor(5))
	assert.Equal(t, 30*time.Second, r.DelayFor(6))
	assert.Equal(t, 30*time.Second, r.DelayFor(20))
}

// TestReconnector_Reset 测试重连计数重置
func TestReconnector_Reset(t *testing.T) {
	cfg := DefaultReconnectConfig()
	r := NewReconnector(&cfg, nil, logger.Default())

	assert.EqualValues(t, 0, r.Attempts())
	r.attempts.Store(3)
	assert.EqualValues(t, 3, r.Attempts())

	r.Reset()
	assert.EqualValues(t, 0, r.Attempts())
}
