package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorSnapshot(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	c.Start(50 * time.Millisecond)
	defer c.Stop()

	stats := c.GetStats()
	assert.False(t, stats.UpdatedAt.IsZero())
	assert.Positive(t, stats.Goroutines)
}

func TestCollectorRefreshOnTick(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	c.Start(20 * time.Millisecond)
	defer c.Stop()

	first := c.GetStats().UpdatedAt
	time.Sleep(80 * time.Millisecond)
	second := c.GetStats().UpdatedAt
	assert.True(t, second.After(first))
}

func TestCollectorLifecycleIdempotent(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	// 未启动时 Stop 直接返回
	c.Stop()

	c.Start(time.Second)
	c.Start(time.Second)
	c.Stop()
	c.Stop()
}
