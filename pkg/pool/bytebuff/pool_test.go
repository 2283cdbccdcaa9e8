package bytebuff

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPutRoundTrip(t *testing.T) {
	var p Pool

	buf := p.Get()
	require.NotNil(t, buf)
	assert.Zero(t, buf.Len())

	err := json.NewEncoder(buf).Encode(map[string]string{
		"type": "message",
		"text": "hello",
	})
	require.NoError(t, err)
	assert.Positive(t, buf.Len())

	p.Put(buf)

	// 归还后再取，内容必须是干净的
	buf = p.Get()
	assert.Zero(t, buf.Len())
	p.Put(buf)
}

func TestPutNil(t *testing.T) {
	var p Pool

	p.Put(nil)
	assert.Zero(t, p.Stats().Puts)
}

func TestStatsCounts(t *testing.T) {
	var p Pool

	for i := 0; i < 5; i++ {
		buf := p.Get()
		buf.B = append(buf.B, "ping"...)
		p.Put(buf)
	}
	p.Get() // 不归还

	stats := p.Stats()
	assert.Equal(t, uint64(6), stats.Gets)
	assert.Equal(t, uint64(5), stats.Puts)
}

func TestConcurrentAccess(t *testing.T) {
	var (
		p  Pool
		wg sync.WaitGroup
	)

	const (
		workers = 8
		rounds  = 500
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			payload := make([]byte, 128+n)
			for i := 0; i < rounds; i++ {
				buf := p.Get()
				buf.B = append(buf.B, payload...)
				if len(buf.B) != len(payload) {
					t.Errorf("dirty buffer: got %d bytes, want %d", len(buf.B), len(payload))
					return
				}
				p.Put(buf)
			}
		}(w)
	}
	wg.Wait()

	stats := p.Stats()
	assert.Equal(t, uint64(workers*rounds), stats.Gets)
	assert.Equal(t, stats.Gets, stats.Puts)
}

func TestDefaultPool(t *testing.T) {
	before := DefaultStats()

	buf := Get()
	require.NotNil(t, buf)
	buf.B = append(buf.B, '{', '}')
	Put(buf)

	after := DefaultStats()
	assert.Equal(t, before.Gets+1, after.Gets)
	assert.Equal(t, before.Puts+1, after.Puts)
}
