package idgen

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextIDMonotonic(t *testing.T) {
	gen, err := NewSonyflake(1)
	require.NoError(t, err)

	var prev int64
	for i := 0; i < 100; i++ {
		id, err := gen.NextID()
		require.NoError(t, err)
		assert.Greater(t, id, prev)
		prev = id
	}
}

func TestNextIDConcurrentUnique(t *testing.T) {
	gen, err := NewSonyflake(7)
	require.NoError(t, err)

	const (
		workers = 8
		perWork = 200
	)

	var (
		mu   sync.Mutex
		seen = make(map[int64]struct{}, workers*perWork)
		wg   sync.WaitGroup
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWork; i++ {
				id, err := gen.NextID()
				if err != nil {
					t.Error(err)
					return
				}
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWork)
}

func TestMachineIDsDoNotCollide(t *testing.T) {
	genA, err := NewSonyflake(10)
	require.NoError(t, err)
	genB, err := NewSonyflake(20)
	require.NoError(t, err)

	idsA := make(map[int64]struct{}, 50)
	for i := 0; i < 50; i++ {
		id, err := genA.NextID()
		require.NoError(t, err)
		idsA[id] = struct{}{}
	}

	for i := 0; i < 50; i++ {
		id, err := genB.NextID()
		require.NoError(t, err)
		assert.NotContains(t, idsA, id)
	}
}
