package ids

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFactoryMonotonic(t *testing.T) {
	f := NewFactory(1, 5)
	for i := uint64(1); i <= 5; i++ {
		id, err := f.Allocate()
		require.NoError(t, err)
		require.Equal(t, i, id)
	}
	_, err := f.Allocate()
	require.ErrorIs(t, err, ErrExhausted)
}

func TestFactoryPrefersReuse(t *testing.T) {
	f := NewFactory(1, 100)
	a, err := f.Allocate()
	require.NoError(t, err)
	b, err := f.Allocate()
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	f.Reuse(a)
	f.Reuse(b)

	// Allocate must drain the reuse stack (LIFO) before the counter moves.
	got1, err := f.Allocate()
	require.NoError(t, err)
	got2, err := f.Allocate()
	require.NoError(t, err)
	require.ElementsMatch(t, []uint64{a, b}, []uint64{got1, got2})

	next, err := f.Allocate()
	require.NoError(t, err)
	require.Equal(t, uint64(3), next)
}

func TestFactoryConcurrentAllocationsAreUnique(t *testing.T) {
	f := NewFactory(1, 10_000)
	const n = 10_000
	seen := make(chan uint64, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := f.Allocate()
			require.NoError(t, err)
			seen <- id
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[uint64]struct{}, n)
	for id := range seen {
		_, dup := unique[id]
		require.False(t, dup, "id %d allocated twice", id)
		unique[id] = struct{}{}
	}
	require.Len(t, unique, n)
}

func TestNewFactoryInvalidRangePanics(t *testing.T) {
	require.Panics(t, func() { NewFactory(0, 10) })
	require.Panics(t, func() { NewFactory(10, 1) })
}
