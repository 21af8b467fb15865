package fingerprint

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"taskbackend/internal/taskid"
)

func fp(fn uint64, arg string) *Fingerprint {
	return &Fingerprint{Kind: Native, FunctionID: fn, ArgumentBlob: []byte(arg)}
}

func TestBiMapInsertAndLookup(t *testing.T) {
	m := NewBiMap(4)
	f := fp(1, "a")

	id, inserted := m.TryInsert(f, 42)
	require.True(t, inserted)
	require.Equal(t, taskid.TaskId(42), id)

	got, ok := m.LookupForward(f)
	require.True(t, ok)
	require.Equal(t, taskid.TaskId(42), got)

	rev, ok := m.LookupReverse(42)
	require.True(t, ok)
	require.True(t, rev.Equal(f))
}

func TestBiMapTryInsertCollisionReturnsWinner(t *testing.T) {
	m := NewBiMap(4)
	a := fp(1, "same")
	b := fp(1, "same") // distinct pointer, equal value

	id1, ins1 := m.TryInsert(a, 1)
	require.True(t, ins1)

	id2, ins2 := m.TryInsert(b, 2)
	require.False(t, ins2)
	require.Equal(t, id1, id2)

	// The losing id must never be observable via LookupReverse.
	_, ok := m.LookupReverse(2)
	require.False(t, ok)
}

func TestBiMapConcurrentInsertExactlyOneWinner(t *testing.T) {
	m := NewBiMap(4)
	f := fp(9, "race")

	const n = 200
	winners := make(chan taskid.TaskId, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, _ := m.TryInsert(f, taskid.TaskId(i+1))
			winners <- id
		}(i)
	}
	wg.Wait()
	close(winners)

	first := <-winners
	for w := range winners {
		require.Equal(t, first, w, "all concurrent inserts of an equal fingerprint must observe the same winning id")
	}
}

func TestBiMapLookupMiss(t *testing.T) {
	m := NewBiMap(4)
	_, ok := m.LookupForward(fp(1, "missing"))
	require.False(t, ok)
	_, ok = m.LookupReverse(999)
	require.False(t, ok)
}
