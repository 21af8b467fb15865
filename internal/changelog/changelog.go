// Package changelog implements the append-only, chunked change log
// described in spec.md 4.4: O(1) amortized push, with a lock-protected
// Drain that atomically swaps the log for an empty successor and hands
// the drained records to the persistence collaborator (spec.md 6's
// "byte-exact encoding is the persistence collaborator's concern" —
// this package only hands over the records, never encodes them).
package changelog

import (
	"sync"

	"github.com/google/uuid"
)

// chunkSize bounds each chunk's capacity; a fresh chunk is appended once
// the current one is full, giving O(1) amortized Push without the
// whole-log copy a single growing slice would eventually need.
const chunkSize = 1024

// Log is an append-only, chunked sequence of T. The zero value is not
// usable; use New.
type Log[T any] struct {
	mu     sync.Mutex
	chunks [][]T
}

// New constructs an empty Log.
func New[T any]() *Log[T] {
	return &Log[T]{chunks: [][]T{make([]T, 0, chunkSize)}}
}

// Push appends record to the log.
func (l *Log[T]) Push(record T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	last := len(l.chunks) - 1
	if len(l.chunks[last]) == cap(l.chunks[last]) {
		l.chunks = append(l.chunks, make([]T, 0, chunkSize))
		last++
	}
	l.chunks[last] = append(l.chunks[last], record)
}

// Batch is a drained, immutable cut of a Log, stamped with an opaque
// correlation id for the persistence collaborator (spec.md 4.4, 6).
type Batch[T any] struct {
	ID      uuid.UUID
	Records []T
}

// Len reports the number of records in the batch.
func (b Batch[T]) Len() int { return len(b.Records) }

// Drain atomically swaps the log for an empty successor and returns
// everything that was pushed before the swap as a Batch. Concurrent
// Push calls that complete before Drain acquires the lock are included;
// none that start after Drain releases it are (spec.md 5: "a snapshot's
// drained log is a prefix-closed cut").
func (l *Log[T]) Drain() Batch[T] {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := 0
	for _, c := range l.chunks {
		total += len(c)
	}
	records := make([]T, 0, total)
	for _, c := range l.chunks {
		records = append(records, c...)
	}

	l.chunks = [][]T{make([]T, 0, chunkSize)}
	return Batch[T]{ID: uuid.New(), Records: records}
}
