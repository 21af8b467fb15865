package fingerprint

import (
	"sync"

	"taskbackend/internal/taskid"
)

// defaultShards mirrors internal/storage's shard count so both halves of
// the task registry see comparable contention, per spec.md 4.3's
// "shard count is tuned so that typical workloads produce low
// contention". It is NewBiMap's fallback when called with a non-positive
// shard count.
const defaultShards = 64

type fwdEntry struct {
	fp *Fingerprint
	id taskid.TaskId
}

type fwdShard struct {
	mu      sync.Mutex
	entries map[uint64][]fwdEntry // digest -> bucket (collisions kept as a slice)
}

type revShard struct {
	mu      sync.Mutex
	entries map[taskid.TaskId]*Fingerprint
}

// BiMap is the bidirectional fingerprint <-> TaskId map described in
// spec.md 4.2. It is sharded on both sides: forward lookups shard by
// Fingerprint.Digest(), reverse lookups shard by TaskId, so the two
// directions never contend with each other.
type BiMap struct {
	fwd []fwdShard
	rev []revShard
}

// NewBiMap constructs an empty BiMap with the given shard count, tunable
// per spec.md 4.3 so callers can retune contention without forking the
// package; shards <= 0 falls back to defaultShards.
func NewBiMap(shards int) *BiMap {
	if shards <= 0 {
		shards = defaultShards
	}
	m := &BiMap{
		fwd: make([]fwdShard, shards),
		rev: make([]revShard, shards),
	}
	for i := range m.fwd {
		m.fwd[i].entries = make(map[uint64][]fwdEntry)
	}
	for i := range m.rev {
		m.rev[i].entries = make(map[taskid.TaskId]*Fingerprint)
	}
	return m
}

// ShardCount reports how many shards m was constructed with, for tests
// that need to assert a configured shard count actually took effect.
func (m *BiMap) ShardCount() int {
	return len(m.fwd)
}

func (m *BiMap) fwdShardFor(digest uint64) *fwdShard {
	return &m.fwd[digest%uint64(len(m.fwd))]
}

func (m *BiMap) revShardFor(id taskid.TaskId) *revShard {
	return &m.rev[uint64(id)%uint64(len(m.rev))]
}

// LookupForward returns the TaskId installed for fp, if any.
func (m *BiMap) LookupForward(fp *Fingerprint) (taskid.TaskId, bool) {
	shard := m.fwdShardFor(fp.Digest())
	shard.mu.Lock()
	defer shard.mu.Unlock()
	for _, e := range shard.entries[fp.Digest()] {
		if e.fp.Equal(fp) {
			return e.id, true
		}
	}
	return 0, false
}

// LookupReverse returns the Fingerprint registered for id, if any.
func (m *BiMap) LookupReverse(id taskid.TaskId) (*Fingerprint, bool) {
	shard := m.revShardFor(id)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	fp, ok := shard.entries[id]
	return fp, ok
}

// TryInsert attempts to install (fp, id). On success it returns
// (id, true). On a concurrent collision — another caller already
// installed an equal fingerprint — it returns the winning id and false,
// leaving id un-installed so the caller can return id to its ids.Factory
// (spec.md 4.2: "on collision, returns the winning id and leaves the
// losing id un-installed").
//
// Locking the forward shard for the whole check-then-insert sequence is
// what makes concurrent inserts of the same fingerprint produce exactly
// one winner: two fingerprints that are Equal always hash to the same
// digest and therefore the same shard.
func (m *BiMap) TryInsert(fp *Fingerprint, id taskid.TaskId) (taskid.TaskId, bool) {
	digest := fp.Digest()
	shard := m.fwdShardFor(digest)

	shard.mu.Lock()
	for _, e := range shard.entries[digest] {
		if e.fp.Equal(fp) {
			shard.mu.Unlock()
			return e.id, false
		}
	}
	shard.entries[digest] = append(shard.entries[digest], fwdEntry{fp: fp, id: id})
	shard.mu.Unlock()

	rev := m.revShardFor(id)
	rev.mu.Lock()
	rev.entries[id] = fp
	rev.mu.Unlock()

	return id, true
}
