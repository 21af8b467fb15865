// Package taskid defines TaskId, the 64-bit opaque identifier shared by
// every other package in this module, and the bit-partitioning scheme
// that separates persistent from transient tasks without consulting any
// map (spec.md 3, 6).
package taskid

import "fmt"

// TransientBit is the discriminant bit (spec.md 6: "Bit b (the transient
// discriminant) partitions persistent [1, 2^b-1] from transient [2^b,
// 2^32-1]"). Using bit 32 keeps both ranges comfortably large while
// leaving the top half of the 64-bit word unused, mirroring the
// original's 32-bit TRANSIENT_TASK_BIT constant scaled to a 64-bit Id.
const TransientBit uint64 = 1 << 32

// MaxPersistent and MaxTransient bound the two allocation ranges handed
// to the two ids.Factory instances the backend owns. MaxTransient keeps
// every transient id within the span where TransientBit is the single
// distinguishing bit, so IsTransient can be a one-instruction test
// instead of a range comparison (spec.md 9, "Dual id space").
const (
	MaxPersistent = TransientBit - 1
	MaxTransient  = TransientBit<<1 - 1
)

// TaskId is an opaque task identifier. The zero value is reserved and is
// never a valid allocated id (spec.md 6).
type TaskId uint64

// IsTransient reports whether id falls in the transient range.
func (id TaskId) IsTransient() bool { return uint64(id)&TransientBit != 0 }

// IsPersistent reports whether id falls in the persistent range.
func (id TaskId) IsPersistent() bool { return !id.IsTransient() && id != 0 }

func (id TaskId) String() string {
	if id.IsTransient() {
		return fmt.Sprintf("Transient(%d)", uint64(id)&(TransientBit-1))
	}
	return fmt.Sprintf("Persistent(%d)", uint64(id))
}
