// Package fingerprint defines the structural identity of a persistent
// task (TaskFingerprint) and the bidirectional map from fingerprints to
// TaskId values (spec.md 3, 4.2).
package fingerprint

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Kind discriminates the three TaskFingerprint shapes spec.md 3 defines.
type Kind uint8

const (
	// Native is a direct function call: (function id, receiver, argument blob).
	Native Kind = iota
	// ResolveNative resolves a function's arguments before calling it.
	ResolveNative
	// ResolveTrait dispatches a trait method by name after resolving arguments.
	ResolveTrait
)

// Fingerprint is the structural key for a persistent task. Two
// Fingerprints are equal (for the purposes of the task registry) iff all
// of their fields compare equal; Receiver and MethodName participate in
// equality as plain values, and Argument is compared by content via
// ArgumentBlob, never by pointer identity.
//
// Fingerprint values are intended to be shared by reference (wrapped in
// *Fingerprint) once interned by a BiMap, matching spec.md's "fingerprints
// are shared by reference".
type Fingerprint struct {
	Kind         Kind
	FunctionID   uint64 // function id (Native, ResolveNative) or trait id (ResolveTrait)
	MethodName   string // only meaningful for ResolveTrait
	Receiver     uint64 // opaque receiver identity, 0 if none
	ArgumentBlob []byte // opaque argument encoding
}

// Equal reports whether f and other describe the same task identity.
func (f *Fingerprint) Equal(other *Fingerprint) bool {
	if f == other {
		return true
	}
	if f == nil || other == nil {
		return false
	}
	return f.Kind == other.Kind &&
		f.FunctionID == other.FunctionID &&
		f.MethodName == other.MethodName &&
		f.Receiver == other.Receiver &&
		bytesEqual(f.ArgumentBlob, other.ArgumentBlob)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Digest returns a structural hash of f, used only to pick a BiMap/Store
// shard and as a fast pre-equality filter ahead of a full Equal
// comparison; it is never a substitute for Equal (collisions are
// expected and handled).
func (f *Fingerprint) Digest() uint64 {
	h := xxhash.New()
	var buf [9]byte
	buf[0] = byte(f.Kind)
	binary.LittleEndian.PutUint64(buf[1:], f.FunctionID)
	_, _ = h.Write(buf[:])
	_, _ = h.Write([]byte(f.MethodName))
	binary.LittleEndian.PutUint64(buf[1:], f.Receiver)
	_, _ = h.Write(buf[1:])
	_, _ = h.Write(f.ArgumentBlob)
	return h.Sum64()
}
