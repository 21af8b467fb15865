// Package ids allocates TaskId values from a fixed range, recycling
// rejected allocations so concurrent compare-and-swap races on the
// fingerprint map do not burn through id space.
//
// Allocation is wait-free on the common path: a monotonic counter within
// the factory's range, consulted only when the reuse stack is empty.
package ids
