// package shareptr provides a lock-free, reference-counted shared pointer.
//
// Multiple goroutines can publish, read, swap, and compare-and-swap a
// pointer to a shared, heap-allocated value through an AtomicSlot while the
// value is concurrently being replaced and destroyed by other goroutines.
// A PinnedHandle is how a single goroutine safely dereferences what an
// AtomicSlot currently holds: as long as a PinnedHandle exists, the value
// it references cannot be destroyed out from under it, even if some other
// goroutine concurrently swaps the slot to point somewhere else.
//
// The naive way to protect a pointer with a reference count races: between
// the moment a goroutine reads the pointer and the moment it increments the
// target's count, another goroutine can drop the count to zero and free it.
// This package avoids that by splitting the count in two: an ephemeral
// count reserved on the slot itself, atomically with the pointer read, and
// a durable count on the referenced RefBlock. A goroutine reserves an
// ephemeral share before it ever touches the block, then migrates that
// share into a durable one; a concurrent remover can never observe a block
// whose only protection was a reservation that hasn't been accounted for
// yet.
//
//	var slot shareptr.AtomicSlot[Config]
//	slot.Store(&Config{...})
//
//	func handle() {
//		h := slot.Pin()
//		defer h.Release()
//		cfg, ok := h.Deref()
//		...
//	}
//
//	func reload(next *Config) {
//		slot.Store(next)
//	}
//
// This package also keeps a separate, smaller generation-barrier facility
// (genTracker, genToken, genPending) used by this package's own randomized
// concurrency tests to know when a round of concurrent Pin/Release activity
// has fully drained before asserting invariants. It is unrelated to the
// AtomicSlot/PinnedHandle/RefBlock protocol above and is not part of the
// shared-pointer's own hot path; see tracker.go.
package shareptr
