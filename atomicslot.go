package shareptr

import (
	"sync/atomic"
)

// slotPair is the (eph_out, block) pair an AtomicSlot publishes. Go has no
// portable double-word compare-and-swap over an (int32, pointer) pair, so
// this package boxes the pair behind a single pointer and CASes that
// pointer instead: the box is immutable once built, so every reader that
// loads it sees a internally-consistent snapshot of both fields together,
// which is the property a true wide CAS over the pair would provide. The cost is
// one small allocation per slot mutation in place of a hardware double-word
// CAS; see DESIGN.md for the tradeoff and the (rejected) bit-packing
// alternative.
type slotPair[T any] struct {
	ephOut int32
	block  *RefBlock[T]
}

func (p *slotPair[T]) ephOutOrZero() int32 {
	if p == nil {
		return 0
	}
	return p.ephOut
}

func (p *slotPair[T]) blockOrNil() *RefBlock[T] {
	if p == nil {
		return nil
	}
	return p.block
}

// AtomicSlot is the sharing medium: the only type through which a RefBlock
// is published across goroutines. The zero value is an empty slot holding
// no block, safe to use without initialization.
type AtomicSlot[T any] struct {
	pair atomic.Pointer[slotPair[T]]
}

// NewSlot wraps payload in a fresh RefBlock owned by the slot. If payload
// is nil the slot is left empty and nothing is allocated.
func NewSlot[T any](payload *T) *AtomicSlot[T] {
	s := &AtomicSlot[T]{}
	if payload != nil {
		s.pair.Store(&slotPair[T]{block: newRefBlock(payload, 0, 1)})
	}
	return s
}

// NewSlotFromRecycled installs payload into block pulled from a recycling
// pool, resetting its counters to (0, 1) for slot ownership without
// allocating a fresh block.
func NewSlotFromRecycled[T any](block *RefBlock[T], payload *T) *AtomicSlot[T] {
	s := &AtomicSlot[T]{}
	if block == nil {
		return NewSlot(payload)
	}
	block.resetForSlot(payload)
	s.pair.Store(&slotPair[T]{block: block})
	return s
}

// NewSlotFromPinned builds a slot sharing h's block, acquiring an
// additional durable share for the slot. h keeps its own share.
func NewSlotFromPinned[T any](h PinnedHandle[T]) *AtomicSlot[T] {
	s := &AtomicSlot[T]{}
	if h.block == nil {
		return s
	}
	h.block.adjust(0, +1)
	s.pair.Store(&slotPair[T]{block: h.block})
	return s
}

// NewSlotFromSlot snapshots src and durably owns the result: it pins src
// (see Pin), which already migrates the reservation into a durable share,
// and repurposes that share directly as the new slot's share instead of
// releasing the pin and acquiring a second one.
func NewSlotFromSlot[T any](src *AtomicSlot[T]) *AtomicSlot[T] {
	h := src.Pin()
	s := &AtomicSlot[T]{}
	if h.block == nil {
		return s
	}
	s.pair.Store(&slotPair[T]{block: h.block})
	return s
}

// IsNil reports whether the slot currently holds no block. This is an
// advisory, racy check in the presence of concurrent writers; it is safe to
// call but its result may be stale by the time the caller acts on it.
func (s *AtomicSlot[T]) IsNil() bool {
	return s.pair.Load().blockOrNil() == nil
}

// peekBlock returns the slot's current block without pinning it: an
// advisory, racy read meaningful only when the slot is known quiescent.
// Used by PinnedHandle.EqualSlot.
func (s *AtomicSlot[T]) peekBlock() *RefBlock[T] {
	return s.pair.Load().blockOrNil()
}

// Pin reads the slot and returns a PinnedHandle holding a durable share on
// the block the slot referenced at the moment of a successful CAS. If the
// slot is empty, Pin returns an empty handle.
//
// Pin proceeds in the two steps described by the package's protocol:
//  1. CAS-loop reserving one ephemeral unit on the slot's box; this is the
//     same CAS that reads the current block, satisfying "bump the
//     ephemeral count atomically with the pointer read."
//  2. Migrate: the reservation is converted into a durable share directly
//     on the block (RefBlock.adjust(-1, +1)).
//
// The slot's box is deliberately left holding the now-stale ephOut from
// step 1; it is not backed out here. Whichever operation eventually tears
// this box down (Release or Store directly, or Release of the slot that Swap
// or a winning CAS moved it into) hands that ephOut back to the block, which
// is exactly what repays the ephemeral debit step 2 just ran up. Backing it
// out here instead would throw that credit away with nothing left to
// repay the debit, and the block's ephemeral count would never return to
// zero. A box can accumulate the ephOut of many Pin calls before it is
// swept; each is individually and correctly repaid in the same lump sum.
func (s *AtomicSlot[T]) Pin() PinnedHandle[T] {
	old := s.pair.Load()
	block := old.blockOrNil()
	if block == nil {
		return PinnedHandle[T]{}
	}
	for {
		next := &slotPair[T]{ephOut: old.ephOutOrZero() + 1, block: block}
		if s.pair.CompareAndSwap(old, next) {
			break
		}
		old = s.pair.Load()
		block = old.blockOrNil()
		if block == nil {
			return PinnedHandle[T]{}
		}
	}

	block.adjust(-1, +1)

	return PinnedHandle[T]{block: block, durable: true}
}

// teardown extracts box (already removed from a slot) and reconciles its
// bookkeeping against its block: hands back any un-migrated ephemeral
// reservations and releases the slot's own durable share.
func teardown[T any](box *slotPair[T]) {
	block := box.blockOrNil()
	if block == nil {
		return
	}
	if block.adjust(box.ephOutOrZero(), -1) {
		block.destroyOrRecycle()
	}
}

// Release tears the slot down: any block it references has its slot-owned
// durable share released (and any outstanding, un-migrated ephemeral
// reservations handed back), possibly triggering destruction or recycling.
// After Release the slot is empty.
func (s *AtomicSlot[T]) Release() {
	old := s.pair.Swap(nil)
	teardown(old)
}

// Store replaces the slot's contents with a fresh block wrapping payload,
// releasing whatever the slot previously held.
func (s *AtomicSlot[T]) Store(payload *T) {
	s.storeBox(NewSlot(payload).pair.Load())
}

// StoreFromPinned replaces the slot's contents with an additional durable
// share on h's block, releasing whatever the slot previously held. h keeps
// its own share.
func (s *AtomicSlot[T]) StoreFromPinned(h PinnedHandle[T]) {
	s.storeBox(NewSlotFromPinned(h).pair.Load())
}

// StoreFromSlot replaces the slot's contents with a durable snapshot of
// src, releasing whatever the slot previously held.
func (s *AtomicSlot[T]) StoreFromSlot(src *AtomicSlot[T]) {
	s.storeBox(NewSlotFromSlot(src).pair.Load())
}

func (s *AtomicSlot[T]) storeBox(box *slotPair[T]) {
	old := s.pair.Swap(box)
	teardown(old)
}

// Swap exchanges the slot's pair with other's. other is assumed to be a
// caller-local slot not concurrently accessed by any other goroutine (the
// original's swap takes a "local & non-shared" right-hand side); this
// package follows the recommendation in the design notes it distills and
// treats CAS, not Swap, as the publicly shared atomic mutator. Only s's
// side retries against concurrent mutation.
func (s *AtomicSlot[T]) Swap(other *AtomicSlot[T]) {
	for {
		cur := s.pair.Load()
		otherCur := other.pair.Load()
		if s.pair.CompareAndSwap(cur, otherCur) {
			other.pair.Store(cur)
			return
		}
	}
}

// Recycle replaces the slot's contents, in place, with block reset for
// slot ownership and carrying payload, releasing whatever the slot
// previously held. This is the recycle-install counterpart to
// NewSlotFromRecycled for a slot that already exists, mirroring
// PinnedHandle.Recycle.
func (s *AtomicSlot[T]) Recycle(block *RefBlock[T], payload *T) {
	s.storeBox(NewSlotFromRecycled(block, payload).pair.Load())
}

// CAS attempts to replace the slot's contents with desired's, but only if
// the slot's current block is identical to expected's. On success the
// slot's previous contents are moved into desired (the caller should
// Release desired afterward to dispose of them) and CAS returns true. On
// failure, desired is left untouched and CAS returns false.
//
// The loop retries while the slot's block identity still equals expected's
// block; it does not retry on any other kind of mismatch, and eph_out is
// never part of the comparison — it is implementation bookkeeping, opaque
// to callers. This preserves the termination condition of the original's
// cas loop (loop while block identity holds, stop on mismatch) rather than
// a fixed-iteration retry.
func (s *AtomicSlot[T]) CAS(expected PinnedHandle[T], desired *AtomicSlot[T]) bool {
	for {
		cur := s.pair.Load()
		if cur.blockOrNil() != expected.block {
			return false
		}
		desiredBox := desired.pair.Load()
		if s.pair.CompareAndSwap(cur, desiredBox) {
			desired.pair.Store(cur)
			return true
		}
	}
}
