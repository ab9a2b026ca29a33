package shareptr

// PinnedHandle is a single-goroutine-owned handle holding one share of a
// RefBlock's counts. It is the only way to dereference a payload: as long
// as a PinnedHandle referencing a block exists, that block cannot be
// destroyed or recycled out from under it.
//
// The zero value is an empty handle, equivalent to a nil pointer.
//
// A PinnedHandle must not be used concurrently from more than one
// goroutine. A plain value copy takes no share of its own, so do not keep
// and Release a by-value copy as an independent handle; use Clone, which
// takes a new share (ephemeral-on-copy, see Clone), instead.
type PinnedHandle[T any] struct {
	block *RefBlock[T]

	// durable records which counter this handle's unit was charged
	// against, so Release can hand it back to the same one. A handle
	// constructed directly (NewPinned, Clone, recycle-install) owns an
	// ephemeral unit, matching what AtomicSlot.Pin reserves on its own
	// box before it ever touches the block. A handle produced by
	// AtomicSlot.Pin instead owns a unit already migrated to refs (see
	// Pin's doc comment), so it must release against refs, not
	// ephemeral, or the ephemeral side never comes back to zero.
	durable bool
}

// NewPinned wraps payload in a fresh RefBlock and returns a PinnedHandle
// holding the creator's share. If payload is nil, an empty handle is
// returned and no allocation occurs.
func NewPinned[T any](payload *T) PinnedHandle[T] {
	if payload == nil {
		return PinnedHandle[T]{}
	}
	return PinnedHandle[T]{block: newRefBlock(payload, 1, 0)}
}

// NewPinnedFromRecycled installs payload into a block pulled out of a
// recycling pool, resetting its counters to (1, 0) without allocating. The
// block's pool hook is left unchanged. block must not be referenced by
// anyone else when this is called.
func NewPinnedFromRecycled[T any](block *RefBlock[T], payload *T) PinnedHandle[T] {
	if block == nil {
		return NewPinned(payload)
	}
	block.resetForPin(payload)
	return PinnedHandle[T]{block: block}
}

// Clone returns a new handle sharing the same block as h, bumping the
// block's ephemeral count by one. The clone always owns an ephemeral
// unit, regardless of which counter h itself was charged against.
func (h PinnedHandle[T]) Clone() PinnedHandle[T] {
	if h.block == nil {
		return PinnedHandle[T]{}
	}
	h.block.adjust(+1, 0)
	return PinnedHandle[T]{block: h.block}
}

// Release drops h's share. It must be called exactly once per PinnedHandle
// that was ever non-empty (an empty handle may be released any number of
// times, including zero). After Release, h must not be used again.
func (h PinnedHandle[T]) Release() {
	if h.block == nil {
		return
	}
	var zero bool
	if h.durable {
		zero = h.block.adjust(0, -1)
	} else {
		zero = h.block.adjust(-1, 0)
	}
	if zero {
		h.block.destroyOrRecycle()
	}
}

// Deref returns the handle's payload and true, or (nil, false) if h is
// empty. The returned pointer is valid for as long as h itself is alive
// and not yet Released.
//
// Dereferencing conceptually goes through a dependent load: one read of
// h.block (already satisfied by ordinary Go
// value semantics, since block is fixed at construction and never mutated
// in place) followed by one read of block.payload. Go's memory model gives
// every sync/atomic load that follows a sync/atomic store on the same
// location at least the ordering a dependent load asks for, so the second
// read here is a plain field read: the payload pointer is written once,
// before the block is ever published through an AtomicSlot, and is never
// written again except by discardPayload and a later recycle reset
// (resetForPin/resetForSlot), both after the handle reaching here could no
// longer exist.
func (h PinnedHandle[T]) Deref() (*T, bool) {
	if h.block == nil {
		return nil, false
	}
	return h.block.payload, true
}

// IsEmpty reports whether h holds no share.
func (h PinnedHandle[T]) IsEmpty() bool {
	return h.block == nil
}

// Equal reports whether h and other reference the same RefBlock.
func (h PinnedHandle[T]) Equal(other PinnedHandle[T]) bool {
	return h.block == other.block
}

// EqualSlot compares h against the RefBlock currently observable from s,
// without pinning s. This is an advisory, racy operation: meaningful only
// when both h and s are known quiescent by the caller.
func (h PinnedHandle[T]) EqualSlot(s *AtomicSlot[T]) bool {
	return h.block == s.peekBlock()
}

// EqualPayload reports whether h's payload pointer equals p. A nil p
// matches only an empty handle, mirroring the original atomic_ptr's
// special-cased comparison against nullptr.
func (h PinnedHandle[T]) EqualPayload(p *T) bool {
	if p == nil {
		return h.block == nil
	}
	return h.block != nil && h.block.payload == p
}

// SetPoolHook installs the recycling hook on h's referenced block. It is a
// no-op on an empty handle.
func (h PinnedHandle[T]) SetPoolHook(hook PoolHook[T]) {
	if h.block != nil {
		h.block.SetPoolHook(hook)
	}
}

// PoolHook returns the recycling hook on h's referenced block, or nil if h
// is empty or has none set.
func (h PinnedHandle[T]) PoolHook() PoolHook[T] {
	if h.block == nil {
		return nil
	}
	return h.block.PoolHook()
}

// Recycle discards h's current share (as Release would) and replaces h, in
// place, with a handle over block reset for pinned ownership, carrying
// payload. This is the recycle-install operation described alongside the
// pool hook: a named alternative to Release-then-NewPinnedFromRecycled that
// mirrors local_ptr::recycle in the original this package distills.
func (h *PinnedHandle[T]) Recycle(block *RefBlock[T], payload *T) {
	old := *h
	*h = NewPinnedFromRecycled(block, payload)
	old.Release()
}
