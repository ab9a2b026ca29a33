package shareptr

import (
	"sync/atomic"
)

// refcount packs the ephemeral and durable share counts of a RefBlock into
// a single int64 so that both can be adjusted by one compare-and-swap, the
// same way counter_page.go packs a page's header fields into one
// cache-line sized struct, to keep the hot path allocation free.
type refcount struct {
	bits int64
}

func packRefcount(ephemeral, refs int32) int64 {
	return int64(uint64(uint32(ephemeral))<<32 | uint64(uint32(refs)))
}

func unpackRefcount(bits int64) (ephemeral, refs int32) {
	u := uint64(bits)
	return int32(u >> 32), int32(uint32(u))
}

func (c *refcount) load() (ephemeral, refs int32) {
	return unpackRefcount(atomic.LoadInt64(&c.bits))
}

// adjust adds deltaEphemeral and deltaRefs to the packed pair with a full
// barrier CAS and reports whether the resulting pair is (0, 0).
//
// Dropping a share to a non-zero result needs a release fence so stores
// made before the drop cannot appear to happen after it; dropping to
// exactly zero needs an acquire fence so the eventual destructor's loads
// cannot be hoisted above the drop. A single sequentially-consistent CAS
// loop covers both without branching on the caller's behalf.
func (c *refcount) adjust(deltaEphemeral, deltaRefs int32) (zero bool) {
	for {
		old := atomic.LoadInt64(&c.bits)
		oldE, oldR := unpackRefcount(old)
		newE, newR := oldE+deltaEphemeral, oldR+deltaRefs
		next := packRefcount(newE, newR)
		if atomic.CompareAndSwapInt64(&c.bits, old, next) {
			return newE == 0 && newR == 0
		}
	}
}

// RefBlock is the indirection object between every handle and a payload of
// type T. It owns the payload, carries the split ephemeral/durable counters
// described by the package doc, and an optional recycling hook in place of
// letting the payload be collected normally.
//
// A RefBlock is never copied; it is always referenced through a pointer.
type RefBlock[T any] struct {
	counts  refcount
	payload *T

	pool PoolHook[T]

	// link is reserved for use by a Pool implementation while the block is
	// sitting in a free list. Ownership belongs to whoever currently owns
	// the block: the application while it's live, the pool while it's free.
	link *RefBlock[T]
}

// PoolHook is invoked in place of discarding a RefBlock's payload once the
// block's counts reach (0, 0). It is called exactly once per block, from
// the releasing goroutine, synchronously.
type PoolHook[T any] func(*RefBlock[T])

// newRefBlock allocates a fresh block wrapping payload with the given
// initial (ephemeral, refs) pair. p may be nil, producing an empty block
// (used only internally; the public constructors reject a nil payload by
// simply not allocating a block at all).
func newRefBlock[T any](p *T, ephemeral, refs int32) *RefBlock[T] {
	b := &RefBlock[T]{payload: p}
	b.counts.bits = packRefcount(ephemeral, refs)
	return b
}

// adjust atomically updates the block's counters. See refcount.adjust.
func (b *RefBlock[T]) adjust(deltaEphemeral, deltaRefs int32) (zero bool) {
	return b.counts.adjust(deltaEphemeral, deltaRefs)
}

// destroyOrRecycle runs once the block's counts have reached (0, 0). The
// caller must be the unique goroutine that observed that transition; no
// other goroutine may touch the block after this call begins.
func (b *RefBlock[T]) destroyOrRecycle() {
	if b.pool == nil {
		b.discardPayload()
		return
	}
	b.pool(b)
}

// discardPayload releases the block's reference to its payload. If the
// payload implements io.Closer, Close is called first, as this package's
// stand-in for a payload destructor; the payload's own cleanup remains its
// own responsibility beyond that.
func (b *RefBlock[T]) discardPayload() {
	if p := b.payload; p != nil {
		if c, ok := any(p).(interface{ Close() error }); ok {
			_ = c.Close()
		}
	}
	b.payload = nil
}

// resetForPin re-initializes a recycled block to (1, 0), the convention for
// a block about to be installed into a PinnedHandle.
func (b *RefBlock[T]) resetForPin(p *T) {
	b.payload = p
	atomic.StoreInt64(&b.counts.bits, packRefcount(1, 0))
}

// resetForSlot re-initializes a recycled block to (0, 1), the convention
// for a block about to be installed into an AtomicSlot.
func (b *RefBlock[T]) resetForSlot(p *T) {
	b.payload = p
	atomic.StoreInt64(&b.counts.bits, packRefcount(0, 1))
}

// SetPoolHook installs (or clears, with nil) the recycling hook invoked in
// place of discarding the payload once the block's counts reach zero.
func (b *RefBlock[T]) SetPoolHook(hook PoolHook[T]) {
	b.pool = hook
}

// PoolHook returns the block's current recycling hook, or nil.
func (b *RefBlock[T]) PoolHook() PoolHook[T] {
	return b.pool
}
