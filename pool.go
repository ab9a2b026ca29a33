package shareptr

import (
	"sync"
	"sync/atomic"
)

// Pool is a recycling pool of RefBlock[T] values: instead of letting a
// block be collected once its counts reach zero, Hook returns a PoolHook
// that pushes it onto a free list for reuse by Get, avoiding repeated
// allocation under steady-state churn.
//
// Pool shards its free list the same way tracker.go shards its
// per-generation counters: by the id of the calling P (procPin/procUnpin),
// so concurrent Get/Put from different Ps rarely contend on the same
// shard's head pointer. Each shard falls back to a shared sync.Pool when
// its own free list is empty, the same pattern counter_page.go uses for
// counterPage itself.
type Pool[T any] struct {
	shards [numCounters]poolShard[T]
	backup sync.Pool
}

type poolShard[T any] struct {
	head atomic.Pointer[RefBlock[T]]
}

// NewPool returns a ready-to-use recycling pool.
func NewPool[T any]() *Pool[T] {
	p := &Pool[T]{}
	p.backup.New = func() any { return &RefBlock[T]{} }
	return p
}

// Get removes a block from the pool, allocating one if the pool is empty.
// The returned block's payload is always nil and its counts are whatever
// its most recent owner left them at ((0, 0) for a block recycled through
// Hook); callers must reset it with resetForPin/resetForSlot (as the
// New*FromRecycled helpers do) before publishing it.
func (p *Pool[T]) Get() *RefBlock[T] {
	shard := &p.shards[shardIndex()]
	for {
		head := shard.head.Load()
		if head == nil {
			break
		}
		if shard.head.CompareAndSwap(head, head.link) {
			head.link = nil
			return head
		}
	}
	b, _ := p.backup.Get().(*RefBlock[T])
	return b
}

// Put returns block to the pool. block's payload must already have been
// discarded (see RefBlock.discardPayload); Put does not touch it.
func (p *Pool[T]) Put(block *RefBlock[T]) {
	shard := &p.shards[shardIndex()]
	for {
		head := shard.head.Load()
		block.link = head
		if shard.head.CompareAndSwap(head, block) {
			return
		}
	}
}

// Hook returns a PoolHook that recycles a block into p instead of letting
// its payload be discarded for good. Install it with RefBlock.SetPoolHook or
// PinnedHandle.SetPoolHook; the New*FromRecycled helpers take no hook and
// keep whichever hook the block already carries.
func (p *Pool[T]) Hook() PoolHook[T] {
	return func(b *RefBlock[T]) {
		b.discardPayload()
		p.Put(b)
	}
}

func shardIndex() int {
	pid := procPin()
	procUnpin()
	return pid % numCounters
}
