package shareptr

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

var thread uint64
var threadPool = sync.Pool{
	New: func() interface{} { return uint64(atomic.AddUint64(&thread, 1)) },
}

// genTracker allows one to acquire genTokens that come with a monotonically increasing
// generation number, and to later wait for every genToken of some past generation to
// have been released. This package's own concurrency tests use it as a quiescence
// barrier: a writer goroutine bumps the generation around a batch of Pin/Release
// activity on an AtomicSlot under test, then waits on the returned genPending before
// asserting invariants that only hold once that batch has fully drained. It is
// unrelated to the ephemeral/refs split-count protocol RefBlock implements; it just
// happens to be a convenient way to know when a round of concurrent work is done. The
// zero value is safe to use.
type genTracker struct {
	page unsafe.Pointer // *counterPage
	mu   sync.Mutex     // serializes Increment
}

// Acquire returns a genToken that can be used to inspect the current generation.
// It must be Released before an Increment of the genToken's generation can complete.
// It is safe to be called concurrently.
func (t *genTracker) Acquire() genToken {
	// determine which counter we're going to hold
	pi := threadPool.Get()
	threadPool.Put(pi)
	p, _ := pi.(uint64)

	// load the current generation, allocating it if it's nil.
	page := (*counterPage)(atomic.LoadPointer(&t.page))
	if page == nil {
		page = newCounterPage()
		page.gen = 0
		if !atomic.CompareAndSwapPointer(&t.page, nil, unsafe.Pointer(page)) {
			page.Release()
			page = (*counterPage)(atomic.LoadPointer(&t.page))
		}
	}

	for {
		// acquire the counter
		ctr := &page.ctrs[p%numCounters].ctr
		ctr.Acquire()

		// double check that the generation didn't change to ensure that any
		// Increment calls are aware of our potential outstanding genToken.
		pageNext := (*counterPage)(atomic.LoadPointer(&t.page))
		if page == pageNext {
			return genToken{ctr: ctr, gen: page.gen, p: p}
		}

		// we lost the race, and can't safely return a genToken. try again with
		// the current generation.
		ctr.Release()
		page = pageNext
	}
}

// Increment bumps the generation of the genTracker for future Acquire calls and
// returns a genPending that can be used to Wait until all currently Acquired
// genTokens with the same generation are Released. It is safe to be called
// concurrently.
func (t *genTracker) Increment() genPending {
	// serialize concurrent calls to Increment.
	t.mu.Lock()

	// read and lazily allocate the current page. we have to do this even with
	// the mutex because Acquire may be happening which ignores the mutex, so
	// we have to use CAS to synchronize.
	page := (*counterPage)(atomic.LoadPointer(&t.page))
	if page == nil {
		page = newCounterPage()
		page.gen = 0
		if !atomic.CompareAndSwapPointer(&t.page, nil, unsafe.Pointer(page)) {
			page.Release()
			page = (*counterPage)(atomic.LoadPointer(&t.page))
		}
	}

	// store in the next page. no need to CAS because we know we're the only
	// possible writer to the page variable since Acquire only does a CAS from
	// nil and the mutex serializes calls to Increment.
	nextPage := newCounterPage()
	nextPage.gen = page.gen + 1
	atomic.StorePointer(&t.page, unsafe.Pointer(nextPage))

	t.mu.Unlock()

	// no one else can be reading/writing to the page header now, so we are safe
	// to do unsynchronized reads. synchronization is provided by the atomic
	// loads and stores of the page pointer itself.
	return genPending{
		page: page,
		gen:  page.gen,
		pgen: page.pgen,
	}
}
