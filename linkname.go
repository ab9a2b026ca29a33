package shareptr

import _ "unsafe"

// procPin/procUnpin give the id of the current P, used by the recycling
// pool (pool.go) to pick a shard without any other synchronization, the
// same way tracker.go shards its per-generation counters by a thread index.
//
//go:linkname procPin runtime.procPin
//go:nosplit
func procPin() int

//go:linkname procUnpin runtime.procUnpin
//go:nosplit
func procUnpin()
