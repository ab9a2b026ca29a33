package shareptr

// genToken keeps track of the genTracker's current generation and prevents changes
// to it while it is not Released. Depending on how the genToken was acquired, there
// may be many or only one allowed to exist at once.
type genToken struct {
	ctr *counter
	gen uint64
	p   uint64
}

// Release invalidates the genToken and must be called exactly once.
func (t genToken) Release() { t.ctr.Release() }

// Gen reports the current generation of the genTracker.
func (t genToken) Gen() uint64 { return t.gen }
