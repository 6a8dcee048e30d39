package evmcore

import (
	"sync/atomic"

	"github.com/primablock/parables/metrics"
)

// Snapshot is a shareable, immutable baseline Evm. Get() clones the
// baseline World copy-on-write and returns a brand-new Evm with an empty
// log queue; derived Evms never mutate the baseline.
//
// A Snapshot is safe for concurrent Get() calls from multiple goroutines:
// the only shared mutable state is the outstanding-derivation counter,
// which is updated with atomics, and the baseline World itself is never
// written to after construction.
type Snapshot struct {
	baseline    *Evm
	outstanding int64
}

// NewSnapshot consumes evm and returns a Snapshot over it. evm must not be
// used directly after this call — derive working copies via Get instead.
func NewSnapshot(evm *Evm) *Snapshot {
	return &Snapshot{baseline: evm}
}

// Get returns a new Evm whose World is an independent copy-on-write clone
// of the baseline. Safe to call concurrently from many goroutines; each
// call is wait-free beyond the refcount bump.
func (s *Snapshot) Get() *Evm {
	n := atomic.AddInt64(&s.outstanding, 1)
	metrics.SnapshotClones.Inc()
	metrics.SnapshotOutstanding.Set(n)
	return fromWorld(s.baseline.world.Clone())
}

// Outstanding reports the number of derived Evms created via Get that
// have not been explicitly released via Release. Diagnostic only — the
// core never requires callers to release a derived Evm (it is freed by
// the garbage collector like any other value).
func (s *Snapshot) Outstanding() int64 {
	return atomic.LoadInt64(&s.outstanding)
}

// Release decrements the outstanding-derivation counter. Purely a
// bookkeeping aid for callers that want to track live derived Evms; it has
// no effect on correctness.
func (s *Snapshot) Release() {
	n := atomic.AddInt64(&s.outstanding, -1)
	metrics.SnapshotOutstanding.Set(n)
}

// Baseline returns the snapshot's own Evm, primarily so a host program can
// read balances/state of the fixture world for diagnostics. Mutating
// operations should never be called on it directly — go through Get()
// instead.
func (s *Snapshot) Baseline() *Evm {
	return s.baseline
}
