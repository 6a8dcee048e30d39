// Package ledger reconciles an expected per-address model against live EVM
// state. The entry type is a generic capability: Ledger[E] accepts any E
// and copies it by value; the sync/verify strategy against live state,
// including how values are compared, is supplied by a State[E]
// implementation.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/primablock/parables/metrics"
	"github.com/primablock/parables/types"
)

// ErrNotTracked is returned by Add/Sub/Set/Mutate when called on an
// address that has never been synced.
var ErrNotTracked = errors.New("ledger: address not tracked")

// State is the capability a Ledger delegates to for reading and verifying
// truth. Sync reads the current live value for addr. Verify reports
// whether addr's live value equals expected, and returns the live value
// either way for diagnostics.
type State[E any] interface {
	Sync(addr types.Address) (E, error)
	Verify(addr types.Address, expected E) (ok bool, actual E, err error)
}

// Mismatch is one address whose expected value diverged from the live
// value at Verify time.
type Mismatch[E any] struct {
	Address  types.Address
	Expected E
	Actual   E
}

// MismatchError aggregates every Mismatch found by one Verify call.
type MismatchError[E any] struct {
	Mismatches []Mismatch[E]
}

func (e *MismatchError[E]) Error() string {
	if len(e.Mismatches) == 1 {
		m := e.Mismatches[0]
		return fmt.Sprintf("ledger: mismatch at %s: expected %v, got %v", m.Address.Hex(), m.Expected, m.Actual)
	}
	return fmt.Sprintf("ledger: %d mismatches (first at %s)", len(e.Mismatches), e.Mismatches[0].Address.Hex())
}

// Ledger tracks an expected value per address and reconciles it against
// live state on Verify.
type Ledger[E any] struct {
	mu       sync.RWMutex
	state    State[E]
	expected map[types.Address]E
	baseline map[types.Address]E
	order    []types.Address
}

// New returns an empty Ledger backed by state.
func New[E any](state State[E]) *Ledger[E] {
	return &Ledger[E]{
		state:    state,
		expected: make(map[types.Address]E),
		baseline: make(map[types.Address]E),
	}
}

// Sync reads addr's current truth and sets both baseline[addr] and
// expected[addr] to it.
func (l *Ledger[E]) Sync(addr types.Address) error {
	v, err := l.state.Sync(addr)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, tracked := l.expected[addr]; !tracked {
		l.order = append(l.order, addr)
	}
	l.expected[addr] = v
	l.baseline[addr] = v
	return nil
}

// SyncAll syncs every address in addrs, stopping at the first error.
func (l *Ledger[E]) SyncAll(addrs []types.Address) error {
	for _, addr := range addrs {
		if err := l.Sync(addr); err != nil {
			return err
		}
	}
	return nil
}

// Set overwrites expected[addr] directly, for non-additive entry types.
// Fails ErrNotTracked unless addr has been synced.
func (l *Ledger[E]) Set(addr types.Address, value E) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, tracked := l.expected[addr]; !tracked {
		return ErrNotTracked
	}
	l.expected[addr] = value
	return nil
}

// Mutate applies fn to expected[addr] in place. Fails ErrNotTracked unless
// addr has been synced. Add/Sub on the account_balance specialization are
// built on top of Mutate.
func (l *Ledger[E]) Mutate(addr types.Address, fn func(E) E) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur, tracked := l.expected[addr]
	if !tracked {
		return ErrNotTracked
	}
	l.expected[addr] = fn(cur)
	return nil
}

// Expected returns the current expected value for addr and whether it is
// tracked.
func (l *Ledger[E]) Expected(addr types.Address) (E, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.expected[addr]
	return v, ok
}

// Verify re-reads truth for every tracked address and requires equality
// with expected. May be called multiple times. Returns nil if every
// tracked address matches; otherwise a *MismatchError aggregating every
// divergent address, in tracking order.
func (l *Ledger[E]) Verify() error {
	metrics.LedgerVerifications.Inc()

	l.mu.RLock()
	addrs := make([]types.Address, len(l.order))
	copy(addrs, l.order)
	expected := make(map[types.Address]E, len(l.expected))
	for k, v := range l.expected {
		expected[k] = v
	}
	l.mu.RUnlock()

	var mismatches []Mismatch[E]
	for _, addr := range addrs {
		exp := expected[addr]
		ok, actual, err := l.state.Verify(addr, exp)
		if err != nil {
			return err
		}
		if !ok {
			mismatches = append(mismatches, Mismatch[E]{Address: addr, Expected: exp, Actual: actual})
		}
	}
	if len(mismatches) == 0 {
		return nil
	}
	metrics.LedgerMismatches.Add(int64(len(mismatches)))
	return &MismatchError[E]{Mismatches: mismatches}
}
