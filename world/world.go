// Package world owns the in-memory EVM state a test operates against:
// accounts (balance, nonce, code, storage) and the block context calls
// execute under. It is a thin, domain-named wrapper over gethadapter's
// go-ethereum-backed MemoryState — go-ethereum's StateDB already provides
// materialize-on-write accounts and the copy-on-write clone a World needs,
// so World itself owns no account map of its own.
package world

import (
	"errors"

	"github.com/primablock/parables/chainspec"
	"github.com/primablock/parables/gethadapter"
	"github.com/primablock/parables/types"
)

// World errors.
var (
	ErrInsufficientBalance = errors.New("world: insufficient balance")
)

// Context is the block-level data visible to a call: block number,
// timestamp, difficulty, gas limit, and coinbase. Immutable within one call;
// mutated only via AdvanceBlock between calls.
type Context struct {
	BlockNumber    uint64
	BlockTimestamp uint64
	Difficulty     types.U256
	GasLimit       uint64
	Coinbase       types.Address
}

// DefaultContext returns a zero-value block context with a generous gas
// limit, the sane non-zero default a fresh World starts from.
func DefaultContext() Context {
	return Context{
		BlockNumber:    0,
		BlockTimestamp: 0,
		Difficulty:     types.NewU256(0),
		GasLimit:       30_000_000,
		Coinbase:       types.Address{},
	}
}

// Account is a read-only view of one address's state at the moment it was
// read. Mutating a returned Account has no effect on World; all writes go
// through World's setter methods.
type Account struct {
	Balance types.U256
	Nonce   uint64
	Code    []byte
	address types.Address
}

// Address returns the address this view was read for.
func (a Account) Address() types.Address { return a.address }

// IsEmpty reports whether the account is empty: zero balance, zero nonce,
// no code. A never-materialized address always reads as empty.
func (a Account) IsEmpty() bool {
	return a.Balance.IsZero() && a.Nonce == 0 && len(a.Code) == 0
}

// World is the full chain-like state a sequence of calls executes against.
type World struct {
	state *gethadapter.MemoryState
	ctx   Context
	spec  chainspec.Spec
}

// New returns an empty World under the given spec with a default block
// context.
func New(spec chainspec.Spec) (*World, error) {
	st, err := gethadapter.NewMemoryState()
	if err != nil {
		return nil, err
	}
	return &World{state: st, ctx: DefaultContext(), spec: spec}, nil
}

// Spec returns the foundation selector this World executes under. Immutable
// after construction.
func (w *World) Spec() chainspec.Spec { return w.spec }

// Context returns the current block context.
func (w *World) Context() Context { return w.ctx }

// State returns the underlying go-ethereum-backed state, for the executor
// package's direct use. Not part of the Evm-facing surface.
func (w *World) State() *gethadapter.MemoryState { return w.state }

// BlockContext converts the World's current Context into the form
// gethadapter needs to build a go-ethereum vm.BlockContext.
func (w *World) BlockContext() gethadapter.BlockContext {
	return gethadapter.BlockContext{
		Number:     w.ctx.BlockNumber,
		Timestamp:  w.ctx.BlockTimestamp,
		Difficulty: w.ctx.Difficulty,
		GasLimit:   w.ctx.GasLimit,
		Coinbase:   w.ctx.Coinbase,
	}
}

// AdvanceBlock advances the block number and timestamp by dn and dt
// respectively. The rest of the context (difficulty, gas limit, coinbase)
// is unaffected.
func (w *World) AdvanceBlock(dn, dt uint64) {
	w.ctx.BlockNumber += dn
	w.ctx.BlockTimestamp += dt
}

// SetCoinbase sets the address that receives burnt gas fees.
func (w *World) SetCoinbase(addr types.Address) { w.ctx.Coinbase = addr }

// Account reads a as it currently stands. A never-touched address reads as
// an empty Account; no materialization occurs on read.
func (w *World) Account(addr types.Address) Account {
	return Account{
		Balance: w.state.GetBalance(addr),
		Nonce:   w.state.GetNonce(addr),
		Code:    w.state.GetCode(addr),
		address: addr,
	}
}

// SetBalance materializes addr if needed and sets its balance to v.
func (w *World) SetBalance(addr types.Address, v types.U256) {
	w.state.SetBalance(addr, v)
}

// AddBalance materializes addr if needed and increases its balance by v.
func (w *World) AddBalance(addr types.Address, v types.U256) {
	w.state.AddBalance(addr, v)
}

// SubBalance decreases addr's balance by v, failing ErrInsufficientBalance
// if the current balance is less than v.
func (w *World) SubBalance(addr types.Address, v types.U256) error {
	if w.state.GetBalance(addr).Cmp(v) < 0 {
		return ErrInsufficientBalance
	}
	w.state.SubBalance(addr, v)
	return nil
}

// SetNonce materializes addr if needed and sets its nonce.
func (w *World) SetNonce(addr types.Address, n uint64) {
	w.state.SetNonce(addr, n)
}

// IncrementNonce materializes addr if needed and increments its nonce by 1,
// returning the pre-increment value.
func (w *World) IncrementNonce(addr types.Address) uint64 {
	return w.state.IncrementNonce(addr)
}

// SetCode materializes addr if needed and sets its code.
func (w *World) SetCode(addr types.Address, code []byte) {
	w.state.SetCode(addr, code)
}

// StorageGet reads a single storage slot. Absent storage reads as the zero
// hash.
func (w *World) StorageGet(addr types.Address, key types.H256) types.H256 {
	return w.state.GetState(addr, key)
}

// StorageSet materializes addr if needed and writes a single storage slot.
func (w *World) StorageSet(addr types.Address, key, value types.H256) {
	w.state.SetState(addr, key, value)
}

// Clone returns an independent copy-on-write copy of w. Mutations to the
// clone never affect w and vice versa.
func (w *World) Clone() *World {
	return &World{
		state: w.state.Copy(),
		ctx:   w.ctx,
		spec:  w.spec,
	}
}
