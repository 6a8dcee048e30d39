package gethadapter

import (
	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	gethstate "github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/holiman/uint256"

	"github.com/primablock/parables/types"
)

// MemoryState is a freshly-created go-ethereum StateDB backed entirely by an
// in-memory key-value database — no file ever touches disk. Starts at the
// empty-genesis case since parables builds up its World by direct
// account/call operations rather than from a pre-state JSON fixture.
type MemoryState struct {
	StateDB *gethstate.StateDB
	db      gethstate.Database
}

// NewMemoryState returns an empty StateDB over a fresh in-memory trie
// database, at the zero (empty) state root.
func NewMemoryState() (*MemoryState, error) {
	kvdb := rawdb.NewMemoryDatabase()
	tdb := triedb.NewDatabase(kvdb, nil)
	sdb := gethstate.NewDatabase(tdb, nil)
	statedb, err := gethstate.New(gethcommon.Hash{}, sdb)
	if err != nil {
		return nil, err
	}
	return &MemoryState{StateDB: statedb, db: sdb}, nil
}

// Copy returns an independent, copy-on-write clone of m: go-ethereum's
// StateDB.Copy() clones only the dirty account-object map, sharing the
// underlying trie/database between the original and the clone until one of
// them writes.
func (m *MemoryState) Copy() *MemoryState {
	return &MemoryState{StateDB: m.StateDB.Copy(), db: m.db}
}

// Exist reports whether addr has ever been materialized.
func (m *MemoryState) Exist(addr types.Address) bool {
	return m.StateDB.Exist(ToGethAddress(addr))
}

// CreateAccount materializes addr. A no-op if it already exists.
func (m *MemoryState) CreateAccount(addr types.Address) {
	if !m.Exist(addr) {
		m.StateDB.CreateAccount(ToGethAddress(addr))
	}
}

// GetBalance returns addr's current balance (zero for an unmaterialized
// account).
func (m *MemoryState) GetBalance(addr types.Address) types.U256 {
	return FromUint256(m.StateDB.GetBalance(ToGethAddress(addr)))
}

// AddBalance materializes addr if needed and increases its balance by v.
func (m *MemoryState) AddBalance(addr types.Address, v types.U256) {
	m.CreateAccount(addr)
	m.StateDB.AddBalance(ToGethAddress(addr), ToUint256(v), tracing.BalanceChangeUnspecified)
}

// SubBalance materializes addr if needed and decreases its balance by v.
// Callers must pre-check sufficiency; SubBalance does not clamp at zero.
func (m *MemoryState) SubBalance(addr types.Address, v types.U256) {
	m.CreateAccount(addr)
	m.StateDB.SubBalance(ToGethAddress(addr), ToUint256(v), tracing.BalanceChangeUnspecified)
}

// SetBalance materializes addr if needed and sets its balance to v.
func (m *MemoryState) SetBalance(addr types.Address, v types.U256) {
	m.CreateAccount(addr)
	gaddr := ToGethAddress(addr)
	cur := m.StateDB.GetBalance(gaddr)
	target := ToUint256(v)
	if target.Cmp(cur) >= 0 {
		m.StateDB.AddBalance(gaddr, new(uint256.Int).Sub(target, cur), tracing.BalanceChangeUnspecified)
	} else {
		m.StateDB.SubBalance(gaddr, new(uint256.Int).Sub(cur, target), tracing.BalanceChangeUnspecified)
	}
}

// GetNonce returns addr's current nonce (zero for an unmaterialized
// account).
func (m *MemoryState) GetNonce(addr types.Address) uint64 {
	return m.StateDB.GetNonce(ToGethAddress(addr))
}

// SetNonce materializes addr if needed and sets its nonce.
func (m *MemoryState) SetNonce(addr types.Address, n uint64) {
	m.CreateAccount(addr)
	m.StateDB.SetNonce(ToGethAddress(addr), n, tracing.NonceChangeUnspecified)
}

// IncrementNonce materializes addr if needed, increments its nonce by 1, and
// returns the pre-increment value.
func (m *MemoryState) IncrementNonce(addr types.Address) uint64 {
	n := m.GetNonce(addr)
	m.SetNonce(addr, n+1)
	return n
}

// GetCode returns addr's current code (nil for an unmaterialized account or
// one with no code).
func (m *MemoryState) GetCode(addr types.Address) []byte {
	return m.StateDB.GetCode(ToGethAddress(addr))
}

// SetCode materializes addr if needed and sets its code.
func (m *MemoryState) SetCode(addr types.Address, code []byte) {
	m.CreateAccount(addr)
	m.StateDB.SetCode(ToGethAddress(addr), code, tracing.CodeChangeUnspecified)
}

// GetState reads a single storage slot (the zero hash if absent).
func (m *MemoryState) GetState(addr types.Address, key types.H256) types.H256 {
	return FromGethHash(m.StateDB.GetState(ToGethAddress(addr), ToGethHash(key)))
}

// SetState materializes addr if needed and writes a single storage slot.
func (m *MemoryState) SetState(addr types.Address, key, value types.H256) {
	m.CreateAccount(addr)
	m.StateDB.SetState(ToGethAddress(addr), ToGethHash(key), ToGethHash(value))
}
