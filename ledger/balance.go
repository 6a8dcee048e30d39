package ledger

import "github.com/primablock/parables/types"

// BalanceSource is the minimal Evm capability AccountBalanceLedgerState
// needs: reading an address's current balance. Satisfied by *evmcore.Evm
// without ledger needing to import evmcore.
type BalanceSource interface {
	Balance(addr types.Address) types.U256
}

// AccountBalanceLedgerState is the account-balance specialization of
// State[E]: entry type U256, sync reads evm.Balance(addr).
type AccountBalanceLedgerState struct {
	Evm BalanceSource
}

func (s AccountBalanceLedgerState) Sync(addr types.Address) (types.U256, error) {
	return s.Evm.Balance(addr), nil
}

func (s AccountBalanceLedgerState) Verify(addr types.Address, expected types.U256) (bool, types.U256, error) {
	actual := s.Evm.Balance(addr)
	return actual.Cmp(expected) == 0, actual, nil
}

// BalanceLedger is a Ledger[types.U256] with additive Add/Sub operations
// for the account-balance specialization.
type BalanceLedger struct {
	*Ledger[types.U256]
}

// NewBalanceLedger returns a BalanceLedger reading balances from evm.
func NewBalanceLedger(evm BalanceSource) *BalanceLedger {
	return &BalanceLedger{Ledger: New[types.U256](AccountBalanceLedgerState{Evm: evm})}
}

// Add increases expected[addr] by delta. Never reads truth.
func (b *BalanceLedger) Add(addr types.Address, delta types.U256) error {
	return b.Mutate(addr, func(cur types.U256) types.U256 { return cur.Add(delta) })
}

// Sub decreases expected[addr] by delta. Never reads truth.
func (b *BalanceLedger) Sub(addr types.Address, delta types.U256) error {
	return b.Mutate(addr, func(cur types.U256) types.U256 { return cur.Sub(delta) })
}
