// Package chainspec selects the EVM feature flags and gas schedule a World
// runs under, binding a small named-profile selector to a concrete
// go-ethereum params.ChainConfig.
package chainspec

import (
	"math/big"

	gethparams "github.com/ethereum/go-ethereum/params"
)

// Spec selects the opcode set and gas schedule a World executes under.
type Spec int

const (
	// Null runs the oldest ruleset (pre-Byzantium, Frontier gas costs) with
	// no base fee and no fork activity — useful for deterministic
	// property tests that must not drift as new forks are added.
	Null Spec = iota
	// InstantSeal runs the latest stable ruleset (London and later) with
	// every post-merge timestamp fork active at genesis. Gas price
	// semantics on a call descriptor are a flat effective price: base fee
	// is pinned to zero so gas_price alone determines the fee paid.
	InstantSeal
	// Morden mirrors the historical Ethereum Morden testnet's early fork
	// schedule (Homestead active, EIP-150/155/158, pre-Byzantium) for
	// exercising gas-cost code paths that changed in later forks (e.g.
	// SLOAD/SSTORE pricing before EIP-2929).
	Morden
)

// String returns the human-readable name of the spec.
func (s Spec) String() string {
	switch s {
	case Null:
		return "Null"
	case InstantSeal:
		return "InstantSeal"
	case Morden:
		return "Morden"
	default:
		return "Unknown"
	}
}

// ChainConfig returns the go-ethereum chain configuration matching s. The
// returned config is never mutated by World/Executor after construction.
func (s Spec) ChainConfig() *gethparams.ChainConfig {
	switch s {
	case Null:
		return &gethparams.ChainConfig{
			ChainID: big.NewInt(1),
		}
	case Morden:
		zero := big.NewInt(0)
		return &gethparams.ChainConfig{
			ChainID:             big.NewInt(2),
			HomesteadBlock:      zero,
			EIP150Block:         zero,
			EIP155Block:         zero,
			EIP158Block:         zero,
			ByzantiumBlock:      nil,
			ConstantinopleBlock: nil,
		}
	case InstantSeal:
		zero := big.NewInt(0)
		zt := uint64(0)
		return &gethparams.ChainConfig{
			ChainID:                 big.NewInt(1337),
			HomesteadBlock:          zero,
			EIP150Block:             zero,
			EIP155Block:             zero,
			EIP158Block:             zero,
			ByzantiumBlock:          zero,
			ConstantinopleBlock:     zero,
			PetersburgBlock:         zero,
			IstanbulBlock:           zero,
			MuirGlacierBlock:        zero,
			BerlinBlock:             zero,
			LondonBlock:             zero,
			TerminalTotalDifficulty: big.NewInt(0),
			ShanghaiTime:            &zt,
			CancunTime:              &zt,
			PragueTime:              &zt,
		}
	default:
		return &gethparams.ChainConfig{ChainID: big.NewInt(1)}
	}
}

// SupportsBaseFee reports whether calls under s run with EIP-1559 rules
// active: true for InstantSeal only. Call descriptors carry only
// gas_price, never a fee cap/tip pair, and the base fee is pinned to zero,
// so gas_price alone determines the fee.
func (s Spec) SupportsBaseFee() bool {
	return s == InstantSeal
}
