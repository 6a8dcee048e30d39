// Package gethadapter is the only package in this module that touches
// go-ethereum's state and EVM directly. It binds parables' opaque
// "transaction executor" boundary concretely to go-ethereum's
// core/vm.EVM and core/state.StateDB, and converts between parables'
// value types and go-ethereum's. Two other packages import go-ethereum
// for narrower needs: chainspec (params, for chain configuration) and
// logdrain (accounts/abi and common, for event decoding).
package gethadapter

import (
	"math/big"

	gethcommon "github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	"github.com/primablock/parables/types"
)

// ToGethAddress converts a parables Address to a go-ethereum Address. The
// two types are layout-compatible ([20]byte), so this is a zero-copy cast.
func ToGethAddress(a types.Address) gethcommon.Address {
	return gethcommon.Address(a)
}

// FromGethAddress converts a go-ethereum Address to a parables Address.
func FromGethAddress(a gethcommon.Address) types.Address {
	return types.Address(a)
}

// ToGethHash converts a parables H256 to a go-ethereum Hash.
func ToGethHash(h types.H256) gethcommon.Hash {
	return gethcommon.Hash(h)
}

// FromGethHash converts a go-ethereum Hash to a parables H256.
func FromGethHash(h gethcommon.Hash) types.H256 {
	return types.H256(h)
}

// ToUint256 converts a parables U256 to a *uint256.Int for direct use with
// go-ethereum's state/EVM APIs.
func ToUint256(u types.U256) *uint256.Int {
	v := u
	return v.Uint256()
}

// ToBig converts a parables U256 to a *big.Int, for the few go-ethereum APIs
// (core.Message gas fields) that still take *big.Int.
func ToBig(u types.U256) *big.Int {
	return u.Big()
}

// FromUint256 converts a *uint256.Int read back from go-ethereum state into
// a parables U256.
func FromUint256(u *uint256.Int) types.U256 {
	if u == nil {
		return types.NewU256(0)
	}
	return types.U256FromBig(u.ToBig())
}

// FromGethLog converts one go-ethereum Log into a parables LogRecord.
// callIndex is parables' own monotonic per-Evm counter, not anything
// go-ethereum tracks, so it is supplied by the caller rather than read off
// the geth log.
func FromGethLog(l *gethtypes.Log, callIndex uint64) types.LogRecord {
	topics := make([]types.H256, len(l.Topics))
	for i, t := range l.Topics {
		topics[i] = FromGethHash(t)
	}
	return types.LogRecord{
		Address:   FromGethAddress(l.Address),
		Topics:    topics,
		Data:      append(types.Bytes(nil), l.Data...),
		CallIndex: callIndex,
	}
}

// FromGethLogs converts a slice of go-ethereum Logs, all tagged with the
// same callIndex (they were all emitted during one Executor.Apply call).
func FromGethLogs(logs []*gethtypes.Log, callIndex uint64) []types.LogRecord {
	out := make([]types.LogRecord, len(logs))
	for i, l := range logs {
		out[i] = FromGethLog(l, callIndex)
	}
	return out
}
