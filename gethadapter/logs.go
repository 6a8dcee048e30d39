package gethadapter

import (
	gethcommon "github.com/ethereum/go-ethereum/common"
	gethvm "github.com/ethereum/go-ethereum/core/vm"

	"github.com/primablock/parables/crypto"
)

// CallContextHash derives a synthetic per-call "transaction hash" used only
// to key go-ethereum's in-memory log buffer (StateDB.SetTxContext /
// GetLogs). parables calls are never real signed transactions, so this has
// no meaning beyond giving each call_index a distinct key.
func CallContextHash(callIndex uint64) gethcommon.Hash {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(callIndex >> (8 * (7 - i)))
	}
	return gethcommon.BytesToHash(crypto.Keccak256([]byte("parables-call"), b[:]))
}

// BlockHashFor derives a synthetic block hash for use as the blockHash
// argument to StateDB.GetLogs, which only uses it to stamp the returned
// Log.BlockHash field (unused by parables — see gethadapter.synthHash for
// the discussion of why no real block hashing happens in this harness).
func BlockHashFor(blockNumber uint64) gethcommon.Hash {
	return synthHash(blockNumber)
}

// IsExecutionReverted reports whether err is go-ethereum's sentinel
// "execution reverted" error, i.e. the call hit a REVERT opcode rather than
// a fatal VM failure.
func IsExecutionReverted(err error) bool {
	return err == gethvm.ErrExecutionReverted
}

// DecodeRevertReason attempts to decode returnData as an ABI-encoded
// Error(string) revert reason. Returns nil if returnData does not match
// that encoding (e.g. a bare revert() with no message, or a custom error).
func DecodeRevertReason(returnData []byte) *string {
	reason, err := abiUnpackRevert(returnData)
	if err != nil {
		return nil
	}
	return &reason
}
