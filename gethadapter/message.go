package gethadapter

import (
	"math/big"

	gethcommon "github.com/ethereum/go-ethereum/common"
	gethcore "github.com/ethereum/go-ethereum/core"
	gethstate "github.com/ethereum/go-ethereum/core/state"
	gethvm "github.com/ethereum/go-ethereum/core/vm"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	gethparams "github.com/ethereum/go-ethereum/params"

	"github.com/primablock/parables/crypto"
	"github.com/primablock/parables/types"
)

// BlockContext is the subset of World.Context the EVM needs for one call.
// Kept separate from world.Context (rather than importing it) so gethadapter
// has no dependency on the world package — only types and go-ethereum.
type BlockContext struct {
	Number     uint64
	Timestamp  uint64
	Difficulty types.U256
	GasLimit   uint64
	Coinbase   types.Address
}

// synthHash derives a deterministic, content-free block hash for a block
// number. This harness never produces real blocks, so GetHash only
// needs to be a stable, collision-free function of the number for opcodes
// like BLOCKHASH to read back a consistent value.
func synthHash(n uint64) gethcommon.Hash {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(n >> (8 * (7 - i)))
	}
	return gethcommon.BytesToHash(crypto.Keccak256(b[:]))
}

// MakeBlockContext builds a go-ethereum vm.BlockContext from a parables
// BlockContext.
func MakeBlockContext(ctx BlockContext) gethvm.BlockContext {
	diff := ctx.Difficulty.Big()
	return gethvm.BlockContext{
		CanTransfer: gethcore.CanTransfer,
		Transfer:    gethcore.Transfer,
		GetHash:     synthHash,
		Coinbase:    ToGethAddress(ctx.Coinbase),
		GasLimit:    ctx.GasLimit,
		BlockNumber: new(big.Int).SetUint64(ctx.Number),
		Time:        ctx.Timestamp,
		Difficulty:  diff,
		BaseFee:     big.NewInt(0),
	}
}

// Message mirrors the fields of a parables call descriptor translated into a
// go-ethereum core.Message, plus the deploy/call selector (To == nil means
// deploy).
type Message struct {
	From     types.Address
	To       *types.Address
	Nonce    uint64
	Value    types.U256
	GasLimit uint64
	GasPrice types.U256
	Data     []byte
}

// ToGethMessage converts m to a go-ethereum core.Message, using legacy
// (non-EIP-1559) pricing since parables call descriptors carry a single
// flat gas price rather than a fee cap/tip pair.
func ToGethMessage(m Message) *gethcore.Message {
	var to *gethcommon.Address
	if m.To != nil {
		addr := ToGethAddress(*m.To)
		to = &addr
	}
	price := ToBig(m.GasPrice)
	return &gethcore.Message{
		From:      ToGethAddress(m.From),
		To:        to,
		Nonce:     m.Nonce,
		Value:     ToBig(m.Value),
		GasLimit:  m.GasLimit,
		GasPrice:  price,
		GasFeeCap: price,
		GasTipCap: price,
		Data:      m.Data,
	}
}

// ApplyMessage executes msg against statedb using go-ethereum's EVM and
// state-transition engine, returning go-ethereum's ExecutionResult directly
// so the executor package can classify gas/output/revert/failure without
// gethadapter needing to know parables' CallOutcome shape.
func ApplyMessage(
	statedb *gethstate.StateDB,
	config *gethparams.ChainConfig,
	blockCtx gethvm.BlockContext,
	msg *gethcore.Message,
) (*gethcore.ExecutionResult, error) {
	evm := gethvm.NewEVM(blockCtx, statedb, config, gethvm.Config{})
	gp := new(gethcore.GasPool).AddGas(msg.GasLimit)
	return gethcore.ApplyMessage(evm, msg, gp)
}

// CreateAddress computes the CREATE address for a deploying sender and its
// pre-increment nonce, via go-ethereum's own keccak256(rlp(sender, nonce))
// derivation.
func CreateAddress(sender types.Address, nonce uint64) types.Address {
	return FromGethAddress(gethcrypto.CreateAddress(ToGethAddress(sender), nonce))
}
