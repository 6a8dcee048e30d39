// Package evmcore implements the Evm façade: the public
// deploy/call/balance/storage/logs surface a test closure drives, backed
// by one private world.World and one private log queue per Evm instance.
package evmcore

import (
	"github.com/primablock/parables/chainspec"
	"github.com/primablock/parables/executor"
	"github.com/primablock/parables/logdrain"
	"github.com/primablock/parables/types"
	"github.com/primablock/parables/world"
)

// DeployResult is returned by a successful Deploy.
type DeployResult struct {
	Address types.Address
	GasUsed types.U256
	Logs    []types.LogRecord
}

// CallResult is returned by a successful Call or CallDefault.
type CallResult struct {
	Output  types.Bytes
	GasUsed types.U256
	Logs    []types.LogRecord
}

// Evm is a privately-owned EVM world plus its undrained log queue and
// call-ordering counter. Each test closure owns exactly one Evm, derived
// from a Snapshot; nothing about an Evm is safe to share
// across goroutines.
type Evm struct {
	world    *world.World
	exec     *executor.Executor
	logQueue []types.LogRecord
	callSeq  uint64
}

// NewSeed constructs a fresh seed Evm over an empty World under spec. This
// is the entry point a host program uses to build its fixture Evm before
// wrapping it in a Snapshot.
func NewSeed(spec chainspec.Spec) (*Evm, error) {
	w, err := world.New(spec)
	if err != nil {
		return nil, err
	}
	return fromWorld(w), nil
}

// fromWorld wraps an existing World in a brand-new Evm with an empty log
// queue and a call_index counter reset to zero. Used both by NewSeed and
// by Snapshot.Get.
func fromWorld(w *world.World) *Evm {
	return &Evm{world: w, exec: executor.New()}
}

// nextCallIndex returns the next monotonic call_index and advances the
// counter.
func (e *Evm) nextCallIndex() uint64 {
	idx := e.callSeq
	e.callSeq++
	return idx
}

func (e *Evm) recordLogs(logs []types.LogRecord) {
	e.logQueue = append(e.logQueue, logs...)
}

// Deploy runs initCode as contract-creation init code. On success the new
// contract's address, gas used, and emitted logs are returned. A revert
// during init yields a *DeployRevertedError; a fatal VM failure yields a
// *DeployFailedError.
func (e *Evm) Deploy(initCode types.Bytes, call executor.CallDescriptor) (DeployResult, error) {
	call.Data = initCode
	callIndex := e.nextCallIndex()
	outcome, addr, err := e.exec.Apply(e.world, nil, call, callIndex)
	if err != nil {
		return DeployResult{}, err
	}
	switch {
	case outcome.IsOk():
		e.recordLogs(outcome.Logs)
		return DeployResult{Address: addr, GasUsed: outcome.GasUsed, Logs: outcome.Logs}, nil
	case outcome.IsReverted():
		return DeployResult{}, &DeployRevertedError{
			Output:  outcome.Output,
			Reason:  outcome.RevertReason,
			GasUsed: outcome.GasUsed,
		}
	default:
		return DeployResult{}, &DeployFailedError{Kind: outcome.FailureKind, GasUsed: outcome.GasUsed}
	}
}

// Call invokes to's code with callData as input.
func (e *Evm) Call(to types.Address, callData types.Bytes, call executor.CallDescriptor) (CallResult, executor.Outcome, error) {
	call.Data = callData
	callIndex := e.nextCallIndex()
	outcome, _, err := e.exec.Apply(e.world, &to, call, callIndex)
	if err != nil {
		return CallResult{}, executor.Outcome{}, err
	}
	if outcome.IsOk() {
		e.recordLogs(outcome.Logs)
		return CallResult{Output: outcome.Output, GasUsed: outcome.GasUsed, Logs: outcome.Logs}, outcome, nil
	}
	return CallResult{}, outcome, nil
}

// CallDefault invokes to with empty call data (a fallback-function
// invocation).
func (e *Evm) CallDefault(to types.Address, call executor.CallDescriptor) (CallResult, executor.Outcome, error) {
	return e.Call(to, nil, call)
}

// AddBalance credits addr without going through the executor (a direct
// World mutation used to fund test fixtures before any call runs).
func (e *Evm) AddBalance(addr types.Address, amount types.U256) {
	e.world.AddBalance(addr, amount)
}

// SubBalance debits addr directly, bypassing the executor.
func (e *Evm) SubBalance(addr types.Address, amount types.U256) error {
	return e.world.SubBalance(addr, amount)
}

// Balance reads addr's current balance.
func (e *Evm) Balance(addr types.Address) types.U256 {
	return e.world.Account(addr).Balance
}

// Nonce reads addr's current nonce.
func (e *Evm) Nonce(addr types.Address) uint64 {
	return e.world.Account(addr).Nonce
}

// Storage reads a single storage slot of addr.
func (e *Evm) Storage(addr types.Address, key types.H256) types.H256 {
	return e.world.StorageGet(addr, key)
}

// Logs returns a Drainer scoped to events matching signature's topic-0.
func (e *Evm) Logs(signature string) (*logdrain.Drainer, error) {
	sig, err := logdrain.ParseSignature(signature)
	if err != nil {
		return nil, err
	}
	return logdrain.NewDrainer(&e.logQueue, sig), nil
}

// HasLogs reports whether any undrained log record remains.
func (e *Evm) HasLogs() bool {
	return len(e.logQueue) > 0
}

// World exposes the underlying World for the ledger and linker packages
// and for advancing the block context between calls.
func (e *Evm) World() *world.World { return e.world }

// DefaultCall returns a CallDescriptor defaulted for sender against this
// Evm's World.
func (e *Evm) DefaultCall(sender types.Address) executor.CallDescriptor {
	return executor.DefaultCall(sender, e.world)
}
