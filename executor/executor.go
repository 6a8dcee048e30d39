// Package executor runs a single call or deploy against a world.World:
// applies gas/nonce/value accounting, invokes go-ethereum's EVM through
// gethadapter, and classifies the result into a tagged Outcome.
// go-ethereum's own state-transition engine already performs validation,
// gas·price deduction, nonce increment, and revert rollback — this
// package's job is the parables-specific parts: deploy-address derivation,
// failure classification, revert-reason decoding, and log collection
// tagged with a monotonic call_index.
package executor

import (
	"errors"
	"strings"
	"time"

	"github.com/primablock/parables/gethadapter"
	"github.com/primablock/parables/metrics"
	"github.com/primablock/parables/types"
	"github.com/primablock/parables/world"
)

// Executor errors — pre-execution validation failures.
var (
	ErrInsufficientBalance = errors.New("executor: insufficient balance for gas and value")
	ErrInsufficientGas     = errors.New("executor: gas limit below intrinsic gas cost")
	ErrNonceMismatch       = errors.New("executor: nonce mismatch")
)

// CallDescriptor is the input to one Apply call.
type CallDescriptor struct {
	Sender   types.Address
	Gas      types.U256
	GasPrice types.U256
	Value    types.U256
	Data     types.Bytes
}

// DefaultCall returns a CallDescriptor defaulted to the World's block gas
// limit, zero price, zero value, empty data.
func DefaultCall(sender types.Address, w *world.World) CallDescriptor {
	return CallDescriptor{
		Sender:   sender,
		Gas:      types.NewU256(w.Context().GasLimit),
		GasPrice: types.NewU256(0),
		Value:    types.NewU256(0),
		Data:     nil,
	}
}

// Status is the outcome discriminant of an Apply call.
type Status int

const (
	StatusOk Status = iota
	StatusReverted
	StatusFailed
)

// FailureKind enumerates the fatal, rolled-back VM failure modes that
// produce a Failed outcome.
type FailureKind int

const (
	FailureOutOfGas FailureKind = iota
	FailureBadJump
	FailureStackUnderflow
	FailureStackOverflow
	FailureInvalidOpcode
	FailureInvalidCode
)

func (k FailureKind) String() string {
	switch k {
	case FailureOutOfGas:
		return "OutOfGas"
	case FailureBadJump:
		return "BadJump"
	case FailureStackUnderflow:
		return "StackUnderflow"
	case FailureStackOverflow:
		return "StackOverflow"
	case FailureInvalidOpcode:
		return "InvalidOpcode"
	case FailureInvalidCode:
		return "InvalidCode"
	default:
		return "Unknown"
	}
}

// Outcome is the tagged result of one Apply call. Only the fields meaningful to Status are populated; the rest
// are the zero value.
type Outcome struct {
	Status       Status
	Output       types.Bytes
	GasUsed      types.U256
	Logs         []types.LogRecord
	RevertReason *string
	FailureKind  FailureKind
}

func (o Outcome) IsOk() bool       { return o.Status == StatusOk }
func (o Outcome) IsReverted() bool { return o.Status == StatusReverted }
func (o Outcome) IsFailed() bool   { return o.Status == StatusFailed }

// Executor runs calls and deploys against a World. It holds no state of its
// own — World owns all mutable data — so a single Executor value may be
// reused across many calls and Worlds.
type Executor struct{}

// New returns an Executor.
func New() *Executor { return &Executor{} }

// Apply runs one call or deploy. When to is nil the call is a deploy: the
// CREATE address is derived from sender and its pre-increment nonce
// and returned alongside the Outcome. callIndex tags
// every log emitted during this call.
func (e *Executor) Apply(w *world.World, to *types.Address, call CallDescriptor, callIndex uint64) (outcome Outcome, deployed types.Address, err error) {
	start := time.Now()
	defer func() {
		metrics.CallDuration.Observe(float64(time.Since(start).Microseconds()) / 1000)
		if err != nil {
			return
		}
		metrics.CallsExecuted.Inc()
		metrics.CallGasUsed.Add(int64(outcome.GasUsed.Uint64()))
		switch outcome.Status {
		case StatusReverted:
			metrics.CallsReverted.Inc()
		case StatusFailed:
			metrics.CallsFailed.Inc()
		}
	}()

	sender := w.Account(call.Sender)
	intrinsicFloor := types.NewU256(21000)
	if call.Gas.Cmp(intrinsicFloor) < 0 {
		return Outcome{}, types.Address{}, ErrInsufficientGas
	}
	gasCost := call.Gas.Mul(call.GasPrice)
	required := gasCost.Add(call.Value)
	if sender.Balance.Cmp(required) < 0 {
		return Outcome{}, types.Address{}, ErrInsufficientBalance
	}

	var deployAddr types.Address
	if to == nil {
		deployAddr = gethadapter.CreateAddress(call.Sender, sender.Nonce)
	}

	msg := gethadapter.Message{
		From:     call.Sender,
		To:       to,
		Nonce:    sender.Nonce,
		Value:    call.Value,
		GasLimit: call.Gas.Uint64(),
		GasPrice: call.GasPrice,
		Data:     call.Data,
	}

	state := w.State()
	blockCtx := gethadapter.MakeBlockContext(w.BlockContext())
	gm := gethadapter.ToGethMessage(msg)

	callHash := gethadapter.CallContextHash(callIndex)
	state.StateDB.SetTxContext(callHash, int(callIndex))

	result, err := gethadapter.ApplyMessage(state.StateDB, w.Spec().ChainConfig(), blockCtx, gm)
	if err != nil {
		return Outcome{}, types.Address{}, classifyPreCheckError(err)
	}

	gasUsed := types.NewU256(result.UsedGas)
	logs := gethadapter.FromGethLogs(
		state.StateDB.GetLogs(callHash, w.Context().BlockNumber, gethadapter.BlockHashFor(w.Context().BlockNumber), w.Context().BlockTimestamp),
		callIndex,
	)

	if result.Err == nil {
		if to == nil {
			return Outcome{
				Status:  StatusOk,
				Output:  nil,
				GasUsed: gasUsed,
				Logs:    logs,
			}, deployAddr, nil
		}
		return Outcome{
			Status:  StatusOk,
			Output:  types.Bytes(result.ReturnData),
			GasUsed: gasUsed,
			Logs:    logs,
		}, types.Address{}, nil
	}

	if gethadapter.IsExecutionReverted(result.Err) {
		reason := gethadapter.DecodeRevertReason(result.ReturnData)
		return Outcome{
			Status:       StatusReverted,
			Output:       types.Bytes(result.ReturnData),
			GasUsed:      gasUsed,
			RevertReason: reason,
		}, types.Address{}, nil
	}

	return Outcome{
		Status:      StatusFailed,
		GasUsed:     gasUsed,
		FailureKind: classifyFailureKind(result.Err),
	}, types.Address{}, nil
}

// classifyPreCheckError maps a go-ethereum state-transition pre-check error
// (returned before any gas is spent) onto parables' stable error set.
func classifyPreCheckError(err error) error {
	msg := err.Error()
	switch {
	case containsAny(msg, "insufficient funds", "insufficient balance"):
		return ErrInsufficientBalance
	case containsAny(msg, "nonce too low", "nonce too high"):
		return ErrNonceMismatch
	case containsAny(msg, "intrinsic gas too low", "gas limit reached"):
		return ErrInsufficientGas
	default:
		return err
	}
}

// classifyFailureKind maps a go-ethereum VM execution error (returned after
// gas has been spent) onto one of the FailureKind values. Matching is done
// on error text rather than sentinel identity since go-ethereum
// represents several of these (stack under/overflow) as distinct error
// struct types rather than package-level vars.
func classifyFailureKind(err error) FailureKind {
	msg := err.Error()
	switch {
	case containsAny(msg, "out of gas"):
		return FailureOutOfGas
	case containsAny(msg, "invalid jump"):
		return FailureBadJump
	case containsAny(msg, "stack underflow"):
		return FailureStackUnderflow
	case containsAny(msg, "stack overflow"):
		return FailureStackOverflow
	case containsAny(msg, "invalid code"):
		return FailureInvalidCode
	default:
		return FailureInvalidOpcode
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
