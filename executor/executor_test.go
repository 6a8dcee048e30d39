package executor

import (
	"testing"

	"github.com/primablock/parables/chainspec"
	"github.com/primablock/parables/gethadapter"
	"github.com/primablock/parables/types"
	"github.com/primablock/parables/world"
)

// ---------------------------------------------------------------------------
// A tiny EVM assembler, used only to build the hand-written contracts below.
// ---------------------------------------------------------------------------

type asm struct{ buf []byte }

func (a *asm) op(b byte) *asm        { a.buf = append(a.buf, b); return a }
func (a *asm) push1(b byte) *asm     { a.buf = append(a.buf, 0x60, b); return a }
func (a *asm) push20(b [20]byte) *asm {
	a.buf = append(a.buf, 0x73)
	a.buf = append(a.buf, b[:]...)
	return a
}
func (a *asm) push32(b [32]byte) *asm {
	a.buf = append(a.buf, 0x7f)
	a.buf = append(a.buf, b[:]...)
	return a
}

// copyAndEmit builds a 12-byte prefix that CODECOPYs payload (embedded as
// trailing code bytes) into memory at offset 0, then executes finalOp
// (RETURN to deploy payload as runtime code, REVERT to abort with payload
// as the revert reason) over that same memory range. Used both to wrap a
// runtime's bytes into deployable init code and to build a contract whose
// entire runtime is "revert with this ABI-encoded reason".
func copyAndEmit(payload []byte, finalOp byte) []byte {
	if len(payload) > 255 {
		panic("payload too large for PUSH1 length encoding")
	}
	size := byte(len(payload))
	const codeOffset = 12

	a := &asm{}
	a.push1(size)       // length, for CODECOPY
	a.push1(codeOffset) // codeOffset, for CODECOPY
	a.push1(0x00)       // memOffset, for CODECOPY
	a.op(0x39)          // CODECOPY
	a.push1(size)        // size, for RETURN/REVERT
	a.push1(0x00)        // offset, for RETURN/REVERT
	a.op(finalOp)
	a.buf = append(a.buf, payload...)
	return a.buf
}

func wrapInitCode(runtime []byte) []byte { return copyAndEmit(runtime, 0xf3) } // RETURN

// counterRuntimeCode builds a contract that, called with empty calldata,
// increments storage slot 0 and LOG1s the new value under topic; called
// with any non-empty calldata, it bare-reverts (no ABI reason).
func counterRuntimeCode(topic [32]byte) []byte {
	a := &asm{}
	a.op(0x36) // CALLDATASIZE
	a.op(0x15) // ISZERO
	destIdx := len(a.buf) + 1
	a.push1(0x00) // placeholder jump destination, patched below
	a.op(0x57)    // JUMPI

	// Fallthrough: non-empty calldata bare-reverts.
	a.push1(0x00) // size
	a.push1(0x00) // offset
	a.op(0xfd)    // REVERT

	incrDest := byte(len(a.buf))
	a.buf[destIdx] = incrDest
	a.op(0x5b) // JUMPDEST

	a.push1(0x00) // storage key 0
	a.op(0x54)    // SLOAD
	a.push1(0x01)
	a.op(0x01)    // ADD -> new value
	a.op(0x80)    // DUP1
	a.push1(0x00) // storage key 0
	a.op(0x55)    // SSTORE
	a.push1(0x00) // memory offset 0
	a.op(0x52)    // MSTORE -> new value at memory[0:32]
	a.push32(topic)
	a.push1(0x20) // log data size = 32
	a.push1(0x00) // log data offset = 0
	a.op(0xa1)    // LOG1
	a.op(0x00)    // STOP
	return a.buf
}

// innerRevertingRuntimeCode writes storage slot 0 then reverts, so a caller
// can confirm the write never survives the revert.
func innerRevertingRuntimeCode() []byte {
	a := &asm{}
	a.push1(7)    // value
	a.push1(0x00) // key 0
	a.op(0x55)    // SSTORE
	a.push1(0x00) // size
	a.push1(0x00) // offset
	a.op(0xfd)    // REVERT
	return a.buf
}

// outerCallingRuntimeCode CALLs inner (ignoring its success flag) and then
// writes storage slot 1, so a caller can confirm the outer call succeeds and
// continues regardless of what happened inside the nested CALL.
func outerCallingRuntimeCode(inner types.Address) []byte {
	var addr20 [20]byte
	copy(addr20[:], inner.Bytes())

	a := &asm{}
	a.push1(0x00) // retLength
	a.push1(0x00) // retOffset
	a.push1(0x00) // argsLength
	a.push1(0x00) // argsOffset
	a.push1(0x00) // value
	a.push20(addr20)
	a.op(0x5a) // GAS
	a.op(0xf1) // CALL
	a.op(0x50) // POP: discard the success flag, outer proceeds either way
	a.push1(42)
	a.push1(0x01) // storage key 1
	a.op(0x55)    // SSTORE
	a.op(0x00)    // STOP
	return a.buf
}

func abiEncodeRevertString(message string) []byte {
	var out []byte
	out = append(out, 0x08, 0xc3, 0x79, 0xa0) // Error(string) selector
	out = append(out, leftPadded32(0x20)...)
	out = append(out, leftPadded32(uint64(len(message)))...)
	out = append(out, padTo32([]byte(message))...)
	return out
}

func leftPadded32(v uint64) []byte {
	var b [32]byte
	for i := 0; i < 8; i++ {
		b[31-i] = byte(v >> (8 * i))
	}
	return b[:]
}

func padTo32(data []byte) []byte {
	padLen := (32 - len(data)%32) % 32
	out := append([]byte{}, data...)
	return append(out, make([]byte, padLen)...)
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func newTestWorld(t *testing.T) *world.World {
	t.Helper()
	w, err := world.New(chainspec.InstantSeal)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return w
}

func TestApply_DeployDerivesCreateAddress(t *testing.T) {
	w := newTestWorld(t)
	e := New()
	sender := types.HexToAddress("0xaaaa")
	w.AddBalance(sender, types.NewU256(1_000_000_000_000_000_000))

	nonceBefore := w.Account(sender).Nonce
	call := DefaultCall(sender, w)
	call.Data = wrapInitCode(counterRuntimeCode([32]byte{0xee}))

	outcome, deployed, err := e.Apply(w, nil, call, 0)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !outcome.IsOk() {
		t.Fatalf("outcome = %+v, want Ok", outcome)
	}

	want := gethadapter.CreateAddress(sender, nonceBefore)
	if deployed != want {
		t.Fatalf("deployed = %s, want %s", deployed, want)
	}
	if w.Account(sender).Nonce != nonceBefore+1 {
		t.Fatalf("nonce = %d, want %d", w.Account(sender).Nonce, nonceBefore+1)
	}
	if len(w.Account(deployed).Code) == 0 {
		t.Fatal("deployed address has no code")
	}
}

func TestApply_CallIncrementsAndEmitsLog(t *testing.T) {
	w := newTestWorld(t)
	e := New()
	sender := types.HexToAddress("0xbbbb")
	w.AddBalance(sender, types.NewU256(1_000_000_000_000_000_000))

	topic := [32]byte{0xee}
	deployCall := DefaultCall(sender, w)
	deployCall.Data = wrapInitCode(counterRuntimeCode(topic))
	_, contractAddr, err := e.Apply(w, nil, deployCall, 0)
	if err != nil {
		t.Fatalf("deploy Apply: %v", err)
	}

	call := DefaultCall(sender, w)
	outcome, _, err := e.Apply(w, &contractAddr, call, 1)
	if err != nil {
		t.Fatalf("call Apply: %v", err)
	}
	if !outcome.IsOk() {
		t.Fatalf("outcome = %+v, want Ok", outcome)
	}
	if len(outcome.Logs) != 1 {
		t.Fatalf("got %d logs, want 1", len(outcome.Logs))
	}
	log := outcome.Logs[0]
	if len(log.Topics) != 1 || log.Topics[0] != types.H256(topic) {
		t.Fatalf("log topics = %v, want [%x]", log.Topics, topic)
	}
	if got := w.StorageGet(contractAddr, types.H256{}); got[31] != 1 {
		t.Fatalf("storage slot 0 = %x, want 1 in last byte", got)
	}
}

func TestApply_CallWithDataReverts(t *testing.T) {
	w := newTestWorld(t)
	e := New()
	sender := types.HexToAddress("0xcccc")
	w.AddBalance(sender, types.NewU256(1_000_000_000_000_000_000))

	deployCall := DefaultCall(sender, w)
	deployCall.Data = wrapInitCode(counterRuntimeCode([32]byte{0xee}))
	_, contractAddr, err := e.Apply(w, nil, deployCall, 0)
	if err != nil {
		t.Fatalf("deploy Apply: %v", err)
	}

	call := DefaultCall(sender, w)
	call.Data = types.Bytes{0x01}
	outcome, _, err := e.Apply(w, &contractAddr, call, 1)
	if err != nil {
		t.Fatalf("call Apply: %v", err)
	}
	if !outcome.IsReverted() {
		t.Fatalf("outcome = %+v, want Reverted", outcome)
	}
	if outcome.RevertReason != nil {
		t.Fatalf("RevertReason = %q, want nil for a bare revert", *outcome.RevertReason)
	}
}

func TestApply_RevertReasonDecodedFromABIPayload(t *testing.T) {
	w := newTestWorld(t)
	e := New()
	sender := types.HexToAddress("0xdddd")
	w.AddBalance(sender, types.NewU256(1_000_000_000_000_000_000))

	reverterRuntime := copyAndEmit(abiEncodeRevertString("boom"), 0xfd)
	deployCall := DefaultCall(sender, w)
	deployCall.Data = wrapInitCode(reverterRuntime)
	_, contractAddr, err := e.Apply(w, nil, deployCall, 0)
	if err != nil {
		t.Fatalf("deploy Apply: %v", err)
	}

	call := DefaultCall(sender, w)
	outcome, _, err := e.Apply(w, &contractAddr, call, 1)
	if err != nil {
		t.Fatalf("call Apply: %v", err)
	}
	if !outcome.IsReverted() {
		t.Fatalf("outcome = %+v, want Reverted", outcome)
	}
	if outcome.RevertReason == nil || *outcome.RevertReason != "boom" {
		t.Fatalf("RevertReason = %v, want \"boom\"", outcome.RevertReason)
	}
}

func TestApply_InvalidOpcodeClassifiesAsFailed(t *testing.T) {
	w := newTestWorld(t)
	e := New()
	sender := types.HexToAddress("0xeeee")
	w.AddBalance(sender, types.NewU256(1_000_000_000_000_000_000))

	deployCall := DefaultCall(sender, w)
	deployCall.Data = wrapInitCode([]byte{0xfe}) // INVALID
	_, contractAddr, err := e.Apply(w, nil, deployCall, 0)
	if err != nil {
		t.Fatalf("deploy Apply: %v", err)
	}

	call := DefaultCall(sender, w)
	outcome, _, err := e.Apply(w, &contractAddr, call, 1)
	if err != nil {
		t.Fatalf("call Apply: %v", err)
	}
	if !outcome.IsFailed() {
		t.Fatalf("outcome = %+v, want Failed", outcome)
	}
	if outcome.FailureKind != FailureInvalidOpcode {
		t.Fatalf("FailureKind = %v, want FailureInvalidOpcode", outcome.FailureKind)
	}
}

// TestApply_NestedCallRevertNotVisibleOutside pins the resolution that a
// reverted nested CALL's state changes never escape the outer call: inner
// writes storage then reverts, outer ignores the CALL's success flag and
// writes its own storage, and the outer call itself succeeds.
func TestApply_NestedCallRevertNotVisibleOutside(t *testing.T) {
	w := newTestWorld(t)
	e := New()
	sender := types.HexToAddress("0xffff")
	w.AddBalance(sender, types.NewU256(1_000_000_000_000_000_000))

	innerDeploy := DefaultCall(sender, w)
	innerDeploy.Data = wrapInitCode(innerRevertingRuntimeCode())
	_, innerAddr, err := e.Apply(w, nil, innerDeploy, 0)
	if err != nil {
		t.Fatalf("deploy inner: %v", err)
	}

	outerDeploy := DefaultCall(sender, w)
	outerDeploy.Data = wrapInitCode(outerCallingRuntimeCode(innerAddr))
	_, outerAddr, err := e.Apply(w, nil, outerDeploy, 1)
	if err != nil {
		t.Fatalf("deploy outer: %v", err)
	}

	call := DefaultCall(sender, w)
	outcome, _, err := e.Apply(w, &outerAddr, call, 2)
	if err != nil {
		t.Fatalf("call outer: %v", err)
	}
	if !outcome.IsOk() {
		t.Fatalf("outer outcome = %+v, want Ok (outer must survive inner's revert)", outcome)
	}

	if got := w.StorageGet(outerAddr, types.H256{31: 1}); got[31] != 42 {
		t.Fatalf("outer storage slot 1 = %x, want 42", got)
	}
	if got := w.StorageGet(innerAddr, types.H256{}); got != (types.H256{}) {
		t.Fatalf("inner storage slot 0 = %x, want zero (rolled back by revert)", got)
	}
}
