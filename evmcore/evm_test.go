package evmcore

import (
	"testing"

	"github.com/primablock/parables/chainspec"
	"github.com/primablock/parables/types"
)

func TestTransferAndGasAccounting(t *testing.T) {
	evm, err := NewSeed(chainspec.Null)
	if err != nil {
		t.Fatalf("NewSeed: %v", err)
	}

	a := types.HexToAddress("0xaaaa")
	b := types.HexToAddress("0xbbbb")
	evm.AddBalance(a, types.U256FromBig(weiEther(100)))

	call := evm.DefaultCall(a)
	call.Gas = types.NewU256(21000)
	call.GasPrice = types.NewU256(10)
	call.Value = types.U256FromBig(weiEther(10))

	_, outcome, err := evm.CallDefault(b, call)
	if err != nil {
		t.Fatalf("CallDefault: %v", err)
	}
	if !outcome.IsOk() {
		t.Fatalf("outcome = %+v, want Ok", outcome)
	}

	wantA := weiEther(90)
	wantA.Sub(wantA, bigMul(21000, 10))
	if got := evm.Balance(a).Big(); got.Cmp(wantA) != 0 {
		t.Fatalf("balance(A) = %s, want %s", got, wantA)
	}
	if got := evm.Balance(b).Big(); got.Cmp(weiEther(10)) != 0 {
		t.Fatalf("balance(B) = %s, want 10 ether", got)
	}
	if got := evm.Nonce(a); got != 1 {
		t.Fatalf("nonce(A) = %d, want 1", got)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	seed, err := NewSeed(chainspec.InstantSeal)
	if err != nil {
		t.Fatalf("NewSeed: %v", err)
	}
	target := types.HexToAddress("0xcccc")
	seed.AddBalance(target, types.NewU256(500))

	snap := NewSnapshot(seed)
	e1 := snap.Get()
	e2 := snap.Get()

	e1.AddBalance(target, types.NewU256(1000))

	if got := e2.Balance(target); got.Cmp(types.NewU256(500)) != 0 {
		t.Fatalf("e2 balance = %s, want 500 (unaffected by e1)", got)
	}
	if got := e1.Balance(target); got.Cmp(types.NewU256(1500)) != 0 {
		t.Fatalf("e1 balance = %s, want 1500", got)
	}
}
