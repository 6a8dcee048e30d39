package world

import (
	"testing"

	"github.com/primablock/parables/chainspec"
	"github.com/primablock/parables/types"
)

func TestNewWorldEmptyAccount(t *testing.T) {
	w, err := New(chainspec.InstantSeal)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	addr := types.HexToAddress("0x1111111111111111111111111111111111111111")
	acct := w.Account(addr)
	if !acct.IsEmpty() {
		t.Errorf("fresh account should be empty, got %+v", acct)
	}
}

func TestAddSubBalance(t *testing.T) {
	w, _ := New(chainspec.InstantSeal)
	addr := types.HexToAddress("0x2222222222222222222222222222222222222222")

	w.AddBalance(addr, types.NewU256(100))
	if got := w.Account(addr).Balance; got.Cmp(types.NewU256(100)) != 0 {
		t.Fatalf("balance = %s, want 100", got)
	}

	if err := w.SubBalance(addr, types.NewU256(40)); err != nil {
		t.Fatalf("SubBalance: %v", err)
	}
	if got := w.Account(addr).Balance; got.Cmp(types.NewU256(60)) != 0 {
		t.Fatalf("balance = %s, want 60", got)
	}

	if err := w.SubBalance(addr, types.NewU256(1000)); err != ErrInsufficientBalance {
		t.Fatalf("SubBalance over-draw: got %v, want ErrInsufficientBalance", err)
	}
}

func TestNonceIncrement(t *testing.T) {
	w, _ := New(chainspec.InstantSeal)
	addr := types.HexToAddress("0x3333333333333333333333333333333333333333")

	first := w.IncrementNonce(addr)
	second := w.IncrementNonce(addr)
	if first != 0 || second != 1 {
		t.Fatalf("nonces = %d, %d, want 0, 1", first, second)
	}
	if got := w.Account(addr).Nonce; got != 2 {
		t.Fatalf("nonce = %d, want 2", got)
	}
}

func TestStorageRoundTrip(t *testing.T) {
	w, _ := New(chainspec.Null)
	addr := types.HexToAddress("0x4444444444444444444444444444444444444444")
	key := types.HexToH256("0x01")
	val := types.HexToH256("0x2a")

	if got := w.StorageGet(addr, key); !got.IsZero() {
		t.Fatalf("fresh slot = %x, want zero", got)
	}
	w.StorageSet(addr, key, val)
	if got := w.StorageGet(addr, key); got != val {
		t.Fatalf("slot = %x, want %x", got, val)
	}
}

func TestCloneIsolation(t *testing.T) {
	w, _ := New(chainspec.InstantSeal)
	addr := types.HexToAddress("0x5555555555555555555555555555555555555555")
	w.AddBalance(addr, types.NewU256(10))

	clone := w.Clone()
	clone.AddBalance(addr, types.NewU256(90))

	if got := w.Account(addr).Balance; got.Cmp(types.NewU256(10)) != 0 {
		t.Fatalf("original mutated by clone: balance = %s, want 10", got)
	}
	if got := clone.Account(addr).Balance; got.Cmp(types.NewU256(100)) != 0 {
		t.Fatalf("clone balance = %s, want 100", got)
	}
}

func TestAdvanceBlock(t *testing.T) {
	w, _ := New(chainspec.Null)
	w.AdvanceBlock(5, 60)
	ctx := w.Context()
	if ctx.BlockNumber != 5 || ctx.BlockTimestamp != 60 {
		t.Fatalf("context = %+v, want number=5 timestamp=60", ctx)
	}
}
