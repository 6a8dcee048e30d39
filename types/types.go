// Package types defines the core value types shared across parables:
// Address, U256, H256, and Bytes. These mirror the wire-level Ethereum
// primitives but carry no consensus/serialization baggage of their own —
// conversion to and from go-ethereum's equivalents lives in gethadapter.
package types

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

const (
	AddressLength = 20
	HashLength    = 32
)

// Address is the 20-byte identifier of an Ethereum account.
type Address [AddressLength]byte

// BytesToAddress left-pads or truncates b to an Address.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// HexToAddress decodes a hex string (with or without "0x") to an Address.
func HexToAddress(s string) Address {
	return BytesToAddress(fromHex(s))
}

func (a *Address) SetBytes(b []byte) {
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

func (a Address) Bytes() []byte { return a[:] }
func (a Address) Hex() string   { return fmt.Sprintf("0x%x", a[:]) }
func (a Address) String() string { return a.Hex() }
func (a Address) IsZero() bool  { return a == Address{} }

// H256 is a 32-byte hash or indexed-topic value.
type H256 [HashLength]byte

// BytesToH256 left-pads or truncates b to an H256.
func BytesToH256(b []byte) H256 {
	var h H256
	h.SetBytes(b)
	return h
}

// HexToH256 decodes a hex string (with or without "0x") to an H256.
func HexToH256(s string) H256 {
	return BytesToH256(fromHex(s))
}

func (h *H256) SetBytes(b []byte) {
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

func (h H256) Bytes() []byte   { return h[:] }
func (h H256) Hex() string     { return fmt.Sprintf("0x%x", h[:]) }
func (h H256) String() string  { return h.Hex() }
func (h H256) IsZero() bool    { return h == H256{} }

// Bytes is a variable-length byte sequence. Defined as a named type (rather
// than using []byte directly) so call descriptors and outcomes have a single
// vocabulary for "arbitrary payload" throughout the package docs.
type Bytes []byte

// Hex returns the "0x"-prefixed hex encoding of b.
func (b Bytes) Hex() string { return fmt.Sprintf("0x%x", []byte(b)) }

// U256 is an unsigned 256-bit integer bound to holiman/uint256.Int. Its
// Add, Sub and Mul wrap modulo 2^256; overflow and underflow are not
// reported. uint256.Int is the same balance/value type go-ethereum's state
// and EVM packages use natively, avoiding a conversion on every World access.
type U256 struct {
	inner uint256.Int
}

// NewU256 returns a U256 initialized to v (v must be non-negative).
func NewU256(v uint64) U256 {
	var u U256
	u.inner.SetUint64(v)
	return u
}

// U256FromBig converts a *big.Int to U256. A nil input yields zero. Values
// that do not fit in 256 bits are truncated (matching uint256.FromBig's
// overflow behavior); the overflow is not reported.
func U256FromBig(v *big.Int) U256 {
	var u U256
	if v == nil {
		return u
	}
	u.inner.SetFromBig(v)
	return u
}

// Big returns the value as a *big.Int.
func (u U256) Big() *big.Int { return u.inner.ToBig() }

// Uint256 returns the underlying *uint256.Int, for gethadapter's direct use
// with go-ethereum's state/EVM APIs.
func (u *U256) Uint256() *uint256.Int { return &u.inner }

// Add returns u+v with 256-bit wraparound semantics (spec callers are
// expected to pre-check bounds via Cmp where overflow would be meaningful,
// e.g. balance checks happen before the add, not after).
func (u U256) Add(v U256) U256 {
	var r U256
	r.inner.Add(&u.inner, &v.inner)
	return r
}

// Sub returns u-v. Callers must ensure u >= v; Sub does not clamp at zero.
func (u U256) Sub(v U256) U256 {
	var r U256
	r.inner.Sub(&u.inner, &v.inner)
	return r
}

// Mul returns u*v.
func (u U256) Mul(v U256) U256 {
	var r U256
	r.inner.Mul(&u.inner, &v.inner)
	return r
}

// Cmp compares u and v: -1, 0, or 1.
func (u U256) Cmp(v U256) int { return u.inner.Cmp(&v.inner) }

// IsZero reports whether u is zero.
func (u U256) IsZero() bool { return u.inner.IsZero() }

// Uint64 returns the low 64 bits of u (truncating).
func (u U256) Uint64() uint64 { return u.inner.Uint64() }

// String returns the decimal representation of u.
func (u U256) String() string { return u.inner.String() }

// MaxLogTopics is the maximum number of indexed topics a LogRecord may carry
// (the EVM's LOG0..LOG4 opcodes top out at 4 indexed topics).
const MaxLogTopics = 4

// LogRecord is one EVM LOG emitted during a call. CallIndex is a monotonic
// counter assigned per Evm so that records from different calls can be
// totally ordered after filtering.
type LogRecord struct {
	Address   Address
	Topics    []H256
	Data      Bytes
	CallIndex uint64
}

func fromHex(s string) []byte {
	if has0xPrefix(s) {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, _ := hex.DecodeString(s)
	return b
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
