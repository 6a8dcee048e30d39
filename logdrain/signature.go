// Package logdrain implements the per-Evm log queue and the typed,
// draining filter/iterator interface tests consume it through. Decoding is
// deferred to Iter() so that filtering stays opaque-bytes cheap until a
// test actually inspects event fields.
package logdrain

import (
	"errors"
	"fmt"
	"strings"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	gethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/primablock/parables/types"
)

// ErrBadSignature is returned by ParseSignature for a malformed event
// signature string.
var ErrBadSignature = errors.New("logdrain: malformed event signature")

// Signature is a parsed event signature of the form "Name(type1,type2)".
// Every argument is treated as indexed — the simple property-test events
// this harness targets emit all fields as topics, never as ABI-encoded log
// data. Topic-0 derivation and per-word decoding both go through
// go-ethereum's accounts/abi package (the same package gethadapter already
// uses to decode revert reasons) rather than a hand-rolled parser.
type Signature struct {
	Raw   string
	Name  string
	event gethabi.Event
}

// ParseSignature parses an event signature string into a go-ethereum ABI
// event description whose Inputs are all marked Indexed.
func ParseSignature(sig string) (Signature, error) {
	open := strings.IndexByte(sig, '(')
	if open < 0 || !strings.HasSuffix(sig, ")") {
		return Signature{}, ErrBadSignature
	}
	name := sig[:open]
	inner := sig[open+1 : len(sig)-1]

	var args gethabi.Arguments
	if strings.TrimSpace(inner) != "" {
		for i, part := range strings.Split(inner, ",") {
			typ, err := gethabi.NewType(strings.TrimSpace(part), "", nil)
			if err != nil {
				return Signature{}, fmt.Errorf("logdrain: unsupported indexed arg type %q: %w", part, err)
			}
			switch typ.T {
			case gethabi.StringTy, gethabi.BytesTy, gethabi.SliceTy, gethabi.ArrayTy, gethabi.TupleTy:
				// Indexed dynamic/composite values are stored as a hash
				// topic and cannot be decoded back to their value.
				return Signature{}, fmt.Errorf("logdrain: unsupported indexed arg type %q", part)
			}
			args = append(args, gethabi.Argument{
				Name:    fmt.Sprintf("arg%d", i),
				Type:    typ,
				Indexed: true,
			})
		}
	}

	return Signature{
		Raw:   sig,
		Name:  name,
		event: gethabi.NewEvent(name, name, false, args),
	}, nil
}

// Topic0 returns the event's signature hash (go-ethereum's event.ID), the
// value every matching LogRecord's first topic must equal.
func (s Signature) Topic0() types.H256 {
	return types.BytesToH256(s.event.ID.Bytes())
}

// numArgs reports how many indexed topic words (beyond topic0) a matching
// record must carry.
func (s Signature) numArgs() int {
	return len(s.event.Inputs)
}

// decodeTopics unpacks topics (the record's topics with topic0 already
// stripped) against the event's Inputs via go-ethereum's
// ParseTopicsIntoMap, returning the decoded values in argument order.
func (s Signature) decodeTopics(topics []types.H256) ([]any, error) {
	if len(topics) != s.numArgs() {
		return nil, fmt.Errorf("logdrain: %s expects %d indexed args, record has %d",
			s.Name, s.numArgs(), len(topics))
	}

	ghTopics := make([]gethcommon.Hash, len(topics))
	for i, t := range topics {
		ghTopics[i] = gethcommon.BytesToHash(t.Bytes())
	}

	out := make(map[string]interface{}, len(s.event.Inputs))
	if err := gethabi.ParseTopicsIntoMap(out, s.event.Inputs, ghTopics); err != nil {
		return nil, fmt.Errorf("logdrain: decode %s: %w", s.Name, err)
	}

	values := make([]any, len(s.event.Inputs))
	for i, arg := range s.event.Inputs {
		values[i] = normalizeDecoded(out[arg.Name])
	}
	return values, nil
}

// normalizeDecoded converts the handful of go-ethereum ABI output types
// this harness's supported indexed types unpack to into parables' own wire
// types, so callers never need to import go-ethereum's common package
// themselves.
func normalizeDecoded(v interface{}) any {
	switch val := v.(type) {
	case gethcommon.Address:
		return types.BytesToAddress(val.Bytes())
	case [32]byte:
		return types.BytesToH256(val[:])
	default:
		return val
	}
}
