package logdrain

import (
	"math/big"
	"testing"

	"github.com/primablock/parables/types"
)

func TestParseSignatureTopic0MatchesEventID(t *testing.T) {
	sig, err := ParseSignature("ValueUpdated(uint256)")
	if err != nil {
		t.Fatalf("ParseSignature: %v", err)
	}
	if sig.Topic0().IsZero() {
		t.Fatal("Topic0() should not be zero for a non-empty signature")
	}

	other, err := ParseSignature("ValueUpdated(uint256)")
	if err != nil {
		t.Fatalf("ParseSignature: %v", err)
	}
	if sig.Topic0() != other.Topic0() {
		t.Fatal("Topic0() should be deterministic for identical signatures")
	}

	diff, err := ParseSignature("ValueUpdated(address)")
	if err != nil {
		t.Fatalf("ParseSignature: %v", err)
	}
	if sig.Topic0() == diff.Topic0() {
		t.Fatal("Topic0() should differ when the argument type changes")
	}
}

func TestParseSignatureRejectsMalformed(t *testing.T) {
	cases := []string{"NoParens", "Missing(uint256", "Bad)uint256("}
	for _, c := range cases {
		if _, err := ParseSignature(c); err == nil {
			t.Errorf("ParseSignature(%q): expected error, got nil", c)
		}
	}
}

func TestParseSignatureRejectsUnsupportedType(t *testing.T) {
	if _, err := ParseSignature("Foo(string)"); err == nil {
		t.Fatal("expected error for a dynamic type with no valid topic representation")
	}
}

func TestDecodeTopicsMultipleArgTypes(t *testing.T) {
	sig, err := ParseSignature("Transfer(address,uint256,bool,bytes32)")
	if err != nil {
		t.Fatalf("ParseSignature: %v", err)
	}

	addr := types.HexToAddress("0x00000000000000000000000000000000000abc")
	var addrTopic types.H256
	copy(addrTopic[12:], addr.Bytes())

	amountTopic := uintTopic(42)

	var boolTopic types.H256
	boolTopic[31] = 1

	var bytesTopic types.H256
	copy(bytesTopic[:], []byte("0123456789abcdef0123456789abcdef"))

	values, err := sig.decodeTopics([]types.H256{addrTopic, amountTopic, boolTopic, bytesTopic})
	if err != nil {
		t.Fatalf("decodeTopics: %v", err)
	}
	if len(values) != 4 {
		t.Fatalf("got %d values, want 4", len(values))
	}

	gotAddr, ok := values[0].(types.Address)
	if !ok || gotAddr != addr {
		t.Errorf("arg0 = %v, want %v", values[0], addr)
	}

	gotAmount, ok := values[1].(*big.Int)
	if !ok || gotAmount.Int64() != 42 {
		t.Errorf("arg1 = %v, want 42", values[1])
	}

	gotBool, ok := values[2].(bool)
	if !ok || !gotBool {
		t.Errorf("arg2 = %v, want true", values[2])
	}

	gotBytes, ok := values[3].(types.H256)
	if !ok || gotBytes != bytesTopic {
		t.Errorf("arg3 = %v, want %v", values[3], bytesTopic)
	}
}

func TestDecodeTopicsArgCountMismatch(t *testing.T) {
	sig, err := ParseSignature("ValueUpdated(uint256)")
	if err != nil {
		t.Fatalf("ParseSignature: %v", err)
	}
	if _, err := sig.decodeTopics(nil); err == nil {
		t.Fatal("expected error when topic count does not match argument count")
	}
}
