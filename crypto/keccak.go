// Package crypto provides the hashing primitive parables needs: Keccak256,
// the only hash function the EVM itself relies on (opcode SHA3, CREATE
// address derivation, log topic hashing).
package crypto

import (
	"golang.org/x/crypto/sha3"

	"github.com/primablock/parables/types"
)

// Keccak256 calculates the Keccak-256 hash of the concatenation of data.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Hash calculates Keccak-256 and returns it as a types.H256.
func Keccak256Hash(data ...[]byte) types.H256 {
	return types.BytesToH256(Keccak256(data...))
}
