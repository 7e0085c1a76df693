// Package cryptoutil provides the hash primitive the interpreter and
// invoker need: Keccak-256, as used by SHA3 and by CREATE/CREATE2 address
// derivation.
package cryptoutil

import (
	"github.com/evmkit/evmcore/core/types"
	"golang.org/x/crypto/sha3"
)

// Keccak256 returns the Keccak-256 digest of the concatenation of data.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Hash is Keccak256 wrapped as a types.Hash.
func Keccak256Hash(data ...[]byte) types.Hash {
	return types.BytesToHash(Keccak256(data...))
}
