// Package precompile is the invoker's glue to the built-in contracts at
// addresses 0x01-0x09: a registry mapping an address to a native function
// with its own gas formula, short-circuiting the interpreter entirely when
// a CALL-family trap targets one. Precompile internals are themselves
// treated as a black-box cost/output contract — this package wires the
// registry, IDENTITY, SHA256, RIPEMD160 and ECRECOVER using the crypto
// libraries the rest of the stack already depends on, and MODEXP on
// math/big, and leaves the curve/hash ones (the BN256 family, BLAKE2F) as
// explicitly unimplemented placeholders.
package precompile

import (
	"crypto/sha256"
	"errors"
	"math/big"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // ripemd160 is required by the ETH precompile spec, not a choice of algorithm

	"github.com/evmkit/evmcore/core/types"
)

// ErrNotImplemented marks a registered address whose gas formula this
// package models but whose native body it does not execute.
var ErrNotImplemented = errors.New("precompile: not implemented")

// Contract is a native built-in: a pure function of its input with its own
// gas-charging rule, run as a single interpreter step rather than as EVM
// bytecode.
type Contract interface {
	RequiredGas(input []byte) uint64
	Run(input []byte) ([]byte, error)
}

// Registry maps a precompile's address to its implementation.
type Registry map[types.Address]Contract

// Lookup returns the Contract at addr, or (nil, false) if addr is not a
// registered precompile.
func (r Registry) Lookup(addr types.Address) (Contract, bool) {
	c, ok := r[addr]
	return c, ok
}

func precompileAddress(n byte) types.Address {
	var a types.Address
	a[types.AddressLength-1] = n
	return a
}

// DefaultRegistry returns the addresses 0x01-0x09 defined up to Cancun.
func DefaultRegistry() Registry {
	return Registry{
		precompileAddress(0x01): ecrecoverContract{},
		precompileAddress(0x02): sha256Contract{},
		precompileAddress(0x03): ripemd160Contract{},
		precompileAddress(0x04): identityContract{},
		precompileAddress(0x05): modExpContract{},
		precompileAddress(0x06): unimplementedContract{name: "bn256Add", gas: 150},
		precompileAddress(0x07): unimplementedContract{name: "bn256ScalarMul", gas: 6000},
		precompileAddress(0x08): unimplementedContract{name: "bn256Pairing", gas: 45000},
		precompileAddress(0x09): unimplementedContract{name: "blake2f", gas: 0},
	}
}

const (
	gasEcrecover   = 3000
	gasSha256Base  = 60
	gasSha256Word  = 12
	gasRipemd160Base = 600
	gasRipemd160Word = 120
	gasIdentityBase  = 15
	gasIdentityWord  = 3
)

func wordCount(n int) uint64 { return uint64((n + 31) / 32) }

// ecrecoverContract recovers the signing address from a (hash, v, r, s)
// tuple, the standard 128-byte ECRECOVER input layout, left-padding the
// 20-byte result into a 32-byte word.
type ecrecoverContract struct{}

func (ecrecoverContract) RequiredGas([]byte) uint64 { return gasEcrecover }

func (ecrecoverContract) Run(input []byte) ([]byte, error) {
	padded := make([]byte, 128)
	copy(padded, input)

	hash := padded[:32]
	v := padded[63]
	sig := make([]byte, 65)
	copy(sig[:32], padded[64:96])
	copy(sig[32:64], padded[96:128])
	if v != 27 && v != 28 {
		return nil, nil
	}
	sig[64] = v - 27

	pub, err := gethcrypto.Ecrecover(hash, sig)
	if err != nil {
		return nil, nil
	}
	addrHash := gethcrypto.Keccak256(pub[1:])
	out := make([]byte, 32)
	copy(out[12:], addrHash[12:])
	return out, nil
}

type sha256Contract struct{}

func (sha256Contract) RequiredGas(input []byte) uint64 {
	return gasSha256Base + gasSha256Word*wordCount(len(input))
}

func (sha256Contract) Run(input []byte) ([]byte, error) {
	h := sha256.Sum256(input)
	return h[:], nil
}

type ripemd160Contract struct{}

func (ripemd160Contract) RequiredGas(input []byte) uint64 {
	return gasRipemd160Base + gasRipemd160Word*wordCount(len(input))
}

func (ripemd160Contract) Run(input []byte) ([]byte, error) {
	d := ripemd160.New()
	d.Write(input)
	sum := d.Sum(nil)
	out := make([]byte, 32)
	copy(out[12:], sum)
	return out, nil
}

type identityContract struct{}

func (identityContract) RequiredGas(input []byte) uint64 {
	return gasIdentityBase + gasIdentityWord*wordCount(len(input))
}

func (identityContract) Run(input []byte) ([]byte, error) {
	out := make([]byte, len(input))
	copy(out, input)
	return out, nil
}

// modExpContract computes base^exp mod modulus per EIP-198, using
// math/big directly: no ecosystem library improves on the standard
// library's own arbitrary-precision modular exponentiation.
type modExpContract struct{}

func modExpLengths(input []byte) (baseLen, expLen, modLen uint64) {
	get := func(i int) uint64 {
		if i+32 > len(input) {
			return 0
		}
		return new(big.Int).SetBytes(input[i : i+32]).Uint64()
	}
	return get(0), get(32), get(64)
}

func (modExpContract) RequiredGas(input []byte) uint64 {
	baseLen, expLen, modLen := modExpLengths(input)
	padded := rightPad(input, 96)
	adjExpLen := adjustedExpLen(expLen, baseLen, padded[96:])

	maxLen := baseLen
	if modLen > maxLen {
		maxLen = modLen
	}
	words := (maxLen + 7) / 8
	complexity := words * words
	iterCount := adjExpLen
	if iterCount < 1 {
		iterCount = 1
	}
	gas := complexity * iterCount / 3
	if gas < 200 {
		gas = 200
	}
	return gas
}

// adjustedExpLen is EIP-2565's refinement of EIP-198's gas formula: rather
// than pricing by the exponent's raw byte length, it prices by roughly the
// bit length of its leading 32 bytes (log2(exp), give or take the
// expLen>32 scaling term), so a long exponent with a small numeric value no
// longer costs as much as one actually that large.
func adjustedExpLen(expLen, baseLen uint64, data []byte) uint64 {
	if expLen <= 32 {
		exp := new(big.Int).SetBytes(rightPadSlice(data, baseLen, expLen))
		if exp.Sign() == 0 {
			return 0
		}
		return uint64(exp.BitLen() - 1)
	}
	firstWord := new(big.Int).SetBytes(rightPadSlice(data, baseLen, 32))
	adj := uint64(0)
	if firstWord.Sign() > 0 {
		adj = uint64(firstWord.BitLen() - 1)
	}
	return adj + 8*(expLen-32)
}

func (modExpContract) Run(input []byte) ([]byte, error) {
	baseLen, expLen, modLen := modExpLengths(input)
	input = rightPad(input, 96)
	data := input[96:]
	base := new(big.Int).SetBytes(rightPadSlice(data, 0, baseLen))
	exp := new(big.Int).SetBytes(rightPadSlice(data, baseLen, expLen))
	mod := new(big.Int).SetBytes(rightPadSlice(data, baseLen+expLen, modLen))

	out := make([]byte, modLen)
	if mod.Sign() == 0 {
		return out, nil
	}
	result := new(big.Int).Exp(base, exp, mod)
	result.FillBytes(out)
	return out, nil
}

func rightPad(b []byte, n int) []byte {
	if len(b) >= n {
		return b
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

func rightPadSlice(b []byte, offset, length uint64) []byte {
	out := make([]byte, length)
	if offset >= uint64(len(b)) {
		return out
	}
	end := offset + length
	if end > uint64(len(b)) {
		end = uint64(len(b))
	}
	copy(out, b[offset:end])
	return out
}

// unimplementedContract charges a fixed gas amount without running its
// body. DefaultRegistry registers these addresses, so a CALL to one of
// them reaches Run and fails with ErrNotImplemented.
type unimplementedContract struct {
	name string
	gas  uint64
}

func (u unimplementedContract) RequiredGas([]byte) uint64 { return u.gas }
func (u unimplementedContract) Run([]byte) ([]byte, error) { return nil, ErrNotImplemented }
