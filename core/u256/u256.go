// Package u256 is the 256-bit unsigned integer arithmetic kernel every
// higher layer of evmcore routes its arithmetic through. It is a thin,
// EVM-semantics wrapper around github.com/holiman/uint256 — the word type
// the wider Go Ethereum ecosystem already uses for exactly this purpose —
// rather than a hand-rolled bignum implementation.
//
// All operations are purely deductive: no allocation beyond the result
// itself, no failure modes other than the value returned.
package u256

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Word is a 256-bit unsigned integer, the fundamental value type of the
// stack, memory words, and storage slots.
type Word = uint256.Int

// New returns a new zero-valued Word.
func New() *Word { return new(Word) }

// FromUint64 returns a Word holding v.
func FromUint64(v uint64) *Word { return new(Word).SetUint64(v) }

// FromBig converts a big.Int, truncating modulo 2^256.
func FromBig(b *big.Int) *Word {
	w, _ := uint256.FromBig(b)
	return w
}

// ToBig converts a Word to a big.Int.
func ToBig(w *Word) *big.Int { return w.ToBig() }

// FromBytes decodes a big-endian byte slice, left-padding as needed and
// truncating from the left if longer than 32 bytes.
func FromBytes(b []byte) *Word { return new(Word).SetBytes(b) }

// ToBytes32 encodes w as 32 big-endian bytes.
func ToBytes32(w *Word) [32]byte { return w.Bytes32() }

// FromHex decodes a 0x-prefixed hex string.
func FromHex(s string) (*Word, error) { return uint256.FromHex(s) }

// Hex encodes w as a 0x-prefixed hex string.
func Hex(w *Word) string { return w.Hex() }

// OverflowingAdd returns (a+b mod 2^256, true) if the addition overflowed.
func OverflowingAdd(a, b *Word) (*Word, bool) {
	z := new(Word)
	_, overflow := z.AddOverflow(a, b)
	return z, overflow
}

// OverflowingSub returns (a-b mod 2^256, true) if the subtraction underflowed.
func OverflowingSub(a, b *Word) (*Word, bool) {
	z := new(Word)
	_, overflow := z.SubOverflow(a, b)
	return z, overflow
}

// OverflowingMul returns (a*b mod 2^256, true) if the multiplication overflowed.
func OverflowingMul(a, b *Word) (*Word, bool) {
	z := new(Word)
	_, overflow := z.MulOverflow(a, b)
	return z, overflow
}

// Div is unsigned division; per EVM semantics, division by zero is 0.
func Div(a, b *Word) *Word { return new(Word).Div(a, b) }

// Mod is unsigned remainder; 0 if the modulus is 0.
func Mod(a, b *Word) *Word { return new(Word).Mod(a, b) }

// SDiv is signed division, interpreting a and b as two's-complement signed
// values. min_i256 / -1 == min_i256 (wraps rather than traps). Division by
// zero is 0.
func SDiv(a, b *Word) *Word { return new(Word).SDiv(a, b) }

// SMod is signed remainder; the sign of the result matches the sign of the
// dividend a. 0 if the modulus is 0.
func SMod(a, b *Word) *Word { return new(Word).SMod(a, b) }

// AddMod computes (a+b) mod n in a 512-bit intermediate; 0 if n is 0.
func AddMod(a, b, n *Word) *Word { return new(Word).AddMod(a, b, n) }

// MulMod computes (a*b) mod n in a 512-bit intermediate; 0 if n is 0.
func MulMod(a, b, n *Word) *Word { return new(Word).MulMod(a, b, n) }

// Exp computes base**pow modulo 2^256 via binary exponentiation.
func Exp(base, pow *Word) *Word { return new(Word).Exp(base, pow) }

// SignExtend sign-extends value, treating it as a (byteIndex+1)-byte signed
// integer. Identity if byteIndex >= 31.
func SignExtend(byteIndex, value *Word) *Word {
	z := new(Word).Set(value)
	return z.ExtendSign(value, byteIndex)
}

// shiftCount clamps a Word-valued shift amount: any value >= 256 is
// reported as "too large" since no EVM shift of a 256-bit word needs more.
func shiftCount(shift *Word) (n uint, tooLarge bool) {
	if shift.BitLen() > 8 {
		return 0, true
	}
	return uint(shift.Uint64()), false
}

// Shl shifts value left by shift (Word-valued); shifts >= 256 yield 0.
func Shl(shift, value *Word) *Word {
	n, tooLarge := shiftCount(shift)
	if tooLarge {
		return New()
	}
	return new(Word).Lsh(value, n)
}

// Shr is an unsigned logical right shift; shifts >= 256 yield 0.
func Shr(shift, value *Word) *Word {
	n, tooLarge := shiftCount(shift)
	if tooLarge {
		return New()
	}
	return new(Word).Rsh(value, n)
}

// Sar is an arithmetic (sign-propagating) right shift; shifts >= 256 yield
// 0 for non-negative values, all-ones for negative values.
func Sar(shift, value *Word) *Word {
	n, tooLarge := shiftCount(shift)
	if tooLarge {
		if value.Sign() < 0 {
			return new(Word).SetAllOne()
		}
		return New()
	}
	return new(Word).SRsh(value, n)
}

// ByteAt returns the byte of value at position i, where 0 is the most
// significant byte. Out-of-range i yields 0.
func ByteAt(i, value *Word) *Word {
	z := new(Word).Set(value)
	return z.Byte(i)
}

// Bits returns the number of bits needed to represent value (0 for 0).
func Bits(value *Word) uint { return uint(value.BitLen()) }

// Log2Floor returns floor(log2(value)); defined only for non-zero value.
func Log2Floor(value *Word) uint {
	if value.IsZero() {
		return 0
	}
	return uint(value.BitLen()) - 1
}

// IsZero reports whether w is zero.
func IsZero(w *Word) bool { return w.IsZero() }

// Eq reports whether a == b.
func Eq(a, b *Word) bool { return a.Eq(b) }

// Lt reports whether a < b (unsigned).
func Lt(a, b *Word) bool { return a.Lt(b) }

// Gt reports whether a > b (unsigned).
func Gt(a, b *Word) bool { return a.Gt(b) }

// Slt reports whether a < b (signed).
func Slt(a, b *Word) bool { return a.Slt(b) }

// Sgt reports whether a > b (signed).
func Sgt(a, b *Word) bool { return a.Sgt(b) }

// And, Or, Xor, Not implement bitwise ops.
func And(a, b *Word) *Word { return new(Word).And(a, b) }
func Or(a, b *Word) *Word  { return new(Word).Or(a, b) }
func Xor(a, b *Word) *Word { return new(Word).Xor(a, b) }
func Not(a *Word) *Word    { return new(Word).Not(a) }
