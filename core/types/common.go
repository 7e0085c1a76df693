// Package types defines the core data entities shared by every layer of
// evmcore: fixed-size Address/Hash identifiers and the Log record emitted
// by LOGn.
package types

import (
	"encoding/hex"
	"fmt"
)

const (
	HashLength    = 32
	AddressLength = 20
)

// Hash is the 32-byte big-endian hash of data.
type Hash [HashLength]byte

// Address is the 20-byte identifier of an account.
type Address [AddressLength]byte

// BytesToHash converts b to a Hash, left-padding if shorter than 32 bytes
// and truncating from the left if longer.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// HexToHash converts a 0x-prefixed (or bare) hex string to a Hash.
func HexToHash(s string) Hash { return BytesToHash(fromHex(s)) }

func (h Hash) Bytes() []byte   { return h[:] }
func (h Hash) Hex() string     { return fmt.Sprintf("0x%x", h[:]) }
func (h Hash) String() string  { return h.Hex() }
func (h Hash) IsZero() bool    { return h == Hash{} }

// SetBytes sets the hash from b, left-padding if necessary.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

// BytesToAddress converts b to an Address, left-padding if shorter than 20
// bytes. This is how the interpreter derives an Address from the low 20
// bytes of a stack Word.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// HexToAddress converts a 0x-prefixed (or bare) hex string to an Address.
func HexToAddress(s string) Address { return BytesToAddress(fromHex(s)) }

func (a Address) Bytes() []byte  { return a[:] }
func (a Address) Hex() string    { return fmt.Sprintf("0x%x", a[:]) }
func (a Address) String() string { return a.Hex() }
func (a Address) IsZero() bool   { return a == Address{} }

func (a *Address) SetBytes(b []byte) {
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

// Log is a single event emitted by a LOGn opcode.
type Log struct {
	Address Address
	Topics  []Hash
	Data    []byte
}

// AccessTuple is one entry of an EIP-2930 access list.
type AccessTuple struct {
	Address     Address
	StorageKeys []Hash
}

// AccessList is the full EIP-2930 access list attached to a transaction.
type AccessList []AccessTuple

// AuthTuple is one entry of an EIP-7702 authorization list as carried on
// the wire: ChainID/Target/Nonce are what the authority actually signs;
// the authority's own address is recovered from (YParity, R, S), not
// carried directly.
type AuthTuple struct {
	ChainID uint64
	Target  Address // account the authority delegates execution to
	Nonce   uint64
	YParity byte
	R, S    [32]byte
}

func fromHex(s string) []byte {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}
