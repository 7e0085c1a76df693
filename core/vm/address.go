package vm

import (
	"github.com/evmkit/evmcore/core/cryptoutil"
	"github.com/evmkit/evmcore/core/rlpenc"
	"github.com/evmkit/evmcore/core/types"
	"github.com/evmkit/evmcore/core/u256"
)

// CreateAddress derives a CREATE target: keccak256(rlp([sender, nonce]))[12:].
func CreateAddress(sender types.Address, nonce uint64) types.Address {
	enc := rlpenc.EncodeAddressNonce(sender.Bytes(), nonce)
	return types.BytesToAddress(cryptoutil.Keccak256(enc)[12:])
}

// Create2Address derives a CREATE2 target:
// keccak256(0xff ++ sender ++ salt ++ keccak256(initCode))[12:].
func Create2Address(sender types.Address, salt *u256.Word, initCode []byte) types.Address {
	saltBytes := u256.ToBytes32(salt)
	initHash := cryptoutil.Keccak256(initCode)
	digest := cryptoutil.Keccak256([]byte{0xff}, sender.Bytes(), saltBytes[:], initHash)
	return types.BytesToAddress(digest[12:])
}
