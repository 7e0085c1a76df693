package vm

import (
	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/evmkit/evmcore/core/cryptoutil"
	"github.com/evmkit/evmcore/core/rlpenc"
	"github.com/evmkit/evmcore/core/types"
	"github.com/evmkit/evmcore/log"
)

var delegationLog = log.Module("delegation")

// delegationMagic is the 0x05 prefix EIP-7702 authorization signatures
// cover, distinguishing an authorization digest from any other signed
// message shape.
const delegationMagic = 0x05

// delegationPrefix marks an account's code as a delegation designator
// rather than ordinary bytecode: the 3 bytes 0xef0100 followed by the
// 20-byte delegate address.
var delegationPrefix = [3]byte{0xef, 0x01, 0x00}

// BuildDelegationCode returns the 23-byte designator that makes an
// account delegate execution to target.
func BuildDelegationCode(target types.Address) []byte {
	out := make([]byte, 23)
	copy(out[:3], delegationPrefix[:])
	copy(out[3:], target.Bytes())
	return out
}

// ResolveDelegation reports whether code is an EIP-7702 delegation
// designator and, if so, the delegate address it names. EXTCODESIZE,
// EXTCODEHASH, and EXTCODECOPY observe the raw 23-byte designator; only
// CALL-family execution follows it, via this function. A frame entered
// through a designator runs the delegate's code, so CODESIZE and CODECOPY
// inside it report the delegate's code, not the designator.
func ResolveDelegation(code []byte) (types.Address, bool) {
	if len(code) != 23 {
		return types.Address{}, false
	}
	if code[0] != delegationPrefix[0] || code[1] != delegationPrefix[1] || code[2] != delegationPrefix[2] {
		return types.Address{}, false
	}
	return types.BytesToAddress(code[3:]), true
}

// executableCode returns the bytes the interpreter should run for addr:
// its own code, or (if addr holds a delegation designator) its
// delegate's code.
func executableCode(h Handler, addr types.Address) []byte {
	code := h.CodeOf(addr)
	if delegate, ok := ResolveDelegation(code); ok {
		return h.CodeOf(delegate)
	}
	return code
}

// ProcessAuthorizations applies an EIP-7702 authorization list ahead of
// the root Machine's construction (its per-authorization gas is already
// part of IntrinsicGas): each tuple's signer is recovered and — if its
// nonce matches the
// signer's current nonce and the signer carries no code of its own other
// than a prior delegation — has its code replaced by a delegation
// designator (or cleared, if Target is the zero address).
func (inv *Invoker) ProcessAuthorizations(h Handler, chainID uint64, auths []types.AuthTuple) {
	for _, a := range auths {
		if a.ChainID != 0 && a.ChainID != chainID {
			continue
		}
		authority, ok := recoverAuthority(a)
		if !ok {
			delegationLog.Debug("authorization signature invalid, skipping")
			continue
		}

		h.MarkHotAddress(authority)

		preExisting := h.Exists(authority)
		existingCode := h.CodeOf(authority)
		_, alreadyDelegated := ResolveDelegation(existingCode)
		if len(existingCode) > 0 && !alreadyDelegated {
			delegationLog.Debug("authority already has non-delegated code, skipping", "authority", authority)
			continue
		}
		if h.Nonce(authority) != a.Nonce {
			delegationLog.Debug("authorization nonce mismatch, skipping", "authority", authority, "want", h.Nonce(authority), "got", a.Nonce)
			continue
		}

		// 25000 gas is charged up front as part of intrinsic cost for
		// every authorization tuple; a pre-existing authority account
		// refunds half of it, per the gas note the delegation feature
		// carries.
		if preExisting {
			h.AddRefund(GasPerAuthEmptyAccountCost)
		}

		if err := h.IncNonce(authority); err != nil {
			continue
		}
		if a.Target.IsZero() {
			h.SetCode(authority, nil)
		} else {
			h.SetCode(authority, BuildDelegationCode(a.Target))
		}
	}
}

// recoverAuthority recovers the address that signed a over the EIP-7702
// digest keccak256(0x05 || rlp([chain_id, target, nonce])).
func recoverAuthority(a types.AuthTuple) (types.Address, bool) {
	msg := rlpenc.EncodeAuthMessage(a.ChainID, a.Target.Bytes(), a.Nonce)
	digest := cryptoutil.Keccak256(append([]byte{delegationMagic}, msg...))

	sig := make([]byte, 65)
	copy(sig[:32], a.R[:])
	copy(sig[32:], a.S[:])
	sig[64] = a.YParity

	pub, err := gethcrypto.Ecrecover(digest, sig)
	if err != nil {
		return types.Address{}, false
	}
	addrHash := gethcrypto.Keccak256(pub[1:])
	return types.BytesToAddress(addrHash[12:]), true
}
