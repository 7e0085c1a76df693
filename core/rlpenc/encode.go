// Package rlpenc is a minimal RLP encoder scoped to two fixed-shape
// preimages: CREATE's [sender, nonce] list and the EIP-7702 authorization
// message [chain_id, address, nonce]. It does not attempt to
// be a general-purpose codec — transaction and trie RLP are out of scope
// for the core (see the package-level spec).
package rlpenc

// EncodeAddressNonce returns the RLP encoding of the two-element list
// [address, nonce], as required by CREATE's address formula
// keccak256(rlp([sender, nonce]))[12:].
func EncodeAddressNonce(addr []byte, nonce uint64) []byte {
	payload := append(encodeString(addr), encodeUint(nonce)...)
	return wrapList(payload)
}

func encodeUint(u uint64) []byte {
	if u == 0 {
		return []byte{0x80}
	}
	if u < 128 {
		return []byte{byte(u)}
	}
	return encodeString(putUintBigEndian(u))
}

func encodeString(data []byte) []byte {
	n := len(data)
	if n == 1 && data[0] <= 0x7f {
		return data
	}
	if n <= 55 {
		buf := make([]byte, 1+n)
		buf[0] = 0x80 + byte(n)
		copy(buf[1:], data)
		return buf
	}
	lenBytes := putUintBigEndian(uint64(n))
	buf := make([]byte, 1+len(lenBytes)+n)
	buf[0] = 0xb7 + byte(len(lenBytes))
	copy(buf[1:], lenBytes)
	copy(buf[1+len(lenBytes):], data)
	return buf
}

func wrapList(payload []byte) []byte {
	n := len(payload)
	if n <= 55 {
		buf := make([]byte, 1+n)
		buf[0] = 0xc0 + byte(n)
		copy(buf[1:], payload)
		return buf
	}
	lenBytes := putUintBigEndian(uint64(n))
	buf := make([]byte, 1+len(lenBytes)+n)
	buf[0] = 0xf7 + byte(len(lenBytes))
	copy(buf[1:], lenBytes)
	copy(buf[1+len(lenBytes):], payload)
	return buf
}

// EncodeAuthMessage returns the RLP encoding of [chain_id, address, nonce],
// the payload EIP-7702 signs (after prefixing with the 0x05 MAGIC byte and
// hashing).
func EncodeAuthMessage(chainID uint64, addr []byte, nonce uint64) []byte {
	payload := append(encodeUint(chainID), encodeString(addr)...)
	payload = append(payload, encodeUint(nonce)...)
	return wrapList(payload)
}

// putUintBigEndian encodes u as big-endian bytes with no leading zeros.
func putUintBigEndian(u uint64) []byte {
	switch {
	case u < (1 << 8):
		return []byte{byte(u)}
	case u < (1 << 16):
		return []byte{byte(u >> 8), byte(u)}
	case u < (1 << 24):
		return []byte{byte(u >> 16), byte(u >> 8), byte(u)}
	case u < (1 << 32):
		return []byte{byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u)}
	case u < (1 << 40):
		return []byte{byte(u >> 32), byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u)}
	case u < (1 << 48):
		return []byte{byte(u >> 40), byte(u >> 32), byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u)}
	case u < (1 << 56):
		return []byte{byte(u >> 48), byte(u >> 40), byte(u >> 32), byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u)}
	default:
		return []byte{byte(u >> 56), byte(u >> 48), byte(u >> 40), byte(u >> 32), byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u)}
	}
}
