package rlpenc

import (
	"bytes"
	"testing"
)

func TestEncodeAddressNonceZeroNonce(t *testing.T) {
	addr := bytes.Repeat([]byte{0x11}, 20)
	got := EncodeAddressNonce(addr, 0)
	// list header (0xc0 + payload len) + address string header (0x80+20) +
	// 20 address bytes + a single 0x80 byte for the zero-value nonce.
	wantLen := 1 + 1 + 20 + 1
	if len(got) != wantLen {
		t.Fatalf("len = %d, want %d", len(got), wantLen)
	}
	if got[0] != 0xc0+byte(wantLen-1) {
		t.Errorf("list header = %#x, want %#x", got[0], 0xc0+byte(wantLen-1))
	}
	if got[1] != 0x80+20 {
		t.Errorf("address string header = %#x, want %#x", got[1], 0x80+20)
	}
	if !bytes.Equal(got[2:22], addr) {
		t.Errorf("address bytes mismatch")
	}
	if got[22] != 0x80 {
		t.Errorf("zero nonce should encode as the single byte 0x80, got %#x", got[22])
	}
}

func TestEncodeAddressNonceSmallNonZeroNonce(t *testing.T) {
	addr := bytes.Repeat([]byte{0xaa}, 20)
	got := EncodeAddressNonce(addr, 5)
	if got[len(got)-1] != 5 {
		t.Errorf("a nonce < 128 encodes as its own raw byte: last byte = %#x, want 0x05", got[len(got)-1])
	}
}

func TestEncodeAddressNonceLargeNonce(t *testing.T) {
	addr := bytes.Repeat([]byte{0xaa}, 20)
	got := EncodeAddressNonce(addr, 0x0102)
	tail := got[len(got)-3:]
	want := []byte{0x82, 0x01, 0x02} // string header for 2 bytes, then big-endian 0x0102
	if !bytes.Equal(tail, want) {
		t.Errorf("large nonce tail = %x, want %x", tail, want)
	}
}

func TestEncodeAuthMessageRoundTripsLengths(t *testing.T) {
	addr := bytes.Repeat([]byte{0x01}, 20)
	got := EncodeAuthMessage(1, addr, 0)
	if got[0] != 0xc0+byte(len(got)-1) {
		t.Fatalf("EncodeAuthMessage must start with a short RLP list header for its %d-byte payload, got %#x", len(got)-1, got[0])
	}
	// chain_id=1 (single byte, no header), then the 20-byte address string,
	// then nonce=0 (the single byte 0x80).
	if !bytes.Contains(got, addr) {
		t.Errorf("encoded message should contain the raw address bytes")
	}
}

func TestPutUintBigEndianTrimsLeadingZeros(t *testing.T) {
	if got := putUintBigEndian(0x01); !bytes.Equal(got, []byte{0x01}) {
		t.Errorf("putUintBigEndian(1) = %x, want 01", got)
	}
	if got := putUintBigEndian(0x0100); !bytes.Equal(got, []byte{0x01, 0x00}) {
		t.Errorf("putUintBigEndian(256) = %x, want 0100", got)
	}
}
