package precompile

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/evmkit/evmcore/core/types"
)

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

func TestDefaultRegistryCoversAddressesOneThroughNine(t *testing.T) {
	reg := DefaultRegistry()
	for i := byte(1); i <= 9; i++ {
		var addr types.Address
		addr[types.AddressLength-1] = i
		if _, ok := reg.Lookup(addr); !ok {
			t.Errorf("precompile address 0x%02x missing from DefaultRegistry", i)
		}
	}
	var zero types.Address
	if _, ok := reg.Lookup(zero); ok {
		t.Errorf("address 0x00 should not be a registered precompile")
	}
}

func TestIdentityEchoesInput(t *testing.T) {
	c := identityContract{}
	input := []byte("the quick brown fox")
	out, err := c.Run(input)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !bytes.Equal(out, input) {
		t.Errorf("IDENTITY output = %q, want %q", out, input)
	}
	if got := c.RequiredGas(input); got != gasIdentityBase+gasIdentityWord*wordCount(len(input)) {
		t.Errorf("RequiredGas = %d, want the base+per-word formula", got)
	}
}

func TestSha256KnownVector(t *testing.T) {
	c := sha256Contract{}
	out, err := c.Run(nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := mustHex("e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855")
	if !bytes.Equal(out, want) {
		t.Errorf("sha256(\"\") = %x, want %x", out, want)
	}
}

func TestRipemd160KnownVector(t *testing.T) {
	c := ripemd160Contract{}
	out, err := c.Run(nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := mustHex("9c1185a5c5e9fc54612808977ee8f548b2258d31")
	if !bytes.Equal(out[12:], want) {
		t.Errorf("ripemd160(\"\") = %x, want %x (left-padded into a 32-byte word)", out[12:], want)
	}
	if len(out) != 32 {
		t.Errorf("RIPEMD160 output len = %d, want 32 (left-padded word)", len(out))
	}
}

func TestModExpKnownVector(t *testing.T) {
	// base=2, exp=10, mod=1000 -> 2^10 mod 1000 = 24
	input := make([]byte, 0, 96+4)
	put32 := func(v uint64) {
		word := make([]byte, 32)
		word[31] = byte(v)
		input = append(input, word...)
	}
	put32(1) // baseLen
	put32(1) // expLen
	put32(2) // modLen
	input = append(input, 0x02)       // base = 2
	input = append(input, 0x0a)       // exp = 10
	input = append(input, 0x03, 0xe8) // mod = 1000

	c := modExpContract{}
	out, err := c.Run(input)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []byte{0x00, 0x18} // 24
	if !bytes.Equal(out, want) {
		t.Errorf("modexp(2,10,1000) = %x, want %x (24)", out, want)
	}

	// words=ceil(max(baseLen,modLen)/8)=1, complexity=1, adjustedExpLen(10)
	// = bitlen(10)-1 = 3, gas = 1*3/3 = 1, floored up to the 200 minimum.
	if got := c.RequiredGas(input); got != 200 {
		t.Errorf("RequiredGas(2,10,1000) = %d, want 200 (the EIP-2565 floor)", got)
	}
}

func TestModExpRequiredGasUsesAdjustedExponentLength(t *testing.T) {
	put32 := func(input []byte, v uint64) []byte {
		word := make([]byte, 32)
		word[31] = byte(v)
		return append(input, word...)
	}

	// A 32-byte modulus paired with a single exponent byte of 0 must price
	// off EIP-2565's adjusted length (0, since exp==0), not the raw 1-byte
	// expLen, and not the unadjusted EIP-198 formula (which would charge
	// for a full word of iteration instead of none).
	var input []byte
	input = put32(input, 1)  // baseLen
	input = put32(input, 1)  // expLen
	input = put32(input, 32) // modLen
	input = append(input, 0x01) // base = 1
	input = append(input, 0x00) // exp = 0
	input = append(input, make([]byte, 32)...)

	c := modExpContract{}
	// words = ceil(32/8) = 4, complexity = 16, adjustedExpLen(0) = 0,
	// iterCount = max(0,1) = 1, gas = 16*1/3 = 5, floored to 200.
	if got := c.RequiredGas(input); got != 200 {
		t.Errorf("RequiredGas with a zero exponent = %d, want 200", got)
	}
}

func TestModExpByZeroModulusIsZero(t *testing.T) {
	input := make([]byte, 96+3)
	input[31] = 1 // baseLen
	input[63] = 1 // expLen
	input[95] = 1 // modLen
	input[96] = 5 // base = 5
	input[97] = 3 // exp = 3
	input[98] = 0 // mod = 0

	c := modExpContract{}
	out, err := c.Run(input)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 1 || out[0] != 0 {
		t.Errorf("modexp with modulus 0 = %x, want a single zero byte", out)
	}
}

func TestUnimplementedContractReportsGasButRefusesToRun(t *testing.T) {
	c := unimplementedContract{name: "bn256Pairing", gas: 45000}
	if got := c.RequiredGas(nil); got != 45000 {
		t.Errorf("RequiredGas = %d, want 45000", got)
	}
	if _, err := c.Run(nil); err != ErrNotImplemented {
		t.Errorf("Run error = %v, want ErrNotImplemented", err)
	}
}
