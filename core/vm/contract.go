package vm

import (
	"github.com/evmkit/evmcore/core/types"
	"github.com/evmkit/evmcore/core/u256"
)

// CallContext is the immutable frame identity the interpreter exposes to
// ADDRESS/CALLER/CALLVALUE and the static-call check. Under DELEGATECALL,
// Address and ApparentValue are inherited from the parent even though no
// transfer occurs; under CALLCODE only the code is borrowed and Address
// stays the caller's own.
type CallContext struct {
	Address       types.Address
	Caller        types.Address
	ApparentValue *u256.Word
	CallData      []byte
	IsStatic      bool
}

// Contract bundles one frame's code, its gas budget, and its JUMPDEST
// cache. It is the payload threaded through every opcode implementation.
type Contract struct {
	Context  CallContext
	Code     []byte
	CodeHash types.Hash
	Gas      uint64

	validJumps ValidJumpSet
}

// NewContract constructs a frame-local Contract, pre-computing its
// JUMPDEST analysis.
func NewContract(ctx CallContext, code []byte, codeHash types.Hash, gas uint64) *Contract {
	return &Contract{
		Context:    ctx,
		Code:       code,
		CodeHash:   codeHash,
		Gas:        gas,
		validJumps: AnalyzeJumpdests(code),
	}
}

// GetOp returns the opcode byte at position n, or STOP past the end of code
// (the EVM treats code as implicitly zero-padded with STOP).
func (c *Contract) GetOp(n uint64) OpCode {
	if n < uint64(len(c.Code)) {
		return OpCode(c.Code[n])
	}
	return STOP
}

// UseGas attempts to deduct gas from the frame's budget. Returns false
// (without mutating Gas) if the budget is insufficient.
func (c *Contract) UseGas(gas uint64) bool {
	if c.Gas < gas {
		return false
	}
	c.Gas -= gas
	return true
}

// ValidJumpdest reports whether dest is a legal JUMP/JUMPI target.
func (c *Contract) ValidJumpdest(dest uint64) bool {
	return c.validJumps.IsValid(dest)
}
