package vm

import (
	"github.com/evmkit/evmcore/core/types"
	"github.com/evmkit/evmcore/core/u256"
)

// ControlKind discriminates what the Machine's step loop should do after an
// opcode function runs.
type ControlKind uint8

const (
	CtrlContinue ControlKind = iota // advance PC by the opcode's natural width (1, or 1+operand for PUSHn)
	CtrlContinueN                   // advance PC by N, set in Control.N
	CtrlExit                        // frame terminated; see Control.Exit
	CtrlJump                        // jump to Control.Target, validated against ValidJumpSet
	CtrlTrap                        // suspend for the invoker to service a call/create
)

// Control is the result of executing one opcode: exactly one of
// {Continue, ContinueN(k), Exit(result), Jump(target), Trap(data)}.
type Control struct {
	Kind   ControlKind
	N      uint64
	Exit   ExitResult
	Target uint64
	Trap   *TrapData
}

func Continue() Control                { return Control{Kind: CtrlContinue} }
func ContinueN(n uint64) Control       { return Control{Kind: CtrlContinueN, N: n} }
func ExitWith(r ExitResult) Control    { return Control{Kind: CtrlExit, Exit: r} }
func JumpTo(target uint64) Control     { return Control{Kind: CtrlJump, Target: target} }
func TrapWith(data *TrapData) Control  { return Control{Kind: CtrlTrap, Trap: data} }

// CallScheme identifies the flavor of call a CallTrapData carries.
type CallScheme uint8

const (
	SchemeCall CallScheme = iota
	SchemeCallCode
	SchemeDelegateCall
	SchemeStaticCall
)

func (s CallScheme) String() string {
	switch s {
	case SchemeCall:
		return "CALL"
	case SchemeCallCode:
		return "CALLCODE"
	case SchemeDelegateCall:
		return "DELEGATECALL"
	case SchemeStaticCall:
		return "STATICCALL"
	default:
		return "UNKNOWN"
	}
}

// CreateScheme identifies CREATE vs CREATE2.
type CreateScheme uint8

const (
	SchemeCreate CreateScheme = iota
	SchemeCreate2
)

// TrapData is the tagged union of call/create traps the Machine yields to
// the invoker. Exactly one of Call/Create is non-nil.
type TrapData struct {
	Call   *CallTrapData
	Create *CreateTrapData
}

// CallTrapData carries the stack operands of CALL/CALLCODE/DELEGATECALL/
// STATICCALL, already parsed out of the stack by the opcode handler.
type CallTrapData struct {
	Scheme      CallScheme
	Gas         uint64
	Target      types.Address
	Value       *u256.Word // nil for DELEGATECALL/STATICCALL
	InOffset    uint64
	InLength    uint64
	OutOffset   uint64
	OutLength   uint64
}

// CreateTrapData carries the stack operands of CREATE/CREATE2.
type CreateTrapData struct {
	Scheme CreateScheme
	Value  *u256.Word
	Offset uint64
	Length uint64
	Salt   *u256.Word // nil for CREATE
	Gas    uint64
}
