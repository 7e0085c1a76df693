package vm

// ValidJumpSet is a bit per code byte: true iff that byte is a JUMPDEST
// (0x5b) and does not fall inside the immediate operand of a preceding
// PUSHn. It is computed once per code body and consulted on every
// JUMP/JUMPI.
type ValidJumpSet []bool

// AnalyzeJumpdests performs the one-pass JUMPDEST analysis described by the
// component design: a skip counter derived from the current PUSH
// immediate length suppresses false JUMPDEST matches inside push data.
func AnalyzeJumpdests(code []byte) ValidJumpSet {
	dests := make(ValidJumpSet, len(code))
	for pc := 0; pc < len(code); {
		op := OpCode(code[pc])
		if op == JUMPDEST {
			dests[pc] = true
			pc++
			continue
		}
		if op.IsPush() {
			pc += 1 + op.PushSize()
			continue
		}
		pc++
	}
	return dests
}

// IsValid reports whether dest is a valid jump target: in bounds and a
// genuine JUMPDEST byte (not push data).
func (v ValidJumpSet) IsValid(dest uint64) bool {
	if dest >= uint64(len(v)) {
		return false
	}
	return v[dest]
}
