package vm

// Machine is one call frame's interpreter: a stack, memory, the frame's
// Contract (code + gas budget), and the etable it dispatches through. It
// holds no reference to the Handler between steps; Run is handed one for
// the duration of a call and yields control back to its caller either on
// termination or on a Trap that only the invoker can service.
type Machine struct {
	Stack      *Stack
	Memory     *Memory
	Contract   *Contract
	Table      *JumpTable
	PC         uint64
	ReturnData []byte // last completed sub-call's return data
}

// NewMachine constructs a Machine ready to execute contract's code.
func NewMachine(contract *Contract, table *JumpTable) *Machine {
	return &Machine{
		Stack:    NewStack(DefaultStackLimit),
		Memory:   NewMemory(),
		Contract: contract,
		Table:    table,
	}
}

// Run drives the fetch-decode-execute loop until the frame terminates or
// traps out to request a CALL/CREATE. On a trap, the caller must service
// it (by running a child frame through the invoker) and then call
// Resume/ResumeCreate followed by Run again to continue this frame.
func (m *Machine) Run(h Handler) (ExitResult, *TrapData) {
	for {
		ctrl, trap, exit := m.step(h)
		if trap != nil {
			return ExitResult{}, trap
		}
		if exit != nil {
			return *exit, nil
		}
		_ = ctrl
	}
}

// step executes exactly one opcode, advancing PC in place for every
// outcome except Exit and Trap, which it reports to Run.
func (m *Machine) step(h Handler) (ctrl Control, trap *TrapData, exit *ExitResult) {
	op := m.Contract.GetOp(m.PC)
	def := m.Table[op]
	if def == nil {
		r := Error(ErrInvalidOpcode)
		return Control{}, nil, &r
	}
	if m.Stack.Len() < def.minStack {
		r := Error(ErrStackUnderflow)
		return Control{}, nil, &r
	}
	if m.Stack.Len() > def.maxStack {
		r := Error(ErrStackOverflow)
		return Control{}, nil, &r
	}

	cost := def.constantGas
	var memWords uint64
	if def.dynamicGas != nil {
		dynCost, words, err := def.dynamicGas(m, h)
		if err != nil {
			if err == ErrGasArithmetic {
				r := Fatal(err)
				return Control{}, nil, &r
			}
			r := Error(err)
			return Control{}, nil, &r
		}
		cost += dynCost
		memWords = words
	}
	if !m.Contract.UseGas(cost) {
		r := Error(ErrOutOfGas)
		return Control{}, nil, &r
	}
	if memWords > m.Memory.words() {
		m.Memory.Resize(memWords * 32)
	}

	result := def.execute(m.PC, m, h)
	switch result.Kind {
	case CtrlContinue:
		m.PC += uint64(1 + op.PushSize())
	case CtrlContinueN:
		m.PC += result.N
	case CtrlJump:
		if !m.Contract.ValidJumpdest(result.Target) {
			r := Error(ErrInvalidJump)
			return Control{}, nil, &r
		}
		m.PC = result.Target
	case CtrlExit:
		e := result.Exit
		return Control{}, nil, &e
	case CtrlTrap:
		return Control{}, result.Trap, nil
	}
	return result, nil, nil
}

// Resume delivers a completed CALL/CALLCODE/DELEGATECALL/STATICCALL's
// outcome back into the frame that trapped for it: pushes the success
// flag, records the child's return data, and refunds unused gas.
func (m *Machine) Resume(success bool, returnData []byte, gasLeft uint64) {
	if success {
		m.Stack.Push(boolWord(true))
	} else {
		m.Stack.Push(boolWord(false))
	}
	m.ReturnData = returnData
	m.Contract.Gas += gasLeft
	m.PC++
}

// ResumeCreate delivers a completed CREATE/CREATE2's outcome: the new
// contract's address (zero on failure) is pushed instead of a boolean.
func (m *Machine) ResumeCreate(addr []byte, returnData []byte, gasLeft uint64) {
	if addr == nil {
		m.Stack.Push(boolWord(false))
	} else {
		m.Stack.Push(addressWord(addr))
	}
	m.ReturnData = returnData
	m.Contract.Gas += gasLeft
	m.PC++
}
