package vm

import (
	"github.com/evmkit/evmcore/core/precompile"
	"github.com/evmkit/evmcore/core/types"
	"github.com/evmkit/evmcore/core/u256"
	"github.com/evmkit/evmcore/log"
)

// Invoker drives a transaction's outermost frame and, synchronously,
// every CALL/CALLCODE/DELEGATECALL/STATICCALL/CREATE/CREATE2 trap it
// raises: each trap suspends the trapping Machine, the Invoker builds and
// runs a fresh child frame against the same Handler, and the child's
// outcome is resumed back into the parent. There is no separate scheduler
// or goroutine per frame — recursion depth in this function IS the call
// stack.
type Invoker struct {
	Table       *JumpTable
	Config      Config
	Precompiles precompile.Registry
	log         *log.Logger
}

// NewInvoker builds an Invoker bound to cfg's etable and the standard
// precompile registry.
func NewInvoker(cfg Config) *Invoker {
	table := NewJumpTable(cfg)
	return &Invoker{Table: &table, Config: cfg, Precompiles: precompile.DefaultRegistry(), log: log.Module("invoker")}
}

// TransactCall runs a top-level message call, the entry point for an
// ordinary (non-contract-creation) transaction: it debits the gas fee,
// checks intrinsic gas, increments the caller's nonce, warms the
// precompile/caller/target/access-list entries, transfers value, runs
// the root frame to completion, and settles the gas fee between the
// caller and the block's coinbase.
func (inv *Invoker) TransactCall(h Handler, msg CallMessage) TxResult {
	gasPrice := valueOrZero(msg.GasPrice)
	gasFee, _ := u256.OverflowingMul(u256.FromUint64(msg.GasLimit), gasPrice)
	if err := h.SubBalance(msg.Caller, gasFee); err != nil {
		return TxResult{Exit: Error(err)}
	}

	intrinsic := IntrinsicGas(false, msg.Data, msg.AccessList, len(msg.AuthList), inv.Config)
	if msg.GasLimit < intrinsic {
		inv.log.Debug("intrinsic gas exceeds limit", "caller", msg.Caller, "limit", msg.GasLimit, "intrinsic", intrinsic)
		h.AddBalance(msg.Caller, gasFee)
		return TxResult{Exit: Error(ErrOutOfGas)}
	}
	if err := h.IncNonce(msg.Caller); err != nil {
		h.AddBalance(msg.Caller, gasFee)
		return TxResult{Exit: Error(err)}
	}

	inv.warmEntryPoints(h, msg.Caller, msg.To, msg.AccessList)

	h.PushSubstate()

	if inv.Config.HasEIP7702 && len(msg.AuthList) > 0 {
		var chainID uint64
		if id := h.Tx().ChainID; id != nil {
			chainID = id.Uint64()
		}
		inv.ProcessAuthorizations(h, chainID, msg.AuthList)
	}

	value := valueOrZero(msg.Value)
	if err := h.Transfer(msg.Caller, msg.To, value); err != nil {
		h.PopSubstate(Discard)
		h.AddBalance(msg.Caller, gasFee)
		return TxResult{Exit: Error(err)}
	}

	ctx := CallContext{Address: msg.To, Caller: msg.Caller, ApparentValue: value, CallData: msg.Data}
	code := executableCode(h, msg.To)
	contract := NewContract(ctx, code, h.CodeHash(msg.To), msg.GasLimit-intrinsic)
	exit := inv.runFrame(h, contract, 0)

	switch {
	case exit.Kind.Succeeded():
		h.PopSubstate(Commit)
	case exit.Kind == ExitRevert:
		h.PopSubstate(RevertStrategy)
	default:
		h.PopSubstate(Discard)
		contract.Gas = 0
	}

	gasUsed := msg.GasLimit - contract.Gas
	usedGas, refundedGas := inv.settleGas(h, msg.Caller, msg.GasLimit, gasUsed, gasPrice)
	inv.log.Debug("call transaction finished", "to", msg.To, "exit", exit.Kind, "usedGas", usedGas)
	return TxResult{Exit: exit, UsedGas: usedGas, RefundedGas: refundedGas}
}

// TransactCreate runs a top-level contract-creation transaction, the
// entry point for CREATE/CREATE2 at the transaction level (Salt non-nil
// selects CREATE2's address formula), returning the deployed address on
// success alongside the same gas settlement TransactCall performs.
func (inv *Invoker) TransactCreate(h Handler, msg CreateMessage) TxResult {
	gasPrice := valueOrZero(msg.GasPrice)
	gasFee, _ := u256.OverflowingMul(u256.FromUint64(msg.GasLimit), gasPrice)
	if err := h.SubBalance(msg.Caller, gasFee); err != nil {
		return TxResult{Exit: Error(err)}
	}
	if inv.Config.MaxInitcodeSize > 0 && len(msg.InitCode) > inv.Config.MaxInitcodeSize {
		h.AddBalance(msg.Caller, gasFee)
		return TxResult{Exit: Error(ErrMaxInitCodeSizeExceeded)}
	}
	intrinsic := IntrinsicGas(true, msg.InitCode, msg.AccessList, 0, inv.Config)
	if msg.GasLimit < intrinsic {
		h.AddBalance(msg.Caller, gasFee)
		return TxResult{Exit: Error(ErrOutOfGas)}
	}

	var target types.Address
	if msg.Salt != nil {
		target = Create2Address(msg.Caller, msg.Salt, msg.InitCode)
	} else {
		target = CreateAddress(msg.Caller, h.Nonce(msg.Caller))
	}
	inv.warmEntryPoints(h, msg.Caller, target, msg.AccessList)

	value := valueOrZero(msg.Value)
	exit, gasLeft := inv.runCreateFrame(h, msg.Caller, target, value, msg.InitCode, msg.GasLimit-intrinsic, 0)
	if exit.Kind == ExitError || exit.Kind == ExitFatal {
		gasLeft = 0
	}

	gasUsed := msg.GasLimit - (gasLeft)
	usedGas, refundedGas := inv.settleGas(h, msg.Caller, msg.GasLimit, gasUsed, gasPrice)
	result := TxResult{Exit: exit, UsedGas: usedGas, RefundedGas: refundedGas}
	if exit.Kind.Succeeded() {
		result.CreatedAddr = target
	} else {
		inv.log.Debug("contract creation failed", "caller", msg.Caller, "target", target, "exit", exit.Kind)
	}
	return result
}

// runFrame executes contract to completion, synchronously servicing every
// trap it raises until it terminates.
func (inv *Invoker) runFrame(h Handler, contract *Contract, depth int) ExitResult {
	m := NewMachine(contract, inv.Table)
	for {
		exit, trap := m.Run(h)
		if trap == nil {
			return exit
		}
		if depth+1 > inv.Config.CallStackLimit {
			if trap.Call != nil {
				gasToSend := forwardedGas(inv.Config, m.Contract.Gas, trap.Call.Gas)
				if !m.Contract.UseGas(gasToSend) {
					gasToSend = 0
				}
				m.Resume(false, nil, gasToSend)
			} else {
				gasToSend := forwardedGas(inv.Config, m.Contract.Gas, trap.Create.Gas)
				if !m.Contract.UseGas(gasToSend) {
					gasToSend = 0
				}
				m.ResumeCreate(nil, nil, gasToSend)
			}
			continue
		}
		if trap.Call != nil {
			ok, ret, gasLeft := inv.serviceCall(h, m, trap.Call, depth+1)
			m.Resume(ok, ret, gasLeft)
		} else {
			addr, ret, gasLeft := inv.serviceCreate(h, m, trap.Create, depth+1)
			if addr == nil {
				m.ResumeCreate(nil, ret, gasLeft)
			} else {
				m.ResumeCreate(addr.Bytes(), ret, gasLeft)
			}
		}
	}
}

// forwardedGas applies EIP-150 when cfg enables it: a frame may forward at
// most available - available/64 of its own remaining gas, regardless of how
// much the CALL operand requests. Pre-EIP-150 configs forward whatever was
// requested, capped only by what remains.
func forwardedGas(cfg Config, available, requested uint64) uint64 {
	cap64 := available
	if cfg.CallL64AfterGas {
		cap64 = available - available/64
	}
	if requested > cap64 {
		return cap64
	}
	return requested
}

// serviceCall builds and runs a child frame for CALL/CALLCODE/
// DELEGATECALL/STATICCALL, returning whether it succeeded, its return
// data, and the gas it did not use (to be credited back to the caller).
func (inv *Invoker) serviceCall(h Handler, callerM *Machine, t *CallTrapData, depth int) (ok bool, ret []byte, gasLeft uint64) {
	caller := callerM.Contract
	gasToSend := forwardedGas(inv.Config, caller.Gas, t.Gas)
	if !caller.UseGas(gasToSend) {
		return false, nil, 0
	}
	stipend := uint64(0)
	if t.Value != nil && !u256.IsZero(t.Value) {
		stipend = inv.Config.CallStipend
	}
	childGas := gasToSend + stipend

	input := callerM.Memory.Get(t.InOffset, t.InLength)

	var ctx CallContext
	switch t.Scheme {
	case SchemeCall:
		ctx = CallContext{Address: t.Target, Caller: caller.Context.Address, ApparentValue: valueOrZero(t.Value), CallData: input, IsStatic: caller.Context.IsStatic}
	case SchemeCallCode:
		ctx = CallContext{Address: caller.Context.Address, Caller: caller.Context.Address, ApparentValue: valueOrZero(t.Value), CallData: input, IsStatic: caller.Context.IsStatic}
	case SchemeDelegateCall:
		ctx = CallContext{Address: caller.Context.Address, Caller: caller.Context.Caller, ApparentValue: caller.Context.ApparentValue, CallData: input, IsStatic: caller.Context.IsStatic}
	case SchemeStaticCall:
		ctx = CallContext{Address: t.Target, Caller: caller.Context.Address, ApparentValue: u256.New(), CallData: input, IsStatic: true}
	}

	h.PushSubstate()

	if t.Scheme == SchemeCall && t.Value != nil && !u256.IsZero(t.Value) {
		if err := h.Transfer(caller.Context.Address, t.Target, t.Value); err != nil {
			h.PopSubstate(Discard)
			return false, nil, gasToSend
		}
	}
	if t.Scheme == SchemeCallCode && t.Value != nil && !u256.IsZero(t.Value) {
		if u256.Lt(h.Balance(caller.Context.Address), t.Value) {
			h.PopSubstate(Discard)
			return false, nil, gasToSend
		}
	}

	// Precompile short-circuit: a registered target is run as a single
	// native step instead of a bytecode frame. Its (gas_cost, output) is
	// resolved directly and the substate popped accordingly, exactly as
	// for an ordinary call.
	if pc, isPrecompile := inv.Precompiles.Lookup(t.Target); isPrecompile {
		cost := pc.RequiredGas(input)
		if cost > childGas {
			h.PopSubstate(Discard)
			return false, nil, 0
		}
		out, err := pc.Run(input)
		remaining := childGas - cost
		if err != nil {
			h.PopSubstate(Discard)
			return false, nil, 0
		}
		h.PopSubstate(Commit)
		inv.writeCallOutput(callerM, t, out)
		return true, out, remaining
	}

	code := executableCode(h, t.Target)
	codeHash := h.CodeHash(t.Target)
	child := NewContract(ctx, code, codeHash, childGas)
	exit := inv.runFrame(h, child, depth)

	if exit.Kind.Succeeded() {
		h.PopSubstate(Commit)
		inv.writeCallOutput(callerM, t, exit.ReturnData)
		return true, exit.ReturnData, child.Gas
	}
	if exit.Kind == ExitRevert {
		h.PopSubstate(RevertStrategy)
		inv.writeCallOutput(callerM, t, exit.ReturnData)
		return false, exit.ReturnData, child.Gas
	}
	h.PopSubstate(Discard)
	return false, nil, 0
}

func (inv *Invoker) writeCallOutput(callerM *Machine, t *CallTrapData, data []byte) {
	if t.OutLength == 0 {
		return
	}
	n := t.OutLength
	if uint64(len(data)) < n {
		n = uint64(len(data))
	}
	callerM.Memory.ResizeOffset(t.OutOffset, n)
	callerM.Memory.Set(t.OutOffset, data[:n])
}

func valueOrZero(v *u256.Word) *u256.Word {
	if v == nil {
		return u256.New()
	}
	return v
}

// serviceCreate builds and runs a child frame for CREATE/CREATE2.
func (inv *Invoker) serviceCreate(h Handler, callerM *Machine, t *CreateTrapData, depth int) (addr *types.Address, ret []byte, gasLeft uint64) {
	caller := callerM.Contract
	initCode := callerM.Memory.Get(t.Offset, t.Length)
	if inv.Config.MaxInitcodeSize > 0 && len(initCode) > inv.Config.MaxInitcodeSize {
		return nil, nil, 0
	}

	gasToSend := forwardedGas(inv.Config, caller.Gas, t.Gas)
	if !caller.UseGas(gasToSend) {
		return nil, nil, 0
	}

	var target types.Address
	if t.Scheme == SchemeCreate {
		nonce := h.Nonce(caller.Context.Address)
		target = CreateAddress(caller.Context.Address, nonce)
	} else {
		target = Create2Address(caller.Context.Address, t.Salt, initCode)
	}

	exit, gasLeft := inv.runCreateFrame(h, caller.Context.Address, target, t.Value, initCode, gasToSend, depth)
	if !exit.Kind.Succeeded() {
		if exit.Kind != ExitRevert {
			gasLeft = 0
		}
		return nil, exit.ReturnData, gasLeft
	}
	a := target
	return &a, nil, gasLeft
}

// runCreateFrame runs an init-code frame and, on success, deploys its
// returned code (charging the per-byte deposit cost and enforcing the
// contract size limit) before reporting success. It returns the gas left
// unspent in the frame, to be credited back to whoever forwarded gas in.
func (inv *Invoker) runCreateFrame(h Handler, caller, target types.Address, value *u256.Word, initCode []byte, gas uint64, depth int) (ExitResult, uint64) {
	if h.Exists(target) && (h.CodeSize(target) > 0 || h.Nonce(target) > 0) {
		return Error(ErrCreateCollision), gas
	}
	if inv.Config.EIP7610CreateCheckStorage && h.HasStorage(target) {
		return Error(ErrCreateCollision), gas
	}
	if err := h.IncNonce(caller); err != nil {
		return Error(err), gas
	}

	h.PushSubstate()
	v := valueOrZero(value)
	if !u256.IsZero(v) {
		if err := h.Transfer(caller, target, v); err != nil {
			h.PopSubstate(Discard)
			return Error(err), gas
		}
	}

	ctx := CallContext{Address: target, Caller: caller, ApparentValue: v, CallData: nil}
	contract := NewContract(ctx, initCode, types.Hash{}, gas)
	exit := inv.runFrame(h, contract, depth)

	if !exit.Kind.Succeeded() {
		if exit.Kind == ExitRevert {
			h.PopSubstate(RevertStrategy)
		} else {
			h.PopSubstate(Discard)
		}
		return exit, contract.Gas
	}

	deployed := exit.ReturnData
	if inv.Config.CreateContractLimit > 0 && len(deployed) > inv.Config.CreateContractLimit {
		h.PopSubstate(Discard)
		return Error(ErrCreateContractLimit), contract.Gas
	}
	if inv.Config.DisallowExecutableFormat && len(deployed) > 0 && deployed[0] == 0xef {
		h.PopSubstate(Discard)
		return Error(ErrInvalidCode), contract.Gas
	}
	depositCost := CreateDataGas * uint64(len(deployed))
	if !contract.UseGas(depositCost) {
		h.PopSubstate(Discard)
		return Error(ErrOutOfGas), contract.Gas
	}
	h.SetCode(target, deployed)
	h.MarkCreated(target)
	h.PopSubstate(Commit)
	return Succeed(ExitSucceedReturned, nil), contract.Gas
}
