package vm

import (
	"github.com/evmkit/evmcore/core/cryptoutil"
	"github.com/evmkit/evmcore/core/types"
	"github.com/evmkit/evmcore/core/u256"
)

func boolWord(b bool) *u256.Word {
	if b {
		return u256.FromUint64(1)
	}
	return u256.New()
}

func addressWord(addr []byte) *u256.Word { return u256.FromBytes(addr) }

func addrOf(w *u256.Word) types.Address {
	b := u256.ToBytes32(w)
	return types.BytesToAddress(b[12:])
}

func hashOf(w *u256.Word) types.Hash {
	return types.Hash(u256.ToBytes32(w))
}

func wordOf(h types.Hash) *u256.Word {
	b := [32]byte(h)
	return u256.FromBytes(b[:])
}

// --- arithmetic & bitwise -------------------------------------------------

func opStop(pc uint64, m *Machine, h Handler) Control {
	return ExitWith(Succeed(ExitSucceedStopped, nil))
}

func opAdd(pc uint64, m *Machine, h Handler) Control {
	a, b := m.Stack.Pop(), m.Stack.Pop()
	z, _ := u256.OverflowingAdd(a, b)
	m.Stack.Push(z)
	return Continue()
}

func opMul(pc uint64, m *Machine, h Handler) Control {
	a, b := m.Stack.Pop(), m.Stack.Pop()
	z, _ := u256.OverflowingMul(a, b)
	m.Stack.Push(z)
	return Continue()
}

func opSub(pc uint64, m *Machine, h Handler) Control {
	a, b := m.Stack.Pop(), m.Stack.Pop()
	z, _ := u256.OverflowingSub(a, b)
	m.Stack.Push(z)
	return Continue()
}

func opDiv(pc uint64, m *Machine, h Handler) Control {
	a, b := m.Stack.Pop(), m.Stack.Pop()
	m.Stack.Push(u256.Div(a, b))
	return Continue()
}

func opSdiv(pc uint64, m *Machine, h Handler) Control {
	a, b := m.Stack.Pop(), m.Stack.Pop()
	m.Stack.Push(u256.SDiv(a, b))
	return Continue()
}

func opMod(pc uint64, m *Machine, h Handler) Control {
	a, b := m.Stack.Pop(), m.Stack.Pop()
	m.Stack.Push(u256.Mod(a, b))
	return Continue()
}

func opSmod(pc uint64, m *Machine, h Handler) Control {
	a, b := m.Stack.Pop(), m.Stack.Pop()
	m.Stack.Push(u256.SMod(a, b))
	return Continue()
}

func opAddmod(pc uint64, m *Machine, h Handler) Control {
	a, b, n := m.Stack.Pop(), m.Stack.Pop(), m.Stack.Pop()
	m.Stack.Push(u256.AddMod(a, b, n))
	return Continue()
}

func opMulmod(pc uint64, m *Machine, h Handler) Control {
	a, b, n := m.Stack.Pop(), m.Stack.Pop(), m.Stack.Pop()
	m.Stack.Push(u256.MulMod(a, b, n))
	return Continue()
}

func opExp(pc uint64, m *Machine, h Handler) Control {
	base, pow := m.Stack.Pop(), m.Stack.Pop()
	m.Stack.Push(u256.Exp(base, pow))
	return Continue()
}

func opSignExtend(pc uint64, m *Machine, h Handler) Control {
	idx, val := m.Stack.Pop(), m.Stack.Pop()
	m.Stack.Push(u256.SignExtend(idx, val))
	return Continue()
}

func opLt(pc uint64, m *Machine, h Handler) Control {
	a, b := m.Stack.Pop(), m.Stack.Pop()
	m.Stack.Push(boolWord(u256.Lt(a, b)))
	return Continue()
}

func opGt(pc uint64, m *Machine, h Handler) Control {
	a, b := m.Stack.Pop(), m.Stack.Pop()
	m.Stack.Push(boolWord(u256.Gt(a, b)))
	return Continue()
}

func opSlt(pc uint64, m *Machine, h Handler) Control {
	a, b := m.Stack.Pop(), m.Stack.Pop()
	m.Stack.Push(boolWord(u256.Slt(a, b)))
	return Continue()
}

func opSgt(pc uint64, m *Machine, h Handler) Control {
	a, b := m.Stack.Pop(), m.Stack.Pop()
	m.Stack.Push(boolWord(u256.Sgt(a, b)))
	return Continue()
}

func opEq(pc uint64, m *Machine, h Handler) Control {
	a, b := m.Stack.Pop(), m.Stack.Pop()
	m.Stack.Push(boolWord(u256.Eq(a, b)))
	return Continue()
}

func opIszero(pc uint64, m *Machine, h Handler) Control {
	a := m.Stack.Pop()
	m.Stack.Push(boolWord(u256.IsZero(a)))
	return Continue()
}

func opAnd(pc uint64, m *Machine, h Handler) Control {
	a, b := m.Stack.Pop(), m.Stack.Pop()
	m.Stack.Push(u256.And(a, b))
	return Continue()
}

func opOr(pc uint64, m *Machine, h Handler) Control {
	a, b := m.Stack.Pop(), m.Stack.Pop()
	m.Stack.Push(u256.Or(a, b))
	return Continue()
}

func opXor(pc uint64, m *Machine, h Handler) Control {
	a, b := m.Stack.Pop(), m.Stack.Pop()
	m.Stack.Push(u256.Xor(a, b))
	return Continue()
}

func opNot(pc uint64, m *Machine, h Handler) Control {
	a := m.Stack.Pop()
	m.Stack.Push(u256.Not(a))
	return Continue()
}

func opByte(pc uint64, m *Machine, h Handler) Control {
	i, val := m.Stack.Pop(), m.Stack.Pop()
	m.Stack.Push(u256.ByteAt(i, val))
	return Continue()
}

func opShl(pc uint64, m *Machine, h Handler) Control {
	shift, val := m.Stack.Pop(), m.Stack.Pop()
	m.Stack.Push(u256.Shl(shift, val))
	return Continue()
}

func opShr(pc uint64, m *Machine, h Handler) Control {
	shift, val := m.Stack.Pop(), m.Stack.Pop()
	m.Stack.Push(u256.Shr(shift, val))
	return Continue()
}

func opSar(pc uint64, m *Machine, h Handler) Control {
	shift, val := m.Stack.Pop(), m.Stack.Pop()
	m.Stack.Push(u256.Sar(shift, val))
	return Continue()
}

func opKeccak256(pc uint64, m *Machine, h Handler) Control {
	offW, lenW := m.Stack.Pop(), m.Stack.Pop()
	data := m.Memory.Get(offW.Uint64(), lenW.Uint64())
	m.Stack.Push(u256.FromBytes(cryptoutil.Keccak256(data)))
	return Continue()
}

// --- environment -----------------------------------------------------------

func opAddress(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(addressWord(m.Contract.Context.Address.Bytes()))
	return Continue()
}

func opBalance(pc uint64, m *Machine, h Handler) Control {
	addr := addrOf(m.Stack.Pop())
	m.Stack.Push(h.Balance(addr))
	return Continue()
}

func opOrigin(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(addressWord(h.Tx().Origin.Bytes()))
	return Continue()
}

func opCaller(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(addressWord(m.Contract.Context.Caller.Bytes()))
	return Continue()
}

func opCallValue(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(new(u256.Word).Set(m.Contract.Context.ApparentValue))
	return Continue()
}

func opCallDataLoad(pc uint64, m *Machine, h Handler) Control {
	off := m.Stack.Pop()
	data := m.Contract.Context.CallData
	m.Stack.Push(u256.FromBytes(paddedSlice(data, off.Uint64(), 32)))
	return Continue()
}

func opCallDataSize(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(u256.FromUint64(uint64(len(m.Contract.Context.CallData))))
	return Continue()
}

func opCallDataCopy(pc uint64, m *Machine, h Handler) Control {
	destOff, off, length := m.Stack.Pop(), m.Stack.Pop(), m.Stack.Pop()
	data := paddedSlice(m.Contract.Context.CallData, off.Uint64(), length.Uint64())
	m.Memory.Set(destOff.Uint64(), data)
	return Continue()
}

func opCodeSize(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(u256.FromUint64(uint64(len(m.Contract.Code))))
	return Continue()
}

func opCodeCopy(pc uint64, m *Machine, h Handler) Control {
	destOff, off, length := m.Stack.Pop(), m.Stack.Pop(), m.Stack.Pop()
	data := paddedSlice(m.Contract.Code, off.Uint64(), length.Uint64())
	m.Memory.Set(destOff.Uint64(), data)
	return Continue()
}

func opGasPrice(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(new(u256.Word).Set(h.Tx().GasPrice))
	return Continue()
}

func opExtCodeSize(pc uint64, m *Machine, h Handler) Control {
	addr := addrOf(m.Stack.Pop())
	m.Stack.Push(u256.FromUint64(uint64(h.CodeSize(addr))))
	return Continue()
}

func opExtCodeCopy(pc uint64, m *Machine, h Handler) Control {
	addr := addrOf(m.Stack.Pop())
	destOff, off, length := m.Stack.Pop(), m.Stack.Pop(), m.Stack.Pop()
	code := paddedSlice(h.CodeOf(addr), off.Uint64(), length.Uint64())
	m.Memory.Set(destOff.Uint64(), code)
	return Continue()
}

func opReturnDataSize(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(u256.FromUint64(uint64(len(m.ReturnData))))
	return Continue()
}

func opReturnDataCopy(pc uint64, m *Machine, h Handler) Control {
	destOff, off, length := m.Stack.Pop(), m.Stack.Pop(), m.Stack.Pop()
	end := off.Uint64() + length.Uint64()
	if end > uint64(len(m.ReturnData)) {
		return ExitWith(Error(ErrOutOfOffset))
	}
	m.Memory.Set(destOff.Uint64(), m.ReturnData[off.Uint64():end])
	return Continue()
}

func opExtCodeHash(pc uint64, m *Machine, h Handler) Control {
	addr := addrOf(m.Stack.Pop())
	if !h.Exists(addr) {
		m.Stack.Push(u256.New())
		return Continue()
	}
	m.Stack.Push(wordOf(h.CodeHash(addr)))
	return Continue()
}

// --- block ------------------------------------------------------------------

func opBlockHash(pc uint64, m *Machine, h Handler) Control {
	num := m.Stack.Pop()
	m.Stack.Push(wordOf(h.Block().GetHash(num.Uint64())))
	return Continue()
}

func opCoinbase(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(addressWord(h.Block().Coinbase.Bytes()))
	return Continue()
}

func opTimestamp(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(u256.FromUint64(h.Block().Time))
	return Continue()
}

func opNumber(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(new(u256.Word).Set(h.Block().Number))
	return Continue()
}

func opPrevRandao(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(wordOf(h.Block().Random))
	return Continue()
}

func opGasLimit(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(u256.FromUint64(h.Block().GasLimit))
	return Continue()
}

func opChainID(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(new(u256.Word).Set(h.Tx().ChainID))
	return Continue()
}

func opSelfBalance(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(h.Balance(m.Contract.Context.Address))
	return Continue()
}

func opBaseFee(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(new(u256.Word).Set(h.Block().BaseFee))
	return Continue()
}

func opBlobHash(pc uint64, m *Machine, h Handler) Control {
	idx := m.Stack.Pop()
	hashes := h.Tx().BlobHashes
	i := idx.Uint64()
	if i >= uint64(len(hashes)) {
		m.Stack.Push(u256.New())
		return Continue()
	}
	m.Stack.Push(wordOf(hashes[i]))
	return Continue()
}

func opBlobBaseFee(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(new(u256.Word).Set(h.Block().BlobBaseFee))
	return Continue()
}

// --- stack, memory, storage, control flow -----------------------------------

func opPop(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Pop()
	return Continue()
}

func opMload(pc uint64, m *Machine, h Handler) Control {
	off := m.Stack.Pop()
	m.Stack.Push(u256.FromBytes(m.Memory.Get(off.Uint64(), 32)))
	return Continue()
}

func opMstore(pc uint64, m *Machine, h Handler) Control {
	off, val := m.Stack.Pop(), m.Stack.Pop()
	m.Memory.Set32(off.Uint64(), val)
	return Continue()
}

func opMstore8(pc uint64, m *Machine, h Handler) Control {
	off, val := m.Stack.Pop(), m.Stack.Pop()
	m.Memory.Set(off.Uint64(), []byte{byte(val.Uint64())})
	return Continue()
}

func opSload(pc uint64, m *Machine, h Handler) Control {
	key := hashOf(m.Stack.Pop())
	m.Stack.Push(wordOf(h.Storage(m.Contract.Context.Address, key)))
	return Continue()
}

func opSstore(pc uint64, m *Machine, h Handler) Control {
	key, val := m.Stack.Pop(), m.Stack.Pop()
	h.SetStorage(m.Contract.Context.Address, hashOf(key), hashOf(val))
	return Continue()
}

func opJump(pc uint64, m *Machine, h Handler) Control {
	dest := m.Stack.Pop()
	return JumpTo(dest.Uint64())
}

func opJumpi(pc uint64, m *Machine, h Handler) Control {
	dest, cond := m.Stack.Pop(), m.Stack.Pop()
	if u256.IsZero(cond) {
		return Continue()
	}
	return JumpTo(dest.Uint64())
}

func opPc(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(u256.FromUint64(pc))
	return Continue()
}

func opMsize(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(u256.FromUint64(m.Memory.Len()))
	return Continue()
}

func opGas(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(u256.FromUint64(m.Contract.Gas))
	return Continue()
}

func opJumpdest(pc uint64, m *Machine, h Handler) Control { return Continue() }

func opTload(pc uint64, m *Machine, h Handler) Control {
	key := hashOf(m.Stack.Pop())
	m.Stack.Push(wordOf(h.TransientStorage(m.Contract.Context.Address, key)))
	return Continue()
}

func opTstore(pc uint64, m *Machine, h Handler) Control {
	if m.Contract.Context.IsStatic {
		return ExitWith(Error(ErrNotStatic))
	}
	key, val := m.Stack.Pop(), m.Stack.Pop()
	h.SetTransientStorage(m.Contract.Context.Address, hashOf(key), hashOf(val))
	return Continue()
}

func opMcopy(pc uint64, m *Machine, h Handler) Control {
	destOff, off, length := m.Stack.Pop(), m.Stack.Pop(), m.Stack.Pop()
	l := length.Uint64()
	if l == 0 {
		return Continue()
	}
	data := make([]byte, l)
	copy(data, m.Memory.Get(off.Uint64(), l))
	m.Memory.Set(destOff.Uint64(), data)
	return Continue()
}

// --- push/dup/swap/log -------------------------------------------------------

func opPush0(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(u256.New())
	return Continue()
}

func makePush(n int) executionFunc {
	return func(pc uint64, m *Machine, h Handler) Control {
		data := paddedSlice(m.Contract.Code, pc+1, uint64(n))
		m.Stack.Push(u256.FromBytes(data))
		return Continue()
	}
}

func makeDup(n int) executionFunc {
	return func(pc uint64, m *Machine, h Handler) Control {
		if err := m.Stack.Dup(n); err != nil {
			return ExitWith(Error(err))
		}
		return Continue()
	}
}

func makeSwap(n int) executionFunc {
	return func(pc uint64, m *Machine, h Handler) Control {
		m.Stack.Swap(n)
		return Continue()
	}
}

func makeLog(n int) executionFunc {
	return func(pc uint64, m *Machine, h Handler) Control {
		if m.Contract.Context.IsStatic {
			return ExitWith(Error(ErrNotStatic))
		}
		off, length := m.Stack.Pop(), m.Stack.Pop()
		topics := make([]types.Hash, n)
		for i := 0; i < n; i++ {
			topics[i] = hashOf(m.Stack.Pop())
		}
		data := m.Memory.Get(off.Uint64(), length.Uint64())
		h.AppendLog(types.Log{Address: m.Contract.Context.Address, Topics: topics, Data: data})
		return Continue()
	}
}

// --- terminators -------------------------------------------------------------

func opReturn(pc uint64, m *Machine, h Handler) Control {
	off, length := m.Stack.Pop(), m.Stack.Pop()
	data := m.Memory.Get(off.Uint64(), length.Uint64())
	return ExitWith(Succeed(ExitSucceedReturned, data))
}

func opRevert(pc uint64, m *Machine, h Handler) Control {
	off, length := m.Stack.Pop(), m.Stack.Pop()
	data := m.Memory.Get(off.Uint64(), length.Uint64())
	return ExitWith(Revert(data))
}

func opInvalid(pc uint64, m *Machine, h Handler) Control {
	return ExitWith(Error(ErrDesignatedInvalid))
}

func opSelfDestruct(pc uint64, m *Machine, h Handler) Control {
	if m.Contract.Context.IsStatic {
		return ExitWith(Error(ErrNotStatic))
	}
	addr := m.Contract.Context.Address
	beneficiary := addrOf(m.Stack.Pop())
	bal := h.Balance(addr)
	if err := h.Transfer(addr, beneficiary, bal); err != nil {
		return ExitWith(Error(err))
	}
	// EIP-6780: post-Cancun, SELFDESTRUCT only deletes the account (code,
	// storage, nonce) when it was created earlier in this same
	// transaction; otherwise only the balance transfer above takes effect.
	if !h.SelfDestructSameTxOnly() || h.WasCreatedThisTx(addr) {
		h.SetDeleted(addr)
	}
	return ExitWith(Succeed(ExitSucceedSuicided, nil))
}

// --- call/create trap builders ------------------------------------------------

func opCreate(pc uint64, m *Machine, h Handler) Control {
	if m.Contract.Context.IsStatic {
		return ExitWith(Error(ErrNotStatic))
	}
	value, off, length := m.Stack.Pop(), m.Stack.Pop(), m.Stack.Pop()
	return TrapWith(&TrapData{Create: &CreateTrapData{
		Scheme: SchemeCreate,
		Value:  value,
		Offset: off.Uint64(),
		Length: length.Uint64(),
		Gas:    m.Contract.Gas,
	}})
}

func opCreate2(pc uint64, m *Machine, h Handler) Control {
	if m.Contract.Context.IsStatic {
		return ExitWith(Error(ErrNotStatic))
	}
	value, off, length, salt := m.Stack.Pop(), m.Stack.Pop(), m.Stack.Pop(), m.Stack.Pop()
	return TrapWith(&TrapData{Create: &CreateTrapData{
		Scheme: SchemeCreate2,
		Value:  value,
		Offset: off.Uint64(),
		Length: length.Uint64(),
		Salt:   salt,
		Gas:    m.Contract.Gas,
	}})
}

func opCall(pc uint64, m *Machine, h Handler) Control {
	gas, addr, value, inOff, inLen, outOff, outLen := popCallArgs(m, true)
	if m.Contract.Context.IsStatic && !u256.IsZero(value) {
		return ExitWith(Error(ErrNotStatic))
	}
	return TrapWith(&TrapData{Call: &CallTrapData{
		Scheme: SchemeCall, Gas: gas, Target: addr, Value: value,
		InOffset: inOff, InLength: inLen, OutOffset: outOff, OutLength: outLen,
	}})
}

func opCallCode(pc uint64, m *Machine, h Handler) Control {
	gas, addr, value, inOff, inLen, outOff, outLen := popCallArgs(m, true)
	return TrapWith(&TrapData{Call: &CallTrapData{
		Scheme: SchemeCallCode, Gas: gas, Target: addr, Value: value,
		InOffset: inOff, InLength: inLen, OutOffset: outOff, OutLength: outLen,
	}})
}

func opDelegateCall(pc uint64, m *Machine, h Handler) Control {
	gas, addr, _, inOff, inLen, outOff, outLen := popCallArgs(m, false)
	return TrapWith(&TrapData{Call: &CallTrapData{
		Scheme: SchemeDelegateCall, Gas: gas, Target: addr, Value: nil,
		InOffset: inOff, InLength: inLen, OutOffset: outOff, OutLength: outLen,
	}})
}

func opStaticCall(pc uint64, m *Machine, h Handler) Control {
	gas, addr, _, inOff, inLen, outOff, outLen := popCallArgs(m, false)
	return TrapWith(&TrapData{Call: &CallTrapData{
		Scheme: SchemeStaticCall, Gas: gas, Target: addr, Value: nil,
		InOffset: inOff, InLength: inLen, OutOffset: outOff, OutLength: outLen,
	}})
}

// popCallArgs pops the seven- or six-operand CALL-family stack layout.
// withValue is false for DELEGATECALL/STATICCALL, which carry no value
// operand.
func popCallArgs(m *Machine, withValue bool) (gas uint64, addr types.Address, value *u256.Word, inOff, inLen, outOff, outLen uint64) {
	gasW := m.Stack.Pop()
	addr = addrOf(m.Stack.Pop())
	if withValue {
		value = m.Stack.Pop()
	}
	inOffW, inLenW := m.Stack.Pop(), m.Stack.Pop()
	outOffW, outLenW := m.Stack.Pop(), m.Stack.Pop()
	return gasW.Uint64(), addr, value, inOffW.Uint64(), inLenW.Uint64(), outOffW.Uint64(), outLenW.Uint64()
}

// paddedSlice returns data[offset:offset+length], zero-padding past the end
// of data (and treating an out-of-range offset as entirely past the end).
func paddedSlice(data []byte, offset, length uint64) []byte {
	out := make([]byte, length)
	if offset >= uint64(len(data)) {
		return out
	}
	end := offset + length
	if end > uint64(len(data)) {
		end = uint64(len(data))
	}
	copy(out, data[offset:end])
	return out
}
