package vm

import "github.com/evmkit/evmcore/core/u256"

// memSizeFunc extracts the (offset, length) byte range an opcode will touch
// from the stack, without popping it. ok is false when a stack operand
// does not fit uint64 and the step must fail with a gas/arithmetic error.
type memSizeFunc func(m *Machine) (offset, length uint64, ok bool)

func memWordsOffsetLen(offsetIdx int, length uint64) memSizeFunc {
	return func(m *Machine) (uint64, uint64, bool) {
		off := m.Stack.Back(offsetIdx)
		if !off.IsUint64() {
			return 0, 0, false
		}
		return off.Uint64(), length, true
	}
}

func memWordsOffsetLenAt(offsetIdx, lengthIdx int) memSizeFunc {
	return func(m *Machine) (uint64, uint64, bool) {
		off, l := m.Stack.Back(offsetIdx), m.Stack.Back(lengthIdx)
		if !off.IsUint64() || !l.IsUint64() {
			return 0, 0, false
		}
		return off.Uint64(), l.Uint64(), true
	}
}

// gasMemory builds a dynamicGasFunc that charges only the memory-expansion
// cost for the byte range fn resolves.
func gasMemory(fn memSizeFunc) dynamicGasFunc {
	return func(m *Machine, h Handler) (uint64, uint64, error) {
		offset, length, ok := fn(m)
		if !ok {
			return 0, 0, ErrGasArithmetic
		}
		if length == 0 {
			return 0, m.Memory.words(), nil
		}
		newSize := offset + length
		return MemoryExpansionCost(m.Memory.Len(), newSize), toWordSize(newSize), nil
	}
}

// gasCopyMem charges memory expansion plus 3 gas per 32-byte word copied,
// for the *DATACOPY/CODECOPY family: destOffset is always Back(0), length
// is Back(lengthIdx).
func gasCopyMem(lengthIdx int) dynamicGasFunc {
	return func(m *Machine, h Handler) (uint64, uint64, error) {
		destOff, length := m.Stack.Back(0), m.Stack.Back(lengthIdx)
		if !destOff.IsUint64() || !length.IsUint64() {
			return 0, 0, ErrGasArithmetic
		}
		l := length.Uint64()
		wordCost := GasCopyWord * toWordSize(l)
		if l == 0 {
			return wordCost, m.Memory.words(), nil
		}
		newSize := destOff.Uint64() + l
		return wordCost + MemoryExpansionCost(m.Memory.Len(), newSize), toWordSize(newSize), nil
	}
}

func gasKeccak256(m *Machine, h Handler) (uint64, uint64, error) {
	off, length := m.Stack.Back(0), m.Stack.Back(1)
	if !off.IsUint64() || !length.IsUint64() {
		return 0, 0, ErrGasArithmetic
	}
	l := length.Uint64()
	wordCost := GasKeccak256Word * toWordSize(l)
	if l == 0 {
		return wordCost, m.Memory.words(), nil
	}
	newSize := off.Uint64() + l
	return wordCost + MemoryExpansionCost(m.Memory.Len(), newSize), toWordSize(newSize), nil
}

func gasExp(cfg Config) dynamicGasFunc {
	return func(m *Machine, h Handler) (uint64, uint64, error) {
		pow := m.Stack.Back(1)
		byteLen := (u256.Bits(pow) + 7) / 8
		return cfg.GasExpByte * uint64(byteLen), 0, nil
	}
}

// addressAccessCost resolves a BALANCE/EXTCODE*/CALL-family address touch
// to its Config-appropriate cost: the flat pre-Berlin value when
// IncreaseStateAccessGas is off, otherwise the EIP-2929 cold/warm split.
func addressAccessCost(cfg Config, cold bool, flat uint64) uint64 {
	if !cfg.IncreaseStateAccessGas {
		return flat
	}
	if cold {
		return ColdAccountAccessCost
	}
	return cfg.GasStorageReadWarm
}

func gasBalance(cfg Config) dynamicGasFunc {
	return func(m *Machine, h Handler) (uint64, uint64, error) {
		addr := addrOf(m.Stack.Back(0))
		cold := h.MarkHotAddress(addr)
		return addressAccessCost(cfg, cold, cfg.GasBalance), 0, nil
	}
}

func gasExtCodeSize(cfg Config) dynamicGasFunc {
	return func(m *Machine, h Handler) (uint64, uint64, error) {
		addr := addrOf(m.Stack.Back(0))
		cold := h.MarkHotAddress(addr)
		return addressAccessCost(cfg, cold, cfg.GasExtCode), 0, nil
	}
}

func gasExtCodeHash(cfg Config) dynamicGasFunc {
	return func(m *Machine, h Handler) (uint64, uint64, error) {
		addr := addrOf(m.Stack.Back(0))
		cold := h.MarkHotAddress(addr)
		return addressAccessCost(cfg, cold, cfg.GasExtCode), 0, nil
	}
}

func gasExtCodeCopy(cfg Config) dynamicGasFunc {
	return func(m *Machine, h Handler) (uint64, uint64, error) {
		addr := addrOf(m.Stack.Back(0))
		destOff, length := m.Stack.Back(1), m.Stack.Back(3)
		if !destOff.IsUint64() || !length.IsUint64() {
			return 0, 0, ErrGasArithmetic
		}
		cold := h.MarkHotAddress(addr)
		l := length.Uint64()
		wordCost := GasCopyWord * toWordSize(l)
		cost := addressAccessCost(cfg, cold, cfg.GasExtCode) + wordCost
		if l == 0 {
			return cost, m.Memory.words(), nil
		}
		newSize := destOff.Uint64() + l
		return cost + MemoryExpansionCost(m.Memory.Len(), newSize), toWordSize(newSize), nil
	}
}

func gasReturnDataCopy(m *Machine, h Handler) (uint64, uint64, error) {
	destOff, length := m.Stack.Back(0), m.Stack.Back(2)
	if !destOff.IsUint64() || !length.IsUint64() {
		return 0, 0, ErrGasArithmetic
	}
	l := length.Uint64()
	wordCost := GasCopyWord * toWordSize(l)
	if l == 0 {
		return wordCost, m.Memory.words(), nil
	}
	newSize := destOff.Uint64() + l
	return wordCost + MemoryExpansionCost(m.Memory.Len(), newSize), toWordSize(newSize), nil
}

func gasSload(cfg Config) dynamicGasFunc {
	return func(m *Machine, h Handler) (uint64, uint64, error) {
		key := hashOf(m.Stack.Back(0))
		cold := h.MarkHotSlot(m.Contract.Context.Address, key)
		if !cfg.IncreaseStateAccessGas {
			return cfg.GasSload, 0, nil
		}
		if cold {
			return cfg.GasSloadCold, 0, nil
		}
		return cfg.GasStorageReadWarm, 0, nil
	}
}

// gasSstore implements the EIP-2200/2929/3529 tri-state cost and refund
// schedule: no-op writes and warm dirty writes cost a flat warm-read price,
// the first dirtying write of a slot in a transaction costs the full
// set/reset price, and refunds accrue only when a slot's net effect across
// the transaction clears or restores its original value.
func gasSstore(cfg Config) dynamicGasFunc {
	return func(m *Machine, h Handler) (uint64, uint64, error) {
		if m.Contract.Context.IsStatic {
			return 0, 0, ErrNotStatic
		}
		addr := m.Contract.Context.Address
		keyW, valW := m.Stack.Back(0), m.Stack.Back(1)
		key := hashOf(keyW)
		newVal := hashOf(valW)

		if cfg.IncreaseStateAccessGas && m.Contract.Gas <= SstoreSentryGas {
			return 0, 0, ErrOutOfGas
		}

		var coldSurcharge uint64
		cold := h.IsColdSlot(addr, key)
		h.MarkHotSlot(addr, key)
		if cfg.IncreaseStateAccessGas && cold {
			coldSurcharge = cfg.GasSloadCold
		}

		warmReadCost := cfg.GasStorageReadWarm
		clearRefund := int64(cfg.RefundSstoreClears)

		current := h.Storage(addr, key)
		original := h.OriginalStorage(addr, key)

		var cost uint64
		switch {
		case current == newVal:
			cost = warmReadCost
		case original == current:
			if original.IsZero() {
				cost = cfg.GasSstoreSet
			} else {
				cost = cfg.GasSstoreReset
				if newVal.IsZero() {
					h.AddRefund(clearRefund)
				}
			}
		default:
			cost = warmReadCost
			if !original.IsZero() {
				if current.IsZero() {
					h.AddRefund(-clearRefund)
				}
				if newVal.IsZero() {
					h.AddRefund(clearRefund)
				}
			}
			if original == newVal {
				if original.IsZero() {
					h.AddRefund(int64(cfg.GasSstoreSet) - int64(warmReadCost))
				} else {
					h.AddRefund(int64(cfg.GasSstoreReset) - int64(warmReadCost))
				}
			}
		}
		return cost + coldSurcharge, 0, nil
	}
}

func gasMcopy(m *Machine, h Handler) (uint64, uint64, error) {
	destOff, off, length := m.Stack.Back(0), m.Stack.Back(1), m.Stack.Back(2)
	if !destOff.IsUint64() || !off.IsUint64() || !length.IsUint64() {
		return 0, 0, ErrGasArithmetic
	}
	l := length.Uint64()
	wordCost := GasCopyWord * toWordSize(l)
	if l == 0 {
		return wordCost, m.Memory.words(), nil
	}
	d, o := destOff.Uint64(), off.Uint64()
	newSize := d + l
	if o+l > newSize {
		newSize = o + l
	}
	return wordCost + MemoryExpansionCost(m.Memory.Len(), newSize), toWordSize(newSize), nil
}

func gasLog(n int) dynamicGasFunc {
	return func(m *Machine, h Handler) (uint64, uint64, error) {
		off, length := m.Stack.Back(0), m.Stack.Back(1)
		if !off.IsUint64() || !length.IsUint64() {
			return 0, 0, ErrGasArithmetic
		}
		l := length.Uint64()
		cost := GasLogBase + uint64(n)*GasLogTopic + l*GasLogData
		if l == 0 {
			return cost, m.Memory.words(), nil
		}
		newSize := off.Uint64() + l
		return cost + MemoryExpansionCost(m.Memory.Len(), newSize), toWordSize(newSize), nil
	}
}

func gasCreate(m *Machine, h Handler) (uint64, uint64, error) {
	off, length := m.Stack.Back(1), m.Stack.Back(2)
	if !off.IsUint64() || !length.IsUint64() {
		return 0, 0, ErrGasArithmetic
	}
	l := length.Uint64()
	initWordCost := InitCodeWordGas * toWordSize(l)
	if l == 0 {
		return GasCreate + initWordCost, m.Memory.words(), nil
	}
	newSize := off.Uint64() + l
	return GasCreate + initWordCost + MemoryExpansionCost(m.Memory.Len(), newSize), toWordSize(newSize), nil
}

func gasCreate2(m *Machine, h Handler) (uint64, uint64, error) {
	off, length := m.Stack.Back(1), m.Stack.Back(2)
	if !off.IsUint64() || !length.IsUint64() {
		return 0, 0, ErrGasArithmetic
	}
	l := length.Uint64()
	hashCost := GasKeccak256Word * toWordSize(l)
	initWordCost := InitCodeWordGas * toWordSize(l)
	if l == 0 {
		return GasCreate + hashCost + initWordCost, m.Memory.words(), nil
	}
	newSize := off.Uint64() + l
	return GasCreate + hashCost + initWordCost + MemoryExpansionCost(m.Memory.Len(), newSize), toWordSize(newSize), nil
}

// callMemoryRange folds a CALL-family opcode's input and output ranges into
// one covering byte extent, since both must be resident before the trap is
// serviced.
func callMemoryRange(m *Machine, inOffIdx, inLenIdx, outOffIdx, outLenIdx int) (uint64, uint64, bool) {
	inOff, inLen := m.Stack.Back(inOffIdx), m.Stack.Back(inLenIdx)
	outOff, outLen := m.Stack.Back(outOffIdx), m.Stack.Back(outLenIdx)
	if !inOff.IsUint64() || !inLen.IsUint64() || !outOff.IsUint64() || !outLen.IsUint64() {
		return 0, 0, false
	}
	need := inOff.Uint64() + inLen.Uint64()
	if o := outOff.Uint64() + outLen.Uint64(); o > need {
		need = o
	}
	return 0, need, true
}

// gasCallFamily computes the shared EIP-150/EIP-2929 CALL-family cost:
// cold/warm address access, the value-transfer and new-account surcharges
// (CALL/CALLCODE only), and memory expansion for the max of the input and
// output ranges. The caller (gasCall etc.) supplies withValue.
func gasCallFamily(cfg Config, m *Machine, h Handler, addrIdx, valueIdx, inOffIdx, inLenIdx, outOffIdx, outLenIdx int, withValue, checkEmptyAccount bool) (uint64, uint64, error) {
	addr := addrOf(m.Stack.Back(addrIdx))
	cold := h.MarkHotAddress(addr)
	cost := addressAccessCost(cfg, cold, cfg.GasCall)

	if withValue {
		val := m.Stack.Back(valueIdx)
		if !u256.IsZero(val) {
			cost += CallValueTransferGas
			if checkEmptyAccount && !h.Exists(addr) {
				cost += CallNewAccountGas
			}
		}
	}

	_, need, ok := callMemoryRange(m, inOffIdx, inLenIdx, outOffIdx, outLenIdx)
	if !ok {
		return 0, 0, ErrGasArithmetic
	}
	if need == 0 {
		return cost, m.Memory.words(), nil
	}
	return cost + MemoryExpansionCost(m.Memory.Len(), need), toWordSize(need), nil
}

func gasCall(cfg Config) dynamicGasFunc {
	return func(m *Machine, h Handler) (uint64, uint64, error) {
		return gasCallFamily(cfg, m, h, 1, 2, 3, 4, 5, 6, true, true)
	}
}

func gasCallCode(cfg Config) dynamicGasFunc {
	return func(m *Machine, h Handler) (uint64, uint64, error) {
		return gasCallFamily(cfg, m, h, 1, 2, 3, 4, 5, 6, true, false)
	}
}

func gasDelegateCall(cfg Config) dynamicGasFunc {
	return func(m *Machine, h Handler) (uint64, uint64, error) {
		return gasCallFamily(cfg, m, h, 1, -1, 2, 3, 4, 5, false, false)
	}
}

func gasStaticCall(cfg Config) dynamicGasFunc {
	return func(m *Machine, h Handler) (uint64, uint64, error) {
		return gasCallFamily(cfg, m, h, 1, -1, 2, 3, 4, 5, false, false)
	}
}

func gasSelfDestruct(cfg Config) dynamicGasFunc {
	return func(m *Machine, h Handler) (uint64, uint64, error) {
		beneficiary := addrOf(m.Stack.Back(0))
		cold := h.MarkHotAddress(beneficiary)
		cost := uint64(0)
		if cfg.IncreaseStateAccessGas && cold {
			cost += ColdAccountAccessCost
		}
		addr := m.Contract.Context.Address
		bal := h.Balance(addr)
		if !u256.IsZero(bal) && !h.Exists(beneficiary) {
			cost += CallNewAccountGas
		}
		if !cfg.DecreaseClearsRefund && !h.IsDeleted(addr) {
			h.AddRefund(int64(SelfdestructRefund))
		}
		return cost, 0, nil
	}
}
