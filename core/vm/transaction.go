package vm

import (
	"github.com/evmkit/evmcore/core/types"
	"github.com/evmkit/evmcore/core/u256"
)

// CallMessage is the full input to a top-level message-call transaction.
type CallMessage struct {
	Caller     types.Address
	To         types.Address
	Value      *u256.Word
	Data       []byte
	GasLimit   uint64
	GasPrice   *u256.Word
	AccessList types.AccessList
	AuthList   []types.AuthTuple // EIP-7702, requires Config.HasEIP7702
}

// CreateMessage is the full input to a top-level contract-creation
// transaction. A non-nil Salt selects CREATE2 over CREATE.
type CreateMessage struct {
	Caller     types.Address
	Value      *u256.Word
	InitCode   []byte
	GasLimit   uint64
	GasPrice   *u256.Word
	AccessList types.AccessList
	Salt       *u256.Word
}

// TxResult is a top-level transaction's full accounting: exit status,
// gas used and refunded, and (for a creation) the deployed address.
type TxResult struct {
	Exit        ExitResult
	UsedGas     uint64
	RefundedGas uint64
	CreatedAddr types.Address
}

// IntrinsicGas computes the gas a transaction owes before its first
// opcode runs: the base call/create cost, the per-byte calldata cost,
// the EIP-2930 access-list surcharge, and (when present) the EIP-7702
// per-authorization surcharge.
func IntrinsicGas(isCreate bool, data []byte, accessList types.AccessList, numAuths int, cfg Config) uint64 {
	gas := cfg.GasTransactionCall
	if isCreate {
		gas = cfg.GasTransactionCreate
	}
	for _, b := range data {
		if b == 0 {
			gas += cfg.GasTransactionZeroData
		} else {
			gas += cfg.GasTransactionNonZeroData
		}
	}
	for _, t := range accessList {
		gas += cfg.GasAccessListAddress
		gas += cfg.GasAccessListStorageKey * uint64(len(t.StorageKeys))
	}
	gas += GasPerAuthBaseCost * uint64(numAuths)
	return gas
}

// warmEntryPoints marks the addresses and storage keys a transaction
// warms before its root frame runs: the precompile set, the caller, the
// target (or computed create address), every access-list entry, and
// (when configured) the block's coinbase.
func (inv *Invoker) warmEntryPoints(h Handler, caller, target types.Address, accessList types.AccessList) {
	if !inv.Config.IncreaseStateAccessGas {
		return
	}
	for addr := range inv.Precompiles {
		h.MarkHotAddress(addr)
	}
	h.MarkHotAddress(caller)
	h.MarkHotAddress(target)
	for _, t := range accessList {
		h.MarkHotAddress(t.Address)
		for _, k := range t.StorageKeys {
			h.MarkHotSlot(t.Address, k)
		}
	}
	if inv.Config.WarmCoinbaseAddress {
		h.MarkHotAddress(h.Block().Coinbase)
	}
}

// settleGas clamps the refund counter, credits caller with its unused
// gas plus the clamped refund (at GasPrice), and credits the block's
// coinbase with the remainder. This is the gas-conservation invariant:
// gasLimit*gasPrice == refunded_to_caller + paid_to_coinbase.
func (inv *Invoker) settleGas(h Handler, caller types.Address, gasLimit, gasUsed uint64, gasPrice *u256.Word) (usedGas, refundedGas uint64) {
	effective := ClampRefund(h.Refund(), gasUsed, inv.Config.MaxRefundQuotient)
	gasLeft := gasLimit - gasUsed + effective
	if gasLeft > gasLimit {
		gasLeft = gasLimit
	}
	callerRefund, _ := u256.OverflowingMul(u256.FromUint64(gasLeft), gasPrice)
	h.AddBalance(caller, callerRefund)
	minerFee := gasLimit - gasLeft
	minerCredit, _ := u256.OverflowingMul(u256.FromUint64(minerFee), gasPrice)
	h.AddBalance(h.Block().Coinbase, minerCredit)
	return gasLimit - gasLeft, effective
}
