package vm

// Gas cost constants, named after the Yellow Paper tiers and the EIPs that
// introduced cold/warm accounting, refunds, and the access-list surcharges.
const (
	GasZero    uint64 = 0
	GasBase    uint64 = 2
	GasVeryLow uint64 = 3
	GasLow     uint64 = 5
	GasMid     uint64 = 8
	GasHigh    uint64 = 10
	GasExt     uint64 = 20

	GasJumpDest uint64 = 1
	GasPush0    uint64 = 2

	// EIP-2929 cold/warm access costs.
	ColdAccountAccessCost uint64 = 2600
	WarmStorageReadCost   uint64 = 100
	ColdSloadCost         uint64 = 2100

	// SSTORE (EIP-2200 / EIP-3529).
	SstoreSentryGas uint64 = 2300
	SstoreSetGas    uint64 = 20000
	SstoreResetGas  uint64 = 2900
	SstoreClearRefund uint64 = 4800 // EIP-3529
	SstoreClearRefundFrontier uint64 = 15000

	GasCreate       uint64 = 32000
	GasSelfdestruct uint64 = 5000

	GasLogBase  uint64 = 375
	GasLogTopic uint64 = 375
	GasLogData  uint64 = 8

	GasKeccak256     uint64 = 30
	GasKeccak256Word uint64 = 6

	GasMemoryWord uint64 = 3
	GasCopyWord   uint64 = 3

	GasExpBase uint64 = 10
	GasExpByte uint64 = 50 // post-Spurious Dragon

	// Contract creation.
	CreateDataGas    uint64 = 200 // per deployed byte (code deposit)
	InitCodeWordGas  uint64 = 2   // EIP-3860, per 32-byte word of init code

	// EIP-150 "CALL" cold/warm base costs mirror ColdAccountAccessCost /
	// WarmStorageReadCost above; CallValueTransferGas and
	// CallNewAccountGas are the value-transfer and account-creation
	// surcharges.
	CallValueTransferGas uint64 = 9000
	CallNewAccountGas    uint64 = 25000
	CallStipend          uint64 = 2300

	// EIP-2930 access list.
	AccessListAddressCost uint64 = 2400
	AccessListStorageCost uint64 = 1900

	// Intrinsic transaction gas.
	TxGasCall         uint64 = 21000
	TxGasCreate       uint64 = 53000
	TxDataZeroGas     uint64 = 4
	TxDataNonZeroGas  uint64 = 16

	// Refund quotients (EIP-3529 tightened the pre-London quotient of 2 to 5).
	MaxRefundQuotientFrontier uint64 = 2
	MaxRefundQuotientLondon   uint64 = 5

	// Self-destruct refund, removed by EIP-3529 (kept for pre-London configs).
	SelfdestructRefund uint64 = 24000

	// EIP-7702 authorization-list processing: the base cost is charged once
	// per tuple as part of IntrinsicGas; the second value is refunded for a
	// pre-existing authority account.
	GasPerAuthBaseCost       uint64 = 25000
	GasPerAuthEmptyAccountCost int64 = 12500

	// Default safety bounds (§6 Config options).
	DefaultStackLimit     = 1024
	DefaultCallStackLimit = 1024
	DefaultCodeSizeLimit  = 24576
	DefaultInitCodeSizeLimit = 2 * DefaultCodeSizeLimit
)
