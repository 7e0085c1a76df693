package vm

// Config is the flag set gating historical rule changes. It is passed by
// value (or pointer) through Machine and JumpTable construction; there are
// no package-level globals.
type Config struct {
	HasDelegateCall     bool
	HasRevert           bool
	HasReturnData       bool
	HasBitwiseShifting  bool
	HasChainID          bool
	HasSelfBalance      bool
	HasExtCodeHash      bool
	HasCreate2          bool
	HasBaseFee          bool
	HasPush0            bool

	IncreaseStateAccessGas bool // EIP-2929
	DecreaseClearsRefund   bool // EIP-3529
	DisallowExecutableFormat bool
	WarmCoinbaseAddress    bool // EIP-3651
	CallL64AfterGas        bool // EIP-150

	CreateContractLimit int // 0 means unlimited
	MaxInitcodeSize     int // 0 means unlimited
	CallStackLimit      int
	StackLimit          int
	MemoryLimit         uint64 // 0 means unlimited

	EIP1153Enabled bool // transient storage
	EIP5656Enabled bool // MCOPY
	EIP1559Enabled bool // burn base fee
	SuicideOnlyInSameTx bool // EIP-6780
	EIP7610CreateCheckStorage bool
	HasEIP7702 bool // set-code transactions / delegation designators

	GasSloadCold         uint64
	GasStorageReadWarm   uint64
	GasExtCode           uint64
	GasBalance           uint64
	GasSload             uint64
	GasSstoreSet         uint64
	GasSstoreReset       uint64
	GasSuicide           uint64
	GasCall              uint64
	GasExpByte           uint64
	GasTransactionCall   uint64
	GasTransactionCreate uint64
	GasTransactionZeroData    uint64
	GasTransactionNonZeroData uint64
	GasAccessListAddress     uint64
	GasAccessListStorageKey  uint64
	CallStipend          uint64
	MaxRefundQuotient    uint64
	RefundSstoreClears   uint64
}

// CancunConfig returns the Config matching the Cancun hard fork, the
// default used when none is supplied.
func CancunConfig() Config {
	return Config{
		HasDelegateCall:    true,
		HasRevert:          true,
		HasReturnData:      true,
		HasBitwiseShifting: true,
		HasChainID:         true,
		HasSelfBalance:     true,
		HasExtCodeHash:     true,
		HasCreate2:         true,
		HasBaseFee:         true,
		HasPush0:           true,

		IncreaseStateAccessGas:   true,
		DecreaseClearsRefund:     true,
		DisallowExecutableFormat: true,
		WarmCoinbaseAddress:      true,
		CallL64AfterGas:          true,

		CreateContractLimit: DefaultCodeSizeLimit,
		MaxInitcodeSize:     DefaultInitCodeSizeLimit,
		CallStackLimit:      DefaultCallStackLimit,
		StackLimit:          DefaultStackLimit,

		EIP1153Enabled: true,
		EIP5656Enabled: true,
		EIP1559Enabled: true,
		SuicideOnlyInSameTx: true,

		GasSloadCold:         ColdSloadCost,
		GasStorageReadWarm:   WarmStorageReadCost,
		GasExtCode:           ColdAccountAccessCost,
		GasBalance:           ColdAccountAccessCost,
		GasSload:             ColdSloadCost,
		GasSstoreSet:         SstoreSetGas,
		GasSstoreReset:       SstoreResetGas,
		GasSuicide:           GasSelfdestruct,
		GasCall:              ColdAccountAccessCost,
		GasExpByte:           GasExpByte,
		GasTransactionCall:   TxGasCall,
		GasTransactionCreate: TxGasCreate,
		GasTransactionZeroData:    TxDataZeroGas,
		GasTransactionNonZeroData: TxDataNonZeroGas,
		GasAccessListAddress:    AccessListAddressCost,
		GasAccessListStorageKey: AccessListStorageCost,
		CallStipend:          CallStipend,
		MaxRefundQuotient:    MaxRefundQuotientLondon,
		RefundSstoreClears:   SstoreClearRefund,
	}
}

// PragueConfig returns the Config matching the Prague hard fork: Cancun
// plus EIP-7702 set-code transactions and EIP-7610's storage-aware CREATE
// collision check.
func PragueConfig() Config {
	c := CancunConfig()
	c.HasEIP7702 = true
	c.EIP7610CreateCheckStorage = true
	return c
}

// FrontierConfig returns a pre-Berlin/pre-London Config, useful for testing
// historical semantics (no cold/warm accounting, refund quotient of 2).
func FrontierConfig() Config {
	c := CancunConfig()
	c.HasDelegateCall = true // DELEGATECALL predates Berlin
	c.HasRevert = false
	c.HasReturnData = false
	c.HasBitwiseShifting = false
	c.HasChainID = false
	c.HasSelfBalance = false
	c.HasExtCodeHash = false
	c.HasCreate2 = false
	c.HasBaseFee = false
	c.HasPush0 = false
	c.IncreaseStateAccessGas = false
	c.DecreaseClearsRefund = false
	c.DisallowExecutableFormat = false
	c.WarmCoinbaseAddress = false
	c.CallL64AfterGas = true // EIP-150 predates Berlin
	c.EIP1153Enabled = false
	c.EIP5656Enabled = false
	c.EIP1559Enabled = false
	c.SuicideOnlyInSameTx = false
	c.MaxRefundQuotient = MaxRefundQuotientFrontier
	c.GasCall = 40 // pre-EIP-150 flat CALL cost
	c.GasSstoreReset = 5000
	c.RefundSstoreClears = SstoreClearRefundFrontier
	return c
}
