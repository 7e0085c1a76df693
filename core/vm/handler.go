package vm

import (
	"github.com/evmkit/evmcore/core/types"
	"github.com/evmkit/evmcore/core/u256"
)

// GetHashFunc returns the hash of the ancestor block with the given number.
type GetHashFunc func(uint64) types.Hash

// BlockContext carries block-level information the interpreter reads but
// never mutates.
type BlockContext struct {
	GetHash     GetHashFunc
	Number      *u256.Word
	Time        uint64
	Coinbase    types.Address
	GasLimit    uint64
	BaseFee     *u256.Word
	Random      types.Hash // PREVRANDAO
	BlobBaseFee *u256.Word
}

// TxContext carries transaction-level information, immutable for the
// lifetime of the outer transaction and shared by every frame.
type TxContext struct {
	Origin     types.Address
	GasPrice   *u256.Word
	ChainID    *u256.Word
	BlobHashes []types.Hash
}

// MergeStrategy selects how PopSubstate folds a child substate back into
// its parent: Commit keeps the child's writes, RevertStrategy discards
// writes but keeps its cold/warm promotions, Discard throws everything
// away.
type MergeStrategy uint8

const (
	Commit MergeStrategy = iota
	RevertStrategy
	Discard
)

// Handler is the single capability surface the interpreter and invoker use
// to reach the host backend. It is implemented by the journaled substate
// stack (core/state.Journal); the interpreter never talks to a storage
// engine directly.
type Handler interface {
	Block() BlockContext
	Tx() TxContext

	// Reads. basic/code/storage are satisfied from the top substate's
	// overlay, falling through the parent chain, then the backend.
	Nonce(addr types.Address) uint64
	Balance(addr types.Address) *u256.Word
	CodeOf(addr types.Address) []byte
	CodeHash(addr types.Address) types.Hash
	CodeSize(addr types.Address) int
	Exists(addr types.Address) bool
	HasStorage(addr types.Address) bool
	Storage(addr types.Address, key types.Hash) types.Hash
	OriginalStorage(addr types.Address, key types.Hash) types.Hash
	TransientStorage(addr types.Address, key types.Hash) types.Hash

	// Writes, mediated by the top substate.
	SetStorage(addr types.Address, key, value types.Hash)
	SetTransientStorage(addr types.Address, key, value types.Hash)
	Transfer(from, to types.Address, value *u256.Word) error
	SubBalance(addr types.Address, value *u256.Word) error
	AddBalance(addr types.Address, value *u256.Word)
	SetCode(addr types.Address, code []byte)
	IncNonce(addr types.Address) error
	SetDeleted(addr types.Address)
	IsDeleted(addr types.Address) bool
	AppendLog(l types.Log)

	// EIP-6780: SELFDESTRUCT only actually deletes an account (rather than
	// just transferring its balance) when the account was created earlier
	// in the same transaction.
	MarkCreated(addr types.Address)
	WasCreatedThisTx(addr types.Address) bool
	SelfDestructSameTxOnly() bool

	// EIP-2929 access tracking. MarkHot* inserts into the accessed set and
	// reports whether the entry was cold before this call.
	MarkHotAddress(addr types.Address) (wasCold bool)
	MarkHotSlot(addr types.Address, key types.Hash) (wasCold bool)
	IsColdAddress(addr types.Address) bool
	IsColdSlot(addr types.Address, key types.Hash) bool

	// Substate stack.
	PushSubstate()
	PopSubstate(strategy MergeStrategy)
	Logs() []types.Log

	// Refund counter; may go negative mid-execution, clamped at
	// transaction end by the invoker.
	AddRefund(delta int64)
	Refund() int64
}
