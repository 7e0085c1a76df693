// Package state implements the journaled substate stack that backs
// core/vm.Handler: a call-frame-scoped overlay over a flat in-memory
// account backend, with Commit/Revert/Discard merge semantics mirroring
// the interpreter's call-frame stack one-to-one.
package state

import (
	"github.com/evmkit/evmcore/core/types"
	"github.com/evmkit/evmcore/core/u256"
)

// Account is one address's durable state: balance, nonce, code, and
// storage. It is the backend's unit of storage; a substate holds a full
// Account copy, cloned on first write, for each address it dirties.
type Account struct {
	Nonce    uint64
	Balance  *u256.Word
	Code     []byte
	CodeHash types.Hash
	Storage  map[types.Hash]types.Hash
}

func newAccount() *Account {
	return &Account{Balance: u256.New(), Storage: make(map[types.Hash]types.Hash)}
}

func (a *Account) clone() *Account {
	cp := &Account{Nonce: a.Nonce, Balance: new(u256.Word).Set(a.Balance), Code: a.Code, CodeHash: a.CodeHash}
	cp.Storage = make(map[types.Hash]types.Hash, len(a.Storage))
	for k, v := range a.Storage {
		cp.Storage[k] = v
	}
	return cp
}

// Backend is the flat, un-journaled account store beneath every substate.
// A production binding would back this with a trie or a KV store; for the
// interpreter's purposes it need only answer point reads and accept the
// Journal's committed writes.
type Backend struct {
	accounts map[types.Address]*Account
}

// NewBackend returns an empty backend.
func NewBackend() *Backend {
	return &Backend{accounts: make(map[types.Address]*Account)}
}

// SetAccount installs (or overwrites) acct at addr, for test and genesis
// setup.
func (b *Backend) SetAccount(addr types.Address, acct *Account) {
	b.accounts[addr] = acct
}

func (b *Backend) get(addr types.Address) *Account {
	return b.accounts[addr]
}
