package state

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/evmkit/evmcore/core/cryptoutil"
	"github.com/evmkit/evmcore/core/types"
	"github.com/evmkit/evmcore/core/u256"
	"github.com/evmkit/evmcore/core/vm"
)

var _ vm.Handler = (*Journal)(nil)

type slotKey struct {
	Addr types.Address
	Key  types.Hash
}

// substate is one call frame's overlay: the accounts it dirtied, the
// addresses it marked for deletion, the EIP-2929 access sets it warmed,
// the EIP-1153 transient slots it wrote, the logs it emitted, and the
// refund delta it accrued. A Journal's frame stack mirrors the
// interpreter's call-frame stack one-to-one.
type substate struct {
	dirty         map[types.Address]*Account
	destructs     mapset.Set[types.Address]
	created       mapset.Set[types.Address]
	accessedAddrs mapset.Set[types.Address]
	accessedSlots mapset.Set[slotKey]
	transient     map[slotKey]types.Hash
	logs          []types.Log
	refundDelta   int64
}

func newSubstate() *substate {
	return &substate{
		dirty:         make(map[types.Address]*Account),
		destructs:     mapset.NewSet[types.Address](),
		created:       mapset.NewSet[types.Address](),
		accessedAddrs: mapset.NewSet[types.Address](),
		accessedSlots: mapset.NewSet[slotKey](),
		transient:     make(map[slotKey]types.Hash),
	}
}

// Journal is the substate stack: a Backend plus a push-down list of
// substate overlays. It implements vm.Handler — the interpreter and
// invoker never see the backend directly.
type Journal struct {
	backend *Backend
	frames  []*substate

	block vm.BlockContext
	tx    vm.TxContext

	txOriginal map[slotKey]types.Hash

	// suicideOnlyInSameTx mirrors vm.Config.SuicideOnlyInSameTx (EIP-6780),
	// fixed for the lifetime of the transaction this Journal backs.
	suicideOnlyInSameTx bool
}

// NewJournal starts a fresh transaction against backend, pushing the
// transaction's base substate frame. eip6780 mirrors the Config flag of
// the same name for the duration of this transaction.
func NewJournal(backend *Backend, block vm.BlockContext, tx vm.TxContext, eip6780 bool) *Journal {
	j := &Journal{backend: backend, block: block, tx: tx, txOriginal: make(map[slotKey]types.Hash), suicideOnlyInSameTx: eip6780}
	j.frames = append(j.frames, newSubstate())
	return j
}

func (j *Journal) top() *substate { return j.frames[len(j.frames)-1] }

func (j *Journal) Block() vm.BlockContext { return j.block }
func (j *Journal) Tx() vm.TxContext       { return j.tx }

// readOnly finds the most recent overlay of addr, without copying.
func (j *Journal) readOnly(addr types.Address) *Account {
	for i := len(j.frames) - 1; i >= 0; i-- {
		if a, ok := j.frames[i].dirty[addr]; ok {
			return a
		}
	}
	return j.backend.get(addr)
}

// mutable returns addr's account overlay in the current frame, cloning it
// from the nearest enclosing frame (or the backend) on first write.
func (j *Journal) mutable(addr types.Address) *Account {
	top := j.top()
	if a, ok := top.dirty[addr]; ok {
		return a
	}
	src := j.readOnly(addr)
	var cp *Account
	if src != nil {
		cp = src.clone()
	} else {
		cp = newAccount()
	}
	top.dirty[addr] = cp
	return cp
}

func (j *Journal) Nonce(addr types.Address) uint64 {
	if a := j.readOnly(addr); a != nil {
		return a.Nonce
	}
	return 0
}

func (j *Journal) Balance(addr types.Address) *u256.Word {
	if a := j.readOnly(addr); a != nil {
		return new(u256.Word).Set(a.Balance)
	}
	return u256.New()
}

func (j *Journal) CodeOf(addr types.Address) []byte {
	if a := j.readOnly(addr); a != nil {
		return a.Code
	}
	return nil
}

func (j *Journal) CodeHash(addr types.Address) types.Hash {
	if a := j.readOnly(addr); a != nil {
		return a.CodeHash
	}
	return types.Hash{}
}

func (j *Journal) CodeSize(addr types.Address) int {
	return len(j.CodeOf(addr))
}

func (j *Journal) Exists(addr types.Address) bool {
	a := j.readOnly(addr)
	return a != nil && !j.IsDeleted(addr)
}

// HasStorage reports whether addr currently has any non-zero storage
// entries, consulted by EIP-7610's CREATE collision check.
func (j *Journal) HasStorage(addr types.Address) bool {
	a := j.readOnly(addr)
	if a == nil {
		return false
	}
	for _, v := range a.Storage {
		if v != (types.Hash{}) {
			return true
		}
	}
	return false
}

func (j *Journal) Storage(addr types.Address, key types.Hash) types.Hash {
	a := j.readOnly(addr)
	if a == nil {
		return types.Hash{}
	}
	return a.Storage[key]
}

func (j *Journal) OriginalStorage(addr types.Address, key types.Hash) types.Hash {
	sk := slotKey{addr, key}
	if v, ok := j.txOriginal[sk]; ok {
		return v
	}
	var v types.Hash
	if a := j.backend.get(addr); a != nil {
		v = a.Storage[key]
	}
	j.txOriginal[sk] = v
	return v
}

func (j *Journal) TransientStorage(addr types.Address, key types.Hash) types.Hash {
	sk := slotKey{addr, key}
	for i := len(j.frames) - 1; i >= 0; i-- {
		if v, ok := j.frames[i].transient[sk]; ok {
			return v
		}
	}
	return types.Hash{}
}

func (j *Journal) SetStorage(addr types.Address, key, value types.Hash) {
	j.mutable(addr).Storage[key] = value
}

func (j *Journal) SetTransientStorage(addr types.Address, key, value types.Hash) {
	j.top().transient[slotKey{addr, key}] = value
}

func (j *Journal) Transfer(from, to types.Address, value *u256.Word) error {
	if err := j.SubBalance(from, value); err != nil {
		return err
	}
	j.AddBalance(to, value)
	return nil
}

// SubBalance and AddBalance are the primitives Transfer is built from;
// the invoker also calls them directly for gas-fee bookkeeping, which
// moves value between a caller and the fee market rather than between
// two tracked accounts.
func (j *Journal) SubBalance(addr types.Address, value *u256.Word) error {
	if u256.IsZero(value) {
		return nil
	}
	a := j.mutable(addr)
	if u256.Lt(a.Balance, value) {
		return vm.ErrOutOfFund
	}
	a.Balance, _ = u256.OverflowingSub(a.Balance, value)
	return nil
}

func (j *Journal) AddBalance(addr types.Address, value *u256.Word) {
	if u256.IsZero(value) {
		return
	}
	a := j.mutable(addr)
	a.Balance, _ = u256.OverflowingAdd(a.Balance, value)
}

func (j *Journal) SetCode(addr types.Address, code []byte) {
	a := j.mutable(addr)
	a.Code = code
	a.CodeHash = cryptoutil.Keccak256Hash(code)
}

func (j *Journal) IncNonce(addr types.Address) error {
	a := j.mutable(addr)
	if a.Nonce == ^uint64(0) {
		return vm.ErrMaxNonce
	}
	a.Nonce++
	return nil
}

func (j *Journal) SetDeleted(addr types.Address) {
	j.top().destructs.Add(addr)
}

func (j *Journal) IsDeleted(addr types.Address) bool {
	for _, f := range j.frames {
		if f.destructs.Contains(addr) {
			return true
		}
	}
	return false
}

func (j *Journal) AppendLog(l types.Log) {
	j.top().logs = append(j.top().logs, l)
}

// MarkCreated records addr as deployed by a CREATE/CREATE2 serviced within
// the current transaction (EIP-6780).
func (j *Journal) MarkCreated(addr types.Address) {
	j.top().created.Add(addr)
}

func (j *Journal) WasCreatedThisTx(addr types.Address) bool {
	for _, f := range j.frames {
		if f.created.Contains(addr) {
			return true
		}
	}
	return false
}

func (j *Journal) SelfDestructSameTxOnly() bool { return j.suicideOnlyInSameTx }

func (j *Journal) addressAccessed(addr types.Address) bool {
	for _, f := range j.frames {
		if f.accessedAddrs.Contains(addr) {
			return true
		}
	}
	return false
}

func (j *Journal) slotAccessed(sk slotKey) bool {
	for _, f := range j.frames {
		if f.accessedSlots.Contains(sk) {
			return true
		}
	}
	return false
}

func (j *Journal) MarkHotAddress(addr types.Address) bool {
	wasCold := !j.addressAccessed(addr)
	j.top().accessedAddrs.Add(addr)
	return wasCold
}

func (j *Journal) MarkHotSlot(addr types.Address, key types.Hash) bool {
	sk := slotKey{addr, key}
	wasCold := !j.slotAccessed(sk)
	j.top().accessedSlots.Add(sk)
	return wasCold
}

func (j *Journal) IsColdAddress(addr types.Address) bool { return !j.addressAccessed(addr) }
func (j *Journal) IsColdSlot(addr types.Address, key types.Hash) bool {
	return !j.slotAccessed(slotKey{addr, key})
}

// PushSubstate opens a new overlay for a nested call frame.
func (j *Journal) PushSubstate() {
	j.frames = append(j.frames, newSubstate())
}

// PopSubstate closes the innermost overlay, folding it into its parent per
// strategy. Commit keeps writes, destructs, logs, and the refund delta;
// Revert keeps only the access-set promotions (EIP-2929 warmth is not
// undone by a revert); Discard throws everything away, used when a frame
// ends in an exceptional halt or its value transfer fails before any code
// runs.
func (j *Journal) PopSubstate(strategy vm.MergeStrategy) {
	n := len(j.frames)
	top := j.frames[n-1]
	j.frames = j.frames[:n-1]
	if len(j.frames) == 0 {
		return
	}
	parent := j.frames[len(j.frames)-1]

	switch strategy {
	case vm.Commit:
		for addr, acct := range top.dirty {
			parent.dirty[addr] = acct
		}
		top.destructs.Each(func(a types.Address) bool { parent.destructs.Add(a); return false })
		top.created.Each(func(a types.Address) bool { parent.created.Add(a); return false })
		for sk, v := range top.transient {
			parent.transient[sk] = v
		}
		parent.logs = append(parent.logs, top.logs...)
		parent.refundDelta += top.refundDelta
		fallthrough
	case vm.RevertStrategy:
		top.accessedAddrs.Each(func(a types.Address) bool { parent.accessedAddrs.Add(a); return false })
		top.accessedSlots.Each(func(s slotKey) bool { parent.accessedSlots.Add(s); return false })
	case vm.Discard:
	}
}

// Logs returns every log committed all the way to the base frame.
func (j *Journal) Logs() []types.Log {
	return j.frames[0].logs
}

func (j *Journal) AddRefund(delta int64) {
	j.top().refundDelta += delta
}

func (j *Journal) Refund() int64 {
	var total int64
	for _, f := range j.frames {
		total += f.refundDelta
	}
	return total
}

// Commit flattens the base frame into the backend, applying every dirtied
// account and deleting every self-destructed one. Call once after the
// invoker's top-level Transact call/create returns successfully.
func (j *Journal) Commit() {
	base := j.frames[0]
	for addr, acct := range base.dirty {
		j.backend.SetAccount(addr, acct)
	}
	base.destructs.Each(func(a types.Address) bool {
		delete(j.backend.accounts, a)
		return false
	})
}
