package state

import (
	"testing"

	"github.com/evmkit/evmcore/core/types"
	"github.com/evmkit/evmcore/core/u256"
	"github.com/evmkit/evmcore/core/vm"
)

func freshJournal(eip6780 bool) (*Journal, *Backend) {
	backend := NewBackend()
	block := vm.BlockContext{
		Number:   u256.FromUint64(1),
		Coinbase: types.HexToAddress("0xc0ffee00000000000000000000000000000000"),
		GasLimit: 30_000_000,
	}
	tx := vm.TxContext{GasPrice: u256.FromUint64(1), ChainID: u256.FromUint64(1)}
	j := NewJournal(backend, block, tx, eip6780)
	return j, backend
}

func fund(backend *Backend, addr types.Address, balance uint64) {
	backend.SetAccount(addr, &Account{Balance: u256.FromUint64(balance), Storage: make(map[types.Hash]types.Hash)})
}

var (
	alice = types.HexToAddress("0x1111111111111111111111111111111111111111")
	bob   = types.HexToAddress("0x2222222222222222222222222222222222222222")
	carol = types.HexToAddress("0x3333333333333333333333333333333333333333")
)

// TestPlainTransferConservesGas exercises a value transfer to an account
// with no code: the root frame executes nothing but the implicit STOP past
// the end of an empty code array, so the only gas charged is the
// transaction's intrinsic cost, and gasLimit*gasPrice splits exactly
// between the caller's refund and the coinbase's fee.
func TestPlainTransferConservesGas(t *testing.T) {
	j, _ := freshJournal(true)
	fund(j.backend, alice, 1_000_000)

	inv := vm.NewInvoker(vm.CancunConfig())
	msg := vm.CallMessage{
		Caller:   alice,
		To:       bob,
		Value:    u256.FromUint64(1000),
		GasLimit: 21000,
		GasPrice: u256.FromUint64(1),
	}
	result := inv.TransactCall(j, msg)
	if !result.Exit.Kind.Succeeded() {
		t.Fatalf("exit = %v, want success", result.Exit)
	}
	if result.UsedGas != 21000 {
		t.Errorf("UsedGas = %d, want 21000 (intrinsic only, no code at target)", result.UsedGas)
	}
	if got := j.Balance(bob); !u256.Eq(got, u256.FromUint64(1000)) {
		t.Errorf("bob's balance = %s, want 1000", u256.Hex(got))
	}
	wantAliceBalance := uint64(1_000_000) - 1000 - result.UsedGas
	if got := j.Balance(alice); !u256.Eq(got, u256.FromUint64(wantAliceBalance)) {
		t.Errorf("alice's balance = %s, want %d", u256.Hex(got), wantAliceBalance)
	}
	if got := j.Balance(j.Block().Coinbase); !u256.Eq(got, u256.FromUint64(result.UsedGas)) {
		t.Errorf("coinbase balance = %s, want %d (gasUsed*gasPrice)", u256.Hex(got), result.UsedGas)
	}
}

// TestSimpleReturn deploys code that stores 42 at memory offset 0 and
// returns the 32-byte word, confirming RETURN's (offset, length) stack
// order and the memory-expansion gas accounting that precedes it.
func TestSimpleReturn(t *testing.T) {
	j, _ := freshJournal(true)
	fund(j.backend, alice, 1_000_000)

	code := []byte{
		byte(vm.PUSH1), 0x2a, // value = 42
		byte(vm.PUSH1), 0x00, // offset
		byte(vm.MSTORE),
		byte(vm.PUSH1), 0x20, // length = 32
		byte(vm.PUSH1), 0x00, // offset
		byte(vm.RETURN),
	}
	j.SetCode(bob, code)
	j.Commit()

	inv := vm.NewInvoker(vm.CancunConfig())
	msg := vm.CallMessage{Caller: alice, To: bob, GasLimit: 100000, GasPrice: u256.FromUint64(1)}
	result := inv.TransactCall(j, msg)
	if result.Exit.Kind != vm.ExitSucceedReturned {
		t.Fatalf("exit = %+v, want ExitSucceedReturned", result.Exit)
	}
	want := u256.ToBytes32(u256.FromUint64(42))
	if len(result.Exit.ReturnData) != 32 {
		t.Fatalf("return data len = %d, want 32", len(result.Exit.ReturnData))
	}
	for i := range want {
		if result.Exit.ReturnData[i] != want[i] {
			t.Fatalf("return data = %x, want %x", result.Exit.ReturnData, want)
		}
	}
}

// TestRevertKeepsUnusedGas confirms a REVERT's remaining gas is refunded to
// the caller rather than consumed entirely, unlike an exceptional abort.
func TestRevertKeepsUnusedGas(t *testing.T) {
	j, _ := freshJournal(true)
	fund(j.backend, alice, 1_000_000)

	code := []byte{
		byte(vm.PUSH1), 0x00, // length
		byte(vm.PUSH1), 0x00, // offset
		byte(vm.REVERT),
	}
	j.SetCode(bob, code)
	j.Commit()

	inv := vm.NewInvoker(vm.CancunConfig())
	gasLimit := uint64(100000)
	msg := vm.CallMessage{Caller: alice, To: bob, GasLimit: gasLimit, GasPrice: u256.FromUint64(1)}
	result := inv.TransactCall(j, msg)
	if result.Exit.Kind != vm.ExitRevert {
		t.Fatalf("exit kind = %v, want ExitRevert", result.Exit.Kind)
	}
	intrinsic := uint64(21000)
	execCost := 2 * vm.GasVeryLow // two PUSH1s before REVERT
	if result.UsedGas != intrinsic+execCost {
		t.Errorf("UsedGas = %d, want %d (intrinsic + two PUSH1s, nothing charged for the revert itself)", result.UsedGas, intrinsic+execCost)
	}
}

// TestJumpToJumpdestSucceedsJumpToNonJumpdestFails exercises both the valid
// and invalid branches of JUMP destination validation against the same
// jumpdest analysis.
func TestJumpToJumpdestSucceedsJumpToNonJumpdestFails(t *testing.T) {
	j, _ := freshJournal(true)
	fund(j.backend, alice, 1_000_000)

	valid := []byte{
		byte(vm.PUSH1), 0x03, // dest = 3
		byte(vm.JUMP),
		byte(vm.JUMPDEST),
		byte(vm.STOP),
	}
	j.SetCode(bob, valid)
	j.Commit()

	inv := vm.NewInvoker(vm.CancunConfig())
	result := inv.TransactCall(j, vm.CallMessage{Caller: alice, To: bob, GasLimit: 100000, GasPrice: u256.FromUint64(1)})
	if !result.Exit.Kind.Succeeded() {
		t.Fatalf("jump to a real JUMPDEST: exit = %+v, want success", result.Exit)
	}

	invalid := []byte{
		byte(vm.PUSH1), 0x03, // dest = 3, which is STOP, not JUMPDEST
		byte(vm.JUMP),
		byte(vm.STOP),
		byte(vm.STOP),
	}
	j2, _ := freshJournal(true)
	fund(j2.backend, alice, 1_000_000)
	j2.SetCode(bob, invalid)
	j2.Commit()
	result2 := inv.TransactCall(j2, vm.CallMessage{Caller: alice, To: bob, GasLimit: 100000, GasPrice: u256.FromUint64(1)})
	if result2.Exit.Kind != vm.ExitError || result2.Exit.Err != vm.ErrInvalidJump {
		t.Fatalf("jump to a non-JUMPDEST: exit = %+v, want ExitError(ErrInvalidJump)", result2.Exit)
	}
}

// TestTstoreInsideStaticCallIsRejected confirms TSTORE inside a STATICCALL
// fails write-protection the same as any other state-mutating opcode: bob
// STATICCALLs carol, who attempts a TSTORE and aborts; bob records the
// STATICCALL's (failure) result in its own storage so the test can observe
// it without reaching into either Machine directly.
func TestTstoreInsideStaticCallIsRejected(t *testing.T) {
	j, _ := freshJournal(true)
	fund(j.backend, alice, 1_000_000)

	carolCode := []byte{
		byte(vm.PUSH1), 0x07, // val
		byte(vm.PUSH1), 0x01, // key
		byte(vm.TSTORE),
		byte(vm.STOP),
	}
	j.SetCode(carol, carolCode)

	bobCode := []byte{
		byte(vm.PUSH1), 0x00, // outLen
		byte(vm.PUSH1), 0x00, // outOffset
		byte(vm.PUSH1), 0x00, // inLen
		byte(vm.PUSH1), 0x00, // inOffset
		byte(vm.PUSH20),
		0x33, 0x33, 0x33, 0x33, 0x33, 0x33, 0x33, 0x33, 0x33, 0x33,
		0x33, 0x33, 0x33, 0x33, 0x33, 0x33, 0x33, 0x33, 0x33, 0x33, // carol
		byte(vm.PUSH2), 0x30, 0x39, // gas = 12345
		byte(vm.STATICCALL),
		byte(vm.PUSH1), 0x01, // storage key
		byte(vm.SSTORE),
		byte(vm.STOP),
	}
	j.SetCode(bob, bobCode)
	j.Commit()

	inv := vm.NewInvoker(vm.CancunConfig())
	result := inv.TransactCall(j, vm.CallMessage{Caller: alice, To: bob, GasLimit: 200000, GasPrice: u256.FromUint64(1)})
	if !result.Exit.Kind.Succeeded() {
		t.Fatalf("exit = %+v, want success (the STATICCALL fails, but bob keeps running)", result.Exit)
	}

	got := j.Storage(bob, types.BytesToHash([]byte{0x01}))
	want := types.Hash{} // zero: the STATICCALL pushed failure (0), which bob stored as-is
	if got != want {
		t.Errorf("bob's recorded STATICCALL result = %x, want all-zero (TSTORE inside a static call must fail)", got)
	}
}

// TestCreate2AddressMatchesFormula confirms TransactCreate with a non-nil
// Salt deploys at exactly the CREATE2 formula's address.
func TestCreate2AddressMatchesFormula(t *testing.T) {
	j, _ := freshJournal(true)
	fund(j.backend, alice, 1_000_000)

	// Trivial init code: PUSH1 0 PUSH1 0 RETURN (deploys empty code).
	initCode := []byte{byte(vm.PUSH1), 0x00, byte(vm.PUSH1), 0x00, byte(vm.RETURN)}
	salt := u256.FromUint64(7)

	inv := vm.NewInvoker(vm.CancunConfig())
	msg := vm.CreateMessage{Caller: alice, InitCode: initCode, GasLimit: 200000, GasPrice: u256.FromUint64(1), Salt: salt}
	result := inv.TransactCreate(j, msg)
	if !result.Exit.Kind.Succeeded() {
		t.Fatalf("exit = %+v, want success", result.Exit)
	}
	want := vm.Create2Address(alice, salt, initCode)
	if result.CreatedAddr != want {
		t.Errorf("CreatedAddr = %s, want %s", result.CreatedAddr, want)
	}
}

// TestCreateCollisionRejectsExistingContract confirms CREATE refuses to
// deploy over an address that already carries code.
func TestCreateCollisionRejectsExistingContract(t *testing.T) {
	j, _ := freshJournal(true)
	fund(j.backend, alice, 1_000_000)

	target := vm.CreateAddress(alice, 0)
	j.SetCode(target, []byte{byte(vm.STOP)})
	j.Commit()

	inv := vm.NewInvoker(vm.CancunConfig())
	initCode := []byte{byte(vm.PUSH1), 0x00, byte(vm.PUSH1), 0x00, byte(vm.RETURN)}
	result := inv.TransactCreate(j, vm.CreateMessage{Caller: alice, InitCode: initCode, GasLimit: 200000, GasPrice: u256.FromUint64(1)})
	if result.Exit.Kind != vm.ExitError || result.Exit.Err != vm.ErrCreateCollision {
		t.Fatalf("exit = %+v, want ExitError(ErrCreateCollision)", result.Exit)
	}
}

// TestCallStackLimitExceededStaysGasNeutral confirms that a CALL trapped at
// the call-stack depth limit never manufactures gas: the amount it attempted
// to forward is debited from the caller and then credited back in full, so
// none of it is charged. With CallStackLimit set to 0, even the root frame's
// own CALL is already too deep, so the whole transaction's gas accounting
// has to come out exactly as if the CALL had forwarded its gas and had all
// of it returned unused.
func TestCallStackLimitExceededStaysGasNeutral(t *testing.T) {
	j, _ := freshJournal(true)
	fund(j.backend, alice, 1_000_000)

	code := []byte{
		byte(vm.PUSH1), 0x00, // outLen
		byte(vm.PUSH1), 0x00, // outOffset
		byte(vm.PUSH1), 0x00, // inLen
		byte(vm.PUSH1), 0x00, // inOffset
		byte(vm.PUSH1), 0x00, // value
		byte(vm.PUSH20),
		0x33, 0x33, 0x33, 0x33, 0x33, 0x33, 0x33, 0x33, 0x33, 0x33,
		0x33, 0x33, 0x33, 0x33, 0x33, 0x33, 0x33, 0x33, 0x33, 0x33, // target
		byte(vm.GAS), // forward (almost) everything remaining
		byte(vm.CALL),
		byte(vm.STOP),
	}
	j.SetCode(bob, code)
	j.Commit()

	cfg := vm.CancunConfig()
	cfg.CallStackLimit = 0
	inv := vm.NewInvoker(cfg)
	gasLimit := uint64(100000)
	result := inv.TransactCall(j, vm.CallMessage{Caller: alice, To: bob, GasLimit: gasLimit, GasPrice: u256.FromUint64(1)})
	if !result.Exit.Kind.Succeeded() {
		t.Fatalf("exit = %+v, want success (the CALL fails, but execution continues to STOP)", result.Exit)
	}

	// Expected cost is exactly: intrinsic + five PUSH1s + one PUSH20 + GAS +
	// CALL's own cold-address-access charge. None of the gas the CALL
	// attempted to forward should ever show up here — a too-deep CALL that
	// manufactures gas would inflate the machine's remaining gas past its
	// original budget and wrap UsedGas to a huge number instead.
	wantUsedGas := uint64(21000) + 5*vm.GasVeryLow + vm.GasVeryLow + vm.GasBase + vm.ColdAccountAccessCost
	if result.UsedGas != wantUsedGas {
		t.Errorf("UsedGas = %d, want %d (a too-deep CALL must not manufacture gas)", result.UsedGas, wantUsedGas)
	}

	wantAliceBalance := uint64(1_000_000) - result.UsedGas
	if got := j.Balance(alice); !u256.Eq(got, u256.FromUint64(wantAliceBalance)) {
		t.Errorf("alice's balance = %s, want %d", u256.Hex(got), wantAliceBalance)
	}
	if got := j.Balance(j.Block().Coinbase); !u256.Eq(got, u256.FromUint64(result.UsedGas)) {
		t.Errorf("coinbase balance = %s, want %d (gasUsed*gasPrice)", u256.Hex(got), result.UsedGas)
	}
}

// TestSelfDestructRestrictedToSameTxUnderEIP6780 confirms a SELFDESTRUCT
// against an account created in an earlier transaction only transfers its
// balance, leaving its code intact and the account not deleted, once Config
// enables EIP-6780.
func TestSelfDestructRestrictedToSameTxUnderEIP6780(t *testing.T) {
	j, _ := freshJournal(true)
	fund(j.backend, alice, 1_000_000)

	// bob already existed before this transaction.
	minimal := []byte{
		byte(vm.PUSH20),
		0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11,
		0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11,
		byte(vm.SELFDESTRUCT),
	}
	j.SetCode(bob, minimal)
	j.Commit()

	inv := vm.NewInvoker(vm.CancunConfig())
	result := inv.TransactCall(j, vm.CallMessage{Caller: alice, To: bob, GasLimit: 100000, GasPrice: u256.FromUint64(1)})
	if !result.Exit.Kind.Succeeded() {
		t.Fatalf("exit = %+v, want success", result.Exit)
	}
	if j.IsDeleted(bob) {
		t.Errorf("bob was created before this transaction; EIP-6780 should block actual deletion")
	}
	if len(j.CodeOf(bob)) == 0 {
		t.Errorf("bob's code should survive a pre-existing-account SELFDESTRUCT under EIP-6780")
	}
}
