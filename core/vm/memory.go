package vm

import "github.com/evmkit/evmcore/core/u256"

// Memory is the EVM's byte-addressable, word-expanding scratch space. It
// starts empty; resizing always rounds the active length up to the next
// multiple of 32 bytes, and reads past the active area return zero bytes.
type Memory struct {
	store []byte
}

// NewMemory returns a new, empty Memory.
func NewMemory() *Memory { return &Memory{} }

// Len returns the current active length in bytes (always a multiple of 32,
// or 0).
func (m *Memory) Len() uint64 { return uint64(len(m.store)) }

// Resize grows the active memory so it covers at least `size` bytes,
// rounding up to the next 32-byte word. It never shrinks memory: within a
// frame, active size only ever increases.
func (m *Memory) Resize(size uint64) {
	if size <= uint64(len(m.store)) {
		return
	}
	words := (size + 31) / 32
	newLen := words * 32
	grown := make([]byte, newLen)
	copy(grown, m.store)
	m.store = grown
}

// ResizeOffset enlarges active memory to cover [offset, offset+length), per
// resize_offset in the data model. A zero length never grows memory.
func (m *Memory) ResizeOffset(offset, length uint64) {
	if length == 0 {
		return
	}
	m.Resize(offset + length)
}

// Set writes value into memory at offset. The caller must have resized
// memory to fit first.
func (m *Memory) Set(offset uint64, value []byte) {
	if len(value) == 0 {
		return
	}
	copy(m.store[offset:offset+uint64(len(value))], value)
}

// Set32 writes a 32-byte big-endian encoding of val at offset.
func (m *Memory) Set32(offset uint64, val *u256.Word) {
	b := val.Bytes32()
	copy(m.store[offset:offset+32], b[:])
}

// Get returns a fresh copy of memory in [offset, offset+size). Bytes past
// the active length read as zero.
func (m *Memory) Get(offset, size uint64) []byte {
	if size == 0 {
		return nil
	}
	out := make([]byte, size)
	if offset >= uint64(len(m.store)) {
		return out
	}
	end := offset + size
	if end > uint64(len(m.store)) {
		end = uint64(len(m.store))
	}
	copy(out, m.store[offset:end])
	return out
}

// GetPtr returns a direct slice into the backing store; callers must not
// retain it across a resize.
func (m *Memory) GetPtr(offset, size uint64) []byte {
	if size == 0 {
		return nil
	}
	return m.store[offset : offset+size]
}

// Data returns the full backing slice.
func (m *Memory) Data() []byte { return m.store }

// words returns the active length in 32-byte words.
func (m *Memory) words() uint64 { return uint64(len(m.store)) / 32 }
