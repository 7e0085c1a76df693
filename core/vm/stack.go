package vm

import (
	"github.com/evmkit/evmcore/core/u256"
)

// Stack is the EVM operand stack: an ordered sequence of 256-bit words
// bounded by a configured limit (1024 by default).
type Stack struct {
	data  []*u256.Word
	limit int
}

// NewStack returns a new empty stack with the given capacity limit.
func NewStack(limit int) *Stack {
	if limit <= 0 {
		limit = DefaultStackLimit
	}
	return &Stack{data: make([]*u256.Word, 0, 16), limit: limit}
}

// Push pushes val onto the stack. Returns ErrStackOverflow if the stack is
// already at its limit.
func (st *Stack) Push(val *u256.Word) error {
	if len(st.data) >= st.limit {
		return ErrStackOverflow
	}
	st.data = append(st.data, val)
	return nil
}

// Pop removes and returns the top element. The caller must check Len()
// first; popping an empty stack panics, matching the Machine's convention
// of checking min-stack requirements before dispatch.
func (st *Stack) Pop() *u256.Word {
	n := len(st.data) - 1
	v := st.data[n]
	st.data = st.data[:n]
	return v
}

// Peek returns the top element without removing it.
func (st *Stack) Peek() *u256.Word {
	return st.data[len(st.data)-1]
}

// Back returns the nth element from the top (0-indexed: 0 = top).
func (st *Stack) Back(n int) *u256.Word {
	return st.data[len(st.data)-1-n]
}

// Swap exchanges the top element with the nth element from the top.
func (st *Stack) Swap(n int) {
	top := len(st.data) - 1
	st.data[top], st.data[top-n] = st.data[top-n], st.data[top]
}

// Dup duplicates the nth element from the top (1-indexed as in DUPn) and
// pushes the copy. Returns ErrStackOverflow if the stack is full.
func (st *Stack) Dup(n int) error {
	if len(st.data) >= st.limit {
		return ErrStackOverflow
	}
	v := new(u256.Word).Set(st.data[len(st.data)-n])
	st.data = append(st.data, v)
	return nil
}

// Len returns the number of items on the stack.
func (st *Stack) Len() int { return len(st.data) }

// Data returns the underlying stack slice, bottom to top. Callers must not
// mutate the returned slice's length.
func (st *Stack) Data() []*u256.Word { return st.data }
