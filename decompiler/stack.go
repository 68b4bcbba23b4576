package decompiler

import (
	"github.com/pontaoski/bytetree/ast"
	"github.com/pontaoski/bytetree/errors"
	"github.com/pontaoski/bytetree/insn"
)

// Stack is the simulated operand stack. Underflow panics with
// errors.StackUnderflow.
type Stack struct {
	values []ast.Node
	stream *insn.Stream
}

func NewStack() *Stack {
	return &Stack{}
}

func (s *Stack) at() int {
	if s.stream == nil {
		return -1
	}
	return s.stream.Position()
}

func (s *Stack) Push(n ast.Node) {
	s.values = append(s.values, n)
}

func (s *Stack) Pop() ast.Node {
	if len(s.values) == 0 {
		panic(errors.StackUnderflow{Requested: 1, Available: 0, At: s.at()})
	}
	top := s.values[len(s.values)-1]
	s.values = s.values[:len(s.values)-1]
	return top
}

// PopN pops n values and returns them in the order they were pushed.
func (s *Stack) PopN(n int) []ast.Node {
	if n > len(s.values) {
		panic(errors.StackUnderflow{Requested: n, Available: len(s.values), At: s.at()})
	}

	ret := make([]ast.Node, n)
	for i := n - 1; i >= 0; i-- {
		ret[i] = s.Pop()
	}
	return ret
}

func (s *Stack) Peek() ast.Node {
	if len(s.values) == 0 {
		panic(errors.StackUnderflow{Requested: 1, Available: 0, At: s.at()})
	}
	return s.values[len(s.values)-1]
}

func (s *Stack) Len() int {
	return len(s.values)
}

// Values returns the stack bottom first.
func (s *Stack) Values() []ast.Node {
	ret := make([]ast.Node, len(s.values))
	copy(ret, s.values)
	return ret
}
