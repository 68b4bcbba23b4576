package decompiler

import (
	"fmt"

	"github.com/coreos/pkg/capnslog"
	"github.com/pontaoski/bytetree/ast"
	"github.com/pontaoski/bytetree/errors"
	"github.com/pontaoski/bytetree/insn"
	"github.com/ztrue/tracerr"
)

var plog = capnslog.NewPackageLogger("github.com/pontaoski/bytetree", "decompiler")

// Unit is one instruction sequence to decompile, normally one method
// body. Owner, Static and Descriptor seed the local variable table.
type Unit struct {
	Name         string
	Owner        string
	Descriptor   string
	Static       bool
	Instructions []insn.Instruction
}

// Result is what is left on the operand stack, bottom first, and the
// arena its duplicated values were registered in.
type Result struct {
	Nodes []ast.Node
	Arena *ast.Arena
}

// Machine runs the rules over one unit in a single forward pass.
type Machine struct {
	unit    Unit
	stream  *insn.Stream
	stack   *Stack
	locals  *LocalTable
	arena   *ast.Arena
	pending []insn.Instruction
}

func NewMachine(u Unit) (*Machine, error) {
	locals, err := NewLocalTable(u.Owner, u.Static, u.Descriptor)
	if err != nil {
		return nil, tracerr.Wrap(errors.BadDescriptor{Descriptor: u.Descriptor, Err: err})
	}

	stream := insn.NewStream(u.Instructions)
	return &Machine{
		unit:   u,
		stream: stream,
		stack:  &Stack{stream: stream},
		locals: locals,
		arena:  ast.NewArena(),
	}, nil
}

// Push places n on the stack, wrapped in any markers read since the
// last push.
func (m *Machine) Push(n ast.Node) {
	for i := len(m.pending) - 1; i >= 0; i-- {
		n = ast.Labeled{Mark: m.pending[i], Inner: n}
	}
	m.pending = nil
	m.stack.Push(n)
}

func (m *Machine) Pop() ast.Node {
	return m.stack.Pop()
}

func (m *Machine) PopN(n int) []ast.Node {
	return m.stack.PopN(n)
}

// Next consumes the current instruction.
func (m *Machine) Next() {
	m.stream.Advance()
}

func (m *Machine) step() {
	m.apply(Route(m.stream.Current()))
}

// apply runs rule on the current instruction and checks it consumed it.
func (m *Machine) apply(rule Rule) {
	pos := m.stream.Position()
	in := m.stream.Current()

	plog.Tracef("%s %d: %s -> %s", m.unit.Name, pos, in, rule.Name())
	rule.Apply(m, in)

	if m.stream.Position() <= pos {
		panic(errors.InvalidMachineState{Rule: rule.Name(), Opcode: in.Opcode.String(), Position: pos})
	}
}

// Run drives the machine until the stream is exhausted. A fatal
// condition aborts the unit and is returned as the error.
func (m *Machine) Run() (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			rerr, ok := r.(error)
			if !ok {
				panic(r)
			}
			res = nil
			err = tracerr.Wrap(rerr)
			plog.Debugf("%s: aborted: %s", m.unit.Name, rerr)
		}
	}()

	for !m.stream.Empty() {
		m.step()
	}
	for _, mark := range m.pending {
		m.stack.Push(ast.Label{Mark: mark})
	}
	m.pending = nil

	return &Result{Nodes: m.stack.Values(), Arena: m.arena}, nil
}

// Decompile rebuilds the expression trees of u.
func Decompile(u Unit) (*Result, error) {
	m, err := NewMachine(u)
	if err != nil {
		return nil, err
	}
	return m.Run()
}

// DecompileInstructions is Decompile for a static sequence without a
// method context.
func DecompileInstructions(insns []insn.Instruction) ([]ast.Node, error) {
	res, err := Decompile(Unit{Name: fmt.Sprintf("<%d instructions>", len(insns)), Static: true, Instructions: insns})
	if err != nil {
		return nil, err
	}
	return res.Nodes, nil
}
