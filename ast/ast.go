// Package ast is the expression tree shared by the decompiler and the
// recompiler. The node set is closed; every variant is a value type and
// is never mutated after construction.
package ast

import (
	"github.com/pontaoski/bytetree/insn"
	"github.com/pontaoski/bytetree/opcodes"
	"github.com/pontaoski/bytetree/types"
)

type Node interface {
	is_Node()
}

// Typed is implemented by the variants that have a resolvable type.
// Type panics with errors.TypeResolutionFailure when a child it depends
// on is untyped.
type Typed interface {
	Node
	Type() types.Type
}

// Wrapper is implemented by variants that stand in for another node
// without changing its value.
type Wrapper interface {
	Node
	Underlying() Node
}

// Literal is a constant. Declared overrides the type inferred from
// Value. Encoding, when not zero, is the opcode the literal was read
// from and is reused on flattening.
type Literal struct {
	Value    interface{}
	Declared *types.Type
	Encoding opcodes.Opcode
}

func (v Literal) is_Node() {}

type Operator int

const (
	Add Operator = iota
	Sub
	Mul
)

type BinaryOp struct {
	Op    Operator
	Left  Node
	Right Node
}

func (v BinaryOp) is_Node() {}

// Cast is a primitive conversion of Origin to To. From is the source
// type the conversion was read as; a Void kind means Origin's own type.
type Cast struct {
	From   types.Type
	To     types.Type
	Origin Node
}

func (v Cast) is_Node() {}

// CheckCast is a runtime assertion that Value is a To.
type CheckCast struct {
	To    types.Type
	Value Node
}

func (v CheckCast) is_Node() {}

type FieldGet struct {
	Static     bool
	Owner      string
	Name       string
	Descriptor string
	Receiver   Node
}

func (v FieldGet) is_Node() {}

type FieldPut struct {
	Static     bool
	Owner      string
	Name       string
	Descriptor string
	Receiver   Node
	Value      Node
}

func (v FieldPut) is_Node() {}

type InvokeKind int

const (
	Static InvokeKind = iota
	Virtual
	Interface
	Dynamic
	Super
	Constructor
)

// Invocation is a method call. Extra keeps operands beyond owner, name
// and descriptor (bootstrap arguments of INVOKEDYNAMIC, the interface
// flag) verbatim.
type Invocation struct {
	Kind       InvokeKind
	Owner      string
	Name       string
	Descriptor string
	Receiver   Node
	Arguments  []Node
	Extra      []insn.Operand
}

func (v Invocation) is_Node() {}

// NewAddress is an allocated but not yet initialized instance.
type NewAddress struct {
	Class string
}

func (v NewAddress) is_Node() {}

type ArrayConstructor struct {
	Elem types.Type
	Size Node
}

func (v ArrayConstructor) is_Node() {}

// StoreArray writes Value at Index of Array and evaluates to Array.
// Elem is the written element type; a Void kind means unknown.
type StoreArray struct {
	Elem  types.Type
	Array Node
	Index Node
	Value Node
}

func (v StoreArray) is_Node() {}

type Comparison int

const (
	GreaterThan Comparison = iota
)

// If is a conditional jump to Target. It stays on the operand stack, so
// it is both a value and a control flow edge.
type If struct {
	Cmp    Comparison
	Left   Node
	Right  Node
	Target *insn.Label
}

func (v If) is_Node() {}

// Label is a marker pseudo-instruction that was not followed by any
// node.
type Label struct {
	Mark insn.Instruction
}

func (v Label) is_Node() {}

// Labeled is a node whose own instruction was preceded by a marker.
type Labeled struct {
	Mark  insn.Instruction
	Inner Node
}

func (v Labeled) is_Node() {}

// Duplicate is a value that was duplicated on the stack. Every stack
// entry holding it shares the ID; only the first one flattened emits
// Value and the DUP.
type Duplicate struct {
	ID    int
	Value Node
}

func (v Duplicate) is_Node() {}

type Return struct {
	Value Node
}

func (v Return) is_Node() {}

type LocalVariable struct {
	Slot int
	Kind types.Type
}

func (v LocalVariable) is_Node() {}

// This is slot 0 of an instance method.
type This struct {
	Class string
}

func (v This) is_Node() {}

type StoreVariable struct {
	Slot  int
	Kind  types.Type
	Value Node
}

func (v StoreVariable) is_Node() {}

// Discard is a value produced and then popped.
type Discard struct {
	Value Node
}

func (v Discard) is_Node() {}

// Raw is an instruction no rule understands, kept verbatim.
type Raw struct {
	Instruction insn.Instruction
}

func (v Raw) is_Node() {}

func Const(v interface{}) Literal {
	return Literal{Value: v}
}

func TypedConst(v interface{}, t types.Type) Literal {
	return Literal{Value: v, Declared: &t}
}

func (l Labeled) Underlying() Node {
	return l.Inner
}

func (d Duplicate) Underlying() Node {
	return d.Value
}

// Unwrap strips every wrapper around n.
func Unwrap(n Node) Node {
	for {
		w, ok := n.(Wrapper)
		if !ok {
			return n
		}
		n = w.Underlying()
	}
}

// Base is the int-typed opcode of the operator's family.
func (o Operator) Base() opcodes.Opcode {
	switch o {
	case Sub:
		return opcodes.ISUB
	case Mul:
		return opcodes.IMUL
	}
	return opcodes.IADD
}

func OperatorFor(base opcodes.Opcode) (Operator, bool) {
	switch base {
	case opcodes.IADD:
		return Add, true
	case opcodes.ISUB:
		return Sub, true
	case opcodes.IMUL:
		return Mul, true
	}
	return 0, false
}

// Operands lists the children of n in the order their values were
// pushed.
func Operands(n Node) []Node {
	var ret []Node
	add := func(ns ...Node) {
		for _, c := range ns {
			if c != nil {
				ret = append(ret, c)
			}
		}
	}

	switch v := n.(type) {
	case BinaryOp:
		add(v.Left, v.Right)
	case Cast:
		add(v.Origin)
	case CheckCast:
		add(v.Value)
	case FieldGet:
		add(v.Receiver)
	case FieldPut:
		add(v.Receiver, v.Value)
	case Invocation:
		add(v.Receiver)
		add(v.Arguments...)
	case ArrayConstructor:
		add(v.Size)
	case StoreArray:
		add(v.Array, v.Index, v.Value)
	case If:
		add(v.Left, v.Right)
	case Labeled:
		add(v.Inner)
	case Duplicate:
		add(v.Value)
	case Return:
		add(v.Value)
	case StoreVariable:
		add(v.Value)
	case Discard:
		add(v.Value)
	}

	return ret
}
