package insn

import (
	"fmt"
	"strings"

	"github.com/pontaoski/bytetree/opcodes"
)

// Operand is one immediate value of an instruction.
type Operand interface {
	is_Operand()
}

type Int int32

func (v Int) is_Operand() {}

type Long int64

func (v Long) is_Operand() {}

type Float float32

func (v Float) is_Operand() {}

type Double float64

func (v Double) is_Operand() {}

type String string

func (v String) is_Operand() {}

// TypeRef is a class literal loaded by LDC.
type TypeRef string

func (v TypeRef) is_Operand() {}

type Bool bool

func (v Bool) is_Operand() {}

// Label is a jump target. Labels compare by identity only; Name is for
// humans.
type Label struct {
	Name string
}

func (v *Label) is_Operand() {}

func NewLabel(name string) *Label {
	return &Label{Name: name}
}

func (v *Label) String() string {
	if v == nil {
		return "<nil label>"
	}
	return v.Name
}

type Instruction struct {
	Opcode   opcodes.Opcode
	Operands []Operand
	IsLabel  bool
}

func New(op opcodes.Opcode, operands ...Operand) Instruction {
	return Instruction{Opcode: op, Operands: operands}
}

// Mark returns the pseudo-instruction placing l in the listing.
func Mark(l *Label) Instruction {
	return Instruction{Opcode: opcodes.LABEL, Operands: []Operand{l}, IsLabel: true}
}

// Target returns the first label operand, if any.
func (i Instruction) Target() *Label {
	for _, op := range i.Operands {
		if l, ok := op.(*Label); ok {
			return l
		}
	}
	return nil
}

func (i Instruction) String() string {
	if i.IsLabel {
		if l := i.Target(); l != nil {
			return l.Name + ":"
		}
	}
	if len(i.Operands) == 0 {
		return i.Opcode.String()
	}

	parts := []string{i.Opcode.String()}
	for _, op := range i.Operands {
		parts = append(parts, OperandString(op))
	}
	return strings.Join(parts, " ")
}

func OperandString(op Operand) string {
	switch v := op.(type) {
	case Int:
		return fmt.Sprintf("%d", int32(v))
	case Long:
		return fmt.Sprintf("%dL", int64(v))
	case Float:
		return fmt.Sprintf("%gF", float32(v))
	case Double:
		return fmt.Sprintf("%gD", float64(v))
	case String:
		return fmt.Sprintf("%q", string(v))
	case TypeRef:
		return string(v) + ".class"
	case Bool:
		return fmt.Sprintf("%t", bool(v))
	case *Label:
		return v.String()
	}
	return fmt.Sprintf("%v", op)
}

// Names lists the mnemonics of a sequence, the unit of comparison for
// round trips.
func Names(insns []Instruction) []string {
	ret := make([]string, len(insns))
	for i, in := range insns {
		ret[i] = in.Opcode.String()
	}
	return ret
}
