// Package recompiler flattens expression trees back into instruction
// sequences.
package recompiler

import (
	"github.com/coreos/pkg/capnslog"
	"github.com/pontaoski/bytetree/ast"
	"github.com/pontaoski/bytetree/errors"
	"github.com/pontaoski/bytetree/insn"
	"github.com/pontaoski/bytetree/opcodes"
	"github.com/pontaoski/bytetree/resolver"
	"github.com/pontaoski/bytetree/types"
	"github.com/ztrue/tracerr"
)

var plog = capnslog.NewPackageLogger("github.com/pontaoski/bytetree", "recompiler")

// Session is the state of one recompilation: the output so far and the
// duplicated values already written out.
type Session struct {
	rendered map[int]bool
	out      []insn.Instruction
}

func NewSession() *Session {
	return &Session{rendered: map[int]bool{}}
}

func (s *Session) emit(in insn.Instruction) {
	s.out = append(s.out, in)
}

func must(op opcodes.Opcode, err error) opcodes.Opcode {
	if err != nil {
		panic(err)
	}
	return op
}

// Flatten writes n in post-order: operands first, then the node's own
// instruction. A duplicated value is written once, followed by DUP; any
// later occurrence writes nothing.
func (s *Session) Flatten(n ast.Node) {
	switch v := n.(type) {
	case ast.Labeled:
		s.labeled(v)
		return
	case ast.Duplicate:
		if s.rendered[v.ID] {
			return
		}
		s.rendered[v.ID] = true
		s.Flatten(v.Value)
		s.emit(insn.New(opcodes.DUP))
		return
	}

	for _, child := range ast.Operands(n) {
		s.Flatten(child)
	}
	s.own(n)
}

// labeled places the markers between a node's operands and its own
// instruction, where they were read.
func (s *Session) labeled(v ast.Labeled) {
	marks := []insn.Instruction{v.Mark}
	inner := v.Inner
	for {
		l, ok := inner.(ast.Labeled)
		if !ok {
			break
		}
		marks = append(marks, l.Mark)
		inner = l.Inner
	}

	if d, ok := inner.(ast.Duplicate); ok {
		if s.rendered[d.ID] {
			s.out = append(s.out, marks...)
			return
		}
		s.rendered[d.ID] = true
		s.Flatten(d.Value)
		s.out = append(s.out, marks...)
		s.emit(insn.New(opcodes.DUP))
		return
	}

	for _, child := range ast.Operands(inner) {
		s.Flatten(child)
	}
	s.out = append(s.out, marks...)
	s.own(inner)
}

func (s *Session) own(n ast.Node) {
	switch v := n.(type) {
	case ast.Literal:
		s.emit(literal(v))
	case ast.BinaryOp:
		s.emit(insn.New(must(resolver.ArithOpcode(v.Op.Base(), ast.TypeOf(v)))))
	case ast.Cast:
		from := v.From
		if from.Kind == types.Void {
			from = ast.TypeOf(v.Origin)
		}
		op := must(resolver.CastOpcode(from, v.To))
		if op != opcodes.NOOP {
			s.emit(insn.New(op))
		}
	case ast.CheckCast:
		s.emit(insn.New(opcodes.CHECKCAST, insn.String(v.To.InternalName())))
	case ast.FieldGet:
		op := opcodes.GETFIELD
		if v.Static {
			op = opcodes.GETSTATIC
		}
		s.emit(insn.New(op, insn.String(v.Owner), insn.String(v.Name), insn.String(v.Descriptor)))
	case ast.FieldPut:
		op := opcodes.PUTFIELD
		if v.Static {
			op = opcodes.PUTSTATIC
		}
		s.emit(insn.New(op, insn.String(v.Owner), insn.String(v.Name), insn.String(v.Descriptor)))
	case ast.Invocation:
		s.emit(invocation(v))
	case ast.NewAddress:
		s.emit(insn.New(opcodes.NEW, insn.String(v.Class)))
	case ast.ArrayConstructor:
		if code, ok := resolver.ArrayTypeCode(v.Elem); ok {
			s.emit(insn.New(opcodes.NEWARRAY, insn.Int(code)))
		} else {
			s.emit(insn.New(opcodes.ANEWARRAY, insn.String(v.Elem.InternalName())))
		}
	case ast.StoreArray:
		s.emit(insn.New(must(resolver.ArrayStoreOpcode(storeElem(v)))))
	case ast.If:
		s.emit(insn.New(opcodes.IF_ICMPGT, v.Target))
	case ast.Label:
		s.emit(v.Mark)
	case ast.Return:
		if v.Value == nil {
			s.emit(insn.New(must(resolver.ReturnOpcode(nil))))
		} else {
			t := ast.TypeOf(v.Value)
			s.emit(insn.New(must(resolver.ReturnOpcode(&t))))
		}
	case ast.LocalVariable:
		s.emit(insn.New(must(resolver.LoadOpcode(v.Kind)), insn.Int(v.Slot)))
	case ast.This:
		s.emit(insn.New(opcodes.ALOAD, insn.Int(0)))
	case ast.StoreVariable:
		s.emit(insn.New(must(resolver.StoreOpcode(v.Kind)), insn.Int(v.Slot)))
	case ast.Discard:
		s.emit(insn.New(opcodes.POP))
	case ast.Raw:
		s.emit(v.Instruction)
	default:
		panic(errors.Unsupported{What: ast.Describe(n)})
	}
}

func literal(v ast.Literal) insn.Instruction {
	t := ast.TypeOf(v)

	var (
		in  insn.Instruction
		err error
	)
	if v.Encoding != 0 {
		in, err = resolver.ConstInstructionAs(v.Encoding, v.Value, t)
	} else {
		in, err = resolver.ConstInstruction(v.Value, t)
	}
	if err != nil {
		panic(err)
	}
	return in
}

func invocation(v ast.Invocation) insn.Instruction {
	if v.Kind == ast.Dynamic {
		operands := []insn.Operand{insn.String(v.Name), insn.String(v.Descriptor)}
		return insn.New(opcodes.INVOKEDYNAMIC, append(operands, v.Extra...)...)
	}

	op := opcodes.INVOKEVIRTUAL
	switch v.Kind {
	case ast.Static:
		op = opcodes.INVOKESTATIC
	case ast.Interface:
		op = opcodes.INVOKEINTERFACE
	case ast.Super, ast.Constructor:
		op = opcodes.INVOKESPECIAL
	}

	operands := []insn.Operand{insn.String(v.Owner), insn.String(v.Name), insn.String(v.Descriptor)}
	return insn.New(op, append(operands, v.Extra...)...)
}

// storeElem is the element type a StoreArray is written with: the
// recorded one, else the array's element type, else the stored value's.
func storeElem(v ast.StoreArray) types.Type {
	if v.Elem.Kind != types.Void {
		return v.Elem
	}
	if at, ok := ast.TryTypeOf(v.Array); ok {
		if elem, ok := at.Elem(); ok {
			return elem
		}
	}
	return ast.TypeOf(v.Value)
}

// Instructions returns what was written so far.
func (s *Session) Instructions() []insn.Instruction {
	return s.out
}

// Recompile flattens the given roots, bottom of the stack first.
func Recompile(nodes []ast.Node) (ret []insn.Instruction, err error) {
	defer func() {
		if r := recover(); r != nil {
			rerr, ok := r.(error)
			if !ok {
				panic(r)
			}
			ret = nil
			err = tracerr.Wrap(rerr)
			plog.Debugf("aborted: %s", rerr)
		}
	}()

	s := NewSession()
	for _, n := range nodes {
		s.Flatten(n)
	}
	plog.Tracef("recompiled %d root(s) into %d instruction(s)", len(nodes), len(s.out))

	return s.Instructions(), nil
}
