package decompiler

import (
	"github.com/pontaoski/bytetree/ast"
	"github.com/pontaoski/bytetree/errors"
	"github.com/pontaoski/bytetree/insn"
	"github.com/pontaoski/bytetree/opcodes"
	"github.com/pontaoski/bytetree/resolver"
	"github.com/pontaoski/bytetree/types"
)

// Rule rebuilds nodes for the instructions it claims. Apply must consume
// at least the current instruction.
type Rule interface {
	Name() string
	Opcodes() []opcodes.Opcode
	Apply(m *Machine, in insn.Instruction)
}

func span(from, to opcodes.Opcode) []opcodes.Opcode {
	var ret []opcodes.Opcode
	for op := from; op <= to; op++ {
		ret = append(ret, op)
	}
	return ret
}

func stringOperand(in insn.Instruction, i int) string {
	if i < len(in.Operands) {
		if s, ok := in.Operands[i].(insn.String); ok {
			return string(s)
		}
	}
	panic(errors.BadOperand{Opcode: in.Opcode.String(), Index: i, Want: "a string"})
}

func intOperand(in insn.Instruction, i int) int32 {
	if i < len(in.Operands) {
		if n, ok := in.Operands[i].(insn.Int); ok {
			return int32(n)
		}
	}
	panic(errors.BadOperand{Opcode: in.Opcode.String(), Index: i, Want: "an int"})
}

func methodDescriptor(desc string) types.MethodDescriptor {
	m, err := types.ParseMethodDescriptor(desc)
	if err != nil {
		panic(errors.BadDescriptor{Descriptor: desc, Err: err})
	}
	return m
}

// memberCall reads the owner, name and descriptor operands of a
// non-dynamic invocation.
func memberCall(in insn.Instruction) ast.Invocation {
	owner, name, desc := stringOperand(in, 0), stringOperand(in, 1), stringOperand(in, 2)
	return ast.Invocation{
		Owner:      owner,
		Name:       name,
		Descriptor: desc,
		Extra:      extra(in, 3),
	}
}

func extra(in insn.Instruction, from int) []insn.Operand {
	if len(in.Operands) <= from {
		return nil
	}
	return append([]insn.Operand(nil), in.Operands[from:]...)
}

type constRule struct{}

func (constRule) Name() string { return "const" }

func (constRule) Opcodes() []opcodes.Opcode {
	return span(opcodes.ACONST_NULL, opcodes.LDC2_W)
}

func (constRule) Apply(m *Machine, in insn.Instruction) {
	v, t, ok := resolver.ConstValue(in)
	if !ok {
		panic(errors.BadOperand{Opcode: in.Opcode.String(), Index: 0, Want: "a constant"})
	}

	lit := ast.Literal{Value: v}
	if natural, err := resolver.ConstInstruction(v, t); err != nil || natural.Opcode != in.Opcode {
		lit.Encoding = in.Opcode
	}

	m.Push(lit)
	m.Next()
}

type loadRule struct{}

func (loadRule) Name() string { return "load" }

func (loadRule) Opcodes() []opcodes.Opcode {
	return span(opcodes.ILOAD, opcodes.ALOAD)
}

func (loadRule) Apply(m *Machine, in insn.Instruction) {
	kind, _ := resolver.LoadType(in.Opcode)
	m.Push(m.locals.Load(int(intOperand(in, 0)), kind))
	m.Next()
}

type storeRule struct{}

func (storeRule) Name() string { return "store" }

func (storeRule) Opcodes() []opcodes.Opcode {
	return span(opcodes.ISTORE, opcodes.ASTORE)
}

func (storeRule) Apply(m *Machine, in insn.Instruction) {
	kind, _ := resolver.StoreType(in.Opcode)
	value := m.Pop()
	m.Push(m.locals.Store(int(intOperand(in, 0)), kind, value))
	m.Next()
}

type arithRule struct{}

func (arithRule) Name() string { return "arith" }

func (arithRule) Opcodes() []opcodes.Opcode {
	return span(opcodes.IADD, opcodes.DMUL)
}

func (arithRule) Apply(m *Machine, in insn.Instruction) {
	base, _, _ := resolver.ArithBase(in.Opcode)
	op, _ := ast.OperatorFor(base)
	operands := m.PopN(2)
	m.Push(ast.BinaryOp{Op: op, Left: operands[0], Right: operands[1]})
	m.Next()
}

type castRule struct{}

func (castRule) Name() string { return "cast" }

func (castRule) Opcodes() []opcodes.Opcode {
	return span(opcodes.I2L, opcodes.I2S)
}

func (castRule) Apply(m *Machine, in insn.Instruction) {
	from, to, _ := resolver.CastTypes(in.Opcode)
	m.Push(ast.Cast{From: from, To: to, Origin: m.Pop()})
	m.Next()
}

type checkCastRule struct{}

func (checkCastRule) Name() string { return "checkcast" }

func (checkCastRule) Opcodes() []opcodes.Opcode {
	return []opcodes.Opcode{opcodes.CHECKCAST}
}

func (checkCastRule) Apply(m *Machine, in insn.Instruction) {
	to := types.Object(stringOperand(in, 0))
	m.Push(ast.CheckCast{To: to, Value: m.Pop()})
	m.Next()
}

type fieldRule struct{}

func (fieldRule) Name() string { return "field" }

func (fieldRule) Opcodes() []opcodes.Opcode {
	return span(opcodes.GETSTATIC, opcodes.PUTFIELD)
}

func (fieldRule) Apply(m *Machine, in insn.Instruction) {
	owner, name, desc := stringOperand(in, 0), stringOperand(in, 1), stringOperand(in, 2)

	switch in.Opcode {
	case opcodes.GETSTATIC:
		m.Push(ast.FieldGet{Static: true, Owner: owner, Name: name, Descriptor: desc})
	case opcodes.GETFIELD:
		m.Push(ast.FieldGet{Owner: owner, Name: name, Descriptor: desc, Receiver: m.Pop()})
	case opcodes.PUTSTATIC:
		m.Push(ast.FieldPut{Static: true, Owner: owner, Name: name, Descriptor: desc, Value: m.Pop()})
	case opcodes.PUTFIELD:
		operands := m.PopN(2)
		m.Push(ast.FieldPut{Owner: owner, Name: name, Descriptor: desc, Receiver: operands[0], Value: operands[1]})
	}

	m.Next()
}

type invokeRule struct{}

func (invokeRule) Name() string { return "invoke" }

func (invokeRule) Opcodes() []opcodes.Opcode {
	return []opcodes.Opcode{opcodes.INVOKEVIRTUAL, opcodes.INVOKESTATIC, opcodes.INVOKEINTERFACE, opcodes.INVOKEDYNAMIC}
}

func (invokeRule) Apply(m *Machine, in insn.Instruction) {
	var call ast.Invocation

	if in.Opcode == opcodes.INVOKEDYNAMIC {
		name, desc := stringOperand(in, 0), stringOperand(in, 1)
		call = ast.Invocation{
			Kind:       ast.Dynamic,
			Name:       name,
			Descriptor: desc,
			Extra:      extra(in, 2),
		}
	} else {
		call = memberCall(in)
		switch in.Opcode {
		case opcodes.INVOKESTATIC:
			call.Kind = ast.Static
		case opcodes.INVOKEVIRTUAL:
			call.Kind = ast.Virtual
		case opcodes.INVOKEINTERFACE:
			call.Kind = ast.Interface
		}
	}

	call.Arguments = m.PopN(methodDescriptor(call.Descriptor).Arity())
	if call.Kind == ast.Virtual || call.Kind == ast.Interface {
		call.Receiver = m.Pop()
	}

	m.Push(call)
	m.Next()
}

// specialRule tells constructor calls from calls on the receiver. The
// receiver is looked at through any wrappers: the receiver itself means
// a super (or own private/constructor) call, an allocation marker means
// object construction. Anything else is treated as a super call.
type specialRule struct{}

func (specialRule) Name() string { return "special" }

func (specialRule) Opcodes() []opcodes.Opcode {
	return []opcodes.Opcode{opcodes.INVOKESPECIAL}
}

func (specialRule) Apply(m *Machine, in insn.Instruction) {
	call := memberCall(in)
	call.Arguments = m.PopN(methodDescriptor(call.Descriptor).Arity())
	call.Receiver = m.Pop()

	switch ast.Unwrap(call.Receiver).(type) {
	case ast.This:
		call.Kind = ast.Super
	case ast.NewAddress:
		call.Kind = ast.Constructor
	default:
		call.Kind = ast.Super
	}

	m.Push(call)
	m.Next()
}

type newRule struct{}

func (newRule) Name() string { return "new" }

func (newRule) Opcodes() []opcodes.Opcode {
	return []opcodes.Opcode{opcodes.NEW}
}

func (newRule) Apply(m *Machine, in insn.Instruction) {
	m.Push(ast.NewAddress{Class: stringOperand(in, 0)})
	m.Next()
}

type dupRule struct{}

func (dupRule) Name() string { return "dup" }

func (dupRule) Opcodes() []opcodes.Opcode {
	return []opcodes.Opcode{opcodes.DUP}
}

func (dupRule) Apply(m *Machine, in insn.Instruction) {
	d := m.arena.Duplicate(m.Pop())
	m.Push(d)
	m.Push(d)
	m.Next()
}

type popRule struct{}

func (popRule) Name() string { return "pop" }

func (popRule) Opcodes() []opcodes.Opcode {
	return []opcodes.Opcode{opcodes.POP}
}

func (popRule) Apply(m *Machine, in insn.Instruction) {
	m.Push(ast.Discard{Value: m.Pop()})
	m.Next()
}

type newArrayRule struct{}

func (newArrayRule) Name() string { return "newarray" }

func (newArrayRule) Opcodes() []opcodes.Opcode {
	return []opcodes.Opcode{opcodes.NEWARRAY, opcodes.ANEWARRAY}
}

func (newArrayRule) Apply(m *Machine, in insn.Instruction) {
	var elem types.Type
	if in.Opcode == opcodes.NEWARRAY {
		code := intOperand(in, 0)
		t, ok := resolver.ArrayTypeFromCode(code)
		if !ok {
			panic(errors.BadOperand{Opcode: in.Opcode.String(), Index: 0, Want: "a primitive array type code"})
		}
		elem = t
	} else {
		elem = types.Object(stringOperand(in, 0))
	}

	m.Push(ast.ArrayConstructor{Elem: elem, Size: m.Pop()})
	m.Next()
}

// arrayStoreRule pops value, index and array, and pushes the store back
// so a later DUP of the same array still finds it.
type arrayStoreRule struct{}

func (arrayStoreRule) Name() string { return "arraystore" }

func (arrayStoreRule) Opcodes() []opcodes.Opcode {
	return span(opcodes.IASTORE, opcodes.SASTORE)
}

func (arrayStoreRule) Apply(m *Machine, in insn.Instruction) {
	elem, _ := resolver.ArrayStoreElem(in.Opcode)
	value := m.Pop()
	index := m.Pop()
	array := m.Pop()

	m.Push(ast.StoreArray{Elem: elem, Array: array, Index: index, Value: value})
	m.Next()
}

type branchRule struct{}

func (branchRule) Name() string { return "branch" }

func (branchRule) Opcodes() []opcodes.Opcode {
	return []opcodes.Opcode{opcodes.IF_ICMPGT}
}

func (branchRule) Apply(m *Machine, in insn.Instruction) {
	target := in.Target()
	if target == nil {
		panic(errors.BadOperand{Opcode: in.Opcode.String(), Index: 0, Want: "a label"})
	}

	second := m.Pop()
	first := m.Pop()
	m.Push(ast.If{Cmp: ast.GreaterThan, Left: first, Right: second, Target: target})
	m.Next()
}

type returnRule struct{}

func (returnRule) Name() string { return "return" }

func (returnRule) Opcodes() []opcodes.Opcode {
	return span(opcodes.IRETURN, opcodes.RETURN)
}

func (returnRule) Apply(m *Machine, in insn.Instruction) {
	if in.Opcode == opcodes.RETURN {
		m.Push(ast.Return{})
	} else {
		m.Push(ast.Return{Value: m.Pop()})
	}
	m.Next()
}

// labelRule holds markers until the next node is pushed.
type labelRule struct{}

func (labelRule) Name() string { return "label" }

func (labelRule) Opcodes() []opcodes.Opcode {
	return []opcodes.Opcode{opcodes.LABEL}
}

func (labelRule) Apply(m *Machine, in insn.Instruction) {
	m.pending = append(m.pending, in)
	m.Next()
}

// passthroughRule keeps any other instruction verbatim. It neither pops
// nor interprets operands, so flattening gives back the same bytes.
type passthroughRule struct{}

func (passthroughRule) Name() string { return "passthrough" }

func (passthroughRule) Opcodes() []opcodes.Opcode {
	return nil
}

func (passthroughRule) Apply(m *Machine, in insn.Instruction) {
	m.Push(ast.Raw{Instruction: in})
	m.Next()
}
