// Package llvmexport lowers decompiled units into LLVM IR functions.
// Only straight-line arithmetic, locals, static members, string
// constants and simple branches are understood; anything else is
// reported as errors.Unsupported.
package llvmexport

import (
	"fmt"
	"hash/fnv"
	"strconv"

	"github.com/coreos/pkg/capnslog"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/pontaoski/bytetree/ast"
	"github.com/pontaoski/bytetree/decompiler"
	"github.com/pontaoski/bytetree/errors"
	"github.com/pontaoski/bytetree/insn"
	"github.com/pontaoski/bytetree/opcodes"
	jvm "github.com/pontaoski/bytetree/types"
	"github.com/ztrue/tracerr"
)

var plog = capnslog.NewPackageLogger("github.com/pontaoski/bytetree", "llvmexport")

// Exporter collects lowered units into one module. Declarations of
// called methods, static fields and string constants are shared.
type Exporter struct {
	m       *ir.Module
	externs map[string]*ir.Func
	globals map[string]*ir.Global
	strings map[string]value.Value
	lowered map[string]string
	// undo takes back the shared declarations made by the unit being
	// lowered.
	undo []func()
}

func NewExporter() *Exporter {
	return &Exporter{
		m:       ir.NewModule(),
		externs: map[string]*ir.Func{},
		globals: map[string]*ir.Global{},
		strings: map[string]value.Value{},
		lowered: map[string]string{},
	}
}

func (e *Exporter) Module() *ir.Module {
	return e.m
}

// Symbol is the LLVM name of a method or field. The descriptor is part
// of it so overloads do not collide.
func Symbol(owner, name, descriptor string) string {
	if owner == "" {
		return name + descriptor
	}
	return owner + "." + name + descriptor
}

func hash(s string) string {
	h := fnv.New32a()
	h.Write([]byte(s))
	return strconv.FormatUint(uint64(h.Sum32()), 10)
}

type local struct {
	typ   jvm.Type
	alloc *ir.InstAlloca
}

type lowering struct {
	e       *Exporter
	fn      *ir.Func
	ret     jvm.Type
	entry   *ir.Block
	current *ir.Block
	locals  map[int][]local
	labels  map[*insn.Label]*ir.Block
	dups    map[int]value.Value
}

// Lower adds the unit as a function definition. On failure the module is
// left as it was before the call, including shared declarations.
func (e *Exporter) Lower(u decompiler.Unit, nodes []ast.Node) (fn *ir.Func, err error) {
	funcs, globals := len(e.m.Funcs), len(e.m.Globals)
	e.undo = nil
	defer func() {
		if r := recover(); r != nil {
			rerr, ok := r.(error)
			if !ok {
				panic(r)
			}
			e.rollback(funcs, globals)
			fn, err = nil, tracerr.Wrap(rerr)
		}
	}()

	desc, perr := jvm.ParseMethodDescriptor(u.Descriptor)
	if perr != nil {
		return nil, tracerr.Wrap(errors.BadDescriptor{Descriptor: u.Descriptor, Err: perr})
	}

	l := &lowering{
		e:      e,
		ret:    desc.Returns,
		locals: map[int][]local{},
		labels: map[*insn.Label]*ir.Block{},
		dups:   map[int]value.Value{},
	}

	var params []*ir.Param
	var slots []int
	var kinds []jvm.Type
	slot := 0
	if !u.Static {
		params = append(params, ir.NewParam("this", Reference))
		slots = append(slots, 0)
		kinds = append(kinds, jvm.Object(u.Owner))
		slot++
	}
	for _, p := range desc.Params {
		params = append(params, ir.NewParam("arg"+strconv.Itoa(slot), Type(p)))
		slots = append(slots, slot)
		kinds = append(kinds, p)
		slot += p.Size()
	}

	l.fn = ir.NewFunc(Symbol(u.Owner, u.Name, u.Descriptor), Type(desc.Returns), params...)
	l.entry = l.fn.NewBlock("entry")
	l.current = l.entry
	for i, p := range params {
		a := l.alloca(slots[i], kinds[i])
		l.entry.NewStore(p, a)
	}

	for _, n := range nodes {
		l.statement(n)
	}
	l.finish()

	l.fn.Parent = e.m
	e.m.Funcs = append(e.m.Funcs, l.fn)
	e.lowered[l.fn.Name()] = u.Name
	plog.Debugf("lowered %s into %d blocks", u.Name, len(l.fn.Blocks))

	return l.fn, nil
}

func (e *Exporter) rollback(funcs, globals int) {
	e.m.Funcs = e.m.Funcs[:funcs]
	e.m.Globals = e.m.Globals[:globals]
	for _, undo := range e.undo {
		undo()
	}
	e.undo = nil
}

// block is the block code is currently added to. Code following a
// terminator starts a new, unreachable block.
func (l *lowering) block() *ir.Block {
	if l.current.Term != nil {
		l.current = l.fn.NewBlock("")
	}
	return l.current
}

func (l *lowering) finish() {
	for _, b := range l.fn.Blocks {
		if b.Term != nil {
			continue
		}
		if b == l.current && l.ret.Kind == jvm.Void {
			b.NewRet(nil)
		} else {
			b.NewUnreachable()
		}
	}
}

func (l *lowering) alloca(slot int, t jvm.Type) *ir.InstAlloca {
	a := l.entry.NewAlloca(Type(t))
	l.locals[slot] = append(l.locals[slot], local{typ: t, alloc: a})
	return a
}

// slot finds storage for a local of type t. A slot already holding
// another integer type is reused with a conversion.
func (l *lowering) slot(slot int, t jvm.Type) local {
	want := Type(t)
	for _, lc := range l.locals[slot] {
		if lc.alloc.ElemType.Equal(want) {
			return lc
		}
	}
	for _, lc := range l.locals[slot] {
		_, a := lc.alloc.ElemType.(*types.IntType)
		_, b := want.(*types.IntType)
		if a && b {
			return lc
		}
	}
	l.alloca(slot, t)
	return l.locals[slot][len(l.locals[slot])-1]
}

func (l *lowering) target(lb *insn.Label) *ir.Block {
	if b, ok := l.labels[lb]; ok {
		return b
	}
	b := l.fn.NewBlock("")
	l.labels[lb] = b
	return b
}

// mark moves code generation to the block of a label, falling through
// into it from the current block.
func (l *lowering) mark(in insn.Instruction) {
	next := l.target(in.Target())
	if l.current.Term == nil {
		l.current.NewBr(next)
	}
	l.current = next
}

func (l *lowering) statement(n ast.Node) {
	switch v := n.(type) {
	case ast.Labeled:
		l.mark(v.Mark)
		l.statement(v.Inner)
	case ast.Label:
		l.mark(v.Mark)
	case ast.If:
		left := l.convert(l.value(v.Left), ast.TypeOf(v.Left), jvm.IntType)
		right := l.convert(l.value(v.Right), ast.TypeOf(v.Right), jvm.IntType)
		b := l.block()
		cond := b.NewICmp(enum.IPredSGT, left, right)
		next := l.fn.NewBlock("")
		b.NewCondBr(cond, l.target(v.Target), next)
		l.current = next
	case ast.Raw:
		if v.Instruction.Opcode != opcodes.GOTO {
			panic(errors.Unsupported{What: v.Instruction.String()})
		}
		l.block().NewBr(l.target(v.Instruction.Target()))
	case ast.Return:
		if v.Value == nil {
			l.block().NewRet(nil)
			return
		}
		val := l.convert(l.value(v.Value), ast.TypeOf(v.Value), l.ret)
		l.block().NewRet(val)
	case ast.StoreVariable:
		val := l.value(v.Value)
		lc := l.slot(v.Slot, v.Kind)
		val = l.convert(val, ast.TypeOf(v.Value), lc.typ)
		l.block().NewStore(val, lc.alloc)
	case ast.FieldPut:
		if !v.Static {
			panic(errors.Unsupported{What: "instance field " + v.Name})
		}
		t := fieldType(v.Descriptor)
		val := l.convert(l.value(v.Value), ast.TypeOf(v.Value), t)
		l.block().NewStore(val, l.e.global(v.Owner, v.Name, v.Descriptor, t))
	case ast.Discard:
		l.value(v.Value)
	case ast.Invocation:
		l.invoke(v)
	default:
		l.value(n)
	}
}

func (l *lowering) value(n ast.Node) value.Value {
	switch v := n.(type) {
	case ast.Literal:
		return l.literal(v)
	case ast.Duplicate:
		if val, ok := l.dups[v.ID]; ok {
			return val
		}
		val := l.value(v.Value)
		l.dups[v.ID] = val
		return val
	case ast.Labeled:
		l.mark(v.Mark)
		return l.value(v.Inner)
	case ast.BinaryOp:
		t := ast.TypeOf(v)
		left := l.convert(l.value(v.Left), ast.TypeOf(v.Left), t)
		right := l.convert(l.value(v.Right), ast.TypeOf(v.Right), t)
		return l.arith(v.Op, t, left, right)
	case ast.Cast:
		return l.convert(l.value(v.Origin), ast.TypeOf(v.Origin), v.To)
	case ast.LocalVariable:
		lc := l.slot(v.Slot, v.Kind)
		val := l.block().NewLoad(lc.alloc.ElemType, lc.alloc)
		return l.convert(val, lc.typ, v.Kind)
	case ast.This:
		lc := l.slot(0, jvm.Object(v.Class))
		return l.block().NewLoad(lc.alloc.ElemType, lc.alloc)
	case ast.FieldGet:
		if !v.Static {
			panic(errors.Unsupported{What: "instance field " + v.Name})
		}
		t := fieldType(v.Descriptor)
		g := l.e.global(v.Owner, v.Name, v.Descriptor, t)
		return l.block().NewLoad(g.ContentType, g)
	case ast.Invocation:
		val := l.invoke(v)
		if val == nil {
			panic(errors.Unsupported{What: "void call used as a value"})
		}
		return val
	}
	panic(errors.Unsupported{What: ast.Describe(n)})
}

func (l *lowering) literal(v ast.Literal) value.Value {
	t := ast.TypeOf(v)
	switch x := v.Value.(type) {
	case nil:
		return constant.NewNull(Reference)
	case string:
		return l.e.str(l.block(), x)
	case bool:
		return constant.NewBool(x)
	case int32:
		if t.Kind == jvm.Boolean {
			return constant.NewBool(x != 0)
		}
		return constant.NewInt(Type(t).(*types.IntType), int64(x))
	case int64:
		return constant.NewInt(types.I64, x)
	case float32:
		return constant.NewFloat(types.Float, float64(x))
	case float64:
		return constant.NewFloat(types.Double, x)
	}
	panic(errors.Unsupported{What: fmt.Sprintf("%T constant", v.Value)})
}

func (l *lowering) arith(op ast.Operator, t jvm.Type, x, y value.Value) value.Value {
	b := l.block()
	if _, ok := Type(t).(*types.FloatType); ok {
		switch op {
		case ast.Add:
			return b.NewFAdd(x, y)
		case ast.Sub:
			return b.NewFSub(x, y)
		case ast.Mul:
			return b.NewFMul(x, y)
		}
	} else if _, ok := Type(t).(*types.IntType); ok {
		switch op {
		case ast.Add:
			return b.NewAdd(x, y)
		case ast.Sub:
			return b.NewSub(x, y)
		case ast.Mul:
			return b.NewMul(x, y)
		}
	}
	panic(errors.Unsupported{What: fmt.Sprintf("%s on %s", op, t)})
}

func (l *lowering) convert(v value.Value, from, to jvm.Type) value.Value {
	src, dst := Type(from), Type(to)
	if src.Equal(dst) {
		return v
	}

	b := l.block()
	switch s := src.(type) {
	case *types.IntType:
		switch d := dst.(type) {
		case *types.IntType:
			if d.BitSize < s.BitSize {
				return b.NewTrunc(v, d)
			}
			if unsigned(from) {
				return b.NewZExt(v, d)
			}
			return b.NewSExt(v, d)
		case *types.FloatType:
			return b.NewSIToFP(v, d)
		}
	case *types.FloatType:
		switch d := dst.(type) {
		case *types.IntType:
			return b.NewFPToSI(v, d)
		case *types.FloatType:
			if s.Kind == types.FloatKindFloat {
				return b.NewFPExt(v, d)
			}
			return b.NewFPTrunc(v, d)
		}
	}
	panic(errors.Unsupported{What: fmt.Sprintf("conversion from %s to %s", from, to)})
}

// invoke lowers a static call. It returns nil for void methods.
func (l *lowering) invoke(v ast.Invocation) value.Value {
	if v.Kind != ast.Static {
		panic(errors.Unsupported{What: "non-static call to " + v.Name})
	}
	desc, err := jvm.ParseMethodDescriptor(v.Descriptor)
	if err != nil {
		panic(errors.BadDescriptor{Descriptor: v.Descriptor, Err: err})
	}

	callee := l.e.extern(v.Owner, v.Name, v.Descriptor, desc)
	var args []value.Value
	for i, arg := range v.Arguments {
		args = append(args, l.convert(l.value(arg), ast.TypeOf(arg), desc.Params[i]))
	}

	call := l.block().NewCall(callee, args...)
	if desc.Returns.Kind == jvm.Void {
		return nil
	}
	return call
}

func (e *Exporter) extern(owner, name, descriptor string, desc jvm.MethodDescriptor) *ir.Func {
	sym := Symbol(owner, name, descriptor)
	if f, ok := e.externs[sym]; ok {
		return f
	}
	var params []*ir.Param
	for i, p := range desc.Params {
		params = append(params, ir.NewParam("arg"+strconv.Itoa(i), Type(p)))
	}
	f := e.m.NewFunc(sym, Type(desc.Returns), params...)
	e.externs[sym] = f
	e.undo = append(e.undo, func() { delete(e.externs, sym) })
	return f
}

func (e *Exporter) global(owner, name, descriptor string, t jvm.Type) *ir.Global {
	sym := Symbol(owner, name, ":"+descriptor)
	if g, ok := e.globals[sym]; ok {
		return g
	}
	g := e.m.NewGlobal(sym, Type(t))
	e.globals[sym] = g
	e.undo = append(e.undo, func() { delete(e.globals, sym) })
	return g
}

// str returns a byte pointer to a NUL-less character array holding s.
func (e *Exporter) str(b *ir.Block, s string) value.Value {
	data, ok := e.strings[s]
	if !ok {
		data = e.m.NewGlobalDef("_str_"+hash(s), constant.NewCharArrayFromString(s))
		e.strings[s] = data
		e.undo = append(e.undo, func() { delete(e.strings, s) })
	}
	return b.NewBitCast(data, Reference)
}

func fieldType(descriptor string) jvm.Type {
	t, err := jvm.ParseFieldDescriptor(descriptor)
	if err != nil {
		panic(errors.BadDescriptor{Descriptor: descriptor, Err: err})
	}
	return t
}
