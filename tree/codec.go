package tree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pontaoski/bytetree/ast"
	"github.com/pontaoski/bytetree/errors"
	"github.com/pontaoski/bytetree/insn"
	"github.com/pontaoski/bytetree/opcodes"
	"github.com/pontaoski/bytetree/resolver"
	"github.com/pontaoski/bytetree/types"
	"github.com/ztrue/tracerr"
)

var operatorBases = map[ast.Operator]string{
	ast.Add: "add",
	ast.Sub: "sub",
	ast.Mul: "mul",
}

var invokeKinds = map[ast.InvokeKind]string{
	ast.Static:      "static",
	ast.Virtual:     "virtual",
	ast.Interface:   "interface",
	ast.Dynamic:     "dynamic",
	ast.Super:       "super",
	ast.Constructor: "constructor",
}

func malformed(n *Node, detail string) errors.MalformedTree {
	return errors.MalformedTree{Base: n.Base, Detail: fmt.Sprintf("%s (%s)", detail, n.Location)}
}

func missing(n *Node, what string) errors.MalformedTree {
	return errors.MalformedTree{Base: n.Base, Missing: what}
}

func unencodable(what string) errors.Unsupported {
	return errors.Unsupported{What: "cannot serialize " + what}
}

func recovered(r interface{}) error {
	rerr, ok := r.(error)
	if !ok {
		panic(r)
	}
	return tracerr.Wrap(rerr)
}

type encoder struct {
	labels  map[*insn.Label]int
	written map[int]bool
}

// Encode converts roots into interchange nodes. The first occurrence of
// a duplicated value is written as dup with its value, later ones as
// ref.
func Encode(roots []ast.Node) (ret []*Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			ret, err = nil, recovered(r)
		}
	}()

	e := &encoder{labels: map[*insn.Label]int{}, written: map[int]bool{}}
	for _, n := range roots {
		ret = append(ret, e.encode(n))
	}
	return ret, nil
}

func (e *encoder) label(l *insn.Label) int {
	id, ok := e.labels[l]
	if !ok {
		id = len(e.labels)
		e.labels[l] = id
	}
	return id
}

func (e *encoder) mark(in insn.Instruction) string {
	l := in.Target()
	if l == nil {
		panic(unencodable("a marker without a label"))
	}
	return strconv.Itoa(e.label(l))
}

// node builds an interchange node. Attribute values cannot hold the
// pair separator.
func node(base string, attrs Attributes, children ...*Node) *Node {
	for _, k := range attrs.keys {
		if v := attrs.values[k]; strings.ContainsRune(v, '|') {
			panic(unencodable(fmt.Sprintf("%s attribute %s=%q: contains '|'", base, k, v)))
		}
	}
	return &Node{Base: base, Attributes: attrs.String(), Children: children}
}

func (e *encoder) encodeAll(ns ...ast.Node) []*Node {
	var ret []*Node
	for _, n := range ns {
		if n != nil {
			ret = append(ret, e.encode(n))
		}
	}
	return ret
}

func member(kind, owner, name, descriptor string) Attributes {
	var a Attributes
	a.Set("type", kind)
	if owner != "" {
		a.Set("owner", owner)
	}
	a.Set("name", name)
	a.Set("descriptor", descriptor)
	return a
}

func (e *encoder) encode(n ast.Node) *Node {
	var a Attributes

	switch v := n.(type) {
	case ast.Literal:
		t := ast.TypeOf(v)
		tag, payload, err := EncodeLiteral(v.Value, t)
		if err != nil {
			panic(unencodable(err.Error()))
		}
		a.Set("type", tag)
		if tag != tagNull {
			a.Set("value", payload)
		}
		if v.Encoding != 0 {
			a.Set("encoding", v.Encoding.String())
		}
		return node("const", a)
	case ast.BinaryOp:
		return node(operatorBases[v.Op], a, e.encodeAll(v.Left, v.Right)...)
	case ast.Cast:
		if v.From.Kind != types.Void {
			a.Set("from", v.From.Desc())
		}
		a.Set("to", v.To.Desc())
		return node("cast", a, e.encodeAll(v.Origin)...)
	case ast.CheckCast:
		a.Set("to", v.To.Desc())
		return node("checkcast", a, e.encodeAll(v.Value)...)
	case ast.FieldGet:
		kind := "field"
		if v.Static {
			kind = "static"
		}
		return node("getfield", member(kind, v.Owner, v.Name, v.Descriptor), e.encodeAll(v.Receiver)...)
	case ast.FieldPut:
		kind := "field"
		if v.Static {
			kind = "static"
		}
		return node("putfield", member(kind, v.Owner, v.Name, v.Descriptor), e.encodeAll(v.Receiver, v.Value)...)
	case ast.Invocation:
		a = member(invokeKinds[v.Kind], v.Owner, v.Name, v.Descriptor)
		for i, op := range v.Extra {
			a.Set("extra"+strconv.Itoa(i), e.encodeOperand(op))
		}
		children := e.encodeAll(v.Receiver)
		return node("invoke", a, append(children, e.encodeAll(v.Arguments...)...)...)
	case ast.NewAddress:
		a.Set("class", v.Class)
		return node("new", a)
	case ast.ArrayConstructor:
		a.Set("elem", v.Elem.Desc())
		return node("newarray", a, e.encodeAll(v.Size)...)
	case ast.StoreArray:
		if v.Elem.Kind != types.Void {
			a.Set("elem", v.Elem.Desc())
		}
		return node("storearray", a, e.encodeAll(v.Array, v.Index, v.Value)...)
	case ast.If:
		if v.Target == nil {
			panic(unencodable("a branch without a target"))
		}
		a.Set("cmp", "gt")
		a.Set("label", strconv.Itoa(e.label(v.Target)))
		return node("if", a, e.encodeAll(v.Left, v.Right)...)
	case ast.Label:
		a.Set("label", e.mark(v.Mark))
		return node("label", a)
	case ast.Labeled:
		a.Set("label", e.mark(v.Mark))
		return node("labeled", a, e.encodeAll(v.Inner)...)
	case ast.Duplicate:
		a.Set("id", strconv.Itoa(v.ID))
		if e.written[v.ID] {
			return node("ref", a)
		}
		e.written[v.ID] = true
		return node("dup", a, e.encodeAll(v.Value)...)
	case ast.Return:
		return node("return", a, e.encodeAll(v.Value)...)
	case ast.LocalVariable:
		a.Set("slot", strconv.Itoa(v.Slot))
		a.Set("type", v.Kind.Desc())
		return node("local", a)
	case ast.This:
		a.Set("owner", v.Class)
		return node("this", a)
	case ast.StoreVariable:
		a.Set("slot", strconv.Itoa(v.Slot))
		a.Set("type", v.Kind.Desc())
		return node("store", a, e.encodeAll(v.Value)...)
	case ast.Discard:
		return node("discard", a, e.encodeAll(v.Value)...)
	case ast.Raw:
		a.Set("opcode", strconv.Itoa(int(v.Instruction.Opcode)))
		for i, op := range v.Instruction.Operands {
			a.Set("arg"+strconv.Itoa(i), e.encodeOperand(op))
		}
		return node("raw", a)
	}

	panic(unencodable(ast.Describe(n)))
}

type decoder struct {
	labels map[int]*insn.Label
	arena  *ast.Arena
}

// Decode rebuilds expression trees from interchange nodes. The arena
// holds the duplicated values, keyed by the ids found in the input.
func Decode(roots []*Node) (ret []ast.Node, arena *ast.Arena, err error) {
	defer func() {
		if r := recover(); r != nil {
			ret, arena, err = nil, nil, recovered(r)
		}
	}()

	d := &decoder{labels: map[int]*insn.Label{}, arena: ast.NewArena()}
	for _, n := range roots {
		ret = append(ret, d.decode(n))
	}
	return ret, d.arena, nil
}

func (d *decoder) label(n *Node, s string) *insn.Label {
	id, err := strconv.Atoi(s)
	if err != nil {
		panic(malformed(n, fmt.Sprintf("label %q is not a number", s)))
	}
	l, ok := d.labels[id]
	if !ok {
		l = insn.NewLabel("L" + strconv.Itoa(id))
		d.labels[id] = l
	}
	return l
}

func attr(n *Node, a Attributes, key string) string {
	v, ok := a.Get(key)
	if !ok {
		panic(missing(n, "attribute "+key))
	}
	return v
}

func attrInt(n *Node, a Attributes, key string) int {
	v := attr(n, a, key)
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(malformed(n, fmt.Sprintf("%s=%s is not a number", key, v)))
	}
	return i
}

func attrType(n *Node, a Attributes, key string) types.Type {
	v := attr(n, a, key)
	t, err := types.ParseFieldDescriptor(v)
	if err != nil {
		panic(malformed(n, fmt.Sprintf("%s=%s: %s", key, v, err)))
	}
	return t
}

// children checks the child count lies within [min, max] and decodes
// them.
func (d *decoder) children(n *Node, min, max int) []ast.Node {
	if len(n.Children) < min {
		panic(missing(n, fmt.Sprintf("child %d", len(n.Children)+1)))
	}
	if len(n.Children) > max {
		panic(malformed(n, fmt.Sprintf("%d children, at most %d allowed", len(n.Children), max)))
	}

	ret := make([]ast.Node, len(n.Children))
	for i, c := range n.Children {
		ret[i] = d.decode(c)
	}
	return ret
}

func (d *decoder) decode(n *Node) ast.Node {
	a := n.attrs()

	switch n.Base {
	case "const":
		return d.literal(n, a)
	case "add", "sub", "mul":
		c := d.children(n, 2, 2)
		op := ast.Add
		for o, base := range operatorBases {
			if base == n.Base {
				op = o
			}
		}
		return ast.BinaryOp{Op: op, Left: c[0], Right: c[1]}
	case "cast":
		c := d.children(n, 1, 1)
		cast := ast.Cast{To: attrType(n, a, "to"), Origin: c[0]}
		if _, ok := a.Get("from"); ok {
			cast.From = attrType(n, a, "from")
		}
		return cast
	case "checkcast":
		c := d.children(n, 1, 1)
		return ast.CheckCast{To: attrType(n, a, "to"), Value: c[0]}
	case "getfield", "putfield":
		return d.field(n, a)
	case "invoke":
		return d.invoke(n, a)
	case "new":
		d.children(n, 0, 0)
		return ast.NewAddress{Class: attr(n, a, "class")}
	case "newarray":
		c := d.children(n, 1, 1)
		return ast.ArrayConstructor{Elem: attrType(n, a, "elem"), Size: c[0]}
	case "storearray":
		c := d.children(n, 3, 3)
		store := ast.StoreArray{Array: c[0], Index: c[1], Value: c[2]}
		if _, ok := a.Get("elem"); ok {
			store.Elem = attrType(n, a, "elem")
		}
		return store
	case "if":
		c := d.children(n, 2, 2)
		if cmp := attr(n, a, "cmp"); cmp != "gt" {
			panic(malformed(n, fmt.Sprintf("comparison %q", cmp)))
		}
		return ast.If{Cmp: ast.GreaterThan, Left: c[0], Right: c[1], Target: d.label(n, attr(n, a, "label"))}
	case "label":
		d.children(n, 0, 0)
		return ast.Label{Mark: insn.Mark(d.label(n, attr(n, a, "label")))}
	case "labeled":
		c := d.children(n, 1, 1)
		return ast.Labeled{Mark: insn.Mark(d.label(n, attr(n, a, "label"))), Inner: c[0]}
	case "dup":
		id := attrInt(n, a, "id")
		if _, seen := d.arena.Get(id); seen {
			panic(malformed(n, fmt.Sprintf("value #%d defined twice", id)))
		}
		c := d.children(n, 1, 1)
		return d.arena.Put(id, c[0])
	case "ref":
		d.children(n, 0, 0)
		id := attrInt(n, a, "id")
		dup, ok := d.arena.Get(id)
		if !ok {
			panic(errors.UnknownReference{ID: id, Location: n.Location})
		}
		return dup
	case "return":
		c := d.children(n, 0, 1)
		if len(c) == 0 {
			return ast.Return{}
		}
		return ast.Return{Value: c[0]}
	case "local":
		d.children(n, 0, 0)
		return ast.LocalVariable{Slot: attrInt(n, a, "slot"), Kind: attrType(n, a, "type")}
	case "this":
		d.children(n, 0, 0)
		return ast.This{Class: attr(n, a, "owner")}
	case "store":
		c := d.children(n, 1, 1)
		return ast.StoreVariable{Slot: attrInt(n, a, "slot"), Kind: attrType(n, a, "type"), Value: c[0]}
	case "discard":
		c := d.children(n, 1, 1)
		return ast.Discard{Value: c[0]}
	case "raw":
		d.children(n, 0, 0)
		in := insn.Instruction{Opcode: opcodes.Opcode(attrInt(n, a, "opcode"))}
		for i := 0; ; i++ {
			v, ok := a.Get("arg" + strconv.Itoa(i))
			if !ok {
				break
			}
			in.Operands = append(in.Operands, d.decodeOperand(n, v))
		}
		return ast.Raw{Instruction: in}
	}

	panic(malformed(n, "unknown base"))
}

func (d *decoder) literal(n *Node, a Attributes) ast.Node {
	d.children(n, 0, 0)

	tag := attr(n, a, "type")
	payload, ok := a.Get("value")
	if !ok && tag != tagNull {
		panic(missing(n, "attribute value"))
	}
	v, t, err := DecodeLiteral(tag, payload)
	if err != nil {
		panic(malformed(n, err.Error()))
	}

	lit := ast.Literal{Value: v}
	if natural, _ := resolver.LiteralType(v); natural != t {
		lit.Declared = &t
	}
	if enc, ok := a.Get("encoding"); ok {
		op, ok := opcodes.Lookup(enc)
		if !ok {
			panic(malformed(n, fmt.Sprintf("unknown encoding %s", enc)))
		}
		lit.Encoding = op
	}
	return lit
}

func (d *decoder) field(n *Node, a Attributes) ast.Node {
	var static bool
	switch kind := attr(n, a, "type"); kind {
	case "static":
		static = true
	case "field":
	default:
		panic(malformed(n, fmt.Sprintf("field type %q", kind)))
	}
	owner, name, desc := attr(n, a, "owner"), attr(n, a, "name"), attr(n, a, "descriptor")

	receivers := 1
	if static {
		receivers = 0
	}

	if n.Base == "getfield" {
		c := d.children(n, receivers, receivers)
		get := ast.FieldGet{Static: static, Owner: owner, Name: name, Descriptor: desc}
		if !static {
			get.Receiver = c[0]
		}
		return get
	}

	c := d.children(n, receivers+1, receivers+1)
	put := ast.FieldPut{Static: static, Owner: owner, Name: name, Descriptor: desc, Value: c[len(c)-1]}
	if !static {
		put.Receiver = c[0]
	}
	return put
}

func (d *decoder) invoke(n *Node, a Attributes) ast.Node {
	kindName := attr(n, a, "type")
	kind, found := ast.Static, false
	for k, name := range invokeKinds {
		if name == kindName {
			kind, found = k, true
		}
	}
	if !found {
		panic(malformed(n, fmt.Sprintf("invocation type %q", kindName)))
	}

	call := ast.Invocation{Kind: kind, Name: attr(n, a, "name"), Descriptor: attr(n, a, "descriptor")}
	if kind != ast.Dynamic {
		call.Owner = attr(n, a, "owner")
	}
	for i := 0; ; i++ {
		v, ok := a.Get("extra" + strconv.Itoa(i))
		if !ok {
			break
		}
		call.Extra = append(call.Extra, d.decodeOperand(n, v))
	}

	m, err := types.ParseMethodDescriptor(call.Descriptor)
	if err != nil {
		panic(malformed(n, err.Error()))
	}
	arity := m.Arity()

	if kind == ast.Static || kind == ast.Dynamic {
		call.Arguments = d.children(n, arity, arity)
		return call
	}
	c := d.children(n, arity+1, arity+1)
	call.Receiver, call.Arguments = c[0], c[1:]
	return call
}
