package tree

import (
	"strings"
	"testing"

	"github.com/pontaoski/bytetree/ast"
	"github.com/pontaoski/bytetree/decompiler"
	"github.com/pontaoski/bytetree/errors"
	"github.com/pontaoski/bytetree/insn"
	"github.com/pontaoski/bytetree/opcodes"
	"github.com/pontaoski/bytetree/recompiler"
	"github.com/pontaoski/bytetree/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ztrue/tracerr"
)

func TestLiteralEncoding(t *testing.T) {
	cases := []struct {
		value   interface{}
		typ     types.Type
		tag     string
		payload string
	}{
		{int32(42), types.IntType, "int", "00 00 00 00 00 00 00 2a"},
		{int32(-1), types.IntType, "int", "ff ff ff ff ff ff ff ff"},
		{int64(256), types.LongType, "long", "00 00 00 00 00 00 01 00"},
		{float32(1), types.FloatType, "float", "3f 80 00 00"},
		{float64(-2), types.DoubleType, "double", "c0 00 00 00 00 00 00 00"},
		{true, types.BooleanType, "boolean", "01"},
		{int32(0), types.BooleanType, "boolean", "00"},
		{"hé", types.StringType, "string", "68 c3 a9"},
		{"", types.StringType, "string", ""},
		{nil, types.NullType, "null", ""},
		{insn.TypeRef("a/B"), types.ClassType, "class", "61 2f 42"},
	}

	for _, c := range cases {
		tag, payload, err := EncodeLiteral(c.value, c.typ)
		require.NoError(t, err, "%#v", c.value)
		assert.Equal(t, c.tag, tag, "%#v", c.value)
		assert.Equal(t, c.payload, payload, "%#v", c.value)
	}
}

func TestLiteralDecoding(t *testing.T) {
	v, typ, err := DecodeLiteral("int", "00 00 00 00 00 00 00 2a")
	require.NoError(t, err)
	assert.Equal(t, int32(42), v)
	assert.Equal(t, types.IntType, typ)

	v, typ, err = DecodeLiteral("short", "ff ff ff ff ff ff ff fe")
	require.NoError(t, err)
	assert.Equal(t, int32(-2), v)
	assert.Equal(t, types.ShortType, typ)

	v, _, err = DecodeLiteral("double", "3f f8 00 00 00 00 00 00")
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)

	v, _, err = DecodeLiteral("string", "68 69")
	require.NoError(t, err)
	assert.Equal(t, "hi", v)

	for _, bad := range [][2]string{
		{"int", "00 2a"},
		{"int", "00 00 00 01 00 00 00 00"},
		{"boolean", "02"},
		{"float", "3f 80 00"},
		{"int", "zz 00 00 00 00 00 00 00"},
		{"void", ""},
		{"string", "ff"},
	} {
		_, _, err := DecodeLiteral(bad[0], bad[1])
		assert.Error(t, err, "%s %s", bad[0], bad[1])
	}
}

func TestAttributes(t *testing.T) {
	a, err := ParseAttributes("descriptor=I|type=field|owner=com/x/Y")
	require.NoError(t, err)

	owner, ok := a.Get("owner")
	require.True(t, ok)
	assert.Equal(t, "com/x/Y", owner)
	assert.Equal(t, []string{"descriptor", "type", "owner"}, a.Keys())
	assert.Equal(t, "descriptor=I|type=field|owner=com/x/Y", a.String())

	a, err = ParseAttributes("")
	require.NoError(t, err)
	assert.Equal(t, 0, a.Len())

	_, err = ParseAttributes("a=1|a=2")
	assert.Error(t, err)
	_, err = ParseAttributes("novalue")
	assert.Error(t, err)
}

func TestTextRoundTrip(t *testing.T) {
	src := "add {\n  const `type=int|value=00 00 00 00 00 00 00 01`\n  local `slot=1|type=I`\n}\nreturn\n"

	nodes, err := Parse(strings.NewReader(src), "test")
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "add", nodes[0].Base)
	require.Len(t, nodes[0].Children, 2)
	assert.Equal(t, "slot=1|type=I", nodes[0].Children[1].Attributes)
	assert.Equal(t, 3, nodes[0].Children[1].Location.From.Line)

	assert.Equal(t, src, String(nodes))

	inline, err := Parse(strings.NewReader("add { const `type=int|value=00 00 00 00 00 00 00 01`; local `slot=1|type=I` }; return"), "test")
	require.NoError(t, err)
	assert.Equal(t, src, String(inline))
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(strings.NewReader("add { const"), "test")
	require.Error(t, err)
	assert.IsType(t, errors.ExpectedKindGotKind{}, tracerr.Unwrap(err))

	_, err = Parse(strings.NewReader("add } const"), "test")
	assert.Error(t, err)
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]string{
		"missing child":     "add { const `type=int|value=00 00 00 00 00 00 00 01` }",
		"missing attribute": "local `type=I`",
		"unknown base":      "frobnicate",
		"bad type":          "local `slot=1|type=Q`",
		"bad literal":       "const `type=int|value=00`",
		"too many children": "return { this `owner=a/B`; this `owner=a/B` }",
	}
	for name, src := range cases {
		_, _, err := Unmarshal(strings.NewReader(src), "test")
		require.Error(t, err, name)
		assert.IsType(t, errors.MalformedTree{}, tracerr.Unwrap(err), name)
	}

	_, _, err := Unmarshal(strings.NewReader("discard { ref `id=3` }"), "test")
	require.Error(t, err)
	assert.IsType(t, errors.UnknownReference{}, tracerr.Unwrap(err))
}

func TestDuplicateSerialization(t *testing.T) {
	arena := ast.NewArena()
	d := arena.Duplicate(ast.NewAddress{Class: "a/B"})
	call := ast.Invocation{Kind: ast.Constructor, Owner: "a/B", Name: "<init>", Descriptor: "()V", Receiver: d, Arguments: []ast.Node{}}

	text, err := Marshal([]ast.Node{d, call})
	require.NoError(t, err)
	assert.Equal(t, "dup `id=0` {\n  new `class=a/B`\n}\ninvoke `type=constructor|owner=a/B|name=<init>|descriptor=()V` {\n  ref `id=0`\n}\n", text)

	nodes, decoded, err := Unmarshal(strings.NewReader(text), "test")
	require.NoError(t, err)
	assert.Equal(t, 1, decoded.Len())
	assert.Equal(t, []ast.Node{d, call}, nodes)
}

// The tree form sits between decompilation and recompilation without
// changing the result.
func TestDecompiledTreeRoundTrip(t *testing.T) {
	done := insn.NewLabel("done")
	u := decompiler.Unit{
		Name:       "clamp",
		Owner:      "com/example/Math",
		Descriptor: "(I[J)V",
		Instructions: []insn.Instruction{
			insn.New(opcodes.ILOAD, insn.Int(1)),
			insn.New(opcodes.SIPUSH, insn.Int(1000)),
			insn.New(opcodes.IF_ICMPGT, done),
			insn.New(opcodes.ALOAD, insn.Int(2)),
			insn.New(opcodes.ICONST_0),
			insn.New(opcodes.ILOAD, insn.Int(1)),
			insn.New(opcodes.I2L),
			insn.New(opcodes.LASTORE),
			insn.New(opcodes.POP),
			insn.New(opcodes.ALOAD, insn.Int(0)),
			insn.New(opcodes.LDC, insn.Float(0.5)),
			insn.New(opcodes.INVOKEVIRTUAL, insn.String("com/example/Math"), insn.String("scale"), insn.String("(F)V")),
			insn.Mark(done),
			insn.New(opcodes.GOTO, done),
			insn.New(opcodes.RETURN),
		},
	}

	res, err := decompiler.Decompile(u)
	require.NoError(t, err)

	text, err := Marshal(res.Nodes)
	require.NoError(t, err)

	nodes, _, err := Unmarshal(strings.NewReader(text), "test")
	require.NoError(t, err, text)

	out, err := recompiler.Recompile(nodes)
	require.NoError(t, err, text)
	assert.Equal(t, insn.Names(u.Instructions), insn.Names(out))
	assert.NoError(t, insn.Equivalent(u.Instructions, out))
}

func TestCastKeepsSourceType(t *testing.T) {
	u := decompiler.Unit{
		Name:       "narrow",
		Descriptor: "(C)I",
		Static:     true,
		Instructions: []insn.Instruction{
			insn.New(opcodes.ILOAD, insn.Int(0)),
			insn.New(opcodes.I2C),
			insn.New(opcodes.IRETURN),
		},
	}
	res, err := decompiler.Decompile(u)
	require.NoError(t, err)

	text, err := Marshal(res.Nodes)
	require.NoError(t, err)
	assert.Equal(t, "return {\n  cast `from=I|to=C` {\n    local `slot=0|type=C`\n  }\n}\n", text)

	nodes, _, err := Unmarshal(strings.NewReader(text), "test")
	require.NoError(t, err)
	out, err := recompiler.Recompile(nodes)
	require.NoError(t, err)
	assert.Equal(t, insn.Names(u.Instructions), insn.Names(out))

	nodes, _, err = Unmarshal(strings.NewReader("cast `to=J` { local `slot=0|type=I` }"), "test")
	require.NoError(t, err)
	assert.Equal(t, []ast.Node{ast.Cast{To: types.LongType, Origin: ast.LocalVariable{Slot: 0, Kind: types.IntType}}}, nodes)
}

func TestEncodeRejectsSeparatorInValues(t *testing.T) {
	call := ast.Invocation{Kind: ast.Static, Owner: "A", Name: "a|b", Descriptor: "()I", Arguments: []ast.Node{}}
	_, err := Marshal([]ast.Node{call})
	require.Error(t, err)
	assert.IsType(t, errors.Unsupported{}, tracerr.Unwrap(err))
}

func TestInvokeReceivers(t *testing.T) {
	for _, src := range []string{
		"invoke `type=static|owner=A|name=f|descriptor=(I)I` { this `owner=A`; local `slot=1|type=I` }",
		"invoke `type=dynamic|name=f|descriptor=()I` { this `owner=A` }",
		"invoke `type=virtual|owner=A|name=f|descriptor=(I)I` { local `slot=1|type=I` }",
	} {
		_, _, err := Unmarshal(strings.NewReader(src), "test")
		require.Error(t, err, src)
		assert.IsType(t, errors.MalformedTree{}, tracerr.Unwrap(err), src)
	}

	nodes, _, err := Unmarshal(strings.NewReader("invoke `type=static|owner=A|name=f|descriptor=(I)I` { local `slot=1|type=I` }"), "test")
	require.NoError(t, err)
	call := nodes[0].(ast.Invocation)
	assert.Nil(t, call.Receiver)
	assert.Len(t, call.Arguments, 1)
}
