package recompiler

import (
	"testing"

	"github.com/alecthomas/repr"
	"github.com/pontaoski/bytetree/ast"
	"github.com/pontaoski/bytetree/decompiler"
	"github.com/pontaoski/bytetree/errors"
	"github.com/pontaoski/bytetree/insn"
	"github.com/pontaoski/bytetree/opcodes"
	"github.com/pontaoski/bytetree/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ztrue/tracerr"
)

func roundTrip(t *testing.T, u decompiler.Unit) {
	t.Helper()

	res, err := decompiler.Decompile(u)
	require.NoError(t, err)

	out, err := Recompile(res.Nodes)
	require.NoError(t, err, repr.String(res.Nodes, repr.Indent("  ")))

	assert.Equal(t, insn.Names(u.Instructions), insn.Names(out))
	assert.NoError(t, insn.Equivalent(u.Instructions, out))
}

func TestRoundTrip(t *testing.T) {
	loop := insn.NewLabel("L0")
	done := insn.NewLabel("L1")

	cases := []struct {
		name string
		unit decompiler.Unit
	}{
		{"arithmetic", decompiler.Unit{
			Static:     true,
			Descriptor: "(II)I",
			Instructions: []insn.Instruction{
				insn.New(opcodes.ILOAD, insn.Int(0)),
				insn.New(opcodes.ILOAD, insn.Int(1)),
				insn.New(opcodes.IMUL),
				insn.New(opcodes.BIPUSH, insn.Int(10)),
				insn.New(opcodes.ISUB),
				insn.New(opcodes.IRETURN),
			},
		}},
		{"widening", decompiler.Unit{
			Static:     true,
			Descriptor: "(BJ)D",
			Instructions: []insn.Instruction{
				insn.New(opcodes.ILOAD, insn.Int(0)),
				insn.New(opcodes.I2L),
				insn.New(opcodes.LLOAD, insn.Int(1)),
				insn.New(opcodes.LADD),
				insn.New(opcodes.L2D),
				insn.New(opcodes.DCONST_1),
				insn.New(opcodes.DADD),
				insn.New(opcodes.DRETURN),
			},
		}},
		{"constructor", decompiler.Unit{
			Static: true,
			Instructions: []insn.Instruction{
				insn.New(opcodes.NEW, insn.String("java/lang/StringBuilder")),
				insn.New(opcodes.DUP),
				insn.New(opcodes.LDC, insn.String("hi")),
				insn.New(opcodes.INVOKESPECIAL, insn.String("java/lang/StringBuilder"), insn.String("<init>"), insn.String("(Ljava/lang/String;)V")),
				insn.New(opcodes.INVOKEVIRTUAL, insn.String("java/lang/StringBuilder"), insn.String("toString"), insn.String("()Ljava/lang/String;")),
				insn.New(opcodes.ARETURN),
			},
		}},
		{"super constructor", decompiler.Unit{
			Owner:      "com/example/Foo",
			Descriptor: "()V",
			Instructions: []insn.Instruction{
				insn.New(opcodes.ALOAD, insn.Int(0)),
				insn.New(opcodes.INVOKESPECIAL, insn.String("java/lang/Object"), insn.String("<init>"), insn.String("()V")),
				insn.New(opcodes.RETURN),
			},
		}},
		{"array initializer", decompiler.Unit{
			Static: true,
			Instructions: []insn.Instruction{
				insn.New(opcodes.ICONST_2),
				insn.New(opcodes.ANEWARRAY, insn.String("java/lang/String")),
				insn.New(opcodes.DUP),
				insn.New(opcodes.ICONST_0),
				insn.New(opcodes.LDC, insn.String("a")),
				insn.New(opcodes.AASTORE),
				insn.New(opcodes.DUP),
				insn.New(opcodes.ICONST_1),
				insn.New(opcodes.LDC, insn.String("b")),
				insn.New(opcodes.AASTORE),
				insn.New(opcodes.ASTORE, insn.Int(0)),
				insn.New(opcodes.RETURN),
			},
		}},
		{"fields", decompiler.Unit{
			Owner:      "com/example/Counter",
			Descriptor: "()V",
			Instructions: []insn.Instruction{
				insn.New(opcodes.ALOAD, insn.Int(0)),
				insn.New(opcodes.ALOAD, insn.Int(0)),
				insn.New(opcodes.GETFIELD, insn.String("com/example/Counter"), insn.String("n"), insn.String("I")),
				insn.New(opcodes.ICONST_1),
				insn.New(opcodes.IADD),
				insn.New(opcodes.PUTFIELD, insn.String("com/example/Counter"), insn.String("n"), insn.String("I")),
				insn.New(opcodes.GETSTATIC, insn.String("java/lang/System"), insn.String("out"), insn.String("Ljava/io/PrintStream;")),
				insn.New(opcodes.POP),
				insn.New(opcodes.RETURN),
			},
		}},
		{"branch and labels", decompiler.Unit{
			Static:     true,
			Descriptor: "(I)V",
			Instructions: []insn.Instruction{
				insn.Mark(loop),
				insn.New(opcodes.ILOAD, insn.Int(0)),
				insn.New(opcodes.BIPUSH, insn.Int(100)),
				insn.New(opcodes.IF_ICMPGT, done),
				insn.New(opcodes.IINC, insn.Int(0), insn.Int(1)),
				insn.New(opcodes.GOTO, loop),
				insn.Mark(done),
				insn.New(opcodes.RETURN),
			},
		}},
		{"unusual encodings", decompiler.Unit{
			Static: true,
			Instructions: []insn.Instruction{
				insn.New(opcodes.LDC2_W, insn.Long(0)),
				insn.New(opcodes.POP2),
				insn.New(opcodes.SIPUSH, insn.Int(3)),
				insn.New(opcodes.LDC_W, insn.Int(100)),
				insn.New(opcodes.IADD),
				insn.New(opcodes.IRETURN),
			},
		}},
		{"narrowing a char parameter", decompiler.Unit{
			Static:     true,
			Descriptor: "(C)I",
			Instructions: []insn.Instruction{
				insn.New(opcodes.ILOAD, insn.Int(0)),
				insn.New(opcodes.I2C),
				insn.New(opcodes.IRETURN),
			},
		}},
		{"narrowing a byte field", decompiler.Unit{
			Static:     true,
			Descriptor: "()I",
			Instructions: []insn.Instruction{
				insn.New(opcodes.GETSTATIC, insn.String("com/example/A"), insn.String("b"), insn.String("B")),
				insn.New(opcodes.I2B),
				insn.New(opcodes.IRETURN),
			},
		}},
		{"repeated narrowing", decompiler.Unit{
			Static:     true,
			Descriptor: "(I)I",
			Instructions: []insn.Instruction{
				insn.New(opcodes.ILOAD, insn.Int(0)),
				insn.New(opcodes.I2B),
				insn.New(opcodes.I2B),
				insn.New(opcodes.IRETURN),
			},
		}},
		{"checkcast and dynamic", decompiler.Unit{
			Static:     true,
			Descriptor: "(Ljava/lang/Object;)Ljava/lang/Runnable;",
			Instructions: []insn.Instruction{
				insn.New(opcodes.ALOAD, insn.Int(0)),
				insn.New(opcodes.CHECKCAST, insn.String("java/lang/String")),
				insn.New(opcodes.INVOKEDYNAMIC, insn.String("run"), insn.String("(Ljava/lang/String;)Ljava/lang/Runnable;"), insn.String("bootstrap")),
				insn.New(opcodes.ARETURN),
			},
		}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			roundTrip(t, c.unit)
		})
	}
}

func TestLiteralSelection(t *testing.T) {
	cases := []struct {
		value interface{}
		want  insn.Instruction
	}{
		{int32(0), insn.New(opcodes.ICONST_0)},
		{int32(-1), insn.New(opcodes.ICONST_M1)},
		{int32(42), insn.New(opcodes.BIPUSH, insn.Int(42))},
		{int32(-128), insn.New(opcodes.BIPUSH, insn.Int(-128))},
		{int32(200), insn.New(opcodes.LDC, insn.Int(200))},
		{int64(1), insn.New(opcodes.LCONST_1)},
		{float32(2), insn.New(opcodes.FCONST_2)},
		{float64(0.5), insn.New(opcodes.LDC, insn.Double(0.5))},
		{nil, insn.New(opcodes.ACONST_NULL)},
		{"x", insn.New(opcodes.LDC, insn.String("x"))},
	}

	for _, c := range cases {
		out, err := Recompile([]ast.Node{ast.Const(c.value)})
		require.NoError(t, err)
		assert.Equal(t, []insn.Instruction{c.want}, out, "%#v", c.value)
	}
}

func TestCasts(t *testing.T) {
	out, err := Recompile([]ast.Node{ast.Cast{To: types.LongType, Origin: ast.Const(int32(1))}})
	require.NoError(t, err)
	assert.Equal(t, []string{"ICONST_1", "I2L"}, insn.Names(out))

	out, err = Recompile([]ast.Node{ast.Cast{To: types.IntType, Origin: ast.Const(int32(1))}})
	require.NoError(t, err)
	assert.Equal(t, []string{"ICONST_1"}, insn.Names(out), "an identity cast writes nothing")

	narrow := ast.Cast{From: types.IntType, To: types.CharType, Origin: ast.LocalVariable{Slot: 0, Kind: types.CharType}}
	out, err = Recompile([]ast.Node{narrow})
	require.NoError(t, err)
	assert.Equal(t, []string{"ILOAD", "I2C"}, insn.Names(out), "the recorded source type wins over the origin's")

	_, err = Recompile([]ast.Node{ast.Cast{To: types.BooleanType, Origin: ast.Const(int32(1))}})
	require.Error(t, err)
	assert.Equal(t, errors.CastNotMapped{From: types.IntType, To: types.BooleanType}, tracerr.Unwrap(err))
}

func TestDuplicateIsWrittenOnce(t *testing.T) {
	arena := ast.NewArena()
	d := arena.Duplicate(ast.Const(int32(7)))

	out, err := Recompile([]ast.Node{d, ast.BinaryOp{Op: ast.Mul, Left: d, Right: ast.Const(int32(2))}})
	require.NoError(t, err)
	assert.Equal(t, []string{"BIPUSH", "DUP", "ICONST_2", "IMUL"}, insn.Names(out))
}

func TestStoreArrayFallsBackToArrayType(t *testing.T) {
	store := ast.StoreArray{
		Array: ast.LocalVariable{Slot: 1, Kind: types.ArrayOf(types.CharType)},
		Index: ast.Const(int32(0)),
		Value: ast.Const(int32(65)),
	}

	out, err := Recompile([]ast.Node{store})
	require.NoError(t, err)
	assert.Equal(t, []string{"ALOAD", "ICONST_0", "BIPUSH", "CASTORE"}, insn.Names(out))
}

func TestUntypedReturnIsFatal(t *testing.T) {
	_, err := Recompile([]ast.Node{ast.Return{Value: ast.Raw{Instruction: insn.New(opcodes.NOP)}}})
	require.Error(t, err)
	assert.IsType(t, errors.TypeResolutionFailure{}, tracerr.Unwrap(err))
}
