package llvmexport

import (
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/pontaoski/bytetree/ast"
	"github.com/pontaoski/bytetree/decompiler"
	"github.com/pontaoski/bytetree/errors"
	"github.com/pontaoski/bytetree/insn"
	"github.com/pontaoski/bytetree/opcodes"
	jvm "github.com/pontaoski/bytetree/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ztrue/tracerr"
)

func lower(t *testing.T, e *Exporter, u decompiler.Unit) (*ir.Func, error) {
	t.Helper()
	res, err := decompiler.Decompile(u)
	require.NoError(t, err)
	return e.Lower(u, res.Nodes)
}

func TestLowerArithmetic(t *testing.T) {
	e := NewExporter()
	fn, err := lower(t, e, decompiler.Unit{
		Name:       "widen",
		Owner:      "com/example/Math",
		Descriptor: "(IJ)J",
		Static:     true,
		Instructions: []insn.Instruction{
			insn.New(opcodes.ILOAD, insn.Int(0)),
			insn.New(opcodes.I2L),
			insn.New(opcodes.LLOAD, insn.Int(1)),
			insn.New(opcodes.LMUL),
			insn.New(opcodes.LRETURN),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "com/example/Math.widen(IJ)J", fn.Name())
	assert.True(t, fn.Sig.RetType.Equal(types.I64))
	require.Len(t, fn.Params, 2)
	assert.True(t, fn.Params[0].Typ.Equal(types.I32))
	require.Len(t, fn.Blocks, 1)
	assert.IsType(t, &ir.TermRet{}, fn.Blocks[0].Term)

	text := e.Module().String()
	assert.Contains(t, text, "sext i32")
	assert.Contains(t, text, "mul i64")
	assert.Contains(t, text, "ret i64")
}

func TestLowerFloatsAndStatics(t *testing.T) {
	e := NewExporter()
	_, err := lower(t, e, decompiler.Unit{
		Name:       "scale",
		Owner:      "com/example/Math",
		Descriptor: "(F)V",
		Instructions: []insn.Instruction{
			insn.New(opcodes.FLOAD, insn.Int(1)),
			insn.New(opcodes.LDC, insn.Float(0.5)),
			insn.New(opcodes.FMUL),
			insn.New(opcodes.F2D),
			insn.New(opcodes.PUTSTATIC, insn.String("com/example/Math"), insn.String("last"), insn.String("D")),
			insn.New(opcodes.GETSTATIC, insn.String("com/example/Math"), insn.String("last"), insn.String("D")),
			insn.New(opcodes.INVOKESTATIC, insn.String("com/example/Log"), insn.String("value"), insn.String("(D)V")),
			insn.New(opcodes.RETURN),
		},
	})
	require.NoError(t, err)

	text := e.Module().String()
	assert.Contains(t, text, "fmul float")
	assert.Contains(t, text, "fpext float")
	assert.Contains(t, text, "@\"com/example/Math.last:D\"")
	assert.Contains(t, text, "global double")
	assert.Contains(t, text, "declare void @\"com/example/Log.value(D)V\"(double")
	assert.Contains(t, text, "ret void")
}

func TestLowerBranches(t *testing.T) {
	top := insn.NewLabel("top")
	e := NewExporter()
	fn, err := lower(t, e, decompiler.Unit{
		Name:       "loop",
		Owner:      "com/example/Math",
		Descriptor: "(I)V",
		Static:     true,
		Instructions: []insn.Instruction{
			insn.Mark(top),
			insn.New(opcodes.ILOAD, insn.Int(0)),
			insn.New(opcodes.BIPUSH, insn.Int(10)),
			insn.New(opcodes.IF_ICMPGT, top),
			insn.New(opcodes.RETURN),
		},
	})
	require.NoError(t, err)

	require.Len(t, fn.Blocks, 3)
	assert.IsType(t, &ir.TermBr{}, fn.Blocks[0].Term)
	assert.IsType(t, &ir.TermCondBr{}, fn.Blocks[1].Term)
	assert.IsType(t, &ir.TermRet{}, fn.Blocks[2].Term)
	assert.Contains(t, e.Module().String(), "icmp sgt i32")
}

func TestLowerStrings(t *testing.T) {
	e := NewExporter()
	for _, name := range []string{"a", "b"} {
		_, err := lower(t, e, decompiler.Unit{
			Name:       name,
			Descriptor: "()Ljava/lang/String;",
			Static:     true,
			Instructions: []insn.Instruction{
				insn.New(opcodes.LDC, insn.String("hi")),
				insn.New(opcodes.ARETURN),
			},
		})
		require.NoError(t, err)
	}

	assert.Len(t, e.Module().Globals, 1)
	assert.Contains(t, e.Module().String(), "c\"hi\"")
}

func TestLowerUnsupported(t *testing.T) {
	e := NewExporter()
	_, err := lower(t, e, decompiler.Unit{
		Name:       "make",
		Owner:      "com/example/Box",
		Descriptor: "()V",
		Static:     true,
		Instructions: []insn.Instruction{
			insn.New(opcodes.NEW, insn.String("com/example/Box")),
			insn.New(opcodes.POP),
			insn.New(opcodes.RETURN),
		},
	})
	require.Error(t, err)
	assert.IsType(t, errors.Unsupported{}, tracerr.Unwrap(err))
	assert.Empty(t, e.Module().Funcs)
}

func TestTypeMapping(t *testing.T) {
	assert.True(t, Type(jvm.CharType).Equal(types.I16))
	assert.True(t, Type(jvm.BooleanType).Equal(types.I1))
	assert.True(t, Type(jvm.StringType).Equal(Reference))
	assert.True(t, Type(jvm.ArrayOf(jvm.IntType)).Equal(Reference))
	assert.True(t, types.IsVoid(Type(jvm.VoidType)))
}

func TestLowerBadDescriptor(t *testing.T) {
	_, err := NewExporter().Lower(decompiler.Unit{Name: "x", Descriptor: "I"}, []ast.Node{ast.Return{}})
	require.Error(t, err)
	assert.IsType(t, errors.BadDescriptor{}, tracerr.Unwrap(err))
}

func TestManifest(t *testing.T) {
	e := NewExporter()
	_, err := e.Lower(decompiler.Unit{Name: "noop", Owner: "a/B", Descriptor: "()V", Static: true}, []ast.Node{ast.Return{}})
	require.NoError(t, err)
	require.NoError(t, e.Manifest())

	text := e.Module().String()
	assert.Contains(t, text, "@__bytetree_units = constant")
	assert.Contains(t, text, `{\22functions\22:{\22a/B.noop()V\22:\22noop\22}}\00`)
}

func TestFailedLowerTakesBackDeclarations(t *testing.T) {
	e := NewExporter()
	_, err := lower(t, e, decompiler.Unit{
		Name:       "logThenMake",
		Descriptor: "()V",
		Static:     true,
		Instructions: []insn.Instruction{
			insn.New(opcodes.LDC, insn.String("hi")),
			insn.New(opcodes.INVOKESTATIC, insn.String("com/example/Log"), insn.String("line"), insn.String("(Ljava/lang/String;)V")),
			insn.New(opcodes.GETSTATIC, insn.String("com/example/Log"), insn.String("level"), insn.String("I")),
			insn.New(opcodes.POP),
			insn.New(opcodes.NEW, insn.String("com/example/Box")),
			insn.New(opcodes.POP),
			insn.New(opcodes.RETURN),
		},
	})
	require.Error(t, err)
	assert.Empty(t, e.Module().Funcs)
	assert.Empty(t, e.Module().Globals)

	_, err = lower(t, e, decompiler.Unit{
		Name:       "log",
		Descriptor: "()V",
		Static:     true,
		Instructions: []insn.Instruction{
			insn.New(opcodes.LDC, insn.String("hi")),
			insn.New(opcodes.INVOKESTATIC, insn.String("com/example/Log"), insn.String("line"), insn.String("(Ljava/lang/String;)V")),
			insn.New(opcodes.RETURN),
		},
	})
	require.NoError(t, err)
	assert.Len(t, e.Module().Funcs, 2)
	assert.Len(t, e.Module().Globals, 1)
}
