package ast

import (
	"testing"

	"github.com/pontaoski/bytetree/errors"
	"github.com/pontaoski/bytetree/insn"
	"github.com/pontaoski/bytetree/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnwrap(t *testing.T) {
	arena := NewArena()
	inner := This{Class: "com/example/Foo"}
	wrapped := Labeled{Mark: insn.Mark(insn.NewLabel("L0")), Inner: arena.Duplicate(inner)}

	assert.Equal(t, inner, Unwrap(wrapped))
	assert.Equal(t, inner, Unwrap(inner))
}

func TestTypeOf(t *testing.T) {
	sum := BinaryOp{Op: Add, Left: Const(int32(1)), Right: Const(int64(2))}
	assert.Equal(t, types.LongType, TypeOf(sum))

	assert.Equal(t, types.ShortType, TypeOf(TypedConst(int32(3), types.ShortType)))
	assert.Equal(t, types.Object("java/util/List"), TypeOf(Invocation{Kind: Constructor, Owner: "java/util/List"}))
	assert.Equal(t, types.StringType, TypeOf(FieldGet{Static: true, Descriptor: "Ljava/lang/String;"}))

	array := ArrayConstructor{Elem: types.IntType, Size: Const(int32(3))}
	assert.Equal(t, types.ArrayOf(types.IntType), TypeOf(StoreArray{Array: array}))
}

func TestTypeOfUntyped(t *testing.T) {
	assert.Panics(t, func() { TypeOf(Discard{Value: Const(int32(1))}) })

	call := Invocation{Kind: Static, Owner: "a/B", Name: "run", Descriptor: "()V"}
	_, ok := TryTypeOf(call)
	assert.False(t, ok)

	_, ok = TryTypeOf(FieldGet{Descriptor: "Q"})
	assert.False(t, ok)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		assert.IsType(t, errors.TypeResolutionFailure{}, r)
	}()
	TypeOf(nil)
}

func TestOperandsArePushOrder(t *testing.T) {
	recv, arg1, arg2 := This{}, Const(int32(1)), Const(int32(2))
	call := Invocation{Kind: Virtual, Receiver: recv, Arguments: []Node{arg1, arg2}}
	assert.Equal(t, []Node{recv, arg1, arg2}, Operands(call))

	store := StoreArray{Array: recv, Index: arg1, Value: arg2}
	assert.Equal(t, []Node{recv, arg1, arg2}, Operands(store))

	assert.Empty(t, Operands(Return{}))
}

func TestArena(t *testing.T) {
	a := NewArena()
	first := a.Duplicate(Const(int32(1)))
	second := a.Duplicate(Const(int32(2)))
	assert.NotEqual(t, first.ID, second.ID)

	a.Put(10, Const(int32(3)))
	third := a.Duplicate(Const(int32(4)))
	assert.Equal(t, 11, third.ID)

	got, ok := a.Get(first.ID)
	require.True(t, ok)
	assert.Equal(t, first, got)
	assert.Equal(t, 4, a.Len())
}

func TestString(t *testing.T) {
	arena := NewArena()
	sb := arena.Duplicate(NewAddress{Class: "java/lang/StringBuilder"})
	call := Invocation{Kind: Constructor, Owner: "java/lang/StringBuilder", Receiver: sb, Arguments: []Node{Const("x")}}

	assert.Equal(t, `new java.lang.StringBuilder("x")`, String(call))
	assert.Equal(t, "#0=new java.lang.StringBuilder", String(sb))
	assert.Equal(t, "return (local1 * 2L)", String(Return{Value: BinaryOp{Op: Mul, Left: LocalVariable{Slot: 1}, Right: Const(int64(2))}}))
}
