// Package resolver holds the type tables shared by decompilation and
// recompilation: numeric promotion, the conversion table and opcode
// selection for typed instructions.
package resolver

import (
	"github.com/pontaoski/bytetree/errors"
	"github.com/pontaoski/bytetree/opcodes"
	"github.com/pontaoski/bytetree/types"
)

// rank is the promotion order for binary arithmetic. Sub-int kinds are
// not promoted.
var rank = []types.Kind{types.Double, types.Float, types.Long, types.Int}

// Composite is the result type of a binary arithmetic node: the first
// kind of rank present among the operands, else int.
func Composite(operands ...types.Type) types.Type {
	for _, k := range rank {
		for _, t := range operands {
			if t.Kind == k {
				return types.Primitive(k)
			}
		}
	}
	return types.IntType
}

type castKey struct {
	from types.Kind
	to   types.Kind
}

var casts = map[castKey]opcodes.Opcode{
	{types.Int, types.Long}:     opcodes.I2L,
	{types.Int, types.Float}:    opcodes.I2F,
	{types.Int, types.Double}:   opcodes.I2D,
	{types.Long, types.Int}:     opcodes.L2I,
	{types.Long, types.Float}:   opcodes.L2F,
	{types.Long, types.Double}:  opcodes.L2D,
	{types.Float, types.Int}:    opcodes.F2I,
	{types.Float, types.Long}:   opcodes.F2L,
	{types.Float, types.Double}: opcodes.F2D,
	{types.Double, types.Int}:   opcodes.D2I,
	{types.Double, types.Long}:  opcodes.D2L,
	{types.Double, types.Float}: opcodes.D2F,
	{types.Int, types.Byte}:     opcodes.I2B,
	{types.Int, types.Char}:     opcodes.I2C,
	{types.Int, types.Short}:    opcodes.I2S,
}

// CastOpcode looks up the conversion from one primitive to another.
// Identical kinds yield opcodes.NOOP. Pairs outside the table are an
// error, never approximated.
func CastOpcode(from, to types.Type) (opcodes.Opcode, error) {
	if from.Kind == to.Kind {
		return opcodes.NOOP, nil
	}
	source := from.Computational()
	if source.Kind == to.Kind {
		return opcodes.NOOP, nil
	}
	op, ok := casts[castKey{source.Kind, to.Kind}]
	if !ok {
		return 0, errors.CastNotMapped{From: from, To: to}
	}
	return op, nil
}

// CastTypes is the inverse of CastOpcode for decompilation.
func CastTypes(op opcodes.Opcode) (from, to types.Type, ok bool) {
	for k, v := range casts {
		if v == op {
			return types.Primitive(k.from), types.Primitive(k.to), true
		}
	}
	return types.Type{}, types.Type{}, false
}

// CastCount is the size of the conversion table.
func CastCount() int {
	return len(casts)
}
