package resolver

import (
	"fmt"
	"math"

	"github.com/pontaoski/bytetree/errors"
	"github.com/pontaoski/bytetree/insn"
	"github.com/pontaoski/bytetree/opcodes"
	"github.com/pontaoski/bytetree/types"
)

// LiteralType infers the natural type of a literal value.
func LiteralType(v interface{}) (types.Type, bool) {
	switch v.(type) {
	case nil:
		return types.NullType, true
	case bool:
		return types.BooleanType, true
	case int, int32:
		return types.IntType, true
	case int64:
		return types.LongType, true
	case float32:
		return types.FloatType, true
	case float64:
		return types.DoubleType, true
	case string:
		return types.StringType, true
	case insn.TypeRef:
		return types.ClassType, true
	}
	return types.Type{}, false
}

func intValue(v interface{}) (int32, bool) {
	switch n := v.(type) {
	case int32:
		return n, true
	case int:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return 0, false
		}
		return int32(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func literalMismatch(v interface{}, t types.Type) error {
	return errors.TypeResolutionFailure{
		Node:   fmt.Sprintf("literal %v", v),
		Reason: fmt.Sprintf("value of Go type %T cannot be a %s", v, t),
	}
}

// ConstInstruction picks the most compact encoding of a literal: the
// dedicated zero-operand opcodes first, then BIPUSH for the signed byte
// range, then a constant pool load.
func ConstInstruction(v interface{}, t types.Type) (insn.Instruction, error) {
	switch t.Kind {
	case types.Boolean, types.Byte, types.Char, types.Short, types.Int:
		n, ok := intValue(v)
		if !ok {
			return insn.Instruction{}, literalMismatch(v, t)
		}
		switch {
		case n >= -1 && n <= 5:
			return insn.New(opcodes.ICONST_0 + opcodes.Opcode(n)), nil
		case n >= math.MinInt8 && n <= math.MaxInt8:
			return insn.New(opcodes.BIPUSH, insn.Int(n)), nil
		}
		return insn.New(opcodes.LDC, insn.Int(n)), nil
	case types.Long:
		n, ok := v.(int64)
		if !ok {
			return insn.Instruction{}, literalMismatch(v, t)
		}
		if n == 0 || n == 1 {
			return insn.New(opcodes.LCONST_0 + opcodes.Opcode(n)), nil
		}
		return insn.New(opcodes.LDC, insn.Long(n)), nil
	case types.Float:
		f, ok := v.(float32)
		if !ok {
			return insn.Instruction{}, literalMismatch(v, t)
		}
		if (f == 0 && !math.Signbit(float64(f))) || f == 1 || f == 2 {
			return insn.New(opcodes.FCONST_0 + opcodes.Opcode(f)), nil
		}
		return insn.New(opcodes.LDC, insn.Float(f)), nil
	case types.Double:
		f, ok := v.(float64)
		if !ok {
			return insn.Instruction{}, literalMismatch(v, t)
		}
		if (f == 0 && !math.Signbit(f)) || f == 1 {
			return insn.New(opcodes.DCONST_0 + opcodes.Opcode(f)), nil
		}
		return insn.New(opcodes.LDC, insn.Double(f)), nil
	case types.Reference:
		switch s := v.(type) {
		case nil:
			return insn.New(opcodes.ACONST_NULL), nil
		case string:
			return insn.New(opcodes.LDC, insn.String(s)), nil
		case insn.TypeRef:
			return insn.New(opcodes.LDC, s), nil
		}
	}
	return insn.Instruction{}, literalMismatch(v, t)
}

// ConstInstructionAs encodes a literal with a specific opcode, used when
// a decompiled literal remembers an encoding the heuristic would not
// pick.
func ConstInstructionAs(op opcodes.Opcode, v interface{}, t types.Type) (insn.Instruction, error) {
	switch op {
	case opcodes.BIPUSH, opcodes.SIPUSH:
		n, ok := intValue(v)
		if !ok {
			return insn.Instruction{}, literalMismatch(v, t)
		}
		return insn.New(op, insn.Int(n)), nil
	case opcodes.LDC, opcodes.LDC_W, opcodes.LDC2_W:
		in, err := ConstInstruction(v, t)
		if err != nil {
			return insn.Instruction{}, err
		}
		if in.Opcode != opcodes.LDC {
			operand, ok := poolOperand(v, t)
			if !ok {
				return insn.Instruction{}, literalMismatch(v, t)
			}
			return insn.New(op, operand), nil
		}
		in.Opcode = op
		return in, nil
	}

	in, err := ConstInstruction(v, t)
	if err != nil {
		return insn.Instruction{}, err
	}
	if in.Opcode != op {
		return insn.Instruction{}, literalMismatch(v, t)
	}
	return in, nil
}

func poolOperand(v interface{}, t types.Type) (insn.Operand, bool) {
	switch t.Kind {
	case types.Boolean, types.Byte, types.Char, types.Short, types.Int:
		n, ok := intValue(v)
		return insn.Int(n), ok
	case types.Long:
		n, ok := v.(int64)
		return insn.Long(n), ok
	case types.Float:
		f, ok := v.(float32)
		return insn.Float(f), ok
	case types.Double:
		f, ok := v.(float64)
		return insn.Double(f), ok
	case types.Reference:
		switch s := v.(type) {
		case string:
			return insn.String(s), true
		case insn.TypeRef:
			return s, true
		}
	}
	return nil, false
}

// ConstValue decodes a constant-pushing instruction.
func ConstValue(in insn.Instruction) (interface{}, types.Type, bool) {
	switch op := in.Opcode; {
	case op == opcodes.ACONST_NULL:
		return nil, types.NullType, true
	case op >= opcodes.ICONST_M1 && op <= opcodes.ICONST_5:
		return int32(op - opcodes.ICONST_0), types.IntType, true
	case op == opcodes.LCONST_0 || op == opcodes.LCONST_1:
		return int64(op - opcodes.LCONST_0), types.LongType, true
	case op >= opcodes.FCONST_0 && op <= opcodes.FCONST_2:
		return float32(op - opcodes.FCONST_0), types.FloatType, true
	case op == opcodes.DCONST_0 || op == opcodes.DCONST_1:
		return float64(op - opcodes.DCONST_0), types.DoubleType, true
	}

	if len(in.Operands) != 1 {
		return nil, types.Type{}, false
	}
	switch in.Opcode {
	case opcodes.BIPUSH, opcodes.SIPUSH:
		n, ok := in.Operands[0].(insn.Int)
		return int32(n), types.IntType, ok
	case opcodes.LDC, opcodes.LDC_W, opcodes.LDC2_W:
		switch v := in.Operands[0].(type) {
		case insn.Int:
			return int32(v), types.IntType, true
		case insn.Long:
			return int64(v), types.LongType, true
		case insn.Float:
			return float32(v), types.FloatType, true
		case insn.Double:
			return float64(v), types.DoubleType, true
		case insn.String:
			return string(v), types.StringType, true
		case insn.TypeRef:
			return v, types.ClassType, true
		}
	}
	return nil, types.Type{}, false
}

// offset is the distance of a kind's variant from the int variant in
// the typed opcode families (ILOAD/LLOAD/FLOAD/DLOAD/ALOAD and so on).
func offset(t types.Type) (opcodes.Opcode, bool) {
	switch t.Computational().Kind {
	case types.Int:
		return 0, true
	case types.Long:
		return 1, true
	case types.Float:
		return 2, true
	case types.Double:
		return 3, true
	case types.Reference:
		return 4, true
	}
	return 0, false
}

func kindAt(off opcodes.Opcode) types.Type {
	return []types.Type{types.IntType, types.LongType, types.FloatType, types.DoubleType, types.NullType}[off]
}

func unresolvable(what string, t types.Type) error {
	return errors.TypeResolutionFailure{Node: what, Reason: fmt.Sprintf("no %s for %s", what, t)}
}

func LoadOpcode(t types.Type) (opcodes.Opcode, error) {
	off, ok := offset(t)
	if !ok {
		return 0, unresolvable("load", t)
	}
	return opcodes.ILOAD + off, nil
}

func StoreOpcode(t types.Type) (opcodes.Opcode, error) {
	off, ok := offset(t)
	if !ok {
		return 0, unresolvable("store", t)
	}
	return opcodes.ISTORE + off, nil
}

// LoadType is the slot type implied by a load opcode.
func LoadType(op opcodes.Opcode) (types.Type, bool) {
	if op < opcodes.ILOAD || op > opcodes.ALOAD {
		return types.Type{}, false
	}
	return kindAt(op - opcodes.ILOAD), true
}

func StoreType(op opcodes.Opcode) (types.Type, bool) {
	if op < opcodes.ISTORE || op > opcodes.ASTORE {
		return types.Type{}, false
	}
	return kindAt(op - opcodes.ISTORE), true
}

// ReturnOpcode picks the return for a value of type t, or RETURN for
// a void return when t is nil.
func ReturnOpcode(t *types.Type) (opcodes.Opcode, error) {
	if t == nil {
		return opcodes.RETURN, nil
	}
	off, ok := offset(*t)
	if !ok {
		return 0, unresolvable("return", *t)
	}
	return opcodes.IRETURN + off, nil
}

func ReturnType(op opcodes.Opcode) (types.Type, bool) {
	if op < opcodes.IRETURN || op > opcodes.ARETURN {
		return types.Type{}, false
	}
	return kindAt(op - opcodes.IRETURN), true
}

// ArithOpcode selects the typed variant of IADD, ISUB or IMUL.
func ArithOpcode(base opcodes.Opcode, t types.Type) (opcodes.Opcode, error) {
	off, ok := offset(t)
	if !ok || off > 3 {
		return 0, unresolvable(base.String(), t)
	}
	return base + off, nil
}

// ArithBase splits a typed arithmetic opcode into its int variant and
// operand type.
func ArithBase(op opcodes.Opcode) (opcodes.Opcode, types.Type, bool) {
	for _, base := range []opcodes.Opcode{opcodes.IADD, opcodes.ISUB, opcodes.IMUL} {
		if op >= base && op <= base+3 {
			return base, kindAt(op - base), true
		}
	}
	return 0, types.Type{}, false
}

var arrayStores = map[types.Kind]opcodes.Opcode{
	types.Boolean:   opcodes.BASTORE,
	types.Byte:      opcodes.BASTORE,
	types.Char:      opcodes.CASTORE,
	types.Short:     opcodes.SASTORE,
	types.Int:       opcodes.IASTORE,
	types.Long:      opcodes.LASTORE,
	types.Float:     opcodes.FASTORE,
	types.Double:    opcodes.DASTORE,
	types.Reference: opcodes.AASTORE,
}

func ArrayStoreOpcode(elem types.Type) (opcodes.Opcode, error) {
	op, ok := arrayStores[elem.Kind]
	if !ok {
		return 0, unresolvable("array store", elem)
	}
	return op, nil
}

// ArrayStoreElem is the element type written by an array store. BASTORE
// is reported as byte.
func ArrayStoreElem(op opcodes.Opcode) (types.Type, bool) {
	switch op {
	case opcodes.IASTORE:
		return types.IntType, true
	case opcodes.LASTORE:
		return types.LongType, true
	case opcodes.FASTORE:
		return types.FloatType, true
	case opcodes.DASTORE:
		return types.DoubleType, true
	case opcodes.AASTORE:
		return types.NullType, true
	case opcodes.BASTORE:
		return types.ByteType, true
	case opcodes.CASTORE:
		return types.CharType, true
	case opcodes.SASTORE:
		return types.ShortType, true
	}
	return types.Type{}, false
}

var arrayTypeCodes = map[types.Kind]int32{
	types.Boolean: 4,
	types.Char:    5,
	types.Float:   6,
	types.Double:  7,
	types.Byte:    8,
	types.Short:   9,
	types.Int:     10,
	types.Long:    11,
}

// ArrayTypeCode is the NEWARRAY operand for a primitive element type.
func ArrayTypeCode(elem types.Type) (int32, bool) {
	code, ok := arrayTypeCodes[elem.Kind]
	return code, ok
}

func ArrayTypeFromCode(code int32) (types.Type, bool) {
	for k, c := range arrayTypeCodes {
		if c == code {
			return types.Primitive(k), true
		}
	}
	return types.Type{}, false
}
