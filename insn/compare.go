package insn

import (
	"fmt"
	"math"
)

// Equivalent compares two listings by opcode and operands, matching
// labels by position of first appearance rather than identity.
func Equivalent(a, b []Instruction) error {
	if len(a) != len(b) {
		return fmt.Errorf("length %d != %d", len(a), len(b))
	}

	left := map[*Label]int{}
	right := map[*Label]int{}
	number := func(m map[*Label]int, l *Label) int {
		if n, ok := m[l]; ok {
			return n
		}
		m[l] = len(m)
		return m[l]
	}

	for i := range a {
		x, y := a[i], b[i]
		if x.Opcode != y.Opcode || x.IsLabel != y.IsLabel {
			return fmt.Errorf("instruction %d: %s != %s", i, x, y)
		}
		if len(x.Operands) != len(y.Operands) {
			return fmt.Errorf("instruction %d: %s != %s", i, x, y)
		}
		for j := range x.Operands {
			lx, xok := x.Operands[j].(*Label)
			ly, yok := y.Operands[j].(*Label)
			if xok != yok {
				return fmt.Errorf("instruction %d operand %d: %s != %s", i, j, OperandString(x.Operands[j]), OperandString(y.Operands[j]))
			}
			if xok {
				if number(left, lx) != number(right, ly) {
					return fmt.Errorf("instruction %d: label %s does not match %s", i, lx, ly)
				}
				continue
			}
			if !sameOperand(x.Operands[j], y.Operands[j]) {
				return fmt.Errorf("instruction %d operand %d: %s != %s", i, j, OperandString(x.Operands[j]), OperandString(y.Operands[j]))
			}
		}
	}

	return nil
}

// sameOperand compares floating point operands by bit pattern, so NaN
// matches itself and 0.0 does not match -0.0.
func sameOperand(x, y Operand) bool {
	switch a := x.(type) {
	case Float:
		b, ok := y.(Float)
		return ok && math.Float32bits(float32(a)) == math.Float32bits(float32(b))
	case Double:
		b, ok := y.(Double)
		return ok && math.Float64bits(float64(a)) == math.Float64bits(float64(b))
	}
	return x == y
}
