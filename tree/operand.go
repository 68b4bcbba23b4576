package tree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pontaoski/bytetree/insn"
	"github.com/pontaoski/bytetree/types"
)

const tagLabel = "label"

func operandLiteral(op insn.Operand) (interface{}, types.Type, bool) {
	switch v := op.(type) {
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
	case insn.Bool:
		return bool(v), types.BooleanType, true
	}
	return nil, types.Type{}, false
}

func literalOperand(v interface{}) (insn.Operand, bool) {
	switch x := v.(type) {
	case int32:
		return insn.Int(x), true
	case int64:
		return insn.Long(x), true
	case float32:
		return insn.Float(x), true
	case float64:
		return insn.Double(x), true
	case string:
		return insn.String(x), true
	case insn.TypeRef:
		return x, true
	case bool:
		return insn.Bool(x), true
	}
	return nil, false
}

// encodeOperand writes an instruction operand as tag:payload. Labels
// are written as label:N with N local to one encoding.
func (e *encoder) encodeOperand(op insn.Operand) string {
	if l, ok := op.(*insn.Label); ok {
		return tagLabel + ":" + strconv.Itoa(e.label(l))
	}

	v, t, ok := operandLiteral(op)
	if !ok {
		panic(unencodable(fmt.Sprintf("operand %#v", op)))
	}
	tag, payload, err := EncodeLiteral(v, t)
	if err != nil {
		panic(unencodable(err.Error()))
	}
	return tag + ":" + payload
}

func (d *decoder) decodeOperand(n *Node, s string) insn.Operand {
	colon := strings.IndexByte(s, ':')
	if colon < 0 {
		panic(malformed(n, fmt.Sprintf("operand %q has no tag", s)))
	}
	tag, payload := s[:colon], s[colon+1:]

	if tag == tagLabel {
		return d.label(n, payload)
	}

	v, _, err := DecodeLiteral(tag, payload)
	if err != nil {
		panic(malformed(n, err.Error()))
	}
	op, ok := literalOperand(v)
	if !ok {
		panic(malformed(n, fmt.Sprintf("%s is not an operand type", tag)))
	}
	return op
}
