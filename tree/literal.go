package tree

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/pontaoski/bytetree/insn"
	"github.com/pontaoski/bytetree/types"
)

// Literal tags. The primitive tags are the kind names; string, class
// and null cover the reference constants.
const (
	tagString = "string"
	tagClass  = "class"
	tagNull   = "null"
)

func hexBytes(b []byte) string {
	parts := make([]string, len(b))
	for i, c := range b {
		parts[i] = hex.EncodeToString([]byte{c})
	}
	return strings.Join(parts, " ")
}

func unhexBytes(s string) ([]byte, error) {
	fields := strings.Fields(s)
	ret := make([]byte, len(fields))
	for i, f := range fields {
		if len(f) != 2 {
			return nil, fmt.Errorf("%q is not a byte pair", f)
		}
		b, err := hex.DecodeString(f)
		if err != nil {
			return nil, err
		}
		ret[i] = b[0]
	}
	return ret, nil
}

func int64Bytes(n int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(n))
	return b[:]
}

// EncodeLiteral returns the tag and payload of a constant of type t.
// Integral kinds take 8 big-endian bytes, float and double their IEEE
// bits, boolean a single byte and strings their UTF-8 bytes.
func EncodeLiteral(v interface{}, t types.Type) (tag string, payload string, err error) {
	switch t.Kind {
	case types.Boolean:
		var on bool
		switch b := v.(type) {
		case bool:
			on = b
		case int32:
			on = b != 0
		case int:
			on = b != 0
		default:
			return "", "", fmt.Errorf("%#v is not a boolean", v)
		}
		if on {
			return t.Kind.String(), "01", nil
		}
		return t.Kind.String(), "00", nil
	case types.Byte, types.Char, types.Short, types.Int, types.Long:
		var n int64
		switch i := v.(type) {
		case int32:
			n = int64(i)
		case int:
			n = int64(i)
		case int64:
			n = i
		default:
			return "", "", fmt.Errorf("%#v is not a %s", v, t)
		}
		return t.Kind.String(), hexBytes(int64Bytes(n)), nil
	case types.Float:
		f, ok := v.(float32)
		if !ok {
			return "", "", fmt.Errorf("%#v is not a float", v)
		}
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], math.Float32bits(f))
		return t.Kind.String(), hexBytes(b[:]), nil
	case types.Double:
		f, ok := v.(float64)
		if !ok {
			return "", "", fmt.Errorf("%#v is not a double", v)
		}
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], math.Float64bits(f))
		return t.Kind.String(), hexBytes(b[:]), nil
	case types.Reference:
		switch s := v.(type) {
		case nil:
			return tagNull, "", nil
		case string:
			return tagString, hexBytes([]byte(s)), nil
		case insn.TypeRef:
			return tagClass, hexBytes([]byte(s)), nil
		}
	}
	return "", "", fmt.Errorf("no literal encoding for %#v as %s", v, t)
}

// DecodeLiteral is the inverse of EncodeLiteral.
func DecodeLiteral(tag, payload string) (interface{}, types.Type, error) {
	b, err := unhexBytes(payload)
	if err != nil {
		return nil, types.Type{}, err
	}

	switch tag {
	case tagNull:
		if len(b) != 0 {
			return nil, types.Type{}, fmt.Errorf("null literal carries %d bytes", len(b))
		}
		return nil, types.NullType, nil
	case tagString, tagClass:
		if !utf8.Valid(b) {
			return nil, types.Type{}, fmt.Errorf("%s literal is not UTF-8", tag)
		}
		if tag == tagClass {
			return insn.TypeRef(b), types.ClassType, nil
		}
		return string(b), types.StringType, nil
	}

	kind, ok := types.ParseKind(tag)
	if !ok || kind == types.Void || kind == types.Reference {
		return nil, types.Type{}, fmt.Errorf("unknown literal tag %q", tag)
	}
	t := types.Primitive(kind)

	switch kind {
	case types.Boolean:
		if len(b) != 1 || b[0] > 1 {
			return nil, types.Type{}, fmt.Errorf("boolean literal must be 00 or 01")
		}
		return b[0] == 1, t, nil
	case types.Float:
		if len(b) != 4 {
			return nil, types.Type{}, fmt.Errorf("float literal needs 4 bytes, has %d", len(b))
		}
		return math.Float32frombits(binary.BigEndian.Uint32(b)), t, nil
	case types.Double:
		if len(b) != 8 {
			return nil, types.Type{}, fmt.Errorf("double literal needs 8 bytes, has %d", len(b))
		}
		return math.Float64frombits(binary.BigEndian.Uint64(b)), t, nil
	}

	if len(b) != 8 {
		return nil, types.Type{}, fmt.Errorf("%s literal needs 8 bytes, has %d", tag, len(b))
	}
	n := int64(binary.BigEndian.Uint64(b))
	if kind == types.Long {
		return n, t, nil
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return nil, types.Type{}, fmt.Errorf("%d does not fit a %s", n, tag)
	}
	return int32(n), t, nil
}
