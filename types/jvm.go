package types

import (
	"fmt"
	"strings"
)

// Kind is the primitive category of a JVM value.
type Kind int

const (
	Void Kind = iota
	Boolean
	Byte
	Char
	Short
	Int
	Long
	Float
	Double
	Reference
)

var kindNames = map[Kind]string{
	Void:      "void",
	Boolean:   "boolean",
	Byte:      "byte",
	Char:      "char",
	Short:     "short",
	Int:       "int",
	Long:      "long",
	Float:     "float",
	Double:    "double",
	Reference: "reference",
}

var kindLetters = map[Kind]string{
	Void:    "V",
	Boolean: "Z",
	Byte:    "B",
	Char:    "C",
	Short:   "S",
	Int:     "I",
	Long:    "J",
	Float:   "F",
	Double:  "D",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return Void, false
}

// Type is a resolved value type. Descriptor is only meaningful for
// references and may be empty when the concrete class is unknown.
type Type struct {
	Kind       Kind
	Descriptor string
}

var (
	VoidType    = Type{Kind: Void}
	BooleanType = Type{Kind: Boolean}
	ByteType    = Type{Kind: Byte}
	CharType    = Type{Kind: Char}
	ShortType   = Type{Kind: Short}
	IntType     = Type{Kind: Int}
	LongType    = Type{Kind: Long}
	FloatType   = Type{Kind: Float}
	DoubleType  = Type{Kind: Double}

	ObjectType = Object("java/lang/Object")
	StringType = Object("java/lang/String")
	ClassType  = Object("java/lang/Class")
	// NullType is a reference whose class is not known.
	NullType = Type{Kind: Reference}
)

// Primitive returns the type for a non-reference kind.
func Primitive(k Kind) Type {
	return Type{Kind: k}
}

// Object returns the reference type for an internal class name such as
// java/lang/String, or for an array descriptor such as [I.
func Object(internalName string) Type {
	if strings.HasPrefix(internalName, "[") {
		return Type{Kind: Reference, Descriptor: internalName}
	}
	return Type{Kind: Reference, Descriptor: "L" + internalName + ";"}
}

// ArrayOf returns the array type with the given element type.
func ArrayOf(elem Type) Type {
	return Type{Kind: Reference, Descriptor: "[" + elem.Desc()}
}

func (t Type) IsPrimitive() bool {
	return t.Kind != Reference && t.Kind != Void
}

func (t Type) IsReference() bool {
	return t.Kind == Reference
}

func (t Type) IsArray() bool {
	return t.Kind == Reference && strings.HasPrefix(t.Descriptor, "[")
}

// Elem returns the element type of an array type.
func (t Type) Elem() (Type, bool) {
	if !t.IsArray() {
		return Type{}, false
	}
	elem, err := ParseFieldDescriptor(t.Descriptor[1:])
	if err != nil {
		return Type{}, false
	}
	return elem, true
}

// Desc renders the field descriptor of t. References without a known
// class render as java/lang/Object.
func (t Type) Desc() string {
	if t.Kind == Reference {
		if t.Descriptor == "" {
			return ObjectType.Descriptor
		}
		return t.Descriptor
	}
	return kindLetters[t.Kind]
}

// InternalName is the name used by NEW, CHECKCAST and ANEWARRAY operands.
func (t Type) InternalName() string {
	d := t.Desc()
	if strings.HasPrefix(d, "L") && strings.HasSuffix(d, ";") {
		return d[1 : len(d)-1]
	}
	return d
}

// Computational maps the sub-int kinds to int, the way values live on
// the operand stack.
func (t Type) Computational() Type {
	switch t.Kind {
	case Boolean, Byte, Char, Short:
		return IntType
	}
	return t
}

// Size is the number of local slots or stack words the type occupies.
func (t Type) Size() int {
	switch t.Kind {
	case Void:
		return 0
	case Long, Double:
		return 2
	}
	return 1
}

func (t Type) String() string {
	if t.Kind == Reference {
		if t.Descriptor == "" {
			return "reference"
		}
		return t.Descriptor
	}
	return t.Kind.String()
}

// ParseFieldDescriptor parses a single type descriptor like I, [J or
// Ljava/lang/String;.
func ParseFieldDescriptor(desc string) (Type, error) {
	t, rest, err := parseOne(desc)
	if err != nil {
		return Type{}, err
	}
	if rest != "" {
		return Type{}, fmt.Errorf("trailing data %q in descriptor %q", rest, desc)
	}
	return t, nil
}

// MethodDescriptor is a parsed method descriptor.
type MethodDescriptor struct {
	Params  []Type
	Returns Type
}

// Arity is the number of arguments popped by an invocation.
func (m MethodDescriptor) Arity() int {
	return len(m.Params)
}

func ParseMethodDescriptor(desc string) (MethodDescriptor, error) {
	if !strings.HasPrefix(desc, "(") {
		return MethodDescriptor{}, fmt.Errorf("method descriptor %q does not start with '('", desc)
	}

	var m MethodDescriptor
	rest := desc[1:]
	for {
		if rest == "" {
			return MethodDescriptor{}, fmt.Errorf("unterminated parameter list in %q", desc)
		}
		if rest[0] == ')' {
			rest = rest[1:]
			break
		}

		var (
			t   Type
			err error
		)
		t, rest, err = parseOne(rest)
		if err != nil {
			return MethodDescriptor{}, err
		}
		if t.Kind == Void {
			return MethodDescriptor{}, fmt.Errorf("void parameter in %q", desc)
		}
		m.Params = append(m.Params, t)
	}

	ret, err := ParseFieldDescriptor(rest)
	if err != nil {
		return MethodDescriptor{}, err
	}
	m.Returns = ret

	return m, nil
}

func parseOne(desc string) (Type, string, error) {
	if desc == "" {
		return Type{}, "", fmt.Errorf("empty descriptor")
	}

	switch desc[0] {
	case 'V':
		return VoidType, desc[1:], nil
	case 'Z':
		return BooleanType, desc[1:], nil
	case 'B':
		return ByteType, desc[1:], nil
	case 'C':
		return CharType, desc[1:], nil
	case 'S':
		return ShortType, desc[1:], nil
	case 'I':
		return IntType, desc[1:], nil
	case 'J':
		return LongType, desc[1:], nil
	case 'F':
		return FloatType, desc[1:], nil
	case 'D':
		return DoubleType, desc[1:], nil
	case 'L':
		end := strings.IndexByte(desc, ';')
		if end < 0 {
			return Type{}, "", fmt.Errorf("unterminated class descriptor %q", desc)
		}
		return Type{Kind: Reference, Descriptor: desc[:end+1]}, desc[end+1:], nil
	case '[':
		elem, rest, err := parseOne(desc[1:])
		if err != nil {
			return Type{}, "", err
		}
		if elem.Kind == Void {
			return Type{}, "", fmt.Errorf("array of void in %q", desc)
		}
		return Type{Kind: Reference, Descriptor: desc[:len(desc)-len(rest)]}, rest, nil
	}

	return Type{}, "", fmt.Errorf("unexpected %q in descriptor", desc[0])
}
