package ast

import (
	"fmt"
	"strings"

	"github.com/pontaoski/bytetree/insn"
	"github.com/pontaoski/bytetree/types"
)

func typeToString(t *types.Type) string {
	if t == nil {
		return ""
	}
	if t.Kind == types.Reference {
		return strings.ReplaceAll(t.InternalName(), "/", ".")
	}
	return t.Kind.String()
}

func (o Operator) String() string {
	switch o {
	case Sub:
		return "-"
	case Mul:
		return "*"
	}
	return "+"
}

func (k InvokeKind) String() string {
	return [...]string{"static", "virtual", "interface", "dynamic", "super", "constructor"}[k]
}

func (c Comparison) String() string {
	return ">"
}

func join(ns []Node) string {
	var parts []string
	for _, n := range ns {
		parts = append(parts, String(n))
	}
	return strings.Join(parts, ", ")
}

func dotted(internal string) string {
	return strings.ReplaceAll(internal, "/", ".")
}

// String renders n as Java-like source. Duplicated values show their id
// so shared references are visible.
func String(n Node) string {
	switch v := n.(type) {
	case nil:
		return "<nil>"
	case Literal:
		switch lit := v.Value.(type) {
		case nil:
			return "null"
		case string:
			return fmt.Sprintf("%q", lit)
		case int64:
			return fmt.Sprintf("%dL", lit)
		case float32:
			return fmt.Sprintf("%gF", lit)
		case insn.TypeRef:
			return dotted(string(lit)) + ".class"
		}
		return fmt.Sprintf("%v", v.Value)
	case BinaryOp:
		return fmt.Sprintf("(%s %s %s)", String(v.Left), v.Op, String(v.Right))
	case Cast:
		return fmt.Sprintf("((%s) %s)", typeToString(&v.To), String(v.Origin))
	case CheckCast:
		return fmt.Sprintf("((%s) %s)", typeToString(&v.To), String(v.Value))
	case FieldGet:
		if v.Static {
			return dotted(v.Owner) + "." + v.Name
		}
		return String(v.Receiver) + "." + v.Name
	case FieldPut:
		if v.Static {
			return fmt.Sprintf("%s.%s = %s", dotted(v.Owner), v.Name, String(v.Value))
		}
		return fmt.Sprintf("%s.%s = %s", String(v.Receiver), v.Name, String(v.Value))
	case Invocation:
		switch v.Kind {
		case Constructor:
			return fmt.Sprintf("new %s(%s)", dotted(v.Owner), join(v.Arguments))
		case Super:
			return fmt.Sprintf("super.%s(%s)", v.Name, join(v.Arguments))
		case Static:
			return fmt.Sprintf("%s.%s(%s)", dotted(v.Owner), v.Name, join(v.Arguments))
		case Dynamic:
			return fmt.Sprintf("invokedynamic %s(%s)", v.Name, join(v.Arguments))
		}
		return fmt.Sprintf("%s.%s(%s)", String(v.Receiver), v.Name, join(v.Arguments))
	case NewAddress:
		return fmt.Sprintf("new %s", dotted(v.Class))
	case ArrayConstructor:
		return fmt.Sprintf("new %s[%s]", typeToString(&v.Elem), String(v.Size))
	case StoreArray:
		return fmt.Sprintf("%s[%s] = %s", String(v.Array), String(v.Index), String(v.Value))
	case If:
		return fmt.Sprintf("if (%s %s %s) goto %s", String(v.Left), v.Cmp, String(v.Right), v.Target)
	case Label:
		return insnString(v.Mark)
	case Labeled:
		return insnString(v.Mark) + " " + String(v.Inner)
	case Duplicate:
		return fmt.Sprintf("#%d=%s", v.ID, String(v.Value))
	case Return:
		if v.Value == nil {
			return "return"
		}
		return "return " + String(v.Value)
	case LocalVariable:
		return fmt.Sprintf("local%d", v.Slot)
	case This:
		return "this"
	case StoreVariable:
		return fmt.Sprintf("local%d = %s", v.Slot, String(v.Value))
	case Discard:
		return String(v.Value) + ";"
	case Raw:
		return "raw " + v.Instruction.String()
	}

	return fmt.Sprintf("%#v", n)
}

func insnString(in insn.Instruction) string {
	if l := in.Target(); l != nil && in.IsLabel {
		return l.Name + ":"
	}
	return "[" + in.String() + "]"
}

// Describe is a short form of String for error messages.
func Describe(n Node) string {
	s := String(n)
	if len(s) > 60 {
		s = s[:57] + "..."
	}
	return fmt.Sprintf("%T %s", n, s)
}
