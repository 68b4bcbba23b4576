package llvmexport

import (
	"github.com/llir/llvm/ir/types"
	jvm "github.com/pontaoski/bytetree/types"
)

// References are opaque byte pointers; nothing looks inside them.
var Reference = types.I8Ptr

var primitives = map[jvm.Kind]types.Type{
	jvm.Void:    types.Void,
	jvm.Boolean: types.I1,
	jvm.Byte:    types.I8,
	jvm.Char:    types.I16,
	jvm.Short:   types.I16,
	jvm.Int:     types.I32,
	jvm.Long:    types.I64,
	jvm.Float:   types.Float,
	jvm.Double:  types.Double,
}

// Type maps a JVM type to its LLVM counterpart.
func Type(t jvm.Type) types.Type {
	if t.Kind == jvm.Reference {
		return Reference
	}
	return primitives[t.Kind]
}

func unsigned(t jvm.Type) bool {
	return t.Kind == jvm.Char || t.Kind == jvm.Boolean
}
