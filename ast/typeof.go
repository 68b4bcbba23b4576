package ast

import (
	"github.com/pontaoski/bytetree/errors"
	"github.com/pontaoski/bytetree/resolver"
	"github.com/pontaoski/bytetree/types"
)

func untyped(n Node, reason string) errors.TypeResolutionFailure {
	return errors.TypeResolutionFailure{Node: Describe(n), Reason: reason}
}

// TypeOf resolves the type of n and panics when n has none.
func TypeOf(n Node) types.Type {
	if n == nil {
		panic(errors.TypeResolutionFailure{Node: "<missing>", Reason: "no node"})
	}
	t, ok := n.(Typed)
	if !ok {
		panic(untyped(n, "node has no type"))
	}
	return t.Type()
}

// TryTypeOf is TypeOf for callers that can do without a type.
func TryTypeOf(n Node) (t types.Type, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			switch r.(type) {
			case errors.TypeResolutionFailure, errors.BadDescriptor:
				t, ok = types.Type{}, false
			default:
				panic(r)
			}
		}
	}()
	return TypeOf(n), true
}

func (v Literal) Type() types.Type {
	if v.Declared != nil {
		return *v.Declared
	}
	t, ok := resolver.LiteralType(v.Value)
	if !ok {
		panic(untyped(v, "literal value has no natural type"))
	}
	return t
}

func (v BinaryOp) Type() types.Type {
	return resolver.Composite(TypeOf(v.Left), TypeOf(v.Right))
}

func (v Cast) Type() types.Type {
	return v.To
}

func (v CheckCast) Type() types.Type {
	return v.To
}

func (v FieldGet) Type() types.Type {
	t, err := types.ParseFieldDescriptor(v.Descriptor)
	if err != nil {
		panic(errors.BadDescriptor{Descriptor: v.Descriptor, Err: err})
	}
	return t
}

func (v Invocation) Type() types.Type {
	if v.Kind == Constructor {
		return types.Object(v.Owner)
	}
	m, err := types.ParseMethodDescriptor(v.Descriptor)
	if err != nil {
		panic(errors.BadDescriptor{Descriptor: v.Descriptor, Err: err})
	}
	if m.Returns.Kind == types.Void {
		panic(untyped(v, "method returns void"))
	}
	return m.Returns
}

func (v NewAddress) Type() types.Type {
	return types.Object(v.Class)
}

func (v ArrayConstructor) Type() types.Type {
	return types.ArrayOf(v.Elem)
}

func (v StoreArray) Type() types.Type {
	return TypeOf(v.Array)
}

func (v Labeled) Type() types.Type {
	return TypeOf(v.Inner)
}

func (v Duplicate) Type() types.Type {
	return TypeOf(v.Value)
}

func (v LocalVariable) Type() types.Type {
	return v.Kind
}

func (v This) Type() types.Type {
	return types.Object(v.Class)
}
