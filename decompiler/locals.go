package decompiler

import (
	"github.com/pontaoski/bytetree/ast"
	"github.com/pontaoski/bytetree/types"
)

// LocalTable turns slot accesses into variable nodes. It is seeded with
// the method's parameters and follows stores, since a slot can hold
// different types at different points.
type LocalTable struct {
	owner string
	// self is true while slot 0 still holds the receiver.
	self  bool
	slots map[int]types.Type
}

// NewLocalTable seeds a table from the declaring class, the static flag
// and the method descriptor. An empty descriptor seeds nothing but the
// receiver.
func NewLocalTable(owner string, static bool, descriptor string) (*LocalTable, error) {
	t := &LocalTable{
		owner: owner,
		self:  !static,
		slots: map[int]types.Type{},
	}

	slot := 0
	if !static {
		t.slots[0] = types.Object(owner)
		slot = 1
	}
	if descriptor == "" {
		return t, nil
	}

	m, err := types.ParseMethodDescriptor(descriptor)
	if err != nil {
		return nil, err
	}
	for _, param := range m.Params {
		t.slots[slot] = param
		slot += param.Size()
	}

	return t, nil
}

// Load returns the node for reading slot as kind. Slot 0 of an instance
// method read as a reference is the receiver.
func (t *LocalTable) Load(slot int, kind types.Type) ast.Node {
	if slot == 0 && t.self && kind.Kind == types.Reference {
		return ast.This{Class: t.owner}
	}
	return ast.LocalVariable{Slot: slot, Kind: t.refine(slot, kind)}
}

// Store records a write of value to slot and returns the statement.
func (t *LocalTable) Store(slot int, kind types.Type, value ast.Node) ast.StoreVariable {
	if slot == 0 {
		t.self = false
	}

	known := kind
	if vt, ok := ast.TryTypeOf(value); ok && vt.Computational().Kind == kind.Computational().Kind {
		known = vt
	}
	t.slots[slot] = known
	if known.Size() == 2 {
		delete(t.slots, slot+1)
	}

	return ast.StoreVariable{Slot: slot, Kind: known, Value: value}
}

// refine prefers the recorded type of a slot while it agrees with the
// kind the instruction reads.
func (t *LocalTable) refine(slot int, kind types.Type) types.Type {
	known, ok := t.slots[slot]
	if ok && known.Computational().Kind == kind.Computational().Kind {
		return known
	}
	return kind
}
