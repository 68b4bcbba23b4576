package ast

// Arena hands out the ids that tie the stack entries of one duplicated
// value together. One arena belongs to one decompilation or one parsed
// tree.
type Arena struct {
	values map[int]Node
	next   int
}

func NewArena() *Arena {
	return &Arena{values: map[int]Node{}}
}

// Duplicate registers v under a fresh id.
func (a *Arena) Duplicate(v Node) Duplicate {
	id := a.next
	a.next++
	a.values[id] = v
	return Duplicate{ID: id, Value: v}
}

// Put registers v under an id chosen by the caller, as when reading a
// serialized tree.
func (a *Arena) Put(id int, v Node) Duplicate {
	a.values[id] = v
	if id >= a.next {
		a.next = id + 1
	}
	return Duplicate{ID: id, Value: v}
}

func (a *Arena) Get(id int) (Duplicate, bool) {
	v, ok := a.values[id]
	if !ok {
		return Duplicate{}, false
	}
	return Duplicate{ID: id, Value: v}, true
}

func (a *Arena) Len() int {
	return len(a.values)
}
