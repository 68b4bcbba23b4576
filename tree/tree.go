// Package tree is the interchange form of expression trees: nodes with a
// string base, an attribute string and ordered children, plus a text
// syntax to read and write them.
package tree

import (
	"github.com/pontaoski/bytetree/types"
)

// Node is one serialized tree node. Location is set for nodes read
// from text.
type Node struct {
	Base       string
	Attributes string
	Children   []*Node
	Location   types.Span
}

func (n *Node) attrs() Attributes {
	a, err := ParseAttributes(n.Attributes)
	if err != nil {
		panic(malformed(n, err.Error()))
	}
	return a
}
