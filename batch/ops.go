package batch

import (
	"fmt"
	"strings"

	"github.com/pontaoski/bytetree/decompiler"
	"github.com/pontaoski/bytetree/errors"
	"github.com/pontaoski/bytetree/insn"
	"github.com/pontaoski/bytetree/listing"
	"github.com/pontaoski/bytetree/recompiler"
	"github.com/pontaoski/bytetree/tree"
)

// Operation transforms one unit. It must not touch state shared with
// other units.
type Operation func(u listing.Unit) (listing.Unit, error)

// Decompile turns a unit's instructions into its tree.
func Decompile(u listing.Unit) (listing.Unit, error) {
	du, err := u.Decode()
	if err != nil {
		return listing.Unit{}, err
	}

	res, err := decompiler.Decompile(du)
	if err != nil {
		return listing.Unit{}, err
	}

	text, err := tree.Marshal(res.Nodes)
	if err != nil {
		return listing.Unit{}, err
	}

	out := listing.Context(du)
	out.Tree = text
	return out, nil
}

// Recompile turns a unit's tree back into instructions.
func Recompile(u listing.Unit) (listing.Unit, error) {
	if u.Tree == "" && len(u.Instructions) > 0 {
		return listing.Unit{}, fmt.Errorf("%s has instructions but no tree", u.Name)
	}

	nodes, _, err := tree.Unmarshal(strings.NewReader(u.Tree), u.Name)
	if err != nil {
		return listing.Unit{}, err
	}

	insns, err := recompiler.Recompile(nodes)
	if err != nil {
		return listing.Unit{}, err
	}

	out := u
	out.Tree = ""
	out.Encode(insns)
	return out, nil
}

// RoundTrip decompiles a unit, passes the tree through its text form,
// recompiles it and checks the instructions came back. The returned
// unit carries the tree.
func RoundTrip(u listing.Unit) (listing.Unit, error) {
	du, err := u.Decode()
	if err != nil {
		return listing.Unit{}, err
	}

	withTree, err := Decompile(u)
	if err != nil {
		return listing.Unit{}, err
	}
	back, err := Recompile(withTree)
	if err != nil {
		return listing.Unit{}, err
	}
	again, err := back.Decode()
	if err != nil {
		return listing.Unit{}, err
	}

	if err := insn.Equivalent(du.Instructions, again.Instructions); err != nil {
		return withTree, errors.RoundTripMismatch{Unit: u.Name, Err: err}
	}
	return withTree, nil
}
