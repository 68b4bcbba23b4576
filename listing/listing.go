// Package listing reads and writes YAML files of units: the method
// context plus either an instruction listing or a tree.
package listing

import (
	"fmt"
	"io"
	"io/ioutil"

	"github.com/pontaoski/bytetree/decompiler"
	"github.com/pontaoski/bytetree/insn"
	"gopkg.in/yaml.v2"
)

// File is one listing document.
type File struct {
	Units []Unit `yaml:"units"`
}

// Unit holds either Instructions, one per line in the form printed by
// insn.Instruction.String, or Tree in tree text.
type Unit struct {
	Name         string   `yaml:"name"`
	Owner        string   `yaml:"owner,omitempty"`
	Descriptor   string   `yaml:"descriptor,omitempty"`
	Static       bool     `yaml:"static,omitempty"`
	Instructions []string `yaml:"instructions,omitempty"`
	Tree         string   `yaml:"tree,omitempty"`
}

func Read(r io.Reader) (*File, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var f File
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, err
	}
	for i, u := range f.Units {
		if u.Name == "" {
			return nil, fmt.Errorf("unit %d has no name", i)
		}
	}
	return &f, nil
}

func (f *File) Write(w io.Writer) error {
	out, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// Decode parses the unit's listing. Labels are local to the unit.
func (u Unit) Decode() (decompiler.Unit, error) {
	labels := map[string]*insn.Label{}
	insns := make([]insn.Instruction, 0, len(u.Instructions))
	for i, line := range u.Instructions {
		in, err := ParseInstruction(line, labels)
		if err != nil {
			return decompiler.Unit{}, fmt.Errorf("%s: line %d: %w", u.Name, i+1, err)
		}
		insns = append(insns, in)
	}

	return decompiler.Unit{
		Name:         u.Name,
		Owner:        u.Owner,
		Descriptor:   u.Descriptor,
		Static:       u.Static,
		Instructions: insns,
	}, nil
}

// Context copies everything but the body from a decompiler unit.
func Context(u decompiler.Unit) Unit {
	return Unit{
		Name:       u.Name,
		Owner:      u.Owner,
		Descriptor: u.Descriptor,
		Static:     u.Static,
	}
}

// Encode prints insns into the unit's listing.
func (u *Unit) Encode(insns []insn.Instruction) {
	u.Instructions = Format(insns)
}
