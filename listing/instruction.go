package listing

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/pontaoski/bytetree/insn"
	"github.com/pontaoski/bytetree/opcodes"
)

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// fields splits a line at blanks, keeping quoted strings whole.
func fields(line string) ([]string, error) {
	var ret []string
	s := strings.TrimSpace(line)
	for s != "" {
		if s[0] == '"' {
			q, err := strconv.QuotedPrefix(s)
			if err != nil {
				return nil, fmt.Errorf("unterminated string in %q", line)
			}
			ret = append(ret, q)
			s = strings.TrimLeft(s[len(q):], " \t")
			continue
		}

		end := strings.IndexAny(s, " \t")
		if end < 0 {
			end = len(s)
		}
		ret = append(ret, s[:end])
		s = strings.TrimLeft(s[end:], " \t")
	}
	return ret, nil
}

func labelFor(name string, labels map[string]*insn.Label) *insn.Label {
	l, ok := labels[name]
	if !ok {
		l = insn.NewLabel(name)
		labels[name] = l
	}
	return l
}

// ParseOperand reads one operand in the form written by
// insn.OperandString. Bare identifiers are label references.
func ParseOperand(tok string, labels map[string]*insn.Label) (insn.Operand, error) {
	switch {
	case strings.HasPrefix(tok, `"`):
		s, err := strconv.Unquote(tok)
		if err != nil {
			return nil, fmt.Errorf("bad string %s: %w", tok, err)
		}
		return insn.String(s), nil
	case strings.HasSuffix(tok, ".class") && len(tok) > len(".class"):
		return insn.TypeRef(strings.TrimSuffix(tok, ".class")), nil
	case tok == "true" || tok == "false":
		return insn.Bool(tok == "true"), nil
	}

	if n, err := strconv.ParseInt(tok, 10, 32); err == nil {
		return insn.Int(n), nil
	}
	if body := strings.TrimSuffix(tok, "L"); body != tok {
		if n, err := strconv.ParseInt(body, 10, 64); err == nil {
			return insn.Long(n), nil
		}
	}
	if body := strings.TrimSuffix(tok, "F"); body != tok {
		if f, err := strconv.ParseFloat(body, 32); err == nil {
			return insn.Float(f), nil
		}
	}
	if body := strings.TrimSuffix(tok, "D"); body != tok {
		if f, err := strconv.ParseFloat(body, 64); err == nil {
			return insn.Double(f), nil
		}
	}

	if isIdent(tok) {
		return labelFor(tok, labels), nil
	}
	return nil, fmt.Errorf("cannot read operand %q", tok)
}

// ParseInstruction reads one listing line: either "name:" placing a
// label, or a mnemonic followed by operands.
func ParseInstruction(line string, labels map[string]*insn.Label) (insn.Instruction, error) {
	toks, err := fields(line)
	if err != nil {
		return insn.Instruction{}, err
	}
	if len(toks) == 0 {
		return insn.Instruction{}, fmt.Errorf("empty instruction")
	}

	if len(toks) == 1 && strings.HasSuffix(toks[0], ":") {
		name := strings.TrimSuffix(toks[0], ":")
		if !isIdent(name) {
			return insn.Instruction{}, fmt.Errorf("bad label name %q", name)
		}
		return insn.Mark(labelFor(name, labels)), nil
	}

	op, ok := opcodes.Lookup(toks[0])
	if !ok || op == opcodes.LABEL || op == opcodes.NOOP {
		return insn.Instruction{}, fmt.Errorf("unknown opcode %s", toks[0])
	}

	in := insn.New(op)
	for _, tok := range toks[1:] {
		operand, err := ParseOperand(tok, labels)
		if err != nil {
			return insn.Instruction{}, err
		}
		in.Operands = append(in.Operands, operand)
	}
	return in, nil
}

func readsAsLabel(name string) bool {
	op, err := ParseOperand(name, map[string]*insn.Label{})
	_, ok := op.(*insn.Label)
	return err == nil && ok
}

// namer gives every label of one listing a distinct printable name.
type namer struct {
	names map[*insn.Label]string
	used  map[string]bool
}

func newNamer() *namer {
	return &namer{names: map[*insn.Label]string{}, used: map[string]bool{}}
}

func (n *namer) name(l *insn.Label) string {
	if name, ok := n.names[l]; ok {
		return name
	}

	name := l.Name
	for i := len(n.names); !readsAsLabel(name) || n.used[name]; i++ {
		name = fmt.Sprintf("L%d", i)
	}
	n.names[l] = name
	n.used[name] = true
	return name
}

// Format prints a sequence the way ParseInstruction reads it. Labels
// keep their names where those are unique and readable.
func Format(insns []insn.Instruction) []string {
	n := newNamer()
	ret := make([]string, len(insns))
	for i, in := range insns {
		ret[i] = n.format(in)
	}
	return ret
}

func (n *namer) format(in insn.Instruction) string {
	if in.IsLabel {
		if l := in.Target(); l != nil {
			return n.name(l) + ":"
		}
	}

	parts := []string{in.Opcode.String()}
	for _, op := range in.Operands {
		if l, ok := op.(*insn.Label); ok {
			parts = append(parts, n.name(l))
			continue
		}
		parts = append(parts, insn.OperandString(op))
	}
	return strings.Join(parts, " ")
}
