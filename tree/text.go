package tree

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pontaoski/bytetree/ast"
	"github.com/pontaoski/bytetree/errors"
	"github.com/pontaoski/bytetree/lexer"
	"github.com/pontaoski/bytetree/types"
)

// Write prints roots in tree text, one root per line group:
//
//	base `key=value|key=value` {
//	  child
//	}
func Write(w io.Writer, roots []*Node) error {
	bw := bufio.NewWriter(w)
	for _, n := range roots {
		if err := checkAttributes(n); err != nil {
			return err
		}
		writeNode(bw, n, 0)
		bw.WriteString("\n")
	}
	return bw.Flush()
}

// checkAttributes rejects attribute strings the text syntax cannot
// quote.
func checkAttributes(n *Node) error {
	if strings.ContainsRune(n.Attributes, '`') {
		return errors.MalformedTree{Base: n.Base, Detail: "attributes contain a backtick"}
	}
	for _, c := range n.Children {
		if err := checkAttributes(c); err != nil {
			return err
		}
	}
	return nil
}

func writeNode(w *bufio.Writer, n *Node, depth int) {
	w.WriteString(n.Base)
	if n.Attributes != "" {
		fmt.Fprintf(w, " `%s`", n.Attributes)
	}
	if len(n.Children) == 0 {
		return
	}

	w.WriteString(" {\n")
	for _, c := range n.Children {
		w.WriteString(strings.Repeat("  ", depth+1))
		writeNode(w, c, depth+1)
		w.WriteString("\n")
	}
	w.WriteString(strings.Repeat("  ", depth))
	w.WriteString("}")
}

// String renders roots as tree text.
func String(roots []*Node) string {
	var sb strings.Builder
	if err := Write(&sb, roots); err != nil {
		return err.Error()
	}
	return sb.String()
}

type parser struct {
	l *lexer.Lexer
}

// Parse reads tree text. Roots are separated by newlines or ';'.
func Parse(r io.Reader, filename string) (ret []*Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			ret, err = nil, recovered(r)
		}
	}()

	p := parser{l: lexer.NewLexer(r, filename)}
	for {
		p.l.SkipSeparators()
		if p.l.PeekIs(types.EOF) {
			return ret, nil
		}
		ret = append(ret, p.parseNode())
		p.l.LexExpecting(types.EOS, types.EOF)
	}
}

func (p *parser) parseNode() *Node {
	tok, base := p.l.LexExpecting(types.IDENT)
	n := &Node{Base: base, Location: tok.Location}

	if p.l.PeekIs(types.STRING) {
		_, n.Attributes = p.l.Lex()
	}
	if !p.l.PeekIs(types.LBRACKET) {
		return n
	}
	p.l.Lex()

	for {
		p.l.SkipSeparators()
		if p.l.PeekIs(types.RBRACKET) {
			break
		}
		n.Children = append(n.Children, p.parseNode())
		if !p.l.PeekIs(types.RBRACKET) {
			p.l.LexExpecting(types.EOS)
		}
	}
	end, _ := p.l.LexExpecting(types.RBRACKET)
	n.Location.To = end.Location.To

	return n
}

// Marshal encodes expression trees straight to tree text.
func Marshal(roots []ast.Node) (string, error) {
	nodes, err := Encode(roots)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if err := Write(&sb, nodes); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Unmarshal reads tree text back into expression trees.
func Unmarshal(r io.Reader, filename string) ([]ast.Node, *ast.Arena, error) {
	nodes, err := Parse(r, filename)
	if err != nil {
		return nil, nil, err
	}
	return Decode(nodes)
}
