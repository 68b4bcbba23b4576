package lexer

import (
	"bufio"
	"io"
	"unicode"

	"github.com/pontaoski/bytetree/errors"
	"github.com/pontaoski/bytetree/types"
)

// Lexer splits tree text into tokens. A newline after a token that can
// end a node is reported as an EOS, like an explicit ';'. '#' starts a
// comment running to the end of the line.
type Lexer struct {
	pos          types.Position
	reader       *bufio.Reader
	peeked       *types.Token
	peekedString string
	last         types.TokenKind
}

func NewLexer(reader io.Reader, filename string) *Lexer {
	return &Lexer{
		pos:    types.Position{Line: 1, Column: 0, Filename: filename},
		reader: bufio.NewReader(reader),
	}
}

func (l *Lexer) newline() {
	l.pos.Line++
	l.pos.Column = 0
}

func (l *Lexer) backup() {
	if err := l.reader.UnreadRune(); err != nil {
		panic(err)
	}

	l.pos.Column--
}

func (l *Lexer) kinded(t types.TokenKind) types.Token {
	return types.Token{
		Location: types.SingleCharSpan(l.pos),
		Kind:     t,
	}
}

func identChar(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (l *Lexer) lexIdent() (types.Position, types.Position, string) {
	var lit []rune
	var from types.Position
	var to types.Position

	r, _, err := l.reader.ReadRune()
	l.pos.Column++
	from = l.pos
	to = l.pos

	for {
		if err != nil {
			if err == io.EOF {
				return from, to, string(lit)
			}
			panic(err)
		}

		if !identChar(r) {
			l.backup()
			return from, to, string(lit)
		}
		lit = append(lit, r)
		to = l.pos

		r, _, err = l.reader.ReadRune()
		l.pos.Column++
	}
}

// lexString reads a backtick-quoted string. Strings may span lines.
func (l *Lexer) lexString() (types.Position, types.Position, string) {
	var lit []rune

	_, _, err := l.reader.ReadRune()
	if err != nil {
		panic(err)
	}
	l.pos.Column++
	from := l.pos

	for {
		r, _, err := l.reader.ReadRune()
		if err != nil {
			if err == io.EOF {
				panic(errors.ExpectedKindGotKind{
					Expected: types.STRING,
					Got:      types.EOF,
					Location: types.Span{From: from, To: l.pos},
				})
			}
			panic(err)
		}
		l.pos.Column++

		switch r {
		case '`':
			return from, l.pos, string(lit)
		case '\n':
			l.newline()
		}
		lit = append(lit, r)
	}
}

func (l *Lexer) Peek() (types.Token, string) {
	if l.peeked != nil {
		return *l.peeked, l.peekedString
	}

	tok, str := l.Lex()
	l.peeked = &tok
	l.peekedString = str

	return tok, str
}

func (l *Lexer) PeekIs(k ...types.TokenKind) bool {
	token, _ := l.Peek()
	for _, kind := range k {
		if token.Kind == kind {
			return true
		}
	}

	return false
}

func (l *Lexer) LexExpecting(k ...types.TokenKind) (types.Token, string) {
	token, lit := l.Lex()
	for _, kind := range k {
		if token.Kind == kind {
			return token, lit
		}
	}

	if len(k) == 1 {
		panic(errors.ExpectedKindGotKind{
			Expected: k[0],
			Got:      token.Kind,
			Location: token.Location,
		})
	}
	panic(errors.ExpectedOneOfKindGotKind{
		Expected: k,
		Got:      token.Kind,
		Location: token.Location,
	})
}

// SkipSeparators consumes any run of EOS tokens.
func (l *Lexer) SkipSeparators() {
	for l.PeekIs(types.EOS) {
		l.Lex()
	}
}

func endsNode(k types.TokenKind) bool {
	switch k {
	case types.IDENT, types.RBRACKET, types.STRING:
		return true
	}
	return false
}

func (l *Lexer) Lex() (types.Token, string) {
	if l.peeked != nil {
		defer func() { l.peeked = nil }()
		return *l.peeked, l.peekedString
	}

	tok, lit := l.lex()
	l.last = tok.Kind
	return tok, lit
}

func (l *Lexer) lex() (types.Token, string) {
	for {
		r, _, err := l.reader.ReadRune()
		if err != nil {
			if err == io.EOF {
				return l.kinded(types.EOF), ""
			}
			panic(err)
		}

		l.pos.Column++

		data := map[rune]types.TokenKind{
			'{': types.LBRACKET,
			'}': types.RBRACKET,
			';': types.EOS,
		}

		if kind, ok := data[r]; ok {
			return l.kinded(kind), string(r)
		}

		switch {
		case r == '\n':
			tok := l.kinded(types.EOS)
			l.newline()
			if endsNode(l.last) {
				return tok, "\n"
			}
			continue
		case r == '#':
			l.skipComment()
			continue
		case r == '`':
			l.backup()
			from, to, lit := l.lexString()

			return types.Token{Kind: types.STRING, Location: types.Span{From: from, To: to}}, lit
		case unicode.IsSpace(r):
			continue
		case identChar(r):
			l.backup()
			from, to, lit := l.lexIdent()

			return types.Token{Kind: types.IDENT, Location: types.Span{From: from, To: to}}, lit
		}

		panic(errors.IllegalCharacter{Char: r, Location: types.SingleCharSpan(l.pos)})
	}
}

// skipComment drops the rest of the line, leaving the newline.
func (l *Lexer) skipComment() {
	for {
		r, _, err := l.reader.ReadRune()
		if err != nil {
			if err == io.EOF {
				return
			}
			panic(err)
		}
		if r == '\n' {
			l.backup()
			return
		}
		l.pos.Column++
	}
}

type testToken struct {
	t types.Token
	s string
}

func (l *Lexer) lexToEOF() (ret []testToken) {
	t, s := l.Lex()
	for t.Kind != types.EOF {
		ret = append(ret, testToken{
			t: t,
			s: s,
		})
		t, s = l.Lex()
	}
	return
}
