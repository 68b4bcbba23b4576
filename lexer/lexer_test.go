package lexer

import (
	"strings"
	"testing"

	"github.com/pontaoski/bytetree/errors"
	"github.com/pontaoski/bytetree/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(tokens []testToken) (ret []types.TokenKind) {
	for _, tok := range tokens {
		ret = append(ret, tok.t.Kind)
	}
	return
}

func TestLexer(t *testing.T) {
	l := NewLexer(strings.NewReader("add {\n  const `type=int|value=0000000000000001`\n  local `slot=1`\n}\nreturn {}"), "stdin")
	tokens := l.lexToEOF()

	assert.Equal(t, []types.TokenKind{
		types.IDENT, types.LBRACKET,
		types.IDENT, types.STRING, types.EOS,
		types.IDENT, types.STRING, types.EOS,
		types.RBRACKET, types.EOS,
		types.IDENT, types.LBRACKET, types.RBRACKET,
	}, kinds(tokens))
	assert.Equal(t, "add", tokens[0].s)
	assert.Equal(t, "type=int|value=0000000000000001", tokens[3].s)
	assert.Equal(t, 2, tokens[2].t.Location.From.Line)
	assert.Equal(t, 3, tokens[2].t.Location.From.Column)
}

func TestLexerSeparators(t *testing.T) {
	l := NewLexer(strings.NewReader("a; b # trailing comment\n\n\nc"), "stdin")
	assert.Equal(t, []types.TokenKind{
		types.IDENT, types.EOS, types.IDENT, types.EOS, types.IDENT,
	}, kinds(l.lexToEOF()))
}

func TestPeek(t *testing.T) {
	l := NewLexer(strings.NewReader("dup `id=0` {"), "stdin")

	require.True(t, l.PeekIs(types.IDENT))
	_, lit := l.LexExpecting(types.IDENT)
	assert.Equal(t, "dup", lit)
	_, lit = l.LexExpecting(types.STRING)
	assert.Equal(t, "id=0", lit)

	assert.PanicsWithValue(t, errors.ExpectedKindGotKind{
		Expected: types.RBRACKET,
		Got:      types.LBRACKET,
		Location: types.SingleCharSpan(types.Position{Line: 1, Column: 12, Filename: "stdin"}),
	}, func() {
		l.LexExpecting(types.RBRACKET)
	})
}

func TestUnterminatedString(t *testing.T) {
	l := NewLexer(strings.NewReader("const `abc"), "stdin")
	l.Lex()
	assert.Panics(t, func() { l.Lex() })
}

func TestIllegalCharacter(t *testing.T) {
	l := NewLexer(strings.NewReader("const $"), "stdin")
	l.Lex()
	assert.PanicsWithValue(t, errors.IllegalCharacter{
		Char:     '$',
		Location: types.SingleCharSpan(types.Position{Line: 1, Column: 7, Filename: "stdin"}),
	}, func() { l.Lex() })
}
