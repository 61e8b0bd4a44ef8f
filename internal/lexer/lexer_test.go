package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eshc-lang/eshc/internal/lexer"
	"github.com/eshc-lang/eshc/internal/token"
)

func kinds(t []token.Token) []token.Kind {
	ks := make([]token.Kind, len(t))
	for i, tok := range t {
		ks[i] = tok.Kind
	}
	return ks
}

func TestTokenizeArithmetic(t *testing.T) {
	toks, err := lexer.Tokenize("x + 8 / 2 * 4")
	require.NoError(t, err)
	require.Equal(t, []token.Kind{
		token.IDENT, token.PLUS, token.NUMBER, token.SLASH, token.NUMBER,
		token.STAR, token.NUMBER, token.EOF,
	}, kinds(toks))
}

func TestTokenizeLongestMatchPunctuation(t *testing.T) {
	toks, err := lexer.Tokenize("a <= b && c != d -> e")
	require.NoError(t, err)
	require.Equal(t, []token.Kind{
		token.IDENT, token.LESS_EQ, token.IDENT, token.AND, token.IDENT,
		token.NOT_EQUAL, token.IDENT, token.ARROW, token.IDENT, token.EOF,
	}, kinds(toks))
}

func TestTokenizeKeywords(t *testing.T) {
	toks, err := lexer.Tokenize("func if else return break true false struct for while domain")
	require.NoError(t, err)
	require.Equal(t, []token.Kind{
		token.FUNC, token.IF, token.ELSE, token.RETURN, token.BREAK, token.TRUE,
		token.FALSE, token.STRUCT, token.FOR, token.WHILE, token.DOMAIN, token.EOF,
	}, kinds(toks))
}

func TestTokenizeStringEscapes(t *testing.T) {
	toks, err := lexer.Tokenize(`"a\nb\tc\"d\\e"`)
	require.NoError(t, err)
	require.Len(t, toks, 2)
	require.Equal(t, token.STRING, toks[0].Kind)
	require.Equal(t, "a\nb\tc\"d\\e", toks[0].Text)
}

func TestUnterminatedStringIsError(t *testing.T) {
	_, err := lexer.Tokenize(`"abc`)
	require.Error(t, err)
	var lexErr *lexer.Error
	require.ErrorAs(t, err, &lexErr)
	require.Equal(t, lexer.UnterminatedString, lexErr.Kind)
}

func TestInvalidCharacterIsError(t *testing.T) {
	_, err := lexer.Tokenize("x @ y")
	require.Error(t, err)
	var lexErr *lexer.Error
	require.ErrorAs(t, err, &lexErr)
	require.Equal(t, lexer.InvalidCharacter, lexErr.Kind)
}

func TestNewlineTracksLineAndColumn(t *testing.T) {
	toks, err := lexer.Tokenize("x\ny")
	require.NoError(t, err)
	require.Equal(t, 1, toks[0].Range.Start.Line)
	require.Equal(t, 2, toks[1].Range.Start.Line)
	require.Equal(t, 1, toks[1].Range.Start.Column)
}

func TestTokenizeRetainsLineComment(t *testing.T) {
	toks, err := lexer.Tokenize("x // trailing note\ny")
	require.NoError(t, err)
	require.Equal(t, []token.Kind{token.IDENT, token.COMMENT, token.IDENT, token.EOF}, kinds(toks))
	require.Equal(t, " trailing note", toks[1].Text)
}

func TestTokenizeCommentAtEndOfInputHasNoTrailingNewline(t *testing.T) {
	toks, err := lexer.Tokenize("// done")
	require.NoError(t, err)
	require.Equal(t, []token.Kind{token.COMMENT, token.EOF}, kinds(toks))
	require.Equal(t, " done", toks[0].Text)
}

func TestRangeCoverage(t *testing.T) {
	toks, err := lexer.Tokenize("func add(num a, num b) -> num { return a + b; }")
	require.NoError(t, err)
	for i, tok := range toks {
		require.False(t, tok.Range.End.Offset < tok.Range.Start.Offset, "token %d has end before start", i)
		if i > 0 {
			require.GreaterOrEqual(t, tok.Range.Start.Offset, toks[i-1].Range.Start.Offset)
		}
	}
}
