package gemfile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, src string) []string {
	t.Helper()
	lex := NewLexer(strings.NewReader(src), "test.rb")
	var got []string
	for {
		tok, err := lex.Next()
		require.NoError(t, err)
		if tok == TokenEOF {
			return got
		}
		got = append(got, tok.String()+":"+lex.text)
	}
}

func TestLexerIdentifiersAndStrings(t *testing.T) {
	got := lexAll(t, `gem "rails", "~> 6.1"`)
	require.Equal(t, []string{
		"IDENTIFIER:gem",
		"STRING:rails",
		"COMMA:,",
		"STRING:~> 6.1",
	}, got)
}

func TestLexerSymbolAndHashRocket(t *testing.T) {
	got := lexAll(t, `:require => false`)
	require.Equal(t, []string{
		"SYMBOL:require",
		"OPERATOR:=>",
		"IDENTIFIER:false",
	}, got)
}

func TestLexerLineComment(t *testing.T) {
	got := lexAll(t, "gem 'a' # trailing comment\ngem 'b'")
	require.Equal(t, []string{
		"IDENTIFIER:gem", "STRING:a", "EOL:\n",
		"IDENTIFIER:gem", "STRING:b",
	}, got)
}

func TestLexerEOLSuppressedInsideBrackets(t *testing.T) {
	got := lexAll(t, "[\n1,\n2\n]")
	// no EOL tokens should appear between the brackets
	for _, tok := range got {
		require.NotContains(t, tok, "EOL")
	}
}

func TestLexerIntegerLiteral(t *testing.T) {
	got := lexAll(t, `required_ruby_version 3, 1_000`)
	require.Equal(t, []string{
		"IDENTIFIER:required_ruby_version",
		"INTEGER:3",
		"COMMA:,",
		"INTEGER:1000",
	}, got)
}

func TestLexerTracksLineAndColumn(t *testing.T) {
	lex := NewLexer(strings.NewReader("gem 'a'\n  @"), "test.rb")

	tok, err := lex.Next()
	require.NoError(t, err)
	require.Equal(t, TokenIdentifier, tok)
	require.Equal(t, 1, lex.Line())
	require.Equal(t, 3, lex.Column())

	tok, err = lex.Next()
	require.NoError(t, err)
	require.Equal(t, TokenString, tok)

	tok, err = lex.Next()
	require.NoError(t, err)
	require.Equal(t, TokenEOL, tok)

	_, err = lex.Next()
	require.Error(t, err)
	syntaxErr, ok := err.(GemfileSyntaxError)
	require.True(t, ok)
	require.Equal(t, 2, syntaxErr.Line)
	require.Equal(t, 3, syntaxErr.Column)
}

func TestLexerPercentWordLiteral(t *testing.T) {
	lex := NewLexer(strings.NewReader(`%w[foo bar baz]`), "test.rb")
	tok, err := lex.Next()
	require.NoError(t, err)
	require.Equal(t, TokenPercent, tok)
	tok, err = lex.Next()
	require.NoError(t, err)
	require.Equal(t, TokenIdentifier, tok)
	require.Equal(t, "w", lex.text)

	words, err := lex.ReadPercentWord()
	require.NoError(t, err)
	require.Equal(t, []string{"foo", "bar", "baz"}, words)
}
