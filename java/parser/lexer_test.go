package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// kinds lexes src and returns the kinds of every token up to and
// including EOF. Trivia is dropped unless keepTrivia is set.
func kinds(src string, keepTrivia bool) []TokenKind {
	lexer := NewLexer([]byte(src), "Test.java")
	var out []TokenKind
	for {
		tok := lexer.NextToken()
		switch tok.Kind {
		case TokenWhitespace, TokenComment, TokenLineComment:
			if !keepTrivia {
				continue
			}
		}
		out = append(out, tok.Kind)
		if tok.Kind == TokenEOF {
			return out
		}
	}
}

func TestLexerSingleTokens(t *testing.T) {
	tests := []struct {
		input string
		kind  TokenKind
	}{
		{"class", TokenClass},
		{"public", TokenPublic},
		{"extends", TokenExtends},
		{"void", TokenVoid},
		{"boolean", TokenBoolean},
		{"super", TokenSuper},
		{"null", TokenNull},
		{"_private", TokenIdent},
		{"$special", TokenIdent},
		{"with123Numbers", TokenIdent},
		{"...", TokenEllipsis},
		{"::", TokenColonColon},
		{"->", TokenArrow},
		{"!=", TokenNE},
		{"&&", TokenAnd},
		{"~", TokenBitNot},
		{">>>", TokenUShr},
		{"++", TokenIncrement},
		{"%=", TokenPercentAssign},
		{">>>=", TokenUShrAssign},
		{"1_000_000", TokenIntLiteral},
		{"123L", TokenIntLiteral},
		{"0xDEAD_BEEF", TokenIntLiteral},
		{"0b1010_1010", TokenIntLiteral},
		{"3.14f", TokenFloatLiteral},
		{"1.5e-10", TokenFloatLiteral},
		{"1.5E+10", TokenFloatLiteral},
		{`"with \"escapes\""`, TokenStringLiteral},
		{`""`, TokenStringLiteral},
		{`'\''`, TokenCharLiteral},
		{`'\\'`, TokenCharLiteral},
		{"// line", TokenLineComment},
		{"/* line1\n   line2 */", TokenComment},
		{"\"\"\"\n    hello\n    \"\"\"", TokenTextBlock},
		{`"Hello \{name}"`, TokenStringTemplate},
		{"\"\"\"Hello \\{name}\"\"\"", TokenTextBlockTemplate},
		{"   \t\n  ", TokenWhitespace},
		{"#", TokenError},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok := NewLexer([]byte(tt.input), "Test.java").NextToken()
			assert.Equal(t, tt.kind, tok.Kind)
			if tt.kind != TokenError {
				assert.Equal(t, tt.input, tok.Literal)
			}
		})
	}
}

func TestLexerSequences(t *testing.T) {
	assert.Equal(t, []TokenKind{TokenEOF}, kinds("", false))
	assert.Equal(t,
		[]TokenKind{TokenPublic, TokenWhitespace, TokenClass, TokenWhitespace, TokenIdent, TokenWhitespace, TokenLBrace, TokenWhitespace, TokenRBrace, TokenEOF},
		kinds("public class Foo { }", true))
	assert.Equal(t,
		[]TokenKind{TokenClass, TokenEOF},
		kinds("// comment\n/* block */ class", false))
	assert.Equal(t,
		[]TokenKind{TokenShl, TokenShr, TokenUShr, TokenLT, TokenLE, TokenGT, TokenGE, TokenEOF},
		kinds("<< >> >>> < <= > >=", false))
}

func TestLexerPositions(t *testing.T) {
	lexer := NewLexer([]byte("foo\nbar"), "Test.java")
	start := lexer.Position()
	assert.Equal(t, Position{File: "Test.java", Offset: 0, Line: 1, Column: 1}, start)

	first := lexer.NextToken()
	assert.Equal(t, 1, first.Span.Start.Line)
	assert.Equal(t, 1, first.Span.Start.Column)

	require.Equal(t, TokenWhitespace, lexer.NextToken().Kind)

	second := lexer.NextToken()
	assert.Equal(t, 2, second.Span.Start.Line)
	assert.Equal(t, 1, second.Span.Start.Column)
	assert.Equal(t, 4, second.Span.Start.Offset)
}
