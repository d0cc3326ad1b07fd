package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenKindString(t *testing.T) {
	tests := map[TokenKind]string{
		TokenEOF:           "EOF",
		TokenIdent:         "Identifier",
		TokenStringLiteral: "StringLiteral",
		TokenNull:          "null",
		TokenNonSealed:     "non-sealed",
		TokenEllipsis:      "...",
		TokenUShrAssign:    ">>>=",
		TokenKind(9999):    "Unknown",
	}
	for kind, want := range tests {
		assert.Equal(t, want, kind.String())
	}
}

func TestLookupKeyword(t *testing.T) {
	tests := []struct {
		ident        string
		isModuleInfo bool
		want         TokenKind
	}{
		{"class", false, TokenClass},
		{"synchronized", false, TokenSynchronized},
		{"true", false, TokenTrue},
		{"record", false, TokenRecord},
		{"myVariable", false, TokenIdent},
		{"", false, TokenIdent},
		{"module", false, TokenIdent},
		{"with", false, TokenIdent},
		{"module", true, TokenModule},
		{"requires", true, TokenRequires},
		{"when", false, TokenIdent},
		{"non-sealed", false, TokenIdent},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LookupKeyword(tt.ident, tt.isModuleInfo), "%q module-info=%v", tt.ident, tt.isModuleInfo)
	}
	assert.True(t, IsKeyword("while"))
	assert.False(t, IsKeyword("exports"))
}

// Every spelled token kind lexes back to itself.
func TestSpellingsRoundTrip(t *testing.T) {
	for kind, name := range tokenKindNames {
		if kind == TokenWhen || (name[0] >= 'A' && name[0] <= 'Z') {
			continue
		}
		lexer := NewLexer([]byte(name), "module-info.java")
		tok := lexer.NextToken()
		assert.Equal(t, kind, tok.Kind, name)
		assert.Equal(t, name, tok.Literal)
		assert.Equal(t, TokenEOF, lexer.NextToken().Kind, name)
	}
}
