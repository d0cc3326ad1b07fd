package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type Lexer struct {
	input        []byte
	file         string
	pos          int
	line         int
	column       int
	isModuleInfo bool
}

func NewLexer(input []byte, file string) *Lexer {
	return &Lexer{
		input:        input,
		file:         file,
		line:         1,
		column:       1,
		isModuleInfo: strings.HasSuffix(file, "module-info.java"),
	}
}

func (l *Lexer) Position() Position {
	return Position{
		File:   l.file,
		Offset: l.pos,
		Line:   l.line,
		Column: l.column,
	}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peekN(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	ch := l.input[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

func (l *Lexer) advanceN(n int) {
	for i := 0; i < n; i++ {
		l.advance()
	}
}

// NextToken returns the next token, trivia included. At the end of input
// it keeps returning TokenEOF.
func (l *Lexer) NextToken() Token {
	start := l.Position()
	ch, next := l.peek(), l.peekN(1)
	switch {
	case l.pos >= len(l.input):
		return Token{Kind: TokenEOF, Span: Span{Start: start, End: start}}
	case ch == '/' && next == '/':
		return l.scanLineComment(start)
	case ch == '/' && next == '*':
		return l.scanBlockComment(start)
	case isSpace(ch):
		return l.scanWhitespace(start)
	case isJavaLetter(ch):
		return l.scanIdentOrKeyword(start)
	case isDigit(ch):
		return l.scanNumber(start)
	case ch == '\'':
		return l.scanCharLiteral(start)
	case ch == '"' && next == '"' && l.peekN(2) == '"':
		return l.scanTextBlock(start)
	case ch == '"':
		return l.scanStringLiteral(start)
	}
	return l.scanOperator(start)
}

func (l *Lexer) scanWhitespace(start Position) Token {
	for isSpace(l.peek()) {
		l.advance()
	}
	return l.token(TokenWhitespace, start)
}

func (l *Lexer) scanLineComment(start Position) Token {
	l.advanceN(2)
	for l.peek() != 0 && l.peek() != '\n' {
		l.advance()
	}
	return l.token(TokenLineComment, start)
}

func (l *Lexer) scanBlockComment(start Position) Token {
	l.advanceN(2)
	for l.peek() != 0 && !(l.peek() == '*' && l.peekN(1) == '/') {
		l.advance()
	}
	l.advanceN(2)
	return l.token(TokenComment, start)
}

func (l *Lexer) scanIdentOrKeyword(start Position) Token {
	for isJavaLetterOrDigit(l.peek()) {
		l.advance()
	}
	literal := string(l.input[start.Offset:l.pos])

	// non-sealed is the only keyword with a hyphen.
	const sealed = "-sealed"
	if literal == "non" && strings.HasPrefix(string(l.input[l.pos:]), sealed) &&
		!isJavaLetterOrDigit(l.peekN(len(sealed))) {
		l.advanceN(len(sealed))
		return l.token(TokenNonSealed, start)
	}
	return l.token(LookupKeyword(literal, l.isModuleInfo), start)
}

func (l *Lexer) scanNumber(start Position) Token {
	if l.peek() == '0' {
		switch l.peekN(1) {
		case 'x', 'X':
			return l.scanHexNumber(start)
		case 'b', 'B':
			return l.scanBinaryNumber(start)
		}
	}
	float := false
	l.digits(isDigit)
	if l.peek() == '.' && isDigit(l.peekN(1)) {
		float = true
		l.advance()
		l.digits(isDigit)
	}
	if l.accept("eE") {
		float = true
		l.accept("+-")
		l.digits(isDigit)
	}
	if l.accept("fFdD") {
		float = true
	} else {
		l.accept("lL")
	}
	return l.number(float, start)
}

func (l *Lexer) scanHexNumber(start Position) Token {
	l.advanceN(2)
	l.digits(isHexDigit)
	float := false
	if l.accept(".") {
		float = true
		l.digits(isHexDigit)
	}
	if l.accept("pP") {
		float = true
		l.accept("+-")
		l.digits(isDigit)
	}
	if float {
		l.accept("fFdD")
	} else {
		l.accept("lL")
	}
	return l.number(float, start)
}

func (l *Lexer) scanBinaryNumber(start Position) Token {
	l.advanceN(2)
	l.digits(func(ch byte) bool { return ch == '0' || ch == '1' })
	l.accept("lL")
	return l.token(TokenIntLiteral, start)
}

func (l *Lexer) number(float bool, start Position) Token {
	if float {
		return l.token(TokenFloatLiteral, start)
	}
	return l.token(TokenIntLiteral, start)
}

// digits advances over digits accepted by ok and underscores.
func (l *Lexer) digits(ok func(byte) bool) {
	for ok(l.peek()) || l.peek() == '_' {
		l.advance()
	}
}

// accept advances over the next byte if it is one of chars.
func (l *Lexer) accept(chars string) bool {
	if ch := l.peek(); ch != 0 && strings.IndexByte(chars, ch) >= 0 {
		l.advance()
		return true
	}
	return false
}

func (l *Lexer) scanCharLiteral(start Position) Token {
	l.advance()
	for l.peek() != 0 && l.peek() != '\'' {
		if l.peek() == '\\' {
			l.advance()
		}
		l.advance()
	}
	l.accept("'")
	return l.token(TokenCharLiteral, start)
}

func (l *Lexer) scanStringLiteral(start Position) Token {
	l.advance()
	hasEmbeddedExpr := false
	for l.peek() != 0 && l.peek() != '"' && l.peek() != '\n' {
		if l.peek() == '\\' {
			l.advance()
			if l.peek() == '{' {
				hasEmbeddedExpr = true
				l.advance()
				l.skipEmbeddedExpression()
				continue
			}
		}
		l.advance()
	}
	l.accept(`"`)
	if hasEmbeddedExpr {
		return l.token(TokenStringTemplate, start)
	}
	return l.token(TokenStringLiteral, start)
}

func (l *Lexer) scanTextBlock(start Position) Token {
	l.advanceN(3)
	hasEmbeddedExpr := false
	for l.peek() != 0 {
		if l.peek() == '"' && l.peekN(1) == '"' && l.peekN(2) == '"' {
			l.advanceN(3)
			break
		}
		if l.peek() == '\\' {
			l.advance()
			if l.peek() == '{' {
				hasEmbeddedExpr = true
				l.advance()
				l.skipEmbeddedExpression()
				continue
			}
		}
		l.advance()
	}
	if hasEmbeddedExpr {
		return l.token(TokenTextBlockTemplate, start)
	}
	return l.token(TokenTextBlock, start)
}

// skipEmbeddedExpression advances to the '}' that closes a template
// expression and leaves it unconsumed.
func (l *Lexer) skipEmbeddedExpression() {
	depth := 1
	for l.peek() != 0 {
		start := l.Position()
		ch, next := l.peek(), l.peekN(1)
		switch {
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return
			}
		case ch == '"' && next == '"' && l.peekN(2) == '"':
			l.scanTextBlock(start)
			continue
		case ch == '"':
			l.scanStringLiteral(start)
			continue
		case ch == '\'':
			l.scanCharLiteral(start)
			continue
		case ch == '/' && next == '/':
			l.scanLineComment(start)
			continue
		case ch == '/' && next == '*':
			l.scanBlockComment(start)
			continue
		}
		l.advance()
	}
}

const longestOperator = 4

// scanOperator takes the longest operator at the current position. A byte
// that starts no operator becomes a one-byte TokenError.
func (l *Lexer) scanOperator(start Position) Token {
	for n := min(longestOperator, len(l.input)-l.pos); n > 0; n-- {
		if kind, ok := operators[string(l.input[l.pos:l.pos+n])]; ok {
			l.advanceN(n)
			return l.token(kind, start)
		}
	}
	l.advance()
	return l.token(TokenError, start)
}

func (l *Lexer) token(kind TokenKind, start Position) Token {
	end := l.Position()
	return Token{Kind: kind, Span: Span{Start: start, End: end}, Literal: string(l.input[start.Offset:end.Offset])}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isJavaLetter(ch byte) bool {
	if ch >= 128 {
		r, _ := utf8.DecodeRune([]byte{ch})
		return unicode.IsLetter(r) || r == '_' || r == '$'
	}
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch == '$'
}

func isJavaLetterOrDigit(ch byte) bool {
	if ch >= 128 {
		r, _ := utf8.DecodeRune([]byte{ch})
		return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$'
	}
	return isJavaLetter(ch) || isDigit(ch)
}
