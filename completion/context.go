package completion

import (
	"context"
	"fmt"
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/dhamidi/dew/compiler"
	"github.com/dhamidi/dew/java"
	"github.com/dhamidi/dew/java/parser"
	"github.com/dhamidi/dew/phase"
)

// Context is the state of one completion request. It is built by Resolve
// and discarded after Complete.
type Context struct {
	Offset int

	ctx    context.Context
	task   *compiler.Task
	text   string
	tokens []parser.Token
	path   []*parser.Node

	prefix    string
	anchor    int
	prev      int
	inString  bool
	inComment bool

	// position flags, set by the site handlers
	afterExtends      bool
	insideNew         bool
	insideForEachExpr bool
	insideClassHeader bool
	anonymousArgs     bool

	excluded map[string]bool
	items    []Item

	source     *java.SourceUnit
	sourceDone bool
	scope      *scope
	smart      []string
	smartDone  bool
	err        error
	depth      int
}

// Resolve parses the unit if needed and locates offset in its tree.
func Resolve(ctx context.Context, task *compiler.Task, offset int) (*Context, error) {
	text := task.Text()
	if offset < 0 || offset > len(text) {
		return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrOffsetOutOfRange, offset, len(text))
	}
	if _, err := task.Advance(ctx, phase.Parsed); err != nil {
		return nil, err
	}
	c := &Context{
		Offset:   offset,
		ctx:      ctx,
		task:     task,
		text:     text,
		tokens:   task.Tokens(),
		excluded: map[string]bool{},
	}
	for _, com := range task.Comments() {
		if com.Span.Start.Offset < offset && offset <= com.Span.End.Offset {
			// a line comment ends before its newline, so offset == End is still inside
			if com.Kind == parser.TokenLineComment || offset < com.Span.End.Offset {
				c.inComment = true
			}
		}
	}
	c.findPrefix()
	c.prev = c.tokenBefore(c.anchor)
	if tree := task.Tree(); tree != nil {
		c.path = c.pathTo(tree)
	}
	log.Debug("resolved", "offset", offset, "prefix", c.prefix, "leaf", c.Leaf().Kind)
	return c, nil
}

// Prefix is the partial word left of the offset, or "" when the offset
// does not touch a word.
func (c *Context) Prefix() string {
	return c.prefix
}

// Camel reports whether the prefix is matched as a camel-case pattern as
// well.
func (c *Context) Camel() bool {
	return IsCamelPrefix(c.prefix)
}

// Path lists the nodes from the root to the innermost node containing the
// offset.
func (c *Context) Path() []*parser.Node {
	return c.path
}

// AfterExtends reports whether the offset names the superclass in a
// class header. The position flags are set by Complete.
func (c *Context) AfterExtends() bool { return c.afterExtends }

// InsideNew reports whether the offset names the class of a new
// expression.
func (c *Context) InsideNew() bool { return c.insideNew }

func (c *Context) InsideForEachExpr() bool { return c.insideForEachExpr }

func (c *Context) InsideClassHeader() bool { return c.insideClassHeader }

// AnonymousArgs reports whether the offset is in the arguments of a new
// expression with a class body.
func (c *Context) AnonymousArgs() bool { return c.anonymousArgs }

func (c *Context) Leaf() *parser.Node {
	if len(c.path) == 0 {
		return &parser.Node{Kind: parser.KindCompilationUnit}
	}
	return c.path[len(c.path)-1]
}

func (c *Context) findPrefix() {
	c.anchor = c.Offset
	if c.Offset == 0 {
		return
	}
	i := sort.Search(len(c.tokens), func(i int) bool {
		return c.tokens[i].Span.End.Offset >= c.Offset
	})
	if i == len(c.tokens) {
		return
	}
	t := c.tokens[i]
	if t.Kind == parser.TokenEOF || t.Span.Start.Offset >= c.Offset {
		return
	}
	switch {
	case isWord(t):
		c.prefix = c.text[t.Span.Start.Offset:c.Offset]
		c.anchor = t.Span.Start.Offset
	case t.Kind == parser.TokenStringLiteral || t.Kind == parser.TokenTextBlock:
		c.inString = true
		c.prefix = c.text[t.Span.Start.Offset:c.Offset]
		c.anchor = t.Span.Start.Offset
	}
}

func isWord(t parser.Token) bool {
	r, _ := utf8.DecodeRuneInString(t.Literal)
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

// tokenBefore returns the index of the last significant token ending at
// or before off, or -1.
func (c *Context) tokenBefore(off int) int {
	i := sort.Search(len(c.tokens), func(i int) bool {
		return c.tokens[i].Span.End.Offset > off
	})
	for i--; i >= 0; i-- {
		if c.tokens[i].Kind != parser.TokenEOF {
			return i
		}
	}
	return -1
}

// tokenEndingAt returns the token whose end is off.
func (c *Context) tokenEndingAt(off int) *parser.Token {
	i := sort.Search(len(c.tokens), func(i int) bool {
		return c.tokens[i].Span.End.Offset >= off
	})
	if i < len(c.tokens) && c.tokens[i].Span.End.Offset == off && c.tokens[i].Kind != parser.TokenEOF {
		return &c.tokens[i]
	}
	return nil
}

// prevKind is the kind of the token before the prefix, TokenEOF at the
// start of the file.
func (c *Context) prevKind() parser.TokenKind {
	return c.prevKindAt(0)
}

// prevKindAt looks back n further tokens.
func (c *Context) prevKindAt(n int) parser.TokenKind {
	if c.prev-n < 0 {
		return parser.TokenEOF
	}
	return c.tokens[c.prev-n].Kind
}

func (c *Context) prevToken() parser.Token {
	if c.prev < 0 {
		return parser.Token{Kind: parser.TokenEOF}
	}
	return c.tokens[c.prev]
}

// pathTo descends from root into the child containing the offset. A child
// that ends exactly at the offset only contains it when its last token
// leaves the construct open, so the enclosing node wins over a closed
// sibling. An operator expression still waiting for its operand contains
// the blank space after the operator.
func (c *Context) pathTo(root *parser.Node) []*parser.Node {
	path := []*parser.Node{root}
	for n := root; ; {
		var next *parser.Node
		for _, ch := range n.Children {
			if ch != nil && c.contains(ch) {
				next = ch
				break
			}
		}
		if next == nil {
			return path
		}
		path = append(path, next)
		n = next
	}
}

func (c *Context) contains(n *parser.Node) bool {
	start, end := n.Span.Start.Offset, n.Span.End.Offset
	if end <= start || c.Offset <= start {
		return false
	}
	if c.Offset < end {
		return true
	}
	t := c.tokenEndingAt(end)
	if c.Offset == end {
		return t == nil || !closes(t.Kind)
	}
	if t == nil || !trailsOpen(n, t.Kind) {
		return false
	}
	next := c.tokenIndexAt(end)
	return next == len(c.tokens) || c.tokens[next].Span.Start.Offset >= c.Offset
}

// trailsOpen reports whether n, or a descendant that ends where n ends,
// still expects an expression after its last token.
func trailsOpen(n *parser.Node, last parser.TokenKind) bool {
	if awaitsOperand(n.Kind, last) {
		return true
	}
	for _, ch := range n.Children {
		if ch != nil && ch.Span.End.Offset == n.Span.End.Offset && ch.Span.End.Offset > ch.Span.Start.Offset && trailsOpen(ch, last) {
			return true
		}
	}
	return false
}

// awaitsOperand reports whether a node of kind k whose last token is last
// still expects an expression after it.
func awaitsOperand(k parser.NodeKind, last parser.TokenKind) bool {
	switch k {
	case parser.KindBinaryExpr, parser.KindAssignExpr, parser.KindUnaryExpr:
		return operators[last]
	case parser.KindSwitchCase, parser.KindSwitchLabel:
		return last == parser.TokenCase || last == parser.TokenComma
	}
	return false
}

// operators are the tokens an operand follows.
var operators = map[parser.TokenKind]bool{
	parser.TokenOr: true, parser.TokenAnd: true,
	parser.TokenBitOr: true, parser.TokenBitXor: true, parser.TokenBitAnd: true,
	parser.TokenEQ: true, parser.TokenNE: true,
	parser.TokenLT: true, parser.TokenLE: true, parser.TokenGT: true, parser.TokenGE: true,
	parser.TokenShl: true, parser.TokenShr: true, parser.TokenUShr: true,
	parser.TokenPlus: true, parser.TokenMinus: true,
	parser.TokenStar: true, parser.TokenSlash: true, parser.TokenPercent: true,
	parser.TokenNot: true, parser.TokenBitNot: true,
	parser.TokenAssign: true, parser.TokenPlusAssign: true, parser.TokenMinusAssign: true,
	parser.TokenStarAssign: true, parser.TokenSlashAssign: true, parser.TokenPercentAssign: true,
	parser.TokenAndAssign: true, parser.TokenOrAssign: true, parser.TokenXorAssign: true,
	parser.TokenShlAssign: true, parser.TokenShrAssign: true, parser.TokenUShrAssign: true,
}

func closes(k parser.TokenKind) bool {
	switch k {
	case parser.TokenSemicolon, parser.TokenRBrace, parser.TokenRParen, parser.TokenRBracket:
		return true
	}
	return false
}

// before reports whether the completion anchor is at or before the start
// of n.
func (c *Context) before(n *parser.Node) bool {
	return n == nil || c.anchor <= n.Span.Start.Offset
}

// after reports whether the completion anchor is at or after the end of n.
func (c *Context) after(n *parser.Node) bool {
	return n != nil && n.Span.End.Offset > n.Span.Start.Offset && c.anchor >= n.Span.End.Offset
}

// onPath reports whether n lies on the path.
func (c *Context) onPath(n *parser.Node) bool {
	for _, p := range c.path {
		if p == n {
			return true
		}
	}
	return false
}

// childOnPath is the child of path[i] on the path, or nil.
func (c *Context) childOnPath(i int) *parser.Node {
	if i+1 < len(c.path) {
		return c.path[i+1]
	}
	return nil
}

func (c *Context) parentOf(i int) *parser.Node {
	if i > 0 {
		return c.path[i-1]
	}
	return nil
}

// tokenIndexAt returns the index of the first token starting at or after
// off.
func (c *Context) tokenIndexAt(off int) int {
	return sort.Search(len(c.tokens), func(i int) bool {
		return c.tokens[i].Span.Start.Offset >= off
	})
}

// parens finds the first parenthesized group inside n: the offsets of
// the opening parenthesis and of its matching close, or -1 when the group
// is not closed.
func (c *Context) parens(n *parser.Node) (int, int) {
	open, depth := -1, 0
	for i := c.tokenIndexAt(n.Span.Start.Offset); i < len(c.tokens); i++ {
		t := c.tokens[i]
		if t.Span.Start.Offset >= n.Span.End.Offset || t.Kind == parser.TokenEOF {
			break
		}
		switch t.Kind {
		case parser.TokenLParen:
			if open < 0 {
				open = t.Span.Start.Offset
			}
			depth++
		case parser.TokenRParen:
			depth--
			if depth == 0 && open >= 0 {
				return open, t.Span.Start.Offset
			}
		}
	}
	return open, -1
}

// inParens reports whether the anchor is inside the first parenthesized
// group of n.
func (c *Context) inParens(n *parser.Node) bool {
	open, close := c.parens(n)
	return open >= 0 && c.anchor > open && (close < 0 || c.anchor <= close)
}

// firstToken returns the index of the first token of kind inside n at or
// after off, or -1.
func (c *Context) firstToken(n *parser.Node, off int, kind parser.TokenKind) int {
	for i := c.tokenIndexAt(off); i < len(c.tokens); i++ {
		t := c.tokens[i]
		if t.Span.Start.Offset >= n.Span.End.Offset || t.Kind == parser.TokenEOF {
			break
		}
		if t.Kind == kind {
			return i
		}
	}
	return -1
}

// Source advances the unit far enough to know its declared classes. It
// returns nil when the analysis cannot get there.
func (c *Context) Source() (*java.SourceUnit, error) {
	if c.sourceDone {
		return c.source, nil
	}
	reached, err := c.task.Advance(c.ctx, phase.ElementsResolved)
	if err != nil {
		return nil, err
	}
	c.sourceDone = true
	if reached >= phase.ElementsResolved {
		c.source = c.task.Source()
	}
	return c.source, nil
}

func (c *Context) index() java.ClassIndex {
	if c.source != nil {
		return c.source.Index()
	}
	if idx := c.task.Index(); idx != nil {
		return idx
	}
	return java.Classes{}
}
