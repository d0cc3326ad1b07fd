package completion

import (
	"strings"

	"github.com/dhamidi/dew/java"
	"github.com/dhamidi/dew/java/parser"
)

// A site offers the candidates for an offset whose innermost enclosing
// node of its kind is path[i]. It returns false to let the enclosing node
// decide.
type site func(c *Context, i int) bool

var sites = map[parser.NodeKind]site{
	parser.KindCompilationUnit: compilationUnit,
	parser.KindPackageDecl:     packageDecl,
	parser.KindImportDecl:      importDecl,

	parser.KindClassDecl:        typeDecl,
	parser.KindInterfaceDecl:    typeDecl,
	parser.KindEnumDecl:         typeDecl,
	parser.KindRecordDecl:       typeDecl,
	parser.KindAnnotationDecl:   typeDecl,
	parser.KindExtendsClause:    typeClause,
	parser.KindImplementsClause: typeClause,
	parser.KindPermitsClause:    typeClause,
	parser.KindTypeParameter:    typeParameter,

	parser.KindBlock:           block,
	parser.KindFieldDecl:       variableDecl,
	parser.KindLocalVarDecl:    variableDecl,
	parser.KindMethodDecl:      methodDecl,
	parser.KindConstructorDecl: methodDecl,
	parser.KindParameters:      parameters,
	parser.KindParameter:       parameter,
	parser.KindThrowsList:      throwsList,
	parser.KindModifiers:       modifiers,
	parser.KindAnnotation:      annotation,

	parser.KindExprStmt:                      exprStmt,
	parser.KindIdentifier:                    identifier,
	parser.KindQualifiedName:                 qualifiedName,
	parser.KindLiteral:                       literal,
	parser.KindFieldAccess:                   fieldAccess,
	parser.KindMethodRef:                     methodRef,
	parser.KindNewExpr:                       newExpr,
	parser.KindNewArrayExpr:                  newArray,
	parser.KindCastExpr:                      castExpr,
	parser.KindInstanceofExpr:                instanceofExpr,
	parser.KindLambdaExpr:                    lambdaExpr,
	parser.KindAssignExpr:                    expressionSite,
	parser.KindBinaryExpr:                    expressionSite,
	parser.KindUnaryExpr:                     expressionSite,
	parser.KindTernaryExpr:                   expressionSite,
	parser.KindParenExpr:                     expressionSite,
	parser.KindArrayAccess:                   expressionSite,
	parser.KindArrayInit:                     expressionSite,
	parser.KindGuard:                         expressionSite,
	parser.KindReturnStmt:                    expressionSite,
	parser.KindYieldStmt:                     expressionSite,
	parser.KindAssertStmt:                    expressionSite,
	parser.KindThrowStmt:                     throwStmt,
	parser.KindTypeArguments:                 typeArguments,
	parser.KindWildcard:                      wildcard,
	parser.KindExplicitConstructorInvocation: nothing,

	parser.KindIfStmt:           parenStmt,
	parser.KindWhileStmt:        parenStmt,
	parser.KindSynchronizedStmt: parenStmt,
	parser.KindDoStmt:           doStmt,
	parser.KindForStmt:          forStmt,
	parser.KindEnhancedForStmt:  enhancedFor,
	parser.KindTryStmt:          tryStmt,
	parser.KindCatchClause:      catchClause,
	parser.KindSwitchStmt:       switchSite,
	parser.KindSwitchExpr:       switchSite,
	parser.KindSwitchCase:       switchCase,
	parser.KindSwitchLabel:      switchLabel,
	parser.KindBreakStmt:        jump,
	parser.KindContinueStmt:     jump,
	parser.KindLabeledStmt:      labeled,
}

// dispatch walks the path from the innermost node outward until a site
// handles the offset.
func (c *Context) dispatch() error {
	if c.inString {
		return nil
	}
	if len(c.path) == 0 {
		compilationUnit(c, -1)
		return c.err
	}
	for i := len(c.path) - 1; i >= 0; i-- {
		if err := c.ctx.Err(); err != nil {
			return err
		}
		handle, ok := sites[c.path[i].Kind]
		if !ok {
			continue
		}
		done := handle(c, i)
		if c.err != nil {
			return c.err
		}
		if done {
			log.Debug("completion site", "kind", c.path[i].Kind, "items", len(c.items))
			return nil
		}
	}
	return nil
}

func nothing(c *Context, i int) bool {
	return true
}

func compilationUnit(c *Context, i int) bool {
	c.keywords(classModifiers...)
	c.keywords(typeDeclKeywords...)
	if i < 0 {
		c.keywords("package", "import")
		return true
	}
	types, seen := false, false
	for _, ch := range c.path[i].Children {
		if ch == c.childOnPath(i) || ch.Span.Start.Offset >= c.anchor {
			break
		}
		seen = true
		types = types || java.IsTypeDecl(ch)
	}
	if !types {
		c.keywords("import")
	}
	if !seen {
		c.keywords("package")
	}
	return true
}

// qualifier is the dotted name written inside n before the anchor,
// without its trailing dot.
func (c *Context) qualifier(n *parser.Node) string {
	var b strings.Builder
	for k := c.tokenIndexAt(n.Span.Start.Offset); k < len(c.tokens); k++ {
		t := c.tokens[k]
		if t.Kind == parser.TokenEOF || t.Span.End.Offset > c.anchor {
			break
		}
		switch t.Kind {
		case parser.TokenIdent:
			b.WriteString(t.Literal)
		case parser.TokenDot:
			b.WriteByte('.')
		default:
			b.Reset()
		}
	}
	return strings.TrimSuffix(b.String(), ".")
}

// tokenIn reports whether a token of kind occurs in n before the anchor.
func (c *Context) tokenIn(n *parser.Node, kind parser.TokenKind) bool {
	k := c.firstToken(n, n.Span.Start.Offset, kind)
	return k >= 0 && c.tokens[k].Span.End.Offset <= c.anchor
}

func packageDecl(c *Context, i int) bool {
	n := c.path[i]
	if c.anchor <= n.Span.Start.Offset {
		return false
	}
	if !c.declared() {
		return true
	}
	c.packagesUnder(c.qualifier(n))
	return true
}

func importDecl(c *Context, i int) bool {
	n := c.path[i]
	if c.anchor <= n.Span.Start.Offset {
		return false
	}
	if c.prevKind() == parser.TokenImport {
		c.keywords("static")
	}
	if !c.declared() {
		return true
	}
	q := c.qualifier(n)
	c.packagesUnder(q)
	if q == "" {
		return true
	}
	c.classesOf(q, nil)
	if m := c.class(q); m != nil {
		c.memberTypes(m, nil)
		if c.tokenIn(n, parser.TokenStatic) {
			for _, mb := range c.members(named(q)) {
				static := mb.field != nil && mb.field.IsStatic || mb.method != nil && mb.method.IsStatic
				if static && mb.owner == m && c.memberAccessible(mb) {
					c.offerMember(mb, m.Name)
				}
			}
		}
	}
	return true
}

// declared advances the unit until the class index is known. It records
// the error and returns false when that fails.
func (c *Context) declared() bool {
	if _, err := c.Source(); err != nil {
		c.err = err
		return false
	}
	return true
}

func typeDecl(c *Context, i int) bool {
	n := c.path[i]
	if open := c.firstToken(n, n.Span.Start.Offset, parser.TokenLBrace); open >= 0 && c.anchor > c.tokens[open].Span.Start.Offset {
		// between the members of an enum
		if n.Kind == parser.KindEnumDecl && !c.tokenIn(n, parser.TokenSemicolon) {
			return true
		}
		if c.prevKind() == parser.TokenAt {
			c.annotationTypes()
			return true
		}
		c.member()
		return true
	}
	return c.header(n)
}

func typeClause(c *Context, i int) bool {
	if decl := c.parentOf(i); decl != nil && java.IsTypeDecl(decl) {
		return c.header(decl)
	}
	return false
}

// header completes inside the declaration header of decl, before its
// body.
func (c *Context) header(decl *parser.Node) bool {
	c.insideClassHeader = true
	switch c.prevKind() {
	case parser.TokenClass, parser.TokenInterface, parser.TokenEnum, parser.TokenRecord, parser.TokenLT:
		return true
	}
	clause := parser.TokenEOF
	for k := c.prev; k >= 0 && c.tokens[k].Span.Start.Offset >= decl.Span.Start.Offset; k-- {
		if kind := c.tokens[k].Kind; kind == parser.TokenExtends || kind == parser.TokenImplements || kind == parser.TokenPermits {
			clause = kind
			break
		}
	}
	switch c.prevKind() {
	case parser.TokenExtends, parser.TokenImplements, parser.TokenPermits, parser.TokenComma:
		if clause == parser.TokenEOF {
			return true
		}
		c.supertypes(decl, clause)
		return true
	}
	switch decl.Kind {
	case parser.KindClassDecl:
		if decl.FirstChildOfKind(parser.KindExtendsClause) == nil && clause == parser.TokenEOF {
			c.keywords("extends")
		}
		if clause != parser.TokenImplements && clause != parser.TokenPermits {
			c.keywords("implements")
		}
		c.keywords("permits")
	case parser.KindInterfaceDecl:
		if clause == parser.TokenEOF {
			c.keywords("extends")
		}
		c.keywords("permits")
	case parser.KindEnumDecl, parser.KindRecordDecl:
		if clause == parser.TokenEOF {
			c.keywords("implements")
		}
	}
	return true
}

// supertypes offers the types a clause of decl can list, leaving out
// decl itself and the types the clause already names.
func (c *Context) supertypes(decl *parser.Node, clause parser.TokenKind) {
	self := ""
	if src := c.source; src != nil {
		for _, m := range src.Classes {
			if m.Decl == decl {
				self = m.Name
			}
		}
	}
	c.exclude("type:" + self)
	for _, cl := range decl.Children {
		switch cl.Kind {
		case parser.KindExtendsClause, parser.KindImplementsClause, parser.KindPermitsClause:
			for _, t := range cl.Children {
				if !c.onPath(t) {
					c.exclude("type:" + c.typeOfNode(t).Name)
				}
			}
		}
	}
	switch {
	case clause == parser.TokenExtends && decl.Kind == parser.KindClassDecl:
		c.afterExtends = true
		c.types(func(m *java.ClassModel) bool {
			return m.Kind == java.ClassKindClass && !m.IsFinal
		})
	case clause == parser.TokenPermits:
		c.types(func(m *java.ClassModel) bool {
			return m.Kind == java.ClassKindClass || m.Kind == java.ClassKindInterface
		})
	default:
		c.types(func(m *java.ClassModel) bool {
			return m.Kind == java.ClassKindInterface
		})
	}
}

func typeParameter(c *Context, i int) bool {
	if c.tokenIn(c.path[i], parser.TokenExtends) {
		c.types(nil)
	}
	return true
}

func (c *Context) annotationTypes() {
	c.types(func(m *java.ClassModel) bool {
		return m.Kind == java.ClassKindAnnotation
	})
}

// afterType reports whether the token before the anchor ends a type, so
// the anchor is where a declaration names its variable.
func (c *Context) afterType() bool {
	switch c.prevKind() {
	case parser.TokenIdent:
		return c.prevKindAt(1) != parser.TokenAt
	case parser.TokenGT, parser.TokenRBracket, parser.TokenBoolean, parser.TokenByte, parser.TokenChar,
		parser.TokenShort, parser.TokenInt, parser.TokenLong, parser.TokenFloat, parser.TokenDouble, parser.TokenVoid:
		return true
	}
	return false
}

func block(c *Context, i int) bool {
	n := c.path[i]
	if c.isClassBody(i) {
		if c.prevKind() == parser.TokenAt {
			c.annotationTypes()
			return true
		}
		if !c.afterType() {
			c.member()
		}
		return true
	}
	if isStaticInitializer(n) {
		return true
	}
	if c.prevKind() == parser.TokenAt {
		c.annotationTypes()
		return true
	}
	if !c.afterType() {
		c.statement()
	}
	return true
}

func variableDecl(c *Context, i int) bool {
	n, next := c.path[i], c.childOnPath(i)
	if isEnumConstantDecl(n) {
		return true
	}
	switch {
	case next == nil:
		if c.prevKind() == parser.TokenAssign {
			c.expression()
		}
	case next.Kind == parser.KindModifiers, next.Kind == parser.KindType, next.Kind == parser.KindArrayType:
		if n.Kind == parser.KindFieldDecl {
			c.member()
		} else if next.Span.Start.Offset == c.anchor && next.Span.Start.Offset == n.Span.Start.Offset {
			c.statement()
		} else {
			c.keywords("final")
			c.primitives()
			c.types(nil)
		}
	case next.IsDeclaratorName():
	default:
		c.expression()
	}
	return true
}

func methodDecl(c *Context, i int) bool {
	n, next := c.path[i], c.childOnPath(i)
	if next != nil {
		switch next.Kind {
		case parser.KindModifiers, parser.KindType, parser.KindArrayType:
			c.member()
		}
		return true
	}
	params := n.FirstChildOfKind(parser.KindParameters)
	if params == nil || !c.after(params) {
		return true
	}
	if body := n.FirstChildOfKind(parser.KindBlock); body != nil && c.anchor >= body.Span.Start.Offset {
		return true
	}
	if c.prevKind() == parser.TokenDefault {
		c.expression()
		return true
	}
	c.keywords("throws")
	if m := c.sc().innermost(); m != nil && m.Kind == java.ClassKindAnnotation {
		c.keywords("default")
	}
	return true
}

func parameters(c *Context, i int) bool {
	parent := c.parentOf(i)
	if parent == nil {
		return false
	}
	switch parent.Kind {
	case parser.KindCallExpr, parser.KindExplicitConstructorInvocation, parser.KindFieldDecl, parser.KindAnnotation:
		c.expression()
	case parser.KindNewExpr:
		if parent.FirstChildOfKind(parser.KindBlock) != nil {
			c.anonymousArgs = true
		}
		c.expression()
	case parser.KindMethodDecl, parser.KindConstructorDecl, parser.KindRecordDecl:
		switch c.prevKind() {
		case parser.TokenLParen, parser.TokenComma, parser.TokenFinal, parser.TokenAt:
			c.keywords("final")
			c.primitives()
			c.types(nil)
		}
	}
	return true
}

func parameter(c *Context, i int) bool {
	next := c.childOnPath(i)
	if next != nil && next.Kind != parser.KindModifiers && next.Kind != parser.KindType && next.Kind != parser.KindArrayType {
		return true
	}
	if next == nil && c.afterType() {
		return true
	}
	c.keywords("final")
	c.primitives()
	c.types(nil)
	return true
}

func throwsList(c *Context, i int) bool {
	for _, t := range c.path[i].Children {
		if !c.onPath(t) {
			c.exclude("type:" + c.typeOfNode(t).Name)
		}
	}
	c.types(c.throwables)
	return true
}

func modifiers(c *Context, i int) bool {
	parent := c.parentOf(i)
	if parent == nil {
		return false
	}
	switch parent.Kind {
	case parser.KindLocalVarDecl, parser.KindParameter, parser.KindCatchClause:
		c.keywords("final")
		c.primitives()
		c.types(nil)
		return true
	}
	if java.IsTypeDecl(parent) && c.parentOf(i-1) != nil && c.parentOf(i-1).Kind == parser.KindCompilationUnit {
		compilationUnit(c, i-2)
		return true
	}
	c.member()
	return true
}

func annotation(c *Context, i int) bool {
	n := c.path[i]
	if qn := n.FirstChildOfKind(parser.KindQualifiedName); qn == nil || c.anchor <= qn.Span.End.Offset {
		c.annotationTypes()
		return true
	}
	c.expression()
	return true
}

func exprStmt(c *Context, i int) bool {
	n := c.path[i]
	if len(n.Children) == 1 && n.Children[0].Kind == parser.KindIdentifier && n.Children[0].Span.Start.Offset == c.anchor {
		c.statement()
		return true
	}
	c.expression()
	return true
}

func identifier(c *Context, i int) bool {
	return c.path[i].IsDeclaratorName()
}

func literal(c *Context, i int) bool {
	return true
}

// qualifiedName completes a dotted type or package name segment after
// its first dot. The simple case is left to the enclosing construct.
func qualifiedName(c *Context, i int) bool {
	n := c.path[i]
	if c.anchor <= n.Span.Start.Offset {
		return false
	}
	if parent := c.parentOf(i); parent != nil {
		switch parent.Kind {
		case parser.KindPackageDecl, parser.KindImportDecl:
			return false
		}
	}
	q := c.qualifier(n)
	if q == "" {
		return false
	}
	switch t := c.qualifiedType(q); t.kind {
	case packageName:
		c.packagesUnder(t.pkg)
		c.classesOf(t.pkg, nil)
	case typeName:
		if m := c.class(t.t.Name); m != nil {
			c.memberTypes(m, nil)
		}
	case value:
		c.selectMembers(t)
	}
	return true
}

func fieldAccess(c *Context, i int) bool {
	n, next := c.path[i], c.childOnPath(i)
	if len(n.Children) == 0 || next == n.Children[0] {
		return false
	}
	c.selectMembers(c.typeOf(n.Children[0]))
	return true
}

func methodRef(c *Context, i int) bool {
	n, next := c.path[i], c.childOnPath(i)
	if len(n.Children) == 0 || next == n.Children[0] {
		return false
	}
	recv := c.typeOf(n.Children[0])
	if recv.kind == typeName {
		c.keywords("new")
	}
	if recv.kind == value || recv.kind == typeName {
		for _, mb := range c.members(recv.t) {
			if mb.method != nil && c.memberAccessible(mb) {
				c.offerMember(mb, c.ownerName(mb))
			}
		}
	}
	return true
}

func newExpr(c *Context, i int) bool {
	n, next := c.path[i], c.childOnPath(i)
	if next != nil && next.Kind != parser.KindQualifiedName && next.Kind != parser.KindError {
		return false
	}
	if next == nil {
		if args := n.FirstChildOfKind(parser.KindParameters); args != nil && c.anchor > args.Span.Start.Offset && args.Span.End.Offset > args.Span.Start.Offset {
			return true
		}
	}
	c.newTypes()
	return true
}

func newArray(c *Context, i int) bool {
	n, next := c.path[i], c.childOnPath(i)
	if len(n.Children) > 0 && (next == n.Children[0] || next == nil && c.prevKind() == parser.TokenNew) {
		c.newTypes()
		return true
	}
	c.expression()
	return true
}

func castExpr(c *Context, i int) bool {
	n, next := c.path[i], c.childOnPath(i)
	if len(n.Children) > 0 && next == n.Children[0] {
		c.primitives()
		c.types(nil)
		return true
	}
	c.expression()
	return true
}

func instanceofExpr(c *Context, i int) bool {
	n, next := c.path[i], c.childOnPath(i)
	if len(n.Children) == 0 || next == n.Children[0] {
		return false
	}
	if len(n.Children) > 2 && next == n.Children[2] || next == nil && c.afterType() {
		return true
	}
	c.keywords("final")
	c.types(nil)
	return true
}

func lambdaExpr(c *Context, i int) bool {
	n, next := c.path[i], c.childOnPath(i)
	if len(n.Children) > 0 && next == n.Children[0] {
		return true
	}
	if next == nil && c.prevKind() != parser.TokenArrow {
		return true
	}
	c.expression()
	return true
}

func expressionSite(c *Context, i int) bool {
	c.expression()
	return true
}

func throwStmt(c *Context, i int) bool {
	if c.prevKind() == parser.TokenThrow {
		c.keywords("new")
	}
	c.expression()
	return true
}

func typeArguments(c *Context, i int) bool {
	c.types(nil)
	return true
}

func wildcard(c *Context, i int) bool {
	switch c.prevKind() {
	case parser.TokenQuestion:
		c.keywords("extends", "super")
	case parser.TokenExtends, parser.TokenSuper:
		c.types(nil)
	}
	return true
}

// parenStmt completes an if, while or synchronized statement: the
// parenthesized expression, or a statement after it.
func parenStmt(c *Context, i int) bool {
	n := c.path[i]
	if c.inParens(n) {
		c.expression()
		return true
	}
	if _, close := c.parens(n); close >= 0 && c.anchor > close {
		if n.Kind == parser.KindIfStmt && c.prevKind() != parser.TokenRParen {
			c.keywords("else")
		}
		c.statement()
	}
	return true
}

func doStmt(c *Context, i int) bool {
	n := c.path[i]
	switch {
	case c.prevKind() == parser.TokenRBrace && len(n.Children) > 0 && c.after(n.Children[0]):
		c.keywords("while")
	case c.tokenIn(n, parser.TokenWhile) && c.prevKind() != parser.TokenWhile:
		c.expression()
	default:
		c.statement()
	}
	return true
}

func forStmt(c *Context, i int) bool {
	n := c.path[i]
	switch c.forSection(n) {
	case -1:
		if _, close := c.parens(n); close >= 0 && c.anchor > close {
			c.statement()
		}
	case 0:
		if c.prevKind() == parser.TokenLParen || c.prevKind() == parser.TokenFinal {
			c.keywords("final", "var")
			c.primitives()
		}
		if !c.afterType() {
			c.expression()
		}
	default:
		c.expression()
	}
	return true
}

func enhancedFor(c *Context, i int) bool {
	n := c.path[i]
	if !c.inParens(n) {
		if _, close := c.parens(n); close >= 0 && c.anchor > close {
			c.statement()
		}
		return true
	}
	colon := c.firstToken(n, n.Span.Start.Offset, parser.TokenColon)
	if colon >= 0 && c.anchor > c.tokens[colon].Span.Start.Offset {
		c.insideForEachExpr = true
		c.expression()
		return true
	}
	if !c.afterType() {
		c.keywords("final", "var")
		c.primitives()
		c.types(nil)
	}
	return true
}

func tryStmt(c *Context, i int) bool {
	n := c.path[i]
	if c.prevKind() == parser.TokenRBrace {
		if n.FirstChildOfKind(parser.KindFinallyClause) == nil {
			c.keywords("catch", "finally")
		}
		return true
	}
	if open, close := c.parens(n); open >= 0 && c.anchor > open && (close < 0 || c.anchor <= close) {
		body := n.FirstChildOfKind(parser.KindBlock)
		if body == nil || c.anchor < body.Span.Start.Offset {
			if !c.afterType() {
				c.keywords("final", "var")
				c.types(nil)
				c.expression()
			}
		}
	}
	return true
}

func catchClause(c *Context, i int) bool {
	n, next := c.path[i], c.childOnPath(i)
	if next != nil && next.Kind == parser.KindBlock {
		return false
	}
	if next == nil && c.afterType() || next != nil && next.Kind == parser.KindIdentifier {
		return true
	}
	try := c.parentOf(i)
	if try != nil {
		for _, cc := range try.ChildrenOfKind(parser.KindCatchClause) {
			if cc == n {
				break
			}
			c.excludeCaught(cc)
		}
	}
	c.excludeCaught(n)
	c.keywords("final")
	c.types(c.throwables)
	return true
}

// excludeCaught excludes the exception types a catch clause lists.
func (c *Context) excludeCaught(cc *parser.Node) {
	union := cc.FirstChildOfKind(parser.KindType)
	if union == nil {
		return
	}
	for _, alt := range union.Children {
		if !c.onPath(alt) {
			c.exclude("type:" + c.typeOfNode(alt).Name)
		}
	}
}

func switchSite(c *Context, i int) bool {
	n := c.path[i]
	if c.inParens(n) {
		c.expression()
		return true
	}
	if open := c.firstToken(n, n.Span.Start.Offset, parser.TokenLBrace); open >= 0 && c.anchor > c.tokens[open].Span.Start.Offset {
		c.keywords("case", "default")
	}
	return true
}

func switchCase(c *Context, i int) bool {
	n := c.path[i]
	labels := n.ChildrenOfKind(parser.KindSwitchLabel)
	if len(labels) > 0 && c.after(labels[len(labels)-1]) {
		if c.prevKind() == parser.TokenArrow {
			c.expression()
			c.keywords("throw")
			return true
		}
		c.keywords("case", "default")
		c.statement()
		return true
	}
	c.keywords("case", "default")
	return true
}

func switchLabel(c *Context, i int) bool {
	n, next := c.path[i], c.childOnPath(i)
	if next != nil && next.Kind == parser.KindGuard {
		return false
	}
	if c.prevKind() != parser.TokenCase && c.prevKind() != parser.TokenComma && (next == nil || next.Kind != parser.KindIdentifier) {
		if c.prevKind() == parser.TokenIdent || c.prevKind() == parser.TokenRParen {
			c.keywords("when")
		}
		return true
	}
	if i >= 2 {
		sw := c.path[i-2]
		if (sw.Kind == parser.KindSwitchStmt || sw.Kind == parser.KindSwitchExpr) && len(sw.Children) > 0 {
			if t := c.typeOf(sw.Children[0]); t.kind == value {
				if m := c.class(t.t.Name); m != nil && m.Kind == java.ClassKindEnum {
					c.enumConstants(m, c.usedLabels(sw, n))
					return true
				}
			}
		}
	}
	c.keywords("null", "default")
	c.expression()
	return true
}

// usedLabels collects the constant names of the labels of sw other than
// current.
func (c *Context) usedLabels(sw, current *parser.Node) map[string]bool {
	used := map[string]bool{}
	for _, sc := range sw.ChildrenOfKind(parser.KindSwitchCase) {
		for _, l := range sc.ChildrenOfKind(parser.KindSwitchLabel) {
			for _, ch := range l.Children {
				if ch.Kind == parser.KindIdentifier && ch.Token != nil && ch.Token.Kind == parser.TokenIdent && !c.onPath(ch) {
					used[ch.Token.Literal] = true
				}
			}
		}
	}
	return used
}

func jump(c *Context, i int) bool {
	switch c.prevKind() {
	case parser.TokenBreak, parser.TokenContinue:
		c.labels()
	}
	return true
}

func labeled(c *Context, i int) bool {
	if c.prevKind() == parser.TokenColon {
		c.statement()
	}
	return true
}
