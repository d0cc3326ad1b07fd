package completion

import (
	"github.com/dhamidi/dew/java"
	"github.com/dhamidi/dew/java/parser"
)

// variable is a local variable, parameter or pattern binding in scope.
type variable struct {
	name string
	// typeNode is the declared type; nil for untyped lambda parameters.
	typeNode *parser.Node
	init     *parser.Node
	// element marks an enhanced-for variable typed by the elements of init.
	element bool
	varargs bool
}

type enclosing struct {
	model *java.ClassModel
	// hasOuter reports whether instances of the class carry an instance
	// of the class enclosing it.
	hasOuter bool
}

type scope struct {
	resolver *java.Resolver
	// classes lists the enclosing classes, outermost first.
	classes []enclosing
	static  bool
	locals  []variable
	labels  []string
	// typeVars are the type parameters of the enclosing classes and method.
	typeVars   []string
	localTypes map[string]*java.ClassModel
	method     *java.MethodModel
	lambda     bool

	// Fields of forwardClass declared at or after forwardFrom are not yet
	// initialized and cannot be referenced by simple name.
	forwardClass *java.ClassModel
	forwardFrom  int
}

func (s *scope) innermost() *java.ClassModel {
	if len(s.classes) == 0 {
		return nil
	}
	return s.classes[len(s.classes)-1].model
}

// hasInstance reports whether an instance of classes[k] is reachable from
// the completion point.
func (s *scope) hasInstance(k int) bool {
	if s.static {
		return false
	}
	for j := len(s.classes) - 1; j > k; j-- {
		if !s.classes[j].hasOuter {
			return false
		}
	}
	return true
}

func (s *scope) add(v variable) {
	if v.name != "" && v.name != "_" {
		s.locals = append(s.locals, v)
	}
}

// sc returns the scope at the completion point, building it on first use.
// A failure to analyze the unit is kept in c.err and yields the scope the
// syntax tree alone can give.
func (c *Context) sc() *scope {
	if c.scope != nil {
		return c.scope
	}
	src, err := c.Source()
	if err != nil {
		c.err = err
	}
	s := &scope{localTypes: map[string]*java.ClassModel{}, forwardFrom: -1}
	c.scope = s
	byDecl := map[*parser.Node]*java.ClassModel{}
	if src != nil {
		for _, m := range src.Classes {
			byDecl[m.Decl] = m
		}
		s.resolver = src.Resolver(nil)
	} else {
		s.resolver = java.NewResolver("", nil, c.index())
	}

	static := false
	for i, n := range c.path {
		next := c.childOnPath(i)
		if next == nil && n.Kind != parser.KindFieldDecl && n.Kind != parser.KindLocalVarDecl {
			break
		}
		switch n.Kind {
		case parser.KindClassDecl, parser.KindInterfaceDecl, parser.KindEnumDecl,
			parser.KindRecordDecl, parser.KindAnnotationDecl, parser.KindNewExpr:
			if n.Kind == parser.KindNewExpr && next.Kind != parser.KindBlock {
				continue
			}
			m := byDecl[n]
			if m == nil && src != nil {
				m = src.LocalClass(n, s.innermost())
			}
			if m == nil {
				continue
			}
			hasOuter := m.IsInner()
			if byDecl[n] == nil {
				hasOuter = !static && m.Kind == java.ClassKindClass
			}
			s.classes = append(s.classes, enclosing{model: m, hasOuter: hasOuter})
			if byDecl[n] == nil && m.SimpleName != "" {
				s.localTypes[m.SimpleName] = m
			}
			if src != nil {
				s.resolver = src.Resolver(m)
			}
			for _, tp := range m.TypeParameters {
				s.typeVars = append(s.typeVars, tp.Name)
			}
			static, s.method, s.lambda = false, nil, false
			s.forwardClass, s.forwardFrom = nil, -1

		case parser.KindFieldDecl:
			if !c.isMember(i) {
				continue
			}
			owner := s.innermost()
			if isEnumConstantDecl(n) {
				static = true
				s.forwardClass, s.forwardFrom = owner, n.Span.Start.Offset
				continue
			}
			static = hasModifier(n, "static") || (owner != nil && owner.IsInterface())
			for _, d := range java.Declarators(n) {
				if next != nil && d.Init == next || next == nil && d.Name.Span.End.Offset <= c.anchor {
					s.forwardClass, s.forwardFrom = owner, d.Name.Span.Start.Offset
				}
			}

		case parser.KindMethodDecl, parser.KindConstructorDecl:
			static = hasModifier(n, "static")
			if owner := s.innermost(); owner != nil {
				for k := range owner.Methods {
					if owner.Methods[k].Decl == n {
						s.method = &owner.Methods[k]
					}
				}
			}
			if s.method != nil {
				s.resolver = s.resolver.WithTypeVariables(s.method.TypeParameters)
				for _, tp := range s.method.TypeParameters {
					s.typeVars = append(s.typeVars, tp.Name)
				}
			} else if tps := n.FirstChildOfKind(parser.KindTypeParameters); tps != nil {
				for _, tp := range tps.ChildrenOfKind(parser.KindTypeParameter) {
					if id := tp.FirstChildOfKind(parser.KindIdentifier); id != nil {
						s.typeVars = append(s.typeVars, id.TokenLiteral())
					}
				}
			}
			if next.Kind == parser.KindBlock {
				if params := n.FirstChildOfKind(parser.KindParameters); params != nil {
					for _, p := range params.ChildrenOfKind(parser.KindParameter) {
						s.addParameter(p)
					}
				}
			}

		case parser.KindBlock:
			switch {
			case c.isClassBody(i):
			case c.isMember(i):
				static = isStaticInitializer(n)
				s.forwardClass, s.forwardFrom = s.innermost(), n.Span.Start.Offset
				if !static {
					c.addStatements(s, n.Children, next)
				}
			default:
				c.addStatements(s, n.Children, next)
			}

		case parser.KindSwitchStmt, parser.KindSwitchExpr:
			if len(n.Children) == 0 {
				continue
			}
			for _, sc := range n.Children[1:] {
				if sc == next || sc.Kind != parser.KindSwitchCase {
					break
				}
				if isColonCase(sc) {
					c.addStatements(s, sc.Children, nil)
				}
			}

		case parser.KindSwitchCase:
			for _, label := range n.ChildrenOfKind(parser.KindSwitchLabel) {
				if label == next {
					break
				}
				for _, tp := range label.ChildrenOfKind(parser.KindTypePattern) {
					addPattern(s, tp)
				}
			}
			c.addStatements(s, n.Children, next)

		case parser.KindSwitchLabel:
			if next.Kind == parser.KindGuard {
				for _, tp := range n.ChildrenOfKind(parser.KindTypePattern) {
					addPattern(s, tp)
				}
			}

		case parser.KindLocalVarDecl:
			for _, d := range java.Declarators(n) {
				end := d.Name.Span.End.Offset
				if d.Init != nil {
					end = d.Init.Span.End.Offset
				}
				if next != nil && d.Init == next || c.anchor < end {
					break
				}
				s.add(variable{name: d.Name.TokenLiteral(), typeNode: java.DeclaredType(n), init: d.Init})
			}

		case parser.KindForStmt:
			if next.Kind == parser.KindForInit {
				continue
			}
			if fi := n.FirstChildOfKind(parser.KindForInit); fi != nil {
				for _, decl := range fi.ChildrenOfKind(parser.KindLocalVarDecl) {
					addDeclarators(s, decl)
				}
			}

		case parser.KindEnhancedForStmt:
			if len(n.Children) >= 5 && next == n.Children[len(n.Children)-1] {
				s.add(variable{name: n.Children[2].TokenLiteral(), typeNode: n.Children[1], init: n.Children[3], element: true})
			}

		case parser.KindTryStmt:
			for _, r := range n.Children {
				if r == next || r.Kind == parser.KindBlock {
					break
				}
				if r.Kind == parser.KindLocalVarDecl {
					addDeclarators(s, r)
				}
			}

		case parser.KindCatchClause:
			if next.Kind == parser.KindBlock {
				if id := catchName(n); id != nil {
					s.add(variable{name: id.TokenLiteral(), typeNode: n.FirstChildOfKind(parser.KindType)})
				}
			}

		case parser.KindLambdaExpr:
			if next.Kind == parser.KindParameters {
				continue
			}
			s.lambda = true
			if params := n.FirstChildOfKind(parser.KindParameters); params != nil {
				for _, p := range params.Children {
					if p.Kind == parser.KindParameter {
						s.addParameter(p)
					} else if p.Kind == parser.KindIdentifier {
						s.add(variable{name: p.TokenLiteral()})
					}
				}
			}

		case parser.KindLabeledStmt:
			if len(n.Children) == 2 && next == n.Children[1] {
				s.labels = append(s.labels, n.Children[0].TokenLiteral())
			}

		case parser.KindIfStmt, parser.KindWhileStmt:
			if len(n.Children) > 1 && next == n.Children[1] {
				addBindings(s, n.Children[0])
			}

		case parser.KindTernaryExpr:
			if len(n.Children) > 1 && next == n.Children[1] {
				addBindings(s, n.Children[0])
			}

		case parser.KindBinaryExpr:
			if len(n.Children) == 3 && next == n.Children[2] && n.Children[1].TokenLiteral() == "&&" {
				addBindings(s, n.Children[0])
			}
		}
	}
	s.static = static
	return s
}

func (s *scope) addParameter(p *parser.Node) {
	id := java.ParameterName(p)
	if id == nil {
		return
	}
	s.add(variable{name: id.TokenLiteral(), typeNode: java.DeclaredType(p), varargs: isVarargs(p)})
}

// addStatements declares the locals and local classes of the statements
// preceding the anchor, stopping at stop.
func (c *Context) addStatements(s *scope, stmts []*parser.Node, stop *parser.Node) {
	for _, st := range stmts {
		if st == stop || st.Span.Start.Offset >= c.anchor {
			return
		}
		switch st.Kind {
		case parser.KindLocalVarDecl:
			addDeclarators(s, st)
		case parser.KindLocalClassDecl:
			for _, decl := range st.Children {
				if !java.IsTypeDecl(decl) {
					continue
				}
				if src := c.source; src != nil {
					if m := src.LocalClass(decl, s.innermost()); m != nil {
						s.localTypes[m.SimpleName] = m
					}
				}
			}
		case parser.KindIfStmt:
			// if (!(o instanceof T t)) return; declares t after the statement
			if len(st.Children) == 2 && completesAbruptly(st.Children[1]) {
				if u := st.Children[0]; u.Kind == parser.KindUnaryExpr && len(u.Children) == 2 && u.Children[0].TokenLiteral() == "!" {
					addBindings(s, unparen(u.Children[1]))
				}
			}
		}
	}
}

func addDeclarators(s *scope, decl *parser.Node) {
	t := java.DeclaredType(decl)
	for _, d := range java.Declarators(decl) {
		s.add(variable{name: d.Name.TokenLiteral(), typeNode: t, init: d.Init})
	}
}

// addBindings declares the pattern variables introduced when cond is
// true.
func addBindings(s *scope, cond *parser.Node) {
	switch cond.Kind {
	case parser.KindParenExpr:
		if len(cond.Children) == 1 {
			addBindings(s, cond.Children[0])
		}
	case parser.KindBinaryExpr:
		if len(cond.Children) == 3 && cond.Children[1].TokenLiteral() == "&&" {
			addBindings(s, cond.Children[0])
			addBindings(s, cond.Children[2])
		}
	case parser.KindInstanceofExpr:
		if len(cond.Children) == 3 && cond.Children[2].Kind == parser.KindIdentifier {
			s.add(variable{name: cond.Children[2].TokenLiteral(), typeNode: cond.Children[1]})
		}
		if len(cond.Children) == 2 && cond.Children[1].Kind == parser.KindTypePattern {
			addPattern(s, cond.Children[1])
		}
	}
}

func addPattern(s *scope, tp *parser.Node) {
	if len(tp.Children) == 2 && tp.Children[1].Kind == parser.KindIdentifier {
		s.add(variable{name: tp.Children[1].TokenLiteral(), typeNode: tp.Children[0]})
	}
}

func unparen(n *parser.Node) *parser.Node {
	for n.Kind == parser.KindParenExpr && len(n.Children) == 1 {
		n = n.Children[0]
	}
	return n
}

func completesAbruptly(st *parser.Node) bool {
	switch st.Kind {
	case parser.KindReturnStmt, parser.KindThrowStmt, parser.KindBreakStmt, parser.KindContinueStmt:
		return true
	case parser.KindBlock:
		return len(st.Children) > 0 && completesAbruptly(st.Children[len(st.Children)-1])
	}
	return false
}

func catchName(catch *parser.Node) *parser.Node {
	for _, ch := range catch.Children {
		if ch.Kind == parser.KindIdentifier && ch.Token != nil {
			return ch
		}
	}
	return nil
}

func hasModifier(decl *parser.Node, name string) bool {
	mods := decl.FirstChildOfKind(parser.KindModifiers)
	if mods == nil {
		return false
	}
	for _, m := range mods.Children {
		if m.TokenLiteral() == name {
			return true
		}
	}
	return false
}

func isVarargs(p *parser.Node) bool {
	for _, ch := range p.Children {
		if ch.Token != nil && ch.Token.Kind == parser.TokenEllipsis {
			return true
		}
	}
	return false
}

func isStaticInitializer(b *parser.Node) bool {
	return len(b.Children) == 2 && b.Children[0].Token != nil && b.Children[0].Token.Kind == parser.TokenStatic &&
		b.Children[1].Kind == parser.KindBlock
}

// isEnumConstantDecl reports whether a field declaration inside an enum
// body declares an enum constant: it has no type.
func isEnumConstantDecl(n *parser.Node) bool {
	return n.Kind == parser.KindFieldDecl && java.DeclaredType(n) == nil
}

func isColonCase(sc *parser.Node) bool {
	for _, l := range sc.ChildrenOfKind(parser.KindSwitchLabel) {
		for _, ch := range l.Children {
			if ch.Token != nil && ch.Token.Kind == parser.TokenArrow {
				return false
			}
		}
	}
	return true
}

// isClassBody reports whether path[i] is the body block of a class,
// anonymous class or enum constant.
func (c *Context) isClassBody(i int) bool {
	n, parent := c.path[i], c.parentOf(i)
	if n.Kind != parser.KindBlock || parent == nil {
		return false
	}
	switch {
	case java.IsTypeDecl(parent):
		return true
	case parent.Kind == parser.KindNewExpr:
		return true
	case parent.Kind == parser.KindFieldDecl:
		return isEnumConstantDecl(parent)
	}
	return false
}

// isMember reports whether path[i] is declared directly in a class body.
func (c *Context) isMember(i int) bool {
	parent := c.parentOf(i)
	if parent == nil {
		return false
	}
	if parent.Kind == parser.KindEnumDecl {
		return true
	}
	return c.isClassBody(i - 1)
}
