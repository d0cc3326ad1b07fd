package compiler

import (
	"strings"
	"unicode"

	"github.com/dhamidi/dew/java"
	"github.com/dhamidi/dew/java/parser"
)

// attr checks method bodies, initializers and field initializers: type
// names used in statements and expressions, missing returns and
// unreachable statements.
type attr struct {
	source *java.SourceUnit
	diags  *listener
}

func newAttr(t *Task) *attr {
	return &attr{source: t.source, diags: t.listener}
}

func (a *attr) run() {
	for _, m := range a.source.Classes {
		r := a.source.Resolver(m)
		for i := range m.Fields {
			if f := &m.Fields[i]; f.Init != nil {
				a.checkTypes(f.Init, r)
			}
		}
		for _, in := range m.Initializers {
			if in.Body != nil {
				a.checkTypes(in.Body, r)
				a.stmt(in.Body)
			}
		}
		for i := range m.Methods {
			mm := &m.Methods[i]
			if mm.Implicit || mm.Body == nil {
				continue
			}
			a.checkTypes(mm.Body, r.WithTypeVariables(mm.TypeParameters))
			completes := a.stmt(mm.Body)
			if completes && !mm.IsConstructor() && !mm.ReturnType.IsVoid() {
				a.diags.report(Error, closingBrace(mm.Body), "missing return statement")
			}
		}
	}
}

func closingBrace(body *parser.Node) parser.Position {
	end := body.Span.End
	if end.Column > 1 {
		end.Column--
		end.Offset--
	}
	return end
}

// checkTypes reports type names in body that do not resolve.
func (a *attr) checkTypes(body *parser.Node, r *java.Resolver) {
	skip := map[string]bool{}
	collectLocalTypeNames(body, skip)
	var refs []java.Reference
	walk(body, func(n *parser.Node) bool {
		switch n.Kind {
		case parser.KindLocalVarDecl, parser.KindEnhancedForStmt, parser.KindParameter:
			if t := java.DeclaredType(n); t != nil {
				java.TypeOf(t, r, &refs)
			}
		case parser.KindCatchClause:
			t := n.FirstChildOfKind(parser.KindType)
			if t == nil {
				break
			}
			if alts := t.ChildrenOfKind(parser.KindType); len(alts) > 1 {
				for _, alt := range alts {
					java.TypeOf(alt, r, &refs)
				}
			} else {
				java.TypeOf(t, r, &refs)
			}
		case parser.KindInstanceofExpr:
			if t := n.FirstChildOfKind(parser.KindType); t != nil {
				java.TypeOf(t, r, &refs)
			}
		case parser.KindCastExpr:
			if t := n.FirstChildOfKind(parser.KindType); t != nil && !looksLikeVariable(t) {
				java.TypeOf(t, r, &refs)
			}
		case parser.KindNewExpr, parser.KindNewArrayExpr:
			if len(n.Children) > 0 && n.Children[0].Kind == parser.KindQualifiedName {
				typ := &parser.Node{Kind: parser.KindType, Span: n.Children[0].Span}
				typ.Children = append(typ.Children, n.Children[0])
				if len(n.Children) > 1 && n.Children[1].Kind == parser.KindTypeArguments {
					typ.Children = append(typ.Children, n.Children[1])
				}
				java.TypeOf(typ, r, &refs)
			}
		}
		return true
	})
	for _, ref := range refs {
		head := ref.Name
		if i := strings.IndexByte(head, '.'); i >= 0 {
			head = head[:i]
		}
		if skip[head] {
			continue
		}
		reportCannotFind(a.diags, ref, r)
	}
}

// looksLikeVariable reports a cast type that is a single lower-case
// identifier, which the parser may have taken for a cast of a
// parenthesized variable.
func looksLikeVariable(t *parser.Node) bool {
	if len(t.Children) != 1 {
		return false
	}
	inner := t.Children[0]
	qn := inner.FirstChildOfKind(parser.KindQualifiedName)
	if qn == nil || len(qn.Children) != 1 {
		return false
	}
	name := qn.Children[0].TokenLiteral()
	return name != "" && unicode.IsLower(rune(name[0]))
}

// collectLocalTypeNames records the names of local classes and of type
// parameters declared anywhere inside body.
func collectLocalTypeNames(body *parser.Node, names map[string]bool) {
	walk(body, func(n *parser.Node) bool {
		switch {
		case java.IsTypeDecl(n):
			if id := java.DeclName(n); id != nil {
				names[id.Token.Literal] = true
			}
		case n.Kind == parser.KindTypeParameter:
			for _, c := range n.Children {
				if c.Kind == parser.KindIdentifier && c.Token != nil {
					names[c.Token.Literal] = true
					break
				}
			}
		}
		return true
	})
}

func walk(n *parser.Node, visit func(*parser.Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	for _, c := range n.Children {
		walk(c, visit)
	}
}

// stmt reports unreachable statements inside n and returns whether n can
// complete normally.
func (a *attr) stmt(n *parser.Node) bool {
	switch n.Kind {
	case parser.KindBlock:
		return a.block(n.Children)
	case parser.KindReturnStmt, parser.KindThrowStmt, parser.KindYieldStmt,
		parser.KindBreakStmt, parser.KindContinueStmt:
		return false
	case parser.KindIfStmt:
		if len(n.Children) < 2 {
			return true
		}
		then := a.stmt(n.Children[1])
		if len(n.Children) > 2 {
			other := a.stmt(n.Children[2])
			return then || other
		}
		return true
	case parser.KindWhileStmt:
		if len(n.Children) < 2 {
			return true
		}
		body := n.Children[len(n.Children)-1]
		a.stmt(body)
		if isConstantTrue(n.Children[0]) {
			return jumpsOut(body, parser.KindBreakStmt, "")
		}
		return true
	case parser.KindDoStmt:
		if len(n.Children) < 2 {
			return true
		}
		body := n.Children[0]
		completes := a.stmt(body)
		if jumpsOut(body, parser.KindBreakStmt, "") {
			return true
		}
		if isConstantTrue(n.Children[1]) {
			return false
		}
		return completes || jumpsOut(body, parser.KindContinueStmt, "")
	case parser.KindForStmt:
		if len(n.Children) == 0 {
			return true
		}
		body := n.Children[len(n.Children)-1]
		a.stmt(body)
		var cond *parser.Node
		for _, c := range n.Children[:len(n.Children)-1] {
			if c.Kind != parser.KindForInit && c.Kind != parser.KindForUpdate {
				cond = c
			}
		}
		if cond == nil || isConstantTrue(cond) {
			return jumpsOut(body, parser.KindBreakStmt, "")
		}
		return true
	case parser.KindEnhancedForStmt:
		if len(n.Children) > 0 {
			a.stmt(n.Children[len(n.Children)-1])
		}
		return true
	case parser.KindLabeledStmt:
		if len(n.Children) < 2 {
			return true
		}
		label := n.Children[0].TokenLiteral()
		inner := n.Children[1]
		completes := a.stmt(inner)
		return completes || jumpsOut(inner, parser.KindBreakStmt, label)
	case parser.KindSwitchStmt:
		return a.switchStmt(n)
	case parser.KindTryStmt:
		return a.tryStmt(n)
	case parser.KindSynchronizedStmt:
		if b := n.FirstChildOfKind(parser.KindBlock); b != nil {
			return a.stmt(b)
		}
		return true
	}
	return true
}

func (a *attr) block(stmts []*parser.Node) bool {
	live := true
	for _, s := range stmts {
		if !live && !s.IsError() {
			a.diags.errorAt(s, "unreachable statement")
			live = true
		}
		if !a.stmt(s) {
			live = false
		}
	}
	return live
}

func (a *attr) switchStmt(n *parser.Node) bool {
	cases := n.ChildrenOfKind(parser.KindSwitchCase)
	hasDefault := false
	arrows := false
	lastCompletes := true
	anyArrowCompletes := false
	for _, c := range cases {
		var body []*parser.Node
		for _, child := range c.Children {
			if child.Kind != parser.KindSwitchLabel {
				body = append(body, child)
				continue
			}
			if isDefaultLabel(child) {
				hasDefault = true
			}
			if isArrowLabel(child) {
				arrows = true
			}
		}
		if arrows {
			completes := true
			if len(body) > 0 {
				completes = a.stmt(body[0])
			}
			anyArrowCompletes = anyArrowCompletes || completes
			continue
		}
		lastCompletes = a.block(body)
	}
	if !hasDefault || jumpsOut(n, parser.KindBreakStmt, "") {
		return true
	}
	if arrows {
		return anyArrowCompletes
	}
	return lastCompletes
}

func isDefaultLabel(label *parser.Node) bool {
	if label.Token != nil && label.Token.Literal == "default" {
		return true
	}
	exprs := 0
	for _, c := range label.Children {
		switch {
		case c.Kind == parser.KindIdentifier && c.TokenLiteral() == "default":
			return true
		case c.Kind == parser.KindIdentifier && c.TokenLiteral() == "->":
		case c.Kind == parser.KindGuard:
		default:
			exprs++
		}
	}
	return exprs == 0
}

func isArrowLabel(label *parser.Node) bool {
	for _, c := range label.Children {
		if c.Kind == parser.KindIdentifier && c.TokenLiteral() == "->" {
			return true
		}
	}
	return false
}

func (a *attr) tryStmt(n *parser.Node) bool {
	completes := false
	sawBlock := false
	for _, c := range n.Children {
		switch c.Kind {
		case parser.KindBlock:
			if !sawBlock {
				sawBlock = true
				completes = a.stmt(c)
			}
		case parser.KindCatchClause:
			if b := c.FirstChildOfKind(parser.KindBlock); b != nil && a.stmt(b) {
				completes = true
			}
		case parser.KindFinallyClause:
			if b := c.FirstChildOfKind(parser.KindBlock); b != nil && !a.stmt(b) {
				return false
			}
		}
	}
	return completes
}

func isConstantTrue(cond *parser.Node) bool {
	v, _, ok := java.ConstantOf(cond)
	return ok && v == true
}

// jumpsOut reports whether a break (or continue) inside body leaves the
// statement that owns body. Unlabeled jumps only count when no inner loop
// or switch captures them; labeled jumps count when they name label.
func jumpsOut(body *parser.Node, kind parser.NodeKind, label string) bool {
	found := false
	var visit func(n *parser.Node, depth int)
	visit = func(n *parser.Node, depth int) {
		if n == nil || found {
			return
		}
		switch n.Kind {
		case parser.KindLambdaExpr, parser.KindLocalClassDecl, parser.KindSwitchExpr:
			return
		case parser.KindNewExpr:
			for _, c := range n.Children {
				if c.Kind != parser.KindBlock {
					visit(c, depth)
				}
			}
			return
		case kind:
			target := ""
			if len(n.Children) > 0 {
				target = n.Children[0].TokenLiteral()
			}
			if (label == "" && target == "" && depth == 0) || (label != "" && target == label) {
				found = true
			}
			return
		}
		nested := depth
		switch n.Kind {
		case parser.KindWhileStmt, parser.KindDoStmt, parser.KindForStmt, parser.KindEnhancedForStmt:
			nested++
		case parser.KindSwitchStmt:
			if kind == parser.KindBreakStmt {
				nested++
			}
		}
		for _, c := range n.Children {
			visit(c, nested)
		}
	}
	if body.Kind == parser.KindSwitchStmt {
		for _, c := range body.Children {
			visit(c, 0)
		}
	} else {
		visit(body, 0)
	}
	return found
}
