package completion

import (
	"strings"

	"github.com/dhamidi/dew/java"
	"github.com/dhamidi/dew/java/parser"
)

var (
	numericTypes  = []string{"byte", "char", "short", "int", "long", "float", "double"}
	integralTypes = []string{"byte", "char", "short", "int", "long"}
)

// SmartTypes lists the types an expression at the offset is expected to
// have, or nil when the position does not constrain it.
func (c *Context) SmartTypes() []string {
	if !c.smartDone {
		c.smartDone = true
		c.smart = c.expected()
	}
	return c.smart
}

func (c *Context) expectsBoolean() bool {
	for _, t := range c.SmartTypes() {
		switch t {
		case "boolean", "java.lang.Boolean", "java.lang.Object":
			return true
		}
	}
	return false
}

func typeString(t java.TypeModel) string {
	return t.Erasure() + strings.Repeat("[]", t.ArrayDepth)
}

func (c *Context) expected() []string {
	for i := len(c.path) - 1; i >= 0; i-- {
		n, next := c.path[i], c.childOnPath(i)
		switch n.Kind {
		case parser.KindIdentifier, parser.KindQualifiedName, parser.KindError, parser.KindLiteral,
			parser.KindFieldAccess, parser.KindParenExpr, parser.KindMethodRef, parser.KindPostfixExpr:
			continue

		case parser.KindIfStmt, parser.KindWhileStmt, parser.KindSynchronizedStmt:
			if len(n.Children) > 0 && next == n.Children[0] || next == nil && c.inParens(n) {
				if n.Kind == parser.KindSynchronizedStmt {
					return []string{"java.lang.Object"}
				}
				return []string{"boolean"}
			}
			return nil

		case parser.KindDoStmt:
			if len(n.Children) == 2 && next == n.Children[1] ||
				next == nil && c.prevKind() == parser.TokenLParen && c.prevKindAt(1) == parser.TokenWhile {
				return []string{"boolean"}
			}
			return nil

		case parser.KindForStmt:
			if next == nil && c.forSection(n) == 1 {
				return []string{"boolean"}
			}
			if next != nil && next.Kind != parser.KindForInit && next.Kind != parser.KindForUpdate && next != lastChild(n) {
				return []string{"boolean"}
			}
			return nil

		case parser.KindAssertStmt:
			if next == nil && c.prevKind() == parser.TokenAssert || len(n.Children) > 0 && next == n.Children[0] {
				return []string{"boolean"}
			}
			if next != nil {
				return []string{"java.lang.Object"}
			}
			return nil

		case parser.KindTernaryExpr:
			if len(n.Children) > 0 && next == n.Children[0] || next == nil && c.prevKind() != parser.TokenQuestion && c.prevKind() != parser.TokenColon {
				return []string{"boolean"}
			}

		case parser.KindUnaryExpr:
			if len(n.Children) == 0 {
				return nil
			}
			switch n.Children[0].TokenLiteral() {
			case "!":
				return []string{"boolean"}
			case "~":
				return integralTypes
			}
			return numericTypes

		case parser.KindBinaryExpr:
			if len(n.Children) < 2 {
				return nil
			}
			other := n.Children[0]
			if next == other && len(n.Children) == 3 {
				other = n.Children[2]
			}
			switch op := n.Children[1].TokenLiteral(); op {
			case "&&", "||":
				return []string{"boolean"}
			case "==", "!=":
				if t := c.typeOf(other); t.kind == value && t.t.Name != "null" {
					return []string{typeString(t.t)}
				}
				return nil
			default:
				return operandTypes(op, c.typeOf(other))
			}

		case parser.KindAssignExpr:
			if len(n.Children) < 2 || next == n.Children[0] {
				return nil
			}
			lhs := c.typeOf(n.Children[0])
			if op := n.Children[1].TokenLiteral(); op != "=" {
				return operandTypes(strings.TrimSuffix(op, "="), lhs)
			}
			if lhs.kind == value {
				return []string{typeString(lhs.t)}
			}
			return nil

		case parser.KindLocalVarDecl, parser.KindFieldDecl:
			t := java.DeclaredType(n)
			if t == nil {
				return nil
			}
			if next == nil && c.prevKind() != parser.TokenAssign {
				return nil
			}
			for _, d := range java.Declarators(n) {
				if next != nil && d.Init != next {
					continue
				}
				if tm := c.typeOfNode(t); tm.Name != "var" {
					return []string{typeString(tm)}
				}
				return nil
			}
			return nil

		case parser.KindReturnStmt:
			s := c.sc()
			if s.lambda || s.method == nil || s.method.ReturnType.IsVoid() {
				return nil
			}
			return []string{typeString(s.method.ReturnType)}

		case parser.KindThrowStmt:
			return []string{"java.lang.Throwable"}

		case parser.KindArrayAccess:
			if len(n.Children) > 1 && next == n.Children[1] || next == nil && c.prevKind() == parser.TokenLBracket {
				return []string{"int"}
			}
			return nil

		case parser.KindNewArrayExpr:
			if len(n.Children) == 0 {
				return nil
			}
			if c.prevKind() == parser.TokenLBracket || next != nil && next != n.Children[0] && next.Kind != parser.KindArrayInit {
				return []string{"int"}
			}
			return nil

		case parser.KindSwitchLabel:
			if i >= 2 {
				sw := c.path[i-2]
				if (sw.Kind == parser.KindSwitchStmt || sw.Kind == parser.KindSwitchExpr) && len(sw.Children) > 0 {
					if t := c.typeOf(sw.Children[0]); t.kind == value {
						return []string{typeString(t.t)}
					}
				}
			}
			return nil

		case parser.KindEnhancedForStmt:
			if len(n.Children) >= 4 && next == n.Children[3] || next == nil && c.prevKind() == parser.TokenColon {
				return []string{"java.lang.Iterable"}
			}
			return nil

		case parser.KindParameters:
			return c.argumentTypes(i)

		default:
			return nil
		}
	}
	return nil
}

// operandTypes is the family of primitive types an operand of op can
// have next to an operand of type other. A non-numeric other leaves + to
// string concatenation and the arithmetic operators unconstrained.
func operandTypes(op string, other typed) []string {
	name := ""
	if other.kind == value {
		name = unbox(other.t)
	}
	_, numeric := numericRank[name]
	integral := numeric && name != "float" && name != "double"
	switch op {
	case "+":
		if numeric {
			return numericTypes
		}
	case "-", "*", "/", "%", "<", "<=", ">", ">=":
		if numeric || name == "" {
			return numericTypes
		}
	case "<<", ">>", ">>>":
		if integral || name == "" {
			return integralTypes
		}
	case "&", "|", "^":
		if name == "boolean" {
			return []string{"boolean"}
		}
		if integral || name == "" {
			return integralTypes
		}
	}
	return nil
}

// forSection tells which part of a for header holds the anchor: 0 for
// the initializer, 1 for the condition, 2 for the update and -1 outside
// the parentheses.
func (c *Context) forSection(n *parser.Node) int {
	if !c.inParens(n) {
		return -1
	}
	open, _ := c.parens(n)
	section, depth := 0, 0
	for k := c.tokenIndexAt(open); k < len(c.tokens) && c.tokens[k].Span.Start.Offset < c.anchor; k++ {
		switch c.tokens[k].Kind {
		case parser.TokenLParen:
			depth++
		case parser.TokenRParen:
			depth--
		case parser.TokenSemicolon:
			if depth == 1 {
				section++
			}
		}
	}
	return section
}

// argumentTypes lists the parameter types of the invoked methods at the
// argument position of the anchor.
func (c *Context) argumentTypes(i int) []string {
	args := c.path[i]
	call := c.parentOf(i)
	if call == nil || call.Kind != parser.KindCallExpr || len(call.Children) < 2 {
		return nil
	}
	pos := 0
	for _, a := range args.Children {
		if a.Span.End.Offset <= c.anchor && a != c.childOnPath(i) {
			pos++
		}
	}
	var candidates []member
	target := call.Children[0]
	switch target.Kind {
	case parser.KindIdentifier:
		s := c.sc()
		for k := len(s.classes) - 1; k >= 0; k-- {
			candidates = append(candidates, methodsNamed(c.members(named(s.classes[k].model.Name)), target.TokenLiteral())...)
		}
	case parser.KindFieldAccess:
		if len(target.Children) == 2 {
			if recv := c.typeOf(target.Children[0]); recv.kind == value || recv.kind == typeName {
				candidates = methodsNamed(c.members(recv.t), target.Children[1].TokenLiteral())
			}
		}
	}
	seen := map[string]bool{}
	var out []string
	for _, mb := range candidates {
		var t java.TypeModel
		switch {
		case pos < len(mb.params):
			t = mb.params[pos]
			if mb.method.IsVarargs && pos == len(mb.params)-1 {
				t = t.Element()
			}
		case mb.method.IsVarargs && len(mb.params) > 0:
			t = mb.params[len(mb.params)-1].Element()
		default:
			continue
		}
		if s := typeString(t); !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func lastChild(n *parser.Node) *parser.Node {
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[len(n.Children)-1]
}
