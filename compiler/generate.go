package compiler

import (
	"fmt"
	"strings"

	"github.com/dhamidi/dew/artifact"
	"github.com/dhamidi/dew/classfile"
	"github.com/dhamidi/dew/java"
	"github.com/dhamidi/dew/java/parser"
)

// gen lays out the class files of a unit without errors and publishes
// them, together with the source and the side document page, into the
// unit's environment.
type gen struct {
	t      *Task
	source *java.SourceUnit
	index  java.ClassIndex
}

func newGen(t *Task) *gen {
	return &gen{t: t, source: t.source, index: t.Index()}
}

func (g *gen) run() ([]Class, error) {
	var classes []Class
	main := g.t.unit.MainPath()
	for _, m := range g.source.Classes {
		cf, err := java.ClassFile(m, g.index, g.body)
		if err != nil {
			return nil, err
		}
		data, err := cf.Bytes()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.Name, err)
		}
		c := Class{Name: m.BinaryName + ".class", Bytes: data}
		if c.Name == main {
			classes = append([]Class{c}, classes...)
		} else {
			classes = append(classes, c)
		}
	}

	entries := make([]artifact.Entry, 0, len(classes)+1)
	for _, c := range classes {
		entries = append(entries, artifact.Entry{Path: c.Name, Role: artifact.Class, Content: c.Bytes})
	}
	entries = append(entries,
		artifact.Entry{Path: g.t.unit.SourcePath(), Role: artifact.GeneratedSource, Content: []byte(g.t.unit.Source)},
		artifact.Entry{Path: g.t.unit.SideDocumentPath(), Role: artifact.GeneratedSource, Content: []byte(g.t.unit.Page())},
	)
	g.t.unit.Env().Publish(entries)
	return classes, nil
}

// body translates the statement forms the generator understands: prints
// of a literal, throwing a new exception with a literal message, and
// returning a literal. Anything else leaves the method to the stub.
func (g *gen) body(a *classfile.Assembler, owner *java.ClassModel, m *java.MethodModel) bool {
	if m.Body == nil || m.Body.Kind != parser.KindBlock {
		return false
	}
	r := g.source.Resolver(owner).WithTypeVariables(m.TypeParameters)
	for _, s := range m.Body.Children {
		a.Line(s.Span.Start.Line)
		switch s.Kind {
		case parser.KindEmptyStmt:
		case parser.KindExplicitConstructorInvocation:
			if !isPlainSuperCall(s) {
				return false
			}
		case parser.KindExprStmt:
			if len(s.Children) != 1 || !g.print(a, s.Children[0]) {
				return false
			}
		case parser.KindThrowStmt:
			return len(s.Children) == 1 && g.throwNew(a, r, s.Children[0])
		case parser.KindReturnStmt:
			return g.returnLiteral(a, m, s)
		default:
			return false
		}
	}
	if m.IsConstructor() || m.ReturnType.IsVoid() {
		a.Return(nil)
		return true
	}
	return false
}

// isPlainSuperCall matches super() without arguments, which the class
// file layout already emits.
func isPlainSuperCall(n *parser.Node) bool {
	if len(n.Children) != 2 || n.Children[0].Kind != parser.KindSuper {
		return false
	}
	args := n.Children[1]
	return args.Kind == parser.KindParameters && len(args.Children) == 0
}

func (g *gen) print(a *classfile.Assembler, expr *parser.Node) bool {
	if expr.Kind != parser.KindCallExpr || len(expr.Children) != 2 {
		return false
	}
	target, args := expr.Children[0], expr.Children[1]
	name := dottedName(target)
	var stream, method string
	for _, prefix := range []string{"System.", "java.lang.System."} {
		if rest := strings.TrimPrefix(name, prefix); rest != name {
			stream, method, _ = strings.Cut(rest, ".")
		}
	}
	if stream != "out" && stream != "err" {
		return false
	}
	if method != "println" && method != "print" {
		return false
	}
	if len(args.Children) > 1 || (method == "print" && len(args.Children) == 0) {
		return false
	}
	desc := "()V"
	var arg interface{}
	if len(args.Children) == 1 {
		v, d, ok := printArgument(args.Children[0])
		if !ok {
			return false
		}
		arg, desc = v, "("+d+")V"
	}
	if err := a.Field(classfile.OpGetstatic, "java/lang/System", stream, "Ljava/io/PrintStream;"); err != nil {
		return false
	}
	if arg != nil && !pushConstant(a, arg) {
		return false
	}
	return a.Invoke(classfile.OpInvokevirtual, "java/io/PrintStream", method, desc) == nil
}

func (g *gen) throwNew(a *classfile.Assembler, r *java.Resolver, expr *parser.Node) bool {
	if expr.Kind != parser.KindNewExpr || len(expr.Children) < 2 {
		return false
	}
	qn := expr.Children[0]
	if qn.Kind != parser.KindQualifiedName {
		return false
	}
	args := expr.FirstChildOfKind(parser.KindParameters)
	if args == nil || expr.FirstChildOfKind(parser.KindBlock) != nil || len(args.Children) > 1 {
		return false
	}
	full, ok := r.Resolve(java.QualifiedName(qn))
	if !ok {
		return false
	}
	class := java.InternalName(g.index, full)
	a.New(class)
	desc := "()V"
	if len(args.Children) == 1 {
		v, typ, ok := java.ConstantOf(args.Children[0])
		if !ok || typ != "java.lang.String" {
			return false
		}
		a.PushString(v.(string))
		desc = "(Ljava/lang/String;)V"
	}
	if err := a.Invoke(classfile.OpInvokespecial, class, "<init>", desc); err != nil {
		return false
	}
	a.Throw()
	return true
}

func (g *gen) returnLiteral(a *classfile.Assembler, m *java.MethodModel, s *parser.Node) bool {
	if len(s.Children) == 0 {
		if !m.ReturnType.IsVoid() && !m.IsConstructor() {
			return false
		}
		a.Return(nil)
		return true
	}
	if m.ReturnType.IsVoid() || m.IsConstructor() {
		return false
	}
	expr := s.Children[0]
	ft := java.FieldType(g.index, m.ReturnType)
	if expr.Kind == parser.KindLiteral && expr.Token != nil && expr.Token.Kind == parser.TokenNull {
		if ft.BaseType != "" && ft.ArrayDepth == 0 {
			return false
		}
		a.PushNull()
		a.Return(ft)
		return true
	}
	v, _, ok := java.ConstantOf(expr)
	if !ok {
		return false
	}
	typ := m.ReturnType.Name
	if m.ReturnType.IsArray() {
		return false
	}
	if !m.ReturnType.IsPrimitive() {
		if typ != "java.lang.String" && typ != "java.lang.Object" && typ != "java.lang.CharSequence" {
			return false
		}
		if _, isString := v.(string); !isString {
			return false
		}
		typ = "java.lang.String"
	}
	cv, ok := java.ConvertConstant(v, typ)
	if !ok || !pushConstant(a, cv) {
		return false
	}
	a.Return(ft)
	return true
}

// printArgument evaluates a constant argument and returns the descriptor
// of the print overload that takes it.
func printArgument(expr *parser.Node) (interface{}, string, bool) {
	v, typ, ok := java.ConstantOf(expr)
	if !ok {
		return nil, "", false
	}
	switch typ {
	case "java.lang.String":
		return v, "Ljava/lang/String;", true
	case "boolean":
		return v, "Z", true
	case "char":
		return v, "C", true
	case "int":
		return v, "I", true
	case "long":
		return v, "J", true
	case "float":
		return v, "F", true
	case "double":
		return v, "D", true
	}
	return nil, "", false
}

func pushConstant(a *classfile.Assembler, v interface{}) bool {
	switch x := v.(type) {
	case string:
		a.PushString(x)
	case bool:
		if x {
			a.PushInt(1)
		} else {
			a.PushInt(0)
		}
	case int32:
		a.PushInt(x)
	case int64:
		a.PushLong(x)
	case float32:
		a.PushFloat(x)
	case float64:
		a.PushDouble(x)
	default:
		return false
	}
	return true
}

// dottedName flattens a chain of identifiers and field accesses.
func dottedName(n *parser.Node) string {
	switch n.Kind {
	case parser.KindIdentifier:
		return n.TokenLiteral()
	case parser.KindQualifiedName:
		return java.QualifiedName(n)
	case parser.KindFieldAccess:
		if len(n.Children) != 2 || n.Children[1].Kind != parser.KindIdentifier {
			return ""
		}
		left := dottedName(n.Children[0])
		if left == "" {
			return ""
		}
		return left + "." + n.Children[1].TokenLiteral()
	}
	return ""
}
