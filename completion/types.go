package completion

import (
	"strings"

	"github.com/dhamidi/dew/java"
	"github.com/dhamidi/dew/java/parser"
)

type valueKind int

const (
	unknown valueKind = iota
	value
	typeName
	packageName
)

// typed is what an expression denotes: a value of some type, a type or a
// package.
type typed struct {
	kind valueKind
	t    java.TypeModel
	pkg  string
}

func valueOf(t java.TypeModel) typed {
	return typed{kind: value, t: t}
}

func named(name string) java.TypeModel {
	return java.TypeModel{Name: name}
}

var (
	booleanType = named("boolean")
	intType     = named("int")
	stringType  = named("java.lang.String")
)

// class finds a class model by dotted name, local classes included.
func (c *Context) class(name string) *java.ClassModel {
	s := c.sc()
	for _, m := range s.localTypes {
		if m.Name == name {
			return m
		}
	}
	for _, e := range s.classes {
		if e.model.Name == name {
			return e.model
		}
	}
	return c.index().LookupClass(name)
}

// typeOfNode resolves a type as written at the completion point.
func (c *Context) typeOfNode(n *parser.Node) java.TypeModel {
	s := c.sc()
	if n == nil {
		return named("java.lang.Object")
	}
	if n.Kind == parser.KindArrayType {
		for i := len(n.Children) - 1; i >= 0; i-- {
			if k := n.Children[i].Kind; k == parser.KindType || k == parser.KindArrayType {
				t := c.typeOfNode(n.Children[i])
				t.ArrayDepth++
				return t
			}
		}
	}
	if n.Kind == parser.KindType && n.Token == nil {
		if qn := n.FirstChildOfKind(parser.KindQualifiedName); qn != nil {
			if m, ok := s.localTypes[java.QualifiedName(qn)]; ok {
				return named(m.Name)
			}
		} else if inner := n.FirstChildOfKind(parser.KindType); inner != nil {
			return c.typeOfNode(inner)
		}
	}
	return java.TypeOf(n, s.resolver, nil)
}

// varType is the type of a local variable, inferred from its initializer
// for var declarations.
func (c *Context) varType(v variable) (java.TypeModel, bool) {
	if v.typeNode == nil {
		return java.TypeModel{}, false
	}
	t := c.typeOfNode(v.typeNode)
	if t.Name == "var" {
		if v.init == nil {
			return java.TypeModel{}, false
		}
		it := c.typeOf(v.init)
		if it.kind != value {
			return java.TypeModel{}, false
		}
		t = it.t
		if v.element {
			return c.elementType(t)
		}
	}
	if v.varargs {
		t.ArrayDepth++
	}
	return t, true
}

// elementType is the type an enhanced for loop over t yields.
func (c *Context) elementType(t java.TypeModel) (java.TypeModel, bool) {
	if t.IsArray() {
		return t.Element(), true
	}
	m := c.class(t.Erasure())
	if m == nil {
		return java.TypeModel{}, false
	}
	for _, mb := range c.members(t) {
		if mb.method != nil && mb.name == "iterator" && len(mb.method.Parameters) == 0 {
			if len(mb.typ.TypeArguments) == 1 {
				if a := mb.typ.TypeArguments[0]; a.Type != nil {
					return *a.Type, true
				} else if a.Bound != nil && a.BoundKind == "extends" {
					return *a.Bound, true
				}
			}
		}
	}
	return named("java.lang.Object"), true
}

// typeOf computes what an expression denotes. It gives up with unknown
// rather than guessing.
func (c *Context) typeOf(n *parser.Node) typed {
	if n == nil {
		return typed{}
	}
	c.depth++
	defer func() { c.depth-- }()
	if c.depth > 32 {
		return typed{}
	}
	switch n.Kind {
	case parser.KindIdentifier:
		return c.identType(n.TokenLiteral())
	case parser.KindQualifiedName:
		return c.qualifiedType(java.QualifiedName(n))
	case parser.KindThis:
		if m := c.sc().innermost(); m != nil {
			return valueOf(named(m.Name))
		}
	case parser.KindSuper:
		if m := c.sc().innermost(); m != nil && m.SuperClass != "" {
			return valueOf(named(m.SuperClass))
		}
	case parser.KindLiteral:
		return literalType(n)
	case parser.KindParenExpr:
		if len(n.Children) == 1 {
			return c.typeOf(n.Children[0])
		}
	case parser.KindFieldAccess:
		return c.fieldAccessType(n)
	case parser.KindCallExpr:
		return c.callType(n)
	case parser.KindNewExpr:
		if qn := n.FirstChildOfKind(parser.KindQualifiedName); qn != nil {
			t := c.typeOfNode(&parser.Node{Kind: parser.KindType, Span: qn.Span, Children: n.Children[:1]})
			if args := n.FirstChildOfKind(parser.KindTypeArguments); args != nil && len(n.Children) > 1 && n.Children[1] == args {
				t = c.typeOfNode(&parser.Node{Kind: parser.KindType, Span: qn.Span, Children: n.Children[:2]})
			}
			return valueOf(t)
		}
	case parser.KindNewArrayExpr:
		if len(n.Children) == 0 {
			break
		}
		var t java.TypeModel
		if n.Children[0].Kind == parser.KindQualifiedName {
			t = c.typeOfNode(&parser.Node{Kind: parser.KindType, Span: n.Children[0].Span, Children: n.Children[:1]})
		} else {
			t = c.typeOfNode(n.Children[0])
		}
		dims := 0
		for _, ch := range n.Children[1:] {
			if ch.Kind != parser.KindArrayInit {
				dims++
			}
		}
		if dims == 0 {
			dims = 1
		}
		t.ArrayDepth += dims
		return valueOf(t)
	case parser.KindArrayAccess:
		if len(n.Children) > 0 {
			if t := c.typeOf(n.Children[0]); t.kind == value && t.t.IsArray() {
				return valueOf(t.t.Element())
			}
		}
	case parser.KindCastExpr:
		if len(n.Children) > 0 {
			return valueOf(c.typeOfNode(n.Children[0]))
		}
	case parser.KindClassLiteral:
		arg := named("java.lang.Object")
		if len(n.Children) > 0 {
			arg = c.typeOfNode(n.Children[0])
		}
		return valueOf(java.TypeModel{Name: "java.lang.Class", TypeArguments: []java.TypeArgumentModel{{Type: &arg}}})
	case parser.KindInstanceofExpr:
		return valueOf(booleanType)
	case parser.KindUnaryExpr:
		if len(n.Children) == 2 {
			if n.Children[0].TokenLiteral() == "!" {
				return valueOf(booleanType)
			}
			return c.promoteUnary(c.typeOf(n.Children[1]))
		}
	case parser.KindPostfixExpr:
		if len(n.Children) > 0 {
			return c.typeOf(n.Children[0])
		}
	case parser.KindAssignExpr:
		if len(n.Children) > 0 {
			return c.typeOf(n.Children[0])
		}
	case parser.KindTernaryExpr:
		if len(n.Children) == 3 {
			if t := c.typeOf(n.Children[1]); t.kind == value && t.t.Name != "null" {
				return t
			}
			return c.typeOf(n.Children[2])
		}
	case parser.KindBinaryExpr:
		if len(n.Children) == 3 {
			return c.binaryType(n.Children[1].TokenLiteral(), c.typeOf(n.Children[0]), c.typeOf(n.Children[2]))
		}
	}
	return typed{}
}

func literalType(n *parser.Node) typed {
	if n.Token == nil {
		return typed{}
	}
	lit := n.Token.Literal
	switch n.Token.Kind {
	case parser.TokenIntLiteral:
		if strings.HasSuffix(lit, "l") || strings.HasSuffix(lit, "L") {
			return valueOf(named("long"))
		}
		return valueOf(intType)
	case parser.TokenFloatLiteral:
		if strings.HasSuffix(lit, "f") || strings.HasSuffix(lit, "F") {
			return valueOf(named("float"))
		}
		return valueOf(named("double"))
	case parser.TokenCharLiteral:
		return valueOf(named("char"))
	case parser.TokenStringLiteral, parser.TokenTextBlock:
		return valueOf(stringType)
	case parser.TokenTrue, parser.TokenFalse:
		return valueOf(booleanType)
	case parser.TokenNull:
		return valueOf(named("null"))
	}
	return typed{}
}

var numericRank = map[string]int{"byte": 1, "short": 2, "char": 2, "int": 3, "long": 4, "float": 5, "double": 6}

var unboxed = map[string]string{
	"java.lang.Boolean":   "boolean",
	"java.lang.Byte":      "byte",
	"java.lang.Short":     "short",
	"java.lang.Character": "char",
	"java.lang.Integer":   "int",
	"java.lang.Long":      "long",
	"java.lang.Float":     "float",
	"java.lang.Double":    "double",
}

func unbox(t java.TypeModel) string {
	if t.ArrayDepth == 0 {
		if p, ok := unboxed[t.Name]; ok {
			return p
		}
	}
	return t.Name
}

func (c *Context) promoteUnary(t typed) typed {
	if t.kind != value {
		return typed{}
	}
	name := unbox(t.t)
	if r, ok := numericRank[name]; ok && r < numericRank["int"] {
		return valueOf(intType)
	}
	return valueOf(named(name))
}

func (c *Context) binaryType(op string, l, r typed) typed {
	switch op {
	case "&&", "||", "==", "!=", "<", "<=", ">", ">=":
		return valueOf(booleanType)
	}
	if l.kind != value || r.kind != value {
		return typed{}
	}
	if op == "+" && (l.t.Name == stringType.Name && l.t.ArrayDepth == 0 || r.t.Name == stringType.Name && r.t.ArrayDepth == 0) {
		return valueOf(stringType)
	}
	a, b := unbox(l.t), unbox(r.t)
	switch op {
	case "<<", ">>", ">>>":
		return c.promoteUnary(valueOf(named(a)))
	case "&", "|", "^":
		if a == "boolean" && b == "boolean" {
			return valueOf(booleanType)
		}
	}
	ra, oka := numericRank[a]
	rb, okb := numericRank[b]
	if !oka || !okb {
		return typed{}
	}
	rank := ra
	if rb > rank {
		rank = rb
	}
	if rank < numericRank["int"] {
		return valueOf(intType)
	}
	for name, k := range numericRank {
		if k == rank && k > numericRank["short"] {
			return valueOf(named(name))
		}
	}
	return valueOf(intType)
}

// identType resolves a simple name: a variable, a field, a type or a
// package, in that order.
func (c *Context) identType(name string) typed {
	s := c.sc()
	for i := len(s.locals) - 1; i >= 0; i-- {
		if v := s.locals[i]; v.name == name {
			if t, ok := c.varType(v); ok {
				return valueOf(t)
			}
			return typed{}
		}
	}
	for k := len(s.classes) - 1; k >= 0; k-- {
		for _, mb := range c.members(named(s.classes[k].model.Name)) {
			if mb.field != nil && mb.name == name {
				return valueOf(mb.typ)
			}
		}
	}
	for _, mb := range c.staticImports() {
		if mb.field != nil && mb.name == name {
			return valueOf(mb.typ)
		}
	}
	if full := c.resolveType(name); full != "" {
		return typed{kind: typeName, t: named(full)}
	}
	if c.isPackage(name) {
		return typed{kind: packageName, pkg: name}
	}
	return typed{}
}

// resolveType resolves a simple or qualified type name as written in the
// current scope, or returns "".
func (c *Context) resolveType(name string) string {
	s := c.sc()
	if m, ok := s.localTypes[name]; ok {
		return m.Name
	}
	full, ok := s.resolver.Resolve(name)
	if !ok || java.IsPrimitive(full) || c.class(full) == nil {
		return ""
	}
	return full
}

// qualifiedType resolves a dotted name by walking it segment by segment.
func (c *Context) qualifiedType(name string) typed {
	parts := strings.Split(name, ".")
	t := c.identType(parts[0])
	for _, p := range parts[1:] {
		t = c.selectType(t, p)
	}
	return t
}

// selectType is what t.name denotes.
func (c *Context) selectType(t typed, name string) typed {
	switch t.kind {
	case packageName:
		full := t.pkg + "." + name
		if c.class(full) != nil {
			return typed{kind: typeName, t: named(full)}
		}
		if c.isPackage(full) {
			return typed{kind: packageName, pkg: full}
		}
	case typeName:
		for _, mb := range c.members(t.t) {
			if mb.field != nil && mb.name == name {
				return valueOf(mb.typ)
			}
		}
		if full := t.t.Name + "." + name; c.class(full) != nil {
			return typed{kind: typeName, t: named(full)}
		}
	case value:
		if t.t.IsArray() && name == "length" {
			return valueOf(intType)
		}
		for _, mb := range c.members(t.t) {
			if mb.field != nil && mb.name == name {
				return valueOf(mb.typ)
			}
		}
	}
	return typed{}
}

func (c *Context) fieldAccessType(n *parser.Node) typed {
	if len(n.Children) < 2 {
		return typed{}
	}
	left := c.typeOf(n.Children[0])
	sel := n.Children[len(n.Children)-1]
	switch sel.Kind {
	case parser.KindThis:
		if left.kind == typeName {
			return valueOf(left.t)
		}
	case parser.KindSuper:
		if m := c.class(left.t.Name); left.kind == typeName && m != nil && m.SuperClass != "" {
			return valueOf(named(m.SuperClass))
		}
	case parser.KindIdentifier:
		return c.selectType(left, sel.TokenLiteral())
	}
	return typed{}
}

// callType types a method invocation by finding a method with the
// invocation's name and arity.
func (c *Context) callType(n *parser.Node) typed {
	if len(n.Children) < 2 {
		return typed{}
	}
	target, args := n.Children[0], n.Children[len(n.Children)-1]
	arity := len(args.Children)
	var candidates []member
	switch target.Kind {
	case parser.KindIdentifier:
		name := target.TokenLiteral()
		s := c.sc()
		for k := len(s.classes) - 1; k >= 0 && len(candidates) == 0; k-- {
			candidates = methodsNamed(c.members(named(s.classes[k].model.Name)), name)
		}
		if len(candidates) == 0 {
			candidates = methodsNamed(c.staticImports(), name)
		}
	case parser.KindFieldAccess:
		if len(target.Children) < 2 {
			return typed{}
		}
		recv := c.typeOf(target.Children[0])
		if recv.kind != value && recv.kind != typeName {
			return typed{}
		}
		name := target.Children[len(target.Children)-1].TokenLiteral()
		candidates = methodsNamed(c.members(recv.t), name)
	}
	if m := byArity(candidates, arity); m != nil {
		if m.typ.IsVoid() {
			return typed{}
		}
		return valueOf(m.typ)
	}
	return typed{}
}

func methodsNamed(members []member, name string) []member {
	var out []member
	for _, mb := range members {
		if mb.method != nil && mb.name == name {
			out = append(out, mb)
		}
	}
	return out
}

func byArity(candidates []member, arity int) *member {
	for i, mb := range candidates {
		n := len(mb.method.Parameters)
		if n == arity || mb.method.IsVarargs && arity >= n-1 {
			return &candidates[i]
		}
	}
	if len(candidates) > 0 {
		return &candidates[0]
	}
	return nil
}

// member is a field or method as seen through a particular type, with
// type variables of the declaring class replaced by the type's arguments.
type member struct {
	name   string
	owner  *java.ClassModel
	field  *java.FieldModel
	method *java.MethodModel
	typ    java.TypeModel
	params []java.TypeModel
}

var lengthField = &java.FieldModel{Name: "length", Type: intType, Visibility: java.VisibilityPublic, IsFinal: true}

// members lists the fields and methods of t and its supertypes. A member
// hides inherited members with the same name, or for methods the same
// parameter types.
func (c *Context) members(t java.TypeModel) []member {
	var out []member
	if t.IsArray() {
		out = append(out, member{name: "length", field: lengthField, typ: intType})
		t = named("java.lang.Object")
	}
	if t.IsPrimitive() || t.Name == "" {
		return out
	}
	m := c.class(t.Erasure())
	if m == nil {
		return out
	}
	idx := c.index()
	fields := map[string]bool{}
	methods := map[string]bool{}
	bindings := bind(m, t)
	for _, cm := range append([]*java.ClassModel{m}, java.Supertypes(idx, m)...) {
		if cm != m {
			bindings = c.inherit(m, t, cm, bindings)
		}
		for i := range cm.Fields {
			f := &cm.Fields[i]
			if fields[f.Name] {
				continue
			}
			fields[f.Name] = true
			out = append(out, member{name: f.Name, owner: cm, field: f, typ: subst(f.Type, bindings)})
		}
		for i := range cm.Methods {
			mm := &cm.Methods[i]
			if mm.IsConstructor() || strings.HasPrefix(mm.Name, "<") {
				continue
			}
			params := make([]java.TypeModel, len(mm.Parameters))
			for k, p := range mm.Parameters {
				params[k] = subst(p.Type, bindings)
			}
			key := mm.Name + signature(params)
			if methods[key] {
				continue
			}
			methods[key] = true
			out = append(out, member{name: mm.Name, owner: cm, method: mm, typ: subst(mm.ReturnType, bindings), params: params})
		}
	}
	return out
}

// bind maps the type parameters of m to the type arguments of t.
func bind(m *java.ClassModel, t java.TypeModel) map[string]java.TypeModel {
	b := map[string]java.TypeModel{}
	for i, p := range m.TypeParameters {
		if i >= len(t.TypeArguments) {
			break
		}
		a := t.TypeArguments[i]
		switch {
		case a.Type != nil:
			b[p.Name] = *a.Type
		case a.Bound != nil && a.BoundKind == "extends":
			b[p.Name] = *a.Bound
		}
	}
	return b
}

// inherit extends bindings to the type parameters of the supertype sup
// of m, following the supertype as m's declaration writes it.
func (c *Context) inherit(m *java.ClassModel, t java.TypeModel, sup *java.ClassModel, bindings map[string]java.TypeModel) map[string]java.TypeModel {
	if m.Decl == nil || len(sup.TypeParameters) == 0 {
		return bindings
	}
	for _, clause := range m.Decl.Children {
		if clause.Kind != parser.KindExtendsClause && clause.Kind != parser.KindImplementsClause {
			continue
		}
		for _, tn := range clause.Children {
			st := c.typeOfNode(tn)
			if st.Name != sup.Name {
				continue
			}
			out := map[string]java.TypeModel{}
			for k, v := range bindings {
				out[k] = v
			}
			for k, v := range bind(sup, st) {
				out[k] = subst(v, bindings)
			}
			return out
		}
	}
	return bindings
}

// subst replaces type variables in t. Variables without a binding erase
// to their bound.
func subst(t java.TypeModel, bindings map[string]java.TypeModel) java.TypeModel {
	if t.Variable {
		if b, ok := bindings[t.Name]; ok {
			b.ArrayDepth += t.ArrayDepth
			return b
		}
		return java.TypeModel{Name: t.Erasure(), ArrayDepth: t.ArrayDepth}
	}
	if len(t.TypeArguments) == 0 {
		return t
	}
	out := t
	out.TypeArguments = make([]java.TypeArgumentModel, len(t.TypeArguments))
	for i, a := range t.TypeArguments {
		if a.Type != nil {
			s := subst(*a.Type, bindings)
			a.Type = &s
		}
		if a.Bound != nil {
			s := subst(*a.Bound, bindings)
			a.Bound = &s
		}
		out.TypeArguments[i] = a
	}
	return out
}

func signature(params []java.TypeModel) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.Erasure())
		b.WriteString(strings.Repeat("[]", p.ArrayDepth))
	}
	b.WriteByte(')')
	return b.String()
}

// staticImports lists the static members brought in by static imports.
func (c *Context) staticImports() []member {
	var out []member
	for _, imp := range c.sc().resolver.Imports {
		if !imp.Static {
			continue
		}
		owner, name := imp.Name, ""
		if !imp.Wildcard {
			i := strings.LastIndex(imp.Name, ".")
			if i < 0 {
				continue
			}
			owner, name = imp.Name[:i], imp.Name[i+1:]
		}
		for _, mb := range c.members(named(owner)) {
			if name != "" && mb.name != name {
				continue
			}
			if mb.field != nil && mb.field.IsStatic || mb.method != nil && mb.method.IsStatic {
				out = append(out, mb)
			}
		}
	}
	return out
}

// packages lists the known packages.
func (c *Context) packages() []string {
	if l, ok := c.index().(java.PackageLister); ok {
		return l.Packages()
	}
	return nil
}

func (c *Context) classesIn(pkg string) []*java.ClassModel {
	if l, ok := c.index().(java.PackageLister); ok {
		return l.ClassesInPackage(pkg)
	}
	return nil
}

func (c *Context) isPackage(name string) bool {
	for _, p := range c.packages() {
		if p == name || strings.HasPrefix(p, name+".") {
			return true
		}
	}
	return false
}

// short renders t with simple class names.
func short(t java.TypeModel) string {
	name := t.Name
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	if len(t.TypeArguments) > 0 {
		args := make([]string, len(t.TypeArguments))
		for i, a := range t.TypeArguments {
			switch {
			case a.IsWildcard && a.Bound != nil:
				args[i] = "? " + a.BoundKind + " " + short(*a.Bound)
			case a.IsWildcard:
				args[i] = "?"
			case a.Type != nil:
				args[i] = short(*a.Type)
			}
		}
		name += "<" + strings.Join(args, ",") + ">"
	}
	return name + strings.Repeat("[]", t.ArrayDepth)
}
