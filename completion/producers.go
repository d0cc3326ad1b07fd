package completion

import (
	"strings"

	"github.com/dhamidi/dew/java"
	"github.com/dhamidi/dew/java/parser"
)

var (
	primitiveKeywords = []string{"boolean", "byte", "char", "short", "int", "long", "float", "double"}
	memberModifiers   = []string{"public", "protected", "private", "static", "final", "abstract",
		"synchronized", "native", "transient", "volatile", "strictfp", "sealed", "non-sealed"}
	typeDeclKeywords = []string{"class", "interface", "enum", "record"}
	classModifiers   = []string{"public", "abstract", "final", "sealed", "non-sealed", "strictfp"}
)

// offer adds an item unless its key was already offered or it does not
// match the prefix.
func (c *Context) offer(it Item, key string) {
	if c.excluded[key] || !Matches(c.prefix, it.Text) {
		return
	}
	c.excluded[key] = true
	c.items = append(c.items, it)
}

func (c *Context) exclude(key string) {
	c.excluded[key] = true
}

func (c *Context) keywords(words ...string) {
	for _, w := range words {
		c.offer(Item{Text: w, DisplayText: w, Kind: KindKeyword}, "kw:"+w)
	}
}

func (c *Context) primitives() {
	c.keywords(primitiveKeywords...)
}

// classFilter selects the classes a site accepts.
type classFilter func(*java.ClassModel) bool

func (c *Context) offerClass(m *java.ClassModel, accept classFilter) {
	if m == nil || m.SimpleName == "" || m.IsSynthetic {
		return
	}
	if accept != nil && !accept(m) {
		return
	}
	if !c.classAccessible(m) {
		return
	}
	c.offer(Item{Text: m.SimpleName, DisplayText: m.SimpleName, ClassName: m.Name, Kind: KindClass}, "type:"+m.Name)
}

// types offers the classes that can be named at the completion point,
// nearest scope first. With a prefix every known class is a candidate.
func (c *Context) types(accept classFilter) {
	s := c.sc()
	if accept == nil {
		for i := len(s.typeVars) - 1; i >= 0; i-- {
			v := s.typeVars[i]
			c.offer(Item{Text: v, DisplayText: v, ClassName: v, Kind: KindClass}, "type:"+v)
		}
	}
	for _, m := range s.localTypes {
		c.offerClass(m, accept)
	}
	idx := c.index()
	for k := len(s.classes) - 1; k >= 0; k-- {
		e := s.classes[k].model
		for _, cm := range append([]*java.ClassModel{e}, java.Supertypes(idx, e)...) {
			c.memberTypes(cm, accept)
		}
	}
	if src := c.source; src != nil {
		for _, m := range src.Classes {
			if m.Outer == "" {
				c.offerClass(m, accept)
			}
		}
	}
	for _, imp := range s.resolver.Imports {
		switch {
		case imp.Static:
		case imp.Wildcard:
			if m := c.class(imp.Name); m != nil {
				c.memberTypes(m, accept)
			}
		default:
			c.offerClass(c.class(imp.Name), accept)
		}
	}
	for _, m := range c.classesIn(c.packageName()) {
		c.offerClass(m, accept)
	}
	for _, imp := range s.resolver.Imports {
		if imp.Wildcard && !imp.Static {
			for _, m := range c.classesIn(imp.Name) {
				c.offerClass(m, accept)
			}
		}
	}
	for _, m := range c.classesIn("java.lang") {
		c.offerClass(m, accept)
	}
	if c.prefix == "" {
		return
	}
	for _, p := range c.packages() {
		if err := c.ctx.Err(); err != nil {
			c.err = err
			return
		}
		for _, m := range c.classesIn(p) {
			c.offerClass(m, accept)
		}
	}
}

func (c *Context) memberTypes(m *java.ClassModel, accept classFilter) {
	for _, ic := range m.InnerClasses {
		if ic.OuterClass != "" && ic.OuterClass != m.Name {
			continue
		}
		c.offerClass(c.class(ic.InnerClass), accept)
	}
}

// packagesUnder offers the next segment of the packages below parent.
func (c *Context) packagesUnder(parent string) {
	for _, p := range c.packages() {
		rest := p
		if parent != "" {
			if !strings.HasPrefix(p, parent+".") {
				continue
			}
			rest = p[len(parent)+1:]
		}
		seg := rest
		if i := strings.Index(rest, "."); i >= 0 {
			seg = rest[:i]
		}
		full := seg
		if parent != "" {
			full = parent + "." + seg
		}
		c.offer(Item{Text: seg, DisplayText: seg, ClassName: full, Kind: KindPackage}, "pkg:"+full)
	}
}

// classesOf offers the accessible top-level classes of pkg.
func (c *Context) classesOf(pkg string, accept classFilter) {
	for _, m := range c.classesIn(pkg) {
		c.offerClass(m, accept)
	}
}

func (c *Context) offerVariable(name string, t java.TypeModel, known bool) {
	display := name
	if known {
		display += " : " + short(t)
	}
	c.offer(Item{Text: name, DisplayText: display, Kind: KindVariable}, "var:"+name)
}

func (c *Context) offerMember(mb member, owner string) {
	switch {
	case mb.field != nil:
		kind := KindField
		if mb.field.IsEnum {
			kind = KindEnumConstant
		}
		c.offer(Item{Text: mb.name, DisplayText: mb.name + " : " + short(mb.typ), ClassName: owner, Kind: kind}, "var:"+mb.name)
	case mb.method != nil:
		params := make([]string, len(mb.params))
		for i, p := range mb.params {
			if i < len(mb.method.Parameters) && mb.method.Parameters[i].Name != "" {
				params[i] = short(p) + " " + mb.method.Parameters[i].Name
			} else {
				params[i] = short(p)
			}
		}
		if mb.method.IsVarargs && len(params) > 0 {
			last := mb.params[len(mb.params)-1]
			params[len(params)-1] = strings.Replace(params[len(params)-1], short(last), short(last.Element())+"...", 1)
		}
		display := mb.name + "(" + strings.Join(params, ", ") + ") : " + short(mb.typ)
		c.offer(Item{Text: mb.name, DisplayText: display, ClassName: owner, Kind: KindMethod}, "method:"+mb.name+signature(mb.params))
	}
}

func (c *Context) ownerName(mb member) string {
	if mb.owner == nil {
		return ""
	}
	return mb.owner.Name
}

// variables offers the locals, then the fields of the enclosing classes,
// then statically imported fields. Inner declarations shadow outer ones.
func (c *Context) variables() {
	s := c.sc()
	for i := len(s.locals) - 1; i >= 0; i-- {
		v := s.locals[i]
		t, ok := c.varType(v)
		c.offerVariable(v.name, t, ok)
	}
	for k := len(s.classes) - 1; k >= 0; k-- {
		cm := s.classes[k].model
		instance := s.hasInstance(k)
		for _, mb := range c.members(named(cm.Name)) {
			if mb.field == nil {
				continue
			}
			if !mb.field.IsStatic && !instance {
				c.exclude("var:" + mb.name)
				continue
			}
			if mb.owner == s.forwardClass && cm == s.forwardClass && c.forward(mb.field) {
				c.exclude("var:" + mb.name)
				continue
			}
			if c.memberAccessible(mb) {
				c.offerMember(mb, c.ownerName(mb))
			}
		}
	}
	for _, mb := range c.staticImports() {
		if mb.field != nil && c.memberAccessible(mb) {
			c.offerMember(mb, c.ownerName(mb))
		}
	}
}

// forward reports whether f is declared at or after the field or
// initializer being completed.
func (c *Context) forward(f *java.FieldModel) bool {
	s := c.sc()
	if s.forwardFrom < 0 || f.NameNode == nil {
		return false
	}
	return f.NameNode.Span.Start.Offset >= s.forwardFrom
}

// methods offers the methods of the enclosing classes and the statically
// imported ones.
func (c *Context) methods() {
	s := c.sc()
	for k := len(s.classes) - 1; k >= 0; k-- {
		cm := s.classes[k].model
		instance := s.hasInstance(k)
		for _, mb := range c.members(named(cm.Name)) {
			if mb.method == nil || !mb.method.IsStatic && !instance {
				continue
			}
			if c.memberAccessible(mb) {
				c.offerMember(mb, c.ownerName(mb))
			}
		}
	}
	for _, mb := range c.staticImports() {
		if mb.method != nil && c.memberAccessible(mb) {
			c.offerMember(mb, c.ownerName(mb))
		}
	}
}

// expression offers what can start an expression.
func (c *Context) expression() {
	if c.prevKind() == parser.TokenNew {
		c.newTypes()
		return
	}
	s := c.sc()
	c.variables()
	c.methods()
	c.keywords("new", "null", "switch")
	if c.SmartTypes() == nil || c.expectsBoolean() {
		c.keywords("true", "false")
	}
	if !s.static && len(s.classes) > 0 {
		c.keywords("this", "super")
	}
	c.types(nil)
	if c.prefix != "" {
		c.packagesUnder("")
	}
}

// statement offers what can start a statement.
func (c *Context) statement() {
	c.keywords("assert", "do", "final", "for", "if", "return", "switch", "synchronized",
		"throw", "try", "var", "while", "class", "interface", "enum", "record")
	if c.insideLoop() {
		c.keywords("break", "continue")
	} else if c.insideSwitch() {
		c.keywords("break")
	}
	if c.insideSwitchExpr() {
		c.keywords("yield")
	}
	if before := c.statementBefore(); before != nil {
		switch before.Kind {
		case parser.KindIfStmt:
			if len(before.Children) == 2 {
				c.keywords("else")
			}
		case parser.KindTryStmt:
			if before.FirstChildOfKind(parser.KindFinallyClause) == nil {
				c.keywords("catch", "finally")
			}
		}
	}
	c.primitives()
	c.expression()
}

// statementBefore is the statement that ends right before the anchor in
// the innermost statement list.
func (c *Context) statementBefore() *parser.Node {
	for i := len(c.path) - 1; i >= 0; i-- {
		n := c.path[i]
		if n.Kind != parser.KindBlock && n.Kind != parser.KindSwitchCase {
			continue
		}
		var last *parser.Node
		for _, st := range n.Children {
			if st.Span.End.Offset > c.anchor || st == c.childOnPath(i) {
				break
			}
			last = st
		}
		return last
	}
	return nil
}

func (c *Context) insideLoop() bool {
	for i := len(c.path) - 1; i >= 0; i-- {
		switch c.path[i].Kind {
		case parser.KindForStmt, parser.KindEnhancedForStmt, parser.KindWhileStmt, parser.KindDoStmt:
			return true
		case parser.KindMethodDecl, parser.KindConstructorDecl, parser.KindLambdaExpr:
			return false
		}
	}
	return false
}

func (c *Context) insideSwitch() bool {
	for i := len(c.path) - 1; i >= 0; i-- {
		switch c.path[i].Kind {
		case parser.KindSwitchStmt:
			return true
		case parser.KindSwitchExpr, parser.KindMethodDecl, parser.KindConstructorDecl, parser.KindLambdaExpr:
			return false
		}
	}
	return false
}

func (c *Context) insideSwitchExpr() bool {
	for i := len(c.path) - 1; i >= 0; i-- {
		switch c.path[i].Kind {
		case parser.KindSwitchExpr:
			return true
		case parser.KindSwitchStmt, parser.KindMethodDecl, parser.KindConstructorDecl, parser.KindLambdaExpr:
			return false
		}
	}
	return false
}

// member offers what can start a member declaration in the body of the
// innermost class.
func (c *Context) member() {
	c.keywords(memberModifiers...)
	c.keywords(typeDeclKeywords...)
	c.keywords("void")
	if m := c.sc().innermost(); m != nil && m.IsInterface() {
		c.keywords("default")
	}
	c.primitives()
	c.types(nil)
}

// newTypes offers the classes that can be instantiated. Abstract classes
// and interfaces stay in since new may declare an anonymous class.
func (c *Context) newTypes() {
	c.insideNew = true
	c.primitives()
	c.types(func(m *java.ClassModel) bool {
		return m.Kind != java.ClassKindEnum && m.Kind != java.ClassKindAnnotation
	})
}

// selectMembers offers what can follow recv and a dot.
func (c *Context) selectMembers(recv typed) {
	switch recv.kind {
	case packageName:
		c.packagesUnder(recv.pkg)
		c.classesOf(recv.pkg, nil)
	case typeName:
		m := c.class(recv.t.Name)
		if m == nil {
			return
		}
		for _, mb := range c.members(recv.t) {
			static := mb.field != nil && mb.field.IsStatic || mb.method != nil && mb.method.IsStatic
			if static && c.memberAccessible(mb) {
				c.offerMember(mb, c.ownerName(mb))
			}
		}
		c.memberTypes(m, nil)
		c.keywords("class")
		s := c.sc()
		for k, e := range s.classes {
			if e.model.Name == m.Name && s.hasInstance(k) {
				c.keywords("this")
				if k < len(s.classes)-1 || m.IsInterface() {
					c.keywords("super")
				}
			}
		}
	case value:
		for _, mb := range c.members(recv.t) {
			if c.memberAccessible(mb) {
				c.offerMember(mb, c.ownerName(mb))
			}
		}
	}
}

// enumConstants offers the constants of an enum not yet in used.
func (c *Context) enumConstants(m *java.ClassModel, used map[string]bool) {
	for _, f := range m.Fields {
		if f.IsEnum && !used[f.Name] {
			c.offer(Item{Text: f.Name, DisplayText: f.Name, ClassName: m.Name, Kind: KindEnumConstant}, "var:"+f.Name)
		}
	}
}

func (c *Context) labels() {
	for _, l := range c.sc().labels {
		c.offer(Item{Text: l, DisplayText: l, Kind: KindLabel}, "label:"+l)
	}
}

// throwables accepts subclasses of Throwable.
func (c *Context) throwables(m *java.ClassModel) bool {
	return !m.IsInterface() && c.subclassOf(m, "java.lang.Throwable")
}
