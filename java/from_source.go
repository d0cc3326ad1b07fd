package java

import (
	"bytes"
	"sort"
	"strings"

	"github.com/dhamidi/dew/classfile"
	"github.com/dhamidi/dew/java/parser"
)

// javadocFinder helps find Javadoc comments for declarations based on position.
type javadocFinder struct {
	comments []parser.Token // only block comments starting with /**, sorted by start line ascending
	used     map[int]bool   // tracks which comments (by index) have been used
}

func newJavadocFinder(comments []parser.Token) *javadocFinder {
	var javadocs []parser.Token
	for _, c := range comments {
		if c.Kind == parser.TokenComment && strings.HasPrefix(c.Literal, "/**") {
			javadocs = append(javadocs, c)
		}
	}
	sort.Slice(javadocs, func(i, j int) bool {
		return javadocs[i].Span.Start.Line < javadocs[j].Span.Start.Line
	})
	return &javadocFinder{comments: javadocs, used: make(map[int]bool)}
}

// FindForNode returns the closest unused Javadoc comment ending before
// node starts.
func (jf *javadocFinder) FindForNode(node *parser.Node) string {
	if jf == nil || len(jf.comments) == 0 {
		return ""
	}
	startLine := node.Span.Start.Line

	bestIdx := -1
	bestDistance := 100

	for i, c := range jf.comments {
		if jf.used[i] {
			continue
		}
		endLine := c.Span.End.Line
		if endLine > startLine {
			continue
		}
		if endLine == startLine && c.Span.End.Column >= node.Span.Start.Column {
			continue
		}
		if distance := startLine - endLine; distance < bestDistance {
			bestIdx = i
			bestDistance = distance
		}
	}

	if bestIdx >= 0 {
		jf.used[bestIdx] = true
		return jf.comments[bestIdx].Literal
	}
	return ""
}

// Reference is a type name that could not be resolved.
type Reference struct {
	Name string
	Node *parser.Node
}

// SourceUnit holds the classes declared by one compilation unit. Models
// are built in two steps: Declare records every type declaration with its
// names, Complete resolves supertypes and members against an index.
type SourceUnit struct {
	Package string
	Imports []Import
	// Classes lists every member type in declaration order, enclosing
	// classes before the classes they contain. Local and anonymous
	// classes are not included.
	Classes    []*ClassModel
	Unresolved []Reference
	Tree       *parser.Node

	jf    *javadocFinder
	local Classes
	base  *Resolver
}

// Declare records the type declarations of tree.
func Declare(tree *parser.Node, comments []parser.Token) *SourceUnit {
	u := &SourceUnit{Tree: tree, jf: newJavadocFinder(comments), local: Classes{}}
	if tree == nil {
		return u
	}
	u.Package = packageFromCompilationUnit(tree)
	u.Imports = importsFromCompilationUnit(tree)
	for _, child := range tree.Children {
		if IsTypeDecl(child) {
			u.declare(child, nil)
		}
	}
	return u
}

// Local is the index of the classes declared by the unit.
func (u *SourceUnit) Local() Classes {
	return u.local
}

// Index is the index Complete resolved against, the unit's own classes
// first.
func (u *SourceUnit) Index() ClassIndex {
	if u.base == nil {
		return u.local
	}
	return u.base.Index
}

// Main is the first top-level class of the unit.
func (u *SourceUnit) Main() *ClassModel {
	for _, m := range u.Classes {
		if m.Outer == "" {
			return m
		}
	}
	return nil
}

func IsTypeDecl(n *parser.Node) bool {
	switch n.Kind {
	case parser.KindClassDecl, parser.KindInterfaceDecl, parser.KindEnumDecl,
		parser.KindRecordDecl, parser.KindAnnotationDecl:
		return true
	}
	return false
}

// DeclName is the simple name of a type, method or constructor
// declaration.
func DeclName(n *parser.Node) *parser.Node {
	for _, c := range n.Children {
		if c.Kind == parser.KindIdentifier && c.Token != nil {
			return c
		}
	}
	return nil
}

// BodyMembers returns the member declarations of a type declaration.
// Enum constants are included as field declarations without a type.
func BodyMembers(decl *parser.Node) []*parser.Node {
	if decl.Kind == parser.KindEnumDecl {
		var out []*parser.Node
		for _, c := range decl.Children {
			switch c.Kind {
			case parser.KindModifiers, parser.KindIdentifier, parser.KindImplementsClause:
				continue
			}
			out = append(out, c)
		}
		return out
	}
	if body := decl.FirstChildOfKind(parser.KindBlock); body != nil {
		return body.Children
	}
	return nil
}

func classKindOf(n *parser.Node) ClassKind {
	switch n.Kind {
	case parser.KindInterfaceDecl:
		return ClassKindInterface
	case parser.KindEnumDecl:
		return ClassKindEnum
	case parser.KindRecordDecl:
		return ClassKindRecord
	case parser.KindAnnotationDecl:
		return ClassKindAnnotation
	}
	return ClassKindClass
}

func (u *SourceUnit) declare(node *parser.Node, outer *ClassModel) {
	id := DeclName(node)
	if id == nil {
		return
	}
	m := &ClassModel{
		SimpleName: id.Token.Literal,
		Package:    u.Package,
		Kind:       classKindOf(node),
		Visibility: VisibilityPackage,
		Javadoc:    u.jf.FindForNode(node),
		Decl:       node,
	}
	if outer == nil {
		m.Name = qualify(u.Package, m.SimpleName)
		m.BinaryName = classfile.SourceToInternalName(m.Name)
	} else {
		m.Name = outer.Name + "." + m.SimpleName
		m.BinaryName = outer.BinaryName + "$" + m.SimpleName
		m.Outer = outer.Name
	}
	if mods := node.FirstChildOfKind(parser.KindModifiers); mods != nil {
		applyModifiersToClass(mods, m)
	}
	switch m.Kind {
	case ClassKindInterface, ClassKindAnnotation:
		m.IsAbstract = true
		m.IsStatic = outer != nil
	case ClassKindEnum:
		m.IsStatic = outer != nil
		m.IsFinal = !enumHasConstantBodies(node)
	case ClassKindRecord:
		m.IsStatic = outer != nil
		m.IsFinal = true
	}
	if outer != nil && outer.IsInterface() {
		m.IsStatic = true
		if m.Visibility == VisibilityPackage {
			m.Visibility = VisibilityPublic
		}
	}

	u.Classes = append(u.Classes, m)
	u.local.Add(m)

	for _, member := range BodyMembers(node) {
		if !IsTypeDecl(member) {
			continue
		}
		before := len(u.Classes)
		u.declare(member, m)
		if len(u.Classes) == before {
			continue
		}
		inner := u.Classes[before]
		m.InnerClasses = append(m.InnerClasses, InnerClassModel{
			InnerClass: inner.Name,
			OuterClass: m.Name,
			InnerName:  inner.SimpleName,
			Visibility: inner.Visibility,
			IsStatic:   inner.IsStatic,
			IsFinal:    inner.IsFinal,
			IsAbstract: inner.IsAbstract,
		})
	}
}

func enumHasConstantBodies(decl *parser.Node) bool {
	for _, c := range decl.ChildrenOfKind(parser.KindFieldDecl) {
		if isEnumConstant(c) && c.FirstChildOfKind(parser.KindBlock) != nil {
			return true
		}
	}
	return false
}

// Complete resolves supertypes and members of every declared class
// against the unit itself and idx. Unresolvable type names are recorded
// in Unresolved.
func (u *SourceUnit) Complete(idx ClassIndex) {
	u.Unresolved = nil
	index := Chain{u.local}
	if idx != nil {
		index = append(index, idx)
	}
	u.base = NewResolver(u.Package, u.Imports, index)

	for _, imp := range u.Imports {
		if imp.Wildcard {
			continue
		}
		name := imp.Name
		if imp.Static {
			name, _ = splitClassName(imp.Name)
		}
		if index.LookupClass(name) == nil {
			u.Unresolved = append(u.Unresolved, Reference{Name: name, Node: imp.Node})
		}
	}

	for _, m := range u.Classes {
		u.complete(m)
	}
}

// Resolver returns the resolver for the body of m, or for the unit's top
// level when m is nil.
func (u *SourceUnit) Resolver(m *ClassModel) *Resolver {
	if u.base == nil {
		u.base = NewResolver(u.Package, u.Imports, u.local)
	}
	if m == nil {
		return u.base
	}
	return u.enclosing(m).In(m.Name).WithTypeVariables(m.TypeParameters)
}

func (u *SourceUnit) enclosing(m *ClassModel) *Resolver {
	if m.Outer == "" {
		return u.Resolver(nil)
	}
	outer := u.local.LookupClass(m.Outer)
	if outer == nil {
		return u.Resolver(nil)
	}
	return u.Resolver(outer)
}

func (u *SourceUnit) report(ref Reference) {
	u.Unresolved = append(u.Unresolved, ref)
}

func (u *SourceUnit) complete(m *ClassModel) {
	decl := m.Decl
	if tp := decl.FirstChildOfKind(parser.KindTypeParameters); tp != nil {
		m.TypeParameters = u.typeParameters(tp, u.enclosing(m).In(m.Name))
	}
	r := u.Resolver(m)

	m.SuperClass, m.Interfaces, m.PermittedSubclasses, m.RecordComponents = "", nil, nil, nil
	m.Fields, m.Methods, m.EnumConstants, m.Initializers, m.Annotations = nil, nil, nil, nil, nil

	for _, c := range decl.Children {
		switch c.Kind {
		case parser.KindModifiers:
			m.Annotations = u.annotations(c, r)
			if hasAnnotation(m.Annotations, "java.lang.Deprecated") {
				m.IsDeprecated = true
			}
		case parser.KindExtendsClause:
			for _, t := range c.Children {
				tm := TypeOf(t, r, &u.Unresolved)
				if m.Kind == ClassKindInterface || m.SuperClass != "" {
					m.Interfaces = append(m.Interfaces, tm.Erasure())
				} else {
					m.SuperClass = tm.Erasure()
				}
			}
		case parser.KindImplementsClause:
			for _, t := range c.Children {
				m.Interfaces = append(m.Interfaces, TypeOf(t, r, &u.Unresolved).Erasure())
			}
		case parser.KindPermitsClause:
			for _, t := range c.Children {
				m.PermittedSubclasses = append(m.PermittedSubclasses, TypeOf(t, r, &u.Unresolved).Erasure())
			}
		case parser.KindParameters:
			if m.Kind == ClassKindRecord {
				for _, p := range c.ChildrenOfKind(parser.KindParameter) {
					pm := u.parameter(p, r)
					m.RecordComponents = append(m.RecordComponents, RecordComponentModel{
						Name:        pm.Name,
						Type:        pm.Type,
						Annotations: pm.Annotations,
					})
				}
			}
		}
	}

	switch m.Kind {
	case ClassKindClass:
		if m.SuperClass == "" && m.Name != "java.lang.Object" {
			m.SuperClass = "java.lang.Object"
		}
	case ClassKindEnum:
		m.SuperClass = "java.lang.Enum"
	case ClassKindRecord:
		m.SuperClass = "java.lang.Record"
	case ClassKindAnnotation:
		m.Interfaces = append(m.Interfaces, "java.lang.annotation.Annotation")
	}

	for _, member := range BodyMembers(decl) {
		switch member.Kind {
		case parser.KindFieldDecl:
			if isEnumConstant(member) {
				u.enumConstant(m, member, r)
				continue
			}
			m.Fields = append(m.Fields, u.fields(m, member, r)...)
		case parser.KindMethodDecl:
			m.Methods = append(m.Methods, u.method(m, member, r))
		case parser.KindConstructorDecl:
			m.Methods = append(m.Methods, u.constructor(m, member, r))
		case parser.KindBlock:
			m.Initializers = append(m.Initializers, initializerFromBlock(member))
		}
	}

	addImplicitMembers(m)
}

// LocalClass builds the model of a local class declaration, or of the
// anonymous class of a new expression with a class body, declared inside
// outer. The model is not added to the unit and leaves Unresolved alone.
func (u *SourceUnit) LocalClass(decl *parser.Node, outer *ClassModel) *ClassModel {
	saved := u.Unresolved
	defer func() { u.Unresolved = saved }()

	m := &ClassModel{
		Package:    u.Package,
		Kind:       classKindOf(decl),
		Visibility: VisibilityPackage,
		Decl:       decl,
	}
	anonymous := decl.Kind == parser.KindNewExpr
	if !anonymous {
		id := DeclName(decl)
		if id == nil {
			return nil
		}
		m.SimpleName = id.Token.Literal
		if mods := decl.FirstChildOfKind(parser.KindModifiers); mods != nil {
			applyModifiersToClass(mods, m)
		}
	}
	if outer != nil {
		m.Outer = outer.Name
		m.Name = outer.Name + "." + m.SimpleName
		m.BinaryName = outer.BinaryName + "$" + m.SimpleName
	} else {
		m.Name = qualify(u.Package, m.SimpleName)
		m.BinaryName = m.Name
	}
	u.complete(m)

	if anonymous {
		qn := decl.FirstChildOfKind(parser.KindQualifiedName)
		if qn == nil {
			return m
		}
		var r *Resolver
		if outer != nil {
			r = u.Resolver(outer)
		} else {
			r = u.Resolver(nil)
		}
		super, ok := r.Resolve(QualifiedName(qn))
		if !ok {
			return m
		}
		if sm := r.lookup(super); sm != nil && sm.IsInterface() {
			m.Interfaces = []string{super}
		} else {
			m.SuperClass = super
		}
	}
	return m
}

func initializerFromBlock(block *parser.Node) InitializerModel {
	if len(block.Children) == 2 {
		first := block.Children[0]
		if first.Kind == parser.KindIdentifier && first.Token != nil && first.Token.Kind == parser.TokenStatic &&
			block.Children[1].Kind == parser.KindBlock {
			return InitializerModel{IsStatic: true, Body: block.Children[1]}
		}
	}
	return InitializerModel{Body: block}
}

func packageFromCompilationUnit(cu *parser.Node) string {
	pkgDecl := cu.FirstChildOfKind(parser.KindPackageDecl)
	if pkgDecl == nil {
		return ""
	}
	qn := pkgDecl.FirstChildOfKind(parser.KindQualifiedName)
	if qn == nil {
		return ""
	}
	return QualifiedName(qn)
}

// QualifiedName joins the identifiers of a qualified name node.
func QualifiedName(qn *parser.Node) string {
	var parts []string
	for _, child := range qn.Children {
		if child.Kind == parser.KindIdentifier && child.Token != nil {
			parts = append(parts, child.Token.Literal)
		}
	}
	return strings.Join(parts, ".")
}

func importsFromCompilationUnit(cu *parser.Node) []Import {
	var imports []Import
	for _, child := range cu.ChildrenOfKind(parser.KindImportDecl) {
		imp := Import{Node: child}
		for _, ic := range child.Children {
			switch {
			case ic.Kind == parser.KindIdentifier && ic.Token != nil:
				if ic.Token.Literal == "static" {
					imp.Static = true
				} else if ic.Token.Literal == "*" {
					imp.Wildcard = true
				}
			case ic.Kind == parser.KindQualifiedName:
				imp.Name = QualifiedName(ic)
			}
		}
		if imp.Name != "" {
			imports = append(imports, imp)
		}
	}
	return imports
}

func applyModifiersToClass(modifiers *parser.Node, model *ClassModel) {
	for _, child := range modifiers.Children {
		if child.Token == nil {
			continue
		}
		switch child.Token.Literal {
		case "public":
			model.Visibility = VisibilityPublic
		case "protected":
			model.Visibility = VisibilityProtected
		case "private":
			model.Visibility = VisibilityPrivate
		case "abstract":
			model.IsAbstract = true
		case "static":
			model.IsStatic = true
		case "final":
			model.IsFinal = true
		case "sealed":
			model.IsSealed = true
		}
	}
}

func (u *SourceUnit) annotations(modifiers *parser.Node, r *Resolver) []AnnotationModel {
	var out []AnnotationModel
	for _, c := range modifiers.ChildrenOfKind(parser.KindAnnotation) {
		out = append(out, u.annotation(c, r))
	}
	return out
}

func (u *SourceUnit) typeParameters(node *parser.Node, r *Resolver) []TypeParameterModel {
	var params []TypeParameterModel
	for _, child := range node.ChildrenOfKind(parser.KindTypeParameter) {
		if id := child.FirstChildOfKind(parser.KindIdentifier); id != nil && id.Token != nil {
			params = append(params, TypeParameterModel{Name: id.Token.Literal})
		}
	}
	// bounds may mention any of the parameters
	scoped := r.WithTypeVariables(params)
	for i, child := range node.ChildrenOfKind(parser.KindTypeParameter) {
		if i >= len(params) {
			break
		}
		for _, b := range child.Children {
			if b.Kind == parser.KindType || b.Kind == parser.KindArrayType {
				params[i].Bounds = append(params[i].Bounds, TypeOf(b, scoped, &u.Unresolved))
			}
		}
	}
	return params
}

// TypeOf builds the type model for a type node, resolving class names
// with r. Names that cannot be resolved are appended to unresolved and
// kept as written.
func TypeOf(n *parser.Node, r *Resolver, unresolved *[]Reference) TypeModel {
	if n == nil {
		return TypeModel{Name: "java.lang.Object"}
	}
	switch n.Kind {
	case parser.KindArrayType:
		for i := len(n.Children) - 1; i >= 0; i-- {
			c := n.Children[i]
			if c.Kind == parser.KindType || c.Kind == parser.KindArrayType {
				t := TypeOf(c, r, unresolved)
				t.ArrayDepth++
				return t
			}
		}
	case parser.KindType:
		if n.Token != nil {
			return TypeModel{Name: n.Token.Literal}
		}
		var written []string
		var args []TypeArgumentModel
		for _, c := range n.Children {
			switch c.Kind {
			case parser.KindIdentifier:
				if c.Token != nil {
					return TypeModel{Name: c.Token.Literal}
				}
			case parser.KindQualifiedName:
				written = append(written, QualifiedName(c))
			case parser.KindTypeArguments:
				args = typeArguments(c, r, unresolved)
			case parser.KindType, parser.KindArrayType:
				// union and intersection types erase to their first member
				return TypeOf(c, r, unresolved)
			}
		}
		if len(written) == 0 {
			break
		}
		name := strings.Join(written, ".")
		if bound, ok := r.TypeVariable(name); ok {
			return TypeModel{Name: name, Variable: true, Bound: bound}
		}
		full, ok := r.Resolve(name)
		if !ok && unresolved != nil {
			*unresolved = append(*unresolved, Reference{Name: name, Node: n})
		}
		return TypeModel{Name: full, TypeArguments: args}
	}
	return TypeModel{Name: "java.lang.Object"}
}

func typeArguments(node *parser.Node, r *Resolver, unresolved *[]Reference) []TypeArgumentModel {
	var args []TypeArgumentModel
	for _, child := range node.Children {
		switch child.Kind {
		case parser.KindType, parser.KindArrayType:
			tm := TypeOf(child, r, unresolved)
			args = append(args, TypeArgumentModel{Type: &tm})
		case parser.KindWildcard:
			arg := TypeArgumentModel{IsWildcard: true}
			for _, wc := range child.Children {
				if wc.Kind == parser.KindIdentifier && wc.Token != nil {
					arg.BoundKind = wc.Token.Literal
				}
				if wc.Kind == parser.KindType || wc.Kind == parser.KindArrayType {
					tm := TypeOf(wc, r, unresolved)
					arg.Bound = &tm
				}
			}
			args = append(args, arg)
		}
	}
	return args
}

// Declarator is one variable introduced by a field, local variable or
// resource declaration.
type Declarator struct {
	Name *parser.Node
	Init *parser.Node
}

func Declarators(decl *parser.Node) []Declarator {
	var out []Declarator
	for _, c := range decl.Children {
		if c.IsDeclaratorName() {
			out = append(out, Declarator{Name: c})
			continue
		}
		switch c.Kind {
		case parser.KindModifiers, parser.KindType, parser.KindArrayType:
			continue
		}
		if n := len(out); n > 0 && out[n-1].Init == nil {
			out[n-1].Init = c
		}
	}
	return out
}

// DeclaredType returns the type node of a field or variable declaration.
func DeclaredType(decl *parser.Node) *parser.Node {
	for _, c := range decl.Children {
		if c.Kind == parser.KindType || c.Kind == parser.KindArrayType {
			return c
		}
	}
	return nil
}

func (u *SourceUnit) fields(owner *ClassModel, node *parser.Node, r *Resolver) []FieldModel {
	base := FieldModel{
		Visibility: VisibilityPackage,
		Javadoc:    u.jf.FindForNode(node),
		Decl:       node,
	}
	if modifiers := node.FirstChildOfKind(parser.KindModifiers); modifiers != nil {
		applyModifiersToField(modifiers, &base)
		base.Annotations = u.annotations(modifiers, r)
		base.IsDeprecated = hasAnnotation(base.Annotations, "java.lang.Deprecated")
	}
	if owner.IsInterface() {
		base.Visibility = VisibilityPublic
		base.IsStatic = true
		base.IsFinal = true
	}
	base.Type = TypeOf(DeclaredType(node), r, &u.Unresolved)

	var fields []FieldModel
	for _, d := range Declarators(node) {
		if d.Name.Token == nil {
			continue
		}
		field := base
		field.Name = d.Name.Token.Literal
		field.NameNode = d.Name
		field.Init = d.Init
		if field.IsFinal && d.Init != nil {
			if v, _, ok := ConstantOf(d.Init); ok {
				if cv, ok := ConvertConstant(v, field.Type.Name); ok && field.Type.ArrayDepth == 0 {
					field.ConstantValue = cv
				}
			}
		}
		fields = append(fields, field)
	}
	return fields
}

func applyModifiersToField(modifiers *parser.Node, field *FieldModel) {
	for _, child := range modifiers.Children {
		if child.Token == nil {
			continue
		}
		switch child.Token.Literal {
		case "public":
			field.Visibility = VisibilityPublic
		case "protected":
			field.Visibility = VisibilityProtected
		case "private":
			field.Visibility = VisibilityPrivate
		case "static":
			field.IsStatic = true
		case "final":
			field.IsFinal = true
		case "volatile":
			field.IsVolatile = true
		case "transient":
			field.IsTransient = true
		}
	}
}

func (u *SourceUnit) enumConstant(owner *ClassModel, node *parser.Node, r *Resolver) {
	ec := enumConstantFromFieldDecl(node)
	if ec.Name == "" {
		return
	}
	owner.EnumConstants = append(owner.EnumConstants, ec)
	field := FieldModel{
		Name:       ec.Name,
		Type:       TypeModel{Name: owner.Name},
		Visibility: VisibilityPublic,
		IsStatic:   true,
		IsFinal:    true,
		IsEnum:     true,
		Javadoc:    u.jf.FindForNode(node),
		Decl:       node,
		NameNode:   DeclName(node),
	}
	for _, a := range node.ChildrenOfKind(parser.KindAnnotation) {
		field.Annotations = append(field.Annotations, u.annotation(a, r))
	}
	owner.Fields = append(owner.Fields, field)
}

func (u *SourceUnit) method(owner *ClassModel, node *parser.Node, r *Resolver) MethodModel {
	model := MethodModel{
		Visibility: VisibilityPackage,
		Javadoc:    u.jf.FindForNode(node),
		Decl:       node,
	}
	if tp := node.FirstChildOfKind(parser.KindTypeParameters); tp != nil {
		model.TypeParameters = u.typeParameters(tp, r)
		r = r.WithTypeVariables(model.TypeParameters)
	}
	if modifiers := node.FirstChildOfKind(parser.KindModifiers); modifiers != nil {
		applyModifiersToMethod(modifiers, &model)
		model.Annotations = u.annotations(modifiers, r)
		model.IsDeprecated = hasAnnotation(model.Annotations, "java.lang.Deprecated")
	}

	for _, child := range node.Children {
		switch child.Kind {
		case parser.KindType, parser.KindArrayType:
			model.ReturnType = TypeOf(child, r, &u.Unresolved)
		case parser.KindIdentifier:
			if child.Token != nil && model.Name == "" {
				model.Name = child.Token.Literal
			}
		case parser.KindParameters:
			model.Parameters, model.IsVarargs = u.parameters(child, r)
		case parser.KindThrowsList:
			model.Exceptions = u.exceptions(child, r)
		case parser.KindBlock:
			model.Body = child
		}
	}

	if owner.IsInterface() {
		if model.Visibility != VisibilityPrivate {
			model.Visibility = VisibilityPublic
		}
		if model.Body == nil && !model.IsStatic && !model.IsDefault && model.Visibility != VisibilityPrivate {
			model.IsAbstract = true
		}
	}
	return model
}

func (u *SourceUnit) constructor(owner *ClassModel, node *parser.Node, r *Resolver) MethodModel {
	model := MethodModel{
		Name:       "<init>",
		Visibility: VisibilityPackage,
		ReturnType: TypeModel{Name: "void"},
		Javadoc:    u.jf.FindForNode(node),
		Decl:       node,
	}
	if tp := node.FirstChildOfKind(parser.KindTypeParameters); tp != nil {
		model.TypeParameters = u.typeParameters(tp, r)
		r = r.WithTypeVariables(model.TypeParameters)
	}
	if modifiers := node.FirstChildOfKind(parser.KindModifiers); modifiers != nil {
		applyModifiersToMethod(modifiers, &model)
		model.Annotations = u.annotations(modifiers, r)
	}
	compact := false
	for _, child := range node.Children {
		switch child.Kind {
		case parser.KindParameters:
			model.Parameters, model.IsVarargs = u.parameters(child, r)
			compact = owner.Kind == ClassKindRecord && len(child.Children) == 0 &&
				child.Span.End.Offset <= child.Span.Start.Offset
		case parser.KindThrowsList:
			model.Exceptions = u.exceptions(child, r)
		case parser.KindBlock:
			model.Body = child
		}
	}
	if compact {
		for _, rc := range owner.RecordComponents {
			model.Parameters = append(model.Parameters, ParameterModel{Name: rc.Name, Type: rc.Type})
		}
	}
	if owner.Kind == ClassKindEnum {
		model.Visibility = VisibilityPrivate
	}
	return model
}

func applyModifiersToMethod(modifiers *parser.Node, method *MethodModel) {
	for _, child := range modifiers.Children {
		if child.Token == nil {
			continue
		}
		switch child.Token.Literal {
		case "public":
			method.Visibility = VisibilityPublic
		case "protected":
			method.Visibility = VisibilityProtected
		case "private":
			method.Visibility = VisibilityPrivate
		case "static":
			method.IsStatic = true
		case "final":
			method.IsFinal = true
		case "abstract":
			method.IsAbstract = true
		case "synchronized":
			method.IsSynchronized = true
		case "native":
			method.IsNative = true
		case "default":
			method.IsDefault = true
		}
	}
}

func (u *SourceUnit) parameters(node *parser.Node, r *Resolver) ([]ParameterModel, bool) {
	var params []ParameterModel
	varargs := false
	for _, child := range node.ChildrenOfKind(parser.KindParameter) {
		p := u.parameter(child, r)
		if isVarargsParameter(child) {
			varargs = true
		}
		params = append(params, p)
	}
	return params, varargs
}

func isVarargsParameter(node *parser.Node) bool {
	for _, c := range node.Children {
		if c.Kind == parser.KindIdentifier && c.Token != nil && c.Token.Kind == parser.TokenEllipsis {
			return true
		}
	}
	return false
}

// ParameterName returns the name node of a parameter declaration.
func ParameterName(node *parser.Node) *parser.Node {
	var name *parser.Node
	for _, c := range node.Children {
		if c.Kind == parser.KindIdentifier && c.Token != nil && c.Token.Kind != parser.TokenEllipsis {
			name = c
		}
	}
	return name
}

func (u *SourceUnit) parameter(node *parser.Node, r *Resolver) ParameterModel {
	param := ParameterModel{Decl: node}
	if modifiers := node.FirstChildOfKind(parser.KindModifiers); modifiers != nil {
		for _, child := range modifiers.Children {
			if child.Token != nil && child.Token.Literal == "final" {
				param.IsFinal = true
			}
		}
		param.Annotations = u.annotations(modifiers, r)
	}
	param.Type = TypeOf(DeclaredType(node), r, &u.Unresolved)
	if isVarargsParameter(node) {
		param.Type.ArrayDepth++
	}
	if id := ParameterName(node); id != nil {
		param.Name = id.Token.Literal
	}
	return param
}

func (u *SourceUnit) exceptions(node *parser.Node, r *Resolver) []string {
	var exceptions []string
	for _, child := range node.Children {
		exceptions = append(exceptions, TypeOf(child, r, &u.Unresolved).Erasure())
	}
	return exceptions
}

func (u *SourceUnit) annotation(node *parser.Node, r *Resolver) AnnotationModel {
	ann := AnnotationModel{}
	for _, child := range node.Children {
		switch child.Kind {
		case parser.KindQualifiedName:
			written := QualifiedName(child)
			full, ok := r.Resolve(written)
			if !ok {
				u.report(Reference{Name: written, Node: child})
			}
			ann.Type = full
		case parser.KindAnnotationElement:
			if ann.Values == nil {
				ann.Values = make(map[string]interface{})
			}
			name, value := annotationElementFromNode(child)
			ann.Values[name] = value
		default:
			if ann.Values == nil {
				ann.Values = make(map[string]interface{})
			}
			ann.Values["value"] = annotationValueFromNode(child)
		}
	}
	return ann
}

func annotationElementFromNode(node *parser.Node) (string, interface{}) {
	name := "value"
	var value interface{}
	for i, child := range node.Children {
		if i == 0 && child.Kind == parser.KindIdentifier && child.Token != nil {
			name = child.Token.Literal
			continue
		}
		value = annotationValueFromNode(child)
	}
	return name, value
}

func annotationValueFromNode(node *parser.Node) interface{} {
	if v, _, ok := ConstantOf(node); ok {
		return v
	}
	switch node.Kind {
	case parser.KindIdentifier:
		return node.TokenLiteral()
	case parser.KindArrayInit:
		var values []interface{}
		for _, child := range node.Children {
			values = append(values, annotationValueFromNode(child))
		}
		return values
	case parser.KindFieldAccess:
		var parts []string
		for _, child := range node.Children {
			if lit := child.TokenLiteral(); lit != "" {
				parts = append(parts, lit)
			}
		}
		return strings.Join(parts, ".")
	}
	return nil
}

// isEnumConstant reports whether a field declaration node declares an
// enum constant; those carry no type.
func isEnumConstant(node *parser.Node) bool {
	if node.Kind != parser.KindFieldDecl {
		return false
	}
	return DeclaredType(node) == nil
}

func enumConstantFromFieldDecl(node *parser.Node) EnumConstantModel {
	ec := EnumConstantModel{Decl: node}
	for _, child := range node.Children {
		switch child.Kind {
		case parser.KindIdentifier:
			if child.Token != nil && ec.Name == "" {
				ec.Name = child.Token.Literal
			}
		case parser.KindParameters:
			ec.Arguments = argumentsFromParametersNode(child)
		}
	}
	return ec
}

func argumentsFromParametersNode(node *parser.Node) []string {
	var args []string
	for _, child := range node.Children {
		if arg := argumentToString(child); arg != "" {
			args = append(args, arg)
		}
	}
	return args
}

func argumentToString(node *parser.Node) string {
	if node.Token != nil {
		return node.Token.Literal
	}
	var parts []string
	for _, child := range node.Children {
		if s := argumentToString(child); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ".")
}

// addImplicitMembers supplies the members the language declares without
// source: default constructors, enum values/valueOf and the fields,
// accessors and canonical constructor of records.
func addImplicitMembers(m *ClassModel) {
	hasCtor := len(m.Constructors()) > 0
	switch m.Kind {
	case ClassKindClass:
		if !hasCtor {
			vis := m.Visibility
			m.Methods = append(m.Methods, MethodModel{
				Name:       "<init>",
				ReturnType: TypeModel{Name: "void"},
				Visibility: vis,
				Implicit:   true,
			})
		}
	case ClassKindEnum:
		if !hasCtor {
			m.Methods = append(m.Methods, MethodModel{
				Name:       "<init>",
				ReturnType: TypeModel{Name: "void"},
				Visibility: VisibilityPrivate,
				Implicit:   true,
			})
		}
		m.Methods = append(m.Methods,
			MethodModel{
				Name:       "values",
				ReturnType: TypeModel{Name: m.Name, ArrayDepth: 1},
				Visibility: VisibilityPublic,
				IsStatic:   true,
				Implicit:   true,
			},
			MethodModel{
				Name:       "valueOf",
				ReturnType: TypeModel{Name: m.Name},
				Parameters: []ParameterModel{{Name: "name", Type: TypeModel{Name: "java.lang.String"}}},
				Visibility: VisibilityPublic,
				IsStatic:   true,
				Implicit:   true,
			},
		)
	case ClassKindRecord:
		var fields []FieldModel
		for _, rc := range m.RecordComponents {
			fields = append(fields, FieldModel{
				Name:       rc.Name,
				Type:       rc.Type,
				Visibility: VisibilityPrivate,
				IsFinal:    true,
			})
			if !hasMethod(m, rc.Name, 0) {
				m.Methods = append(m.Methods, MethodModel{
					Name:       rc.Name,
					ReturnType: rc.Type,
					Visibility: VisibilityPublic,
					Implicit:   true,
				})
			}
		}
		m.Fields = append(fields, m.Fields...)
		canonical := false
		for _, c := range m.Constructors() {
			if len(c.Parameters) == len(m.RecordComponents) {
				canonical = true
			}
		}
		if !canonical {
			ctor := MethodModel{
				Name:       "<init>",
				ReturnType: TypeModel{Name: "void"},
				Visibility: VisibilityPublic,
				Implicit:   true,
			}
			for _, rc := range m.RecordComponents {
				ctor.Parameters = append(ctor.Parameters, ParameterModel{Name: rc.Name, Type: rc.Type})
			}
			m.Methods = append(m.Methods, ctor)
		}
	}
}

func hasMethod(m *ClassModel, name string, arity int) bool {
	for _, mm := range m.MethodsNamed(name) {
		if len(mm.Parameters) == arity {
			return true
		}
	}
	return false
}

// ClassModelsFromSource parses source and returns models for every type
// it declares, resolved against the declarations in the same source.
func ClassModelsFromSource(source []byte, opts ...parser.Option) ([]*ClassModel, error) {
	opts = append(opts, parser.WithComments())
	p := parser.ParseCompilationUnit(bytes.NewReader(source), opts...)
	node := p.Finish()
	if node == nil {
		return nil, nil
	}
	u := Declare(node, p.Comments())
	u.Complete(nil)
	return u.Classes, nil
}
