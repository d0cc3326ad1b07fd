package java

import (
	"sort"
	"strings"

	"github.com/dhamidi/dew/java/parser"
)

// ClassIndex finds classes by dotted name (x.y.Outer.Inner).
type ClassIndex interface {
	LookupClass(name string) *ClassModel
}

// PackageLister is implemented by indexes that can enumerate their
// contents. Completion uses it to offer type and package names.
type PackageLister interface {
	ClassesInPackage(pkg string) []*ClassModel
	Packages() []string
}

// Classes is an index over a fixed set of models.
type Classes map[string]*ClassModel

func (c Classes) LookupClass(name string) *ClassModel {
	return c[name]
}

// Add registers models that are not already present.
func (c Classes) Add(models ...*ClassModel) {
	for _, m := range models {
		if _, ok := c[m.Name]; !ok {
			c[m.Name] = m
		}
	}
}

func (c Classes) ClassesInPackage(pkg string) []*ClassModel {
	var out []*ClassModel
	for _, m := range c {
		if m.Package == pkg && m.Outer == "" {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (c Classes) Packages() []string {
	seen := map[string]bool{}
	for _, m := range c {
		seen[m.Package] = true
	}
	return sortedKeys(seen)
}

// Chain consults each index in order.
type Chain []ClassIndex

func (c Chain) LookupClass(name string) *ClassModel {
	for _, idx := range c {
		if idx == nil {
			continue
		}
		if m := idx.LookupClass(name); m != nil {
			return m
		}
	}
	return nil
}

func (c Chain) ClassesInPackage(pkg string) []*ClassModel {
	seen := map[string]bool{}
	var out []*ClassModel
	for _, idx := range c {
		l, ok := idx.(PackageLister)
		if !ok {
			continue
		}
		for _, m := range l.ClassesInPackage(pkg) {
			if !seen[m.Name] {
				seen[m.Name] = true
				out = append(out, m)
			}
		}
	}
	return out
}

func (c Chain) Packages() []string {
	seen := map[string]bool{}
	for _, idx := range c {
		if l, ok := idx.(PackageLister); ok {
			for _, p := range l.Packages() {
				seen[p] = true
			}
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type Import struct {
	Name     string
	Static   bool
	Wildcard bool
	Node     *parser.Node
}

// SimpleName is the last segment of a single-type import.
func (i Import) SimpleName() string {
	return extractSimpleName(i.Name)
}

// Resolver turns type names as written into dotted class names, following
// the lookup order of the language: type variables, member types of the
// enclosing classes, single-type imports, the current package, on-demand
// imports and finally java.lang.
type Resolver struct {
	Package string
	Imports []Import
	Index   ClassIndex

	// Class is the dotted name of the class whose body is being resolved.
	Class string

	vars   map[string]string
	parent *Resolver
}

func NewResolver(pkg string, imports []Import, idx ClassIndex) *Resolver {
	return &Resolver{Package: pkg, Imports: imports, Index: idx}
}

// In returns a resolver for the body of class.
func (r *Resolver) In(class string) *Resolver {
	return &Resolver{Package: r.Package, Imports: r.Imports, Index: r.Index, Class: class, parent: r}
}

// WithTypeVariables returns a resolver that knows params as type
// variables. Bounds are erased to their first bound.
func (r *Resolver) WithTypeVariables(params []TypeParameterModel) *Resolver {
	if len(params) == 0 {
		return r
	}
	child := &Resolver{Package: r.Package, Imports: r.Imports, Index: r.Index, Class: r.Class, parent: r, vars: map[string]string{}}
	for _, p := range params {
		bound := "java.lang.Object"
		if len(p.Bounds) > 0 {
			bound = p.Bounds[0].Erasure()
		}
		child.vars[p.Name] = bound
	}
	return child
}

// TypeVariable reports the erased bound of a type variable in scope.
func (r *Resolver) TypeVariable(name string) (string, bool) {
	for s := r; s != nil; s = s.parent {
		if b, ok := s.vars[name]; ok {
			return b, true
		}
	}
	return "", false
}

func (r *Resolver) lookup(name string) *ClassModel {
	if r.Index == nil {
		return nil
	}
	return r.Index.LookupClass(name)
}

// Resolve returns the dotted class name for name and whether it could be
// found. Primitive names and void resolve to themselves.
func (r *Resolver) Resolve(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	if IsPrimitive(name) || name == "void" || name == "var" {
		return name, true
	}
	if strings.Contains(name, ".") {
		return r.resolveQualified(name)
	}
	if b, ok := r.TypeVariable(name); ok {
		return b, true
	}
	if full, ok := r.memberType(name); ok {
		return full, true
	}
	for _, imp := range r.Imports {
		if !imp.Wildcard && !imp.Static && imp.SimpleName() == name {
			return imp.Name, true
		}
	}
	if full := qualify(r.Package, name); r.lookup(full) != nil {
		return full, true
	}
	for _, imp := range r.Imports {
		if imp.Wildcard && !imp.Static {
			if full := imp.Name + "." + name; r.lookup(full) != nil {
				return full, true
			}
		}
	}
	// static member type imports
	for _, imp := range r.Imports {
		if imp.Static && (imp.Wildcard || imp.SimpleName() == name) {
			owner := imp.Name
			if !imp.Wildcard {
				owner, _ = splitClassName(imp.Name)
			}
			if full := owner + "." + name; r.lookup(full) != nil {
				return full, true
			}
		}
	}
	if full := "java.lang." + name; r.lookup(full) != nil {
		return full, true
	}
	return name, false
}

func (r *Resolver) resolveQualified(name string) (string, bool) {
	if r.lookup(name) != nil {
		return name, true
	}
	dot := strings.Index(name, ".")
	head, rest := name[:dot], name[dot+1:]
	if full, ok := r.Resolve(head); ok && !IsPrimitive(full) {
		candidate := full + "." + rest
		if r.lookup(candidate) != nil {
			return candidate, true
		}
	}
	return name, false
}

// memberType looks name up as a member type of the current class, its
// supertypes and its enclosing classes.
func (r *Resolver) memberType(name string) (string, bool) {
	class := ""
	for s := r; s != nil; s = s.parent {
		if s.Class != "" {
			class = s.Class
			break
		}
	}
	for class != "" {
		if full, ok := r.inheritedMember(class, name, map[string]bool{}); ok {
			return full, true
		}
		m := r.lookup(class)
		if m == nil {
			break
		}
		class = m.Outer
	}
	return "", false
}

func (r *Resolver) inheritedMember(class, name string, seen map[string]bool) (string, bool) {
	if class == "" || seen[class] {
		return "", false
	}
	seen[class] = true
	if full := class + "." + name; r.lookup(full) != nil {
		return full, true
	}
	m := r.lookup(class)
	if m == nil {
		return "", false
	}
	if full, ok := r.inheritedMember(m.SuperClass, name, seen); ok {
		return full, true
	}
	for _, iface := range m.Interfaces {
		if full, ok := r.inheritedMember(iface, name, seen); ok {
			return full, true
		}
	}
	return "", false
}

func qualify(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}
