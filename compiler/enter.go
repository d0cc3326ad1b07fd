package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/dhamidi/dew/java"
	"github.com/dhamidi/dew/java/parser"
)

// minSimilarity is the Jaro-Winkler score a class name needs to be
// suggested for a misspelled one.
const minSimilarity = 0.85

type enter struct {
	t      *Task
	source *java.SourceUnit
	diags  *listener
}

func newEnter(t *Task) *enter {
	return &enter{t: t, source: t.source, diags: t.listener}
}

func (e *enter) run() {
	e.checkDuplicates()
	e.checkPublicClass()
	for _, ref := range e.source.Unresolved {
		e.reportUnresolved(ref)
	}
}

func (e *enter) checkDuplicates() {
	seen := map[string]bool{}
	for _, m := range e.source.Classes {
		if !seen[m.Name] {
			seen[m.Name] = true
			continue
		}
		at := m.Decl
		if id := java.DeclName(m.Decl); id != nil {
			at = id
		}
		if m.Outer == "" {
			e.diags.errorAt(at, "duplicate class: %s", m.Name)
		} else {
			e.diags.errorAt(at, "class %s is already defined in class %s", m.SimpleName, m.Outer)
		}
	}
}

func (e *enter) checkPublicClass() {
	for _, m := range e.source.Classes {
		if m.Outer != "" || m.Visibility != java.VisibilityPublic || m.SimpleName == e.t.unit.Class {
			continue
		}
		at := m.Decl
		if id := java.DeclName(m.Decl); id != nil {
			at = id
		}
		e.diags.errorAt(at, "%s %s is public, should be declared in a file named %s.java", m.Kind, m.SimpleName, m.SimpleName)
	}
}

func (e *enter) reportUnresolved(ref java.Reference) {
	if ref.Node == nil {
		return
	}
	if ref.Node.Kind == parser.KindImportDecl {
		pkg, simple := splitLast(ref.Name)
		if pkg != "" && !e.packageExists(pkg) {
			e.diags.errorAt(ref.Node, "package %s does not exist", pkg)
			return
		}
		var names []string
		if lister, ok := e.source.Index().(java.PackageLister); ok {
			for _, m := range lister.ClassesInPackage(pkg) {
				names = append(names, m.SimpleName)
			}
		}
		msg := fmt.Sprintf("cannot find symbol\n  symbol:   class %s\n  location: package %s", simple, pkg)
		if s := suggest(ref.Name, names); s != "" {
			msg += "\n  did you mean: " + s
		}
		e.diags.errorAt(ref.Node, "%s", msg)
		return
	}
	r := e.source.Resolver(enclosingClass(e.source, ref.Node.Span.Start.Offset))
	reportCannotFind(e.diags, ref, r)
}

func (e *enter) packageExists(pkg string) bool {
	lister, ok := e.source.Index().(java.PackageLister)
	if !ok {
		return true
	}
	for _, p := range lister.Packages() {
		if p == pkg || strings.HasPrefix(p, pkg+".") {
			return true
		}
	}
	return false
}

// reportCannotFind reports ref in the form javac uses, with a suggestion
// when a visible class has a similar name.
func reportCannotFind(diags *listener, ref java.Reference, r *java.Resolver) {
	msg := fmt.Sprintf("cannot find symbol\n  symbol:   class %s", ref.Name)
	if r.Class != "" {
		msg += "\n  location: class " + r.Class
	}
	if s := suggest(ref.Name, visibleClassNames(r)); s != "" {
		msg += "\n  did you mean: " + s
	}
	diags.errorAt(ref.Node, "%s", msg)
}

// visibleClassNames lists simple names a resolver can reach without
// qualification.
func visibleClassNames(r *java.Resolver) []string {
	seen := map[string]bool{}
	add := func(models []*java.ClassModel) {
		for _, m := range models {
			seen[m.SimpleName] = true
		}
	}
	if lister, ok := r.Index.(java.PackageLister); ok {
		add(lister.ClassesInPackage(r.Package))
		add(lister.ClassesInPackage("java.lang"))
		for _, imp := range r.Imports {
			if imp.Wildcard && !imp.Static {
				add(lister.ClassesInPackage(imp.Name))
			}
		}
	}
	for _, imp := range r.Imports {
		if !imp.Wildcard && !imp.Static {
			seen[imp.SimpleName()] = true
		}
	}
	for class := r.Class; class != ""; {
		m := r.Index.LookupClass(class)
		if m == nil {
			break
		}
		for _, ic := range m.InnerClasses {
			if ic.OuterClass == m.Name {
				seen[ic.InnerName] = true
			}
		}
		class = m.Outer
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func suggest(name string, candidates []string) string {
	_, simple := splitLast(name)
	best, bestScore := "", float32(0)
	for _, c := range candidates {
		if c == simple {
			continue
		}
		score, err := edlib.StringsSimilarity(simple, c, edlib.JaroWinkler)
		if err != nil {
			continue
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	if bestScore < minSimilarity {
		return ""
	}
	return best
}

func splitLast(name string) (string, string) {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// enclosingClass finds the innermost declared class whose declaration
// spans offset.
func enclosingClass(source *java.SourceUnit, offset int) *java.ClassModel {
	var best *java.ClassModel
	for _, m := range source.Classes {
		d := m.Decl
		if d == nil || offset < d.Span.Start.Offset || offset >= d.Span.End.Offset {
			continue
		}
		if best == nil || d.Span.Start.Offset >= best.Decl.Span.Start.Offset {
			best = m
		}
	}
	return best
}
