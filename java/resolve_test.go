package java

import (
	"testing"
)

func class(name, outer string, supers ...string) *ClassModel {
	pkg, simple := splitClassName(name)
	m := &ClassModel{Name: name, SimpleName: simple, Outer: outer, Kind: ClassKindClass}
	if outer != "" {
		pkg, _ = splitClassName(outer)
	}
	m.Package = pkg
	if len(supers) > 0 {
		m.SuperClass = supers[0]
		m.Interfaces = supers[1:]
	}
	return m
}

func TestResolver(t *testing.T) {
	idx := Classes{}
	idx.Add(
		class("java.lang.Object", ""),
		class("java.lang.String", ""),
		class("java.util.List", ""),
		class("java.util.Map", ""),
		class("java.util.Map.Entry", "java.util.Map"),
		class("org.eclipse.jetty.client.Authentication", ""),
		class("org.eclipse.jetty.client.Authentication.HeaderInfo", "org.eclipse.jetty.client.Authentication"),
		class("org.eclipse.jetty.client.Base", ""),
		class("org.eclipse.jetty.client.Base.Token", "org.eclipse.jetty.client.Base"),
		class("org.eclipse.jetty.client.Consumer", "", "org.eclipse.jetty.client.Base"),
		class("org.other.String", ""),
		class("org.other.Util", ""),
	)
	imports := []Import{
		{Name: "java.util.List"},
		{Name: "org.other", Wildcard: true},
		{Name: "java.util.Map.Entry", Static: true},
	}
	top := NewResolver("org.eclipse.jetty.client", imports, idx)

	tests := []struct {
		name     string
		resolver *Resolver
		input    string
		want     string
		ok       bool
	}{
		{"primitive", top, "int", "int", true},
		{"void", top, "void", "void", true},
		{"single-type import", top, "List", "java.util.List", true},
		{"same package", top, "Authentication", "org.eclipse.jetty.client.Authentication", true},
		{"package shadows on-demand import", top, "Consumer", "org.eclipse.jetty.client.Consumer", true},
		{"on-demand import", top, "Util", "org.other.Util", true},
		{"static member type import", top, "Entry", "java.util.Map.Entry", true},
		{"fully qualified", top, "java.util.Map", "java.util.Map", true},
		{"qualified through simple name", top, "Authentication.HeaderInfo", "org.eclipse.jetty.client.Authentication.HeaderInfo", true},
		{"member type in scope", top.In("org.eclipse.jetty.client.Authentication"), "HeaderInfo", "org.eclipse.jetty.client.Authentication.HeaderInfo", true},
		{"member type not in scope", top, "HeaderInfo", "HeaderInfo", false},
		{"inherited member type", top.In("org.eclipse.jetty.client.Consumer"), "Token", "org.eclipse.jetty.client.Base.Token", true},
		{"unknown", top, "Nope", "Nope", false},
		{"java.lang fallback", NewResolver("", nil, idx), "Object", "java.lang.Object", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.resolver.Resolve(tt.input)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Resolve(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestResolverTypeVariables(t *testing.T) {
	idx := Classes{}
	idx.Add(class("java.lang.Object", ""), class("java.lang.Number", ""))
	r := NewResolver("", nil, idx).WithTypeVariables([]TypeParameterModel{
		{Name: "T"},
		{Name: "N", Bounds: []TypeModel{{Name: "java.lang.Number"}}},
	})

	if b, ok := r.TypeVariable("T"); !ok || b != "java.lang.Object" {
		t.Errorf("T = (%q, %v)", b, ok)
	}
	if got, ok := r.Resolve("N"); !ok || got != "java.lang.Number" {
		t.Errorf("Resolve(N) = (%q, %v)", got, ok)
	}
	if _, ok := r.In("X").TypeVariable("T"); !ok {
		t.Error("type variables must be visible in nested scopes")
	}
}

func TestChainLookup(t *testing.T) {
	first := Classes{}
	first.Add(&ClassModel{Name: "a.A", Package: "a", SimpleName: "A", Kind: ClassKindEnum})
	second := Classes{}
	second.Add(
		&ClassModel{Name: "a.A", Package: "a", SimpleName: "A"},
		&ClassModel{Name: "a.B", Package: "a", SimpleName: "B"},
		&ClassModel{Name: "b.C", Package: "b", SimpleName: "C"},
	)
	chain := Chain{first, nil, second}

	if got := chain.LookupClass("a.A"); got == nil || got.Kind != ClassKindEnum {
		t.Errorf("earlier index must win, got %+v", got)
	}
	if got := chain.ClassesInPackage("a"); len(got) != 2 {
		t.Errorf("ClassesInPackage(a) = %d classes, want 2", len(got))
	}
	if got := chain.Packages(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Packages() = %v", got)
	}
}
