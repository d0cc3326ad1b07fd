package java

import (
	"strings"
	"testing"

	"github.com/dhamidi/dew/java/parser"
)

func TestSingleLineJavadoc(t *testing.T) {
	source := []byte(`package com.example;

/** A single-line javadoc */ public class Test {
    /** Field doc */ private String name;
    /** Method doc */ public void test() {}
}
`)

	models, err := ClassModelsFromSource(source)
	if err != nil {
		t.Fatalf("Failed to parse source: %v", err)
	}

	if len(models) != 1 {
		t.Fatalf("Expected 1 class model, got %d", len(models))
	}

	cls := models[0]

	t.Run("single-line class javadoc", func(t *testing.T) {
		if cls.Javadoc != "/** A single-line javadoc */" {
			t.Errorf("Expected class javadoc %q, got %q", "/** A single-line javadoc */", cls.Javadoc)
		}
	})

	t.Run("single-line field javadoc", func(t *testing.T) {
		if len(cls.Fields) != 1 {
			t.Fatalf("Expected 1 field, got %d", len(cls.Fields))
		}
		if cls.Fields[0].Javadoc != "/** Field doc */" {
			t.Errorf("Expected field javadoc %q, got %q", "/** Field doc */", cls.Fields[0].Javadoc)
		}
	})

	t.Run("single-line method javadoc", func(t *testing.T) {
		var method *MethodModel
		for i := range cls.Methods {
			if cls.Methods[i].Name == "test" {
				method = &cls.Methods[i]
				break
			}
		}
		if method == nil {
			t.Fatal("Expected to find test method")
		}
		if method.Javadoc != "/** Method doc */" {
			t.Errorf("Expected method javadoc %q, got %q", "/** Method doc */", method.Javadoc)
		}
	})
}

func TestJavadocExtraction(t *testing.T) {
	source := []byte(`package com.example;

/**
 * This is the class Javadoc.
 */
public class Example {
    /**
     * Field documentation.
     */
    private String name;

    /**
     * Constructor documentation.
     * @param name the name
     */
    public Example(String name) {
        this.name = name;
    }

    /**
     * Method documentation.
     * @return the name
     */
    public String getName() {
        return name;
    }

    // This is a line comment, not Javadoc
    public void setName(String name) {
        this.name = name;
    }

    /* This is a block comment, not Javadoc */
    public void noJavadoc() {
    }
}
`)

	models, err := ClassModelsFromSource(source)
	if err != nil {
		t.Fatalf("Failed to parse source: %v", err)
	}

	if len(models) != 1 {
		t.Fatalf("Expected 1 class model, got %d", len(models))
	}

	cls := models[0]

	t.Run("class javadoc", func(t *testing.T) {
		if cls.Javadoc == "" {
			t.Error("Expected class to have Javadoc")
		}
		if cls.Javadoc != "/**\n * This is the class Javadoc.\n */" {
			t.Errorf("Unexpected class Javadoc: %q", cls.Javadoc)
		}
	})

	t.Run("field javadoc", func(t *testing.T) {
		if len(cls.Fields) != 1 {
			t.Fatalf("Expected 1 field, got %d", len(cls.Fields))
		}
		field := cls.Fields[0]
		if field.Javadoc == "" {
			t.Error("Expected field to have Javadoc")
		}
		if field.Javadoc != "/**\n     * Field documentation.\n     */" {
			t.Errorf("Unexpected field Javadoc: %q", field.Javadoc)
		}
	})

	t.Run("constructor javadoc", func(t *testing.T) {
		var constructor *MethodModel
		for i := range cls.Methods {
			if cls.Methods[i].Name == "<init>" {
				constructor = &cls.Methods[i]
				break
			}
		}
		if constructor == nil {
			t.Fatal("Expected to find constructor")
		}
		if constructor.Javadoc == "" {
			t.Error("Expected constructor to have Javadoc")
		}
	})

	t.Run("method with javadoc", func(t *testing.T) {
		var method *MethodModel
		for i := range cls.Methods {
			if cls.Methods[i].Name == "getName" {
				method = &cls.Methods[i]
				break
			}
		}
		if method == nil {
			t.Fatal("Expected to find getName method")
		}
		if method.Javadoc == "" {
			t.Error("Expected getName method to have Javadoc")
		}
	})

	t.Run("method without javadoc", func(t *testing.T) {
		var method *MethodModel
		for i := range cls.Methods {
			if cls.Methods[i].Name == "setName" {
				method = &cls.Methods[i]
				break
			}
		}
		if method == nil {
			t.Fatal("Expected to find setName method")
		}
		if method.Javadoc != "" {
			t.Errorf("Expected setName method to have no Javadoc, got: %q", method.Javadoc)
		}
	})

	t.Run("method with block comment but no javadoc", func(t *testing.T) {
		var method *MethodModel
		for i := range cls.Methods {
			if cls.Methods[i].Name == "noJavadoc" {
				method = &cls.Methods[i]
				break
			}
		}
		if method == nil {
			t.Fatal("Expected to find noJavadoc method")
		}
		if method.Javadoc != "" {
			t.Errorf("Expected noJavadoc method to have no Javadoc (block comment without ** is not Javadoc), got: %q", method.Javadoc)
		}
	})
}

func completeUnit(t *testing.T, src string, idx ClassIndex) *SourceUnit {
	t.Helper()
	p := parser.ParseCompilationUnit(strings.NewReader(src), parser.WithComments())
	tree := p.Finish()
	if tree == nil {
		t.Fatal("no tree")
	}
	u := Declare(tree, p.Comments())
	u.Complete(idx)
	return u
}

func platform() Classes {
	c := Classes{}
	for _, name := range []string{"java.lang.Object", "java.lang.String", "java.lang.Enum",
		"java.lang.Record", "java.lang.Runnable", "java.lang.Deprecated", "java.lang.Override"} {
		pkg, simple := splitClassName(name)
		c.Add(&ClassModel{Name: name, Package: pkg, SimpleName: simple, BinaryName: strings.ReplaceAll(name, ".", "/")})
	}
	return c
}

func TestDeclareNames(t *testing.T) {
	u := completeUnit(t, `package x.y;
public class Outer {
    static class Nested { class Deep {} }
    interface Shape {}
    enum Color { RED }
}
class Second {}
`, platform())

	want := []struct{ name, binary, outer string }{
		{"x.y.Outer", "x/y/Outer", ""},
		{"x.y.Outer.Nested", "x/y/Outer$Nested", "x.y.Outer"},
		{"x.y.Outer.Nested.Deep", "x/y/Outer$Nested$Deep", "x.y.Outer.Nested"},
		{"x.y.Outer.Shape", "x/y/Outer$Shape", "x.y.Outer"},
		{"x.y.Outer.Color", "x/y/Outer$Color", "x.y.Outer"},
		{"x.y.Second", "x/y/Second", ""},
	}
	if len(u.Classes) != len(want) {
		t.Fatalf("got %d classes, want %d", len(u.Classes), len(want))
	}
	for i, w := range want {
		c := u.Classes[i]
		if c.Name != w.name || c.BinaryName != w.binary || c.Outer != w.outer {
			t.Errorf("class %d = (%s, %s, %s), want (%s, %s, %s)", i, c.Name, c.BinaryName, c.Outer, w.name, w.binary, w.outer)
		}
	}
	if u.Main().Name != "x.y.Outer" {
		t.Errorf("main = %s", u.Main().Name)
	}
	if !u.Classes[3].IsStatic || !u.Classes[4].IsStatic {
		t.Error("nested interface and enum must be static")
	}
	if u.Classes[2].IsStatic {
		t.Error("Deep is an inner class")
	}
	if len(u.Classes[0].InnerClasses) != 3 {
		t.Errorf("Outer lists %d member classes, want 3", len(u.Classes[0].InnerClasses))
	}
}

func TestCompleteSupertypes(t *testing.T) {
	u := completeUnit(t, `package p;
import java.util.List;
class A extends B implements Runnable { public void run() {} }
class B {}
interface I extends Runnable {}
enum E { ONE }
record R(int x) {}
`, platform())

	byName := map[string]*ClassModel{}
	for _, c := range u.Classes {
		byName[c.Name] = c
	}
	if a := byName["p.A"]; a.SuperClass != "p.B" || len(a.Interfaces) != 1 || a.Interfaces[0] != "java.lang.Runnable" {
		t.Errorf("A: super %s interfaces %v", a.SuperClass, a.Interfaces)
	}
	if b := byName["p.B"]; b.SuperClass != "java.lang.Object" {
		t.Errorf("B super = %s", b.SuperClass)
	}
	if i := byName["p.I"]; i.SuperClass != "" || len(i.Interfaces) != 1 {
		t.Errorf("I: super %q interfaces %v", i.SuperClass, i.Interfaces)
	}
	if e := byName["p.E"]; e.SuperClass != "java.lang.Enum" || !e.IsFinal {
		t.Errorf("E: super %s final %v", e.SuperClass, e.IsFinal)
	}
	if r := byName["p.R"]; r.SuperClass != "java.lang.Record" {
		t.Errorf("R super = %s", r.SuperClass)
	}

	if len(u.Unresolved) != 1 || u.Unresolved[0].Name != "java.util.List" {
		t.Errorf("unresolved = %v", u.Unresolved)
	}
}

func TestUnresolvedTypeNames(t *testing.T) {
	u := completeUnit(t, `class A {
    Missing field;
    String ok;
    void m(Other o) throws Trouble {}
}`, platform())

	var names []string
	for _, r := range u.Unresolved {
		names = append(names, r.Name)
	}
	if strings.Join(names, ",") != "Missing,Other,Trouble" {
		t.Errorf("unresolved = %v", names)
	}
	a := u.Classes[0]
	if a.Field("ok").Type.Name != "java.lang.String" {
		t.Errorf("ok type = %s", a.Field("ok").Type.Name)
	}
	if a.Field("field").Type.Name != "Missing" {
		t.Errorf("field type = %s", a.Field("field").Type.Name)
	}
}

func TestImplicitMembers(t *testing.T) {
	u := completeUnit(t, `package p;
public class C {}
enum E { A, B }
record R(int x, String s) {}
`, platform())

	c, e, r := u.Classes[0], u.Classes[1], u.Classes[2]

	ctors := c.Constructors()
	if len(ctors) != 1 || !ctors[0].Implicit || ctors[0].Visibility != VisibilityPublic {
		t.Errorf("C constructors = %+v", ctors)
	}

	if len(e.EnumConstants) != 2 || e.Field("A") == nil || !e.Field("A").IsEnum {
		t.Errorf("E constants = %+v", e.EnumConstants)
	}
	values := e.MethodsNamed("values")
	if len(values) != 1 || values[0].ReturnType.String() != "p.E[]" || !values[0].IsStatic {
		t.Errorf("values() = %+v", values)
	}
	if len(e.MethodsNamed("valueOf")) != 1 {
		t.Error("missing valueOf")
	}
	if ctor := e.Constructors(); len(ctor) != 1 || ctor[0].Visibility != VisibilityPrivate {
		t.Errorf("E constructors = %+v", ctor)
	}

	if f := r.Field("x"); f == nil || f.Visibility != VisibilityPrivate || !f.IsFinal {
		t.Errorf("R.x = %+v", f)
	}
	if acc := r.MethodsNamed("s"); len(acc) != 1 || acc[0].ReturnType.Name != "java.lang.String" {
		t.Errorf("R.s() = %+v", acc)
	}
	if ctor := r.Constructors(); len(ctor) != 1 || len(ctor[0].Parameters) != 2 {
		t.Errorf("R constructors = %+v", ctor)
	}
}

func TestCompactRecordConstructor(t *testing.T) {
	u := completeUnit(t, `record R(int x) { R { if (x < 0) throw new IllegalArgumentException(); } }`, platform())
	ctors := u.Classes[0].Constructors()
	if len(ctors) != 1 {
		t.Fatalf("got %d constructors", len(ctors))
	}
	if ctors[0].Implicit || len(ctors[0].Parameters) != 1 || ctors[0].Parameters[0].Name != "x" {
		t.Errorf("compact constructor = %+v", ctors[0])
	}
}

func TestMemberModifiers(t *testing.T) {
	u := completeUnit(t, `interface I {
    int LIMIT = 10;
    void run();
    default void walk() {}
    static I make() { return null; }
    void log(String fmt, Object... args);
}
class K {
    static final long BIG = -5L;
    static final char C = 'a';
    static final byte SMALL = 1;
    static final String S = "s" ;
    final int notStatic = (3);
    static final int NOT_CONSTANT = f();
}`, platform())

	i, k := u.Classes[0], u.Classes[1]
	limit := i.Field("LIMIT")
	if !limit.IsStatic || !limit.IsFinal || limit.Visibility != VisibilityPublic {
		t.Errorf("LIMIT = %+v", limit)
	}
	if limit.ConstantValue != int32(10) {
		t.Errorf("LIMIT constant = %#v", limit.ConstantValue)
	}
	if run := i.MethodsNamed("run")[0]; !run.IsAbstract || run.Visibility != VisibilityPublic {
		t.Errorf("run = %+v", run)
	}
	if walk := i.MethodsNamed("walk")[0]; walk.IsAbstract || !walk.IsDefault {
		t.Errorf("walk = %+v", walk)
	}
	if mk := i.MethodsNamed("make")[0]; mk.IsAbstract || !mk.IsStatic {
		t.Errorf("make = %+v", mk)
	}
	log := i.MethodsNamed("log")[0]
	if !log.IsVarargs || log.Parameters[1].Type.String() != "java.lang.Object[]" {
		t.Errorf("log = %+v", log)
	}

	tests := map[string]interface{}{
		"BIG":          int64(-5),
		"C":            int32('a'),
		"SMALL":        int32(1),
		"S":            "s",
		"notStatic":    int32(3),
		"NOT_CONSTANT": nil,
	}
	for name, want := range tests {
		if got := k.Field(name).ConstantValue; got != want {
			t.Errorf("%s constant = %#v, want %#v", name, got, want)
		}
	}
}

func TestTypeVariables(t *testing.T) {
	u := completeUnit(t, `class Box<T extends Runnable> {
    T value;
    <U> U map(T in) { return null; }
}`, platform())

	box := u.Classes[0]
	if v := box.Field("value").Type; !v.Variable || v.Erasure() != "java.lang.Runnable" {
		t.Errorf("value type = %+v", v)
	}
	m := box.MethodsNamed("map")[0]
	if !m.ReturnType.Variable || m.ReturnType.Erasure() != "java.lang.Object" {
		t.Errorf("map return = %+v", m.ReturnType)
	}
	if len(u.Unresolved) != 0 {
		t.Errorf("unresolved = %v", u.Unresolved)
	}
}

func TestDeclarators(t *testing.T) {
	p := parser.ParseCompilationUnit(strings.NewReader(`class A { int a = 1, b, c = a; }`))
	tree := p.Finish()
	field := Declare(tree, nil).Classes[0].Decl.FirstChildOfKind(parser.KindBlock).Children[0]

	ds := Declarators(field)
	if len(ds) != 3 {
		t.Fatalf("got %d declarators", len(ds))
	}
	if ds[0].Init == nil || ds[1].Init != nil || ds[2].Init == nil {
		t.Errorf("initializers: %v %v %v", ds[0].Init, ds[1].Init, ds[2].Init)
	}
	if ds[2].Init.TokenLiteral() != "a" {
		t.Errorf("c init = %q", ds[2].Init.TokenLiteral())
	}
}
