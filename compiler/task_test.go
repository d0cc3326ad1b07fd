package compiler

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dhamidi/dew/artifact"
	"github.com/dhamidi/dew/classfile"
	"github.com/dhamidi/dew/env"
	"github.com/dhamidi/dew/phase"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTask(t *testing.T, source string) *Task {
	t.Helper()
	e := env.New(env.WithClasspath())
	u, err := e.CreateUnit("<h1>page</h1>", source)
	require.NoError(t, err)
	return NewTask(u)
}

func errorsOf(t *testing.T, source string) []Diagnostic {
	t.Helper()
	errs, err := newTask(t, source).Errors(context.Background())
	require.NoError(t, err)
	return errs
}

func messages(diags []Diagnostic) []string {
	var out []string
	for _, d := range diags {
		out = append(out, d.Message)
	}
	return out
}

func parseClass(t *testing.T, c Class) *classfile.ClassFile {
	t.Helper()
	cf, err := classfile.Parse(bytes.NewReader(c.Bytes))
	require.NoError(t, err)
	return cf
}

func methodCode(t *testing.T, cf *classfile.ClassFile, name string) []byte {
	t.Helper()
	m := cf.GetMethod(name, "")
	require.NotNil(t, m, "method %s", name)
	code := m.GetCodeAttribute(cf.ConstantPool)
	require.NotNil(t, code)
	return code.Code
}

func TestCompileThrowingMain(t *testing.T) {
	task := newTask(t, `package x.y.z;
class X {
    public static void main(String... args) {
        throw new RuntimeException("Hello brwsr!");
    }
}
`)
	ctx := context.Background()
	errs, err := task.Errors(ctx)
	require.NoError(t, err)
	assert.Empty(t, errs)

	classes, err := task.Classes(ctx)
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "x/y/z/X.class", classes[0].Name)
	assert.True(t, task.IsMainClass(classes[0].Name))
	assert.Equal(t, []byte{0xca, 0xfe, 0xba, 0xbe}, classes[0].Bytes[:4])

	cf := parseClass(t, classes[0])
	assert.Equal(t, uint16(classfile.DefaultMajorVersion), cf.MajorVersion)
	code := methodCode(t, cf, "main")
	// new, dup, ldc, invokespecial, athrow
	require.Len(t, code, 10)
	assert.Equal(t, byte(classfile.OpNew), code[0])
	assert.Equal(t, byte(classfile.OpLdc), code[4])
	assert.Equal(t, byte(classfile.OpAthrow), code[9])

	published := task.Unit().Env().Artifacts(artifact.Class)
	assert.Equal(t, classes[0].Bytes, published["x/y/z/X.class"])
	sources := task.Unit().Env().Artifacts(artifact.GeneratedSource)
	assert.Equal(t, task.Text(), string(sources["x/y/z/X.java"]))
	assert.Equal(t, "<h1>page</h1>", string(sources["x/y/z/index.html"]))
}

func TestCompilePublishesPage(t *testing.T) {
	e := env.New(env.WithClasspath())
	u, err := e.CreateUnit(`<button onclick="run('${fqn}')">Run</button>`, "package a.b;\nclass Main {}\n")
	require.NoError(t, err)
	task := NewTask(u)

	assert.Empty(t, e.Artifacts(artifact.GeneratedSource))
	_, err = task.Classes(context.Background())
	require.NoError(t, err)

	pages := e.Artifacts(artifact.GeneratedSource)
	assert.Equal(t, `<button onclick="run('a.b.Main')">Run</button>`, string(pages["a/b/index.html"]))
	assert.Contains(t, pages, "a/b/Main.java")
}

func TestCompilePrintAndReturn(t *testing.T) {
	task := newTask(t, `package p;
public class Hello {
    public static void main(String[] args) {
        System.out.println("hi");
    }
    int answer() {
        return 42;
    }
    String name() { return null; }
    int busy() {
        int x = 1;
        return x;
    }
}
`)
	classes, err := task.Classes(context.Background())
	require.NoError(t, err)
	require.Len(t, classes, 1)
	cf := parseClass(t, classes[0])

	main := methodCode(t, cf, "main")
	require.Len(t, main, 9)
	assert.Equal(t, byte(classfile.OpGetstatic), main[0])
	assert.Equal(t, byte(classfile.OpInvokevirtual), main[5])
	assert.Equal(t, byte(classfile.OpReturn), main[8])

	assert.Equal(t, []byte{byte(classfile.OpBipush), 42, byte(classfile.OpIreturn)}, methodCode(t, cf, "answer"))
	assert.Equal(t, []byte{byte(classfile.OpAconstNull), byte(classfile.OpAreturn)}, methodCode(t, cf, "name"))

	// bodies outside the supported forms throw UnsupportedOperationException
	busy := methodCode(t, cf, "busy")
	assert.Equal(t, byte(classfile.OpNew), busy[0])
	assert.Equal(t, byte(classfile.OpAthrow), busy[len(busy)-1])
}

func TestSyntaxErrorYieldsNoClasses(t *testing.T) {
	task := newTask(t, `package x;
class X {
    void f() {
        int i = 1
    }
}
`)
	ctx := context.Background()
	errs, err := task.Errors(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, errs)
	assert.Equal(t, Error, errs[0].Kind)
	assert.Equal(t, 4, errs[0].Line)
	assert.Contains(t, errs[0].Message, "';' expected")

	classes, err := task.Classes(ctx)
	require.NoError(t, err)
	assert.Empty(t, classes)
	assert.Empty(t, task.Unit().Env().Artifacts(artifact.Class))
}

func TestNestedClassesMainFirst(t *testing.T) {
	task := newTask(t, `package p;
public class Outer {
    class A {}
    static class B {
        class C {}
    }
    interface I {}
    enum E { ONE, TWO }
}
`)
	classes, err := task.Classes(context.Background())
	require.NoError(t, err)
	var names []string
	for _, c := range classes {
		names = append(names, c.Name)
	}
	require.Len(t, names, 6)
	assert.Equal(t, "p/Outer.class", names[0])
	assert.ElementsMatch(t, []string{
		"p/Outer.class",
		"p/Outer$A.class",
		"p/Outer$B.class",
		"p/Outer$B$C.class",
		"p/Outer$I.class",
		"p/Outer$E.class",
	}, names)
}

func TestDuplicateClass(t *testing.T) {
	errs := errorsOf(t, `package p;
class X {}
class X {}
`)
	require.Len(t, errs, 1)
	assert.Equal(t, "duplicate class: p.X", errs[0].Message)
	assert.Equal(t, 3, errs[0].Line)
}

func TestPublicClassInWrongFile(t *testing.T) {
	errs := errorsOf(t, `package p;
class First {}
public class Second {}
`)
	require.Len(t, errs, 1)
	assert.Equal(t, "class Second is public, should be declared in a file named Second.java", errs[0].Message)
}

func TestCannotFindSymbolSuggests(t *testing.T) {
	errs := errorsOf(t, `package p;
class X {
    Strin name;
}
`)
	require.Len(t, errs, 1)
	msg := errs[0].Message
	assert.True(t, strings.HasPrefix(msg, "cannot find symbol"), msg)
	assert.Contains(t, msg, "symbol:   class Strin")
	assert.Contains(t, msg, "location: class p.X")
	assert.Contains(t, msg, "did you mean: String")
	assert.Equal(t, 3, errs[0].Line)
}

func TestUnknownTypeInMethodBody(t *testing.T) {
	errs := errorsOf(t, `package p;
import java.util.*;
class X {
    <T> void f(Object o) {
        Lisst<String> names = null;
        T item = null;
        class Local {}
        Local l = new Local();
        Object s = new Sttring();
        List<String> ok = new ArrayList<>();
    }
}
`)
	msgs := messages(errs)
	require.Len(t, msgs, 2, "%v", msgs)
	assert.Contains(t, msgs[0], "class Lisst")
	assert.Contains(t, msgs[1], "class Sttring")
	assert.Equal(t, 5, errs[0].Line)
	assert.Equal(t, 9, errs[1].Line)
}

func TestUnknownImport(t *testing.T) {
	errs := errorsOf(t, `package p;
import java.util.Lisst;
import com.nowhere.Thing;
class X {}
`)
	msgs := messages(errs)
	require.Len(t, msgs, 2, "%v", msgs)
	assert.Contains(t, msgs[0], "symbol:   class Lisst")
	assert.Contains(t, msgs[0], "location: package java.util")
	assert.Contains(t, msgs[0], "did you mean: List")
	assert.Equal(t, "package com.nowhere does not exist", msgs[1])
}

func TestReachability(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"missing return", `int f() { }`, []string{"missing return statement"}},
		{"return in both branches", `int f(boolean b) { if (b) return 1; else return 2; }`, nil},
		{"return in one branch", `int f(boolean b) { if (b) return 1; }`, []string{"missing return statement"}},
		{"infinite loop", `int f() { while (true) { } }`, nil},
		{"loop with break", `int f() { while (true) { break; } }`, []string{"missing return statement"}},
		{"labeled break from inner loop", `int f() { out: for (;;) { for (;;) { break out; } } }`, []string{"missing return statement"}},
		{"inner break stays inside", `int f() { for (;;) { while (true) { break; } } }`, nil},
		{"throw", `int f() { throw new IllegalStateException(); }`, nil},
		{"statement after return", `void f() { return; int x = 1; }`, []string{"unreachable statement"}},
		{"statement after loop", `void f() { while (true) { } f(); }`, []string{"unreachable statement"}},
		{"switch with default", `int f(int i) { switch (i) { case 1: return 1; default: return 0; } }`, nil},
		{"switch without default", `int f(int i) { switch (i) { case 1: return 1; } }`, []string{"missing return statement"}},
		{"arrow switch", `int f(int i) { switch (i) { case 1 -> { return 1; } default -> throw new RuntimeException(); } }`, nil},
		{"try finally", `int f() { try { return 1; } finally { } }`, nil},
		{"catch completes", `int f() { try { return 1; } catch (RuntimeException e) { } }`, []string{"missing return statement"}},
		{"do while", `int f() { do { return 1; } while (true); }`, nil},
		{"void falls off", `void f() { int x = 1; }`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := errorsOf(t, "package p;\nclass X {\n    "+tt.body+"\n}\n")
			assert.Equal(t, tt.want, messages(errs))
		})
	}
}

func TestMissingReturnPosition(t *testing.T) {
	errs := errorsOf(t, `package p;
class X {
    int f() {
        int x = 1;
    }
}
`)
	require.Len(t, errs, 1)
	assert.Equal(t, "missing return statement", errs[0].Message)
	assert.Equal(t, 5, errs[0].Line)
	assert.Equal(t, 5, errs[0].Col)
}

func TestResultsAreComputedOnce(t *testing.T) {
	task := newTask(t, `package p;
class X {}
`)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := task.Errors(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, task.Machine().Runs(phase.Parsed))

	first, err := task.Classes(ctx)
	require.NoError(t, err)
	second, err := task.Classes(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, task.Machine().Runs(phase.Generated))
}

func TestCancelledContext(t *testing.T) {
	task := newTask(t, "package p;\nclass X {}\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := task.Errors(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, phase.Modified, task.Phase())

	errs, err := task.Errors(context.Background())
	require.NoError(t, err)
	assert.Empty(t, errs)
}
