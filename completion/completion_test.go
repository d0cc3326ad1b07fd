package completion

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dhamidi/dew/compiler"
	"github.com/dhamidi/dew/env"
	"github.com/dhamidi/dew/phase"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// cursor marks the completion offset in test sources.
const cursor = "¦"

func newTask(t *testing.T, source string) (*compiler.Task, int) {
	t.Helper()
	offset := strings.Index(source, cursor)
	require.GreaterOrEqual(t, offset, 0, "source has no cursor")
	source = strings.Replace(source, cursor, "", 1)
	u, err := env.New(env.WithClasspath()).CreateUnit("<h1>page</h1>", source)
	require.NoError(t, err)
	return compiler.NewTask(u), offset
}

func complete(t *testing.T, source string) []string {
	t.Helper()
	task, offset := newTask(t, source)
	items, err := Complete(context.Background(), task, offset)
	require.NoError(t, err)
	return Texts(items)
}

func TestCompleteMemberSelect(t *testing.T) {
	got := complete(t, `package p;
class A {
    void m() {
        System.out.pr¦
    }
}`)
	assert.Subset(t, got, []string{"print", "printf", "println"})
	assert.NotContains(t, got, "write")
}

func TestCompleteOneItemPerText(t *testing.T) {
	task, offset := newTask(t, `package p;
class A {
    void m() {
        System.out.println¦
    }
}`)
	items, err := Complete(context.Background(), task, offset)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "println", items[0].Text)
	assert.Equal(t, KindMethod, items[0].Kind)
	assert.Equal(t, "java.io.PrintStream", items[0].ClassName)
}

func TestCompleteLocalsBeforeCursor(t *testing.T) {
	got := complete(t, `package p;
class A {
    int field;
    void m(int param) {
        int before = 1;
        int x = ¦;
        int after = 2;
    }
}`)
	assert.Subset(t, got, []string{"before", "param", "field", "m"})
	assert.NotContains(t, got, "x")
	assert.NotContains(t, got, "after")
}

func TestCompleteFieldForwardReference(t *testing.T) {
	got := complete(t, `package p;
class A {
    int early = 1;
    int a = ¦;
    int b;
}`)
	assert.Contains(t, got, "early")
	assert.NotContains(t, got, "a")
	assert.NotContains(t, got, "b")
}

func TestCompleteStaticContext(t *testing.T) {
	got := complete(t, `package p;
class A {
    int inst;
    static int stat;
    static void m() {
        int y = ¦;
    }
}`)
	assert.Contains(t, got, "stat")
	assert.NotContains(t, got, "inst")
	assert.NotContains(t, got, "this")
}

func TestCompleteCamelCase(t *testing.T) {
	got := complete(t, `package p;
class A {
    void m() {
        int aBigCat = 1;
        int another = 2;
        int x = aBC¦;
    }
}`)
	assert.Contains(t, got, "aBigCat")
	assert.NotContains(t, got, "another")
}

func TestCompleteEnhancedForVariable(t *testing.T) {
	got := complete(t, `package p;
import java.util.List;
class A {
    void m(List<String> names) {
        for (String n : names) {
            n.len¦
        }
    }
}`)
	assert.Contains(t, got, "length")
}

func TestCompleteInferredLocal(t *testing.T) {
	got := complete(t, `package p;
class A {
    void m() {
        var sb = new StringBuilder();
        sb.app¦
    }
}`)
	assert.Equal(t, []string{"append"}, got)
}

func TestCompletePrivateMembersOfOtherClass(t *testing.T) {
	got := complete(t, `package p;
class A {
    void m(B b) {
        b.¦
    }
}
class B {
    private int secret;
    int visible;
}`)
	assert.Contains(t, got, "visible")
	assert.NotContains(t, got, "secret")
}

func TestCompleteEnumSwitchLabels(t *testing.T) {
	got := complete(t, `package p;
class A {
    enum Color { RED, GREEN, BLUE }
    void m(Color c) {
        switch (c) {
            case RED: break;
            case ¦:
        }
    }
}`)
	assert.Equal(t, []string{"BLUE", "GREEN"}, got)
}

func TestCompleteEnumCaseWithoutColon(t *testing.T) {
	got := complete(t, `package p;
class A {
    enum Color { RED, GREEN }
    void m(Color c) {
        switch (c) {
            case ¦
        }
    }
}`)
	assert.Equal(t, []string{"GREEN", "RED"}, got)

	got = complete(t, `package p;
class A {
    enum Color { RED, GREEN, BLUE }
    void m(Color c) {
        switch (c) {
            case RED, ¦
        }
    }
}`)
	assert.Equal(t, []string{"BLUE", "GREEN"}, got)
}

func TestCompleteOperand(t *testing.T) {
	got := complete(t, `package p;
class A {
    void m(int q, int r) {
        int y = q * ¦;
    }
}`)
	assert.Subset(t, got, []string{"q", "r"})
	assert.NotContains(t, got, "class")
}

func TestCompleteTopLevelKeywords(t *testing.T) {
	got := complete(t, `package p;
cla¦
class B {}`)
	assert.Contains(t, got, "class")
	assert.NotContains(t, got, "package")
}

func TestCompleteImport(t *testing.T) {
	got := complete(t, `package p;
import java.ut¦;
class A {}`)
	assert.Equal(t, []string{"util"}, got)

	got = complete(t, `package p;
import java.util.ArrayL¦;
class A {}`)
	assert.Contains(t, got, "ArrayList")
}

func TestCompleteBooleanKeywordsFollowExpectedType(t *testing.T) {
	got := complete(t, `package p;
class A {
    void m() {
        if (¦) {}
    }
}`)
	assert.Subset(t, got, []string{"true", "false", "this"})

	got = complete(t, `package p;
class A {
    void m() {
        int x = ¦;
    }
}`)
	assert.NotContains(t, got, "true")
	assert.NotContains(t, got, "false")
}

func TestCompleteInCommentOrString(t *testing.T) {
	assert.Empty(t, complete(t, `package p;
class A {
    // hel¦
}`))
	assert.Empty(t, complete(t, `package p;
class A {
    String s = "ab¦";
}`))
}

func TestSmartTypes(t *testing.T) {
	cases := []struct {
		name, source string
		want         []string
	}{
		{"if condition", `package p;
class A { void m() { if (¦) {} } }`, []string{"boolean"}},
		{"while condition", `package p;
class A { void m() { while (¦) {} } }`, []string{"boolean"}},
		{"ternary condition", `package p;
class A { void m(boolean flag) { int r = fl¦ ? 1 : 2; } }`, []string{"boolean"}},
		{"initializer", `package p;
class A { void m() { long n = ¦; } }`, []string{"long"}},
		{"return", `package p;
class A { String m() { return ¦; } }`, []string{"java.lang.String"}},
		{"addition", `package p;
class A { void m(int q) { int y = q + ¦; } }`, numericTypes},
		{"multiplication", `package p;
class A { void m(int q) { int y = q * ¦; } }`, numericTypes},
		{"operator without blank", `package p;
class A { void m(int q) { int y = q -¦; } }`, numericTypes},
		{"less than", `package p;
class A { void m(int q) { if (q < ¦) {} } }`, numericTypes},
		{"greater than double", `package p;
class A { void m(double q) { if (q > ¦) {} } }`, numericTypes},
		{"argument", `package p;
class A { void foo(int x) {} void m(int q) { foo(q + ¦); } }`, numericTypes},
		{"string concatenation", `package p;
class A { void m(String s) { String r = s + ¦; } }`, nil},
		{"shift", `package p;
class A { void m(long q) { long y = q << ¦; } }`, integralTypes},
		{"boolean and", `package p;
class A { void m(boolean q) { boolean y = q & ¦; } }`, []string{"boolean"}},
		{"bitwise or", `package p;
class A { void m(int q) { int y = q | ¦; } }`, integralTypes},
		{"logical or", `package p;
class A { void m(int q) { boolean y = q > 0 || ¦; } }`, []string{"boolean"}},
		{"not", `package p;
class A { void m() { boolean y = !¦; } }`, []string{"boolean"}},
		{"compound assignment", `package p;
class A { void m(int q) { q += ¦; } }`, numericTypes},
		{"assignment", `package p;
class A { void m() { long q; q = ¦; } }`, []string{"long"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			task, offset := newTask(t, tc.source)
			c, err := Resolve(context.Background(), task, offset)
			require.NoError(t, err)
			assert.Equal(t, tc.want, c.SmartTypes())
		})
	}
}

func TestCompleteOffsetOutOfRange(t *testing.T) {
	task, _ := newTask(t, `package p;
class A {}¦`)
	for _, offset := range []int{-1, len(task.Text()) + 1} {
		_, err := Complete(context.Background(), task, offset)
		assert.ErrorIs(t, err, ErrOffsetOutOfRange)
	}
	_, err := Complete(context.Background(), task, len(task.Text()))
	assert.NoError(t, err)
}

func TestCompleteCancelled(t *testing.T) {
	task, offset := newTask(t, `package p;
class A {
    void m() {
        int x = ¦;
    }
}`)
	_, err := task.Advance(context.Background(), phase.Parsed)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Complete(ctx, task, offset)
	var fault *Fault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, offset, fault.Offset)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompleteLeavesTaskUsable(t *testing.T) {
	task, offset := newTask(t, `package p;
class A {
    void m() {
        System.out.pr¦
    }
}`)
	_, err := Complete(context.Background(), task, offset)
	require.NoError(t, err)

	got, err := task.Advance(context.Background(), phase.Parsed)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got, phase.Parsed)
}
