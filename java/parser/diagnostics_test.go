package parser

import (
	"strings"
	"testing"
)

func TestDiagnostics(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantCol int
	}{
		{
			"missing semicolon after throw",
			`class X { void m() { throw new RuntimeException("hi") } }`,
			"';' expected",
			54,
		},
		{
			"missing closing paren",
			"class X { void m() { foo(1; } }",
			"')' expected",
			27,
		},
		{
			"illegal expression start",
			"class X { int x = ; }",
			"illegal start of expression",
			19,
		},
		{
			"dangling member select",
			"class X { void m() { a. } }",
			"<identifier> expected",
			24,
		},
		{
			"unterminated class",
			"class X { void m() {}",
			"'}' expected",
			22,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParseCompilationUnit(strings.NewReader(tt.input))
			if p.Tree() == nil {
				t.Fatal("expected a tree")
			}
			diags := p.Diagnostics()
			if len(diags) == 0 {
				t.Fatalf("expected diagnostics for %q", tt.input)
			}
			if diags[0].Message != tt.want {
				t.Errorf("message = %q, want %q", diags[0].Message, tt.want)
			}
			if diags[0].Span.Start.Line != 1 || diags[0].Span.Start.Column != tt.wantCol {
				t.Errorf("position = %d:%d, want 1:%d", diags[0].Span.Start.Line, diags[0].Span.Start.Column, tt.wantCol)
			}
		})
	}
}

func TestNoDiagnosticsForValidInput(t *testing.T) {
	inputs := []string{
		"package x.y.z; class X { static void main(String... a){ throw new RuntimeException(\"hi\"); } }",
		"class X { void m() { outer: for (;;) { break outer; } while (true) { continue; } } }",
		"class X { void m() { String with = to; int module = 1; } }",
	}
	for _, input := range inputs {
		p := ParseCompilationUnit(strings.NewReader(input))
		if p.Finish() == nil {
			t.Errorf("Finish returned nil for %q", input)
		}
		if diags := p.Diagnostics(); len(diags) != 0 {
			t.Errorf("unexpected diagnostics for %q: %v", input, diags)
		}
	}
}

func TestTreeOfIncompleteInput(t *testing.T) {
	input := "class X { void m() { if ("
	p := ParseCompilationUnit(strings.NewReader(input))
	if p.Finish() != nil {
		t.Error("Finish should reject incomplete input")
	}
	tree := p.Tree()
	if tree == nil {
		t.Fatal("Tree should return a partial tree")
	}
	if findNode(tree, KindIfStmt) == nil {
		t.Errorf("expected an IfStmt in partial tree:\n%s", tree)
	}
}

func TestSpansIncludeLeadingOperand(t *testing.T) {
	input := "class X { void m() { a.b.c(1); x = y + z; for (int i = 0; ; ) {} } }"
	tree := ParseCompilationUnit(strings.NewReader(input)).Tree()

	call := findNode(tree, KindCallExpr)
	if call == nil {
		t.Fatal("no call")
	}
	if got := input[call.Span.Start.Offset:call.Span.End.Offset]; got != "a.b.c(1)" {
		t.Errorf("call span = %q", got)
	}
	bin := findNode(tree, KindBinaryExpr)
	if got := input[bin.Span.Start.Offset:bin.Span.End.Offset]; got != "y + z" {
		t.Errorf("binary span = %q", got)
	}
	loop := findNode(tree, KindForStmt)
	if got := input[loop.Span.Start.Offset : loop.Span.Start.Offset+3]; got != "for" {
		t.Errorf("for span starts at %q", got)
	}
}

func TestDanglingMemberSelect(t *testing.T) {
	input := "class X { void m() { foo. } }"
	tree := ParseCompilationUnit(strings.NewReader(input)).Tree()
	fa := findNode(tree, KindFieldAccess)
	if fa == nil {
		t.Fatalf("expected FieldAccess in\n%s", tree)
	}
	if len(fa.Children) != 1 || fa.Children[0].TokenLiteral() != "foo" {
		t.Errorf("unexpected FieldAccess children: %s", fa)
	}
	if end := fa.Span.End.Offset; input[end-1] != '.' {
		t.Errorf("FieldAccess should end at the dot, ends at %d", end)
	}
}
