package java

import (
	"strings"
	"testing"

	"github.com/dhamidi/dew/java/parser"
)

func TestLiteralValue(t *testing.T) {
	tests := []struct {
		kind    parser.TokenKind
		literal string
		value   interface{}
		typ     string
		wantErr bool
	}{
		{parser.TokenIntLiteral, "42", int32(42), "int", false},
		{parser.TokenIntLiteral, "1_000", int32(1000), "int", false},
		{parser.TokenIntLiteral, "0x7fffffff", int32(2147483647), "int", false},
		{parser.TokenIntLiteral, "0xffffffff", int32(-1), "int", false},
		{parser.TokenIntLiteral, "0b101", int32(5), "int", false},
		{parser.TokenIntLiteral, "017", int32(15), "int", false},
		{parser.TokenIntLiteral, "10L", int64(10), "long", false},
		{parser.TokenIntLiteral, "3000000000", nil, "int", true},
		{parser.TokenFloatLiteral, "1.5f", float32(1.5), "float", false},
		{parser.TokenFloatLiteral, "2.25", 2.25, "double", false},
		{parser.TokenFloatLiteral, "1e3d", 1000.0, "double", false},
		{parser.TokenCharLiteral, `'a'`, int32('a'), "char", false},
		{parser.TokenCharLiteral, `'\n'`, int32('\n'), "char", false},
		{parser.TokenCharLiteral, `'A'`, int32('A'), "char", false},
		{parser.TokenStringLiteral, `"hi\tthere"`, "hi\tthere", "java.lang.String", false},
		{parser.TokenStringLiteral, `"\101"`, "A", "java.lang.String", false},
		{parser.TokenTrue, "true", true, "boolean", false},
		{parser.TokenNull, "null", nil, "null", false},
	}
	for _, tt := range tests {
		t.Run(tt.literal, func(t *testing.T) {
			v, typ, err := LiteralValue(&parser.Token{Kind: tt.kind, Literal: tt.literal})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if v != tt.value || typ != tt.typ {
				t.Errorf("got (%#v, %s), want (%#v, %s)", v, typ, tt.value, tt.typ)
			}
		})
	}
}

func TestTextBlock(t *testing.T) {
	lit := "\"\"\"\n    Hello,\n      World\n    \"\"\""
	v, typ, err := LiteralValue(&parser.Token{Kind: parser.TokenTextBlock, Literal: lit})
	if err != nil {
		t.Fatal(err)
	}
	if typ != "java.lang.String" || v != "Hello,\n  World\n" {
		t.Errorf("got %q (%s)", v, typ)
	}
}

func TestConvertConstant(t *testing.T) {
	tests := []struct {
		in   interface{}
		typ  string
		want interface{}
		ok   bool
	}{
		{int32(100), "byte", int32(100), true},
		{int32(300), "byte", nil, false},
		{int32(-1), "char", nil, false},
		{int32(65), "char", int32(65), true},
		{int32(7), "long", int64(7), true},
		{int32(7), "double", 7.0, true},
		{int64(7), "int", nil, false},
		{1.5, "float", nil, false},
		{float32(1.5), "double", 1.5, true},
		{"s", "java.lang.String", "s", true},
		{true, "boolean", true, true},
	}
	for _, tt := range tests {
		got, ok := ConvertConstant(tt.in, tt.typ)
		if ok != tt.ok {
			t.Errorf("ConvertConstant(%#v, %s) ok = %v, want %v", tt.in, tt.typ, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("ConvertConstant(%#v, %s) = %#v, want %#v", tt.in, tt.typ, got, tt.want)
		}
	}
}

func TestConstantOf(t *testing.T) {
	tests := []struct {
		expr string
		want interface{}
		ok   bool
	}{
		{"-2147483648", int32(-2147483648), true},
		{"-(5)", int32(-5), true},
		{"~0L", int64(-1), true},
		{"!true", false, true},
		{"'a'", int32('a'), true},
		{"null", nil, false},
		{"a + 1", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p := parser.ParseCompilationUnit(strings.NewReader("class A { Object x = " + tt.expr + "; }"))
			u := Declare(p.Finish(), nil)
			init := Declarators(BodyMembers(u.Classes[0].Decl)[0])[0].Init
			got, _, ok := ConstantOf(init)
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("ConstantOf(%s) = (%#v, %v), want (%#v, %v)", tt.expr, got, ok, tt.want, tt.ok)
			}
		})
	}
}
