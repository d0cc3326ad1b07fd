package compiler

import (
	"fmt"
	"sort"

	"github.com/dhamidi/dew/java/parser"
)

type Kind string

const (
	Error   Kind = "ERROR"
	Warning Kind = "WARNING"
	Note    Kind = "NOTE"
)

// Diagnostic is one message about the unit's source. Line and Col are
// 1-based; Offset is the byte offset of the same position.
type Diagnostic struct {
	Kind    Kind
	Line    int
	Col     int
	Offset  int
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s: %s", d.Line, d.Col, d.Kind, d.Message)
}

// listener collects the diagnostics of one analysis pass.
type listener struct {
	diags []Diagnostic
}

func (l *listener) report(kind Kind, at parser.Position, format string, args ...interface{}) {
	line, col := at.Line, at.Column
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	l.diags = append(l.diags, Diagnostic{
		Kind:    kind,
		Line:    line,
		Col:     col,
		Offset:  at.Offset,
		Message: fmt.Sprintf(format, args...),
	})
}

func (l *listener) errorAt(n *parser.Node, format string, args ...interface{}) {
	l.report(Error, n.Span.Start, format, args...)
}

func (l *listener) has(kind Kind) bool {
	for _, d := range l.diags {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

// sorted returns the diagnostics in source order.
func (l *listener) sorted() []Diagnostic {
	out := append([]Diagnostic(nil), l.diags...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Col < out[j].Col
	})
	return out
}

// Errors filters diags down to errors.
func Errors(diags []Diagnostic) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if d.Kind == Error {
			out = append(out, d)
		}
	}
	return out
}
