// Package parser provides an error-tolerant lexer and recursive-descent
// parser for Java source code.
//
// The parser always produces a tree. Input that ends mid-construct or
// contains syntax errors yields KindError nodes or missing children in
// the affected places, and every problem is recorded as a Diagnostic
// anchored at the position a compiler would report it: a missing token is
// reported right after the previous token, an unexpected token at its own
// start.
//
// # Entry Points
//
//	p := parser.ParseCompilationUnit(r, parser.WithFile("X.java"))
//	tree := p.Tree()          // never nil for non-empty input
//	diags := p.Diagnostics()  // syntax errors, in source order
//	root := p.Finish()        // nil when the input is incomplete
//
// ParseExpression parses a single expression instead of a compilation
// unit.
//
// # Spans
//
// Every node spans from its first to its last token. Nodes built around
// a previously parsed operand (binary expressions, calls, member selects)
// start at that operand. A member select with nothing after the dot is
// kept as a KindFieldAccess with a single child, so tools looking for the
// receiver at a cursor position find it.
//
// # Keywords
//
// The restricted identifiers of module declarations (module, requires,
// exports, to, with, ...) are keywords only in files named
// module-info.java and plain identifiers elsewhere.
//
// # Configuration
//
//	WithFile(path)     // file name recorded in positions
//	WithComments()     // collect comments, see Comments
//	WithPositions()    // include positions in String output
//	WithStartLine(n)   // first line number
//
// # Thread Safety
//
// A Parser is not safe for concurrent use. Trees are immutable once
// returned and may be shared.
package parser
