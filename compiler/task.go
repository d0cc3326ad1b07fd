// Package compiler analyzes and compiles a single source unit. A Task
// implements the steps a phase.Machine drives: Parse builds the syntax
// tree, Enter declares the unit's classes and resolves their signatures,
// Attribute checks method bodies, and Generate emits class files into the
// unit's environment.
package compiler

import (
	"context"
	"errors"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/dew/env"
	"github.com/dhamidi/dew/java"
	"github.com/dhamidi/dew/java/parser"
	"github.com/dhamidi/dew/phase"
)

var log = commonlog.GetLogger("dew.compiler")

// Class is one generated class file.
type Class struct {
	// Name is the artifact path, e.g. x/y/z/X$Inner.class.
	Name  string
	Bytes []byte
}

// Task is not safe for concurrent use.
type Task struct {
	unit    *env.Unit
	machine *phase.Machine

	listener *listener
	parser   *parser.Parser
	tree     *parser.Node
	source   *java.SourceUnit
	index    java.ClassIndex

	generated []Class
	errors    []Diagnostic
	classes   []Class
	checked   bool
	compiled  bool
}

func NewTask(u *env.Unit) *Task {
	t := &Task{unit: u, listener: &listener{}}
	t.machine = phase.New(t)
	return t
}

func (t *Task) Unit() *env.Unit {
	return t.unit
}

// Text is the source text the task was created for.
func (t *Task) Text() string {
	return t.unit.Source
}

func (t *Task) Machine() *phase.Machine {
	return t.machine
}

func (t *Task) Phase() phase.Phase {
	return t.machine.Phase()
}

func (t *Task) Advance(ctx context.Context, p phase.Phase) (phase.Phase, error) {
	return t.machine.Advance(ctx, p)
}

// Tree is the syntax tree, available from Parsed on.
func (t *Task) Tree() *parser.Node {
	return t.tree
}

// Tokens are the significant tokens of the source, available from Parsed
// on.
func (t *Task) Tokens() []parser.Token {
	if t.parser == nil {
		return nil
	}
	return t.parser.Tokens()
}

func (t *Task) Comments() []parser.Token {
	if t.parser == nil {
		return nil
	}
	return t.parser.Comments()
}

// Source holds the declared classes, available from ElementsResolved on.
func (t *Task) Source() *java.SourceUnit {
	return t.source
}

// Index resolves class names: the unit's own classes, then the platform
// and the classpath. It is available from ElementsResolved on.
func (t *Task) Index() java.ClassIndex {
	if t.source != nil {
		return t.source.Index()
	}
	return t.index
}

// Diagnostics reported since the last reset, in source order.
func (t *Task) Diagnostics() []Diagnostic {
	return t.listener.sorted()
}

// Errors analyzes the unit up to Resolved and returns its errors. The
// result is computed once per task.
func (t *Task) Errors(ctx context.Context) ([]Diagnostic, error) {
	if t.checked {
		return t.errors, nil
	}
	if _, err := t.Advance(ctx, phase.Resolved); err != nil {
		return nil, err
	}
	t.errors = Errors(t.Diagnostics())
	t.checked = true
	return t.errors, nil
}

// Classes compiles the unit and returns the generated classes, the
// unit's main class first. A unit with errors yields no classes. The
// result is computed once per task.
func (t *Task) Classes(ctx context.Context) ([]Class, error) {
	if t.compiled {
		return t.classes, nil
	}
	t.generated = nil
	if _, err := t.Advance(ctx, phase.Generated); err != nil {
		return nil, err
	}
	t.classes = t.generated
	t.compiled = true
	return t.classes, nil
}

// IsMainClass reports whether the artifact path name holds the unit's
// primary type.
func (t *Task) IsMainClass(name string) bool {
	return name == t.unit.MainPath()
}

func (t *Task) Reset() {
	t.listener = &listener{}
	t.parser = nil
	t.tree = nil
	t.source = nil
	t.index = nil
}

func (t *Task) Parse(ctx context.Context) error {
	p := parser.ParseCompilationUnit(strings.NewReader(t.unit.Source),
		parser.WithFile(t.unit.SourcePath()), parser.WithComments())
	tree := p.Tree()
	if tree == nil {
		return errors.New("parser returned no tree")
	}
	for _, d := range p.Diagnostics() {
		t.listener.report(Error, d.Span.Start, "%s", d.Message)
	}
	t.parser = p
	t.tree = tree
	log.Debug("parsed", "unit", t.unit.MainClass(), "fingerprint", t.unit.Fingerprint, "errors", len(p.Diagnostics()))
	return nil
}

func (t *Task) Enter(ctx context.Context) error {
	idx, err := t.unit.Env().Index(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		var fetchErr *env.ArchiveFetchError
		if errors.As(err, &fetchErr) {
			t.listener.report(Warning, parser.Position{Line: 1, Column: 1}, "cannot read classpath entry %s: %v", fetchErr.Coordinates, fetchErr.Err)
		} else {
			t.listener.report(Warning, parser.Position{Line: 1, Column: 1}, "%v", err)
		}
	}
	t.index = idx
	t.source = java.Declare(t.tree, t.parser.Comments())
	t.source.Complete(idx)
	newEnter(t).run()
	return nil
}

func (t *Task) Attribute(ctx context.Context) error {
	newAttr(t).run()
	return nil
}

func (t *Task) Generate(ctx context.Context) error {
	if t.listener.has(Error) {
		log.Debug("not generating, unit has errors", "unit", t.unit.MainClass())
		return nil
	}
	classes, err := newGen(t).run()
	if err != nil {
		return err
	}
	t.generated = classes
	log.Info("compiled", "unit", t.unit.MainClass(), "classes", len(classes))
	return nil
}
