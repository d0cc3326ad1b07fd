// Package phase drives a compilation unit through parse, enter, attribute
// and generate, remembering how far the analyzer can safely go.
//
// A step that fails or panics pins a ceiling at the last phase that
// completed. Later requests for the same unit stop at that ceiling instead
// of re-running the failing step. Reset clears the ceiling.
package phase

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("dew.phase")

type Phase int

const (
	Modified Phase = iota
	Parsed
	ElementsResolved
	Resolved
	// Generated is transient: a successful generate leaves the unit
	// Modified again.
	Generated
	UpToDate
)

func (p Phase) String() string {
	switch p {
	case Modified:
		return "MODIFIED"
	case Parsed:
		return "PARSED"
	case ElementsResolved:
		return "ELEMENTS_RESOLVED"
	case Resolved:
		return "RESOLVED"
	case Generated:
		return "GENERATED"
	case UpToDate:
		return "UP_TO_DATE"
	default:
		return "UNKNOWN"
	}
}

// Steps is the analyzer a Machine drives. Each step reports diagnostics
// through its own channel; a returned error means the analyzer itself
// broke.
type Steps interface {
	Parse(ctx context.Context) error
	Enter(ctx context.Context) error
	Attribute(ctx context.Context) error
	Generate(ctx context.Context) error
	// Reset drops everything derived from the source text.
	Reset()
}

// AnalyzerFault records a step that failed or panicked.
type AnalyzerFault struct {
	// Phase is the phase the step would have reached.
	Phase Phase
	Err   error
}

func (f *AnalyzerFault) Error() string {
	return fmt.Sprintf("analyzer fault before %s: %v", f.Phase, f.Err)
}

func (f *AnalyzerFault) Unwrap() error {
	return f.Err
}

type step struct {
	from, to Phase
	run      func(Steps, context.Context) error
}

var pipeline = []step{
	{Modified, Parsed, Steps.Parse},
	{Parsed, ElementsResolved, Steps.Enter},
	{ElementsResolved, Resolved, Steps.Attribute},
}

// Machine is not safe for concurrent use; callers serialize access per
// unit.
type Machine struct {
	steps   Steps
	current Phase
	ceiling Phase
	fault   *AnalyzerFault
	runs    map[Phase]int
}

func New(steps Steps) *Machine {
	return &Machine{
		steps:   steps,
		current: Modified,
		ceiling: UpToDate,
		runs:    map[Phase]int{},
	}
}

func (m *Machine) Phase() Phase {
	return m.current
}

// Ceiling is the highest phase the machine will attempt.
func (m *Machine) Ceiling() Phase {
	return m.ceiling
}

// Fault is the fault that pinned the ceiling, if any.
func (m *Machine) Fault() *AnalyzerFault {
	return m.fault
}

// Runs counts how often the step reaching p has executed since the
// machine was created.
func (m *Machine) Runs(p Phase) int {
	return m.runs[p]
}

// Reset returns the unit to Modified and gives it a fresh chance at
// every phase.
func (m *Machine) Reset() {
	m.steps.Reset()
	m.current = Modified
	m.ceiling = UpToDate
	m.fault = nil
}

// Advance moves the unit toward target and returns the phase reached.
// Analyzer faults are absorbed: they pin the ceiling and are available
// from Fault. The error is non-nil only when ctx ends first; the phase
// then stays where the last completed step left it.
func (m *Machine) Advance(ctx context.Context, target Phase) (Phase, error) {
	if target == Generated {
		return m.generate(ctx)
	}
	if m.current >= target {
		return m.current, nil
	}
	goal := target
	if goal > m.ceiling {
		goal = m.ceiling
	}
	for _, s := range pipeline {
		if m.current >= goal {
			break
		}
		if m.current != s.from {
			continue
		}
		if err := m.run(ctx, s.to, s.run); err != nil {
			return m.current, err
		}
		if m.current != s.to {
			break
		}
	}
	if target == UpToDate && m.current == Resolved && m.ceiling == UpToDate {
		m.current = UpToDate
	}
	return m.current, nil
}

func (m *Machine) generate(ctx context.Context) (Phase, error) {
	if m.ceiling < Generated {
		if _, err := m.Advance(ctx, m.ceiling); err != nil {
			return m.current, err
		}
		return m.current, nil
	}
	if m.current != Resolved && m.current != UpToDate {
		if _, err := m.Advance(ctx, Resolved); err != nil {
			return m.current, err
		}
		if m.current != Resolved {
			return m.current, nil
		}
	}
	if err := m.run(ctx, Generated, Steps.Generate); err != nil {
		return m.current, err
	}
	if m.current != Generated {
		return m.current, nil
	}
	m.steps.Reset()
	m.current = Modified
	return Generated, nil
}

func (m *Machine) run(ctx context.Context, to Phase, fn func(Steps, context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.runs[to]++
	err := m.protect(ctx, fn)
	if err == nil {
		m.current = to
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	m.fault = &AnalyzerFault{Phase: to, Err: err}
	m.ceiling = m.current
	log.Warning("analyzer fault", "phase", to, "ceiling", m.ceiling, "error", err)
	return nil
}

func (m *Machine) protect(ctx context.Context, fn func(Steps, context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Debug("analyzer panic", "value", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(m.steps, ctx)
}
