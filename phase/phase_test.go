package phase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSteps struct {
	calls  []string
	fail   map[string]error
	panics map[string]bool
	resets int
}

func (f *fakeSteps) do(name string) error {
	f.calls = append(f.calls, name)
	if f.panics[name] {
		panic(name + " exploded")
	}
	return f.fail[name]
}

func (f *fakeSteps) Parse(context.Context) error     { return f.do("parse") }
func (f *fakeSteps) Enter(context.Context) error     { return f.do("enter") }
func (f *fakeSteps) Attribute(context.Context) error { return f.do("attribute") }
func (f *fakeSteps) Generate(context.Context) error  { return f.do("generate") }
func (f *fakeSteps) Reset()                          { f.resets++ }

func advance(t *testing.T, m *Machine, target Phase) Phase {
	t.Helper()
	p, err := m.Advance(context.Background(), target)
	require.NoError(t, err)
	return p
}

func TestAdvanceRunsStepsInOrder(t *testing.T) {
	s := &fakeSteps{}
	m := New(s)
	assert.Equal(t, Resolved, advance(t, m, Resolved))
	assert.Equal(t, []string{"parse", "enter", "attribute"}, s.calls)
	assert.Nil(t, m.Fault())
}

func TestAdvanceIsMonotonic(t *testing.T) {
	s := &fakeSteps{}
	m := New(s)
	advance(t, m, ElementsResolved)
	assert.Equal(t, ElementsResolved, advance(t, m, Parsed))
	assert.Equal(t, ElementsResolved, advance(t, m, ElementsResolved))
	assert.Equal(t, []string{"parse", "enter"}, s.calls)
	assert.Equal(t, 1, m.Runs(Parsed))

	advance(t, m, Resolved)
	assert.Equal(t, []string{"parse", "enter", "attribute"}, s.calls)
}

func TestFaultPinsCeiling(t *testing.T) {
	s := &fakeSteps{fail: map[string]error{"attribute": errors.New("symbol table corrupt")}}
	m := New(s)
	assert.Equal(t, ElementsResolved, advance(t, m, Resolved))
	assert.Equal(t, ElementsResolved, m.Ceiling())
	require.NotNil(t, m.Fault())
	assert.Equal(t, Resolved, m.Fault().Phase)
	assert.ErrorContains(t, m.Fault(), "symbol table corrupt")

	assert.Equal(t, ElementsResolved, advance(t, m, Resolved))
	assert.Equal(t, ElementsResolved, advance(t, m, Generated))
	assert.Equal(t, 1, m.Runs(Resolved), "the failing step is not retried")
	assert.Zero(t, m.Runs(Generated))
}

func TestPanicBecomesFault(t *testing.T) {
	s := &fakeSteps{panics: map[string]bool{"enter": true}}
	m := New(s)
	assert.Equal(t, Parsed, advance(t, m, Resolved))
	var fault *AnalyzerFault
	require.ErrorAs(t, m.Fault(), &fault)
	assert.Equal(t, ElementsResolved, fault.Phase)
	assert.ErrorContains(t, fault, "enter exploded")
	assert.Equal(t, Parsed, m.Ceiling())
}

func TestResetClearsCeiling(t *testing.T) {
	s := &fakeSteps{fail: map[string]error{"parse": errors.New("lexer broke")}}
	m := New(s)
	assert.Equal(t, Modified, advance(t, m, Parsed))
	assert.Equal(t, Modified, m.Ceiling())

	delete(s.fail, "parse")
	m.Reset()
	assert.Equal(t, 1, s.resets)
	assert.Equal(t, UpToDate, m.Ceiling())
	assert.Nil(t, m.Fault())
	assert.Equal(t, Resolved, advance(t, m, Resolved))
}

func TestGenerateReturnsToModified(t *testing.T) {
	s := &fakeSteps{}
	m := New(s)
	assert.Equal(t, Generated, advance(t, m, Generated))
	assert.Equal(t, Modified, m.Phase())
	assert.Equal(t, []string{"parse", "enter", "attribute", "generate"}, s.calls)
	assert.Equal(t, 1, s.resets)
}

func TestGenerateFromUpToDate(t *testing.T) {
	s := &fakeSteps{}
	m := New(s)
	assert.Equal(t, UpToDate, advance(t, m, UpToDate))
	assert.Equal(t, Generated, advance(t, m, Generated))
	assert.Equal(t, []string{"parse", "enter", "attribute", "generate"}, s.calls)
}

func TestGenerateFaultKeepsResolved(t *testing.T) {
	s := &fakeSteps{fail: map[string]error{"generate": errors.New("constant pool overflow")}}
	m := New(s)
	assert.Equal(t, Resolved, advance(t, m, Generated))
	assert.Equal(t, Resolved, m.Ceiling())
	assert.Equal(t, Resolved, advance(t, m, Generated))
	assert.Equal(t, 1, m.Runs(Generated))
	assert.Zero(t, s.resets)
}

func TestCancelledAdvanceLeavesState(t *testing.T) {
	s := &fakeSteps{}
	m := New(s)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p, err := m.Advance(ctx, Resolved)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Modified, p)
	assert.Empty(t, s.calls)
	assert.Equal(t, UpToDate, m.Ceiling())
}

func TestStepCancellationIsNotAFault(t *testing.T) {
	s := &fakeSteps{fail: map[string]error{"enter": context.DeadlineExceeded}}
	m := New(s)
	p, err := m.Advance(context.Background(), Resolved)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Parsed, p)
	assert.Nil(t, m.Fault())
	assert.Equal(t, UpToDate, m.Ceiling())
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "ELEMENTS_RESOLVED", ElementsResolved.String())
	assert.Equal(t, "UNKNOWN", Phase(42).String())
}
