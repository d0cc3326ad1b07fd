// Package completion computes code completion candidates at an offset of
// a source unit. Resolve locates the syntax path around the offset and
// builds a Context; the site handler registered for the innermost node
// kind then offers keywords, variables, members, types or packages that
// are legal at that position.
//
// Completion works on broken input. It only needs the unit parsed, and
// advances it further on demand; a unit whose analysis faulted still gets
// keyword and syntax-based candidates.
package completion

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/dew/compiler"
)

var log = commonlog.GetLogger("dew.completion")

// ErrOffsetOutOfRange is returned for offsets outside the source text.
var ErrOffsetOutOfRange = errors.New("offset out of range")

// Fault wraps an error or panic raised while computing candidates. The
// unit's analysis state is unaffected by it.
type Fault struct {
	Offset int
	Err    error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("completion at offset %d: %v", f.Offset, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

type Kind int

const (
	KindKeyword Kind = iota
	KindVariable
	KindField
	KindMethod
	KindClass
	KindPackage
	KindEnumConstant
	KindLabel
)

func (k Kind) String() string {
	switch k {
	case KindKeyword:
		return "keyword"
	case KindVariable:
		return "variable"
	case KindField:
		return "field"
	case KindMethod:
		return "method"
	case KindClass:
		return "class"
	case KindPackage:
		return "package"
	case KindEnumConstant:
		return "enum constant"
	case KindLabel:
		return "label"
	}
	return "unknown"
}

// Item is one candidate. Text is what gets inserted, DisplayText the
// label shown to the user and ClassName the class that declares the
// candidate, or the candidate itself for types.
type Item struct {
	Text        string
	DisplayText string
	ClassName   string
	Kind        Kind
}

// Complete returns the candidates at offset, sorted by text with one item
// per text.
func Complete(ctx context.Context, task *compiler.Task, offset int) ([]Item, error) {
	c, err := Resolve(ctx, task, offset)
	if err != nil {
		return nil, err
	}
	return c.Complete()
}

// Complete runs the site handlers for the context. Errors and panics
// inside a handler are returned as a *Fault.
func (c *Context) Complete() (items []Item, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Warningf("completion panic at %d: %v", c.Offset, r)
			items, err = nil, &Fault{Offset: c.Offset, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if c.inComment {
		return nil, nil
	}
	if err := c.dispatch(); err != nil {
		var fault *Fault
		if errors.As(err, &fault) {
			return nil, err
		}
		return nil, &Fault{Offset: c.Offset, Err: err}
	}
	return finish(c.items), nil
}

func finish(items []Item) []Item {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Text != items[j].Text {
			return items[i].Text < items[j].Text
		}
		return items[i].DisplayText < items[j].DisplayText
	})
	out := items[:0]
	for i, it := range items {
		if i > 0 && it.Text == out[len(out)-1].Text {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Texts lists the text of every item.
func Texts(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Text
	}
	return out
}
