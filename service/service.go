// Package service is the request boundary of the development service. An
// Endpoint holds one session: the unit built from the last submitted
// source, which is reused for as long as the client keeps sending the same
// text.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/dew/compiler"
	"github.com/dhamidi/dew/completion"
	"github.com/dhamidi/dew/env"
)

var log = commonlog.GetLogger("dew.service")

type RequestType string

const (
	Autocomplete   RequestType = "autocomplete"
	CheckForErrors RequestType = "checkForErrors"
	Compile        RequestType = "compile"
)

const (
	StatusNoErrors     = "OK. No errors found."
	StatusErrors       = "There are errors!"
	StatusCompiled     = "OK"
	StatusNoBytecode   = "No bytecode has been generated!"
	StatusCompleted    = "Autocomplete finished."
	StatusNothingToDo  = "Nothing to do!"
	statusCompleteFail = "Autocomplete failed: "
	statusFailed       = "Request failed: "
)

// Request is one client call. HTML is the side document, Java the source
// text and Offset the completion position, a byte offset into Java.
type Request struct {
	Type   RequestType `json:"type"`
	HTML   string      `json:"html"`
	Java   string      `json:"java"`
	Offset int         `json:"offset"`
	State  string      `json:"state,omitempty"`
}

type Error struct {
	Line int    `json:"line"`
	Col  int    `json:"col"`
	Kind string `json:"kind"`
	Msg  string `json:"msg"`
}

func (e Error) String() string {
	return fmt.Sprintf("%d:%d: %s: %s", e.Line, e.Col, e.Kind, e.Msg)
}

type Class struct {
	ClassName string   `json:"className"`
	ByteCode  ByteCode `json:"byteCode"`
}

type Item struct {
	Text        string `json:"text"`
	DisplayText string `json:"displayText"`
	ClassName   string `json:"className"`
	Kind        string `json:"kind"`
}

type Response struct {
	Type        RequestType `json:"type"`
	Status      string      `json:"status"`
	State       string      `json:"state,omitempty"`
	Errors      []Error     `json:"errors"`
	Classes     []Class     `json:"classes"`
	Completions []string    `json:"completions"`
	Items       []Item      `json:"items"`
}

type Option func(*Endpoint)

// WithEnvironment sets how the environment of each new unit is made.
func WithEnvironment(newEnv func() *env.Environment) Option {
	return func(e *Endpoint) { e.newEnv = newEnv }
}

// WithClasspath sets the archives every new unit sees.
func WithClasspath(coordinates ...string) Option {
	coordinates = append([]string(nil), coordinates...)
	return WithEnvironment(func() *env.Environment {
		return env.New(env.WithClasspath(coordinates...))
	})
}

// Endpoint serves the requests of one session. It is safe for concurrent
// use; requests are handled one at a time.
type Endpoint struct {
	newEnv func() *env.Environment

	mu     sync.Mutex
	task   *compiler.Task
	reused int
}

func New(opts ...Option) *Endpoint {
	e := &Endpoint{}
	for _, opt := range opts {
		opt(e)
	}
	if e.newEnv == nil {
		e.newEnv = func() *env.Environment { return env.New() }
	}
	return e
}

// Reused counts the requests that found their source text already
// loaded.
func (e *Endpoint) Reused() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reused
}

func (e *Endpoint) Handle(ctx context.Context, req Request) Response {
	e.mu.Lock()
	defer e.mu.Unlock()

	resp := Response{
		Type:        req.Type,
		State:       req.State,
		Errors:      []Error{},
		Classes:     []Class{},
		Completions: []string{},
		Items:       []Item{},
	}
	task, err := e.load(req)
	if err != nil {
		var malformed *env.MalformedUnitError
		if !errors.As(err, &malformed) {
			resp.Status = statusFailed + err.Error()
			return resp
		}
		resp.Errors = append(resp.Errors, Error{Line: 1, Col: 1, Kind: string(compiler.Error), Msg: malformed.Message})
		resp.Status = StatusErrors
		return resp
	}

	switch req.Type {
	case CheckForErrors:
		diags, err := task.Errors(ctx)
		if err != nil {
			return failed(resp, err)
		}
		resp.Errors = appendErrors(resp.Errors, diags)
		resp.Status = StatusNoErrors
		if len(resp.Errors) > 0 {
			resp.Status = StatusErrors
		}

	case Compile:
		diags, err := task.Errors(ctx)
		if err != nil {
			return failed(resp, err)
		}
		resp.Errors = appendErrors(resp.Errors, diags)
		classes, err := task.Classes(ctx)
		if err != nil {
			return failed(resp, err)
		}
		for _, c := range classes {
			resp.Classes = append(resp.Classes, Class{ClassName: c.Name, ByteCode: c.Bytes})
		}
		resp.Status = StatusCompiled
		if len(resp.Classes) == 0 {
			resp.Status = StatusNoBytecode
		}

	case Autocomplete:
		items, err := completion.Complete(ctx, task, req.Offset)
		if err != nil {
			log.Debug("autocomplete failed", "offset", req.Offset, "error", err)
			resp.Status = statusCompleteFail + err.Error()
			return resp
		}
		for _, it := range items {
			resp.Completions = append(resp.Completions, it.Text)
			resp.Items = append(resp.Items, Item{
				Text:        it.Text,
				DisplayText: it.DisplayText,
				ClassName:   it.ClassName,
				Kind:        it.Kind.String(),
			})
		}
		resp.Status = StatusCompleted

	default:
		resp.Status = StatusNothingToDo
	}
	log.Debug("handled", "type", req.Type, "status", resp.Status, "phase", task.Phase())
	return resp
}

// load returns the task for the request's source, building a new one
// only when the text differs from the loaded one.
func (e *Endpoint) load(req Request) (*compiler.Task, error) {
	if e.task != nil && e.task.Text() == req.Java {
		e.reused++
		return e.task, nil
	}
	u, err := e.newEnv().CreateUnit(req.HTML, req.Java)
	if err != nil {
		return nil, err
	}
	e.task = compiler.NewTask(u)
	log.Debug("new unit", "class", u.MainClass(), "fingerprint", u.Fingerprint)
	return e.task, nil
}

func appendErrors(out []Error, diags []compiler.Diagnostic) []Error {
	for _, d := range diags {
		out = append(out, Error{Line: d.Line, Col: d.Col, Kind: string(d.Kind), Msg: d.Message})
	}
	return out
}

func failed(resp Response, err error) Response {
	log.Warningf("request %s failed: %v", resp.Type, err)
	resp.Status = statusFailed + err.Error()
	return resp
}
