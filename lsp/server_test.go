package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"go.uber.org/goleak"

	"github.com/dhamidi/dew/service"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const uri = "file:///work/src/p/A.java"

type recorder struct {
	published []protocol.PublishDiagnosticsParams
}

func (r *recorder) context() *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {
			if method == protocol.ServerTextDocumentPublishDiagnostics {
				r.published = append(r.published, params.(protocol.PublishDiagnosticsParams))
			}
		},
	}
}

func newServer() *Server {
	return NewServer("test", service.NewSessions(service.WithClasspath()))
}

func open(t *testing.T, ls *Server, rec *recorder, text string) {
	t.Helper()
	err := ls.textDocumentDidOpen(rec.context(), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: "java", Version: 1, Text: text},
	})
	require.NoError(t, err)
}

func TestPublishDiagnostics(t *testing.T) {
	ls, rec := newServer(), &recorder{}
	open(t, ls, rec, "package p;\nclass A {\n    void m() {\n        int i = 1\n    }\n}\n")

	require.Len(t, rec.published, 1)
	got := rec.published[0]
	assert.Equal(t, uri, got.URI)
	require.NotEmpty(t, got.Diagnostics)
	d := got.Diagnostics[0]
	assert.Equal(t, protocol.UInteger(3), d.Range.Start.Line)
	assert.Equal(t, protocol.DiagnosticSeverityError, *d.Severity)
	assert.Contains(t, d.Message, "';' expected")

	err := ls.textDocumentDidChange(rec.context(), &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                2,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "package p;\nclass A {}\n"}},
	})
	require.NoError(t, err)
	require.Len(t, rec.published, 2)
	assert.Empty(t, rec.published[1].Diagnostics)
}

func TestCompletion(t *testing.T) {
	ls, rec := newServer(), &recorder{}
	open(t, ls, rec, "package p;\nclass A {\n    void m() {\n        System.out.pr\n    }\n}\n")

	res, err := ls.textDocumentCompletion(rec.context(), &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     protocol.Position{Line: 3, Character: 21},
		},
	})
	require.NoError(t, err)
	items, ok := res.([]protocol.CompletionItem)
	require.True(t, ok)
	var labels []string
	for _, it := range items {
		labels = append(labels, *it.InsertText)
		assert.Equal(t, protocol.CompletionItemKindMethod, *it.Kind)
	}
	assert.Equal(t, []string{"print", "printf", "println"}, labels)
}

func TestCompletionUnknownDocument(t *testing.T) {
	res, err := newServer().textDocumentCompletion(&glsp.Context{}, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: "file:///nowhere.java"},
		},
	})
	assert.NoError(t, err)
	assert.Nil(t, res)
}

func TestCloseClearsDiagnostics(t *testing.T) {
	ls, rec := newServer(), &recorder{}
	open(t, ls, rec, "package p;\nclass A { int x = ; }\n")
	require.NoError(t, ls.textDocumentDidClose(rec.context(), &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}))
	require.Len(t, rec.published, 2)
	assert.Empty(t, rec.published[1].Diagnostics)
	_, ok := ls.text(uri)
	assert.False(t, ok)
}

func TestPositions(t *testing.T) {
	text := "ab\nc😀d\n"
	cases := []struct {
		pos    protocol.Position
		offset int
	}{
		{protocol.Position{Line: 0, Character: 0}, 0},
		{protocol.Position{Line: 0, Character: 9}, 2},
		{protocol.Position{Line: 1, Character: 1}, 4},
		{protocol.Position{Line: 1, Character: 3}, 8},
		{protocol.Position{Line: 5, Character: 0}, len(text)},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.offset, offset(text, tc.pos), "offset of %+v", tc.pos)
	}

	assert.Equal(t, protocol.Position{Line: 1, Character: 3}, position(text, 2, 6))
	assert.Equal(t, protocol.Position{Line: 0, Character: 2}, position(text, 1, 10))
}

func TestSaveUnchangedSkipsPublish(t *testing.T) {
	ls, rec := newServer(), &recorder{}
	text := "package p;\nclass A { int x = ; }\n"
	open(t, ls, rec, text)
	require.Len(t, rec.published, 1)

	require.NoError(t, ls.textDocumentDidSave(rec.context(), &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Text:         &text,
	}))
	assert.Len(t, rec.published, 1)

	edited := text + "\n"
	require.NoError(t, ls.textDocumentDidSave(rec.context(), &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Text:         &edited,
	}))
	assert.Len(t, rec.published, 2)
}
