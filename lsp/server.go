// Package lsp serves the development service as a language server. Every
// open document is its own session: completion requests and published
// diagnostics go through the document's service endpoint.
package lsp

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/dhamidi/dew/service"
)

var log = commonlog.GetLogger("dew.lsp")

const lsName = "dew"

type Server struct {
	sessions *service.Sessions
	handler  protocol.Handler
	server   *server.Server
	version  string

	mu   sync.Mutex
	docs map[string]string
	// sums fingerprints the text whose diagnostics were last published.
	sums map[string]uint64
}

func NewServer(version string, sessions *service.Sessions) *Server {
	ls := &Server{
		sessions: sessions,
		version:  version,
		docs:     map[string]string{},
		sums:     map[string]uint64{},
	}

	ls.handler = protocol.Handler{
		Initialize:             ls.initialize,
		Initialized:            ls.initialized,
		Shutdown:               ls.shutdown,
		SetTrace:               ls.setTrace,
		TextDocumentDidOpen:    ls.textDocumentDidOpen,
		TextDocumentDidChange:  ls.textDocumentDidChange,
		TextDocumentDidClose:   ls.textDocumentDidClose,
		TextDocumentDidSave:    ls.textDocumentDidSave,
		TextDocumentCompletion: ls.textDocumentCompletion,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)
	return ls
}

func (ls *Server) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *Server) RunTCP(address string) error {
	return ls.server.RunTCP(address)
}

func (ls *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := ls.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKind(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{".", "@"},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Info("client initialized")
	return nil
}

func (ls *Server) shutdown(ctx *glsp.Context) error {
	return nil
}

func (ls *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	ls.update(ctx, params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

func (ls *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	change := params.ContentChanges[len(params.ContentChanges)-1]
	if whole, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
		ls.update(ctx, params.TextDocument.URI, whole.Text)
	}
	return nil
}

func (ls *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	ls.mu.Lock()
	delete(ls.docs, uri)
	delete(ls.sums, uri)
	ls.mu.Unlock()
	ls.sessions.Drop(uri)
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (ls *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	if params.Text != nil {
		ls.update(ctx, params.TextDocument.URI, *params.Text)
	}
	return nil
}

func (ls *Server) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	uri := params.TextDocument.URI
	text, ok := ls.text(uri)
	if !ok {
		return nil, nil
	}
	resp := ls.sessions.Get(uri).Handle(context.Background(), service.Request{
		Type:   service.Autocomplete,
		HTML:   sideDocument(uri),
		Java:   text,
		Offset: offset(text, params.Position),
	})
	if resp.Status != service.StatusCompleted {
		log.Debug("no completions", "uri", uri, "status", resp.Status)
		return nil, nil
	}

	items := make([]protocol.CompletionItem, 0, len(resp.Items))
	for _, it := range resp.Items {
		kind := completionKind(it.Kind)
		detail := it.ClassName
		insertText := it.Text
		items = append(items, protocol.CompletionItem{
			Label:      it.DisplayText,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &insertText,
			FilterText: &insertText,
		})
	}
	return items, nil
}

// update stores the document text and publishes its diagnostics unless
// they were already published for the same text.
func (ls *Server) update(ctx *glsp.Context, uri, text string) {
	sum := xxhash.Sum64String(text)
	ls.mu.Lock()
	ls.docs[uri] = text
	last, seen := ls.sums[uri]
	ls.sums[uri] = sum
	ls.mu.Unlock()
	if seen && last == sum {
		log.Debug("unchanged", "uri", uri)
		return
	}

	resp := ls.sessions.Get(uri).Handle(context.Background(), service.Request{
		Type: service.CheckForErrors,
		HTML: sideDocument(uri),
		Java: text,
	})
	diags := make([]protocol.Diagnostic, 0, len(resp.Errors))
	for _, e := range resp.Errors {
		pos := position(text, e.Line, e.Col)
		diags = append(diags, protocol.Diagnostic{
			Range:    protocol.Range{Start: pos, End: pos},
			Severity: severity(e.Kind),
			Source:   strPtr(lsName),
			Message:  e.Msg,
		})
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diags,
	})
}

func (ls *Server) text(uri string) (string, bool) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	text, ok := ls.docs[uri]
	return text, ok
}

// sideDocument names the page a source file belongs to. The language
// server has no page, so the file name stands in for it.
func sideDocument(uri string) string {
	path := uri
	if strings.HasPrefix(uri, "file://") {
		if parsed, err := url.Parse(uri); err == nil {
			path = parsed.Path
		}
	}
	return "<!-- " + filepath.Base(path) + " -->"
}

func completionKind(kind string) protocol.CompletionItemKind {
	switch kind {
	case "keyword":
		return protocol.CompletionItemKindKeyword
	case "variable", "label":
		return protocol.CompletionItemKindVariable
	case "field":
		return protocol.CompletionItemKindField
	case "method":
		return protocol.CompletionItemKindMethod
	case "class":
		return protocol.CompletionItemKindClass
	case "package":
		return protocol.CompletionItemKindModule
	case "enum constant":
		return protocol.CompletionItemKindEnumMember
	default:
		return protocol.CompletionItemKindText
	}
}

func severity(kind string) *protocol.DiagnosticSeverity {
	s := protocol.DiagnosticSeverityError
	switch kind {
	case "WARNING":
		s = protocol.DiagnosticSeverityWarning
	case "NOTE":
		s = protocol.DiagnosticSeverityInformation
	}
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}

func strPtr(s string) *string {
	return &s
}

func syncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
