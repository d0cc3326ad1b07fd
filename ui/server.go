// Package ui serves the development service over HTTP: the JSON endpoint
// browser clients post to, a playground page, and a browser for the
// classes of the compilation environment.
package ui

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/dew/env"
	"github.com/dhamidi/dew/java"
	"github.com/dhamidi/dew/service"
)

var log = commonlog.GetLogger("dew.ui")

//go:embed static all:templates
var embeddedFS embed.FS

// SessionHeader selects the session a request belongs to.
const SessionHeader = "X-Dew-Session"

const (
	maxRequestBytes = 4 << 20
	maxResults      = 20
)

type Server struct {
	sessions   *service.Sessions
	env        *env.Environment
	mux        *http.ServeMux
	templateFS fs.FS
	funcMap    template.FuncMap
}

type Option func(*Server)

func WithSessions(s *service.Sessions) Option {
	return func(srv *Server) { srv.sessions = s }
}

// WithEnvironment sets the environment the class browser reads from.
func WithEnvironment(e *env.Environment) Option {
	return func(srv *Server) { srv.env = e }
}

func NewServer(opts ...Option) (*Server, error) {
	s := &Server{mux: http.NewServeMux()}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessions == nil {
		s.sessions = service.NewSessions()
	}
	if s.env == nil {
		s.env = env.New()
	}

	staticFS := overlayFS("ui/static", mustSub(embeddedFS, "static"))
	s.templateFS = overlayFS("ui/templates", mustSub(embeddedFS, "templates"))
	s.funcMap = template.FuncMap{
		"linkifyClass": func(known func(string) bool, name string) template.HTML {
			escaped := template.HTMLEscapeString(name)
			if known(name) {
				return template.HTML(fmt.Sprintf(`<a href="/c/%s">%s</a>`, escaped, escaped))
			}
			return template.HTML(escaped)
		},
		"linkifyType": func(known func(string) bool, t java.TypeModel) template.HTML {
			escaped := template.HTMLEscapeString(t.Name)
			result := escaped
			if known(t.Name) {
				result = fmt.Sprintf(`<a href="/c/%s">%s</a>`, escaped, escaped)
			}
			return template.HTML(result + strings.Repeat("[]", t.ArrayDepth))
		},
		"constructors": func(m *java.ClassModel) []java.MethodModel {
			var ctors []java.MethodModel
			for _, method := range m.Methods {
				if method.IsConstructor() {
					ctors = append(ctors, method)
				}
			}
			return ctors
		},
		"isConstructor": func(m java.MethodModel) bool {
			return m.IsConstructor()
		},
		"isStaticInitializer": func(m java.MethodModel) bool {
			return m.Name == "<clinit>"
		},
	}
	if _, err := template.New("").Funcs(s.funcMap).ParseFS(s.templateFS, "*.html"); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	s.mux.HandleFunc("POST /javac", s.handleJavac)
	s.mux.HandleFunc("GET /c/{className...}", s.handleClass)
	s.mux.HandleFunc("GET /sidebar", s.handleSidebar)
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, err := template.New("").Funcs(s.funcMap).ParseFS(s.templateFS, "*.html")
	if err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		log.Warningf("render %s: %v", name, err)
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) handleJavac(w http.ResponseWriter, r *http.Request) {
	var req service.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	session := r.Header.Get(SessionHeader)
	resp := s.sessions.Get(session).Handle(r.Context(), req)
	log.Debug("javac", "session", session, "type", req.Type, "status", resp.Status)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Warningf("write response: %v", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, "index.html", struct {
		Session string
		Example string
	}{
		Session: service.DefaultSession,
		Example: example,
	})
}

const example = `package x.y.z;

public class Hello {
    public static void main(String... args) {
        System.out.println("Hello World!");
    }
}
`

type classView struct {
	Class        *java.ClassModel
	Known        func(string) bool
	Implementers []*java.ClassModel
}

func (s *Server) handleClass(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("className")
	idx, err := s.env.Index(r.Context())
	if err != nil {
		log.Warningf("class index: %v", err)
	}
	m := idx.LookupClass(name)
	if m == nil {
		http.Error(w, "class not found", http.StatusNotFound)
		return
	}
	data := classView{
		Class: m,
		Known: func(n string) bool { return idx.LookupClass(n) != nil },
	}
	if m.Kind == java.ClassKindInterface {
		for _, c := range s.classes(r, "") {
			for _, iface := range c.Interfaces {
				if iface == name {
					data.Implementers = append(data.Implementers, c)
					break
				}
			}
		}
	}
	s.render(w, "class.html", data)
}

func (s *Server) handleSidebar(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(r.URL.Query().Get("q"))
	matches := s.classes(r, query)
	data := struct {
		Classes      []*java.ClassModel
		Active       string
		TotalMatches int
		HasMore      bool
	}{
		Classes:      matches,
		Active:       r.URL.Query().Get("active"),
		TotalMatches: len(matches),
		HasMore:      len(matches) > maxResults,
	}
	if data.HasMore {
		data.Classes = matches[:maxResults]
	}
	s.render(w, "_sidebar.html", data)
}

// classes lists the environment's top-level classes whose name contains
// query, sorted by name.
func (s *Server) classes(r *http.Request, query string) []*java.ClassModel {
	idx, _ := s.env.Index(r.Context())
	lister, ok := idx.(java.PackageLister)
	if !ok {
		return nil
	}
	var out []*java.ClassModel
	for _, pkg := range s.env.Packages(r.Context()) {
		for _, c := range lister.ClassesInPackage(pkg) {
			if query == "" || strings.Contains(strings.ToLower(c.Name), query) {
				out = append(out, c)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// overlay serves files from a directory on disk when present, and from
// the embedded copy otherwise, so templates can be edited without a
// rebuild.
type overlay struct {
	primary   fs.FS
	secondary fs.FS
}

func overlayFS(primaryPath string, secondary fs.FS) fs.FS {
	return &overlay{primary: os.DirFS(primaryPath), secondary: secondary}
}

func (o *overlay) Open(name string) (fs.File, error) {
	f, err := o.primary.Open(name)
	if err == nil {
		return f, nil
	}
	return o.secondary.Open(name)
}

func (o *overlay) ReadDir(name string) ([]fs.DirEntry, error) {
	entries := make(map[string]fs.DirEntry)
	for _, fsys := range []fs.FS{o.secondary, o.primary} {
		if list, err := fs.ReadDir(fsys, name); err == nil {
			for _, e := range list {
				entries[e.Name()] = e
			}
		}
	}
	result := make([]fs.DirEntry, 0, len(entries))
	for _, e := range entries {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result, nil
}
