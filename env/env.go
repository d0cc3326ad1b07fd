// Package env is the virtual compilation environment: it presents one
// source unit and its side document to the compiler, serves platform and
// classpath classes, and captures generated output in an artifact store.
package env

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/dew/artifact"
	"github.com/dhamidi/dew/java"
	"github.com/dhamidi/dew/pom"
)

var log = commonlog.GetLogger("dew.env")

// DefaultClasspath is registered on every environment unless replaced
// with WithClasspath.
const DefaultClasspath = "org.apidesign.bck2brwsr:emul:0.11:rt"

type Origin int

const (
	OriginPlatform Origin = iota
	OriginArchive
	OriginGenerated
)

func (o Origin) String() string {
	switch o {
	case OriginPlatform:
		return "platform"
	case OriginArchive:
		return "archive"
	case OriginGenerated:
		return "generated"
	}
	return "unknown"
}

// Resource is one class file visible to the compiler.
type Resource struct {
	Path   string
	Origin Origin
	// Source names the archive coordinates of OriginArchive resources.
	Source string

	open func() ([]byte, error)
}

// Name is the last path element.
func (r Resource) Name() string {
	return r.Path[strings.LastIndexByte(r.Path, '/')+1:]
}

// Open returns the class file bytes.
func (r Resource) Open() ([]byte, error) {
	return r.open()
}

type Option func(*Environment)

func WithArchiveCache(c *ArchiveCache) Option {
	return func(e *Environment) { e.cache = c }
}

func WithPlatform(p *Platform) Option {
	return func(e *Environment) { e.platform = p }
}

// WithClasspath replaces the default classpath.
func WithClasspath(coordinates ...string) Option {
	return func(e *Environment) { e.deps = append([]string(nil), coordinates...) }
}

func WithStore(s *artifact.Store) Option {
	return func(e *Environment) { e.store = s }
}

// Environment is safe for concurrent use.
type Environment struct {
	store    *artifact.Store
	cache    *ArchiveCache
	platform *Platform

	mu       sync.Mutex
	deps     []string
	listings map[string][]Resource
}

func New(opts ...Option) *Environment {
	e := &Environment{
		deps:     []string{DefaultClasspath},
		listings: map[string][]Resource{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = artifact.NewStore()
	}
	if e.cache == nil {
		e.cache = DefaultArchiveCache()
	}
	if e.platform == nil {
		e.platform = DefaultPlatform()
	}
	return e
}

// AddDependency registers an archive. It is fetched on first use.
func (e *Environment) AddDependency(coordinates string) error {
	if _, err := pom.ParseCoordinate(coordinates); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, d := range e.deps {
		if d == coordinates {
			return nil
		}
	}
	e.deps = append(e.deps, coordinates)
	e.listings = map[string][]Resource{}
	log.Debug("dependency added", "coordinates", coordinates)
	return nil
}

func (e *Environment) Dependencies() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.deps...)
}

// ListResources returns the class files directly inside folder: platform
// classes, then archive classes in classpath order, then generated
// classes. Entries present in more than one origin are listed once per
// origin. The platform and archive part is memoized per folder.
func (e *Environment) ListResources(ctx context.Context, folder string) ([]Resource, error) {
	folder = strings.Trim(folder, "/")
	e.mu.Lock()
	cached, ok := e.listings[folder]
	deps := append([]string(nil), e.deps...)
	e.mu.Unlock()

	if !ok {
		var out []Resource
		for _, p := range e.platform.List(folder) {
			p := p
			out = append(out, Resource{Path: p, Origin: OriginPlatform, open: func() ([]byte, error) {
				return e.platform.ClassBytes(p)
			}})
		}
		for _, d := range deps {
			a, err := e.cache.Get(ctx, d)
			if err != nil {
				return nil, err
			}
			for _, p := range a.List(folder) {
				out = append(out, archiveResource(a, p))
			}
		}
		e.mu.Lock()
		e.listings[folder] = out
		e.mu.Unlock()
		cached = out
	}

	result := append([]Resource(nil), cached...)
	for _, g := range e.store.List(artifact.Class, folder) {
		content := g.Content
		result = append(result, Resource{Path: g.Path, Origin: OriginGenerated, open: func() ([]byte, error) {
			return content, nil
		}})
	}
	return result, nil
}

func archiveResource(a *Archive, p string) Resource {
	return Resource{Path: p, Origin: OriginArchive, Source: a.Coordinates, open: func() ([]byte, error) {
		data, ok := a.Read(p)
		if !ok {
			return nil, fmt.Errorf("%s: %s not found", a.Coordinates, p)
		}
		return data, nil
	}}
}

// Index is the class index units compile against: the platform catalog
// followed by every classpath archive. Archives that cannot be fetched
// are left out and reported in the returned error; the index is usable
// either way.
func (e *Environment) Index(ctx context.Context) (java.ClassIndex, error) {
	chain := java.Chain{e.platform}
	var errs []error
	for _, d := range e.Dependencies() {
		a, err := e.cache.Get(ctx, d)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		chain = append(chain, a)
	}
	return chain, errors.Join(errs...)
}

// Artifacts returns the visible artifacts of role.
func (e *Environment) Artifacts(role artifact.Role) map[string][]byte {
	return e.store.Artifacts(role)
}

func (e *Environment) Publish(entries []artifact.Entry) []artifact.Artifact {
	return e.store.Publish(entries)
}

func (e *Environment) Store() *artifact.Store {
	return e.store
}

// Packages lists every package known to the platform and the fetched
// archives.
func (e *Environment) Packages(ctx context.Context) []string {
	idx, _ := e.Index(ctx)
	lister, ok := idx.(java.PackageLister)
	if !ok {
		return nil
	}
	pkgs := lister.Packages()
	sort.Strings(pkgs)
	return pkgs
}
