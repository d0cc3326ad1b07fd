// Package artifact holds the in-memory outputs of code generation: class
// files and generated sources, keyed by slash-separated logical path.
//
// Entries are never removed. Publishing a new batch hides older entries
// at the same paths by marking them deleted, so readers holding an older
// listing keep seeing consistent bytes.
package artifact

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

type Role int

const (
	Class Role = iota
	GeneratedSource
)

func (r Role) String() string {
	switch r {
	case Class:
		return "class"
	case GeneratedSource:
		return "source"
	}
	return "unknown"
}

// Artifact is an immutable generated file. Generated is the publication
// time in nanoseconds; a negative value marks the artifact deleted.
type Artifact struct {
	Path      string
	Role      Role
	Content   []byte
	Digest    uint64
	Generated int64
}

func (a *Artifact) Visible() bool {
	return a.Generated >= 0
}

// Folder is the directory part of the path, without a trailing slash.
func (a *Artifact) Folder() string {
	if i := strings.LastIndexByte(a.Path, '/'); i >= 0 {
		return a.Path[:i]
	}
	return ""
}

// Name is the last path element.
func (a *Artifact) Name() string {
	return a.Path[strings.LastIndexByte(a.Path, '/')+1:]
}

// Entry describes one artifact to publish.
type Entry struct {
	Path    string
	Role    Role
	Content []byte
}

// Store is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[Role][]*Artifact
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		entries: make(map[Role][]*Artifact),
		now:     time.Now,
	}
}

// Publish adds a batch atomically: readers see either none or all of it.
// Visible artifacts at the same path and role are soft-deleted.
func (s *Store) Publish(batch []Entry) []Artifact {
	stamp := s.now().UnixNano()
	created := make([]*Artifact, 0, len(batch))
	for _, e := range batch {
		content := append([]byte(nil), e.Content...)
		created = append(created, &Artifact{
			Path:      e.Path,
			Role:      e.Role,
			Content:   content,
			Digest:    xxhash.Sum64(content),
			Generated: stamp,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Artifact, 0, len(created))
	for _, a := range created {
		s.hideLocked(a.Role, a.Path)
		s.entries[a.Role] = append(s.entries[a.Role], a)
		out = append(out, *a)
	}
	return out
}

// Delete hides every visible artifact at path in role.
func (s *Store) Delete(role Role, path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hideLocked(role, path)
}

// Clear hides all artifacts of role.
func (s *Store) Clear(role Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.entries[role] {
		if a.Visible() {
			a.Generated = -1
		}
	}
}

func (s *Store) hideLocked(role Role, path string) bool {
	hidden := false
	for _, a := range s.entries[role] {
		if a.Path == path && a.Visible() {
			a.Generated = -1
			hidden = true
		}
	}
	return hidden
}

// Artifacts returns the content of every visible artifact of role.
func (s *Store) Artifacts(role Role) map[string][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]byte)
	for _, a := range s.entries[role] {
		if a.Visible() {
			out[a.Path] = a.Content
		}
	}
	return out
}

// Get returns the visible artifact at path.
func (s *Store) Get(role Role, path string) (Artifact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.entries[role] {
		if a.Path == path && a.Visible() {
			return *a, true
		}
	}
	return Artifact{}, false
}

// List returns the visible artifacts of role directly inside folder,
// sorted by path.
func (s *Store) List(role Role, folder string) []Artifact {
	folder = strings.Trim(folder, "/")
	s.mu.RLock()
	var out []Artifact
	for _, a := range s.entries[role] {
		if a.Visible() && a.Folder() == folder {
			out = append(out, *a)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Len counts all entries of role, including hidden ones.
func (s *Store) Len(role Role) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries[role])
}
