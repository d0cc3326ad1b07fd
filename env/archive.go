package env

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/dhamidi/dew/java"
)

// Archive is the class content of one fetched jar, held in memory.
type Archive struct {
	Coordinates string

	files   map[string][]byte
	folders map[string][]string

	mu     sync.Mutex
	models map[string]*java.ClassModel
}

// OpenArchive reads the .class entries of a jar.
func OpenArchive(coordinates string, data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", coordinates, err)
	}
	a := &Archive{
		Coordinates: coordinates,
		files:       map[string][]byte{},
		folders:     map[string][]string{},
		models:      map[string]*java.ClassModel{},
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, ".class") {
			continue
		}
		base := path.Base(f.Name)
		if base == "module-info.class" || base == "package-info.class" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s!%s: %w", coordinates, f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s!%s: %w", coordinates, f.Name, err)
		}
		a.files[f.Name] = content
		folder := path.Dir(f.Name)
		if folder == "." {
			folder = ""
		}
		a.folders[folder] = append(a.folders[folder], f.Name)
	}
	for _, names := range a.folders {
		sort.Strings(names)
	}
	return a, nil
}

// List returns the class paths directly inside folder.
func (a *Archive) List(folder string) []string {
	return a.folders[strings.Trim(folder, "/")]
}

func (a *Archive) Read(classPath string) ([]byte, bool) {
	data, ok := a.files[classPath]
	return data, ok
}

func (a *Archive) Len() int {
	return len(a.files)
}

// classPaths lists the class file paths a dotted name may live at, the
// all-package reading first: a.b.C.D may be a/b/C/D.class or a/b/C$D.class.
func classPaths(name string) []string {
	parts := strings.Split(name, ".")
	out := make([]string, 0, len(parts))
	for nested := 0; nested < len(parts); nested++ {
		split := len(parts) - 1 - nested
		p := strings.Join(parts[split:], "$") + ".class"
		if split > 0 {
			p = strings.Join(parts[:split], "/") + "/" + p
		}
		out = append(out, p)
	}
	return out
}

// LookupClass implements java.ClassIndex by decoding class files on
// demand.
func (a *Archive) LookupClass(name string) *java.ClassModel {
	for _, p := range classPaths(name) {
		if m := a.model(p); m != nil {
			return m
		}
	}
	return nil
}

func (a *Archive) model(classPath string) *java.ClassModel {
	data, ok := a.files[classPath]
	if !ok {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if m, ok := a.models[classPath]; ok {
		return m
	}
	m, err := java.ClassModelFromReader(bytes.NewReader(data))
	if err != nil {
		log.Warning("unreadable class", "archive", a.Coordinates, "path", classPath, "error", err)
	}
	a.models[classPath] = m
	return m
}

// ClassesInPackage returns the top-level classes of pkg.
func (a *Archive) ClassesInPackage(pkg string) []*java.ClassModel {
	var out []*java.ClassModel
	for _, p := range a.List(strings.ReplaceAll(pkg, ".", "/")) {
		if strings.Contains(path.Base(p), "$") {
			continue
		}
		if m := a.model(p); m != nil {
			out = append(out, m)
		}
	}
	return out
}

func (a *Archive) Packages() []string {
	out := make([]string, 0, len(a.folders))
	for folder := range a.folders {
		out = append(out, strings.ReplaceAll(folder, "/", "."))
	}
	sort.Strings(out)
	return out
}
