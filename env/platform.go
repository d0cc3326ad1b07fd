package env

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/dhamidi/dew/java"
	"github.com/dhamidi/dew/java/parser"
)

//go:embed platform/*.java
var platformSources embed.FS

// Platform is the catalog of runtime classes every unit compiles
// against. It is built from the signature stubs embedded in the binary,
// and serves both as a class index and as a source of class files for
// resource listings.
type Platform struct {
	once    sync.Once
	err     error
	classes java.Classes
	folders map[string][]string

	mu    sync.Mutex
	bytes map[string][]byte
}

var defaultPlatform = &Platform{}

// DefaultPlatform returns the shared platform catalog.
func DefaultPlatform() *Platform {
	return defaultPlatform
}

func (p *Platform) load() error {
	p.once.Do(func() {
		p.classes = java.Classes{}
		p.folders = map[string][]string{}
		p.bytes = map[string][]byte{}

		names, err := fs.Glob(platformSources, "platform/*.java")
		if err != nil {
			p.err = err
			return
		}
		var units []*java.SourceUnit
		for _, name := range names {
			src, err := platformSources.ReadFile(name)
			if err != nil {
				p.err = err
				return
			}
			ps := parser.ParseCompilationUnit(bytes.NewReader(src), parser.WithFile(path.Base(name)))
			tree := ps.Finish()
			for _, d := range ps.Diagnostics() {
				log.Warning("platform stub", "file", name, "line", d.Span.Start.Line, "message", d.Message)
			}
			u := java.Declare(tree, nil)
			units = append(units, u)
			for _, m := range u.Classes {
				p.classes.Add(m)
			}
		}
		for _, u := range units {
			u.Complete(p.classes)
		}
		for _, m := range p.classes {
			folder := path.Dir(m.BinaryName)
			p.folders[folder] = append(p.folders[folder], m.BinaryName+".class")
		}
		for _, files := range p.folders {
			sort.Strings(files)
		}
		log.Debug("platform loaded", "classes", len(p.classes))
	})
	return p.err
}

// LookupClass implements java.ClassIndex.
func (p *Platform) LookupClass(name string) *java.ClassModel {
	if p.load() != nil {
		return nil
	}
	return p.classes.LookupClass(name)
}

func (p *Platform) ClassesInPackage(pkg string) []*java.ClassModel {
	if p.load() != nil {
		return nil
	}
	return p.classes.ClassesInPackage(pkg)
}

func (p *Platform) Packages() []string {
	if p.load() != nil {
		return nil
	}
	return p.classes.Packages()
}

// List returns the class file paths directly inside folder.
func (p *Platform) List(folder string) []string {
	if p.load() != nil {
		return nil
	}
	return p.folders[strings.Trim(folder, "/")]
}

// ClassBytes renders the class file for a platform class path such as
// java/lang/Object.class.
func (p *Platform) ClassBytes(classPath string) ([]byte, error) {
	if err := p.load(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if data, ok := p.bytes[classPath]; ok {
		return data, nil
	}
	binary := strings.TrimSuffix(classPath, ".class")
	var model *java.ClassModel
	for _, m := range p.classes {
		if m.BinaryName == binary {
			model = m
			break
		}
	}
	if model == nil {
		return nil, fmt.Errorf("no platform class %s", classPath)
	}
	cf, err := java.ClassFile(model, p.classes, nil)
	if err != nil {
		return nil, err
	}
	data, err := cf.Bytes()
	if err != nil {
		return nil, err
	}
	p.bytes[classPath] = data
	return data, nil
}
