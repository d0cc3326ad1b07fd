// Package watch reports edited source files under a directory tree.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("dew.watch")

const (
	DefaultInclude  = "**/*.java"
	DefaultDebounce = 200 * time.Millisecond
)

// Watcher collects writes to the files under root that match include and
// reports them in batches once no further event arrived for the debounce
// interval.
type Watcher struct {
	root     string
	include  string
	debounce time.Duration
	onChange func(paths []string)
	fsw      *fsnotify.Watcher
}

// New watches root and every directory below it that is not hidden.
// Directories created later are watched as they appear.
func New(root, include string, debounce time.Duration, onChange func(paths []string)) (*Watcher, error) {
	if include == "" {
		include = DefaultInclude
	}
	if !doublestar.ValidatePattern(include) {
		return nil, fmt.Errorf("invalid include pattern %q", include)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{root: root, include: include, debounce: debounce, onChange: onChange, fsw: fsw}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", root, err)
	}
	return w, nil
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		log.Debug("watching", "dir", path)
		return w.fsw.Add(path)
	})
}

// Match reports whether path, relative to the root or not, is included.
func (w *Watcher) Match(path string) bool {
	if rel, err := filepath.Rel(w.root, path); err == nil {
		path = rel
	}
	ok, _ := doublestar.Match(w.include, filepath.ToSlash(path))
	return ok
}

// Close releases a watcher that is not running.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run delivers batches until ctx is done, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	pending := map[string]bool{}
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(ev.Name); err != nil {
						log.Warningf("watch %s: %v", ev.Name, err)
					}
					continue
				}
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if !w.Match(ev.Name) {
				continue
			}
			pending[ev.Name] = true
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Warningf("watch: %v", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			slices.Sort(paths)
			clear(pending)
			w.onChange(paths)
		}
	}
}
