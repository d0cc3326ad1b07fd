package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/dhamidi/dew/service"
)

// sourceFiles expands the arguments into source files. Directories are
// walked and their files kept when their path below the directory
// matches include. Files named directly are always kept.
func sourceFiles(args []string, include string) ([]string, error) {
	if !doublestar.ValidatePattern(include) {
		return nil, fmt.Errorf("invalid include pattern %q", include)
	}
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			rel, err := filepath.Rel(arg, path)
			if err != nil {
				return err
			}
			if ok, _ := doublestar.Match(include, filepath.ToSlash(rel)); ok {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

type result struct {
	path string
	resp service.Response
	err  error
}

// handleFiles runs one request per file in parallel, each file in its
// own endpoint. Results keep the order of files.
func handleFiles(ctx context.Context, opts *options, files []string, typ service.RequestType) []result {
	results := make([]result, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range files {
		g.Go(func() error {
			results[i] = handleFile(ctx, opts, path, typ, 0)
			return nil
		})
	}
	g.Wait()
	return results
}

func handleFile(ctx context.Context, opts *options, path string, typ service.RequestType, offset int) result {
	data, err := os.ReadFile(path)
	if err != nil {
		return result{path: path, err: err}
	}
	endpoint := service.New(service.WithEnvironment(opts.newEnv))
	resp := endpoint.Handle(ctx, service.Request{
		Type:   typ,
		HTML:   "<!-- " + filepath.Base(path) + " -->",
		Java:   string(data),
		Offset: offset,
	})
	return result{path: path, resp: resp}
}
