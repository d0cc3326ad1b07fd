package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dhamidi/dew/service"
	"github.com/dhamidi/dew/watch"
)

const (
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiReset  = "\033[0m"
)

func newCheckCmd(opts *options) *cobra.Command {
	var (
		include string
		watchFS bool
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "check FILE.java|DIR...",
		Short: "Report the errors of source units as file:line:col: kind: msg",
		Long: `Check every named source unit and print one line per diagnostic.

With --watch, dew keeps running and checks files again when they are
written. Only files matching --include are watched.

Examples:
  dew check Hello.java
  dew check --watch src/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := sourceFiles(args, include)
			if err != nil {
				return err
			}
			p := &printer{w: cmd.OutOrStdout(), color: useColor(noColor)}
			errs := p.print(handleFiles(cmd.Context(), opts, files, service.CheckForErrors))
			if !watchFS {
				if errs > 0 {
					return fmt.Errorf("%d errors", errs)
				}
				return nil
			}
			return watchAndCheck(cmd.Context(), opts, p, args, include)
		},
	}

	cmd.Flags().StringVar(&include, "include", watch.DefaultInclude, "glob selecting files below directory arguments")
	cmd.Flags().BoolVarP(&watchFS, "watch", "w", false, "check files again when they change")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")

	return cmd
}

func useColor(noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

type printer struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

// print writes the diagnostics of every result and returns the number of
// errors among them.
func (p *printer) print(results []result) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	errs := 0
	for _, r := range results {
		if r.err != nil {
			fmt.Fprintf(p.w, "%s: %v\n", r.path, r.err)
			errs++
			continue
		}
		for _, e := range r.resp.Errors {
			fmt.Fprintf(p.w, "%s:%d:%d: %s: %s\n", r.path, e.Line, e.Col, p.kind(e.Kind), e.Msg)
			if e.Kind == "ERROR" {
				errs++
			}
		}
	}
	return errs
}

func (p *printer) kind(kind string) string {
	if !p.color {
		return kind
	}
	switch kind {
	case "ERROR":
		return ansiRed + kind + ansiReset
	case "WARNING":
		return ansiYellow + kind + ansiReset
	}
	return ansiCyan + kind + ansiReset
}

// watchAndCheck watches every directory argument, and the directory of
// every file argument, until ctx is done.
func watchAndCheck(ctx context.Context, opts *options, p *printer, args []string, include string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var watchers []*watch.Watcher
	for _, arg := range args {
		root, pattern := arg, include
		if info, err := os.Stat(arg); err == nil && !info.IsDir() {
			root, pattern = filepath.Dir(arg), filepath.Base(arg)
		}
		w, err := watch.New(root, pattern, watch.DefaultDebounce, func(paths []string) {
			log.Info("changed", "files", len(paths))
			p.print(handleFiles(ctx, opts, paths, service.CheckForErrors))
		})
		if err != nil {
			for _, w := range watchers {
				w.Close()
			}
			return err
		}
		watchers = append(watchers, w)
	}

	errc := make(chan error, len(watchers))
	for _, w := range watchers {
		go func() { errc <- w.Run(ctx) }()
	}
	log.Info("watching", "roots", len(watchers))

	var first error
	for range watchers {
		if err := <-errc; err != nil && first == nil {
			first = err
			cancel()
		}
	}
	return first
}
