package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dhamidi/dew/service"
)

func newCompileCmd(opts *options) *cobra.Command {
	var (
		outDir  string
		include string
	)

	cmd := &cobra.Command{
		Use:   "compile FILE.java|DIR...",
		Short: "Compile source units and write their class files",
		Long: `Compile every named source unit and write its class files below the
output directory, one file per class, at the path of its binary name
(x/y/z/Hello.class).

Each file is compiled on its own against the configured classpath.
Directories are searched for files matching --include.

Examples:
  dew compile Hello.java -o out/
  dew compile src/ --include 'x/**/*.java'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := sourceFiles(args, include)
			if err != nil {
				return err
			}
			failed := 0
			w := cmd.OutOrStdout()
			for _, r := range handleFiles(cmd.Context(), opts, files, service.Compile) {
				if !writeCompiled(w, r, outDir) {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed to compile", failed, len(files))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "out", "output directory for class files")
	cmd.Flags().StringVar(&include, "include", "**/*.java", "glob selecting files below directory arguments")

	return cmd
}

// writeCompiled reports the errors of r and writes its classes. It
// returns whether the file compiled without errors.
func writeCompiled(w io.Writer, r result, outDir string) bool {
	if r.err != nil {
		fmt.Fprintf(w, "%s: %v\n", r.path, r.err)
		return false
	}
	for _, e := range r.resp.Errors {
		fmt.Fprintf(w, "%s:%s\n", r.path, e)
	}
	if len(r.resp.Classes) == 0 {
		fmt.Fprintf(w, "%s: %s\n", r.path, r.resp.Status)
		return false
	}
	for _, c := range r.resp.Classes {
		dest := filepath.Join(outDir, filepath.FromSlash(c.ClassName))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			fmt.Fprintf(w, "%s: %v\n", r.path, err)
			return false
		}
		if err := os.WriteFile(dest, c.ByteCode, 0o644); err != nil {
			fmt.Fprintf(w, "%s: %v\n", r.path, err)
			return false
		}
		log.Debug("wrote class", "path", dest, "size", len(c.ByteCode))
	}
	return !hasErrors(r.resp.Errors)
}

func hasErrors(errs []service.Error) bool {
	for _, e := range errs {
		if e.Kind == "ERROR" {
			return true
		}
	}
	return false
}
