package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhamidi/dew/env"
	"github.com/dhamidi/dew/pom"
)

func newClasspathCmd(opts *options) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "classpath GROUP:ARTIFACT:VERSION[:CLASSIFIER] [FOLDER]",
		Short: "List the packages of an archive, or the classes of one of its folders",
		Long: `Fetch an archive from the local repository or the configured remote
repository and list what it contains.

Without FOLDER, the packages of the archive are printed. With FOLDER
(a slash-separated package path such as java/util), the class files
directly inside it are printed. --all adds the platform classes of the
folder.

Examples:
  dew classpath org.apidesign.bck2brwsr:emul:0.11:rt
  dew classpath org.apidesign.bck2brwsr:emul:0.11:rt java/lang`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, err := pom.ParseCoordinate(args[0])
			if err != nil {
				return err
			}
			cache := env.NewArchiveCache(opts.cfg.Fetcher())
			w := cmd.OutOrStdout()

			if len(args) == 1 {
				archive, err := cache.Get(cmd.Context(), coord.String())
				if err != nil {
					return err
				}
				for _, pkg := range archive.Packages() {
					fmt.Fprintln(w, pkg)
				}
				return nil
			}

			e := env.New(env.WithArchiveCache(cache), env.WithClasspath(coord.String()))
			resources, err := e.ListResources(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			for _, r := range resources {
				if r.Origin != env.OriginArchive && !all {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\n", r.Path, r.Origin)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "include platform classes")

	return cmd
}
