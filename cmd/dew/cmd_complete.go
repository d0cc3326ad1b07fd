package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhamidi/dew/service"
)

func newCompleteCmd(opts *options) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "complete FILE.java:OFFSET",
		Short: "Print the completions at a byte offset of a source unit",
		Long: `Print one completion candidate per line, in the order the service
ranks them. With --long each line also carries the kind and the class
that declares the candidate.

Example:
  dew complete Hello.java:120`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, offset, err := parseLocation(args[0])
			if err != nil {
				return err
			}
			r := handleFile(cmd.Context(), opts, path, service.Autocomplete, offset)
			if r.err != nil {
				return r.err
			}
			if r.resp.Status != service.StatusCompleted {
				return fmt.Errorf("%s", r.resp.Status)
			}
			w := cmd.OutOrStdout()
			for _, it := range r.resp.Items {
				if verbose {
					fmt.Fprintf(w, "%s\t%s\t%s\n", it.DisplayText, it.Kind, it.ClassName)
					continue
				}
				fmt.Fprintln(w, it.Text)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "long", "l", false, "print display text, kind and declaring class")

	return cmd
}

// parseLocation splits FILE:OFFSET.
func parseLocation(loc string) (string, int, error) {
	i := strings.LastIndexByte(loc, ':')
	if i <= 0 {
		return "", 0, fmt.Errorf("expected FILE:OFFSET, got %q", loc)
	}
	offset, err := strconv.Atoi(loc[i+1:])
	if err != nil || offset < 0 {
		return "", 0, fmt.Errorf("invalid offset in %q", loc)
	}
	return loc[:i], offset, nil
}
