package main

import (
	"github.com/spf13/cobra"

	"github.com/dhamidi/dew/lsp"
	"github.com/dhamidi/dew/mcp"
)

func newLSPCmd(opts *options) *cobra.Command {
	var tcp string

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start the language server on stdio, or on a TCP address with --tcp.

Each open document is checked on open, change and save, and its
diagnostics are published. Completion is offered after "." and "@".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			server := lsp.NewServer(version, opts.sessions())
			if tcp != "" {
				return server.RunTCP(tcp)
			}
			return server.RunStdio()
		},
	}

	cmd.Flags().StringVar(&tcp, "tcp", "", "listen on this address instead of stdio")

	return cmd
}

func newMCPCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the Model Context Protocol server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			server := mcp.NewServer(version, opts.sessions(), opts.newEnv())
			return server.Run(cmd.Context())
		},
	}
}
