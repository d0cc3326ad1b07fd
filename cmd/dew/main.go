package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/dhamidi/dew/config"
	"github.com/dhamidi/dew/env"
	"github.com/dhamidi/dew/service"
)

const version = "0.1.0"

var log = commonlog.GetLogger("dew")

// options are the persistent flags and the configuration they select.
type options struct {
	configPath string
	verbosity  int
	logFile    string
	classpath  []string

	cfg    *config.Config
	newEnv func() *env.Environment
}

func (o *options) load(cmd *cobra.Command) error {
	if o.logFile != "" {
		commonlog.Configure(o.verbosity, &o.logFile)
	} else {
		commonlog.Configure(o.verbosity, nil)
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("classpath") {
		cfg.Classpath = o.classpath
	}
	o.cfg = cfg
	o.newEnv = cfg.Environments()
	return nil
}

func (o *options) sessions() *service.Sessions {
	return service.NewSessions(service.WithEnvironment(o.newEnv))
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "dew",
		Short:         "A Java development service: compile, check and complete single source units",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to dew.toml (default ./dew.toml if present)")
	flags.CountVarP(&opts.verbosity, "verbose", "v", "log verbosity, repeat for more")
	flags.StringVar(&opts.logFile, "log-file", "", "write logs to this file instead of stderr")
	flags.StringSliceVar(&opts.classpath, "classpath", nil, "Maven coordinates g:a:v[:c] replacing the configured classpath")

	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newLSPCmd(opts))
	rootCmd.AddCommand(newMCPCmd(opts))
	rootCmd.AddCommand(newCompileCmd(opts))
	rootCmd.AddCommand(newCheckCmd(opts))
	rootCmd.AddCommand(newCompleteCmd(opts))
	rootCmd.AddCommand(newClasspathCmd(opts))

	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		rootCmd.PrintErrln("error:", err)
		stop()
		os.Exit(1)
	}
}
