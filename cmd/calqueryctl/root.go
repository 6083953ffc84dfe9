package main

import (
	"github.com/spf13/cobra"

	"github.com/calquery/calquery/calqueryconfig"
)

// globalOptions holds the flags every subcommand needs, the way
// agisilaos-acal's globalOptions threads --config-like settings down
// into each newXCmd constructor.
type globalOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "calqueryctl",
		Short:         "Query an in-memory calendar built from .ics files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a calqueryctl config file (optional)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level (debug|info|warn|error)")

	root.AddCommand(newQueryCmd(opts))
	return root
}

// loadConfig resolves the effective configuration: the config file if
// one was given, else calqueryconfig's defaults, with --log-level
// overriding whatever the file (or the defaults) set.
func loadConfig(opts *globalOptions) (*calqueryconfig.Config, error) {
	var cfg *calqueryconfig.Config
	if opts.configPath != "" {
		c, err := calqueryconfig.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		cfg = calqueryconfig.Default()
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	return cfg, nil
}
