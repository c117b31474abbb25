package main

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	divalidator "github.com/wvanhemert/DI-Validator"
)

// options holds the flag values shared by every command.
type options struct {
	project     string
	workspace   string
	main        string
	config      string
	severities  []string
	failOnInfo  bool
	verbose     bool
	concurrency int

	checkFormat string
	graphFormat string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "divalidate",
		Short: "Check the dependency injection wiring of a Go program",
		Long: `divalidate statically checks that every constructor parameter of the
program's entry points is registered with the godi service collection,
that registered services can be built, and reports registrations nothing uses.

The program is located by --project (a directory inside the main module) or
--workspace (a go.work root, with --main selecting the main module). Without
either, the current directory is used.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.project, "project", "p", "", "Directory inside the main module")
	flags.StringVarP(&opts.workspace, "workspace", "w", "", "Workspace directory containing go.work")
	flags.StringVar(&opts.main, "main", "", "Main module path of a multi-module workspace")
	flags.StringVarP(&opts.config, "config", "c", "", "YAML configuration file")
	flags.StringSliceVar(&opts.severities, "severity", nil, "Severities to report: info,warning,error (default all)")
	flags.BoolVar(&opts.failOnInfo, "fail-on-info", false, "Fail on info findings")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Write debug logs to stderr")
	flags.IntVar(&opts.concurrency, "concurrency", 0, "Modules analyzed in parallel (default one per module)")

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Report missing and unused registrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts)
		},
	}
	checkCmd.Flags().StringVarP(&opts.checkFormat, "format", "f", "text", "Output format: text|json")

	graphCmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the dependency graph of the registered services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd, opts)
		},
	}
	graphCmd.Flags().StringVarP(&opts.graphFormat, "format", "f", string(divalidator.GraphDOT), "Graph format: dot|text|adjacency")

	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "List the reported rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRules(cmd.OutOrStdout())
		},
	}

	rootCmd.AddCommand(checkCmd, graphCmd, rulesCmd)
	return rootCmd
}

// flagConfig maps the flags onto a configuration. Only flags the user set
// are carried, so a configuration file is not overridden by defaults.
func (o *options) flagConfig(cmd *cobra.Command) (divalidator.Config, error) {
	var cfg divalidator.Config

	cfg.ProjectDir = o.project
	cfg.WorkspaceDir = o.workspace
	cfg.MainModule = o.main
	cfg.FailOnInfo = o.failOnInfo
	cfg.Concurrency = o.concurrency

	for _, s := range o.severities {
		var sev divalidator.Severity
		if err := sev.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
			return divalidator.Config{}, divalidator.ConfigError{Field: "severity", Cause: err}
		}
		cfg.Severities = append(cfg.Severities, sev)
	}

	if o.verbose {
		cfg.EnableLogging = true
		cfg.LogOutput = cmd.ErrOrStderr()
	}
	return cfg, nil
}
