package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/dig"

	divalidator "github.com/wvanhemert/DI-Validator"
)

// runParams are the components every command needs.
type runParams struct {
	dig.In

	Config divalidator.Config
	Report *divalidator.Report
	Out    io.Writer `name:"stdout"`
}

// newContainer wires the configuration and the analysis for one command.
func newContainer(cmd *cobra.Command, opts *options) (*dig.Container, error) {
	c := dig.New()

	providers := []any{
		func() context.Context { return cmd.Context() },
		func() (divalidator.Config, error) { return resolveConfig(cmd, opts) },
		func(ctx context.Context, cfg divalidator.Config) (*divalidator.Report, error) {
			return divalidator.Analyze(ctx, cfg)
		},
	}
	for _, p := range providers {
		if err := c.Provide(p); err != nil {
			return nil, err
		}
	}
	if err := c.Provide(func() io.Writer { return cmd.OutOrStdout() }, dig.Name("stdout")); err != nil {
		return nil, err
	}
	return c, nil
}

// resolveConfig applies the flags on top of the configuration file.
func resolveConfig(cmd *cobra.Command, opts *options) (divalidator.Config, error) {
	var cfg divalidator.Config
	if opts.config != "" {
		fileCfg, err := divalidator.LoadConfig(opts.config)
		if err != nil {
			return divalidator.Config{}, err
		}
		cfg = fileCfg
	}

	flagCfg, err := opts.flagConfig(cmd)
	if err != nil {
		return divalidator.Config{}, err
	}
	cfg = cfg.Merge(flagCfg)

	if cfg.ProjectDir == "" && cfg.WorkspaceDir == "" && cfg.ProjectType == nil {
		cfg.ProjectDir = "."
	}
	return cfg, cfg.Validate()
}

func invoke(cmd *cobra.Command, opts *options, fn func(runParams) error) error {
	c, err := newContainer(cmd, opts)
	if err != nil {
		return err
	}
	return dig.RootCause(c.Invoke(fn))
}

func runCheck(cmd *cobra.Command, opts *options) error {
	return invoke(cmd, opts, func(p runParams) error {
		var err error
		switch opts.checkFormat {
		case "text", "":
			err = p.Report.WriteText(p.Out)
		case "json":
			err = p.Report.WriteJSON(p.Out)
		default:
			err = divalidator.ConfigError{Field: "format", Cause: fmt.Errorf("unknown format %q", opts.checkFormat)}
		}
		if err != nil {
			return err
		}

		if p.Report.Failed(p.Config) {
			return errFailed
		}
		return nil
	})
}

func runGraph(cmd *cobra.Command, opts *options) error {
	return invoke(cmd, opts, func(p runParams) error {
		return p.Report.WriteGraph(p.Out, divalidator.GraphFormat(opts.graphFormat))
	})
}

func runRules(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSEVERITY\tTITLE")
	for _, r := range divalidator.Rules() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID, r.Severity, r.Title)
	}
	return tw.Flush()
}
