package divalidator

import (
	"context"
	"errors"
	"go/token"
	"log/slog"

	"github.com/wvanhemert/DI-Validator/internal/engine"
	"github.com/wvanhemert/DI-Validator/internal/workspace"
)

// Analyze locates and loads the program named by cfg and validates its
// container wiring.
//
// Configuration problems are returned as ConfigError. When the program
// cannot be located or loaded the error matches ErrInconclusive.
func Analyze(ctx context.Context, cfg Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.logger()

	layout, err := workspace.Locate(workspace.Locator{
		ProjectDir:   cfg.ProjectDir,
		ProjectType:  cfg.ProjectType,
		WorkspaceDir: cfg.WorkspaceDir,
		MainModule:   cfg.MainModule,
	})
	if err != nil {
		if errors.Is(err, workspace.ErrNoLocator) {
			return nil, ConfigError{Cause: err}
		}
		return nil, WorkspaceLoadError{Path: locatorPath(cfg), Cause: err}
	}
	logger.Debug("located workspace",
		slog.String("root", layout.Root),
		slog.String("main", layout.Main),
		slog.Int("modules", len(layout.Modules)))

	units, err := workspace.Load(ctx, layout, logger)
	if err != nil {
		return nil, WorkspaceLoadError{Path: layout.Root, Cause: err}
	}

	var fset *token.FileSet
	if len(units) > 0 {
		fset = units[0].Fset
	}
	return analyzeUnits(ctx, cfg, logger, layout.Main, fset, units)
}

func analyzeUnits(ctx context.Context, cfg Config, logger *slog.Logger, mainUnit string, fset *token.FileSet, units []*workspace.Unit) (*Report, error) {
	res, err := engine.Run(ctx, engine.Options{
		MainUnit:    mainUnit,
		Conventions: cfg.Conventions.WithDefaults(),
		Severities:  cfg.Severities,
		Concurrency: cfg.Concurrency,
		Logger:      logger,
	}, fset, units)
	if err != nil {
		if errors.Is(err, engine.ErrUnknownMainUnit) {
			return nil, WorkspaceLoadError{Path: mainUnit, Cause: err}
		}
		return nil, err
	}

	ids := make([]string, 0, len(units))
	for _, u := range units {
		ids = append(ids, u.ID)
	}

	report := newReport(mainUnit, ids, res.Findings, res.Model, res.Graph)
	logger.Debug("analysis complete",
		slog.String("run", report.RunID.String()),
		slog.Int("findings", len(report.Findings)),
		slog.Int("registrations", len(report.Registrations)))
	return report, nil
}

func locatorPath(cfg Config) string {
	switch {
	case cfg.ProjectDir != "":
		return cfg.ProjectDir
	case cfg.WorkspaceDir != "":
		return cfg.WorkspaceDir
	default:
		return ""
	}
}
