// Package engine sequences extraction, resolution and validation over the
// units of a program.
package engine

import (
	"context"
	"errors"
	"fmt"
	"go/token"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wvanhemert/DI-Validator/internal/extract"
	"github.com/wvanhemert/DI-Validator/internal/finding"
	"github.com/wvanhemert/DI-Validator/internal/graph"
	"github.com/wvanhemert/DI-Validator/internal/model"
	"github.com/wvanhemert/DI-Validator/internal/resolve"
	"github.com/wvanhemert/DI-Validator/internal/validate"
	"github.com/wvanhemert/DI-Validator/internal/workspace"
)

// ErrUnknownMainUnit is returned when the main unit is not among the units.
var ErrUnknownMainUnit = errors.New("main unit not loaded")

// ExtractionError indicates that extraction of a unit was aborted.
type ExtractionError struct {
	Unit string
	Err  error
}

func (e ExtractionError) Error() string {
	return fmt.Sprintf("extract unit %s: %v", e.Unit, e.Err)
}

func (e ExtractionError) Unwrap() error {
	return e.Err
}

var _ error = ExtractionError{}

// Options configures a run.
type Options struct {
	MainUnit    string
	Conventions model.Conventions

	// Severities is the allow-list of reported severities. Empty reports all.
	Severities []finding.Severity

	// Concurrency bounds the per-unit workers. Zero means one per unit.
	Concurrency int

	Logger *slog.Logger
}

// Result is the outcome of a run.
type Result struct {
	Findings []finding.Finding
	Model    *model.Model
	Graph    *graph.DependencyGraph
}

// Run analyzes the units. Extraction of every unit completes before
// resolution starts, and every unit is validated before unused
// registrations are reported.
func Run(ctx context.Context, opts Options, fset *token.FileSet, units []*workspace.Unit) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if !slices.ContainsFunc(units, func(u *workspace.Unit) bool { return u.ID == opts.MainUnit }) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMainUnit, opts.MainUnit)
	}

	m := model.New(opts.MainUnit, fset)
	for _, u := range units {
		for _, path := range u.PackagePaths() {
			m.AddPackage(path, u.ID)
		}
	}

	// Phase 1: extraction, one worker per unit.
	ex := extract.New(opts.Conventions, m, logger)
	g, gctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	for _, u := range units {
		g.Go(func() error {
			if err := ex.Unit(gctx, u); err != nil {
				return ExtractionError{Unit: u.ID, Err: err}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.Debug("extraction complete", slog.Int("units", len(units)))

	// Phase 2: resolution over the merged model.
	depGraph := resolve.Run(m, logger)
	logger.Debug("resolution complete",
		slog.Int("registered", m.RegisteredServices.Len()),
		slog.Int("dependencies", m.RegisteredServiceDependencies.Len()))

	// Phase 3: validation per unit, then unused registrations per unit.
	perUnit := make([][]finding.Finding, len(units))
	workers := len(units)
	if opts.Concurrency > 0 {
		workers = min(workers, opts.Concurrency)
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, u := range units {
		wg.Go(func() {
			sem <- struct{}{}
			defer func() { <-sem }()
			perUnit[i] = validate.Unit(m, u.ID)
		})
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var findings []finding.Finding
	for i, u := range units {
		findings = append(findings, perUnit[i]...)
		findings = append(findings, validate.Unused(m, u.ID)...)
	}

	findings = Filter(findings, opts.Severities)
	logger.Debug("validation complete", slog.Int("findings", len(findings)))

	return &Result{Findings: findings, Model: m, Graph: depGraph}, nil
}

// Filter keeps the findings whose severity is allowed. An empty allow-list
// keeps everything.
func Filter(findings []finding.Finding, allowed []finding.Severity) []finding.Finding {
	if len(allowed) == 0 {
		return findings
	}

	out := findings[:0:0]
	for _, f := range findings {
		if slices.Contains(allowed, f.Severity) {
			out = append(out, f)
		}
	}
	return out
}
