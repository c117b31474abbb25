package workspace

import (
	"context"
	"errors"
	"fmt"
	"go/token"
	"log/slog"

	"golang.org/x/tools/go/packages"
)

// ErrLoad is wrapped by every failure to open the program.
var ErrLoad = errors.New("workspace could not be loaded")

// Unit is one separately loaded module.
type Unit struct {
	ID       string // module path
	Dir      string
	Fset     *token.FileSet // shared by every unit of a load
	Packages []*packages.Package
}

// PackagePaths returns the import paths of the unit's packages.
func (u *Unit) PackagePaths() []string {
	out := make([]string, 0, len(u.Packages))
	for _, pkg := range u.Packages {
		out = append(out, pkg.PkgPath)
	}
	return out
}

const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedModule

// Load loads every module of the layout in turn with a shared file set.
// Packages with type errors are kept and logged; a module that yields no
// packages at all fails the load.
func Load(ctx context.Context, layout *Layout, logger *slog.Logger) ([]*Unit, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	fset := token.NewFileSet()
	units := make([]*Unit, 0, len(layout.Modules))

	for _, mod := range layout.Modules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		logger.Debug("loading module", slog.String("module", mod.Path), slog.String("dir", mod.Dir))

		cfg := &packages.Config{
			Context: ctx,
			Mode:    loadMode,
			Dir:     mod.Dir,
			Fset:    fset,
			Tests:   false,
		}

		pkgs, err := packages.Load(cfg, "./...")
		if err != nil {
			return nil, fmt.Errorf("%w: module %s: %w", ErrLoad, mod.Path, err)
		}

		unit := &Unit{ID: mod.Path, Dir: mod.Dir, Fset: fset}
		for _, pkg := range pkgs {
			for _, e := range pkg.Errors {
				logger.Warn("package error",
					slog.String("package", pkg.PkgPath),
					slog.String("error", e.Error()))
			}
			if pkg.Types == nil || pkg.TypesInfo == nil {
				continue
			}
			unit.Packages = append(unit.Packages, pkg)
		}

		if len(unit.Packages) == 0 {
			return nil, fmt.Errorf("%w: module %s has no loadable packages", ErrLoad, mod.Path)
		}

		logger.Debug("loaded module",
			slog.String("module", mod.Path),
			slog.Int("packages", len(unit.Packages)))

		units = append(units, unit)
	}

	return units, nil
}
