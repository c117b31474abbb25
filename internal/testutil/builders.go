// Package testutil compiles in-memory programs for analysis tests.
//
// Every unit is type-checked on its own: a package imported by two units is
// checked once per unit, so the same declared type yields a different
// types.Type in each unit, as it does for separately loaded modules.
package testutil

import (
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/packages"

	"github.com/wvanhemert/DI-Validator/internal/workspace"
)

type source struct {
	unit  string
	path  string
	files []string
}

// ProgramBuilder provides a fluent interface for building test programs.
type ProgramBuilder struct {
	t       testing.TB
	sources []source
	units   []string
}

// NewProgramBuilder creates a new ProgramBuilder.
func NewProgramBuilder(t testing.TB) *ProgramBuilder {
	return &ProgramBuilder{t: t}
}

// Package adds a package to a unit. Units are compiled in the order they
// first appear.
func (b *ProgramBuilder) Package(unit, path string, files ...string) *ProgramBuilder {
	b.t.Helper()
	require.NotEmpty(b.t, files, "package %s has no files", path)

	known := false
	for _, u := range b.units {
		known = known || u == unit
	}
	if !known {
		b.units = append(b.units, unit)
	}

	b.sources = append(b.sources, source{unit: unit, path: path, files: files})
	return b
}

// Program is a compiled test program.
type Program struct {
	Fset  *token.FileSet
	Units []*workspace.Unit
}

// Unit returns the compiled unit with the given ID.
func (p *Program) Unit(id string) *workspace.Unit {
	for _, u := range p.Units {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// Build compiles every unit separately with a shared file set.
func (b *ProgramBuilder) Build() *Program {
	b.t.Helper()

	universe := make(map[string][]string, len(stubs)+len(b.sources))
	for path, files := range stubs {
		universe[path] = files
	}
	for _, src := range b.sources {
		universe[src.path] = src.files
	}

	prog := &Program{Fset: token.NewFileSet()}
	for _, unit := range b.units {
		imp := &unitImporter{
			fset:     prog.Fset,
			universe: universe,
			checked:  make(map[string]*packages.Package),
			fallback: importer.ForCompiler(prog.Fset, "source", nil),
		}

		u := &workspace.Unit{ID: unit, Dir: unit, Fset: prog.Fset}
		for _, src := range b.sources {
			if src.unit != unit {
				continue
			}
			pkg, err := imp.check(src.path)
			require.NoError(b.t, err, "compile %s in unit %s", src.path, unit)
			pkg.Module = &packages.Module{Path: unit, Main: unit == b.units[0]}
			u.Packages = append(u.Packages, pkg)
		}
		prog.Units = append(prog.Units, u)
	}

	return prog
}

// unitImporter type-checks packages from source for a single unit.
type unitImporter struct {
	fset     *token.FileSet
	universe map[string][]string
	checked  map[string]*packages.Package
	fallback types.Importer
}

func (u *unitImporter) Import(path string) (*types.Package, error) {
	if _, ok := u.universe[path]; !ok {
		return u.fallback.Import(path)
	}

	pkg, err := u.check(path)
	if err != nil {
		return nil, err
	}
	return pkg.Types, nil
}

func (u *unitImporter) check(path string) (*packages.Package, error) {
	if pkg, ok := u.checked[path]; ok {
		return pkg, nil
	}

	srcs := u.universe[path]
	files := make([]*ast.File, 0, len(srcs))
	names := make([]string, 0, len(srcs))
	for i, src := range srcs {
		name := fmt.Sprintf("%s/file%d.go", path, i)
		f, err := parser.ParseFile(u.fset, name, src, parser.ParseComments|parser.SkipObjectResolution)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
		names = append(names, name)
	}

	info := &types.Info{
		Types:      make(map[ast.Expr]types.TypeAndValue),
		Instances:  make(map[*ast.Ident]types.Instance),
		Defs:       make(map[*ast.Ident]types.Object),
		Uses:       make(map[*ast.Ident]types.Object),
		Implicits:  make(map[ast.Node]types.Object),
		Selections: make(map[*ast.SelectorExpr]*types.Selection),
		Scopes:     make(map[ast.Node]*types.Scope),
	}

	conf := types.Config{Importer: u}
	tpkg, err := conf.Check(path, u.fset, files, info)
	if err != nil {
		return nil, err
	}

	pkg := &packages.Package{
		ID:        path,
		Name:      tpkg.Name(),
		PkgPath:   path,
		GoFiles:   names,
		Fset:      u.fset,
		Syntax:    files,
		Types:     tpkg,
		TypesInfo: info,
	}
	u.checked[path] = pkg
	return pkg, nil
}
