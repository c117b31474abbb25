// Package extract builds the analysis model from the syntax and type
// information of each compiled unit.
package extract

import (
	"context"
	"go/ast"
	"go/types"
	"log/slog"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/wvanhemert/DI-Validator/internal/model"
	"github.com/wvanhemert/DI-Validator/internal/signature"
	"github.com/wvanhemert/DI-Validator/internal/symbols"
	"github.com/wvanhemert/DI-Validator/internal/workspace"
)

// DigPackage is always accepted as a source of In and Out markers.
const DigPackage = "go.uber.org/dig"

// Extractor extracts registrations, classes and helpers from units into a
// shared model. It is safe to run Unit for several units concurrently.
type Extractor struct {
	conv   model.Conventions
	model  *model.Model
	sigs   *signature.Analyzer
	logger *slog.Logger
}

// New creates an Extractor writing into m.
func New(conv model.Conventions, m *model.Model, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	conv = conv.WithDefaults()

	return &Extractor{
		conv:  conv,
		model: m,
		sigs: signature.New(func(pkgPath string) bool {
			return conv.IsContainerPackage(pkgPath) || pkgPath == DigPackage
		}).WithBuiltins(conv.IsBuiltin),
		logger: logger,
	}
}

// Unit extracts one compiled unit. Direct registrations and helper calls are
// collected only from the main unit; classes and helper declarations from
// every unit.
func (e *Extractor) Unit(ctx context.Context, unit *workspace.Unit) error {
	main := unit.ID == e.model.MainUnit

	for _, pkg := range unit.Packages {
		e.model.AddPackage(pkg.PkgPath, unit.ID)
	}

	for _, pkg := range unit.Packages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if pkg.Types == nil || pkg.TypesInfo == nil || e.conv.IsContainerPackage(pkg.PkgPath) {
			continue
		}

		p := &pass{
			Extractor: e,
			unit:      unit.ID,
			pkg:       pkg,
			info:      pkg.TypesInfo,
			locals:    make(map[*types.Var]ast.Expr),
		}

		p.collectClasses()
		for _, file := range pkg.Syntax {
			p.collectLocals(file)
			p.collectHelpers(file)
			if main {
				p.collectDirect(file)
			}
		}
	}

	e.logger.Debug("extracted unit",
		slog.String("unit", unit.ID),
		slog.Bool("main", main),
		slog.Int("packages", len(unit.Packages)))

	return nil
}

// pass is the extraction state of one package.
type pass struct {
	*Extractor
	unit   string
	pkg    *packages.Package
	info   *types.Info
	locals map[*types.Var]ast.Expr
}

// collectClasses records every exported New* constructor of a type declared
// in the package. A constructor taking a parameter object is the class's
// primary form and replaces its other constructors.
func (p *pass) collectClasses() {
	scope := p.pkg.Types.Scope()

	type candidate struct {
		class *types.TypeName
		recs  []*model.ClassRecord
	}
	var (
		order []*types.TypeName
		byTN  = make(map[*types.TypeName]*candidate)
	)

	for _, name := range scope.Names() {
		fn, ok := scope.Lookup(name).(*types.Func)
		if !ok || !fn.Exported() || !strings.HasPrefix(name, p.conv.ConstructorPrefix) {
			continue
		}

		sig := fn.Type().(*types.Signature)
		if sig.TypeParams().Len() > 0 {
			continue
		}

		info := p.sigs.Analyze(sig)
		if info.IsResultObject {
			continue
		}

		result := info.ServiceType()
		tn := p.declaredClass(result)
		if tn == nil {
			continue
		}

		c, ok := byTN[tn]
		if !ok {
			c = &candidate{class: tn}
			byTN[tn] = c
			order = append(order, tn)
		}
		c.recs = append(c.recs, &model.ClassRecord{
			Type:        symbols.NewTypeHandle(result),
			Constructor: fn,
			Info:        info,
			Unit:        p.unit,
			EntryPoint:  p.isEntryPoint(tn),
			Primary:     info.IsParamObject,
		})
	}

	for _, tn := range order {
		recs := byTN[tn].recs
		for _, rec := range recs {
			if rec.Primary {
				recs = []*model.ClassRecord{rec}
				break
			}
		}

		for _, rec := range recs {
			p.model.AddClass(rec)
			p.logger.Debug("collected class",
				slog.String("class", rec.Type.String()),
				slog.String("constructor", rec.Constructor.Name()),
				slog.Bool("entry_point", rec.EntryPoint),
				slog.Bool("primary", rec.Primary))
		}
	}
}

// declaredClass returns the type name behind t (or *t) when it is a
// non-generic, non-interface type declared in the package.
func (p *pass) declaredClass(t types.Type) *types.TypeName {
	if t == nil {
		return nil
	}
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}

	named, ok := types.Unalias(t).(*types.Named)
	if !ok || named.TypeParams().Len() > 0 || types.IsInterface(named) {
		return nil
	}
	if named.Obj().Pkg() != p.pkg.Types {
		return nil
	}
	return named.Obj()
}

// isEntryPoint reports whether a class is instantiated by the hosting
// framework: its name carries an entry-point suffix, or a chain of embedded
// fields reaches a known entry-point base.
func (p *pass) isEntryPoint(tn *types.TypeName) bool {
	if p.conv.IsEntryPointName(tn.Name()) {
		return true
	}
	return p.embedsEntryPointBase(tn.Type(), make(map[*types.TypeName]bool))
}

func (p *pass) embedsEntryPointBase(t types.Type, seen map[*types.TypeName]bool) bool {
	st, ok := t.Underlying().(*types.Struct)
	if !ok {
		return false
	}

	for i := 0; i < st.NumFields(); i++ {
		field := st.Field(i)
		if !field.Anonymous() {
			continue
		}

		tn := symbols.TypeName(field.Type())
		if tn == nil || seen[tn] {
			continue
		}
		seen[tn] = true

		if p.conv.IsEntryPointBase(tn.Name()) || p.embedsEntryPointBase(tn.Type(), seen) {
			return true
		}
	}
	return false
}

// collectLocals maps function-local variables to their single initializer so
// module values built in a local can be followed.
func (p *pass) collectLocals(file *ast.File) {
	ast.Inspect(file, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.AssignStmt:
			if len(x.Lhs) != len(x.Rhs) {
				return true
			}
			for i, lhs := range x.Lhs {
				if id, ok := lhs.(*ast.Ident); ok {
					if v, ok := p.info.Defs[id].(*types.Var); ok && v.Kind() == types.LocalVar {
						p.locals[v] = x.Rhs[i]
					}
				}
			}
		case *ast.ValueSpec:
			if len(x.Names) != len(x.Values) {
				return true
			}
			for i, id := range x.Names {
				if v, ok := p.info.Defs[id].(*types.Var); ok && v.Kind() == types.LocalVar {
					p.locals[v] = x.Values[i]
				}
			}
		}
		return true
	})
}
