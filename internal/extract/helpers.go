package extract

import (
	"go/ast"
	"go/token"
	"go/types"
	"log/slog"

	"github.com/wvanhemert/DI-Validator/internal/model"
	"github.com/wvanhemert/DI-Validator/internal/symbols"
)

// sink receives the registrations and helper calls found in one scope.
type sink interface {
	register(r *model.Registration)
	call(obj types.Object)
	owner() string
}

// helperSink collects into a helper declaration.
type helperSink struct {
	rec *model.HelperRecord
}

func (s helperSink) register(r *model.Registration) {
	s.rec.Registrations = append(s.rec.Registrations, r)
}

func (s helperSink) call(obj types.Object) {
	h := symbols.NewFuncHandle(obj)
	for _, c := range s.rec.Calls {
		if c.Name == h.Name {
			return
		}
	}
	s.rec.Calls = append(s.rec.Calls, h)
}

func (s helperSink) owner() string { return s.rec.Helper.Name }

// collectHelpers records every function that extends the collection or
// builds a module, and every package-level module variable.
func (p *pass) collectHelpers(file *ast.File) {
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			fn := p.helperFunc(d)
			if fn == nil {
				continue
			}

			rec := &model.HelperRecord{Helper: symbols.NewFuncHandle(fn.Origin()), Unit: p.unit}
			p.scanHelper(helperSink{rec}, d.Body)
			p.addHelper(rec)

		case *ast.GenDecl:
			if d.Tok != token.VAR {
				continue
			}
			for _, spec := range d.Specs {
				vs := spec.(*ast.ValueSpec)
				for i, id := range vs.Names {
					v, ok := p.info.Defs[id].(*types.Var)
					if !ok || i >= len(vs.Values) || !p.isModuleOption(v.Type()) {
						continue
					}

					rec := &model.HelperRecord{Helper: symbols.NewFuncHandle(v), Unit: p.unit}
					p.moduleExpr(helperSink{rec}, vs.Values[i])
					p.addHelper(rec)
				}
			}
		}
	}
}

// helperFunc returns the function declared by d when it extends the
// collection or builds a module, or nil.
func (p *pass) helperFunc(d *ast.FuncDecl) *types.Func {
	fn, ok := p.info.Defs[d.Name].(*types.Func)
	if !ok || d.Body == nil {
		return nil
	}

	sig := fn.Type().(*types.Signature)
	if !p.extendsCollection(sig) && !p.returnsModule(sig) {
		return nil
	}
	return fn
}

func (p *pass) addHelper(rec *model.HelperRecord) {
	if rec.Empty() {
		return
	}

	p.model.AddHelper(rec)

	calls := make([]string, len(rec.Calls))
	for i, c := range rec.Calls {
		calls[i] = c.String()
	}
	p.logger.Debug("collected helper",
		slog.String("helper", rec.Helper.Name),
		slog.Int("registrations", len(rec.Registrations)),
		slog.Any("calls", calls))
}

// scanHelper classifies every call in a helper body.
func (p *pass) scanHelper(s sink, body ast.Node) {
	ast.Inspect(body, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		return p.helperCall(s, call)
	})
}

// helperCall handles one call inside a helper. It reports whether the
// inspection should descend into the call's children.
func (p *pass) helperCall(s sink, call *ast.CallExpr) bool {
	fn := p.callee(call)
	if fn == nil {
		return true
	}

	// Methods of the collection itself.
	if _, ok := p.collectionReceiver(call); ok {
		if fn.Name() == p.conv.ModulesMethod {
			for _, arg := range call.Args {
				p.moduleExpr(s, arg)
			}
			return false
		}
		if lt, try, ok := p.conv.Registration(fn.Name()); ok {
			p.addRegistration(s, call, call.Args, nil, lt, try, fn.Name())
		}
		return true
	}

	sig := fn.Type().(*types.Signature)

	if p.isContainer(fn) {
		switch {
		case p.extendsCollection(sig):
			if lt, try, ok := p.conv.Registration(fn.Name()); ok && len(call.Args) > 0 {
				p.addRegistration(s, call, call.Args[1:], p.typeArgs(call), lt, try, fn.Name())
			}
			return true
		case p.returnsModule(sig):
			p.moduleExpr(s, call)
			return false
		}
		return true
	}

	if p.extendsCollection(sig) || p.returnsModule(sig) {
		s.call(fn.Origin())
		p.logger.Debug("helper calls helper",
			slog.String("helper", s.owner()),
			slog.String("callee", fn.Name()))
	}
	return true
}

// moduleExpr follows a module option expression to the registrations and
// helpers it contributes.
func (p *pass) moduleExpr(s sink, expr ast.Expr) {
	p.followModule(s, expr, make(map[*types.Var]bool))
}

func (p *pass) followModule(s sink, expr ast.Expr, seen map[*types.Var]bool) {
	switch x := ast.Unparen(expr).(type) {
	case *ast.CallExpr:
		fn := p.callee(x)
		if fn == nil {
			return
		}
		sig := fn.Type().(*types.Signature)

		if p.isContainer(fn) {
			if fn.Name() == p.conv.ModuleConstructor {
				for i, arg := range x.Args {
					if i == 0 && !p.isModuleOption(p.typeOf(arg)) {
						continue // module name
					}
					p.followModule(s, arg, seen)
				}
				return
			}
			if lt, try, ok := p.conv.Registration(fn.Name()); ok && !p.extendsCollection(sig) {
				p.addRegistration(s, x, x.Args, p.typeArgs(x), lt, try, fn.Name())
			}
			return
		}

		if p.returnsModule(sig) {
			s.call(fn.Origin())
		}

	case *ast.Ident, *ast.SelectorExpr:
		switch obj := p.objectOf(x).(type) {
		case *types.Var:
			switch obj.Kind() {
			case types.PackageVar:
				if p.isModuleOption(obj.Type()) {
					s.call(obj)
				}
			case types.LocalVar:
				if init, ok := p.locals[obj]; ok && !seen[obj] {
					seen[obj] = true
					p.followModule(s, init, seen)
				}
			}
		case *types.Func:
			if p.extendsCollection(obj.Type().(*types.Signature)) {
				s.call(obj.Origin())
			}
		}

	case *ast.FuncLit:
		p.scanHelper(s, x.Body)
	}
}
