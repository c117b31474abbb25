package extract

import (
	"go/ast"
	"go/types"
	"log/slog"

	"github.com/wvanhemert/DI-Validator/internal/model"
)

// directSink writes registrations rooted in the builder straight into the
// model.
type directSink struct {
	p *pass
}

func (s directSink) register(r *model.Registration) {
	s.p.model.AddRegistration(r)
	s.p.logger.Debug("registered type",
		slog.String("service", r.Service.String()),
		slog.String("method", r.Method),
		slog.String("lifetime", r.Lifetime.String()))
}

func (s directSink) call(obj types.Object) {
	if s.p.model.CalledRegistrationHelpers.Add(obj) {
		s.p.logger.Debug("builder calls helper", slog.String("helper", obj.Name()))
	}
}

func (s directSink) owner() string { return "" }

// collectDirect records registration calls, module additions and helper
// calls rooted in the builder's services member. Helper bodies are left to
// collectHelpers; they only count once the builder calls the helper.
func (p *pass) collectDirect(file *ast.File) {
	s := directSink{p}

	for _, decl := range file.Decls {
		if fd, ok := decl.(*ast.FuncDecl); ok && p.helperFunc(fd) != nil {
			continue
		}
		p.inspectDirect(s, decl)
	}
}

func (p *pass) inspectDirect(s directSink, root ast.Node) {
	ast.Inspect(root, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}

		fn := p.callee(call)
		if fn == nil {
			return true
		}

		if recv, ok := p.collectionReceiver(call); ok {
			if !p.rooted(recv) {
				return true
			}
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
		if !p.extendsCollection(sig) || len(call.Args) == 0 || !p.rooted(call.Args[0]) {
			return true
		}

		if p.isContainer(fn) {
			if lt, try, ok := p.conv.Registration(fn.Name()); ok {
				p.addRegistration(s, call, call.Args[1:], p.typeArgs(call), lt, try, fn.Name())
			}
			return true
		}

		s.call(fn.Origin())
		return true
	})
}

// rooted reports whether expr denotes the builder's services member. With a
// builder type configured that is x.Services or x.Services() for a variable
// x of the builder type; otherwise any variable of the collection type.
// Parameters and locals initialized from a parameter never qualify, so
// calls inside helpers are not direct.
func (p *pass) rooted(expr ast.Expr) bool {
	expr = ast.Unparen(expr)

	if p.conv.BuilderType == "" {
		v := p.variable(expr)
		return v != nil && p.isCollection(v.Type()) && !p.aliasesParam(v)
	}

	if call, ok := expr.(*ast.CallExpr); ok && len(call.Args) == 0 {
		expr = ast.Unparen(call.Fun)
	}

	sel, ok := expr.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != p.conv.ServicesMember {
		return false
	}

	v := p.variable(sel.X)
	return v != nil && p.isBuilder(v.Type())
}

// variable returns the non-parameter variable denoted by expr, or nil.
func (p *pass) variable(expr ast.Expr) *types.Var {
	v, ok := p.objectOf(ast.Unparen(expr)).(*types.Var)
	if !ok {
		return nil
	}

	switch v.Kind() {
	case types.ParamVar, types.RecvVar, types.ResultVar:
		return nil
	}
	return v
}

// aliasesParam reports whether the local v is initialized from a parameter,
// directly or through other locals.
func (p *pass) aliasesParam(v *types.Var) bool {
	seen := make(map[*types.Var]bool)
	for !seen[v] {
		seen[v] = true

		init, ok := p.locals[v]
		if !ok {
			return false
		}
		next, ok := p.objectOf(ast.Unparen(init)).(*types.Var)
		if !ok {
			return false
		}
		switch next.Kind() {
		case types.ParamVar, types.RecvVar, types.ResultVar:
			return true
		}
		v = next
	}
	return false
}

func (p *pass) isBuilder(t types.Type) bool {
	if ptr, ok := t.Underlying().(*types.Pointer); ok {
		t = ptr.Elem()
	}

	named, ok := types.Unalias(t).(*types.Named)
	if !ok || named.Obj().Pkg() == nil {
		return false
	}

	pkgPath, name := p.conv.BuilderPath()
	return named.Obj().Pkg().Path() == pkgPath && named.Obj().Name() == name
}
