package extract

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/types/typeutil"

	"github.com/wvanhemert/DI-Validator/internal/lifetime"
	"github.com/wvanhemert/DI-Validator/internal/model"
	"github.com/wvanhemert/DI-Validator/internal/signature"
	"github.com/wvanhemert/DI-Validator/internal/symbols"
)

// addRegistration records one registration call. The registered keys are,
// in order of precedence: the call's first type argument, the types named by
// As options, or the types the constructor provides.
func (p *pass) addRegistration(s sink, call *ast.CallExpr, args []ast.Expr, typeArgs []types.Type, lt lifetime.Lifetime, try bool, method string) {
	var ctor *signature.ConstructorInfo
	if len(args) > 0 {
		ctor = p.sigs.AnalyzeType(p.typeOf(args[0]))
	}

	var (
		keys  []types.Type
		bound bool
	)
	switch {
	case len(typeArgs) > 0:
		keys, bound = typeArgs[:1], true
	case len(args) > 1:
		if as := p.asTypes(args[1:]); len(as) > 0 {
			keys, bound = as, true
		}
	}
	if len(keys) == 0 {
		keys = ctor.ProvidedTypes()
	}

	impl := ctor.ServiceType()
	for _, key := range keys {
		if key == nil {
			continue
		}

		r := &model.Registration{
			Service:     symbols.NewTypeHandle(key),
			Constructor: ctor,
			Lifetime:    lt,
			Try:         try,
			Method:      method,
			Unit:        p.unit,
			Pos:         call.Pos(),
			Helper:      s.owner(),
		}
		if bound && impl != nil && !symbols.Equal(key, impl) {
			r.Implementation = symbols.NewTypeHandle(impl)
		}
		s.register(r)
	}
}

// asTypes returns the interface types named by As options.
func (p *pass) asTypes(opts []ast.Expr) []types.Type {
	var out []types.Type
	for _, opt := range opts {
		call, ok := ast.Unparen(opt).(*ast.CallExpr)
		if !ok {
			continue
		}

		fn := p.callee(call)
		if fn == nil || !p.isContainer(fn) || fn.Name() != p.conv.AsOption {
			continue
		}

		out = append(out, p.typeArgs(call)...)
		for _, arg := range call.Args {
			t := p.typeOf(arg)
			if ptr, ok := t.(*types.Pointer); ok {
				t = ptr.Elem()
			}
			if t != nil {
				out = append(out, t)
			}
		}
	}
	return out
}

// callee returns the statically called function, or nil.
func (p *pass) callee(call *ast.CallExpr) *types.Func {
	fn, _ := typeutil.Callee(p.info, call).(*types.Func)
	return fn
}

// typeArgs returns the explicit or inferred type arguments of a generic call.
func (p *pass) typeArgs(call *ast.CallExpr) []types.Type {
	fun := ast.Unparen(call.Fun)
	switch x := fun.(type) {
	case *ast.IndexExpr:
		fun = x.X
	case *ast.IndexListExpr:
		fun = x.X
	}

	var id *ast.Ident
	switch x := ast.Unparen(fun).(type) {
	case *ast.Ident:
		id = x
	case *ast.SelectorExpr:
		id = x.Sel
	default:
		return nil
	}

	inst, ok := p.info.Instances[id]
	if !ok || inst.TypeArgs == nil {
		return nil
	}

	out := make([]types.Type, inst.TypeArgs.Len())
	for i := range out {
		out[i] = inst.TypeArgs.At(i)
	}
	return out
}

// collectionReceiver returns the receiver of a method call on the collection.
func (p *pass) collectionReceiver(call *ast.CallExpr) (ast.Expr, bool) {
	sel, ok := ast.Unparen(call.Fun).(*ast.SelectorExpr)
	if !ok {
		return nil, false
	}

	selection, ok := p.info.Selections[sel]
	if !ok || selection.Kind() != types.MethodVal {
		return nil, false
	}
	return sel.X, p.isCollection(selection.Recv())
}

func (p *pass) typeOf(expr ast.Expr) types.Type {
	if tv, ok := p.info.Types[expr]; ok {
		return tv.Type
	}
	return nil
}

func (p *pass) objectOf(expr ast.Expr) types.Object {
	switch x := expr.(type) {
	case *ast.Ident:
		return p.info.ObjectOf(x)
	case *ast.SelectorExpr:
		return p.info.ObjectOf(x.Sel)
	}
	return nil
}

// isContainer reports whether fn is declared by the container package.
func (p *pass) isContainer(fn *types.Func) bool {
	return fn.Pkg() != nil && p.conv.IsContainerPackage(fn.Pkg().Path())
}

// extendsCollection reports whether the first parameter is the collection.
func (p *pass) extendsCollection(sig *types.Signature) bool {
	return sig.Params().Len() > 0 && p.isCollection(sig.Params().At(0).Type())
}

// returnsModule reports whether the first result is a module option.
func (p *pass) returnsModule(sig *types.Signature) bool {
	return sig.Results().Len() > 0 && p.isModuleOption(sig.Results().At(0).Type())
}

func (p *pass) isCollection(t types.Type) bool {
	return p.containerType(t, p.conv.CollectionType)
}

func (p *pass) isModuleOption(t types.Type) bool {
	return p.containerType(t, p.conv.ModuleOptionType)
}

// containerType reports whether t (or *t) is the named container type.
func (p *pass) containerType(t types.Type, name string) bool {
	if t == nil {
		return false
	}
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}

	named, ok := types.Unalias(t).(*types.Named)
	if !ok {
		return false
	}

	obj := named.Obj()
	return obj.Pkg() != nil && obj.Name() == name && p.conv.IsContainerPackage(obj.Pkg().Path())
}
