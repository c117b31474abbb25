// Package symbols compares and hashes go/types handles in a way that stays
// stable across independently type-checked units.
//
// Every unit is loaded into its own type-checking universe, so the same
// declared type yields a distinct *types.TypeName per unit. Identity is tried
// first; when it fails the fully-qualified canonical form decides.
package symbols

import (
	"go/types"
	"strconv"
)

// Canonical returns the fully-qualified display form of t. Package
// qualifiers use the full import path, so the result is identical for the
// same declared type seen from any unit.
func Canonical(t types.Type) string {
	if t == nil {
		return ""
	}
	return types.TypeString(t, qualifyPath)
}

// Display returns the short form of t used in messages ("*services.Alpha").
func Display(t types.Type) string {
	if t == nil {
		return "<nil>"
	}
	return types.TypeString(t, qualifyName)
}

// CanonicalObject returns the fully-qualified name of a declared object.
// Functions use their generic origin, with the number of type parameters
// appended so that the generic shape is part of the name.
func CanonicalObject(obj types.Object) string {
	if obj == nil {
		return ""
	}

	switch o := obj.(type) {
	case *types.Func:
		o = o.Origin()
		name := o.FullName()
		if sig, ok := o.Type().(*types.Signature); ok && sig.TypeParams().Len() > 0 {
			name += "[" + strconv.Itoa(sig.TypeParams().Len()) + "]"
		}
		return name
	case *types.Var:
		o = o.Origin()
		if o.Pkg() == nil {
			return o.Name()
		}
		return o.Pkg().Path() + "." + o.Name()
	}

	if obj.Pkg() == nil {
		return obj.Name()
	}
	return obj.Pkg().Path() + "." + obj.Name()
}

// Equal reports whether a and b denote the same type. Identity inside one
// universe is the fast path; the canonical name is the cross-unit fallback.
func Equal(a, b types.Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a == b || types.Identical(a, b) {
		return true
	}
	return Canonical(a) == Canonical(b)
}

// EqualObjects reports whether a and b denote the same declared object.
func EqualObjects(a, b types.Object) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a == b {
		return true
	}
	return CanonicalObject(a) == CanonicalObject(b)
}

// Hash returns a hash of t consistent with Equal.
func Hash(t types.Type) uint64 {
	return HashName(Canonical(t))
}

// HashObject returns a hash of obj consistent with EqualObjects.
func HashObject(obj types.Object) uint64 {
	return HashName(CanonicalObject(obj))
}

// TypeName returns the declared type name behind t, looking through one
// level of pointer indirection. It returns nil for unnamed types.
func TypeName(t types.Type) *types.TypeName {
	if t == nil {
		return nil
	}
	if ptr, ok := types.Unalias(t).(*types.Pointer); ok {
		t = ptr.Elem()
	}
	switch n := types.Unalias(t).(type) {
	case *types.Named:
		return n.Origin().Obj()
	case *types.TypeParam:
		return nil
	}
	return nil
}

func qualifyPath(p *types.Package) string { return p.Path() }

func qualifyName(p *types.Package) string { return p.Name() }
