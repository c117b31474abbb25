// Package signature analyzes constructor signatures with go/types.
//
// It is the static counterpart of a container's reflection analysis: given
// the signature of a constructor it reports the dependencies the container
// would inject (expanding In parameter objects) and the types the
// constructor provides (expanding Out result objects).
package signature

import (
	"go/token"
	"go/types"
	"reflect"
	"strings"
	"sync"
)

// Analyzer performs go/types analysis of constructors.
// It caches analysis results per signature.
type Analyzer struct {
	match   PackageMatcher
	builtin TypeMatcher

	mu    sync.RWMutex
	cache map[*types.Signature]*ConstructorInfo
}

// ConstructorInfo contains analyzed information about a constructor signature.
type ConstructorInfo struct {
	Signature      *types.Signature
	Parameters     []ParameterInfo
	Returns        []ReturnInfo
	IsParamObject  bool // single parameter with In embedded
	IsResultObject bool // first result with Out embedded
	HasErrorReturn bool // returns error as last value

	dependencies []*Dependency
}

// ParameterInfo describes a constructor parameter or field in an In struct.
type ParameterInfo struct {
	Type     types.Type
	Name     string // parameter or field name
	Tag      string // full tag string
	Index    int    // parameter index or field index
	Optional bool   // from optional:"true" tag
	Group    string // from group:"name" tag
	Key      string // from name:"key" tag
	IsSlice  bool
	ElemType types.Type // element type if slice
	Pos      token.Pos
}

// ReturnInfo describes a constructor result or field in an Out struct.
type ReturnInfo struct {
	Type    types.Type
	Name    string
	Index   int
	Group   string
	Key     string
	IsError bool
}

// TagInfo contains parsed struct tag information.
type TagInfo struct {
	Optional bool
	Name     string
	Group    string
	Ignore   bool
}

// Dependency is a single injected dependency of a constructor.
type Dependency struct {
	Type      types.Type
	Key       string
	Group     string
	Optional  bool
	Index     int
	FieldName string
	Pos       token.Pos

	// Builtin is set for types the container supplies to every scope.
	Builtin bool
}

// Required reports whether the container must have a registration for the
// dependency. Optional, value-group and builtin dependencies never fail
// resolution.
func (d *Dependency) Required() bool {
	return !d.Optional && d.Group == "" && !d.Builtin
}

// PackageMatcher reports whether a package may declare the In and Out markers.
type PackageMatcher func(pkgPath string) bool

// TypeMatcher reports whether a parameter type is supplied by the container
// without a registration.
type TypeMatcher func(t types.Type) bool

// Prefixes matches the given packages and their sub-packages.
func Prefixes(paths ...string) PackageMatcher {
	return func(pkgPath string) bool {
		for _, p := range paths {
			if pkgPath == p || strings.HasPrefix(pkgPath, p+"/") {
				return true
			}
		}
		return false
	}
}

// New creates an Analyzer that recognizes In/Out markers declared in the
// packages accepted by match.
func New(match PackageMatcher) *Analyzer {
	if match == nil {
		match = Prefixes()
	}
	return &Analyzer{
		match: match,
		cache: make(map[*types.Signature]*ConstructorInfo),
	}
}

// WithBuiltins marks dependencies accepted by match as builtin. It must be
// called before the first Analyze.
func (a *Analyzer) WithBuiltins(match TypeMatcher) *Analyzer {
	a.builtin = match
	return a
}

// Analyze analyzes a constructor signature. It returns nil for a nil signature.
func (a *Analyzer) Analyze(sig *types.Signature) *ConstructorInfo {
	if sig == nil {
		return nil
	}

	a.mu.RLock()
	if cached, ok := a.cache[sig]; ok {
		a.mu.RUnlock()
		return cached
	}
	a.mu.RUnlock()

	info := &ConstructorInfo{Signature: sig}
	a.analyzeParameters(info)
	a.analyzeReturns(info)
	info.dependencies = a.buildDependencies(info)

	a.mu.Lock()
	a.cache[sig] = info
	a.mu.Unlock()

	return info
}

// AnalyzeType analyzes the function type of an expression. Non-function
// types yield an instance registration: no dependencies, the value's own
// type provided.
func (a *Analyzer) AnalyzeType(t types.Type) *ConstructorInfo {
	if t == nil {
		return nil
	}
	if sig, ok := t.Underlying().(*types.Signature); ok {
		return a.Analyze(sig)
	}
	return &ConstructorInfo{
		Returns: []ReturnInfo{{Type: t}},
	}
}

// analyzeParameters analyzes function parameters or In struct fields.
func (a *Analyzer) analyzeParameters(info *ConstructorInfo) {
	params := info.Signature.Params()

	if params.Len() == 1 {
		p := params.At(0)
		if st := a.embeddingStruct(p.Type(), "In"); st != nil {
			info.IsParamObject = true
			info.Parameters = a.paramObjectFields(st)
			return
		}
	}

	info.Parameters = make([]ParameterInfo, params.Len())
	for i := 0; i < params.Len(); i++ {
		p := params.At(i)
		elem := sliceElem(p.Type())
		info.Parameters[i] = ParameterInfo{
			Type:     p.Type(),
			Name:     p.Name(),
			Index:    i,
			IsSlice:  elem != nil,
			ElemType: elem,
			Pos:      p.Pos(),
		}
	}
}

// paramObjectFields analyzes an In struct's fields.
func (a *Analyzer) paramObjectFields(st *types.Struct) []ParameterInfo {
	out := make([]ParameterInfo, 0, st.NumFields())

	for i := 0; i < st.NumFields(); i++ {
		field := st.Field(i)

		if !field.Exported() {
			continue
		}
		if field.Anonymous() && a.isMarker(field.Type(), "In") {
			continue
		}

		tag := ParseTag(st.Tag(i))
		if tag.Ignore {
			continue
		}

		elem := sliceElem(field.Type())
		out = append(out, ParameterInfo{
			Type:     field.Type(),
			Name:     field.Name(),
			Tag:      st.Tag(i),
			Index:    i,
			Optional: tag.Optional,
			Group:    tag.Group,
			Key:      tag.Name,
			IsSlice:  elem != nil,
			ElemType: elem,
			Pos:      field.Pos(),
		})
	}

	return out
}

// analyzeReturns analyzes function results or Out struct fields.
func (a *Analyzer) analyzeReturns(info *ConstructorInfo) {
	results := info.Signature.Results()
	if results.Len() == 0 {
		return
	}

	if st := a.embeddingStruct(results.At(0).Type(), "Out"); st != nil {
		info.IsResultObject = true
		info.Returns = a.resultObjectFields(st)
		if results.Len() == 2 && isError(results.At(1).Type()) {
			info.HasErrorReturn = true
		}
		return
	}

	info.Returns = make([]ReturnInfo, 0, results.Len())
	for i := 0; i < results.Len(); i++ {
		t := results.At(i).Type()

		// An error in non-last position is treated as a regular type.
		last := isError(t) && i == results.Len()-1
		if last {
			info.HasErrorReturn = true
		}
		info.Returns = append(info.Returns, ReturnInfo{
			Type:    t,
			Name:    results.At(i).Name(),
			Index:   i,
			IsError: last,
		})
	}
}

// resultObjectFields analyzes an Out struct's fields.
func (a *Analyzer) resultObjectFields(st *types.Struct) []ReturnInfo {
	out := make([]ReturnInfo, 0, st.NumFields())

	for i := 0; i < st.NumFields(); i++ {
		field := st.Field(i)

		if !field.Exported() {
			continue
		}
		if field.Anonymous() && a.isMarker(field.Type(), "Out") {
			continue
		}

		tag := ParseTag(st.Tag(i))
		if tag.Ignore {
			continue
		}

		out = append(out, ReturnInfo{
			Type:  field.Type(),
			Name:  field.Name(),
			Index: i,
			Group: tag.Group,
			Key:   tag.Name,
		})
	}

	return out
}

// buildDependencies creates Dependency values from ParameterInfo.
func (a *Analyzer) buildDependencies(info *ConstructorInfo) []*Dependency {
	deps := make([]*Dependency, 0, len(info.Parameters))

	for _, param := range info.Parameters {
		dep := &Dependency{
			Type:      param.Type,
			Key:       param.Key,
			Group:     param.Group,
			Optional:  param.Optional,
			Index:     param.Index,
			FieldName: param.Name,
			Pos:       param.Pos,
		}

		// For slices with group tags, the dependency is on the element type
		if param.IsSlice && param.Group != "" && param.ElemType != nil {
			dep.Type = param.ElemType
		}
		if a.builtin != nil {
			dep.Builtin = a.builtin(dep.Type)
		}

		deps = append(deps, dep)
	}

	return deps
}

// Dependencies returns the analyzed dependencies.
func (info *ConstructorInfo) Dependencies() []*Dependency {
	if info == nil {
		return nil
	}
	return info.dependencies
}

// ProvidedTypes returns every non-error type produced by the constructor.
// For Out result objects these are the struct's fields.
func (info *ConstructorInfo) ProvidedTypes() []types.Type {
	if info == nil {
		return nil
	}

	out := make([]types.Type, 0, len(info.Returns))
	for _, ret := range info.Returns {
		if !ret.IsError {
			out = append(out, ret.Type)
		}
	}
	return out
}

// ServiceType returns the primary provided type, or nil.
func (info *ConstructorInfo) ServiceType() types.Type {
	provided := info.ProvidedTypes()
	if len(provided) == 0 {
		return nil
	}
	return provided[0]
}

// ParseTag parses struct field tags for DI-specific annotations.
func ParseTag(tag string) TagInfo {
	st := reflect.StructTag(tag)
	info := TagInfo{}

	if val, ok := st.Lookup("optional"); ok {
		info.Optional = val == "true"
	}
	if val, ok := st.Lookup("name"); ok {
		info.Name = val
	}
	if val, ok := st.Lookup("group"); ok {
		info.Group = val
	}
	if val, ok := st.Lookup("inject"); ok && val == "-" {
		info.Ignore = true
	}

	return info
}

// IsParamObject reports whether t is a struct embedding the In marker.
func (a *Analyzer) IsParamObject(t types.Type) bool {
	return a.embeddingStruct(t, "In") != nil
}

// embeddingStruct returns the struct underlying t (through one pointer)
// when it embeds the named marker, or nil.
func (a *Analyzer) embeddingStruct(t types.Type, marker string) *types.Struct {
	if ptr, ok := t.Underlying().(*types.Pointer); ok {
		t = ptr.Elem()
	}

	st, ok := t.Underlying().(*types.Struct)
	if !ok {
		return nil
	}

	for i := 0; i < st.NumFields(); i++ {
		field := st.Field(i)
		if field.Anonymous() && a.isMarker(field.Type(), marker) {
			return st
		}
	}

	return nil
}

// isMarker checks if t is the In or Out marker of a known container package.
func (a *Analyzer) isMarker(t types.Type, marker string) bool {
	named, ok := types.Unalias(t).(*types.Named)
	if !ok {
		return false
	}

	obj := named.Obj()
	if obj.Name() != marker || obj.Pkg() == nil {
		return false
	}

	return a.match(obj.Pkg().Path())
}

func sliceElem(t types.Type) types.Type {
	if s, ok := t.Underlying().(*types.Slice); ok {
		return s.Elem()
	}
	return nil
}

func isError(t types.Type) bool {
	return types.Identical(t, types.Universe.Lookup("error").Type())
}
