// Package model holds the analysis model shared by extraction, resolution
// and validation.
//
// The model is populated concurrently by one extraction worker per compiled
// unit, finalized by a single resolution pass, and then read by validation.
// Every collection is safe for concurrent use; the ordering between phases is
// enforced by the caller.
package model

import (
	"cmp"
	"go/token"
	"go/types"
	"slices"
	"sync"

	"github.com/wvanhemert/DI-Validator/internal/lifetime"
	"github.com/wvanhemert/DI-Validator/internal/signature"
	"github.com/wvanhemert/DI-Validator/internal/symbols"
)

// ClassRecord describes a user-defined type and one of its constructors.
type ClassRecord struct {
	Type        symbols.TypeHandle // constructor result type, T or *T
	Constructor *types.Func
	Info        *signature.ConstructorInfo
	Unit        string
	EntryPoint  bool
	Primary     bool // constructor takes a single In parameter object
}

// Dependencies returns the constructor dependencies a container must satisfy.
func (c *ClassRecord) Dependencies() []*signature.Dependency {
	return requiredDependencies(c.Info)
}

// Registration is one service key registered with the container.
type Registration struct {
	Service        symbols.TypeHandle
	Implementation symbols.TypeHandle // zero when the key is the implementation
	Constructor    *signature.ConstructorInfo
	Lifetime       lifetime.Lifetime
	Try            bool
	Method         string
	Unit           string
	Pos            token.Pos

	// Helper is the canonical name of the helper declaring the registration,
	// empty for direct registrations.
	Helper string
}

// Dependencies returns the required dependencies of the registered constructor.
func (r *Registration) Dependencies() []*signature.Dependency {
	return requiredDependencies(r.Constructor)
}

// HelperRecord describes a function or module variable that extends the
// container, with its direct registrations and nested helper calls.
type HelperRecord struct {
	Helper        symbols.FuncHandle
	Registrations []*Registration
	Calls         []symbols.FuncHandle
	Unit          string
}

// Registers returns the service types the helper registers directly.
func (h *HelperRecord) Registers() []symbols.TypeHandle {
	out := make([]symbols.TypeHandle, 0, len(h.Registrations))
	for _, r := range h.Registrations {
		out = append(out, r.Service)
	}
	return out
}

// Empty reports whether the helper neither registers nor calls anything.
func (h *HelperRecord) Empty() bool {
	return len(h.Registrations) == 0 && len(h.Calls) == 0
}

// Model is the analysis model for a single run.
type Model struct {
	// MainUnit identifies the compiled unit that owns the container setup.
	MainUnit string

	// Fset is shared by every unit so positions can be compared and printed.
	Fset *token.FileSet

	RegisteredServices            *symbols.TypeSet
	UnusedServices                *symbols.TypeSet
	RegisteredServiceDependencies *symbols.TypeSet
	CalledRegistrationHelpers     *symbols.FuncSet
	VisitedHelpers                *symbols.FuncSet
	VisitedTypes                  *symbols.TypeSet

	mu            sync.RWMutex
	classes       []*ClassRecord
	classIndex    symbols.Index[[]*ClassRecord]
	helpers       symbols.Index[*HelperRecord]
	registrations []*Registration
	bindings      symbols.Index[symbols.TypeHandle]
	units         map[string]string // package path to unit
}

// New creates an empty model.
func New(mainUnit string, fset *token.FileSet) *Model {
	if fset == nil {
		fset = token.NewFileSet()
	}
	return &Model{
		MainUnit:                      mainUnit,
		Fset:                          fset,
		RegisteredServices:            symbols.NewTypeSet(),
		UnusedServices:                symbols.NewTypeSet(),
		RegisteredServiceDependencies: symbols.NewTypeSet(),
		CalledRegistrationHelpers:     symbols.NewFuncSet(),
		VisitedHelpers:                symbols.NewFuncSet(),
		VisitedTypes:                  symbols.NewTypeSet(),
		units:                         make(map[string]string),
	}
}

// AddPackage records that a package belongs to a unit. The first unit to
// claim a package path keeps it.
func (m *Model) AddPackage(pkgPath, unit string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.units[pkgPath]; !ok {
		m.units[pkgPath] = unit
	}
}

// UnitOf returns the unit declaring the package, or "" when the package is
// outside the analyzed program.
func (m *Model) UnitOf(pkgPath string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.units[pkgPath]
}

// UnitOfType returns the unit declaring the named type behind h.
func (m *Model) UnitOfType(h symbols.TypeHandle) string {
	return m.UnitOf(h.PkgPath())
}

// AddClass records a user-defined class.
func (m *Model) AddClass(rec *ClassRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.classes = append(m.classes, rec)
	recs, _ := m.classIndex.Get(rec.Type.Name)
	m.classIndex.Put(rec.Type.Name, append(recs, rec))
}

// Classes returns every class record ordered by declaring position.
func (m *Model) Classes() []*ClassRecord {
	m.mu.RLock()
	out := slices.Clone(m.classes)
	m.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b *ClassRecord) int {
		return cmp.Or(
			cmp.Compare(a.Unit, b.Unit),
			m.comparePos(a.Constructor.Pos(), b.Constructor.Pos()),
		)
	})
	return out
}

// EntryPoints returns the entry-point class records of the main unit.
func (m *Model) EntryPoints() []*ClassRecord {
	var out []*ClassRecord
	for _, rec := range m.Classes() {
		if rec.EntryPoint && rec.Unit == m.MainUnit {
			out = append(out, rec)
		}
	}
	return out
}

// ClassFor returns the first class record whose constructor produces t.
// A constructor producing *T also serves T and the other way round.
func (m *Model) ClassFor(t types.Type) *ClassRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if rec := m.firstClass(symbols.Canonical(t)); rec != nil {
		return rec
	}

	if ptr, ok := t.(*types.Pointer); ok {
		return m.firstClass(symbols.Canonical(ptr.Elem()))
	}
	return m.firstClass(symbols.Canonical(types.NewPointer(t)))
}

func (m *Model) firstClass(name string) *ClassRecord {
	recs, _ := m.classIndex.Get(name)
	if len(recs) == 0 {
		return nil
	}
	first := recs[0]
	for _, rec := range recs[1:] {
		if m.comparePos(rec.Constructor.Pos(), first.Constructor.Pos()) < 0 {
			first = rec
		}
	}
	return first
}

// AddHelper records a helper declaration. Empty helpers are dropped.
func (m *Model) AddHelper(rec *HelperRecord) {
	if rec.Empty() {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.helpers.Add(rec.Helper.Name, rec)
}

// Helper returns the helper declaration matching h by canonical name.
func (m *Model) Helper(h symbols.FuncHandle) (*HelperRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.helpers.Get(h.Name)
}

// Helpers returns every recorded helper ordered by canonical name.
func (m *Model) Helpers() []*HelperRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.helpers.Values()
}

// AddRegistration records an active registration and marks its service as
// registered.
func (m *Model) AddRegistration(r *Registration) {
	m.mu.Lock()
	m.registrations = append(m.registrations, r)
	m.mu.Unlock()

	m.RegisteredServices.AddHandle(r.Service)
}

// Registrations returns the active registrations in source order.
func (m *Model) Registrations() []*Registration {
	m.mu.RLock()
	out := slices.Clone(m.registrations)
	m.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b *Registration) int {
		return m.comparePos(a.Pos, b.Pos)
	})
	return out
}

// RegistrationFor returns the last registration of a service key, or nil.
func (m *Model) RegistrationFor(name string) *Registration {
	var last *Registration
	for _, r := range m.Registrations() {
		if r.Service.Name == name {
			last = r
		}
	}
	return last
}

// Bind records that an interface key resolves to an implementation.
// Later bindings replace earlier ones.
func (m *Model) Bind(iface, impl symbols.TypeHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.bindings.Put(iface.Name, impl)
}

// Binding returns the implementation bound to an interface key.
func (m *Model) Binding(t types.Type) (symbols.TypeHandle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.bindings.Get(symbols.Canonical(t))
}

// Position returns the resolved position of pos.
func (m *Model) Position(pos token.Pos) token.Position {
	if !pos.IsValid() {
		return token.Position{}
	}
	return m.Fset.Position(pos)
}

// comparePos orders positions across files of the shared file set.
func (m *Model) comparePos(a, b token.Pos) int {
	pa, pb := m.Position(a), m.Position(b)
	return cmp.Or(
		cmp.Compare(pa.Filename, pb.Filename),
		cmp.Compare(pa.Offset, pb.Offset),
	)
}

func requiredDependencies(info *signature.ConstructorInfo) []*signature.Dependency {
	var out []*signature.Dependency
	for _, dep := range info.Dependencies() {
		if dep.Required() {
			out = append(out, dep)
		}
	}
	return out
}
