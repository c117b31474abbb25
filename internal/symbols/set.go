package symbols

import (
	"go/types"
	"sync"
)

// TypeHandle is a declared type as seen by the analysis, paired with its
// canonical name.
type TypeHandle struct {
	Type types.Type
	Name string
}

// NewTypeHandle wraps t.
func NewTypeHandle(t types.Type) TypeHandle {
	return TypeHandle{Type: t, Name: Canonical(t)}
}

// Object returns the declared type name behind the handle, or nil.
func (h TypeHandle) Object() *types.TypeName {
	return TypeName(h.Type)
}

// PkgPath returns the import path of the package declaring the handle's
// type, or "" for predeclared and unnamed types.
func (h TypeHandle) PkgPath() string {
	obj := h.Object()
	if obj == nil || obj.Pkg() == nil {
		return ""
	}
	return obj.Pkg().Path()
}

func (h TypeHandle) String() string {
	return Display(h.Type)
}

// IsInterface reports whether the handle denotes an interface type.
func (h TypeHandle) IsInterface() bool {
	return h.Type != nil && types.IsInterface(h.Type)
}

// TypeSet is a set of type handles keyed by canonical name. It is safe for
// concurrent use; the first handle added for a name is kept.
type TypeSet struct {
	mu    sync.RWMutex
	items Index[TypeHandle]
}

// NewTypeSet creates an empty set.
func NewTypeSet() *TypeSet {
	return &TypeSet{}
}

// Add inserts t and reports whether it was not already present.
func (s *TypeSet) Add(t types.Type) bool {
	if t == nil {
		return false
	}
	return s.AddHandle(NewTypeHandle(t))
}

// AddHandle inserts h and reports whether it was not already present.
func (s *TypeSet) AddHandle(h TypeHandle) bool {
	if h.Name == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.items.Add(h.Name, h)
}

// AddAll inserts every handle of other.
func (s *TypeSet) AddAll(other *TypeSet) {
	for _, h := range other.Handles() {
		s.AddHandle(h)
	}
}

// Contains reports whether a type equal to t is in the set.
func (s *TypeSet) Contains(t types.Type) bool {
	if t == nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.items.find(Hash(t), func(_ string, h TypeHandle) bool {
		return Equal(h.Type, t)
	})
	return ok
}

// Lookup returns the handle stored under a canonical name.
func (s *TypeSet) Lookup(name string) (TypeHandle, bool) {
	if name == "" {
		return TypeHandle{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.items.Get(name)
}

// Remove deletes the entry equal to t and reports whether one was present.
// The stored handle and t may come from different units.
func (s *TypeSet) Remove(t types.Type) bool {
	if t == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.items.deleteFunc(Hash(t), func(_ string, h TypeHandle) bool {
		return Equal(h.Type, t)
	})
}

// Len returns the number of entries.
func (s *TypeSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.items.Len()
}

// Handles returns the entries sorted by canonical name.
func (s *TypeSet) Handles() []TypeHandle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.items.Values()
}

// Clone returns an independent copy of the set.
func (s *TypeSet) Clone() *TypeSet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &TypeSet{items: s.items.Clone()}
}

// FuncHandle is a declared registration helper: a function, or a
// package-level variable holding a module.
type FuncHandle struct {
	Object types.Object
	Name   string
}

// NewFuncHandle wraps obj.
func NewFuncHandle(obj types.Object) FuncHandle {
	return FuncHandle{Object: obj, Name: CanonicalObject(obj)}
}

func (h FuncHandle) String() string {
	if h.Object == nil {
		return "<nil>"
	}
	return h.Object.Name()
}

// FuncSet is the FuncHandle counterpart of TypeSet.
type FuncSet struct {
	mu    sync.RWMutex
	items Index[FuncHandle]
}

// NewFuncSet creates an empty set.
func NewFuncSet() *FuncSet {
	return &FuncSet{}
}

// Add inserts obj and reports whether it was not already present.
func (s *FuncSet) Add(obj types.Object) bool {
	if obj == nil {
		return false
	}
	return s.AddHandle(NewFuncHandle(obj))
}

// AddHandle inserts h and reports whether it was not already present.
func (s *FuncSet) AddHandle(h FuncHandle) bool {
	if h.Name == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.items.Add(h.Name, h)
}

// Contains reports whether an object equal to obj is in the set.
func (s *FuncSet) Contains(obj types.Object) bool {
	if obj == nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.items.find(HashObject(obj), func(_ string, h FuncHandle) bool {
		return EqualObjects(h.Object, obj)
	})
	return ok
}

// Len returns the number of entries.
func (s *FuncSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.items.Len()
}

// Handles returns the entries sorted by canonical name.
func (s *FuncSet) Handles() []FuncHandle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.items.Values()
}
