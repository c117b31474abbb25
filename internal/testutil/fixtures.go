package testutil

import (
	"github.com/wvanhemert/DI-Validator/internal/model"
)

// Import paths of the fixture packages every program can import.
const (
	ContainerPath  = "github.com/junioryono/godi/v3"
	ReflectionPath = "github.com/junioryono/godi/v3/internal/reflection"
	HostPath       = "example.com/host"
)

// ContainerSource is a minimal copy of the godi container surface: the
// collection, module options, As/Name/Group options, the In/Out markers and
// the ServiceProvider and Scope every scope supplies.
//
// godi has no try-register functions. The generic TryAddSingleton[T],
// TryAddScoped[T] and TryAddTransient[T] model a hypothetical try-register
// API whose type argument names the service key, so that keying by type
// argument can be exercised.
const ContainerSource = `package godi

import "github.com/junioryono/godi/v3/internal/reflection"

type In = reflection.In

type Out = reflection.Out

type Provider interface {
	Close() error
}

type ServiceProvider interface {
	Get(t any) (any, error)
}

type Scope interface {
	ServiceProvider
	Close() error
}

type Collection interface {
	AddSingleton(constructor any, opts ...AddOption) error
	AddScoped(constructor any, opts ...AddOption) error
	AddTransient(constructor any, opts ...AddOption) error
	AddModules(modules ...ModuleOption) error
	Build() (Provider, error)
}

func NewCollection() Collection { return nil }

type ModuleOption func(Collection) error

func NewModule(name string, builders ...ModuleOption) ModuleOption {
	return func(c Collection) error {
		for _, b := range builders {
			if err := b(c); err != nil {
				return err
			}
		}
		return nil
	}
}

func AddSingleton(service any, opts ...AddOption) ModuleOption {
	return func(c Collection) error { return c.AddSingleton(service, opts...) }
}

func AddScoped(service any, opts ...AddOption) ModuleOption {
	return func(c Collection) error { return c.AddScoped(service, opts...) }
}

func AddTransient(service any, opts ...AddOption) ModuleOption {
	return func(c Collection) error { return c.AddTransient(service, opts...) }
}

func TryAddSingleton[T any](c Collection, constructor any, opts ...AddOption) error {
	return c.AddSingleton(constructor, opts...)
}

func TryAddScoped[T any](c Collection, constructor any, opts ...AddOption) error {
	return c.AddScoped(constructor, opts...)
}

func TryAddTransient[T any](c Collection, constructor any, opts ...AddOption) error {
	return c.AddTransient(constructor, opts...)
}

type AddOption interface {
	applyAddOption()
}

type asOption []any

func (asOption) applyAddOption() {}

func As(i ...any) AddOption { return asOption(i) }

type nameOption string

func (nameOption) applyAddOption() {}

func Name(name string) AddOption { return nameOption(name) }

type groupOption string

func (groupOption) applyAddOption() {}

func Group(group string) AddOption { return groupOption(group) }
`

// ReflectionSource declares the In and Out markers.
const ReflectionSource = `package reflection

type In struct{}

type Out struct{}
`

// HostSource is a hosting framework with a builder exposing the collection
// as its Services field, and an entry-point base type.
const HostSource = `package host

import "github.com/junioryono/godi/v3"

type Builder struct {
	Services godi.Collection
}

func NewBuilder() *Builder {
	return &Builder{Services: godi.NewCollection()}
}

func (b *Builder) Run() error { return nil }

type ControllerBase struct{}
`

// Conventions returns the godi conventions rooted in the host builder.
func Conventions() model.Conventions {
	conv := model.DefaultConventions()
	conv.BuilderType = HostPath + ".Builder"
	return conv
}

// stubs are importable by every unit.
var stubs = map[string][]string{
	ContainerPath:  {ContainerSource},
	ReflectionPath: {ReflectionSource},
	HostPath:       {HostSource},
}
