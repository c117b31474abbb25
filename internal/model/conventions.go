package model

import (
	"go/types"
	"slices"
	"strings"

	"github.com/wvanhemert/DI-Validator/internal/lifetime"
)

// Conventions describes the container surface that extraction recognizes.
type Conventions struct {
	// ContainerPackage is the import path of the DI container package.
	// Paths that differ only in a major version suffix also match.
	ContainerPackage string `yaml:"container_package" json:"container_package"`

	// CollectionType is the service-collection type declared in ContainerPackage.
	CollectionType string `yaml:"collection_type" json:"collection_type"`

	// ModuleOptionType is the module option type declared in ContainerPackage.
	ModuleOptionType string `yaml:"module_option_type" json:"module_option_type"`

	// BuilderType is the qualified name ("import/path.Name") of the builder
	// whose ServicesMember roots direct registrations. When empty, any
	// non-parameter variable of the collection type is a root.
	BuilderType string `yaml:"builder_type" json:"builder_type"`

	// ServicesMember is the builder field or method that returns the collection.
	ServicesMember string `yaml:"services_member" json:"services_member"`

	// RegistrationMethods are the recognized registration method names.
	RegistrationMethods []string `yaml:"registration_methods" json:"registration_methods"`

	ModulesMethod     string `yaml:"modules_method" json:"modules_method"`
	ModuleConstructor string `yaml:"module_constructor" json:"module_constructor"`
	AsOption          string `yaml:"as_option" json:"as_option"`

	// ConstructorPrefix selects top-level constructor functions.
	ConstructorPrefix string `yaml:"constructor_prefix" json:"constructor_prefix"`

	EntryPointSuffixes []string `yaml:"entry_point_suffixes" json:"entry_point_suffixes"`
	EntryPointBases    []string `yaml:"entry_point_bases" json:"entry_point_bases"`

	// BuiltinTypes are qualified type names ("import/path.Name") the
	// container supplies to every scope without a registration. Names in
	// ContainerPackage match any major version.
	BuiltinTypes []string `yaml:"builtin_types" json:"builtin_types"`
}

// DefaultConventions targets the godi container.
func DefaultConventions() Conventions {
	return Conventions{
		ContainerPackage: "github.com/junioryono/godi/v3",
		CollectionType:   "Collection",
		ModuleOptionType: "ModuleOption",
		ServicesMember:   "Services",
		RegistrationMethods: []string{
			"AddSingleton", "AddScoped", "AddTransient",
			"TryAddSingleton", "TryAddScoped", "TryAddTransient",
		},
		ModulesMethod:      "AddModules",
		ModuleConstructor:  "NewModule",
		AsOption:           "As",
		ConstructorPrefix:  "New",
		EntryPointSuffixes: []string{"Controller"},
		EntryPointBases:    []string{"ControllerBase", "Controller"},
		BuiltinTypes:       builtinTypes("github.com/junioryono/godi/v3"),
	}
}

// builtinTypes lists what a godi scope provides: its context, itself as
// ServiceProvider and as Scope.
func builtinTypes(container string) []string {
	return []string{"context.Context", container + ".ServiceProvider", container + ".Scope"}
}

// WithDefaults fills empty fields from DefaultConventions.
func (c Conventions) WithDefaults() Conventions {
	d := DefaultConventions()
	if c.ContainerPackage == "" {
		c.ContainerPackage = d.ContainerPackage
	}
	if c.CollectionType == "" {
		c.CollectionType = d.CollectionType
	}
	if c.ModuleOptionType == "" {
		c.ModuleOptionType = d.ModuleOptionType
	}
	if c.ServicesMember == "" {
		c.ServicesMember = d.ServicesMember
	}
	if len(c.RegistrationMethods) == 0 {
		c.RegistrationMethods = d.RegistrationMethods
	}
	if c.ModulesMethod == "" {
		c.ModulesMethod = d.ModulesMethod
	}
	if c.ModuleConstructor == "" {
		c.ModuleConstructor = d.ModuleConstructor
	}
	if c.AsOption == "" {
		c.AsOption = d.AsOption
	}
	if c.ConstructorPrefix == "" {
		c.ConstructorPrefix = d.ConstructorPrefix
	}
	if len(c.EntryPointSuffixes) == 0 {
		c.EntryPointSuffixes = d.EntryPointSuffixes
	}
	if len(c.EntryPointBases) == 0 {
		c.EntryPointBases = d.EntryPointBases
	}
	if len(c.BuiltinTypes) == 0 {
		c.BuiltinTypes = builtinTypes(c.ContainerPackage)
	}
	return c
}

// IsBuiltin reports whether t is one of the BuiltinTypes. Pointers to a
// builtin type are not builtin.
func (c Conventions) IsBuiltin(t types.Type) bool {
	named, ok := types.Unalias(t).(*types.Named)
	if !ok || named.Obj().Pkg() == nil {
		return false
	}
	pkgPath, name := named.Obj().Pkg().Path(), named.Obj().Name()

	for _, b := range c.BuiltinTypes {
		i := strings.LastIndex(b, ".")
		if i < 0 || b[i+1:] != name {
			continue
		}
		want := b[:i]
		if want == pkgPath {
			return true
		}
		if c.IsContainerPackage(want) && stripMajor(want) == stripMajor(pkgPath) {
			return true
		}
	}
	return false
}

// IsContainerPackage reports whether path is the container package or one
// of its sub-packages, ignoring major version suffixes.
func (c Conventions) IsContainerPackage(path string) bool {
	base := stripMajor(c.ContainerPackage)
	path = stripMajor(path)
	return path == base || strings.HasPrefix(path, base+"/")
}

// Registration reports whether name is a registration method and, if so,
// the lifetime it declares and whether it is a try-register variant.
func (c Conventions) Registration(name string) (lt lifetime.Lifetime, try bool, ok bool) {
	if !slices.Contains(c.RegistrationMethods, name) {
		return 0, false, false
	}
	lt, ok = lifetime.FromMethod(name)
	if !ok {
		// Unknown lifetime names default to transient.
		lt, ok = lifetime.Transient, true
	}
	return lt, strings.HasPrefix(name, "Try"), ok
}

// IsEntryPointName reports whether a type name carries an entry-point suffix.
func (c Conventions) IsEntryPointName(name string) bool {
	for _, suffix := range c.EntryPointSuffixes {
		if suffix != "" && strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// IsEntryPointBase reports whether a type name is a known entry-point base.
func (c Conventions) IsEntryPointBase(name string) bool {
	return slices.Contains(c.EntryPointBases, name)
}

// BuilderPath splits BuilderType into package path and type name.
func (c Conventions) BuilderPath() (pkgPath, name string) {
	i := strings.LastIndex(c.BuilderType, ".")
	if i < 0 {
		return "", c.BuilderType
	}
	return c.BuilderType[:i], c.BuilderType[i+1:]
}

// stripMajor removes /vN segments so that v3 and v4 of a module compare equal.
func stripMajor(path string) string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if isMajor(p) {
			continue
		}
		out = append(out, p)
	}
	return strings.Join(out, "/")
}

func isMajor(seg string) bool {
	if len(seg) < 2 || seg[0] != 'v' {
		return false
	}
	for _, r := range seg[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
