package divalidator

import "github.com/wvanhemert/DI-Validator/internal/lifetime"

// Lifetime is the lifetime a registration call declares. It is reported in
// the registration inventory and never validated.
type Lifetime = lifetime.Lifetime

const (
	// Singleton registrations are made with AddSingleton or TryAddSingleton.
	Singleton = lifetime.Singleton

	// Scoped registrations are made with AddScoped or TryAddScoped.
	Scoped = lifetime.Scoped

	// Transient registrations are made with AddTransient or TryAddTransient.
	Transient = lifetime.Transient
)
