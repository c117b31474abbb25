// Package lifetime defines the service lifetimes a registration call declares.
package lifetime

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Lifetime specifies the lifetime named by a registration call.
// Lifetimes are recorded in the registration inventory and never validated.
type Lifetime int

const (
	// Singleton registrations create one instance per root container.
	Singleton Lifetime = iota

	// Scoped registrations create one instance per scope.
	Scoped

	// Transient registrations create a new instance on every resolution.
	Transient
)

// FromMethod returns the lifetime encoded in a registration method name such
// as AddSingleton or TryAddScoped.
func FromMethod(name string) (Lifetime, bool) {
	switch {
	case strings.HasSuffix(name, "Singleton"):
		return Singleton, true
	case strings.HasSuffix(name, "Scoped"):
		return Scoped, true
	case strings.HasSuffix(name, "Transient"):
		return Transient, true
	default:
		return 0, false
	}
}

// String returns the string representation of the Lifetime.
func (l Lifetime) String() string {
	switch l {
	case Singleton:
		return "Singleton"
	case Scoped:
		return "Scoped"
	case Transient:
		return "Transient"
	default:
		return fmt.Sprintf("Unknown(%d)", int(l))
	}
}

// IsValid checks if the lifetime is valid.
func (l Lifetime) IsValid() bool {
	return l >= Singleton && l <= Transient
}

// MarshalText implements encoding.TextMarshaler.
func (l Lifetime) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Lifetime) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Singleton", "singleton":
		*l = Singleton
	case "Scoped", "scoped":
		*l = Scoped
	case "Transient", "transient":
		*l = Transient
	default:
		return Error{Value: string(text)}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (l Lifetime) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Lifetime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	return l.UnmarshalText([]byte(s))
}

// Error indicates an invalid lifetime value.
type Error struct {
	Value any
}

func (e Error) Error() string {
	return fmt.Sprintf("invalid service lifetime: %v", e.Value)
}
