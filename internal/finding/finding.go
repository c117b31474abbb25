// Package finding defines the findings produced by validation.
package finding

import (
	"encoding/json"
	"fmt"
	"go/token"
	"strings"
)

// Severity of a finding.
type Severity int

const (
	// Info findings are advisory.
	Info Severity = iota

	// Warning findings fail a run under the caller contract.
	Warning

	// Error is reserved for callers that raise rule severities.
	Error
)

// String returns the string representation of the Severity.
func (s Severity) String() string {
	switch s {
	case Info:
		return "Info"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// IsValid checks if the severity is valid.
func (s Severity) IsValid() bool {
	return s >= Info && s <= Error
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "info":
		*s = Info
	case "warning", "warn":
		*s = Warning
	case "error":
		*s = Error
	default:
		return SeverityError{Value: string(text)}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	return s.UnmarshalText([]byte(str))
}

// SeverityError indicates an invalid severity value.
type SeverityError struct {
	Value any
}

func (e SeverityError) Error() string {
	return fmt.Sprintf("invalid severity: %v", e.Value)
}

// Category is shared by every rule.
const Category = "Dependency Injection"

// Rule describes one kind of finding.
type Rule struct {
	ID            string
	Title         string
	MessageFormat string // {0} is replaced by the type name
	Description   string
	Severity      Severity
}

// Message formats the rule message for a type name.
func (r Rule) Message(typeName string) string {
	return strings.ReplaceAll(r.MessageFormat, "{0}", typeName)
}

var (
	// MissingEntryPointDependency is reported for an entry-point constructor
	// parameter whose type is not registered.
	MissingEntryPointDependency = Rule{
		ID:            "DI001",
		Title:         "Missing Dependency Injection Registration",
		MessageFormat: "Type '{0}' is used in constructor but appears to be missing from DI registration.",
		Description:   "Type '{0}' used in constructor is not registered with dependency injection.",
		Severity:      Warning,
	}

	// MissingServiceDependency is reported for a type in the dependency
	// closure of a registered service that is not registered.
	MissingServiceDependency = Rule{
		ID:            "DI002",
		Title:         "Missing Dependency Of Registered Service",
		MessageFormat: "Type '{0}' is required by a registered service but appears to be missing from DI registration.",
		Description:   "A constructor reachable from a registered service needs a type that is not registered with dependency injection.",
		Severity:      Warning,
	}

	// UnusedRegistration is reported for a registered type no constructor consumes.
	UnusedRegistration = Rule{
		ID:            "DI003",
		Title:         "Unused DI Registration",
		MessageFormat: "Type '{0}' is registered but not used by any constructor.",
		Description:   "This service was registered in the DI container but is never injected into any known constructor.",
		Severity:      Info,
	}
)

// Rules lists every rule in identifier order.
func Rules() []Rule {
	return []Rule{MissingEntryPointDependency, MissingServiceDependency, UnusedRegistration}
}

// Finding is one validation result.
type Finding struct {
	Rule     string         `json:"id"`
	Severity Severity       `json:"severity"`
	Message  string         `json:"message"`
	TypeName string         `json:"type"`
	Unit     string         `json:"unit,omitempty"`
	Position token.Position `json:"-"`
}

// New creates a finding for a rule and type.
func New(rule Rule, typeName, unit string, pos token.Position) Finding {
	return Finding{
		Rule:     rule.ID,
		Severity: rule.Severity,
		Message:  rule.Message(typeName),
		TypeName: typeName,
		Unit:     unit,
		Position: pos,
	}
}

// HasLocation reports whether the finding is attributed to a declaration.
func (f Finding) HasLocation() bool {
	return f.Position.IsValid()
}

// String formats the finding like a compiler diagnostic.
func (f Finding) String() string {
	if f.HasLocation() {
		return fmt.Sprintf("%s: %s %s: %s", f.Position, strings.ToLower(f.Severity.String()), f.Rule, f.Message)
	}
	return fmt.Sprintf("%s %s: %s", strings.ToLower(f.Severity.String()), f.Rule, f.Message)
}

type findingJSON struct {
	Rule     string   `json:"id"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	TypeName string   `json:"type"`
	Unit     string   `json:"unit,omitempty"`
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
	Column   int      `json:"column,omitempty"`
}

// MarshalJSON flattens the position into file, line and column.
func (f Finding) MarshalJSON() ([]byte, error) {
	return json.Marshal(findingJSON{
		Rule:     f.Rule,
		Severity: f.Severity,
		Message:  f.Message,
		TypeName: f.TypeName,
		Unit:     f.Unit,
		File:     f.Position.Filename,
		Line:     f.Position.Line,
		Column:   f.Position.Column,
	})
}
