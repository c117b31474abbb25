package divalidator

import "github.com/wvanhemert/DI-Validator/internal/finding"

// Severity of a finding.
type Severity = finding.Severity

const (
	SeverityInfo    = finding.Info
	SeverityWarning = finding.Warning
	SeverityError   = finding.Error
)

// Finding is one validation result.
type Finding = finding.Finding

// Rule describes a kind of finding.
type Rule = finding.Rule

var (
	// RuleMissingEntryPointDependency (DI001) reports an entry-point
	// constructor parameter whose type is not registered.
	RuleMissingEntryPointDependency = finding.MissingEntryPointDependency

	// RuleMissingServiceDependency (DI002) reports a type that a registered
	// service needs but that is not registered.
	RuleMissingServiceDependency = finding.MissingServiceDependency

	// RuleUnusedRegistration (DI003) reports a registration no constructor uses.
	RuleUnusedRegistration = finding.UnusedRegistration
)

// Rules lists every rule in identifier order.
func Rules() []Rule {
	return finding.Rules()
}
