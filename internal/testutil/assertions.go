package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wvanhemert/DI-Validator/internal/finding"
)

// FindingsFor returns the findings of one rule.
func FindingsFor(findings []finding.Finding, rule finding.Rule) []finding.Finding {
	var out []finding.Finding
	for _, f := range findings {
		if f.Rule == rule.ID {
			out = append(out, f)
		}
	}
	return out
}

// TypeNames returns the type names of the findings of one rule.
func TypeNames(findings []finding.Finding, rule finding.Rule) []string {
	var out []string
	for _, f := range FindingsFor(findings, rule) {
		out = append(out, f.TypeName)
	}
	return out
}

// AssertFinding checks that exactly one finding of the rule names typeName
// and returns it.
func AssertFinding(t *testing.T, findings []finding.Finding, rule finding.Rule, typeName string) finding.Finding {
	t.Helper()

	var matched []finding.Finding
	for _, f := range FindingsFor(findings, rule) {
		if f.TypeName == typeName {
			matched = append(matched, f)
		}
	}
	if !assert.Len(t, matched, 1, "expected one %s finding for %s, got %v", rule.ID, typeName, findings) {
		return finding.Finding{}
	}
	return matched[0]
}

// AssertNoFinding checks that no finding of the rule names typeName.
func AssertNoFinding(t *testing.T, findings []finding.Finding, rule finding.Rule, typeName string) {
	t.Helper()
	assert.NotContains(t, TypeNames(findings, rule), typeName, "unexpected %s finding", rule.ID)
}

// AssertRules checks the exact multiset of rule identifiers.
func AssertRules(t *testing.T, findings []finding.Finding, ids ...string) {
	t.Helper()

	got := make([]string, len(findings))
	for i, f := range findings {
		got[i] = f.Rule
	}
	assert.ElementsMatch(t, ids, got, "findings: %v", findings)
}
