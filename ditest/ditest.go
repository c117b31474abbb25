// Package ditest runs the container wiring validator from go test.
//
// A typical test in the application module:
//
//	func TestContainerWiring(t *testing.T) {
//		ditest.AssertProgram(t, divalidator.Config{ProjectType: app.Startup{}})
//	}
//
// The test is skipped, not failed, when the program cannot be located or
// loaded.
package ditest

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	divalidator "github.com/wvanhemert/DI-Validator"
)

// Failure messages.
const (
	MissingMessage = "Some expected dependencies are not registered."
	WarningMessage = "Dependency Injection Warnings were found."
	InfoMessage    = "Dependency Injection Info findings were found."
)

// AssertProgram analyzes the program named by cfg, logs every finding and
// fails t on missing registrations, on any warning, and with FailOnInfo on
// any finding at all. It returns the report, or nil when the test was
// skipped.
func AssertProgram(t testing.TB, cfg divalidator.Config) *divalidator.Report {
	t.Helper()

	report, err := divalidator.Analyze(t.Context(), cfg)
	if errors.Is(err, divalidator.ErrInconclusive) {
		t.Skipf("dependency injection validation inconclusive: %v", err)
		return nil
	}
	require.NoError(t, err, "dependency injection validation")

	assertReport(t, report, cfg)
	return report
}

func assertReport(t testing.TB, report *divalidator.Report, cfg divalidator.Config) {
	t.Helper()

	var out strings.Builder
	if err := report.WriteText(&out); err == nil {
		t.Log(out.String())
	}

	for _, f := range report.Missing() {
		if needed := report.NeededBy(f.TypeName); len(needed) > 0 {
			t.Logf("%s is needed by %s", f.TypeName, strings.Join(needed, ", "))
		}
	}
	assert.Empty(t, report.Missing(), MissingMessage)

	if slices.ContainsFunc(report.Findings, func(f divalidator.Finding) bool {
		return f.Severity >= divalidator.SeverityWarning
	}) {
		assert.Fail(t, WarningMessage)
	}

	if cfg.FailOnInfo && slices.ContainsFunc(report.Findings, func(f divalidator.Finding) bool {
		return f.Severity == divalidator.SeverityInfo
	}) {
		assert.Fail(t, InfoMessage)
	}
}
