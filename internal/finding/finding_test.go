package finding_test

import (
	"encoding/json"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wvanhemert/DI-Validator/internal/finding"
)

func TestRule_Message(t *testing.T) {
	msg := finding.MissingEntryPointDependency.Message("app.IUnregisteredService")
	assert.Equal(t, "Type 'app.IUnregisteredService' is used in constructor but appears to be missing from DI registration.", msg)

	msg = finding.UnusedRegistration.Message("app.IScopedService")
	assert.Equal(t, "Type 'app.IScopedService' is registered but not used by any constructor.", msg)
}

func TestRules(t *testing.T) {
	rules := finding.Rules()
	require.Len(t, rules, 3)
	assert.Equal(t, "DI001", rules[0].ID)
	assert.Equal(t, finding.Warning, rules[1].Severity)
	assert.Equal(t, finding.Info, rules[2].Severity)
}

func TestSeverity_Text(t *testing.T) {
	tests := []struct {
		in      string
		want    finding.Severity
		wantErr bool
	}{
		{"Info", finding.Info, false},
		{"warn", finding.Warning, false},
		{"WARNING", finding.Warning, false},
		{"error", finding.Error, false},
		{"hidden", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var s finding.Severity
			err := s.UnmarshalText([]byte(tt.in))
			if tt.wantErr {
				var serr finding.SeverityError
				assert.ErrorAs(t, err, &serr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s)
		})
	}
}

func TestFinding_String(t *testing.T) {
	f := finding.New(finding.MissingServiceDependency, "app.Clock", "example.com/app", token.Position{})
	assert.False(t, f.HasLocation())
	assert.Equal(t, "warning DI002: Type 'app.Clock' is required by a registered service but appears to be missing from DI registration.", f.String())

	f = finding.New(finding.UnusedRegistration, "app.Cache", "example.com/app", token.Position{Filename: "cache.go", Line: 4, Column: 6})
	assert.Equal(t, "cache.go:4:6: info DI003: Type 'app.Cache' is registered but not used by any constructor.", f.String())
}

func TestFinding_JSON(t *testing.T) {
	f := finding.New(finding.UnusedRegistration, "app.Cache", "example.com/app", token.Position{Filename: "cache.go", Line: 4, Column: 6})

	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "DI003",
		"severity": "Info",
		"message": "Type 'app.Cache' is registered but not used by any constructor.",
		"type": "app.Cache",
		"unit": "example.com/app",
		"file": "cache.go",
		"line": 4,
		"column": 6
	}`, string(data))
}
