package divalidator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wvanhemert/DI-Validator/internal/testutil"
)

const appUnit = "example.com/app"

const appSource = `package app

import (
	"example.com/host"
	"github.com/junioryono/godi/v3"
)

type Repo struct{}

type Store interface{ Get() }

type sqlStore struct{}

func (*sqlStore) Get() {}

func NewSQLStore(r *Repo) *sqlStore { return nil }

type Audit struct{}

func NewAudit() *Audit { return nil }

type A struct{}
type B struct{}

func NewA(b *B) *A { return nil }
func NewB(a *A) *B { return nil }

type Mailer interface{ Send() }

type OrdersController struct{}

func NewOrdersController(s Store, m Mailer, a *A) *OrdersController { return nil }

func Configure() {
	b := host.NewBuilder()
	b.Services.AddScoped(NewSQLStore, godi.As(new(Store)))
	b.Services.AddSingleton(NewAudit)
	b.Services.AddScoped(NewA)
	b.Services.AddScoped(NewB)
}
`

func analyzeSource(t *testing.T, cfg Config, src string) *Report {
	t.Helper()

	prog := testutil.NewProgramBuilder(t).Package(appUnit, appUnit, src).Build()
	if cfg.Conventions.ContainerPackage == "" {
		cfg.Conventions = testutil.Conventions()
	}

	report, err := analyzeUnits(context.Background(), cfg, slog.New(slog.DiscardHandler), appUnit, prog.Fset, prog.Units)
	require.NoError(t, err)
	return report
}

func TestReport_Findings(t *testing.T) {
	report := analyzeSource(t, Config{}, appSource)

	assert.NotEqual(t, uuid.Nil, report.RunID)
	assert.Equal(t, appUnit, report.MainUnit)
	assert.Equal(t, []string{appUnit}, report.Units)

	testutil.AssertFinding(t, report.Findings, RuleMissingEntryPointDependency, "app.Mailer")
	testutil.AssertFinding(t, report.Findings, RuleMissingServiceDependency, "*app.Repo")
	testutil.AssertFinding(t, report.Findings, RuleUnusedRegistration, "*app.Audit")

	assert.Len(t, report.Missing(), 2)
	assert.Len(t, report.ByRule(RuleUnusedRegistration), 1)
}

func TestReport_Registrations(t *testing.T) {
	report := analyzeSource(t, Config{}, appSource)
	require.Len(t, report.Registrations, 4)

	store := report.Registrations[0]
	assert.Equal(t, "app.Store", store.Service)
	assert.Equal(t, "*app.sqlStore", store.Implementation)
	assert.Equal(t, Scoped, store.Lifetime)
	assert.Equal(t, appUnit, store.Unit)
	assert.True(t, store.Position.IsValid())

	audit := report.Registrations[1]
	assert.Equal(t, "*app.Audit", audit.Service)
	assert.Empty(t, audit.Implementation)
	assert.Equal(t, Singleton, audit.Lifetime)

	t.Run("constructor cycles", func(t *testing.T) {
		require.Len(t, report.Cycles, 1)
		assert.Contains(t, report.Cycles[0].Error(), "circular dependency detected")
	})
}

func TestReport_Dependencies(t *testing.T) {
	report := analyzeSource(t, Config{}, appSource)

	assert.Equal(t, []string{"*app.Repo"}, report.Registrations[0].Dependencies)
	assert.Empty(t, report.Registrations[1].Dependencies)
	assert.Equal(t, []string{"app.Store"}, report.NeededBy("*app.Repo"))
	assert.Empty(t, report.NeededBy("*app.Audit"))
	assert.Empty(t, report.ConstructionOrder, "cycles have no construction order")

	t.Run("construction order", func(t *testing.T) {
		const layered = `package app

import "example.com/host"

type Config struct{}
type Repo struct{}
type Service struct{}

func NewConfig() *Config                    { return nil }
func NewRepo(c *Config) *Repo               { return nil }
func NewService(r *Repo, c *Config) *Service { return nil }

func Configure() {
	b := host.NewBuilder()
	b.Services.AddSingleton(NewService)
	b.Services.AddSingleton(NewRepo)
	b.Services.AddSingleton(NewConfig)
}
`
		report := analyzeSource(t, Config{}, layered)
		require.Empty(t, report.Cycles)
		assert.Equal(t, []string{"*app.Config", "*app.Repo", "*app.Service"}, report.ConstructionOrder)
		assert.Equal(t, []string{"*app.Repo", "*app.Service"}, report.NeededBy("*app.Config"))
	})
}

func TestReport_Failed(t *testing.T) {
	const unusedOnly = `package app

import "example.com/host"

type Audit struct{}

func NewAudit() *Audit { return nil }

func Configure() {
	b := host.NewBuilder()
	b.Services.AddSingleton(NewAudit)
}
`

	tests := []struct {
		name string
		src  string
		cfg  Config
		want bool
	}{
		{name: "missing registrations", src: appSource, want: true},
		{name: "unused registration only", src: unusedOnly, want: false},
		{name: "unused registration with fail on info", src: unusedOnly, cfg: Config{FailOnInfo: true}, want: true},
		{name: "warnings filtered out", src: appSource, cfg: Config{Severities: []Severity{SeverityInfo}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := analyzeSource(t, tt.cfg, tt.src)
			assert.Equal(t, tt.want, report.Failed(tt.cfg))
		})
	}
}

func TestReport_WriteText(t *testing.T) {
	report := analyzeSource(t, Config{}, appSource)

	var out bytes.Buffer
	require.NoError(t, report.WriteText(&out))

	text := out.String()
	assert.Contains(t, text, "---------- RESULT: 3 findings ----------")
	assert.Contains(t, text, "warning DI001: Type 'app.Mailer' is used in constructor")
	assert.Contains(t, text, "example.com/app/file0.go:")
}

func TestReport_WriteJSON(t *testing.T) {
	report := analyzeSource(t, Config{}, appSource)

	var out bytes.Buffer
	require.NoError(t, report.WriteJSON(&out))

	var doc struct {
		RunID    string `json:"run_id"`
		MainUnit string `json:"main_unit"`
		Findings []struct {
			ID       string `json:"id"`
			Severity string `json:"severity"`
			Type     string `json:"type"`
			File     string `json:"file"`
		} `json:"findings"`
		Registrations []struct {
			Service  string `json:"service"`
			Lifetime string `json:"lifetime"`
			File     string `json:"file"`
			Line     int    `json:"line"`
		} `json:"registrations"`
		Cycles []string `json:"cycles"`
		Order  []string `json:"construction_order"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))

	assert.Equal(t, report.RunID.String(), doc.RunID)
	assert.Equal(t, appUnit, doc.MainUnit)
	require.Len(t, doc.Findings, 3)
	assert.Equal(t, "DI001", doc.Findings[0].ID)
	assert.Equal(t, "Warning", doc.Findings[0].Severity)
	assert.Equal(t, "example.com/app/file0.go", doc.Findings[0].File)
	require.Len(t, doc.Registrations, 4)
	assert.Equal(t, "app.Store", doc.Registrations[0].Service)
	assert.Positive(t, doc.Registrations[0].Line)
	assert.Len(t, doc.Cycles, 1)
	assert.Empty(t, doc.Order)

	t.Run("no findings encode as an empty list", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, (&Report{}).WriteJSON(&out))
		assert.Contains(t, out.String(), `"findings": []`)
	})
}

func TestReport_WriteGraph(t *testing.T) {
	report := analyzeSource(t, Config{}, appSource)

	tests := []struct {
		format GraphFormat
		want   string
	}{
		{format: "", want: "digraph dependencies {"},
		{format: GraphDOT, want: "digraph dependencies {"},
		{format: GraphAdjacency, want: "app.Store -> [*app.Repo]"},
		{format: GraphText, want: "Not registered"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, report.WriteGraph(&out, tt.format))
			assert.Contains(t, out.String(), tt.want)
		})
	}

	t.Run("unknown format", func(t *testing.T) {
		err := report.WriteGraph(&bytes.Buffer{}, "svg")
		var cfgErr ConfigError
		assert.True(t, errors.As(err, &cfgErr))
	})
}

func TestAnalyze_Errors(t *testing.T) {
	t.Run("no locator", func(t *testing.T) {
		_, err := Analyze(context.Background(), Config{})
		assert.ErrorIs(t, err, ErrNoLocator)
		assert.NotErrorIs(t, err, ErrInconclusive)
	})

	t.Run("missing project", func(t *testing.T) {
		_, err := Analyze(context.Background(), Config{ProjectDir: t.TempDir()})
		assert.ErrorIs(t, err, ErrInconclusive)

		var loadErr WorkspaceLoadError
		require.True(t, errors.As(err, &loadErr))
		assert.NotEmpty(t, loadErr.Path)
	})

	t.Run("unknown main unit", func(t *testing.T) {
		prog := testutil.NewProgramBuilder(t).Package(appUnit, appUnit, appSource).Build()
		_, err := analyzeUnits(context.Background(), Config{}, slog.New(slog.DiscardHandler), "example.com/other", prog.Fset, prog.Units)
		assert.ErrorIs(t, err, ErrInconclusive)
	})
}
