package validate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wvanhemert/DI-Validator/internal/extract"
	"github.com/wvanhemert/DI-Validator/internal/finding"
	"github.com/wvanhemert/DI-Validator/internal/model"
	"github.com/wvanhemert/DI-Validator/internal/resolve"
	"github.com/wvanhemert/DI-Validator/internal/testutil"
	"github.com/wvanhemert/DI-Validator/internal/validate"
)

const (
	appUnit = "example.com/app"
	libUnit = "example.com/lib"
)

const appSource = `package app

import (
	"example.com/host"
	"example.com/lib"
	"github.com/junioryono/godi/v3"
)

type Clock interface{ Now() int }

type Cache struct{}

func NewCache(c Clock) *Cache { return nil }

type OrdersController struct{}

func NewOrdersController(c *Cache, r *lib.Repository, m lib.Missing) *OrdersController { return nil }

func Configure() {
	b := host.NewBuilder()
	b.Services.AddSingleton(NewCache)
	godi.TryAddScoped[*lib.Repository](b.Services, lib.NewRepository)
	b.Services.AddSingleton(lib.NewUnused)
}
`

const libSource = `package lib

type Missing interface{ Missing() }

type Repository struct{}

func NewRepository() *Repository { return nil }

type Unused struct{}

func NewUnused() *Unused { return nil }

type LibController struct{}

func NewLibController(m Missing) *LibController { return nil }
`

func prepare(t *testing.T) *model.Model {
	t.Helper()

	prog := testutil.NewProgramBuilder(t).
		Package(appUnit, appUnit, appSource).
		Package(libUnit, libUnit, libSource).
		Build()

	m := model.New(appUnit, prog.Fset)
	ex := extract.New(testutil.Conventions(), m, nil)
	for _, u := range prog.Units {
		require.NoError(t, ex.Unit(context.Background(), u))
	}
	resolve.Run(m, nil)
	return m
}

func TestUnit(t *testing.T) {
	m := prepare(t)

	findings := validate.Unit(m, appUnit)
	testutil.AssertRules(t, findings, "DI001", "DI002")

	t.Run("entry-point parameter position", func(t *testing.T) {
		f := testutil.AssertFinding(t, findings, finding.MissingEntryPointDependency, "lib.Missing")
		assert.Equal(t, "example.com/app/file0.go", f.Position.Filename)
		assert.Equal(t, 17, f.Position.Line)
	})

	t.Run("service dependency has no position", func(t *testing.T) {
		f := testutil.AssertFinding(t, findings, finding.MissingServiceDependency, "app.Clock")
		assert.False(t, f.HasLocation())
	})

	t.Run("consumed registrations leave the unused set", func(t *testing.T) {
		var unused []string
		for _, h := range m.UnusedServices.Handles() {
			unused = append(unused, h.String())
		}
		assert.ElementsMatch(t, []string{"*lib.Unused"}, unused)
	})

	t.Run("entry points of other units are not checked", func(t *testing.T) {
		assert.Empty(t, validate.Unit(m, libUnit))
	})
}

func TestUnused(t *testing.T) {
	m := prepare(t)
	validate.Unit(m, appUnit)

	assert.Empty(t, validate.Unused(m, appUnit), "unused types declared in other units are reported there")

	findings := validate.Unused(m, libUnit)
	require.Len(t, findings, 1)
	assert.Equal(t, "*lib.Unused", findings[0].TypeName)
	assert.Equal(t, libUnit, findings[0].Unit)
	assert.Equal(t, "example.com/lib/file0.go", findings[0].Position.Filename)
}
