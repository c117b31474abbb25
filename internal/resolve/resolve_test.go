package resolve_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wvanhemert/DI-Validator/internal/extract"
	"github.com/wvanhemert/DI-Validator/internal/graph"
	"github.com/wvanhemert/DI-Validator/internal/model"
	"github.com/wvanhemert/DI-Validator/internal/resolve"
	"github.com/wvanhemert/DI-Validator/internal/symbols"
	"github.com/wvanhemert/DI-Validator/internal/testutil"
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

type DB struct{}

type Store interface{ Get() }

type memStore struct{}

func (*memStore) Get() {}

func NewMemStore() *memStore { return nil }

type sqlStore struct{}

func (*sqlStore) Get() {}

func NewSQLStore(db *DB) *sqlStore { return nil }

type A struct{}
type B struct{}

func NewA(b *B) *A { return nil }
func NewB(a *A) *B { return nil }

type Handler struct{}

func NewHandler(s Store, q *lib.Queue) *Handler { return nil }

func Configure() {
	b := host.NewBuilder()
	b.Services.AddSingleton(NewMemStore, godi.As(new(Store)))
	b.Services.AddSingleton(NewSQLStore, godi.As(new(Store)))
	b.Services.AddScoped(NewA)
	b.Services.AddScoped(NewB)
	b.Services.AddTransient(NewHandler)
	lib.AddFirst(b.Services)
	lib.Nothing(b.Services)
}
`

const libSource = `package lib

import "github.com/junioryono/godi/v3"

type Queue struct{}

func NewQueue() *Queue { return nil }

type Metrics struct{}

type Worker struct{}

func NewWorker(q *Queue, m *Metrics) *Worker { return nil }

func AddFirst(c godi.Collection) error {
	c.AddSingleton(NewQueue)
	return AddSecond(c)
}

func AddSecond(c godi.Collection) error {
	c.AddSingleton(NewWorker)
	return AddFirst(c)
}

func Nothing(c godi.Collection) error { return nil }
`

func resolveProgram(t *testing.T, logger *slog.Logger) (*model.Model, *graph.DependencyGraph) {
	t.Helper()

	prog := testutil.NewProgramBuilder(t).
		Package(appUnit, appUnit, appSource).
		Package(libUnit, libUnit, libSource).
		Build()

	m := model.New(appUnit, prog.Fset)
	ex := extract.New(testutil.Conventions(), m, logger)
	for _, u := range prog.Units {
		require.NoError(t, ex.Unit(context.Background(), u))
	}
	return m, resolve.Run(m, logger)
}

func display(set *symbols.TypeSet) []string {
	var out []string
	for _, h := range set.Handles() {
		out = append(out, h.String())
	}
	return out
}

func TestRun_RegisteredServices(t *testing.T) {
	m, _ := resolveProgram(t, nil)

	assert.ElementsMatch(t, []string{
		"app.Store", "*app.A", "*app.B", "*app.Handler",
		"*lib.Queue", "*lib.Worker",
	}, display(m.RegisteredServices))

	t.Run("unused starts as every registered service", func(t *testing.T) {
		assert.ElementsMatch(t, display(m.RegisteredServices), display(m.UnusedServices))
	})

	t.Run("helper registrations carry their helper", func(t *testing.T) {
		reg := m.RegistrationFor("*example.com/lib.Worker")
		require.NotNil(t, reg)
		assert.Equal(t, "example.com/lib.AddSecond", reg.Helper)
		assert.Equal(t, libUnit, reg.Unit)
	})
}

func TestRun_HelperCycle(t *testing.T) {
	m, _ := resolveProgram(t, nil)

	var visited []string
	for _, h := range m.VisitedHelpers.Handles() {
		visited = append(visited, h.Name)
	}
	assert.Equal(t, []string{"example.com/lib.AddFirst", "example.com/lib.AddSecond"}, visited)

	t.Run("each helper contributes once", func(t *testing.T) {
		var queues int
		for _, r := range m.Registrations() {
			if r.Service.String() == "*lib.Queue" {
				queues++
			}
		}
		assert.Equal(t, 1, queues)
	})

	t.Run("helper without registrations", func(t *testing.T) {
		assert.Equal(t, 2, m.CalledRegistrationHelpers.Len())
		_, ok := m.Helper(symbols.FuncHandle{Name: "example.com/lib.Nothing"})
		assert.False(t, ok)
	})
}

func TestRun_Bindings(t *testing.T) {
	m, _ := resolveProgram(t, nil)

	store := m.RegistrationFor("example.com/app.Store")
	require.NotNil(t, store)

	impl, ok := m.Binding(store.Service.Type)
	require.True(t, ok)
	assert.Equal(t, "*app.sqlStore", impl.String(), "last registration wins")
}

func TestRun_DependencyClosure(t *testing.T) {
	m, _ := resolveProgram(t, nil)

	assert.ElementsMatch(t, []string{
		"*app.A", "*app.B", "*app.DB", "app.Store",
		"*lib.Metrics", "*lib.Queue",
	}, display(m.RegisteredServiceDependencies))

	t.Run("interface dependencies follow the bound implementation", func(t *testing.T) {
		assert.Contains(t, display(m.RegisteredServiceDependencies), "*app.DB")
	})

	t.Run("every expanded type is visited once", func(t *testing.T) {
		for _, h := range m.RegisteredServices.Handles() {
			assert.True(t, m.VisitedTypes.Contains(h.Type), "%s not visited", h)
		}
	})
}

func TestRun_Graph(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, g := resolveProgram(t, logger)
	require.NotNil(t, g)

	t.Run("registered and missing nodes", func(t *testing.T) {
		handler := g.GetNode("*example.com/app.Handler")
		require.NotNil(t, handler)
		assert.True(t, handler.Registered())
		assert.ElementsMatch(t,
			[]graph.NodeKey{"example.com/app.Store", "*example.com/lib.Queue"},
			g.GetDependencies(handler.Key))

		db := g.GetNode("*example.com/app.DB")
		require.NotNil(t, db)
		assert.False(t, db.Registered())
	})

	t.Run("interface node depends on its implementation's dependencies", func(t *testing.T) {
		assert.Equal(t, []graph.NodeKey{"*example.com/app.DB"}, g.GetDependencies("example.com/app.Store"))
	})

	t.Run("constructor cycles are logged", func(t *testing.T) {
		cycles := g.Cycles()
		require.Len(t, cycles, 1)
		assert.ElementsMatch(t,
			[]graph.NodeKey{"*example.com/app.A", "*example.com/app.B"},
			cycles[0].Path)
		assert.Contains(t, logs.String(), "constructor cycle")
	})

	t.Run("registered types are dumped at debug level", func(t *testing.T) {
		assert.Contains(t, logs.String(), "type=*lib.Worker")
		assert.Contains(t, logs.String(), "nodes=8")
	})

	t.Run("expanded helpers log what they register", func(t *testing.T) {
		assert.Contains(t, logs.String(), "msg=\"expanded helper\" helper=AddFirst registers=[*lib.Queue]")
		assert.Contains(t, logs.String(), "helper=AddSecond registers=[*lib.Worker]")
	})
}
