// Package divalidator statically validates the dependency-injection wiring of
// Go programs built on godi.
//
// # Overview
//
// The validator loads every module of a program without running it and
// answers three questions about the container setup of the main module:
//   - Does every constructor parameter of an entry point (a type named
//     *Controller, or one embedding ControllerBase) have a registration?
//   - Does every type a registered service transitively needs have one?
//   - Is every registered service consumed by some constructor?
//
// Missing registrations are reported as warnings (DI001, DI002) and unused
// registrations as info findings (DI003).
//
// # Basic Usage
//
// Point the validator at the main module and inspect the report:
//
//	report, err := divalidator.Analyze(ctx, divalidator.Config{
//	    ProjectDir: "./cmd/api",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report.WriteText(os.Stdout)
//	if report.Failed(cfg) {
//	    os.Exit(1)
//	}
//
// In tests, the ditest package turns the report into assertions:
//
//	func TestWiring(t *testing.T) {
//	    ditest.AssertProgram(t, divalidator.Config{ProjectType: api.Server{}})
//	}
//
// # What Counts as a Registration
//
// Registrations are calls on the services collection of the builder, or on
// any collection variable of the main module when no builder type is
// configured:
//
//	builder.Services.AddSingleton(NewLogger)
//	builder.Services.AddScoped(NewUserService, godi.As(new(UserService)))
//	godi.TryAddTransient[Cache](builder.Services, NewRedisCache)
//
// The registered key is the first generic type argument, otherwise the
// interfaces named by godi.As, otherwise the constructor's result types.
// Result objects embedding godi.Out register each of their fields.
//
// # Helpers and Modules
//
// Functions taking the collection as first parameter, functions returning a
// godi.ModuleOption, and package-level module variables are helpers. A helper
// called from the main module contributes every registration it makes,
// including those of the helpers and modules it calls in turn:
//
//	func AddPersistence(c godi.Collection) error {
//	    c.AddSingleton(NewDB)
//	    return AddRepositories(c)
//	}
//
//	var Module = godi.NewModule("users",
//	    godi.AddScoped(NewUserRepository),
//	    AddPersistence,
//	)
//
// Helpers may live in any module of the workspace.
//
// # Parameter Objects
//
// Constructors taking a struct embedding godi.In depend on its fields. Fields
// tagged optional:"true", group:"..." or inject:"-" are not required:
//
//	type HandlerParams struct {
//	    godi.In
//
//	    Users   UserService
//	    Metrics Metrics        `optional:"true"`
//	    Routes  []http.Handler `group:"routes"`
//	}
//
// # Identity Across Modules
//
// Every module is type-checked on its own, so the same declared type is a
// different go/types object in each. Types are therefore compared by their
// fully qualified name, and T and *T are distinct services.
//
// # Configuration
//
// Config selects the program (ProjectDir, ProjectType or WorkspaceDir), the
// severities to report, logging, and the container conventions. LoadConfig
// reads the same settings from YAML:
//
//	project_dir: ./cmd/api
//	severities: [warning]
//	fail_on_info: false
//	conventions:
//	  builder_type: example.com/platform/host.Builder
//
// # Error Handling
//
// Configuration problems are returned as ConfigError. Failure to locate or
// load the program is returned as WorkspaceLoadError, which matches
// ErrInconclusive:
//
//	if errors.Is(err, divalidator.ErrInconclusive) {
//	    // the program could not be analyzed
//	}
//
// Gaps in the analysis, such as a helper whose body cannot be seen, never
// produce errors; they show up as missing registrations instead.
//
// # Dependency Graph
//
// The report carries the graph of registered services and their constructor
// dependencies. WriteGraph renders it as DOT or as a leveled text dump.
// Constructor cycles are logged, not reported as findings.
package divalidator
