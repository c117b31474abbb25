// Package resolve finalizes the analysis model once extraction of every unit
// has completed.
package resolve

import (
	"context"
	"log/slog"

	"github.com/wvanhemert/DI-Validator/internal/graph"
	"github.com/wvanhemert/DI-Validator/internal/model"
	"github.com/wvanhemert/DI-Validator/internal/signature"
	"github.com/wvanhemert/DI-Validator/internal/symbols"
)

// Run expands helper calls into registrations, binds interfaces to their
// implementations, computes the dependency closure of every registered
// service and seeds the unused set. It returns the dependency graph of the
// active registrations.
//
// Run must not be called before extraction of every unit has finished.
func Run(m *model.Model, logger *slog.Logger) *graph.DependencyGraph {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &resolver{model: m, logger: logger}

	r.expandHelpers()
	r.bindInterfaces()
	r.closeDependencies()

	m.UnusedServices.AddAll(m.RegisteredServices)

	if logger.Enabled(context.Background(), slog.LevelDebug) {
		for _, h := range m.RegisteredServices.Handles() {
			logger.Debug("registered", slog.String("type", h.String()))
		}
	}

	g := r.buildGraph()
	logger.Debug("dependency graph built", slog.Int("nodes", g.Size()))
	if !g.IsAcyclic() {
		for _, cycle := range g.Cycles() {
			logger.Warn("constructor cycle", slog.String("cycle", cycle.Error()))
		}
	}
	return g
}

type resolver struct {
	model  *model.Model
	logger *slog.Logger
}

// expandHelpers resolves every helper the builder calls.
func (r *resolver) expandHelpers() {
	for _, h := range r.model.CalledRegistrationHelpers.Handles() {
		r.expand(h)
	}
}

// expand adds a helper's registrations and recurses into the helpers it
// calls. Each helper contributes at most once; helpers without a declaration
// in the program contribute nothing.
func (r *resolver) expand(h symbols.FuncHandle) {
	rec, ok := r.model.Helper(h)
	if !ok {
		r.logger.Debug("helper registers nothing", slog.String("helper", h.Name))
		return
	}

	if !r.model.VisitedHelpers.AddHandle(h) {
		r.logger.Debug("helper already visited", slog.String("helper", h.Name))
		return
	}

	for _, reg := range rec.Registrations {
		r.model.AddRegistration(reg)
	}
	if r.logger.Enabled(context.Background(), slog.LevelDebug) {
		services := make([]string, 0, len(rec.Registrations))
		for _, t := range rec.Registers() {
			services = append(services, t.String())
		}
		r.logger.Debug("expanded helper",
			slog.String("helper", h.String()),
			slog.Any("registers", services))
	}

	for _, callee := range rec.Calls {
		r.expand(callee)
	}
}

// bindInterfaces records interface to implementation bindings in source
// order, so the last registration of an interface wins.
func (r *resolver) bindInterfaces() {
	for _, reg := range r.model.Registrations() {
		if reg.Implementation.Type == nil || !reg.Service.IsInterface() {
			continue
		}
		r.model.Bind(reg.Service, reg.Implementation)
	}
}

// closeDependencies walks constructor parameters breadth-first from every
// registered service. A type joins the closure when a constructor parameter
// names it; the global visited set bounds the walk on cyclic graphs.
func (r *resolver) closeDependencies() {
	for _, root := range r.model.RegisteredServices.Handles() {
		queue := []symbols.TypeHandle{root}

		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]

			if !r.model.VisitedTypes.AddHandle(current) {
				continue
			}

			for _, dep := range r.dependenciesOf(current) {
				h := symbols.NewTypeHandle(dep.Type)
				if r.model.RegisteredServiceDependencies.AddHandle(h) {
					r.logger.Debug("service dependency",
						slog.String("service", current.String()),
						slog.String("dependency", h.String()))
				}
				queue = append(queue, h)
			}
		}
	}
}

// dependenciesOf returns the required constructor dependencies of a type:
// from its class record, else from the class bound to it as an interface,
// else from the constructor it was registered with.
func (r *resolver) dependenciesOf(h symbols.TypeHandle) []*signature.Dependency {
	if rec := r.model.ClassFor(h.Type); rec != nil {
		return rec.Dependencies()
	}

	if impl, ok := r.model.Binding(h.Type); ok {
		if rec := r.model.ClassFor(impl.Type); rec != nil {
			return rec.Dependencies()
		}
	}

	if reg := r.model.RegistrationFor(h.Name); reg != nil {
		return reg.Dependencies()
	}

	return nil
}

// buildGraph adds every active registration to a dependency graph.
func (r *resolver) buildGraph() *graph.DependencyGraph {
	g := graph.NewDependencyGraph()
	for _, reg := range r.model.Registrations() {
		node := &registrationNode{reg: reg, deps: r.dependenciesOf(reg.Service)}
		if err := g.AddProvider(node); err != nil {
			r.logger.Debug("graph", slog.String("error", err.Error()))
		}
	}
	return g
}
