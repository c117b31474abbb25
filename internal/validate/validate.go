// Package validate checks the finalized model and emits findings.
package validate

import (
	"go/token"

	"github.com/wvanhemert/DI-Validator/internal/finding"
	"github.com/wvanhemert/DI-Validator/internal/model"
	"github.com/wvanhemert/DI-Validator/internal/symbols"
)

// Unit checks the entry-point constructors and the service dependency
// closure of the main unit. Every dependency found registered is removed
// from the unused set. Other units yield no findings.
func Unit(m *model.Model, unitID string) []finding.Finding {
	if unitID != m.MainUnit {
		return nil
	}

	var out []finding.Finding

	for _, rec := range m.EntryPoints() {
		for _, dep := range rec.Dependencies() {
			if m.RegisteredServices.Contains(dep.Type) {
				m.UnusedServices.Remove(dep.Type)
				continue
			}
			out = append(out, finding.New(
				finding.MissingEntryPointDependency,
				symbols.Display(dep.Type),
				unitID,
				m.Position(dep.Pos),
			))
		}
	}

	for _, h := range m.RegisteredServiceDependencies.Handles() {
		if m.RegisteredServices.Contains(h.Type) {
			m.UnusedServices.Remove(h.Type)
			continue
		}
		out = append(out, finding.New(
			finding.MissingServiceDependency,
			h.String(),
			unitID,
			token.Position{},
		))
	}

	return out
}

// Unused reports every registration left unused whose type is declared in
// the unit. It must run after Unit has run for every unit.
func Unused(m *model.Model, unitID string) []finding.Finding {
	var out []finding.Finding

	for _, h := range m.UnusedServices.Handles() {
		if m.UnitOfType(h) != unitID {
			continue
		}

		var pos token.Position
		if obj := h.Object(); obj != nil {
			pos = m.Position(obj.Pos())
		}
		out = append(out, finding.New(finding.UnusedRegistration, h.String(), unitID, pos))
	}

	return out
}
