package divalidator

import (
	"encoding/json"
	"fmt"
	"go/token"
	"io"
	"slices"

	"github.com/google/uuid"

	"github.com/wvanhemert/DI-Validator/internal/finding"
	"github.com/wvanhemert/DI-Validator/internal/graph"
	"github.com/wvanhemert/DI-Validator/internal/model"
)

// GraphFormat selects the rendering of WriteGraph.
type GraphFormat string

const (
	GraphDOT       GraphFormat = "dot"
	GraphText      GraphFormat = "text"
	GraphAdjacency GraphFormat = "adjacency"
)

// RegistrationInfo describes one active registration.
type RegistrationInfo struct {
	Service        string         `json:"service"`
	Implementation string         `json:"implementation,omitempty"`
	Lifetime       Lifetime       `json:"lifetime"`
	Try            bool           `json:"try,omitempty"`
	Method         string         `json:"method"`
	Helper         string         `json:"helper,omitempty"`
	Unit           string         `json:"unit"`
	Dependencies   []string       `json:"dependencies,omitempty"`
	Position       token.Position `json:"-"`
}

// Report is the result of an analysis run.
type Report struct {
	RunID    uuid.UUID
	MainUnit string
	Units    []string

	// Findings are ordered: validation findings first, then unused
	// registrations unit by unit.
	Findings []Finding

	// Registrations lists every registration that reached the container,
	// directly or through a helper, in source order.
	Registrations []RegistrationInfo

	// Cycles lists constructor cycles among registered services.
	Cycles []*CircularDependencyError

	// ConstructionOrder lists the registered services dependencies first,
	// the order a container builds them in. It is empty when Cycles is not.
	ConstructionOrder []string

	graph *graph.DependencyGraph
}

func newReport(mainUnit string, units []string, findings []Finding, m *model.Model, g *graph.DependencyGraph) *Report {
	r := &Report{
		RunID:    uuid.New(),
		MainUnit: mainUnit,
		Units:    units,
		Findings: findings,
		graph:    g,
	}

	for _, reg := range m.Registrations() {
		info := RegistrationInfo{
			Service:  reg.Service.String(),
			Lifetime: reg.Lifetime,
			Try:      reg.Try,
			Method:   reg.Method,
			Helper:   reg.Helper,
			Unit:     reg.Unit,
			Position: m.Position(reg.Pos),
		}
		if reg.Implementation.Type != nil {
			info.Implementation = reg.Implementation.String()
		}
		if g != nil {
			info.Dependencies = labels(g, g.GetDependencies(graph.NodeKey(reg.Service.Name)))
		}
		r.Registrations = append(r.Registrations, info)
	}

	if g != nil {
		r.Cycles = g.Cycles()
		r.ConstructionOrder = constructionOrder(g)
	}
	return r
}

// constructionOrder returns the registered nodes in topological order, or
// nil when the graph has a cycle.
func constructionOrder(g *graph.DependencyGraph) []string {
	sorted, err := g.TopologicalSort()
	if err != nil {
		return nil
	}

	var out []string
	for _, node := range sorted {
		if node.Registered() {
			out = append(out, node.Label)
		}
	}
	return out
}

func labels(g *graph.DependencyGraph, keys []graph.NodeKey) []string {
	if len(keys) == 0 {
		return nil
	}
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = g.GetNode(key).Label
	}
	return out
}

// NeededBy returns the registered services whose constructors take the
// named type, ordered by canonical name. typeName is the short form used
// in findings.
func (r *Report) NeededBy(typeName string) []string {
	if r.graph == nil {
		return nil
	}

	var out []string
	for _, node := range r.graph.Nodes() {
		if node.Label == typeName {
			out = append(out, labels(r.graph, r.graph.GetDependents(node.Key))...)
		}
	}
	return out
}

// Failed reports whether the findings fail a run under cfg: any missing
// registration, any finding of warning severity or above, or, with
// FailOnInfo, any finding at all.
func (r *Report) Failed(cfg Config) bool {
	if cfg.FailOnInfo && len(r.Findings) > 0 {
		return true
	}
	return slices.ContainsFunc(r.Findings, func(f Finding) bool {
		return isMissing(f) || f.Severity >= SeverityWarning
	})
}

// Missing returns the DI001 and DI002 findings.
func (r *Report) Missing() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if isMissing(f) {
			out = append(out, f)
		}
	}
	return out
}

// ByRule returns the findings of one rule.
func (r *Report) ByRule(rule Rule) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Rule == rule.ID {
			out = append(out, f)
		}
	}
	return out
}

func isMissing(f Finding) bool {
	return f.Rule == finding.MissingEntryPointDependency.ID || f.Rule == finding.MissingServiceDependency.ID
}

// WriteText writes one line per finding between a header and a footer.
func (r *Report) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "---------- RESULT: %d findings ----------\n", len(r.Findings)); err != nil {
		return err
	}
	for _, f := range r.Findings {
		if _, err := fmt.Fprintln(w, f.String()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "-------------------------------------------")
	return err
}

type reportJSON struct {
	RunID         string             `json:"run_id"`
	MainUnit      string             `json:"main_unit"`
	Units         []string           `json:"units"`
	Findings      []Finding          `json:"findings"`
	Registrations []registrationJSON `json:"registrations"`
	Cycles        []string           `json:"cycles,omitempty"`
	Order         []string           `json:"construction_order,omitempty"`
}

type registrationJSON struct {
	RegistrationInfo
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
}

// WriteJSON writes the report as an indented JSON document.
func (r *Report) WriteJSON(w io.Writer) error {
	doc := reportJSON{
		RunID:         r.RunID.String(),
		MainUnit:      r.MainUnit,
		Units:         r.Units,
		Findings:      r.Findings,
		Registrations: make([]registrationJSON, 0, len(r.Registrations)),
		Order:         r.ConstructionOrder,
	}
	if doc.Findings == nil {
		doc.Findings = []Finding{}
	}
	for _, reg := range r.Registrations {
		doc.Registrations = append(doc.Registrations, registrationJSON{
			RegistrationInfo: reg,
			File:             reg.Position.Filename,
			Line:             reg.Position.Line,
		})
	}
	for _, c := range r.Cycles {
		doc.Cycles = append(doc.Cycles, c.Error())
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteGraph renders the dependency graph of the registered services.
func (r *Report) WriteGraph(w io.Writer, format GraphFormat) error {
	g := r.graph
	if g == nil {
		g = graph.NewDependencyGraph()
	}
	v := graph.NewVisualizer(g)

	switch format {
	case GraphDOT, "":
		return v.WriteDOT(w)
	case GraphText:
		return v.WriteText(w)
	case GraphAdjacency:
		return v.WriteAdjacencyList(w)
	default:
		return ConfigError{Field: "graph format", Cause: fmt.Errorf("unknown format %q", format)}
	}
}
