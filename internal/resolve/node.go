package resolve

import (
	"github.com/wvanhemert/DI-Validator/internal/graph"
	"github.com/wvanhemert/DI-Validator/internal/lifetime"
	"github.com/wvanhemert/DI-Validator/internal/model"
	"github.com/wvanhemert/DI-Validator/internal/signature"
	"github.com/wvanhemert/DI-Validator/internal/symbols"
)

// registrationNode adapts a registration to graph.Provider.
type registrationNode struct {
	reg  *model.Registration
	deps []*signature.Dependency
}

var _ graph.Provider = (*registrationNode)(nil)

func (n *registrationNode) Key() graph.NodeKey          { return graph.NodeKey(n.reg.Service.Name) }
func (n *registrationNode) Label() string               { return n.reg.Service.String() }
func (n *registrationNode) Lifetime() lifetime.Lifetime { return n.reg.Lifetime }

func (n *registrationNode) Dependencies() []graph.Dependency {
	out := make([]graph.Dependency, 0, len(n.deps))
	for _, dep := range n.deps {
		out = append(out, graph.Dependency{
			Key:   graph.NodeKey(symbols.Canonical(dep.Type)),
			Label: symbols.Display(dep.Type),
		})
	}
	return out
}
