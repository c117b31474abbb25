package graph

import (
	"fmt"
	"strings"
)

// CircularDependencyError represents a constructor cycle between services.
type CircularDependencyError struct {
	Node NodeKey
	Path []NodeKey
}

func (e CircularDependencyError) Error() string {
	var b strings.Builder
	b.WriteString("circular dependency detected: ")

	if len(e.Path) == 0 {
		fmt.Fprintf(&b, "%s -> %s", e.Node, e.Node)
		return b.String()
	}

	for _, node := range e.Path {
		b.WriteString(node.String())
		b.WriteString(" -> ")
	}
	b.WriteString(e.Path[0].String())

	return b.String()
}
