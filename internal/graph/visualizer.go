package graph

import (
	"fmt"
	"io"
	"strings"

	"github.com/wvanhemert/DI-Validator/internal/lifetime"
)

// Visualizer provides methods to visualize the dependency graph
type Visualizer struct {
	graph *DependencyGraph
}

// NewVisualizer creates a new graph visualizer
func NewVisualizer(graph *DependencyGraph) *Visualizer {
	return &Visualizer{graph: graph}
}

// WriteDOT writes the graph in Graphviz DOT format
func (v *Visualizer) WriteDOT(w io.Writer) error {
	v.graph.mu.RLock()
	defer v.graph.mu.RUnlock()

	var b strings.Builder
	b.WriteString("digraph dependencies {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box];\n")

	nodes := v.graph.sortedNodesByKey()
	nodeIDs := make(map[NodeKey]string, len(nodes))
	for i, node := range nodes {
		nodeID := fmt.Sprintf("n%d", i)
		nodeIDs[node.Key] = nodeID

		fmt.Fprintf(&b, "  %s [label=\"%s\", fillcolor=\"%s\", style=filled];\n",
			nodeID, v.formatNodeLabel(node), v.getNodeColor(node))
	}

	for _, node := range nodes {
		for _, to := range v.graph.edges[node.Key] {
			fmt.Fprintf(&b, "  %s -> %s;\n", nodeIDs[node.Key], nodeIDs[to])
		}
	}

	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteText writes a text representation of the graph grouped by depth.
func (v *Visualizer) WriteText(w io.Writer) error {
	v.graph.mu.Lock()
	defer v.graph.mu.Unlock()

	var b strings.Builder
	b.WriteString("Dependency Graph:\n")
	b.WriteString("=================\n\n")

	v.graph.calculateDepths()

	depthGroups := make(map[int][]*Node)
	maxDepth := 0
	for _, node := range v.graph.sortedNodesByKey() {
		depthGroups[node.Depth] = append(depthGroups[node.Depth], node)
		if node.Depth > maxDepth {
			maxDepth = node.Depth
		}
	}

	for depth := 0; depth <= maxDepth; depth++ {
		if nodes, exists := depthGroups[depth]; exists {
			fmt.Fprintf(&b, "Level %d:\n", depth)
			b.WriteString("--------\n")

			for _, node := range nodes {
				v.writeNodeDetails(&b, node, "  ")
			}
			b.WriteString("\n")
		}
	}

	if cycleNodes, exists := depthGroups[-1]; exists {
		b.WriteString("Nodes in Cycles:\n")
		b.WriteString("----------------\n")
		for _, node := range cycleNodes {
			v.writeNodeDetails(&b, node, "  ")
		}
		b.WriteString("\n")
	}

	v.writeStatistics(&b)

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteAdjacencyList writes the graph as an adjacency list
func (v *Visualizer) WriteAdjacencyList(w io.Writer) error {
	v.graph.mu.RLock()
	defer v.graph.mu.RUnlock()

	var b strings.Builder
	for _, node := range v.graph.sortedNodesByKey() {
		tos := v.graph.edges[node.Key]
		toStrs := make([]string, len(tos))
		for i, to := range tos {
			toStrs[i] = v.graph.nodes[to].Label
		}
		fmt.Fprintf(&b, "%s -> [%s]\n", node.Label, strings.Join(toStrs, ", "))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// formatNodeLabel creates a label for a node
func (v *Visualizer) formatNodeLabel(node *Node) string {
	label := strings.ReplaceAll(node.Label, `"`, `\"`)
	return fmt.Sprintf("%s\\nIn:%d Out:%d", label, node.InDegree, node.OutDegree)
}

// getNodeColor determines the color for a node based on its registration
func (v *Visualizer) getNodeColor(node *Node) string {
	if node.Provider == nil {
		return "lightgray" // not registered
	}

	switch node.Provider.Lifetime() {
	case lifetime.Singleton:
		return "lightblue"
	case lifetime.Scoped:
		return "lightgreen"
	case lifetime.Transient:
		return "lightyellow"
	default:
		return "white"
	}
}

// writeNodeDetails writes detailed information about a node
func (v *Visualizer) writeNodeDetails(b *strings.Builder, node *Node, indent string) {
	fmt.Fprintf(b, "%s%s\n", indent, node.Label)

	if node.Provider != nil {
		fmt.Fprintf(b, "%s  Lifetime: %v\n", indent, node.Provider.Lifetime())
	} else {
		fmt.Fprintf(b, "%s  Not registered\n", indent)
	}

	if len(node.Dependencies) > 0 {
		fmt.Fprintf(b, "%s  Dependencies: [%s]\n", indent, v.labels(node.Dependencies))
	}

	if len(node.Dependents) > 0 {
		fmt.Fprintf(b, "%s  Dependents: [%s]\n", indent, v.labels(node.Dependents))
	}
}

func (v *Visualizer) labels(keys []NodeKey) string {
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = v.graph.nodes[key].Label
	}
	return strings.Join(out, ", ")
}

// writeStatistics writes graph statistics
func (v *Visualizer) writeStatistics(b *strings.Builder) {
	b.WriteString("Statistics:\n")
	b.WriteString("-----------\n")
	fmt.Fprintf(b, "  Total nodes: %d\n", len(v.graph.nodes))
	fmt.Fprintf(b, "  Total edges: %d\n", v.countEdges())

	roots, leaves := 0, 0
	for _, node := range v.graph.nodes {
		if node.InDegree == 0 {
			roots++
		}
		if node.OutDegree == 0 {
			leaves++
		}
	}
	fmt.Fprintf(b, "  Root nodes (no dependents): %d\n", roots)
	fmt.Fprintf(b, "  Leaf nodes (no dependencies): %d\n", leaves)

	if len(v.graph.cycles(1)) == 0 {
		b.WriteString("  Cycles: None (graph is acyclic)\n")
	} else {
		b.WriteString("  Cycles: DETECTED (graph contains circular dependencies)\n")
	}

	var maxDepsNode *Node
	for _, node := range v.graph.sortedNodesByKey() {
		if maxDepsNode == nil || node.OutDegree > maxDepsNode.OutDegree {
			maxDepsNode = node
		}
	}

	if maxDepsNode != nil && maxDepsNode.OutDegree > 0 {
		fmt.Fprintf(b, "  Most dependencies: %s (%d)\n", maxDepsNode.Label, maxDepsNode.OutDegree)
	}
}

// countEdges counts the total number of edges in the graph
func (v *Visualizer) countEdges() int {
	count := 0
	for _, edges := range v.graph.edges {
		count += len(edges)
	}
	return count
}
