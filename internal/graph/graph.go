// Package graph holds the dependency graph of registered services, keyed by
// canonical type name. Constructor cycles are a defect of the analyzed
// program, so the graph accepts them and reports them on request.
package graph

import (
	"fmt"
	"sort"
	"sync"

	"github.com/wvanhemert/DI-Validator/internal/lifetime"
)

// Provider defines the interface for registrations that can be added to the graph.
type Provider interface {
	// Key returns the canonical name of the service type.
	Key() NodeKey

	// Label returns a short display name for the service type.
	Label() string

	// Lifetime returns the lifetime of the registration.
	Lifetime() lifetime.Lifetime

	// Dependencies returns the dependency nodes of the service constructor.
	Dependencies() []Dependency
}

// Dependency is an edge target with its display name.
type Dependency struct {
	Key   NodeKey
	Label string
}

// DependencyGraph manages the dependency relationships between services.
// It provides cycle detection, topological sorting, and dependency analysis.
type DependencyGraph struct {
	mu    sync.RWMutex
	nodes map[NodeKey]*Node
	edges map[NodeKey][]NodeKey // adjacency list representation

	// Cache for performance
	sortedNodes      []*Node
	sortedNodesDirty bool
}

// NodeKey uniquely identifies a node in the graph by canonical type name.
type NodeKey string

// Node represents a service in the dependency graph
type Node struct {
	Key      NodeKey
	Label    string
	Provider Provider // nil for types that are depended on but not registered

	// Graph metadata
	InDegree  int // number of dependents
	OutDegree int // number of dependencies
	Depth     int // depth in dependency tree

	// Dependency information
	Dependencies []NodeKey // services this node depends on
	Dependents   []NodeKey // services that depend on this node
}

// Registered reports whether a provider was added for the node.
func (n *Node) Registered() bool {
	return n.Provider != nil
}

// NewDependencyGraph creates a new dependency graph
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes:            make(map[NodeKey]*Node),
		edges:            make(map[NodeKey][]NodeKey),
		sortedNodesDirty: true,
	}
}

// AddProvider adds a provider to the graph together with its dependency edges.
// Adding a provider for an existing key replaces its edges.
func (g *DependencyGraph) AddProvider(provider Provider) error {
	if provider == nil {
		return fmt.Errorf("provider cannot be nil")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	nodeKey := provider.Key()
	node := g.ensureNode(nodeKey, provider.Label())
	node.Provider = provider

	deps := provider.Dependencies()
	dependencies := make([]NodeKey, 0, len(deps))
	seen := make(map[NodeKey]bool, len(deps))
	for _, dep := range deps {
		if seen[dep.Key] {
			continue
		}
		seen[dep.Key] = true
		dependencies = append(dependencies, dep.Key)
		g.ensureNode(dep.Key, dep.Label)
	}

	g.edges[nodeKey] = dependencies
	g.updateDegrees()
	g.sortedNodesDirty = true

	return nil
}

func (g *DependencyGraph) ensureNode(key NodeKey, label string) *Node {
	node, exists := g.nodes[key]
	if !exists {
		node = &Node{
			Key:          key,
			Label:        label,
			Dependencies: make([]NodeKey, 0),
			Dependents:   make([]NodeKey, 0),
		}
		g.nodes[key] = node
	}
	return node
}

// updateDegrees recalculates in/out degrees for all nodes
func (g *DependencyGraph) updateDegrees() {
	for _, node := range g.nodes {
		node.InDegree = 0
		node.OutDegree = 0
		node.Dependencies = node.Dependencies[:0]
		node.Dependents = make([]NodeKey, 0, 4)
	}

	for _, from := range g.sortedKeys() {
		tos := g.edges[from]
		fromNode, exists := g.nodes[from]
		if !exists {
			continue
		}
		fromNode.OutDegree = len(tos)
		fromNode.Dependencies = append(fromNode.Dependencies[:0], tos...)

		for _, to := range tos {
			if toNode, exists := g.nodes[to]; exists {
				toNode.InDegree++
				toNode.Dependents = append(toNode.Dependents, from)
			}
		}
	}
}

// sortedKeys returns all node keys in lexical order.
func (g *DependencyGraph) sortedKeys() []NodeKey {
	keys := make([]NodeKey, 0, len(g.nodes))
	for key := range g.nodes {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// TopologicalSort returns nodes in dependency order (dependencies first).
func (g *DependencyGraph) TopologicalSort() ([]*Node, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.topologicalSort()
}

func (g *DependencyGraph) topologicalSort() ([]*Node, error) {
	if !g.sortedNodesDirty && g.sortedNodes != nil {
		result := make([]*Node, len(g.sortedNodes))
		copy(result, g.sortedNodes)
		return result, nil
	}

	// Kahn's algorithm over remaining dependency counts
	result := make([]*Node, 0, len(g.nodes))
	remaining := make(map[NodeKey]int, len(g.nodes))
	queue := make([]NodeKey, 0)
	for _, key := range g.sortedKeys() {
		remaining[key] = g.nodes[key].OutDegree
		if remaining[key] == 0 {
			queue = append(queue, key)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		node := g.nodes[current]
		result = append(result, node)

		for _, dependent := range node.Dependents {
			remaining[dependent]--
			if remaining[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(result) != len(g.nodes) {
		return nil, fmt.Errorf("circular dependency detected: graph contains %d nodes but only %d could be sorted",
			len(g.nodes), len(result))
	}

	g.sortedNodes = result
	g.sortedNodesDirty = false

	resultCopy := make([]*Node, len(result))
	copy(resultCopy, result)
	return resultCopy, nil
}

// Cycles returns every elementary cycle reachable by depth-first search,
// each reported once.
func (g *DependencyGraph) Cycles() []*CircularDependencyError {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.cycles(0)
}

// cycles finds back edges with a colored DFS. A limit of zero means no limit.
func (g *DependencyGraph) cycles(limit int) []*CircularDependencyError {
	const (
		white = iota
		grey
		black
	)

	color := make(map[NodeKey]int, len(g.nodes))
	var (
		stack []NodeKey
		found []*CircularDependencyError
	)

	var visit func(key NodeKey) bool
	visit = func(key NodeKey) bool {
		color[key] = grey
		stack = append(stack, key)

		for _, dep := range g.edges[key] {
			switch color[dep] {
			case grey:
				found = append(found, &CircularDependencyError{
					Node: dep,
					Path: cyclePath(stack, dep),
				})
				if limit > 0 && len(found) >= limit {
					return true
				}
			case white:
				if visit(dep) {
					return true
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[key] = black
		return false
	}

	for _, key := range g.sortedKeys() {
		if color[key] == white && visit(key) {
			break
		}
	}

	return found
}

// cyclePath returns the stack suffix starting at the node that closes the cycle.
func cyclePath(stack []NodeKey, start NodeKey) []NodeKey {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == start {
			path := make([]NodeKey, len(stack)-i)
			copy(path, stack[i:])
			return path
		}
	}
	return []NodeKey{start}
}

// IsAcyclic returns true if the graph has no cycles
func (g *DependencyGraph) IsAcyclic() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.cycles(1)) == 0
}

// GetDependencies returns the direct dependencies of a service
func (g *DependencyGraph) GetDependencies(key NodeKey) []NodeKey {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if node, exists := g.nodes[key]; exists {
		result := make([]NodeKey, len(node.Dependencies))
		copy(result, node.Dependencies)
		return result
	}

	return nil
}

// GetDependents returns services that depend on the given service
func (g *DependencyGraph) GetDependents(key NodeKey) []NodeKey {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if node, exists := g.nodes[key]; exists {
		result := make([]NodeKey, len(node.Dependents))
		copy(result, node.Dependents)
		return result
	}

	return nil
}

// GetNode returns the node for a given key
func (g *DependencyGraph) GetNode(key NodeKey) *Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.nodes[key]
}

// Nodes returns all nodes ordered by key.
func (g *DependencyGraph) Nodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.sortedNodesByKey()
}

func (g *DependencyGraph) sortedNodesByKey() []*Node {
	keys := g.sortedKeys()
	nodes := make([]*Node, len(keys))
	for i, key := range keys {
		nodes[i] = g.nodes[key]
	}
	return nodes
}

// Size returns the number of nodes in the graph
func (g *DependencyGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.nodes)
}

// calculateDepths assigns depth levels to nodes based on their dependencies.
// Leaves have depth 0; nodes on or above a cycle keep depth -1.
func (g *DependencyGraph) calculateDepths() {
	remaining := make(map[NodeKey]int, len(g.nodes))
	queue := make([]*Node, 0)
	for _, node := range g.sortedNodesByKey() {
		node.Depth = -1
		remaining[node.Key] = node.OutDegree
		if node.OutDegree == 0 {
			node.Depth = 0
			queue = append(queue, node)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, key := range current.Dependents {
			dependent := g.nodes[key]
			if d := current.Depth + 1; d > dependent.Depth {
				dependent.Depth = d
			}
			remaining[key]--
			if remaining[key] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	// Nodes on or above a cycle never drain.
	for key, n := range remaining {
		if n > 0 {
			g.nodes[key].Depth = -1
		}
	}
}

// String returns a string representation of the node key
func (k NodeKey) String() string {
	return string(k)
}

// String returns a string representation of the node
func (n *Node) String() string {
	return fmt.Sprintf("Node{%s, in:%d, out:%d, depth:%d}",
		n.Key.String(), n.InDegree, n.OutDegree, n.Depth)
}
