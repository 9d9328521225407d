// SPDX-License-Identifier: MPL-2.0

// Package dag provides directed acyclic graph operations for ordering build
// modules. The orchestrator uses it to detect dependency cycles before any
// module executes and to partition a category's modules into execution waves.
package dag

import (
	"fmt"
	"sort"
	"strings"
)

type (
	// CycleError indicates that the graph contains a dependency cycle,
	// preventing any execution order. The build aborts before running
	// anything when this is detected.
	CycleError struct {
		// Cycle contains the nodes involved (enough to identify the
		// problem, not necessarily the minimal cycle).
		Cycle []string
	}

	// UnknownNodeError indicates that an edge references a node that was
	// never added, i.e. a module declared a dependency on a module that
	// does not exist.
	UnknownNodeError struct {
		Node      string
		DependsOn string
	}

	// Graph is a directed graph for ordering build modules. Edges represent
	// "must run before" relationships: an edge from A to B means A must
	// complete before B starts.
	Graph struct {
		// adjacency maps each node to its outgoing neighbors (nodes that
		// depend on it).
		adjacency map[string][]string
		// nodes tracks all nodes, kept sorted for deterministic output.
		nodes []string
		// nodeSet provides O(1) lookup for node existence.
		nodeSet map[string]bool
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Cycle, " -> "))
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("%q depends on %q, which does not exist", e.Node, e.DependsOn)
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		adjacency: make(map[string][]string),
		nodeSet:   make(map[string]bool),
	}
}

// AddNode adds a node to the graph. Adding an existing node is a no-op.
func (g *Graph) AddNode(name string) {
	if g.nodeSet[name] {
		return
	}
	g.nodeSet[name] = true
	g.nodes = append(g.nodes, name)
	sort.Strings(g.nodes)
}

// AddEdge adds a directed edge from -> to, meaning "from" must run before
// "to". Both endpoints must already exist: a dependency on an unknown
// module is a configuration error, surfaced as UnknownNodeError.
func (g *Graph) AddEdge(from, to string) error {
	if !g.nodeSet[from] {
		return &UnknownNodeError{Node: to, DependsOn: from}
	}
	if !g.nodeSet[to] {
		return &UnknownNodeError{Node: from, DependsOn: to}
	}
	g.adjacency[from] = append(g.adjacency[from], to)
	return nil
}

// Nodes returns all node names in lexicographic order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// inDegrees computes the in-degree of every node.
func (g *Graph) inDegrees() map[string]int {
	inDegree := make(map[string]int, len(g.nodes))
	for _, node := range g.nodes {
		inDegree[node] = 0
	}
	for _, neighbors := range g.adjacency {
		for _, neighbor := range neighbors {
			inDegree[neighbor]++
		}
	}
	return inDegree
}

// TopologicalSort returns a valid execution order using Kahn's algorithm.
// Returns CycleError if the graph contains a cycle. Nodes at the same
// topological level appear in lexicographic order, so the result is
// deterministic for any insertion order.
func (g *Graph) TopologicalSort() ([]string, error) {
	waves, err := g.Waves()
	if err != nil {
		return nil, err
	}
	var result []string
	for _, wave := range waves {
		result = append(result, wave...)
	}
	return result, nil
}

// Waves partitions the graph into dependency waves: every node in wave N
// has all of its dependencies in waves < N, so all members of a wave are
// simultaneously eligible to execute. Within a wave, nodes are sorted
// lexicographically. Returns CycleError if the graph contains a cycle.
func (g *Graph) Waves() ([][]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := g.inDegrees()

	// Seed with nodes that have no incoming edges. g.nodes is sorted, so
	// the first wave comes out sorted as well.
	current := make([]string, 0)
	for _, node := range g.nodes {
		if inDegree[node] == 0 {
			current = append(current, node)
		}
	}

	var waves [][]string
	seen := 0
	for len(current) > 0 {
		waves = append(waves, current)
		seen += len(current)

		next := make([]string, 0)
		for _, node := range current {
			for _, neighbor := range g.adjacency[node] {
				inDegree[neighbor]--
				if inDegree[neighbor] == 0 {
					next = append(next, neighbor)
				}
			}
		}
		sort.Strings(next)
		current = next
	}

	if seen != len(g.nodes) {
		// Remaining nodes with non-zero in-degree form the cycle.
		var cycleNodes []string
		for _, node := range g.nodes {
			if inDegree[node] > 0 {
				cycleNodes = append(cycleNodes, node)
			}
		}
		return nil, &CycleError{Cycle: cycleNodes}
	}

	return waves, nil
}
