package dag

import (
	"fmt"
	"sort"
	"strings"
)

// Graph declares nodes and edges (dependency relationships).
// Nodes added with AddNode keep their declaration order, which fixes the
// order of nodes within a level.
type Graph struct {
	Nodes map[string]Node
	Edges []Edge

	order []string
}

// Edge represents a dependency: To depends on From.
type Edge struct {
	From string
	To   string
}

// NewGraph creates an empty Graph.
func NewGraph() *Graph {
	return &Graph{Nodes: make(map[string]Node)}
}

// AddNode declares a node. Names must be unique.
func (g *Graph) AddNode(node Node) error {
	if g.Nodes == nil {
		g.Nodes = make(map[string]Node)
	}
	name := node.Name()
	if _, exists := g.Nodes[name]; exists {
		return fmt.Errorf("dag: duplicate node %q", name)
	}
	g.Nodes[name] = node
	g.order = append(g.order, name)
	return nil
}

// AddEdge declares that to depends on from.
func (g *Graph) AddEdge(from, to string) {
	g.Edges = append(g.Edges, Edge{From: from, To: to})
}

// Has reports whether a node is declared.
func (g *Graph) Has(name string) bool {
	_, ok := g.Nodes[name]
	return ok
}

// Order returns node names in declaration order. Nodes placed directly in
// the Nodes map follow, sorted by name.
func (g *Graph) Order() []string {
	names := make([]string, 0, len(g.Nodes))
	seen := make(map[string]bool, len(g.order))
	for _, name := range g.order {
		if _, ok := g.Nodes[name]; ok && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	var rest []string
	for name := range g.Nodes {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// Dependencies returns the names the given node depends on, in edge order.
func (g *Graph) Dependencies(name string) []string {
	var deps []string
	for _, e := range g.Edges {
		if e.To == name {
			deps = append(deps, e.From)
		}
	}
	return deps
}

// BuildLevels uses Kahn's algorithm to group nodes by dependency level.
// Nodes within the same level can execute in parallel and are listed in
// declaration order. Returns an error if a cycle is detected.
func BuildLevels(g *Graph) ([][]string, error) {
	order := g.Order()
	position := make(map[string]int, len(order))
	inDegree := make(map[string]int, len(order))
	for i, name := range order {
		position[name] = i
		inDegree[name] = 0
	}

	dependents := make(map[string][]string)
	for _, e := range g.Edges {
		if _, ok := g.Nodes[e.From]; !ok {
			return nil, fmt.Errorf("dag: edge references unknown node %q", e.From)
		}
		if _, ok := g.Nodes[e.To]; !ok {
			return nil, fmt.Errorf("dag: edge references unknown node %q", e.To)
		}
		inDegree[e.To]++
		dependents[e.From] = append(dependents[e.From], e.To)
	}

	var queue []string
	for _, name := range order {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	var levels [][]string
	visited := 0

	for len(queue) > 0 {
		levels = append(levels, queue)
		visited += len(queue)

		var next []string
		for _, name := range queue {
			for _, dep := range dependents[name] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		sort.Slice(next, func(i, j int) bool { return position[next[i]] < position[next[j]] })
		queue = next
	}

	if visited != len(order) {
		var stuck []string
		for _, name := range order {
			if inDegree[name] > 0 {
				stuck = append(stuck, name)
			}
		}
		return nil, fmt.Errorf("dag: cycle detected, processed %d of %d nodes (blocked: %s)",
			visited, len(order), strings.Join(stuck, ", "))
	}

	return levels, nil
}
