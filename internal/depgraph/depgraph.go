// Package depgraph builds the relationship graph of a resolved model: one
// node per record type, one directed edge per inferred relationship, parent
// to child. The graph backs FK-safe DDL ordering, the graph report, and the
// server's graph endpoint.
package depgraph

import (
	"fmt"
	"sort"

	"github.com/leapstack-labs/efscan/pkg/model"
)

// Node is one record type in the graph.
type Node struct {
	// Name is the record type's class name.
	Name string
	// Table is the underlying record type.
	Table *model.TableObject
	// SelfRef marks a type that is its own parent (parent_<Type>_id).
	// Self-references are recorded here instead of as edges; they cannot
	// influence ordering.
	SelfRef bool
}

// Graph is a directed graph over record types.
type Graph struct {
	nodes    map[string]*Node
	children map[string][]string // parent -> children (FK holders)
	parents  map[string][]string // child -> parents (referenced types)
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}
}

// FromModel derives the graph of a resolved model. Every record type
// becomes a node; every Dependant becomes an edge from the owning type to
// the dependant type, except self-references, which set the node's SelfRef
// flag instead.
func FromModel(m *model.Model) *Graph {
	g := New()
	for _, obj := range m.Objects {
		g.AddNode(obj)
	}
	for _, obj := range m.Objects {
		for _, dep := range obj.Dependants {
			if dep.Dependant == obj {
				g.nodes[obj.ClassName].SelfRef = true
				continue
			}
			// Nodes exist for every object, so AddEdge cannot fail here.
			_ = g.AddEdge(obj.ClassName, dep.Dependant.ClassName)
		}
	}
	return g
}

// AddNode adds a record type to the graph, replacing any node of the same
// name.
func (g *Graph) AddNode(table *model.TableObject) {
	name := table.ClassName
	if _, exists := g.nodes[name]; !exists {
		g.children[name] = []string{}
		g.parents[name] = []string{}
	}
	g.nodes[name] = &Node{Name: name, Table: table}
}

// AddEdge records that child holds a foreign key into parent. Both nodes
// must exist; self-loops are rejected (FromModel folds them into SelfRef).
func (g *Graph) AddEdge(parent, child string) error {
	if _, exists := g.nodes[parent]; !exists {
		return fmt.Errorf("parent node %q does not exist", parent)
	}
	if _, exists := g.nodes[child]; !exists {
		return fmt.Errorf("child node %q does not exist", child)
	}
	if parent == child {
		return fmt.Errorf("self-loop on %q; record it on the node instead", parent)
	}

	if !containsString(g.children[parent], child) {
		g.children[parent] = append(g.children[parent], child)
	}
	if !containsString(g.parents[child], parent) {
		g.parents[child] = append(g.parents[child], parent)
	}
	return nil
}

// Node returns the named node.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Nodes returns all nodes sorted by name.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })
	return nodes
}

// Parents returns the types the named type holds foreign keys into.
func (g *Graph) Parents(name string) []string {
	return g.parents[name]
}

// Children returns the types holding foreign keys into the named type.
func (g *Graph) Children(name string) []string {
	return g.children[name]
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges, self-references excluded.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, c := range g.children {
		count += len(c)
	}
	return count
}

// HasCycle reports whether the graph contains a cycle and returns the cycle
// path when it does. Mutual one-to-many declarations between two types
// produce one; generated models normally do not.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	cameFrom := make(map[string]string)

	var cyclePath []string

	var dfs func(name string) bool
	dfs = func(name string) bool {
		visited[name] = true
		recStack[name] = true

		for _, child := range g.children[name] {
			if !visited[child] {
				cameFrom[child] = name
				if dfs(child) {
					return true
				}
			} else if recStack[child] {
				cyclePath = []string{child}
				for curr := name; curr != child; curr = cameFrom[curr] {
					cyclePath = append([]string{curr}, cyclePath...)
				}
				cyclePath = append([]string{child}, cyclePath...)
				return true
			}
		}

		recStack[name] = false
		return false
	}

	names := g.sortedNames()
	for _, name := range names {
		if !visited[name] {
			if dfs(name) {
				return true, cyclePath
			}
		}
	}
	return false, nil
}

// TopologicalSort returns the nodes parents-first: every type appears after
// all types it holds foreign keys into. Fails when the graph has a cycle.
func (g *Graph) TopologicalSort() ([]*Node, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("relationship cycle detected: %v", cyclePath)
	}

	visited := make(map[string]bool)
	var result []*Node

	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		for _, parent := range g.parents[name] {
			visit(parent)
		}
		result = append(result, g.nodes[name])
	}

	for _, name := range g.sortedNames() {
		visit(name)
	}
	return result, nil
}

// Levels groups type names by depth: level 0 holds types with no parents,
// level N types whose deepest parent sits at N-1.
func (g *Graph) Levels() ([][]string, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("relationship cycle detected: %v", cyclePath)
	}

	assigned := make(map[string]int)

	var levelOf func(name string) int
	levelOf = func(name string) int {
		if level, ok := assigned[name]; ok {
			return level
		}
		level := 0
		for _, parent := range g.parents[name] {
			if pl := levelOf(parent) + 1; pl > level {
				level = pl
			}
		}
		assigned[name] = level
		return level
	}

	maxLevel := 0
	for name := range g.nodes {
		if l := levelOf(name); l > maxLevel {
			maxLevel = l
		}
	}

	levels := make([][]string, maxLevel+1)
	for name, level := range assigned {
		levels[level] = append(levels[level], name)
	}
	for i := range levels {
		sort.Strings(levels[i])
	}
	return levels, nil
}

// Roots returns types with no parents, sorted.
func (g *Graph) Roots() []string {
	var roots []string
	for name := range g.nodes {
		if len(g.parents[name]) == 0 {
			roots = append(roots, name)
		}
	}
	sort.Strings(roots)
	return roots
}

// Leaves returns types with no children, sorted.
func (g *Graph) Leaves() []string {
	var leaves []string
	for name := range g.nodes {
		if len(g.children[name]) == 0 {
			leaves = append(leaves, name)
		}
	}
	sort.Strings(leaves)
	return leaves
}

// Upstream returns every type reachable through parent links from the
// named type, the start excluded, sorted.
func (g *Graph) Upstream(name string) []string {
	seen := make(map[string]bool)

	var walk func(n string)
	walk = func(n string) {
		for _, parent := range g.parents[n] {
			if !seen[parent] {
				seen[parent] = true
				walk(parent)
			}
		}
	}
	walk(name)

	return sortedKeys(seen)
}

// Downstream returns every type reachable through child links from the
// named type, the start excluded, sorted.
func (g *Graph) Downstream(name string) []string {
	seen := make(map[string]bool)

	var walk func(n string)
	walk = func(n string) {
		for _, child := range g.children[n] {
			if !seen[child] {
				seen[child] = true
				walk(child)
			}
		}
	}
	walk(name)

	return sortedKeys(seen)
}

func (g *Graph) sortedNames() []string {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func containsString(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
