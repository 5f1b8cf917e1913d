package analysis

import (
	"errors"

	"github.com/dominikbraun/graph"
)

// DependencyGraph is the deduplicated projection of the call graph used by
// the fixer: entity name to distinct called names, self-calls excluded.
// The directed graph is backed by dominikbraun/graph; the ordered adjacency
// lists keep traversal deterministic.
type DependencyGraph struct {
	g     graph.Graph[string, string]
	names []string
	deps  map[string][]string
}

// BuildDependencyGraph derives the dependency graph from the entity list
// and call graph.
func BuildDependencyGraph(functions []*FunctionEntity, calls *CallGraph) *DependencyGraph {
	d := &DependencyGraph{
		g:    graph.New(graph.StringHash, graph.Directed()),
		deps: map[string][]string{},
	}

	for _, f := range functions {
		if err := d.g.AddVertex(f.Name); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			continue
		}
		if _, seen := d.deps[f.Name]; !seen {
			d.names = append(d.names, f.Name)
			d.deps[f.Name] = nil
		}
	}

	for _, caller := range calls.Callers() {
		if _, known := d.deps[caller]; !known {
			continue
		}
		seen := map[string]bool{}
		for _, dep := range d.deps[caller] {
			seen[dep] = true
		}
		for _, call := range calls.Calls(caller) {
			if call.Callee == caller || seen[call.Callee] {
				continue
			}
			if _, known := d.deps[call.Callee]; !known {
				continue
			}
			if err := d.g.AddEdge(caller, call.Callee); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				continue
			}
			seen[call.Callee] = true
			d.deps[caller] = append(d.deps[caller], call.Callee)
		}
	}

	return d
}

// Names returns every entity name in source order.
func (d *DependencyGraph) Names() []string {
	return d.names
}

// Dependencies returns the distinct called names of a function, in first
// call order.
func (d *DependencyGraph) Dependencies(name string) []string {
	return d.deps[name]
}

// Adjacency returns the full name-to-dependencies map. Callers must not
// mutate it.
func (d *DependencyGraph) Adjacency() map[string][]string {
	return d.deps
}

// Restrict produces the sub-map of the adjacency covering only the given
// names, with edges to outside names removed.
func (d *DependencyGraph) Restrict(names []string) map[string][]string {
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}

	sub := make(map[string][]string, len(names))
	for _, n := range names {
		var deps []string
		for _, dep := range d.deps[n] {
			if keep[dep] {
				deps = append(deps, dep)
			}
		}
		sub[n] = deps
	}
	return sub
}

// EdgeCount reports the number of dependency edges.
func (d *DependencyGraph) EdgeCount() int {
	count := 0
	for _, deps := range d.deps {
		count += len(deps)
	}
	return count
}
