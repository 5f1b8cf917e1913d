// Package fixer reorders function-like statements so callers appear before
// their callees, splicing statement spans of the original source rather
// than pretty-printing, so untouched text keeps its exact formatting.
package fixer

import "sort"

// Order computes a deterministic caller-first ordering of the given
// function names. names must be in source order; deps is the adjacency
// restricted to those names.
//
// Cycle participants are excluded from the sort and come back as a
// fallback group in original relative order: no topological order exists
// for them, so their mutual order must not change. Leaf names (no outgoing
// edges) are removed up front and appended last in original relative
// order, so leaf fan-in cannot perturb the sort. The remaining graph is
// sorted by a three-state depth-first traversal: dependencies are visited
// in source order before a node is emitted, roots are seeded in reverse
// source order, and the post-order result is reversed into caller-first
// order.
func Order(names []string, deps map[string][]string) []string {
	sourceOrder := make(map[string]int, len(names))
	for i, n := range names {
		sourceOrder[n] = i
	}

	cyclic := cycleParticipants(names, deps)

	var leaves, remaining, fallback []string
	inGraph := map[string]bool{}
	for _, n := range names {
		if cyclic[n] {
			fallback = append(fallback, n)
			continue
		}
		if len(deps[n]) == 0 {
			leaves = append(leaves, n)
			continue
		}
		remaining = append(remaining, n)
		inGraph[n] = true
	}

	s := &sorter{
		deps:        deps,
		sourceOrder: sourceOrder,
		inGraph:     inGraph,
		state:       map[string]int{},
	}

	for i := len(remaining) - 1; i >= 0; i-- {
		if s.state[remaining[i]] == stateUnvisited {
			s.visit(remaining[i])
		}
	}

	ordered := make([]string, 0, len(names))
	for i := len(s.post) - 1; i >= 0; i-- {
		ordered = append(ordered, s.post[i])
	}
	ordered = append(ordered, fallback...)
	return append(ordered, leaves...)
}

// cycleParticipants marks every name that lies on a call cycle within the
// given subgraph. Stack-tracking depth-first search: on meeting an
// in-progress dependency, everything from it to the top of the stack is
// cyclic. Self-calls are not cycles.
func cycleParticipants(names []string, deps map[string][]string) map[string]bool {
	inSet := make(map[string]bool, len(names))
	for _, n := range names {
		inSet[n] = true
	}

	state := map[string]int{}
	onStack := map[string]int{}
	var stack []string
	cyclic := map[string]bool{}

	var visit func(name string)
	visit = func(name string) {
		state[name] = stateInProgress
		onStack[name] = len(stack)
		stack = append(stack, name)

		for _, dep := range deps[name] {
			if !inSet[dep] || dep == name {
				continue
			}
			switch state[dep] {
			case stateUnvisited:
				visit(dep)
			case stateInProgress:
				for _, n := range stack[onStack[dep]:] {
					cyclic[n] = true
				}
			}
		}

		stack = stack[:len(stack)-1]
		delete(onStack, name)
		state[name] = stateDone
	}

	for _, n := range names {
		if state[n] == stateUnvisited {
			visit(n)
		}
	}
	return cyclic
}

const (
	stateUnvisited = iota
	stateInProgress
	stateDone
)

type sorter struct {
	deps        map[string][]string
	sourceOrder map[string]int
	inGraph     map[string]bool
	state       map[string]int
	post        []string
}

func (s *sorter) visit(name string) {
	s.state[name] = stateInProgress

	next := append([]string(nil), s.deps[name]...)
	sort.Slice(next, func(i, j int) bool {
		return s.sourceOrder[next[i]] < s.sourceOrder[next[j]]
	})

	for _, dep := range next {
		if !s.inGraph[dep] {
			continue
		}
		// cycle participants never enter the sorter, so a dependency
		// here is either unvisited or already emitted
		if s.state[dep] == stateUnvisited {
			s.visit(dep)
		}
	}

	s.state[name] = stateDone
	s.post = append(s.post, name)
}
