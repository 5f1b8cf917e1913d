package analysis

// Cycle is an ordered list of function names forming a call cycle. The
// final element repeats the first.
type Cycle []string

// Contains reports whether a name participates in the cycle.
func (c Cycle) Contains(name string) bool {
	for _, n := range c {
		if n == name {
			return true
		}
	}
	return false
}

// DetectCycles runs a depth-first search over the whole dependency graph
// (not restricted to top-level entities) tracking the recursion stack. On
// meeting a node already on the stack it emits the sub-path from that node
// to the current one as a cycle. Trivial self-loops are excluded.
func DetectCycles(deps *DependencyGraph) []Cycle {
	d := &cycleDetector{
		adj:     deps.Adjacency(),
		state:   map[string]int{},
		onStack: map[string]int{},
	}

	for _, name := range deps.Names() {
		if d.state[name] == stateUnvisited {
			d.visit(name)
		}
	}
	return d.cycles
}

const (
	stateUnvisited = iota
	stateInProgress
	stateDone
)

type cycleDetector struct {
	adj     map[string][]string
	state   map[string]int
	stack   []string
	onStack map[string]int // name -> stack index
	cycles  []Cycle
}

func (d *cycleDetector) visit(name string) {
	d.state[name] = stateInProgress
	d.onStack[name] = len(d.stack)
	d.stack = append(d.stack, name)

	for _, dep := range d.adj[name] {
		switch d.state[dep] {
		case stateUnvisited:
			d.visit(dep)
		case stateInProgress:
			d.emit(dep)
		}
	}

	d.stack = d.stack[:len(d.stack)-1]
	delete(d.onStack, name)
	d.state[name] = stateDone
}

// emit records the cycle from the re-entered node to the top of the stack,
// closing it with the re-entered node. Two-element cycles with identical
// endpoints are plain self-calls, not cycles.
func (d *cycleDetector) emit(start string) {
	idx := d.onStack[start]
	path := append([]string(nil), d.stack[idx:]...)
	path = append(path, start)
	if len(path) <= 2 && path[0] == path[len(path)-1] {
		return
	}
	d.cycles = append(d.cycles, Cycle(path))
}

// NamesInCycles collects every function name that appears in any cycle.
func NamesInCycles(cycles []Cycle) map[string]bool {
	names := map[string]bool{}
	for _, c := range cycles {
		for _, n := range c {
			names[n] = true
		}
	}
	return names
}
