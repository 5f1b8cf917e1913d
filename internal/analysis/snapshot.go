package analysis

import "github.com/mvp-joe/stepdown/internal/syntax"

// BuildSnapshot runs the full extraction pipeline over a parsed file:
// entities, call graph, dependency graph, cycles.
func BuildSnapshot(file *syntax.ParsedFile) *Snapshot {
	functions := ExtractFunctions(file)
	callGraph := BuildCallGraph(file, functions)
	deps := BuildDependencyGraph(functions, callGraph)

	return &Snapshot{
		Functions: functions,
		CallGraph: callGraph,
		Deps:      deps,
		Cycles:    DetectCycles(deps),
	}
}
