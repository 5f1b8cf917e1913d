package analysis

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/stepdown/internal/syntax"
)

// CallGraph maps function entity names to their ordered outgoing calls,
// restricted to calls whose callee name matches another known entity in the
// same file.
type CallGraph struct {
	calls map[string][]Call
	order []string
}

// Calls returns the outgoing calls of a function, in source order.
func (g *CallGraph) Calls(name string) []Call {
	return g.calls[name]
}

// Callers returns every caller name in first-seen order.
func (g *CallGraph) Callers() []string {
	return g.order
}

// BuildCallGraph records, for every call expression whose callee is a bare
// identifier naming a known entity, an edge from the nearest lexically
// enclosing function to the callee. Top-level calls have no enclosing
// function and are dropped; they sit outside the stepdown model.
func BuildCallGraph(file *syntax.ParsedFile, functions []*FunctionEntity) *CallGraph {
	known := make(map[string]bool, len(functions))
	for _, f := range functions {
		known[f.Name] = true
	}

	g := &CallGraph{calls: map[string][]Call{}}

	syntax.Walk(file.Root(), func(n *sitter.Node) bool {
		if n.Kind() != syntax.KindCallExpression {
			return true
		}

		callee := n.ChildByFieldName("function")
		if callee == nil || callee.Kind() != syntax.KindIdentifier {
			return true
		}
		name := file.Text(callee)
		if !known[name] {
			return true
		}

		caller := enclosingFunctionName(file, n)
		if caller == "" {
			return true
		}

		if _, seen := g.calls[caller]; !seen {
			g.order = append(g.order, caller)
		}
		g.calls[caller] = append(g.calls[caller], Call{
			Callee: name,
			Site: CallSite{
				Line:   syntax.StartLine(n),
				Column: syntax.StartColumn(n),
			},
		})
		return true
	})

	return g
}

// enclosingFunctionName walks parent links from a call site until it finds
// a function declaration or a function-bound variable declarator whose
// range contains the call, and returns that function's name. Returns ""
// for top-level calls.
func enclosingFunctionName(file *syntax.ParsedFile, call *sitter.Node) string {
	for n := call.Parent(); n != nil; n = n.Parent() {
		switch n.Kind() {
		case syntax.KindFunctionDeclaration, syntax.KindGeneratorFunction:
			if name := file.Text(n.ChildByFieldName("name")); name != "" {
				return name
			}
		case syntax.KindVariableDeclarator:
			nameNode := n.ChildByFieldName("name")
			value := n.ChildByFieldName("value")
			if nameNode == nil || nameNode.Kind() != syntax.KindIdentifier || !syntax.IsFunctionLiteral(value) {
				continue
			}
			// only calls inside the bound function literal belong to it
			if call.StartByte() >= value.StartByte() && call.EndByte() <= value.EndByte() {
				return file.Text(nameNode)
			}
		}
	}
	return ""
}
