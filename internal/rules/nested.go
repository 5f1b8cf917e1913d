package rules

import (
	"github.com/mvp-joe/stepdown/internal/analysis"
	"github.com/mvp-joe/stepdown/internal/fixer"
)

// NestedRule enforces that ordinary logic statements in a function body
// precede any function declared inside that body. A nested function
// declared above the last logic statement violates the rule unless its
// name is referenced elsewhere in the enclosing body, in which case the
// early declaration is doing real work and is left alone. Bodies with no
// ordinary logic are exempt. The check recurses through every entity, so
// functions nested inside callbacks are held to the same rule.
type NestedRule struct{}

// NewNestedRule constructs the rule.
func NewNestedRule() *NestedRule {
	return &NestedRule{}
}

// ID implements Rule.
func (r *NestedRule) ID() string { return "nested" }

// Description implements Rule.
func (r *NestedRule) Description() string {
	return "Function body logic precedes nested function declarations"
}

// Analyze implements Rule.
func (r *NestedRule) Analyze(ctx *Context) (*Findings, error) {
	snap := ctx.Snapshot

	var violations []*analysis.NestedViolation
	for _, parent := range snap.Functions {
		if !parent.HasBlockBody || parent.LastLogicLine == 0 {
			continue
		}
		for _, name := range parent.DirectNested {
			nested := findNested(snap, parent.Name, name)
			if nested == nil {
				continue
			}
			if nested.Position.Line >= parent.LastLogicLine {
				continue
			}
			if parent.BodyRefs[name] > 0 {
				continue
			}
			violations = append(violations, analysis.NewNestedViolation(parent, nested))
		}
	}

	return &Findings{Nested: violations}, nil
}

// Fix implements Rule: every violating nested function moves to the end of
// its parent's body, after all ordinary logic, in caller-first order
// within the moved group.
func (r *NestedRule) Fix(ctx *Context, findings *Findings) (string, error) {
	moves := map[string][]string{}
	for _, v := range findings.Nested {
		moves[v.Parent.Name] = append(moves[v.Parent.Name], v.Nested.Name)
	}
	if len(moves) == 0 {
		return string(ctx.Source), nil
	}
	return fixer.ReorderNested(ctx.Source, ctx.Path, moves)
}

// findNested resolves a direct nested entity by name under a parent.
func findNested(snap *analysis.Snapshot, parent, name string) *analysis.FunctionEntity {
	for _, f := range snap.Functions {
		if f.Name == name && f.ParentFunction == parent {
			return f
		}
	}
	return nil
}
