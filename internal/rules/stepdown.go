package rules

import (
	"github.com/mvp-joe/stepdown/internal/analysis"
	"github.com/mvp-joe/stepdown/internal/fixer"
)

// StepdownRule enforces the stepdown convention between top-level
// functions: a caller must appear above every function it calls. A callee
// declared on an earlier line than its caller is a violation, unless
// either function participates in a call cycle, in which case no linear
// reordering can help and the violation is reported only as a cycle.
type StepdownRule struct{}

// NewStepdownRule constructs the rule.
func NewStepdownRule() *StepdownRule {
	return &StepdownRule{}
}

// ID implements Rule.
func (r *StepdownRule) ID() string { return "stepdown" }

// Description implements Rule.
func (r *StepdownRule) Description() string {
	return "Callers appear before the functions they call"
}

// Analyze implements Rule.
func (r *StepdownRule) Analyze(ctx *Context) (*Findings, error) {
	snap := ctx.Snapshot
	inCycle := analysis.NamesInCycles(snap.Cycles)

	var violations []*analysis.StepdownViolation
	for _, caller := range snap.TopLevel() {
		seen := map[string]bool{}
		for _, call := range snap.CallGraph.Calls(caller.Name) {
			if call.Callee == caller.Name || seen[call.Callee] {
				continue
			}
			seen[call.Callee] = true

			callee := snap.Function(call.Callee)
			if callee == nil || !callee.IsTopLevel() {
				continue
			}
			if callee.Position.Line >= caller.Position.Line {
				continue
			}
			if inCycle[caller.Name] || inCycle[callee.Name] {
				continue
			}
			violations = append(violations, analysis.NewStepdownViolation(caller, callee, call.Site))
		}
	}

	return &Findings{Stepdown: violations, Cycles: snap.Cycles}, nil
}

// Fix implements Rule: it reorders the top-level function statements into
// caller-first topological order.
func (r *StepdownRule) Fix(ctx *Context, findings *Findings) (string, error) {
	return fixer.ReorderTopLevel(ctx.Source, ctx.Path)
}
