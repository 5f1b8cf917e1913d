// Package rules defines the violation rules and the registry the pipeline
// runs them from.
package rules

import (
	"fmt"

	"github.com/mvp-joe/stepdown/internal/analysis"
)

// Context is the shared, read-only per-file state every rule analyzes: the
// source text and the extracted snapshot. Rules never mutate it; a rule's
// fix returns new text, which forces the pipeline to rebuild the context
// before the next rule runs.
type Context struct {
	Path     string
	Source   []byte
	Snapshot *analysis.Snapshot
}

// Findings is what a rule's analyze step reports for one file.
type Findings struct {
	Stepdown []*analysis.StepdownViolation
	Nested   []*analysis.NestedViolation
	Cycles   []analysis.Cycle
}

// Count returns the number of actionable violations.
func (f *Findings) Count() int {
	if f == nil {
		return 0
	}
	return len(f.Stepdown) + len(f.Nested)
}

// Rule is one independent violation rule: analyze reports violations
// against a shared context, fix returns rewritten source text.
type Rule interface {
	ID() string
	Description() string
	Analyze(ctx *Context) (*Findings, error)
	Fix(ctx *Context, findings *Findings) (string, error)
}

// Registry holds the ordered set of registered rules. Construct it before
// any concurrent file processing begins and treat it as read-only after.
type Registry struct {
	rules []Rule
	byID  map[string]Rule
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: map[string]Rule{}}
}

// DefaultRegistry returns a registry with every built-in rule registered
// in its standard order.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(NewStepdownRule())
	r.MustRegister(NewNestedRule())
	return r
}

// Register adds a rule. Rule IDs must be unique.
func (r *Registry) Register(rule Rule) error {
	if _, exists := r.byID[rule.ID()]; exists {
		return fmt.Errorf("rule %q is already registered", rule.ID())
	}
	r.rules = append(r.rules, rule)
	r.byID[rule.ID()] = rule
	return nil
}

// MustRegister adds a rule and panics on a duplicate ID. Only for
// process-startup registration.
func (r *Registry) MustRegister(rule Rule) {
	if err := r.Register(rule); err != nil {
		panic(err)
	}
}

// Rules returns every registered rule in registration order.
func (r *Registry) Rules() []Rule {
	return r.rules
}

// Enabled filters to the given rule IDs, keeping registration order. An
// empty id list enables everything.
func (r *Registry) Enabled(ids []string) ([]Rule, error) {
	if len(ids) == 0 {
		return r.rules, nil
	}

	want := map[string]bool{}
	for _, id := range ids {
		if _, known := r.byID[id]; !known {
			return nil, fmt.Errorf("unknown rule %q", id)
		}
		want[id] = true
	}

	var enabled []Rule
	for _, rule := range r.rules {
		if want[rule.ID()] {
			enabled = append(enabled, rule)
		}
	}
	return enabled, nil
}
