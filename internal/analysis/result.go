package analysis

import "fmt"

// StepdownViolation is a caller-before-callee ordering violation between
// two top-level entities: the callee's declaration appears above the
// caller's.
type StepdownViolation struct {
	Caller  *FunctionEntity `json:"caller"`
	Callee  *FunctionEntity `json:"callee"`
	Site    CallSite        `json:"site"`
	Message string          `json:"message"`
}

func (v *StepdownViolation) String() string {
	return fmt.Sprintf("%d:%d %s", v.Site.Line, v.Site.Column, v.Message)
}

// NewStepdownViolation builds the violation with its standard message.
func NewStepdownViolation(caller, callee *FunctionEntity, site CallSite) *StepdownViolation {
	return &StepdownViolation{
		Caller: caller,
		Callee: callee,
		Site:   site,
		Message: fmt.Sprintf("%q is called by %q but declared above it (line %d < line %d)",
			callee.Name, caller.Name, callee.Position.Line, caller.Position.Line),
	}
}

// NestedViolation is a nested function declared before the last ordinary
// logic statement of its parent's body.
type NestedViolation struct {
	Parent  *FunctionEntity `json:"parent"`
	Nested  *FunctionEntity `json:"nested"`
	Message string          `json:"message"`
}

func (v *NestedViolation) String() string {
	return fmt.Sprintf("%d:%d %s", v.Nested.Position.Line, v.Nested.Position.Column, v.Message)
}

// NewNestedViolation builds the violation with its standard message.
func NewNestedViolation(parent, nested *FunctionEntity) *NestedViolation {
	return &NestedViolation{
		Parent: parent,
		Nested: nested,
		Message: fmt.Sprintf("nested function %q is declared before the last logic statement of %q (line %d < line %d)",
			nested.Name, parent.Name, nested.Position.Line, parent.LastLogicLine),
	}
}

// AnalysisResult is the per-file outcome of an analyze run. Stepdown
// violations are cycle-filtered: any violation whose caller or callee
// participates in a cycle is non-actionable and removed.
type AnalysisResult struct {
	FilePath           string               `json:"file_path"`
	StepdownViolations []*StepdownViolation `json:"stepdown_violations"`
	NestedViolations   []*NestedViolation   `json:"nested_violations"`
	Cycles             []Cycle              `json:"cycles,omitempty"`
	TotalFunctions     int                  `json:"total_functions"`
	DependencyGraph    map[string][]string  `json:"dependency_graph,omitempty"`
	Error              string               `json:"error,omitempty"`

	// Cached marks a result served from the persistent result cache: the
	// same content was clean under the same rules on an earlier run, so
	// the file was not re-parsed and the per-file counts are not
	// populated.
	Cached bool `json:"cached,omitempty"`
}

// ViolationCount returns the number of actionable violations.
func (r *AnalysisResult) ViolationCount() int {
	return len(r.StepdownViolations) + len(r.NestedViolations)
}

// FixResult is the per-file outcome of a fix run.
type FixResult struct {
	FilePath     string   `json:"file_path"`
	Fixed        bool     `json:"fixed"`
	OriginalText string   `json:"-"`
	FixedText    string   `json:"-"`
	MovedCount   int      `json:"moved_count"`
	Errors       []string `json:"errors,omitempty"`
}

// Snapshot bundles everything the rules need from one parse: the entity
// list, call graph, dependency graph and detected cycles. It contains no
// tree-sitter state, so it can outlive the parse and be cached.
type Snapshot struct {
	Functions []*FunctionEntity
	CallGraph *CallGraph
	Deps      *DependencyGraph
	Cycles    []Cycle
}

// Function looks an entity up by name. When names collide across scopes the
// first extracted entity wins; the per-file model is name-keyed.
func (s *Snapshot) Function(name string) *FunctionEntity {
	for _, f := range s.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// TopLevel returns the top-level entities in source order.
func (s *Snapshot) TopLevel() []*FunctionEntity {
	var top []*FunctionEntity
	for _, f := range s.Functions {
		if f.IsTopLevel() {
			top = append(top, f)
		}
	}
	return top
}

// NestedIn returns the entities directly nested in the named parent, in
// source order.
func (s *Snapshot) NestedIn(parent string) []*FunctionEntity {
	var nested []*FunctionEntity
	for _, f := range s.Functions {
		if f.ParentFunction == parent {
			nested = append(nested, f)
		}
	}
	return nested
}
