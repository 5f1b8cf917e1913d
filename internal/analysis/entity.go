// Package analysis extracts function entities, call graphs and dependency
// graphs from parsed sources and defines the violation and result types
// shared by the rules and the fixer.
package analysis

// FunctionKind describes how a function entity is introduced in source.
type FunctionKind string

const (
	KindDeclaration FunctionKind = "declaration"
	KindArrow       FunctionKind = "arrow"
	KindExpression  FunctionKind = "expression"
)

// Position locates an entity's enclosing statement in the source file.
type Position struct {
	Line        int `json:"line"`
	Column      int `json:"column"`
	StartOffset int `json:"start_offset"`
	EndOffset   int `json:"end_offset"`
}

// FunctionEntity is a named function discovered in a file: a function
// declaration, or a variable binding initialized with an arrow or
// anonymous function expression.
type FunctionEntity struct {
	Name       string       `json:"name"`
	Kind       FunctionKind `json:"kind"`
	Position   Position     `json:"position"`
	IsExported bool         `json:"is_exported"`

	// ParentFunction names the nearest lexically enclosing function
	// entity, or "" for top-level entities.
	ParentFunction string `json:"parent_function,omitempty"`

	// ConvertibleToDeclaration is informational: the body references no
	// `this` and no free identifier other than known function names. The
	// fixer does not act on it.
	ConvertibleToDeclaration bool `json:"convertible_to_declaration"`

	// Body facts consumed by the nested-declaration rule. LastLogicLine is
	// the maximum starting line among the body's direct statements that
	// are ordinary logic (0 when none exist). BodyRefs counts identifier
	// references per name inside the body, excluding each nested entity's
	// own declaring statement.
	HasBlockBody  bool           `json:"-"`
	LastLogicLine int            `json:"-"`
	BodyRefs      map[string]int `json:"-"`

	// DirectNested names the function entities declared as direct
	// statements of this entity's body, in source order.
	DirectNested []string `json:"-"`
}

// IsTopLevel reports whether the entity is a direct child of the file.
func (e *FunctionEntity) IsTopLevel() bool {
	return e.ParentFunction == ""
}

// CallSite locates a call expression.
type CallSite struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Call is one outgoing edge of the call graph: a call from an enclosing
// function to a known entity, with its site.
type Call struct {
	Callee string   `json:"callee"`
	Site   CallSite `json:"site"`
}
