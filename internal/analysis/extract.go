package analysis

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/stepdown/internal/syntax"
)

// ExtractFunctions walks the parsed file depth-first and produces every
// function entity: named function declarations and variable declarators
// whose identifier is a simple name and whose initializer is an arrow or
// anonymous function expression. Destructuring targets and declarators
// without initializers are skipped. While descending into a recognized
// function's body the current name becomes ParentFunction for every entity
// found inside, including entities inside call arguments (function literals
// passed as callbacks).
func ExtractFunctions(file *syntax.ParsedFile) []*FunctionEntity {
	x := &extractor{file: file}
	x.visit(file.Root(), "")
	x.finish()
	return x.entities
}

type extractor struct {
	file     *syntax.ParsedFile
	entities []*FunctionEntity

	// function nodes kept around for the second pass (body facts need the
	// full entity name set)
	bodies []pendingBody
}

type pendingBody struct {
	entity   *FunctionEntity
	funcNode *sitter.Node
}

func (x *extractor) visit(node *sitter.Node, parent string) {
	switch node.Kind() {
	case syntax.KindFunctionDeclaration, syntax.KindGeneratorFunction:
		name := x.file.Text(node.ChildByFieldName("name"))
		if name != "" {
			x.addEntity(name, KindDeclaration, declaringStatement(node), node, parent)
			x.visitChildren(node, name)
			return
		}

	case syntax.KindVariableDeclarator:
		nameNode := node.ChildByFieldName("name")
		value := node.ChildByFieldName("value")
		if nameNode != nil && nameNode.Kind() == syntax.KindIdentifier && syntax.IsFunctionLiteral(value) {
			name := x.file.Text(nameNode)
			kind := KindExpression
			if value.Kind() == syntax.KindArrowFunction {
				kind = KindArrow
			}
			stmt := declaringStatement(node.Parent())
			x.addEntity(name, kind, stmt, value, parent)
			x.visitChildren(value, name)
			// the name and type annotation carry no entities
			return
		}
	}

	x.visitChildren(node, parent)
}

func (x *extractor) visitChildren(node *sitter.Node, parent string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		x.visit(node.Child(uint(i)), parent)
	}
}

// addEntity records an entity. Position and exported status come from the
// declaring statement, so declarations and variable bindings are handled
// identically.
func (x *extractor) addEntity(name string, kind FunctionKind, stmt, funcNode *sitter.Node, parent string) {
	entity := &FunctionEntity{
		Name: name,
		Kind: kind,
		Position: Position{
			Line:        syntax.StartLine(stmt),
			Column:      syntax.StartColumn(stmt),
			StartOffset: int(stmt.StartByte()),
			EndOffset:   int(stmt.EndByte()),
		},
		IsExported:     syntax.IsExportStatement(stmt),
		ParentFunction: parent,
	}
	x.entities = append(x.entities, entity)
	x.bodies = append(x.bodies, pendingBody{entity: entity, funcNode: funcNode})
}

// finish computes body facts once every entity name is known.
func (x *extractor) finish() {
	known := make(map[string]bool, len(x.entities))
	for _, e := range x.entities {
		known[e.Name] = true
	}

	for _, pb := range x.bodies {
		x.computeBodyFacts(pb.entity, pb.funcNode)
		pb.entity.ConvertibleToDeclaration = x.convertible(pb.funcNode, known)
	}
}

func (x *extractor) computeBodyFacts(entity *FunctionEntity, funcNode *sitter.Node) {
	body := syntax.FunctionBody(funcNode)
	if body == nil {
		return
	}
	entity.HasBlockBody = true

	statements := syntax.BlockStatements(body)

	// Function-statement spans by name: identifiers inside an entity's own
	// declaring statement do not count as references to it.
	type span struct{ start, end uint }
	declSpans := map[string]span{}

	for _, stmt := range statements {
		if syntax.IsFunctionStatement(stmt) {
			if name := syntax.FunctionStatementName(stmt, x.file.Source); name != "" {
				declSpans[name] = span{stmt.StartByte(), stmt.EndByte()}
				entity.DirectNested = append(entity.DirectNested, name)
			}
			continue
		}
		if line := syntax.StartLine(stmt); line > entity.LastLogicLine {
			entity.LastLogicLine = line
		}
	}

	refs := map[string]int{}
	syntax.Walk(body, func(n *sitter.Node) bool {
		if n.Kind() != syntax.KindIdentifier {
			return true
		}
		name := x.file.Text(n)
		if s, ok := declSpans[name]; ok {
			if n.StartByte() >= s.start && n.EndByte() <= s.end {
				return true
			}
		}
		refs[name]++
		return true
	})
	entity.BodyRefs = refs
}

// convertible reports whether a function body could be rewritten as a
// declaration: no `this` reference and no free identifier that is neither a
// locally declared name nor a known function name nor a property access
// target. Informational only.
func (x *extractor) convertible(funcNode *sitter.Node, known map[string]bool) bool {
	locals := map[string]bool{}

	if params := funcNode.ChildByFieldName("parameters"); params != nil {
		syntax.Walk(params, func(n *sitter.Node) bool {
			if n.Kind() == syntax.KindIdentifier {
				locals[x.file.Text(n)] = true
			}
			return true
		})
	}

	body := funcNode.ChildByFieldName("body")
	if body == nil {
		return false
	}

	syntax.Walk(body, func(n *sitter.Node) bool {
		switch n.Kind() {
		case syntax.KindVariableDeclarator, syntax.KindFunctionDeclaration, syntax.KindGeneratorFunction:
			if nameNode := n.ChildByFieldName("name"); nameNode != nil && nameNode.Kind() == syntax.KindIdentifier {
				locals[x.file.Text(nameNode)] = true
			}
		case syntax.KindArrowFunction, syntax.KindFunctionExpression:
			if params := n.ChildByFieldName("parameters"); params != nil {
				syntax.Walk(params, func(p *sitter.Node) bool {
					if p.Kind() == syntax.KindIdentifier {
						locals[x.file.Text(p)] = true
					}
					return true
				})
			}
		}
		return true
	})

	ok := true
	syntax.Walk(body, func(n *sitter.Node) bool {
		if !ok {
			return false
		}
		switch n.Kind() {
		case syntax.KindThis:
			ok = false
			return false
		case syntax.KindIdentifier:
			name := x.file.Text(n)
			if locals[name] || known[name] {
				return true
			}
			if isAccessTarget(n) {
				return true
			}
			ok = false
			return false
		}
		return true
	})
	return ok
}

// isAccessTarget reports whether an identifier is the object of a member or
// subscript expression.
func isAccessTarget(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return false
	}
	switch parent.Kind() {
	case syntax.KindMemberExpression, syntax.KindSubscriptExpression:
		obj := parent.ChildByFieldName("object")
		return obj != nil && obj.StartByte() == n.StartByte() && obj.EndByte() == n.EndByte()
	}
	return false
}

// declaringStatement resolves the statement an entity is attributed to:
// the declaration itself, or the wrapping export statement when present.
func declaringStatement(node *sitter.Node) *sitter.Node {
	if parent := node.Parent(); parent != nil && parent.Kind() == syntax.KindExportStatement {
		return parent
	}
	return node
}
