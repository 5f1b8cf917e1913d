package syntax

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// StatementKind classifies a statement for ordering purposes. The analyzer
// and the fixer both switch on this closed set rather than re-inspecting
// raw node kinds.
type StatementKind int

const (
	StmtOther StatementKind = iota
	StmtImport
	StmtExport
	StmtFunctionDecl
	StmtFunctionBinding
)

// Node kind names of the TypeScript grammar the analyzer consumes.
const (
	KindProgram             = "program"
	KindImportStatement     = "import_statement"
	KindExportStatement     = "export_statement"
	KindFunctionDeclaration = "function_declaration"
	KindGeneratorFunction   = "generator_function_declaration"
	KindLexicalDeclaration  = "lexical_declaration"
	KindVariableDeclaration = "variable_declaration"
	KindVariableDeclarator  = "variable_declarator"
	KindArrowFunction       = "arrow_function"
	KindFunctionExpression  = "function_expression"
	KindCallExpression      = "call_expression"
	KindIdentifier          = "identifier"
	KindStatementBlock      = "statement_block"
	KindReturnStatement     = "return_statement"
	KindComment             = "comment"
	KindThis                = "this"
	KindMemberExpression    = "member_expression"
	KindSubscriptExpression = "subscript_expression"
)

// ClassifyStatement determines the StatementKind of a top-level or block
// statement. An export statement that declares a function (or a variable
// binding whose every initializer is a function literal) classifies as the
// function kind, not as an export: exported functions participate in
// reordering, bare re-export statements never move.
func ClassifyStatement(node *sitter.Node) StatementKind {
	switch node.Kind() {
	case KindImportStatement:
		return StmtImport
	case KindExportStatement:
		decl := node.ChildByFieldName("declaration")
		if decl == nil {
			return StmtExport
		}
		switch ClassifyStatement(decl) {
		case StmtFunctionDecl:
			return StmtFunctionDecl
		case StmtFunctionBinding:
			return StmtFunctionBinding
		}
		return StmtExport
	case KindFunctionDeclaration, KindGeneratorFunction:
		return StmtFunctionDecl
	case KindLexicalDeclaration, KindVariableDeclaration:
		if isFunctionBindingDeclaration(node) {
			return StmtFunctionBinding
		}
		return StmtOther
	default:
		return StmtOther
	}
}

// IsFunctionStatement reports whether a statement declares or binds a
// function entity.
func IsFunctionStatement(node *sitter.Node) bool {
	kind := ClassifyStatement(node)
	return kind == StmtFunctionDecl || kind == StmtFunctionBinding
}

// IsFunctionLiteral reports whether a node is an arrow function or an
// anonymous function expression.
func IsFunctionLiteral(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	switch node.Kind() {
	case KindArrowFunction, KindFunctionExpression:
		return true
	}
	return false
}

// UnwrapExport returns the declaration wrapped by an export statement, or
// the node itself when it is not an export.
func UnwrapExport(node *sitter.Node) *sitter.Node {
	if node.Kind() == KindExportStatement {
		if decl := node.ChildByFieldName("declaration"); decl != nil {
			return decl
		}
	}
	return node
}

// IsExportStatement reports whether a statement carries an explicit export
// modifier, regardless of what it declares.
func IsExportStatement(node *sitter.Node) bool {
	return node.Kind() == KindExportStatement
}

// FunctionStatementName returns the binding identifier of a function
// statement: the declaration name, or the single declarator name of a
// function-bound variable statement. Returns "" for anything else
// (destructuring targets and initializer-less declarators never name an
// entity).
func FunctionStatementName(node *sitter.Node, source []byte) string {
	decl := UnwrapExport(node)

	switch decl.Kind() {
	case KindFunctionDeclaration, KindGeneratorFunction:
		return NodeText(decl.ChildByFieldName("name"), source)
	case KindLexicalDeclaration, KindVariableDeclaration:
		for _, declarator := range ChildrenByKind(decl, KindVariableDeclarator) {
			name := declarator.ChildByFieldName("name")
			value := declarator.ChildByFieldName("value")
			if name == nil || value == nil {
				continue
			}
			if name.Kind() != KindIdentifier || !IsFunctionLiteral(value) {
				continue
			}
			return NodeText(name, source)
		}
	}
	return ""
}

// isFunctionBindingDeclaration reports whether every declarator of a
// variable statement that has an initializer initializes to a function
// literal, and at least one does.
func isFunctionBindingDeclaration(node *sitter.Node) bool {
	declarators := ChildrenByKind(node, KindVariableDeclarator)
	if len(declarators) == 0 {
		return false
	}

	found := false
	for _, declarator := range declarators {
		value := declarator.ChildByFieldName("value")
		if value == nil {
			continue
		}
		if !IsFunctionLiteral(value) {
			return false
		}
		name := declarator.ChildByFieldName("name")
		if name != nil && name.Kind() == KindIdentifier {
			found = true
		}
	}
	return found
}

// FunctionBody returns the block body of a function-like node, or nil when
// the body is a concise (expression) body.
func FunctionBody(node *sitter.Node) *sitter.Node {
	body := node.ChildByFieldName("body")
	if body != nil && body.Kind() == KindStatementBlock {
		return body
	}
	return nil
}

// BlockStatements returns the direct statement children of a block or
// program node, excluding comments and the block braces.
func BlockStatements(node *sitter.Node) []*sitter.Node {
	var statements []*sitter.Node
	for _, child := range NamedChildren(node) {
		if child.Kind() == KindComment {
			continue
		}
		statements = append(statements, child)
	}
	return statements
}
