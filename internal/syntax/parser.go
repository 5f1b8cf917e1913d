// Package syntax wraps tree-sitter parsing of JavaScript and TypeScript
// sources and exposes the small set of node helpers the analyzer consumes.
package syntax

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// ParsedFile holds a parsed source file. Callers must Close it to release
// the underlying tree-sitter tree.
type ParsedFile struct {
	Path   string
	Source []byte

	tree *sitter.Tree
}

// Parse parses JavaScript/TypeScript source text. The TypeScript grammar
// subsumes plain JavaScript, so a single language covers both.
func Parse(source []byte, path string) (*ParsedFile, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	lang := sitter.NewLanguage(typescript.LanguageTypescript())
	parser.SetLanguage(lang)

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s", path)
	}

	root := tree.RootNode()
	if root == nil {
		tree.Close()
		return nil, fmt.Errorf("failed to parse %s: no root node", path)
	}

	return &ParsedFile{
		Path:   path,
		Source: source,
		tree:   tree,
	}, nil
}

// Root returns the root (program) node.
func (f *ParsedFile) Root() *sitter.Node {
	return f.tree.RootNode()
}

// Close releases the underlying tree.
func (f *ParsedFile) Close() {
	if f.tree != nil {
		f.tree.Close()
		f.tree = nil
	}
}

// Text extracts the text content of a node.
func (f *ParsedFile) Text(node *sitter.Node) string {
	return NodeText(node, f.Source)
}

// NodeText extracts the text content of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// StartLine returns the 1-indexed starting line of a node.
func StartLine(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

// StartColumn returns the 0-indexed starting column of a node.
func StartColumn(node *sitter.Node) int {
	return int(node.StartPosition().Column)
}

// Walk recursively walks a tree and calls the visitor for each node.
// Returning false from the visitor prunes the subtree.
func Walk(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}

	if !visitor(node) {
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		Walk(node.Child(uint(i)), visitor)
	}
}

// ChildrenByKind finds all direct children with the given node kind.
func ChildrenByKind(node *sitter.Node, kind string) []*sitter.Node {
	var results []*sitter.Node
	if node == nil {
		return results
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == kind {
			results = append(results, child)
		}
	}
	return results
}

// NamedChildren returns all named direct children of a node.
func NamedChildren(node *sitter.Node) []*sitter.Node {
	var results []*sitter.Node
	if node == nil {
		return results
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		results = append(results, node.NamedChild(uint(i)))
	}
	return results
}

// SourceExtensions lists the file extensions the parser accepts.
var SourceExtensions = []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs"}

// IsSourceFile reports whether a path looks like a parseable source file.
func IsSourceFile(path string) bool {
	for _, ext := range SourceExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
