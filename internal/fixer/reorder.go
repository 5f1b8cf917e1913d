package fixer

import (
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/stepdown/internal/analysis"
	"github.com/mvp-joe/stepdown/internal/syntax"
)

// edit replaces the byte range [start, end) of the original source with
// text. Edits never partially overlap: an edit either contains another's
// range entirely (and supersedes it) or is disjoint from it.
type edit struct {
	start, end int
	text       string
}

// ReorderTopLevel rewrites the file so top-level statements are grouped as
// imports, functions, other statements, exports, with the function group in
// caller-first topological order. Function statements inside nested bodies
// with two or more function entities are permuted in place (each keeps a
// slot, only the occupants change), so nested callee-order is corrected
// without moving functions relative to surrounding logic.
func ReorderTopLevel(source []byte, path string) (string, error) {
	file, err := syntax.Parse(source, path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	r := &rewriter{file: file, snap: analysis.BuildSnapshot(file)}
	edits := r.programEdits(file.Root())
	return applyEdits(source, edits), nil
}

// ReorderNested moves the named nested functions of each parent to the end
// of the parent's body, after all ordinary logic, preserving a
// caller-first order among the moved group. moves maps parent entity names
// to the nested entity names to relocate.
func ReorderNested(source []byte, path string, moves map[string][]string) (string, error) {
	file, err := syntax.Parse(source, path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	r := &rewriter{file: file, snap: analysis.BuildSnapshot(file), moves: moves}
	edits := r.nestedEditsIn(file.Root(), "")
	return applyEdits(source, edits), nil
}

type rewriter struct {
	file *syntax.ParsedFile
	snap *analysis.Snapshot

	// nested-move mode: parent entity name -> nested names to relocate
	moves map[string][]string
}

// programEdits reconstructs the top-level statement order.
func (r *rewriter) programEdits(root *sitter.Node) []edit {
	children := syntax.NamedChildren(root)
	stmts := withoutComments(children)
	if len(stmts) == 0 {
		return nil
	}

	var imports, funcs, others, exports []*sitter.Node
	var funcNames []string
	for _, stmt := range stmts {
		switch syntax.ClassifyStatement(stmt) {
		case syntax.StmtImport:
			imports = append(imports, stmt)
		case syntax.StmtExport:
			exports = append(exports, stmt)
		case syntax.StmtFunctionDecl, syntax.StmtFunctionBinding:
			name := syntax.FunctionStatementName(stmt, r.file.Source)
			if name == "" {
				others = append(others, stmt)
				continue
			}
			funcs = append(funcs, stmt)
			funcNames = append(funcNames, name)
		default:
			others = append(others, stmt)
		}
	}

	inner := map[*sitter.Node][]edit{}
	for _, stmt := range stmts {
		inner[stmt] = r.statementEdits(stmt)
	}

	if r.duplicatedInFile(funcNames) {
		return flatten(stmts, inner)
	}

	order := Order(funcNames, r.snap.Deps.Restrict(funcNames))
	byName := map[string]*sitter.Node{}
	for i, stmt := range funcs {
		byName[funcNames[i]] = stmt
	}

	newSeq := make([]*sitter.Node, 0, len(stmts))
	newSeq = append(newSeq, imports...)
	for _, name := range order {
		newSeq = append(newSeq, byName[name])
	}
	newSeq = append(newSeq, others...)
	newSeq = append(newSeq, exports...)

	if sameOrder(stmts, newSeq) {
		return flatten(stmts, inner)
	}

	return r.spliceSequence(children, stmts, newSeq, inner)
}

// statementEdits collects edits from the topmost function bodies inside a
// statement; blockEdits recurses from there.
func (r *rewriter) statementEdits(stmt *sitter.Node) []edit {
	var edits []edit
	syntax.Walk(stmt, func(n *sitter.Node) bool {
		if n.Kind() == syntax.KindStatementBlock && n.Id() != stmt.Id() && isFunctionBody(n) {
			edits = append(edits, r.blockEdits(n)...)
			return false
		}
		return true
	})
	return edits
}

// blockEdits permutes the function statements of a block in place when
// their dependency order demands it. Non-function statements and the
// blanks between slots never move.
func (r *rewriter) blockEdits(block *sitter.Node) []edit {
	children := syntax.NamedChildren(block)
	stmts := withoutComments(children)

	var funcs []*sitter.Node
	var funcNames []string
	for _, stmt := range stmts {
		if !syntax.IsFunctionStatement(stmt) {
			continue
		}
		name := syntax.FunctionStatementName(stmt, r.file.Source)
		if name == "" {
			continue
		}
		funcs = append(funcs, stmt)
		funcNames = append(funcNames, name)
	}

	inner := map[*sitter.Node][]edit{}
	for _, stmt := range stmts {
		inner[stmt] = r.statementEdits(stmt)
	}

	if len(funcs) < 2 || r.duplicatedInFile(funcNames) {
		return flatten(stmts, inner)
	}

	order := Order(funcNames, r.snap.Deps.Restrict(funcNames))
	if equalStrings(order, funcNames) {
		return flatten(stmts, inner)
	}

	byName := map[string]*sitter.Node{}
	for i, stmt := range funcs {
		byName[funcNames[i]] = stmt
	}

	var edits []edit
	for _, stmt := range stmts {
		if !syntax.IsFunctionStatement(stmt) || syntax.FunctionStatementName(stmt, r.file.Source) == "" {
			edits = append(edits, inner[stmt]...)
		}
	}
	for i, slot := range funcs {
		occupant := byName[order[i]]
		if occupant.Id() == slot.Id() {
			edits = append(edits, inner[slot]...)
			continue
		}
		text := spliceRange(r.file.Source, int(occupant.StartByte()), int(occupant.EndByte()), inner[occupant])
		edits = append(edits, edit{start: int(slot.StartByte()), end: int(slot.EndByte()), text: text})
	}
	return edits
}

// nestedEditsIn walks the tree tracking the enclosing function entity name
// and rewrites the bodies of parents scheduled for nested moves.
func (r *rewriter) nestedEditsIn(node *sitter.Node, parent string) []edit {
	switch node.Kind() {
	case syntax.KindFunctionDeclaration, syntax.KindGeneratorFunction:
		if name := r.file.Text(node.ChildByFieldName("name")); name != "" {
			return r.functionBodyEdits(node, name)
		}
	case syntax.KindVariableDeclarator:
		nameNode := node.ChildByFieldName("name")
		value := node.ChildByFieldName("value")
		if nameNode != nil && nameNode.Kind() == syntax.KindIdentifier && syntax.IsFunctionLiteral(value) {
			return r.functionBodyEdits(value, r.file.Text(nameNode))
		}
	}

	var edits []edit
	for i := 0; i < int(node.ChildCount()); i++ {
		edits = append(edits, r.nestedEditsIn(node.Child(uint(i)), parent)...)
	}
	return edits
}

func (r *rewriter) functionBodyEdits(funcNode *sitter.Node, name string) []edit {
	body := syntax.FunctionBody(funcNode)
	if body == nil {
		var edits []edit
		for i := 0; i < int(funcNode.ChildCount()); i++ {
			edits = append(edits, r.nestedEditsIn(funcNode.Child(uint(i)), name)...)
		}
		return edits
	}

	children := syntax.NamedChildren(body)
	stmts := withoutComments(children)

	inner := map[*sitter.Node][]edit{}
	for _, stmt := range stmts {
		inner[stmt] = r.nestedEditsIn(stmt, name)
	}

	moveNames := r.moves[name]
	if len(moveNames) == 0 {
		return flatten(stmts, inner)
	}

	moveSet := map[string]bool{}
	for _, n := range moveNames {
		moveSet[n] = true
	}

	var keep, moving []*sitter.Node
	var movingNames []string
	for _, stmt := range stmts {
		stmtName := ""
		if syntax.IsFunctionStatement(stmt) {
			stmtName = syntax.FunctionStatementName(stmt, r.file.Source)
		}
		if stmtName != "" && moveSet[stmtName] {
			moving = append(moving, stmt)
			movingNames = append(movingNames, stmtName)
			continue
		}
		keep = append(keep, stmt)
	}
	if len(moving) == 0 || r.duplicatedInFile(movingNames) {
		return flatten(stmts, inner)
	}

	order := Order(movingNames, r.snap.Deps.Restrict(movingNames))
	byName := map[string]*sitter.Node{}
	for i, stmt := range moving {
		byName[movingNames[i]] = stmt
	}

	newSeq := make([]*sitter.Node, 0, len(stmts))
	newSeq = append(newSeq, keep...)
	for _, n := range order {
		newSeq = append(newSeq, byName[n])
	}

	if sameOrder(stmts, newSeq) {
		return flatten(stmts, inner)
	}
	return r.spliceSequence(children, stmts, newSeq, inner)
}

// spliceSequence rebuilds a statement list in a new order as a single edit
// covering the span from the first statement (including its attached
// leading comments and indentation) to the last statement's end. Each
// statement travels with the gap that preceded it, so comments and blank
// lines stay glued to the statement they annotate.
func (r *rewriter) spliceSequence(children, stmts, newSeq []*sitter.Node, inner map[*sitter.Node][]edit) []edit {
	regionStart := r.chunkStart(children, stmts[0])
	regionEnd := int(stmts[len(stmts)-1].EndByte())

	chunkFrom := map[*sitter.Node]int{}
	prevEnd := regionStart
	for _, stmt := range stmts {
		chunkFrom[stmt] = prevEnd
		prevEnd = int(stmt.EndByte())
	}

	var b strings.Builder
	for i, stmt := range newSeq {
		text := spliceRange(r.file.Source, chunkFrom[stmt], int(stmt.EndByte()), inner[stmt])
		if i == 0 {
			// the region begins right after a newline; the first chunk
			// never carries a leading gap
			text = strings.TrimLeft(text, "\n")
		} else if !strings.HasPrefix(text, "\n") {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
	}

	return []edit{{start: regionStart, end: regionEnd, text: b.String()}}
}

// chunkStart finds where a statement's own region begins: its indentation
// and any comment lines directly above it (no blank line in between).
func (r *rewriter) chunkStart(children []*sitter.Node, stmt *sitter.Node) int {
	start := int(stmt.StartByte())

	idx := -1
	for i, c := range children {
		if c.Id() == stmt.Id() {
			idx = i
			break
		}
	}
	for i := idx - 1; i >= 0; i-- {
		c := children[i]
		if c.Kind() != syntax.KindComment {
			break
		}
		gap := string(r.file.Source[c.EndByte():uint(start)])
		if strings.Count(gap, "\n") != 1 {
			break
		}
		start = int(c.StartByte())
	}

	return lineIndentStart(r.file.Source, start)
}

// lineIndentStart extends a start offset left over the indentation of its
// line, stopping before the newline.
func lineIndentStart(source []byte, start int) int {
	i := start
	for i > 0 {
		ch := source[i-1]
		if ch == ' ' || ch == '\t' {
			i--
			continue
		}
		break
	}
	if i > 0 && source[i-1] == '\n' {
		return i
	}
	if i == 0 {
		return 0
	}
	// mid-line statement: keep the original start
	return start
}

func isFunctionBody(block *sitter.Node) bool {
	parent := block.Parent()
	if parent == nil {
		return false
	}
	switch parent.Kind() {
	case syntax.KindFunctionDeclaration, syntax.KindGeneratorFunction,
		syntax.KindArrowFunction, syntax.KindFunctionExpression:
		return parent.ChildByFieldName("body") != nil &&
			parent.ChildByFieldName("body").Id() == block.Id()
	}
	return false
}

func withoutComments(children []*sitter.Node) []*sitter.Node {
	var stmts []*sitter.Node
	for _, c := range children {
		if c.Kind() == syntax.KindComment {
			continue
		}
		stmts = append(stmts, c)
	}
	return stmts
}

func flatten(stmts []*sitter.Node, inner map[*sitter.Node][]edit) []edit {
	var edits []edit
	for _, stmt := range stmts {
		edits = append(edits, inner[stmt]...)
	}
	return edits
}

// duplicatedInFile reports whether any of the names is carried by more
// than one function entity anywhere in the file. The dependency model is
// name-keyed, so a name bound at two levels merges both bindings' calls;
// rather than sort on merged edges, such groups stay untouched.
func (r *rewriter) duplicatedInFile(names []string) bool {
	counts := map[string]int{}
	for _, f := range r.snap.Functions {
		counts[f.Name]++
	}
	for _, n := range names {
		if counts[n] > 1 {
			return true
		}
	}
	return false
}

func sameOrder(a, b []*sitter.Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Id() != b[i].Id() {
			return false
		}
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// applyEdits rewrites the source with the given edits. Contained edits are
// superseded by their container.
func applyEdits(source []byte, edits []edit) string {
	return spliceRange(source, 0, len(source), edits)
}

// spliceRange renders the byte range [start, end) of the source with the
// edits that fall inside it applied. Edits contained in another edit's
// range are dropped; the containing edit's text already accounts for them.
func spliceRange(source []byte, start, end int, edits []edit) string {
	var applicable []edit
	for _, e := range edits {
		if e.start >= start && e.end <= end {
			applicable = append(applicable, e)
		}
	}
	sort.Slice(applicable, func(i, j int) bool {
		if applicable[i].start != applicable[j].start {
			return applicable[i].start < applicable[j].start
		}
		// wider first so containers win
		return applicable[i].end > applicable[j].end
	})

	var b strings.Builder
	pos := start
	for _, e := range applicable {
		if e.start < pos {
			continue // contained in an already-applied edit
		}
		b.Write(source[pos:e.start])
		b.WriteString(e.text)
		pos = e.end
	}
	b.Write(source[pos:end])
	return b.String()
}
