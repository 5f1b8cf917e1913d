package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the call graph builder:
// - Edges only for bare-identifier calls to known entities
// - Call sites carry line and column
// - Calls attribute to the nearest enclosing named function, through
//   anonymous callbacks
// - Top-level calls are dropped

func TestBuildCallGraph_SimpleEdge(t *testing.T) {
	t.Parallel()

	file := parse(t, `function helper() {
  return "h";
}

function main() {
  return helper();
}
`)

	entities := ExtractFunctions(file)
	g := BuildCallGraph(file, entities)

	calls := g.Calls("main")
	require.Len(t, calls, 1)
	assert.Equal(t, "helper", calls[0].Callee)
	assert.Equal(t, 6, calls[0].Site.Line)

	assert.Empty(t, g.Calls("helper"))
	assert.Equal(t, []string{"main"}, g.Callers())
}

func TestBuildCallGraph_UnknownCalleesIgnored(t *testing.T) {
	t.Parallel()

	file := parse(t, `function main() {
  console.log("hi");
  fetch("/api");
  local();
}

function local() {}
`)

	entities := ExtractFunctions(file)
	g := BuildCallGraph(file, entities)

	calls := g.Calls("main")
	require.Len(t, calls, 1)
	assert.Equal(t, "local", calls[0].Callee)
}

func TestBuildCallGraph_CallbackAttribution(t *testing.T) {
	t.Parallel()

	file := parse(t, `function helper() {
  return 1;
}

const run = () => {
  items.forEach(function () {
    helper();
  });
};
`)

	entities := ExtractFunctions(file)
	g := BuildCallGraph(file, entities)

	calls := g.Calls("run")
	require.Len(t, calls, 1)
	assert.Equal(t, "helper", calls[0].Callee)
}

func TestBuildCallGraph_TopLevelCallsDropped(t *testing.T) {
	t.Parallel()

	file := parse(t, `function helper() {
  return 1;
}

helper();
`)

	entities := ExtractFunctions(file)
	g := BuildCallGraph(file, entities)
	assert.Empty(t, g.Callers())
}
