package fixer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the reorderer:
// - Caller moves above its callee, exact text preserved
// - Imports stay first, exports stay last, other logic keeps its group
// - Leading comments travel with the statement they annotate
// - Reordering its own output is a no-op
// - A call cycle keeps its original relative order while the rest of the
//   file still sorts caller-first
// - Duplicate names, same level or cross level, leave the group as written
// - Nested blocks with multiple function entities permute in place
// - ReorderNested moves named functions after the parent's logic

func orderOf(t *testing.T, text string, fragments ...string) {
	t.Helper()
	prev := -1
	for _, frag := range fragments {
		idx := strings.Index(text, frag)
		require.GreaterOrEqual(t, idx, 0, "fragment %q missing from:\n%s", frag, text)
		require.Greater(t, idx, prev, "fragment %q out of order in:\n%s", frag, text)
		prev = idx
	}
}

func TestReorderTopLevel_CallerFirst(t *testing.T) {
	t.Parallel()

	source := "function helper() {\n  return \"h\";\n}\n\nfunction main() {\n  return helper();\n}\n"

	fixed, err := ReorderTopLevel([]byte(source), "a.js")
	require.NoError(t, err)

	expected := "function main() {\n  return helper();\n}\n\nfunction helper() {\n  return \"h\";\n}\n"
	assert.Equal(t, expected, fixed)
}

func TestReorderTopLevel_ImportsAndExportsStay(t *testing.T) {
	t.Parallel()

	source := `import { x } from "./x";

function helper() {
  return x;
}

function main() {
  return helper();
}

export { main };
`

	fixed, err := ReorderTopLevel([]byte(source), "a.ts")
	require.NoError(t, err)

	orderOf(t, fixed,
		`import { x } from "./x";`,
		"function main()",
		"function helper()",
		"export { main };",
	)
}

func TestReorderTopLevel_CommentsTravel(t *testing.T) {
	t.Parallel()

	source := `// helper computes h
function helper() {
  return "h";
}

function main() {
  return helper();
}
`

	fixed, err := ReorderTopLevel([]byte(source), "a.js")
	require.NoError(t, err)

	orderOf(t, fixed,
		"function main()",
		"// helper computes h",
		"function helper()",
	)
	// the comment sits directly above its function
	assert.Contains(t, fixed, "// helper computes h\nfunction helper()")
}

func TestReorderTopLevel_Idempotent(t *testing.T) {
	t.Parallel()

	source := `function helper() {
  return 1;
}

function mid() {
  return helper();
}

function main() {
  return mid();
}
`

	once, err := ReorderTopLevel([]byte(source), "a.js")
	require.NoError(t, err)
	twice, err := ReorderTopLevel([]byte(once), "a.js")
	require.NoError(t, err)
	assert.Equal(t, once, twice)
	orderOf(t, once, "function main()", "function mid()", "function helper()")
}

func TestReorderTopLevel_CycleKeepsRelativeOrder(t *testing.T) {
	t.Parallel()

	source := `function ping() {
  return pong();
}

function pong() {
  return bounce();
}

function bounce() {
  return ping();
}

function helper() {
  return 1;
}

function main() {
  return helper();
}
`

	once, err := ReorderTopLevel([]byte(source), "a.js")
	require.NoError(t, err)

	// main moves above helper; the ring keeps its original order
	orderOf(t, once,
		"function main()",
		"function ping()",
		"function pong()",
		"function bounce()",
		"function helper()",
	)

	twice, err := ReorderTopLevel([]byte(once), "a.js")
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestReorderTopLevel_NestedBlockPermutesInPlace(t *testing.T) {
	t.Parallel()

	source := `function outer() {
  function callee() {
    return 1;
  }
  function caller() {
    return callee();
  }
  return caller();
}
`

	fixed, err := ReorderTopLevel([]byte(source), "a.js")
	require.NoError(t, err)

	orderOf(t, fixed,
		"function outer()",
		"function caller()",
		"function callee()",
		"return caller();",
	)
}

func TestReorderTopLevel_DuplicateNamesUntouched(t *testing.T) {
	t.Parallel()

	// shadowed names at the same level: bail out rather than guess
	source := `function helper() {
  return 1;
}

var helper = function () {
  return 2;
};

function main() {
  return helper();
}
`

	fixed, err := ReorderTopLevel([]byte(source), "a.js")
	require.NoError(t, err)
	assert.Equal(t, source, fixed)
}

func TestReorderTopLevel_CrossLevelShadowUntouched(t *testing.T) {
	t.Parallel()

	// the nested helper shares its name with a top-level function; the
	// name-keyed model would credit the nested call to the top-level
	// binding, so the group must stay as written
	source := `function outer() {
  function helper() {
    return target();
  }
  return helper();
}

function target() {
  return 1;
}

function helper() {
  return 2;
}
`

	fixed, err := ReorderTopLevel([]byte(source), "a.js")
	require.NoError(t, err)
	assert.Equal(t, source, fixed)
}

func TestReorderNested_MovesAfterLogic(t *testing.T) {
	t.Parallel()

	source := `function parent() {
  function helper() {
    return 1;
  }
  const x = 2;
  return x;
}
`

	fixed, err := ReorderNested([]byte(source), "a.js", map[string][]string{
		"parent": {"helper"},
	})
	require.NoError(t, err)

	orderOf(t, fixed,
		"function parent()",
		"const x = 2;",
		"return x;",
		"function helper()",
	)
}

func TestReorderNested_MovedGroupIsCallerFirst(t *testing.T) {
	t.Parallel()

	source := `function parent() {
  function low() {
    return 1;
  }
  function high() {
    return low();
  }
  const x = 2;
  return x;
}
`

	fixed, err := ReorderNested([]byte(source), "a.js", map[string][]string{
		"parent": {"low", "high"},
	})
	require.NoError(t, err)

	orderOf(t, fixed,
		"const x = 2;",
		"return x;",
		"function high()",
		"function low()",
	)
}

func TestReorderNested_UnlistedFunctionsStay(t *testing.T) {
	t.Parallel()

	source := `function parent() {
  function keep() {
    return 1;
  }
  function move() {
    return 2;
  }
  return keep();
}
`

	fixed, err := ReorderNested([]byte(source), "a.js", map[string][]string{
		"parent": {"move"},
	})
	require.NoError(t, err)

	orderOf(t, fixed,
		"function keep()",
		"return keep();",
		"function move()",
	)
}
