package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the nested-declaration rule:
// - Unreferenced nested function above body logic is a violation
// - A reference elsewhere in the body suppresses it
// - Bodies without ordinary logic are exempt
// - The check recurses into nested entities
// - Fix moves violating functions after the logic and re-analysis is clean

func TestNestedRule_UnreferencedEarlyDeclaration(t *testing.T) {
	t.Parallel()

	ctx := newContext(t, `function parent() {
  function helper() {
    console.log("x");
  }
  console.log("y");
}
`)

	findings, err := NewNestedRule().Analyze(ctx)
	require.NoError(t, err)
	require.Len(t, findings.Nested, 1)
	assert.Equal(t, "parent", findings.Nested[0].Parent.Name)
	assert.Equal(t, "helper", findings.Nested[0].Nested.Name)
}

func TestNestedRule_ReferenceSuppresses(t *testing.T) {
	t.Parallel()

	ctx := newContext(t, `function parent() {
  function helper() {
    console.log("x");
  }
  console.log("y");
  return helper();
}
`)

	findings, err := NewNestedRule().Analyze(ctx)
	require.NoError(t, err)
	assert.Empty(t, findings.Nested)
}

func TestNestedRule_NoLogicExempt(t *testing.T) {
	t.Parallel()

	ctx := newContext(t, `function parent() {
  function first() {
    return 1;
  }
  function second() {
    return 2;
  }
}
`)

	findings, err := NewNestedRule().Analyze(ctx)
	require.NoError(t, err)
	assert.Empty(t, findings.Nested)
}

func TestNestedRule_RecursesIntoNestedBodies(t *testing.T) {
	t.Parallel()

	ctx := newContext(t, `function outer() {
  const mid = () => {
    function deep() {
      return 1;
    }
    console.log("logic");
  };
  return mid();
}
`)

	findings, err := NewNestedRule().Analyze(ctx)
	require.NoError(t, err)
	require.Len(t, findings.Nested, 1)
	assert.Equal(t, "mid", findings.Nested[0].Parent.Name)
	assert.Equal(t, "deep", findings.Nested[0].Nested.Name)
}

func TestNestedRule_Fix(t *testing.T) {
	t.Parallel()

	ctx := newContext(t, `function parent() {
  function helper() {
    console.log("x");
  }
  console.log("y");
}
`)

	rule := NewNestedRule()
	findings, err := rule.Analyze(ctx)
	require.NoError(t, err)
	require.Len(t, findings.Nested, 1)

	fixed, err := rule.Fix(ctx, findings)
	require.NoError(t, err)
	assert.Less(t, strings.Index(fixed, `console.log("y")`), strings.Index(fixed, "function helper"))

	after, err := rule.Analyze(newContext(t, fixed))
	require.NoError(t, err)
	assert.Empty(t, after.Nested)
}

func TestNestedRule_FixWithoutFindingsIsNoop(t *testing.T) {
	t.Parallel()

	source := `function parent() {
  console.log("y");
}
`
	ctx := newContext(t, source)
	rule := NewNestedRule()

	fixed, err := rule.Fix(ctx, &Findings{})
	require.NoError(t, err)
	assert.Equal(t, source, fixed)
}
