package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/stepdown/internal/syntax"
)

// Test Plan for the extractor:
// - Declarations, arrows and function expressions all produce entities
// - parentFunction tracks the nearest enclosing entity, including through
//   call arguments (callbacks)
// - Destructuring targets and initializer-less declarators produce nothing
// - Exported flag is computed identically for declarations and bindings
// - Body facts: lastLogicLine, direct nested names, body references
// - convertibleToDeclaration rejects this-references and free identifiers

func parse(t *testing.T, source string) *syntax.ParsedFile {
	t.Helper()
	file, err := syntax.Parse([]byte(source), "test.ts")
	require.NoError(t, err)
	t.Cleanup(file.Close)
	return file
}

func entityByName(entities []*FunctionEntity, name string) *FunctionEntity {
	for _, e := range entities {
		if e.Name == name {
			return e
		}
	}
	return nil
}

func TestExtractFunctions_Kinds(t *testing.T) {
	t.Parallel()

	file := parse(t, `function top() {
  const inner = () => helper();
  return inner();
}

const helper = function () {
  return 1;
};
`)

	entities := ExtractFunctions(file)
	require.Len(t, entities, 3)

	top := entityByName(entities, "top")
	require.NotNil(t, top)
	assert.Equal(t, KindDeclaration, top.Kind)
	assert.True(t, top.IsTopLevel())
	assert.Equal(t, 1, top.Position.Line)

	inner := entityByName(entities, "inner")
	require.NotNil(t, inner)
	assert.Equal(t, KindArrow, inner.Kind)
	assert.Equal(t, "top", inner.ParentFunction)

	helper := entityByName(entities, "helper")
	require.NotNil(t, helper)
	assert.Equal(t, KindExpression, helper.Kind)
	assert.True(t, helper.IsTopLevel())
}

func TestExtractFunctions_CallbackNesting(t *testing.T) {
	t.Parallel()

	file := parse(t, `const run = () => {
  items.forEach(() => {
    const step = () => 1;
    step();
  });
};
`)

	entities := ExtractFunctions(file)
	step := entityByName(entities, "step")
	require.NotNil(t, step)
	// the anonymous callback is not an entity; the nearest named one is run
	assert.Equal(t, "run", step.ParentFunction)
}

func TestExtractFunctions_SkipsNonEntities(t *testing.T) {
	t.Parallel()

	file := parse(t, `const { a, b } = require("./mod");
let later;
const value = 42;
`)

	entities := ExtractFunctions(file)
	assert.Empty(t, entities)
}

func TestExtractFunctions_ExportedFlag(t *testing.T) {
	t.Parallel()

	file := parse(t, `export function a() {}
export const b = () => 1;
function c() {}
const d = () => 2;
`)

	entities := ExtractFunctions(file)
	require.Len(t, entities, 4)
	assert.True(t, entityByName(entities, "a").IsExported)
	assert.True(t, entityByName(entities, "b").IsExported)
	assert.False(t, entityByName(entities, "c").IsExported)
	assert.False(t, entityByName(entities, "d").IsExported)
}

func TestExtractFunctions_BodyFacts(t *testing.T) {
	t.Parallel()

	file := parse(t, `function parent() {
  function early() {
    return 1;
  }
  const x = 2;
  return x;
}
`)

	entities := ExtractFunctions(file)
	parent := entityByName(entities, "parent")
	require.NotNil(t, parent)

	assert.True(t, parent.HasBlockBody)
	assert.Equal(t, []string{"early"}, parent.DirectNested)
	assert.Equal(t, 6, parent.LastLogicLine) // the return statement
	// early is never referenced outside its own declaration
	assert.Zero(t, parent.BodyRefs["early"])
	assert.Positive(t, parent.BodyRefs["x"])
}

func TestExtractFunctions_BodyRefsExcludeOwnDeclaration(t *testing.T) {
	t.Parallel()

	file := parse(t, `function parent() {
  function helper() {
    return 1;
  }
  return helper();
}
`)

	entities := ExtractFunctions(file)
	parent := entityByName(entities, "parent")
	require.NotNil(t, parent)
	// the call in the return counts; the declaration's own name does not
	assert.Equal(t, 1, parent.BodyRefs["helper"])
}

func TestExtractFunctions_Convertible(t *testing.T) {
	t.Parallel()

	file := parse(t, `const pure = (a, b) => {
  const sum = a + b;
  return sum;
};

const usesThis = function () {
  return this.value;
};

const usesFree = () => {
  return mystery + 1;
};

const usesAccess = () => {
  return console.log("ok");
};
`)

	entities := ExtractFunctions(file)
	assert.True(t, entityByName(entities, "pure").ConvertibleToDeclaration)
	assert.False(t, entityByName(entities, "usesThis").ConvertibleToDeclaration)
	assert.False(t, entityByName(entities, "usesFree").ConvertibleToDeclaration)
	assert.True(t, entityByName(entities, "usesAccess").ConvertibleToDeclaration)
}
