package pipeline

import (
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/stepdown/internal/syntax"
)

// Test Plan for the pipeline:
// - Analyze reports stepdown and nested violations from one parse
// - Fix rewrites a file and re-analysis is clean
// - Fix is idempotent on its own output
// - Mixed violations converge within the pass bound
// - Cyclic files report cycles and are never rewritten
// - Read failures land on the result, not the batch
// - Dry-run (Write=false) leaves the file untouched

// memFS is the in-memory FileService used throughout the pipeline tests.
type memFS struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemFS(files map[string]string) *memFS {
	fs := &memFS{files: map[string][]byte{}}
	for path, content := range files {
		fs.files[path] = []byte(content)
	}
	return fs
}

func (fs *memFS) ResolvePaths(patterns []string) ([]string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if len(patterns) > 0 {
		return patterns, nil
	}
	var paths []string
	for path := range fs.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

func (fs *memFS) Read(path string) ([]byte, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	content, ok := fs.files[path]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", path)
	}
	return content, nil
}

func (fs *memFS) Write(path string, data []byte) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.files[path] = data
	return nil
}

func (fs *memFS) ParseFile(path string) (*syntax.ParsedFile, error) {
	content, err := fs.Read(path)
	if err != nil {
		return nil, err
	}
	return syntax.Parse(content, path)
}

func (fs *memFS) content(path string) string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return string(fs.files[path])
}

const violatingSource = `function helper() {
  return "h";
}

function main() {
  return helper();
}
`

func TestPipeline_Analyze(t *testing.T) {
	t.Parallel()

	fs := newMemFS(map[string]string{"a.ts": violatingSource})
	p, err := New(nil, nil, fs)
	require.NoError(t, err)
	defer p.Close()

	result := p.Analyze("a.ts")
	require.Empty(t, result.Error)
	assert.Equal(t, 2, result.TotalFunctions)
	require.Len(t, result.StepdownViolations, 1)
	assert.Equal(t, "main", result.StepdownViolations[0].Caller.Name)
	assert.Empty(t, result.Cycles)
	assert.Contains(t, result.DependencyGraph, "main")
}

func TestPipeline_FixThenClean(t *testing.T) {
	t.Parallel()

	fs := newMemFS(map[string]string{"a.ts": violatingSource})
	p, err := New(nil, nil, fs)
	require.NoError(t, err)
	defer p.Close()

	result := p.Fix("a.ts", FixOptions{Write: true, MaxPasses: 5})
	require.Empty(t, result.Errors)
	assert.True(t, result.Fixed)
	assert.NotEqual(t, result.OriginalText, result.FixedText)
	assert.Equal(t, result.FixedText, fs.content("a.ts"))

	after := p.Analyze("a.ts")
	assert.Zero(t, after.ViolationCount())

	again := p.Fix("a.ts", FixOptions{Write: true, MaxPasses: 5})
	assert.False(t, again.Fixed)
	assert.Equal(t, result.FixedText, fs.content("a.ts"))
}

func TestPipeline_MixedViolationsConverge(t *testing.T) {
	t.Parallel()

	source := `function helper() {
  return 1;
}

function main() {
  function unused() {
    return 2;
  }
  const x = helper();
  return x;
}
`

	fs := newMemFS(map[string]string{"a.ts": source})
	p, err := New(nil, nil, fs)
	require.NoError(t, err)
	defer p.Close()

	before := p.Analyze("a.ts")
	require.Len(t, before.StepdownViolations, 1)
	require.Len(t, before.NestedViolations, 1)

	result := p.Fix("a.ts", FixOptions{Write: true, MaxPasses: 5})
	require.Empty(t, result.Errors)
	require.True(t, result.Fixed)

	after := p.Analyze("a.ts")
	assert.Zero(t, after.ViolationCount())
}

func TestPipeline_CyclesNotRewritten(t *testing.T) {
	t.Parallel()

	source := `function a() {
  b();
}

function b() {
  a();
}
`

	fs := newMemFS(map[string]string{"cyclic.ts": source})
	p, err := New(nil, nil, fs)
	require.NoError(t, err)
	defer p.Close()

	analysis := p.Analyze("cyclic.ts")
	assert.Zero(t, analysis.ViolationCount())
	assert.NotEmpty(t, analysis.Cycles)

	result := p.Fix("cyclic.ts", FixOptions{Write: true, MaxPasses: 5})
	require.Empty(t, result.Errors)
	assert.False(t, result.Fixed)
	assert.Equal(t, source, fs.content("cyclic.ts"))
}

func TestPipeline_ReadFailureIsolated(t *testing.T) {
	t.Parallel()

	fs := newMemFS(map[string]string{"good.ts": violatingSource})
	p, err := New(nil, nil, fs)
	require.NoError(t, err)
	defer p.Close()

	bad := p.Analyze("missing.ts")
	assert.NotEmpty(t, bad.Error)

	good := p.Analyze("good.ts")
	assert.Empty(t, good.Error)
	assert.Equal(t, 1, good.ViolationCount())
}

func TestPipeline_DryRun(t *testing.T) {
	t.Parallel()

	fs := newMemFS(map[string]string{"a.ts": violatingSource})
	p, err := New(nil, nil, fs)
	require.NoError(t, err)
	defer p.Close()

	result := p.Fix("a.ts", FixOptions{Write: false, MaxPasses: 5})
	require.Empty(t, result.Errors)
	assert.True(t, result.Fixed)
	assert.NotEqual(t, violatingSource, result.FixedText)
	assert.Equal(t, violatingSource, fs.content("a.ts"))
}

func TestPipeline_SingleRuleEnabled(t *testing.T) {
	t.Parallel()

	source := `function parent() {
  function unused() {
    return 1;
  }
  console.log("y");
}
`

	fs := newMemFS(map[string]string{"a.ts": source})
	p, err := New(nil, []string{"stepdown"}, fs)
	require.NoError(t, err)
	defer p.Close()

	// the nested rule is disabled, its violation goes unreported
	result := p.Analyze("a.ts")
	assert.Zero(t, result.ViolationCount())

	fix := p.Fix("a.ts", FixOptions{Write: true, MaxPasses: 5})
	assert.False(t, fix.Fixed)
	assert.Equal(t, source, fs.content("a.ts"))
}
