package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/stepdown/internal/config"
	"github.com/mvp-joe/stepdown/internal/pipeline"
	"github.com/mvp-joe/stepdown/internal/rules"
)

// Test Plan for the MCP tools:
// - The fix handler runs with the configured pass bound, and dry_run
//   reports the would-be fix without touching the file
// - A request without patterns returns a tool error, not a Go error

func newFixHandler(t *testing.T) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.Helper()

	fs, err := pipeline.NewFileService(nil, nil)
	require.NoError(t, err)
	p, err := pipeline.New(rules.DefaultRegistry(), nil, fs)
	require.NoError(t, err)
	t.Cleanup(p.Close)

	return fixToolHandler(p, config.Default().Fix.MaxPasses)
}

func TestFixToolHandler_DryRun(t *testing.T) {
	t.Parallel()

	source := "function helper() {\n  return 1;\n}\n\nfunction main() {\n  return helper();\n}\n"
	path := filepath.Join(t.TempDir(), "a.js")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))

	handler := newFixHandler(t)

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]interface{}{
				"patterns": []interface{}{path},
				"dry_run":  true,
			},
		},
	}

	result, err := handler(context.Background(), request)
	require.NoError(t, err)
	require.False(t, result.IsError)

	textContent, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	assert.Contains(t, textContent.Text, `"fixed": true`)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, source, string(onDisk))
}

func TestFixToolHandler_MissingPatterns(t *testing.T) {
	t.Parallel()

	handler := newFixHandler(t)

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]interface{}{},
		},
	}

	result, err := handler(context.Background(), request)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
