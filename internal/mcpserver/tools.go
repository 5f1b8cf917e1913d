package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/stepdown/internal/pipeline"
	"github.com/mvp-joe/stepdown/internal/report"
)

// AddAnalyzeTool registers the stepdown_analyze tool. It follows the
// composable registration pattern: callers hand in the server and the
// pipeline the tool runs on.
func AddAnalyzeTool(s *server.MCPServer, p *pipeline.Pipeline) {
	tool := mcp.NewTool(
		"stepdown_analyze",
		mcp.WithDescription(`Analyze JavaScript/TypeScript files for stepdown-convention violations: callers must appear before callees, and function bodies must keep ordinary logic above nested function declarations. Reports violations, call cycles and the per-file dependency graph as JSON.`),
		mcp.WithArray("patterns",
			mcp.Required(),
			mcp.Description("File paths, directories, or glob patterns to analyze")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		patterns, errResult := patternsArg(request)
		if errResult != nil {
			return errResult, nil
		}

		results, err := pipeline.NewRunner(p).AnalyzeFiles(ctx, patterns)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("analyze failed: %v", err)), nil
		}
		return jsonResult(report.NewAnalyzeReport(results))
	})
}

// AddFixTool registers the stepdown_fix tool. maxPasses bounds the
// analyze-fix iterations per file, from the loaded configuration.
func AddFixTool(s *server.MCPServer, p *pipeline.Pipeline, maxPasses int) {
	tool := mcp.NewTool(
		"stepdown_fix",
		mcp.WithDescription(`Rewrite JavaScript/TypeScript files so functions follow the stepdown convention. Set dry_run to preview without writing. Returns the per-file fix outcomes as JSON.`),
		mcp.WithArray("patterns",
			mcp.Required(),
			mcp.Description("File paths, directories, or glob patterns to fix")),
		mcp.WithBoolean("dry_run",
			mcp.Description("Report what would change without writing files")),
		mcp.WithDestructiveHintAnnotation(true),
	)

	s.AddTool(tool, fixToolHandler(p, maxPasses))
}

func fixToolHandler(p *pipeline.Pipeline, maxPasses int) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		patterns, errResult := patternsArg(request)
		if errResult != nil {
			return errResult, nil
		}
		dryRun := parseBoolArg(request.GetArguments(), "dry_run", false)

		opts := pipeline.FixOptions{Write: !dryRun, MaxPasses: maxPasses}
		results, err := pipeline.NewRunner(p).FixFiles(ctx, patterns, opts)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("fix failed: %v", err)), nil
		}
		return jsonResult(report.NewFixReport(results))
	}
}

// patternsArg extracts the required patterns array from a request.
func patternsArg(request mcp.CallToolRequest) ([]string, *mcp.CallToolResult) {
	argsMap := request.GetArguments()
	raw, ok := argsMap["patterns"]
	if !ok {
		return nil, mcp.NewToolResultError("patterns parameter is required")
	}

	items, ok := raw.([]interface{})
	if !ok {
		return nil, mcp.NewToolResultError("patterns must be an array of strings")
	}

	var patterns []string
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			patterns = append(patterns, s)
		}
	}
	if len(patterns) == 0 {
		return nil, mcp.NewToolResultError("patterns cannot be empty")
	}
	return patterns, nil
}

// parseBoolArg extracts a boolean argument, defaulting when missing.
func parseBoolArg(argsMap map[string]interface{}, key string, defaultVal bool) bool {
	if val, ok := argsMap[key]; ok {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return defaultVal
}

// jsonResult marshals a value into a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
