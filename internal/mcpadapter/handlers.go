package mcpadapter

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aismail/findoc-agent/internal/tools"
)

// DocAnalysisInput is the MCP tool input schema (matches the native tool
// field names).
type DocAnalysisInput struct {
	Path  string `json:"path" jsonschema:"filesystem path to the document (PDF)"`
	Query string `json:"query" jsonschema:"question to answer from the document"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of passages to retrieve (default: 7)"`
}

// DocAnalysisOutput wraps the generated answer.
type DocAnalysisOutput struct {
	Answer string `json:"answer"`
}

// NewDocAnalysisHandler returns a tool handler backed by the retrieval
// engine. Pass the returned function to mcp.AddTool.
func NewDocAnalysisHandler(analyzer tools.Analyzer) func(context.Context, *mcp.CallToolRequest, DocAnalysisInput) (*mcp.CallToolResult, DocAnalysisOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input DocAnalysisInput) (*mcp.CallToolResult, DocAnalysisOutput, error) {
		return AnalyzeDocument(ctx, analyzer, req, input)
	}
}

// AnalyzeDocument runs the retrieve-and-rerank pipeline and returns the
// generated answer.
func AnalyzeDocument(
	ctx context.Context,
	analyzer tools.Analyzer,
	req *mcp.CallToolRequest,
	input DocAnalysisInput,
) (*mcp.CallToolResult, DocAnalysisOutput, error) {
	answer, err := analyzer.Analyze(ctx, input.Path, input.Query, input.TopK)
	if err != nil {
		return nil, DocAnalysisOutput{}, err
	}
	return nil, DocAnalysisOutput{Answer: answer}, nil
}
