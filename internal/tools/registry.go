// Package tools holds the registry of tools the assistant can call.
//
// Tool calls are resolved through a tagged-variant Kind rather than string
// comparison at the call sites; an unknown name always lands in the
// default arm and comes back as ErrUnresolvedTool.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aismail/findoc-agent/internal/llm"
)

// ErrUnresolvedTool is returned when a tool call names a tool that matches
// neither the native registry nor the manual dispatch table.
var ErrUnresolvedTool = errors.New("unresolved tool")

// Kind enumerates the known tools.
type Kind int

const (
	KindUnknown Kind = iota
	KindDocAnalysis
)

const DocAnalysisName = "doc_analysis"

// KindOf maps a wire-level tool name onto its Kind.
func KindOf(name string) Kind {
	switch name {
	case DocAnalysisName:
		return KindDocAnalysis
	default:
		return KindUnknown
	}
}

// DocAnalysisArgs is the typed payload of a doc_analysis call.
type DocAnalysisArgs struct {
	Path  string `json:"path"`
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// Analyzer is the registry-facing subset of the retrieval engine.
type Analyzer interface {
	Analyze(ctx context.Context, path, query string, topK int) (string, error)
}

type Registry struct {
	analyzer Analyzer
	logger   *zerolog.Logger
}

func NewRegistry(analyzer Analyzer, logger *zerolog.Logger) *Registry {
	return &Registry{
		analyzer: analyzer,
		logger:   logger,
	}
}

// Specs returns the tool declarations bound to the chat model.
func (r *Registry) Specs() []llm.ToolSpec {
	return []llm.ToolSpec{
		{
			Name:        DocAnalysisName,
			Description: "Analyze a financial document (10-K filing, earnings call transcript) and answer a question about it.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": map[string]any{
						"type":        "string",
						"description": "Filesystem path to the document (PDF)",
					},
					"query": map[string]any{
						"type":        "string",
						"description": "Question to answer from the document",
					},
					"top_k": map[string]any{
						"type":        "integer",
						"description": "Number of passages to retrieve (default 7)",
					},
				},
				"required": []string{"path", "query"},
			},
		},
	}
}

// Resolvable reports whether the named tool can be executed natively.
func (r *Registry) Resolvable(name string) bool {
	return KindOf(name) != KindUnknown
}

// Execute runs a tool call and wraps its output as a tool result. The
// switch over Kind is exhaustive; the default arm returns
// ErrUnresolvedTool instead of leaving unknown names undefined.
func (r *Registry) Execute(ctx context.Context, call llm.ToolCall) (llm.ToolResult, error) {
	switch KindOf(call.Name) {
	case KindDocAnalysis:
		var args DocAnalysisArgs
		if err := json.Unmarshal(call.Args, &args); err != nil {
			return llm.ToolResult{}, fmt.Errorf("failed to decode %s arguments: %w", call.Name, err)
		}

		r.logger.Info().
			Str("tool", call.Name).
			Str("path", args.Path).
			Str("query", args.Query).
			Msg("executing tool call")

		answer, err := r.analyzer.Analyze(ctx, args.Path, args.Query, args.TopK)
		if err != nil {
			return llm.ToolResult{}, err
		}
		return llm.ToolResult{
			ToolCallID: call.ID,
			Name:       call.Name,
			Content:    answer,
		}, nil
	default:
		return llm.ToolResult{}, fmt.Errorf("%w: %s", ErrUnresolvedTool, call.Name)
	}
}

// Dispatch is the manual execution path for calls that were not routed
// natively. It shares the Kind switch with Execute, so an unknown name
// fails the same way on both paths.
func (r *Registry) Dispatch(ctx context.Context, call llm.ToolCall) (llm.ToolResult, error) {
	return r.Execute(ctx, call)
}
