package llm

import "context"

// Generator produces text from a single prompt. Used by the retrieval
// engine, which assembles the full prompt itself.
type Generator interface {
	Generate(ctx context.Context, request GenerateRequest) (*GenerateResponse, error)
}

// ChatClient runs multi-turn conversations with optional tool bindings.
// This is an interface so tests can mock it without making real API calls.
type ChatClient interface {
	Chat(ctx context.Context, request ChatRequest) (*ChatResponse, error)
}
