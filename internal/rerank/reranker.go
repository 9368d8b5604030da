// Package rerank provides cross-encoder scoring for retrieval candidates.
//
// A cross-encoder looks at a (query, passage) pair jointly instead of
// comparing independent embeddings, which recovers precision the bi-encoder
// stage gives up for speed. Scoring runs against an external rerank service.
package rerank

import "context"

// Reranker scores candidate passages against a query with a cross-encoder
// model. Scores come back in passage order, one per passage.
type Reranker interface {
	ModelName() string
	Score(ctx context.Context, query string, passages []string) ([]float64, error)
}
