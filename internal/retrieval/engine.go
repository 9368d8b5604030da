// Package retrieval implements the two-stage retrieve-and-rerank pipeline.
//
// Stage 1 embeds every page and the query with a bi-encoder and keeps the
// top-k pages by cosine similarity. Stage 2 rescores those candidates with
// a cross-encoder and reorders them. The reranked passages become a
// numbered context block inside the generation prompt.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aismail/findoc-agent/internal/config"
	"github.com/aismail/findoc-agent/internal/document"
	"github.com/aismail/findoc-agent/internal/embedding"
	"github.com/aismail/findoc-agent/internal/llm"
	"github.com/aismail/findoc-agent/internal/rerank"
)

const DefaultTopK = 7

// Candidate is a page selected by the bi-encoder stage, carrying both
// stage scores.
type Candidate struct {
	Page       int
	Text       string
	BiScore    float64
	CrossScore float64
}

type Engine struct {
	loader      document.Loader
	embedder    embedding.Embedder
	reranker    rerank.Reranker
	generator   llm.Generator
	prompts     *config.Prompts
	defaultTopK int
	maxTokens   int
	temperature float64
	logger      *zerolog.Logger
}

func NewEngine(
	loader document.Loader,
	embedder embedding.Embedder,
	reranker rerank.Reranker,
	generator llm.Generator,
	prompts *config.Prompts,
	defaultTopK int,
	maxTokens int,
	temperature float64,
	logger *zerolog.Logger,
) *Engine {
	if defaultTopK < 1 {
		defaultTopK = DefaultTopK
	}
	return &Engine{
		loader:      loader,
		embedder:    embedder,
		reranker:    reranker,
		generator:   generator,
		prompts:     prompts,
		defaultTopK: defaultTopK,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger,
	}
}

// Retrieve runs both retrieval stages and returns the reranked candidates,
// cross-encoder score descending. The embedding index is built fresh on
// every call and discarded afterwards.
func (e *Engine) Retrieve(ctx context.Context, path, query string, topK int) ([]Candidate, error) {
	start := time.Now()

	doc, err := e.loader.Load(path)
	if err != nil {
		return nil, err
	}
	if doc.PageCount() == 0 {
		return nil, fmt.Errorf("%w: %s", document.ErrEmptyDocument, path)
	}
	topK = clampTopK(topK, e.defaultTopK, doc.PageCount())

	pageVectors, err := e.embedder.EmbedBatch(ctx, doc.Pages)
	if err != nil {
		return nil, fmt.Errorf("failed to embed document pages: %w", err)
	}
	queryVector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits := embedding.TopK(queryVector, pageVectors, topK)
	candidates := make([]Candidate, len(hits))
	passages := make([]string, len(hits))
	for i, hit := range hits {
		candidates[i] = Candidate{
			Page:    hit.Index,
			Text:    doc.Pages[hit.Index],
			BiScore: hit.Score,
		}
		passages[i] = doc.Pages[hit.Index]
	}

	scores, err := e.reranker.Score(ctx, query, passages)
	if err != nil {
		return nil, fmt.Errorf("failed to rerank candidates: %w", err)
	}
	for i := range candidates {
		candidates[i].CrossScore = scores[i]
	}
	// Stable sort keeps bi-encoder order on equal cross-encoder scores.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CrossScore > candidates[j].CrossScore
	})

	e.logger.Info().
		Str("document_id", doc.ID).
		Int("pages", doc.PageCount()).
		Int("top_k", topK).
		Str("reranker", e.reranker.ModelName()).
		Dur("duration", time.Since(start)).
		Msg("retrieval complete")

	return candidates, nil
}

// Analyze answers a free-text question about the document at path. It
// retrieves and reranks passages, renders the analysis prompt and returns
// the generated answer verbatim. Failures propagate to the caller; the
// engine does no retries and keeps no state across calls.
func (e *Engine) Analyze(ctx context.Context, path, query string, topK int) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("query must not be empty")
	}

	candidates, err := e.Retrieve(ctx, path, query, topK)
	if err != nil {
		return "", err
	}

	prompt, err := e.prompts.RenderAnalysis(BuildContext(candidates), query)
	if err != nil {
		return "", err
	}

	response, err := e.generator.Generate(ctx, llm.GenerateRequest{
		Prompt:      prompt,
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	return response.Content, nil
}

// BuildContext serializes candidates as a 1-indexed numbered list of
// trimmed passages joined by blank lines.
func BuildContext(candidates []Candidate) string {
	entries := make([]string, len(candidates))
	for i, candidate := range candidates {
		entries[i] = fmt.Sprintf("%d. %s", i+1, strings.TrimSpace(candidate.Text))
	}
	return strings.Join(entries, "\n\n")
}

// clampTopK keeps top_k within [1, pageCount]. Out-of-range values are
// clamped rather than rejected.
func clampTopK(topK, fallback, pageCount int) int {
	if topK < 1 {
		topK = fallback
	}
	if topK > pageCount {
		topK = pageCount
	}
	return topK
}
