package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aismail/findoc-agent/internal/config"
	"github.com/aismail/findoc-agent/internal/document"
	"github.com/aismail/findoc-agent/internal/llm"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

type stubLoader struct {
	doc *document.Document
	err error
}

func (l *stubLoader) Load(path string) (*document.Document, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.doc, nil
}

// stubEmbedder maps each page to a one-hot vector and the query to a fixed
// vector, so cosine similarities are fully controlled by queryVec.
type stubEmbedder struct {
	pageVecs [][]float64
	queryVec []float64
	err      error
}

func (e *stubEmbedder) Name() string { return "stub" }

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.queryVec, nil
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.pageVecs[:len(texts)], nil
}

type stubReranker struct {
	scores []float64
	err    error
	calls  int
}

func (r *stubReranker) ModelName() string { return "stub-rerank" }

func (r *stubReranker) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.scores[:len(passages)], nil
}

type stubGenerator struct {
	prompt string
	answer string
	err    error
}

func (g *stubGenerator) Generate(ctx context.Context, request llm.GenerateRequest) (*llm.GenerateResponse, error) {
	g.prompt = request.Prompt
	if g.err != nil {
		return nil, g.err
	}
	return &llm.GenerateResponse{Content: g.answer, StopReason: "end_turn"}, nil
}

func testPrompts(t *testing.T) *config.Prompts {
	t.Helper()
	prompts, err := config.DefaultPrompts()
	if err != nil {
		t.Fatalf("failed to build default prompts: %v", err)
	}
	return prompts
}

func fourPageDoc() *document.Document {
	return &document.Document{
		ID:    "doc-1",
		Path:  "report.pdf",
		Pages: []string{"page zero", "page one", "page two", "page three"},
	}
}

func identityVectors(n int) [][]float64 {
	vectors := make([][]float64, n)
	for i := range vectors {
		vec := make([]float64, n)
		vec[i] = 1
		vectors[i] = vec
	}
	return vectors
}

func newTestEngine(loader document.Loader, embedder *stubEmbedder, reranker *stubReranker, generator *stubGenerator, prompts *config.Prompts) *Engine {
	return NewEngine(loader, embedder, reranker, generator, prompts, DefaultTopK, 512, 0.0, testLogger())
}

func TestEngine_Retrieve_RerankOrdering(t *testing.T) {
	doc := fourPageDoc()
	embedder := &stubEmbedder{
		pageVecs: identityVectors(4),
		// Bi-encoder prefers pages 0, 1, 2 over 3.
		queryVec: []float64{0.9, 0.8, 0.7, 0.1},
	}
	// Cross-encoder disagrees: page 2 is the best match.
	reranker := &stubReranker{scores: []float64{0.2, 0.5, 0.9}}
	engine := newTestEngine(&stubLoader{doc: doc}, embedder, reranker, &stubGenerator{}, testPrompts(t))

	candidates, err := engine.Retrieve(context.Background(), "report.pdf", "what changed?", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(candidates))
	}

	wantPages := []int{2, 1, 0}
	for i, want := range wantPages {
		if candidates[i].Page != want {
			t.Errorf("position %d: expected page %d, got %d", i, want, candidates[i].Page)
		}
	}

	for i := 1; i < len(candidates); i++ {
		if candidates[i].CrossScore > candidates[i-1].CrossScore {
			t.Errorf("candidates not cross-score descending at position %d", i)
		}
	}

	for _, candidate := range candidates {
		if candidate.Text != doc.Pages[candidate.Page] {
			t.Errorf("page %d: text does not match source page", candidate.Page)
		}
	}
}

func TestEngine_Retrieve_StableOnEqualScores(t *testing.T) {
	doc := fourPageDoc()
	embedder := &stubEmbedder{
		pageVecs: identityVectors(4),
		queryVec: []float64{0.9, 0.8, 0.7, 0.1},
	}
	// All equal: bi-encoder order must survive.
	reranker := &stubReranker{scores: []float64{0.5, 0.5, 0.5}}
	engine := newTestEngine(&stubLoader{doc: doc}, embedder, reranker, &stubGenerator{}, testPrompts(t))

	candidates, err := engine.Retrieve(context.Background(), "report.pdf", "q", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantPages := []int{0, 1, 2}
	for i, want := range wantPages {
		if candidates[i].Page != want {
			t.Errorf("position %d: expected page %d, got %d", i, want, candidates[i].Page)
		}
	}
}

func TestEngine_Retrieve_ClampsTopK(t *testing.T) {
	doc := fourPageDoc()

	tests := []struct {
		name string
		topK int
		want int
	}{
		{name: "top_k beyond page count", topK: 100, want: 4},
		{name: "zero top_k uses default then clamps", topK: 0, want: 4},
		{name: "negative top_k uses default then clamps", topK: -3, want: 4},
		{name: "valid top_k untouched", topK: 2, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder := &stubEmbedder{
				pageVecs: identityVectors(4),
				queryVec: []float64{0.9, 0.8, 0.7, 0.1},
			}
			reranker := &stubReranker{scores: []float64{0.1, 0.2, 0.3, 0.4}}
			engine := newTestEngine(&stubLoader{doc: doc}, embedder, reranker, &stubGenerator{}, testPrompts(t))

			candidates, err := engine.Retrieve(context.Background(), "report.pdf", "q", tt.topK)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(candidates) != tt.want {
				t.Errorf("expected %d candidates, got %d", tt.want, len(candidates))
			}
		})
	}
}

func TestEngine_Retrieve_Idempotent(t *testing.T) {
	doc := fourPageDoc()
	embedder := &stubEmbedder{
		pageVecs: identityVectors(4),
		queryVec: []float64{0.9, 0.8, 0.7, 0.1},
	}
	reranker := &stubReranker{scores: []float64{0.2, 0.5, 0.9}}
	engine := newTestEngine(&stubLoader{doc: doc}, embedder, reranker, &stubGenerator{}, testPrompts(t))

	first, err := engine.Retrieve(context.Background(), "report.pdf", "what changed?", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := engine.Retrieve(context.Background(), "report.pdf", "what changed?", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("candidate counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("candidate %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}

	if BuildContext(first) != BuildContext(second) {
		t.Error("context strings differ between identical runs")
	}
}

func TestEngine_Retrieve_EmptyDocument(t *testing.T) {
	doc := &document.Document{ID: "doc-2", Path: "empty.pdf"}
	engine := newTestEngine(&stubLoader{doc: doc}, &stubEmbedder{}, &stubReranker{}, &stubGenerator{}, testPrompts(t))

	_, err := engine.Retrieve(context.Background(), "empty.pdf", "q", 3)
	if !errors.Is(err, document.ErrEmptyDocument) {
		t.Errorf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestEngine_Retrieve_RerankFailure(t *testing.T) {
	doc := fourPageDoc()
	embedder := &stubEmbedder{
		pageVecs: identityVectors(4),
		queryVec: []float64{0.9, 0.8, 0.7, 0.1},
	}
	reranker := &stubReranker{err: errors.New("rerank service unavailable")}
	engine := newTestEngine(&stubLoader{doc: doc}, embedder, reranker, &stubGenerator{}, testPrompts(t))

	if _, err := engine.Retrieve(context.Background(), "report.pdf", "q", 3); err == nil {
		t.Error("expected error when reranker fails")
	}
}

func TestEngine_Analyze(t *testing.T) {
	doc := fourPageDoc()
	embedder := &stubEmbedder{
		pageVecs: identityVectors(4),
		queryVec: []float64{0.9, 0.8, 0.7, 0.1},
	}
	reranker := &stubReranker{scores: []float64{0.2, 0.5, 0.9}}
	generator := &stubGenerator{answer: "Revenue grew 12% year over year."}
	engine := newTestEngine(&stubLoader{doc: doc}, embedder, reranker, generator, testPrompts(t))

	answer, err := engine.Analyze(context.Background(), "report.pdf", "how did revenue change?", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "Revenue grew 12% year over year." {
		t.Errorf("unexpected answer: %q", answer)
	}

	// The rendered prompt carries the question and the reranked context.
	if !strings.Contains(generator.prompt, "how did revenue change?") {
		t.Error("prompt does not contain the question")
	}
	if !strings.Contains(generator.prompt, "1. page two") {
		t.Errorf("prompt does not start context with the top reranked page: %q", generator.prompt)
	}
}

func TestEngine_Analyze_EmptyQuery(t *testing.T) {
	engine := newTestEngine(&stubLoader{doc: fourPageDoc()}, &stubEmbedder{}, &stubReranker{}, &stubGenerator{}, testPrompts(t))

	if _, err := engine.Analyze(context.Background(), "report.pdf", "   ", 3); err == nil {
		t.Error("expected error for empty query")
	}
}

func TestBuildContext(t *testing.T) {
	candidates := []Candidate{
		{Page: 2, Text: "  second passage  "},
		{Page: 0, Text: "first passage"},
	}

	got := BuildContext(candidates)
	want := "1. second passage\n\n2. first passage"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if BuildContext(nil) != "" {
		t.Error("expected empty context for no candidates")
	}
}
