package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultRerankModelID = "rerank-english-v3.0"

// HTTPReranker is a client for a Cohere-compatible /v1/rerank endpoint.
type HTTPReranker struct {
	baseURL string
	apiKey  string
	modelID string
	client  *http.Client
}

type Config struct {
	BaseURL string
	APIKey  string
	ModelID string
	Timeout time.Duration
}

func NewHTTPReranker(cfg Config) (*HTTPReranker, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("rerank base URL is required")
	}
	if cfg.ModelID == "" {
		cfg.ModelID = defaultRerankModelID
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPReranker{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		modelID: cfg.ModelID,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (r *HTTPReranker) ModelName() string { return r.modelID }

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Score posts the (query, passage) pairs and maps the relevance scores back
// to passage order.
func (r *HTTPReranker) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	if len(passages) == 0 {
		return nil, nil
	}

	body := rerankRequest{
		Model:     r.modelID,
		Query:     query,
		Documents: passages,
		TopN:      len(passages),
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rerank request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/rerank", r.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("rerank request failed: %s", resp.Status)
	}

	var out rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}

	scores := make([]float64, len(passages))
	covered := make([]bool, len(passages))
	for _, result := range out.Results {
		if result.Index < 0 || result.Index >= len(passages) {
			return nil, fmt.Errorf("rerank result index %d out of range", result.Index)
		}
		if covered[result.Index] {
			return nil, fmt.Errorf("rerank returned duplicate score for index %d", result.Index)
		}
		covered[result.Index] = true
		scores[result.Index] = result.RelevanceScore
	}
	for i, ok := range covered {
		if !ok {
			return nil, fmt.Errorf("rerank returned no score for passage %d", i)
		}
	}

	return scores, nil
}
