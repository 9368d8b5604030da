package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

const defaultTitanModelID = "amazon.titan-embed-text-v2:0"

type invokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// TitanEmbedder produces embeddings through the Bedrock runtime using an
// Amazon Titan text embedding model.
type TitanEmbedder struct {
	runtime invokeModelAPI
	modelID string
}

func NewTitanEmbedder(runtime *bedrockruntime.Client, modelID string) *TitanEmbedder {
	if modelID == "" {
		modelID = defaultTitanModelID
	}
	return &TitanEmbedder{
		runtime: runtime,
		modelID: modelID,
	}
}

func (e *TitanEmbedder) Name() string { return "titan" }

type titanRequest struct {
	InputText string `json:"inputText"`
}

type titanResponse struct {
	Embedding []float64 `json:"embedding"`
}

func (e *TitanEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(titanRequest{InputText: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal titan request: %w", err)
	}

	output, err := e.runtime.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &e.modelID,
		Body:        body,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke embedding model: %w", err)
	}

	var response titanResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal titan response: %w", err)
	}
	if len(response.Embedding) == 0 {
		return nil, errors.New("no embedding returned")
	}

	return response.Embedding, nil
}

// EmbedBatch embeds each text in order. Titan rejects empty input, and
// blank pages are common in filings, so blank texts become zero vectors in
// place instead of failing the batch. A zero vector scores 0 against any
// query and never makes the candidate set ahead of real pages.
func (e *TitanEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			vectors[i] = nil
			continue
		}
		vector, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d of %d: %w", i+1, len(texts), err)
		}
		vectors[i] = vector
	}
	return vectors, nil
}
