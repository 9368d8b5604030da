package bedrock

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

type Client struct {
	runtime *bedrockruntime.Client
	modelID string
}

// NewRuntime loads the default AWS config for the region and returns a
// Bedrock runtime client. The same runtime is shared between the chat
// client and the Titan embedder.
func NewRuntime(ctx context.Context, region string) (*bedrockruntime.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	return bedrockruntime.NewFromConfig(cfg), nil
}

func NewClient(runtime *bedrockruntime.Client, modelID string) *Client {
	return &Client{
		runtime: runtime,
		modelID: modelID,
	}
}
