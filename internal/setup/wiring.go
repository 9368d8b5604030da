package setup

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/aismail/findoc-agent/internal/config"
	"github.com/aismail/findoc-agent/internal/conversation"
	"github.com/aismail/findoc-agent/internal/document"
	"github.com/aismail/findoc-agent/internal/embedding"
	"github.com/aismail/findoc-agent/internal/llm"
	"github.com/aismail/findoc-agent/internal/llm/bedrock"
	"github.com/aismail/findoc-agent/internal/llm/gpt"
	"github.com/aismail/findoc-agent/internal/rerank"
	"github.com/aismail/findoc-agent/internal/retrieval"
	"github.com/aismail/findoc-agent/internal/tools"
	"github.com/aismail/findoc-agent/internal/voice"
)

type Config struct {
	AWSRegion        string
	ClaudeModelID    string
	EmbedModelID     string
	Provider         string
	OpenAIKey        string
	OpenAIModelID    string
	RerankBaseURL    string
	RerankAPIKey     string
	RerankModelID    string
	ElevenLabsAPIKey string
	VoiceID          string
	VoiceModelID     string
	PlayerCmd        string
	TopK             int
	MaxTokens        int
	Temperature      float64
}

type Dependencies struct {
	Engine     *retrieval.Engine
	Controller *conversation.Controller
	Logger     *zerolog.Logger
}

func LoadConfig() *Config {
	return &Config{
		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		ClaudeModelID:    getEnv("CLAUDE_MODEL_ID", ""),
		EmbedModelID:     getEnv("EMBED_MODEL_ID", ""),
		Provider:         getEnv("GENERATION_PROVIDER", "bedrock"),
		OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIModelID:    getEnv("OPENAI_MODEL_ID", ""),
		RerankBaseURL:    getEnv("RERANK_BASE_URL", ""),
		RerankAPIKey:     getEnv("RERANK_API_KEY", ""),
		RerankModelID:    getEnv("RERANK_MODEL_ID", ""),
		ElevenLabsAPIKey: getEnv("ELEVENLABS_API_KEY", ""),
		VoiceID:          getEnv("ELEVENLABS_VOICE_ID", ""),
		VoiceModelID:     getEnv("ELEVENLABS_MODEL_ID", ""),
		PlayerCmd:        getEnv("PLAYER_CMD", ""),
		TopK:             getEnvInt("TOP_K", retrieval.DefaultTopK),
		MaxTokens:        getEnvInt("MAX_TOKENS", 1024),
		Temperature:      getEnvFloat("TEMPERATURE", 0.2),
	}
}

// Wire builds the full dependency graph. Misconfiguration is fatal here;
// once Wire returns, runtime failures are handled per request.
func Wire(ctx context.Context, cfg *Config, logger *zerolog.Logger) (*Dependencies, error) {
	if cfg.ClaudeModelID == "" {
		return nil, fmt.Errorf("CLAUDE_MODEL_ID is required")
	}
	if cfg.RerankBaseURL == "" {
		return nil, fmt.Errorf("RERANK_BASE_URL is required")
	}

	runtime, err := bedrock.NewRuntime(ctx, cfg.AWSRegion)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bedrock runtime: %w", err)
	}
	chatClient := bedrock.NewClient(runtime, cfg.ClaudeModelID)

	generator, err := createGenerator(chatClient, cfg)
	if err != nil {
		return nil, err
	}

	embedder := embedding.NewTitanEmbedder(runtime, cfg.EmbedModelID)

	reranker, err := rerank.NewHTTPReranker(rerank.Config{
		BaseURL: cfg.RerankBaseURL,
		APIKey:  cfg.RerankAPIKey,
		ModelID: cfg.RerankModelID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create reranker: %w", err)
	}

	prompts, err := config.LoadPrompts()
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts config: %w", err)
	}

	engine := retrieval.NewEngine(
		document.NewPDFLoader(),
		embedder,
		reranker,
		generator,
		prompts,
		cfg.TopK,
		cfg.MaxTokens,
		cfg.Temperature,
		logger,
	)

	registry := tools.NewRegistry(engine, logger)
	speaker := createSpeaker(cfg, logger)

	controller := conversation.NewController(
		chatClient,
		registry,
		speaker,
		prompts,
		os.Stdin,
		os.Stdout,
		conversation.Params{
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		},
		logger,
	)

	return &Dependencies{
		Engine:     engine,
		Controller: controller,
		Logger:     logger,
	}, nil
}

func createGenerator(chatClient *bedrock.Client, cfg *Config) (llm.Generator, error) {
	switch cfg.Provider {
	case "bedrock":
		return chatClient, nil
	case "openai":
		return gpt.NewClient(cfg.OpenAIKey, cfg.OpenAIModelID)
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
}

func createSpeaker(cfg *Config, logger *zerolog.Logger) voice.Speaker {
	if cfg.ElevenLabsAPIKey == "" {
		logger.Warn().Msg("ELEVENLABS_API_KEY not set, voice output disabled")
		return voice.Nop{}
	}
	speaker, err := voice.NewElevenLabs(voice.ElevenLabsConfig{
		APIKey:  cfg.ElevenLabsAPIKey,
		VoiceID: cfg.VoiceID,
		ModelID: cfg.VoiceModelID,
		Player:  cfg.PlayerCmd,
	}, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to configure voice output, disabling it")
		return voice.Nop{}
	}
	return speaker
}

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}

	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		value = defaultValue
	}

	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		value = defaultValue
	}

	return value
}
