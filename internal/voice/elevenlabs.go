package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultVoiceID      = "JBFqnCBsd6RMkjVDRZzb"
	defaultVoiceModelID = "eleven_flash_v2_5"
	elevenLabsBaseURL   = "https://api.elevenlabs.io"
)

// ElevenLabs synthesizes speech through the ElevenLabs text-to-speech API
// and plays the resulting mp3 with a local audio player.
type ElevenLabs struct {
	apiKey  string
	voiceID string
	modelID string
	baseURL string
	player  string
	client  *http.Client
	logger  *zerolog.Logger
}

type ElevenLabsConfig struct {
	APIKey  string
	VoiceID string
	ModelID string
	BaseURL string
	Player  string
	Timeout time.Duration
}

func NewElevenLabs(cfg ElevenLabsConfig, logger *zerolog.Logger) (*ElevenLabs, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("elevenlabs API key is required")
	}
	if cfg.VoiceID == "" {
		cfg.VoiceID = defaultVoiceID
	}
	if cfg.ModelID == "" {
		cfg.ModelID = defaultVoiceModelID
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = elevenLabsBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	player := cfg.Player
	if player == "" {
		player = probePlayer()
	}
	return &ElevenLabs{
		apiKey:  cfg.APIKey,
		voiceID: cfg.VoiceID,
		modelID: cfg.ModelID,
		baseURL: cfg.BaseURL,
		player:  player,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

type ttsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Speak synthesizes text to mp3 and plays it. Without a usable audio
// player the synthesized audio is discarded.
func (e *ElevenLabs) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	audio, err := e.synthesize(ctx, text)
	if err != nil {
		return err
	}
	if e.player == "" {
		e.logger.Warn().Msg("no audio player found, skipping playback")
		return nil
	}
	return e.play(ctx, audio)
}

func (e *ElevenLabs) synthesize(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(ttsRequest{Text: text, ModelID: e.modelID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tts request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=mp3_44100_128", e.baseURL, e.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("text-to-speech request failed: %s", resp.Status)
	}

	return io.ReadAll(resp.Body)
}

func (e *ElevenLabs) play(ctx context.Context, audio []byte) error {
	file, err := os.CreateTemp("", "findoc-tts-*.mp3")
	if err != nil {
		return err
	}
	defer os.Remove(file.Name())

	if _, err := file.Write(audio); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	args := playerArgs(e.player, file.Name())
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("audio playback failed: %w", err)
	}
	return nil
}

func probePlayer() string {
	for _, candidate := range []string{"afplay", "mpg123", "ffplay"} {
		if _, err := exec.LookPath(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func playerArgs(player, path string) []string {
	if player == "ffplay" {
		return []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", path}
	}
	return []string{player, path}
}
