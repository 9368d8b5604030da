package voice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func TestElevenLabs_Synthesize(t *testing.T) {
	var gotPath, gotKey string
	var gotBody ttsRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		w.Write([]byte("mp3-bytes"))
	}))
	defer server.Close()

	speaker, err := NewElevenLabs(ElevenLabsConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	}, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	audio, err := speaker.synthesize(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(audio) != "mp3-bytes" {
		t.Errorf("unexpected audio payload: %q", audio)
	}

	if gotPath != "/v1/text-to-speech/"+defaultVoiceID {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("expected api key header, got %q", gotKey)
	}
	if gotBody.Text != "hello there" || gotBody.ModelID != defaultVoiceModelID {
		t.Errorf("unexpected request body: %+v", gotBody)
	}
}

func TestElevenLabs_Synthesize_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	speaker, err := NewElevenLabs(ElevenLabsConfig{APIKey: "bad-key", BaseURL: server.URL}, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := speaker.synthesize(context.Background(), "hello"); err == nil {
		t.Error("expected error for non-2xx response")
	}
}

func TestNewElevenLabs_RequiresAPIKey(t *testing.T) {
	if _, err := NewElevenLabs(ElevenLabsConfig{}, testLogger()); err == nil {
		t.Error("expected error for missing api key")
	}
}

func TestSpeak_EmptyText(t *testing.T) {
	speaker, err := NewElevenLabs(ElevenLabsConfig{APIKey: "key", BaseURL: "http://localhost:1"}, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := speaker.Speak(context.Background(), ""); err != nil {
		t.Errorf("expected empty text to be a no-op, got %v", err)
	}
}

func TestPlayerArgs(t *testing.T) {
	got := playerArgs("ffplay", "out.mp3")
	want := []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", "out.mp3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	got = playerArgs("afplay", "out.mp3")
	want = []string{"afplay", "out.mp3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestNop(t *testing.T) {
	if err := (Nop{}).Speak(context.Background(), "anything"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
