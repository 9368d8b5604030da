// Package voice converts assistant replies to speech.
package voice

import "context"

// Speaker turns a piece of text into audible speech. Implementations are
// best-effort; callers log failures and keep the conversation going.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Nop is a Speaker that does nothing. It stands in when no TTS credentials
// are configured.
type Nop struct{}

func (Nop) Speak(ctx context.Context, text string) error { return nil }
