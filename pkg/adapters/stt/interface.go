package stt

import "context"

// Transcriber defines the contract for any speech-to-text vendor
// implementation. A transcript may legitimately be empty; callers decide
// what an empty turn means.
type Transcriber interface {
	// Name returns adapter name for logging/metrics.
	Name() string
	// Transcribe converts one audio blob to text.
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Config contains vendor-agnostic STT configuration.
type Config struct {
	Language   string
	SampleRate int
}
