package tts

import "context"

// Request carries one synthesis job.
type Request struct {
	VoiceID     string
	Text        string
	Locale      string
	Model       string
	Format      string
	SampleRate  int
	ChannelType string
}

// Synthesizer defines the contract for any text-to-speech vendor
// implementation. The returned payload is the full encoded audio stream,
// consumed to completion.
type Synthesizer interface {
	// Name returns adapter name for logging/metrics.
	Name() string
	// Synthesize renders speech for the request text.
	Synthesize(ctx context.Context, req Request) ([]byte, error)
}
