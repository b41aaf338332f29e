package mock

import (
	"context"
	"sync"

	"github.com/harunnryd/latentstage/pkg/adapters/stt"
)

type STTConfig struct {
	// Transcripts are returned in order, one per call; the last entry
	// repeats once the script runs out.
	Transcripts []string
	Err         error
}

// Transcriber replays scripted transcripts for tests and dry runs.
type Transcriber struct {
	cfg   STTConfig
	mu    sync.Mutex
	calls int
}

func NewSTT(cfg STTConfig) *Transcriber {
	if len(cfg.Transcripts) == 0 && cfg.Err == nil {
		cfg.Transcripts = []string{"mock transcript"}
	}
	return &Transcriber{cfg: cfg}
}

func (t *Transcriber) Name() string { return "mock_stt" }

func (t *Transcriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cfg.Err != nil {
		return "", t.cfg.Err
	}
	i := t.calls
	if i >= len(t.cfg.Transcripts) {
		i = len(t.cfg.Transcripts) - 1
	}
	t.calls++
	return t.cfg.Transcripts[i], nil
}

// Calls reports how many transcriptions were requested.
func (t *Transcriber) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

var _ stt.Transcriber = (*Transcriber)(nil)
