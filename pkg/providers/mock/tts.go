package mock

import (
	"context"
	"sync"

	"github.com/harunnryd/latentstage/pkg/adapters/tts"
)

type TTSConfig struct {
	Audio []byte
	Err   error
}

// Synthesizer returns a fixed audio payload for tests and dry runs.
type Synthesizer struct {
	cfg   TTSConfig
	mu    sync.Mutex
	texts []string
}

func NewTTS(cfg TTSConfig) *Synthesizer {
	if cfg.Audio == nil && cfg.Err == nil {
		cfg.Audio = []byte("mock-audio")
	}
	return &Synthesizer{cfg: cfg}
}

func (s *Synthesizer) Name() string { return "mock_tts" }

func (s *Synthesizer) Synthesize(ctx context.Context, req tts.Request) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, req.Text)
	if s.cfg.Err != nil {
		return nil, s.cfg.Err
	}
	return s.cfg.Audio, nil
}

// Texts returns every synthesized text so far.
func (s *Synthesizer) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.texts))
	copy(out, s.texts)
	return out
}

var _ tts.Synthesizer = (*Synthesizer)(nil)
