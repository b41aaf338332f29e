package mock

import (
	"context"
	"sync"

	"github.com/harunnryd/latentstage/pkg/llm"
)

type LLMConfig struct {
	// Responses are returned in order; the last entry repeats.
	Responses []string
	Err       error
}

// Generator replays scripted generations for tests and dry runs.
type Generator struct {
	cfg     LLMConfig
	mu      sync.Mutex
	calls   int
	prompts []string
}

func NewLLM(cfg LLMConfig) *Generator {
	if len(cfg.Responses) == 0 && cfg.Err == nil {
		cfg.Responses = []string{`{"speech":"mock response","subtitle":"mock","scenarioText":"","isGameOver":false}`}
	}
	return &Generator{cfg: cfg}
}

func (g *Generator) Name() string { return "mock_llm" }

func (g *Generator) Generate(ctx context.Context, prompt string) (llm.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if g.cfg.Err != nil {
		return llm.Response{}, g.cfg.Err
	}
	i := g.calls
	if i >= len(g.cfg.Responses) {
		i = len(g.cfg.Responses) - 1
	}
	g.calls++
	return llm.Response{Text: g.cfg.Responses[i], FinishReason: "stop"}, nil
}

// Prompts returns every prompt seen so far.
func (g *Generator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.prompts))
	copy(out, g.prompts)
	return out
}

var _ llm.Generator = (*Generator)(nil)
