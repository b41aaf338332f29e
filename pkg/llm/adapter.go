package llm

import "context"

// Response is the raw generation output before contract validation.
type Response struct {
	Text         string
	FinishReason string
}

// Generator defines the contract for any generation vendor implementation.
// The prompt already contains the host persona and output contract; the
// adapter only moves text.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (Response, error)
}
