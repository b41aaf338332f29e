package openai

import (
	"context"
	"errors"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/harunnryd/latentstage/pkg/errorsx"
	"github.com/harunnryd/latentstage/pkg/llm"
	"github.com/harunnryd/latentstage/pkg/resilience"
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Adapter is a drop-in alternative generator backed by chat completions.
type Adapter struct {
	client *goopenai.Client
	model  string
}

func New(cfg Config) *Adapter {
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = goopenai.GPT4oMini
	}
	return &Adapter{client: goopenai.NewClientWithConfig(clientCfg), model: model}
}

func (a *Adapter) Name() string { return "openai_llm" }

func (a *Adapter) Generate(ctx context.Context, prompt string) (llm.Response, error) {
	resp, err := a.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: a.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
			return llm.Response{}, resilience.RateLimitError{Provider: "openai", Message: apiErr.Message}
		}
		return llm.Response{}, errorsx.Wrap(err, errorsx.ReasonLLMGenerate)
	}
	if len(resp.Choices) == 0 {
		return llm.Response{}, errorsx.Wrap(errors.New("no choices in response"), errorsx.ReasonLLMGenerate)
	}
	choice := resp.Choices[0]
	return llm.Response{Text: choice.Message.Content, FinishReason: string(choice.FinishReason)}, nil
}

var _ llm.Generator = (*Adapter)(nil)
