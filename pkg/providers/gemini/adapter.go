package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/harunnryd/latentstage/pkg/errorsx"
	"github.com/harunnryd/latentstage/pkg/llm"
	"github.com/harunnryd/latentstage/pkg/resilience"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1"

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Client  *http.Client
}

// Adapter drives the generateContent endpoint with a single-turn prompt.
type Adapter struct {
	cfg Config
}

func New(cfg Config) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	return &Adapter{cfg: cfg}
}

func (a *Adapter) Name() string { return "gemini_llm" }

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (a *Adapter) Generate(ctx context.Context, prompt string) (llm.Response, error) {
	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}})
	if err != nil {
		return llm.Response{}, errorsx.Wrap(err, errorsx.ReasonLLMGenerate)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", a.cfg.BaseURL, a.cfg.Model, a.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return llm.Response{}, errorsx.Wrap(err, errorsx.ReasonLLMGenerate)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client().Do(req)
	if err != nil {
		return llm.Response{}, errorsx.Wrap(err, errorsx.ReasonLLMGenerate)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return llm.Response{}, resilience.RateLimitError{Provider: "gemini", Message: resp.Header.Get("Retry-After")}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return llm.Response{}, errorsx.Wrap(fmt.Errorf("gemini %s: %s", resp.Status, string(detail)), errorsx.ReasonLLMGenerate)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return llm.Response{}, errorsx.Wrap(err, errorsx.ReasonLLMGenerate)
	}
	if out.Error != nil {
		return llm.Response{}, errorsx.Wrap(errors.New(out.Error.Message), errorsx.ReasonLLMGenerate)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return llm.Response{}, errorsx.Wrap(errors.New("no candidates in response"), errorsx.ReasonLLMGenerate)
	}
	c := out.Candidates[0]
	return llm.Response{Text: c.Content.Parts[0].Text, FinishReason: c.FinishReason}, nil
}

func (a *Adapter) client() *http.Client {
	if a.cfg.Client != nil {
		return a.cfg.Client
	}
	return http.DefaultClient
}

var _ llm.Generator = (*Adapter)(nil)
