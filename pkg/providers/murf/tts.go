package murf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/harunnryd/latentstage/pkg/adapters/tts"
	"github.com/harunnryd/latentstage/pkg/errorsx"
	"github.com/harunnryd/latentstage/pkg/resilience"
)

const defaultBaseURL = "https://api.murf.ai/v1"

type Config struct {
	APIKey  string
	BaseURL string
	Client  *http.Client

	// Voice defaults applied when the request leaves a field empty.
	VoiceID     string
	Locale      string
	Model       string
	Format      string
	SampleRate  int
	ChannelType string
}

// Synthesizer renders host speech through the generate-speech endpoint and
// returns the fully buffered audio payload.
type Synthesizer struct {
	cfg Config
}

func New(cfg Config) *Synthesizer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.VoiceID == "" {
		cfg.VoiceID = "hi-IN-karan"
	}
	if cfg.Locale == "" {
		cfg.Locale = "hi-IN"
	}
	if cfg.Model == "" {
		cfg.Model = "FALCON"
	}
	if cfg.Format == "" {
		cfg.Format = "MP3"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 24000
	}
	if cfg.ChannelType == "" {
		cfg.ChannelType = "MONO"
	}
	return &Synthesizer{cfg: cfg}
}

func (s *Synthesizer) Name() string { return "murf_tts" }

type speechRequest struct {
	VoiceID           string `json:"voiceId"`
	Text              string `json:"text"`
	MultiNativeLocale string `json:"multiNativeLocale"`
	Model             string `json:"model"`
	Format            string `json:"format"`
	SampleRate        int    `json:"sampleRate"`
	ChannelType       string `json:"channelType"`
}

func (s *Synthesizer) Synthesize(ctx context.Context, req tts.Request) ([]byte, error) {
	payload := speechRequest{
		VoiceID:           orDefault(req.VoiceID, s.cfg.VoiceID),
		Text:              req.Text,
		MultiNativeLocale: orDefault(req.Locale, s.cfg.Locale),
		Model:             orDefault(req.Model, s.cfg.Model),
		Format:            orDefault(req.Format, s.cfg.Format),
		SampleRate:        s.cfg.SampleRate,
		ChannelType:       orDefault(req.ChannelType, s.cfg.ChannelType),
	}
	if req.SampleRate > 0 {
		payload.SampleRate = req.SampleRate
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonTTSSynthesize)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/speech/stream", bytes.NewReader(body))
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonTTSSynthesize)
	}
	httpReq.Header.Set("api-key", s.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client().Do(httpReq)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonTTSSynthesize)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, resilience.RateLimitError{Provider: "murf", Message: resp.Header.Get("Retry-After")}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, errorsx.Wrap(fmt.Errorf("murf %s: %s", resp.Status, string(detail)), errorsx.ReasonTTSSynthesize)
	}

	// The endpoint streams; read it all so playback gets a complete clip.
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonTTSSynthesize)
	}
	return audio, nil
}

func (s *Synthesizer) client() *http.Client {
	if s.cfg.Client != nil {
		return s.cfg.Client
	}
	return http.DefaultClient
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

var _ tts.Synthesizer = (*Synthesizer)(nil)
