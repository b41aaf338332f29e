package latentstage

import (
	"fmt"
	"strings"
	"time"

	"github.com/harunnryd/latentstage/pkg/adapters/stt"
	"github.com/harunnryd/latentstage/pkg/adapters/tts"
	"github.com/harunnryd/latentstage/pkg/configutil"
	"github.com/harunnryd/latentstage/pkg/llm"
	"github.com/harunnryd/latentstage/pkg/providers/assemblyai"
	"github.com/harunnryd/latentstage/pkg/providers/deepgram"
	"github.com/harunnryd/latentstage/pkg/providers/gemini"
	"github.com/harunnryd/latentstage/pkg/providers/mock"
	"github.com/harunnryd/latentstage/pkg/providers/murf"
	"github.com/harunnryd/latentstage/pkg/providers/openai"
)

type STTFactory func(cfg Config) (stt.Transcriber, error)
type TTSFactory func(cfg Config) (tts.Synthesizer, error)
type LLMFactory func(cfg Config) (llm.Generator, error)

type ProviderRegistry struct {
	stt map[string]STTFactory
	tts map[string]TTSFactory
	llm map[string]LLMFactory
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		stt: make(map[string]STTFactory),
		tts: make(map[string]TTSFactory),
		llm: make(map[string]LLMFactory),
	}
}

func (r *ProviderRegistry) RegisterSTT(name string, factory STTFactory) {
	r.stt[strings.ToLower(strings.TrimSpace(name))] = factory
}

func (r *ProviderRegistry) RegisterTTS(name string, factory TTSFactory) {
	r.tts[strings.ToLower(strings.TrimSpace(name))] = factory
}

func (r *ProviderRegistry) RegisterLLM(name string, factory LLMFactory) {
	r.llm[strings.ToLower(strings.TrimSpace(name))] = factory
}

func (r *ProviderRegistry) BuildSTT(provider string, cfg Config) (stt.Transcriber, error) {
	fn := r.stt[strings.ToLower(strings.TrimSpace(provider))]
	if fn == nil {
		return nil, fmt.Errorf("stt provider not registered: %s", provider)
	}
	return fn(cfg)
}

func (r *ProviderRegistry) BuildTTS(provider string, cfg Config) (tts.Synthesizer, error) {
	fn := r.tts[strings.ToLower(strings.TrimSpace(provider))]
	if fn == nil {
		return nil, fmt.Errorf("tts provider not registered: %s", provider)
	}
	return fn(cfg)
}

func (r *ProviderRegistry) BuildLLM(provider string, cfg Config) (llm.Generator, error) {
	fn := r.llm[strings.ToLower(strings.TrimSpace(provider))]
	if fn == nil {
		return nil, fmt.Errorf("llm provider not registered: %s", provider)
	}
	return fn(cfg)
}

// DefaultRegistry wires every built-in vendor.
func DefaultRegistry() *ProviderRegistry {
	reg := NewProviderRegistry()

	reg.RegisterSTT("assemblyai", func(cfg Config) (stt.Transcriber, error) {
		var s struct {
			APIKey         string `mapstructure:"api_key"`
			BaseURL        string `mapstructure:"base_url"`
			Language       string `mapstructure:"language"`
			PollIntervalMS int    `mapstructure:"poll_interval_ms"`
			TimeoutMS      int    `mapstructure:"timeout_ms"`
		}
		if err := configutil.DecodeSettings(cfg.Vendors.STT.Settings, &s); err != nil {
			return nil, err
		}
		if err := configutil.RequireString(s.APIKey, "vendors.stt.settings.api_key"); err != nil {
			return nil, err
		}
		return assemblyai.New(assemblyai.Config{
			APIKey:       s.APIKey,
			BaseURL:      s.BaseURL,
			Language:     s.Language,
			PollInterval: configutil.MillisDuration(s.PollIntervalMS, time.Second),
			Timeout:      configutil.MillisDuration(s.TimeoutMS, 60*time.Second),
		}), nil
	})

	reg.RegisterSTT("deepgram", func(cfg Config) (stt.Transcriber, error) {
		var s struct {
			APIKey   string `mapstructure:"api_key"`
			Model    string `mapstructure:"model"`
			Language string `mapstructure:"language"`
		}
		if err := configutil.DecodeSettings(cfg.Vendors.STT.Settings, &s); err != nil {
			return nil, err
		}
		if err := configutil.RequireString(s.APIKey, "vendors.stt.settings.api_key"); err != nil {
			return nil, err
		}
		return deepgram.New(deepgram.Config{APIKey: s.APIKey, Model: s.Model, Language: s.Language}), nil
	})

	reg.RegisterSTT("mock", func(cfg Config) (stt.Transcriber, error) {
		var s struct {
			Transcripts []string `mapstructure:"transcripts"`
		}
		if err := configutil.DecodeSettings(cfg.Vendors.STT.Settings, &s); err != nil {
			return nil, err
		}
		return mock.NewSTT(mock.STTConfig{Transcripts: s.Transcripts}), nil
	})

	reg.RegisterLLM("gemini", func(cfg Config) (llm.Generator, error) {
		var s struct {
			APIKey  string `mapstructure:"api_key"`
			BaseURL string `mapstructure:"base_url"`
			Model   string `mapstructure:"model"`
		}
		if err := configutil.DecodeSettings(cfg.Vendors.LLM.Settings, &s); err != nil {
			return nil, err
		}
		if err := configutil.RequireString(s.APIKey, "vendors.llm.settings.api_key"); err != nil {
			return nil, err
		}
		return gemini.New(gemini.Config{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model}), nil
	})

	reg.RegisterLLM("openai", func(cfg Config) (llm.Generator, error) {
		var s struct {
			APIKey  string `mapstructure:"api_key"`
			BaseURL string `mapstructure:"base_url"`
			Model   string `mapstructure:"model"`
		}
		if err := configutil.DecodeSettings(cfg.Vendors.LLM.Settings, &s); err != nil {
			return nil, err
		}
		if err := configutil.RequireString(s.APIKey, "vendors.llm.settings.api_key"); err != nil {
			return nil, err
		}
		return openai.New(openai.Config{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model}), nil
	})

	reg.RegisterLLM("mock", func(cfg Config) (llm.Generator, error) {
		var s struct {
			Responses []string `mapstructure:"responses"`
		}
		if err := configutil.DecodeSettings(cfg.Vendors.LLM.Settings, &s); err != nil {
			return nil, err
		}
		return mock.NewLLM(mock.LLMConfig{Responses: s.Responses}), nil
	})

	reg.RegisterTTS("murf", func(cfg Config) (tts.Synthesizer, error) {
		var s struct {
			APIKey      string `mapstructure:"api_key"`
			BaseURL     string `mapstructure:"base_url"`
			VoiceID     string `mapstructure:"voice_id"`
			Locale      string `mapstructure:"locale"`
			Model       string `mapstructure:"model"`
			Format      string `mapstructure:"format"`
			SampleRate  int    `mapstructure:"sample_rate"`
			ChannelType string `mapstructure:"channel_type"`
		}
		if err := configutil.DecodeSettings(cfg.Vendors.TTS.Settings, &s); err != nil {
			return nil, err
		}
		if err := configutil.RequireString(s.APIKey, "vendors.tts.settings.api_key"); err != nil {
			return nil, err
		}
		format := s.Format
		if format == "" && cfg.Mode == ModeLocal {
			// Local playback decodes WAV; browsers take MP3.
			format = "WAV"
		}
		return murf.New(murf.Config{
			APIKey:      s.APIKey,
			BaseURL:     s.BaseURL,
			VoiceID:     s.VoiceID,
			Locale:      s.Locale,
			Model:       s.Model,
			Format:      format,
			SampleRate:  s.SampleRate,
			ChannelType: s.ChannelType,
		}), nil
	})

	reg.RegisterTTS("mock", func(cfg Config) (tts.Synthesizer, error) {
		return mock.NewTTS(mock.TTSConfig{}), nil
	})

	return reg
}
