package latentstage

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Environment   string          `mapstructure:"environment"`
	LogLevel      string          `mapstructure:"log_level"`
	LogFormat     string          `mapstructure:"log_format"`
	Mode          string          `mapstructure:"mode"`
	ScenariosPath string          `mapstructure:"scenarios_path"`
	Game          GameConfig      `mapstructure:"game"`
	Audio         AudioConfig     `mapstructure:"audio"`
	VAD           VADConfig       `mapstructure:"vad"`
	Session       SessionConfig   `mapstructure:"session"`
	Vendors       VendorsConfig   `mapstructure:"vendors"`
	Transport     TransportConfig `mapstructure:"transport"`
	History       HistoryConfig   `mapstructure:"history"`
	Notify        NotifyConfig    `mapstructure:"notify"`
}

type GameConfig struct {
	MaxRounds int `mapstructure:"max_rounds"`
}

type AudioConfig struct {
	SampleRate int `mapstructure:"sample_rate"`
}

type VADConfig struct {
	Classifier      string  `mapstructure:"classifier"`
	EnergyThreshold float64 `mapstructure:"energy_threshold"`
	SilenceWindowMS int     `mapstructure:"silence_window_ms"`
}

type SessionConfig struct {
	SilentRetries   int `mapstructure:"silent_retries"`
	FallbackDelayMS int `mapstructure:"fallback_delay_ms"`
}

type VendorConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

type VendorsConfig struct {
	STT VendorConfig `mapstructure:"stt"`
	TTS VendorConfig `mapstructure:"tts"`
	LLM VendorConfig `mapstructure:"llm"`
}

type TransportConfig struct {
	Settings map[string]any `mapstructure:"settings"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type NotifyConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

const (
	ModeLocal = "local"
	ModeWS    = "ws"
)

func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("mode", ModeWS)
	v.SetDefault("scenarios_path", "scenarios.json")
	v.SetDefault("game.max_rounds", 3)
	v.SetDefault("audio.sample_rate", 16000)
	v.SetDefault("vad.classifier", "energy")
	v.SetDefault("vad.energy_threshold", 0.015)
	v.SetDefault("vad.silence_window_ms", 1500)
	v.SetDefault("session.silent_retries", 3)
	v.SetDefault("session.fallback_delay_ms", 3000)
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "game_history.json")

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}

	expandEnvStrings(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Mode {
	case ModeLocal, ModeWS:
	default:
		return fmt.Errorf("mode must be %q or %q", ModeLocal, ModeWS)
	}
	if strings.TrimSpace(c.ScenariosPath) == "" {
		return fmt.Errorf("scenarios_path is required")
	}
	if strings.TrimSpace(c.Vendors.STT.Provider) == "" {
		return fmt.Errorf("vendors.stt.provider is required")
	}
	if strings.TrimSpace(c.Vendors.LLM.Provider) == "" {
		return fmt.Errorf("vendors.llm.provider is required")
	}
	if strings.TrimSpace(c.Vendors.TTS.Provider) == "" {
		return fmt.Errorf("vendors.tts.provider is required")
	}
	if c.VAD.EnergyThreshold < 0 || c.VAD.EnergyThreshold > 1 {
		return fmt.Errorf("vad.energy_threshold must be within [0,1]")
	}
	if c.VAD.SilenceWindowMS <= 0 {
		return fmt.Errorf("vad.silence_window_ms must be positive")
	}
	if c.Game.MaxRounds <= 0 {
		return fmt.Errorf("game.max_rounds must be positive")
	}
	return nil
}

func expandEnvStrings(cfg *Config) {
	expandValue(reflect.ValueOf(cfg))
	cfg.Vendors.STT.Settings = expandSettings(cfg.Vendors.STT.Settings)
	cfg.Vendors.TTS.Settings = expandSettings(cfg.Vendors.TTS.Settings)
	cfg.Vendors.LLM.Settings = expandSettings(cfg.Vendors.LLM.Settings)
	cfg.Transport.Settings = expandSettings(cfg.Transport.Settings)
	cfg.Notify.Settings = expandSettings(cfg.Notify.Settings)
}

func expandSettings(settings map[string]any) map[string]any {
	if settings == nil {
		return nil
	}
	for k, v := range settings {
		settings[k] = expandAny(v)
	}
	return settings
}

func expandAny(v any) any {
	switch val := v.(type) {
	case string:
		return os.ExpandEnv(val)
	case []any:
		for i := range val {
			val[i] = expandAny(val[i])
		}
		return val
	case map[string]any:
		for k, v := range val {
			val[k] = expandAny(v)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, v := range val {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = expandAny(v)
		}
		return out
	default:
		return v
	}
}

func expandValue(v reflect.Value) {
	if !v.IsValid() {
		return
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return
		}
		expandValue(v.Elem())
		return
	}
	switch v.Kind() {
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			expandValue(v.Field(i))
		}
	case reflect.String:
		if v.CanSet() {
			v.SetString(os.ExpandEnv(v.String()))
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			expandValue(v.Index(i))
		}
	}
}
