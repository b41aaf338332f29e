package latentstage

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
scenarios_path: scenarios.json
vendors:
  stt:
    provider: assemblyai
    settings:
      api_key: aai-key
  llm:
    provider: gemini
    settings:
      api_key: gm-key
  tts:
    provider: murf
    settings:
      api_key: murf-key
`

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mode != ModeWS {
		t.Fatalf("unexpected mode %q", cfg.Mode)
	}
	if cfg.Game.MaxRounds != 3 {
		t.Fatalf("unexpected max rounds %d", cfg.Game.MaxRounds)
	}
	if cfg.VAD.EnergyThreshold != 0.015 || cfg.VAD.SilenceWindowMS != 1500 {
		t.Fatalf("unexpected vad defaults %+v", cfg.VAD)
	}
	if cfg.Session.SilentRetries != 3 || cfg.Session.FallbackDelayMS != 3000 {
		t.Fatalf("unexpected session defaults %+v", cfg.Session)
	}
	if !cfg.History.Enabled || cfg.History.Path != "game_history.json" {
		t.Fatalf("unexpected history defaults %+v", cfg.History)
	}
}

func TestLoadConfigExpandsEnvInSettings(t *testing.T) {
	t.Setenv("TEST_AAI_KEY", "secret-from-env")
	body := `
scenarios_path: scenarios.json
vendors:
  stt:
    provider: assemblyai
    settings:
      api_key: ${TEST_AAI_KEY}
  llm:
    provider: gemini
    settings:
      api_key: gm-key
  tts:
    provider: murf
    settings:
      api_key: murf-key
`
	cfg, err := LoadConfig(writeConfig(t, body))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Vendors.STT.Settings["api_key"] != "secret-from-env" {
		t.Fatalf("env not expanded: %v", cfg.Vendors.STT.Settings["api_key"])
	}
}

func TestLoadConfigRejectsMissingVendor(t *testing.T) {
	body := `
scenarios_path: scenarios.json
vendors:
  stt:
    provider: assemblyai
  tts:
    provider: murf
`
	if _, err := LoadConfig(writeConfig(t, body)); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadConfigRejectsBadMode(t *testing.T) {
	body := minimalConfig + "\nmode: telnet\n"
	if _, err := LoadConfig(writeConfig(t, body)); err == nil {
		t.Fatalf("expected mode error")
	}
}

func TestLoadConfigRejectsBadThreshold(t *testing.T) {
	body := minimalConfig + `
vad:
  energy_threshold: 15
`
	if _, err := LoadConfig(writeConfig(t, body)); err == nil {
		t.Fatalf("expected threshold error")
	}
}
