package game

import (
	"encoding/json"
	"fmt"
	"os"
)

// Scenario is one improv assignment, indexed by round number.
// The list is loaded once at process start and read-only afterwards.
type Scenario struct {
	Role           string `json:"role" mapstructure:"role"`
	PromptHinglish string `json:"prompt_hinglish" mapstructure:"prompt_hinglish"`
	PromptHindi    string `json:"prompt_hindi" mapstructure:"prompt_hindi"`
	ScreenText     string `json:"screen_text" mapstructure:"screen_text"`
}

// LoadScenarios reads the scenario list from a JSON file.
func LoadScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenarios: %w", err)
	}
	var out []Scenario
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse scenarios: %w", err)
	}
	return out, nil
}

// ValidateScenarios ensures the list covers every round.
func ValidateScenarios(scenarios []Scenario, maxRounds int) error {
	if len(scenarios) < maxRounds {
		return fmt.Errorf("need at least %d scenarios, have %d", maxRounds, len(scenarios))
	}
	for i, s := range scenarios {
		if s.Role == "" {
			return fmt.Errorf("scenario %d: missing role", i)
		}
		if s.PromptHinglish == "" {
			return fmt.Errorf("scenario %d: missing prompt_hinglish", i)
		}
	}
	return nil
}
