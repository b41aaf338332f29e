package game

import (
	"fmt"
	"unicode/utf8"
)

const (
	// DefaultMaxRounds is the fixed number of performance rounds.
	DefaultMaxRounds = 3

	// FallbackName replaces a captured name that is too long to be one.
	FallbackName = "Dost"

	nameLengthLimit = 20
)

// Instruction tells the generation step what to produce this turn.
type Instruction struct {
	// PromptContext is the phase-specific block merged into the host prompt.
	PromptContext string
	// ScenarioSubtitle is the assigned scenario's Hindi prompt, shown as subtitle.
	ScenarioSubtitle string
	// ScenarioScreen is the precomputed TV screen text. The orchestrator falls
	// back to it when the generation step omits one.
	ScenarioScreen string
	// Summary marks the terminal summary turn.
	Summary bool
}

// Machine is the session state machine. Advance is its only operation and is
// a pure function of (state, recognized text); the machine itself only holds
// the read-only scenario list and round bound.
type Machine struct {
	scenarios []Scenario
	maxRounds int
}

func NewMachine(scenarios []Scenario, maxRounds int) (*Machine, error) {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	if err := ValidateScenarios(scenarios, maxRounds); err != nil {
		return nil, err
	}
	return &Machine{scenarios: scenarios, maxRounds: maxRounds}, nil
}

func (m *Machine) MaxRounds() int { return m.maxRounds }

// Advance computes the next state and generation instruction. It never
// mutates its input; calling it twice with the same arguments yields the
// same result.
func (m *Machine) Advance(state State, recognizedText string) (State, Instruction) {
	next := state.Clone()

	switch state.Phase {
	case PhaseStart, "":
		next.Phase = PhaseWaitingForName
		next.Round = 0
		return next, Instruction{
			PromptContext: introPrompt,
			ScenarioScreen: "TELL ME YOUR NAME",
		}

	case PhaseWaitingForName:
		name := recognizedText
		if utf8.RuneCountInString(name) >= nameLengthLimit {
			name = FallbackName
		}
		scen := m.scenarios[0]
		next.Phase = PhasePlaying
		next.Round = 1
		next.UserName = name
		next.CurrentScenario = scen.Role
		return next, Instruction{
			PromptContext:    greetPrompt(name, scen),
			ScenarioSubtitle: scen.PromptHindi,
			ScenarioScreen:   scen.ScreenText,
		}

	case PhasePlaying:
		next.History = append(next.History, HistoryEntry{
			Round:           state.Round,
			Scenario:        state.CurrentScenario,
			UserPerformance: recognizedText,
		})
		if state.Round < m.maxRounds {
			// Round r done selects scenarios[r], the next assignment.
			scen := m.scenarios[state.Round]
			next.Round = state.Round + 1
			next.CurrentScenario = scen.Role
			return next, Instruction{
				PromptContext:    midGamePrompt(state.Round, m.maxRounds, state.UserName, recognizedText, scen),
				ScenarioSubtitle: scen.PromptHindi,
				ScenarioScreen:   scen.ScreenText,
			}
		}
		next.GameOver = true
		return next, Instruction{
			PromptContext:  summaryPrompt(state.UserName, recognizedText, next.History),
			ScenarioScreen: "SHOW ENDED",
			Summary:        true,
		}

	case PhaseEnded:
		// Terminal: further input is a no-op.
		return next, Instruction{}
	}

	return next, Instruction{}
}

const introPrompt = `PHASE: INTRO_ASK_NAME
ACTION:
1. Speak in Hinglish: "Namaste Dosto! Murfs Got Latent mein swagat hai! Main hoon aapka Host Samay Raina."
2. Subtitle (Hindi): "नमस्ते दोस्तों! Murf's Got Latent में स्वागत है! मैं हूँ आपका होस्ट समय रैना।"
3. Ask Name: "Shuru karne se pehle, apna naam batayein."
4. Subtitle Ask: "शुरू करने से पहले, अपना नाम बताएं।"
5. Screen Text: "TELL ME YOUR NAME"`

func greetPrompt(name string, scen Scenario) string {
	return fmt.Sprintf(`PHASE: GREET_AND_START
USER_NAME: %q
SCENARIO_TO_GIVE: %q

ACTION:
1. Say: "Shukriya %s! Chaliye shuru karte hain!"
2. Give the SCENARIO instructions clearly in Hinglish.
3. Subtitle should be in Hindi.`, name, scen.PromptHinglish, name)
}

func midGamePrompt(round, maxRounds int, name, performance string, scen Scenario) string {
	return fmt.Sprintf(`PHASE: MID_GAME
CURRENT ROUND: %d of %d
USER_NAME: %q
USER_PERFORMANCE: %q
NEXT_SCENARIO: %q

ACTION:
1. React to performance (Roast/Praise) in Hinglish/Hindi.
2. Introduce the NEXT SCENARIO: %q.`, round, maxRounds, name, performance, scen.PromptHinglish, scen.PromptHinglish)
}

func summaryPrompt(name, performance string, history []HistoryEntry) string {
	return fmt.Sprintf(`PHASE: END_GAME_SUMMARY
USER_NAME: %q
GAME_HISTORY: %s
LAST_PERFORMANCE: %q

ACTION:
1. React to final performance.
2. Give a short, funny summary of %s's acting style.
3. Mention one specific funny moment.
4. Say "Goodbye" / "Alvida".`, name, historyJSON(history), performance, name)
}
