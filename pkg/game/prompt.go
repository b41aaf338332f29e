package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// HostReply is the strict response contract of the generation step.
type HostReply struct {
	Speech       string `json:"speech"`
	Subtitle     string `json:"subtitle"`
	ScenarioText string `json:"scenarioText"`
	IsGameOver   bool   `json:"isGameOver"`
}

// FallbackReply is the fixed reply substituted when the generation step
// returns something unparseable. It ends the game gracefully.
func FallbackReply() HostReply {
	return HostReply{
		Speech:       "Technical error.",
		Subtitle:     "तकनीकी खराबी।",
		ScenarioText: "ERROR",
		IsGameOver:   true,
	}
}

// BuildPrompt merges the instruction with the fixed host persona rules into
// the full prompt for the generation step.
func BuildPrompt(instr Instruction) string {
	screen := instr.ScenarioScreen
	if screen == "" {
		screen = "..."
	}
	return fmt.Sprintf(`You are the host of "MURF'S GOT LATENT".

INSTRUCTIONS:
1. **speech**: Hinglish (Roman Hindi) for Audio.
2. **subtitle**: Pure Hindi (Devanagari) for Text.
3. **scenarioText**: %q (Use this exact text if provided, otherwise '...').

%s

OUTPUT FORMAT (JSON ONLY):
{
  "speech": "Hinglish text...",
  "subtitle": "Hindi text...",
  "scenarioText": "TV Screen text...",
  "isGameOver": boolean
}`, screen, instr.PromptContext)
}

// ParseHostReply validates the generation output against the contract.
// Code fences around the JSON payload are stripped before parsing.
func ParseHostReply(raw string) (HostReply, error) {
	cleaned := cleanJSON(raw)
	if cleaned == "" {
		return HostReply{}, errors.New("empty generation response")
	}
	var reply HostReply
	if err := json.Unmarshal([]byte(cleaned), &reply); err != nil {
		return HostReply{}, fmt.Errorf("parse host reply: %w", err)
	}
	if strings.TrimSpace(reply.Speech) == "" {
		return HostReply{}, errors.New("host reply missing speech")
	}
	return reply, nil
}

func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

func historyJSON(history []HistoryEntry) string {
	b, err := json.Marshal(history)
	if err != nil {
		return "[]"
	}
	return string(b)
}
