package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/harunnryd/latentstage/pkg/adapters/tts"
	"github.com/harunnryd/latentstage/pkg/game"
	"github.com/harunnryd/latentstage/pkg/providers/mock"
	"github.com/harunnryd/latentstage/pkg/store"
)

func testMachine(t *testing.T) *game.Machine {
	t.Helper()
	m, err := game.NewMachine([]game.Scenario{
		{Role: "chai_vendor", PromptHinglish: "Aap ek chai wale hain", PromptHindi: "आप एक चाय वाले हैं", ScreenText: "CHAI VENDOR"},
		{Role: "angry_rickshaw", PromptHinglish: "Aap ek gussa rickshaw wale hain", PromptHindi: "आप एक गुस्सा रिक्शा वाले हैं", ScreenText: "ANGRY RICKSHAW"},
		{Role: "filmi_hero", PromptHinglish: "Aap ek filmi hero hain", PromptHindi: "आप एक फ़िल्मी हीरो हैं", ScreenText: "FILMI HERO"},
	}, 3)
	if err != nil {
		t.Fatalf("machine: %v", err)
	}
	return m
}

func defaultVoice() tts.Request {
	return tts.Request{VoiceID: "hi-IN-karan", Locale: "hi-IN"}
}

func replyJSON(speech, screen string, over bool) string {
	b := "false"
	if over {
		b = "true"
	}
	return `{"speech":"` + speech + `","subtitle":"उपशीर्षक","scenarioText":"` + screen + `","isGameOver":` + b + `}`
}

func TestRunTurnOpeningAsksForName(t *testing.T) {
	gen := mock.NewLLM(mock.LLMConfig{Responses: []string{replyJSON("Namaste Dosto!", "TELL ME YOUR NAME", false)}})
	synth := mock.NewTTS(mock.TTSConfig{Audio: []byte("mp3")})
	o := NewOrchestrator(testMachine(t), gen, WithSynthesizer(synth, tts.Request{VoiceID: "hi-IN-karan"}))

	res, err := o.RunTurn(context.Background(), game.NewState(), "")
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if res.State.Phase != game.PhaseWaitingForName {
		t.Fatalf("unexpected phase %s", res.State.Phase)
	}
	if res.Reply.Speech != "Namaste Dosto!" {
		t.Fatalf("unexpected speech %q", res.Reply.Speech)
	}
	if string(res.Audio) != "mp3" {
		t.Fatalf("expected synthesized audio")
	}
	if got := synth.Texts(); len(got) != 1 || got[0] != "Namaste Dosto!" {
		t.Fatalf("synthesizer saw %v", got)
	}
}

func TestRunTurnEmptyTranscriptHoldsState(t *testing.T) {
	gen := mock.NewLLM(mock.LLMConfig{})
	o := NewOrchestrator(testMachine(t), gen)

	state := game.State{Phase: game.PhaseWaitingForName}
	res, err := o.RunTurn(context.Background(), state, "")
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if !res.Relisten {
		t.Fatalf("expected relisten")
	}
	if res.State.Phase != game.PhaseWaitingForName {
		t.Fatalf("state must not advance, got %s", res.State.Phase)
	}
	if len(gen.Prompts()) != 0 {
		t.Fatalf("no generation expected on a silent turn")
	}
}

func TestRunTurnWhitespaceTranscriptHoldsState(t *testing.T) {
	gen := mock.NewLLM(mock.LLMConfig{})
	o := NewOrchestrator(testMachine(t), gen)

	state := game.State{Phase: game.PhasePlaying, Round: 1, UserName: "Rohan", CurrentScenario: "chai_vendor"}
	res, err := o.RunTurn(context.Background(), state, " \t\n ")
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if !res.Relisten {
		t.Fatalf("expected relisten")
	}
	if res.State.Round != 1 || len(res.State.History) != 0 {
		t.Fatalf("whitespace must not count as a performance, got %+v", res.State)
	}
	if len(gen.Prompts()) != 0 {
		t.Fatalf("no generation expected on a silent turn")
	}
}

func TestRunTurnGenerationFailureEndsGameWithFallback(t *testing.T) {
	gen := mock.NewLLM(mock.LLMConfig{Err: errors.New("provider down")})
	o := NewOrchestrator(testMachine(t), gen)

	res, err := o.RunTurn(context.Background(), game.NewState(), "")
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if res.Reply != game.FallbackReply() {
		t.Fatalf("expected fallback reply, got %+v", res.Reply)
	}
	if res.State.Phase != game.PhaseEnded || !res.State.GameOver {
		t.Fatalf("fallback must end the game, got %+v", res.State)
	}
}

func TestRunTurnUnparseableOutputEndsGameWithFallback(t *testing.T) {
	gen := mock.NewLLM(mock.LLMConfig{Responses: []string{"sorry, I cannot do that"}})
	o := NewOrchestrator(testMachine(t), gen)

	res, err := o.RunTurn(context.Background(), game.NewState(), "")
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if res.Reply.ScenarioText != "ERROR" || !res.State.GameOver {
		t.Fatalf("expected fallback ending, got %+v", res)
	}
}

func TestRunTurnScreenTextFallsBackToInstruction(t *testing.T) {
	gen := mock.NewLLM(mock.LLMConfig{Responses: []string{replyJSON("Namaste!", "", false)}})
	o := NewOrchestrator(testMachine(t), gen)

	res, err := o.RunTurn(context.Background(), game.NewState(), "")
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if res.ScreenText != "TELL ME YOUR NAME" {
		t.Fatalf("expected precomputed screen text, got %q", res.ScreenText)
	}
}

func TestRunTurnSubtitleFallsBackToSpeech(t *testing.T) {
	gen := mock.NewLLM(mock.LLMConfig{Responses: []string{
		`{"speech":"Namaste Dosto!","subtitle":"","scenarioText":"X","isGameOver":false}`,
	}})
	o := NewOrchestrator(testMachine(t), gen)

	res, err := o.RunTurn(context.Background(), game.NewState(), "")
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if res.Reply.Subtitle != "Namaste Dosto!" {
		t.Fatalf("expected subtitle to mirror speech, got %q", res.Reply.Subtitle)
	}
}

func TestRunTurnSynthesisFailureDegradesToText(t *testing.T) {
	gen := mock.NewLLM(mock.LLMConfig{Responses: []string{replyJSON("Namaste!", "X", false)}})
	synth := mock.NewTTS(mock.TTSConfig{Err: errors.New("murf down")})
	o := NewOrchestrator(testMachine(t), gen, WithSynthesizer(synth, tts.Request{}))

	res, err := o.RunTurn(context.Background(), game.NewState(), "")
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if res.Audio != nil {
		t.Fatalf("expected text-only result")
	}
	if res.Reply.Speech != "Namaste!" {
		t.Fatalf("speech must survive synthesis failure")
	}
}

func TestRunTurnGameOverArchivesRecord(t *testing.T) {
	archive := store.NewJSONFile(filepath.Join(t.TempDir(), "game_history.json"))
	gen := mock.NewLLM(mock.LLMConfig{Responses: []string{replyJSON("Alvida Rohan!", "SHOW ENDED", true)}})
	o := NewOrchestrator(testMachine(t), gen, WithArchive(archive))

	state := game.State{
		Phase: game.PhasePlaying, Round: 3, UserName: "Rohan", CurrentScenario: "filmi_hero",
		History: []game.HistoryEntry{{Round: 1}, {Round: 2}},
	}
	res, err := o.RunTurn(context.Background(), state, "dialogue maarta hoon")
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if res.State.Phase != game.PhaseEnded || !res.State.GameOver {
		t.Fatalf("expected ended state, got %+v", res.State)
	}
	o.Wait()

	records, err := archive.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 archived game, got %d", len(records))
	}
	rec := records[0]
	if rec.User != "Rohan" || rec.HostSummary != "Alvida Rohan!" {
		t.Fatalf("record mangled: %+v", rec)
	}
	if len(rec.GameData.History) != 3 {
		t.Fatalf("final history must include the last round, got %d", len(rec.GameData.History))
	}
}

func TestRunTurnEndedStateIsTerminal(t *testing.T) {
	gen := mock.NewLLM(mock.LLMConfig{})
	o := NewOrchestrator(testMachine(t), gen)

	state := game.State{Phase: game.PhaseEnded, GameOver: true}
	res, err := o.RunTurn(context.Background(), state, "hello again")
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if res.Reply.Speech != "" {
		t.Fatalf("ended session must stay quiet, got %q", res.Reply.Speech)
	}
	if len(gen.Prompts()) != 0 {
		t.Fatalf("no generation expected after the show ends")
	}
}
