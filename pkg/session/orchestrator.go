package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/harunnryd/latentstage/pkg/adapters/tts"
	"github.com/harunnryd/latentstage/pkg/errorsx"
	"github.com/harunnryd/latentstage/pkg/game"
	"github.com/harunnryd/latentstage/pkg/llm"
	"github.com/harunnryd/latentstage/pkg/logging"
	"github.com/harunnryd/latentstage/pkg/notify"
	"github.com/harunnryd/latentstage/pkg/resilience"
	"github.com/harunnryd/latentstage/pkg/store"
)

// TurnResult is everything one completed turn produces.
type TurnResult struct {
	State game.State
	Reply game.HostReply
	// ScreenText is the TV screen line after fallback resolution.
	ScreenText string
	// Audio is the synthesized host speech; nil means text-only delivery.
	Audio []byte
	// Relisten signals that the turn consumed no input and the caller
	// should capture again without advancing the game.
	Relisten bool
}

// Orchestrator runs one full turn: advance the game, generate the host
// reply, validate it, synthesize speech, and archive finished games.
type Orchestrator struct {
	machine  *game.Machine
	gen      llm.Generator
	synth    tts.Synthesizer
	voice    tts.Request
	archive  store.Store
	notifier notify.Notifier
	retry    resilience.RetryPolicy
	logger   *slog.Logger

	bg sync.WaitGroup
}

type OrchestratorOption func(*Orchestrator)

// WithSynthesizer enables voiced replies. Without it every turn is text-only.
func WithSynthesizer(s tts.Synthesizer, voice tts.Request) OrchestratorOption {
	return func(o *Orchestrator) {
		o.synth = s
		o.voice = voice
	}
}

// WithArchive records finished games to the store.
func WithArchive(s store.Store) OrchestratorOption {
	return func(o *Orchestrator) { o.archive = s }
}

// WithNotifier sends an out-of-band notification when a game ends.
func WithNotifier(n notify.Notifier) OrchestratorOption {
	return func(o *Orchestrator) { o.notifier = n }
}

func NewOrchestrator(machine *game.Machine, gen llm.Generator, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		machine: machine,
		gen:     gen,
		retry:   resilience.NewRetryPolicy(1, 500*time.Millisecond),
		logger:  logging.NewComponentLogger(slog.Default(), "orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunTurn advances the session by one turn. An empty or whitespace-only
// transcript outside the opening turn does not advance the game; the caller
// gets Relisten instead.
// Generation failures never surface to the player: the turn degrades to the
// fixed technical-error reply and ends the game.
func (o *Orchestrator) RunTurn(ctx context.Context, state game.State, transcript string) (TurnResult, error) {
	if err := ctx.Err(); err != nil {
		return TurnResult{}, err
	}
	if strings.TrimSpace(transcript) == "" && state.Phase != game.PhaseStart && state.Phase != "" {
		o.logger.Info("empty transcript, holding state",
			slog.String("phase", string(state.Phase)),
			slog.Int("round", state.Round))
		return TurnResult{State: state, Relisten: true}, nil
	}

	next, instr := o.machine.Advance(state, transcript)
	if next.Phase == game.PhaseEnded && instr.PromptContext == "" {
		// Terminal state; nothing left to say.
		return TurnResult{State: next}, nil
	}

	reply, ok := o.generate(ctx, instr)
	if !ok {
		next.GameOver = true
	}
	if reply.IsGameOver || next.GameOver {
		next.Phase = game.PhaseEnded
		next.GameOver = true
	}

	if reply.Subtitle == "" {
		reply.Subtitle = reply.Speech
	}
	screen := reply.ScenarioText
	if screen == "" {
		screen = instr.ScenarioScreen
	}

	if next.GameOver {
		o.archiveGame(next, reply.Speech)
	}

	result := TurnResult{State: next, Reply: reply, ScreenText: screen}
	if o.synth != nil {
		req := o.voice
		req.Text = reply.Speech
		audio, err := o.synth.Synthesize(ctx, req)
		if err != nil && resilience.IsRateLimit(err) {
			o.logger.Warn("synthesis rate limited, retrying", slog.String("vendor", o.synth.Name()))
			err = o.retry.DoCtx(ctx, func() error {
				var rerr error
				audio, rerr = o.synth.Synthesize(ctx, req)
				return rerr
			})
		}
		if err != nil {
			// Degrade to text-only; the show goes on without audio.
			o.logger.Warn("synthesis failed, delivering text only",
				slog.String("error", err.Error()),
				slog.String("reason", string(errorsx.Reason(err))))
		} else {
			result.Audio = audio
		}
	}
	return result, nil
}

func (o *Orchestrator) generate(ctx context.Context, instr game.Instruction) (game.HostReply, bool) {
	prompt := game.BuildPrompt(instr)
	resp, err := o.gen.Generate(ctx, prompt)
	if err != nil && resilience.IsRateLimit(err) {
		o.logger.Warn("generation rate limited, retrying", slog.String("vendor", o.gen.Name()))
		err = o.retry.DoCtx(ctx, func() error {
			var rerr error
			resp, rerr = o.gen.Generate(ctx, prompt)
			return rerr
		})
	}
	if err != nil {
		o.logger.Error("generation failed",
			slog.String("error", err.Error()),
			slog.String("reason", string(errorsx.Reason(err))))
		return game.FallbackReply(), false
	}
	reply, err := game.ParseHostReply(resp.Text)
	if err != nil {
		o.logger.Error("generation contract violated",
			slog.String("error", err.Error()),
			slog.String("raw", truncate(resp.Text, 200)))
		return game.FallbackReply(), false
	}
	return reply, true
}

// archiveGame persists and notifies in the background; a slow or broken
// archive never delays the final reply.
func (o *Orchestrator) archiveGame(final game.State, summary string) {
	rec := store.Record{
		Timestamp:   time.Now().UTC(),
		User:        final.UserName,
		GameData:    final,
		HostSummary: summary,
	}
	if o.archive != nil {
		o.bg.Add(1)
		go func() {
			defer o.bg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := o.archive.Append(ctx, rec); err != nil {
				o.logger.Warn("archive failed", slog.String("error", err.Error()))
			}
		}()
	}
	if o.notifier != nil {
		o.bg.Add(1)
		go func() {
			defer o.bg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := o.notifier.GameFinished(ctx, rec); err != nil {
				o.logger.Warn("notification failed",
					slog.String("notifier", o.notifier.Name()),
					slog.String("error", err.Error()))
			}
		}()
	}
}

// Wait blocks until background archival work settles.
func (o *Orchestrator) Wait() { o.bg.Wait() }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
