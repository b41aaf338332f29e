package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/harunnryd/latentstage/pkg/adapters/stt"
	"github.com/harunnryd/latentstage/pkg/audio"
	"github.com/harunnryd/latentstage/pkg/game"
	"github.com/harunnryd/latentstage/pkg/logging"
)

// Recorder captures one utterance per call.
type Recorder interface {
	Record(ctx context.Context) ([]byte, error)
}

const (
	// DefaultSilentRetries bounds consecutive empty captures before the
	// session gives up on the player.
	DefaultSilentRetries = 3

	// DefaultFallbackDelay paces text-only turns so subtitles stay readable
	// when no audio is available.
	DefaultFallbackDelay = 3 * time.Second
)

type Config struct {
	SilentRetries int
	FallbackDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.SilentRetries <= 0 {
		c.SilentRetries = DefaultSilentRetries
	}
	if c.FallbackDelay <= 0 {
		c.FallbackDelay = DefaultFallbackDelay
	}
	return c
}

// Session runs one complete show: listen, transcribe, advance, speak,
// until the game ends or the player goes quiet for good.
type Session struct {
	cfg      Config
	recorder Recorder
	stt      stt.Transcriber
	orch     *Orchestrator
	player   audio.Player
	onTurn   func(TurnResult)
	logger   *slog.Logger
}

type SessionOption func(*Session)

// WithPlayer voices host replies on the given output.
func WithPlayer(p audio.Player) SessionOption {
	return func(s *Session) { s.player = p }
}

// WithTurnHook observes every delivered turn, e.g. to render subtitles.
func WithTurnHook(fn func(TurnResult)) SessionOption {
	return func(s *Session) { s.onTurn = fn }
}

func New(cfg Config, recorder Recorder, transcriber stt.Transcriber, orch *Orchestrator, opts ...SessionOption) *Session {
	s := &Session{
		cfg:      cfg.withDefaults(),
		recorder: recorder,
		stt:      transcriber,
		orch:     orch,
		logger:   logging.NewComponentLogger(slog.Default(), "session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run plays one show to completion. It returns nil when the game ends or
// the player stays silent past the retry bound, and the context error when
// the session is aborted.
func (s *Session) Run(ctx context.Context) error {
	state := game.NewState()

	// Opening turn: the host speaks first.
	result, err := s.orch.RunTurn(ctx, state, "")
	if err != nil {
		return err
	}
	state = result.State
	if err := s.deliver(ctx, result); err != nil {
		return err
	}

	silent := 0
	for !state.GameOver {
		if err := ctx.Err(); err != nil {
			return err
		}

		blob, err := s.recorder.Record(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			s.logger.Error("capture failed", slog.String("error", err.Error()))
			return err
		}

		transcript := ""
		if len(blob) > 0 {
			transcript, err = s.stt.Transcribe(ctx, blob)
			if err != nil {
				// A failed transcription counts as a silent turn.
				s.logger.Warn("transcription failed", slog.String("error", err.Error()))
				transcript = ""
			}
		}

		result, err := s.orch.RunTurn(ctx, state, transcript)
		if err != nil {
			return err
		}
		if result.Relisten {
			silent++
			s.logger.Info("silent turn", slog.Int("attempt", silent), slog.Int("limit", s.cfg.SilentRetries))
			if silent >= s.cfg.SilentRetries {
				s.logger.Warn("player went quiet, ending show",
					slog.String("user", state.UserName),
					slog.Int("round", state.Round))
				return nil
			}
			continue
		}
		silent = 0
		state = result.State

		if err := s.deliver(ctx, result); err != nil {
			return err
		}
	}

	s.logger.Info("show finished",
		slog.String("user", state.UserName),
		slog.Int("rounds", len(state.History)))
	return nil
}

func (s *Session) deliver(ctx context.Context, result TurnResult) error {
	if result.Reply.Speech == "" {
		return nil
	}
	s.logger.Info("host turn",
		slog.String("phase", string(result.State.Phase)),
		slog.Int("round", result.State.Round),
		slog.String("screen", result.ScreenText),
		slog.Bool("voiced", result.Audio != nil))

	if s.onTurn != nil {
		s.onTurn(result)
	}

	if result.Audio != nil && s.player != nil {
		if err := s.player.Play(ctx, result.Audio); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			s.logger.Warn("playback failed", slog.String("error", err.Error()))
		}
		return nil
	}

	// Text-only turn: hold so the player can read before the mic reopens.
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.cfg.FallbackDelay):
		return nil
	}
}
