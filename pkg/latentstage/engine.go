package latentstage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/harunnryd/latentstage/pkg/adapters/stt"
	"github.com/harunnryd/latentstage/pkg/adapters/tts"
	"github.com/harunnryd/latentstage/pkg/audio"
	"github.com/harunnryd/latentstage/pkg/configutil"
	"github.com/harunnryd/latentstage/pkg/game"
	"github.com/harunnryd/latentstage/pkg/llm"
	"github.com/harunnryd/latentstage/pkg/logging"
	"github.com/harunnryd/latentstage/pkg/notify"
	"github.com/harunnryd/latentstage/pkg/session"
	"github.com/harunnryd/latentstage/pkg/store"
	"github.com/harunnryd/latentstage/pkg/transports/ws"
	"github.com/harunnryd/latentstage/pkg/vad"
)

// Engine assembles the show from configuration: scenarios, vendors,
// transport, archive. One engine serves any number of sessions.
type Engine struct {
	cfg     Config
	machine *game.Machine

	transcriber stt.Transcriber
	generator   llm.Generator
	synthesizer tts.Synthesizer
	archive     store.Store
	notifier    notify.Notifier

	transport *ws.Transport
	logger    *slog.Logger
}

func NewEngine(cfg Config, reg *ProviderRegistry) (*Engine, error) {
	if reg == nil {
		reg = DefaultRegistry()
	}

	scenarios, err := game.LoadScenarios(cfg.ScenariosPath)
	if err != nil {
		return nil, fmt.Errorf("load scenarios: %w", err)
	}
	machine, err := game.NewMachine(scenarios, cfg.Game.MaxRounds)
	if err != nil {
		return nil, fmt.Errorf("build machine: %w", err)
	}

	e := &Engine{
		cfg:     cfg,
		machine: machine,
		logger:  logging.NewComponentLogger(slog.Default(), "engine"),
	}

	if e.transcriber, err = reg.BuildSTT(cfg.Vendors.STT.Provider, cfg); err != nil {
		return nil, err
	}
	if e.generator, err = reg.BuildLLM(cfg.Vendors.LLM.Provider, cfg); err != nil {
		return nil, err
	}
	if e.synthesizer, err = reg.BuildTTS(cfg.Vendors.TTS.Provider, cfg); err != nil {
		return nil, err
	}

	if cfg.History.Enabled {
		e.archive = store.NewJSONFile(cfg.History.Path)
	}
	if e.notifier, err = buildNotifier(cfg.Notify); err != nil {
		return nil, err
	}

	e.logger.Info("engine assembled",
		slog.String("mode", cfg.Mode),
		slog.String("stt", e.transcriber.Name()),
		slog.String("llm", e.generator.Name()),
		slog.String("tts", e.synthesizer.Name()),
		slog.Int("scenarios", len(scenarios)),
		slog.Int("max_rounds", machine.MaxRounds()))
	return e, nil
}

// Start brings the engine online. In ws mode it serves sessions until the
// context ends; in local mode it plays exactly one show on the machine's
// own audio devices.
func (e *Engine) Start(ctx context.Context) error {
	switch e.cfg.Mode {
	case ModeLocal:
		return e.runLocal(ctx)
	default:
		return e.startWS(ctx)
	}
}

// Stop drains background work and shuts the transport down.
func (e *Engine) Stop() error {
	if e.transport != nil {
		if err := e.transport.Stop(); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) startWS(ctx context.Context) error {
	var tcfg ws.Config
	if err := configutil.DecodeSettings(e.cfg.Transport.Settings, &tcfg); err != nil {
		return err
	}
	if tcfg.SampleRate <= 0 {
		tcfg.SampleRate = e.cfg.Audio.SampleRate
	}
	e.transport = ws.New(tcfg, e.serveSession)
	if err := e.transport.Start(ctx); err != nil {
		return err
	}
	for k, v := range e.transport.ReadyFields() {
		e.logger.Info("transport ready", slog.Any(k, v))
	}
	return nil
}

// serveSession runs one complete show over a browser connection.
func (e *Engine) serveSession(ctx context.Context, conn *ws.Conn) {
	recorder := audio.NewCapture(conn, e.newEndpointer(), conn.SampleRate(), e.logger)
	orch := e.newOrchestrator()
	sess := session.New(e.sessionConfig(), recorder, e.transcriber, orch,
		session.WithPlayer(conn),
		session.WithTurnHook(func(r session.TurnResult) {
			err := conn.SendTurn(ws.TurnMessage{
				Speech:     r.Reply.Speech,
				Subtitle:   r.Reply.Subtitle,
				ScreenText: r.ScreenText,
				IsGameOver: r.State.GameOver,
			})
			if err != nil {
				e.logger.Warn("turn delivery failed",
					slog.String("session_id", conn.ID()),
					slog.String("error", err.Error()))
			}
		}))

	if err := sess.Run(ctx); err != nil && ctx.Err() == nil {
		e.logger.Error("session ended with error",
			slog.String("session_id", conn.ID()),
			slog.String("error", err.Error()))
	}
	orch.Wait()
}

// runLocal plays one show on the default microphone and speaker.
func (e *Engine) runLocal(ctx context.Context) error {
	mic := audio.NewMicrophone(e.cfg.Audio.SampleRate, 0)
	recorder := audio.NewCapture(mic, e.newEndpointer(), e.cfg.Audio.SampleRate, e.logger)
	orch := e.newOrchestrator()
	sess := session.New(e.sessionConfig(), recorder, e.transcriber, orch,
		session.WithPlayer(audio.NewSpeaker()))
	err := sess.Run(ctx)
	orch.Wait()
	return err
}

func (e *Engine) newEndpointer() *vad.Endpointer {
	cfg := vad.NewConfig(e.cfg.VAD.EnergyThreshold, time.Duration(e.cfg.VAD.SilenceWindowMS)*time.Millisecond)
	if e.cfg.VAD.Classifier == "webrtc" {
		classifier, err := vad.NewWebRTCClassifier(e.cfg.Audio.SampleRate, 2)
		if err == nil {
			return vad.NewEndpointerWithClassifier(cfg, classifier)
		}
		e.logger.Warn("webrtc classifier unavailable, using energy heuristic",
			slog.String("error", err.Error()))
	}
	return vad.NewEndpointer(cfg)
}

func (e *Engine) newOrchestrator() *session.Orchestrator {
	opts := []session.OrchestratorOption{
		session.WithSynthesizer(e.synthesizer, e.voiceRequest()),
	}
	if e.archive != nil {
		opts = append(opts, session.WithArchive(e.archive))
	}
	if e.notifier != nil {
		opts = append(opts, session.WithNotifier(e.notifier))
	}
	return session.NewOrchestrator(e.machine, e.generator, opts...)
}

func (e *Engine) sessionConfig() session.Config {
	return session.Config{
		SilentRetries: e.cfg.Session.SilentRetries,
		FallbackDelay: time.Duration(e.cfg.Session.FallbackDelayMS) * time.Millisecond,
	}
}

func (e *Engine) voiceRequest() tts.Request {
	// Per-request fields stay empty so the synthesizer's own defaults apply.
	return tts.Request{}
}

func buildNotifier(cfg NotifyConfig) (notify.Notifier, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "twilio":
		var s struct {
			AccountSID string `mapstructure:"account_sid"`
			AuthToken  string `mapstructure:"auth_token"`
			From       string `mapstructure:"from"`
			To         string `mapstructure:"to"`
		}
		if err := configutil.DecodeSettings(cfg.Settings, &s); err != nil {
			return nil, err
		}
		if err := configutil.RequireString(s.AccountSID, "notify.settings.account_sid"); err != nil {
			return nil, err
		}
		return notify.NewTwilioSMS(notify.TwilioConfig{
			AccountSID: s.AccountSID,
			AuthToken:  s.AuthToken,
			From:       s.From,
			To:         s.To,
		}), nil
	default:
		return nil, fmt.Errorf("notify provider not registered: %s", cfg.Provider)
	}
}
