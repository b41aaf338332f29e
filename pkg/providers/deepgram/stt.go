package deepgram

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	listenv1rest "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listen "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	"github.com/harunnryd/latentstage/pkg/adapters/stt"
	"github.com/harunnryd/latentstage/pkg/errorsx"
	"github.com/harunnryd/latentstage/pkg/logging"
)

type Config struct {
	APIKey   string
	Model    string
	Language string
}

// Transcriber is a drop-in alternative to the async upload-and-poll vendor:
// prerecorded transcription over a single request, no job lifecycle.
type Transcriber struct {
	cfg    Config
	client *listenv1rest.Client
	logger *slog.Logger
}

func New(cfg Config) *Transcriber {
	if cfg.Model == "" {
		cfg.Model = "nova-2"
	}
	if cfg.Language == "" {
		cfg.Language = "hi"
	}
	rest := listen.NewREST(cfg.APIKey, &interfaces.ClientOptions{})
	return &Transcriber{
		cfg:    cfg,
		client: listenv1rest.New(rest),
		logger: logging.NewComponentLogger(slog.Default(), "deepgram_stt"),
	}
}

func (t *Transcriber) Name() string { return "deepgram_stt" }

func (t *Transcriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	opts := &interfaces.PreRecordedTranscriptionOptions{
		Model:       t.cfg.Model,
		Language:    t.cfg.Language,
		SmartFormat: true,
	}
	res, err := t.client.FromStream(ctx, bytes.NewReader(audio), opts)
	if err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonSTTJob)
	}
	if res == nil || len(res.Results.Channels) == 0 || len(res.Results.Channels[0].Alternatives) == 0 {
		return "", errorsx.Wrap(errors.New("empty transcription result"), errorsx.ReasonSTTJob)
	}
	transcript := res.Results.Channels[0].Alternatives[0].Transcript
	t.logger.Debug("transcript_received",
		slog.Int("audio_bytes", len(audio)),
		slog.Int("transcript_chars", len(transcript)))
	return transcript, nil
}

var _ stt.Transcriber = (*Transcriber)(nil)
