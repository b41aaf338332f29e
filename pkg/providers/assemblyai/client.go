package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/harunnryd/latentstage/pkg/adapters/stt"
	"github.com/harunnryd/latentstage/pkg/errorsx"
	"github.com/harunnryd/latentstage/pkg/resilience"
)

type Config struct {
	APIKey       string
	BaseURL      string
	Language     string
	PollInterval time.Duration
	Timeout      time.Duration
	Client       *http.Client
}

// Client transcribes audio blobs through the upload + async job + poll flow.
type Client struct {
	cfg Config
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.assemblyai.com/v2"
	}
	if cfg.Language == "" {
		cfg.Language = "hi"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{cfg: cfg}
}

func (c *Client) Name() string { return "assemblyai_stt" }

// Transcribe uploads the blob, creates a transcription job, and polls it at
// a fixed interval until completion. The whole call is bounded by the
// configured timeout; it returns an empty transcript with an error instead
// of hanging.
func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	audioURL, err := c.upload(ctx, audio)
	if err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonSTTUpload)
	}
	jobID, err := c.createJob(ctx, audioURL)
	if err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonSTTCreate)
	}

	var text string
	err = resilience.Poll(ctx, resilience.PollConfig{Interval: c.cfg.PollInterval, Timeout: c.cfg.Timeout}, func(ctx context.Context) (bool, error) {
		status, err := c.pollJob(ctx, jobID)
		if err != nil {
			return false, err
		}
		switch status.Status {
		case "completed":
			text = status.Text
			return true, nil
		case "error":
			return false, errorsx.Wrap(fmt.Errorf("transcription failed: %s", status.Error), errorsx.ReasonSTTJob)
		default: // queued, processing
			return false, nil
		}
	})
	if err != nil {
		if errors.Is(err, resilience.ErrPollTimeout) {
			slog.Warn("transcription timed out", "job_id", jobID)
			return "", errorsx.Wrap(err, errorsx.ReasonSTTTimeout)
		}
		return "", errorsx.Wrap(err, errorsx.ReasonSTTPoll)
	}
	return text, nil
}

func (c *Client) upload(ctx context.Context, audio []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/upload", bytes.NewReader(audio))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/octet-stream")
	var out struct {
		UploadURL string `json:"upload_url"`
	}
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	if out.UploadURL == "" {
		return "", errors.New("missing upload_url")
	}
	return out.UploadURL, nil
}

func (c *Client) createJob(ctx context.Context, audioURL string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"audio_url":     audioURL,
		"language_code": c.cfg.Language,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/transcript", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.New("missing transcript id")
	}
	return out.ID, nil
}

type jobStatus struct {
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
}

func (c *Client) pollJob(ctx context.Context, id string) (jobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/transcript/"+id, nil)
	if err != nil {
		return jobStatus{}, err
	}
	req.Header.Set("Authorization", c.cfg.APIKey)
	var out jobStatus
	if err := c.do(req, &out); err != nil {
		return jobStatus{}, err
	}
	return out, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("assemblyai %s: %s", resp.Status, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) client() *http.Client {
	if c.cfg.Client != nil {
		return c.cfg.Client
	}
	return http.DefaultClient
}

var _ stt.Transcriber = (*Client)(nil)
