package resilience

import (
	"context"
	"errors"
	"time"
)

// ErrPollTimeout reports that polling reached its overall deadline before
// the job finished.
var ErrPollTimeout = errors.New("poll timeout")

// PollFunc checks an async job once. It returns done=true to stop polling.
// A non-nil error also stops polling.
type PollFunc func(ctx context.Context) (done bool, err error)

// PollConfig bounds a polling loop.
type PollConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

func NewPollConfig(interval, timeout time.Duration) PollConfig {
	if interval <= 0 {
		interval = time.Second
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return PollConfig{Interval: interval, Timeout: timeout}
}

// Poll runs fn at a fixed interval until it reports done, fails, the overall
// timeout elapses, or ctx is cancelled. The first check happens after one
// interval, matching async job APIs that are never complete immediately.
func Poll(ctx context.Context, cfg PollConfig, fn PollFunc) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ErrPollTimeout
			}
			return ctx.Err()
		case <-ticker.C:
			done, err := fn(ctx)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
}
