package audio

import (
	"context"
	"log/slog"
	"time"

	"github.com/harunnryd/latentstage/pkg/errorsx"
	"github.com/harunnryd/latentstage/pkg/vad"
)

// Capture scopes microphone ownership to exactly one turn. The endpointer
// observes every chunk inline, so detection halts the instant the capture
// stops; there is no separate detection loop to leak.
type Capture struct {
	device     Device
	endpointer *vad.Endpointer
	sampleRate int
	logger     *slog.Logger
}

func NewCapture(device Device, endpointer *vad.Endpointer, sampleRate int, logger *slog.Logger) *Capture {
	if logger == nil {
		logger = slog.Default()
	}
	return &Capture{
		device:     device,
		endpointer: endpointer,
		sampleRate: sampleRate,
		logger:     logger,
	}
}

// Record acquires the device, buffers chunks until the endpointer signals
// end of utterance (or the device stops on its own), and returns the whole
// recording as a WAV blob. The device is released on every exit path.
//
// A session abort returns (nil, ctx.Err()): no buffer. A capture that ended
// without collecting samples returns a zero-length, non-nil blob so callers
// can treat it as a non-turn without confusing it with an abort.
func (c *Capture) Record(ctx context.Context) ([]byte, error) {
	if err := c.device.Start(ctx); err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonMicAcquire)
	}
	defer func() {
		if err := c.device.Close(); err != nil {
			c.logger.Warn("device close failed", "device", c.device.Name(), "error", err)
		}
	}()

	c.endpointer.Reset()
	started := time.Now()
	var samples []int16

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case chunk, ok := <-c.device.Chunks():
			if !ok {
				return c.finish(samples, started), nil
			}
			samples = append(samples, chunk...)
			if c.endpointer.Feed(chunk) {
				return c.finish(samples, started), nil
			}
		}
	}
}

func (c *Capture) finish(samples []int16, started time.Time) []byte {
	c.logger.Debug("capture finished",
		"device", c.device.Name(),
		"samples", len(samples),
		"duration_ms", time.Since(started).Milliseconds())
	if len(samples) == 0 {
		return []byte{}
	}
	return WAVBytes(samples, c.sampleRate)
}
