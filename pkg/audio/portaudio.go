//go:build cgo

package audio

import (
	"context"
	"errors"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/harunnryd/latentstage/pkg/errorsx"
)

// Microphone captures from the default input device via PortAudio.
type Microphone struct {
	sampleRate      int
	framesPerBuffer int

	mu     sync.Mutex
	stream *portaudio.Stream
	out    chan Chunk
	cancel context.CancelFunc
	done   chan struct{}
}

func NewMicrophone(sampleRate, framesPerBuffer int) *Microphone {
	if framesPerBuffer <= 0 {
		framesPerBuffer = 320 // 20ms at 16kHz
	}
	return &Microphone{sampleRate: sampleRate, framesPerBuffer: framesPerBuffer}
}

func (m *Microphone) Name() string { return "portaudio_mic" }

func (m *Microphone) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream != nil {
		return errors.New("microphone already acquired")
	}
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	buf := make([]int16, m.framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.sampleRate), m.framesPerBuffer, buf)
	if err != nil {
		_ = portaudio.Terminate()
		return err
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.stream = stream
	m.cancel = cancel
	m.out = make(chan Chunk, 8)
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		defer close(m.out)
		for {
			if runCtx.Err() != nil {
				return
			}
			if err := stream.Read(); err != nil {
				return
			}
			chunk := make(Chunk, len(buf))
			copy(chunk, buf)
			select {
			case <-runCtx.Done():
				return
			case m.out <- chunk:
			}
		}
	}()
	return nil
}

func (m *Microphone) Chunks() <-chan Chunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.out
}

func (m *Microphone) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream == nil {
		return nil
	}
	m.cancel()
	err := m.stream.Stop()
	if cerr := m.stream.Close(); err == nil {
		err = cerr
	}
	<-m.done
	m.stream = nil
	_ = portaudio.Terminate()
	return err
}

// Speaker plays WAV payloads on the default output device via PortAudio.
type Speaker struct {
	framesPerBuffer int
}

func NewSpeaker() *Speaker {
	return &Speaker{framesPerBuffer: 1024}
}

func (s *Speaker) Name() string { return "portaudio_speaker" }

// Play blocks until the whole payload has been written or ctx is cancelled.
// Only WAV payloads are playable locally; configure the synthesizer for WAV
// output when using the speaker.
func (s *Speaker) Play(ctx context.Context, payload []byte) error {
	samples, rate, err := ParsePCM(payload)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonPlayback)
	}
	if err := portaudio.Initialize(); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonPlayback)
	}
	defer portaudio.Terminate()

	buf := make([]int16, s.framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(rate), s.framesPerBuffer, buf)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonPlayback)
	}
	defer stream.Close()
	if err := stream.Start(); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonPlayback)
	}
	defer stream.Stop()

	for off := 0; off < len(samples); off += s.framesPerBuffer {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n := copy(buf, samples[off:])
		for i := n; i < s.framesPerBuffer; i++ {
			buf[i] = 0
		}
		if err := stream.Write(); err != nil {
			return errorsx.Wrap(err, errorsx.ReasonPlayback)
		}
	}
	return nil
}
