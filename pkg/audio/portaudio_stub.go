//go:build !cgo

package audio

import (
	"context"
	"errors"
)

var errNoPortAudio = errors.New("local audio requires a cgo build")

// Microphone needs PortAudio; without cgo acquisition always fails.
type Microphone struct{}

func NewMicrophone(sampleRate, framesPerBuffer int) *Microphone { return &Microphone{} }

func (m *Microphone) Name() string { return "portaudio_mic" }

func (m *Microphone) Start(ctx context.Context) error { return errNoPortAudio }

func (m *Microphone) Chunks() <-chan Chunk { return nil }

func (m *Microphone) Close() error { return nil }

// Speaker needs PortAudio; without cgo playback always fails.
type Speaker struct{}

func NewSpeaker() *Speaker { return &Speaker{} }

func (s *Speaker) Name() string { return "portaudio_speaker" }

func (s *Speaker) Play(ctx context.Context, payload []byte) error { return errNoPortAudio }
