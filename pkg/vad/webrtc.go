//go:build cgo

package vad

import (
	"encoding/binary"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"
)

// WebRTCClassifier wraps the WebRTC voice activity detector as a chunk
// classifier. It only refines the loud/quiet decision; endpointing timing
// stays in Endpointer.
type WebRTCClassifier struct {
	vad        *webrtcvad.VAD
	sampleRate int
	frameLen   int
}

// NewWebRTCClassifier creates a classifier for the given sample rate.
// Mode ranges 0 (least aggressive) to 3 (most aggressive filtering).
func NewWebRTCClassifier(sampleRate, mode int) (*WebRTCClassifier, error) {
	v, err := webrtcvad.New()
	if err != nil {
		return nil, err
	}
	if err := v.SetMode(mode); err != nil {
		return nil, err
	}
	return &WebRTCClassifier{
		vad:        v,
		sampleRate: sampleRate,
		// 20ms frames, one of the sizes the detector accepts.
		frameLen: sampleRate / 50,
	}, nil
}

// Loud reports whether any complete 20ms frame in the chunk is voiced.
func (c *WebRTCClassifier) Loud(samples []int16) bool {
	frame := make([]byte, c.frameLen*2)
	for off := 0; off+c.frameLen <= len(samples); off += c.frameLen {
		for i := 0; i < c.frameLen; i++ {
			binary.LittleEndian.PutUint16(frame[i*2:], uint16(samples[off+i]))
		}
		if active, err := c.vad.Process(c.sampleRate, frame); err == nil && active {
			return true
		}
	}
	return false
}
