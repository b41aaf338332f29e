//go:build !cgo

package vad

import "errors"

// WebRTCClassifier needs the C detector; without cgo it cannot be built.
type WebRTCClassifier struct{}

func NewWebRTCClassifier(sampleRate, mode int) (*WebRTCClassifier, error) {
	return nil, errors.New("webrtc classifier requires a cgo build")
}

func (c *WebRTCClassifier) Loud(samples []int16) bool { return false }
