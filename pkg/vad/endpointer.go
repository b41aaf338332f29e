package vad

import (
	"math"
	"time"
)

// Config holds the two tunable endpointing parameters.
type Config struct {
	// EnergyThreshold is the normalized RMS level above which a chunk counts
	// as speech. Range [0,1].
	EnergyThreshold float64
	// SilenceWindow is how long the stream may stay below threshold before
	// the utterance is considered finished.
	SilenceWindow time.Duration
}

func NewConfig(threshold float64, window time.Duration) Config {
	if threshold <= 0 {
		threshold = 0.015
	}
	if window <= 0 {
		window = 1500 * time.Millisecond
	}
	return Config{EnergyThreshold: threshold, SilenceWindow: window}
}

// Classifier decides whether a PCM chunk contains speech. The default is
// the RMS energy heuristic; a webrtcvad-backed classifier is available on
// cgo builds.
type Classifier interface {
	Loud(samples []int16) bool
}

type energyClassifier struct {
	threshold float64
}

func (c energyClassifier) Loud(samples []int16) bool {
	return RMS(samples) > c.threshold
}

// Endpointer decides when the speaker has finished. It is an endpointing
// heuristic, not a voice/non-voice classifier: false stops on quiet speech
// and false continuations on background noise are accepted trade-offs.
type Endpointer struct {
	cfg        Config
	classifier Classifier
	lastLoud   time.Time
	primed     bool
	fired      bool
	now        func() time.Time
}

func NewEndpointer(cfg Config) *Endpointer {
	return NewEndpointerWithClassifier(cfg, energyClassifier{threshold: cfg.EnergyThreshold})
}

func NewEndpointerWithClassifier(cfg Config, classifier Classifier) *Endpointer {
	return &Endpointer{
		cfg:        cfg,
		classifier: classifier,
		now:        time.Now,
	}
}

// SetClock overrides the time source. Tests drive the silence window with it.
func (e *Endpointer) SetClock(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// Feed consumes one chunk of the live stream and reports whether the
// utterance has ended. It returns true exactly once per utterance; callers
// stop feeding as soon as it fires, which also halts detection with the
// capture's lifetime.
func (e *Endpointer) Feed(samples []int16) bool {
	if e.fired {
		return false
	}
	now := e.now()
	if !e.primed {
		e.lastLoud = now
		e.primed = true
	}
	if e.classifier.Loud(samples) {
		e.lastLoud = now
		return false
	}
	if now.Sub(e.lastLoud) > e.cfg.SilenceWindow {
		e.fired = true
		return true
	}
	return false
}

// Reset prepares the endpointer for the next utterance.
func (e *Endpointer) Reset() {
	e.primed = false
	e.fired = false
}

// RMS computes the root-mean-square level of a PCM16 chunk, normalized to
// [0,1]. An empty chunk is silent.
func RMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s) / math.MaxInt16
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}
