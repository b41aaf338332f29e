package audio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/harunnryd/latentstage/pkg/vad"
)

type scriptedDevice struct {
	chunks []Chunk

	mu      sync.Mutex
	out     chan Chunk
	started int
	closed  int
	failOn  error
}

func (d *scriptedDevice) Name() string { return "scripted" }

func (d *scriptedDevice) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failOn != nil {
		return d.failOn
	}
	d.started++
	d.out = make(chan Chunk, len(d.chunks))
	for _, c := range d.chunks {
		d.out <- c
	}
	return nil
}

func (d *scriptedDevice) Chunks() <-chan Chunk {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.out
}

func (d *scriptedDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed++
	return nil
}

func (d *scriptedDevice) closes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func loud() Chunk {
	c := make(Chunk, 160)
	for i := range c {
		c[i] = 4000
	}
	return c
}

func quiet() Chunk { return make(Chunk, 160) }

func newCapture(d Device, window time.Duration) (*Capture, *fakeClock) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	e := vad.NewEndpointer(vad.NewConfig(0.015, window))
	e.SetClock(clock.tick)
	return NewCapture(d, e, 16000, nil), clock
}

// fakeClock advances on every read so scripted chunks march through the
// silence window without real sleeps.
type fakeClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func (c *fakeClock) tick() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(c.step)
	return c.t
}

func TestRecordStopsOnEndpointerSignal(t *testing.T) {
	dev := &scriptedDevice{chunks: []Chunk{loud(), quiet(), quiet(), quiet()}}
	rec, clock := newCapture(dev, 100*time.Millisecond)
	clock.step = 60 * time.Millisecond

	blob, err := rec.Record(context.Background())
	if err != nil {
		t.Fatalf("record error: %v", err)
	}
	if len(blob) == 0 {
		t.Fatalf("expected audio blob")
	}
	samples, rate, err := ParsePCM(blob)
	if err != nil {
		t.Fatalf("blob not wav: %v", err)
	}
	if rate != 16000 {
		t.Fatalf("unexpected rate %d", rate)
	}
	if len(samples) == 0 {
		t.Fatalf("expected samples in blob")
	}
	if dev.closes() != 1 {
		t.Fatalf("device not released, closes=%d", dev.closes())
	}
}

func TestRecordAbortReturnsNoBuffer(t *testing.T) {
	dev := &scriptedDevice{}
	rec, _ := newCapture(dev, time.Minute)
	dev.chunks = nil

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	blob, err := rec.Record(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if blob != nil {
		t.Fatalf("abort must yield no buffer, got %d bytes", len(blob))
	}
	if dev.closes() != 1 {
		t.Fatalf("device must be released on abort")
	}
}

func TestRecordEmptyStreamYieldsZeroLengthBuffer(t *testing.T) {
	// Device closes its channel immediately without delivering chunks.
	dev := &closingDevice{}
	rec, _ := newCapture(dev, time.Minute)
	blob, err := rec.Record(context.Background())
	if err != nil {
		t.Fatalf("record error: %v", err)
	}
	if blob == nil || len(blob) != 0 {
		t.Fatalf("expected zero-length non-nil buffer, got %v", blob)
	}
}

type closingDevice struct {
	out chan Chunk
}

func (d *closingDevice) Name() string { return "closing" }

func (d *closingDevice) Start(ctx context.Context) error {
	d.out = make(chan Chunk)
	close(d.out)
	return nil
}

func (d *closingDevice) Chunks() <-chan Chunk { return d.out }

func (d *closingDevice) Close() error { return nil }

func TestRecordDeviceAcquisitionFailure(t *testing.T) {
	dev := &scriptedDevice{failOn: errors.New("permission denied")}
	rec, _ := newCapture(dev, time.Minute)
	if _, err := rec.Record(context.Background()); err == nil {
		t.Fatalf("expected acquisition error")
	}
}

func TestWAVRoundTrip(t *testing.T) {
	in := []int16{0, 100, -100, 32767, -32768}
	blob := WAVBytes(in, 24000)
	out, rate, err := ParsePCM(blob)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rate != 24000 {
		t.Fatalf("rate mismatch: %d", rate)
	}
	if len(out) != len(in) {
		t.Fatalf("length mismatch: %d vs %d", len(out), len(in))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("sample %d mismatch: %d vs %d", i, in[i], out[i])
		}
	}
}
