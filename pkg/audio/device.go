package audio

import "context"

// Chunk is a short run of PCM16 mono samples from the live stream.
type Chunk []int16

// Device is an exclusive audio source. A device is acquired for the scope of
// exactly one capture and must be re-acquirable after Close.
type Device interface {
	Name() string
	// Start acquires the underlying resource and begins delivering chunks.
	Start(ctx context.Context) error
	// Chunks streams captured audio. The channel closes when the device
	// stops delivering (closed, or the source ended).
	Chunks() <-chan Chunk
	// Close releases the resource. Safe to call on every exit path.
	Close() error
}

// Player owns the speaker for the duration of one playback. Play blocks
// until end-of-playback or ctx cancellation.
type Player interface {
	Name() string
	Play(ctx context.Context, audio []byte) error
}
