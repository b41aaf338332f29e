package ws

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/harunnryd/latentstage/pkg/audio"
	"github.com/harunnryd/latentstage/pkg/errorsx"
)

var errClosed = errors.New("connection closed")

// TurnMessage is one host turn pushed to the browser.
type TurnMessage struct {
	Type       string `json:"type"`
	Speech     string `json:"speech"`
	Subtitle   string `json:"subtitle"`
	ScreenText string `json:"screenText"`
	IsGameOver bool   `json:"isGameOver"`
	// Audio is the base64 encoded clip; empty on text-only turns.
	Audio string `json:"audio,omitempty"`
}

type controlMessage struct {
	Type string `json:"type"`
}

// Conn adapts one websocket to the capture Device and playback Player
// contracts. Uploaded binary messages are little-endian PCM16; playback
// completion is reported by the client with a playback_ended control.
type Conn struct {
	id   string
	sock *websocket.Conn
	rate int

	writeMu sync.Mutex

	mu     sync.Mutex
	out    chan audio.Chunk
	active bool
	closed bool

	playbackEnded chan struct{}
	done          chan struct{}
	onClosed      func()
}

// newConn adopts an upgraded socket. onClosed fires once when the socket
// goes away; it must be set here, before the read pump starts, so an
// immediate disconnect cannot race it.
func newConn(id string, sock *websocket.Conn, rate int, onClosed func()) *Conn {
	c := &Conn{
		id:            id,
		sock:          sock,
		rate:          rate,
		playbackEnded: make(chan struct{}, 1),
		done:          make(chan struct{}),
		onClosed:      onClosed,
	}
	go c.readPump()
	return c
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) Name() string { return "ws:" + c.id }

// SampleRate reports the PCM rate the client was told to capture at.
func (c *Conn) SampleRate() int { return c.rate }

// Start opens a capture window: decoded chunks flow on Chunks until Close.
func (c *Conn) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errorsx.Wrap(errClosed, errorsx.ReasonMicAcquire)
	}
	c.out = make(chan audio.Chunk, 64)
	c.active = true
	return nil
}

func (c *Conn) Chunks() <-chan audio.Chunk {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out
}

// Close ends the capture window. Audio arriving outside a window is dropped.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active {
		c.active = false
		close(c.out)
	}
	return nil
}

// Play pushes the clip and blocks until the client reports playback done or
// the context is cancelled.
func (c *Conn) Play(ctx context.Context, clip []byte) error {
	msg := TurnMessage{Type: "audio", Audio: base64.StdEncoding.EncodeToString(clip)}
	if err := c.writeJSON(msg); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonPlayback)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return errorsx.Wrap(errClosed, errorsx.ReasonPlayback)
	case <-c.playbackEnded:
		return nil
	}
}

// SendTurn pushes the host's text and optional audio as one message.
func (c *Conn) SendTurn(msg TurnMessage) error {
	if msg.Type == "" {
		msg.Type = "turn"
	}
	if err := c.writeJSON(msg); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonTransportSend)
	}
	return nil
}

// Done is closed when the socket goes away.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.sock.WriteJSON(v)
}

func (c *Conn) readPump() {
	defer c.shutdown()
	for {
		kind, data, err := c.sock.ReadMessage()
		if err != nil {
			return
		}
		switch kind {
		case websocket.BinaryMessage:
			c.deliver(decodePCM16(data))
		case websocket.TextMessage:
			c.handleControl(data)
		}
	}
}

func (c *Conn) deliver(chunk audio.Chunk) {
	if len(chunk) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return
	}
	select {
	case c.out <- chunk:
	default:
		// Capture window is backed up; drop rather than stall the socket.
	}
}

func (c *Conn) handleControl(data []byte) {
	var msg controlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if msg.Type == "playback_ended" {
		select {
		case c.playbackEnded <- struct{}{}:
		default:
		}
	}
}

func (c *Conn) shutdown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.active {
		c.active = false
		close(c.out)
	}
	c.mu.Unlock()
	close(c.done)
	if c.onClosed != nil {
		c.onClosed()
	}
	_ = c.sock.Close()
}

var (
	_ audio.Device = (*Conn)(nil)
	_ audio.Player = (*Conn)(nil)
)

func decodePCM16(data []byte) audio.Chunk {
	n := len(data) / 2
	if n == 0 {
		return nil
	}
	chunk := make(audio.Chunk, n)
	for i := 0; i < n; i++ {
		chunk[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
	}
	return chunk
}
