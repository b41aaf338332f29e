package ws

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return client
}

func pcmBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

func TestConnDeliversUploadedChunksDuringCaptureWindow(t *testing.T) {
	conns := make(chan *Conn, 1)
	tr := New(Config{}, func(ctx context.Context, c *Conn) {
		conns <- c
		<-c.Done()
	})
	srv := httptest.NewServer(tr)
	defer srv.Close()

	client := dial(t, srv)
	defer client.Close()

	var conn *Conn
	select {
	case conn = <-conns:
	case <-time.After(time.Second):
		t.Fatalf("handler never saw the connection")
	}

	if err := conn.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := client.WriteMessage(websocket.BinaryMessage, pcmBytes([]int16{100, -100, 2000})); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case chunk := <-conn.Chunks():
		if len(chunk) != 3 || chunk[0] != 100 || chunk[1] != -100 || chunk[2] != 2000 {
			t.Fatalf("chunk mangled: %v", chunk)
		}
	case <-time.After(time.Second):
		t.Fatalf("chunk never delivered")
	}

	if err := conn.Close(); err != nil {
		t.Fatalf("close window: %v", err)
	}
	if _, ok := <-conn.Chunks(); ok {
		t.Fatalf("window must drain closed")
	}
}

func TestConnPlayWaitsForPlaybackEnded(t *testing.T) {
	conns := make(chan *Conn, 1)
	tr := New(Config{}, func(ctx context.Context, c *Conn) {
		conns <- c
		<-c.Done()
	})
	srv := httptest.NewServer(tr)
	defer srv.Close()

	client := dial(t, srv)
	defer client.Close()

	conn := <-conns
	clip := []byte("mp3-bytes")

	// Echo playback_ended once the audio message arrives.
	go func() {
		var msg TurnMessage
		if err := client.ReadJSON(&msg); err != nil {
			return
		}
		decoded, _ := base64.StdEncoding.DecodeString(msg.Audio)
		if string(decoded) != string(clip) {
			t.Errorf("audio mangled: %q", decoded)
		}
		client.WriteJSON(map[string]string{"type": "playback_ended"})
	}()

	done := make(chan error, 1)
	go func() { done <- conn.Play(context.Background(), clip) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("play: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("play never unblocked")
	}
}

func TestConnPlayAborts(t *testing.T) {
	conns := make(chan *Conn, 1)
	tr := New(Config{}, func(ctx context.Context, c *Conn) {
		conns <- c
		<-c.Done()
	})
	srv := httptest.NewServer(tr)
	defer srv.Close()

	client := dial(t, srv)
	defer client.Close()

	conn := <-conns
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- conn.Play(ctx, []byte("clip")) }()
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("expected abort error")
		}
	case <-time.After(time.Second):
		t.Fatalf("play never aborted")
	}
}

func TestSendTurnReachesClient(t *testing.T) {
	conns := make(chan *Conn, 1)
	tr := New(Config{}, func(ctx context.Context, c *Conn) {
		conns <- c
		<-c.Done()
	})
	srv := httptest.NewServer(tr)
	defer srv.Close()

	client := dial(t, srv)
	defer client.Close()

	conn := <-conns
	err := conn.SendTurn(TurnMessage{
		Speech:     "Namaste Dosto!",
		Subtitle:   "नमस्ते दोस्तों!",
		ScreenText: "TELL ME YOUR NAME",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	var msg TurnMessage
	if err := client.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "turn" || msg.Speech != "Namaste Dosto!" || msg.ScreenText != "TELL ME YOUR NAME" {
		t.Fatalf("turn mangled: %+v", msg)
	}
}

func TestImmediateDisconnectCancelsSession(t *testing.T) {
	cancelled := make(chan struct{})
	tr := New(Config{}, func(ctx context.Context, c *Conn) {
		<-ctx.Done()
		close(cancelled)
	})
	srv := httptest.NewServer(tr)
	defer srv.Close()

	client := dial(t, srv)
	client.Close()

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatalf("session context must cancel when the client hangs up")
	}
}

func TestReadyFieldsBuildsDialableURL(t *testing.T) {
	tr := New(Config{ServerAddr: ":8080"}, nil)
	if got := tr.ReadyFields()["ws_url"]; got != "ws://localhost:8080/ws" {
		t.Fatalf("unexpected ws_url %v", got)
	}

	tr = New(Config{ServerAddr: "0.0.0.0:9000", Path: "/live"}, nil)
	if got := tr.ReadyFields()["ws_url"]; got != "ws://0.0.0.0:9000/live" {
		t.Fatalf("unexpected ws_url %v", got)
	}
}

func TestAudioOutsideCaptureWindowIsDropped(t *testing.T) {
	conns := make(chan *Conn, 1)
	tr := New(Config{}, func(ctx context.Context, c *Conn) {
		conns <- c
		<-c.Done()
	})
	srv := httptest.NewServer(tr)
	defer srv.Close()

	client := dial(t, srv)
	defer client.Close()

	conn := <-conns
	if err := client.WriteMessage(websocket.BinaryMessage, pcmBytes([]int16{1, 2, 3})); err != nil {
		t.Fatalf("write: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if err := conn.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	select {
	case chunk := <-conn.Chunks():
		t.Fatalf("stale audio leaked into new window: %v", chunk)
	case <-time.After(50 * time.Millisecond):
	}
}
