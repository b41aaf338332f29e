package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/harunnryd/latentstage/pkg/logging"
)

type Config struct {
	ServerAddr     string   `mapstructure:"server_addr"`
	Path           string   `mapstructure:"path"`
	SampleRate     int      `mapstructure:"sample_rate"`
	AllowAnyOrigin bool     `mapstructure:"allow_any_origin"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (c Config) withDefaults() Config {
	if c.ServerAddr == "" {
		c.ServerAddr = ":8080"
	}
	if c.Path == "" {
		c.Path = "/ws"
	}
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
	if !c.AllowAnyOrigin && len(c.AllowedOrigins) == 0 {
		c.AllowAnyOrigin = true
	}
	return c
}

// SessionHandler runs one show over an accepted connection. The connection
// is closed when the handler returns.
type SessionHandler func(ctx context.Context, conn *Conn)

// Transport accepts browser connections and hands each one to the session
// handler. The browser streams raw PCM16 chunks up as binary messages and
// receives host turns as JSON.
type Transport struct {
	cfg      Config
	handler  SessionHandler
	server   *http.Server
	upgrader websocket.Upgrader
	logger   *slog.Logger

	ctx      context.Context
	draining atomic.Bool

	mu    sync.Mutex
	conns map[string]*Conn
}

func New(cfg Config, handler SessionHandler) *Transport {
	cfg = cfg.withDefaults()
	t := &Transport{
		cfg:     cfg,
		handler: handler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		logger: logging.NewComponentLogger(slog.Default(), "ws_transport"),
		conns:  make(map[string]*Conn),
	}
	t.upgrader.CheckOrigin = t.checkOrigin
	return t
}

func (t *Transport) Name() string { return "ws" }

func (t *Transport) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	t.ctx = ctx
	mux := http.NewServeMux()
	mux.Handle(t.cfg.Path, t)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	t.server = &http.Server{
		Addr:              t.cfg.ServerAddr,
		ReadHeaderTimeout: 5 * time.Second,
		Handler:           mux,
	}
	go func() {
		<-ctx.Done()
		_ = t.server.Close()
	}()
	go func() {
		if err := t.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.logger.Error("server error", slog.String("error", err.Error()))
		}
	}()
	t.logger.Info("listening",
		slog.String("addr", t.cfg.ServerAddr),
		slog.String("path", t.cfg.Path))
	return nil
}

func (t *Transport) Stop() error {
	t.draining.Store(true)
	t.mu.Lock()
	for _, c := range t.conns {
		c.shutdown()
	}
	t.mu.Unlock()
	if t.server != nil {
		return t.server.Close()
	}
	return nil
}

func (t *Transport) ReadyFields() map[string]any {
	addr := t.cfg.ServerAddr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return map[string]any{
		"ws_url": "ws://" + addr + t.cfg.Path,
	}
}

func (t *Transport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if t.draining.Load() {
		http.Error(w, "draining", http.StatusServiceUnavailable)
		return
	}
	sock, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.logger.Warn("upgrade failed", slog.String("error", err.Error()))
		return
	}

	base := t.ctx
	if base == nil {
		base = context.Background()
	}
	ctx, cancel := context.WithCancel(base)

	id := uuid.NewString()
	conn := newConn(id, sock, t.cfg.SampleRate, cancel)
	t.mu.Lock()
	t.conns[id] = conn
	t.mu.Unlock()
	t.logger.Info("session connected",
		slog.String("session_id", id),
		slog.String("remote", r.RemoteAddr))

	go func() {
		defer func() {
			cancel()
			conn.shutdown()
			t.mu.Lock()
			delete(t.conns, id)
			t.mu.Unlock()
			t.logger.Info("session disconnected", slog.String("session_id", id))
		}()
		if t.handler != nil {
			t.handler(ctx, conn)
		}
	}()
}

func (t *Transport) checkOrigin(r *http.Request) bool {
	if t.cfg.AllowAnyOrigin {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	for _, allowed := range t.cfg.AllowedOrigins {
		if strings.EqualFold(u.Host, allowed) || strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}
