package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/firm-portal/internal/application/dispatcher"
	"github.com/garyjia/firm-portal/internal/application/session"
	"github.com/garyjia/firm-portal/internal/infrastructure/httpclient"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// fakeBackend routes "METHOD /path" to handlers and records every hit
type fakeBackend struct {
	t      *testing.T
	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	hits   []string
	server *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{t: t, routes: make(map[string]http.HandlerFunc)}
	fb.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		fb.mu.Lock()
		fb.hits = append(fb.hits, key)
		h, ok := fb.routes[key]
		fb.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(fb.server.Close)
	return fb
}

func (fb *fakeBackend) handle(method, path string, h http.HandlerFunc) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.routes[method+" "+path] = h
}

func (fb *fakeBackend) json(method, path string, status int, body any) {
	fb.handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, body)
	})
}

func (fb *fakeBackend) Hits() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]string(nil), fb.hits...)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type testEnv struct {
	backend  *fakeBackend
	client   *httpclient.Client
	sessions *session.Manager
	events   dispatcher.Dispatcher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	fb := newFakeBackend(t)
	events := dispatcher.NewDispatcher()

	sessions := session.NewManager(session.NewMemoryStore(), logger, session.WithDispatcher(events))
	require.NoError(t, sessions.Hydrate(context.Background()))

	cfg := httpclient.DefaultConfig(fb.server.URL)
	cfg.RetryAttempts = 1
	cfg.RetryDelay = time.Millisecond
	client := httpclient.New(cfg, logger,
		httpclient.WithTokenSource(sessions),
		httpclient.WithSleeper(func(ctx context.Context, _ time.Duration) error { return ctx.Err() }))

	return &testEnv{backend: fb, client: client, sessions: sessions, events: events}
}
