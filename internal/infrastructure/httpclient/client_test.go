package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func (s *recordingSleeper) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

type staticTokens string

func (t staticTokens) Token(context.Context) (string, error) {
	return string(t), nil
}

func newTestClient(t *testing.T, baseURL string, cfg func(*Config), opts ...Option) (*Client, *recordingSleeper) {
	t.Helper()
	c := DefaultConfig(baseURL)
	c.RetryDelay = 100 * time.Millisecond
	if cfg != nil {
		cfg(&c)
	}
	sleeper := &recordingSleeper{}
	opts = append([]Option{WithSleeper(sleeper.Sleep)}, opts...)
	return New(c, zap.NewNop(), opts...), sleeper
}

func TestDo_RetriesServerErrorsWithLinearBackoff(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client, sleeper := newTestClient(t, server.URL, nil)

	result, err := client.Get(context.Background(), "/api/leave/types")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, sleeper.Delays())

	var body map[string]bool
	require.NoError(t, result.Decode(&body))
	assert.True(t, body["ok"])
}

func TestDo_ServerErrorExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"upstream down"}`))
	}))
	defer server.Close()

	client, sleeper := newTestClient(t, server.URL, nil)

	_, err := client.Get(context.Background(), "/api/staff")
	apiErr, ok := AsAPIError(err)
	require.True(t, ok, "expected *APIError, got %v", err)
	assert.Equal(t, KindServer, apiErr.Kind)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Bad Gateway", apiErr.StatusText)
	assert.Equal(t, "upstream down", apiErr.Message)
	assert.Equal(t, 4, apiErr.Attempts)
	assert.Equal(t, int32(4), calls.Load())
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}, sleeper.Delays())
}

func TestDo_UnauthorizedIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client, sleeper := newTestClient(t, server.URL, func(c *Config) { c.RetryClientErrors = true })

	_, err := client.Get(context.Background(), "/api/leave/my-leaves")
	require.Error(t, err)
	assert.True(t, IsAuthRequired(err))
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, sleeper.Delays())

	apiErr, _ := AsAPIError(err)
	assert.Equal(t, 401, apiErr.Status)
	assert.Equal(t, "HTTP 401: Unauthorized", apiErr.Message)
}

func TestDo_ClientErrors(t *testing.T) {
	tests := []struct {
		name          string
		retryClient   bool
		expectedCalls int32
	}{
		{"not retried by default", false, 1},
		{"legacy retry until exhausted", true, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = w.Write([]byte(`{"error":"reason is required"}`))
			}))
			defer server.Close()

			client, _ := newTestClient(t, server.URL, func(c *Config) { c.RetryClientErrors = tt.retryClient })

			_, err := client.Post(context.Background(), "/api/leave/1/reject", map[string]string{})
			assert.Equal(t, KindClient, KindOf(err))
			assert.Equal(t, tt.expectedCalls, calls.Load())

			apiErr, _ := AsAPIError(err)
			assert.Equal(t, "reason is required", apiErr.Message)
		})
	}
}

func TestDo_TimeoutIsFinal(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	client, sleeper := newTestClient(t, server.URL, func(c *Config) { c.Timeout = 50 * time.Millisecond })

	start := time.Now()
	_, err := client.Get(context.Background(), "/api/blogs/public")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, KindTimeout, KindOf(err))
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, sleeper.Delays())

	apiErr, _ := AsAPIError(err)
	assert.Equal(t, 0, apiErr.Status)
}

func TestDo_ParentCancellationPassesThrough(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	client, _ := newTestClient(t, server.URL, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := client.Get(ctx, "/slow")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Kind(""), KindOf(err))
}

func TestDo_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, sleeper := newTestClient(t, url, func(c *Config) { c.RetryAttempts = 1 })

	_, err := client.Get(context.Background(), "/api/staff")
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, KindNetwork, apiErr.Kind)
	assert.Equal(t, 0, apiErr.Status)
	assert.Equal(t, 2, apiErr.Attempts)
	assert.Len(t, sleeper.Delays(), 1)
}

func TestDo_ConfigurationError(t *testing.T) {
	for _, base := range []string{"", "   ", "not a url", "/relative"} {
		t.Run(base, func(t *testing.T) {
			client, sleeper := newTestClient(t, base, nil)

			_, err := client.Get(context.Background(), "/api/staff")
			assert.Equal(t, KindConfiguration, KindOf(err))
			assert.Empty(t, sleeper.Delays())
		})
	}

	client, _ := newTestClient(t, "http://127.0.0.1:1", nil)
	_, err := client.Post(context.Background(), "/x", map[string]any{"bad": make(chan int)})
	assert.Equal(t, KindConfiguration, KindOf(err))
}

func TestDo_RequestShape(t *testing.T) {
	type captured struct {
		method, path, query, contentType, auth, cookie, agent string
		body                                                  []byte
	}
	got := make(chan captured, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- captured{
			method:      r.Method,
			path:        r.URL.Path,
			query:       r.URL.RawQuery,
			contentType: r.Header.Get("Content-Type"),
			auth:        r.Header.Get("Authorization"),
			cookie:      r.Header.Get("Cookie"),
			agent:       r.Header.Get("User-Agent"),
			body:        body,
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("queued"))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL+"/", func(c *Config) { c.UserAgent = "portal-test" },
		WithTokenSource(staticTokens("stored-token")))

	ctx := WithCredentials(context.Background(), Credentials{Token: "forwarded", Cookie: "sid=abc"})
	result, err := client.Post(ctx, "/api/leave/7/approve", map[string]string{"comment": "ok"},
		WithQuery("notify", "true"))
	require.NoError(t, err)

	c := <-got
	assert.Equal(t, http.MethodPost, c.method)
	assert.Equal(t, "/api/leave/7/approve", c.path)
	assert.Equal(t, "notify=true", c.query)
	assert.Equal(t, "application/json", c.contentType)
	assert.Equal(t, "Bearer forwarded", c.auth)
	assert.Equal(t, "sid=abc", c.cookie)
	assert.Equal(t, "portal-test", c.agent)
	assert.JSONEq(t, `{"comment":"ok"}`, string(c.body))

	assert.False(t, result.IsJSON())
	assert.Equal(t, "queued", result.Text())
	assert.ErrorIs(t, result.Decode(&struct{}{}), ErrNotJSON)

	value, err := result.Value()
	require.NoError(t, err)
	assert.Equal(t, "queued", value)

	// stored token and overridden content type
	_, err = client.Post(context.Background(), "/api/staff", "raw",
		WithHeader("Content-Type", "text/plain"))
	require.NoError(t, err)
	c = <-got
	assert.Equal(t, "Bearer stored-token", c.auth)
	assert.Equal(t, "text/plain", c.contentType)
	assert.Equal(t, "raw", string(c.body))
}

func TestDo_RetryResendsBody(t *testing.T) {
	var calls atomic.Int32
	bodies := make(chan string, 2)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies <- string(body)
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL, nil)
	_, err := client.Post(context.Background(), "/api/blogs/1/like", map[string]string{"visitorId": "v-1"})
	require.NoError(t, err)

	assert.JSONEq(t, `{"visitorId":"v-1"}`, <-bodies)
	assert.JSONEq(t, `{"visitorId":"v-1"}`, <-bodies)
}

func TestDo_PerCallRetryOverride(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, sleeper := newTestClient(t, server.URL, nil)
	_, err := client.Get(context.Background(), "/x", WithRetry(0, time.Second))
	assert.Equal(t, KindServer, KindOf(err))
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, sleeper.Delays())
}

func TestResult_DecodeData(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"envelope", `{"success":true,"data":["a","b"]}`, []string{"a", "b"}},
		{"bare array", `["c"]`, []string{"c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Result{Body: []byte(tt.body), ContentType: "application/json; charset=utf-8"}
			var got []string
			require.NoError(t, r.DecodeData(&got))
			assert.Equal(t, tt.want, got)
		})
	}

	r := &Result{Body: []byte(`{"id":"x"}`), ContentType: "application/problem+json"}
	var obj map[string]string
	require.NoError(t, r.DecodeData(&obj))
	assert.Equal(t, "x", obj["id"])

	empty := &Result{ContentType: "application/json"}
	assert.NoError(t, empty.DecodeData(&obj))
}

func TestRetryPolicy(t *testing.T) {
	p := RetryPolicy{Attempts: 3, Delay: time.Second}
	assert.Equal(t, 4, p.MaxAttempts())
	assert.Equal(t, time.Second, p.Backoff(0))
	assert.Equal(t, 3*time.Second, p.Backoff(2))
	assert.Equal(t, 1, RetryPolicy{Attempts: -2}.MaxAttempts())

	tests := []struct {
		err  error
		want bool
	}{
		{&APIError{Kind: KindServer}, true},
		{&APIError{Kind: KindNetwork}, true},
		{&APIError{Kind: KindClient}, false},
		{&APIError{Kind: KindAuthRequired}, false},
		{&APIError{Kind: KindTimeout}, false},
		{&APIError{Kind: KindConfiguration}, false},
		{context.Canceled, false},
		{errors.New("boom"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.ShouldRetry(tt.err), "%v", tt.err)
	}
	assert.True(t, RetryPolicy{RetryClientErrors: true}.ShouldRetry(&APIError{Kind: KindClient}))
}

func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, KindAuthRequired, ClassifyStatus(401))
	assert.Equal(t, KindClient, ClassifyStatus(403))
	assert.Equal(t, KindClient, ClassifyStatus(404))
	assert.Equal(t, KindServer, ClassifyStatus(500))
	assert.Equal(t, KindServer, ClassifyStatus(503))
}

func TestNewStatusError_NestedMessage(t *testing.T) {
	body, _ := json.Marshal(map[string]any{"error": map[string]string{"message": "not your request"}})
	err := NewStatusError(&Result{StatusCode: 403, Body: body, ContentType: "application/json"}, "403 Forbidden")
	assert.Equal(t, "not your request", err.Message)
	assert.Equal(t, "Forbidden", err.StatusText)
	assert.Contains(t, err.Error(), "ClientError (403 Forbidden)")
}

func cookieRecorder(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Cookie"))
		mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "alice-rotated", Path: "/"})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	return server, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), seen...)
	}
}

func TestDo_WithoutCookieJarKeepsCallersApart(t *testing.T) {
	server, seen := cookieRecorder(t)
	client, _ := newTestClient(t, server.URL, nil, WithoutCookieJar())

	alice := WithCredentials(context.Background(), Credentials{Cookie: "sid=alice"})
	_, err := client.Get(alice, "/api/leave/my-leaves")
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "/api/blogs/public")
	require.NoError(t, err)

	assert.Equal(t, []string{"sid=alice", ""}, seen())
}

func TestDo_CookieJarKeepsBackendCookies(t *testing.T) {
	server, seen := cookieRecorder(t)
	client, _ := newTestClient(t, server.URL, nil)

	_, err := client.Get(context.Background(), "/api/auth/login")
	require.NoError(t, err)
	_, err = client.Get(context.Background(), "/api/leave/my-leaves")
	require.NoError(t, err)

	assert.Equal(t, []string{"", "sid=alice-rotated"}, seen())
}

func TestWithoutCookieJar_LeavesSuppliedClientAlone(t *testing.T) {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	hc := &http.Client{Jar: jar}

	New(DefaultConfig("http://backend.local"), zap.NewNop(), WithHTTPClient(hc), WithoutCookieJar())

	assert.NotNil(t, hc.Jar)
}

func TestWithTimeout_AttemptContext(t *testing.T) {
	got, err := withTimeout(context.Background(), 0, func(ctx context.Context) (int, error) {
		_, hasDeadline := ctx.Deadline()
		assert.False(t, hasDeadline)
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)

	_, err = withTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) (int, error) {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.Equal(t, KindTimeout, KindOf(err))
}
