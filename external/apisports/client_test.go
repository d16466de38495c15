package apisports

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/betania/sportsync/internal/platform/resilience"
	crerr "github.com/cockroachdb/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, retries int) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		BaseURL:        server.URL,
		ProxyPath:      "/api-sports",
		APIKey:         "anon-key-123",
		MaxRetries:     retries,
		Timeout:        2 * time.Second,
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})
	return client, server
}

func TestCallDecodesEnvelope(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("endpoint"); got != "fixtures" {
			t.Errorf("expected endpoint=fixtures, got %q", got)
		}
		if got := r.URL.Query().Get("league"); got != "71" {
			t.Errorf("expected league=71, got %q", got)
		}
		if got := r.Header.Get("authorization"); got != "Bearer anon-key-123" {
			t.Errorf("unexpected authorization header %q", got)
		}
		w.Header().Set("content-type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"data":[{"fixture":{"id":1}}],"meta":{"endpoint":"fixtures","results":1,"cached":true}}`))
	}, 0)

	env, err := client.Call(context.Background(), "fixtures", map[string]string{"league": "71"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !env.OK || env.Meta == nil || !env.Meta.Cached {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if len(env.Data) == 0 {
		t.Fatal("expected raw data payload")
	}
}

func TestCallRetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"data":[]}`))
	}, 1)

	if _, err := client.Call(context.Background(), "teams", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestRetryableStatuses(t *testing.T) {
	t.Parallel()

	for _, code := range []int{
		http.StatusRequestTimeout,
		http.StatusTooEarly,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
	} {
		if !isRetryableStatus(code) {
			t.Fatalf("expected %d to be retryable", code)
		}
	}
	for _, code := range []int{
		http.StatusBadRequest,
		http.StatusUnauthorized,
		http.StatusNotFound,
		http.StatusUnprocessableEntity,
	} {
		if isRetryableStatus(code) {
			t.Fatalf("expected %d to fail fast", code)
		}
	}
}

func TestCallFailsFastOnClientError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`bad endpoint`))
	}, 3)

	_, err := client.Call(context.Background(), "nope", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if crerr.Is(err, ErrTransient) {
		t.Fatal("4xx must not be marked transient")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestCallSurfacesUpstreamError(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"error":{"code":"provider_error","message":"quota exceeded"}}`))
	}, 0)

	_, err := client.Call(context.Background(), "odds", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !crerr.Is(err, ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if !strings.Contains(err.Error(), "provider_error") {
		t.Fatalf("expected error code in message, got %v", err)
	}
}

func TestCircuitBreakerRejectsAfterFailures(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		BaseURL: server.URL,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			ProbeRequests:    1,
		},
	})

	for i := 0; i < 2; i++ {
		if _, err := client.Call(context.Background(), "fixtures", nil); err == nil {
			t.Fatal("expected failure")
		}
	}

	_, err := client.Call(context.Background(), "fixtures", nil)
	if err == nil || !strings.Contains(err.Error(), "temporarily unavailable") {
		t.Fatalf("expected circuit rejection, got %v", err)
	}
}

func TestSanitizeSensitiveText(t *testing.T) {
	t.Parallel()

	in := `dial failed: Bearer secret-token apikey=secret-token url`
	out := sanitizeSensitiveText(in, "secret-token")
	if strings.Contains(out, "secret-token") {
		t.Fatalf("expected credential to be redacted, got %q", out)
	}
}

func TestPingProbesLeagues(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("endpoint"); got != "leagues" {
			t.Errorf("expected endpoint=leagues, got %q", got)
		}
		if got := r.URL.Query().Get("country"); got != "Brazil" {
			t.Errorf("expected country=Brazil, got %q", got)
		}
		_, _ = w.Write([]byte(`{"ok":true,"data":[]}`))
	}, 0)

	latency, err := client.Ping(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latency <= 0 {
		t.Fatalf("expected positive latency, got %s", latency)
	}
}
