package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/betania/sportsync/internal/cache"
	"github.com/betania/sportsync/internal/monitor"
	"github.com/betania/sportsync/internal/platform/logging"
	"github.com/betania/sportsync/internal/store"
	"github.com/betania/sportsync/internal/usecase"
	sonic "github.com/bytedance/sonic"
)

type failingProvider struct{}

func (failingProvider) Fetch(context.Context, string, map[string]string, cache.Priority) (usecase.FetchResult, error) {
	return usecase.FetchResult{}, usecase.ErrDependencyUnavailable
}

func newTestRouter(t *testing.T) (http.Handler, *store.FilterStore, *cache.SmartCache, *monitor.Monitor) {
	t.Helper()

	smartCache := cache.New(cache.Options{Logger: logging.NewNop()})
	filters := store.New(store.Options{})
	mon := monitor.New(monitor.Options{Logger: logging.NewNop()})
	syncService := usecase.NewSyncService(failingProvider{}, smartCache, filters, logging.NewNop(), usecase.SyncConfig{})

	handler := NewHandler(syncService, filters, mon, smartCache, logging.NewNop())
	return NewRouter(handler, logging.NewNop(), false, []string{"*"}), filters, smartCache, mon
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	return body
}

func TestHealthz(t *testing.T) {
	router, _, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if data["status"] != "healthy" {
		t.Fatalf("unexpected health status: %v", data["status"])
	}
}

func TestGetSnapshot_NotSyncedYet(t *testing.T) {
	router, _, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/snapshot", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before first sync, got %d", rec.Code)
	}
}

func TestSetActiveFilter_SetAndClear(t *testing.T) {
	router, filters, _, _ := newTestRouter(t)

	put := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/v1/filters/active", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	if rec := put(`{"filter":"live"}`); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if filters.State().ActiveFilter != store.FilterLive {
		t.Fatalf("expected live filter to be active")
	}

	// Re-sending the same filter keeps it active.
	if rec := put(`{"filter":"live"}`); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if filters.State().ActiveFilter != store.FilterLive {
		t.Fatalf("expected filter to stay active on re-set")
	}

	// An empty filter clears the selection.
	if rec := put(`{"filter":""}`); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if filters.State().ActiveFilter != store.FilterNone {
		t.Fatalf("expected empty filter to clear the selection")
	}
}

func TestSetActiveFilter_RejectsUnknownValue(t *testing.T) {
	router, _, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPut, "/v1/filters/active", strings.NewReader(`{"filter":"finished"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown filter, got %d", rec.Code)
	}
}

func TestSetSelectedLeague_Validation(t *testing.T) {
	router, filters, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPut, "/v1/filters/league", strings.NewReader(`{"league_id":0}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero league id, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPut, "/v1/filters/league", strings.NewReader(`{"league_id":72}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if filters.State().SelectedLeagueID != 72 {
		t.Fatalf("unexpected selected league: %d", filters.State().SelectedLeagueID)
	}
}

func TestToggleFavoriteTeam(t *testing.T) {
	router, filters, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/filters/favorites/toggle", strings.NewReader(`{"team_id":999}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !filters.IsFavorite(999) {
		t.Fatalf("expected team 999 to become a favorite")
	}

	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if data["favorite"] != true {
		t.Fatalf("expected favorite=true in response, got %v", data["favorite"])
	}
}

func TestInvalidateCache(t *testing.T) {
	router, _, smartCache, _ := newTestRouter(t)

	smartCache.Set(context.Background(), "fixtures_71_2024-08-31", []byte(`[]`), time.Minute, cache.PriorityHigh)
	smartCache.Set(context.Background(), "standings_71_2024", []byte(`[]`), time.Minute, cache.PriorityMedium)

	req := httptest.NewRequest(http.MethodPost, "/v1/cache/invalidate", strings.NewReader(`{"pattern":"^fixtures_"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if removed, _ := data["removed"].(float64); removed != 1 {
		t.Fatalf("expected 1 removed entry, got %v", data["removed"])
	}
}

func TestInvalidateCache_BadPattern(t *testing.T) {
	router, _, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/cache/invalidate", strings.NewReader(`{"pattern":"["}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid pattern, got %d", rec.Code)
	}
}

func TestResolveAlert_NotFound(t *testing.T) {
	router, _, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/monitor/alerts/unknown-1/resolve", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown alert, got %d", rec.Code)
	}
}

func TestGetMonitorSnapshot(t *testing.T) {
	router, _, _, mon := newTestRouter(t)

	mon.RecordRequest(120*time.Millisecond, true, false)

	req := httptest.NewRequest(http.MethodGet, "/v1/monitor", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if data["status"] != "healthy" {
		t.Fatalf("unexpected monitor status: %v", data["status"])
	}
}

type stubProbe struct{ err error }

func (p stubProbe) Ping(context.Context) (time.Duration, error) {
	return 12 * time.Millisecond, p.err
}

func TestRunHealthCheck(t *testing.T) {
	smartCache := cache.New(cache.Options{Logger: logging.NewNop()})
	filters := store.New(store.Options{})
	mon := monitor.New(monitor.Options{Logger: logging.NewNop(), Probe: stubProbe{}})
	syncService := usecase.NewSyncService(failingProvider{}, smartCache, filters, logging.NewNop(), usecase.SyncConfig{})
	handler := NewHandler(syncService, filters, mon, smartCache, logging.NewNop())
	router := NewRouter(handler, logging.NewNop(), false, []string{"*"})

	req := httptest.NewRequest(http.MethodPost, "/v1/monitor/health-check", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if data["healthy"] != true {
		t.Fatalf("expected healthy probe result, got %v", data)
	}
	if mon.Snapshot().Health.TotalRequests != 1 {
		t.Fatal("expected the probe outcome to feed the metrics")
	}
}
