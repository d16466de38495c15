package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/betania/sportsync/internal/usecase"
)

type invalidateCacheRequest struct {
	Pattern string `json:"pattern" validate:"required"`
}

func (h *Handler) GetMonitorSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMonitorSnapshot")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.monitor.Snapshot())
}

func (h *Handler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResolveAlert")
	defer span.End()

	alertID := strings.TrimSpace(r.PathValue("alertID"))
	if alertID == "" {
		writeError(ctx, w, fmt.Errorf("%w: alert id is required", usecase.ErrInvalidInput))
		return
	}

	if !h.monitor.ResolveAlert(alertID) {
		writeError(ctx, w, fmt.Errorf("%w: alert %q", usecase.ErrNotFound, alertID))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "resolved"})
}

// RunHealthCheck triggers one connectivity probe against the upstream
// and reports whether it answered.
func (h *Handler) RunHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunHealthCheck")
	defer span.End()

	healthy := h.monitor.PerformHealthCheck(ctx)
	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"healthy": healthy,
		"status":  string(h.monitor.Status()),
	})
}

func (h *Handler) ResetMonitor(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResetMonitor")
	defer span.End()

	h.monitor.Reset()
	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCacheStats")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.cache.Stats())
}

func (h *Handler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.InvalidateCache")
	defer span.End()

	var req invalidateCacheRequest
	if err := h.decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	removed, err := h.cache.InvalidatePattern(ctx, req.Pattern)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid pattern: %v", usecase.ErrInvalidInput, err))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]int{"removed": removed})
}
