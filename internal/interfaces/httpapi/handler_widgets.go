package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/betania/sportsync/internal/domain/performer"
	"github.com/betania/sportsync/internal/usecase"
)

func (h *Handler) ListLiveGames(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLiveGames")
	defer span.End()

	snap, err := h.currentSnapshot(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, usecase.LiveGames(snap.Fixtures))
}

func (h *Handler) ListHotOdds(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListHotOdds")
	defer span.End()

	snap, err := h.currentSnapshot(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, usecase.HotOdds(snap.Odds, snap.Fixtures))
}

func (h *Handler) ListTopPerformers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTopPerformers")
	defer span.End()

	snap, err := h.currentSnapshot(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	stat := strings.TrimSpace(r.URL.Query().Get("stat"))
	if stat == "" {
		stat = string(performer.StatGoals)
	}

	var performers []performer.Performer
	switch performer.StatKind(stat) {
	case performer.StatGoals:
		performers = snap.TopScorers
	case performer.StatYellowCards:
		performers = snap.TopYellowCards
	case performer.StatRedCards:
		performers = snap.TopRedCards
	default:
		writeError(ctx, w, fmt.Errorf("%w: unknown performer stat %q", usecase.ErrInvalidInput, stat))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, usecase.TopPerformers(performers))
}
