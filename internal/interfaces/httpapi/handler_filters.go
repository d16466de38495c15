package httpapi

import (
	"net/http"

	"github.com/betania/sportsync/internal/store"
)

type setActiveFilterRequest struct {
	Filter string `json:"filter" validate:"omitempty,oneof=today live upcoming"`
}

type setSelectedLeagueRequest struct {
	LeagueID int64 `json:"league_id" validate:"required,gt=0"`
}

type setSelectedTeamRequest struct {
	TeamID int64 `json:"team_id" validate:"gte=0"`
}

type toggleFavoriteTeamRequest struct {
	TeamID int64 `json:"team_id" validate:"required,gt=0"`
}

func (h *Handler) GetFilterState(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetFilterState")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.filters.State())
}

func (h *Handler) SetActiveFilter(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetActiveFilter")
	defer span.End()

	var req setActiveFilterRequest
	if err := h.decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	h.filters.SetActiveFilter(store.Filter(req.Filter))
	writeSuccess(ctx, w, http.StatusOK, h.filters.State())
}

func (h *Handler) SetSelectedLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetSelectedLeague")
	defer span.End()

	var req setSelectedLeagueRequest
	if err := h.decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	h.filters.SetSelectedLeague(req.LeagueID)
	writeSuccess(ctx, w, http.StatusOK, h.filters.State())
}

func (h *Handler) SetSelectedTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetSelectedTeam")
	defer span.End()

	var req setSelectedTeamRequest
	if err := h.decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	h.filters.SetSelectedTeam(req.TeamID)
	writeSuccess(ctx, w, http.StatusOK, h.filters.State())
}

func (h *Handler) ToggleFavoriteTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ToggleFavoriteTeam")
	defer span.End()

	var req toggleFavoriteTeamRequest
	if err := h.decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	h.filters.ToggleFavoriteTeam(req.TeamID)
	writeSuccess(ctx, w, http.StatusOK, map[string]bool{
		"favorite": h.filters.IsFavorite(req.TeamID),
	})
}

func (h *Handler) ClearFilters(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ClearFilters")
	defer span.End()

	h.filters.ClearFilters()
	writeSuccess(ctx, w, http.StatusOK, h.filters.State())
}
