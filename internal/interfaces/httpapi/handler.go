package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/betania/sportsync/internal/cache"
	"github.com/betania/sportsync/internal/domain/performer"
	"github.com/betania/sportsync/internal/monitor"
	"github.com/betania/sportsync/internal/platform/logging"
	"github.com/betania/sportsync/internal/store"
	"github.com/betania/sportsync/internal/usecase"
	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	syncService *usecase.SyncService
	filters     *store.FilterStore
	monitor     *monitor.Monitor
	cache       *cache.SmartCache
	logger      *logging.Logger
	validator   *validator.Validate
}

func NewHandler(
	syncService *usecase.SyncService,
	filters *store.FilterStore,
	mon *monitor.Monitor,
	smartCache *cache.SmartCache,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		syncService: syncService,
		filters:     filters,
		monitor:     mon,
		cache:       smartCache,
		logger:      logger,
		validator:   validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()
	_ = ctx

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func (h *Handler) decodeRequest(r *http.Request, out any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) currentSnapshot(ctx context.Context) (usecase.Snapshot, error) {
	snap, ok := h.syncService.Snapshot()
	if !ok {
		if err := h.syncService.LastError(); err != nil {
			return usecase.Snapshot{}, fmt.Errorf("%w: no snapshot available: %v", usecase.ErrDependencyUnavailable, err)
		}
		return usecase.Snapshot{}, fmt.Errorf("%w: no snapshot synced yet", usecase.ErrNotFound)
	}
	_ = ctx
	return snap, nil
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{
		"status": string(h.monitor.Status()),
	})
}

func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSnapshot")
	defer span.End()

	snap, err := h.currentSnapshot(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, snap)
}

func (h *Handler) ListFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFixtures")
	defer span.End()

	if _, err := h.currentSnapshot(ctx); err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, h.filters.FilteredFixtures())
}

func (h *Handler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeagues")
	defer span.End()

	snap, err := h.currentSnapshot(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, snap.Leagues)
}

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	snap, err := h.currentSnapshot(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, snap.Teams)
}

func (h *Handler) ListStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListStandings")
	defer span.End()

	snap, err := h.currentSnapshot(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, snap.Standings)
}

func (h *Handler) ListOdds(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListOdds")
	defer span.End()

	snap, err := h.currentSnapshot(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, snap.Odds)
}

type rankingDTO struct {
	Stat         performer.StatKind    `json:"stat"`
	Season       int                   `json:"season"`
	UsedFallback bool                  `json:"usedFallback"`
	Performers   []performer.Performer `json:"performers"`
}

func (h *Handler) ListRanking(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListRanking")
	defer span.End()

	snap, err := h.currentSnapshot(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	stat := strings.TrimSpace(r.PathValue("stat"))
	var dto rankingDTO
	switch performer.StatKind(stat) {
	case performer.StatGoals:
		dto = rankingDTO{Stat: performer.StatGoals, Season: snap.ScorersMeta.Season, UsedFallback: snap.ScorersMeta.UsedFallback, Performers: snap.TopScorers}
	case performer.StatYellowCards:
		dto = rankingDTO{Stat: performer.StatYellowCards, Season: snap.YellowMeta.Season, UsedFallback: snap.YellowMeta.UsedFallback, Performers: snap.TopYellowCards}
	case performer.StatRedCards:
		dto = rankingDTO{Stat: performer.StatRedCards, Season: snap.RedMeta.Season, UsedFallback: snap.RedMeta.UsedFallback, Performers: snap.TopRedCards}
	default:
		writeError(ctx, w, fmt.Errorf("%w: unknown ranking stat %q", usecase.ErrInvalidInput, stat))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, dto)
}

func (h *Handler) GetChatContext(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetChatContext")
	defer span.End()

	snap, err := h.currentSnapshot(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, usecase.BuildChatContext(snap, h.filters.State()))
}

type refreshRequest struct {
	Force bool `json:"force"`
}

type refreshResponse struct {
	LeagueID int64  `json:"leagueId"`
	Season   int    `json:"season"`
	Fixtures int    `json:"fixtures"`
	NoData   bool   `json:"noData"`
	SyncedAt string `json:"syncedAt"`
}

func (h *Handler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TriggerRefresh")
	defer span.End()

	var req refreshRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := h.decodeRequest(r, &req); err != nil {
			writeError(ctx, w, err)
			return
		}
	}

	snap, err := h.syncService.Refresh(ctx, req.Force)
	if err != nil {
		h.logger.ErrorContext(ctx, "manual refresh failed", "force", req.Force, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, refreshResponse{
		LeagueID: snap.LeagueID,
		Season:   snap.Season,
		Fixtures: len(snap.Fixtures),
		NoData:   snap.NoData,
		SyncedAt: snap.SyncedAt.UTC().Format(time.RFC3339),
	})
}
