package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerDataRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/snapshot", handler.GetSnapshot)
	mux.HandleFunc("GET /v1/fixtures", handler.ListFixtures)
	mux.HandleFunc("GET /v1/leagues", handler.ListLeagues)
	mux.HandleFunc("GET /v1/teams", handler.ListTeams)
	mux.HandleFunc("GET /v1/standings", handler.ListStandings)
	mux.HandleFunc("GET /v1/odds", handler.ListOdds)
	mux.HandleFunc("GET /v1/rankings/{stat}", handler.ListRanking)
	mux.HandleFunc("GET /v1/chat-context", handler.GetChatContext)
	mux.HandleFunc("POST /v1/refresh", handler.TriggerRefresh)
}

func registerWidgetRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/widgets/live-games", handler.ListLiveGames)
	mux.HandleFunc("GET /v1/widgets/hot-odds", handler.ListHotOdds)
	mux.HandleFunc("GET /v1/widgets/top-performers", handler.ListTopPerformers)
}

func registerFilterRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/filters", handler.GetFilterState)
	mux.HandleFunc("PUT /v1/filters/active", handler.SetActiveFilter)
	mux.HandleFunc("PUT /v1/filters/league", handler.SetSelectedLeague)
	mux.HandleFunc("PUT /v1/filters/team", handler.SetSelectedTeam)
	mux.HandleFunc("POST /v1/filters/favorites/toggle", handler.ToggleFavoriteTeam)
	mux.HandleFunc("POST /v1/filters/clear", handler.ClearFilters)
}

func registerOpsRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/monitor", handler.GetMonitorSnapshot)
	mux.HandleFunc("POST /v1/monitor/health-check", handler.RunHealthCheck)
	mux.HandleFunc("POST /v1/monitor/alerts/{alertID}/resolve", handler.ResolveAlert)
	mux.HandleFunc("POST /v1/monitor/reset", handler.ResetMonitor)
	mux.HandleFunc("GET /v1/cache/stats", handler.GetCacheStats)
	mux.HandleFunc("POST /v1/cache/invalidate", handler.InvalidateCache)
}
