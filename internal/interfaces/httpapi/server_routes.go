package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, metricsHandler http.Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}
}

func registerLocationRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/zip-lookup", handler.LookupZip)
	mux.HandleFunc("POST /v1/zip-lookup/validate", handler.ValidateZip)
	mux.HandleFunc("GET /v1/zip-lookup/{zipCode}", handler.GetZip)
}

func registerTeamRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/teams", handler.ListTeams)
	mux.HandleFunc("GET /v1/teams/{teamID}", handler.GetTeam)
	mux.HandleFunc("GET /v1/teams/{teamID}/markets", handler.GetTeamMarkets)
}

func registerRightsRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/streaming-rights/{gameID}", handler.GetStreamingRights)
	mux.HandleFunc("POST /v1/streaming-rights/batch", handler.ResolveStreamingRightsBatch)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/dataset/reload", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ReloadDataset)))
}
