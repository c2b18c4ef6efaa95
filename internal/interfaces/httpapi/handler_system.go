package httpapi

import "net/http"

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	health := h.resolution.Health(ctx)
	if !health.Ready {
		writeSuccess(ctx, w, http.StatusServiceUnavailable, healthDTO{Status: "starting"})
		return
	}

	writeSuccess(ctx, w, http.StatusOK, healthDTO{
		Status:  "ok",
		Dataset: datasetStatsToDTO(health.Stats),
	})
}

func (h *Handler) ReloadDataset(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ReloadDataset")
	defer span.End()

	result, err := h.resolution.ReloadDataset(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "dataset reload failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "dataset reloaded", "rows", result.Stats.Rows, "zips", result.Stats.Zips)
	writeSuccess(ctx, w, http.StatusOK, datasetStatsToDTO(result.Stats))
}
