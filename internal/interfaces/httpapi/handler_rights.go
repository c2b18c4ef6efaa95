package httpapi

import (
	"net/http"
	"strings"
)

func (h *Handler) GetStreamingRights(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetStreamingRights")
	defer span.End()

	query := rightsQuery{
		GameID:  strings.TrimSpace(r.PathValue("gameID")),
		ZipCode: strings.TrimSpace(r.URL.Query().Get("zip_code")),
	}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	res, err := h.resolution.ResolveRights(ctx, query.GameID, query.ZipCode)
	if err != nil {
		h.logger.WarnContext(ctx, "resolve streaming rights failed", "game_id", query.GameID, "zip_code", query.ZipCode, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, streamingRightsToDTO(res))
}

// ResolveStreamingRightsBatch answers 200 even when some games fail; each
// item carries its own error.
func (h *Handler) ResolveStreamingRightsBatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResolveStreamingRightsBatch")
	defer span.End()

	var req rightsBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	req.ZipCode = strings.TrimSpace(req.ZipCode)
	for i := range req.GameIDs {
		req.GameIDs[i] = strings.TrimSpace(req.GameIDs[i])
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.resolution.ResolveRightsBatch(ctx, req.GameIDs, req.ZipCode)
	if err != nil {
		h.logger.WarnContext(ctx, "resolve streaming rights batch failed", "games", len(req.GameIDs), "zip_code", req.ZipCode, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rightsBatchToDTO(ctx, req.ZipCode, result))
}
