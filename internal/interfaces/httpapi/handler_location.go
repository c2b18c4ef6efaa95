package httpapi

import (
	"net/http"
	"strings"
)

func (h *Handler) LookupZip(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LookupZip")
	defer span.End()

	var req zipLookupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	h.writeLocation(w, r.WithContext(ctx), strings.TrimSpace(req.ZipCode))
}

func (h *Handler) GetZip(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetZip")
	defer span.End()

	h.writeLocation(w, r.WithContext(ctx), strings.TrimSpace(r.PathValue("zipCode")))
}

func (h *Handler) writeLocation(w http.ResponseWriter, r *http.Request, zipCode string) {
	ctx := r.Context()
	if err := h.validateRequest(ctx, zipLookupRequest{ZipCode: zipCode}); err != nil {
		writeError(ctx, w, err)
		return
	}

	loc, err := h.resolution.ResolveLocation(ctx, zipCode)
	if err != nil {
		h.logger.WarnContext(ctx, "zip lookup failed", "zip_code", zipCode, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, locationToDTO(loc))
}

func (h *Handler) ValidateZip(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ValidateZip")
	defer span.End()

	var req zipLookupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	zipCode := strings.TrimSpace(req.ZipCode)

	// A malformed ZIP is reported as invalid rather than rejected.
	if err := h.validateRequest(ctx, zipLookupRequest{ZipCode: zipCode}); err != nil {
		writeSuccess(ctx, w, http.StatusOK, zipValidationDTO{ZipCode: zipCode, Valid: false})
		return
	}

	valid, err := h.resolution.ValidateZip(ctx, zipCode)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, zipValidationDTO{ZipCode: zipCode, Valid: valid})
}
