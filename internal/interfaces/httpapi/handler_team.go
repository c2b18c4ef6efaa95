package httpapi

import (
	"net/http"
	"strings"
)

// ListTeams accepts an optional ?league=MLB|NBA|NHL filter.
func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	league := strings.TrimSpace(r.URL.Query().Get("league"))
	teams, err := h.resolution.ListTeams(ctx, league)
	if err != nil {
		h.logger.WarnContext(ctx, "list teams failed", "league", league, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamsToDTO(teams))
}

func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeam")
	defer span.End()

	teamID := strings.TrimSpace(r.PathValue("teamID"))
	team, err := h.resolution.ResolveTeam(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "get team failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamToDTO(team))
}

func (h *Handler) GetTeamMarkets(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeamMarkets")
	defer span.End()

	teamID := strings.TrimSpace(r.PathValue("teamID"))
	markets, err := h.resolution.TeamMarkets(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "get team markets failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamMarketsToDTO(markets))
}
