package httpapi

import (
	"context"
	"time"

	"github.com/riskibarqy/sports-viewing/internal/domain/market"
	"github.com/riskibarqy/sports-viewing/internal/domain/rights"
	"github.com/riskibarqy/sports-viewing/internal/usecase"
)

type zipLookupRequest struct {
	ZipCode string `json:"zip_code" validate:"required,len=5,numeric"`
}

type rightsQuery struct {
	GameID  string `validate:"required,max=128"`
	ZipCode string `validate:"required,len=5,numeric"`
}

type rightsBatchRequest struct {
	ZipCode string   `json:"zip_code" validate:"required,len=5,numeric"`
	GameIDs []string `json:"game_ids" validate:"required,min=1,dive,required,max=128"`
}

type teamDTO struct {
	TeamID string `json:"team_id"`
	Name   string `json:"name"`
	League string `json:"league"`
	DMA    string `json:"dma"`
}

type locationDTO struct {
	ZipCode string    `json:"zip_code"`
	DMA     string    `json:"dma"`
	Teams   []teamDTO `json:"teams"`
}

type zipValidationDTO struct {
	ZipCode string `json:"zip_code"`
	Valid   bool   `json:"valid"`
}

type teamMarketsDTO struct {
	TeamID string   `json:"team_id"`
	Name   string   `json:"name"`
	League string   `json:"league"`
	DMAs   []string `json:"dmas"`
}

type streamOfferDTO struct {
	GameID       string `json:"game_id"`
	Provider     string `json:"provider"`
	URL          string `json:"url"`
	Blackout     bool   `json:"blackout"`
	RequiresAuth bool   `json:"requires_auth"`
	Notes        string `json:"notes"`
}

type streamingRightsDTO struct {
	GameID           string           `json:"game_id"`
	ZipCode          string           `json:"zip_code"`
	League           string           `json:"league"`
	DMA              string           `json:"dma"`
	Available        bool             `json:"available"`
	AvailableStreams []streamOfferDTO `json:"available_streams"`
	BlackoutInfo     string           `json:"blackout_info"`
}

type streamingRightsBatchItemDTO struct {
	GameID string              `json:"game_id"`
	Rights *streamingRightsDTO `json:"rights,omitempty"`
	Error  *googleErrorBody    `json:"error,omitempty"`
}

type streamingRightsBatchDTO struct {
	ZipCode      string                        `json:"zip_code"`
	Items        []streamingRightsBatchItemDTO `json:"items"`
	SuccessCount int                           `json:"success_count"`
	FailedCount  int                           `json:"failed_count"`
}

type datasetStatsDTO struct {
	Rows    int       `json:"rows"`
	Zips    int       `json:"zips"`
	Teams   int       `json:"teams"`
	BuiltAt time.Time `json:"built_at"`
}

type healthDTO struct {
	Status  string           `json:"status"`
	Dataset *datasetStatsDTO `json:"dataset,omitempty"`
}

func teamToDTO(team market.Team) teamDTO {
	return teamDTO{
		TeamID: team.ID,
		Name:   team.Name,
		League: team.League.String(),
		DMA:    team.HomeDMA,
	}
}

func teamsToDTO(teams []market.Team) []teamDTO {
	out := make([]teamDTO, 0, len(teams))
	for _, team := range teams {
		out = append(out, teamToDTO(team))
	}
	return out
}

func locationToDTO(loc market.LocationResolution) locationDTO {
	return locationDTO{
		ZipCode: loc.ZipCode,
		DMA:     loc.DMA,
		Teams:   teamsToDTO(loc.Teams),
	}
}

func teamMarketsToDTO(tm market.TeamMarkets) teamMarketsDTO {
	dmas := tm.DMAs
	if dmas == nil {
		dmas = []string{}
	}
	return teamMarketsDTO{
		TeamID: tm.Team.ID,
		Name:   tm.Team.Name,
		League: tm.Team.League.String(),
		DMAs:   dmas,
	}
}

// streamingRightsToDTO keeps every offer, blacked out or not, in source order.
func streamingRightsToDTO(res rights.Resolution) *streamingRightsDTO {
	streams := make([]streamOfferDTO, 0, len(res.Streams))
	for _, offer := range res.Streams {
		streams = append(streams, streamOfferDTO{
			GameID:       offer.GameID,
			Provider:     offer.Provider,
			URL:          offer.URL,
			Blackout:     offer.Blackout,
			RequiresAuth: offer.RequiresAuth,
			Notes:        offer.Notes,
		})
	}

	return &streamingRightsDTO{
		GameID:           res.GameID,
		ZipCode:          res.ZipCode,
		League:           res.League.String(),
		DMA:              res.DMA,
		Available:        res.Available(),
		AvailableStreams: streams,
		BlackoutInfo:     res.BlackoutInfo,
	}
}

func datasetStatsToDTO(stats market.Stats) *datasetStatsDTO {
	return &datasetStatsDTO{
		Rows:    stats.Rows,
		Zips:    stats.Zips,
		Teams:   stats.Teams,
		BuiltAt: stats.BuiltAt.UTC(),
	}
}

func batchItemErrorToDTO(ctx context.Context, err error) *googleErrorBody {
	mapped := mapError(ctx, err)
	return &googleErrorBody{
		Code:    mapped.HTTPStatus,
		Message: mapped.Message,
		Status:  mapped.Status,
	}
}

func rightsBatchToDTO(ctx context.Context, zipCode string, result usecase.RightsBatchResult) streamingRightsBatchDTO {
	items := make([]streamingRightsBatchItemDTO, 0, len(result.Items))
	for _, item := range result.Items {
		out := streamingRightsBatchItemDTO{GameID: item.GameID}
		if item.Err != nil {
			out.Error = batchItemErrorToDTO(ctx, item.Err)
		} else {
			out.Rights = streamingRightsToDTO(item.Resolution)
		}
		items = append(items, out)
	}

	return streamingRightsBatchDTO{
		ZipCode:      zipCode,
		Items:        items,
		SuccessCount: result.SuccessCount,
		FailedCount:  result.FailedCount,
	}
}
