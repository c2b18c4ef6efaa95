package dataset

import (
	"context"

	"github.com/riskibarqy/sports-viewing/internal/domain/market"
)

// MemorySource serves a fixed set of rows. Each LoadRecords call returns a
// fresh copy.
type MemorySource struct {
	records []market.GeoRecord
}

func NewMemorySource(records []market.GeoRecord) *MemorySource {
	return &MemorySource{records: cloneRecords(records)}
}

// NewSeedSource returns the development markets.
func NewSeedSource() *MemorySource {
	return NewMemorySource(SeedRecords())
}

func (s *MemorySource) LoadRecords(ctx context.Context) ([]market.GeoRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return cloneRecords(s.records), nil
}

func SeedRecords() []market.GeoRecord {
	return []market.GeoRecord{
		{
			ZipCode: "10001",
			DMA:     "New York",
			Teams: map[market.League]market.TeamRef{
				market.MLB: {ID: "NYY", Name: "New York Yankees"},
				market.NBA: {ID: "NYK", Name: "New York Knicks"},
				market.NHL: {ID: "NYR", Name: "New York Rangers"},
			},
		},
		{
			ZipCode: "90210",
			DMA:     "Los Angeles",
			Teams: map[market.League]market.TeamRef{
				market.MLB: {ID: "LAD", Name: "Los Angeles Dodgers"},
				market.NBA: {ID: "LAL", Name: "Los Angeles Lakers"},
				market.NHL: {ID: "LAK", Name: "Los Angeles Kings"},
			},
		},
		{
			ZipCode: "02108",
			DMA:     "Boston",
			Teams: map[market.League]market.TeamRef{
				market.MLB: {ID: "BOS", Name: "Boston Red Sox"},
				market.NBA: {ID: "BOS", Name: "Boston Celtics"},
				market.NHL: {ID: "BOS", Name: "Boston Bruins"},
			},
		},
		{
			ZipCode: "60601",
			DMA:     "Chicago",
			Teams: map[market.League]market.TeamRef{
				market.MLB: {ID: "CHC", Name: "Chicago Cubs"},
				market.NBA: {ID: "CHI", Name: "Chicago Bulls"},
				market.NHL: {ID: "CHI", Name: "Chicago Blackhawks"},
			},
		},
		{
			ZipCode: "59101",
			DMA:     "Billings",
		},
	}
}

func cloneRecords(in []market.GeoRecord) []market.GeoRecord {
	out := make([]market.GeoRecord, len(in))
	for i, rec := range in {
		out[i] = market.GeoRecord{ZipCode: rec.ZipCode, DMA: rec.DMA}
		if len(rec.Teams) == 0 {
			continue
		}
		out[i].Teams = make(map[market.League]market.TeamRef, len(rec.Teams))
		for l, ref := range rec.Teams {
			out[i].Teams[l] = ref
		}
	}
	return out
}
