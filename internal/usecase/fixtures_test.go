package usecase

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/sports-viewing/internal/domain/market"
	marketmock "github.com/riskibarqy/sports-viewing/internal/mocks/domain/market"
	"github.com/riskibarqy/sports-viewing/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

var fixedNow = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

func sampleRecords() []market.GeoRecord {
	return []market.GeoRecord{
		{
			ZipCode: "10001",
			DMA:     "New York",
			Teams: map[market.League]market.TeamRef{
				market.MLB: {ID: "NYY", Name: "Yankees"},
				market.NBA: {ID: "NYK", Name: "Knicks"},
				market.NHL: {ID: "NYR", Name: "Rangers"},
			},
		},
		{
			ZipCode: "02108",
			DMA:     "Boston",
			Teams: map[market.League]market.TeamRef{
				market.MLB: {ID: "BOS", Name: "Red Sox"},
				market.NBA: {ID: "BOS", Name: "Celtics"},
				market.NHL: {ID: "BOS", Name: "Bruins"},
			},
		},
		{
			ZipCode: "10002",
			DMA:     "New York",
			Teams: map[market.League]market.TeamRef{
				market.MLB: {ID: "NYY", Name: "Yankees"},
			},
		},
		{ZipCode: "59001", DMA: "Billings"},
	}
}

// newLoadedDirectory builds a directory whose first Reload returns records.
func newLoadedDirectory(t *testing.T, records []market.GeoRecord) *MarketDirectory {
	t.Helper()

	source := marketmock.NewDatasetSource(t)
	source.On("LoadRecords", mock.Anything).Return(records, nil).Once()

	directory := NewMarketDirectory(source, clockwork.NewFakeClockAt(fixedNow), logging.NewNop())
	if _, err := directory.Reload(context.Background()); err != nil {
		t.Fatalf("initial reload: %v", err)
	}
	return directory
}

// countingLocations records calls so tests can assert no lookup happened.
type countingLocations struct {
	calls atomic.Int32
	next  LocationResolver
}

func (c *countingLocations) ResolveLocation(ctx context.Context, zipCode string) (market.LocationResolution, error) {
	c.calls.Add(1)
	return c.next.ResolveLocation(ctx, zipCode)
}
