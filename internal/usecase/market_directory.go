package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/sports-viewing/internal/domain/market"
	"github.com/riskibarqy/sports-viewing/internal/metrics"
	"github.com/riskibarqy/sports-viewing/internal/platform/logging"
	"github.com/riskibarqy/sports-viewing/internal/platform/resilience"
)

const reloadFlightKey = "dataset"

// MarketDirectory serves location lookups from an immutable market.Index.
// Reload builds a new index and swaps it in; readers never see a partial one.
type MarketDirectory struct {
	source  market.DatasetSource
	clock   clockwork.Clock
	logger  *logging.Logger
	current atomic.Pointer[market.Index]
	reloads resilience.SingleFlight[market.Stats]
}

func NewMarketDirectory(source market.DatasetSource, clock clockwork.Clock, logger *logging.Logger) *MarketDirectory {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &MarketDirectory{
		source: source,
		clock:  clock,
		logger: logger.Named("market_directory"),
	}
}

// Reload rebuilds the index from the dataset source. On failure the previous
// snapshot keeps serving. Concurrent callers share one rebuild, which is not
// cancelled when the caller that started it goes away.
func (d *MarketDirectory) Reload(ctx context.Context) (market.Stats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MarketDirectory.Reload")
	defer span.End()

	stats, err, shared := d.reloads.Do(reloadFlightKey, func() (market.Stats, error) {
		return d.rebuild(context.WithoutCancel(ctx))
	})
	if err != nil {
		return market.Stats{}, err
	}
	if shared {
		d.logger.DebugContext(ctx, "dataset reload coalesced", "rows", stats.Rows)
	}
	return stats, nil
}

func (d *MarketDirectory) rebuild(ctx context.Context) (market.Stats, error) {
	if d.source == nil {
		metrics.DatasetReloads.WithLabelValues(metrics.ResultError).Inc()
		return market.Stats{}, fmt.Errorf("%w: dataset source is not configured", ErrDataIntegrity)
	}

	start := d.clock.Now()
	records, err := d.source.LoadRecords(ctx)
	if err != nil {
		metrics.DatasetReloads.WithLabelValues(metrics.ResultError).Inc()
		d.logger.ErrorContext(ctx, "load market dataset failed", "error", err)
		return market.Stats{}, fmt.Errorf("%w: load dataset: %w", ErrDataIntegrity, err)
	}

	idx, err := market.BuildIndex(records, d.clock.Now())
	if err != nil {
		metrics.DatasetReloads.WithLabelValues(metrics.ResultError).Inc()
		d.logger.ErrorContext(ctx, "build market index failed", "error", err, "rows", len(records))
		return market.Stats{}, fmt.Errorf("%w: build index: %w", ErrDataIntegrity, err)
	}

	d.current.Store(idx)

	stats := idx.Stats()
	metrics.DatasetReloads.WithLabelValues(metrics.ResultSuccess).Inc()
	metrics.DatasetRows.Set(float64(stats.Rows))
	metrics.DatasetZips.Set(float64(stats.Zips))
	metrics.DatasetBuiltAt.Set(float64(stats.BuiltAt.Unix()))
	d.logger.InfoContext(ctx, "market index swapped",
		"rows", stats.Rows,
		"zips", stats.Zips,
		"teams", stats.Teams,
		"duration_ms", d.clock.Since(start).Milliseconds(),
	)

	return stats, nil
}

// Run reloads the dataset every interval until ctx is done. Failed reloads are
// logged and the old snapshot stays active.
func (d *MarketDirectory) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := d.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if _, err := d.Reload(ctx); err != nil {
				d.logger.WarnContext(ctx, "scheduled dataset reload failed, keeping previous snapshot", "error", err)
			}
		}
	}
}

func (d *MarketDirectory) snapshot() (*market.Index, error) {
	idx := d.current.Load()
	if idx == nil {
		return nil, fmt.Errorf("%w: market index is not built", ErrDataIntegrity)
	}
	return idx, nil
}

func (d *MarketDirectory) ResolveLocation(ctx context.Context, zipCode string) (market.LocationResolution, error) {
	_, span := startUsecaseSpan(ctx, "usecase.MarketDirectory.ResolveLocation")
	defer span.End()

	zipCode = strings.TrimSpace(zipCode)
	if zipCode == "" {
		metrics.LocationLookups.WithLabelValues(metrics.ResultInvalid).Inc()
		return market.LocationResolution{}, fmt.Errorf("%w: zip code is required", ErrInvalidInput)
	}

	idx, err := d.snapshot()
	if err != nil {
		metrics.LocationLookups.WithLabelValues(metrics.ResultError).Inc()
		return market.LocationResolution{}, err
	}

	loc, ok := idx.Location(zipCode)
	if !ok {
		metrics.LocationLookups.WithLabelValues(metrics.ResultNotFound).Inc()
		return market.LocationResolution{}, fmt.Errorf("%w: zip_code=%s", ErrNotFound, zipCode)
	}

	metrics.LocationLookups.WithLabelValues(metrics.ResultSuccess).Inc()
	return loc, nil
}

// ResolveTeam finds a team by id. Ids repeat across leagues; MLB wins over
// NBA, and NBA over NHL.
func (d *MarketDirectory) ResolveTeam(ctx context.Context, teamID string) (market.Team, error) {
	_, span := startUsecaseSpan(ctx, "usecase.MarketDirectory.ResolveTeam")
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return market.Team{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	idx, err := d.snapshot()
	if err != nil {
		return market.Team{}, err
	}

	team, ok := idx.TeamByID(teamID)
	if !ok {
		return market.Team{}, fmt.Errorf("%w: team_id=%s", ErrNotFound, teamID)
	}
	return team, nil
}

// ListTeams returns distinct teams of one league, or of every league when
// filter is market.AnyLeague.
func (d *MarketDirectory) ListTeams(ctx context.Context, filter market.League) ([]market.Team, error) {
	_, span := startUsecaseSpan(ctx, "usecase.MarketDirectory.ListTeams")
	defer span.End()

	idx, err := d.snapshot()
	if err != nil {
		return nil, err
	}
	return idx.Teams(filter), nil
}

// TeamMarkets returns a team and the DMAs where it is local. Both come from
// the same snapshot.
func (d *MarketDirectory) TeamMarkets(ctx context.Context, teamID string) (market.TeamMarkets, error) {
	_, span := startUsecaseSpan(ctx, "usecase.MarketDirectory.TeamMarkets")
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return market.TeamMarkets{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	idx, err := d.snapshot()
	if err != nil {
		return market.TeamMarkets{}, err
	}

	team, ok := idx.TeamByID(teamID)
	if !ok {
		return market.TeamMarkets{}, fmt.Errorf("%w: team_id=%s", ErrNotFound, teamID)
	}
	return market.TeamMarkets{Team: team, DMAs: idx.MarketsForTeam(team)}, nil
}

func (d *MarketDirectory) HasZip(ctx context.Context, zipCode string) (bool, error) {
	idx, err := d.snapshot()
	if err != nil {
		return false, err
	}
	return idx.HasZip(strings.TrimSpace(zipCode)), nil
}

// Stats reports the active snapshot; ok is false before the first build.
func (d *MarketDirectory) Stats() (market.Stats, bool) {
	idx := d.current.Load()
	if idx == nil {
		return market.Stats{}, false
	}
	return idx.Stats(), true
}
