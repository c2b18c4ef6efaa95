package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/sports-viewing/internal/domain/market"
	"github.com/riskibarqy/sports-viewing/internal/domain/rights"
	"github.com/riskibarqy/sports-viewing/internal/metrics"
	"github.com/riskibarqy/sports-viewing/internal/platform/logging"
)

const (
	defaultBatchWorkers  = 4
	defaultBatchMaxGames = 25
)

// LocationResolver places a ZIP code in a market.
type LocationResolver interface {
	ResolveLocation(ctx context.Context, zipCode string) (market.LocationResolution, error)
}

type RightsServiceConfig struct {
	BatchWorkers  int
	BatchMaxGames int
}

// RightsService resolves streaming rights for a game and a viewer ZIP by
// delegating to the league's rights source. Calls share no mutable state.
type RightsService struct {
	sources   rights.Sources
	locations LocationResolver
	logger    *logging.Logger
	cfg       RightsServiceConfig
}

type RightsBatchItem struct {
	GameID     string
	Resolution rights.Resolution
	Err        error
}

type RightsBatchResult struct {
	Items        []RightsBatchItem
	SuccessCount int
	FailedCount  int
}

func NewRightsService(sources rights.Sources, locations LocationResolver, cfg RightsServiceConfig, logger *logging.Logger) *RightsService {
	if cfg.BatchWorkers <= 0 {
		cfg.BatchWorkers = defaultBatchWorkers
	}
	if cfg.BatchMaxGames <= 0 {
		cfg.BatchMaxGames = defaultBatchMaxGames
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &RightsService{
		sources:   sources,
		locations: locations,
		logger:    logger.Named("rights_service"),
		cfg:       cfg,
	}
}

// ResolveRights returns every offer the league source reports for the game,
// in source order and unfiltered. A ZIP outside the dataset resolves with an
// empty DMA. Any source failure, including an unknown game, is ErrUpstream.
func (s *RightsService) ResolveRights(ctx context.Context, gameID, zipCode string) (rights.Resolution, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RightsService.ResolveRights")
	defer span.End()

	gameID = strings.TrimSpace(gameID)
	zipCode = strings.TrimSpace(zipCode)
	if gameID == "" {
		return rights.Resolution{}, fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}

	league, err := market.ParseGameID(gameID)
	if err != nil {
		metrics.RightsResolutions.WithLabelValues("unknown", metrics.ResultInvalid).Inc()
		if errors.Is(err, market.ErrMalformedGameID) {
			return rights.Resolution{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return rights.Resolution{}, fmt.Errorf("%w: game_id=%s", ErrInvalidLeague, gameID)
	}
	if zipCode == "" {
		metrics.RightsResolutions.WithLabelValues(league.String(), metrics.ResultInvalid).Inc()
		return rights.Resolution{}, fmt.Errorf("%w: zip code is required", ErrInvalidInput)
	}

	dma, err := s.viewerDMA(ctx, zipCode)
	if err != nil {
		metrics.RightsResolutions.WithLabelValues(league.String(), metrics.ResultError).Inc()
		return rights.Resolution{}, err
	}

	source, err := s.sources.For(league)
	if err != nil {
		metrics.RightsResolutions.WithLabelValues(league.String(), metrics.ResultError).Inc()
		return rights.Resolution{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	start := time.Now()
	feed, err := source.FetchRights(ctx, gameID, dma)
	if err != nil {
		metrics.UpstreamDuration.WithLabelValues(league.String(), metrics.ResultUpstreamFail).Observe(time.Since(start).Seconds())
		metrics.RightsResolutions.WithLabelValues(league.String(), metrics.ResultUpstreamFail).Inc()
		s.logger.WarnContext(ctx, "league rights source failed",
			"league", league.String(),
			"game_id", gameID,
			"dma", dma,
			"error", err,
		)
		return rights.Resolution{}, fmt.Errorf("%w: %w", ErrUpstream, crerr.Wrapf(err, "fetch %s rights game_id=%s", league, gameID))
	}
	metrics.UpstreamDuration.WithLabelValues(league.String(), metrics.ResultSuccess).Observe(time.Since(start).Seconds())

	streams := make([]rights.StreamOffer, len(feed.Streams))
	copy(streams, feed.Streams)

	metrics.RightsResolutions.WithLabelValues(league.String(), metrics.ResultSuccess).Inc()
	metrics.RightsOffers.WithLabelValues(league.String()).Observe(float64(len(streams)))

	return rights.Resolution{
		GameID:       gameID,
		ZipCode:      zipCode,
		League:       league,
		DMA:          dma,
		Streams:      streams,
		BlackoutInfo: feed.BlackoutInfo,
	}, nil
}

func (s *RightsService) viewerDMA(ctx context.Context, zipCode string) (string, error) {
	if s.locations == nil {
		return "", nil
	}

	loc, err := s.locations.ResolveLocation(ctx, zipCode)
	switch {
	case err == nil:
		return loc.DMA, nil
	case errors.Is(err, ErrNotFound):
		s.logger.DebugContext(ctx, "zip outside market dataset, resolving rights without dma", "zip_code", zipCode)
		return "", nil
	default:
		return "", fmt.Errorf("resolve viewer location: %w", err)
	}
}

// ResolveRightsBatch resolves several games for one viewer on a bounded worker
// pool. Items keep request order and each carries its own outcome.
func (s *RightsService) ResolveRightsBatch(ctx context.Context, gameIDs []string, zipCode string) (RightsBatchResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RightsService.ResolveRightsBatch")
	defer span.End()

	if len(gameIDs) == 0 {
		return RightsBatchResult{}, fmt.Errorf("%w: game ids are required", ErrInvalidInput)
	}
	if len(gameIDs) > s.cfg.BatchMaxGames {
		return RightsBatchResult{}, fmt.Errorf("%w: at most %d game ids per request, got %d", ErrInvalidInput, s.cfg.BatchMaxGames, len(gameIDs))
	}

	workerCount := s.cfg.BatchWorkers
	if workerCount > len(gameIDs) {
		workerCount = len(gameIDs)
	}

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return RightsBatchResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	items := make([]RightsBatchItem, len(gameIDs))
	var failedCount atomic.Int32

	var workers sync.WaitGroup
	for i, gameID := range gameIDs {
		items[i].GameID = gameID
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			res, err := s.ResolveRights(ctx, gameID, zipCode)
			if err != nil {
				failedCount.Add(1)
				items[i].Err = err
				return
			}
			items[i].Resolution = res
		}); err != nil {
			workers.Done()
			workers.Wait()
			return RightsBatchResult{}, fmt.Errorf("submit rights task to worker pool: %w", err)
		}
	}
	workers.Wait()

	failed := int(failedCount.Load())
	return RightsBatchResult{
		Items:        items,
		SuccessCount: len(items) - failed,
		FailedCount:  failed,
	}, nil
}
