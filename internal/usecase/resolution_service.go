package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/riskibarqy/sports-viewing/internal/domain/market"
	"github.com/riskibarqy/sports-viewing/internal/domain/rights"
	"github.com/riskibarqy/sports-viewing/internal/platform/logging"
)

// Outcome is the externally visible class of a failed resolution.
type Outcome uint8

const (
	OutcomeInternal Outcome = iota
	OutcomeNotFound
	OutcomeBadRequest
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotFound:
		return "not_found"
	case OutcomeBadRequest:
		return "bad_request"
	default:
		return "internal"
	}
}

const internalFailureMessage = "internal server error"

// Failure is the only error type ResolutionService returns. Message is safe to
// show to callers; the cause is kept for logs only.
type Failure struct {
	Outcome Outcome
	Message string
	cause   error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.cause
}

func (f *Failure) Cause() error {
	return f.cause
}

type ResolutionService struct {
	directory *MarketDirectory
	rights    *RightsService
	logger    *logging.Logger
}

type ReloadResult struct {
	Stats market.Stats
}

type HealthStatus struct {
	Ready bool
	Stats market.Stats
}

func NewResolutionService(directory *MarketDirectory, rightsService *RightsService, logger *logging.Logger) *ResolutionService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ResolutionService{
		directory: directory,
		rights:    rightsService,
		logger:    logger.Named("resolution"),
	}
}

func (s *ResolutionService) ResolveLocation(ctx context.Context, zipCode string) (market.LocationResolution, error) {
	loc, err := s.directory.ResolveLocation(ctx, zipCode)
	if err != nil {
		return market.LocationResolution{}, s.fail(ctx, err, fmt.Sprintf("ZIP code %s not found", strings.TrimSpace(zipCode)))
	}
	return loc, nil
}

func (s *ResolutionService) ResolveTeam(ctx context.Context, teamID string) (market.Team, error) {
	team, err := s.directory.ResolveTeam(ctx, teamID)
	if err != nil {
		return market.Team{}, s.fail(ctx, err, fmt.Sprintf("team %s not found", strings.TrimSpace(teamID)))
	}
	return team, nil
}

// ListTeams takes the league as a code ("MLB", "NBA", "NHL"); empty lists all
// leagues. An unsupported code is a bad request.
func (s *ResolutionService) ListTeams(ctx context.Context, leagueCode string) ([]market.Team, error) {
	filter := market.AnyLeague
	if code := strings.TrimSpace(leagueCode); code != "" {
		league, ok := market.ParseLeague(code)
		if !ok {
			return nil, &Failure{
				Outcome: OutcomeBadRequest,
				Message: fmt.Sprintf("league %s is not supported", code),
				cause:   fmt.Errorf("%w: league=%s", ErrInvalidLeague, code),
			}
		}
		filter = league
	}

	teams, err := s.directory.ListTeams(ctx, filter)
	if err != nil {
		return nil, s.fail(ctx, err, "")
	}
	return teams, nil
}

func (s *ResolutionService) TeamMarkets(ctx context.Context, teamID string) (market.TeamMarkets, error) {
	out, err := s.directory.TeamMarkets(ctx, teamID)
	if err != nil {
		return market.TeamMarkets{}, s.fail(ctx, err, fmt.Sprintf("team %s not found", strings.TrimSpace(teamID)))
	}
	return out, nil
}

// ValidateZip reports whether the ZIP is in the dataset; absence is not an error.
func (s *ResolutionService) ValidateZip(ctx context.Context, zipCode string) (bool, error) {
	ok, err := s.directory.HasZip(ctx, zipCode)
	if err != nil {
		return false, s.fail(ctx, err, "")
	}
	return ok, nil
}

func (s *ResolutionService) ResolveRights(ctx context.Context, gameID, zipCode string) (rights.Resolution, error) {
	res, err := s.rights.ResolveRights(ctx, gameID, zipCode)
	if err != nil {
		return rights.Resolution{}, s.failRights(ctx, err, gameID)
	}
	return res, nil
}

func (s *ResolutionService) failRights(ctx context.Context, err error, gameID string) error {
	gameID = strings.TrimSpace(gameID)
	if errors.Is(err, ErrInvalidLeague) {
		return &Failure{
			Outcome: OutcomeBadRequest,
			Message: fmt.Sprintf("invalid league in game id %s", gameID),
			cause:   err,
		}
	}
	return s.fail(ctx, err, "")
}

// ResolveRightsBatch maps each item's error to a Failure. Only request-level
// problems (empty or oversized batch) fail the call itself.
func (s *ResolutionService) ResolveRightsBatch(ctx context.Context, gameIDs []string, zipCode string) (RightsBatchResult, error) {
	result, err := s.rights.ResolveRightsBatch(ctx, gameIDs, zipCode)
	if err != nil {
		return RightsBatchResult{}, s.fail(ctx, err, "")
	}

	for i := range result.Items {
		item := &result.Items[i]
		if item.Err != nil {
			item.Err = s.failRights(ctx, item.Err, item.GameID)
		}
	}
	return result, nil
}

func (s *ResolutionService) ReloadDataset(ctx context.Context) (ReloadResult, error) {
	stats, err := s.directory.Reload(ctx)
	if err != nil {
		return ReloadResult{}, s.fail(ctx, err, "")
	}
	return ReloadResult{Stats: stats}, nil
}

func (s *ResolutionService) Health(_ context.Context) HealthStatus {
	stats, ok := s.directory.Stats()
	return HealthStatus{Ready: ok, Stats: stats}
}

// fail converts a use case error into a Failure. notFoundMessage names the
// identifier the caller asked for.
func (s *ResolutionService) fail(ctx context.Context, err error, notFoundMessage string) error {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure
	}

	switch {
	case errors.Is(err, ErrNotFound):
		if notFoundMessage == "" {
			notFoundMessage = "resource not found"
		}
		return &Failure{Outcome: OutcomeNotFound, Message: notFoundMessage, cause: err}
	case errors.Is(err, ErrInvalidLeague), errors.Is(err, ErrInvalidInput):
		return &Failure{Outcome: OutcomeBadRequest, Message: err.Error(), cause: err}
	default:
		s.logger.ErrorContext(ctx, "resolution failed", "error", err)
		return &Failure{Outcome: OutcomeInternal, Message: internalFailureMessage, cause: err}
	}
}
