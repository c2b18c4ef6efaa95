package rights

import (
	"context"
	"errors"
	"fmt"

	"github.com/riskibarqy/sports-viewing/internal/domain/market"
)

// ErrUnknownGame is returned by a Source that has no record of the game.
var ErrUnknownGame = errors.New("unknown game")

// Source is a league-specific rights provider. dma may be empty when the
// viewer's market is unknown.
type Source interface {
	FetchRights(ctx context.Context, gameID, dma string) (Feed, error)
}

// Sources binds each supported league to its rights provider.
type Sources struct {
	MLB Source
	NBA Source
	NHL Source
}

func (s Sources) For(league market.League) (Source, error) {
	var src Source
	switch league {
	case market.MLB:
		src = s.MLB
	case market.NBA:
		src = s.NBA
	case market.NHL:
		src = s.NHL
	default:
		return nil, fmt.Errorf("no rights source for league %s", league)
	}
	if src == nil {
		return nil, fmt.Errorf("rights source for league %s is not configured", league)
	}
	return src, nil
}
