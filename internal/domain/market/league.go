package market

import (
	"errors"
	"fmt"
	"strings"
)

// League is one of the supported professional leagues. The zero value is
// AnyLeague and is only meaningful as a filter.
type League uint8

const (
	AnyLeague League = iota
	MLB
	NBA
	NHL
)

var (
	ErrUnsupportedLeague = errors.New("unsupported league")
	ErrMalformedGameID   = errors.New("malformed game id")
)

// gameIDSeparator splits "{LEAGUE}_{opaque-id}".
const gameIDSeparator = "_"

var leagues = [...]League{MLB, NBA, NHL}

// Leagues returns the supported leagues in priority order.
func Leagues() []League {
	out := make([]League, len(leagues))
	copy(out, leagues[:])
	return out
}

func (l League) String() string {
	switch l {
	case MLB:
		return "MLB"
	case NBA:
		return "NBA"
	case NHL:
		return "NHL"
	case AnyLeague:
		return ""
	default:
		return fmt.Sprintf("League(%d)", uint8(l))
	}
}

func (l League) Valid() bool {
	return l == MLB || l == NBA || l == NHL
}

// ParseLeague matches a league code case-sensitively.
func ParseLeague(code string) (League, bool) {
	for _, l := range leagues {
		if l.String() == code {
			return l, true
		}
	}
	return AnyLeague, false
}

// ParseGameID resolves the league of a "{LEAGUE}_{opaque-id}" game id.
func ParseGameID(gameID string) (League, error) {
	token, rest, found := strings.Cut(gameID, gameIDSeparator)
	if !found {
		return AnyLeague, fmt.Errorf("%w: game id %q has no league prefix", ErrUnsupportedLeague, gameID)
	}

	league, ok := ParseLeague(token)
	if !ok {
		return AnyLeague, fmt.Errorf("%w: %q", ErrUnsupportedLeague, token)
	}
	if strings.TrimSpace(rest) == "" {
		return league, fmt.Errorf("%w: game id %q has empty event id", ErrMalformedGameID, gameID)
	}

	return league, nil
}
