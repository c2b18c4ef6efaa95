package static

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/riskibarqy/sports-viewing/internal/domain/market"
	"github.com/riskibarqy/sports-viewing/internal/domain/rights"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Games []gameEntry `yaml:"games"`
}

type gameEntry struct {
	GameID       string       `yaml:"game_id"`
	BlackoutDMAs []string     `yaml:"blackout_dmas"`
	BlackoutInfo string       `yaml:"blackout_info"`
	Offers       []offerEntry `yaml:"offers"`
}

type offerEntry struct {
	Provider        string `yaml:"provider"`
	URL             string `yaml:"url"`
	RequiresAuth    bool   `yaml:"requires_auth"`
	BlackoutApplies bool   `yaml:"blackout_applies"`
	Notes           string `yaml:"notes"`
}

type game struct {
	league       market.League
	blackoutDMAs map[string]struct{}
	blackoutInfo string
	offers       []offerEntry
}

// Catalog is a fixed rights table keyed by game id. It is read-only after
// parsing.
type Catalog struct {
	games map[string]game
}

// Default parses the catalog shipped with the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rights catalog: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode rights catalog: %w", err)
	}

	c := &Catalog{games: make(map[string]game, len(file.Games))}
	for i, entry := range file.Games {
		gameID := strings.TrimSpace(entry.GameID)
		league, err := market.ParseGameID(gameID)
		if err != nil {
			return nil, fmt.Errorf("rights catalog game %d: %w", i+1, err)
		}
		if _, dup := c.games[gameID]; dup {
			return nil, fmt.Errorf("rights catalog game %d: duplicate game_id %s", i+1, gameID)
		}
		for j, offer := range entry.Offers {
			if strings.TrimSpace(offer.Provider) == "" {
				return nil, fmt.Errorf("rights catalog game %s offer %d: provider is required", gameID, j+1)
			}
		}

		g := game{
			league:       league,
			blackoutDMAs: make(map[string]struct{}, len(entry.BlackoutDMAs)),
			blackoutInfo: strings.TrimSpace(entry.BlackoutInfo),
			offers:       entry.Offers,
		}
		for _, dma := range entry.BlackoutDMAs {
			if dma = strings.TrimSpace(dma); dma != "" {
				g.blackoutDMAs[dma] = struct{}{}
			}
		}
		c.games[gameID] = g
	}

	return c, nil
}

// Sources returns one rights.Source per league backed by this catalog.
func (c *Catalog) Sources() rights.Sources {
	return rights.Sources{
		MLB: &Source{catalog: c, league: market.MLB},
		NBA: &Source{catalog: c, league: market.NBA},
		NHL: &Source{catalog: c, league: market.NHL},
	}
}

func (c *Catalog) Len() int {
	return len(c.games)
}

// Source answers for one league. Offers are flagged blacked out only when
// the viewer's DMA is listed for the game; an empty DMA is never blacked out.
// A game without blackout DMAs always carries its blackout_info as a notice.
type Source struct {
	catalog *Catalog
	league  market.League
}

func (s *Source) FetchRights(ctx context.Context, gameID, dma string) (rights.Feed, error) {
	if err := ctx.Err(); err != nil {
		return rights.Feed{}, err
	}

	g, ok := s.catalog.games[gameID]
	if !ok || g.league != s.league {
		return rights.Feed{}, fmt.Errorf("%w: %s game_id=%s", rights.ErrUnknownGame, s.league, gameID)
	}

	_, blackedOut := g.blackoutDMAs[strings.TrimSpace(dma)]
	if strings.TrimSpace(dma) == "" {
		blackedOut = false
	}

	feed := rights.Feed{Streams: make([]rights.StreamOffer, 0, len(g.offers))}
	for _, offer := range g.offers {
		feed.Streams = append(feed.Streams, rights.StreamOffer{
			GameID:       gameID,
			Provider:     offer.Provider,
			URL:          offer.URL,
			Blackout:     blackedOut && offer.BlackoutApplies,
			RequiresAuth: offer.RequiresAuth,
			Notes:        offer.Notes,
		})
	}
	if blackedOut || len(g.blackoutDMAs) == 0 {
		feed.BlackoutInfo = g.blackoutInfo
	}

	return feed, nil
}
