package rights

import "github.com/riskibarqy/sports-viewing/internal/domain/market"

// StreamOffer is one viewing option from one provider for one game.
type StreamOffer struct {
	GameID       string
	Provider     string
	URL          string
	Blackout     bool
	RequiresAuth bool
	Notes        string
}

// Feed is what a league rights source returns for a game and viewer DMA.
type Feed struct {
	Streams      []StreamOffer
	BlackoutInfo string
}

// Resolution is the blackout-annotated answer for a game and viewer ZIP.
// DMA is empty when the ZIP could not be placed in a market.
type Resolution struct {
	GameID       string
	ZipCode      string
	League       market.League
	DMA          string
	Streams      []StreamOffer
	BlackoutInfo string
}

// Available reports whether at least one offer is watchable.
func (r Resolution) Available() bool {
	for _, offer := range r.Streams {
		if !offer.Blackout {
			return true
		}
	}
	return false
}
