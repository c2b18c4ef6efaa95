package market

import (
	"fmt"
	"strings"
)

// GeoRecord is one row of the ZIP to market dataset. A league missing from
// Teams means the ZIP has no local team in that league.
type GeoRecord struct {
	ZipCode string
	DMA     string
	Teams   map[League]TeamRef
}

// TeamRef is the per-league team columns of a GeoRecord.
type TeamRef struct {
	ID   string
	Name string
}

func (r TeamRef) IsZero() bool {
	return strings.TrimSpace(r.ID) == ""
}

func (r GeoRecord) Validate() error {
	if strings.TrimSpace(r.ZipCode) == "" {
		return fmt.Errorf("zip_code is required")
	}
	if strings.TrimSpace(r.DMA) == "" {
		return fmt.Errorf("dma is required for zip_code=%s", r.ZipCode)
	}
	for league := range r.Teams {
		if !league.Valid() {
			return fmt.Errorf("unsupported league %s for zip_code=%s", league, r.ZipCode)
		}
	}

	return nil
}

// Team is a local team derived from dataset rows. Identity is (League, ID).
// HomeDMA is the market of the first row that names the team.
type Team struct {
	ID      string
	Name    string
	League  League
	HomeDMA string
}

type teamKey struct {
	league League
	id     string
}

func (t Team) key() teamKey {
	return teamKey{league: t.League, id: t.ID}
}

// LocationResolution is the market facts known for one ZIP code.
type LocationResolution struct {
	ZipCode string
	DMA     string
	Teams   []Team
}

// TeamMarkets lists the DMAs in which a team is a local team.
type TeamMarkets struct {
	Team Team
	DMAs []string
}
