package market

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidDataset = errors.New("invalid market dataset")

const leagueSlots = int(NHL) + 1

// Index is an immutable snapshot of the dataset. It is safe for concurrent
// readers; a refresh builds a new Index instead of mutating this one.
type Index struct {
	dmaByZip      map[string]string
	teamsByZip    map[string][]Team
	teamsByLeague [leagueSlots][]Team
	teamPos       [leagueSlots]map[string]int
	marketsByTeam map[teamKey][]string
	rows          int
	builtAt       time.Time
}

// Stats summarises an Index for health reporting.
type Stats struct {
	Rows    int
	Zips    int
	Teams   int
	BuiltAt time.Time
}

type zipEntry struct {
	dma   string
	teams [leagueSlots]*Team
}

// BuildIndex validates every record and builds the lookup tables. Rows for
// the same ZIP are merged; they must agree on the DMA and on each league's team.
func BuildIndex(records []GeoRecord, builtAt time.Time) (*Index, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: dataset is empty", ErrInvalidDataset)
	}

	entries := make(map[string]*zipEntry, len(records))
	zipOrder := make([]string, 0, len(records))
	idx := &Index{
		marketsByTeam: make(map[teamKey][]string),
		rows:          len(records),
		builtAt:       builtAt,
	}
	for _, l := range leagues {
		idx.teamPos[l] = make(map[string]int)
	}

	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidDataset, i+1, err)
		}
		zip := strings.TrimSpace(rec.ZipCode)
		dma := strings.TrimSpace(rec.DMA)

		entry, ok := entries[zip]
		if !ok {
			entry = &zipEntry{dma: dma}
			entries[zip] = entry
			zipOrder = append(zipOrder, zip)
		} else if entry.dma != dma {
			return nil, fmt.Errorf("%w: row %d: zip_code=%s maps to dma %q and %q", ErrInvalidDataset, i+1, zip, entry.dma, dma)
		}

		for _, l := range leagues {
			ref, ok := rec.Teams[l]
			if !ok || ref.IsZero() {
				continue
			}
			team := idx.internTeam(l, ref, dma)
			if existing := entry.teams[l]; existing != nil && existing.ID != team.ID {
				return nil, fmt.Errorf("%w: row %d: zip_code=%s has %s teams %q and %q", ErrInvalidDataset, i+1, zip, l, existing.ID, team.ID)
			}
			entry.teams[l] = &team
			idx.addMarket(team.key(), dma)
		}
	}

	idx.dmaByZip = make(map[string]string, len(entries))
	idx.teamsByZip = make(map[string][]Team, len(entries))
	for _, zip := range zipOrder {
		entry := entries[zip]
		teams := make([]Team, 0, len(leagues))
		for _, l := range leagues {
			if t := entry.teams[l]; t != nil {
				teams = append(teams, *t)
			}
		}
		idx.dmaByZip[zip] = entry.dma
		idx.teamsByZip[zip] = teams
	}

	return idx, nil
}

// internTeam returns the canonical Team for (league, id); the first row that
// names a team decides its display name and home DMA.
func (idx *Index) internTeam(l League, ref TeamRef, dma string) Team {
	id := strings.TrimSpace(ref.ID)
	if pos, ok := idx.teamPos[l][id]; ok {
		return idx.teamsByLeague[l][pos]
	}

	team := Team{ID: id, Name: strings.TrimSpace(ref.Name), League: l, HomeDMA: dma}
	idx.teamPos[l][id] = len(idx.teamsByLeague[l])
	idx.teamsByLeague[l] = append(idx.teamsByLeague[l], team)
	return team
}

func (idx *Index) addMarket(key teamKey, dma string) {
	for _, existing := range idx.marketsByTeam[key] {
		if existing == dma {
			return
		}
	}
	idx.marketsByTeam[key] = append(idx.marketsByTeam[key], dma)
}

// Location returns the DMA and local teams of an indexed ZIP.
func (idx *Index) Location(zip string) (LocationResolution, bool) {
	dma, ok := idx.dmaByZip[zip]
	if !ok {
		return LocationResolution{}, false
	}

	teams := idx.teamsByZip[zip]
	out := make([]Team, len(teams))
	copy(out, teams)

	return LocationResolution{ZipCode: zip, DMA: dma, Teams: out}, true
}

// HasZip reports whether the ZIP is indexed.
func (idx *Index) HasZip(zip string) bool {
	_, ok := idx.dmaByZip[zip]
	return ok
}

// TeamByID searches the leagues in priority order; team ids are only unique
// within a league, so the first league holding the id wins.
func (idx *Index) TeamByID(id string) (Team, bool) {
	for _, l := range leagues {
		if pos, ok := idx.teamPos[l][id]; ok {
			return idx.teamsByLeague[l][pos], true
		}
	}
	return Team{}, false
}

// Teams returns distinct teams of one league, or of all leagues for AnyLeague.
func (idx *Index) Teams(filter League) []Team {
	if filter != AnyLeague {
		if !filter.Valid() {
			return []Team{}
		}
		out := make([]Team, len(idx.teamsByLeague[filter]))
		copy(out, idx.teamsByLeague[filter])
		return out
	}

	total := 0
	for _, l := range leagues {
		total += len(idx.teamsByLeague[l])
	}
	out := make([]Team, 0, total)
	for _, l := range leagues {
		out = append(out, idx.teamsByLeague[l]...)
	}
	return out
}

// MarketsForTeam returns the DMAs, in dataset order, where the team is local.
func (idx *Index) MarketsForTeam(team Team) []string {
	markets := idx.marketsByTeam[team.key()]
	out := make([]string, len(markets))
	copy(out, markets)
	return out
}

func (idx *Index) Stats() Stats {
	teams := 0
	for _, l := range leagues {
		teams += len(idx.teamsByLeague[l])
	}
	return Stats{
		Rows:    idx.rows,
		Zips:    len(idx.dmaByZip),
		Teams:   teams,
		BuiltAt: idx.builtAt,
	}
}
