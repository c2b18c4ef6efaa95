package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/sports-viewing/internal/domain/market"
	qb "github.com/riskibarqy/sports-viewing/internal/platform/querybuilder"
)

const zipMarketTable = "zip_market_mappings"

// PostgresSource loads the dataset from the zip_market_mappings table.
type PostgresSource struct {
	db *sqlx.DB
}

func NewPostgresSource(db *sqlx.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) LoadRecords(ctx context.Context) ([]market.GeoRecord, error) {
	query, args, err := selectZipMarketsQuery()
	if err != nil {
		return nil, fmt.Errorf("build select zip markets query: %w", err)
	}

	var rows []zipMarketTableModel
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select zip markets: %w", err)
	}

	out := make([]market.GeoRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toRecord())
	}
	return out, nil
}

func selectZipMarketsQuery() (string, []any, error) {
	return qb.Select(zipMarketColumns...).From(zipMarketTable).
		Where(qb.IsNull("deleted_at")).
		OrderBy("id").
		ToSQL()
}

func (m zipMarketTableModel) toRecord() market.GeoRecord {
	rec := market.GeoRecord{
		ZipCode: strings.TrimSpace(m.ZipCode),
		DMA:     strings.TrimSpace(m.DMA),
	}

	teams := map[market.League]market.TeamRef{}
	addTeam(teams, market.MLB, m.MLBTeamID, m.MLBTeamName)
	addTeam(teams, market.NBA, m.NBATeamID, m.NBATeamName)
	addTeam(teams, market.NHL, m.NHLTeamID, m.NHLTeamName)
	if len(teams) > 0 {
		rec.Teams = teams
	}
	return rec
}

func addTeam(teams map[market.League]market.TeamRef, league market.League, id, name sql.NullString) {
	if !id.Valid || strings.TrimSpace(id.String) == "" {
		return
	}
	teams[league] = market.TeamRef{
		ID:   strings.TrimSpace(id.String),
		Name: strings.TrimSpace(name.String),
	}
}
