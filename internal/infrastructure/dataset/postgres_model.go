package dataset

import "database/sql"

type zipMarketTableModel struct {
	ZipCode     string         `db:"zip_code"`
	DMA         string         `db:"dma"`
	MLBTeamID   sql.NullString `db:"mlb_team_id"`
	MLBTeamName sql.NullString `db:"mlb_team_name"`
	NBATeamID   sql.NullString `db:"nba_team_id"`
	NBATeamName sql.NullString `db:"nba_team_name"`
	NHLTeamID   sql.NullString `db:"nhl_team_id"`
	NHLTeamName sql.NullString `db:"nhl_team_name"`
}

var zipMarketColumns = []string{
	"zip_code",
	"dma",
	"mlb_team_id",
	"mlb_team_name",
	"nba_team_id",
	"nba_team_name",
	"nhl_team_id",
	"nhl_team_name",
}
