package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/riskibarqy/sports-viewing/internal/domain/market"
)

const (
	columnZipCode = "zip_code"
	columnDMA     = "dma"

	zipLength = 5
)

// CSVSource reads the dataset from a CSV file with a header row. Required
// columns are zip_code and dma; {LEAGUE}_team_id and {LEAGUE}_team_name are
// optional per league. Empty cells and "nan" mean no value. Numeric ZIPs that
// lost their leading zeros in a spreadsheet export are padded back to five digits.
type CSVSource struct {
	path string
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

func (s *CSVSource) LoadRecords(ctx context.Context) ([]market.GeoRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open dataset csv: %w", err)
	}
	defer f.Close()

	return ReadCSV(ctx, f)
}

type leagueColumns struct {
	league market.League
	id     int
	name   int
}

// ReadCSV parses dataset rows from r.
func ReadCSV(ctx context.Context, r io.Reader) ([]market.GeoRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: csv has no header", market.ErrInvalidDataset)
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	zipCol, ok := positions[columnZipCode]
	if !ok {
		return nil, fmt.Errorf("%w: missing column %s", market.ErrInvalidDataset, columnZipCode)
	}
	dmaCol, ok := positions[columnDMA]
	if !ok {
		return nil, fmt.Errorf("%w: missing column %s", market.ErrInvalidDataset, columnDMA)
	}

	var leagueCols []leagueColumns
	for _, l := range market.Leagues() {
		idCol, hasID := positions[l.String()+"_team_id"]
		if !hasID {
			continue
		}
		nameCol, hasName := positions[l.String()+"_team_name"]
		if !hasName {
			nameCol = -1
		}
		leagueCols = append(leagueCols, leagueColumns{league: l, id: idCol, name: nameCol})
	}

	var records []market.GeoRecord
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		rec := market.GeoRecord{
			ZipCode: normalizeZip(cell(row, zipCol)),
			DMA:     cell(row, dmaCol),
		}
		for _, cols := range leagueCols {
			id := cell(row, cols.id)
			if id == "" {
				continue
			}
			if rec.Teams == nil {
				rec.Teams = make(map[market.League]market.TeamRef, len(leagueCols))
			}
			rec.Teams[cols.league] = market.TeamRef{ID: id, Name: cell(row, cols.name)}
		}
		records = append(records, rec)
	}

	return records, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	v := strings.TrimSpace(row[i])
	if strings.EqualFold(v, "nan") {
		return ""
	}
	return v
}

func normalizeZip(v string) string {
	if v == "" || len(v) >= zipLength {
		return v
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return v
		}
	}
	return strings.Repeat("0", zipLength-len(v)) + v
}
