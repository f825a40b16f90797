// Package sheets reads church rows from a Google Sheet, the alternate
// data source feeding the same dataset as the crawler. Expected
// columns: name, address, mass times (comma-separated), latitude,
// longitude, url. Latitude/longitude may be blank; the updater
// geocodes the address in that case.
package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/vietmass/churchfinder/internal/updater"
)

// Importer reads rows from one spreadsheet range.
type Importer struct {
	service       *sheets.Service
	spreadsheetID string
	readRange     string
}

// NewImporter creates an Importer authenticated with a service-account
// credentials file.
func NewImporter(ctx context.Context, credentialsFile, spreadsheetID, readRange string) (*Importer, error) {
	service, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	return &Importer{
		service:       service,
		spreadsheetID: spreadsheetID,
		readRange:     readRange,
	}, nil
}

// Rows fetches the configured range and converts it to import rows.
// Rows with fewer than three cells (name, address, mass times) are
// dropped; a header row is dropped by the same rule or by failing
// coordinate parsing downstream.
func (i *Importer) Rows(ctx context.Context) ([]updater.Row, error) {
	resp, err := i.service.Spreadsheets.Values.
		Get(i.spreadsheetID, i.readRange).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("fetching sheet values: %w", err)
	}

	rows := make([]updater.Row, 0, len(resp.Values))
	for _, cells := range resp.Values {
		if len(cells) < 3 {
			continue
		}
		row := updater.Row{
			Name:      cellString(cells, 0),
			Address:   cellString(cells, 1),
			MassTimes: splitTimes(cellString(cells, 2)),
			Lat:       cellFloat(cells, 3),
			Lng:       cellFloat(cells, 4),
			URL:       cellString(cells, 5),
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func cellString(cells []interface{}, idx int) string {
	if idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(cells[idx]))
}

func cellFloat(cells []interface{}, idx int) *float64 {
	s := cellString(cells, idx)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func splitTimes(cell string) []string {
	parts := strings.Split(cell, ",")
	times := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			times = append(times, p)
		}
	}
	return times
}
