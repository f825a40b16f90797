package updater

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vietmass/churchfinder/internal/church"
	"github.com/vietmass/churchfinder/internal/extract"
	"github.com/vietmass/churchfinder/internal/logger"
)

// Row is one tabular entry from an alternate data source (a
// spreadsheet). It carries the same shape as a church record; the
// coordinate is optional and is geocoded from the address when absent.
type Row struct {
	Name      string
	Address   string
	MassTimes []string
	Lat       *float64
	Lng       *float64
	URL       string
}

// RowSource yields rows from a tabular data source.
type RowSource interface {
	Rows(ctx context.Context) ([]Row, error)
}

// Import feeds rows from src into the dataset, as an alternative to
// crawling. Rows are deduplicated by church name against the existing
// dataset. Rows whose mass times don't normalize to at least one valid
// "HH:MM", or that end up without a coordinate even after geocoding,
// are skipped. Returns the number of records appended.
func (u *Updater) Import(ctx context.Context, src RowSource) (int, error) {
	if !u.begin() {
		logger.Info("update already in flight, skipping import", nil)
		return 0, nil
	}
	defer u.end()

	rows, err := src.Rows(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading rows: %w", err)
	}

	existing := make(map[string]bool)
	for _, rec := range u.store.Snapshot() {
		existing[strings.ToLower(rec.Name)] = true
	}

	added := 0
	for _, row := range rows {
		name := strings.TrimSpace(row.Name)
		if name == "" || existing[strings.ToLower(name)] {
			continue
		}

		massTimes := normalizeTimes(row.MassTimes)
		if len(massTimes) == 0 {
			logger.Warn("skipping row without usable mass times", logger.Fields{"name": name})
			continue
		}

		lat, lng, ok := rowCoordinate(row)
		if !ok {
			pt, found := u.geocoder.Geocode(ctx, fmt.Sprintf("%s, %s, Vietnam", name, row.Address))
			if !found {
				logger.Warn("skipping row without coordinate", logger.Fields{"name": name})
				continue
			}
			lat, lng = pt.Lat, pt.Lng
		}

		rec := church.NewRecord(name, strings.TrimSpace(row.Address), massTimes, row.URL)
		rec.SetCoordinate(lat, lng)
		u.store.Append(rec)
		existing[strings.ToLower(name)] = true
		added++
	}

	if u.store.Dirty() {
		if err := u.store.Save(); err != nil {
			return 0, fmt.Errorf("saving dataset: %w", err)
		}
	}

	logger.IncrCounter("import.records_added", int64(added))
	logger.Info("import finished", logger.Fields{"added": added, "rows": len(rows)})
	return added, nil
}

// normalizeTimes runs each raw token through the clock normalizer,
// dropping anything that doesn't parse. The result keeps the parser's
// guarantees: well-formed "HH:MM", deduplicated, ascending.
func normalizeTimes(raw []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(raw))
	for _, token := range raw {
		clock, ok := extract.ParseClock(token)
		if !ok || seen[clock] {
			continue
		}
		seen[clock] = true
		out = append(out, clock)
	}
	sort.Strings(out)
	return out
}

func rowCoordinate(row Row) (float64, float64, bool) {
	if row.Lat == nil || row.Lng == nil {
		return 0, 0, false
	}
	return *row.Lat, *row.Lng, true
}
