package church

import (
	"strings"
	"time"
)

// Record represents a single church scraped from the source site.
// The source URL is the record's identity; two records with the same
// URL describe the same church.
type Record struct {
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	MassTimes   []string `json:"mass_times"` // "HH:MM", 24-hour, ascending
	URL         string   `json:"url"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	LastUpdated *string  `json:"last_updated"` // ISO date, e.g. "2026-08-31"
}

// NewRecord creates a Record with LastUpdated set to today's date.
// The coordinate is left unset; call SetCoordinate once geocoding succeeds.
func NewRecord(name, address string, massTimes []string, url string) *Record {
	today := time.Now().UTC().Format("2006-01-02")
	return &Record{
		Name:        name,
		Address:     address,
		MassTimes:   massTimes,
		URL:         url,
		LastUpdated: &today,
	}
}

// SetCoordinate attaches a resolved coordinate to the record.
func (r *Record) SetCoordinate(lat, lng float64) {
	r.Lat = &lat
	r.Lng = &lng
}

// Coordinate returns the record's coordinate and whether one is set.
func (r *Record) Coordinate() (lat, lng float64, ok bool) {
	if r.Lat == nil || r.Lng == nil {
		return 0, 0, false
	}
	return *r.Lat, *r.Lng, true
}

// CanonicalName normalizes a scraped page title into a church name.
// Titles that do not already start with "nhà thờ" (church) or "giáo xứ"
// (parish) get the "Nhà thờ" prefix.
func CanonicalName(title string) string {
	title = strings.TrimSpace(title)
	lower := strings.ToLower(title)
	if strings.HasPrefix(lower, "nhà thờ") || strings.HasPrefix(lower, "giáo xứ") {
		return title
	}
	return "Nhà thờ " + title
}
