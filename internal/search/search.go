// Package search provides the geo/time query engine over the church
// dataset. Queries are read-only: they operate on a snapshot of the
// most recently loaded dataset and never block an in-flight update.
package search

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/vietmass/churchfinder/internal/church"
	"github.com/vietmass/churchfinder/internal/geocode"
	"github.com/vietmass/churchfinder/internal/storage"
)

const (
	// DefaultRadiusKm is applied when a query doesn't set a radius.
	DefaultRadiusKm = 5.0

	// matchWindowMinutes is how far (inclusive) a mass time may be
	// from the target time and still count as a match.
	matchWindowMinutes = 60
)

// Result is a read-only projection of a record plus its distance from
// the query origin, rounded to one decimal place. Results are never
// written back into the dataset.
type Result struct {
	*church.Record
	DistanceKm float64 `json:"distance"`
}

// Engine answers time-and-proximity queries against the dataset store.
type Engine struct {
	store *storage.Store
}

// NewEngine creates a search engine reading from store.
func NewEngine(store *storage.Store) *Engine {
	return &Engine{store: store}
}

// Search returns churches within radiusKm of the origin that have at
// least one mass time within 60 minutes of targetTime ("HH:MM").
// Records without a resolved coordinate are excluded. Results are
// sorted ascending by distance; dataset order is preserved among equal
// distances.
func (e *Engine) Search(targetTime string, lat, lng, radiusKm float64) ([]*Result, error) {
	target, err := minutesOfDay(targetTime)
	if err != nil {
		return nil, fmt.Errorf("invalid time slot %q: %w", targetTime, err)
	}
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}

	results := make([]*Result, 0)
	for _, rec := range e.store.Snapshot() {
		recLat, recLng, ok := rec.Coordinate()
		if !ok {
			continue
		}
		d := geocode.Distance(lat, lng, recLat, recLng)
		if d > radiusKm {
			continue
		}
		if !hasTimeNear(rec.MassTimes, target) {
			continue
		}
		results = append(results, &Result{Record: rec, DistanceKm: round1(d)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DistanceKm < results[j].DistanceKm
	})
	return results, nil
}

// Nearby returns all churches with a resolved coordinate within
// radiusKm of the origin, sorted ascending by distance. No time filter.
func (e *Engine) Nearby(lat, lng, radiusKm float64) []*Result {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}

	results := make([]*Result, 0)
	for _, rec := range e.store.Snapshot() {
		recLat, recLng, ok := rec.Coordinate()
		if !ok {
			continue
		}
		d := geocode.Distance(lat, lng, recLat, recLng)
		if d > radiusKm {
			continue
		}
		results = append(results, &Result{Record: rec, DistanceKm: round1(d)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DistanceKm < results[j].DistanceKm
	})
	return results
}

// hasTimeNear reports whether any mass time falls within the match
// window of the target, stopping at the first qualifying time. The
// difference is a plain absolute difference in minutes-of-day; it does
// not wrap across midnight, so 23:50 and 00:10 are 1420 minutes apart.
func hasTimeNear(massTimes []string, target int) bool {
	for _, mt := range massTimes {
		minutes, err := minutesOfDay(mt)
		if err != nil {
			continue
		}
		diff := minutes - target
		if diff < 0 {
			diff = -diff
		}
		if diff <= matchWindowMinutes {
			return true
		}
	}
	return false
}

// minutesOfDay parses "HH:MM" into minutes since midnight.
func minutesOfDay(clock string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(clock), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("want HH:MM")
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("bad hour %q", parts[0])
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("bad minute %q", parts[1])
	}
	return hour*60 + minute, nil
}

func round1(km float64) float64 {
	return math.Round(km*10) / 10
}
