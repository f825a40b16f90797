// Package geocode wraps the external address-to-coordinate capability
// and provides the great-circle distance used by the search engine.
//
// The production implementation talks to Nominatim (OpenStreetMap)
// through the geo-golang provider. Calls are sequential, paced by a
// rate limiter, bounded by an explicit timeout, and retried with
// exponential backoff. A miss, a timeout, and a provider error all map
// to "no coordinate" - geocoding failures never bubble up to callers.
package geocode

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	geo "github.com/codingsince1985/geo-golang"
	"github.com/codingsince1985/geo-golang/openstreetmap"
	"golang.org/x/time/rate"

	"github.com/vietmass/churchfinder/internal/logger"
)

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geocoder resolves a free-text query to a coordinate. The boolean
// reports whether a coordinate was found; absence is not an error.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (Point, bool)
}

// Nominatim is the production Geocoder backed by OpenStreetMap's
// Nominatim service.
type Nominatim struct {
	provider   geo.Geocoder
	limiter    *rate.Limiter
	timeout    time.Duration
	maxRetries uint64
	cache      *Cache
}

// NewNominatim creates a Nominatim geocoder. minDelay is the enforced
// minimum spacing between calls (politeness to the service), timeout
// bounds each lookup, and maxRetries caps the backoff retry policy.
// cachePath is where resolved coordinates are persisted; empty keeps
// the cache in memory only.
func NewNominatim(minDelay, timeout time.Duration, maxRetries uint64, cachePath string) *Nominatim {
	cache := NewCache()
	if cachePath != "" {
		cache = NewCacheAt(cachePath)
	}
	return &Nominatim{
		provider:   openstreetmap.Geocoder(),
		limiter:    rate.NewLimiter(rate.Every(minDelay), 1),
		timeout:    timeout,
		maxRetries: maxRetries,
		cache:      cache,
	}
}

// Geocode resolves query to a coordinate. Returns false when the
// service has no result, times out, or keeps failing after retries.
func (n *Nominatim) Geocode(ctx context.Context, query string) (Point, bool) {
	if pt, ok := n.cache.Get(query); ok {
		return pt, true
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return Point{}, false
	}

	var loc *geo.Location
	lookup := func() error {
		result, err := n.lookup(ctx, query)
		if err != nil {
			return err
		}
		loc = result
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), n.maxRetries), ctx)
	if err := backoff.Retry(lookup, policy); err != nil {
		logger.Warn("geocoding unavailable", logger.Fields{
			"query": query,
			"error": err.Error(),
		})
		return Point{}, false
	}
	if loc == nil {
		// Service responded but found nothing for this address.
		return Point{}, false
	}

	pt := Point{Lat: loc.Lat, Lng: loc.Lng}
	n.cache.Set(query, pt)
	return pt, true
}

// lookup runs a single provider call bounded by the configured timeout.
// The geo-golang provider has no context support, so the call runs in a
// goroutine and the deadline is enforced here.
func (n *Nominatim) lookup(ctx context.Context, query string) (*geo.Location, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	type outcome struct {
		loc *geo.Location
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		loc, err := n.provider.Geocode(query)
		done <- outcome{loc, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case o := <-done:
		return o.loc, o.err
	}
}
