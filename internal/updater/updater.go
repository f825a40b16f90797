// Package updater orchestrates incremental dataset updates: link
// discovery, per-page detail extraction, and a single batched save.
// Membership is tested purely by source URL, so a second run against
// an unchanged site adds nothing. Existing records are never
// re-validated or retired; stale entries persist until curated by hand.
package updater

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vietmass/churchfinder/internal/geocode"
	"github.com/vietmass/churchfinder/internal/logger"
	"github.com/vietmass/churchfinder/internal/scraper"
	"github.com/vietmass/churchfinder/internal/storage"
)

// Updater runs update cycles against the dataset store. Concurrent
// triggers (scheduler timer plus a manual request) are coalesced: a
// trigger arriving while a cycle is in flight returns 0 immediately.
type Updater struct {
	scraper  *scraper.Scraper
	store    *storage.Store
	geocoder geocode.Geocoder

	mu       sync.Mutex
	inFlight bool
}

// New creates an Updater. The geocoder is used only by the import
// path; crawl-path geocoding happens inside the scraper.
func New(sc *scraper.Scraper, store *storage.Store, geocoder geocode.Geocoder) *Updater {
	return &Updater{
		scraper:  sc,
		store:    store,
		geocoder: geocoder,
	}
}

// Update runs one incremental crawl cycle and returns the number of
// newly added records. Per-page failures are logged and skipped; only
// a failed save is surfaced as an error, and an atomic save means a
// failure leaves the persisted dataset untouched. Records stranded in
// memory by a failed save stay flagged unpersisted in the store, so
// the save is retried on the next cycle even when it adds nothing.
func (u *Updater) Update(ctx context.Context) (int, error) {
	if !u.begin() {
		logger.Info("update already in flight, skipping", nil)
		return 0, nil
	}
	defer u.end()

	start := time.Now()

	links, err := u.scraper.DiscoverLinks(ctx)
	if err != nil {
		// No new links this cycle. Not fatal: the next run retries.
		logger.Warn("link discovery failed", logger.Fields{"error": err.Error()})
		return 0, nil
	}
	logger.Info("discovered links", logger.Fields{"count": len(links)})

	added := 0
	for _, link := range links {
		if u.store.Contains(link) {
			continue
		}

		rec, err := u.scraper.ExtractDetail(ctx, link)
		if err != nil {
			logger.Warn("skipping page", logger.Fields{"url": link, "error": err.Error()})
			logger.IncrCounter("update.pages_skipped", 1)
			continue
		}

		u.store.Append(rec)
		added++
		logger.Info("added church", logger.Fields{"name": rec.Name, "url": rec.URL})
	}

	if u.store.Dirty() {
		if err := u.store.Save(); err != nil {
			return 0, fmt.Errorf("saving dataset: %w", err)
		}
	}

	logger.IncrCounter("update.records_added", int64(added))
	logger.RecordTiming("update.cycle", time.Since(start))
	logger.Info("update finished", logger.Fields{
		"added": added,
		"total": u.store.Len(),
		"took":  time.Since(start).String(),
	})
	return added, nil
}

func (u *Updater) begin() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.inFlight {
		return false
	}
	u.inFlight = true
	return true
}

func (u *Updater) end() {
	u.mu.Lock()
	u.inFlight = false
	u.mu.Unlock()
}
