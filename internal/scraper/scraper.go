package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/vietmass/churchfinder/internal/geocode"
)

const (
	// DefaultBaseURL is the source directory site.
	DefaultBaseURL = "https://giothanhle.net"

	// IndexPath is the page listing links to all detail pages.
	IndexPath = "/gio-le"

	UserAgent = "churchfinder/1.0 (github.com/vietmass/churchfinder)"
	Timeout   = 30 * time.Second

	fetchMaxRetries = 2
)

// detailPrefixes mark URL paths that denote a church or parish detail
// page. Only links with one of these prefixes are discovered.
var detailPrefixes = []string{"/gio-le/nha-tho-", "/gio-le/giao-xu-"}

// ErrFetch wraps any network-level failure (request error, timeout,
// non-200 status).
var ErrFetch = errors.New("fetch failed")

// Scraper fetches and extracts pages from the source site. Detail
// fetches are paced by a rate limiter so one update cycle never
// hammers the site.
type Scraper struct {
	client   *http.Client
	base     *url.URL
	limiter  *rate.Limiter
	geocoder geocode.Geocoder
}

// New creates a Scraper for the given base URL. minDelay is the
// enforced spacing between successive detail-page fetches.
func New(baseURL string, geocoder geocode.Geocoder, minDelay time.Duration) (*Scraper, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	return &Scraper{
		client:   &http.Client{Timeout: Timeout},
		base:     base,
		limiter:  rate.NewLimiter(rate.Every(minDelay), 1),
		geocoder: geocoder,
	}, nil
}

// DiscoverLinks fetches the index page and returns the deduplicated
// set of absolute detail-page URLs found on it. A fetch failure
// returns ErrFetch; the caller treats that as "no new links this
// cycle", not as fatal.
func (s *Scraper) DiscoverLinks(ctx context.Context) ([]string, error) {
	doc, err := s.fetchDocument(ctx, s.base.String()+IndexPath)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	links := make([]string, 0)

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		resolved, err := s.base.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		if resolved.Host != s.base.Host || !isDetailPath(resolved.Path) {
			return
		}
		resolved.Fragment = ""
		link := resolved.String()
		if !seen[link] {
			seen[link] = true
			links = append(links, link)
		}
	})

	return links, nil
}

func isDetailPath(path string) bool {
	for _, prefix := range detailPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// fetchDocument GETs a URL and parses the body as HTML. Transient
// failures are retried with exponential backoff before giving up.
func (s *Scraper) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	var doc *goquery.Document

	fetch := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", UserAgent)

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		parsed, err := goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("parsing HTML: %w", err))
		}
		doc = parsed
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), fetchMaxRetries), ctx)
	if err := backoff.Retry(fetch, policy); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, pageURL, err)
	}
	return doc, nil
}
