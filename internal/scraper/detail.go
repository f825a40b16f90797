package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vietmass/churchfinder/internal/church"
	"github.com/vietmass/churchfinder/internal/extract"
)

// Extraction failures. These reject a single page, never the batch.
var (
	ErrMissingTitle   = errors.New("detail page has no title")
	ErrMissingContent = errors.New("detail page has no content block")
	ErrNoMassTimes    = errors.New("no mass times found on page")
)

// blockSelector lists the elements treated as text paragraphs when
// flattening the content block.
const blockSelector = "p, h1, h2, h3, h4, h5, h6, li, td"

// ExtractDetail fetches one detail page and assembles a church record.
// The page is rejected (error returned, no record) when the title or
// content block is missing, or when no mass times can be parsed - a
// record without a schedule must not enter the dataset. A failed
// geocoding lookup does not reject the page; the record is simply
// produced without a coordinate.
func (s *Scraper) ExtractDetail(ctx context.Context, pageURL string) (*church.Record, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	title := pageTitle(doc)
	if title == "" {
		return nil, ErrMissingTitle
	}
	name := church.CanonicalName(title)

	content := doc.Find("div.entry-content")
	if content.Length() == 0 {
		return nil, ErrMissingContent
	}
	text := contentText(content)

	massTimes := extract.ParseMassTimes(text)
	if len(massTimes) == 0 {
		return nil, ErrNoMassTimes
	}

	address := extract.ExtractAddress(text, name)

	rec := church.NewRecord(name, address, massTimes, pageURL)
	if pt, ok := s.geocoder.Geocode(ctx, fmt.Sprintf("%s, %s, Vietnam", name, address)); ok {
		rec.SetCoordinate(pt.Lat, pt.Lng)
	}
	return rec, nil
}

// pageTitle takes the breadcrumb trailing label when present, falling
// back to the page heading.
func pageTitle(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("span.breadcrumb_last").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1.entry-title").First().Text())
	}
	return title
}

// contentText flattens the content block into newline-separated
// paragraphs for the extractors. Elements that contain other block
// elements are skipped so nested text isn't emitted twice.
func contentText(sel *goquery.Selection) string {
	blocks := sel.Find(blockSelector)
	if blocks.Length() == 0 {
		return sel.Text()
	}

	var b strings.Builder
	blocks.Each(func(_ int, el *goquery.Selection) {
		if el.Find(blockSelector).Length() > 0 {
			return
		}
		if t := strings.TrimSpace(el.Text()); t != "" {
			b.WriteString(t)
			b.WriteString("\n")
		}
	})
	return b.String()
}
