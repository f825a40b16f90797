// Package scraper provides HTTP fetching and HTML extraction for the
// giothanhle.net mass-schedule directory. Link discovery scans the
// index page for church and parish detail links; detail extraction
// turns one detail page into a church record by combining the page
// title, the heuristic mass-time parser, the address extractor, and a
// best-effort geocoding lookup.
package scraper
