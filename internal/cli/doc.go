// Package cli implements the churchfinder command-line interface.
//
// The CLI wires the crawl pipeline together: the dataset store, the
// scraper, the Nominatim geocoder, the incremental updater, the search
// engine, and (for serve) the hourly scheduler plus the HTTP query
// surface. Subcommands: serve, update, search, nearby, import, export.
package cli
