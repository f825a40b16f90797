package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietmass/churchfinder/internal/geocode"
	"github.com/vietmass/churchfinder/internal/logger"
	"github.com/vietmass/churchfinder/internal/scraper"
	"github.com/vietmass/churchfinder/internal/search"
	"github.com/vietmass/churchfinder/internal/storage"
	"github.com/vietmass/churchfinder/internal/updater"
)

const (
	defaultDataFile = "~/.local/share/churchfinder/churches.json"
	defaultTimezone = "Asia/Ho_Chi_Minh"

	geocodeTimeout    = 10 * time.Second
	geocodeMaxRetries = 2
)

var (
	flagDataFile     string
	flagBaseURL      string
	flagFetchDelay   time.Duration
	flagGeocodeDelay time.Duration
	flagTimezone     string
	flagFormat       string
	flagVerbose      bool
)

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "churchfinder",
		Short: "Find Catholic churches in Vietnam by mass time and location",
		Long: `churchfinder maintains a local dataset of churches scraped from
giothanhle.net (names, addresses, mass schedules, coordinates) and
answers "where can I attend mass around HH:MM near me" queries.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flagDataFile, "data-file", defaultDataFile, "Path to the dataset file")
	pf.StringVar(&flagBaseURL, "base-url", scraper.DefaultBaseURL, "Source site base URL")
	pf.DurationVar(&flagFetchDelay, "fetch-delay", time.Second, "Minimum delay between detail-page fetches")
	pf.DurationVar(&flagGeocodeDelay, "geocode-delay", time.Second, "Minimum delay between geocoding calls")
	pf.StringVar(&flagTimezone, "timezone", defaultTimezone, "Reference timezone for schedules and status display")
	pf.StringVar(&flagFormat, "format", "text", "Output format: text or json")
	pf.BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	root.AddCommand(
		newServeCmd(),
		newUpdateCmd(),
		newSearchCmd(),
		newNearbyCmd(),
		newImportCmd(),
		newExportCmd(),
	)
	return root
}

// pipeline bundles the components every subcommand needs.
type pipeline struct {
	store    *storage.Store
	scraper  *scraper.Scraper
	updater  *updater.Updater
	engine   *search.Engine
	geocoder geocode.Geocoder
	location *time.Location
}

// buildPipeline assembles the pipeline from the persistent flags and
// loads the dataset from disk.
func buildPipeline() (*pipeline, error) {
	if flagVerbose {
		logger.SetDefault(logger.New(logger.LevelDebug, os.Stderr))
	} else {
		logger.SetDefault(logger.New(logger.LevelInfo, os.Stderr))
	}

	loc, err := time.LoadLocation(flagTimezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", flagTimezone, err)
	}

	store, err := storage.New(flagDataFile)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}

	// The geocode cache lives next to the dataset file and persists
	// across invocations.
	cachePath := filepath.Join(filepath.Dir(store.Path()), "geocode-cache.json")
	geocoder := geocode.NewNominatim(flagGeocodeDelay, geocodeTimeout, geocodeMaxRetries, cachePath)

	sc, err := scraper.New(flagBaseURL, geocoder, flagFetchDelay)
	if err != nil {
		return nil, fmt.Errorf("initializing scraper: %w", err)
	}

	return &pipeline{
		store:    store,
		scraper:  sc,
		updater:  updater.New(sc, store, geocoder),
		engine:   search.NewEngine(store),
		geocoder: geocoder,
		location: loc,
	}, nil
}

func outputFormat() (OutputFormat, error) {
	switch OutputFormat(flagFormat) {
	case FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}
}
