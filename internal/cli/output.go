package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vietmass/churchfinder/internal/search"
)

// OutputFormat specifies how results are printed.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// WriteResults writes search results in the specified format.
func WriteResults(w io.Writer, results []*search.Result, format OutputFormat) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	case FormatText:
		return writeText(w, results)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeText(w io.Writer, results []*search.Result) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No churches found.")
		return err
	}

	fmt.Fprintf(w, "Found %d churches:\n\n", len(results))
	for _, r := range results {
		fmt.Fprintf(w, "%s (%.1f km)\n", r.Name, r.DistanceKm)
		fmt.Fprintf(w, "  Address: %s\n", r.Address)
		fmt.Fprintf(w, "  Mass times: %s\n", strings.Join(r.MassTimes, ", "))
		fmt.Fprintf(w, "  %s\n\n", r.URL)
	}
	return nil
}
