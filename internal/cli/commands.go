package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vietmass/churchfinder/internal/calendar"
	"github.com/vietmass/churchfinder/internal/search"
)

var (
	flagTime     string
	flagLat      float64
	flagLng      float64
	flagRadiusKm float64
	flagChurch   string
	flagOut      string
)

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Run one incremental crawl cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := buildPipeline()
			if err != nil {
				return err
			}
			added, err := p.updater.Update(context.Background())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d new churches (%d total)\n", added, p.store.Len())
			return nil
		},
	}
}

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find churches by mass time and proximity",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat()
			if err != nil {
				return err
			}
			p, err := buildPipeline()
			if err != nil {
				return err
			}
			results, err := p.engine.Search(flagTime, flagLat, flagLng, flagRadiusKm)
			if err != nil {
				return err
			}
			return WriteResults(cmd.OutOrStdout(), results, format)
		},
	}
	cmd.Flags().StringVar(&flagTime, "time", "", "Target mass time, HH:MM (required)")
	cmd.Flags().Float64Var(&flagLat, "lat", 0, "Origin latitude (required)")
	cmd.Flags().Float64Var(&flagLng, "lng", 0, "Origin longitude (required)")
	cmd.Flags().Float64Var(&flagRadiusKm, "radius", search.DefaultRadiusKm, "Search radius in kilometers")
	cmd.MarkFlagRequired("time")
	cmd.MarkFlagRequired("lat")
	cmd.MarkFlagRequired("lng")
	return cmd
}

func newNearbyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nearby",
		Short: "List churches within a radius, regardless of mass time",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat()
			if err != nil {
				return err
			}
			p, err := buildPipeline()
			if err != nil {
				return err
			}
			results := p.engine.Nearby(flagLat, flagLng, flagRadiusKm)
			return WriteResults(cmd.OutOrStdout(), results, format)
		},
	}
	cmd.Flags().Float64Var(&flagLat, "lat", 0, "Origin latitude (required)")
	cmd.Flags().Float64Var(&flagLng, "lng", 0, "Origin longitude (required)")
	cmd.Flags().Float64Var(&flagRadiusKm, "radius", search.DefaultRadiusKm, "Radius in kilometers")
	cmd.MarkFlagRequired("lat")
	cmd.MarkFlagRequired("lng")
	return cmd
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import churches from the configured Google Sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagCredentials == "" || flagSpreadsheetID == "" {
				return fmt.Errorf("--credentials and --spreadsheet-id are required")
			}
			p, err := buildPipeline()
			if err != nil {
				return err
			}
			ctx := context.Background()
			src, err := importerFromFlags(ctx)
			if err != nil {
				return err
			}
			added, err := p.updater.Import(ctx, src)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d new churches (%d total)\n", added, p.store.Len())
			return nil
		},
	}
	addSheetsFlags(cmd)
	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export one church's mass schedule as an iCalendar file",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := buildPipeline()
			if err != nil {
				return err
			}
			for _, rec := range p.store.Snapshot() {
				if rec.URL != flagChurch {
					continue
				}
				ics := calendar.GenerateICS(rec, p.location)
				if flagOut == "" || flagOut == "-" {
					fmt.Fprint(cmd.OutOrStdout(), ics)
					return nil
				}
				return os.WriteFile(flagOut, []byte(ics), 0644)
			}
			return fmt.Errorf("no church with URL %q in the dataset", flagChurch)
		},
	}
	cmd.Flags().StringVar(&flagChurch, "url", "", "Source URL of the church to export (required)")
	cmd.Flags().StringVar(&flagOut, "out", "-", "Output file, or - for stdout")
	cmd.MarkFlagRequired("url")
	return cmd
}
