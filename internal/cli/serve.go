package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietmass/churchfinder/internal/logger"
	"github.com/vietmass/churchfinder/internal/scheduler"
	"github.com/vietmass/churchfinder/internal/sheets"
	"github.com/vietmass/churchfinder/internal/updater"
	"github.com/vietmass/churchfinder/internal/web"
)

var (
	flagListen        string
	flagInterval      time.Duration
	flagCredentials   string
	flagSpreadsheetID string
	flagSheetRange    string
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and the HTTP query API",
		RunE:  runServe,
	}

	cmd.Flags().StringVar(&flagListen, "listen", ":5002", "HTTP listen address")
	cmd.Flags().DurationVar(&flagInterval, "interval", scheduler.DefaultInterval, "Update interval")
	addSheetsFlags(cmd)
	return cmd
}

func addSheetsFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagCredentials, "credentials",
		os.Getenv("CHURCHFINDER_CREDENTIALS"), "Service-account credentials file (or env: CHURCHFINDER_CREDENTIALS)")
	cmd.Flags().StringVar(&flagSpreadsheetID, "spreadsheet-id",
		os.Getenv("CHURCHFINDER_SPREADSHEET_ID"), "Google Sheets spreadsheet ID (or env: CHURCHFINDER_SPREADSHEET_ID)")
	cmd.Flags().StringVar(&flagSheetRange, "sheet-range", "A2:F", "Spreadsheet range to import")
}

func runServe(cmd *cobra.Command, args []string) error {
	p, err := buildPipeline()
	if err != nil {
		return err
	}

	sched := scheduler.New(p.updater.Update, flagInterval, p.location)

	var importRun web.ImportFunc
	if flagCredentials != "" && flagSpreadsheetID != "" {
		importRun = func(ctx context.Context) (int, error) {
			importer, err := sheets.NewImporter(ctx, flagCredentials, flagSpreadsheetID, flagSheetRange)
			if err != nil {
				return 0, err
			}
			return p.updater.Import(ctx, importer)
		}
	} else {
		logger.Info("spreadsheet integration not configured", nil)
	}

	handler := web.New(p.engine, p.updater, sched, importRun)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	srv := &http.Server{Addr: flagListen, Handler: mux}

	// Runs the initial update synchronously before the API comes up,
	// so a fresh deployment serves data as soon as it listens.
	sched.Start()
	defer sched.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("listening", logger.Fields{"addr": flagListen})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sig:
		logger.Info("shutting down", nil)
		sched.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

// importerFromFlags builds the sheets importer for the import command.
func importerFromFlags(ctx context.Context) (updater.RowSource, error) {
	return sheets.NewImporter(ctx, flagCredentials, flagSpreadsheetID, flagSheetRange)
}
