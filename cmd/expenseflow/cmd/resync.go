package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/quillhq/expenseflow/internal/dispatch"
	"github.com/quillhq/expenseflow/internal/ledger"
	"github.com/quillhq/expenseflow/pkg/config"
)

// resyncCmd represents the resync command.
var resyncCmd = &cobra.Command{
	Use:   "resync",
	Short: "Push unsynced expense records to the spreadsheet ledger",
	Long: `Re-attempt the ledger append for every expense record that has no
spreadsheet row yet.

This command:
1. Scans the store for records with no recorded row number
2. Appends each one to the configured spreadsheet
3. Records the assigned row number so the record is not appended twice

Example:
  expenseflow resync
  expenseflow resync --debug`,
	Run: runResync,
}

func runResync(cmd *cobra.Command, args []string) {
	slog.Info("Starting reconciliation")

	// Load configuration
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if err := cfg.Validate(
		"store.dbPath",
		"google.credentialsPath",
		"google.spreadsheetId",
	); err != nil {
		exitOnError(err, "invalid configuration")
	}

	ctx := context.Background()

	s := openStore(cfg)
	defer s.Close()

	client := newGoogleClient(ctx, cfg)

	sheetsLedger, err := ledger.NewSheetsLedger(ctx, client, cfg.Google.SpreadsheetID, cfg.Google.SheetName)
	exitOnError(err, "failed to build ledger")

	// Reconciliation only appends; no notifications are sent here.
	d := dispatch.New(s, sheetsLedger, dispatch.UnconfiguredNotifier{}, slog.Default())

	report, err := d.SyncUnsynced(ctx)
	exitOnError(err, "reconciliation failed")

	fmt.Println("\n=== Reconciliation Report ===")
	fmt.Printf("Records scanned: %d\n", report.Scanned)
	fmt.Printf("Already synced:  %d\n", report.Skipped)
	fmt.Printf("Newly synced:    %d\n", report.Synced)
	fmt.Printf("Failed:          %d\n", report.Failed)
	fmt.Println()

	slog.Info("Reconciliation completed", "synced", report.Synced, "failed", report.Failed)
}
