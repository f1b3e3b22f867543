package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/quillhq/expenseflow/internal/engine"
	"github.com/quillhq/expenseflow/internal/models"
	"github.com/quillhq/expenseflow/pkg/config"
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show expense statistics",
	Long: `Display statistics over the stored expense records.

Shows per-status record counts and amount totals.

Example:
  expenseflow stats`,
	Run: runStats,
}

func runStats(cmd *cobra.Command, args []string) {
	// Load configuration
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if err := cfg.Validate("store.dbPath"); err != nil {
		exitOnError(err, "invalid configuration")
	}

	ctx := context.Background()

	s := openStore(cfg)
	defer s.Close()

	// Stats never dispatches, so no collaborators are wired.
	eng := engine.New(s, nil)

	stats, err := eng.Stats(ctx)
	exitOnError(err, "failed to compute statistics")

	fmt.Println("\n=== Expense Statistics ===")
	fmt.Printf("Total records:    %d\n", stats.TotalCount)
	fmt.Printf("Pending:          %d\n", stats.PendingCount)
	fmt.Printf("Approved:         %d\n", stats.ApprovedCount)
	fmt.Printf("Rejected:         %d\n", stats.RejectedCount)
	fmt.Printf("Approved total:   %s\n", models.FormatCentsUSD(stats.TotalApprovedCents))
	fmt.Printf("Pending total:    %s\n", models.FormatCentsUSD(stats.PendingCents))
	fmt.Println()

	slog.Debug("Statistics computed", "total", stats.TotalCount)
}
