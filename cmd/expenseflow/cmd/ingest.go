package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/quillhq/expenseflow/internal/dispatch"
	"github.com/quillhq/expenseflow/internal/engine"
	"github.com/quillhq/expenseflow/internal/inbox"
	"github.com/quillhq/expenseflow/internal/ingest"
	"github.com/quillhq/expenseflow/internal/ledger"
	"github.com/quillhq/expenseflow/internal/notify"
	"github.com/quillhq/expenseflow/pkg/config"
)

// ingestCmd represents the ingest command.
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Scan the submission inbox for emailed expenses",
	Long: `Scan the Gmail inbox for unread messages addressed to the submission
address and create expense records from them.

This command:
1. Lists unread messages sent to the submission address
2. Parses an amount and category out of each message
3. Creates a pending expense record for known submitters
4. Marks each processed message as read

Messages from unknown senders and messages with no recognizable amount
are marked read without creating a record.

Example:
  expenseflow ingest
  expenseflow ingest --debug`,
	Run: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) {
	slog.Info("Starting inbox ingestion")

	// Load configuration
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if err := cfg.Validate(
		"store.dbPath",
		"google.credentialsPath",
		"google.spreadsheetId",
		"google.senderAddress",
		"ingest.submissionAddress",
	); err != nil {
		exitOnError(err, "invalid configuration")
	}

	ctx := context.Background()

	s := openStore(cfg)
	defer s.Close()

	client := newGoogleClient(ctx, cfg)

	sheetsLedger, err := ledger.NewSheetsLedger(ctx, client, cfg.Google.SpreadsheetID, cfg.Google.SheetName)
	exitOnError(err, "failed to build ledger")

	notifier, err := notify.NewGmailNotifier(ctx, client, cfg.Google.SenderAddress)
	exitOnError(err, "failed to build notifier")

	gmailInbox, err := inbox.NewGmailInbox(ctx, client)
	exitOnError(err, "failed to build inbox")

	parser := ingest.NewParser()
	if cfg.Ingest.KeywordsPath != "" {
		parser, err = ingest.NewParserFromFile(cfg.Ingest.KeywordsPath)
		exitOnError(err, "failed to load category keywords")
	}

	d := dispatch.New(s, sheetsLedger, notifier, slog.Default())
	eng := engine.New(s, d)
	ingestor := ingest.New(gmailInbox, s, eng, parser, cfg.Ingest.SubmissionAddress, slog.Default())

	report, err := ingestor.IngestInbox(ctx)
	exitOnError(err, "ingestion failed")

	fmt.Println("\n=== Ingestion Report ===")
	fmt.Printf("Messages listed:   %d\n", report.Listed)
	fmt.Printf("Records created:   %d\n", report.Created)
	fmt.Printf("Unparsed messages: %d\n", report.Unparsed)
	fmt.Printf("Unknown senders:   %d\n", report.Unknown)
	fmt.Printf("Failed:            %d\n", report.Failed)
	fmt.Println()

	slog.Info("Ingestion completed", "created", report.Created, "failed", report.Failed)
}
