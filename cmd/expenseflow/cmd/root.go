// Package cmd provides CLI commands for expenseflow.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/quillhq/expenseflow/internal/googleapi"
	"github.com/quillhq/expenseflow/internal/store"
	"github.com/quillhq/expenseflow/pkg/config"
	gmailv1 "google.golang.org/api/gmail/v1"
	"google.golang.org/api/sheets/v4"
)

var (
	cfgFile string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "expenseflow",
	Short: "Operate the expense report workflow from the command line",
	Long: `expenseflow is a CLI companion to the expense workflow server.

It supports:
- Reconciling unsynced expense records to the spreadsheet ledger
- Scanning the submission inbox for emailed expenses
- Printing expense statistics

Example:
  expenseflow resync
  expenseflow ingest
  expenseflow stats`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Setup logging
		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(resyncCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(statsCmd)
}

// Helper function to get config file path.
func getConfigFile() string {
	if cfgFile != "" {
		return cfgFile
	}
	return "" // Will use default .env loading
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}

// openStore opens the configured record store backend. The CLI commands
// operate on durable records, so the memory driver is rejected.
func openStore(cfg *config.Config) store.Store {
	if cfg.Store.Driver != "sqlite" {
		exitOnError(fmt.Errorf("driver %q", cfg.Store.Driver), "CLI commands require the sqlite store")
	}

	slog.Debug("Opening store", "path", cfg.Store.DBPath)
	s, err := store.OpenSQLite(cfg.Store.DBPath)
	exitOnError(err, "failed to open store")
	return s
}

// newGoogleClient builds the shared OAuth HTTP client used by every
// Google collaborator.
func newGoogleClient(ctx context.Context, cfg *config.Config) *http.Client {
	client, err := googleapi.NewHTTPClient(ctx,
		cfg.Google.CredentialsPath, cfg.Google.TokenPath,
		sheets.SpreadsheetsScope,
		gmailv1.GmailModifyScope,
		gmailv1.GmailSendScope,
	)
	exitOnError(err, "failed to build Google client")
	return client
}
