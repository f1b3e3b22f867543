// Package main runs the expense workflow HTTP API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quillhq/expenseflow/internal/api"
	"github.com/quillhq/expenseflow/internal/auth"
	"github.com/quillhq/expenseflow/internal/dispatch"
	"github.com/quillhq/expenseflow/internal/engine"
	"github.com/quillhq/expenseflow/internal/googleapi"
	"github.com/quillhq/expenseflow/internal/hosting"
	"github.com/quillhq/expenseflow/internal/inbox"
	"github.com/quillhq/expenseflow/internal/ingest"
	"github.com/quillhq/expenseflow/internal/ledger"
	"github.com/quillhq/expenseflow/internal/notify"
	"github.com/quillhq/expenseflow/internal/store"
	"github.com/quillhq/expenseflow/pkg/config"
	gmailv1 "google.golang.org/api/gmail/v1"
	"google.golang.org/api/sheets/v4"
)

func main() {
	// Setup structured JSON logging.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.Debug {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		slog.SetDefault(logger)
	}

	ctx := context.Background()

	// Record store.
	var recordStore store.Store
	switch cfg.Store.Driver {
	case "memory":
		recordStore = store.NewMemoryStore()
	case "sqlite":
		recordStore, err = store.OpenSQLite(cfg.Store.DBPath)
		if err != nil {
			slog.Error("failed to open store", "error", err, "db_path", cfg.Store.DBPath)
			os.Exit(1)
		}
	default:
		slog.Error("unknown store driver", "driver", cfg.Store.Driver)
		os.Exit(1)
	}
	defer func() {
		if err := recordStore.Close(); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}()
	slog.Info("record store initialized", "driver", cfg.Store.Driver)

	// Credential store.
	var credentials auth.CredentialStore
	switch cfg.Auth.Driver {
	case "memory":
		credentials = auth.NewMemoryCredentialStore()
	case "bolt":
		boltStore, err := auth.OpenBoltCredentialStore(cfg.Auth.DBPath)
		if err != nil {
			slog.Error("failed to open credential store", "error", err)
			os.Exit(1)
		}
		defer boltStore.Close()
		credentials = boltStore
	default:
		slog.Error("unknown auth driver", "driver", cfg.Auth.Driver)
		os.Exit(1)
	}

	// External collaborators. Without Google configuration the sinks stay
	// unconfigured; records accumulate for later reconciliation.
	var (
		ledgerSink   dispatch.Ledger   = dispatch.UnconfiguredLedger{}
		notifierSink dispatch.Notifier = dispatch.UnconfiguredNotifier{}
		inboxSource  ingest.Inbox
		receiptHost  api.Hosting
	)

	if cfg.GoogleConfigured() {
		client, err := googleapi.NewHTTPClient(ctx,
			cfg.Google.CredentialsPath, cfg.Google.TokenPath,
			sheets.SpreadsheetsScope,
			gmailv1.GmailModifyScope,
			gmailv1.GmailSendScope,
			"https://www.googleapis.com/auth/drive.file",
		)
		if err != nil {
			slog.Error("failed to build Google client", "error", err)
			os.Exit(1)
		}

		sheetsLedger, err := ledger.NewSheetsLedger(ctx, client, cfg.Google.SpreadsheetID, cfg.Google.SheetName)
		if err != nil {
			slog.Error("failed to build ledger", "error", err)
			os.Exit(1)
		}
		ledgerSink = sheetsLedger

		gmailNotifier, err := notify.NewGmailNotifier(ctx, client, cfg.Google.SenderAddress)
		if err != nil {
			slog.Error("failed to build notifier", "error", err)
			os.Exit(1)
		}
		notifierSink = gmailNotifier

		gmailInbox, err := inbox.NewGmailInbox(ctx, client)
		if err != nil {
			slog.Error("failed to build inbox", "error", err)
			os.Exit(1)
		}
		inboxSource = gmailInbox

		driveHosting, err := hosting.NewDriveHosting(ctx, client, cfg.Google.DriveFolderID)
		if err != nil {
			slog.Error("failed to build receipt hosting", "error", err)
			os.Exit(1)
		}
		receiptHost = driveHosting

		slog.Info("Google collaborators initialized",
			"spreadsheet_id", cfg.Google.SpreadsheetID, "sheet", cfg.Google.SheetName)
	} else {
		slog.Warn("Google collaborators not configured; ledger and notifications disabled")
	}

	dispatcher := dispatch.New(recordStore, ledgerSink, notifierSink, logger)
	eng := engine.New(recordStore, dispatcher)

	var ingestor *ingest.Ingestor
	if inboxSource != nil && cfg.Ingest.SubmissionAddress != "" {
		parser := ingest.NewParser()
		if cfg.Ingest.KeywordsPath != "" {
			parser, err = ingest.NewParserFromFile(cfg.Ingest.KeywordsPath)
			if err != nil {
				slog.Error("failed to load category keywords", "error", err)
				os.Exit(1)
			}
		}
		ingestor = ingest.New(inboxSource, recordStore, eng, parser, cfg.Ingest.SubmissionAddress, logger)
	}

	router := api.NewRouter(api.Deps{
		Store:       recordStore,
		Engine:      eng,
		Dispatcher:  dispatcher,
		Ingestor:    ingestor,
		Hosting:     receiptHost,
		Credentials: credentials,
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	slog.Info("starting expenseflow server", "addr", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		slog.Info("shutting down server")
		if err := server.Close(); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
