package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/quillhq/expenseflow/internal/engine"
	"github.com/quillhq/expenseflow/internal/models"
	"github.com/quillhq/expenseflow/internal/store"
)

// Message is one inbox item.
type Message struct {
	ID      string
	Sender  string
	Subject string
	Date    time.Time
	Body    string
}

// Inbox is the external message source. Its read/unread marking is the
// deduplication mechanism: a message that was marked read is never listed
// again. If marking read fails after a successful submit, a replay will
// double-create the expense.
type Inbox interface {
	ListUnreadMatching(ctx context.Context, addressPattern string) ([]string, error)
	Fetch(ctx context.Context, messageID string) (*Message, error)
	MarkRead(ctx context.Context, messageID string) error
}

// Report summarizes one ingestion pass.
type Report struct {
	Listed   int `json:"listed"`
	Created  int `json:"created"`
	Unparsed int `json:"unparsed"`
	Unknown  int `json:"unknown_submitter"`
	Failed   int `json:"failed"`
}

// Ingestor scans the inbox for expense submissions.
type Ingestor struct {
	inbox   Inbox
	store   store.Store
	engine  *engine.Engine
	parser  *Parser
	address string
	logger  *slog.Logger
}

// New creates an Ingestor watching the given submission address.
func New(inbox Inbox, s store.Store, eng *engine.Engine, parser *Parser, address string, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		inbox:   inbox,
		store:   s,
		engine:  eng,
		parser:  parser,
		address: address,
		logger:  logger,
	}
}

// IngestInbox processes every unread message addressed to the submission
// address. Messages that fail to parse or name an unknown submitter are
// marked read without creating an expense, so they are not retried forever.
// One bad message never halts the batch.
func (i *Ingestor) IngestInbox(ctx context.Context) (*Report, error) {
	ids, err := i.inbox.ListUnreadMatching(ctx, i.address)
	if err != nil {
		return nil, fmt.Errorf("failed to list inbox: %w", err)
	}

	report := &Report{Listed: len(ids)}
	for _, id := range ids {
		if err := i.ingestOne(ctx, id, report); err != nil {
			report.Failed++
			i.logger.Error("failed to ingest message", "message_id", id, "error", err)
		}
	}

	i.logger.Info("inbox ingestion finished",
		"listed", report.Listed, "created", report.Created,
		"unparsed", report.Unparsed, "unknown_submitter", report.Unknown,
		"failed", report.Failed)
	return report, nil
}

func (i *Ingestor) ingestOne(ctx context.Context, messageID string, report *Report) error {
	msg, err := i.inbox.Fetch(ctx, messageID)
	if err != nil {
		return fmt.Errorf("failed to fetch message: %w", err)
	}

	parsed, err := i.parser.Parse(msg.Subject, msg.Body)
	if err != nil {
		report.Unparsed++
		i.logger.Warn("message did not parse as an expense",
			"message_id", messageID, "error", err)
		return i.consume(ctx, messageID)
	}

	sender := senderEmail(msg.Sender)
	submitter, err := i.store.GetUserByEmail(ctx, sender)
	if errors.Is(err, store.ErrNotFound) {
		report.Unknown++
		i.logger.Warn("unknown submitter", "message_id", messageID, "sender", sender)
		return i.consume(ctx, messageID)
	}
	if err != nil {
		return fmt.Errorf("failed to look up submitter: %w", err)
	}

	req := engine.SubmitRequest{
		Amount:      models.FormatCents(parsed.AmountCents),
		Category:    parsed.Category,
		Description: parsed.Description,
		ExpenseDate: expenseDate(msg.Date),
		EmailID:     messageID,
	}

	expense, err := i.engine.Submit(ctx, submitter, req)
	if err != nil {
		return fmt.Errorf("failed to submit ingested expense: %w", err)
	}

	report.Created++
	i.logger.Info("ingested expense from inbox",
		"message_id", messageID, "expense_id", expense.ID,
		"submitter", sender, "amount", expense.FormattedAmount())

	// Mark read last: the source's unread flag is the dedup key, so an
	// unmarked message after a successful create will replay as a duplicate.
	if err := i.inbox.MarkRead(ctx, messageID); err != nil {
		i.logger.Error("failed to mark message read after create; replay will duplicate",
			"message_id", messageID, "expense_id", expense.ID, "error", err)
	}
	return nil
}

// consume marks a message read without creating an expense.
func (i *Ingestor) consume(ctx context.Context, messageID string) error {
	if err := i.inbox.MarkRead(ctx, messageID); err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return nil
}

func expenseDate(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.Format("2006-01-02")
}
