// Package dispatch fans expense lifecycle transitions out to the external
// ledger and the notifier. The two sinks are siblings: each is attempted
// independently, failures are logged and never propagated to the caller,
// and a failed sink leaves the record for reconciliation.
package dispatch

import (
	"context"
	"log/slog"

	"github.com/quillhq/expenseflow/internal/models"
	"github.com/quillhq/expenseflow/internal/store"
)

// Ledger is the external spreadsheet-like record of expenses.
type Ledger interface {
	// Append adds a row for the expense and returns its row reference.
	Append(ctx context.Context, expense *models.Expense) (int64, error)
	// Update rewrites the row previously returned by Append.
	Update(ctx context.Context, rowNumber int64, expense *models.Expense) error
}

// Notifier delivers email notifications. Fire-and-forget from the
// dispatcher's perspective.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Dispatcher implements the at-most-once, no-retry fan-out contract.
type Dispatcher struct {
	store    store.Store
	ledger   Ledger
	notifier Notifier
	logger   *slog.Logger
}

// New creates a Dispatcher. The logger must not be nil.
func New(s store.Store, ledger Ledger, notifier Notifier, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:    s,
		ledger:   ledger,
		notifier: notifier,
		logger:   logger,
	}
}

// ExpenseCreated appends the expense to the ledger and notifies the
// approvers. Either sink may fail without affecting the other.
func (d *Dispatcher) ExpenseCreated(ctx context.Context, expense *models.Expense) {
	d.appendToLedger(ctx, expense)
	d.notifyApprovers(ctx, expense)
}

// ExpenseDecided updates the expense's ledger row and notifies the original
// submitter of the verdict.
func (d *Dispatcher) ExpenseDecided(ctx context.Context, expense *models.Expense) {
	d.updateLedger(ctx, expense)
	d.notifySubmitter(ctx, expense)
}

// appendToLedger appends a row and records the row reference on success.
func (d *Dispatcher) appendToLedger(ctx context.Context, expense *models.Expense) {
	row, err := d.ledger.Append(ctx, expense)
	if err != nil {
		d.logger.Error("ledger append failed",
			"expense_id", expense.ID, "sink", "ledger", "error", err)
		return
	}

	if _, err := d.store.UpdateExpense(ctx, expense.ID, models.ExpenseUpdate{
		SheetsRowNumber: &row,
	}); err != nil {
		d.logger.Error("failed to record ledger row number",
			"expense_id", expense.ID, "row", row, "error", err)
		return
	}
	expense.SheetsRowNumber = row
}

// updateLedger rewrites the expense's row. When the row reference is still
// unset (the create-time append failed), it falls back to appending.
func (d *Dispatcher) updateLedger(ctx context.Context, expense *models.Expense) {
	if expense.SheetsRowNumber == 0 {
		d.appendToLedger(ctx, expense)
		return
	}

	if err := d.ledger.Update(ctx, expense.SheetsRowNumber, expense); err != nil {
		d.logger.Error("ledger update failed",
			"expense_id", expense.ID, "row", expense.SheetsRowNumber, "sink", "ledger", "error", err)
	}
}

// notifyApprovers sends the "new expense" notification to every active
// approver and admin. NotificationSent is set only if at least one
// recipient was reached and none failed.
func (d *Dispatcher) notifyApprovers(ctx context.Context, expense *models.Expense) {
	users, err := d.store.ListUsers(ctx)
	if err != nil {
		d.logger.Error("failed to list approvers",
			"expense_id", expense.ID, "sink", "notifier", "error", err)
		return
	}

	subject, body := submissionMessage(expense)
	sent := 0
	failed := 0
	for _, user := range users {
		if !user.Active || !user.Role.CanDecide() {
			continue
		}
		if err := d.notifier.Send(ctx, user.Email, subject, body); err != nil {
			failed++
			d.logger.Error("approver notification failed",
				"expense_id", expense.ID, "to", user.Email, "sink", "notifier", "error", err)
			continue
		}
		sent++
	}

	if sent > 0 && failed == 0 {
		d.markNotified(ctx, expense)
	}
}

// notifySubmitter sends the verdict notification to the submitter snapshot
// address.
func (d *Dispatcher) notifySubmitter(ctx context.Context, expense *models.Expense) {
	subject, body := decisionMessage(expense)
	if err := d.notifier.Send(ctx, expense.EmployeeEmail, subject, body); err != nil {
		d.logger.Error("submitter notification failed",
			"expense_id", expense.ID, "to", expense.EmployeeEmail, "sink", "notifier", "error", err)
		return
	}
	d.markNotified(ctx, expense)
}

func (d *Dispatcher) markNotified(ctx context.Context, expense *models.Expense) {
	sent := true
	if _, err := d.store.UpdateExpense(ctx, expense.ID, models.ExpenseUpdate{
		NotificationSent: &sent,
	}); err != nil {
		d.logger.Error("failed to mark notification sent",
			"expense_id", expense.ID, "error", err)
		return
	}
	expense.NotificationSent = true
}
