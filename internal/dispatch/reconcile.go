package dispatch

import (
	"context"
	"fmt"

	"github.com/quillhq/expenseflow/internal/models"
	"github.com/quillhq/expenseflow/internal/store"
)

// ReconcileReport summarizes a SyncUnsynced run.
type ReconcileReport struct {
	Scanned int `json:"scanned"`
	Skipped int `json:"skipped"`
	Synced  int `json:"synced"`
	Failed  int `json:"failed"`
}

// SyncUnsynced scans all expenses and re-attempts the ledger append for
// every one without a row reference. Expenses that already carry a row
// reference are skipped, so a second run is a no-op for them.
func (d *Dispatcher) SyncUnsynced(ctx context.Context) (*ReconcileReport, error) {
	expenses, err := d.store.ListExpenses(ctx, store.ExpenseFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	report := &ReconcileReport{Scanned: len(expenses)}
	for _, expense := range expenses {
		if expense.SheetsRowNumber != 0 {
			report.Skipped++
			continue
		}

		row, err := d.ledger.Append(ctx, expense)
		if err != nil {
			report.Failed++
			d.logger.Error("reconcile append failed",
				"expense_id", expense.ID, "error", err)
			continue
		}

		if _, err := d.store.UpdateExpense(ctx, expense.ID, models.ExpenseUpdate{
			SheetsRowNumber: &row,
		}); err != nil {
			report.Failed++
			d.logger.Error("reconcile failed to record row number",
				"expense_id", expense.ID, "row", row, "error", err)
			continue
		}

		report.Synced++
		d.logger.Info("reconciled expense to ledger",
			"expense_id", expense.ID, "row", row)
	}

	return report, nil
}
