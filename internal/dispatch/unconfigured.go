package dispatch

import (
	"context"
	"errors"

	"github.com/quillhq/expenseflow/internal/models"
)

// ErrSinkUnconfigured is returned by the placeholder sinks used when no
// external collaborator is configured. Records stay unsynced until a real
// sink is configured and reconciliation runs.
var ErrSinkUnconfigured = errors.New("sink not configured")

// UnconfiguredLedger fails every call with ErrSinkUnconfigured.
type UnconfiguredLedger struct{}

func (UnconfiguredLedger) Append(ctx context.Context, expense *models.Expense) (int64, error) {
	return 0, ErrSinkUnconfigured
}

func (UnconfiguredLedger) Update(ctx context.Context, rowNumber int64, expense *models.Expense) error {
	return ErrSinkUnconfigured
}

// UnconfiguredNotifier fails every call with ErrSinkUnconfigured.
type UnconfiguredNotifier struct{}

func (UnconfiguredNotifier) Send(ctx context.Context, to, subject, body string) error {
	return ErrSinkUnconfigured
}
