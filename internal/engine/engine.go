// Package engine owns the expense lifecycle: submission, the
// pending -> approved/rejected state machine, and derived statistics.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/quillhq/expenseflow/internal/models"
	"github.com/quillhq/expenseflow/internal/store"
)

// Dispatcher fans a lifecycle transition out to the downstream sinks. It
// never returns an error: sink failures are caught and logged at the
// dispatch boundary and recovered later by reconciliation.
type Dispatcher interface {
	ExpenseCreated(ctx context.Context, expense *models.Expense)
	ExpenseDecided(ctx context.Context, expense *models.Expense)
}

// Engine implements the expense lifecycle over a record store.
type Engine struct {
	store      store.Store
	dispatcher Dispatcher

	now func() time.Time
}

// New creates an Engine. The dispatcher may be nil, in which case
// transitions are persisted without fan-out (used by some tests).
func New(s store.Store, d Dispatcher) *Engine {
	return &Engine{
		store:      s,
		dispatcher: d,
		now:        time.Now,
	}
}

// SubmitRequest carries the fields of a new expense submission.
//
// Either Amount is set, or the mileage triple (DistanceMiles, StartLocation,
// EndLocation) is set and the amount is derived from the configured rate.
type SubmitRequest struct {
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description"`
	ExpenseDate string `json:"expense_date"`

	DistanceMiles float64 `json:"distance_miles,omitempty"`
	StartLocation string  `json:"start_location,omitempty"`
	EndLocation   string  `json:"end_location,omitempty"`

	ReceiptURL      string `json:"receipt_url,omitempty"`
	ReceiptFileName string `json:"receipt_file_name,omitempty"`

	// Provenance, set by the ingestion path.
	EmailID          string `json:"-"`
	FormSubmissionID string `json:"-"`
}

// Submit validates the request, persists a new pending expense with a
// snapshot of the submitter, and triggers the "created" fan-out. Dispatch
// failures do not roll back the creation.
func (e *Engine) Submit(ctx context.Context, submitter *models.User, req SubmitRequest) (*models.Expense, error) {
	amountCents, err := e.resolveAmount(ctx, req)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, &ValidationError{Field: "description", Reason: "must not be empty"}
	}
	if req.Category == "" {
		return nil, &ValidationError{Field: "category", Reason: "must be present"}
	}
	if req.ExpenseDate == "" {
		return nil, &ValidationError{Field: "expense_date", Reason: "must be present"}
	}
	if _, err := time.Parse("2006-01-02", req.ExpenseDate); err != nil {
		return nil, &ValidationError{Field: "expense_date", Reason: "must be a calendar date (YYYY-MM-DD)"}
	}

	expense := &models.Expense{
		EmployeeID:    submitter.ID,
		EmployeeName:  submitter.Name,
		EmployeeEmail: submitter.Email,
		Department:    submitter.Department,

		AmountCents:    amountCents,
		Category:       req.Category,
		Description:    req.Description,
		ExpenseDate:    req.ExpenseDate,
		SubmissionDate: e.now(),

		Status:           models.StatusPending,
		EmailID:          req.EmailID,
		FormSubmissionID: req.FormSubmissionID,
		NotificationSent: false,
	}
	if req.ReceiptURL != "" {
		expense.ReceiptURL = &req.ReceiptURL
	}
	if req.ReceiptFileName != "" {
		expense.ReceiptFileName = &req.ReceiptFileName
	}

	created, err := e.store.CreateExpense(ctx, expense)
	if err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	if e.dispatcher != nil {
		e.dispatcher.ExpenseCreated(ctx, created)
	}

	return created, nil
}

// resolveAmount returns the submission amount in cents, deriving it from
// mileage when no direct amount was given.
func (e *Engine) resolveAmount(ctx context.Context, req SubmitRequest) (int64, error) {
	if req.Amount != "" {
		cents, err := models.ParseAmountCents(req.Amount)
		if err != nil {
			return 0, &ValidationError{Field: "amount", Reason: err.Error()}
		}
		if cents <= 0 {
			return 0, &ValidationError{Field: "amount", Reason: "must be greater than zero"}
		}
		return cents, nil
	}

	// Mileage submission: distance, start and end must all be present.
	if req.StartLocation == "" || req.EndLocation == "" {
		return 0, &ValidationError{Field: "amount", Reason: "either amount or distance with start and end locations is required"}
	}
	if req.DistanceMiles < 0 {
		return 0, &ValidationError{Field: "distance_miles", Reason: "must not be negative"}
	}

	rate, err := e.MileageRate(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve mileage amount: %w", err)
	}
	return CalculateMileageAmount(req.DistanceMiles, rate), nil
}

// Decide moves a pending expense to approved or rejected. The decider must
// hold the approver or admin role and the expense must still be pending;
// otherwise the record is left unchanged and a typed error is returned.
func (e *Engine) Decide(ctx context.Context, id int64, verdict models.Status, decider *models.User, note string) (*models.Expense, error) {
	if verdict != models.StatusApproved && verdict != models.StatusRejected {
		return nil, &ValidationError{Field: "verdict", Reason: "must be approved or rejected"}
	}
	if !decider.Role.CanDecide() {
		return nil, &PermissionError{UserID: decider.ID, Role: decider.Role}
	}

	expense, err := e.store.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense.Status != models.StatusPending {
		return nil, &InvalidTransitionError{ExpenseID: id, Status: expense.Status}
	}

	approvalDate := e.now()
	notificationSent := false
	upd := models.ExpenseUpdate{
		Status:           &verdict,
		ApprovedBy:       &decider.ID,
		ApprovedByName:   &decider.Name,
		ApprovalDate:     &approvalDate,
		NotificationSent: &notificationSent,
	}
	if note != "" {
		upd.ApprovalNote = &note
	}

	updated, err := e.store.UpdateExpense(ctx, id, upd)
	if err != nil {
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}

	if e.dispatcher != nil {
		e.dispatcher.ExpenseDecided(ctx, updated)
	}

	return updated, nil
}

// AttachReceipt records a hosted receipt on an existing expense.
func (e *Engine) AttachReceipt(ctx context.Context, id int64, url, fileName string) (*models.Expense, error) {
	if url == "" {
		return nil, &ValidationError{Field: "receipt_url", Reason: "must not be empty"}
	}
	return e.store.UpdateExpense(ctx, id, models.ExpenseUpdate{
		ReceiptURL:      &url,
		ReceiptFileName: &fileName,
	})
}

// Stats summarizes the expense table.
type Stats struct {
	TotalCount    int   `json:"total_count"`
	PendingCount  int   `json:"pending_count"`
	ApprovedCount int   `json:"approved_count"`
	RejectedCount int   `json:"rejected_count"`
	// TotalApprovedCents is the sum of amounts over approved expenses only.
	TotalApprovedCents int64 `json:"total_approved_cents"`
	PendingCents       int64 `json:"pending_cents"`
}

// Stats computes per-status counts and amount totals over all expenses.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	expenses, err := e.store.ListExpenses(ctx, store.ExpenseFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	stats := &Stats{TotalCount: len(expenses)}
	for _, expense := range expenses {
		switch expense.Status {
		case models.StatusPending:
			stats.PendingCount++
			stats.PendingCents += expense.AmountCents
		case models.StatusApproved:
			stats.ApprovedCount++
			stats.TotalApprovedCents += expense.AmountCents
		case models.StatusRejected:
			stats.RejectedCount++
		}
	}
	return stats, nil
}
