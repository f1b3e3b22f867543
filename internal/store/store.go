// Package store provides the record store for users, expenses and system
// settings, with interchangeable in-memory and SQLite backends.
package store

import (
	"context"
	"errors"

	"github.com/quillhq/expenseflow/internal/models"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when creating a user with an email that
	// is already registered. Email equality is case-sensitive.
	ErrDuplicateEmail = errors.New("email already registered")
)

// ExpenseFilter narrows expense listings. Zero values mean "no filter".
type ExpenseFilter struct {
	Status     models.Status
	EmployeeID int64
}

// Store persists users, expenses and settings.
//
// List results are ordered by submission date descending, ties broken by id
// descending, so filtered and unfiltered listings agree on relative order.
type Store interface {
	// Users.
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)

	// Expenses.
	CreateExpense(ctx context.Context, expense *models.Expense) (*models.Expense, error)
	GetExpense(ctx context.Context, id int64) (*models.Expense, error)
	ListExpenses(ctx context.Context, filter ExpenseFilter) ([]*models.Expense, error)
	UpdateExpense(ctx context.Context, id int64, upd models.ExpenseUpdate) (*models.Expense, error)

	// Settings.
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	Close() error
}

// applyUpdate merges a partial update into an expense. Shared by backends.
func applyUpdate(e *models.Expense, upd models.ExpenseUpdate) {
	if upd.Status != nil {
		e.Status = *upd.Status
	}
	if upd.ApprovedBy != nil {
		e.ApprovedBy = upd.ApprovedBy
	}
	if upd.ApprovedByName != nil {
		e.ApprovedByName = upd.ApprovedByName
	}
	if upd.ApprovalDate != nil {
		e.ApprovalDate = upd.ApprovalDate
	}
	if upd.ApprovalNote != nil {
		e.ApprovalNote = upd.ApprovalNote
	}
	if upd.ReceiptURL != nil {
		e.ReceiptURL = upd.ReceiptURL
	}
	if upd.ReceiptFileName != nil {
		e.ReceiptFileName = upd.ReceiptFileName
	}
	if upd.SheetsRowNumber != nil {
		e.SheetsRowNumber = *upd.SheetsRowNumber
	}
	if upd.NotificationSent != nil {
		e.NotificationSent = *upd.NotificationSent
	}
}

// matches reports whether an expense passes the filter.
func (f ExpenseFilter) matches(e *models.Expense) bool {
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.EmployeeID != 0 && e.EmployeeID != f.EmployeeID {
		return false
	}
	return true
}
