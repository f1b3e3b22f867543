package engine

import (
	"fmt"

	"github.com/quillhq/expenseflow/internal/models"
)

// ValidationError reports a malformed or missing submission field. It is
// returned before any store write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// PermissionError reports a role check failure on decide.
type PermissionError struct {
	UserID int64
	Role   models.Role
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %d with role %q is not allowed to decide expenses", e.UserID, e.Role)
}

// InvalidTransitionError reports an attempt to decide an expense that is no
// longer pending. Re-deciding is a hard error; the record is left unchanged.
type InvalidTransitionError struct {
	ExpenseID int64
	Status    models.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("expense %d is already %s", e.ExpenseID, e.Status)
}
