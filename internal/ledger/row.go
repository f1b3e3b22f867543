package ledger

import (
	"time"

	"github.com/quillhq/expenseflow/internal/models"
)

// expenseRow maps an expense to the fixed ledger column order:
// id, employeeName, employeeEmail, department, amount, description,
// category, expenseDate, submissionDate, status, approvedByName,
// approvalDate, approvalNote, receiptUrl, sourceId.
func expenseRow(e *models.Expense) []interface{} {
	return []interface{}{
		e.ID,
		e.EmployeeName,
		e.EmployeeEmail,
		e.Department,
		models.FormatCents(e.AmountCents),
		e.Description,
		e.Category,
		e.ExpenseDate,
		e.SubmissionDate.Format(time.RFC3339),
		string(e.Status),
		deref(e.ApprovedByName),
		formatTime(e.ApprovalDate),
		deref(e.ApprovalNote),
		deref(e.ReceiptURL),
		e.EmailID,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
