package dispatch

import (
	"fmt"
	"strings"

	"github.com/quillhq/expenseflow/internal/models"
)

// submissionMessage builds the notification sent to approvers when a new
// expense is submitted.
func submissionMessage(e *models.Expense) (subject, body string) {
	subject = fmt.Sprintf("New expense #%d from %s: %s", e.ID, e.EmployeeName, e.FormattedAmount())

	var b strings.Builder
	fmt.Fprintf(&b, "%s submitted a new expense for review.\n\n", e.EmployeeName)
	fmt.Fprintf(&b, "Amount:       %s\n", e.FormattedAmount())
	fmt.Fprintf(&b, "Category:     %s\n", e.Category)
	fmt.Fprintf(&b, "Description:  %s\n", e.Description)
	fmt.Fprintf(&b, "Expense date: %s\n", e.ExpenseDate)
	if e.ReceiptURL != nil {
		fmt.Fprintf(&b, "Receipt:      %s\n", *e.ReceiptURL)
	}
	body = b.String()
	return subject, body
}

// decisionMessage builds the verdict notification sent to the submitter.
func decisionMessage(e *models.Expense) (subject, body string) {
	verb := "approved"
	if e.Status == models.StatusRejected {
		verb = "rejected"
	}
	subject = fmt.Sprintf("Your expense #%d was %s", e.ID, verb)

	var b strings.Builder
	fmt.Fprintf(&b, "Your expense of %s (%s) was %s", e.FormattedAmount(), e.Description, verb)
	if e.ApprovedByName != nil {
		fmt.Fprintf(&b, " by %s", *e.ApprovedByName)
	}
	b.WriteString(".\n")
	if e.ApprovalNote != nil && *e.ApprovalNote != "" {
		fmt.Fprintf(&b, "\nNote: %s\n", *e.ApprovalNote)
	}
	body = b.String()
	return subject, body
}
