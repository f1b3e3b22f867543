// Package models defines the core entities of the expense workflow:
// users, expenses and system settings.
package models

import "time"

// Role is a user's permission level.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleApprover Role = "approver"
	RoleAdmin    Role = "admin"
)

// CanDecide reports whether the role is allowed to approve or reject expenses.
func (r Role) CanDecide() bool {
	return r == RoleApprover || r == RoleAdmin
}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleEmployee || r == RoleApprover || r == RoleAdmin
}

// User represents an identity record.
type User struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Department string    `json:"department,omitempty"`
	Role       Role      `json:"role"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

// Status is the lifecycle state of an expense.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether the status is one of the known states.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Expense represents a single reimbursement request.
//
// EmployeeName, EmployeeEmail and Department are snapshots taken at
// submission time. They are never re-derived from the User record, so
// historical expenses keep the submitter's details as they were.
type Expense struct {
	ID int64 `json:"id"`

	// Submitter snapshot.
	EmployeeID    int64  `json:"employee_id"`
	EmployeeName  string `json:"employee_name"`
	EmployeeEmail string `json:"employee_email"`
	Department    string `json:"department,omitempty"`

	// Financial fields. AmountCents is the amount in cents.
	AmountCents int64  `json:"amount_cents"`
	Category    string `json:"category"`
	Description string `json:"description"`
	// ExpenseDate is the calendar date of the expense (YYYY-MM-DD).
	ExpenseDate    string    `json:"expense_date"`
	SubmissionDate time.Time `json:"submission_date"`

	// Lifecycle fields. Decision fields stay nil until decided.
	Status         Status     `json:"status"`
	ApprovedBy     *int64     `json:"approved_by,omitempty"`
	ApprovedByName *string    `json:"approved_by_name,omitempty"`
	ApprovalDate   *time.Time `json:"approval_date,omitempty"`
	ApprovalNote   *string    `json:"approval_note,omitempty"`

	// Attachment.
	ReceiptURL      *string `json:"receipt_url,omitempty"`
	ReceiptFileName *string `json:"receipt_file_name,omitempty"`

	// Provenance. EmailID is set only for inbox-ingested expenses and
	// doubles as the external deduplication key. SheetsRowNumber is zero
	// until the first successful ledger append.
	EmailID          string `json:"email_id,omitempty"`
	FormSubmissionID string `json:"form_submission_id,omitempty"`
	SheetsRowNumber  int64  `json:"sheets_row_number,omitempty"`

	// NotificationSent is cleared on every status transition and set only
	// after a notification for the current status was confirmed sent.
	NotificationSent bool `json:"notification_sent"`
}

// FormattedAmount returns the amount as a display string, e.g. "$156.50".
func (e *Expense) FormattedAmount() string {
	return FormatCentsUSD(e.AmountCents)
}

// ExpenseUpdate is a partial update to an expense. Nil fields are left
// untouched by the store.
type ExpenseUpdate struct {
	Status           *Status
	ApprovedBy       *int64
	ApprovedByName   *string
	ApprovalDate     *time.Time
	ApprovalNote     *string
	ReceiptURL       *string
	ReceiptFileName  *string
	SheetsRowNumber  *int64
	NotificationSent *bool
}

// SystemSetting is a flat key-value tunable.
type SystemSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SuggestedCategories is the closed set offered to submitters. It is not
// enforced server-side: free-form categories are accepted.
var SuggestedCategories = []string{
	"Travel",
	"Meals & Entertainment",
	"Office Supplies",
	"Software & Subscriptions",
	"Mileage",
	"Training & Education",
	"Other",
}
