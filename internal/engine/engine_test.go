package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/quillhq/expenseflow/internal/models"
	"github.com/quillhq/expenseflow/internal/store"
)

// recordingDispatcher records which fan-out hooks fired.
type recordingDispatcher struct {
	created []int64
	decided []int64
}

func (d *recordingDispatcher) ExpenseCreated(ctx context.Context, e *models.Expense) {
	d.created = append(d.created, e.ID)
}

func (d *recordingDispatcher) ExpenseDecided(ctx context.Context, e *models.Expense) {
	d.decided = append(d.decided, e.ID)
}

func newTestUser(t *testing.T, s store.Store, email string, role models.Role) *models.User {
	t.Helper()
	user, err := s.CreateUser(context.Background(), &models.User{
		Email:      email,
		Name:       "Sarah Miller",
		Department: "Engineering",
		Role:       role,
		Active:     true,
	})
	if err != nil {
		t.Fatalf("CreateUser(%q) returned error: %v", email, err)
	}
	return user
}

func TestSubmit(t *testing.T) {
	s := store.NewMemoryStore()
	d := &recordingDispatcher{}
	eng := New(s, d)
	ctx := context.Background()

	submitter := newTestUser(t, s, "sarah@example.com", models.RoleEmployee)

	expense, err := eng.Submit(ctx, submitter, SubmitRequest{
		Amount:      "156.50",
		Category:    "Meals & Entertainment",
		Description: "Team lunch",
		ExpenseDate: "2025-06-23",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	if expense.ID == 0 {
		t.Error("Submit did not assign an id")
	}
	if expense.Status != models.StatusPending {
		t.Errorf("Status = %q, expected %q", expense.Status, models.StatusPending)
	}
	if expense.AmountCents != 15650 {
		t.Errorf("AmountCents = %d, expected 15650", expense.AmountCents)
	}
	if expense.FormattedAmount() != "$156.50" {
		t.Errorf("FormattedAmount = %q, expected %q", expense.FormattedAmount(), "$156.50")
	}
	if expense.EmployeeName != "Sarah Miller" || expense.EmployeeEmail != "sarah@example.com" {
		t.Errorf("submitter snapshot = %q/%q, expected Sarah Miller/sarah@example.com",
			expense.EmployeeName, expense.EmployeeEmail)
	}
	if expense.Department != "Engineering" {
		t.Errorf("Department = %q, expected Engineering", expense.Department)
	}
	if expense.ApprovedBy != nil || expense.ApprovedByName != nil || expense.ApprovalDate != nil || expense.ApprovalNote != nil {
		t.Error("decision fields set on a fresh submission")
	}
	if expense.NotificationSent {
		t.Error("NotificationSent = true on a fresh submission")
	}
	if expense.SubmissionDate.IsZero() {
		t.Error("SubmissionDate not set")
	}

	if len(d.created) != 1 || d.created[0] != expense.ID {
		t.Errorf("created fan-out = %v, expected [%d]", d.created, expense.ID)
	}
}

func TestSubmitAssignsUniqueIDs(t *testing.T) {
	s := store.NewMemoryStore()
	eng := New(s, nil)
	ctx := context.Background()

	submitter := newTestUser(t, s, "sarah@example.com", models.RoleEmployee)

	seen := make(map[int64]bool)
	for i := 0; i < 5; i++ {
		expense, err := eng.Submit(ctx, submitter, SubmitRequest{
			Amount:      "10.00",
			Category:    "Other",
			Description: "Repeat submission",
			ExpenseDate: "2025-06-23",
		})
		if err != nil {
			t.Fatalf("Submit returned error: %v", err)
		}
		if seen[expense.ID] {
			t.Fatalf("duplicate expense id %d", expense.ID)
		}
		seen[expense.ID] = true
	}
}

func TestSubmitValidation(t *testing.T) {
	s := store.NewMemoryStore()
	eng := New(s, nil)
	ctx := context.Background()

	submitter := newTestUser(t, s, "sarah@example.com", models.RoleEmployee)

	valid := SubmitRequest{
		Amount:      "156.50",
		Category:    "Meals & Entertainment",
		Description: "Team lunch",
		ExpenseDate: "2025-06-23",
	}

	tests := []struct {
		name      string
		mutate    func(*SubmitRequest)
		wantField string
	}{
		{
			name:      "empty amount without mileage",
			mutate:    func(r *SubmitRequest) { r.Amount = "" },
			wantField: "amount",
		},
		{
			name:      "zero amount",
			mutate:    func(r *SubmitRequest) { r.Amount = "0" },
			wantField: "amount",
		},
		{
			name:      "negative amount",
			mutate:    func(r *SubmitRequest) { r.Amount = "-5.00" },
			wantField: "amount",
		},
		{
			name:      "unparseable amount",
			mutate:    func(r *SubmitRequest) { r.Amount = "lots" },
			wantField: "amount",
		},
		{
			name:      "blank description",
			mutate:    func(r *SubmitRequest) { r.Description = "   " },
			wantField: "description",
		},
		{
			name:      "missing category",
			mutate:    func(r *SubmitRequest) { r.Category = "" },
			wantField: "category",
		},
		{
			name:      "missing expense date",
			mutate:    func(r *SubmitRequest) { r.ExpenseDate = "" },
			wantField: "expense_date",
		},
		{
			name:      "malformed expense date",
			mutate:    func(r *SubmitRequest) { r.ExpenseDate = "June 23rd" },
			wantField: "expense_date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			_, err := eng.Submit(ctx, submitter, req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Submit = %v, expected ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("ValidationError.Field = %q, expected %q", verr.Field, tt.wantField)
			}
		})
	}

	// Nothing should have been persisted.
	expenses, err := s.ListExpenses(ctx, store.ExpenseFilter{})
	if err != nil {
		t.Fatalf("ListExpenses returned error: %v", err)
	}
	if len(expenses) != 0 {
		t.Errorf("store holds %d expenses after failed submissions, expected 0", len(expenses))
	}
}

func TestSubmitMileage(t *testing.T) {
	s := store.NewMemoryStore()
	eng := New(s, nil)
	ctx := context.Background()

	submitter := newTestUser(t, s, "sarah@example.com", models.RoleEmployee)

	expense, err := eng.Submit(ctx, submitter, SubmitRequest{
		Category:      "Mileage",
		Description:   "Client site visit",
		ExpenseDate:   "2025-06-23",
		DistanceMiles: 100,
		StartLocation: "Office",
		EndLocation:   "Client HQ",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if expense.AmountCents != 7000 {
		t.Errorf("AmountCents = %d, expected 7000 at the default rate", expense.AmountCents)
	}
}

func TestSubmitMileageZeroDistance(t *testing.T) {
	s := store.NewMemoryStore()
	eng := New(s, nil)
	ctx := context.Background()

	submitter := newTestUser(t, s, "sarah@example.com", models.RoleEmployee)

	expense, err := eng.Submit(ctx, submitter, SubmitRequest{
		Category:      "Mileage",
		Description:   "Round trip cancelled at the door",
		ExpenseDate:   "2025-06-23",
		DistanceMiles: 0,
		StartLocation: "Office",
		EndLocation:   "Office",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if expense.AmountCents != 0 {
		t.Errorf("AmountCents = %d, expected 0", expense.AmountCents)
	}
}

func TestSubmitMileageMissingLocations(t *testing.T) {
	s := store.NewMemoryStore()
	eng := New(s, nil)
	ctx := context.Background()

	submitter := newTestUser(t, s, "sarah@example.com", models.RoleEmployee)

	_, err := eng.Submit(ctx, submitter, SubmitRequest{
		Category:      "Mileage",
		Description:   "Client site visit",
		ExpenseDate:   "2025-06-23",
		DistanceMiles: 100,
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Submit = %v, expected ValidationError", err)
	}
}

func TestDecideApprove(t *testing.T) {
	s := store.NewMemoryStore()
	d := &recordingDispatcher{}
	eng := New(s, d)
	ctx := context.Background()

	submitter := newTestUser(t, s, "sarah@example.com", models.RoleEmployee)
	approver := newTestUser(t, s, "boss@example.com", models.RoleApprover)

	expense, err := eng.Submit(ctx, submitter, SubmitRequest{
		Amount:      "156.50",
		Category:    "Meals & Entertainment",
		Description: "Team lunch",
		ExpenseDate: "2025-06-23",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	decided, err := eng.Decide(ctx, expense.ID, models.StatusApproved, approver, "Approved, within policy")
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}

	if decided.Status != models.StatusApproved {
		t.Errorf("Status = %q, expected %q", decided.Status, models.StatusApproved)
	}
	if decided.ApprovedBy == nil || *decided.ApprovedBy != approver.ID {
		t.Errorf("ApprovedBy = %v, expected %d", decided.ApprovedBy, approver.ID)
	}
	if decided.ApprovedByName == nil || *decided.ApprovedByName != approver.Name {
		t.Errorf("ApprovedByName = %v, expected %q", decided.ApprovedByName, approver.Name)
	}
	if decided.ApprovalDate == nil {
		t.Error("ApprovalDate not set")
	}
	if decided.ApprovalNote == nil || *decided.ApprovalNote != "Approved, within policy" {
		t.Errorf("ApprovalNote = %v, expected the decision note", decided.ApprovalNote)
	}
	if decided.NotificationSent {
		t.Error("NotificationSent not cleared on transition")
	}

	if len(d.decided) != 1 || d.decided[0] != expense.ID {
		t.Errorf("decided fan-out = %v, expected [%d]", d.decided, expense.ID)
	}
}

func TestDecideRejectWithoutNote(t *testing.T) {
	s := store.NewMemoryStore()
	eng := New(s, nil)
	ctx := context.Background()

	submitter := newTestUser(t, s, "sarah@example.com", models.RoleEmployee)
	admin := newTestUser(t, s, "admin@example.com", models.RoleAdmin)

	expense, err := eng.Submit(ctx, submitter, SubmitRequest{
		Amount:      "42.00",
		Category:    "Other",
		Description: "Mystery charge",
		ExpenseDate: "2025-06-23",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	decided, err := eng.Decide(ctx, expense.ID, models.StatusRejected, admin, "")
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}
	if decided.Status != models.StatusRejected {
		t.Errorf("Status = %q, expected %q", decided.Status, models.StatusRejected)
	}
	if decided.ApprovalNote != nil {
		t.Errorf("ApprovalNote = %q, expected nil without a note", *decided.ApprovalNote)
	}
}

func TestDecideTwiceFails(t *testing.T) {
	s := store.NewMemoryStore()
	eng := New(s, nil)
	ctx := context.Background()

	submitter := newTestUser(t, s, "sarah@example.com", models.RoleEmployee)
	approver := newTestUser(t, s, "boss@example.com", models.RoleApprover)

	expense, err := eng.Submit(ctx, submitter, SubmitRequest{
		Amount:      "156.50",
		Category:    "Meals & Entertainment",
		Description: "Team lunch",
		ExpenseDate: "2025-06-23",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	if _, err := eng.Decide(ctx, expense.ID, models.StatusApproved, approver, ""); err != nil {
		t.Fatalf("first Decide returned error: %v", err)
	}

	_, err = eng.Decide(ctx, expense.ID, models.StatusRejected, approver, "")
	var terr *InvalidTransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("second Decide = %v, expected InvalidTransitionError", err)
	}
	if terr.Status != models.StatusApproved {
		t.Errorf("InvalidTransitionError.Status = %q, expected %q", terr.Status, models.StatusApproved)
	}

	// The first decision must stand.
	got, err := s.GetExpense(ctx, expense.ID)
	if err != nil {
		t.Fatalf("GetExpense returned error: %v", err)
	}
	if got.Status != models.StatusApproved {
		t.Errorf("Status after rejected re-decision = %q, expected %q", got.Status, models.StatusApproved)
	}
}

func TestDecideRequiresApproverRole(t *testing.T) {
	s := store.NewMemoryStore()
	eng := New(s, nil)
	ctx := context.Background()

	submitter := newTestUser(t, s, "sarah@example.com", models.RoleEmployee)
	coworker := newTestUser(t, s, "coworker@example.com", models.RoleEmployee)

	expense, err := eng.Submit(ctx, submitter, SubmitRequest{
		Amount:      "156.50",
		Category:    "Meals & Entertainment",
		Description: "Team lunch",
		ExpenseDate: "2025-06-23",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	_, err = eng.Decide(ctx, expense.ID, models.StatusApproved, coworker, "")
	var perr *PermissionError
	if !errors.As(err, &perr) {
		t.Fatalf("Decide by employee = %v, expected PermissionError", err)
	}

	got, err := s.GetExpense(ctx, expense.ID)
	if err != nil {
		t.Fatalf("GetExpense returned error: %v", err)
	}
	if got.Status != models.StatusPending {
		t.Errorf("Status after denied decision = %q, expected %q", got.Status, models.StatusPending)
	}
}

func TestDecideInvalidVerdict(t *testing.T) {
	s := store.NewMemoryStore()
	eng := New(s, nil)
	ctx := context.Background()

	approver := newTestUser(t, s, "boss@example.com", models.RoleApprover)

	_, err := eng.Decide(ctx, 1, models.StatusPending, approver, "")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Decide with pending verdict = %v, expected ValidationError", err)
	}
}

func TestDecideMissingExpense(t *testing.T) {
	s := store.NewMemoryStore()
	eng := New(s, nil)

	approver := newTestUser(t, s, "boss@example.com", models.RoleApprover)

	_, err := eng.Decide(context.Background(), 9999, models.StatusApproved, approver, "")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Decide on missing expense = %v, expected ErrNotFound", err)
	}
}

func TestAttachReceipt(t *testing.T) {
	s := store.NewMemoryStore()
	eng := New(s, nil)
	ctx := context.Background()

	submitter := newTestUser(t, s, "sarah@example.com", models.RoleEmployee)

	expense, err := eng.Submit(ctx, submitter, SubmitRequest{
		Amount:      "42.00",
		Category:    "Other",
		Description: "Parking",
		ExpenseDate: "2025-06-23",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	updated, err := eng.AttachReceipt(ctx, expense.ID, "https://example.com/receipt.pdf", "receipt.pdf")
	if err != nil {
		t.Fatalf("AttachReceipt returned error: %v", err)
	}
	if updated.ReceiptURL == nil || *updated.ReceiptURL != "https://example.com/receipt.pdf" {
		t.Errorf("ReceiptURL = %v, expected the hosted URL", updated.ReceiptURL)
	}
	if updated.ReceiptFileName == nil || *updated.ReceiptFileName != "receipt.pdf" {
		t.Errorf("ReceiptFileName = %v, expected receipt.pdf", updated.ReceiptFileName)
	}
}

func TestStats(t *testing.T) {
	s := store.NewMemoryStore()
	eng := New(s, nil)
	ctx := context.Background()

	submitter := newTestUser(t, s, "sarah@example.com", models.RoleEmployee)
	approver := newTestUser(t, s, "boss@example.com", models.RoleApprover)

	amounts := []string{"10.00", "20.00", "30.00"}
	var ids []int64
	for _, amount := range amounts {
		expense, err := eng.Submit(ctx, submitter, SubmitRequest{
			Amount:      amount,
			Category:    "Other",
			Description: "Stats fixture",
			ExpenseDate: "2025-06-23",
		})
		if err != nil {
			t.Fatalf("Submit returned error: %v", err)
		}
		ids = append(ids, expense.ID)
	}

	if _, err := eng.Decide(ctx, ids[0], models.StatusApproved, approver, ""); err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}
	if _, err := eng.Decide(ctx, ids[1], models.StatusRejected, approver, ""); err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}

	stats, err := eng.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}

	if stats.TotalCount != 3 {
		t.Errorf("TotalCount = %d, expected 3", stats.TotalCount)
	}
	if stats.PendingCount != 1 || stats.ApprovedCount != 1 || stats.RejectedCount != 1 {
		t.Errorf("counts = %d/%d/%d, expected 1/1/1",
			stats.PendingCount, stats.ApprovedCount, stats.RejectedCount)
	}
	if stats.TotalApprovedCents != 1000 {
		t.Errorf("TotalApprovedCents = %d, expected 1000", stats.TotalApprovedCents)
	}
	if stats.PendingCents != 3000 {
		t.Errorf("PendingCents = %d, expected 3000", stats.PendingCents)
	}
}
