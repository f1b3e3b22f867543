package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/quillhq/expenseflow/internal/models"
)

// SQLiteStore is the durable Store implementation backed by SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// OpenSQLite opens a SQLite-backed store at the given path. It enables WAL
// mode for better concurrency and initializes the schema.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", dbPath)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateUser creates a new user, assigning its id.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (email, name, department, role, active)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		user.Email, user.Name, user.Department, string(user.Role), user.Active)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get user id: %w", err)
	}

	return s.GetUser(ctx, id)
}

const userColumns = `id, email, name, department, role, active, created_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Department, &role, &u.Active, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return &u, nil
}

// GetUser retrieves a user by id.
func (s *SQLiteStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	u, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetUserByEmail retrieves a user by its unique email. The comparison is
// case-sensitive, matching registration.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`

	u, err := scanUser(s.db.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

// ListUsers retrieves all users ordered by id.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const expenseColumns = `id, employee_id, employee_name, employee_email, department,
	amount_cents, category, description, expense_date, submission_date,
	status, approved_by, approved_by_name, approval_date, approval_note,
	receipt_url, receipt_file_name, email_id, form_submission_id,
	sheets_row_number, notification_sent`

func scanExpense(row interface{ Scan(...interface{}) error }) (*models.Expense, error) {
	var e models.Expense
	var status string
	var approvedBy sql.NullInt64
	var approvedByName, approvalNote, receiptURL, receiptFileName sql.NullString
	var approvalDate sql.NullTime

	err := row.Scan(
		&e.ID, &e.EmployeeID, &e.EmployeeName, &e.EmployeeEmail, &e.Department,
		&e.AmountCents, &e.Category, &e.Description, &e.ExpenseDate, &e.SubmissionDate,
		&status, &approvedBy, &approvedByName, &approvalDate, &approvalNote,
		&receiptURL, &receiptFileName, &e.EmailID, &e.FormSubmissionID,
		&e.SheetsRowNumber, &e.NotificationSent,
	)
	if err != nil {
		return nil, err
	}

	e.Status = models.Status(status)
	if approvedBy.Valid {
		e.ApprovedBy = &approvedBy.Int64
	}
	if approvedByName.Valid {
		e.ApprovedByName = &approvedByName.String
	}
	if approvalDate.Valid {
		e.ApprovalDate = &approvalDate.Time
	}
	if approvalNote.Valid {
		e.ApprovalNote = &approvalNote.String
	}
	if receiptURL.Valid {
		e.ReceiptURL = &receiptURL.String
	}
	if receiptFileName.Valid {
		e.ReceiptFileName = &receiptFileName.String
	}
	return &e, nil
}

// CreateExpense creates a new expense, assigning its id.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) (*models.Expense, error) {
	query := `
		INSERT INTO expenses (
			employee_id, employee_name, employee_email, department,
			amount_cents, category, description, expense_date, submission_date,
			status, email_id, form_submission_id, sheets_row_number, notification_sent
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		expense.EmployeeID, expense.EmployeeName, expense.EmployeeEmail, expense.Department,
		expense.AmountCents, expense.Category, expense.Description,
		expense.ExpenseDate, expense.SubmissionDate,
		string(expense.Status), expense.EmailID, expense.FormSubmissionID,
		expense.SheetsRowNumber, expense.NotificationSent,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get expense id: %w", err)
	}

	return s.GetExpense(ctx, id)
}

// GetExpense retrieves an expense by id.
func (s *SQLiteStore) GetExpense(ctx context.Context, id int64) (*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`

	e, err := scanExpense(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return e, nil
}

// ListExpenses retrieves expenses matching the filter, most recent first.
func (s *SQLiteStore) ListExpenses(ctx context.Context, filter ExpenseFilter) ([]*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses`

	var conds []string
	var args []interface{}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.EmployeeID != 0 {
		conds = append(conds, "employee_id = ?")
		args = append(args, filter.EmployeeID)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY submission_date DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// UpdateExpense merges the given fields into an existing expense.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, id int64, upd models.ExpenseUpdate) (*models.Expense, error) {
	var sets []string
	var args []interface{}

	if upd.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*upd.Status))
	}
	if upd.ApprovedBy != nil {
		sets = append(sets, "approved_by = ?")
		args = append(args, *upd.ApprovedBy)
	}
	if upd.ApprovedByName != nil {
		sets = append(sets, "approved_by_name = ?")
		args = append(args, *upd.ApprovedByName)
	}
	if upd.ApprovalDate != nil {
		sets = append(sets, "approval_date = ?")
		args = append(args, *upd.ApprovalDate)
	}
	if upd.ApprovalNote != nil {
		sets = append(sets, "approval_note = ?")
		args = append(args, *upd.ApprovalNote)
	}
	if upd.ReceiptURL != nil {
		sets = append(sets, "receipt_url = ?")
		args = append(args, *upd.ReceiptURL)
	}
	if upd.ReceiptFileName != nil {
		sets = append(sets, "receipt_file_name = ?")
		args = append(args, *upd.ReceiptFileName)
	}
	if upd.SheetsRowNumber != nil {
		sets = append(sets, "sheets_row_number = ?")
		args = append(args, *upd.SheetsRowNumber)
	}
	if upd.NotificationSent != nil {
		sets = append(sets, "notification_sent = ?")
		args = append(args, *upd.NotificationSent)
	}

	if len(sets) == 0 {
		return s.GetExpense(ctx, id)
	}

	query := "UPDATE expenses SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	args = append(args, id)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return s.GetExpense(ctx, id)
}

// GetSetting retrieves a setting value by key.
func (s *SQLiteStore) GetSetting(ctx context.Context, key string) (string, error) {
	query := `SELECT value FROM system_settings WHERE key = ?`

	var value string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting: %w", err)
	}
	return value, nil
}

// SetSetting upserts a setting.
func (s *SQLiteStore) SetSetting(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO system_settings (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`

	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}
