package store

// Schema defines the SQL statements to create database tables.
const Schema = `
-- Users table
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    email TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    department TEXT NOT NULL DEFAULT '',
    role TEXT NOT NULL DEFAULT 'employee',
    active INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Expenses table
-- employee_* columns are a snapshot taken at submission time.
CREATE TABLE IF NOT EXISTS expenses (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    employee_id INTEGER NOT NULL,
    employee_name TEXT NOT NULL,
    employee_email TEXT NOT NULL,
    department TEXT NOT NULL DEFAULT '',
    amount_cents INTEGER NOT NULL,
    category TEXT NOT NULL,
    description TEXT NOT NULL,
    expense_date TEXT NOT NULL,          -- YYYY-MM-DD
    submission_date TIMESTAMP NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    approved_by INTEGER,
    approved_by_name TEXT,
    approval_date TIMESTAMP,
    approval_note TEXT,
    receipt_url TEXT,
    receipt_file_name TEXT,
    email_id TEXT NOT NULL DEFAULT '',
    form_submission_id TEXT NOT NULL DEFAULT '',
    sheets_row_number INTEGER NOT NULL DEFAULT 0,
    notification_sent INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_expenses_status
    ON expenses(status);

CREATE INDEX IF NOT EXISTS idx_expenses_employee
    ON expenses(employee_id);

CREATE INDEX IF NOT EXISTS idx_expenses_submission_date
    ON expenses(submission_date);

-- System settings table
-- Stores key-value tunables such as the mileage rate.
CREATE TABLE IF NOT EXISTS system_settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`
