package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, expected 8080", cfg.Server.Port)
	}
	if cfg.Store.Driver != "sqlite" {
		t.Errorf("Store.Driver = %q, expected sqlite", cfg.Store.Driver)
	}
	if cfg.Auth.Driver != "memory" {
		t.Errorf("Auth.Driver = %q, expected memory", cfg.Auth.Driver)
	}
	if cfg.Google.SheetName != "Expenses" {
		t.Errorf("Google.SheetName = %q, expected Expenses", cfg.Google.SheetName)
	}
	if cfg.GoogleConfigured() {
		t.Error("GoogleConfigured() = true without spreadsheet and sender")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("LEDGER_SPREADSHEET_ID", "sheet-123")
	t.Setenv("NOTIFY_SENDER_ADDRESS", "expenses@example.com")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %q, expected 9090", cfg.Server.Port)
	}
	if cfg.Store.Driver != "memory" {
		t.Errorf("Store.Driver = %q, expected memory", cfg.Store.Driver)
	}
	if !cfg.Debug {
		t.Error("Debug = false, expected true")
	}
	if !cfg.GoogleConfigured() {
		t.Error("GoogleConfigured() = false with spreadsheet and sender set")
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "PORT=7070\nLEDGER_SHEET_NAME=Ledger\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("Server.Port = %q, expected 7070", cfg.Server.Port)
	}
	if cfg.Google.SheetName != "Ledger" {
		t.Errorf("Google.SheetName = %q, expected Ledger", cfg.Google.SheetName)
	}
}

func TestLoadEnvFileMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("Load with a missing .env path = nil, expected error")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate("google.spreadsheetId", "ingest.submissionAddress"); err == nil {
		t.Error("Validate on empty config = nil, expected error")
	}

	cfg.Google.SpreadsheetID = "sheet-123"
	cfg.Ingest.SubmissionAddress = "expenses@example.com"
	if err := cfg.Validate("google.spreadsheetId", "ingest.submissionAddress"); err != nil {
		t.Errorf("Validate = %v, expected nil", err)
	}
}
