// Package config provides configuration management for the expense
// workflow. It loads configuration from environment variables and .env
// files.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Auth   AuthConfig
	Google GoogleConfig
	Ingest IngestConfig
	Debug  bool
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Port string
}

// StoreConfig selects and configures the record store backend.
type StoreConfig struct {
	// Driver is "memory" or "sqlite".
	Driver string
	DBPath string
}

// AuthConfig selects and configures the credential store backend.
type AuthConfig struct {
	// Driver is "memory" or "bolt".
	Driver string
	DBPath string
}

// GoogleConfig represents Google API configuration shared by the ledger,
// notifier, inbox and hosting collaborators.
type GoogleConfig struct {
	CredentialsPath string
	TokenPath       string
	SpreadsheetID   string
	SheetName       string
	SenderAddress   string
	DriveFolderID   string
}

// IngestConfig represents inbox ingestion configuration.
type IngestConfig struct {
	// SubmissionAddress is the address employees email expenses to.
	SubmissionAddress string
	// KeywordsPath optionally points to a YAML keyword -> category map.
	KeywordsPath string
}

// Load loads configuration from environment variables. It automatically
// loads a .env file from the current directory if available. You can
// optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Store: StoreConfig{
			Driver: getEnvOrDefault("STORE_DRIVER", "sqlite"),
			DBPath: getEnvOrDefault("STORE_DB_PATH", "./data/expenseflow.db"),
		},
		Auth: AuthConfig{
			Driver: getEnvOrDefault("AUTH_DRIVER", "memory"),
			DBPath: getEnvOrDefault("AUTH_DB_PATH", "./data/credentials.db"),
		},
		Google: GoogleConfig{
			CredentialsPath: getEnvOrDefault("GOOGLE_CREDENTIALS_PATH", "credentials.json"),
			TokenPath:       getEnvOrDefault("GOOGLE_TOKEN_PATH", "./data/google-token.json"),
			SpreadsheetID:   os.Getenv("LEDGER_SPREADSHEET_ID"),
			SheetName:       getEnvOrDefault("LEDGER_SHEET_NAME", "Expenses"),
			SenderAddress:   os.Getenv("NOTIFY_SENDER_ADDRESS"),
			DriveFolderID:   os.Getenv("RECEIPTS_DRIVE_FOLDER_ID"),
		},
		Ingest: IngestConfig{
			SubmissionAddress: os.Getenv("INGEST_SUBMISSION_ADDRESS"),
			KeywordsPath:      os.Getenv("CATEGORY_KEYWORDS_PATH"),
		},
		Debug: os.Getenv("DEBUG") == "true",
	}

	return config, nil
}

// Validate checks that the named configuration keys are set.
func (c *Config) Validate(required ...string) error {
	var missing []string

	for _, key := range required {
		var value string
		switch key {
		case "store.dbPath":
			value = c.Store.DBPath
		case "google.credentialsPath":
			value = c.Google.CredentialsPath
		case "google.spreadsheetId":
			value = c.Google.SpreadsheetID
		case "google.senderAddress":
			value = c.Google.SenderAddress
		case "ingest.submissionAddress":
			value = c.Ingest.SubmissionAddress
		default:
			continue
		}

		if value == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// GoogleConfigured reports whether the Google collaborators can be built.
func (c *Config) GoogleConfigured() bool {
	return c.Google.SpreadsheetID != "" && c.Google.SenderAddress != ""
}

// getEnvOrDefault returns the value of the environment variable or a
// default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
