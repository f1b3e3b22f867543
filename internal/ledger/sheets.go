// Package ledger implements the external expense ledger on top of Google
// Sheets.
package ledger

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/quillhq/expenseflow/internal/models"
)

// SheetsLedger appends and updates expense rows in a single spreadsheet.
type SheetsLedger struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
}

// NewSheetsLedger creates a ledger over the given spreadsheet and sheet.
func NewSheetsLedger(ctx context.Context, client *http.Client, spreadsheetID, sheetName string) (*SheetsLedger, error) {
	service, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}
	if sheetName == "" {
		sheetName = "Expenses"
	}

	return &SheetsLedger{
		service:       service,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// Append adds a row for the expense and returns the sheet row number it
// landed on.
func (l *SheetsLedger) Append(ctx context.Context, expense *models.Expense) (int64, error) {
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{expenseRow(expense)},
	}

	resp, err := l.service.Spreadsheets.Values.
		Append(l.spreadsheetID, l.sheetName+"!A:O", valueRange).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("failed to append ledger row: %w", err)
	}

	row, err := rowFromRange(resp.Updates.UpdatedRange)
	if err != nil {
		return 0, fmt.Errorf("failed to locate appended row: %w", err)
	}
	return row, nil
}

// Update rewrites the full row previously returned by Append.
func (l *SheetsLedger) Update(ctx context.Context, rowNumber int64, expense *models.Expense) error {
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{expenseRow(expense)},
	}

	rangeRef := fmt.Sprintf("%s!A%d:O%d", l.sheetName, rowNumber, rowNumber)
	_, err := l.service.Spreadsheets.Values.
		Update(l.spreadsheetID, rangeRef, valueRange).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update ledger row %d: %w", rowNumber, err)
	}
	return nil
}

// rangeRowPattern matches the trailing row number of an A1-notation range
// such as "Expenses!A42:O42".
var rangeRowPattern = regexp.MustCompile(`![A-Z]+(\d+)(?::[A-Z]+\d+)?$`)

func rowFromRange(updatedRange string) (int64, error) {
	matches := rangeRowPattern.FindStringSubmatch(updatedRange)
	if len(matches) < 2 {
		return 0, fmt.Errorf("unexpected range %q", updatedRange)
	}
	return strconv.ParseInt(matches[1], 10, 64)
}
