// Package google mirrors the expense table into a Google Sheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"expenses/internal/sheets"
)

// Options selects the target sheet and service account credentials.
// CredentialsJSON wins over CredentialsFile; when both are empty
// GOOGLE_APPLICATION_CREDENTIALS is used.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ sheets.TableWriter = (*Client)(nil)

func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	creds, err := loadCredentials(opts)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets mirror enabled",
		"spreadsheet_id", opts.SpreadsheetID,
		"sheet", opts.SheetName)
	return NewWithService(svc, opts.SpreadsheetID, opts.SheetName), nil
}

// NewWithService wraps an already configured Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	if sheetName == "" {
		sheetName = "Expenses"
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

func loadCredentials(opts Options) ([]byte, error) {
	if js := strings.TrimSpace(opts.CredentialsJSON); js != "" {
		return []byte(js), nil
	}
	path := strings.TrimSpace(opts.CredentialsFile)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

// ReplaceTable clears the sheet's data columns and writes header and rows
// from A1. Values are written RAW so amounts and dates are not reinterpreted.
func (c *Client) ReplaceTable(ctx context.Context, header []string, rows [][]string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	cols := columnName(len(header))
	clearRange := fmt.Sprintf("%s!A:%s", quoteSheet(c.sheetName), cols)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	values := make([][]any, 0, len(rows)+1)
	values = append(values, toAny(header))
	for _, r := range rows {
		values = append(values, toAny(r))
	}

	writeRange := fmt.Sprintf("%s!A1:%s%d", quoteSheet(c.sheetName), cols, len(values))
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", writeRange, err)
	}
	return nil
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// quoteSheet wraps names containing anything but letters and digits in
// single quotes, as A1 notation requires.
func quoteSheet(name string) string {
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
			return "'" + strings.ReplaceAll(name, "'", "''") + "'"
		}
	}
	return name
}

// columnName converts a 1-based column count into its A1 letter(s).
func columnName(n int) string {
	if n < 1 {
		n = 1
	}
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}
