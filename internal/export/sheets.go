// Package export writes recorded expenses to a Google Sheets transaction
// log. Authentication uses a service account; the spreadsheet and sheet
// name come from configuration.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/storage"
)

type SheetsClient struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewSheetsClient creates a client against the given spreadsheet. Service
// account credentials come from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func NewSheetsClient(ctx context.Context, spreadsheetID, sheetName string) (*SheetsClient, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Transactions"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &SheetsClient{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return service, nil
}

// Append adds one expense row at the bottom of the transaction log.
// Columns: date, username, category, amount, note.
func (c *SheetsClient) Append(ctx context.Context, row storage.ExportRow) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:E", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{{
		row.CreatedAt.Format("2006-01-02"),
		row.Username,
		row.Category.String(),
		row.Amount.Amount(),
		row.Note,
	}}}

	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	slog.InfoContext(ctx, "Appended expense to sheet",
		"expense_id", row.ID,
		"sheet", c.sheetName)
	return nil
}
