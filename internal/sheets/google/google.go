package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"expensetracker/internal/core"
	ports "expensetracker/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultSheetName = "Expenses"

var _ ports.Mirror = (*Client)(nil)

// Options configures the Sheets mirror. Exactly one credential source is used;
// CredentialsJSON wins over CredentialsFile.
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

	// numeric sheet id, needed for row deletion; looked up lazily
	sheetIDMu sync.Mutex
	sheetID   *int64
}

func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := strings.TrimSpace(opts.SheetName)
	if sheetName == "" {
		sheetName = defaultSheetName
	}

	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(opts.CredentialsJSON)
	case strings.TrimSpace(opts.CredentialsFile) != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", opts.CredentialsFile)
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "scope", gsheet.SpreadsheetsScope)
	return service, nil
}

func (c *Client) Upsert(ctx context.Context, e core.Expense) error {
	values, err := c.readIDs(ctx)
	if err != nil {
		return err
	}

	row := findRow(values, e.ID)
	if row == 0 {
		if len(values) == 0 {
			if err := c.writeRows(ctx, 1, [][]any{header()}); err != nil {
				return fmt.Errorf("write header: %w", err)
			}
			values = [][]any{{header()[0]}}
		}
		row = len(values) + 1
	}

	if err := c.writeRows(ctx, row, [][]any{expenseRow(e)}); err != nil {
		return fmt.Errorf("upsert expense %d: %w", e.ID, err)
	}
	slog.DebugContext(ctx, "Expense mirrored to sheet", "id", e.ID, "row", row, "sheet", c.sheetName)
	return nil
}

func (c *Client) Remove(ctx context.Context, id int64) error {
	values, err := c.readIDs(ctx)
	if err != nil {
		return err
	}
	row := findRow(values, id)
	if row == 0 {
		slog.DebugContext(ctx, "Expense not present in sheet", "id", id)
		return nil
	}

	sheetID, err := c.lookupSheetID(ctx)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d in %s: %w", row, c.sheetName, err)
	}
	return nil
}

func (c *Client) Clear(ctx context.Context) error {
	rng := fmt.Sprintf("%s!A2:F", c.sheetName)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	return nil
}

func (c *Client) ReplaceAll(ctx context.Context, expenses []core.Expense) error {
	if err := c.Clear(ctx); err != nil {
		return err
	}
	rows := make([][]any, 0, len(expenses)+1)
	rows = append(rows, header())
	for _, e := range expenses {
		rows = append(rows, expenseRow(e))
	}
	if err := c.writeRows(ctx, 1, rows); err != nil {
		return fmt.Errorf("replace sheet contents: %w", err)
	}
	slog.InfoContext(ctx, "Sheet mirror rebuilt", "sheet", c.sheetName, "rows", len(expenses))
	return nil
}

func (c *Client) readIDs(ctx context.Context) ([][]any, error) {
	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func (c *Client) writeRows(ctx context.Context, firstRow int, rows [][]any) error {
	rng := fmt.Sprintf("%s!A%d:F%d", c.sheetName, firstRow, firstRow+len(rows)-1)
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption(valueInputOption).Context(ctx).Do()
	return err
}

func (c *Client) lookupSheetID(ctx context.Context) (int64, error) {
	c.sheetIDMu.Lock()
	defer c.sheetIDMu.Unlock()
	if c.sheetID != nil {
		return *c.sheetID, nil
	}

	resp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet properties: %w", err)
	}
	for _, s := range resp.Sheets {
		if s.Properties != nil && s.Properties.Title == c.sheetName {
			id := s.Properties.SheetId
			c.sheetID = &id
			return id, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", c.sheetName)
}
