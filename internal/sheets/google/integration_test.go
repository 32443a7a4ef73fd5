//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"expensetracker/internal/core"
)

// Integration tests require a real spreadsheet shared with a service account.
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_SheetsMirror(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	opts := Options{
		SpreadsheetID:   spreadsheetID,
		SheetName:       os.Getenv("GOOGLE_SHEET_NAME"),
		CredentialsJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CredentialsFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	}
	if opts.CredentialsJSON == "" && opts.CredentialsFile == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx := context.Background()
	client, err := New(ctx, opts)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	e := core.Expense{
		ID:       time.Now().UnixNano() % 1_000_000,
		Title:    "Integration Test",
		Amount:   core.Money{Cents: 123},
		Category: core.Other,
		Date:     time.Now(),
	}
	if err := client.Upsert(ctx, e); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	e.Title = "Integration Test (updated)"
	if err := client.Upsert(ctx, e); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	values, err := client.readIDs(ctx)
	if err != nil {
		t.Fatalf("readIDs: %v", err)
	}
	found := 0
	for _, row := range values {
		if len(row) > 0 {
			if id, ok := parseID(row[0]); ok && id == e.ID {
				found++
			}
		}
	}
	if found != 1 {
		t.Errorf("expected exactly one row for id %d, found %d", e.ID, found)
	}

	if err := client.Remove(ctx, e.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
}
