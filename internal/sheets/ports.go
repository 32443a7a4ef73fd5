package sheets

import (
	"context"

	"expensetracker/internal/core"
)

// Mirror is a read-only copy of the expense store kept in a spreadsheet.
// Rows are keyed by expense id.
type Mirror interface {
	// Upsert writes e, replacing the row with the same id when present.
	Upsert(ctx context.Context, e core.Expense) error
	// Remove deletes the row for id; a missing row is not an error.
	Remove(ctx context.Context, id int64) error
	// Clear removes every expense row.
	Clear(ctx context.Context) error
	// ReplaceAll rewrites the mirror so it holds exactly expenses.
	ReplaceAll(ctx context.Context, expenses []core.Expense) error
}
