package google

import (
	"fmt"
	"strconv"
	"strings"

	"expensetracker/internal/core"
)

const dateLayout = "2006-01-02 15:04"

// RAW stores cells exactly as sent, so a title such as "=SUM(A:A)" stays text.
const valueInputOption = "RAW"

func header() []any {
	return []any{"ID", "Date", "Title", "Category", "Amount", "Description"}
}

func expenseRow(e core.Expense) []any {
	return []any{
		e.ID,
		e.Date.Format(dateLayout),
		e.Title,
		string(e.Category),
		e.Amount.Float64(),
		e.Description,
	}
}

// findRow returns the 1-based sheet row holding id in column A, or 0.
func findRow(values [][]any, id int64) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if got, ok := parseID(row[0]); ok && got == id {
			return i + 1
		}
	}
	return 0
}

// parseID accepts ids as the API returns them: formatted strings or numbers.
func parseID(v any) (int64, bool) {
	s := strings.TrimSpace(fmt.Sprint(v))
	if s == "" {
		return 0, false
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}
