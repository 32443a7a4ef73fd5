package core

import (
	"testing"
	"time"
)

func TestSum(t *testing.T) {
	now := time.Now()
	expenses := []Expense{
		{ID: 1, Title: "Expense 1", Amount: Money{Cents: 2550}, Category: Food, Date: now},
		{ID: 2, Title: "Expense 2", Amount: Money{Cents: 1575}, Category: Transportation, Date: now},
		{ID: 3, Title: "Expense 3", Amount: Money{Cents: 10000}, Category: Shopping, Date: now},
	}
	if got := Sum(expenses); got.Cents != 14125 {
		t.Errorf("Sum() = %d, want 14125", got.Cents)
	}
	if got := Sum(nil); got.Cents != 0 {
		t.Errorf("Sum(nil) = %d, want 0", got.Cents)
	}
	if got := Sum(expenses[:1]); got.Cents != 2550 {
		t.Errorf("Sum(single) = %d, want 2550", got.Cents)
	}
}

func TestGroupByCategoryPartitions(t *testing.T) {
	now := time.Now()
	expenses := []Expense{
		{Title: "Coffee", Amount: Money{Cents: 1550}, Category: Food, Date: now},
		{Title: "Lunch", Amount: Money{Cents: 4500}, Category: Food, Date: now},
		{Title: "Taxi", Amount: Money{Cents: 2000}, Category: Transportation, Date: now},
		{Title: "Book", Amount: Money{Cents: 2000}, Category: Education, Date: now},
		{Title: "Power", Amount: Money{Cents: 9000}, Category: Bills, Date: now},
	}

	groups := GroupByCategory(expenses)
	if len(groups) != 4 {
		t.Fatalf("expected 4 buckets, got %d: %+v", len(groups), groups)
	}

	var total int64
	byCat := map[Category]int64{}
	for _, g := range groups {
		if _, dup := byCat[g.Category]; dup {
			t.Fatalf("duplicate bucket %s", g.Category)
		}
		byCat[g.Category] = g.Total.Cents
		total += g.Total.Cents
	}
	if total != Sum(expenses).Cents {
		t.Errorf("bucket totals %d != Sum %d", total, Sum(expenses).Cents)
	}
	if byCat[Food] != 6050 {
		t.Errorf("Food total = %d, want 6050", byCat[Food])
	}

	// Bills (90.00) first, then Food (60.50), then the 20.00 tie ordered by name.
	wantOrder := []Category{Bills, Food, Education, Transportation}
	for i, c := range wantOrder {
		if groups[i].Category != c {
			t.Errorf("position %d = %s, want %s", i, groups[i].Category, c)
		}
	}

	if len(GroupByCategory(nil)) != 0 {
		t.Error("GroupByCategory(nil) should be empty")
	}
}

func TestDailyTotals(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, 3, 14, 18, 0, 0, 0, loc)
	expenses := []Expense{
		{Amount: Money{Cents: 1000}, Category: Food, Date: time.Date(2025, 3, 14, 8, 0, 0, 0, loc)},
		{Amount: Money{Cents: 500}, Category: Food, Date: time.Date(2025, 3, 14, 23, 59, 0, 0, loc)},
		{Amount: Money{Cents: 250}, Category: Food, Date: time.Date(2025, 3, 8, 0, 0, 0, 0, loc)},
		{Amount: Money{Cents: 9999}, Category: Food, Date: time.Date(2025, 3, 7, 23, 59, 59, 0, loc)}, // outside
		{Amount: Money{Cents: 9999}, Category: Food, Date: time.Date(2025, 3, 15, 0, 0, 0, 0, loc)},   // future
	}

	days := DailyTotals(expenses, now, 7, loc)
	if len(days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(days))
	}
	if days[0].Label != "03/08" || days[6].Label != "03/14" {
		t.Errorf("unexpected window %s..%s", days[0].Label, days[6].Label)
	}
	if days[0].Total.Cents != 250 {
		t.Errorf("03/08 total = %d, want 250", days[0].Total.Cents)
	}
	if days[6].Total.Cents != 1500 {
		t.Errorf("03/14 total = %d, want 1500", days[6].Total.Cents)
	}
	for _, d := range days[1:6] {
		if d.Total.Cents != 0 {
			t.Errorf("%s should be zero-filled, got %d", d.Label, d.Total.Cents)
		}
	}

	if DailyTotals(expenses, now, 0, loc) != nil {
		t.Error("zero days should return nil")
	}
}
