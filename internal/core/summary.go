package core

import (
	"sort"
	"time"
)

// CategoryTotal is the sum of all expense amounts in one category.
type CategoryTotal struct {
	Category Category
	Total    Money
}

// DailyTotal is the sum of expense amounts for one calendar day.
type DailyTotal struct {
	Day   time.Time // midnight in the aggregation location
	Label string    // MM/DD
	Total Money
}

// Sum adds up all amounts. Sum(nil) is zero.
func Sum(expenses []Expense) Money {
	var total Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// GroupByCategory partitions expenses by category and totals each bucket.
// Every expense lands in exactly one bucket, so the bucket totals add up to Sum.
// Buckets are ordered by total descending, ties broken by category name.
func GroupByCategory(expenses []Expense) []CategoryTotal {
	buckets := make(map[Category]int64)
	for _, e := range expenses {
		buckets[e.Category] += e.Amount.Cents
	}
	out := make([]CategoryTotal, 0, len(buckets))
	for c, cents := range buckets {
		out = append(out, CategoryTotal{Category: c, Total: Money{Cents: cents}})
	}
	SortCategoryTotals(out)
	return out
}

// SortCategoryTotals orders totals by amount descending, then by name.
func SortCategoryTotals(totals []CategoryTotal) {
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Total.Cents != totals[j].Total.Cents {
			return totals[i].Total.Cents > totals[j].Total.Cents
		}
		return totals[i].Category < totals[j].Category
	})
}

// DailyTotals returns one zero-filled entry per calendar day for the last
// `days` days ending with the day of now (inclusive), oldest first.
// Expenses outside that window are ignored.
func DailyTotals(expenses []Expense, now time.Time, days int, loc *time.Location) []DailyTotal {
	if days <= 0 {
		return nil
	}
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	start := today.AddDate(0, 0, -(days - 1))

	out := make([]DailyTotal, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		out[i] = DailyTotal{Day: day, Label: day.Format("01/02")}
		index[day.Format("2006-01-02")] = i
	}

	for _, e := range expenses {
		d := e.Date.In(loc)
		if i, ok := index[d.Format("2006-01-02")]; ok {
			out[i].Total = out[i].Total.Add(e.Amount)
		}
	}
	return out
}
