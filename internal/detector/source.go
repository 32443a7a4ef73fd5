package detector

import (
	"fmt"
	"math/rand/v2"
	"time"

	"expensetracker/internal/core"
)

// Candidate is one synthesized transaction ready to be recorded.
type Candidate struct {
	Expense    core.Expense
	Confidence float64
}

// Source is the strategy that manufactures candidates for a mode, together
// with the wording the status display uses for it.
type Source interface {
	// Next returns false when the tick yields no transaction.
	Next(r *rand.Rand, now time.Time) (Candidate, bool)
	Monitoring(count int64) string
	Detected(e core.Expense) string
	Summary(count int64) (title, message string)
}

func newSource(cfg Config) Source {
	if cfg.Mode == ModeSimple {
		return simpleSource{tables: cfg.Tables, maxBackdate: cfg.MaxBackdate}
	}
	return smsSource{tables: cfg.Tables}
}

type smsSource struct {
	tables Tables
}

func (s smsSource) Next(r *rand.Rand, now time.Time) (Candidate, bool) {
	msg, _ := Synthesize(r, s.tables)
	parsed, ok := Parse(msg, s.tables.Merchants)
	if !ok {
		return Candidate{}, false
	}
	return Candidate{
		Expense: core.Expense{
			Title:       parsed.Title,
			Amount:      parsed.Amount,
			Category:    parsed.Category,
			Date:        now,
			Description: "Auto-detected: " + msg,
		},
		Confidence: parsed.Confidence,
	}, true
}

func (smsSource) Monitoring(count int64) string {
	return fmt.Sprintf("Monitoring SMS for transactions... (%d parsed)", count)
}

func (smsSource) Detected(e core.Expense) string {
	return fmt.Sprintf("Parsed SMS: %s - $%s", e.Title, e.Amount)
}

func (smsSource) Summary(count int64) (string, string) {
	return "Smart Parsing Report", fmt.Sprintf("Successfully parsed %d SMS transactions", count)
}

type simpleSource struct {
	tables      Tables
	maxBackdate time.Duration
}

func (s simpleSource) Next(r *rand.Rand, now time.Time) (Candidate, bool) {
	entry := s.tables.Simple[r.IntN(len(s.tables.Simple))]
	amount := core.MoneyFromFloat(uniform(r, entry.Min, entry.Max))
	if amount.Validate() != nil {
		return Candidate{}, false
	}
	date := now
	if s.maxBackdate > 0 {
		date = now.Add(-time.Duration(r.Int64N(int64(s.maxBackdate))))
	}
	return Candidate{
		Expense: core.Expense{
			Title:       entry.Title,
			Amount:      amount,
			Category:    categoryOf(entry.Category),
			Date:        date,
			Description: "Auto-detected transaction",
		},
		Confidence: 1,
	}, true
}

func (simpleSource) Monitoring(count int64) string {
	return fmt.Sprintf("Monitoring for transactions... (%d detected)", count)
}

func (simpleSource) Detected(e core.Expense) string {
	return fmt.Sprintf("Auto-detected: %s - $%s", e.Title, e.Amount)
}

func (simpleSource) Summary(count int64) (string, string) {
	return "Expense Tracker", fmt.Sprintf("Auto-detected %d transactions", count)
}
