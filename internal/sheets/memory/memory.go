package memory

import (
	"context"
	"sort"
	"sync"

	"expensetracker/internal/core"
	"expensetracker/internal/sheets"
)

var _ sheets.Mirror = (*Mirror)(nil)

// Mirror keeps mirrored rows in memory, keyed by expense id.
type Mirror struct {
	mu   sync.Mutex
	rows map[int64]core.Expense
}

func New() *Mirror {
	return &Mirror{rows: map[int64]core.Expense{}}
}

func (m *Mirror) Upsert(_ context.Context, e core.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[e.ID] = e
	return nil
}

func (m *Mirror) Remove(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *Mirror) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = map[int64]core.Expense{}
	return nil
}

func (m *Mirror) ReplaceAll(_ context.Context, expenses []core.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = make(map[int64]core.Expense, len(expenses))
	for _, e := range expenses {
		m.rows[e.ID] = e
	}
	return nil
}

// Rows returns the mirrored expenses ordered by id.
func (m *Mirror) Rows() []core.Expense {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Expense, 0, len(m.rows))
	for _, e := range m.rows {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
