package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps expenses in process memory. It is used for local runs and tests.
type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Expense
}

func New() *Store {
	return &Store{nextID: 1}
}

// NewSeeded returns a store pre-populated with the given expenses; ids are reassigned.
func NewSeeded(seed []core.Expense) *Store {
	s := New()
	for _, e := range seed {
		_, _ = s.Insert(context.Background(), e)
	}
	return s
}

func (s *Store) Insert(_ context.Context, e core.Expense) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.nextID
	s.nextID++
	s.items = append(s.items, e)
	return e.ID, nil
}

func (s *Store) Update(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(e.ID)
	if i < 0 {
		return fmt.Errorf("update expense %d: %w", e.ID, store.ErrNotFound)
	}
	s.items[i] = e
	return nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("delete expense %d: %w", id, store.ErrNotFound)
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

func (s *Store) DeleteAll(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.items))
	s.items = nil
	return n, nil
}

func (s *Store) GetAll(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	out := append([]core.Expense(nil), s.items...)
	s.mu.Unlock()
	sortNewestFirst(out)
	return out, nil
}

func (s *Store) GetByID(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, store.ErrNotFound)
	}
	return s.items[i], nil
}

func (s *Store) ListBetween(_ context.Context, from, to time.Time) ([]core.Expense, error) {
	s.mu.Lock()
	var out []core.Expense
	for _, e := range s.items {
		if !e.Date.Before(from) && !e.Date.After(to) {
			out = append(out, e)
		}
	}
	s.mu.Unlock()
	sortNewestFirst(out)
	return out, nil
}

func (s *Store) SumByCategory(_ context.Context) ([]core.CategoryTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.GroupByCategory(s.items), nil
}

func (s *Store) SumAll(_ context.Context) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Sum(s.items), nil
}

func (s *Store) Close() error { return nil }

func (s *Store) indexOf(id int64) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func sortNewestFirst(items []core.Expense) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.After(items[j].Date)
		}
		return items[i].ID > items[j].ID
	})
}
