package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/cache"
	"expensetracker/internal/core"
	"expensetracker/internal/store"
)

// EventPublisher announces committed changes, typically over AMQP.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, ev *amqp.ExpenseEvent) error
}

// SummaryTTL bounds how long cached aggregates may be served.
const SummaryTTL = time.Minute

// ExpenseService orchestrates expense operations across the store, the
// summary cache and the event publisher.
type ExpenseService struct {
	storage   store.Store
	publisher EventPublisher

	categories cache.Cache[[]core.CategoryTotal]
	totals     cache.Cache[core.Money]
	// generation is bumped on every write; cache keys embed it so entries
	// written before a change are never read after it.
	generation atomic.Uint64
}

// NewExpenseService wires the service. publisher may be nil; the caches may be
// nil, in which case aggregates are always read from the store.
func NewExpenseService(storage store.Store, publisher EventPublisher, categories cache.Cache[[]core.CategoryTotal], totals cache.Cache[core.Money]) *ExpenseService {
	return &ExpenseService{
		storage:    storage,
		publisher:  publisher,
		categories: categories,
		totals:     totals,
	}
}

// NewCachedExpenseService builds the service with ristretto-backed summary caches.
func NewCachedExpenseService(storage store.Store, publisher EventPublisher) (*ExpenseService, error) {
	categories, err := cache.NewTTLCache[[]core.CategoryTotal](64, SummaryTTL)
	if err != nil {
		return nil, fmt.Errorf("create category cache: %w", err)
	}
	totals, err := cache.NewTTLCache[core.Money](64, SummaryTTL)
	if err != nil {
		return nil, fmt.Errorf("create total cache: %w", err)
	}
	return NewExpenseService(storage, publisher, categories, totals), nil
}

// Create validates and stores a new expense. Any id on e is ignored.
func (s *ExpenseService) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.ID = 0
	if err := e.Validate(); err != nil {
		return core.Expense{}, newValidationError(err)
	}

	id, err := s.storage.Insert(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	e.ID = id

	s.invalidate()
	s.publish(ctx, amqp.NewExpenseEvent(amqp.EventCreated, id, &e))
	return e, nil
}

// Update replaces every field of an existing expense except its id.
func (s *ExpenseService) Update(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.ID <= 0 {
		return core.Expense{}, newValidationError(ErrMissingID)
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, newValidationError(err)
	}

	if err := s.storage.Update(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	s.invalidate()
	s.publish(ctx, amqp.NewExpenseEvent(amqp.EventUpdated, e.ID, &e))
	return e, nil
}

func (s *ExpenseService) Delete(ctx context.Context, id int64) error {
	if err := s.storage.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.invalidate()
	s.publish(ctx, amqp.NewExpenseEvent(amqp.EventDeleted, id, nil))
	return nil
}

// DeleteAll removes every expense and returns how many were deleted.
func (s *ExpenseService) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.storage.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete all expenses: %w", err)
	}

	s.invalidate()
	s.publish(ctx, amqp.NewExpenseEvent(amqp.EventCleared, 0, nil))
	return n, nil
}

func (s *ExpenseService) Get(ctx context.Context, id int64) (core.Expense, error) {
	e, err := s.storage.GetByID(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// List returns every expense, newest first.
func (s *ExpenseService) List(ctx context.Context) ([]core.Expense, error) {
	items, err := s.storage.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return items, nil
}

func (s *ExpenseService) ListBetween(ctx context.Context, from, to time.Time) ([]core.Expense, error) {
	if from.After(to) {
		return nil, newValidationError(ErrInvalidRange)
	}
	items, err := s.storage.ListBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list expenses between: %w", err)
	}
	return items, nil
}

func (s *ExpenseService) CategoryTotals(ctx context.Context) ([]core.CategoryTotal, error) {
	key := s.cacheKey("categories")
	if s.categories != nil {
		if v, ok := s.categories.Get(key); ok {
			return v, nil
		}
	}

	totals, err := s.storage.SumByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	if s.categories != nil {
		s.categories.Set(key, totals)
	}
	return totals, nil
}

func (s *ExpenseService) Total(ctx context.Context) (core.Money, error) {
	key := s.cacheKey("total")
	if s.totals != nil {
		if v, ok := s.totals.Get(key); ok {
			return v, nil
		}
	}

	total, err := s.storage.SumAll(ctx)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum all expenses: %w", err)
	}
	if s.totals != nil {
		s.totals.Set(key, total)
	}
	return total, nil
}

// DailyTotals returns the zero-filled totals of the last days calendar days
// ending on now's date, in now's location.
func (s *ExpenseService) DailyTotals(ctx context.Context, now time.Time, days int) ([]core.DailyTotal, error) {
	if days <= 0 {
		return nil, &ValidationError{Field: "days", Err: errors.New("must be positive")}
	}
	loc := now.Location()
	y, m, d := now.Date()
	start := time.Date(y, m, d-days+1, 0, 0, 0, 0, loc)
	end := time.Date(y, m, d+1, 0, 0, 0, 0, loc).Add(-time.Nanosecond)

	items, err := s.storage.ListBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list expenses for daily totals: %w", err)
	}
	return core.DailyTotals(items, now, days, loc), nil
}

// Ping checks the store when it supports it.
func (s *ExpenseService) Ping(ctx context.Context) error {
	if p, ok := s.storage.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *ExpenseService) cacheKey(name string) string {
	return name + ":" + strconv.FormatUint(s.generation.Load(), 10)
}

func (s *ExpenseService) invalidate() {
	s.generation.Add(1)
}

func (s *ExpenseService) publish(ctx context.Context, ev *amqp.ExpenseEvent) {
	if s.publisher == nil {
		return
	}
	// Publishing is not cancelled with the request.
	if err := s.publisher.PublishExpenseEvent(context.WithoutCancel(ctx), ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"type", ev.Type,
			"id", ev.ID,
			"error", err)
	}
}

// Close closes the store
func (s *ExpenseService) Close() error {
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			return fmt.Errorf("close storage: %w", err)
		}
	}
	return nil
}
