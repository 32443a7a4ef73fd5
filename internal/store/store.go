package store

import (
	"context"
	"errors"
	"time"

	"expensetracker/internal/core"
)

// ErrNotFound is returned when no expense has the requested id.
var ErrNotFound = errors.New("expense not found")

// Ports for persistence adapters.
type (
	// Writer mutates expenses. Each call is atomic on its own; callers get no
	// ordering or locking across calls.
	Writer interface {
		Insert(ctx context.Context, e core.Expense) (id int64, err error)
		// Update replaces every field except the id.
		Update(ctx context.Context, e core.Expense) error
		Delete(ctx context.Context, id int64) error
		DeleteAll(ctx context.Context) (deleted int64, err error)
	}

	Reader interface {
		// GetAll returns every expense, newest first.
		GetAll(ctx context.Context) ([]core.Expense, error)
		GetByID(ctx context.Context, id int64) (core.Expense, error)
		// ListBetween returns expenses dated within [from, to], newest first.
		ListBetween(ctx context.Context, from, to time.Time) ([]core.Expense, error)
	}

	// Aggregator runs the summary queries. Results are recomputed on every call.
	Aggregator interface {
		SumByCategory(ctx context.Context) ([]core.CategoryTotal, error)
		SumAll(ctx context.Context) (core.Money, error)
	}

	Store interface {
		Writer
		Reader
		Aggregator
		Close() error
	}
)
