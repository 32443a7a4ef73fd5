// Package postgres stores expenses in PostgreSQL through a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"expensetracker/internal/core"
	"expensetracker/internal/store"
)

var _ store.Store = (*Repository)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS expenses (
	id           BIGSERIAL PRIMARY KEY,
	title        TEXT        NOT NULL CHECK (length(trim(title)) > 0),
	amount_cents BIGINT      NOT NULL CHECK (amount_cents > 0),
	category     TEXT        NOT NULL,
	date         TIMESTAMPTZ NOT NULL,
	description  TEXT        NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_expenses_date ON expenses (date DESC, id DESC);
`

const selectColumns = `SELECT id, title, amount_cents, category, date, description FROM expenses`

type Repository struct {
	pool *pgxpool.Pool
}

// Connect opens a pool, verifies it and makes sure the schema exists.
func Connect(ctx context.Context, url string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) Insert(ctx context.Context, e core.Expense) (int64, error) {
	query := `
		INSERT INTO expenses (title, amount_cents, category, date, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var id int64
	err := r.pool.QueryRow(ctx, query, e.Title, e.Amount.Cents, string(e.Category), e.Date, e.Description).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	slog.DebugContext(ctx, "Expense saved to Postgres", "id", id, "amount_cents", e.Amount.Cents)
	return id, nil
}

func (r *Repository) Update(ctx context.Context, e core.Expense) error {
	query := `
		UPDATE expenses
		SET title = $1, amount_cents = $2, category = $3, date = $4, description = $5
		WHERE id = $6
	`
	tag, err := r.pool.Exec(ctx, query, e.Title, e.Amount.Cents, string(e.Category), e.Date, e.Description, e.ID)
	if err != nil {
		return fmt.Errorf("update expense %d: %w", e.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update expense %d: %w", e.ID, store.ErrNotFound)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete expense %d: %w", id, store.ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM expenses`)
	if err != nil {
		return 0, fmt.Errorf("delete all expenses: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) GetAll(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.pool.Query(ctx, selectColumns+` ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return collect(rows)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (core.Expense, error) {
	rows, err := r.pool.Query(ctx, selectColumns+` WHERE id = $1`, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	e, err := pgx.CollectExactlyOneRow(rows, scanExpense)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

func (r *Repository) ListBetween(ctx context.Context, from, to time.Time) ([]core.Expense, error) {
	rows, err := r.pool.Query(ctx, selectColumns+` WHERE date BETWEEN $1 AND $2 ORDER BY date DESC, id DESC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list expenses between: %w", err)
	}
	return collect(rows)
}

func (r *Repository) SumByCategory(ctx context.Context) ([]core.CategoryTotal, error) {
	rows, err := r.pool.Query(ctx, `SELECT category, SUM(amount_cents)::BIGINT FROM expenses GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	totals, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.CategoryTotal, error) {
		var (
			category string
			cents    int64
		)
		err := row.Scan(&category, &cents)
		return core.CategoryTotal{Category: core.Category(category), Total: core.Money{Cents: cents}}, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect category sums: %w", err)
	}
	core.SortCategoryTotals(totals)
	return totals, nil
}

func (r *Repository) SumAll(ctx context.Context) (core.Money, error) {
	var cents int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount_cents), 0)::BIGINT FROM expenses`).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum all expenses: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

func scanExpense(row pgx.CollectableRow) (core.Expense, error) {
	var (
		e        core.Expense
		category string
	)
	err := row.Scan(&e.ID, &e.Title, &e.Amount.Cents, &category, &e.Date, &e.Description)
	e.Category = core.Category(category)
	return e, err
}

func collect(rows pgx.Rows) ([]core.Expense, error) {
	out, err := pgx.CollectRows(rows, scanExpense)
	if err != nil {
		return nil, fmt.Errorf("collect expenses: %w", err)
	}
	return out, nil
}
