package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/store"

	_ "modernc.org/sqlite"
)

var _ store.Store = (*SQLiteRepository)(nil)

const dateLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; the detector and the API share this handle.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable; used by the readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Insert(ctx context.Context, e core.Expense) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (title, amount_cents, category, date, date_unix_ms, description)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.Title, e.Amount.Cents, string(e.Category),
		e.Date.UTC().Format(dateLayout), e.Date.UnixMilli(), e.Description)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted id: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved to SQLite",
		"id", id,
		"title", e.Title,
		"amount_cents", e.Amount.Cents,
		"category", e.Category)

	return id, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET title = ?, amount_cents = ?, category = ?, date = ?, date_unix_ms = ?, description = ?
		WHERE id = ?`,
		e.Title, e.Amount.Cents, string(e.Category),
		e.Date.UTC().Format(dateLayout), e.Date.UnixMilli(), e.Description, e.ID)
	if err != nil {
		return fmt.Errorf("update expense %d: %w", e.ID, err)
	}
	return expectAffected(res, "update", e.ID)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	return expectAffected(res, "delete", id)
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses`)
	if err != nil {
		return 0, fmt.Errorf("delete all expenses: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read affected rows: %w", err)
	}
	slog.InfoContext(ctx, "Deleted all expenses", "count", n)
	return n, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, amount_cents, category, date, description
		FROM expenses
		ORDER BY date_unix_ms DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return scanExpenses(rows)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, amount_cents, category, date, description
		FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

func (r *SQLiteRepository) ListBetween(ctx context.Context, from, to time.Time) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, amount_cents, category, date, description
		FROM expenses
		WHERE date_unix_ms BETWEEN ? AND ?
		ORDER BY date_unix_ms DESC, id DESC`,
		from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("list expenses between: %w", err)
	}
	return scanExpenses(rows)
}

func (r *SQLiteRepository) SumByCategory(ctx context.Context) ([]core.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, SUM(amount_cents)
		FROM expenses
		GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	defer rows.Close()

	var totals []core.CategoryTotal
	for rows.Next() {
		var (
			category string
			cents    int64
		)
		if err := rows.Scan(&category, &cents); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		totals = append(totals, core.CategoryTotal{
			Category: core.Category(category),
			Total:    core.Money{Cents: cents},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category sums: %w", err)
	}
	core.SortCategoryTotals(totals)
	return totals, nil
}

func (r *SQLiteRepository) SumAll(ctx context.Context) (core.Money, error) {
	var cents int64
	// SUM over no rows is NULL
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount_cents), 0) FROM expenses`).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum all expenses: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e        core.Expense
		category string
		date     string
	)
	if err := row.Scan(&e.ID, &e.Title, &e.Amount.Cents, &category, &date, &e.Description); err != nil {
		return core.Expense{}, err
	}
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse date %q of expense %d: %w", date, e.ID, err)
	}
	e.Category = core.Category(category)
	e.Date = t
	return e, nil
}

func scanExpenses(rows *sql.Rows) ([]core.Expense, error) {
	defer rows.Close()
	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func expectAffected(res sql.Result, op string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s expense %d: read affected rows: %w", op, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s expense %d: %w", op, id, store.ErrNotFound)
	}
	return nil
}
