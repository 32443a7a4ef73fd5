package worker

import (
	"context"
	"fmt"
	"log/slog"

	"expensetracker/internal/amqp"
	"expensetracker/internal/sheets"
	"expensetracker/internal/store"
)

// SyncWorker applies expense events to a spreadsheet mirror.
type SyncWorker struct {
	mirror sheets.Mirror
	reader store.Reader
}

// NewSyncWorker builds a worker. reader is only used by StartupSync and may be nil.
func NewSyncWorker(mirror sheets.Mirror, reader store.Reader) *SyncWorker {
	return &SyncWorker{mirror: mirror, reader: reader}
}

// HandleEvent processes a single expense event from AMQP. A returned error
// makes the consumer requeue the event.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	slog.InfoContext(ctx, "Processing expense event",
		"event_id", ev.EventID,
		"type", ev.Type,
		"id", ev.ID)

	switch ev.Type {
	case amqp.EventCreated, amqp.EventUpdated:
		if ev.Expense == nil {
			slog.WarnContext(ctx, "Event carries no expense, skipping", "event_id", ev.EventID, "type", ev.Type)
			return nil
		}
		if err := w.mirror.Upsert(ctx, ev.Expense.Expense()); err != nil {
			return fmt.Errorf("mirror expense %d: %w", ev.ID, err)
		}
	case amqp.EventDeleted:
		if err := w.mirror.Remove(ctx, ev.ID); err != nil {
			return fmt.Errorf("remove mirrored expense %d: %w", ev.ID, err)
		}
	case amqp.EventCleared:
		if err := w.mirror.Clear(ctx); err != nil {
			return fmt.Errorf("clear mirror: %w", err)
		}
	default:
		slog.WarnContext(ctx, "Unknown event type, skipping", "event_id", ev.EventID, "type", ev.Type)
		return nil
	}

	slog.InfoContext(ctx, "Expense event mirrored", "event_id", ev.EventID, "type", ev.Type, "id", ev.ID)
	return nil
}

// StartupSync rebuilds the mirror from the store, recovering from events
// missed while the worker was down.
func (w *SyncWorker) StartupSync(ctx context.Context) error {
	if w.reader == nil {
		slog.InfoContext(ctx, "No store reader configured, skipping startup sync")
		return nil
	}

	expenses, err := w.reader.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load expenses for startup sync: %w", err)
	}
	if err := w.mirror.ReplaceAll(ctx, expenses); err != nil {
		return fmt.Errorf("rebuild mirror: %w", err)
	}

	slog.InfoContext(ctx, "Startup sync completed", "total", len(expenses))
	return nil
}
