// Package notify is the status display of the detector: an ongoing status
// line plus one-off reports.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"expensetracker/internal/amqp"
)

type Notifier interface {
	// Show replaces the ongoing status line.
	Show(ctx context.Context, message string) error
	// Report emits a one-off notification.
	Report(ctx context.Context, title, message string) error
}

type Report struct {
	Title   string    `json:"title"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type Snapshot struct {
	Permitted bool      `json:"permitted"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
	Reports   []Report  `json:"reports"`
}

const defaultReportCapacity = 20

// Board keeps the latest status and a bounded history of reports in memory.
// When not permitted every call is a silent no-op.
type Board struct {
	mu        sync.RWMutex
	permitted bool
	status    string
	updatedAt time.Time
	reports   []Report
	capacity  int
	now       func() time.Time
}

func NewBoard(permitted bool, capacity int) *Board {
	if capacity <= 0 {
		capacity = defaultReportCapacity
	}
	return &Board{permitted: permitted, capacity: capacity, now: time.Now}
}

func (b *Board) SetPermitted(p bool) {
	b.mu.Lock()
	b.permitted = p
	b.mu.Unlock()
}

func (b *Board) Show(_ context.Context, message string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.permitted {
		return nil
	}
	b.status = message
	b.updatedAt = b.now()
	return nil
}

func (b *Board) Report(_ context.Context, title, message string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.permitted {
		return nil
	}
	if len(b.reports) == b.capacity {
		copy(b.reports, b.reports[1:])
		b.reports = b.reports[:len(b.reports)-1]
	}
	b.reports = append(b.reports, Report{Title: title, Message: message, At: b.now()})
	return nil
}

// Snapshot returns a copy of the board, reports oldest first.
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Snapshot{
		Permitted: b.permitted,
		Status:    b.status,
		UpdatedAt: b.updatedAt,
		Reports:   append([]Report{}, b.reports...),
	}
}

type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Show(ctx context.Context, message string) error {
	n.logger.DebugContext(ctx, "Detector status", "status", message)
	return nil
}

func (n *LogNotifier) Report(ctx context.Context, title, message string) error {
	n.logger.InfoContext(ctx, "Detector report", "title", title, "message", message)
	return nil
}

// Multi fans a call out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Show(ctx context.Context, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.Show(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Report(ctx context.Context, title, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.Report(ctx, title, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type StatusPublisher interface {
	PublishStatus(ctx context.Context, msg *amqp.StatusMessage) error
}

// AMQPNotifier forwards status lines to the message broker.
type AMQPNotifier struct {
	pub StatusPublisher
}

func NewAMQPNotifier(pub StatusPublisher) *AMQPNotifier {
	return &AMQPNotifier{pub: pub}
}

func (n *AMQPNotifier) Show(ctx context.Context, message string) error {
	return n.pub.PublishStatus(ctx, amqp.NewStatusMessage(amqp.StatusOngoing, "", message))
}

func (n *AMQPNotifier) Report(ctx context.Context, title, message string) error {
	return n.pub.PublishStatus(ctx, amqp.NewStatusMessage(amqp.StatusReport, title, message))
}
