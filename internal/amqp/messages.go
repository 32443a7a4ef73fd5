package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/core"
)

type EventType string

const (
	EventCreated EventType = "expense.created"
	EventUpdated EventType = "expense.updated"
	EventDeleted EventType = "expense.deleted"
	EventCleared EventType = "expense.cleared"
)

// ExpenseSnapshot is the wire form of an expense. Amounts travel as cents.
type ExpenseSnapshot struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	AmountCents int64     `json:"amount_cents"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
	Description string    `json:"description,omitempty"`
}

func SnapshotOf(e core.Expense) *ExpenseSnapshot {
	return &ExpenseSnapshot{
		ID:          e.ID,
		Title:       e.Title,
		AmountCents: e.Amount.Cents,
		Category:    string(e.Category),
		Date:        e.Date,
		Description: e.Description,
	}
}

func (s *ExpenseSnapshot) Expense() core.Expense {
	return core.Expense{
		ID:          s.ID,
		Title:       s.Title,
		Amount:      core.Money{Cents: s.AmountCents},
		Category:    core.Category(s.Category),
		Date:        s.Date,
		Description: s.Description,
	}
}

// ExpenseEvent announces a committed change to the expense store.
// Expense is set for created and updated events only.
type ExpenseEvent struct {
	EventID   string           `json:"event_id"`
	Type      EventType        `json:"type"`
	ID        int64            `json:"id,omitempty"`
	Expense   *ExpenseSnapshot `json:"expense,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

func NewExpenseEvent(t EventType, id int64, e *core.Expense) *ExpenseEvent {
	ev := &ExpenseEvent{
		EventID:   uuid.NewString(),
		Type:      t,
		ID:        id,
		Timestamp: time.Now(),
	}
	if e != nil {
		ev.Expense = SnapshotOf(*e)
	}
	return ev
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

type StatusKind string

const (
	StatusOngoing StatusKind = "status"
	StatusReport  StatusKind = "report"
)

// StatusMessage mirrors what the detector shows on its status display.
type StatusMessage struct {
	Kind      StatusKind `json:"kind"`
	Title     string     `json:"title,omitempty"`
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`
}

func NewStatusMessage(kind StatusKind, title, message string) *StatusMessage {
	return &StatusMessage{Kind: kind, Title: title, Message: message, Timestamp: time.Now()}
}

func (m *StatusMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
