package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/store"
	"expensetracker/internal/store/memory"
)

type mapCache[T any] struct {
	mu sync.Mutex
	m  map[string]T
}

func newMapCache[T any]() *mapCache[T] { return &mapCache[T]{m: map[string]T{}} }

func (c *mapCache[T]) Get(k string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[k]
	return v, ok
}
func (c *mapCache[T]) Set(k string, v T) { c.mu.Lock(); c.m[k] = v; c.mu.Unlock() }
func (c *mapCache[T]) Delete(k string)   { c.mu.Lock(); delete(c.m, k); c.mu.Unlock() }
func (c *mapCache[T]) Clear()            { c.mu.Lock(); c.m = map[string]T{}; c.mu.Unlock() }

type countingStore struct {
	store.Store
	mu       sync.Mutex
	sumCalls int
	catCalls int
}

func (c *countingStore) SumAll(ctx context.Context) (core.Money, error) {
	c.mu.Lock()
	c.sumCalls++
	c.mu.Unlock()
	return c.Store.SumAll(ctx)
}

func (c *countingStore) SumByCategory(ctx context.Context) ([]core.CategoryTotal, error) {
	c.mu.Lock()
	c.catCalls++
	c.mu.Unlock()
	return c.Store.SumByCategory(ctx)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.ExpenseEvent
	err    error
}

func (p *recordingPublisher) PublishExpenseEvent(_ context.Context, ev *amqp.ExpenseEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []amqp.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventType, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

func newTestService() (*ExpenseService, *countingStore, *recordingPublisher) {
	st := &countingStore{Store: memory.New()}
	pub := &recordingPublisher{}
	svc := NewExpenseService(st, pub, newMapCache[[]core.CategoryTotal](), newMapCache[core.Money]())
	return svc, st, pub
}

func coffee(when time.Time) core.Expense {
	return core.Expense{Title: "Coffee", Amount: core.Money{Cents: 1550}, Category: core.Food, Date: when}
}

func TestExpenseService_SumAllScenario(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService()
	when := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)

	first, err := svc.Create(ctx, coffee(when))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if total, _ := svc.Total(ctx); total.Cents != 1550 {
		t.Fatalf("Total = %d, want 1550", total.Cents)
	}

	if _, err := svc.Create(ctx, core.Expense{Title: "Taxi", Amount: core.Money{Cents: 2000}, Category: core.Transportation, Date: when}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if total, _ := svc.Total(ctx); total.Cents != 3550 {
		t.Fatalf("Total = %d, want 3550", total.Cents)
	}

	if err := svc.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if total, _ := svc.Total(ctx); total.Cents != 2000 {
		t.Fatalf("Total = %d, want 2000", total.Cents)
	}

	want := []amqp.EventType{amqp.EventCreated, amqp.EventCreated, amqp.EventDeleted}
	got := pub.types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestExpenseService_ValidationStopsBeforeStore(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService()
	when := time.Now()

	tests := []struct {
		name  string
		e     core.Expense
		field string
		err   error
	}{
		{"blank title", core.Expense{Title: "  ", Amount: core.Money{Cents: 1}, Category: core.Food, Date: when}, "title", core.ErrEmptyTitle},
		{"zero amount", core.Expense{Title: "x", Category: core.Food, Date: when}, "amount", core.ErrInvalidAmount},
		{"blank category", core.Expense{Title: "x", Amount: core.Money{Cents: 1}, Date: when}, "category", core.ErrEmptyCategory},
		{"unknown category", core.Expense{Title: "x", Amount: core.Money{Cents: 1}, Category: "Gadgets", Date: when}, "category", core.ErrUnknownCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.e)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field || !errors.Is(err, tt.err) {
				t.Errorf("got field %q err %v, want %q %v", verr.Field, verr.Err, tt.field, tt.err)
			}
		})
	}

	if all, _ := svc.List(ctx); len(all) != 0 {
		t.Errorf("invalid expenses reached the store: %d", len(all))
	}
	if len(pub.types()) != 0 {
		t.Error("no events should be published for rejected input")
	}
}

func TestExpenseService_Update(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService()
	when := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)

	created, _ := svc.Create(ctx, coffee(when))
	created.Title = "Espresso"
	created.Amount = core.Money{Cents: 300}
	if _, err := svc.Update(ctx, created); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := svc.Get(ctx, created.ID)
	if err != nil || got.Title != "Espresso" || got.Amount.Cents != 300 {
		t.Errorf("Get after update = %+v, %v", got, err)
	}

	var verr *ValidationError
	if _, err := svc.Update(ctx, coffee(when)); !errors.As(err, &verr) || verr.Field != "id" {
		t.Errorf("update without id: %v", err)
	}

	missing := coffee(when)
	missing.ID = 999
	if _, err := svc.Update(ctx, missing); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, 999); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	types := pub.types()
	if types[len(types)-1] != amqp.EventUpdated {
		t.Errorf("last event = %s, want updated", types[len(types)-1])
	}
}

func TestExpenseService_SummaryCache(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService()
	when := time.Now()

	_, _ = svc.Create(ctx, coffee(when))

	for i := 0; i < 3; i++ {
		if _, err := svc.Total(ctx); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.CategoryTotals(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if st.sumCalls != 1 || st.catCalls != 1 {
		t.Fatalf("expected one store query each, got sum=%d cat=%d", st.sumCalls, st.catCalls)
	}

	_, _ = svc.Create(ctx, coffee(when))
	total, _ := svc.Total(ctx)
	if total.Cents != 3100 || st.sumCalls != 2 {
		t.Errorf("write should invalidate cache: total=%d calls=%d", total.Cents, st.sumCalls)
	}

	n, err := svc.DeleteAll(ctx)
	if err != nil || n != 2 {
		t.Fatalf("DeleteAll = %d, %v", n, err)
	}
	if totals, _ := svc.CategoryTotals(ctx); len(totals) != 0 {
		t.Errorf("expected no totals after DeleteAll, got %+v", totals)
	}
}

func TestExpenseService_PublishFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewExpenseService(st, pub, nil, nil)

	created, err := svc.Create(ctx, coffee(time.Now()))
	if err != nil {
		t.Fatalf("Create should succeed despite publish failure: %v", err)
	}
	if _, err := st.GetByID(ctx, created.ID); err != nil {
		t.Errorf("expense not stored: %v", err)
	}
}

func TestExpenseService_DailyTotals(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()
	now := time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)

	_, _ = svc.Create(ctx, coffee(time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)))
	_, _ = svc.Create(ctx, coffee(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)))
	_, _ = svc.Create(ctx, coffee(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)))

	days, err := svc.DailyTotals(ctx, now, 7)
	if err != nil {
		t.Fatalf("DailyTotals: %v", err)
	}
	if len(days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(days))
	}
	var total int64
	for _, d := range days {
		total += d.Total.Cents
	}
	if total != 3100 {
		t.Errorf("window total = %d, want 3100", total)
	}
	if days[6].Label != "03/14" || days[6].Total.Cents != 1550 {
		t.Errorf("today = %+v", days[6])
	}

	if _, err := svc.DailyTotals(ctx, now, 0); err == nil {
		t.Error("expected error for zero days")
	}
}

func TestExpenseService_ListBetweenRejectsInvertedRange(t *testing.T) {
	svc, _, _ := newTestService()
	now := time.Now()
	var verr *ValidationError
	if _, err := svc.ListBetween(context.Background(), now, now.Add(-time.Hour)); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestExpenseService_Close(t *testing.T) {
	t.Run("nil components", func(t *testing.T) {
		service := &ExpenseService{storage: nil}
		if err := service.Close(); err != nil {
			t.Fatalf("Close should not return error with nil components: %v", err)
		}
	})
}
