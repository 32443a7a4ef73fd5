// Package detector periodically synthesizes plausible expenses, simulating
// automatic detection from bank and payment SMS, and records them.
package detector

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/notify"
)

// ErrorStatus is shown whenever generating or recording a transaction fails.
const ErrorStatus = "Error in intelligent parsing engine"

// Recorder persists a detected expense.
type Recorder interface {
	Create(ctx context.Context, e core.Expense) (core.Expense, error)
}

// TickResult describes what a single tick did.
type TickResult struct {
	Generated  bool
	Expense    core.Expense
	Confidence float64
	Count      int64
	Status     string
	Err        error
}

type Generator struct {
	cfg      Config
	recorder Recorder
	notifier notify.Notifier
	source   Source
	logger   *slog.Logger
	now      func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand

	count atomic.Int64

	// Lifecycle management
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	doneCh  chan struct{}
}

type Option func(*Generator)

// WithRand makes the generator draw from r, for reproducible runs.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) { g.rng = r }
}

func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

func New(cfg Config, recorder Recorder, notifier notify.Notifier, opts ...Option) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detector config: %w", err)
	}
	if recorder == nil {
		return nil, fmt.Errorf("detector requires a recorder")
	}
	if notifier == nil {
		notifier = notify.Multi{}
	}

	g := &Generator{
		cfg:      cfg,
		recorder: recorder,
		notifier: notifier,
		source:   newSource(cfg),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return g, nil
}

// Count returns the number of transactions detected since the generator was created.
func (g *Generator) Count() int64 {
	return g.count.Load()
}

// Tick runs one detection attempt. It never panics and never returns an
// error to the caller; generation and recording failures are logged and
// reported in the result.
func (g *Generator) Tick(ctx context.Context) (res TickResult) {
	defer func() {
		if p := recover(); p != nil {
			res = g.fail(ctx, res, fmt.Errorf("tick panicked: %v", p))
		}
	}()

	res.Count = g.count.Load()

	cand, ok := g.draw()
	if !ok {
		res.Status = g.source.Monitoring(res.Count)
		g.show(ctx, res.Status)
		return res
	}

	// The write is not cancelled with the loop; it completes or fails on its own.
	saved, err := g.recorder.Create(context.WithoutCancel(ctx), cand.Expense)
	if err != nil {
		return g.fail(ctx, res, fmt.Errorf("record detected expense: %w", err))
	}

	res.Generated = true
	res.Expense = saved
	res.Confidence = cand.Confidence
	res.Count = g.count.Add(1)

	g.logger.InfoContext(ctx, "Detected transaction",
		"id", saved.ID,
		"title", saved.Title,
		"amount", saved.Amount.String(),
		"category", saved.Category,
		"confidence", cand.Confidence,
		"count", res.Count)

	if res.Count%int64(g.cfg.ReportEvery) == 0 {
		title, msg := g.source.Summary(res.Count)
		if err := g.notifier.Report(ctx, title, msg); err != nil {
			g.logger.WarnContext(ctx, "Failed to send detection report", "error", err, "count", res.Count)
		}
	}

	res.Status = g.source.Detected(saved)
	g.show(ctx, res.Status)
	return res
}

// show updates the status display. Display failures are logged only; they
// never turn a tick into a failed one.
func (g *Generator) show(ctx context.Context, status string) {
	if err := g.notifier.Show(ctx, status); err != nil {
		g.logger.WarnContext(ctx, "Failed to show status", "status", status, "error", err)
	}
}

// draw applies the probability gate and asks the source for a candidate.
func (g *Generator) draw() (Candidate, bool) {
	g.rngMu.Lock()
	defer g.rngMu.Unlock()
	if g.rng.Float64() >= g.cfg.Probability {
		return Candidate{}, false
	}
	return g.source.Next(g.rng, g.now())
}

func (g *Generator) fail(ctx context.Context, res TickResult, err error) TickResult {
	g.logger.ErrorContext(ctx, "Detector tick failed", "error", err)
	res.Err = err
	res.Status = ErrorStatus
	if showErr := g.notifier.Show(ctx, ErrorStatus); showErr != nil {
		g.logger.WarnContext(ctx, "Failed to show error status", "error", showErr)
	}
	return res
}

// Run ticks immediately and then once per interval until ctx is done. The
// timer is re-armed only after a tick returns, so ticks never overlap.
func (g *Generator) Run(ctx context.Context) error {
	g.logger.InfoContext(ctx, "Detector started",
		"mode", g.cfg.Mode,
		"interval", g.cfg.Interval,
		"probability", g.cfg.Probability)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			g.logger.InfoContext(ctx, "Detector stopped", "detected", g.count.Load())
			return nil
		case <-timer.C:
			g.Tick(ctx)
			timer.Reset(g.cfg.Interval)
		}
	}
}

// Start runs the generator in the background. Returns an error if already running.
func (g *Generator) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return fmt.Errorf("detector is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	g.running = true
	g.cancel = cancel
	g.doneCh = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		_ = g.Run(runCtx)

		// The parent context may end the loop without Stop being called.
		g.mu.Lock()
		if g.doneCh == done {
			g.running = false
		}
		g.mu.Unlock()
	}(g.doneCh)
	return nil
}

// Stop cancels the loop and waits for the current tick to finish.
func (g *Generator) Stop(ctx context.Context) error {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return nil
	}
	cancel, done := g.cancel, g.doneCh
	g.mu.Unlock()

	cancel()

	select {
	case <-done:
	case <-ctx.Done():
		g.logger.WarnContext(ctx, "Detector stop timed out")
		return ctx.Err()
	}

	g.mu.Lock()
	g.running = false
	g.mu.Unlock()
	return nil
}

func (g *Generator) IsRunning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}
