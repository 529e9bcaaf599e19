package heartbeat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/arjunkade/agentcore/pkg/models"
)

// DefaultCheckInterval is how often the scheduler's background thread wakes
// to look for due heartbeats.
const DefaultCheckInterval = 30 * time.Second

// Runner fires a heartbeat's prompt through the agent router and returns
// its response text.
type Runner func(ctx context.Context, heartbeat models.Heartbeat) (string, error)

// OnResult is invoked after a successful fire.
type OnResult func(name, response string)

// scheduledHeartbeat pairs a Heartbeat with its parsed Cadence and the next
// instant it is due.
type scheduledHeartbeat struct {
	heartbeat models.Heartbeat
	cadence   Cadence
	next      time.Time
}

// Option configures a Scheduler at construction.
type Option func(*Scheduler)

// WithCheckInterval overrides DefaultCheckInterval.
func WithCheckInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.checkInterval = d }
}

// WithOnResult registers a callback fired after every successful heartbeat.
func WithOnResult(fn OnResult) Option {
	return func(s *Scheduler) { s.onResult = fn }
}

// WithNow overrides the scheduler's clock, for deterministic tests.
func WithNow(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// Scheduler parses cadence expressions and, once started, fires due
// heartbeats on a single dedicated background goroutine.
type Scheduler struct {
	runner        Runner
	checkInterval time.Duration
	onResult      OnResult
	now           func() time.Time
	logger        *slog.Logger

	mu         sync.Mutex
	heartbeats []*scheduledHeartbeat

	wg      sync.WaitGroup
	stop    chan struct{}
	running bool
}

// NewScheduler creates a Scheduler that fires due heartbeats via runner.
func NewScheduler(runner Runner, opts ...Option) *Scheduler {
	s := &Scheduler{
		runner:        runner,
		checkInterval: DefaultCheckInterval,
		now:           time.Now,
		logger:        slog.Default().With("component", "heartbeat.Scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add registers a heartbeat. An unparseable cadence expression is rejected:
// the heartbeat is not scheduled, a warning is logged, and ok is false.
func (s *Scheduler) Add(h models.Heartbeat) (ok bool) {
	cadence, err := ParseCadence(h.CadenceExpr)
	if err != nil {
		s.logger.Warn("rejecting heartbeat with unparseable cadence", "heartbeat", h.Name, "cadence", h.CadenceExpr, "error", err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.heartbeats = append(s.heartbeats, &scheduledHeartbeat{
		heartbeat: h,
		cadence:   cadence,
		next:      cadence.Next(s.now()),
	})
	return true
}

// Heartbeats returns a snapshot of currently scheduled heartbeats.
func (s *Scheduler) Heartbeats() []models.Heartbeat {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Heartbeat, len(s.heartbeats))
	for i, sh := range s.heartbeats {
		out[i] = sh.heartbeat
	}
	return out
}

// Start is idempotent: calling it while already running is a no-op. It
// launches the single dedicated background goroutine that polls for due
// heartbeats at checkInterval.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(ctx)
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.fireDue(ctx)
		}
	}
}

func (s *Scheduler) fireDue(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	var due []*scheduledHeartbeat
	for _, sh := range s.heartbeats {
		if !sh.next.After(now) {
			due = append(due, sh)
			sh.next = sh.cadence.Next(now)
		}
	}
	s.mu.Unlock()

	for _, sh := range due {
		s.fire(ctx, sh.heartbeat)
	}
}

// fire runs one heartbeat. Any error (including a panic in the runner) is
// caught and logged, never propagated to the scheduler's background
// goroutine.
func (s *Scheduler) fire(ctx context.Context, h models.Heartbeat) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("heartbeat panicked", "heartbeat", h.Name, "panic", rec)
		}
	}()

	resp, err := s.runner(ctx, h)
	if err != nil {
		s.logger.Error("heartbeat failed", "heartbeat", h.Name, "error", err)
		return
	}
	if s.onResult != nil {
		s.onResult(h.Name, resp)
	}
}

// Stop signals the background goroutine and waits for it to exit, up to
// timeout. It is safe to call even if Start was never called.
func (s *Scheduler) Stop(timeout time.Duration) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stop)
	s.running = false
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		s.logger.Warn("heartbeat scheduler stop timed out", "timeout", timeout)
	}
}

// RunDue is a test/diagnostic helper that fires every currently-due
// heartbeat synchronously, bypassing the ticker, and returns how many ran.
func (s *Scheduler) RunDue(ctx context.Context) int {
	now := s.now()
	s.mu.Lock()
	var due []*scheduledHeartbeat
	for _, sh := range s.heartbeats {
		if !sh.next.After(now) {
			due = append(due, sh)
			sh.next = sh.cadence.Next(now)
		}
	}
	s.mu.Unlock()

	for _, sh := range due {
		s.fire(ctx, sh.heartbeat)
	}
	return len(due)
}
