// Package poll runs the client's repeating fetches. Each data domain
// (roster, events, conversations, messages, notifications, reports) gets its
// own ticker and cadence; the scheduler guarantees at most one in-flight
// fetch per domain and discards responses that arrive stale.
package poll

import (
	"context"
	"sync"
	"time"

	"github.com/studyhall/studyhall/internal/logging"
)

// Task is one poll cycle. The fetch part runs on the scheduler's goroutine
// for the domain; the returned apply closure is invoked only if the response
// is still fresh, under the scheduler's apply lock. A nil apply with nil
// error means "nothing to do".
type Task func(ctx context.Context) (apply func(), err error)

// Scheduler owns the per-domain tickers.
type Scheduler struct {
	mu      sync.Mutex
	clock   Clock
	log     logging.Logger
	taskCtx context.Context
	domains map[string]*domain

	// applyMu serializes apply closures across domains so stores observe
	// one reconciliation at a time.
	applyMu sync.Mutex
}

type domain struct {
	name     string
	cancel   context.CancelFunc
	inFlight bool
	seq      uint64
	applied  uint64
}

func NewScheduler(clock Clock, log logging.Logger) *Scheduler {
	return &Scheduler{
		clock:   clock,
		log:     log,
		taskCtx: context.Background(),
		domains: make(map[string]*domain),
	}
}

// Schedule registers a repeating task for the named domain. Scheduling a
// domain that is already scheduled replaces the previous registration.
func (s *Scheduler) Schedule(name string, interval time.Duration, task Task) {
	ctx, cancel := context.WithCancel(context.Background())
	d := &domain{name: name, cancel: cancel}

	// The ticker is created before the loop goroutine starts so that by the
	// time Schedule returns the domain is fully registered with the clock.
	t := s.clock.NewTicker(interval)

	s.mu.Lock()
	if old, ok := s.domains[name]; ok {
		old.cancel()
	}
	s.domains[name] = d
	s.mu.Unlock()

	go s.run(ctx, d, t, task)
}

// Cancel stops the named domain's ticker. An in-flight fetch is not aborted;
// its result is discarded on arrival.
func (s *Scheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.domains[name]; ok {
		d.cancel()
		delete(s.domains, name)
	}
}

// CancelAll stops every domain. Used on logout and shutdown.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, d := range s.domains {
		d.cancel()
		delete(s.domains, name)
	}
}

// Scheduled reports whether the named domain currently has a ticker.
func (s *Scheduler) Scheduled(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.domains[name]
	return ok
}

func (s *Scheduler) run(ctx context.Context, d *domain, t Ticker, task Task) {
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			s.tick(d, task)
		}
	}
}

func (s *Scheduler) tick(d *domain, task Task) {
	s.mu.Lock()
	if d.inFlight {
		// A slow response is still outstanding; this tick is skipped so the
		// domain never overlaps itself.
		s.mu.Unlock()
		return
	}
	d.inFlight = true
	d.seq++
	seq := d.seq
	s.mu.Unlock()

	// The fetch deliberately runs on the scheduler's task context, not the
	// domain context: Cancel stops future ticks but lets the outstanding
	// request finish and be discarded.
	go func() {
		apply, err := task(s.taskCtx)

		s.mu.Lock()
		d.inFlight = false
		current := s.domains[d.name] == d
		fresh := seq > d.applied
		if err == nil && current && fresh {
			d.applied = seq
		}
		s.mu.Unlock()

		if err != nil {
			// Stale-but-available: keep the previous snapshot, next tick retries.
			s.log.Debug(s.taskCtx, "poll failed", "domain", d.name, "error", err)
			return
		}
		if !current || !fresh || apply == nil {
			return
		}

		s.applyMu.Lock()
		apply()
		s.applyMu.Unlock()
	}()
}
