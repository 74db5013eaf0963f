package poll

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhall/studyhall/internal/logging"
)

// fakeClock hands out manually driven tickers.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, t)
	return t
}

// tick fires one tick on the most recently created ticker and yields until
// the scheduler's loop has picked it up.
func (c *fakeClock) tick(t *testing.T) {
	t.Helper()
	c.mu.Lock()
	require.NotEmpty(t, c.tickers)
	tk := c.tickers[len(c.tickers)-1]
	c.mu.Unlock()
	tk.ch <- c.Now()
	// Let the run loop drain the channel.
	deadline := time.Now().Add(time.Second)
	for len(tk.ch) > 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
}

type fakeTicker struct {
	ch chan time.Time
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               {}

func testLogger() logging.Logger {
	return logging.New(io.Discard, "debug", "text")
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

func TestSchedule_RegistersTickerBeforeReturning(t *testing.T) {
	clock := newFakeClock()
	s := NewScheduler(clock, testLogger())
	defer s.CancelAll()

	s.Schedule("roster", 3*time.Second, func(ctx context.Context) (func(), error) {
		return nil, nil
	})

	// No waiting: the ticker must exist the moment Schedule returns, or a
	// tick fired right after scheduling is lost.
	clock.mu.Lock()
	assert.Len(t, clock.tickers, 1)
	clock.mu.Unlock()
}

func TestScheduler_TickRunsTaskAndApply(t *testing.T) {
	clock := newFakeClock()
	s := NewScheduler(clock, testLogger())
	defer s.CancelAll()

	var mu sync.Mutex
	applied := 0

	s.Schedule("roster", 3*time.Second, func(ctx context.Context) (func(), error) {
		return func() {
			mu.Lock()
			applied++
			mu.Unlock()
		}, nil
	})

	clock.tick(t)
	waitFor(t, func() bool { mu.Lock(); defer mu.Unlock(); return applied == 1 }, "apply never ran")
}

func TestScheduler_InFlightGuardSkipsOverlappingTick(t *testing.T) {
	clock := newFakeClock()
	s := NewScheduler(clock, testLogger())
	defer s.CancelAll()

	var mu sync.Mutex
	started := 0
	release := make(chan struct{})

	s.Schedule("roster", 3*time.Second, func(ctx context.Context) (func(), error) {
		mu.Lock()
		started++
		mu.Unlock()
		<-release
		return nil, nil
	})

	clock.tick(t)
	waitFor(t, func() bool { mu.Lock(); defer mu.Unlock(); return started == 1 }, "first fetch never started")

	// Second tick while the first fetch is still blocked: must be skipped.
	clock.tick(t)
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 1, started)
	mu.Unlock()

	close(release)

	// After the fetch completes the next tick runs again.
	waitFor(t, func() bool { return !s.inFlight("roster") }, "fetch never finished")
	clock.tick(t)
	waitFor(t, func() bool { mu.Lock(); defer mu.Unlock(); return started == 2 }, "second fetch never started")
}

func TestScheduler_FailedFetchKeepsSchedule(t *testing.T) {
	clock := newFakeClock()
	s := NewScheduler(clock, testLogger())
	defer s.CancelAll()

	var mu sync.Mutex
	calls := 0
	applied := 0

	s.Schedule("events", 4*time.Second, func(ctx context.Context) (func(), error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			return nil, context.DeadlineExceeded
		}
		return func() {
			mu.Lock()
			applied++
			mu.Unlock()
		}, nil
	})

	clock.tick(t)
	waitFor(t, func() bool { mu.Lock(); defer mu.Unlock(); return calls == 1 }, "first fetch never ran")
	waitFor(t, func() bool { return !s.inFlight("events") }, "first fetch never settled")

	mu.Lock()
	assert.Equal(t, 0, applied, "failed fetch must not apply")
	mu.Unlock()

	clock.tick(t)
	waitFor(t, func() bool { mu.Lock(); defer mu.Unlock(); return applied == 1 }, "schedule did not survive the failure")
}

func TestScheduler_CancelDiscardsLateResult(t *testing.T) {
	clock := newFakeClock()
	s := NewScheduler(clock, testLogger())
	defer s.CancelAll()

	var mu sync.Mutex
	applied := 0
	release := make(chan struct{})
	startedCh := make(chan struct{})

	s.Schedule("messages", 3*time.Second, func(ctx context.Context) (func(), error) {
		close(startedCh)
		<-release
		return func() {
			mu.Lock()
			applied++
			mu.Unlock()
		}, nil
	})

	clock.tick(t)
	<-startedCh

	// The domain is cancelled while the fetch is in flight; the response must
	// be discarded, not applied.
	s.Cancel("messages")
	assert.False(t, s.Scheduled("messages"))
	close(release)

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 0, applied)
	mu.Unlock()
}

func TestScheduler_RescheduleReplacesDomain(t *testing.T) {
	clock := newFakeClock()
	s := NewScheduler(clock, testLogger())
	defer s.CancelAll()

	var mu sync.Mutex
	got := ""

	s.Schedule("conversations", 3*time.Second, func(ctx context.Context) (func(), error) {
		return func() { mu.Lock(); got = "old"; mu.Unlock() }, nil
	})
	s.Schedule("conversations", 3*time.Second, func(ctx context.Context) (func(), error) {
		return func() { mu.Lock(); got = "new"; mu.Unlock() }, nil
	})

	clock.tick(t) // fires the replacement's ticker
	waitFor(t, func() bool { mu.Lock(); defer mu.Unlock(); return got != "" }, "no apply ran")

	mu.Lock()
	assert.Equal(t, "new", got)
	mu.Unlock()
}

// inFlight is a test hook.
func (s *Scheduler) inFlight(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.domains[name]
	return ok && d.inFlight
}
