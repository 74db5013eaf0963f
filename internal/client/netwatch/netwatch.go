// Package netwatch supplies the online/offline signal. It pings the server's
// health endpoint on an interval and reports transitions; consumers (the
// scheduler wiring and the quiz machine) never detect connectivity
// themselves.
package netwatch

import (
	"context"
	"sync"
	"time"

	"github.com/studyhall/studyhall/internal/logging"
)

// Pinger probes server reachability. The REST client's Ping satisfies this.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Watcher polls the Pinger and fans out transitions.
type Watcher struct {
	mu       sync.Mutex
	pinger   Pinger
	log      logging.Logger
	interval time.Duration
	timeout  time.Duration
	online   bool
	started  bool
	subs     []func(bool)
}

func NewWatcher(p Pinger, interval time.Duration, log logging.Logger) *Watcher {
	return &Watcher{
		pinger:   p,
		log:      log,
		interval: interval,
		timeout:  3 * time.Second,
		online:   true,
	}
}

// Online returns the last observed connectivity state.
func (w *Watcher) Online() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.online
}

// Subscribe registers a transition callback. It fires only on changes, not
// on every probe.
func (w *Watcher) Subscribe(fn func(online bool)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.subs = append(w.subs, fn)
}

// Run probes until ctx is cancelled. The first probe runs immediately so
// startup state settles fast.
func (w *Watcher) Run(ctx context.Context) {
	w.probe(ctx)

	t := time.NewTicker(w.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.probe(ctx)
		}
	}
}

func (w *Watcher) probe(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, w.timeout)
	err := w.pinger.Ping(pctx)
	cancel()
	w.report(ctx, err == nil)
}

// report applies one probe result; exported behavior is tested through it.
func (w *Watcher) report(ctx context.Context, online bool) {
	w.mu.Lock()
	changed := !w.started || online != w.online
	w.started = true
	w.online = online
	subs := append([]func(bool){}, w.subs...)
	w.mu.Unlock()

	if !changed {
		return
	}
	if online {
		w.log.Info(ctx, "connection restored")
	} else {
		w.log.Warn(ctx, "connection lost, switching to offline mode")
	}
	for _, fn := range subs {
		fn(online)
	}
}
