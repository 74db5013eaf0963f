package quiz

import (
	"context"
	"time"
)

// Runner couples a Machine to a real one-second ticker. Connectivity events
// are fed separately by the app's network watcher subscription.
type Runner struct {
	machine *Machine
}

func NewRunner(m *Machine) *Runner {
	return &Runner{machine: m}
}

// Run ticks the machine once per second until the session leaves
// in-progress or ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	t := time.NewTicker(time.Second)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.machine.Tick(ctx)
			switch r.machine.State() {
			case StateFinished, StateAborted:
				return
			}
		}
	}
}
