package netwatch

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/studyhall/studyhall/internal/logging"
)

type fakePinger struct {
	mu  sync.Mutex
	err error
}

func (p *fakePinger) Ping(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *fakePinger) set(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func testLogger() logging.Logger {
	return logging.New(io.Discard, "debug", "text")
}

func TestWatcher_ReportsTransitionsOnly(t *testing.T) {
	w := NewWatcher(&fakePinger{}, time.Second, testLogger())

	var got []bool
	w.Subscribe(func(online bool) { got = append(got, online) })

	ctx := context.Background()
	w.report(ctx, true)  // initial probe always reports
	w.report(ctx, true)  // unchanged: silent
	w.report(ctx, false) // transition
	w.report(ctx, false) // unchanged: silent
	w.report(ctx, true)  // transition

	assert.Equal(t, []bool{true, false, true}, got)
	assert.True(t, w.Online())
}

func TestWatcher_ProbeUsesPingerResult(t *testing.T) {
	p := &fakePinger{}
	w := NewWatcher(p, time.Second, testLogger())

	ctx := context.Background()
	w.probe(ctx)
	assert.True(t, w.Online())

	p.set(errors.New("unreachable"))
	w.probe(ctx)
	assert.False(t, w.Online())
}
