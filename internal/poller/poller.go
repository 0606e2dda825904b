// Package poller runs the periodic playback-position request loop.
package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultInterval is the delay between two position requests.
const DefaultInterval = 150 * time.Millisecond

// Poller calls a send function at a fixed interval on its own goroutine.
// At most one loop runs at a time.
type Poller struct {
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	// gate serialises a send against cancellation so that nothing is sent
	// once Stop has begun.
	gate sync.Mutex

	// live counts loop goroutines that have not yet exited.
	live atomic.Int32
}

// New returns a stopped poller. A non-positive interval selects
// DefaultInterval.
func New(interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{interval: interval}
}

// Start stops any running loop, waits for it to exit and then starts a new
// one that calls send immediately and after every interval.
func (p *Poller) Start(send func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	go p.loop(ctx, done, send)
}

// Stop cancels the running loop, if any, and returns once it has exited.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// Running reports whether a loop is currently active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Poller) stopLocked() {
	if p.cancel == nil {
		return
	}
	p.gate.Lock()
	p.cancel()
	p.gate.Unlock()
	<-p.done
	p.cancel = nil
	p.done = nil
}

func (p *Poller) loop(ctx context.Context, done chan<- struct{}, send func()) {
	p.live.Add(1)
	defer close(done)
	defer p.live.Add(-1)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		p.gate.Lock()
		if ctx.Err() != nil {
			p.gate.Unlock()
			return
		}
		send()
		p.gate.Unlock()

		timer.Reset(p.interval)
	}
}
