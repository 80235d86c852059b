package app

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

const defaultItemInterval = 20 * time.Second

// Poller triggers a cycle at a fixed cadence, first tick at time zero,
// with at most one cycle in flight: a tick that lands while the
// previous cycle is still running is dropped outright, not queued. This
// is the system's only backpressure against a poll interval shorter
// than a slow multi-page fetch.
type Poller struct {
	name     string
	interval time.Duration
	cycle    func(context.Context) error

	// empty reports whether the consumer has no data yet; when it does,
	// Start raises the loading signal until the first cycle completes.
	empty func() bool

	mu      sync.Mutex
	running bool
	stop    context.CancelFunc

	inFlight atomic.Bool
	loading  atomic.Bool
}

// NewPoller builds a poller around cycle. empty may be nil, in which
// case Start never raises the loading signal.
func NewPoller(name string, interval time.Duration, cycle func(context.Context) error, empty func() bool) *Poller {
	if interval <= 0 {
		interval = defaultItemInterval
	}
	return &Poller{name: name, interval: interval, cycle: cycle, empty: empty}
}

// Start begins the poll loop. It is idempotent: a second call while the
// loop is registered does nothing. ctx bounds the cycles themselves;
// Stop only unschedules future ticks.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	loopCtx, cancel := context.WithCancel(context.Background())
	p.stop = cancel
	p.mu.Unlock()

	if p.empty != nil && p.empty() {
		p.loading.Store(true)
	}
	go p.loop(loopCtx, ctx)
}

// Stop unregisters the loop. An in-flight cycle is not cancelled; its
// results still land (writes are idempotent upserts, last writer wins).
// Safe to call when not running.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	p.stop()
	p.stop = nil
}

// Loading reports whether the first cycle since Start has yet to
// complete on an initially empty consumer.
func (p *Poller) Loading() bool {
	return p.loading.Load()
}

// loop owns the ticker. loopCtx only gates scheduling; cycleCtx is the
// caller's context and travels into each cycle, so stopping the poller
// leaves an in-flight fetch untouched.
func (p *Poller) loop(loopCtx, cycleCtx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Stop (or caller cancellation) can land before this goroutine is
	// scheduled; a stopped poller must not fire its first cycle.
	if loopCtx.Err() != nil || cycleCtx.Err() != nil {
		return
	}
	p.launch(cycleCtx)
	for {
		select {
		case <-loopCtx.Done():
			return
		case <-cycleCtx.Done():
			return
		case <-ticker.C:
			p.launch(cycleCtx)
		}
	}
}

// launch starts one cycle unless one is already in flight. The
// CompareAndSwap is the exhaust-map gate: losing it means a cycle is
// running and this tick is dropped.
func (p *Poller) launch(ctx context.Context) {
	if !p.inFlight.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer p.inFlight.Store(false)
		if err := p.cycle(ctx); err != nil {
			log.Printf("%s poll failed: %v", p.name, err)
		}
		// Cleared after the first completed cycle, success or failure.
		p.loading.Store(false)
	}()
}
