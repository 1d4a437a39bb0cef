package matching

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultExpectedDuration is the assumed batch latency the estimate is scaled to.
	DefaultExpectedDuration = 30 * time.Second

	tickInterval = time.Second
)

// Snapshot is what a progress display renders.
type Snapshot struct {
	State   State
	Elapsed time.Duration
	// Percent is in [0, 100], or -1 when the reporter is indeterminate.
	Percent       float64
	Indeterminate bool
}

// Progress estimates batch progress from elapsed wall time.
// It measures nothing on the backend: the bar can fill before the call settles,
// and the call can settle before the bar fills. Only Finish ends a run.
type Progress struct {
	mu       sync.Mutex
	clock    Clock
	expected time.Duration
	observer func(Snapshot)

	state   State
	elapsed time.Duration
	stop    chan struct{}
}

type ProgressOption func(*Progress)

func WithClock(clock Clock) ProgressOption {
	return func(p *Progress) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithObserver registers a callback for every state change and tick.
// It runs while the reporter is locked and must not call back into it.
func WithObserver(fn func(Snapshot)) ProgressOption {
	return func(p *Progress) {
		p.observer = fn
	}
}

// NewProgress returns an idle reporter. A non-positive expected duration makes it indeterminate.
func NewProgress(expected time.Duration, opts ...ProgressOption) *Progress {
	p := &Progress{
		clock:    realClock{},
		expected: expected,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// EstimatePercent maps elapsed time onto [0, 100], capped at 100.
// It returns -1 when expected is not positive.
func EstimatePercent(elapsed, expected time.Duration) float64 {
	if expected <= 0 {
		return -1
	}
	if elapsed <= 0 {
		return 0
	}
	if elapsed >= expected {
		return 100
	}
	return float64(elapsed) / float64(expected) * 100
}

// Start resets the clock to zero and enters Running. Cancelling ctx stops the ticker.
func (p *Progress) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	p.state = Running
	p.elapsed = 0

	stop := make(chan struct{})
	p.stop = stop

	go p.run(ctx, p.clock.NewTicker(tickInterval), stop)

	p.notifyLocked()
}

// Finish settles a running reporter into Done, or Error when err is set.
func (p *Progress) Finish(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != Running {
		return
	}

	p.state = Done
	if err != nil {
		p.state = Error
	}

	p.stopLocked()
	p.notifyLocked()
}

// Stop releases the ticker without changing state.
func (p *Progress) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
}

func (p *Progress) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.snapshotLocked()
}

func (p *Progress) State() State {
	return p.Snapshot().State
}

func (p *Progress) Percent() float64 {
	return p.Snapshot().Percent
}

func (p *Progress) Elapsed() time.Duration {
	return p.Snapshot().Elapsed
}

func (p *Progress) run(ctx context.Context, ticker Ticker, stop chan struct{}) {
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C():
			p.tick(stop)
		}
	}
}

func (p *Progress) tick(stop chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// A tick from a previous run or one racing with Finish is dropped.
	if p.state != Running || p.stop != stop {
		return
	}

	p.elapsed += tickInterval
	p.notifyLocked()
}

func (p *Progress) stopLocked() {
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
}

func (p *Progress) snapshotLocked() Snapshot {
	percent := EstimatePercent(p.elapsed, p.expected)
	return Snapshot{
		State:         p.state,
		Elapsed:       p.elapsed,
		Percent:       percent,
		Indeterminate: percent < 0,
	}
}

func (p *Progress) notifyLocked() {
	if p.observer != nil {
		p.observer(p.snapshotLocked())
	}
}
