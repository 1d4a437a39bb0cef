package matching

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jobmatch/jobmatch/internal/jobboard"
)

const waitTimeout = 2 * time.Second

// manualClock hands out tickers that only fire when the test calls Tick.
type manualClock struct {
	mu       sync.Mutex
	tickers  []*manualTicker
	interval time.Duration
}

type manualTicker struct {
	ch      chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func (c *manualClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &manualTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
	c.tickers = append(c.tickers, t)
	c.interval = d
	return t
}

func (c *manualClock) current() *manualTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tickers) == 0 {
		return nil
	}
	return c.tickers[len(c.tickers)-1]
}

// Tick delivers one tick and reports whether a running reporter received it.
func (c *manualClock) Tick() bool {
	t := c.current()
	if t == nil {
		return false
	}

	select {
	case t.ch <- time.Now():
		return true
	case <-t.stopped:
		return false
	case <-time.After(100 * time.Millisecond):
		return false
	}
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() { t.once.Do(func() { close(t.stopped) }) }

// snapshots collects observer notifications.
type snapshots chan Snapshot

func (s snapshots) observe(snap Snapshot) { s <- snap }

func (s snapshots) next(t *testing.T) Snapshot {
	t.Helper()
	select {
	case snap := <-s:
		return snap
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for progress snapshot")
		return Snapshot{}
	}
}

// fakeMatcher answers batch requests, optionally blocking until released.
type fakeMatcher struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
	resp    *jobboard.BatchMatchResponse
	err     error
}

func newFakeMatcher(resp *jobboard.BatchMatchResponse, err error) *fakeMatcher {
	return &fakeMatcher{resp: resp, err: err, entered: make(chan struct{}, 16)}
}

func (f *fakeMatcher) blocking() *fakeMatcher {
	f.release = make(chan struct{})
	return f
}

func (f *fakeMatcher) MatchAllApplications(ctx context.Context, _ string) (*jobboard.BatchMatchResponse, error) {
	f.calls.Add(1)
	f.entered <- struct{}{}

	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return f.resp, f.err
}

func (f *fakeMatcher) waitEntered(t *testing.T) {
	t.Helper()
	select {
	case <-f.entered:
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for the batch request")
	}
}

func resultsResponse(percents ...float64) *jobboard.BatchMatchResponse {
	resp := &jobboard.BatchMatchResponse{
		Status:                "success",
		TotalApplications:     len(percents),
		ProcessedApplications: len(percents),
		Results:               []*jobboard.MatchingResult{},
	}
	for i, p := range percents {
		resp.Results = append(resp.Results, &jobboard.MatchingResult{
			ID:              "r" + string(rune('1'+i)),
			ApplicationID:   "a" + string(rune('1'+i)),
			MatchPercentage: p,
		})
	}
	return resp
}
