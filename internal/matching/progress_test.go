package matching

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

func TestEstimatePercent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		elapsed  time.Duration
		expected time.Duration
		want     float64
	}{
		{name: "start", elapsed: 0, expected: 30 * time.Second, want: 0},
		{name: "one second", elapsed: time.Second, expected: 30 * time.Second, want: 100.0 / 30},
		{name: "half way", elapsed: 15 * time.Second, expected: 30 * time.Second, want: 50},
		{name: "just before full", elapsed: 29 * time.Second, expected: 30 * time.Second, want: 29.0 / 30 * 100},
		{name: "full", elapsed: 30 * time.Second, expected: 30 * time.Second, want: 100},
		{name: "capped past expected", elapsed: 35 * time.Second, expected: 30 * time.Second, want: 100},
		{name: "indeterminate", elapsed: 10 * time.Second, expected: 0, want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := EstimatePercent(tt.elapsed, tt.expected)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEstimatePercentMatchesFormulaForEverySecond(t *testing.T) {
	t.Parallel()

	for e := 0; e < 60; e++ {
		got := EstimatePercent(time.Duration(e)*time.Second, DefaultExpectedDuration)
		want := 100.0
		if e < 30 {
			want = float64(e) / 30 * 100
		}
		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("elapsed %ds: expected %v, got %v", e, want, got)
		}
	}
}

func TestProgressTicksOncePerSecond(t *testing.T) {
	t.Parallel()

	clock := &manualClock{}
	observed := make(snapshots, 16)
	p := NewProgress(DefaultExpectedDuration, WithClock(clock), WithObserver(observed.observe))

	if p.State() != Idle {
		t.Fatalf("expected idle reporter, got %s", p.State())
	}

	p.Start(context.Background())
	defer p.Stop()

	if clock.interval != time.Second {
		t.Fatalf("expected one second ticker, got %v", clock.interval)
	}

	first := observed.next(t)
	if first.State != Running || first.Elapsed != 0 || first.Percent != 0 {
		t.Fatalf("unexpected initial snapshot %+v", first)
	}

	for i := 1; i <= 3; i++ {
		if !clock.Tick() {
			t.Fatalf("tick %d was not received", i)
		}
		snap := observed.next(t)
		if snap.Elapsed != time.Duration(i)*time.Second {
			t.Fatalf("tick %d: expected %ds elapsed, got %v", i, i, snap.Elapsed)
		}
	}

	if got := p.Elapsed(); got != 3*time.Second {
		t.Fatalf("expected 3s elapsed, got %v", got)
	}
}

func TestProgressFinishStopsTicking(t *testing.T) {
	t.Parallel()

	clock := &manualClock{}
	observed := make(snapshots, 16)
	p := NewProgress(DefaultExpectedDuration, WithClock(clock), WithObserver(observed.observe))

	p.Start(context.Background())
	observed.next(t)

	clock.Tick()
	observed.next(t)

	p.Finish(nil)
	done := observed.next(t)
	if done.State != Done || done.Elapsed != time.Second {
		t.Fatalf("unexpected final snapshot %+v", done)
	}

	select {
	case <-clock.current().stopped:
	case <-time.After(waitTimeout):
		t.Fatalf("expected ticker to be stopped after finish")
	}

	clock.Tick()
	if p.Elapsed() != time.Second {
		t.Fatalf("elapsed must not change after finish, got %v", p.Elapsed())
	}

	// Finishing again is a no-op.
	p.Finish(errors.New("late"))
	if p.State() != Done {
		t.Fatalf("expected state to stay done, got %s", p.State())
	}
}

func TestProgressFinishWithError(t *testing.T) {
	t.Parallel()

	p := NewProgress(DefaultExpectedDuration, WithClock(&manualClock{}))
	p.Start(context.Background())
	p.Finish(errors.New("boom"))

	if p.State() != Error {
		t.Fatalf("expected error state, got %s", p.State())
	}
}

func TestProgressRestartResetsClock(t *testing.T) {
	t.Parallel()

	clock := &manualClock{}
	observed := make(snapshots, 16)
	p := NewProgress(DefaultExpectedDuration, WithClock(clock), WithObserver(observed.observe))

	p.Start(context.Background())
	observed.next(t)
	clock.Tick()
	observed.next(t)
	p.Finish(errors.New("boom"))
	observed.next(t)

	p.Start(context.Background())
	defer p.Stop()

	snap := observed.next(t)
	if snap.State != Running || snap.Elapsed != 0 {
		t.Fatalf("expected a fresh run, got %+v", snap)
	}
}

func TestProgressIndeterminate(t *testing.T) {
	t.Parallel()

	clock := &manualClock{}
	observed := make(snapshots, 16)
	p := NewProgress(0, WithClock(clock), WithObserver(observed.observe))

	p.Start(context.Background())
	defer p.Stop()
	observed.next(t)

	clock.Tick()
	snap := observed.next(t)
	if !snap.Indeterminate || snap.Percent != -1 || snap.Elapsed != time.Second {
		t.Fatalf("unexpected indeterminate snapshot %+v", snap)
	}
}

func TestProgressStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	clock := &manualClock{}
	p := NewProgress(DefaultExpectedDuration, WithClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	cancel()

	select {
	case <-clock.current().stopped:
	case <-time.After(waitTimeout):
		t.Fatalf("expected ticker to stop after cancel")
	}
}
