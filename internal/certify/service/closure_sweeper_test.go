package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/attendly/certserver/internal/certify/service"
)

func TestClosureSweeper_DisabledWhenIntervalZero(t *testing.T) {
	s := newStack(t)
	sweeper := service.NewClosureSweeper(s.reports, service.SweeperConfig{
		IntervalSeconds: 0,
	}, silentLogger(), s.clock.Now)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper.Start(ctx)
	// Stop should return immediately without error.
	sweeper.Stop()
}

func TestClosureSweeper_SummarizesClosedWindowOnce(t *testing.T) {
	s := newStack(t)
	ev := s.createEvent(t, "Gopher Summit")
	s.register(t, ev.ID, "alpha", "")
	s.endEvent(t, ev.ID)

	sweeper := service.NewClosureSweeper(s.reports, service.SweeperConfig{
		IntervalSeconds: 60,
	}, silentLogger(), s.clock.Now)
	ctx := context.Background()

	// Window still open: nothing to summarize.
	sweeper.Sweep(ctx)
	pending, err := s.reports.ClosedUnsummarized(ctx, s.clock.Now())
	if err != nil {
		t.Fatalf("ClosedUnsummarized: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no closed events while window is open, got %d", len(pending))
	}

	// Past the deadline the event shows up once, then never again.
	s.clock.Advance(601 * time.Second)
	pending, err = s.reports.ClosedUnsummarized(ctx, s.clock.Now())
	if err != nil {
		t.Fatalf("ClosedUnsummarized: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 closed event, got %d", len(pending))
	}

	sweeper.Sweep(ctx)
	pending, err = s.reports.ClosedUnsummarized(ctx, s.clock.Now())
	if err != nil {
		t.Fatalf("ClosedUnsummarized: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected event summarized after sweep, got %d pending", len(pending))
	}
}

func TestClosureSweeper_IgnoresActiveEvents(t *testing.T) {
	s := newStack(t)
	s.createEvent(t, "Still Running")

	sweeper := service.NewClosureSweeper(s.reports, service.SweeperConfig{
		IntervalSeconds: 60,
	}, silentLogger(), s.clock.Now)

	s.clock.Advance(24 * time.Hour)
	sweeper.Sweep(context.Background())

	pending, err := s.reports.ClosedUnsummarized(context.Background(), s.clock.Now())
	if err != nil {
		t.Fatalf("ClosedUnsummarized: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("active events must never be summarized, got %d pending", len(pending))
	}
}

func TestClosureSweeper_StopIsIdempotent(t *testing.T) {
	s := newStack(t)
	sweeper := service.NewClosureSweeper(s.reports, service.SweeperConfig{
		IntervalSeconds: 3600,
	}, silentLogger(), s.clock.Now)

	ctx, cancel := context.WithCancel(context.Background())
	sweeper.Start(ctx)

	cancel()
	// Multiple stops should not panic.
	sweeper.Stop()
	sweeper.Stop()
}
