package service

import (
	"context"
	"log"
	"time"

	"github.com/attendly/certserver/internal/certify/store"
)

// ClosureSweeper periodically finds ended events whose claim window has
// closed and logs a final attendance summary for each, exactly once.  It
// runs as a background goroutine and is safe to stop via its context or
// the Stop method.
//
// An interval of 0 disables sweeping entirely.
type ClosureSweeper struct {
	reports  store.ReportStore
	interval time.Duration
	logger   *log.Logger
	now      func() time.Time
	cancel   context.CancelFunc
	done     chan struct{}
}

// SweeperConfig holds the parameters for NewClosureSweeper.
type SweeperConfig struct {
	// IntervalSeconds is how often the sweeper runs.  0 disables it.
	IntervalSeconds int
}

// NewClosureSweeper creates a sweeper but does not start it.
// Call Start to begin the background loop.
func NewClosureSweeper(reports store.ReportStore, cfg SweeperConfig, logger *log.Logger, now func() time.Time) *ClosureSweeper {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &ClosureSweeper{
		reports:  reports,
		interval: time.Duration(cfg.IntervalSeconds) * time.Second,
		logger:   logger,
		now:      now,
		done:     make(chan struct{}),
	}
}

// Start begins the background sweep loop.  It runs an immediate sweep on
// startup to catch windows that closed while the server was down, then
// repeats on the configured interval.  The loop exits when ctx is
// cancelled or Stop is called.
func (s *ClosureSweeper) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Printf("closure sweeper disabled (interval=0)")
		close(s.done)
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)

	go s.loop(ctx)

	s.logger.Printf("closure sweeper started (interval=%s)", s.interval)
}

// Stop signals the sweeper to exit and waits for it to finish.
func (s *ClosureSweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
}

func (s *ClosureSweeper) loop(ctx context.Context) {
	defer close(s.done)

	s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass.  Exported so tests and operators can trigger it
// without waiting for the ticker.
func (s *ClosureSweeper) Sweep(ctx context.Context) {
	now := s.now()
	events, err := s.reports.ClosedUnsummarized(ctx, now)
	if err != nil {
		s.logger.Printf("closure sweep error: %v", err)
		return
	}

	for _, ev := range events {
		registered, claimed, err := s.reports.EventCounts(ctx, ev.ID)
		if err != nil {
			s.logger.Printf("closure sweep counts for %s: %v", ev.ID, err)
			continue
		}
		if err := s.reports.MarkSummarized(ctx, ev.ID, now); err != nil {
			s.logger.Printf("closure sweep mark %s: %v", ev.ID, err)
			continue
		}
		s.logger.Printf("claim window closed: event=%s title=%q registered=%d claimed=%d",
			ev.ID, ev.Title, registered, claimed)
	}
}
