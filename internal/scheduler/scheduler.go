package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/GregMSThompson/expense-tracker/internal/dto"
	"github.com/GregMSThompson/expense-tracker/pkg/logger"
)

const (
	defaultInterval = time.Hour
	defaultTimeout  = 60 * time.Second
)

type cycleRunner interface {
	RunCycle(ctx context.Context) (dto.CycleSummary, error)
}

type upcomingScanner interface {
	NotifyAllUpcoming(ctx context.Context) (dto.ScanSummary, error)
}

// Scheduler runs the generation cycle on a ticker for deployments without an
// external cron trigger.
type Scheduler struct {
	log        *slog.Logger
	generation cycleRunner
	notifier   upcomingScanner
	interval   time.Duration
	timeout    time.Duration
	startDelay time.Duration
	notifyCh   chan struct{}
}

func New(log *slog.Logger, generation cycleRunner, notifier upcomingScanner, interval, timeout time.Duration) *Scheduler {
	if interval <= 0 {
		interval = defaultInterval
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Scheduler{
		log:        log.With("component", "scheduler"),
		generation: generation,
		notifier:   notifier,
		interval:   interval,
		timeout:    timeout,
		startDelay: 2 * time.Second,
		notifyCh:   make(chan struct{}, 1),
	}
}

// Notify triggers an immediate run. Non-blocking if a run is already pending.
func (s *Scheduler) Notify() {
	select {
	case s.notifyCh <- struct{}{}:
	default:
	}
}

// Start blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("scheduler started", "interval", s.interval.String())
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Give migrations a moment before the first run
	select {
	case <-ctx.Done():
		return
	case <-time.After(s.startDelay):
	}

	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		case <-s.notifyCh:
			s.log.Info("scheduler triggered by notification")
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(parent context.Context) {
	base := logger.ToContext(parent, s.log)

	cycleCtx, cancelCycle := context.WithTimeout(base, s.timeout)
	summary, err := s.generation.RunCycle(cycleCtx)
	cancelCycle()
	if err != nil {
		s.log.Error("generation cycle failed", "error", err)
		return
	}
	s.log.Info("generation cycle finished",
		"run_date", summary.RunDate,
		"generated", summary.GeneratedCount,
		"failed", summary.FailedCount)

	if s.notifier == nil {
		return
	}
	scanCtx, cancelScan := context.WithTimeout(base, s.timeout)
	defer cancelScan()
	if _, err := s.notifier.NotifyAllUpcoming(scanCtx); err != nil {
		s.log.Warn("upcoming scan failed", "error", err)
	}
}
