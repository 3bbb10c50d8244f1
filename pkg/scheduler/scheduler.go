package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/newsdigest/pkg/domain"
	"github.com/umputun/newsdigest/pkg/pipeline"
)

//go:generate moq -out mocks/runner.go -pkg mocks -skip-ensure -fmt goimports . Runner
//go:generate moq -out mocks/sweeper.go -pkg mocks -skip-ensure -fmt goimports . Sweeper
//go:generate moq -out mocks/pruner.go -pkg mocks -skip-ensure -fmt goimports . Pruner

// Scheduler runs the pipeline periodically and keeps the cache and delivery history trimmed
type Scheduler struct {
	runner           Runner
	cache            Sweeper
	history          Pruner
	interval         time.Duration
	sweepInterval    time.Duration
	historyRetention time.Duration
	runOnStart       bool
	now              func() time.Time
	wg               sync.WaitGroup
	cancel           context.CancelFunc
}

// Runner performs a single pipeline run
type Runner interface {
	Run(ctx context.Context) (*domain.RunReport, error)
}

// Sweeper removes expired cache entries
type Sweeper interface {
	Sweep(ctx context.Context) int
}

// Pruner removes delivery history older than the given time
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// Params for the scheduler. Cache and History are optional.
type Params struct {
	Runner           Runner
	Cache            Sweeper
	History          Pruner
	Interval         time.Duration
	RunOnStart       bool
	SweepInterval    time.Duration
	HistoryRetention time.Duration
}

// NewScheduler creates a new scheduler instance
func NewScheduler(p Params) *Scheduler {
	if p.Interval == 0 {
		p.Interval = 6 * time.Hour
	}
	if p.SweepInterval == 0 {
		p.SweepInterval = time.Hour
	}
	if p.HistoryRetention == 0 {
		p.HistoryRetention = 30 * 24 * time.Hour
	}

	return &Scheduler{
		runner:           p.Runner,
		cache:            p.Cache,
		history:          p.History,
		interval:         p.Interval,
		sweepInterval:    p.SweepInterval,
		historyRetention: p.HistoryRetention,
		runOnStart:       p.RunOnStart,
		now:              time.Now,
	}
}

// Start begins the scheduler
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.runWorker(ctx)

	if s.cache != nil || s.history != nil {
		s.wg.Add(1)
		go s.maintenanceWorker(ctx)
	}

	lgr.Printf("[INFO] scheduler started with run interval %v, sweep interval %v, run on start %v",
		s.interval, s.sweepInterval, s.runOnStart)
}

// Stop gracefully stops the scheduler, an active run is canceled
func (s *Scheduler) Stop() {
	lgr.Printf("[INFO] stopping scheduler...")
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	lgr.Printf("[INFO] scheduler stopped")
}

// RunNow runs the pipeline immediately outside of the schedule
func (s *Scheduler) RunNow(ctx context.Context) (*domain.RunReport, error) {
	lgr.Printf("[INFO] manual pipeline run requested")
	return s.runner.Run(ctx)
}

// runWorker runs the pipeline every interval
func (s *Scheduler) runWorker(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if s.runOnStart {
		s.runPipeline(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runPipeline(ctx)
		}
	}
}

func (s *Scheduler) runPipeline(ctx context.Context) {
	report, err := s.runner.Run(ctx)
	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		lgr.Printf("[INFO] scheduled run skipped, another run is in progress")
	case err != nil:
		lgr.Printf("[ERROR] scheduled run failed: %v", err)
	default:
		lgr.Printf("[INFO] scheduled run %s completed with %d items", report.ID, report.Kept)
	}
}

// maintenanceWorker sweeps the cache and prunes the history every sweep interval
func (s *Scheduler) maintenanceWorker(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.maintain(ctx)
		}
	}
}

func (s *Scheduler) maintain(ctx context.Context) {
	if s.cache != nil {
		if n := s.cache.Sweep(ctx); n > 0 {
			lgr.Printf("[DEBUG] swept %d expired summaries", n)
		}
	}
	if s.history != nil {
		n, err := s.history.Prune(ctx, s.now().Add(-s.historyRetention))
		if err != nil {
			lgr.Printf("[WARN] failed to prune delivery history: %v", err)
			return
		}
		if n > 0 {
			lgr.Printf("[INFO] pruned %d delivery history records", n)
		}
	}
}
