package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/newsdigest/pkg/domain"
	"github.com/umputun/newsdigest/pkg/pipeline"
	"github.com/umputun/newsdigest/pkg/scheduler/mocks"
)

func TestNewScheduler(t *testing.T) {
	runner := &mocks.RunnerMock{}
	s := NewScheduler(Params{Runner: runner, Interval: 5 * time.Minute, RunOnStart: true})

	assert.NotNil(t, s)
	assert.Equal(t, 5*time.Minute, s.interval)
	assert.True(t, s.runOnStart)
}

func TestNewScheduler_DefaultConfig(t *testing.T) {
	s := NewScheduler(Params{Runner: &mocks.RunnerMock{}})

	assert.Equal(t, 6*time.Hour, s.interval)
	assert.Equal(t, time.Hour, s.sweepInterval)
	assert.Equal(t, 30*24*time.Hour, s.historyRetention)
	assert.False(t, s.runOnStart)
}

func TestScheduler_StartStop(t *testing.T) {
	runner := &mocks.RunnerMock{
		RunFunc: func(ctx context.Context) (*domain.RunReport, error) {
			return &domain.RunReport{ID: "run-1", Status: domain.StageDone, Kept: 3}, nil
		},
	}

	t.Run("runs on start and on every tick", func(t *testing.T) {
		s := NewScheduler(Params{Runner: runner, Interval: 20 * time.Millisecond, RunOnStart: true})
		s.Start(context.Background())
		require.Eventually(t, func() bool { return len(runner.RunCalls()) >= 3 }, time.Second, 5*time.Millisecond)
		s.Stop()

		calls := len(runner.RunCalls())
		time.Sleep(50 * time.Millisecond)
		assert.Len(t, runner.RunCalls(), calls, "no runs after stop")
	})

	t.Run("no run on start", func(t *testing.T) {
		runner := &mocks.RunnerMock{RunFunc: runner.RunFunc}
		s := NewScheduler(Params{Runner: runner, Interval: time.Hour})
		s.Start(context.Background())
		time.Sleep(20 * time.Millisecond)
		s.Stop()
		assert.Empty(t, runner.RunCalls())
	})

	t.Run("stop cancels the run context", func(t *testing.T) {
		started := make(chan struct{})
		runner := &mocks.RunnerMock{RunFunc: func(ctx context.Context) (*domain.RunReport, error) {
			close(started)
			<-ctx.Done()
			return &domain.RunReport{Status: domain.StageFailed}, ctx.Err()
		}}
		s := NewScheduler(Params{Runner: runner, Interval: time.Hour, RunOnStart: true})
		s.Start(context.Background())
		<-started
		s.Stop()
		assert.Len(t, runner.RunCalls(), 1)
	})

	t.Run("stop without start", func(t *testing.T) {
		NewScheduler(Params{Runner: runner}).Stop()
	})
}

func TestScheduler_RunErrorsDoNotStopSchedule(t *testing.T) {
	errs := []error{pipeline.ErrRunInProgress, errors.New("all sources failed")}
	runner := &mocks.RunnerMock{RunFunc: func(ctx context.Context) (*domain.RunReport, error) {
		return nil, errs[0]
	}}
	s := NewScheduler(Params{Runner: runner, Interval: 10 * time.Millisecond})
	s.Start(context.Background())
	require.Eventually(t, func() bool { return len(runner.RunCalls()) >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()

	runner.RunFunc = func(ctx context.Context) (*domain.RunReport, error) {
		return &domain.RunReport{Status: domain.StageFailed}, errs[1]
	}
	s = NewScheduler(Params{Runner: runner, Interval: 10 * time.Millisecond})
	s.Start(context.Background())
	calls := len(runner.RunCalls())
	require.Eventually(t, func() bool { return len(runner.RunCalls()) >= calls+2 }, time.Second, 5*time.Millisecond)
	s.Stop()
}

func TestScheduler_RunNow(t *testing.T) {
	runner := &mocks.RunnerMock{RunFunc: func(ctx context.Context) (*domain.RunReport, error) {
		return &domain.RunReport{ID: "manual", Status: domain.StageDone}, nil
	}}
	s := NewScheduler(Params{Runner: runner})

	report, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "manual", report.ID)
	assert.Len(t, runner.RunCalls(), 1)

	runner.RunFunc = func(ctx context.Context) (*domain.RunReport, error) { return nil, pipeline.ErrRunInProgress }
	_, err = s.RunNow(context.Background())
	assert.ErrorIs(t, err, pipeline.ErrRunInProgress)
}

func TestScheduler_Maintenance(t *testing.T) {
	runner := &mocks.RunnerMock{}
	sweeper := &mocks.SweeperMock{SweepFunc: func(ctx context.Context) int { return 2 }}
	pruner := &mocks.PrunerMock{PruneFunc: func(ctx context.Context, before time.Time) (int64, error) { return 5, nil }}

	s := NewScheduler(Params{Runner: runner, Cache: sweeper, History: pruner, Interval: time.Hour,
		SweepInterval: 10 * time.Millisecond, HistoryRetention: 48 * time.Hour})
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Start(context.Background())
	require.Eventually(t, func() bool {
		return len(sweeper.SweepCalls()) >= 2 && len(pruner.PruneCalls()) >= 2
	}, time.Second, 5*time.Millisecond)
	s.Stop()

	assert.Equal(t, now.Add(-48*time.Hour), pruner.PruneCalls()[0].Before)
	assert.Empty(t, runner.RunCalls())

	t.Run("prune failure is logged", func(t *testing.T) {
		pruner := &mocks.PrunerMock{PruneFunc: func(ctx context.Context, before time.Time) (int64, error) {
			return 0, errors.New("database is locked")
		}}
		s := NewScheduler(Params{Runner: runner, History: pruner})
		s.maintain(context.Background())
		assert.Len(t, pruner.PruneCalls(), 1)
	})
}
