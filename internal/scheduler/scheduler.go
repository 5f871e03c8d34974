package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs the periodic jobs on cron schedules.
type Scheduler struct {
	cron     *cron.Cron
	jobs     *Jobs
	logger   *zap.Logger
	schedule string
}

// New creates a scheduler; jobs are registered by Start.
func New(jobs *Jobs, logger *zap.Logger, yieldSchedule string) *Scheduler {
	cl := cronLogger{logger.Sugar()}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))

	return &Scheduler{
		cron:     c,
		jobs:     jobs,
		logger:   logger,
		schedule: yieldSchedule,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.jobs.AccrueYields); err != nil {
		return fmt.Errorf("schedule yield accrual job %q: %w", s.schedule, err)
	}
	s.logger.Info("scheduled yield accrual job", zap.String("schedule", s.schedule))

	s.cron.Start()
	return nil
}

// Stop halts scheduling; the returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
