package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/invest-be/internal/metrics"
	"github.com/hongminglow/invest-be/internal/service"
)

// YieldAccruer is the part of the service the yield job drives.
type YieldAccruer interface {
	AccrueYields(ctx context.Context, now time.Time) (service.AccrualReport, error)
}

// Jobs holds the scheduled task bodies.
type Jobs struct {
	accruer YieldAccruer
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewJobs wires the job runner.
func NewJobs(accruer YieldAccruer, logger *zap.Logger) *Jobs {
	return &Jobs{
		accruer: accruer,
		logger:  logger,
		timeout: 10 * time.Minute,
		now:     time.Now,
	}
}

// AccrueYields credits daily yield on active investments and settles matured ones.
func (j *Jobs) AccrueYields() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := j.now()
	j.logger.Info("starting yield accrual job")

	report, err := j.accruer.AccrueYields(ctx, start.UTC())
	metrics.RecordYieldRun(report.Processed, report.Failed, err == nil && report.Failed == 0)
	if err != nil {
		j.logger.Error("yield accrual job failed", zap.Error(err))
		return
	}

	j.logger.Info("yield accrual job finished",
		zap.Int("processed", report.Processed),
		zap.Int("matured", report.Matured),
		zap.Int("failed", report.Failed),
		zap.String("credited", report.Credited.StringFixed(2)),
		zap.Duration("took", j.now().Sub(start)),
	)
}
