package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hongminglow/invest-be/internal/service"
)

type accruerStub struct {
	calls  int
	at     time.Time
	report service.AccrualReport
	err    error
}

func (s *accruerStub) AccrueYields(ctx context.Context, now time.Time) (service.AccrualReport, error) {
	s.calls++
	s.at = now
	return s.report, s.err
}

func newTestJobs(accruer YieldAccruer) (*Jobs, *observer.ObservedLogs) {
	core, logs := observer.New(zap.InfoLevel)
	j := NewJobs(accruer, zap.New(core))
	j.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return j, logs
}

func TestAccrueYieldsLogsReport(t *testing.T) {
	stub := &accruerStub{report: service.AccrualReport{Processed: 3, Matured: 1, Credited: decimal.RequireFromString("12.5")}}
	j, logs := newTestJobs(stub)

	j.AccrueYields()

	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), stub.at)
	finished := logs.FilterMessage("yield accrual job finished").All()
	require.Len(t, finished, 1)
	fields := finished[0].ContextMap()
	assert.EqualValues(t, 3, fields["processed"])
	assert.Equal(t, "12.50", fields["credited"])
}

func TestAccrueYieldsLogsFailure(t *testing.T) {
	j, logs := newTestJobs(&accruerStub{err: errors.New("db down")})

	j.AccrueYields()

	assert.Equal(t, 1, logs.FilterMessage("yield accrual job failed").Len())
	assert.Zero(t, logs.FilterMessage("yield accrual job finished").Len())
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	j, _ := newTestJobs(&accruerStub{})
	s := New(j, zap.NewNop(), "not a schedule")
	assert.Error(t, s.Start())
}

func TestSchedulerStartStop(t *testing.T) {
	j, _ := newTestJobs(&accruerStub{})
	s := New(j, zap.NewNop(), "@daily")
	require.NoError(t, s.Start())

	select {
	case <-s.Stop().Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
