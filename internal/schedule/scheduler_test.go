package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name  string
	runs  atomic.Int32
	block chan struct{}
	err   error
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.block != nil {
		<-j.block
	}
	return j.err
}

func TestCronSchedulerAddJob(t *testing.T) {
	s := NewCronScheduler()
	job := &countingJob{name: "a"}
	require.NoError(t, s.AddJob(job, "*/5 * * * *"))
	require.Error(t, s.AddJob(job, "*/5 * * * *"))
	require.Error(t, s.AddJob(&countingJob{name: "b"}, "not a cron expression"))
	require.Error(t, s.AddJob(&countingJob{name: "c"}, "*/5 * * * * *"))
}

func TestCronSchedulerRunNow(t *testing.T) {
	s := NewCronScheduler()
	job := &countingJob{name: "a"}
	failing := &countingJob{name: "b", err: errors.New("boom")}
	require.NoError(t, s.AddJob(job, "0 0 1 1 *"))
	require.NoError(t, s.AddJob(failing, "0 0 1 1 *"))

	require.NoError(t, s.RunNow(context.Background(), "a"))
	require.Equal(t, int32(1), job.runs.Load())
	require.EqualError(t, s.RunNow(context.Background(), "b"), "boom")
	require.ErrorIs(t, s.RunNow(context.Background(), "missing"), ErrUnknownJob)
}

func TestCronSchedulerSkipsOverlap(t *testing.T) {
	s := NewCronScheduler()
	job := &countingJob{name: "slow", block: make(chan struct{})}
	require.NoError(t, s.AddJob(job, "0 0 1 1 *"))

	done := make(chan error, 1)
	go func() { done <- s.RunNow(context.Background(), "slow") }()
	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.ErrorIs(t, s.RunNow(context.Background(), "slow"), ErrJobRunning)
	require.Equal(t, int32(1), job.runs.Load())

	close(job.block)
	require.NoError(t, <-done)
}
