package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

var (
	ErrUnknownJob = errors.New("job not registered")
	ErrJobRunning = errors.New("job still running")
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler interface {
	AddJob(job Job, spec string) error
	RunNow(ctx context.Context, name string) error
	Start(ctx context.Context)
	Stop()
}

var _ Scheduler = (*CronScheduler)(nil)

type entry struct {
	id      cron.EntryID
	job     Job
	running atomic.Bool
}

// CronScheduler runs each job on a five-field cron spec. A job never
// overlaps with itself: ticks that arrive while it runs are skipped.
type CronScheduler struct {
	cron *cron.Cron

	mu      sync.RWMutex
	entries map[string]*entry
	ctx     context.Context
}

func NewCronScheduler() *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &CronScheduler{
		cron:    cron.New(cron.WithParser(parser)),
		entries: make(map[string]*entry),
		ctx:     context.Background(),
	}
}

func (c *CronScheduler) AddJob(job Job, spec string) error {
	name := job.Name()
	logger := logutil.GetLogger(context.Background()).With(zap.String("job", name), zap.String("spec", spec))
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[name]; ok {
		return fmt.Errorf("job %s already scheduled", name)
	}
	e := &entry{job: job}
	id, err := c.cron.AddFunc(spec, func() {
		if err := c.run(c.context(), e); errors.Is(err, ErrJobRunning) {
			logutil.GetLogger(c.context()).Info("job skipped: still running", zap.String("job", name))
		}
	})
	if err != nil {
		logger.Error("schedule job failed", zap.Error(err))
		return err
	}
	e.id = id
	c.entries[name] = e
	logger.Info("job scheduled")
	return nil
}

// RunNow runs a registered job synchronously, outside its schedule.
func (c *CronScheduler) RunNow(ctx context.Context, name string) error {
	c.mu.RLock()
	e, ok := c.entries[name]
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return c.run(ctx, e)
}

func (c *CronScheduler) Start(ctx context.Context) {
	if ctx != nil {
		c.mu.Lock()
		c.ctx = ctx
		c.mu.Unlock()
	}
	c.cron.Start()
}

// Stop waits for running jobs to return.
func (c *CronScheduler) Stop() {
	<-c.cron.Stop().Done()
}

func (c *CronScheduler) context() context.Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ctx
}

func (c *CronScheduler) run(ctx context.Context, e *entry) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrJobRunning
	}
	defer e.running.Store(false)
	logger := logutil.GetLogger(ctx).With(zap.String("job", e.job.Name()))
	start := time.Now()
	err := e.job.Run(ctx)
	elapsed := time.Since(start)
	if err != nil {
		logger.Error("job finished", zap.Error(err), zap.Duration("duration", elapsed))
		return err
	}
	logger.Info("job finished", zap.Duration("duration", elapsed))
	return nil
}
