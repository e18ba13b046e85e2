package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Worker runs a background loop until its context is canceled.
type Worker interface {
	Run(ctx context.Context) error
}

// TickWorker drives an onTick func in a loop. The zero value ticks
// every 100ms and backs off to 300ms after an error, including the
// EOF a worker returns on an empty queue.
type TickWorker struct {
	Delay    time.Duration
	ErrDelay time.Duration
}

// StartTick runs onTick until ctx is done.
func (w *TickWorker) StartTick(ctx context.Context, onTick func(ctx context.Context) error) error {
	delay := w.Delay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	errDelay := w.ErrDelay
	if errDelay <= 0 {
		errDelay = 300 * time.Millisecond
	}

	dur := time.Millisecond
	timer := time.NewTimer(dur)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			if err := onTick(ctx); err != nil {
				dur = errDelay
			} else {
				dur = delay
			}

			timer.Reset(dur)
		}
	}
}

// OnWork one cron job round
type OnWork func() error

// IJob cron job interface
type IJob interface {
	Start() error
	Run()
	Stop() error
}

// BaseJob wraps a cron schedule around OnWork and skips a round when
// the previous one is still running.
type BaseJob struct {
	Cron      *cron.Cron
	IsRunning bool
	OnWork    OnWork
}

// Start start the cron
func (job *BaseJob) Start() error {
	job.Cron.Start()
	return nil
}

// Stop stop the cron
func (job *BaseJob) Stop() error {
	job.Cron.Stop()
	return nil
}

// Run run one round
func (job *BaseJob) Run() {
	if job.IsRunning {
		return
	}

	job.IsRunning = true
	defer func() { job.IsRunning = false }()

	if err := job.OnWork(); err != nil {
		logrus.WithError(err).Errorln("job round failed")
	}
}
