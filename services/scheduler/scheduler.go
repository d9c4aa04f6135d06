package schedulersvc

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/malipo/core"
)

const sweepTimeout = 2 * time.Minute

// OverdueSweeper is what the scheduler needs from the billing service.
type OverdueSweeper interface {
	MarkOverdue(ctx context.Context) (int64, error)
}

type Scheduler struct {
	cron   *cron.Cron
	logger core.Logger
}

// cronLogger adapts core.Logger to cron.Logger
type cronLogger struct {
	logger core.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(fmt.Sprintf("cron: %s %v", msg, keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(fmt.Sprintf("cron: %s %v", msg, keysAndValues), err)
}

func New(logger core.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		logger: logger,
	}
}

// ScheduleOverdueSweep runs the overdue sweep on spec; an empty spec schedules nothing.
// onSwept is called with the number of invoices marked after each successful run.
func (s *Scheduler) ScheduleOverdueSweep(spec string, sweeper OverdueSweeper, onSwept func(n int64)) error {
	if spec == "" {
		return nil
	}
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()

		n, err := sweeper.MarkOverdue(ctx)
		if err != nil {
			s.logger.Error("sweeping overdue invoices", err)
			return
		}
		if onSwept != nil {
			onSwept(n)
		}
		s.logger.Info(fmt.Sprintf("%d invoice(s) marked overdue", n))
	})
	if err != nil {
		return errors.Wrapf(err, "scheduling overdue sweep %q", spec)
	}
	return nil
}

// Jobs returns the number of scheduled jobs.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs to complete, or ctx to be done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
