package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NextRun returns the first fire time of expr after now.
func NextRun(expr string, now time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("notify: parse cron %q: %w", expr, err)
	}
	return sched.Next(now), nil
}

// Scheduler runs a job on a cron schedule until its context is cancelled.
type Scheduler struct {
	expr  string
	sched cron.Schedule
	job   func(ctx context.Context)
	log   *zap.Logger
}

// NewScheduler validates expr and binds job to it.
func NewScheduler(expr string, job func(ctx context.Context), log *zap.Logger) (*Scheduler, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("notify: parse cron %q: %w", expr, err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{expr: expr, sched: sched, job: job, log: log}, nil
}

// Run starts the schedule and blocks until ctx is done. A job already
// running is allowed to finish.
func (s *Scheduler) Run(ctx context.Context) {
	c := cron.New(cron.WithParser(cronParser))
	c.Schedule(s.sched, cron.FuncJob(func() {
		s.log.Info("notify: scheduled job firing", zap.String("schedule", s.expr))
		s.job(ctx)
	}))
	c.Start()
	s.log.Debug("notify: scheduler started", zap.String("schedule", s.expr),
		zap.Time("next", s.sched.Next(time.Now())))
	<-ctx.Done()
	<-c.Stop().Done()
}
