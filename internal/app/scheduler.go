package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"rpa-news-robot/internal/config"
	"rpa-news-robot/internal/observability"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler repeats a job once, on a fixed interval or on a cron schedule.
type Scheduler struct {
	cfg    config.SchedulerConfig
	logger *observability.Logger
}

func NewScheduler(cfg config.SchedulerConfig, logger *observability.Logger) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		logger: logger.With("component", "scheduler"),
	}
}

// Run blocks until ctx is done. In oneshot mode it returns the job's error;
// in the repeating modes job errors are logged and the schedule continues.
func (s *Scheduler) Run(ctx context.Context, job Job) error {
	switch s.cfg.Mode {
	case "", "oneshot":
		return job(ctx)
	case "interval":
		return s.runInterval(ctx, job, time.Duration(s.cfg.IntervalS)*time.Second)
	case "cron":
		return s.runCron(ctx, job)
	default:
		return fmt.Errorf("unknown scheduler mode: %s", s.cfg.Mode)
	}
}

func (s *Scheduler) runInterval(ctx context.Context, job Job, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("scheduler interval must be > 0")
	}
	s.logger.Info("Interval schedule started", "interval", interval.String())

	s.execute(ctx, job)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return nil
		case <-ticker.C:
			s.execute(ctx, job)
		}
	}
}

func (s *Scheduler) runCron(ctx context.Context, job Job) error {
	schedule, err := cron.ParseStandard(s.cfg.CronExpr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", s.cfg.CronExpr, err)
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(schedule, cron.FuncJob(func() {
		s.logger.Info("Cron triggered", "schedule", s.cfg.CronExpr)
		s.execute(ctx, job)
	}))

	c.Start()
	s.logger.Info("Cron schedule started",
		"schedule", s.cfg.CronExpr,
		"next_run", schedule.Next(time.Now()).Format("2006-01-02 15:04:05"),
	)

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("Scheduler stopped")
	return nil
}

func (s *Scheduler) execute(ctx context.Context, job Job) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := job(ctx); err != nil {
		s.logger.Error("Scheduled run failed", "error", err.Error(), "duration", time.Since(start).String())
		return
	}
	s.logger.Info("Scheduled run finished", "duration", time.Since(start).String())
}
