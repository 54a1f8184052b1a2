// Package daemon keeps the release watcher running in-process: it schedules
// runs, swaps in a new configuration when the config file changes and shuts
// down cleanly on context cancellation.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/releasebot/internal/logfields"
	"git.home.luguber.info/inful/releasebot/internal/watcher"
)

const jobName = "release-check"

// Runner performs one release check and owns resources released by Close.
type Runner interface {
	Run(ctx context.Context) (*watcher.Report, error)
	Close() error
}

// Schedule is either a fixed interval or a cron expression. Cron wins when both are set.
type Schedule struct {
	Interval time.Duration
	Cron     string
}

func (s Schedule) String() string {
	if s.Cron != "" {
		return "cron " + s.Cron
	}
	return "every " + s.Interval.String()
}

// Daemon runs checks on a schedule.
type Daemon struct {
	schedule  Schedule
	scheduler *Scheduler

	// mu is held for the whole of a run, so Replace waits for it to finish.
	mu     sync.Mutex
	runner Runner

	startTime  time.Time
	runs       atomic.Int64
	lastReport atomic.Pointer[watcher.Report]
}

// New creates a daemon around runner.
func New(schedule Schedule, runner Runner) (*Daemon, error) {
	if runner == nil {
		return nil, errors.New("daemon: runner is required")
	}
	if schedule.Cron == "" && schedule.Interval <= 0 {
		return nil, errors.New("daemon: schedule needs an interval or a cron expression")
	}
	scheduler, err := NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Daemon{schedule: schedule, scheduler: scheduler, runner: runner, startTime: time.Now()}, nil
}

// Replace swaps the runner used from the next run on and closes the old one.
func (d *Daemon) Replace(runner Runner) {
	d.mu.Lock()
	old := d.runner
	d.runner = runner
	d.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			slog.Warn("Failed to close previous runner", logfields.Error(err))
		}
	}
}

// Runs returns how many runs have finished.
func (d *Daemon) Runs() int64 { return d.runs.Load() }

// LastReport returns the report of the most recent run, or nil.
func (d *Daemon) LastReport() *watcher.Report { return d.lastReport.Load() }

// Run schedules checks, runs the first one immediately and blocks until ctx
// is canceled. The current runner is closed on return.
func (d *Daemon) Run(ctx context.Context) error {
	task := func() { d.tick(ctx) }

	var err error
	if d.schedule.Cron != "" {
		_, err = d.scheduler.ScheduleCron(jobName, d.schedule.Cron, task, StartImmediately())
	} else {
		_, err = d.scheduler.ScheduleEvery(jobName, d.schedule.Interval, task, StartImmediately())
	}
	if err != nil {
		return fmt.Errorf("schedule release check: %w", err)
	}

	slog.Info("Release watcher started", logfields.Schedule(d.schedule.String()))
	d.scheduler.Start(ctx)

	<-ctx.Done()

	stopErr := d.scheduler.Stop(context.Background())

	d.mu.Lock()
	closeErr := d.runner.Close()
	d.mu.Unlock()

	slog.Info("Release watcher stopped", slog.Int64("runs", d.Runs()))
	return errors.Join(stopErr, closeErr)
}

// tick performs one run. Errors are logged; the schedule carries on and the
// next tick is the retry.
func (d *Daemon) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	report, err := d.runner.Run(ctx)
	d.runs.Add(1)
	if report != nil {
		d.lastReport.Store(report)
	}
	if err != nil {
		attrs := []any{logfields.Error(err)}
		if report != nil {
			attrs = append(attrs, logfields.Outcome(string(report.Outcome)))
		}
		slog.Warn("Scheduled run failed", attrs...)
	}
	if next, ok := d.scheduler.NextRun(jobName); ok {
		slog.Debug("Next release check scheduled", slog.Time("at", next))
	}
}
