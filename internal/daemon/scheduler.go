package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler wraps gocron scheduler for managing periodic tasks.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
	}, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start(_ context.Context) {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler, waiting for running jobs.
func (s *Scheduler) Stop(_ context.Context) error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// StartImmediately makes a job run once as soon as the scheduler starts.
func StartImmediately() gocron.JobOption {
	return gocron.WithStartAt(gocron.WithStartImmediately())
}

// ScheduleEvery runs task every interval. Returns the job ID.
func (s *Scheduler) ScheduleEvery(name string, interval time.Duration, task func(), opts ...gocron.JobOption) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("interval must be positive, got %s", interval)
	}
	return s.schedule(name, gocron.DurationJob(interval), task, opts)
}

// ScheduleCron runs task on a standard five-field cron expression. Returns the job ID.
func (s *Scheduler) ScheduleCron(name, expression string, task func(), opts ...gocron.JobOption) (string, error) {
	if expression == "" {
		return "", errors.New("cron expression is empty")
	}
	return s.schedule(name, gocron.CronJob(expression, false), task, opts)
}

// schedule registers task in singleton mode: a tick that fires while the
// previous run is still going is skipped.
func (s *Scheduler) schedule(name string, def gocron.JobDefinition, task func(), opts []gocron.JobOption) (string, error) {
	jobOpts := append([]gocron.JobOption{
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}, opts...)

	job, err := s.scheduler.NewJob(def, gocron.NewTask(task), jobOpts...)
	if err != nil {
		return "", fmt.Errorf("failed to create %s job: %w", name, err)
	}
	return job.ID().String(), nil
}

// NextRun returns the next scheduled time of the named job.
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	for _, job := range s.scheduler.Jobs() {
		if job.Name() != name {
			continue
		}
		next, err := job.NextRun()
		if err != nil {
			return time.Time{}, false
		}
		return next, true
	}
	return time.Time{}, false
}
