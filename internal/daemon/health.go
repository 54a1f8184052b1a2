package daemon

import (
	"time"

	"git.home.luguber.info/inful/releasebot/internal/version"
	"git.home.luguber.info/inful/releasebot/internal/watcher"
)

// HealthStatus represents the overall health of the daemon
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck represents a single health check
type HealthCheck struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// HealthResponse represents the complete health check response
type HealthResponse struct {
	Status    HealthStatus  `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Uptime    string        `json:"uptime"`
	Version   string        `json:"version"`
	Runs      int64         `json:"runs"`
	Checks    []HealthCheck `json:"checks"`
}

// PerformHealthChecks reports on the scheduler and the most recent run.
func (d *Daemon) PerformHealthChecks() *HealthResponse {
	checks := []HealthCheck{d.checkScheduler(), d.checkLastRun()}

	overall := HealthStatusHealthy
	for _, c := range checks {
		if c.Status == HealthStatusUnhealthy {
			overall = HealthStatusUnhealthy
			break
		}
		if c.Status == HealthStatusDegraded {
			overall = HealthStatusDegraded
		}
	}

	return &HealthResponse{
		Status:    overall,
		Timestamp: time.Now(),
		Uptime:    time.Since(d.startTime).Round(time.Second).String(),
		Version:   version.Version,
		Runs:      d.Runs(),
		Checks:    checks,
	}
}

func (d *Daemon) checkScheduler() HealthCheck {
	check := HealthCheck{Name: "scheduler"}
	if next, ok := d.scheduler.NextRun(jobName); ok {
		check.Status = HealthStatusHealthy
		check.Message = "next run at " + next.Format(time.RFC3339)
	} else {
		check.Status = HealthStatusDegraded
		check.Message = "no run scheduled"
	}
	return check
}

// checkLastRun grades the latest report. Failures that the next run retries
// are degraded; a state failure needs an operator.
func (d *Daemon) checkLastRun() HealthCheck {
	check := HealthCheck{Name: "last_run"}
	report := d.LastReport()
	if report == nil {
		check.Status = HealthStatusDegraded
		check.Message = "no run finished yet"
		return check
	}
	check.Message = report.String()
	switch report.Outcome {
	case watcher.OutcomeStateFailed:
		check.Status = HealthStatusUnhealthy
	case watcher.OutcomeFetchFailed, watcher.OutcomeSendFailed, watcher.OutcomeAnnouncedUnpinned:
		check.Status = HealthStatusDegraded
	default:
		check.Status = HealthStatusHealthy
	}
	return check
}
