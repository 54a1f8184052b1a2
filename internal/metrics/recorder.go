package metrics

import "time"

// ResultLabel enumerates call result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
)

// ResultFor maps an error to a ResultLabel.
func ResultFor(err error) ResultLabel {
	if err != nil {
		return ResultFailed
	}
	return ResultSuccess
}

// Recorder defines observability hooks for watcher runs.
type Recorder interface {
	// IncRunOutcome counts a finished run by its outcome name.
	IncRunOutcome(outcome string)
	ObserveRunDuration(d time.Duration)
	ObserveFetchDuration(d time.Duration, result ResultLabel)
	// IncTransportCall counts chat calls by op (send, pin, unpin).
	IncTransportCall(op string, result ResultLabel)
	SetLastRun(t time.Time)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncRunOutcome(string)                            {}
func (NoopRecorder) ObserveRunDuration(time.Duration)                {}
func (NoopRecorder) ObserveFetchDuration(time.Duration, ResultLabel) {}
func (NoopRecorder) IncTransportCall(string, ResultLabel)            {}
func (NoopRecorder) SetLastRun(time.Time)                            {}
