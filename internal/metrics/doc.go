// Package metrics records run outcomes and transport calls.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no call site needs a nil check:
//
//	w := watcher.New(cfg, deps) // deps.Recorder == nil means NoopRecorder
//
// PrometheusRecorder is the real implementation. The one-shot run command
// pushes its registry to a Pushgateway after the run; the watch command
// serves it on /metrics.
package metrics
