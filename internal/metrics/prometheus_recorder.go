package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "releasebot"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg            *prom.Registry
	runOutcomes    *prom.CounterVec
	runDuration    prom.Histogram
	fetchDuration  *prom.HistogramVec
	transportCalls *prom.CounterVec
	lastRun        prom.Gauge
}

var _ Recorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder constructs and registers the metrics on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		runOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Watcher runs by outcome",
		}, []string{"outcome"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a full watcher run",
			Buckets:   prom.DefBuckets,
		}),
		fetchDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of manifest fetches",
			Buckets:   prom.DefBuckets,
		}, []string{"result"}),
		transportCalls: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "transport_calls_total",
			Help:      "Chat transport calls by operation and result",
		}, []string{"op", "result"}),
		lastRun: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last finished run",
		}),
	}
	reg.MustRegister(pr.runOutcomes, pr.runDuration, pr.fetchDuration, pr.transportCalls, pr.lastRun)
	return pr
}

// Registry returns the registry the metrics are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	if p == nil {
		return
	}
	p.runOutcomes.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveFetchDuration(d time.Duration, result ResultLabel) {
	if p == nil {
		return
	}
	p.fetchDuration.WithLabelValues(string(result)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncTransportCall(op string, result ResultLabel) {
	if p == nil {
		return
	}
	p.transportCalls.WithLabelValues(op, string(result)).Inc()
}

func (p *PrometheusRecorder) SetLastRun(t time.Time) {
	if p == nil {
		return
	}
	p.lastRun.Set(float64(t.Unix()))
}
