package metrics

import (
	"context"
	"fmt"
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// HTTPHandler returns an http.Handler that serves Prometheus metrics for the provided registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Push sends every metric in reg to a Pushgateway, replacing the job's group.
func Push(ctx context.Context, gatewayURL, job string, reg *prom.Registry) error {
	if job == "" {
		job = namespace
	}
	if err := push.New(gatewayURL, job).Gatherer(reg).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}

// RegisterRuntimeCollectors adds Go runtime and process metrics to reg.
// Long-running processes register them; one-shot runs push without them.
func RegisterRuntimeCollectors(reg *prom.Registry) {
	reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
}
