// Package telemetry counts simulation runs for the Prometheus textfile
// collector. The command line writes the file once per invocation.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/stockflow/internal/dynamo"
)

type Recorder struct {
	registry *prometheus.Registry
	runs     *prometheus.CounterVec
	failures *prometheus.CounterVec
	steps    *prometheus.CounterVec
	seconds  *prometheus.HistogramVec
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockflow_runs_total",
			Help: "Completed simulation runs.",
		}, []string{"model"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockflow_run_failures_total",
			Help: "Simulation runs that returned an error.",
		}, []string{"model"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockflow_steps_total",
			Help: "Euler steps taken across runs.",
		}, []string{"model"}),
		seconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stockflow_run_seconds",
			Help:    "Wall time of a simulation run.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"model"}),
	}
	r.registry.MustRegister(r.runs, r.failures, r.steps, r.seconds)
	return r
}

// Observe records one run. A nil result counts as a failure.
func (r *Recorder) Observe(model string, result *dynamo.Result, elapsed time.Duration) {
	if result == nil {
		r.failures.WithLabelValues(model).Inc()
		return
	}
	r.runs.WithLabelValues(model).Inc()
	r.steps.WithLabelValues(model).Add(float64(result.StepsTaken))
	r.seconds.WithLabelValues(model).Observe(elapsed.Seconds())
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile atomically replaces path with the current values.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
