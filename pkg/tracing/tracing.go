// Package tracing implements spec.md §6's process-wide tracing-enable
// toggle and the Prometheus collectors the engine registers for pipeline
// operations. Grounded on the Azure-ARO-HCP frontend's PrometheusEmitter
// (pkg/frontend/metrics.go): a small registerer-backed wrapper keyed by
// metric name, generalized here from HTTP request metrics to pipeline
// run()/provide_data() counters, and the teacher's logrus level-toggle
// idiom in main.go.
package tracing

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var (
	enabled int32

	once       sync.Once
	pipelines  prometheus.Counter
	runs       prometheus.Counter
	itemsEmit  prometheus.Counter
	dataErrors prometheus.Counter
)

// Enable turns on debug-level tracing and registers the pipeline metric
// collectors against the default Prometheus registry, per spec.md §6's
// "tracing_enable()... (idempotent)". Safe to call more than once or
// concurrently; only the first call has an effect.
func Enable() {
	once.Do(func() {
		atomic.StoreInt32(&enabled, 1)
		logrus.SetLevel(logrus.DebugLevel)

		pipelines = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cosmos_query_engine",
			Name:      "pipelines_created_total",
			Help:      "Number of query pipelines created.",
		})
		runs = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cosmos_query_engine",
			Name:      "pipeline_runs_total",
			Help:      "Number of Pipeline.Run() calls across all pipelines.",
		})
		itemsEmit = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cosmos_query_engine",
			Name:      "pipeline_items_emitted_total",
			Help:      "Number of items emitted by Pipeline.Run() across all pipelines.",
		})
		dataErrors = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cosmos_query_engine",
			Name:      "pipeline_provide_data_errors_total",
			Help:      "Number of ProvideData calls rejected across all pipelines.",
		})
		prometheus.MustRegister(pipelines, runs, itemsEmit, dataErrors)
		atomic.StoreInt32(&enabled, 1)
	})
}

// Enabled reports whether Enable has been called.
func Enabled() bool { return atomic.LoadInt32(&enabled) == 1 }

// PipelineCreated records one pipeline construction. A no-op until Enable
// has been called, so the hot path never pays for an uninitialized
// collector.
func PipelineCreated() {
	if Enabled() {
		pipelines.Inc()
	}
}

// Run records one Pipeline.Run() call that emitted n items.
func Run(n int) {
	if Enabled() {
		runs.Inc()
		itemsEmit.Add(float64(n))
	}
}

// ProvideDataError records one rejected ProvideData call.
func ProvideDataError() {
	if Enabled() {
		dataErrors.Inc()
	}
}
