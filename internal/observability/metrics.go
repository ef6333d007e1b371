// Package observability holds the prometheus metrics emitted by the
// gateway, the session multiplexer and the orchestrators. Recording is
// fire-and-forget; a scrapeless deployment changes nothing.
package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	gatewayInvocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lba",
			Subsystem: "gateway",
			Name:      "invocations_total",
			Help:      "Gateway invocations by specialist, tool and outcome.",
		},
		[]string{"specialist", "tool", "outcome"},
	)
	sessionOpens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lba",
			Subsystem: "sessions",
			Name:      "opens_total",
			Help:      "Session open attempts by result.",
		},
		[]string{"result"},
	)
	sessionsLive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lba",
			Subsystem: "sessions",
			Name:      "live",
			Help:      "Currently open sessions.",
		},
	)
	workflowRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lba",
			Subsystem: "workflow",
			Name:      "runs_total",
			Help:      "Workflow runs by name and success.",
		},
		[]string{"workflow", "success"},
	)
	workflowDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lba",
			Subsystem: "workflow",
			Name:      "run_duration_seconds",
			Help:      "Workflow run duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"workflow"},
	)
)

// RegisterMetrics registers all collectors exactly once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(gatewayInvocations, sessionOpens, sessionsLive, workflowRuns, workflowDuration)
	})
}

// RecordInvocation counts one gateway invocation.
func RecordInvocation(specialist, tool, outcome string) {
	RegisterMetrics()
	gatewayInvocations.WithLabelValues(specialist, tool, outcome).Inc()
}

// RecordSessionOpen counts one open attempt.
func RecordSessionOpen(result string) {
	RegisterMetrics()
	sessionOpens.WithLabelValues(result).Inc()
}

// SessionStarted and SessionEnded track the live-session gauge.
func SessionStarted() {
	RegisterMetrics()
	sessionsLive.Inc()
}

func SessionEnded() {
	RegisterMetrics()
	sessionsLive.Dec()
}

// RecordWorkflow counts one orchestrator run and observes its duration.
func RecordWorkflow(workflow string, success bool, duration time.Duration) {
	RegisterMetrics()
	workflowRuns.WithLabelValues(workflow, strconv.FormatBool(success)).Inc()
	workflowDuration.WithLabelValues(workflow).Observe(duration.Seconds())
}
