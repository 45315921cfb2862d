// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_tool_calls_total",
			Help: "Tool server calls by tool and outcome",
		},
		[]string{"tool", "outcome"},
	)

	ToolCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "advisor_tool_call_duration_seconds",
			Help:    "Duration of tool server calls in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 45},
		},
		[]string{"tool"},
	)

	IntentDetections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_intent_detections_total",
			Help: "Intent detections by source (keywords, llm, none)",
		},
		[]string{"source"},
	)

	Orchestrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_orchestrations_total",
			Help: "Orchestrated queries by intent source",
		},
		[]string{"intent_source"},
	)

	CategoryOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_category_outcomes_total",
			Help: "Per-category orchestration outcomes (data, fallback)",
		},
		[]string{"category", "outcome"},
	)

	ServerHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "advisor_tool_server_healthy",
			Help: "1 when the last probe of a tool server succeeded, 0 otherwise",
		},
		[]string{"slug"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)
)
