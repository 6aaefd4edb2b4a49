package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Published = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderflow_published_total",
		Help: "Total publish attempts, labelled by destination and outcome.",
	}, []string{"destination", "status"})

	PublishDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "orderflow_publish_duration_ms",
		Help:    "Publish latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	RetryAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orderflow_retry_attempts_total",
		Help: "Total retrying publish sequences started.",
	})

	Fanouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderflow_fanouts_total",
		Help: "Total multi-destination fan-outs, labelled by combined outcome.",
	}, []string{"status"})

	PipelineMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderflow_pipeline_messages_total",
		Help: "Messages handled by pipeline stages, labelled by stage and outcome.",
	}, []string{"stage", "status"})

	PipelineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orderflow_pipeline_stage_duration_ms",
		Help:    "Per-stage transformation latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
	}, []string{"stage"})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orderflow_pipeline_queue_utilization_ratio",
		Help: "Current pipeline work queue utilization (0–1).",
	})
)
