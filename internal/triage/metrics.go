package triage

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for the pipeline.
type Metrics struct {
	ResultsTotal     *prometheus.CounterVec
	EscalationsTotal *prometheus.CounterVec
	GenerationsTotal *prometheus.CounterVec
	LLMFailuresTotal prometheus.Counter
	LLMDuration      prometheus.Histogram
	UrgencyScore     prometheus.Histogram
	Confidence       prometheus.Histogram
	PipelineDuration prometheus.Histogram
	BatchSize        prometheus.Histogram
	BatchDuration    prometheus.Histogram
}

// NewMetrics registers and returns pipeline metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ResultsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "opsinbox_results_total",
			Help: "Processed messages by category and route outcome.",
		}, []string{"category", "route"}),
		EscalationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "opsinbox_escalations_total",
			Help: "Escalated messages by target.",
		}, []string{"target"}),
		GenerationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "opsinbox_generations_total",
			Help: "Generated responses by provenance.",
		}, []string{"source"}),
		LLMFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "opsinbox_llm_failures_total",
			Help: "External generation calls that fell back to the template path.",
		}),
		LLMDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "opsinbox_llm_call_duration_seconds",
			Help:    "Duration of external generation calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 8), // 0.1s .. ~12.8s
		}),
		UrgencyScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "opsinbox_urgency_score",
			Help:    "Urgency score per processed message.",
			Buckets: prometheus.LinearBuckets(10, 10, 10), // 10 .. 100
		}),
		Confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "opsinbox_classification_confidence",
			Help:    "Classification confidence per processed message.",
			Buckets: prometheus.LinearBuckets(0.4, 0.05, 12), // 0.4 .. 0.95
		}),
		PipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "opsinbox_pipeline_duration_seconds",
			Help:    "Duration of single-message pipeline runs in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8), // 1ms .. ~16s
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "opsinbox_batch_size",
			Help:    "Messages per processing run.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8), // 1 .. 128
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "opsinbox_batch_duration_seconds",
			Help:    "Duration of processing runs in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms .. ~5s
		}),
	}

	reg.MustRegister(
		m.ResultsTotal,
		m.EscalationsTotal,
		m.GenerationsTotal,
		m.LLMFailuresTotal,
		m.LLMDuration,
		m.UrgencyScore,
		m.Confidence,
		m.PipelineDuration,
		m.BatchSize,
		m.BatchDuration,
	)

	return m
}

// Hooks returns an EngineHooks that records per-result metrics.
func (m *Metrics) Hooks() EngineHooks {
	return EngineHooks{
		OnResult: func(r *Result, duration time.Duration) {
			m.ResultsTotal.WithLabelValues(string(r.Category), string(r.RouteOutcome)).Inc()
			if r.Escalated() {
				m.EscalationsTotal.WithLabelValues(*r.EscalatedTo).Inc()
			}
			m.GenerationsTotal.WithLabelValues(string(r.ResponseSource)).Inc()
			m.UrgencyScore.Observe(float64(r.UrgencyScore))
			m.Confidence.Observe(r.Confidence)
			m.PipelineDuration.Observe(duration.Seconds())
		},
	}
}

// ObserveLLMCall records one external generation call; wired into the
// response generator by main.
func (m *Metrics) ObserveLLMCall(duration time.Duration, failed bool) {
	m.LLMDuration.Observe(duration.Seconds())
	if failed {
		m.LLMFailuresTotal.Inc()
	}
}

// ObserveBatch records one completed processing run; wired into the
// service by main.
func (m *Metrics) ObserveBatch(size int, duration time.Duration) {
	m.BatchSize.Observe(float64(size))
	m.BatchDuration.Observe(duration.Seconds())
}
