package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	translationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmlens_translations_total",
			Help: "Total number of questions translated to SQL, by intent and risk.",
		},
		[]string{"intent", "risk"},
	)
	translationDurationMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crmlens_translation_duration_ms",
			Help:    "Full pipeline latency in milliseconds.",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
	)
	rejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmlens_rejections_total",
			Help: "Total number of questions rejected before SQL was produced, by reason.",
		},
		[]string{"reason"},
	)
	fallbackInvocationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crmlens_fallback_invocations_total",
			Help: "Total number of LLM fallback calls.",
		},
	)
	fallbackFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crmlens_fallback_failures_total",
			Help: "Total number of LLM fallback calls that failed or returned malformed output.",
		},
	)
	executionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmlens_executions_total",
			Help: "Total number of generated queries executed against the store, by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		translationsTotal,
		translationDurationMs,
		rejectionsTotal,
		fallbackInvocationsTotal,
		fallbackFailuresTotal,
		executionsTotal,
	)
}

func ObserveTranslation(intent, risk string, elapsed time.Duration) {
	translationsTotal.WithLabelValues(intent, risk).Inc()
	translationDurationMs.Observe(float64(elapsed.Milliseconds()))
}

func IncrementRejection(reason string) {
	rejectionsTotal.WithLabelValues(reason).Inc()
}

func ObserveFallback(failed bool) {
	fallbackInvocationsTotal.Inc()
	if failed {
		fallbackFailuresTotal.Inc()
	}
}

func ObserveExecution(err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	executionsTotal.WithLabelValues(outcome).Inc()
}
