package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	callsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hr_llm_calls_total",
		Help: "Model provider invocations.",
	}, []string{"provider"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hr_llm_errors_total",
		Help: "Model provider failures by classified type.",
	}, []string{"error_type"})

	callDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hr_llm_call_duration_seconds",
		Help:    "Wall time of a complete model run including tool iterations.",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"provider"})

	fallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hr_llm_fallbacks_total",
		Help: "Runs retried on the secondary provider.",
	})
)
