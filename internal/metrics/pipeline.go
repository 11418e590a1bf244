package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline Prometheus metrics.
var (
	PipelineInitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_init_total",
			Help:      "Pipeline initialization attempts by result",
		},
		[]string{"result"},
	)

	RetrievalDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Query embedding plus nearest-neighbor search duration",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	AnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Answered questions by outcome",
		},
		[]string{"outcome"},
	)
)

var pipeOnce sync.Once

// RegisterPipelineMetrics registers pipeline metrics on the default registry.
func RegisterPipelineMetrics() {
	pipeOnce.Do(func() {
		prometheus.MustRegister(PipelineInitTotal, RetrievalDuration, AnswersTotal)
	})
}
