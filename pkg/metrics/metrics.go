// Package metrics holds the Prometheus collectors for the query pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rag_pipeline_runs_total",
		Help: "Pipeline runs by context mode and terminal state",
	}, []string{"mode", "state"})

	validationOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rag_validation_status_total",
		Help: "Final validation status of returned responses",
	}, []string{"mode", "status"})

	pipelineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rag_pipeline_duration_seconds",
		Help:    "End to end pipeline latency",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
	}, []string{"mode"})

	retrievedChunks = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rag_retrieved_chunks",
		Help:    "Chunks returned per retrieval",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
	})

	ingestedChunks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rag_ingested_chunks_total",
		Help: "Chunks processed by the ingestion consumer",
	}, []string{"result"})
)

func ObservePipeline(mode, state string, elapsed time.Duration) {
	pipelineRuns.WithLabelValues(mode, state).Inc()
	pipelineDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

func ObserveValidation(mode, status string) {
	validationOutcomes.WithLabelValues(mode, status).Inc()
}

func ObserveRetrieval(chunks int) {
	retrievedChunks.Observe(float64(chunks))
}

func ObserveIngest(result string, n int) {
	ingestedChunks.WithLabelValues(result).Add(float64(n))
}
