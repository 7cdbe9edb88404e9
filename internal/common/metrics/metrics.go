// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QuestionsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_questions_processed_total",
			Help: "Total number of questions answered by the engine",
		},
		[]string{"path"}, // cache | remote | local
	)

	QuestionsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_questions_failed_total",
			Help: "Total number of questions that exhausted every generation path",
		},
		[]string{"error_code"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_cache_lookups_total",
			Help: "Cache lookups by cache name and outcome",
		},
		[]string{"cache", "outcome"}, // hit | miss
	)

	RemoteRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_remote_retries_total",
			Help: "Total number of retried remote generation attempts",
		},
	)

	LocalFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_local_fallbacks_total",
			Help: "Total number of answers produced by local fallback after a remote failure",
		},
	)

	QuestionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "engine_question_duration_seconds",
			Help: "Duration of question processing in seconds",
		},
		[]string{"path"},
	)
)
