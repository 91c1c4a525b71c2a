package metrics

import "github.com/prometheus/client_golang/prometheus"

// Engine-level Prometheus metrics for retrieval and benchmarking.
var (
	RetrievalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "currdex",
			Name:      "retrieval_duration_seconds",
			Help:      "Retrieval operation duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"op"}, // "search" / "multi" / "ranked"
	)

	RetrievalResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "currdex",
			Name:      "retrieval_results",
			Help:      "Number of results returned per retrieval",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		},
		[]string{"op"},
	)

	BenchmarkDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "currdex",
			Name:      "benchmark_duration_seconds",
			Help:      "Curriculum benchmark duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"status"}, // "ok" / "error"
	)

	BenchmarkCompetitorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "currdex",
			Name:      "benchmark_competitors_total",
			Help:      "Total number of competitor comparisons performed",
		},
	)

	ResponseCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "currdex",
			Name:      "response_cache_total",
			Help:      "Retrieval response cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var engineMetricsRegistered bool

// RegisterEngineMetrics registers retrieval and benchmark metrics. Must be called once from main.
func RegisterEngineMetrics() {
	if engineMetricsRegistered {
		return
	}
	prometheus.MustRegister(RetrievalDuration)
	prometheus.MustRegister(RetrievalResults)
	prometheus.MustRegister(BenchmarkDuration)
	prometheus.MustRegister(BenchmarkCompetitorsTotal)
	prometheus.MustRegister(ResponseCacheTotal)
	engineMetricsRegistered = true
}
