// Package observability provides logging and metrics for the service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the paper podcast service.
// Metrics are organized by subsystem: searches, collection, papers, title
// enrichment, podcasts, and LLM operations. All counters and histograms are
// registered via promauto against the default Prometheus registry.
type Metrics struct {
	// SearchesStarted counts search sessions initiated.
	SearchesStarted prometheus.Counter

	// SearchesCompleted counts search sessions that reached the terminal
	// complete state.
	SearchesCompleted prometheus.Counter

	// SearchesFailed counts search sessions that ended in a step error.
	SearchesFailed prometheus.Counter

	// SearchesSuperseded counts sessions discarded by a newer query.
	SearchesSuperseded prometheus.Counter

	// SearchDuration observes end-to-end search duration in seconds.
	SearchDuration prometheus.Histogram

	// CollectsTotal counts per-category collect calls by outcome
	// (ok, degraded).
	CollectsTotal *prometheus.CounterVec

	// PapersCollected counts papers returned per collect call.
	PapersCollected prometheus.Counter

	// PapersPerCategory observes the distribution of papers per category.
	PapersPerCategory prometheus.Histogram

	// FallbacksRendered counts sessions that fell back to the flat view.
	FallbacksRendered prometheus.Counter

	// TitlesEnriched counts plain-title enrichments by outcome (ok, failed).
	TitlesEnriched *prometheus.CounterVec

	// PodcastsGenerated counts podcast scripts generated.
	PodcastsGenerated prometheus.Counter

	// PodcastsFailed counts podcast script generations that failed.
	PodcastsFailed prometheus.Counter

	// AudioSyntheses counts audio synthesis requests by outcome (ok, failed).
	AudioSyntheses *prometheus.CounterVec

	// AudioChunks observes the number of TTS chunks per synthesis.
	AudioChunks prometheus.Histogram

	// LLMRequestsTotal counts LLM API requests, labeled by operation and model.
	LLMRequestsTotal *prometheus.CounterVec

	// LLMRequestsFailed counts failed LLM API requests, labeled by operation,
	// model, and error type.
	LLMRequestsFailed *prometheus.CounterVec

	// LLMRequestDuration observes LLM API request duration in seconds.
	LLMRequestDuration *prometheus.HistogramVec

	// LLMTokensUsed counts tokens consumed, labeled by operation, model, and
	// token type.
	LLMTokensUsed *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized and
// registered against the default Prometheus registry. The namespace is used
// as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWithRegistry(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates a Metrics instance registered against the
// given registerer. Tests use this with a fresh registry.
func NewMetricsWithRegistry(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SearchesStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_started_total",
			Help:      "Total number of search sessions started",
		}),
		SearchesCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_completed_total",
			Help:      "Total number of search sessions completed successfully",
		}),
		SearchesFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_failed_total",
			Help:      "Total number of search sessions that failed",
		}),
		SearchesSuperseded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_superseded_total",
			Help:      "Total number of search sessions replaced by a newer query",
		}),
		SearchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of search sessions in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),

		CollectsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collects_total",
			Help:      "Total number of per-category collect calls by outcome",
		}, []string{"outcome"}),
		PapersCollected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_collected_total",
			Help:      "Total number of papers returned by collect calls",
		}),
		PapersPerCategory: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "papers_per_category",
			Help:      "Number of papers returned per category",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		}),
		FallbacksRendered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_rendered_total",
			Help:      "Total number of sessions that used the flat fallback view",
		}),

		TitlesEnriched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "titles_enriched_total",
			Help:      "Total number of plain-title enrichments by outcome",
		}, []string{"outcome"}),

		PodcastsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "podcasts_generated_total",
			Help:      "Total number of podcast scripts generated",
		}),
		PodcastsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "podcasts_failed_total",
			Help:      "Total number of podcast script generations that failed",
		}),
		AudioSyntheses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_syntheses_total",
			Help:      "Total number of audio synthesis requests by outcome",
		}, []string{"outcome"}),
		AudioChunks: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "audio_chunks_per_synthesis",
			Help:      "Number of TTS chunks per audio synthesis",
			Buckets:   []float64{1, 2, 4, 8, 16, 32},
		}),

		LLMRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM requests by operation",
		}, []string{"operation", "model"}),
		LLMRequestsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_failed_total",
			Help:      "Total number of failed LLM requests by operation",
		}, []string{"operation", "model", "error_type"}),
		LLMRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Duration of LLM requests in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"operation", "model"}),
		LLMTokensUsed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_used_total",
			Help:      "Total number of tokens used by LLM operations",
		}, []string{"operation", "model", "token_type"}),
	}
}

// RecordSearchStarted records that a search session has started.
func (m *Metrics) RecordSearchStarted() {
	m.SearchesStarted.Inc()
}

// RecordSearchCompleted records a successfully completed search session.
func (m *Metrics) RecordSearchCompleted(durationSeconds float64) {
	m.SearchesCompleted.Inc()
	m.SearchDuration.Observe(durationSeconds)
}

// RecordSearchFailed records a failed search session.
func (m *Metrics) RecordSearchFailed(durationSeconds float64) {
	m.SearchesFailed.Inc()
	m.SearchDuration.Observe(durationSeconds)
}

// RecordSearchSuperseded records a session replaced by a newer query.
func (m *Metrics) RecordSearchSuperseded() {
	m.SearchesSuperseded.Inc()
}

// RecordCollect records a per-category collect call and its paper count.
// degraded is true when the call failed and the category fell back to empty.
func (m *Metrics) RecordCollect(paperCount int, degraded bool) {
	outcome := "ok"
	if degraded {
		outcome = "degraded"
	}
	m.CollectsTotal.WithLabelValues(outcome).Inc()
	m.PapersCollected.Add(float64(paperCount))
	m.PapersPerCategory.Observe(float64(paperCount))
}

// RecordFallbackRendered records a session served through the fallback view.
func (m *Metrics) RecordFallbackRendered() {
	m.FallbacksRendered.Inc()
}

// RecordTitleEnriched records one plain-title enrichment outcome.
func (m *Metrics) RecordTitleEnriched(ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.TitlesEnriched.WithLabelValues(outcome).Inc()
}

// RecordPodcastGenerated records a generated podcast script.
func (m *Metrics) RecordPodcastGenerated() {
	m.PodcastsGenerated.Inc()
}

// RecordPodcastFailed records a failed podcast script generation.
func (m *Metrics) RecordPodcastFailed() {
	m.PodcastsFailed.Inc()
}

// RecordAudioSynthesis records an audio synthesis outcome and chunk count.
func (m *Metrics) RecordAudioSynthesis(ok bool, chunks int) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.AudioSyntheses.WithLabelValues(outcome).Inc()
	if ok {
		m.AudioChunks.Observe(float64(chunks))
	}
}

// RecordLLMRequest records an LLM request with token usage.
func (m *Metrics) RecordLLMRequest(operation, model string, durationSeconds float64, inputTokens, outputTokens int) {
	m.LLMRequestsTotal.WithLabelValues(operation, model).Inc()
	m.LLMRequestDuration.WithLabelValues(operation, model).Observe(durationSeconds)
	m.LLMTokensUsed.WithLabelValues(operation, model, "input").Add(float64(inputTokens))
	m.LLMTokensUsed.WithLabelValues(operation, model, "output").Add(float64(outputTokens))
}

// RecordLLMRequestFailed records a failed LLM request.
func (m *Metrics) RecordLLMRequestFailed(operation, model, errorType string) {
	m.LLMRequestsFailed.WithLabelValues(operation, model, errorType).Inc()
}
