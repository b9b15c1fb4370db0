package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// QueryMetrics records cache behavior and outcomes of the cached read layer.
type QueryMetrics struct {
	duration *prometheus.HistogramVec
	fetches  *prometheus.CounterVec
	hits     *prometheus.CounterVec
	failures *prometheus.CounterVec
	states   *prometheus.CounterVec
}

// NewQueryMetrics registers the query metrics on the provided registerer.
func NewQueryMetrics(reg prometheus.Registerer) *QueryMetrics {
	if reg == nil {
		return &QueryMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "query_fetch_duration_seconds",
		Help:    "Duration of query fetches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "query_fetches",
		Help: "Network fetches issued by the query layer.",
	}, []string{"query"})
	hits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "query_cache_hits",
		Help: "Query invocations served from the fresh cache.",
	}, []string{"query"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "query_failures",
		Help: "Query fetches that settled with an error.",
	}, []string{"query"})
	states := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "history_view_states",
		Help: "View states produced by the history pipeline.",
	}, []string{"state"})
	reg.MustRegister(duration, fetches, hits, failures, states)
	return &QueryMetrics{
		duration: duration,
		fetches:  fetches,
		hits:     hits,
		failures: failures,
		states:   states,
	}
}

// ObserveFetchDuration records how long the named query's fetch took.
func (q *QueryMetrics) ObserveFetchDuration(query string, duration time.Duration) {
	if q == nil || q.duration == nil {
		return
	}
	q.duration.WithLabelValues(normalizeLabel(query)).Observe(duration.Seconds())
}

// IncFetch counts a network fetch issued for the named query.
func (q *QueryMetrics) IncFetch(query string) {
	if q == nil || q.fetches == nil {
		return
	}
	q.fetches.WithLabelValues(normalizeLabel(query)).Inc()
}

// IncCacheHit counts an invocation answered from the fresh cache.
func (q *QueryMetrics) IncCacheHit(query string) {
	if q == nil || q.hits == nil {
		return
	}
	q.hits.WithLabelValues(normalizeLabel(query)).Inc()
}

// IncFailure counts a fetch that settled with an error.
func (q *QueryMetrics) IncFailure(query string) {
	if q == nil || q.failures == nil {
		return
	}
	q.failures.WithLabelValues(normalizeLabel(query)).Inc()
}

// IncViewState counts a reduction of the pipeline into the named state.
func (q *QueryMetrics) IncViewState(state string) {
	if q == nil || q.states == nil {
		return
	}
	q.states.WithLabelValues(normalizeLabel(state)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
