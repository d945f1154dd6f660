package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "vulnconsole"
)

var (
	graphQLDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}

	// GraphQL Transport Metrics
	GraphQLRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "graphql_requests_total",
		Help:      "Count of GraphQL requests sent to Central.",
	}, []string{"operation", "status"})

	GraphQLRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "graphql_request_duration_seconds",
		Help:      "Time taken for a GraphQL request to Central to complete.",
		Buckets:   graphQLDurationBuckets,
	}, []string{"operation"})

	QueryCacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "query_cache_lookups_total",
		Help:      "Count of GraphQL response cache lookups.",
	}, []string{"backend", "result"})

	// Fetcher Metrics
	FetchStatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_states_total",
		Help:      "Count of view fetch state transitions.",
	}, []string{"status"})

	StaleResponsesDiscardedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stale_responses_discarded_total",
		Help:      "Number of responses dropped because a newer request for the same view was issued.",
	})

	// Backup Integration Metrics
	BackupTestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backup_tests_total",
		Help:      "Count of backup integration connection tests.",
	}, []string{"kind", "status"})

	BackupIntegrationWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backup_integration_writes_total",
		Help:      "Count of backup integration writes.",
	}, []string{"kind", "action"})
)
