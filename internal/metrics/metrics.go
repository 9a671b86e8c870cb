// Package metrics defines Prometheus metrics for the Shoptet client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shoptet"

// Transport metrics.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests sent to Shoptet, by method and status.",
	}, []string{"method", "status"})

	ConnectRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "connect_retries_total",
		Help:      "Total number of requests re-sent after a connect timeout.",
	})
)

// Token metrics.
var (
	TokenRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refreshes_total",
		Help:      "Total number of API token refreshes, by strategy and outcome.",
	}, []string{"strategy", "outcome"})

	TokenErrorRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_error_retries_total",
		Help:      "Total number of requests re-issued after a token error.",
	})
)

// Pagination metrics.
var (
	PagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pages_fetched_total",
		Help:      "Total number of listing pages fetched.",
	})
)

// Refresh outcomes.
const (
	OutcomeMinted  = "minted"
	OutcomeAdopted = "adopted"
	OutcomeFailed  = "failed"
)
