package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesFetchedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "elt_pages_fetched_total",
			Help: "Total number of non-empty pages fetched",
		},
	)

	recordsFetchedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "elt_records_fetched_total",
			Help: "Total number of records fetched across all pages",
		},
	)

	pageErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "elt_page_errors_total",
			Help: "Total number of page fetches that ended pagination with an error",
		},
	)
)
