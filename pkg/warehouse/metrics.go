package warehouse

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elt_warehouse_jobs_total",
			Help: "Total number of BigQuery jobs by operation and outcome",
		},
		[]string{"operation", "status"}, // operation: load|query, status: ok|error
	)

	rowsLoadedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "elt_warehouse_rows_loaded_total",
			Help: "Total number of records submitted in successful load jobs",
		},
	)
)
