// Package metrics exposes the Prometheus registry of the ingestion and an
// optional HTTP endpoint serving it while a run is in progress.
// All metrics are defined in their respective packages (client, cache,
// ratelimit, pagination, warehouse) and registered via promauto.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Registry is the default Prometheus registry used by the ingestion.
var Registry = prometheus.DefaultRegisterer

// Handler returns the mux served by Serve: /metrics and /health.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})
	return mux
}

// Server serves Handler until stopped.
type Server struct {
	srv    *http.Server
	ln     net.Listener
	done   chan struct{}
	logger zerolog.Logger
}

// Serve starts serving Handler on addr in the background.
func Serve(addr string, logger zerolog.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	s := &Server{
		srv:    &http.Server{Handler: Handler(), ReadHeaderTimeout: 5 * time.Second},
		ln:     ln,
		done:   make(chan struct{}),
		logger: logger,
	}

	go func() {
		defer close(s.done)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	logger.Info().Str("addr", ln.Addr().String()).Msg("Serving metrics")
	return s, nil
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Shutdown stops the server and waits for it to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	<-s.done
	return err
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - elt_http_requests_total{method, status} (Counter): Requests by method and HTTP status
//     (status is also "network_error" or "cache_hit")
//   - elt_http_request_duration_seconds{method} (Histogram): Transport duration by method
//   - elt_http_decode_errors_total (Counter): Successful responses whose body was not JSON
//
// Retry Metrics (pkg/client):
//   - elt_http_retries_total{error_class} (Counter): Retry attempts by error class
//   - elt_http_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - elt_http_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Cache Metrics (pkg/cache):
//   - elt_cache_hits_total (Counter): Cache hits
//   - elt_cache_misses_total (Counter): Cache misses
//   - elt_cache_stored_bytes_total (Counter): Bytes written to the cache
//   - elt_cache_errors_total{operation} (Counter): Cache operation errors
//
// Rate Limit Metrics (pkg/ratelimit):
//   - elt_rate_limit_remaining{scope} (Gauge): Requests left in the API's current window
//   - elt_rate_limit_blocks_total{scope} (Counter): Requests held until the window reset
//   - elt_rate_limit_throttles_total{scope} (Counter): Requests throttled in the warning range
//
// Pagination Metrics (pkg/pagination):
//   - elt_pages_fetched_total (Counter): Non-empty pages fetched
//   - elt_records_fetched_total (Counter): Records fetched
//   - elt_page_errors_total (Counter): Fetches ended early by a failing page
//
// Warehouse Metrics (pkg/warehouse):
//   - elt_warehouse_jobs_total{operation, status} (Counter): BigQuery jobs by operation and outcome
//   - elt_warehouse_rows_loaded_total (Counter): Records submitted in successful loads
//
// Example Prometheus Queries:
//
//   # Retry rate by class
//   sum by (error_class) (rate(elt_http_retries_total[5m]))
//
//   # Cache Hit Rate
//   sum(rate(elt_cache_hits_total[5m])) /
//   (sum(rate(elt_cache_hits_total[5m])) + sum(rate(elt_cache_misses_total[5m])))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(elt_http_request_duration_seconds_bucket[5m]))
