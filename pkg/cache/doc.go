// Package cache provides an optional Redis-backed response cache for the
// request client.
//
// Only successful GET responses are stored. The TTL of an entry comes from
// the response's Expires header when present and in the future, otherwise
// from the manager's default TTL. Responses marked Cache-Control: no-store
// are never stored.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	manager := cache.NewManager(redisClient, 10*time.Minute)
//
//	key := cache.NewKey(http.MethodGet, "https://api.openbrewerydb.org/v1/breweries",
//		url.Values{"page": {"1"}, "per_page": {"50"}})
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the API, then:
//		entry, _ = cache.ResponseToEntry(resp, manager.DefaultTTL())
//		_ = manager.Set(ctx, key, entry)
//	}
//
// # Metrics
//
//   - elt_cache_hits_total - cache hits
//   - elt_cache_misses_total - cache misses
//   - elt_cache_stored_bytes_total - bytes written to Redis
//   - elt_cache_errors_total{operation} - cache operation errors
package cache
