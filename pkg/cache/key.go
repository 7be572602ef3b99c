package cache

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix namespaces every key written by the cache.
const KeyPrefix = "elt:http"

// CacheKey identifies a cached response.
type CacheKey struct {
	// Method is the HTTP method, upper-cased.
	Method string

	// URL is the request URL without its query string.
	URL string

	// Query holds the request query parameters.
	Query url.Values
}

// NewKey builds a key for method and rawURL. Query parameters already on
// rawURL are merged with query.
func NewKey(method, rawURL string, query url.Values) CacheKey {
	merged := url.Values{}
	base := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		for k, vs := range u.Query() {
			merged[k] = append(merged[k], vs...)
		}
		u.RawQuery = ""
		u.Fragment = ""
		base = u.String()
	}
	for k, vs := range query {
		merged[k] = append(merged[k], vs...)
	}
	if method == "" {
		method = http.MethodGet
	}
	return CacheKey{Method: strings.ToUpper(method), URL: base, Query: merged}
}

// KeyForRequest builds the key for an outgoing request.
func KeyForRequest(req *http.Request) CacheKey {
	return NewKey(req.Method, req.URL.String(), nil)
}

// String generates a deterministic key string.
//
// Format: elt:http:METHOD:url:param1=a,b:param2=c
func (k CacheKey) String() string {
	parts := []string{KeyPrefix, k.Method, strings.TrimRight(k.URL, "/")}

	if len(k.Query) > 0 {
		keys := make([]string, 0, len(k.Query))
		for key := range k.Query {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			values := append([]string(nil), k.Query[key]...)
			sort.Strings(values)
			parts = append(parts, key+"="+strings.Join(values, ","))
		}
	}

	return strings.Join(parts, ":")
}
