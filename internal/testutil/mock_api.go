// Package testutil provides test servers and fixtures for the ingestion
// packages.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// MockResponse defines a canned response for one request.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable paginated REST server for testing.
//
// Requests are served, in order of precedence, from the scripted queue
// (Enqueue), a per-path handler (SetHandler), or the paged collection
// (SetPages) addressed by the page query parameter.
type MockAPI struct {
	server *httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	script   []MockResponse
	pages    [][]map[string]any
	failPage int
	failCode int

	requestCount int
	queries      []url.Values
	lastHeader   http.Header
	lastBody     []byte
	lastMethod   string
}

// NewMockAPI creates and starts a new mock server.
func NewMockAPI() *MockAPI {
	m := &MockAPI{handlers: make(map[string]http.HandlerFunc)}
	m.server = httptest.NewServer(http.HandlerFunc(m.serve))
	return m
}

func (m *MockAPI) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	m.mu.Lock()
	m.requestCount++
	m.queries = append(m.queries, r.URL.Query())
	m.lastHeader = r.Header.Clone()
	m.lastBody = body
	m.lastMethod = r.Method

	var scripted *MockResponse
	if len(m.script) > 0 {
		next := m.script[0]
		m.script = m.script[1:]
		scripted = &next
	}
	handler, hasHandler := m.handlers[r.URL.Path]
	m.mu.Unlock()

	switch {
	case scripted != nil:
		writeMock(w, *scripted)
	case hasHandler:
		handler(w, r)
	default:
		m.servePage(w, r)
	}
}

func (m *MockAPI) servePage(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	m.mu.Lock()
	failPage, failCode := m.failPage, m.failCode
	var records []map[string]any
	if page <= len(m.pages) {
		records = m.pages[page-1]
	}
	m.mu.Unlock()

	if failPage != 0 && page == failPage {
		w.WriteHeader(failCode)
		w.Write([]byte(`{"message":"failure injected"}`))
		return
	}
	if records == nil {
		records = []map[string]any{}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(records)
}

func writeMock(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// SetHandler sets a custom handler for a specific path.
func (m *MockAPI) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		writeMock(w, resp)
	})
}

// Enqueue appends responses that are served, one per request, before any
// other behaviour applies.
func (m *MockAPI) Enqueue(responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, responses...)
}

// SetPages configures the paged collection. Page N (1-based) returns
// pages[N-1]; pages beyond the slice return an empty JSON array.
func (m *MockAPI) SetPages(pages ...[]map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages = pages
}

// FailPage makes the paged collection answer page with status.
func (m *MockAPI) FailPage(page, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPage = page
	m.failCode = status
}

// RequestCount returns the number of requests made to the server.
func (m *MockAPI) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestCount
}

// Queries returns the query parameters of every request, in arrival order.
func (m *MockAPI) Queries() []url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]url.Values, len(m.queries))
	copy(out, m.queries)
	return out
}

// LastHeader returns the headers of the most recent request.
func (m *MockAPI) LastHeader() http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastHeader
}

// LastBody returns the body of the most recent request.
func (m *MockAPI) LastBody() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastBody
}

// LastMethod returns the method of the most recent request.
func (m *MockAPI) LastMethod() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastMethod
}

// Reset clears tracking counters and the scripted queue.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.queries = nil
	m.script = nil
	m.lastHeader = nil
	m.lastBody = nil
	m.lastMethod = ""
}

// Records builds n brewery-like records with ids starting at first.
func Records(first, n int) []map[string]any {
	out := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		id := first + i
		out = append(out, map[string]any{
			"id":   strconv.Itoa(id),
			"name": "Brewery " + strconv.Itoa(id),
		})
	}
	return out
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"message":"rate limited"}`,
		Headers:    map[string]string{"Retry-After": "1"},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"message":"internal server error"}`,
	}
}

// NewNotFoundResponse creates a 404 Not Found response.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"message":"not found"}`,
	}
}

// NewJSONResponse creates a 200 OK response with a JSON body.
func NewJSONResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}
