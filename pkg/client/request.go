package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// OutputType selects how a successful response is returned by Execute.
type OutputType string

const (
	// OutputJSON decodes the body as JSON and narrows it with DataKeyPath.
	OutputJSON OutputType = "json"

	// OutputText returns the body as a string.
	OutputText OutputType = "text"

	// OutputResponse returns the *http.Response unread. The caller closes it.
	OutputResponse OutputType = "response"
)

func (o OutputType) valid() bool {
	switch o {
	case OutputJSON, OutputText, OutputResponse:
		return true
	default:
		return false
	}
}

// Params are query parameters. Values are formatted with fmt.Sprint;
// []string values repeat the key; nil values are dropped.
type Params map[string]any

// Values converts p to url.Values.
func (p Params) Values() url.Values {
	v := make(url.Values, len(p))
	for key, value := range p {
		switch val := value.(type) {
		case nil:
			continue
		case string:
			v.Set(key, val)
		case []string:
			v[key] = append([]string(nil), val...)
		default:
			v.Set(key, fmt.Sprint(val))
		}
	}
	return v
}

// RequestOptions holds the per-call options of a request.
type RequestOptions struct {
	// Params are encoded into the query string.
	Params Params

	// JSON, when non-nil, is encoded as the request body.
	JSON any

	// Form, when non-nil and JSON is nil, is sent form-encoded.
	Form url.Values

	// Headers override the client's default headers for this call.
	Headers map[string]string

	// DataKeyPath narrows a decoded JSON body, e.g. "data.items".
	DataKeyPath string

	// Output selects the return shape; empty means OutputJSON.
	Output OutputType
}

func (o RequestOptions) output() OutputType {
	if o.Output == "" {
		return OutputJSON
	}
	return o.Output
}

// body encodes the request payload. It is called once per attempt so that
// every attempt gets a fresh reader.
func (o RequestOptions) body() (io.Reader, string, error) {
	switch {
	case o.JSON != nil:
		data, err := json.Marshal(o.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("encode json body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	case o.Form != nil:
		return strings.NewReader(o.Form.Encode()), "application/x-www-form-urlencoded", nil
	default:
		return nil, "", nil
	}
}

// Authenticator applies credentials to an outgoing request.
type Authenticator interface {
	Apply(req *http.Request) error
}

// AuthFunc adapts a function to Authenticator.
type AuthFunc func(req *http.Request) error

// Apply implements Authenticator.
func (f AuthFunc) Apply(req *http.Request) error { return f(req) }

// BasicAuth sends HTTP basic credentials.
type BasicAuth struct {
	Username string
	Password string
}

// Apply implements Authenticator.
func (a BasicAuth) Apply(req *http.Request) error {
	req.SetBasicAuth(a.Username, a.Password)
	return nil
}

// BearerToken sends an Authorization: Bearer header.
type BearerToken string

// Apply implements Authenticator.
func (t BearerToken) Apply(req *http.Request) error {
	if t == "" {
		return fmt.Errorf("bearer token is empty")
	}
	req.Header.Set("Authorization", "Bearer "+string(t))
	return nil
}

// JoinURL joins host and endpoint with exactly one slash.
func JoinURL(host, endpoint string) string {
	return strings.TrimRight(host, "/") + "/" + strings.Trim(endpoint, "/")
}

// newRequest builds one attempt's request.
func (c *Client) newRequest(ctx context.Context, method, rawURL string, opts RequestOptions) (*http.Request, error) {
	body, contentType, err := opts.body()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if len(opts.Params) > 0 {
		q := req.URL.Query()
		for key, values := range opts.Params.Values() {
			q[key] = values
		}
		req.URL.RawQuery = q.Encode()
	}

	for _, key := range sortedKeys(c.config.Headers) {
		req.Header.Set(key, c.config.Headers[key])
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, key := range sortedKeys(opts.Headers) {
		req.Header.Set(key, opts.Headers[key])
	}

	if c.config.Auth != nil {
		if err := c.config.Auth.Apply(req); err != nil {
			return nil, fmt.Errorf("apply auth: %w", err)
		}
	}

	return req, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
