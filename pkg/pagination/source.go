package pagination

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sternrassler/openbrewery-elt/pkg/client"
)

// ErrNotAList is returned when a page body is not a JSON array of objects.
var ErrNotAList = errors.New("page result is not a list of records")

// PageSource returns one page of records. An empty page marks the end of
// the collection.
type PageSource interface {
	FetchPage(ctx context.Context, page, pageSize int) ([]map[string]any, error)
}

// PageSourceFunc adapts a function to PageSource.
type PageSourceFunc func(ctx context.Context, page, pageSize int) ([]map[string]any, error)

// FetchPage implements PageSource.
func (f PageSourceFunc) FetchPage(ctx context.Context, page, pageSize int) ([]map[string]any, error) {
	return f(ctx, page, pageSize)
}

// ClientSource pages a GET endpoint through a request client using the
// page and per_page query parameters.
type ClientSource struct {
	client      *client.Client
	endpoint    string
	params      client.Params
	dataKeyPath string
}

// NewClientSource creates a source for endpoint. params are sent with every
// page; dataKeyPath narrows each decoded body to the record list.
func NewClientSource(c *client.Client, endpoint string, params client.Params, dataKeyPath string) *ClientSource {
	return &ClientSource{
		client:      c,
		endpoint:    endpoint,
		params:      params,
		dataKeyPath: dataKeyPath,
	}
}

// FetchPage implements PageSource.
func (s *ClientSource) FetchPage(ctx context.Context, page, pageSize int) ([]map[string]any, error) {
	params := make(client.Params, len(s.params)+2)
	for k, v := range s.params {
		params[k] = v
	}
	params["page"] = page
	params["per_page"] = pageSize

	result, err := s.client.Get(ctx, s.endpoint, client.RequestOptions{
		Params:      params,
		DataKeyPath: s.dataKeyPath,
	})
	if err != nil {
		return nil, err
	}
	return toRecords(result)
}

// toRecords converts a decoded JSON value to a record list. nil is an
// empty page.
func toRecords(v any) ([]map[string]any, error) {
	switch list := v.(type) {
	case nil:
		return nil, nil
	case []map[string]any:
		return list, nil
	case []any:
		records := make([]map[string]any, 0, len(list))
		for i, item := range list {
			record, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: element %d is %T", ErrNotAList, i, item)
			}
			records = append(records, record)
		}
		return records, nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrNotAList, v)
	}
}
