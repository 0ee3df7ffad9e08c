package acl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/jsamuelsen/cardsdk/internal/adapters/clients"
	"github.com/jsamuelsen/cardsdk/internal/adapters/clients/jsonapi"
	"github.com/jsamuelsen/cardsdk/internal/domain"
)

// maxBody caps how much of a success body is read.
const maxBody = 32 << 20

// BaseAdapter turns transport calls into parsed documents or typed
// exceptions. Resource accessors embed it.
type BaseAdapter struct {
	client      *clients.Client
	builder     *jsonapi.Builder
	serviceName string
}

// NewBaseAdapter creates a base adapter over client. A nil builder selects
// the default registry and schema.
func NewBaseAdapter(client *clients.Client, builder *jsonapi.Builder, serviceName string) *BaseAdapter {
	if builder == nil {
		builder = jsonapi.NewBuilder()
	}

	return &BaseAdapter{
		client:      client,
		builder:     builder,
		serviceName: serviceName,
	}
}

// Client returns the underlying transport.
func (a *BaseAdapter) Client() *clients.Client {
	return a.client
}

// Builder returns the graph builder used for success bodies.
func (a *BaseAdapter) Builder() *jsonapi.Builder {
	return a.builder
}

// ServiceName returns the name of the catalog API.
func (a *BaseAdapter) ServiceName() string {
	return a.serviceName
}

// notFoundTarget names the resource a 404 refers to. A zero value makes a
// 404 classify as a generic not-found error.
type notFoundTarget struct {
	resourceType string
	id           string
}

// DoRequest runs one transport call and returns the success body. Transport
// failures and non-2xx responses come back as typed exceptions.
func (a *BaseAdapter) DoRequest(call func() (*http.Response, error), target notFoundTarget) ([]byte, error) {
	resp, err := call()
	if err != nil {
		return nil, MapClientError(err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		if resp.StatusCode == http.StatusNotFound && target.resourceType != "" {
			return nil, a.notFound(resp, target)
		}

		return nil, ClassifyResponse(resp, nil, nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, ClassifyTransportFailure(fmt.Errorf("reading response body: %w", err))
	}

	return body, nil
}

func (a *BaseAdapter) notFound(resp *http.Response, target notFoundTarget) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var previous error
	if err != nil {
		previous = fmt.Errorf("reading error body: %w", err)
	}

	f := ExtractFields(resp.StatusCode, resp.Header, body, previous, nil)

	return NewNotFound(target.resourceType, target.id, f)
}

// GetDocument fetches and parses one envelope.
func (a *BaseAdapter) GetDocument(ctx context.Context, path string, q url.Values, target notFoundTarget) (*jsonapi.Document, error) {
	body, err := a.DoRequest(func() (*http.Response, error) {
		return a.client.Get(ctx, path, q)
	}, target)
	if err != nil {
		return nil, err
	}

	return a.builder.Parse(body)
}

// SendDocument posts or patches a document and parses the reply. An empty
// reply (204) yields a nil document.
func (a *BaseAdapter) SendDocument(ctx context.Context, method, path string, doc []byte, target notFoundTarget) (*jsonapi.Document, error) {
	body, err := a.DoRequest(func() (*http.Response, error) {
		switch method {
		case http.MethodPost:
			return a.client.Post(ctx, path, doc)
		case http.MethodPut:
			return a.client.Put(ctx, path, doc)
		default:
			return a.client.Patch(ctx, path, doc)
		}
	}, target)
	if err != nil {
		return nil, err
	}

	if len(body) == 0 {
		return nil, nil
	}

	return a.builder.Parse(body)
}

// Delete removes a resource. Any 2xx counts as success.
func (a *BaseAdapter) Delete(ctx context.Context, path string, target notFoundTarget) error {
	_, err := a.DoRequest(func() (*http.Response, error) {
		return a.client.Delete(ctx, path)
	}, target)

	return err
}

// As converts a model to a typed model. A mismatch means the server sent a
// different type than the endpoint promises.
func As[T domain.Model](m domain.Model) (T, error) {
	var zero T

	if m == nil {
		return zero, domain.NewDeserializationError("Response contained no resource", nil)
	}

	t, ok := m.(T)
	if !ok {
		return zero, domain.NewDeserializationError(
			fmt.Sprintf("Unexpected resource type %q", m.Base().Type), nil)
	}

	return t, nil
}

// Translator converts a generic model to a typed one.
type Translator[D domain.Model] func(domain.Model) (D, error)

// TranslateSlice applies translate to every model. The first failure wins.
func TranslateSlice[D domain.Model](items []domain.Model, translate Translator[D]) ([]D, error) {
	result := make([]D, 0, len(items))

	for i, item := range items {
		translated, err := translate(item)
		if err != nil {
			return nil, fmt.Errorf("translating item %d: %w", i, err)
		}

		result = append(result, translated)
	}

	return result, nil
}

// AsSlice converts a list of models to typed models.
func AsSlice[T domain.Model](items []domain.Model) ([]T, error) {
	return TranslateSlice[T](items, As[T])
}
