package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultURL = "http://localhost:5000"

	helloPath  = "/api/hello"
	healthPath = "/health"
)

// ErrFetchFailed covers every way a backend call can fail: transport errors,
// non-2xx statuses and bodies that don't decode.
var ErrFetchFailed = errors.New("fetch failed")

type HelloResponse struct {
	Message *string `json:"message"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type Client struct {
	http       *http.Client
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
	baseURL    *url.URL
}

type options struct {
	client     *http.Client
	headers    map[string]string
	timeout    *time.Duration
	tracer     trace.TracerProvider
	propagator propagation.TextMapPropagator
}

// Options can be given in any order: headers and timeout are applied on top
// of the base client once all of them have run.
type Option func(*options)

// WithHeaders adds the given headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(o *options) {
		if o.headers == nil {
			o.headers = map[string]string{}
		}
		for k, v := range headers {
			o.headers[k] = v
		}
	}
}

// WithTimeout bounds each request. Zero means no timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = &timeout
	}
}

// WithHTTPClient uses a copy of client as the base for requests. The
// caller's client is never modified.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.client = client
	}
}

func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(o *options) {
		o.tracer = provider
	}
}

func WithPropagator(propagator propagation.TextMapPropagator) Option {
	return func(o *options) {
		o.propagator = propagator
	}
}

func New(baseURL *url.URL, opts ...Option) *Client {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	client := &http.Client{}
	if o.client != nil {
		cp := *o.client
		client = &cp
	}

	if o.timeout != nil {
		client.Timeout = *o.timeout
	}

	if len(o.headers) > 0 {
		proxied := client.Transport
		if proxied == nil {
			proxied = http.DefaultTransport
		}

		client.Transport = HeaderMiddleware{
			Headers: o.headers,
			Proxied: proxied,
		}
	}

	if o.tracer == nil {
		o.tracer = otel.GetTracerProvider()
	}
	if o.propagator == nil {
		o.propagator = otel.GetTextMapPropagator()
	}

	return &Client{
		http:       client,
		tracer:     o.tracer.Tracer("message-panel/backend"),
		propagator: o.propagator,
		baseURL:    baseURL,
	}
}

// Hello fetches the greeting from /api/hello.
func (c *Client) Hello(ctx context.Context) (string, error) {
	var hello HelloResponse
	err := c.get(ctx, helloPath, &hello)
	if err != nil {
		return "", err
	}

	if hello.Message == nil {
		return "", fmt.Errorf("%w: response has no message", ErrFetchFailed)
	}

	return *hello.Message, nil
}

// Health checks that the backend reports itself as healthy.
func (c *Client) Health(ctx context.Context) error {
	var health HealthResponse
	err := c.get(ctx, healthPath, &health)
	if err != nil {
		return err
	}

	if health.Status != "healthy" {
		return fmt.Errorf("%w: backend status %q", ErrFetchFailed, health.Status)
	}

	return nil
}

// URL returns the address requested for path.
func (c *Client) URL(path string) string {
	return c.baseURL.JoinPath(path).String()
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	uri := c.URL(path)

	ctx, span := c.tracer.Start(ctx, "GET "+path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", http.MethodGet),
		attribute.String("http.url", uri),
	)

	err := c.do(ctx, uri, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return err
}

func (c *Client) do(ctx context.Context, uri string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	c.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer res.Body.Close()

	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("http.status_code", res.StatusCode))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, res.Body)
		return fmt.Errorf("%w: %s returned %s", ErrFetchFailed, uri, res.Status)
	}

	err = json.NewDecoder(res.Body).Decode(out)
	if err != nil {
		return fmt.Errorf("%w: could not decode response: %w", ErrFetchFailed, err)
	}

	return nil
}
