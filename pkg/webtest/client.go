package webtest

import (
	"io"
	"net/http"
	"strings"

	"github.com/rhuss/mockauth/pkg/mockauth"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/rhuss/mockauth/pkg/webtest"

// DefaultBaseURL prefixes relative request URIs.
const DefaultBaseURL = "http://localhost"

// Client dispatches requests to an http.Handler in-process.
type Client struct {
	handler        http.Handler
	injectors      []mockauth.Injector
	tracerProvider trace.TracerProvider
	propagator     propagation.TextMapPropagator
	defaultHeaders http.Header
	baseURL        string
}

// Option configures a Client.
type Option func(*Client)

// WithInjectors replaces the default injectors used to carry attached
// authentications onto requests.
func WithInjectors(injectors ...mockauth.Injector) Option {
	return func(c *Client) { c.injectors = injectors }
}

// WithTracerProvider sets the provider for exchange spans. When unset the
// global provider is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tracerProvider = tp }
}

// WithPropagator sets the propagator that writes the exchange span's
// context into request headers. When unset the global propagator is used.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(c *Client) { c.propagator = p }
}

// WithDefaultHeader adds a header sent with every request.
func WithDefaultHeader(key, value string) Option {
	return func(c *Client) { c.defaultHeaders.Add(key, value) }
}

// WithBaseURL sets the scheme and host used for relative URIs.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(baseURL, "/") }
}

// New returns a client for handler.
func New(handler http.Handler, opts ...Option) *Client {
	c := &Client{
		handler:        handler,
		injectors:      mockauth.DefaultInjectors(),
		defaultHeaders: make(http.Header),
		baseURL:        DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get starts a GET request.
func (c *Client) Get(uri string) *PendingRequest {
	return c.Method(http.MethodGet, uri, nil)
}

// Delete starts a DELETE request.
func (c *Client) Delete(uri string) *PendingRequest {
	return c.Method(http.MethodDelete, uri, nil)
}

// Post starts a POST request with body.
func (c *Client) Post(uri string, body io.Reader) *PendingRequest {
	return c.Method(http.MethodPost, uri, body)
}

// Put starts a PUT request with body.
func (c *Client) Put(uri string, body io.Reader) *PendingRequest {
	return c.Method(http.MethodPut, uri, body)
}

// Method starts a request with an arbitrary method. Errors building the
// request are reported by Exchange.
func (c *Client) Method(method, uri string, body io.Reader) *PendingRequest {
	pr := &PendingRequest{client: c}

	target := uri
	if !strings.Contains(uri, "://") {
		if !strings.HasPrefix(uri, "/") {
			target = "/" + target
		}
		target = c.baseURL + target
	}

	req, err := http.NewRequest(method, target, body)
	if err != nil {
		pr.err = err
		return pr
	}
	for k, vs := range c.defaultHeaders {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	pr.req = req
	pr.pending = mockauth.NewPending(req, c.injectors...)
	return pr
}

func (c *Client) tracer() trace.Tracer {
	tp := c.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(tracerName)
}

func (c *Client) textPropagator() propagation.TextMapPropagator {
	if c.propagator != nil {
		return c.propagator
	}
	return otel.GetTextMapPropagator()
}
