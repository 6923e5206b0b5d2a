package webtest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/google/uuid"
	"github.com/rhuss/mockauth/pkg/api"
	"github.com/rhuss/mockauth/pkg/debug"
	"github.com/rhuss/mockauth/pkg/mockauth"
	"github.com/rhuss/mockauth/pkg/transport"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// CSRF carrier names used by WithCSRF.
const (
	CSRFHeader = "X-CSRF-Token"
	CSRFCookie = "csrf_token"
)

// PendingRequest is a request being prepared for Exchange. Its builder
// methods return the receiver for chaining.
type PendingRequest struct {
	client  *Client
	req     *http.Request
	pending *mockauth.Pending
	err     error
}

// Header sets a request header.
func (pr *PendingRequest) Header(key, value string) *PendingRequest {
	if pr.req != nil {
		pr.req.Header.Set(key, value)
	}
	return pr
}

// Cookie adds a request cookie.
func (pr *PendingRequest) Cookie(c *http.Cookie) *PendingRequest {
	if pr.req != nil {
		pr.req.AddCookie(c)
	}
	return pr
}

// WithCSRF sends tok as a double-submit CSRF token, in both a header and
// a cookie.
func (pr *PendingRequest) WithCSRF(tok string) *PendingRequest {
	return pr.Header(CSRFHeader, tok).Cookie(&http.Cookie{Name: CSRFCookie, Value: tok})
}

// WithContext sets the context the request is served with.
func (pr *PendingRequest) WithContext(ctx context.Context) *PendingRequest {
	if pr.req != nil {
		*pr.req = *pr.req.WithContext(ctx)
	}
	return pr
}

// MutateWith attaches h. An error is kept and returned by Exchange.
func (pr *PendingRequest) MutateWith(h *mockauth.Handle) *PendingRequest {
	if err := pr.Attach(h); err != nil && pr.err == nil {
		pr.err = err
	}
	return pr
}

// Attach attaches h and reports errors immediately. The last attached
// handle wins.
func (pr *PendingRequest) Attach(h *mockauth.Handle) error {
	if pr.err != nil {
		return pr.err
	}
	return pr.pending.Attach(h)
}

// Exchange dispatches the request through the client's injectors and
// serves it in-process.
func (pr *PendingRequest) Exchange() (*Result, error) {
	if pr.err != nil {
		return nil, pr.err
	}

	r, err := pr.pending.Dispatch()
	if err != nil {
		return nil, err
	}

	if r.Header.Get(transport.RequestIDHeader) == "" {
		r.Header.Set(transport.RequestIDHeader, uuid.NewString())
	}

	c := pr.client
	ctx, span := c.tracer().Start(r.Context(), "webtest.exchange",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("url.path", r.URL.Path),
			attribute.String("http.request.id", r.Header.Get(transport.RequestIDHeader)),
		),
	)
	defer span.End()

	handle := pr.pending.Handle()
	if a, ok := pr.pending.Attached(); ok {
		span.SetAttributes(attribute.String("mockauth.kind", string(a.Kind)))
		if name, ok := a.Principal(); ok {
			span.SetAttributes(attribute.String("mockauth.principal", name))
		}
	}

	r = r.WithContext(ctx)
	c.textPropagator().Inject(ctx, propagation.HeaderCarrier(r.Header))

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, r)
	resp := rec.Result()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}

	debug.Log("webtest", "exchange completed",
		"method", r.Method,
		"path", r.URL.Path,
		"status", resp.StatusCode,
	)

	return &Result{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		Request:    r,
		handle:     handle,
	}, nil
}

// Result is a served response.
type Result struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// Request is the request as dispatched, after injection.
	Request *http.Request

	handle *mockauth.Handle
}

// String returns the body as a string.
func (r *Result) String() string { return string(r.Body) }

// DecodeJSON unmarshals the body into v.
func (r *Result) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// Auth returns the assertions of the dispatched authentication. It is a
// state error when nothing was attached.
func (r *Result) Auth() (*mockauth.Assertions, error) {
	if r.handle == nil {
		return nil, api.NewStateError("no authentication was attached to the request")
	}
	return r.handle.Assertions()
}
