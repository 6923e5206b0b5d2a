package mockauth

import (
	"fmt"
	"net/http"

	"github.com/rhuss/mockauth/pkg/api"
	"github.com/rhuss/mockauth/pkg/debug"
	"github.com/rhuss/mockauth/pkg/observability"
)

// Pending is a request under construction that has not been dispatched.
// At most one authentication is attached at a time; the last attach wins.
type Pending struct {
	req        *http.Request
	injectors  []Injector
	handle     *Handle
	auth       *Authentication
	dispatched bool
}

// NewPending wraps r. Without injectors, DefaultInjectors is used.
func NewPending(r *http.Request, injectors ...Injector) *Pending {
	if len(injectors) == 0 {
		injectors = DefaultInjectors()
	}
	return &Pending{req: r, injectors: injectors}
}

// Attach synthesizes h if needed and stores a copy of its authentication
// on the request, replacing any earlier attachment. The replaced handle
// stays attached and is never dispatched.
func (p *Pending) Attach(h *Handle) error {
	if h == nil {
		return api.NewConfigurationError("cannot attach a nil handle")
	}
	if p.dispatched {
		return api.NewConfigurationError("cannot attach to a request that was already dispatched")
	}
	if h.pending != nil {
		if h.pending != p {
			return api.NewConfigurationError("handle is already attached to a different request")
		}
		if p.handle == h {
			return nil
		}
		return api.NewConfigurationError("handle was replaced by a later attachment and cannot be reattached")
	}

	a, err := h.Synthesize()
	if err != nil {
		return fmt.Errorf("synthesizing %s handle: %w", h.kind, err)
	}
	if err := h.advance(api.StageAttached); err != nil {
		return err
	}

	if p.handle != nil {
		debug.Log("inject", "replacing attached authentication",
			"previous", p.handle.kind, "next", h.kind)
	}
	h.pending = p
	p.handle = h
	p.auth = &a

	debug.Log("inject", "authentication attached",
		"kind", a.Kind,
		"principal", a.Name,
		"authorities", a.Authorities,
		"credential", debug.Secret("inject", a.RawCredential()),
	)
	return nil
}

// AttachAuthentication attaches a pre-built authentication and returns the
// handle created for it.
func (p *Pending) AttachAuthentication(a Authentication) (*Handle, error) {
	h := WithAuthentication(a)
	if err := p.Attach(h); err != nil {
		return nil, err
	}
	return h, nil
}

// Attached returns a copy of the attached authentication, if any.
func (p *Pending) Attached() (Authentication, bool) {
	if p.auth == nil {
		return Authentication{}, false
	}
	return p.auth.Clone(), true
}

// Handle returns the currently attached handle, or nil.
func (p *Pending) Handle() *Handle { return p.handle }

// Dispatched reports whether Dispatch has succeeded.
func (p *Pending) Dispatched() bool { return p.dispatched }

// Dispatch runs the injectors on a clone of the wrapped request and marks
// the request and its attached handle dispatched. Without an attachment
// the clone is returned unchanged. A second call is a configuration error.
func (p *Pending) Dispatch() (*http.Request, error) {
	if p.dispatched {
		return nil, api.NewConfigurationError("request was already dispatched")
	}

	r := p.req.Clone(p.req.Context())
	kind := "anonymous"
	if p.auth != nil {
		kind = string(p.auth.Kind)
		for _, inj := range p.injectors {
			var err error
			if r, err = inj.Inject(r, p.auth.Clone()); err != nil {
				return nil, fmt.Errorf("injecting authentication: %w", err)
			}
		}
		if err := p.handle.advance(api.StageDispatched); err != nil {
			return nil, err
		}
	}

	p.dispatched = true
	observability.MockDispatchesTotal.WithLabelValues(kind).Inc()
	debug.Log("inject", "request dispatched", "method", r.Method, "path", r.URL.Path, "kind", kind)
	return r, nil
}
