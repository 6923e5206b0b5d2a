package mockauth

import (
	"fmt"

	"github.com/rhuss/mockauth/pkg/api"
	"github.com/rhuss/mockauth/pkg/identity"
	"github.com/rhuss/mockauth/pkg/token"
)

// Handle carries one mock identity through one request.
type Handle struct {
	kind      Kind
	user      identity.Descriptor
	mutations []token.Mutation
	prebuilt  Authentication

	stage      api.Stage
	auth       *Authentication
	pending    *Pending
	assertions *Assertions
}

// User returns a handle for an in-memory principal without credentials.
func User(d identity.Descriptor) *Handle {
	return &Handle{kind: KindUser, user: d, stage: api.StageBuilt}
}

// JWT returns a handle whose authentication carries a JWT-shaped token
// built by token.Synthesize from the given mutations.
func JWT(mutations ...token.Mutation) *Handle {
	return &Handle{kind: KindJWT, mutations: mutations, stage: api.StageBuilt}
}

// OpaqueToken returns a handle whose authentication carries an opaque,
// introspected token. Claims become the authentication attributes.
func OpaqueToken(mutations ...token.Mutation) *Handle {
	return &Handle{kind: KindOpaque, mutations: mutations, stage: api.StageBuilt}
}

// WithAuthentication returns a handle for a pre-built authentication.
// It is used as-is: nothing is defaulted or derived.
func WithAuthentication(a Authentication) *Handle {
	a = a.Clone()
	if a.Kind == "" {
		a.Kind = KindAuthentication
	}
	return &Handle{kind: KindAuthentication, prebuilt: a, stage: api.StageBuilt}
}

// Kind returns the kind of authentication the handle produces.
func (h *Handle) Kind() Kind { return h.kind }

// Stage returns the handle's lifecycle stage.
func (h *Handle) Stage() api.Stage { return h.stage }

// Synthesize builds the authentication on first call and advances the
// handle to synthesized. Later calls return a copy of the same
// authentication without changing the stage.
func (h *Handle) Synthesize() (Authentication, error) {
	if h.auth != nil {
		return h.auth.Clone(), nil
	}

	a, err := h.build()
	if err != nil {
		return Authentication{}, err
	}
	if err := h.advance(api.StageSynthesized); err != nil {
		return Authentication{}, err
	}
	h.auth = &a
	return a.Clone(), nil
}

// Authentication returns a copy of the synthesized authentication, if any.
func (h *Handle) Authentication() (Authentication, bool) {
	if h.auth == nil {
		return Authentication{}, false
	}
	return h.auth.Clone(), true
}

// Assertions returns the read-only view of what was dispatched. It fails
// with a state error before dispatch. The first call advances the handle
// to asserted; later calls return the same view.
func (h *Handle) Assertions() (*Assertions, error) {
	if h.assertions != nil {
		return h.assertions, nil
	}
	if h.stage != api.StageDispatched {
		return nil, api.NewStateError(fmt.Sprintf("cannot assert on a handle in stage %s; dispatch the request first", h.stage))
	}
	if err := h.advance(api.StageAsserted); err != nil {
		return nil, err
	}
	h.assertions = newAssertions(*h.auth)
	return h.assertions, nil
}

func (h *Handle) advance(to api.Stage) error {
	if err := api.ValidateStageTransition(h.stage, to); err != nil {
		return err
	}
	h.stage = to
	return nil
}

func (h *Handle) build() (Authentication, error) {
	switch h.kind {
	case KindUser:
		if err := h.user.Validate(); err != nil {
			return Authentication{}, err
		}
		return Authentication{
			Name:        h.user.PrincipalName(),
			Authorities: h.user.Authorities(),
			Attributes:  h.user.Attributes(),
			Kind:        KindUser,
		}, nil
	case KindJWT:
		return fromToken(token.Synthesize(h.mutations...), KindJWT), nil
	case KindOpaque:
		return fromToken(token.SynthesizeOpaque(h.mutations...), KindOpaque), nil
	case KindAuthentication:
		return h.prebuilt.Clone(), nil
	default:
		return Authentication{}, api.NewConfigurationError(fmt.Sprintf("unknown handle kind %q", h.kind))
	}
}

func fromToken(res token.Result, kind Kind) Authentication {
	tok := res.Token
	name, _ := tok.Subject()
	return Authentication{
		Name:        name,
		Authorities: res.Authorities,
		Attributes:  tok.Claims(),
		Credentials: &tok,
		Kind:        kind,
	}
}
