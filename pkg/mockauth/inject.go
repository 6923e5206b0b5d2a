package mockauth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Injector carries an authentication onto a dispatched request.
type Injector interface {
	Inject(r *http.Request, a Authentication) (*http.Request, error)
}

// InjectorFunc adapts a function to the Injector interface.
type InjectorFunc func(r *http.Request, a Authentication) (*http.Request, error)

// Inject calls f.
func (f InjectorFunc) Inject(r *http.Request, a Authentication) (*http.Request, error) {
	return f(r, a)
}

// DefaultInjectors returns the context and bearer injectors.
func DefaultInjectors() []Injector {
	return []Injector{ContextInjector(), BearerInjector()}
}

type authenticationKey struct{}

// ContextWithAuthentication stores a copy of a in ctx.
func ContextWithAuthentication(ctx context.Context, a Authentication) context.Context {
	a = a.Clone()
	return context.WithValue(ctx, authenticationKey{}, &a)
}

// AuthenticationFromContext returns a copy of the authentication stored
// by ContextWithAuthentication.
func AuthenticationFromContext(ctx context.Context) (Authentication, bool) {
	a, ok := ctx.Value(authenticationKey{}).(*Authentication)
	if !ok || a == nil {
		return Authentication{}, false
	}
	return a.Clone(), true
}

// ContextInjector stores the authentication in the request context, where
// Authenticator and application code running in-process can read it.
func ContextInjector() Injector {
	return InjectorFunc(func(r *http.Request, a Authentication) (*http.Request, error) {
		return r.WithContext(ContextWithAuthentication(r.Context(), a)), nil
	})
}

// BearerInjector sets "Authorization: Bearer <raw value>" when the
// authentication carries a credential with a non-empty raw value.
func BearerInjector() Injector {
	return InjectorFunc(func(r *http.Request, a Authentication) (*http.Request, error) {
		if raw := a.RawCredential(); raw != "" {
			r.Header.Set("Authorization", "Bearer "+raw)
		}
		return r, nil
	})
}

// DefaultSessionCookie is the cookie name used by CookieInjector when
// Name is empty.
const DefaultSessionCookie = "SESSION"

// CookieInjector carries the raw credential in a session cookie.
type CookieInjector struct {
	Name string
}

// Inject adds the cookie when the authentication carries a credential.
func (c CookieInjector) Inject(r *http.Request, a Authentication) (*http.Request, error) {
	raw := a.RawCredential()
	if raw == "" {
		return r, nil
	}
	name := c.Name
	if name == "" {
		name = DefaultSessionCookie
	}
	r.AddCookie(&http.Cookie{Name: name, Value: raw})
	return r, nil
}

// CompactBearerInjector is BearerInjector for pipelines that parse the
// bearer value as a JWT. JWT authentications whose raw value is not
// already a compact JWT are sent as their unsigned compact encoding.
func CompactBearerInjector() Injector {
	return InjectorFunc(func(r *http.Request, a Authentication) (*http.Request, error) {
		if a.Credentials == nil {
			return r, nil
		}
		raw := a.RawCredential()
		if a.Kind == KindJWT && strings.Count(raw, ".") != 2 {
			compact, err := a.Credentials.Compact()
			if err != nil {
				return nil, fmt.Errorf("encoding bearer token: %w", err)
			}
			raw = compact
		}
		if raw != "" {
			r.Header.Set("Authorization", "Bearer "+raw)
		}
		return r, nil
	})
}
