package mockauth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/rhuss/mockauth/pkg/api"
	"github.com/rhuss/mockauth/pkg/identity"
	"github.com/rhuss/mockauth/pkg/observability"
	"github.com/rhuss/mockauth/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttach_LastAttachWins(t *testing.T) {
	p := NewPending(httptest.NewRequest("GET", "/", nil))
	first := JWT(token.Subject("first"))
	second := JWT(token.Subject("second"))

	require.NoError(t, p.Attach(first))
	require.NoError(t, p.Attach(second))

	a, ok := p.Attached()
	require.True(t, ok)
	assert.Equal(t, "second", a.Name)
	assert.Same(t, second, p.Handle())

	r, err := p.Dispatch()
	require.NoError(t, err)

	got, ok := AuthenticationFromContext(r.Context())
	require.True(t, ok)
	assert.Equal(t, "second", got.Name)

	assert.Equal(t, api.StageAttached, first.Stage(), "replaced handle is never dispatched")
	assert.Equal(t, api.StageDispatched, second.Stage())

	_, err = first.Assertions()
	require.ErrorIs(t, err, api.ErrState)
}

func TestAttach_Errors(t *testing.T) {
	t.Run("nil handle", func(t *testing.T) {
		p := NewPending(httptest.NewRequest("GET", "/", nil))
		require.ErrorIs(t, p.Attach(nil), api.ErrConfiguration)
	})

	t.Run("after dispatch", func(t *testing.T) {
		p := NewPending(httptest.NewRequest("GET", "/", nil))
		_, err := p.Dispatch()
		require.NoError(t, err)

		h := JWT()
		require.ErrorIs(t, p.Attach(h), api.ErrConfiguration)
		assert.Equal(t, api.StageBuilt, h.Stage())
	})

	t.Run("handle on another request", func(t *testing.T) {
		h := JWT()
		require.NoError(t, NewPending(httptest.NewRequest("GET", "/a", nil)).Attach(h))

		err := NewPending(httptest.NewRequest("GET", "/b", nil)).Attach(h)
		require.ErrorIs(t, err, api.ErrConfiguration)
	})

	t.Run("replaced handle reattached", func(t *testing.T) {
		p := NewPending(httptest.NewRequest("GET", "/", nil))
		first := JWT()
		require.NoError(t, p.Attach(first))
		require.NoError(t, p.Attach(JWT()))

		require.ErrorIs(t, p.Attach(first), api.ErrConfiguration)
	})

	t.Run("invalid user descriptor", func(t *testing.T) {
		p := NewPending(httptest.NewRequest("GET", "/", nil))
		err := p.Attach(User(identity.Descriptor{}))
		require.ErrorIs(t, err, api.ErrValidation)
		_, ok := p.Attached()
		assert.False(t, ok)
	})
}

func TestAttach_SameHandleTwice(t *testing.T) {
	p := NewPending(httptest.NewRequest("GET", "/", nil))
	h := JWT()

	require.NoError(t, p.Attach(h))
	require.NoError(t, p.Attach(h))
	assert.Equal(t, api.StageAttached, h.Stage())
}

func TestAttach_CopyOnAttach(t *testing.T) {
	tok := token.New("raw", map[string]string{"alg": "none"}, map[string]any{"sub": "svc"})
	groups := []string{"ops"}
	src := Authentication{
		Name:        "svc",
		Authorities: []string{"SCOPE_read"},
		Attributes:  map[string]any{"groups": groups, "labels": map[string]any{"team": "a"}},
		Credentials: &tok,
	}

	p := NewPending(httptest.NewRequest("GET", "/", nil))
	h, err := p.AttachAuthentication(src)
	require.NoError(t, err)

	src.Authorities[0] = "tampered"
	src.Name = "changed"
	groups[0] = "tampered"
	src.Attributes["labels"].(map[string]any)["team"] = "b"

	a, ok := p.Attached()
	require.True(t, ok)
	assert.Equal(t, "svc", a.Name)
	assert.Equal(t, []string{"SCOPE_read"}, a.Authorities)
	assert.Equal(t, []string{"ops"}, a.Attributes["groups"])
	assert.Equal(t, map[string]any{"team": "a"}, a.Attributes["labels"])

	a.Attributes["groups"].([]string)[0] = "tampered-again"
	again, _ := p.Attached()
	assert.Equal(t, []string{"ops"}, again.Attributes["groups"])

	a.Authorities[0] = "tampered-again"
	again, _ = p.Attached()
	assert.Equal(t, []string{"SCOPE_read"}, again.Authorities)

	synth, _ := h.Authentication()
	assert.Equal(t, []string{"SCOPE_read"}, synth.Authorities)
}

func TestDispatch_Twice(t *testing.T) {
	p := NewPending(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, p.Attach(JWT()))

	_, err := p.Dispatch()
	require.NoError(t, err)
	assert.True(t, p.Dispatched())

	_, err = p.Dispatch()
	require.ErrorIs(t, err, api.ErrConfiguration)
}

func TestDispatch_DoesNotMutateOriginal(t *testing.T) {
	orig := httptest.NewRequest("GET", "/whoami", nil)
	p := NewPending(orig)
	require.NoError(t, p.Attach(JWT(token.RawValue("abc"))))

	r, err := p.Dispatch()
	require.NoError(t, err)

	assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
	assert.Empty(t, orig.Header.Get("Authorization"))
	_, ok := AuthenticationFromContext(orig.Context())
	assert.False(t, ok)
}

func TestDispatch_Anonymous(t *testing.T) {
	before := dispatchCount(t, "anonymous")

	p := NewPending(httptest.NewRequest("GET", "/", nil))
	r, err := p.Dispatch()
	require.NoError(t, err)

	assert.Empty(t, r.Header.Get("Authorization"))
	_, ok := AuthenticationFromContext(r.Context())
	assert.False(t, ok)
	assert.Equal(t, before+1, dispatchCount(t, "anonymous"))
}

func TestDispatch_InjectorError(t *testing.T) {
	failing := InjectorFunc(func(r *http.Request, a Authentication) (*http.Request, error) {
		return nil, errors.New("carrier unavailable")
	})

	h := JWT()
	p := NewPending(httptest.NewRequest("GET", "/", nil), failing)
	require.NoError(t, p.Attach(h))

	_, err := p.Dispatch()
	require.ErrorContains(t, err, "carrier unavailable")
	assert.False(t, p.Dispatched())
	assert.Equal(t, api.StageAttached, h.Stage())
}

func dispatchCount(t *testing.T, kind string) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, observability.MockDispatchesTotal.WithLabelValues(kind).(prometheus.Metric).Write(m))
	return m.GetCounter().GetValue()
}
