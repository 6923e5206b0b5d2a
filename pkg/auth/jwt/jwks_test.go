package jwt

import (
	"crypto/rsa"
	"encoding/base64"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

func TestSigningKeys(t *testing.T) {
	n := base64.RawURLEncoding.EncodeToString(testKeyPair.N.Bytes())
	e := base64.RawURLEncoding.EncodeToString(big.NewInt(int64(testKeyPair.E)).Bytes())

	doc := jwksDocument{Keys: []jwkKey{
		{Kty: "RSA", Kid: "sig", Use: "sig", N: n, E: e},
		{Kty: "RSA", Kid: "nouse", N: n, E: e},
		{Kty: "RSA", Kid: "enc", Use: "enc", N: n, E: e},
		{Kty: "EC", Kid: "ec"},
		{Kty: "RSA", Kid: "broken", N: "!!!", E: e},
	}}

	keys := doc.signingKeys()
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
	for _, kid := range []string{"sig", "nouse"} {
		key, ok := keys[kid]
		if !ok {
			t.Errorf("expected key %q", kid)
			continue
		}
		if key.N.Cmp(testKeyPair.N) != 0 || key.E != testKeyPair.E {
			t.Errorf("key %q does not match the test key pair", kid)
		}
	}
}

func TestJWKSCache_Errors(t *testing.T) {
	newCache := func(t *testing.T, url string) *jwksCache {
		t.Helper()
		keys, err := ristretto.NewCache(&ristretto.Config[string, *rsa.PublicKey]{
			NumCounters: 100,
			MaxCost:     10,
			BufferItems: 64,
		})
		if err != nil {
			t.Fatalf("creating cache: %v", err)
		}
		t.Cleanup(keys.Close)
		return &jwksCache{keys: keys, ttl: time.Minute, jwksURL: url, client: http.DefaultClient}
	}

	if _, err := newCache(t, "").getKey(t.Context(), "k"); err != errNoJWKS {
		t.Errorf("expected errNoJWKS, got %v", err)
	}

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer failing.Close()
	if _, err := newCache(t, failing.URL).getKey(t.Context(), "k"); err == nil {
		t.Error("expected error for non-200 JWKS response")
	}

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer garbage.Close()
	if _, err := newCache(t, garbage.URL).getKey(t.Context(), "k"); err == nil {
		t.Error("expected error for malformed JWKS")
	}
}
