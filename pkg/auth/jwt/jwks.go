package jwt

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/rhuss/mockauth/pkg/debug"
)

var errNoJWKS = errors.New("no JWKS URL configured")

// jwksCache caches RSA public keys fetched from a JWKS endpoint.
// Entries expire individually after ttl; an unknown kid triggers a refetch.
type jwksCache struct {
	keys    *ristretto.Cache[string, *rsa.PublicKey]
	ttl     time.Duration
	jwksURL string
	client  *http.Client

	// mu serializes refreshes so concurrent misses fetch once.
	mu sync.Mutex
}

// getKey returns the RSA public key for kid.
func (c *jwksCache) getKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key, ok := c.keys.Get(kid); ok {
		return key, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if key, ok := c.keys.Get(kid); ok {
		return key, nil
	}

	doc, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	fetched := doc.signingKeys()
	for id, key := range fetched {
		c.keys.SetWithTTL(id, key, 1, c.ttl)
	}
	c.keys.Wait()
	debug.Log("auth", "JWKS cache refreshed", "keys", len(fetched), "url", c.jwksURL)

	key, ok := fetched[kid]
	if !ok {
		return nil, fmt.Errorf("key %q not found in JWKS", kid)
	}
	return key, nil
}

// fetch downloads and decodes the key set.
func (c *jwksCache) fetch(ctx context.Context) (*jwksDocument, error) {
	if c.jwksURL == "" {
		return nil, errNoJWKS
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating JWKS request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing JWKS: %w", err)
	}
	return &doc, nil
}

// jwksDocument is a JSON Web Key Set.
type jwksDocument struct {
	Keys []jwkKey `json:"keys"`
}

// signingKeys returns the RSA signature keys by kid. Keys that fail to
// decode are skipped.
func (d *jwksDocument) signingKeys() map[string]*rsa.PublicKey {
	keys := make(map[string]*rsa.PublicKey, len(d.Keys))
	for _, jwk := range d.Keys {
		if jwk.Kty != "RSA" || (jwk.Use != "" && jwk.Use != "sig") {
			continue
		}
		pub, err := jwk.rsaPublicKey()
		if err != nil {
			slog.Warn("skipping JWKS key", "kid", jwk.Kid, "error", err)
			continue
		}
		keys[jwk.Kid] = pub
	}
	return keys
}

// jwkKey is a single JSON Web Key.
type jwkKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"` // base64url modulus
	E   string `json:"e"` // base64url exponent
}

func (k jwkKey) rsaPublicKey() (*rsa.PublicKey, error) {
	n, err := decodeBigInt(k.N)
	if err != nil {
		return nil, fmt.Errorf("decoding modulus: %w", err)
	}
	e, err := decodeBigInt(k.E)
	if err != nil {
		return nil, fmt.Errorf("decoding exponent: %w", err)
	}
	if !e.IsInt64() {
		return nil, fmt.Errorf("RSA exponent too large")
	}
	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}

func decodeBigInt(s string) (*big.Int, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}
