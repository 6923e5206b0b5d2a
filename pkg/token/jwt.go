package token

import (
	"fmt"
	"maps"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/rhuss/mockauth/pkg/api"
)

// Compact encodes the descriptor as an unsigned compact JWT (alg "none").
// The JOSE header carries exactly the descriptor's headers. time.Time claim
// values are written as NumericDate.
func (d Descriptor) Compact() (string, error) {
	if alg, ok := d.headers[HeaderAlgorithm]; ok && alg != DefaultAlgorithm {
		return "", api.NewValidationError(HeaderAlgorithm,
			fmt.Sprintf("cannot encode alg %q without a key; use Sign", alg))
	}

	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, d.mapClaims())
	tok.Header = d.joseHeader(jwtlib.SigningMethodNone)

	encoded, err := tok.SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	if err != nil {
		return "", fmt.Errorf("encoding unsigned token: %w", err)
	}
	return encoded, nil
}

// Sign returns a copy of d whose raw value is a compact JWT signed with key
// and whose "alg" header names the method. It lets a mock token pass a
// pipeline that really verifies signatures.
func (d Descriptor) Sign(method jwtlib.SigningMethod, key any) (Descriptor, error) {
	if method == nil {
		return Descriptor{}, api.NewValidationError(HeaderAlgorithm, "signing method is required")
	}

	tok := jwtlib.NewWithClaims(method, d.mapClaims())
	tok.Header = d.joseHeader(method)

	signed, err := tok.SignedString(key)
	if err != nil {
		return Descriptor{}, fmt.Errorf("signing token with %s: %w", method.Alg(), err)
	}

	headers := maps.Clone(d.headers)
	if headers == nil {
		headers = make(map[string]string, 1)
	}
	headers[HeaderAlgorithm] = method.Alg()
	return New(signed, headers, d.claims), nil
}

// Parse decodes a compact JWT into a Descriptor without verifying it.
// Non-string header values are rendered with fmt. JSON numbers become float64.
func Parse(compact string) (Descriptor, error) {
	claims := jwtlib.MapClaims{}
	tok, _, err := jwtlib.NewParser().ParseUnverified(compact, claims)
	if err != nil {
		return Descriptor{}, api.NewValidationError("token", fmt.Sprintf("malformed compact JWT: %v", err))
	}

	headers := make(map[string]string, len(tok.Header))
	for k, v := range tok.Header {
		if s, ok := v.(string); ok {
			headers[k] = s
		} else {
			headers[k] = fmt.Sprint(v)
		}
	}
	return New(compact, headers, claims), nil
}

func (d Descriptor) joseHeader(method jwtlib.SigningMethod) map[string]any {
	header := make(map[string]any, len(d.headers)+1)
	for k, v := range d.headers {
		header[k] = v
	}
	header[HeaderAlgorithm] = method.Alg()
	return header
}

func (d Descriptor) mapClaims() jwtlib.MapClaims {
	claims := make(jwtlib.MapClaims, len(d.claims))
	for k, v := range d.claims {
		switch t := v.(type) {
		case time.Time:
			claims[k] = jwtlib.NewNumericDate(t)
		case *time.Time:
			if t != nil {
				claims[k] = jwtlib.NewNumericDate(*t)
			}
		default:
			claims[k] = CloneValue(v)
		}
	}
	return claims
}
