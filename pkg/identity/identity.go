// Package identity builds in-memory test principals.
//
// A [Descriptor] is an immutable value: every With* method returns a new
// copy and leaves the receiver untouched. No credentials are verified and
// no I/O is performed.
package identity

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rhuss/mockauth/pkg/api"
	"github.com/rhuss/mockauth/pkg/token"
)

const (
	// DefaultUsername is the principal name used by Default.
	DefaultUsername = "user"

	// RolePrefix is prepended to every role to form its authority.
	RolePrefix = "ROLE_"
)

// DefaultRoles is the role set applied when none are given.
var DefaultRoles = []string{"USER"}

// Descriptor describes a test principal.
type Descriptor struct {
	principalName string
	authorities   []string
	attributes    map[string]any
}

// Default returns the descriptor for "user" with role USER.
func Default() Descriptor {
	d, _ := WithUser(DefaultUsername)
	return d
}

// WithUser returns a descriptor for the named principal. Without roles the
// principal gets DefaultRoles. Each role becomes the authority "ROLE_<role>".
func WithUser(name string, roles ...string) (Descriptor, error) {
	if name == "" {
		return Descriptor{}, api.NewValidationError("name", "principal name must not be empty")
	}
	if len(roles) == 0 {
		roles = DefaultRoles
	}
	authorities, err := roleAuthorities(roles)
	if err != nil {
		return Descriptor{}, err
	}
	return Descriptor{
		principalName: name,
		authorities:   authorities,
	}, nil
}

// WithRoles returns a copy whose authorities are exactly the given roles.
func (d Descriptor) WithRoles(roles ...string) (Descriptor, error) {
	authorities, err := roleAuthorities(roles)
	if err != nil {
		return Descriptor{}, err
	}
	c := d.clone()
	c.authorities = authorities
	return c, nil
}

// WithAuthorities returns a copy whose authorities are exactly the given
// strings, without any prefixing.
func (d Descriptor) WithAuthorities(authorities ...string) Descriptor {
	c := d.clone()
	c.authorities = normalize(authorities)
	return c
}

// WithAttribute returns a copy with key set to value.
func (d Descriptor) WithAttribute(key string, value any) Descriptor {
	c := d.clone()
	if c.attributes == nil {
		c.attributes = make(map[string]any, 1)
	}
	c.attributes[key] = token.CloneValue(value)
	return c
}

// Validate checks the descriptor invariants.
func (d Descriptor) Validate() error {
	if d.principalName == "" {
		return api.NewValidationError("name", "principal name must not be empty")
	}
	return nil
}

// PrincipalName returns the principal's name.
func (d Descriptor) PrincipalName() string { return d.principalName }

// Authorities returns a copy of the sorted authority set.
func (d Descriptor) Authorities() []string { return slices.Clone(d.authorities) }

// HasAuthority reports whether the descriptor grants authority.
func (d Descriptor) HasAuthority(authority string) bool {
	_, found := slices.BinarySearch(d.authorities, authority)
	return found
}

// Attributes returns a deep copy of the extra attributes.
func (d Descriptor) Attributes() map[string]any { return token.CloneMap(d.attributes) }

// Attribute returns a copy of a single extra attribute.
func (d Descriptor) Attribute(key string) (any, bool) {
	v, ok := d.attributes[key]
	if !ok {
		return nil, false
	}
	return token.CloneValue(v), true
}

// String renders the descriptor for test failure messages.
func (d Descriptor) String() string {
	return fmt.Sprintf("%s%v", d.principalName, d.authorities)
}

func (d Descriptor) clone() Descriptor {
	return Descriptor{
		principalName: d.principalName,
		authorities:   slices.Clone(d.authorities),
		attributes:    token.CloneMap(d.attributes),
	}
}

func roleAuthorities(roles []string) ([]string, error) {
	authorities := make([]string, 0, len(roles))
	for _, role := range roles {
		if role == "" {
			return nil, api.NewValidationError("roles", "role must not be empty")
		}
		if strings.HasPrefix(role, RolePrefix) {
			return nil, api.NewValidationError("roles",
				fmt.Sprintf("role %q must not start with %s; use WithAuthorities instead", role, RolePrefix))
		}
		authorities = append(authorities, RolePrefix+role)
	}
	return normalize(authorities), nil
}

// normalize turns a list into a sorted set.
func normalize(values []string) []string {
	out := slices.Clone(values)
	slices.Sort(out)
	return slices.Compact(out)
}
