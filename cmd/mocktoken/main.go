// Command mocktoken prints a synthesized mock bearer token.
//
// Usage:
//
//	mocktoken -sub alice -scope "read write" -claim tenant_id=org-1
//	mocktoken -config mockauth.yaml -fixture admin
//
// Claim values that parse as JSON (numbers, booleans, arrays, objects) are
// used as such; anything else is a string. The output is a JSON document
// with the raw value, the unsigned compact JWT, headers, claims and the
// resolved authorities.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/rhuss/mockauth/pkg/api"
	"github.com/rhuss/mockauth/pkg/config"
	"github.com/rhuss/mockauth/pkg/debug"
	"github.com/rhuss/mockauth/pkg/mockauth"
	"github.com/rhuss/mockauth/pkg/token"
)

// pairs collects repeatable key=value flags.
type pairs []string

func (p *pairs) String() string { return strings.Join(*p, ",") }

func (p *pairs) Set(v string) error {
	if !strings.Contains(v, "=") {
		return fmt.Errorf("expected key=value, got %q", v)
	}
	*p = append(*p, v)
	return nil
}

// list collects repeatable plain flags.
type list []string

func (l *list) String() string { return strings.Join(*l, ",") }

func (l *list) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// output is the document printed to stdout.
type output struct {
	Raw         string            `json:"raw"`
	Compact     string            `json:"compact,omitempty"`
	Headers     map[string]string `json:"headers"`
	Claims      map[string]any    `json:"claims"`
	Authorities []string          `json:"authorities"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		slog.Error("mocktoken failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("mocktoken", flag.ContinueOnError)

	var (
		removeClaims            list
		claimPairs, headerPairs pairs
	)
	sub := fs.String("sub", "", "subject claim")
	scope := fs.String("scope", "", "space-separated scopes")
	raw := fs.String("raw", "", "raw token value")
	authorities := fs.String("authorities", "", "comma-separated explicit authorities")
	fixture := fs.String("fixture", "", "name of a configured fixture to start from")
	configPath := fs.String("config", "", "path to the YAML config file")
	opaque := fs.Bool("opaque", false, "synthesize an opaque token (no JOSE header, no compact form)")
	fs.Var(&claimPairs, "claim", "claim in format 'key=value' (repeatable)")
	fs.Var(&headerPairs, "header", "header in format 'key=value' (repeatable)")
	fs.Var(&removeClaims, "remove-claim", "claim to remove (repeatable)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	debug.Init(debug.Options{})

	var muts []token.Mutation
	if *fixture != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		f, ok := cfg.Fixture(*fixture)
		if !ok {
			return fmt.Errorf("fixture %q not found", *fixture)
		}
		if f.EffectiveKind() == config.FixtureUser {
			return fmt.Errorf("fixture %q is a user fixture and has no token", *fixture)
		}
		if f.EffectiveKind() == config.FixtureOpaque {
			*opaque = true
		}
		muts = append(muts, mockauth.FixtureMutations(f)...)
	}

	for _, kv := range headerPairs {
		k, v, _ := strings.Cut(kv, "=")
		muts = append(muts, token.Header(k, v))
	}
	for _, kv := range claimPairs {
		k, v, _ := strings.Cut(kv, "=")
		muts = append(muts, token.Claim(k, claimValue(v)))
	}
	if *sub != "" {
		muts = append(muts, token.Subject(*sub))
	}
	if *scope != "" {
		muts = append(muts, token.Scope(strings.Fields(*scope)...))
	}
	for _, c := range removeClaims {
		muts = append(muts, token.RemoveClaim(c))
	}
	if *raw != "" {
		muts = append(muts, token.RawValue(*raw))
	}
	if *authorities != "" {
		muts = append(muts, token.Authorities(strings.Split(*authorities, ",")...))
	}

	synthesize := token.Synthesize
	if *opaque {
		synthesize = token.SynthesizeOpaque
	}
	res := synthesize(muts...)

	out := output{
		Raw:         res.Token.RawValue(),
		Headers:     res.Token.Headers(),
		Claims:      res.Token.Claims(),
		Authorities: res.Authorities,
	}
	if out.Authorities == nil {
		out.Authorities = []string{}
	}
	if !*opaque {
		compact, err := res.Token.Compact()
		switch {
		case err == nil:
			out.Compact = compact
		case errors.Is(err, api.ErrValidation):
			// Tokens declaring a signing algorithm have no unsigned encoding.
		default:
			return fmt.Errorf("encoding compact token: %w", err)
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// claimValue decodes v as JSON when possible and falls back to the string.
func claimValue(v string) any {
	var decoded any
	if err := json.Unmarshal([]byte(v), &decoded); err == nil {
		return decoded
	}
	return v
}
