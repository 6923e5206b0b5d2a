// Package auth is the security pipeline mock identities are tested against.
//
// Authentication uses a chain-of-responsibility pattern with three-outcome
// voting: each authenticator returns Yes (identity found), No (credentials
// invalid), or Abstain (can't handle). A configurable default voter decides
// when all authenticators abstain.
//
// Auth is implemented as HTTP middleware. Successful authentication puts
// the [Identity] and its tenant into the request context, where
// [RequireAuthority] and application handlers read it.
package auth
