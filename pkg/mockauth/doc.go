// Package mockauth attaches mock identities to requests under test.
//
// A test builds a [Handle] from an identity descriptor, a token synthesis
// recipe, or a pre-built [Authentication]. The handle is attached to a
// [Pending] request, which stores a copy of the synthesized authentication
// and hands it to its injectors on [Pending.Dispatch]. Once dispatched, the
// handle yields read-only [Assertions].
//
// Each handle moves through built, synthesized, attached, dispatched and
// asserted exactly once and in that order. A handle belongs to one test
// and one request; nothing in this package is safe for concurrent use.
package mockauth
