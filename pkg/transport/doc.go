// Package transport provides the net/http middleware chain shared by the
// sample API and the simulated client.
//
// Built-in middleware provides panic recovery, request ID assignment
// (X-Request-ID), and structured request logging via log/slog. Errors are
// written as JSON bodies wrapping an [api.Error].
package transport
