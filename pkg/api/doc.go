// Package api defines the error types and lifecycle stages shared by the
// mockauth packages.
//
// Every failure raised while building, attaching or reading a mock identity
// is a programmer error surfaced synchronously to the calling test. The
// package has zero external dependencies and performs no I/O.
//
// Error kinds:
//   - [ErrorTypeValidation]: malformed descriptor input
//   - [ErrorTypeConfiguration]: misuse of the attach/dispatch API
//   - [ErrorTypeState]: out-of-order lifecycle transition
//
// Match them with errors.Is against [ErrValidation], [ErrConfiguration]
// and [ErrState].
package api
