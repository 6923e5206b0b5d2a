package api

import "fmt"

// ErrorType represents the category of a mockauth error.
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation_error"
	ErrorTypeConfiguration ErrorType = "configuration_error"
	ErrorTypeState         ErrorType = "state_error"
)

// Error is a structured error with type, param, and message.
type Error struct {
	Type    ErrorType `json:"type"`
	Param   string    `json:"param,omitempty"`
	Message string    `json:"message"`
}

// Sentinels for errors.Is. A sentinel matches any *Error of the same type.
var (
	ErrValidation    = &Error{Type: ErrorTypeValidation}
	ErrConfiguration = &Error{Type: ErrorTypeConfiguration}
	ErrState         = &Error{Type: ErrorTypeState}
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Type, e.Message, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Is reports whether target is a sentinel of the same error type.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Param == "" && t.Type == e.Type
}

// NewValidationError creates an Error for malformed descriptor input.
func NewValidationError(param, message string) *Error {
	return &Error{
		Type:    ErrorTypeValidation,
		Param:   param,
		Message: message,
	}
}

// NewConfigurationError creates an Error for misuse of the injection API.
func NewConfigurationError(message string) *Error {
	return &Error{
		Type:    ErrorTypeConfiguration,
		Message: message,
	}
}

// NewStateError creates an Error for an out-of-order lifecycle transition.
func NewStateError(message string) *Error {
	return &Error{
		Type:    ErrorTypeState,
		Message: message,
	}
}
