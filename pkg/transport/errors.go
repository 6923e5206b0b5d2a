package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rhuss/mockauth/pkg/api"
)

// ErrorBody is a JSON error payload.
type ErrorBody struct {
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// ErrorResponse wraps an error payload for JSON responses.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// HTTPStatusFromError maps an error to the corresponding HTTP status code.
// Validation problems are the caller's fault, state problems conflict with
// the current lifecycle, and everything else is a server error.
func HTTPStatusFromError(err error) int {
	switch {
	case errors.Is(err, api.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, api.ErrState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes a JSON error response with the given status.
func WriteError(w http.ResponseWriter, status int, errType, message string) {
	writeJSONError(w, status, ErrorBody{Type: errType, Message: message})
}

// WriteAPIError writes err as a JSON error response, deriving the status
// from its type. Errors that are not *api.Error are reported as server
// errors without exposing their message.
func WriteAPIError(w http.ResponseWriter, err error) {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		WriteError(w, http.StatusInternalServerError, "server_error", "internal server error")
		return
	}
	writeJSONError(w, HTTPStatusFromError(apiErr), ErrorBody{
		Type:    string(apiErr.Type),
		Param:   apiErr.Param,
		Message: apiErr.Message,
	})
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, body ErrorBody) {
	WriteJSON(w, status, ErrorResponse{Error: body})
}
