package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quillhq/expenseflow/internal/engine"
	"github.com/quillhq/expenseflow/internal/store"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	Field            string `json:"field,omitempty"`
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, ErrorResponse{
		Error:            code,
		ErrorDescription: description,
	})
}

// writeDomainError maps typed domain errors to HTTP statuses. Validation
// failures name the offending field; "already decided" and "insufficient
// permission" are distinguishable by error code.
func writeDomainError(w http.ResponseWriter, err error) {
	var validationErr *engine.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:            "validation_failed",
			ErrorDescription: validationErr.Error(),
			Field:            validationErr.Field,
		})
		return
	}

	var permissionErr *engine.PermissionError
	if errors.As(err, &permissionErr) {
		writeJSONError(w, http.StatusForbidden, "insufficient_permission", permissionErr.Error())
		return
	}

	var transitionErr *engine.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		writeJSONError(w, http.StatusConflict, "already_decided", transitionErr.Error())
		return
	}

	if errors.Is(err, store.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "not_found", "Record not found")
		return
	}

	if errors.Is(err, store.ErrDuplicateEmail) {
		writeJSONError(w, http.StatusConflict, "duplicate_email", "Email already registered")
		return
	}

	writeJSONError(w, http.StatusInternalServerError, "server_error", err.Error())
}
