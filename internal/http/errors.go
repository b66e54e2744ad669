package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"ecobank/internal/core"
	applog "ecobank/internal/log"
	"ecobank/internal/session"
	"ecobank/internal/storage"
)

// ErrMessageInternal is the only detail a client sees for a 500.
const ErrMessageInternal = "internal server error"

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeValidationError(w http.ResponseWriter, message string, fields map[string]string) {
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: message, Fields: fields})
}

// writeServiceError maps a service error onto a status code. Storage and
// unexpected failures are logged and hidden from the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, errType := classify(err)
	logger := applog.FromContext(r.Context())

	if status >= 500 {
		logger.ErrorContext(r.Context(), "Request failed",
			applog.FieldError, err,
			applog.FieldErrorType, errType,
			applog.FieldPath, r.URL.Path)
		writeError(w, status, ErrMessageInternal)
		return
	}

	logger.DebugContext(r.Context(), "Request rejected",
		applog.FieldError, err,
		applog.FieldErrorType, errType)
	writeError(w, status, publicMessage(err))
}

func classify(err error) (int, string) {
	var serr *storage.Error
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity, applog.ErrorTypeValidation
	case errors.Is(err, core.ErrInvalidCredentials),
		errors.Is(err, session.ErrInvalidToken),
		errors.Is(err, session.ErrRevoked):
		return http.StatusUnauthorized, applog.ErrorTypeAuth
	case errors.Is(err, core.ErrUnknownUser):
		return http.StatusNotFound, applog.ErrorTypeNotFound
	case errors.As(err, &serr):
		return http.StatusInternalServerError, applog.ErrorTypeStorage
	default:
		return http.StatusInternalServerError, applog.ErrorTypeInternal
	}
}

// publicMessage returns the user-facing text for a rejected action.
func publicMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyCredentials):
		return "Username and password cannot be empty"
	case errors.Is(err, core.ErrUsernameTaken):
		return "Username already exists"
	case errors.Is(err, core.ErrInvalidAmount):
		return "Amount must be greater than 0"
	case errors.Is(err, core.ErrInvalidKind):
		return "Transaction type must be one of Earned, Spent, Given, Received"
	case errors.Is(err, core.ErrInvalidCredentials):
		return "Invalid username or password"
	case errors.Is(err, session.ErrRevoked), errors.Is(err, session.ErrInvalidToken):
		return "invalid or expired session"
	case errors.Is(err, core.ErrUnknownUser):
		return "user not found"
	default:
		return err.Error()
	}
}
